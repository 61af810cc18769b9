package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/lehigh-university-libraries/imagepull/internal/images"
	"github.com/lehigh-university-libraries/imagepull/internal/models"
	"github.com/lehigh-university-libraries/imagepull/internal/remote"
	"github.com/lehigh-university-libraries/imagepull/internal/storage"
	"github.com/lehigh-university-libraries/imagepull/internal/workflow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sessionResponse struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Token       string `json:"token"`
	Stage       string `json:"stage"`
	Error       string `json:"error"`
	Message     string `json:"message"`
	TotalImages int    `json:"total_images"`
	Columns     []struct {
		Name     string `json:"name"`
		Tier     string `json:"tier"`
		Badge    string `json:"badge"`
		Hint     string `json:"hint"`
		Selected bool   `json:"selected"`
	} `json:"columns"`
	Selected []string `json:"selected"`
	Steps    []struct {
		Stage  string `json:"stage"`
		Status string `json:"status"`
	} `json:"steps"`
	Report *struct {
		OutputDir string `json:"output_dir"`
		Saved     int    `json:"saved"`
		Failed    int    `json:"failed"`
	} `json:"report"`
}

// extractionService stands in for the remote service
func extractionService(t *testing.T, download func(w http.ResponseWriter, req models.DownloadRequest)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload":
			_ = json.NewEncoder(w).Encode(models.UploadResult{
				Columns:  []string{"Name", "Photo", "Description"},
				Filename: "abc123",
			})
		case "/download-images":
			var req models.DownloadRequest
			if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
				return
			}
			download(w, req)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func newTestHandler(t *testing.T, server *httptest.Server) (*Handler, string) {
	t.Helper()
	root := t.TempDir()
	store := storage.New(root)
	machine := workflow.NewMachine(remote.NewClient(server.URL), images.NewMaterializer(store))
	return New(machine, store.Root()), root
}

func uploadRequest(t *testing.T, name, content string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func selectionRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/api/selection", strings.NewReader(body))
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionResponse {
	t.Helper()
	var resp sessionResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestWorkflowOverHTTP(t *testing.T) {
	server := extractionService(t, func(w http.ResponseWriter, req models.DownloadRequest) {
		assert.Equal(t, "abc123", req.Filename)
		assert.Equal(t, []string{"Photo"}, req.Columns)
		_ = json.NewEncoder(w).Encode(models.DownloadResponse{
			Message:     "Downloaded 1 image",
			TotalImages: 1,
			Images: []models.ImageDescriptor{
				{Column: "Photo", Filename: "a.png", Extension: "png", Data: "aGk="},
			},
		})
	})
	h, root := newTestHandler(t, server)

	rec := serve(h, uploadRequest(t, "contacts.csv", "Name,Photo,Description\n"))
	require.Equal(t, http.StatusOK, rec.Code)
	session := decodeSession(t, rec)
	assert.Equal(t, "select", session.Stage)
	assert.Equal(t, "contacts.csv", session.DisplayName)
	require.Len(t, session.Columns, 3)
	assert.Equal(t, "Photo", session.Columns[0].Name)
	assert.Equal(t, "high", session.Columns[0].Tier)
	assert.Equal(t, "Recommended", session.Columns[0].Badge)
	assert.Equal(t, "Name", session.Columns[1].Name)
	assert.Empty(t, session.Selected)
	require.Len(t, session.Steps, 4)
	assert.Equal(t, "completed", session.Steps[0].Status)
	assert.Equal(t, "current", session.Steps[1].Status)

	rec = serve(h, selectionRequest(`{"action":"toggle","column":"Photo"}`))
	require.Equal(t, http.StatusOK, rec.Code)
	session = decodeSession(t, rec)
	assert.Equal(t, []string{"Photo"}, session.Selected)
	assert.True(t, session.Columns[0].Selected)

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/download", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	session = decodeSession(t, rec)
	assert.Equal(t, "complete", session.Stage)
	assert.Equal(t, 1, session.TotalImages)
	require.NotNil(t, session.Report)
	assert.Equal(t, 1, session.Report.Saved)
	assert.Equal(t, root, session.Report.OutputDir)

	data, err := os.ReadFile(filepath.Join(root, "Photo", "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	rec = serve(h, httptest.NewRequest(http.MethodPost, "/api/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	session = decodeSession(t, rec)
	assert.Equal(t, "upload", session.Stage)
	assert.Empty(t, session.Columns)
}

func TestUploadRejectedDataset(t *testing.T) {
	server := extractionService(t, nil)
	h, _ := newTestHandler(t, server)

	rec := serve(h, uploadRequest(t, "notes.txt", "hello"))
	require.Equal(t, http.StatusOK, rec.Code)

	session := decodeSession(t, rec)
	assert.Equal(t, "upload", session.Stage)
	assert.Equal(t, workflow.UnsupportedFormatMessage, session.Error)
}

func TestUploadWithoutFile(t *testing.T) {
	server := extractionService(t, nil)
	h, _ := newTestHandler(t, server)

	req := httptest.NewRequest(http.MethodPost, "/api/upload", strings.NewReader("nope"))
	rec := serve(h, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadFailureReturnsToSelect(t *testing.T) {
	server := extractionService(t, func(w http.ResponseWriter, req models.DownloadRequest) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Column 'Photo' has no URLs"})
	})
	h, _ := newTestHandler(t, server)

	serve(h, uploadRequest(t, "contacts.csv", "Name,Photo,Description\n"))
	serve(h, selectionRequest(`{"action":"select_all"}`))

	rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/download", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	session := decodeSession(t, rec)
	assert.Equal(t, "select", session.Stage)
	assert.Equal(t, "Column 'Photo' has no URLs", session.Error)
	assert.Nil(t, session.Report)
	assert.Len(t, session.Selected, 3)
}

func TestSelectionErrors(t *testing.T) {
	server := extractionService(t, nil)
	h, _ := newTestHandler(t, server)

	tests := []struct {
		name     string
		body     string
		uploaded bool
		wantCode int
	}{
		{name: "toggle before upload", body: `{"action":"toggle","column":"Photo"}`, wantCode: http.StatusConflict},
		{name: "invalid json", body: `{`, wantCode: http.StatusBadRequest},
		{name: "unknown action", body: `{"action":"invert"}`, uploaded: true, wantCode: http.StatusBadRequest},
		{name: "missing column", body: `{"action":"toggle"}`, uploaded: true, wantCode: http.StatusBadRequest},
		{name: "unknown column", body: `{"action":"toggle","column":"Logo"}`, uploaded: true, wantCode: http.StatusBadRequest},
		{name: "clear all", body: `{"action":"clear_all"}`, uploaded: true, wantCode: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.machine.Reset()
			if tt.uploaded {
				rec := serve(h, uploadRequest(t, "contacts.csv", "Name,Photo,Description\n"))
				require.Equal(t, http.StatusOK, rec.Code)
			}

			rec := serve(h, selectionRequest(tt.body))
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode != http.StatusOK {
				var errResp models.ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
				assert.NotEmpty(t, errResp.Error)
			}
		})
	}
}

func TestDownloadWithoutSelection(t *testing.T) {
	server := extractionService(t, nil)
	h, _ := newTestHandler(t, server)
	serve(h, uploadRequest(t, "contacts.csv", "Name,Photo,Description\n"))

	rec := serve(h, httptest.NewRequest(http.MethodPost, "/api/download", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	server := extractionService(t, nil)
	h, _ := newTestHandler(t, server)

	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodPost, path: "/api/session"},
		{method: http.MethodGet, path: "/api/upload"},
		{method: http.MethodGet, path: "/api/selection"},
		{method: http.MethodGet, path: "/api/download"},
		{method: http.MethodGet, path: "/api/reset"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(tt.method, tt.path, nil))
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

			var errResp models.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
			assert.Equal(t, "Method not allowed", errResp.Error)
		})
	}
}

func TestHealthcheck(t *testing.T) {
	server := extractionService(t, nil)
	h, _ := newTestHandler(t, server)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = serve(h, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleSessionInitial(t *testing.T) {
	server := extractionService(t, nil)
	h, _ := newTestHandler(t, server)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/api/session", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	session := decodeSession(t, rec)
	assert.Equal(t, "upload", session.Stage)
	assert.Equal(t, []string{}, session.Selected)
	require.Len(t, session.Steps, 4)
	assert.Equal(t, "current", session.Steps[0].Status)
	assert.Equal(t, "pending", session.Steps[3].Status)
}

package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/lehigh-university-libraries/imagepull/internal/models"
	"github.com/m-mizutani/goerr/v2"
)

const (
	// DownloadTimeout bounds the image retrieval call, which may cover many images
	DownloadTimeout = 5 * time.Minute

	// DefaultDownloadPath is the server-side organization hint sent with every download
	DefaultDownloadPath = "downloads"
)

// APIError is a non-2xx response from the extraction service
type APIError struct {
	StatusCode int
	Message    string // taken from the {"error": "..."} body, may be empty
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("extraction service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("extraction service returned status %d: %s", e.StatusCode, e.Message)
}

// Client talks to the remote extraction service
type Client struct {
	BaseURL         string
	DownloadTimeout time.Duration
	httpClient      *http.Client
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		DownloadTimeout: DownloadTimeout,
		httpClient:      &http.Client{},
	}
}

// Upload submits a dataset file and returns its columns and filename token
func (c *Client) Upload(ctx context.Context, name string, r io.Reader) (*models.UploadResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", name)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create multipart form", goerr.V("name", name))
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, goerr.Wrap(err, "failed to read dataset", goerr.V("name", name))
	}
	if err := writer.Close(); err != nil {
		return nil, goerr.Wrap(err, "failed to finish multipart form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/upload", &body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create upload request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	slog.Debug("Uploading dataset", "name", name, "bytes", body.Len(), "url", req.URL.String())

	var result models.UploadResult
	if err := c.do(req, &result); err != nil {
		return nil, goerr.Wrap(err, "upload failed", goerr.V("name", name))
	}

	return &result, nil
}

// DownloadImages asks the service to retrieve the images of the selected columns.
// The call is bounded by DownloadTimeout.
func (c *Client) DownloadImages(ctx context.Context, request models.DownloadRequest) (*models.DownloadResponse, error) {
	if request.DownloadPath == "" {
		request.DownloadPath = DefaultDownloadPath
	}

	payload, err := json.Marshal(request)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode download request")
	}

	timeout := c.DownloadTimeout
	if timeout <= 0 {
		timeout = DownloadTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/download-images", bytes.NewReader(payload))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create download request")
	}
	req.Header.Set("Content-Type", "application/json")

	slog.Debug("Requesting images", "filename", request.Filename, "columns", request.Columns, "timeout", timeout)

	var result models.DownloadResponse
	if err := c.do(req, &result); err != nil {
		return nil, goerr.Wrap(err, "download failed", goerr.V("filename", request.Filename))
	}

	return &result, nil
}

// do executes req and decodes a 2xx JSON body into out. Other statuses
// become *APIError carrying the service's error message when present.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return goerr.Wrap(err, "request to extraction service failed", goerr.V("url", req.URL.String()))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

		apiErr := &APIError{StatusCode: resp.StatusCode}
		var errResp models.ErrorResponse
		if json.Unmarshal(body, &errResp) == nil {
			apiErr.Message = errResp.Error
		}
		return apiErr
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerr.Wrap(err, "failed to decode extraction service response")
	}

	return nil
}

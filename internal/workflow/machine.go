package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/lehigh-university-libraries/imagepull/internal/images"
	"github.com/lehigh-university-libraries/imagepull/internal/models"
	"github.com/lehigh-university-libraries/imagepull/internal/remote"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrRequestPending = errors.New("a request is already in flight")
	ErrSessionReset   = errors.New("session was reset while the request was in flight")
)

// Remote is the extraction service
type Remote interface {
	Upload(ctx context.Context, name string, r io.Reader) (*models.UploadResult, error)
	DownloadImages(ctx context.Context, request models.DownloadRequest) (*models.DownloadResponse, error)
}

// Materializer turns a successful download response into local files
type Materializer interface {
	Materialize(ctx context.Context, resp *models.DownloadResponse) *images.Report
}

// Dataset is a file submitted for upload
type Dataset struct {
	Name   string
	Size   int64
	Reader io.Reader
}

// Machine owns the active Session and drives it through the workflow.
// At most one remote call is in flight. Every reset bumps the generation
// and cancels the in-flight request, so nothing started before it is saved
// or applied.
type Machine struct {
	mu           sync.Mutex
	session      Session
	generation   uint64
	pending      bool
	cancel       context.CancelFunc // of the in-flight request
	remote       Remote
	materializer Materializer
	newID        func() string
}

// NewMachine creates a machine in the upload stage
func NewMachine(r Remote, m Materializer) *Machine {
	return &Machine{
		session:      NewSession(),
		remote:       r,
		materializer: m,
		newID:        uuid.NewString,
	}
}

// Session returns a snapshot of the active session
func (m *Machine) Session() Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.session
	s.Columns = slices.Clone(s.Columns)
	return s
}

// Generation returns the current request generation
func (m *Machine) Generation() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generation
}

// Upload submits a dataset. Rejected or failed uploads keep the machine in
// the upload stage with Session.Error set; only misuse returns an error.
func (m *Machine) Upload(ctx context.Context, dataset Dataset) error {
	m.mu.Lock()
	if m.pending {
		m.mu.Unlock()
		return ErrRequestPending
	}
	if err := m.apply(UploadStarted{}); err != nil {
		m.mu.Unlock()
		return err
	}
	if err := remote.ValidateDataset(dataset.Name, dataset.Size); err != nil {
		slog.Warn("Dataset rejected before upload", "name", dataset.Name, "error", err)
		err = m.apply(UploadFailed{Message: uploadFailureMessage(err)})
		m.mu.Unlock()
		return err
	}
	reqCtx, gen := m.begin(ctx)
	m.mu.Unlock()

	result, err := m.remote.Upload(reqCtx, dataset.Name, dataset.Reader)

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		slog.Debug("Dropping upload result after reset", "name", dataset.Name)
		return ErrSessionReset
	}
	m.finish()

	if err != nil {
		slog.Error("Upload error", "name", dataset.Name, "error", err)
		return m.apply(UploadFailed{Message: uploadFailureMessage(err)})
	}

	if err := m.apply(UploadSucceeded{
		SessionID:   m.newID(),
		DisplayName: dataset.Name,
		Result:      *result,
	}); err != nil {
		return err
	}

	slog.Info("Dataset uploaded",
		"session_id", m.session.ID,
		"name", dataset.Name,
		"token", m.session.Token,
		"columns", len(m.session.Columns))
	return nil
}

// Toggle flips one column in the selection
func (m *Machine) Toggle(column string) error {
	return m.applyLocked(ColumnToggled{Column: column})
}

// SelectAll selects every column of the dataset
func (m *Machine) SelectAll() error {
	return m.applyLocked(AllColumnsSelected{})
}

// ClearSelection empties the selection
func (m *Machine) ClearSelection() error {
	return m.applyLocked(SelectionCleared{})
}

// Download retrieves the images of the selected columns and materializes
// them. A classified failure or an empty result returns the machine to the
// select stage with Session.Error set and a nil report.
func (m *Machine) Download(ctx context.Context) (*images.Report, error) {
	m.mu.Lock()
	if m.pending {
		m.mu.Unlock()
		return nil, ErrRequestPending
	}
	if err := m.apply(DownloadStarted{}); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	reqCtx, gen := m.begin(ctx)
	sessionID := m.session.ID
	request := models.DownloadRequest{
		Filename:     m.session.Token,
		Columns:      m.session.Selected.Columns(),
		DownloadPath: remote.DefaultDownloadPath,
	}
	m.mu.Unlock()

	logger := slog.With("session_id", sessionID)
	logger.Info("Requesting images", "columns", request.Columns)

	resp, err := m.remote.DownloadImages(reqCtx, request)

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		logger.Debug("Dropping download result after reset")
		return nil, ErrSessionReset
	}

	if err != nil {
		m.finish()
		message := ClassifyFailure(err)
		logger.Error("Download error", "error", err, "message", message)
		applyErr := m.apply(DownloadFailed{Message: message})
		m.mu.Unlock()
		return nil, applyErr
	}

	if resp.TotalImages == 0 {
		m.finish()
		logger.Warn("No images found", "columns", request.Columns)
		applyErr := m.apply(DownloadSucceeded{Message: resp.Message})
		m.mu.Unlock()
		return nil, applyErr
	}
	m.mu.Unlock()

	report := &images.Report{TotalImages: resp.TotalImages}
	if len(resp.Images) > 0 {
		report = m.materializer.Materialize(reqCtx, resp)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.generation {
		logger.Debug("Dropping download completion after reset")
		return nil, ErrSessionReset
	}
	m.finish()

	if err := m.apply(DownloadSucceeded{Message: resp.Message, TotalImages: resp.TotalImages}); err != nil {
		return nil, err
	}

	logger.Info("Download complete",
		"total_images", resp.TotalImages,
		"saved", report.Saved(),
		"failed", report.Failed())
	return report, nil
}

// Reset discards the session and any in-flight result and returns to upload
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.finish()
	_ = m.apply(ResetRequested{})
	slog.Debug("Session reset", "generation", m.generation)
}

// begin marks a request in flight and derives the context Reset cancels.
// Callers hold mu.
func (m *Machine) begin(ctx context.Context) (context.Context, uint64) {
	reqCtx, cancel := context.WithCancel(ctx)
	m.pending = true
	m.cancel = cancel
	return reqCtx, m.generation
}

// finish releases the in-flight request. Callers hold mu and own the
// current generation.
func (m *Machine) finish() {
	m.pending = false
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m *Machine) applyLocked(e Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.apply(e)
}

// apply runs Transition on the owned session. Callers hold mu.
func (m *Machine) apply(e Event) error {
	next, err := Transition(m.session, e)
	if err != nil {
		return goerr.Wrap(err, "workflow transition failed")
	}
	m.session = next
	return nil
}

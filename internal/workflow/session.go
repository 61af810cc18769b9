package workflow

import (
	"errors"
	"fmt"
	"slices"

	"github.com/lehigh-university-libraries/imagepull/internal/columns"
	"github.com/lehigh-university-libraries/imagepull/internal/models"
	"github.com/m-mizutani/goerr/v2"
)

var (
	ErrInvalidTransition = errors.New("event not allowed in current stage")
	ErrEmptySelection    = errors.New("no columns selected")
	ErrUnknownColumn     = errors.New("column is not part of the dataset")
)

// Session is the state of the single active workflow, from upload through
// completion. The zero stage is normalized by NewSession.
type Session struct {
	ID          string            `json:"id,omitempty"`
	DisplayName string            `json:"display_name,omitempty"` // local name of the uploaded file
	Token       string            `json:"token,omitempty"`        // service filename token
	Columns     []string          `json:"columns,omitempty"`
	Selected    columns.Selection `json:"-"`
	Message     string            `json:"message,omitempty"`
	TotalImages int               `json:"total_images"`
	Error       string            `json:"error,omitempty"`
	Stage       Stage             `json:"stage"`
}

// NewSession returns the initial empty session
func NewSession() Session {
	return Session{Stage: StageUpload}
}

// Event is a user action or remote outcome fed to Transition
type Event interface {
	eventName() string
}

type (
	UploadStarted   struct{}
	UploadSucceeded struct {
		SessionID   string
		DisplayName string
		Result      models.UploadResult
	}
	UploadFailed       struct{ Message string }
	ColumnToggled      struct{ Column string }
	AllColumnsSelected struct{}
	SelectionCleared   struct{}
	DownloadStarted    struct{}
	DownloadSucceeded  struct {
		Message     string
		TotalImages int
	}
	DownloadFailed struct{ Message string }
	ResetRequested struct{}
)

func (UploadStarted) eventName() string      { return "upload_started" }
func (UploadSucceeded) eventName() string    { return "upload_succeeded" }
func (UploadFailed) eventName() string       { return "upload_failed" }
func (ColumnToggled) eventName() string      { return "column_toggled" }
func (AllColumnsSelected) eventName() string { return "all_columns_selected" }
func (SelectionCleared) eventName() string   { return "selection_cleared" }
func (DownloadStarted) eventName() string    { return "download_started" }
func (DownloadSucceeded) eventName() string  { return "download_succeeded" }
func (DownloadFailed) eventName() string     { return "download_failed" }
func (ResetRequested) eventName() string     { return "reset_requested" }

// Transition applies e to s and returns the resulting session. s is never
// modified. Events that do not belong to the current stage return
// ErrInvalidTransition and leave the session as it was.
func Transition(s Session, e Event) (Session, error) {
	if _, ok := e.(ResetRequested); ok {
		return NewSession(), nil
	}

	switch ev := e.(type) {
	case UploadStarted:
		if s.Stage != StageUpload {
			return s, invalid(s, e)
		}
		s.Error = ""
		return s, nil

	case UploadSucceeded:
		if s.Stage != StageUpload {
			return s, invalid(s, e)
		}
		next := NewSession()
		next.ID = ev.SessionID
		next.DisplayName = ev.DisplayName
		next.Token = ev.Result.Filename
		next.Columns = slices.Clone(ev.Result.Columns)
		next.Stage = StageSelect
		return next, nil

	case UploadFailed:
		if s.Stage != StageUpload {
			return s, invalid(s, e)
		}
		s.Error = ev.Message
		return s, nil

	case ColumnToggled:
		if s.Stage != StageSelect {
			return s, invalid(s, e)
		}
		if !slices.Contains(s.Columns, ev.Column) {
			return s, goerr.Wrap(ErrUnknownColumn, "cannot toggle column", goerr.V("column", ev.Column))
		}
		s.Selected = s.Selected.Toggle(ev.Column)
		s.Error = ""
		return s, nil

	case AllColumnsSelected:
		if s.Stage != StageSelect {
			return s, invalid(s, e)
		}
		s.Selected = s.Selected.SelectAll(s.Columns)
		s.Error = ""
		return s, nil

	case SelectionCleared:
		if s.Stage != StageSelect {
			return s, invalid(s, e)
		}
		s.Selected = s.Selected.Clear()
		s.Error = ""
		return s, nil

	case DownloadStarted:
		if s.Stage != StageSelect {
			return s, invalid(s, e)
		}
		if s.Selected.IsEmpty() {
			return s, goerr.Wrap(ErrEmptySelection, "select at least one column before downloading")
		}
		s.Stage = StageDownload
		s.Error = ""
		return s, nil

	case DownloadSucceeded:
		if s.Stage != StageDownload {
			return s, invalid(s, e)
		}
		if ev.TotalImages == 0 {
			s.Stage = StageSelect
			s.Error = NoImagesMessage
			return s, nil
		}
		s.Stage = StageComplete
		s.Message = ev.Message
		s.TotalImages = ev.TotalImages
		return s, nil

	case DownloadFailed:
		if s.Stage != StageDownload {
			return s, invalid(s, e)
		}
		s.Stage = StageSelect
		s.Error = ev.Message
		return s, nil
	}

	return s, goerr.Wrap(ErrInvalidTransition, fmt.Sprintf("unknown event %T", e))
}

func invalid(s Session, e Event) error {
	return goerr.Wrap(ErrInvalidTransition, "rejected event",
		goerr.V("stage", s.Stage), goerr.V("event", e.eventName()))
}

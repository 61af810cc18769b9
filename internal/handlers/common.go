package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/lehigh-university-libraries/imagepull/internal/columns"
	"github.com/lehigh-university-libraries/imagepull/internal/images"
	"github.com/lehigh-university-libraries/imagepull/internal/models"
	"github.com/lehigh-university-libraries/imagepull/internal/workflow"
)

type Handler struct {
	machine   *workflow.Machine
	outputDir string
}

func New(machine *workflow.Machine, outputDir string) *Handler {
	return &Handler{
		machine:   machine,
		outputDir: outputDir,
	}
}

// ColumnView is one dataset column as presented for selection
type ColumnView struct {
	Name     string       `json:"name"`
	Tier     columns.Tier `json:"tier"`
	Badge    string       `json:"badge,omitempty"`
	Hint     string       `json:"hint"`
	Selected bool         `json:"selected"`
}

// StepView is one entry of the progress indicator
type StepView struct {
	Stage  workflow.Stage      `json:"stage"`
	Status workflow.StepStatus `json:"status"`
}

// ReportView summarizes local materialization of a download
type ReportView struct {
	OutputDir string `json:"output_dir"`
	Saved     int    `json:"saved"`
	Failed    int    `json:"failed"`
}

// SessionView is the JSON document every endpoint answers with
type SessionView struct {
	workflow.Session
	Columns  []ColumnView `json:"columns"`
	Selected []string     `json:"selected"`
	Steps    []StepView   `json:"steps"`
	Report   *ReportView  `json:"report,omitempty"`
}

func (h *Handler) view(rep *images.Report) SessionView {
	session := h.machine.Session()

	v := SessionView{
		Session:  session,
		Columns:  make([]ColumnView, 0, len(session.Columns)),
		Selected: session.Selected.Columns(),
		Steps:    make([]StepView, 0, len(workflow.Stages)),
	}
	if v.Selected == nil {
		v.Selected = []string{}
	}

	for _, name := range columns.RankForDisplay(session.Columns) {
		tier := columns.Classify(name)
		v.Columns = append(v.Columns, ColumnView{
			Name:     name,
			Tier:     tier,
			Badge:    tier.Badge(),
			Hint:     tier.Hint(),
			Selected: session.Selected.Contains(name),
		})
	}

	for _, stage := range workflow.Stages {
		v.Steps = append(v.Steps, StepView{Stage: stage, Status: stage.Status(session.Stage)})
	}

	if rep != nil {
		v.Report = &ReportView{
			OutputDir: h.outputDir,
			Saved:     rep.Saved(),
			Failed:    rep.Failed(),
		}
	}

	return v
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message, "status", code)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Error: message}); err != nil {
		slog.Error("Unable to encode JSON error", "err", err)
	}
}

// writeWorkflowError maps a rejected Machine call to an HTTP status
func (h *Handler) writeWorkflowError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrUnknownColumn),
		errors.Is(err, workflow.ErrEmptySelection):
		h.writeError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, workflow.ErrRequestPending),
		errors.Is(err, workflow.ErrSessionReset),
		errors.Is(err, workflow.ErrInvalidTransition):
		h.writeError(w, err.Error(), http.StatusConflict)
	default:
		h.writeError(w, err.Error(), http.StatusInternalServerError)
	}
}

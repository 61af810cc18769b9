package handlers

import (
	"net/http"
)

// HandleDownload retrieves the selected columns' images and saves them under
// the server's output directory. It blocks until the session has resolved to
// complete or back to select.
func (h *Handler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	rep, err := h.machine.Download(r.Context())
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	h.writeJSON(w, h.view(rep))
}

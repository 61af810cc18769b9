package handlers

import (
	"encoding/json"
	"net/http"
)

const (
	actionToggle    = "toggle"
	actionSelectAll = "select_all"
	actionClearAll  = "clear_all"
)

// HandleSelection edits the column selection.
// Body: {"action": "toggle", "column": "Photo URL"}, {"action": "select_all"}
// or {"action": "clear_all"}.
func (h *Handler) HandleSelection(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Action string `json:"action"`
		Column string `json:"column"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	var err error
	switch request.Action {
	case actionToggle:
		if request.Column == "" {
			h.writeError(w, "column is required", http.StatusBadRequest)
			return
		}
		err = h.machine.Toggle(request.Column)
	case actionSelectAll:
		err = h.machine.SelectAll()
	case actionClearAll:
		err = h.machine.ClearSelection()
	default:
		h.writeError(w, "Invalid action. Must be 'toggle', 'select_all', or 'clear_all'", http.StatusBadRequest)
		return
	}
	if err != nil {
		h.writeWorkflowError(w, err)
		return
	}

	h.writeJSON(w, h.view(nil))
}

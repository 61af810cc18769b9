package handlers

import (
	"net/http"
)

func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.view(nil))
}

// HandleReset drops the session, including any request still in flight
func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.machine.Reset()
	h.writeJSON(w, h.view(nil))
}

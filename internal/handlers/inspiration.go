package handlers

import "net/http"

func (h *Handler) HandleGetInspiration(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.workspace(w, r).Inspiration().State())
}

func (h *Handler) HandleAsk(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)

	var request struct {
		Question string `json:"question"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	state, err := ws.Inspiration().Ask(r.Context(), request.Question)
	h.writeResult(w, state, err)
}

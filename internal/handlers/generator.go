package handlers

import (
	"net/http"

	"github.com/inkstudio/inkstudio/internal/providers"
)

func (h *Handler) HandleGetGenerator(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.workspace(w, r).Generator().State())
}

func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)

	var request struct {
		Prompt      string `json:"prompt"`
		AspectRatio string `json:"aspectRatio"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	state, err := ws.Generator().Generate(r.Context(), request.Prompt, providers.AspectRatio(request.AspectRatio))
	h.writeResult(w, state, err)
}

func (h *Handler) HandleGeneratorSave(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	design, err := ws.Generator().Save(r.Context())
	if err != nil {
		h.writeResult(w, ws.Generator().State(), err)
		return
	}
	h.writeJSON(w, design)
}

func (h *Handler) HandleGeneratorUse(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	if err := ws.UseGenerated(); err != nil {
		h.writeResult(w, ws.Generator().State(), err)
		return
	}
	h.writeJSON(w, ws.Studio().State())
}

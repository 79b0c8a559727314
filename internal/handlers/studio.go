package handlers

import (
	"net/http"

	"github.com/inkstudio/inkstudio/internal/providers"
	"github.com/inkstudio/inkstudio/internal/studio"
)

func (h *Handler) HandleGetView(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.workspace(w, r).State())
}

func (h *Handler) HandleSetView(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)

	var request struct {
		View string `json:"view"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	view, err := studio.ParseView(request.View)
	if err != nil {
		h.writeResult(w, ws.State(), err)
		return
	}
	ws.SetView(r.Context(), view)
	h.writeJSON(w, ws.State())
}

func (h *Handler) HandleGetStudio(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.workspace(w, r).Studio().State())
}

func (h *Handler) HandleStudioSave(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	design, err := ws.Studio().Save(r.Context())
	if err != nil {
		h.writeResult(w, ws.Studio().State(), err)
		return
	}
	h.writeJSON(w, design)
}

func (h *Handler) HandleStudioMode(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)

	var request struct {
		Mode string `json:"mode"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	mode, err := studio.ParseMode(request.Mode)
	if err == nil {
		err = ws.Studio().SetMode(r.Context(), mode)
	}
	h.writeResult(w, ws.Studio().State(), err)
}

func (h *Handler) HandleStudioReset(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	ws.Reset()
	h.writeJSON(w, ws.Studio().State())
}

// Chat

func (h *Handler) HandleGetChat(w http.ResponseWriter, r *http.Request) {
	chat, err := h.workspace(w, r).Studio().Chat()
	if err != nil {
		h.writeResult(w, nil, err)
		return
	}
	h.writeJSON(w, chat.State())
}

func (h *Handler) HandleChatMessage(w http.ResponseWriter, r *http.Request) {
	chat, err := h.workspace(w, r).Studio().Chat()
	if err != nil {
		h.writeResult(w, nil, err)
		return
	}

	var request struct {
		Text string `json:"text"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	state, err := chat.Send(r.Context(), request.Text)
	h.writeResult(w, state, err)
}

func (h *Handler) HandleChatSave(w http.ResponseWriter, r *http.Request) {
	chat, err := h.workspace(w, r).Studio().Chat()
	if err != nil {
		h.writeResult(w, nil, err)
		return
	}

	var request struct {
		Index int `json:"index"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	design, err := chat.Save(r.Context(), request.Index)
	if err != nil {
		h.writeResult(w, chat.State(), err)
		return
	}
	h.writeJSON(w, design)
}

// Video

func (h *Handler) HandleGetVideo(w http.ResponseWriter, r *http.Request) {
	v, err := h.workspace(w, r).Studio().Video()
	if err != nil {
		h.writeResult(w, nil, err)
		return
	}
	h.writeJSON(w, v.State())
}

func (h *Handler) HandleVideoGenerate(w http.ResponseWriter, r *http.Request) {
	v, err := h.workspace(w, r).Studio().Video()
	if err != nil {
		h.writeResult(w, nil, err)
		return
	}

	var request struct {
		BodyPart    string `json:"bodyPart"`
		AspectRatio string `json:"aspectRatio"`
	}
	if !h.decodeJSON(w, r, &request) {
		return
	}

	state, err := v.Generate(r.Context(), request.BodyPart, providers.AspectRatio(request.AspectRatio))
	h.writeResult(w, state, err)
}

func (h *Handler) HandleVideoCredential(w http.ResponseWriter, r *http.Request) {
	v, err := h.workspace(w, r).Studio().Video()
	if err != nil {
		h.writeResult(w, nil, err)
		return
	}

	var request struct {
		Key string `json:"key"`
	}
	if r.ContentLength != 0 && !h.decodeJSON(w, r, &request) {
		return
	}

	state, err := v.SelectCredential(r.Context(), request.Key)
	h.writeResult(w, state, err)
}

func (h *Handler) HandleVideoDownload(w http.ResponseWriter, r *http.Request) {
	v, err := h.workspace(w, r).Studio().Video()
	if err != nil {
		h.writeResult(w, nil, err)
		return
	}

	data, mimeType, fileName, err := v.Download()
	if err != nil {
		h.writeResult(w, v.State(), err)
		return
	}
	h.writeDownload(w, data, mimeType, fileName)
}

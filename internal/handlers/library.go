package handlers

import (
	"net/http"
	"strconv"

	"github.com/inkstudio/inkstudio/internal/library"
)

func (h *Handler) HandleListLibrary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, h.workspace(w, r).Library().Load(r.Context()))
}

func (h *Handler) HandleDeleteDesign(w http.ResponseWriter, r *http.Request) {
	lib := h.workspace(w, r).Library()
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))

	state, err := lib.Delete(r.Context(), r.PathValue("id"), confirmed)
	h.writeResult(w, state, err)
}

func (h *Handler) HandleUseDesign(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)
	if err := ws.UseSaved(r.Context(), r.PathValue("id")); err != nil {
		h.writeResult(w, nil, err)
		return
	}
	h.writeJSON(w, ws.Studio().State())
}

func (h *Handler) HandleDownloadDesign(w http.ResponseWriter, r *http.Request) {
	data, mimeType, fileName, err := h.workspace(w, r).Library().Download(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeResult(w, nil, err)
		return
	}
	h.writeDownload(w, data, mimeType, fileName)
}

func (h *Handler) HandleThumbnail(w http.ResponseWriter, r *http.Request) {
	size := library.DefaultThumbnailSize
	if v := r.URL.Query().Get("size"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 || parsed > 1024 {
			h.writeError(w, "size must be between 1 and 1024", http.StatusBadRequest)
			return
		}
		size = parsed
	}

	thumb, err := h.workspace(w, r).Library().Thumbnail(r.Context(), r.PathValue("id"), size)
	if err != nil {
		h.writeResult(w, nil, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, max-age=3600")
	if _, err := w.Write(thumb); err != nil {
		h.writeError(w, "Unable to write thumbnail: "+err.Error(), http.StatusInternalServerError)
	}
}

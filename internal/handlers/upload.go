package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/inkstudio/inkstudio/internal/codec"
	"github.com/inkstudio/inkstudio/internal/providers"
)

// HandleUpload analyzes an uploaded tattoo photo and recreates it. The photo
// arrives as a multipart file, or as JSON with an image_url or data URI.
func (h *Handler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ws := h.workspace(w, r)

	var (
		img providers.Image
		ok  bool
	)
	if strings.Contains(r.Header.Get("Content-Type"), "application/json") {
		img, ok = h.readURLUpload(w, r)
	} else {
		img, ok = h.readFileUpload(w, r)
	}
	if !ok {
		return
	}

	state, err := ws.Studio().Upload(r.Context(), img)
	h.writeResult(w, state, err)
}

func (h *Handler) readURLUpload(w http.ResponseWriter, r *http.Request) (providers.Image, bool) {
	var request struct {
		ImageURL string `json:"image_url"`
		Image    string `json:"image"`
	}

	if err := json.NewDecoder(io.LimitReader(r.Body, 2*h.maxUploadBytes)).Decode(&request); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return providers.Image{}, false
	}

	var (
		data     []byte
		declared string
		err      error
	)
	switch {
	case request.Image != "":
		declared, data, err = codec.ParseDataURI(request.Image)
	case request.ImageURL != "":
		data, declared, err = h.downloadImageFromURL(r.Context(), request.ImageURL)
	default:
		h.writeError(w, "image_url or image is required", http.StatusBadRequest)
		return providers.Image{}, false
	}
	if err != nil {
		h.writeError(w, "Failed to process image: "+err.Error(), http.StatusBadRequest)
		return providers.Image{}, false
	}

	img, err := toImage(data, declared)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return providers.Image{}, false
	}
	return img, true
}

func (h *Handler) readFileUpload(w http.ResponseWriter, r *http.Request) (providers.Image, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+1024*1024)

	file, header, err := r.FormFile("file")
	if err != nil {
		file, header, err = r.FormFile("files")
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return providers.Image{}, false
		}
	}
	defer file.Close()

	fileData, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
		return providers.Image{}, false
	}

	if int64(len(fileData)) > h.maxUploadBytes {
		h.writeError(w, fmt.Sprintf("File too large (max %d bytes)", h.maxUploadBytes), http.StatusBadRequest)
		return providers.Image{}, false
	}

	img, err := toImage(fileData, header.Header.Get("Content-Type"))
	if err != nil {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return providers.Image{}, false
	}
	return img, true
}

// writeDownload sends bytes as an attachment
func (h *Handler) writeDownload(w http.ResponseWriter, data []byte, mimeType, fileName string) {
	w.Header().Set("Content-Type", mimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	if _, err := w.Write(data); err != nil {
		h.writeError(w, "Unable to write download: "+err.Error(), http.StatusInternalServerError)
	}
}

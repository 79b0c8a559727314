package handlers

import (
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
)

// HandleStatic serves the browser UI. An ?image=<url> query uploads that
// photo into the visitor's studio before redirecting to the UI.
func (h *Handler) HandleStatic(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == "" {
		path = "index.html"
	}

	if imageURL := r.URL.Query().Get("image"); imageURL != "" {
		ws := h.workspace(w, r)
		data, declared, err := h.downloadImageFromURL(r.Context(), imageURL)
		if err == nil {
			img, convErr := toImage(data, declared)
			if convErr == nil {
				_, err = ws.Studio().Upload(r.Context(), img)
			} else {
				err = convErr
			}
		}
		if err != nil {
			slog.Error("Failed to process image URL", "url", imageURL, "error", err)
			http.Error(w, "Failed to process image URL: "+err.Error(), http.StatusBadRequest)
			return
		}

		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	// Prevent directory traversal attacks
	if strings.Contains(path, "..") {
		http.Error(w, "Invalid file path", http.StatusBadRequest)
		return
	}

	switch {
	case strings.HasSuffix(path, ".css"):
		w.Header().Set("Content-Type", "text/css")
	case strings.HasSuffix(path, ".js"):
		w.Header().Set("Content-Type", "application/javascript")
	case strings.HasSuffix(path, ".html"):
		w.Header().Set("Content-Type", "text/html")
	}

	http.ServeFile(w, r, filepath.Join(h.staticDir, filepath.FromSlash(path)))
}

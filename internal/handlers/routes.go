package handlers

import (
	"log/slog"
	"net/http"

	"github.com/rs/cors"
)

// Routes returns the API and UI wrapped in logging, recovery and CORS
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/view", h.HandleGetView)
	mux.HandleFunc("POST /api/view", h.HandleSetView)

	mux.HandleFunc("GET /api/studio", h.HandleGetStudio)
	mux.HandleFunc("POST /api/studio/upload", h.HandleUpload)
	mux.HandleFunc("POST /api/studio/save", h.HandleStudioSave)
	mux.HandleFunc("POST /api/studio/mode", h.HandleStudioMode)
	mux.HandleFunc("POST /api/studio/reset", h.HandleStudioReset)

	mux.HandleFunc("GET /api/chat", h.HandleGetChat)
	mux.HandleFunc("POST /api/chat/messages", h.HandleChatMessage)
	mux.HandleFunc("POST /api/chat/save", h.HandleChatSave)

	mux.HandleFunc("GET /api/video", h.HandleGetVideo)
	mux.HandleFunc("POST /api/video", h.HandleVideoGenerate)
	mux.HandleFunc("POST /api/video/credential", h.HandleVideoCredential)
	mux.HandleFunc("GET /api/video/download", h.HandleVideoDownload)

	mux.HandleFunc("GET /api/generator", h.HandleGetGenerator)
	mux.HandleFunc("POST /api/generator", h.HandleGenerate)
	mux.HandleFunc("POST /api/generator/save", h.HandleGeneratorSave)
	mux.HandleFunc("POST /api/generator/use", h.HandleGeneratorUse)

	mux.HandleFunc("GET /api/library", h.HandleListLibrary)
	mux.HandleFunc("DELETE /api/library/{id}", h.HandleDeleteDesign)
	mux.HandleFunc("POST /api/library/{id}/use", h.HandleUseDesign)
	mux.HandleFunc("GET /api/library/{id}/download", h.HandleDownloadDesign)
	mux.HandleFunc("GET /api/library/{id}/thumbnail", h.HandleThumbnail)

	mux.HandleFunc("GET /api/inspiration", h.HandleGetInspiration)
	mux.HandleFunc("POST /api/inspiration", h.HandleAsk)

	mux.HandleFunc("GET /healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	mux.HandleFunc("GET /", h.HandleStatic)

	var handler http.Handler = mux
	handler = RequestLog(handler)
	handler = Recovery(handler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   h.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
	})
	return corsHandler.Handler(handler)
}

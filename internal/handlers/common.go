package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/inkstudio/inkstudio/internal/credentials"
	"github.com/inkstudio/inkstudio/internal/gemini"
	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
	"github.com/inkstudio/inkstudio/internal/storage"
	"github.com/inkstudio/inkstudio/internal/studio"
)

// Options wires the handler to its collaborators
type Options struct {
	// NewProvider builds a profile's client over that profile's key.
	// Provider is shared by every profile when NewProvider is nil.
	NewProvider func(keys credentials.Source) providers.Provider
	Provider    providers.Provider
	// Credentials is the server's own key; profiles may select their own
	Credentials     credentials.Capability
	KV              storage.KV
	PollInterval    time.Duration
	MessageInterval time.Duration
	StaticDir       string
	CORSOrigins     []string
	MaxUploadBytes  int64
	// MaxProfiles caps the workspaces kept in memory
	MaxProfiles int
	// ProfileIdleTimeout evicts workspaces not used for this long
	ProfileIdleTimeout time.Duration
	// HTTPClient downloads images submitted by URL
	HTTPClient *http.Client
}

type Handler struct {
	profiles       *ProfileStore
	staticDir      string
	corsOrigins    []string
	maxUploadBytes int64
	httpClient     *http.Client
}

func New(opts Options) *Handler {
	if opts.StaticDir == "" {
		opts.StaticDir = "static"
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 10 * 1024 * 1024
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Handler{
		profiles:       NewProfileStore(opts),
		staticDir:      opts.StaticDir,
		corsOrigins:    opts.CORSOrigins,
		maxUploadBytes: opts.MaxUploadBytes,
		httpClient:     opts.HTTPClient,
	}
}

// Close stops background work of every profile
func (h *Handler) Close() {
	h.profiles.Close()
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// writeResult writes a screen state, or the state together with the error
// that interrupted it. Provider failures are already rendered into the state
// as user-facing text.
func (h *Handler) writeResult(w http.ResponseWriter, state interface{}, err error) {
	if err == nil {
		h.writeJSON(w, state)
		return
	}

	code := statusFor(err)
	message := err.Error()
	if code >= 500 {
		message = http.StatusText(code)
	}
	slog.Warn("Request failed", "status", code, "err", err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"error": message, "state": state}); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrBusy), errors.Is(err, studio.ErrStale):
		return http.StatusConflict
	case errors.Is(err, models.ErrStorageFull):
		return http.StatusInsufficientStorage
	case errors.Is(err, models.ErrCredentialMissing), gemini.IsEntityNotFound(err):
		return http.StatusUnauthorized
	default:
		return http.StatusBadGateway
	}
}

// decodeJSON reads a JSON request body into v
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// Package library persists saved designs for one browser profile as a single
// JSON document behind a storage.KV.
//
// The store is a read-modify-write over one value. Writers inside a process
// are serialized, but two processes sharing a profile race with last writer
// wins; that is a known limitation of the single-user model.
package library

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/inkstudio/inkstudio/internal/codec"
	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/storage"
)

// Key is the storage entry holding the library
const Key = "tattoo_design_library"

// record is the persisted layout of a SavedDesign
type record struct {
	ID        string `json:"id"`
	ImageData string `json:"imageData"`
	MimeType  string `json:"mimeType"`
	Prompt    string `json:"prompt"`
	CreatedAt string `json:"createdAt"`
}

type Store struct {
	kv    storage.KV
	now   func() time.Time
	newID func() string
	mu    sync.Mutex
}

// NewStore returns a library backed by kv
func NewStore(kv storage.KV) *Store {
	return &Store{
		kv:  kv,
		now: time.Now,
		newID: func() string {
			return "img_" + uuid.NewString()
		},
	}
}

// List returns saved designs newest first. Unreadable or malformed storage
// yields an empty library rather than an error.
func (s *Store) List(ctx context.Context) []models.SavedDesign {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the design with the given id
func (s *Store) Get(ctx context.Context, id string) (models.SavedDesign, bool) {
	for _, design := range s.List(ctx) {
		if design.ID == id {
			return design, true
		}
	}
	return models.SavedDesign{}, false
}

// Save prepends a new design and persists the whole library. A rejected
// write is reported as models.ErrStorageFull.
func (s *Store) Save(ctx context.Context, image []byte, mimeType, prompt string) (models.SavedDesign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	designs := s.load(ctx)

	createdAt := s.now().UTC()
	if len(designs) > 0 && createdAt.Before(designs[0].CreatedAt) {
		createdAt = designs[0].CreatedAt
	}

	design := models.SavedDesign{
		ID:        s.newID(),
		ImageData: image,
		MimeType:  mimeType,
		Prompt:    prompt,
		CreatedAt: createdAt,
	}

	updated := append([]models.SavedDesign{design}, designs...)
	if err := s.persist(ctx, updated); err != nil {
		slog.Error("Error writing library to storage", "err", err)
		return models.SavedDesign{}, fmt.Errorf("%w: %w", models.ErrStorageFull, err)
	}

	slog.Info("Design saved to library", "id", design.ID, "mime_type", mimeType, "size", len(image))
	return design, nil
}

// Delete removes the design with the given id. Unknown ids are a no-op and
// persistence failures are logged, not returned.
func (s *Store) Delete(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	designs := s.load(ctx)
	updated := make([]models.SavedDesign, 0, len(designs))
	for _, design := range designs {
		if design.ID != id {
			updated = append(updated, design)
		}
	}

	if err := s.persist(ctx, updated); err != nil {
		slog.Error("Error updating library in storage", "id", id, "err", err)
		return
	}
	if len(updated) != len(designs) {
		slog.Info("Design deleted from library", "id", id)
	}
}

func (s *Store) load(ctx context.Context) []models.SavedDesign {
	raw, ok, err := s.kv.Get(ctx, Key)
	if err != nil {
		slog.Error("Error reading library from storage", "err", err)
		return []models.SavedDesign{}
	}
	if !ok || raw == "" {
		return []models.SavedDesign{}
	}

	designs, err := decode(raw)
	if err != nil {
		slog.Error("Malformed library in storage", "err", err)
		return []models.SavedDesign{}
	}
	return designs
}

func (s *Store) persist(ctx context.Context, designs []models.SavedDesign) error {
	raw, err := encode(designs)
	if err != nil {
		return err
	}
	return s.kv.Set(ctx, Key, raw)
}

func encode(designs []models.SavedDesign) (string, error) {
	records := make([]record, 0, len(designs))
	for _, d := range designs {
		records = append(records, record{
			ID:        d.ID,
			ImageData: codec.Encode(d.ImageData),
			MimeType:  d.MimeType,
			Prompt:    d.Prompt,
			CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	data, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("failed to marshal library: %w", err)
	}
	return string(data), nil
}

func decode(raw string) ([]models.SavedDesign, error) {
	var records []record
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal library: %w", err)
	}

	designs := make([]models.SavedDesign, 0, len(records))
	for _, r := range records {
		image, err := codec.Decode(r.ImageData)
		if err != nil {
			return nil, fmt.Errorf("design %s: %w", r.ID, err)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("design %s: invalid createdAt: %w", r.ID, err)
		}
		designs = append(designs, models.SavedDesign{
			ID:        r.ID,
			ImageData: image,
			MimeType:  r.MimeType,
			Prompt:    r.Prompt,
			CreatedAt: createdAt,
		})
	}
	return designs, nil
}

package studio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/inkstudio/inkstudio/internal/codec"
	"github.com/inkstudio/inkstudio/internal/library"
	"github.com/inkstudio/inkstudio/internal/models"
)

// Library browses the profile's saved designs
type Library struct {
	deps Deps

	mu sync.Mutex
	status
	designs []models.SavedDesign
}

// DesignSummary describes a saved design without its image bytes
type DesignSummary struct {
	ID        string    `json:"id"`
	MimeType  string    `json:"mimeType"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"createdAt"`
	Size      int       `json:"size"`
	FileName  string    `json:"fileName"`
}

// LibraryState is a snapshot of the library screen
type LibraryState struct {
	Phase   Phase           `json:"phase"`
	Designs []DesignSummary `json:"designs"`
}

func newLibrary(deps Deps) *Library {
	return &Library{deps: deps, status: status{phase: PhaseIdle}}
}

func (l *Library) State() LibraryState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshot()
}

func (l *Library) snapshot() LibraryState {
	summaries := make([]DesignSummary, 0, len(l.designs))
	for _, d := range l.designs {
		summaries = append(summaries, DesignSummary{
			ID:        d.ID,
			MimeType:  d.MimeType,
			Prompt:    d.Prompt,
			CreatedAt: d.CreatedAt,
			Size:      len(d.ImageData),
			FileName:  codec.FileName(d.ID, d.MimeType),
		})
	}
	return LibraryState{Phase: l.phase, Designs: summaries}
}

// Load reads the saved designs, newest first
func (l *Library) Load(ctx context.Context) LibraryState {
	designs := l.deps.Library.List(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	l.designs = designs
	l.succeed()
	return l.snapshot()
}

// Delete removes a design once the user confirmed it
func (l *Library) Delete(ctx context.Context, id string, confirmed bool) (LibraryState, error) {
	if !confirmed {
		return l.State(), fmt.Errorf("%w: deleting a design must be confirmed", models.ErrValidation)
	}

	l.deps.Library.Delete(ctx, id)

	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.designs[:0:0]
	for _, d := range l.designs {
		if d.ID != id {
			kept = append(kept, d)
		}
	}
	l.designs = kept
	return l.snapshot(), nil
}

// Get returns a saved design with its image
func (l *Library) Get(ctx context.Context, id string) (models.SavedDesign, error) {
	design, ok := l.deps.Library.Get(ctx, id)
	if !ok {
		return models.SavedDesign{}, fmt.Errorf("%w: design %s", models.ErrNotFound, id)
	}
	return design, nil
}

// Use returns a saved design as a studio handoff
func (l *Library) Use(ctx context.Context, id string) (models.Handoff, error) {
	design, err := l.Get(ctx, id)
	if err != nil {
		return models.Handoff{}, err
	}
	return models.Handoff{Image: design.ImageData, MimeType: design.MimeType, Prompt: design.Prompt}, nil
}

// Download returns the design bytes and the file name to save them under
func (l *Library) Download(ctx context.Context, id string) ([]byte, string, string, error) {
	design, err := l.Get(ctx, id)
	if err != nil {
		return nil, "", "", err
	}
	return design.ImageData, design.MimeType, codec.FileName(design.ID, design.MimeType), nil
}

// Thumbnail returns a PNG preview of a design
func (l *Library) Thumbnail(ctx context.Context, id string, size int) ([]byte, error) {
	design, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return library.Thumbnail(design, size)
}

func (l *Library) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.invalidate()
	l.designs = nil
}

// Package studio holds the per-profile screen state: the workspace that
// switches between screens and threads a design handoff into the studio,
// and one controller per screen.
package studio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/inkstudio/inkstudio/internal/credentials"
	"github.com/inkstudio/inkstudio/internal/library"
	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
	"github.com/inkstudio/inkstudio/internal/video"
)

// View selects the active screen
type View string

const (
	ViewStudio      View = "studio"
	ViewGenerator   View = "image_generator"
	ViewLibrary     View = "library"
	ViewInspiration View = "inspiration"
)

// Views lists every screen in navigation order
var Views = []View{ViewStudio, ViewGenerator, ViewLibrary, ViewInspiration}

// ParseView validates a view name
func ParseView(name string) (View, error) {
	for _, v := range Views {
		if string(v) == name {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: unknown view %q", models.ErrValidation, name)
}

// Deps are the collaborators shared by every screen of one profile
type Deps struct {
	Provider    providers.Provider
	Library     *library.Store
	Credentials credentials.Selector
	Poller      *video.Poller
	// MessageInterval rotates the video progress message
	MessageInterval time.Duration
}

// Workspace is the screen state of one profile
type Workspace struct {
	deps Deps

	mu          sync.Mutex
	view        View
	handoff     *models.Handoff
	studio      *Studio
	generator   *Generator
	library     *Library
	inspiration *Inspiration
}

// WorkspaceState summarizes the navigation state
type WorkspaceState struct {
	View       View   `json:"view"`
	Views      []View `json:"views"`
	HasHandoff bool   `json:"hasHandoff"`
}

// NewWorkspace returns a workspace showing an empty studio
func NewWorkspace(deps Deps) *Workspace {
	if deps.Poller == nil {
		deps.Poller = video.NewPoller(deps.Provider, video.DefaultInterval)
	}
	if deps.MessageInterval <= 0 {
		deps.MessageInterval = DefaultMessageInterval
	}
	return &Workspace{
		deps:        deps,
		view:        ViewStudio,
		studio:      newStudio(deps, nil),
		generator:   newGenerator(deps),
		library:     newLibrary(deps),
		inspiration: newInspiration(deps),
	}
}

func (w *Workspace) State() WorkspaceState {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WorkspaceState{View: w.view, Views: Views, HasHandoff: w.handoff != nil}
}

func (w *Workspace) View() View {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.view
}

// SetView switches screens. The screen being left loses its state and any
// result still in flight for it is discarded.
func (w *Workspace) SetView(ctx context.Context, view View) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if view == w.view {
		return
	}
	w.leave()
	w.view = view
	if view == ViewLibrary {
		w.library.Load(ctx)
	}
	slog.Debug("View changed", "view", view)
}

// leave tears down the current screen; the caller holds w.mu
func (w *Workspace) leave() {
	switch w.view {
	case ViewStudio:
		w.studio.close()
		w.studio = newStudio(w.deps, w.handoff)
	case ViewGenerator:
		w.generator.reset()
	case ViewLibrary:
		w.library.reset()
	case ViewInspiration:
		w.inspiration.reset()
	}
}

// UseDesign hands a design to the studio and switches to it
func (w *Workspace) UseDesign(handoff models.Handoff) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.view != ViewStudio {
		w.leave()
	}
	w.handoff = &handoff
	w.studio.close()
	w.studio = newStudio(w.deps, w.handoff)
	w.view = ViewStudio
	slog.Info("Design handed off to studio", "prompt", handoff.Prompt)
}

// UseGenerated hands the generator's current image to the studio
func (w *Workspace) UseGenerated() error {
	handoff, err := w.Generator().Use()
	if err != nil {
		return err
	}
	w.UseDesign(handoff)
	return nil
}

// UseSaved hands a library design to the studio
func (w *Workspace) UseSaved(ctx context.Context, id string) error {
	handoff, err := w.Library().Use(ctx, id)
	if err != nil {
		return err
	}
	w.UseDesign(handoff)
	return nil
}

// Reset clears the handoff and shows an empty studio
func (w *Workspace) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.view != ViewStudio {
		w.leave()
	}
	w.handoff = nil
	w.studio.close()
	w.studio = newStudio(w.deps, nil)
	w.view = ViewStudio
}

// Handoff returns the design the studio was seeded with, if any
func (w *Workspace) Handoff() (models.Handoff, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.handoff == nil {
		return models.Handoff{}, false
	}
	return *w.handoff, true
}

func (w *Workspace) Studio() *Studio {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.studio
}

func (w *Workspace) Generator() *Generator {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.generator
}

func (w *Workspace) Library() *Library {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.library
}

func (w *Workspace) Inspiration() *Inspiration {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.inspiration
}

// Close stops background work such as video polling
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.studio.close()
}

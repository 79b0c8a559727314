package studio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
)

// Mode selects the panel shown inside the studio
type Mode string

const (
	ModeMain  Mode = "main"
	ModeChat  Mode = "chat"
	ModeVideo Mode = "video"
)

// ParseMode validates a mode name
func ParseMode(name string) (Mode, error) {
	switch Mode(name) {
	case ModeMain, ModeChat, ModeVideo:
		return Mode(name), nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", models.ErrValidation, name)
}

const studioFailure = "Failed to process image. Please try another one."

// Studio analyzes an uploaded tattoo photo and recreates it as a flat design
type Studio struct {
	deps Deps

	mu sync.Mutex
	status
	original  *providers.Image
	recreated *providers.Image
	prompt    string
	analysis  *providers.Analysis
	saved     bool
	mode      Mode
	chat      *Chat
	video     *Video
}

// StudioState is a snapshot of the studio screen
type StudioState struct {
	Phase     Phase      `json:"phase"`
	Error     string     `json:"error,omitempty"`
	Mode      Mode       `json:"mode"`
	Original  *ImageView `json:"original,omitempty"`
	Recreated *ImageView `json:"recreated,omitempty"`
	Style     string     `json:"style,omitempty"`
	Concept   string     `json:"concept,omitempty"`
	Prompt    string     `json:"prompt,omitempty"`
	Saved     bool       `json:"saved"`
}

// newStudio builds the studio, seeded from a handoff when one is present
func newStudio(deps Deps, handoff *models.Handoff) *Studio {
	s := &Studio{deps: deps, status: status{phase: PhaseIdle}, mode: ModeMain}
	if handoff != nil && len(handoff.Image) > 0 {
		original := providers.Image{Data: handoff.Image, MimeType: handoff.MimeType}
		recreated := original
		s.original = &original
		s.recreated = &recreated
		s.prompt = handoff.Prompt
		s.phase = PhaseLoaded
	}
	return s
}

func (s *Studio) State() StudioState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *Studio) snapshot() StudioState {
	state := StudioState{
		Phase:     s.phase,
		Error:     s.errText,
		Mode:      s.mode,
		Original:  imageView(s.original),
		Recreated: imageView(s.recreated),
		Prompt:    s.prompt,
		Saved:     s.saved,
	}
	if s.analysis != nil {
		state.Style = s.analysis.Style
		state.Concept = s.analysis.Concept
	}
	return state
}

// Recreated returns the current recreated design
func (s *Studio) Recreated() (providers.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recreated == nil {
		return providers.Image{}, false
	}
	return *s.recreated, true
}

// Upload analyzes a photo and synthesizes a square recreation from the
// analysis prompt.
func (s *Studio) Upload(ctx context.Context, image providers.Image) (StudioState, error) {
	if err := providers.ValidateImage(image); err != nil {
		return s.State(), err
	}

	s.mu.Lock()
	epoch, err := s.begin()
	if err != nil {
		state := s.snapshot()
		s.mu.Unlock()
		return state, err
	}
	s.original = &image
	s.recreated = nil
	s.analysis = nil
	s.prompt = ""
	s.saved = false
	s.mu.Unlock()

	analysis, err := s.deps.Provider.Analyze(ctx, image)
	var recreated providers.Image
	if err == nil {
		recreated, err = s.deps.Provider.Synthesize(ctx, analysis.RecreationPrompt, providers.AspectSquare)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stale(epoch) {
		return s.snapshot(), ErrStale
	}
	if err != nil {
		slog.Error("Failed to process tattoo image", "err", err)
		s.failWith(studioFailure)
		return s.snapshot(), err
	}

	s.analysis = &analysis
	s.prompt = analysis.RecreationPrompt
	s.recreated = &recreated
	s.succeed()
	slog.Info("Tattoo recreated", "style", analysis.Style, "size", len(recreated.Data))
	return s.snapshot(), nil
}

// Save stores the recreated design with its recreation prompt
func (s *Studio) Save(ctx context.Context) (models.SavedDesign, error) {
	s.mu.Lock()
	if s.recreated == nil || s.prompt == "" {
		s.mu.Unlock()
		return models.SavedDesign{}, fmt.Errorf("%w: there is no recreated design to save", models.ErrValidation)
	}
	recreated, prompt, epoch := *s.recreated, s.prompt, s.epoch
	s.mu.Unlock()

	design, err := s.deps.Library.Save(ctx, recreated.Data, recreated.MimeType, prompt)
	if err != nil {
		return models.SavedDesign{}, err
	}

	s.mu.Lock()
	if !s.stale(epoch) {
		s.saved = true
	}
	s.mu.Unlock()
	return design, nil
}

// SetMode opens the chat or video panel for the recreated design, or
// returns to the main panel and drops the open one.
func (s *Studio) SetMode(ctx context.Context, mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode == s.mode {
		return nil
	}
	if mode != ModeMain && s.recreated == nil {
		return fmt.Errorf("%w: a recreated design is required for %s", models.ErrValidation, mode)
	}
	if s.busy() {
		return models.ErrBusy
	}

	s.closePanels()
	switch mode {
	case ModeChat:
		s.chat = newChat(s.deps, *s.recreated)
	case ModeVideo:
		s.video = newVideo(ctx, s.deps, *s.recreated)
	}
	s.mode = mode
	return nil
}

// Chat returns the open chat panel
func (s *Studio) Chat() (*Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.chat == nil {
		return nil, fmt.Errorf("%w: chat is not open", models.ErrNotFound)
	}
	return s.chat, nil
}

// Video returns the open video panel
func (s *Studio) Video() (*Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.video == nil {
		return nil, fmt.Errorf("%w: video simulation is not open", models.ErrNotFound)
	}
	return s.video, nil
}

// closePanels drops chat and video state; the caller holds s.mu
func (s *Studio) closePanels() {
	if s.chat != nil {
		s.chat.close()
		s.chat = nil
	}
	if s.video != nil {
		s.video.close()
		s.video = nil
	}
}

func (s *Studio) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closePanels()
	s.invalidate()
}

package studio

import (
	"context"
	"log/slog"
	"sync"

	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
)

const inspirationFailure = "Sorry, I couldn't get an answer for that. Please try again."

// QuickPrompts are suggested questions for an empty conversation
var QuickPrompts = []string{
	"What's the history of American traditional tattoos?",
	"Find some examples of neo-traditional artists.",
	"Explain the symbolism of a dragon in Japanese tattoos.",
	"What are some popular fine-line tattoo ideas?",
}

// Inspiration answers tattoo questions with web citations
type Inspiration struct {
	deps Deps

	mu sync.Mutex
	status
	messages []models.Message
	sources  []providers.Source
}

// InspirationState is a snapshot of the inspiration screen. Sources belong
// to the latest answer only.
type InspirationState struct {
	Phase        Phase              `json:"phase"`
	Error        string             `json:"error,omitempty"`
	Messages     []MessageView      `json:"messages"`
	Sources      []providers.Source `json:"sources"`
	QuickPrompts []string           `json:"quickPrompts"`
}

func newInspiration(deps Deps) *Inspiration {
	return &Inspiration{deps: deps, status: status{phase: PhaseIdle}}
}

func (i *Inspiration) State() InspirationState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.snapshot()
}

func (i *Inspiration) snapshot() InspirationState {
	views := make([]MessageView, 0, len(i.messages))
	for _, message := range i.messages {
		views = append(views, messageView(message))
	}
	sources := make([]providers.Source, len(i.sources))
	copy(sources, i.sources)
	return InspirationState{
		Phase:        i.phase,
		Error:        i.errText,
		Messages:     views,
		Sources:      sources,
		QuickPrompts: QuickPrompts,
	}
}

// Ask sends a question and appends the grounded answer
func (i *Inspiration) Ask(ctx context.Context, question string) (InspirationState, error) {
	if err := providers.ValidatePrompt(question); err != nil {
		return i.State(), err
	}

	i.mu.Lock()
	epoch, err := i.begin()
	if err != nil {
		state := i.snapshot()
		i.mu.Unlock()
		return state, err
	}
	i.messages = append(i.messages, models.Message{Role: models.RoleUser, Parts: []models.Part{{Text: question}}})
	i.sources = nil
	i.mu.Unlock()

	answer, err := i.deps.Provider.Ask(ctx, question)

	i.mu.Lock()
	defer i.mu.Unlock()
	if i.stale(epoch) {
		return i.snapshot(), ErrStale
	}
	if err != nil {
		slog.Error("Failed to answer question", "question", question, "err", err)
		i.messages = append(i.messages, models.Message{Role: models.RoleModel, Parts: []models.Part{{Text: inspirationFailure}}})
		i.failWith(inspirationFailure)
		return i.snapshot(), err
	}

	i.messages = append(i.messages, models.Message{Role: models.RoleModel, Parts: []models.Part{{Text: answer.Text}}})
	i.sources = answer.Sources
	i.succeed()
	return i.snapshot(), nil
}

func (i *Inspiration) reset() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.invalidate()
	i.messages = nil
	i.sources = nil
}

package studio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
)

const (
	chatGreeting = "Here is your 2D design. How would you like to refine it? For example, you can say 'add a retro filter' or 'make the snake red'."
	chatApology  = "Sorry, I couldn't process that request. Please try again."
)

// Chat refines a design through conversational edits
type Chat struct {
	deps Deps

	mu sync.Mutex
	status
	messages []models.Message
	// instructions maps a model message to the user text that produced it
	instructions map[int]string
	saved        map[int]bool
}

// ChatState is a snapshot of the conversation
type ChatState struct {
	Phase    Phase         `json:"phase"`
	Error    string        `json:"error,omitempty"`
	Messages []MessageView `json:"messages"`
}

func newChat(deps Deps, design providers.Image) *Chat {
	seed := models.Message{
		Role:  models.RoleModel,
		Parts: []models.Part{{Text: chatGreeting, Image: design.Data, ImageMime: design.MimeType}},
	}
	return &Chat{
		deps:         deps,
		status:       status{phase: PhaseIdle},
		messages:     []models.Message{seed},
		instructions: map[int]string{0: chatGreeting},
		saved:        map[int]bool{},
	}
}

func (c *Chat) State() ChatState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot()
}

func (c *Chat) snapshot() ChatState {
	views := make([]MessageView, 0, len(c.messages))
	for i, message := range c.messages {
		view := messageView(message)
		view.Saved = c.saved[i]
		views = append(views, view)
	}
	return ChatState{Phase: c.phase, Error: c.errText, Messages: views}
}

// Send applies text as an edit to the most recent model image
func (c *Chat) Send(ctx context.Context, text string) (ChatState, error) {
	if err := providers.ValidatePrompt(text); err != nil {
		return c.State(), err
	}

	c.mu.Lock()
	epoch, err := c.begin()
	if err != nil {
		state := c.snapshot()
		c.mu.Unlock()
		return state, err
	}
	c.messages = append(c.messages, models.Message{Role: models.RoleUser, Parts: []models.Part{{Text: text}}})
	working, found := models.WorkingImage(c.messages)
	c.mu.Unlock()

	var edited providers.Image
	if found {
		edited, err = c.deps.Provider.Edit(ctx, text, providers.Image{Data: working.Image, MimeType: working.ImageMime})
	} else {
		err = fmt.Errorf("%w: could not find a base image to edit", models.ErrGenerationFailed)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stale(epoch) {
		return c.snapshot(), ErrStale
	}
	if err != nil {
		slog.Error("Failed to edit design", "instruction", text, "err", err)
		c.messages = append(c.messages, models.Message{Role: models.RoleModel, Parts: []models.Part{{Text: chatApology}}})
		c.failWith(chatApology)
		return c.snapshot(), err
	}

	c.messages = append(c.messages, models.Message{
		Role: models.RoleModel,
		Parts: []models.Part{{
			Text:      `Here is the updated design based on: "` + text + `"`,
			Image:     edited.Data,
			ImageMime: edited.MimeType,
		}},
	})
	c.instructions[len(c.messages)-1] = text
	c.succeed()
	return c.snapshot(), nil
}

// Save stores the image of the model message at index
func (c *Chat) Save(ctx context.Context, index int) (models.SavedDesign, error) {
	c.mu.Lock()
	if index < 0 || index >= len(c.messages) || c.messages[index].Role != models.RoleModel {
		c.mu.Unlock()
		return models.SavedDesign{}, fmt.Errorf("%w: message %d has no design", models.ErrValidation, index)
	}
	var image models.Part
	for _, part := range c.messages[index].Parts {
		if part.HasImage() {
			image = part
			break
		}
	}
	instruction, epoch := c.instructions[index], c.epoch
	c.mu.Unlock()

	if !image.HasImage() {
		return models.SavedDesign{}, fmt.Errorf("%w: message %d has no design", models.ErrValidation, index)
	}

	design, err := c.deps.Library.Save(ctx, image.Image, image.ImageMime, "Chat refinement: "+strings.TrimSpace(instruction))
	if err != nil {
		return models.SavedDesign{}, err
	}

	c.mu.Lock()
	if !c.stale(epoch) {
		c.saved[index] = true
	}
	c.mu.Unlock()
	return design, nil
}

func (c *Chat) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidate()
}

package studio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
)

const (
	generatorPromptRequired = "Please enter a description for your tattoo idea."
	generatorFailure        = "Sorry, the image could not be generated. Please try a different prompt."
)

// GeneratorAspectRatios are the shapes offered for new designs
var GeneratorAspectRatios = []providers.AspectRatio{providers.AspectSquare, providers.AspectPortrait}

// StencilPrompt wraps an idea in the flat stencil style used for new designs
func StencilPrompt(idea string) string {
	return fmt.Sprintf("A clean, 2D vector-style tattoo design of %s. Bold lines, solid white background, suitable for printing as a stencil.", idea)
}

// Generator creates designs from a text description
type Generator struct {
	deps Deps

	mu sync.Mutex
	status
	prompt string
	aspect providers.AspectRatio
	image  *providers.Image
	saved  bool
}

// GeneratorState is a snapshot of the generator screen
type GeneratorState struct {
	Phase        Phase                   `json:"phase"`
	Error        string                  `json:"error,omitempty"`
	Prompt       string                  `json:"prompt,omitempty"`
	AspectRatio  providers.AspectRatio   `json:"aspectRatio"`
	AspectRatios []providers.AspectRatio `json:"aspectRatios"`
	Image        *ImageView              `json:"image,omitempty"`
	Saved        bool                    `json:"saved"`
}

func newGenerator(deps Deps) *Generator {
	return &Generator{deps: deps, status: status{phase: PhaseIdle}, aspect: providers.AspectSquare}
}

func (g *Generator) State() GeneratorState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

func (g *Generator) snapshot() GeneratorState {
	return GeneratorState{
		Phase:        g.phase,
		Error:        g.errText,
		Prompt:       g.prompt,
		AspectRatio:  g.aspect,
		AspectRatios: GeneratorAspectRatios,
		Image:        imageView(g.image),
		Saved:        g.saved,
	}
}

// Image returns the generated design
func (g *Generator) Image() (providers.Image, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.image == nil {
		return providers.Image{}, false
	}
	return *g.image, true
}

// Generate synthesizes a stencil-style design for prompt
func (g *Generator) Generate(ctx context.Context, prompt string, aspect providers.AspectRatio) (GeneratorState, error) {
	if aspect == "" {
		aspect = providers.AspectSquare
	}

	g.mu.Lock()
	if g.busy() {
		state := g.snapshot()
		g.mu.Unlock()
		return state, models.ErrBusy
	}
	if err := providers.ValidatePrompt(prompt); err != nil {
		g.failWith(generatorPromptRequired)
		state := g.snapshot()
		g.mu.Unlock()
		return state, err
	}
	if aspect != providers.AspectSquare && aspect != providers.AspectPortrait {
		state := g.snapshot()
		g.mu.Unlock()
		return state, fmt.Errorf("%w: aspect ratio must be 1:1 or 9:16", models.ErrValidation)
	}

	epoch, _ := g.begin()
	g.prompt = prompt
	g.aspect = aspect
	g.image = nil
	g.saved = false
	g.mu.Unlock()

	image, err := g.deps.Provider.Synthesize(ctx, StencilPrompt(prompt), aspect)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stale(epoch) {
		return g.snapshot(), ErrStale
	}
	if err != nil {
		slog.Error("Failed to generate design", "prompt", prompt, "err", err)
		g.failWith(generatorFailure)
		return g.snapshot(), err
	}

	g.image = &image
	g.succeed()
	return g.snapshot(), nil
}

// Save stores the generated design under the user's own prompt
func (g *Generator) Save(ctx context.Context) (models.SavedDesign, error) {
	g.mu.Lock()
	if g.image == nil {
		g.mu.Unlock()
		return models.SavedDesign{}, fmt.Errorf("%w: there is no generated design to save", models.ErrValidation)
	}
	image, prompt, epoch := *g.image, g.prompt, g.epoch
	g.mu.Unlock()

	design, err := g.deps.Library.Save(ctx, image.Data, image.MimeType, prompt)
	if err != nil {
		return models.SavedDesign{}, err
	}

	g.mu.Lock()
	if !g.stale(epoch) {
		g.saved = true
	}
	g.mu.Unlock()
	return design, nil
}

// Use returns the generated design as a studio handoff
func (g *Generator) Use() (models.Handoff, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.image == nil {
		return models.Handoff{}, fmt.Errorf("%w: there is no generated design to use", models.ErrValidation)
	}
	return models.Handoff{Image: g.image.Data, MimeType: g.image.MimeType, Prompt: g.prompt}, nil
}

func (g *Generator) reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.invalidate()
	g.prompt = ""
	g.aspect = providers.AspectSquare
	g.image = nil
	g.saved = false
}

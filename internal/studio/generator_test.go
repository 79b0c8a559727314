package studio

import (
	"context"
	"errors"
	"testing"

	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
)

func TestGeneratorWrapsPromptAndSavesRawPrompt(t *testing.T) {
	provider := &fakeProvider{}
	deps := newTestDeps(t, provider)
	gen := NewWorkspace(deps).Generator()
	ctx := context.Background()

	state, err := gen.Generate(ctx, "a phoenix rising", providers.AspectPortrait)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := "A clean, 2D vector-style tattoo design of a phoenix rising. Bold lines, solid white background, suitable for printing as a stencil."
	if len(provider.synthesized) != 1 || provider.synthesized[0] != want {
		t.Errorf("Unexpected synthesis prompt %v", provider.synthesized)
	}
	if provider.aspects[0] != providers.AspectPortrait {
		t.Errorf("Expected 9:16, got %s", provider.aspects[0])
	}
	if state.Phase != PhaseLoaded || state.Image == nil || state.Prompt != "a phoenix rising" {
		t.Errorf("Unexpected state %+v", state)
	}

	design, err := gen.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if design.Prompt != "a phoenix rising" || design.MimeType != "image/png" {
		t.Errorf("Expected the raw prompt to be saved, got %+v", design)
	}
	if !gen.State().Saved {
		t.Error("Expected generator to mark the design saved")
	}

	handoff, err := gen.Use()
	if err != nil || handoff.Prompt != "a phoenix rising" || string(handoff.Image) != "synth:"+want {
		t.Errorf("Unexpected handoff %+v err=%v", handoff, err)
	}
}

func TestGeneratorErrors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		provider *fakeProvider
		prompt   string
		aspect   providers.AspectRatio
		sentinel error
		text     string
	}{
		{
			name:     "empty prompt",
			provider: &fakeProvider{},
			prompt:   " ",
			sentinel: models.ErrValidation,
			text:     "Please enter a description for your tattoo idea.",
		},
		{
			name:     "landscape is not offered",
			provider: &fakeProvider{},
			prompt:   "a wolf",
			aspect:   providers.AspectLandscape,
			sentinel: models.ErrValidation,
		},
		{
			name:     "provider failure",
			provider: &fakeProvider{synthErr: models.ErrGenerationFailed},
			prompt:   "a wolf",
			sentinel: models.ErrGenerationFailed,
			text:     "Sorry, the image could not be generated. Please try a different prompt.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := NewWorkspace(newTestDeps(t, tt.provider)).Generator()

			state, err := gen.Generate(ctx, tt.prompt, tt.aspect)
			if !errors.Is(err, tt.sentinel) {
				t.Errorf("Expected %v, got %v", tt.sentinel, err)
			}
			if tt.text != "" && (state.Error != tt.text || state.Phase != PhaseError) {
				t.Errorf("Expected error text %q, got %+v", tt.text, state)
			}
			if state.Image != nil {
				t.Error("No image expected")
			}
			if _, err := gen.Save(ctx); !errors.Is(err, models.ErrValidation) {
				t.Errorf("Expected ErrValidation saving nothing, got %v", err)
			}
		})
	}
}

package providers

import (
	"errors"
	"testing"

	"github.com/inkstudio/inkstudio/internal/models"
)

func TestValidatePrompt(t *testing.T) {
	tests := []struct {
		prompt  string
		wantErr bool
	}{
		{"a majestic lion", false},
		{"", true},
		{"   \n\t", true},
	}

	for _, tt := range tests {
		err := ValidatePrompt(tt.prompt)
		if tt.wantErr {
			if !errors.Is(err, models.ErrValidation) {
				t.Errorf("ValidatePrompt(%q): expected ErrValidation, got %v", tt.prompt, err)
			}
		} else if err != nil {
			t.Errorf("ValidatePrompt(%q): unexpected error %v", tt.prompt, err)
		}
	}
}

func TestValidateImageAspectRatio(t *testing.T) {
	for _, ratio := range ImageAspectRatios {
		if err := ValidateImageAspectRatio(ratio); err != nil {
			t.Errorf("Expected %s to be valid, got %v", ratio, err)
		}
	}

	for _, ratio := range []AspectRatio{"", "2:1", "square"} {
		if err := ValidateImageAspectRatio(ratio); !errors.Is(err, models.ErrValidation) {
			t.Errorf("Expected %q to be rejected, got %v", ratio, err)
		}
	}
}

func TestVideoRequestValidate(t *testing.T) {
	image := Image{Data: []byte("png"), MimeType: "image/png"}

	tests := []struct {
		name    string
		req     VideoRequest
		wantErr bool
	}{
		{
			name: "valid landscape",
			req:  VideoRequest{Prompt: "forearm", Image: image, AspectRatio: AspectLandscape},
		},
		{
			name: "valid portrait",
			req:  VideoRequest{Prompt: "forearm", Image: image, AspectRatio: AspectPortrait},
		},
		{
			name:    "square not allowed for video",
			req:     VideoRequest{Prompt: "forearm", Image: image, AspectRatio: AspectSquare},
			wantErr: true,
		},
		{
			name:    "blank prompt",
			req:     VideoRequest{Prompt: " ", Image: image, AspectRatio: AspectLandscape},
			wantErr: true,
		},
		{
			name:    "missing image",
			req:     VideoRequest{Prompt: "forearm", AspectRatio: AspectLandscape},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr && !errors.Is(err, models.ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

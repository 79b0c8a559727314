package providers

import (
	"context"
	"fmt"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/inkstudio/inkstudio/internal/models"
)

// AspectRatio selects the shape of a synthesized image or video
type AspectRatio string

const (
	AspectSquare           AspectRatio = "1:1"
	AspectPortrait         AspectRatio = "9:16"
	AspectLandscape        AspectRatio = "16:9"
	AspectClassicPortrait  AspectRatio = "3:4"
	AspectClassicLandscape AspectRatio = "4:3"
)

// ImageAspectRatios lists every ratio accepted by Synthesize
var ImageAspectRatios = []AspectRatio{AspectSquare, AspectPortrait, AspectLandscape, AspectClassicPortrait, AspectClassicLandscape}

// VideoAspectRatios lists the ratios accepted by SubmitVideo
var VideoAspectRatios = []AspectRatio{AspectLandscape, AspectPortrait}

// Image is a binary image with its media type
type Image struct {
	Data     []byte
	MimeType string
}

// Analysis is the structured result of analyzing a tattoo photo
type Analysis struct {
	Style            string `json:"style"`
	Concept          string `json:"concept"`
	RecreationPrompt string `json:"recreationPrompt"`
}

// Source is a web citation backing a grounded answer
type Source struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// Answer is a grounded text answer with its citations
type Answer struct {
	Text    string   `json:"text"`
	Sources []Source `json:"sources"`
}

// VideoRequest describes an image-to-video job
type VideoRequest struct {
	Prompt      string
	Image       Image
	AspectRatio AspectRatio
}

// Operation is the provider's view of a long-running video job
type Operation struct {
	Name     string
	Done     bool
	VideoURI string
	Error    string
}

// Generator covers the synchronous image and text operations
type Generator interface {
	Analyze(ctx context.Context, image Image) (Analysis, error)
	Synthesize(ctx context.Context, prompt string, aspectRatio AspectRatio) (Image, error)
	Edit(ctx context.Context, instruction string, image Image) (Image, error)
	Ask(ctx context.Context, question string) (Answer, error)
}

// VideoGenerator covers the asynchronous video job operations
type VideoGenerator interface {
	SubmitVideo(ctx context.Context, req VideoRequest) (Operation, error)
	GetVideoOperation(ctx context.Context, name string) (Operation, error)
	FetchVideo(ctx context.Context, uri string) ([]byte, error)
}

// Provider is everything the studio needs from the generation backend
type Provider interface {
	Generator
	VideoGenerator
}

var notBlank = validation.By(func(value interface{}) error {
	if s, _ := value.(string); strings.TrimSpace(s) == "" {
		return validation.NewError("validation_blank", "cannot be blank")
	}
	return nil
})

func ratioIn(ratios []AspectRatio) validation.Rule {
	allowed := make([]interface{}, 0, len(ratios))
	for _, r := range ratios {
		allowed = append(allowed, r)
	}
	return validation.In(allowed...).Error("must be one of " + joinRatios(ratios))
}

func joinRatios(ratios []AspectRatio) string {
	parts := make([]string, 0, len(ratios))
	for _, r := range ratios {
		parts = append(parts, string(r))
	}
	return strings.Join(parts, ", ")
}

func validationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", models.ErrValidation, err)
}

// ValidateImage rejects an image with no bytes or no media type
func ValidateImage(image Image) error {
	return validationError(validation.ValidateStruct(&image,
		validation.Field(&image.Data, validation.Required.Error("a source image is required")),
		validation.Field(&image.MimeType, validation.Required),
	))
}

// ValidatePrompt rejects empty or whitespace-only prompts
func ValidatePrompt(prompt string) error {
	return validationError(validation.Validate(prompt, notBlank))
}

// ValidateImageAspectRatio rejects ratios Synthesize cannot produce
func ValidateImageAspectRatio(ratio AspectRatio) error {
	return validationError(validation.Validate(ratio, validation.Required, ratioIn(ImageAspectRatios)))
}

// Validate checks a video request before it is submitted
func (r VideoRequest) Validate() error {
	if err := ValidateImage(r.Image); err != nil {
		return err
	}
	return validationError(validation.ValidateStruct(&r,
		validation.Field(&r.Prompt, notBlank),
		validation.Field(&r.AspectRatio, validation.Required, ratioIn(VideoAspectRatios)),
	))
}

package studio

import (
	"errors"

	"github.com/inkstudio/inkstudio/internal/codec"
	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
)

// Phase is the request lifecycle of a single screen
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseError   Phase = "error"
)

// ErrStale is returned when a result arrives after its screen was reset
var ErrStale = errors.New("result discarded because the screen was reset")

// status is embedded by every controller and guarded by the controller's mutex
type status struct {
	phase   Phase
	errText string
	epoch   uint64
}

func (s *status) busy() bool {
	return s.phase == PhaseLoading
}

// begin marks the screen loading and returns the epoch the result must match
func (s *status) begin() (uint64, error) {
	if s.busy() {
		return 0, models.ErrBusy
	}
	s.phase = PhaseLoading
	s.errText = ""
	return s.epoch, nil
}

func (s *status) stale(epoch uint64) bool {
	return epoch != s.epoch
}

func (s *status) succeed() {
	s.phase = PhaseLoaded
	s.errText = ""
}

func (s *status) failWith(text string) {
	s.phase = PhaseError
	s.errText = text
}

// invalidate drops any in-flight result and returns the screen to idle
func (s *status) invalidate() {
	s.epoch++
	s.phase = PhaseIdle
	s.errText = ""
}

// ImageView is an image ready to be embedded in markup
type ImageView struct {
	MimeType string `json:"mimeType"`
	DataURI  string `json:"dataUri"`
}

func imageView(image *providers.Image) *ImageView {
	if image == nil || len(image.Data) == 0 {
		return nil
	}
	return &ImageView{MimeType: image.MimeType, DataURI: codec.DataURI(image.MimeType, image.Data)}
}

// MessageView is one rendered conversation turn
type MessageView struct {
	Role  models.Role `json:"role"`
	Text  string      `json:"text,omitempty"`
	Image *ImageView  `json:"image,omitempty"`
	Saved bool        `json:"saved,omitempty"`
}

func messageView(message models.Message) MessageView {
	view := MessageView{Role: message.Role}
	for _, part := range message.Parts {
		if part.Text != "" && view.Text == "" {
			view.Text = part.Text
		}
		if part.HasImage() && view.Image == nil {
			view.Image = imageView(&providers.Image{Data: part.Image, MimeType: part.ImageMime})
		}
	}
	return view
}

package models

import "time"

// SavedDesign is a design persisted in a profile's library
type SavedDesign struct {
	ID        string    `json:"id"`
	ImageData []byte    `json:"-"`
	MimeType  string    `json:"mimeType"`
	Prompt    string    `json:"prompt"`
	CreatedAt time.Time `json:"createdAt"`
}

// Role identifies who produced a conversation message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Part is one piece of a message: text, an image, or both
type Part struct {
	Text      string `json:"text,omitempty"`
	Image     []byte `json:"-"`
	ImageMime string `json:"imageMime,omitempty"`
}

// HasImage reports whether the part carries an image payload
func (p Part) HasImage() bool {
	return len(p.Image) > 0
}

// Message is one turn of a chat-style exchange
type Message struct {
	Role  Role   `json:"role"`
	Parts []Part `json:"parts"`
}

// Handoff carries a design from one screen into the studio
type Handoff struct {
	Image    []byte
	MimeType string
	Prompt   string
}

// WorkingImage returns the image of the most recent model message that has
// one, scanning backward from the newest turn.
func WorkingImage(messages []Message) (Part, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role != RoleModel {
			continue
		}
		for _, part := range messages[i].Parts {
			if part.HasImage() {
				return part, true
			}
		}
	}
	return Part{}, false
}

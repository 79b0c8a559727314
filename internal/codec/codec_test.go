package codec

import (
	"bytes"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	payloads := [][]byte{
		nil,
		{},
		{0x00},
		{0xff, 0xfe, 0xfd},
		[]byte("\x89PNG\r\n\x1a\n"),
		bytes.Repeat([]byte{0x01, 0x80, 0x7f}, 1000),
	}

	for _, p := range payloads {
		got, err := Decode(Encode(p))
		if err != nil {
			t.Fatalf("Decode(Encode(%v)) returned error: %v", p, err)
		}
		if !bytes.Equal(got, p) {
			t.Errorf("round trip mismatch: expected %v, got %v", p, got)
		}
	}
}

func TestDecodeInvalid(t *testing.T) {
	if _, err := Decode("not base64!"); err == nil {
		t.Error("Expected error for invalid base64")
	}
}

func TestDataURI(t *testing.T) {
	data := []byte("hello tattoo")
	uri := DataURI("image/png", data)

	if uri != "data:image/png;base64,aGVsbG8gdGF0dG9v" {
		t.Errorf("Unexpected data URI: %s", uri)
	}

	mediaType, got, err := ParseDataURI(uri)
	if err != nil {
		t.Fatalf("ParseDataURI returned error: %v", err)
	}
	if mediaType != "image/png" {
		t.Errorf("Expected media type image/png, got %s", mediaType)
	}
	if !bytes.Equal(got, data) {
		t.Errorf("Expected %q, got %q", data, got)
	}
}

func TestParseDataURI(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		mediaType string
		wantErr   bool
	}{
		{name: "bare base64", input: "AAE=", mediaType: ""},
		{name: "jpeg uri", input: "data:image/jpeg;base64,AAE=", mediaType: "image/jpeg"},
		{name: "missing comma", input: "data:image/png;base64", wantErr: true},
		{name: "not base64 encoded", input: "data:text/plain,hello", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mediaType, _, err := ParseDataURI(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if mediaType != tt.mediaType {
				t.Errorf("Expected media type %q, got %q", tt.mediaType, mediaType)
			}
		})
	}
}

func TestFileName(t *testing.T) {
	tests := []struct {
		id        string
		mediaType string
		expected  string
	}{
		{"img_1", "image/png", "tattoo-design-img_1.png"},
		{"img_2", "image/jpeg", "tattoo-design-img_2.jpg"},
		{"vid", "video/mp4", "tattoo-design-vid.mp4"},
		{"img_3", "", "tattoo-design-img_3.png"},
	}

	for _, tt := range tests {
		if got := FileName(tt.id, tt.mediaType); got != tt.expected {
			t.Errorf("FileName(%q, %q) = %q, expected %q", tt.id, tt.mediaType, got, tt.expected)
		}
	}
}

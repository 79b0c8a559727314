package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/inkstudio/inkstudio/internal/codec"
	"github.com/inkstudio/inkstudio/internal/credentials"
	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL + "/v1beta"
	return New(cfg, credentials.Static("test-key"))
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode: %v", err)
	}
}

func TestSynthesize(t *testing.T) {
	png := []byte("\x89PNG fake")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/imagen-4.0-generate-001:predict" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "test-key" {
			t.Errorf("Missing API key header")
		}

		var body struct {
			Instances  []map[string]string `json:"instances"`
			Parameters map[string]any      `json:"parameters"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if body.Instances[0]["prompt"] != "a wolf" {
			t.Errorf("Unexpected prompt %q", body.Instances[0]["prompt"])
		}
		if body.Parameters["aspectRatio"] != "9:16" {
			t.Errorf("Unexpected aspect ratio %v", body.Parameters["aspectRatio"])
		}

		writeJSON(t, w, map[string]any{
			"predictions": []map[string]string{{"bytesBase64Encoded": codec.Encode(png), "mimeType": "image/png"}},
		})
	})

	image, err := client.Synthesize(context.Background(), "a wolf", providers.AspectPortrait)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if string(image.Data) != string(png) || image.MimeType != "image/png" {
		t.Errorf("Unexpected image: %q %s", image.Data, image.MimeType)
	}
}

func TestSynthesizeNoResults(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{"predictions": []any{}})
	})

	_, err := client.Synthesize(context.Background(), "a wolf", providers.AspectSquare)
	if !errors.Is(err, models.ErrGenerationFailed) {
		t.Errorf("Expected ErrGenerationFailed, got %v", err)
	}
}

func TestValidationHappensBeforeRequest(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	})
	ctx := context.Background()

	if _, err := client.Synthesize(ctx, "  ", providers.AspectSquare); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected ErrValidation for blank prompt, got %v", err)
	}
	if _, err := client.Synthesize(ctx, "wolf", "2:1"); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected ErrValidation for bad ratio, got %v", err)
	}
	if _, err := client.Edit(ctx, "make it red", providers.Image{}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected ErrValidation for missing image, got %v", err)
	}
	if _, err := client.Ask(ctx, ""); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected ErrValidation for empty question, got %v", err)
	}
	if _, err := client.Analyze(ctx, providers.Image{}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected ErrValidation for missing analysis image, got %v", err)
	}
	if calls.Load() != 0 {
		t.Errorf("Expected no provider calls, got %d", calls.Load())
	}
}

func TestEdit(t *testing.T) {
	edited := []byte("edited-bytes")

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-2.5-flash-image:generateContent") {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}

		var body generateContentRequest
		json.NewDecoder(r.Body).Decode(&body)
		parts := body.Contents[0].Parts
		if parts[0].InlineData == nil || parts[0].InlineData.Data != codec.Encode([]byte("original")) {
			t.Errorf("Expected original image as first part")
		}
		if parts[1].Text != "make it red" {
			t.Errorf("Unexpected instruction %q", parts[1].Text)
		}
		if body.GenerationConfig == nil || body.GenerationConfig.ResponseModalities[0] != "IMAGE" {
			t.Errorf("Expected IMAGE response modality")
		}

		writeJSON(t, w, map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{
					{"text": "here you go"},
					{"inlineData": map[string]string{"mimeType": "image/png", "data": codec.Encode(edited)}},
				}},
			}},
		})
	})

	image, err := client.Edit(context.Background(), "make it red", providers.Image{Data: []byte("original"), MimeType: "image/png"})
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if string(image.Data) != string(edited) {
		t.Errorf("Expected edited bytes, got %q", image.Data)
	}
}

func TestEditWithoutImagePart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{"text": "I can't do that"}}},
			}},
		})
	})

	_, err := client.Edit(context.Background(), "make it red", providers.Image{Data: []byte("x"), MimeType: "image/png"})
	if !errors.Is(err, models.ErrGenerationFailed) {
		t.Errorf("Expected ErrGenerationFailed, got %v", err)
	}
}

func TestAsk(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if !strings.Contains(string(body), `"google_search":{}`) {
			t.Errorf("Expected google_search tool in request: %s", body)
		}
		writeJSON(t, w, map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{"parts": []map[string]any{{"text": "Sailor Jerry "}, {"text": "popularized it."}}},
				"groundingMetadata": map[string]any{
					"groundingChunks": []map[string]any{
						{"web": map[string]string{"uri": "https://example.com/a", "title": "example.com"}},
						{"maps": map[string]string{"uri": "https://maps.example.com", "title": "map"}},
						{"web": map[string]string{"uri": "https://example.org/b", "title": "example.org"}},
					},
				},
			}},
		})
	})

	answer, err := client.Ask(context.Background(), "What's the history of American traditional tattoos?")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Text != "Sailor Jerry popularized it." {
		t.Errorf("Unexpected text %q", answer.Text)
	}
	if len(answer.Sources) != 2 || answer.Sources[0].URI != "https://example.com/a" || answer.Sources[1].Title != "example.org" {
		t.Errorf("Unexpected sources %+v", answer.Sources)
	}
}

func TestAskWithoutSources(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"candidates": []map[string]any{{"content": map[string]any{"parts": []map[string]any{{"text": "ok"}}}}},
		})
	})

	answer, err := client.Ask(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if answer.Sources == nil || len(answer.Sources) != 0 {
		t.Errorf("Expected empty, non-nil sources, got %#v", answer.Sources)
	}
}

func TestVideoLifecycle(t *testing.T) {
	var polls atomic.Int32
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == "POST" && strings.HasSuffix(r.URL.Path, ":predictLongRunning"):
			var body struct {
				Instances []struct {
					Prompt string `json:"prompt"`
					Image  struct {
						MimeType string `json:"mimeType"`
					} `json:"image"`
				} `json:"instances"`
				Parameters map[string]any `json:"parameters"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if body.Parameters["resolution"] != "720p" || body.Parameters["aspectRatio"] != "16:9" {
				t.Errorf("Unexpected parameters %v", body.Parameters)
			}
			if body.Instances[0].Image.MimeType != "image/png" {
				t.Errorf("Unexpected image mime type %q", body.Instances[0].Image.MimeType)
			}
			writeJSON(t, w, map[string]any{"name": "models/veo/operations/op1"})
		case r.Method == "GET" && r.URL.Path == "/v1beta/models/veo/operations/op1":
			if polls.Add(1) < 2 {
				writeJSON(t, w, map[string]any{"name": "models/veo/operations/op1"})
				return
			}
			writeJSON(t, w, map[string]any{
				"name": "models/veo/operations/op1",
				"done": true,
				"response": map[string]any{"generateVideoResponse": map[string]any{
					"generatedSamples": []map[string]any{{"video": map[string]string{"uri": server.URL + "/files/video.mp4?alt=media"}}},
				}},
			})
		case r.URL.Path == "/files/video.mp4":
			if r.Header.Get("x-goog-api-key") != "test-key" {
				t.Errorf("Video fetch must use the API key")
			}
			w.Write([]byte("mp4-bytes"))
		default:
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL + "/v1beta"
	client := New(cfg, credentials.Static("test-key"))
	ctx := context.Background()

	op, err := client.SubmitVideo(ctx, providers.VideoRequest{
		Prompt:      "Create a realistic video showing this tattoo design on forearm.",
		Image:       providers.Image{Data: []byte("png"), MimeType: "image/png"},
		AspectRatio: providers.AspectLandscape,
	})
	if err != nil {
		t.Fatalf("SubmitVideo: %v", err)
	}
	if op.Name != "models/veo/operations/op1" || op.Done {
		t.Fatalf("Unexpected operation %+v", op)
	}

	op, err = client.GetVideoOperation(ctx, op.Name)
	if err != nil || op.Done {
		t.Fatalf("Expected pending operation, got %+v err=%v", op, err)
	}

	op, err = client.GetVideoOperation(ctx, op.Name)
	if err != nil || !op.Done || op.VideoURI == "" {
		t.Fatalf("Expected finished operation with URI, got %+v err=%v", op, err)
	}

	data, err := client.FetchVideo(ctx, op.VideoURI)
	if err != nil {
		t.Fatalf("FetchVideo: %v", err)
	}
	if string(data) != "mp4-bytes" {
		t.Errorf("Unexpected video bytes %q", data)
	}
}

func TestFetchVideoFailure(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := client.FetchVideo(context.Background(), client.cfg.BaseURL+"/files/x")
	if !errors.Is(err, models.ErrNetworkFailure) {
		t.Errorf("Expected ErrNetworkFailure, got %v", err)
	}
}

func TestEntityNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(t, w, map[string]any{"error": map[string]any{
			"code": 404, "message": "Requested entity was not found.", "status": "NOT_FOUND",
		}})
	})

	_, err := client.SubmitVideo(context.Background(), providers.VideoRequest{
		Prompt:      "forearm",
		Image:       providers.Image{Data: []byte("png"), MimeType: "image/png"},
		AspectRatio: providers.AspectPortrait,
	})
	if !IsEntityNotFound(err) {
		t.Fatalf("Expected entity-not-found, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != 404 {
		t.Errorf("Expected *APIError with 404, got %v", err)
	}

	if IsEntityNotFound(errors.New("quota exhausted")) || IsEntityNotFound(nil) {
		t.Error("Unrelated errors must not be treated as entity-not-found")
	}
}

func TestMissingCredential(t *testing.T) {
	client := New(DefaultConfig(), credentials.Static(""))
	_, err := client.Ask(context.Background(), "hello")
	if !errors.Is(err, models.ErrCredentialMissing) {
		t.Errorf("Expected ErrCredentialMissing, got %v", err)
	}
}

func TestAnalyze(t *testing.T) {
	client := New(DefaultConfig(), credentials.Static("test-key"))
	client.analyze = func(ctx context.Context, apiKey, model string, image providers.Image, prompt string) (string, error) {
		if apiKey != "test-key" || model != "gemini-2.5-pro" {
			t.Errorf("Unexpected key/model %s/%s", apiKey, model)
		}
		if !strings.Contains(prompt, "recreationPrompt") {
			t.Errorf("Prompt must ask for recreationPrompt")
		}
		return "```json\n{\"style\":\"Blackwork\",\"concept\":\"wolf\",\"recreationPrompt\":\"P\"}\n```", nil
	}

	analysis, err := client.Analyze(context.Background(), providers.Image{Data: []byte("jpg"), MimeType: "image/jpeg"})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if analysis.Style != "Blackwork" || analysis.Concept != "wolf" || analysis.RecreationPrompt != "P" {
		t.Errorf("Unexpected analysis %+v", analysis)
	}
}

func TestParseAnalysis(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain json", input: `{"style":"Realism","concept":"rose","recreationPrompt":"a rose"}`},
		{name: "fenced json", input: "```\n{\"style\":\"s\",\"concept\":\"c\",\"recreationPrompt\":\"p\"}\n```"},
		{name: "not json", input: "I think this is a rose", wantErr: true},
		{name: "missing prompt", input: `{"style":"Realism","concept":"rose"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseAnalysis(tt.input)
			if tt.wantErr && !errors.Is(err, models.ErrGenerationFailed) {
				t.Errorf("Expected ErrGenerationFailed, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected error %v", err)
			}
		})
	}
}

package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/inkstudio/inkstudio/internal/credentials"
	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
	"google.golang.org/api/option"
)

// DefaultBaseURL is the Generative Language REST endpoint
const DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Config selects the models used for each operation
type Config struct {
	BaseURL         string        `yaml:"base_url"`
	AnalysisModel   string        `yaml:"analysis_model"`
	ImageModel      string        `yaml:"image_model"`
	EditModel       string        `yaml:"edit_model"`
	SearchModel     string        `yaml:"search_model"`
	VideoModel      string        `yaml:"video_model"`
	VideoResolution string        `yaml:"video_resolution"`
	Timeout         time.Duration `yaml:"timeout"`
}

// DefaultConfig returns the models the studio was built against
func DefaultConfig() Config {
	return Config{
		BaseURL:         DefaultBaseURL,
		AnalysisModel:   "gemini-2.5-pro",
		ImageModel:      "imagen-4.0-generate-001",
		EditModel:       "gemini-2.5-flash-image",
		SearchModel:     "gemini-2.5-flash",
		VideoModel:      "veo-3.1-fast-generate-preview",
		VideoResolution: "720p",
		Timeout:         5 * time.Minute,
	}
}

// analyzeFunc returns the raw JSON text of an analysis
type analyzeFunc func(ctx context.Context, apiKey, model string, image providers.Image, prompt string) (string, error)

// Client talks to Gemini, Imagen and Veo. It keeps no session state; every
// call reads the current key from the credential source.
type Client struct {
	cfg        Config
	keys       credentials.Source
	HTTPClient *http.Client
	analyze    analyzeFunc
}

var _ providers.Provider = (*Client)(nil)

// New returns a new Gemini client
func New(cfg Config, keys credentials.Source) *Client {
	defaults := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.AnalysisModel == "" {
		cfg.AnalysisModel = defaults.AnalysisModel
	}
	if cfg.ImageModel == "" {
		cfg.ImageModel = defaults.ImageModel
	}
	if cfg.EditModel == "" {
		cfg.EditModel = defaults.EditModel
	}
	if cfg.SearchModel == "" {
		cfg.SearchModel = defaults.SearchModel
	}
	if cfg.VideoModel == "" {
		cfg.VideoModel = defaults.VideoModel
	}
	if cfg.VideoResolution == "" {
		cfg.VideoResolution = defaults.VideoResolution
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")

	return &Client{
		cfg:        cfg,
		keys:       keys,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
		analyze:    analyzeWithSDK,
	}
}

func (c *Client) apiKey() (string, error) {
	key := c.keys.APIKey()
	if key == "" {
		return "", models.ErrCredentialMissing
	}
	return key, nil
}

const analysisPrompt = `Analyze this tattoo image.
1. Identify the primary artistic style (e.g., American Traditional, Japanese Irezumi, Blackwork, Realism, Neo-traditional, etc.).
2. Describe the main concepts and subjects depicted in the tattoo.
3. Generate a detailed, descriptive prompt for an image generation AI. This prompt must instruct the AI to recreate the tattoo design as faithfully and similarly as possible to the original photo. The final image must be on a solid white background. If any part of the tattoo design is obscured, cropped, or not fully visible in the photo, the prompt must instruct the AI to intelligently and artistically complete the design, recreating the non-visible parts in a style that is perfectly consistent with the visible tattoo. The goal is to produce a complete, high-fidelity 2D representation of the full tattoo design, ready for printing.

Return the response as a JSON object with the keys "style", "concept", and "recreationPrompt".`

// Analyze identifies the style and concept of a tattoo photo and writes a
// prompt for recreating it as a flat design.
func (c *Client) Analyze(ctx context.Context, image providers.Image) (providers.Analysis, error) {
	if err := providers.ValidateImage(image); err != nil {
		return providers.Analysis{}, err
	}
	key, err := c.apiKey()
	if err != nil {
		return providers.Analysis{}, err
	}

	raw, err := c.analyze(ctx, key, c.cfg.AnalysisModel, image, analysisPrompt)
	if err != nil {
		return providers.Analysis{}, err
	}

	analysis, err := parseAnalysis(raw)
	if err != nil {
		return providers.Analysis{}, err
	}

	slog.Info("Tattoo analyzed", "model", c.cfg.AnalysisModel, "style", analysis.Style)
	return analysis, nil
}

func analyzeWithSDK(ctx context.Context, apiKey, modelName string, image providers.Image, prompt string) (string, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(modelName)
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"style":            {Type: genai.TypeString},
			"concept":          {Type: genai.TypeString},
			"recreationPrompt": {Type: genai.TypeString},
		},
		Required: []string{"style", "concept", "recreationPrompt"},
	}

	resp, err := model.GenerateContent(ctx, genai.Blob{MIMEType: image.MimeType, Data: image.Data}, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates returned from Gemini", models.ErrGenerationFailed)
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("%w: empty content returned from Gemini", models.ErrGenerationFailed)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: unexpected response format from Gemini", models.ErrGenerationFailed)
	}
	return text.String(), nil
}

// parseAnalysis decodes the analysis JSON, tolerating markdown code fences
func parseAnalysis(response string) (providers.Analysis, error) {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	response = strings.TrimSpace(response)

	var analysis providers.Analysis
	if err := json.Unmarshal([]byte(response), &analysis); err != nil {
		return providers.Analysis{}, fmt.Errorf("%w: failed to parse analysis JSON: %w", models.ErrGenerationFailed, err)
	}

	if analysis.RecreationPrompt == "" {
		return providers.Analysis{}, fmt.Errorf("%w: analysis is missing recreationPrompt", models.ErrGenerationFailed)
	}
	return analysis, nil
}

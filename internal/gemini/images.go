package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/inkstudio/inkstudio/internal/codec"
	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
)

// Synthesize generates one PNG image from a text prompt
func (c *Client) Synthesize(ctx context.Context, prompt string, aspectRatio providers.AspectRatio) (providers.Image, error) {
	if aspectRatio == "" {
		aspectRatio = providers.AspectSquare
	}
	if err := providers.ValidatePrompt(prompt); err != nil {
		return providers.Image{}, err
	}
	if err := providers.ValidateImageAspectRatio(aspectRatio); err != nil {
		return providers.Image{}, err
	}

	request := map[string]any{
		"instances": []map[string]any{
			{"prompt": prompt},
		},
		"parameters": map[string]any{
			"sampleCount":    1,
			"outputMimeType": "image/png",
			"aspectRatio":    string(aspectRatio),
		},
	}

	var response struct {
		Predictions []struct {
			BytesBase64Encoded string `json:"bytesBase64Encoded"`
			MimeType           string `json:"mimeType"`
		} `json:"predictions"`
	}
	if err := c.do(ctx, "POST", c.modelURL(c.cfg.ImageModel, "predict"), request, &response); err != nil {
		return providers.Image{}, fmt.Errorf("failed to generate image: %w", err)
	}

	for _, prediction := range response.Predictions {
		if prediction.BytesBase64Encoded == "" {
			continue
		}
		data, err := codec.Decode(prediction.BytesBase64Encoded)
		if err != nil {
			return providers.Image{}, fmt.Errorf("%w: %w", models.ErrGenerationFailed, err)
		}
		mimeType := prediction.MimeType
		if mimeType == "" {
			mimeType = "image/png"
		}
		slog.Info("Image generated", "model", c.cfg.ImageModel, "aspect_ratio", aspectRatio, "size", len(data))
		return providers.Image{Data: data, MimeType: mimeType}, nil
	}

	return providers.Image{}, fmt.Errorf("%w: image generation returned no images", models.ErrGenerationFailed)
}

// Edit applies a natural-language instruction to an image
func (c *Client) Edit(ctx context.Context, instruction string, image providers.Image) (providers.Image, error) {
	if err := providers.ValidatePrompt(instruction); err != nil {
		return providers.Image{}, err
	}
	if err := providers.ValidateImage(image); err != nil {
		return providers.Image{}, err
	}

	request := generateContentRequest{
		Contents: []content{{
			Parts: []part{
				{InlineData: &inlineData{MimeType: image.MimeType, Data: codec.Encode(image.Data)}},
				{Text: instruction},
			},
		}},
		GenerationConfig: &generationConfig{ResponseModalities: []string{"IMAGE"}},
	}

	var response generateContentResponse
	if err := c.do(ctx, "POST", c.modelURL(c.cfg.EditModel, "generateContent"), request, &response); err != nil {
		return providers.Image{}, fmt.Errorf("failed to edit image: %w", err)
	}

	if len(response.Candidates) > 0 && response.Candidates[0].Content != nil {
		for _, p := range response.Candidates[0].Content.Parts {
			if p.InlineData == nil || p.InlineData.Data == "" {
				continue
			}
			data, err := codec.Decode(p.InlineData.Data)
			if err != nil {
				return providers.Image{}, fmt.Errorf("%w: %w", models.ErrGenerationFailed, err)
			}
			mimeType := p.InlineData.MimeType
			if mimeType == "" {
				mimeType = "image/png"
			}
			slog.Info("Image edited", "model", c.cfg.EditModel, "size", len(data))
			return providers.Image{Data: data, MimeType: mimeType}, nil
		}
	}

	return providers.Image{}, fmt.Errorf("%w: image editing failed to produce an image", models.ErrGenerationFailed)
}

// Ask answers a question using Google Search grounding
func (c *Client) Ask(ctx context.Context, question string) (providers.Answer, error) {
	if err := providers.ValidatePrompt(question); err != nil {
		return providers.Answer{}, err
	}

	request := generateContentRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: question}}}},
		Tools:    []map[string]any{{"google_search": map[string]any{}}},
	}

	var response generateContentResponse
	if err := c.do(ctx, "POST", c.modelURL(c.cfg.SearchModel, "generateContent"), request, &response); err != nil {
		return providers.Answer{}, fmt.Errorf("failed to answer question: %w", err)
	}

	if len(response.Candidates) == 0 {
		return providers.Answer{}, fmt.Errorf("%w: no candidates returned from Gemini", models.ErrGenerationFailed)
	}

	candidate := response.Candidates[0]
	answer := providers.Answer{Sources: []providers.Source{}}

	var text strings.Builder
	if candidate.Content != nil {
		for _, p := range candidate.Content.Parts {
			text.WriteString(p.Text)
		}
	}
	answer.Text = text.String()

	if candidate.GroundingMetadata != nil {
		for _, chunk := range candidate.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			answer.Sources = append(answer.Sources, providers.Source{URI: chunk.Web.URI, Title: chunk.Web.Title})
		}
	}

	slog.Info("Grounded answer received", "model", c.cfg.SearchModel, "sources", len(answer.Sources))
	return answer, nil
}

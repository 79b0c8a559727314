package gemini

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/inkstudio/inkstudio/internal/codec"
	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/inkstudio/inkstudio/internal/providers"
)

type operationResponse struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Response *struct {
		GenerateVideoResponse *struct {
			GeneratedSamples []struct {
				Video *struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (r operationResponse) operation() providers.Operation {
	op := providers.Operation{Name: r.Name, Done: r.Done}
	if r.Error != nil {
		op.Error = r.Error.Message
	}
	if r.Response != nil && r.Response.GenerateVideoResponse != nil {
		for _, sample := range r.Response.GenerateVideoResponse.GeneratedSamples {
			if sample.Video != nil && sample.Video.URI != "" {
				op.VideoURI = sample.Video.URI
				break
			}
		}
	}
	return op
}

// SubmitVideo starts an image-to-video job and returns its operation handle
func (c *Client) SubmitVideo(ctx context.Context, req providers.VideoRequest) (providers.Operation, error) {
	if err := req.Validate(); err != nil {
		return providers.Operation{}, err
	}

	request := map[string]any{
		"instances": []map[string]any{{
			"prompt": req.Prompt,
			"image": map[string]any{
				"bytesBase64Encoded": codec.Encode(req.Image.Data),
				"mimeType":           req.Image.MimeType,
			},
		}},
		"parameters": map[string]any{
			"sampleCount": 1,
			"resolution":  c.cfg.VideoResolution,
			"aspectRatio": string(req.AspectRatio),
		},
	}

	var response operationResponse
	if err := c.do(ctx, "POST", c.modelURL(c.cfg.VideoModel, "predictLongRunning"), request, &response); err != nil {
		return providers.Operation{}, fmt.Errorf("failed to start video generation: %w", err)
	}
	if response.Name == "" {
		return providers.Operation{}, fmt.Errorf("%w: video job returned no operation name", models.ErrGenerationFailed)
	}

	slog.Info("Video job submitted", "model", c.cfg.VideoModel, "operation", response.Name, "aspect_ratio", req.AspectRatio)
	return response.operation(), nil
}

// GetVideoOperation refreshes a video job by its operation name
func (c *Client) GetVideoOperation(ctx context.Context, name string) (providers.Operation, error) {
	if name == "" {
		return providers.Operation{}, fmt.Errorf("%w: operation name is required", models.ErrValidation)
	}

	var response operationResponse
	if err := c.do(ctx, "GET", c.cfg.BaseURL+"/"+strings.TrimPrefix(name, "/"), nil, &response); err != nil {
		return providers.Operation{}, fmt.Errorf("failed to check video status: %w", err)
	}
	if response.Name == "" {
		response.Name = name
	}
	return response.operation(), nil
}

// FetchVideo downloads the finished video with the same key used to create it
func (c *Client) FetchVideo(ctx context.Context, uri string) ([]byte, error) {
	key, err := c.apiKey()
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", uri, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("x-goog-api-key", key)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch video file: %w", models.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: failed to fetch video file: HTTP %d", models.ErrNetworkFailure, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read video data: %w", models.ErrNetworkFailure, err)
	}

	slog.Info("Video downloaded", "size", len(data))
	return data, nil
}

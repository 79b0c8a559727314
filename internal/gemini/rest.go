package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/inkstudio/inkstudio/internal/models"
)

// APIError is an error payload returned by the provider
type APIError struct {
	StatusCode int
	Status     string
	Message    string
}

func (e *APIError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("gemini API returned status %d (%s): %s", e.StatusCode, e.Status, e.Message)
	}
	return fmt.Sprintf("gemini API returned status %d: %s", e.StatusCode, e.Message)
}

const entityNotFound = "Requested entity was not found"

// IsEntityNotFound reports whether err means the selected API key's project
// cannot see the requested model, which the video screen answers by asking
// for a different key.
func IsEntityNotFound(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == "NOT_FOUND" || strings.Contains(apiErr.Message, entityNotFound) {
			return true
		}
	}
	return strings.Contains(err.Error(), entityNotFound)
}

// do sends a JSON request and decodes a JSON response into out
func (c *Client) do(ctx context.Context, method, url string, body, out any) error {
	key, err := c.apiKey()
	if err != nil {
		return err
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", key)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to send request: %w", models.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))

	var payload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		apiErr.Message = payload.Error.Message
		apiErr.Status = payload.Error.Status
	}
	return apiErr
}

// Wire types shared by generateContent calls

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateContentRequest struct {
	Contents         []content         `json:"contents"`
	Tools            []map[string]any  `json:"tools,omitempty"`
	GenerationConfig *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string `json:"responseModalities,omitempty"`
}

type generateContentResponse struct {
	Candidates []struct {
		Content           *content `json:"content"`
		FinishReason      string   `json:"finishReason"`
		GroundingMetadata *struct {
			GroundingChunks []struct {
				Web *struct {
					URI   string `json:"uri"`
					Title string `json:"title"`
				} `json:"web"`
			} `json:"groundingChunks"`
		} `json:"groundingMetadata"`
	} `json:"candidates"`
}

func (c *Client) modelURL(model, method string) string {
	return c.cfg.BaseURL + "/models/" + model + ":" + method
}

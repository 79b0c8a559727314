package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/inkstudio/inkstudio/internal/providers"
	_ "golang.org/x/image/webp"
)

// toImage checks that data decodes as an image and settles its media type.
// The declared type is trusted only when it names an image.
func toImage(data []byte, declared string) (providers.Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return providers.Image{}, fmt.Errorf("unsupported image: %w", err)
	}

	mimeType := ""
	if mediaType, _, err := mime.ParseMediaType(declared); err == nil && strings.HasPrefix(mediaType, "image/") {
		mimeType = mediaType
	}
	if mimeType == "" {
		mimeType = "image/" + format
	}

	slog.Info("Image received", "format", format, "mime_type", mimeType, "width", cfg.Width, "height", cfg.Height, "size", len(data))
	return providers.Image{Data: data, MimeType: mimeType}, nil
}

func (h *Handler) downloadImageFromURL(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(io.LimitReader(resp.Body, h.maxUploadBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(imageData)) > h.maxUploadBytes {
		return nil, "", fmt.Errorf("image too large (max %d bytes)", h.maxUploadBytes)
	}

	return imageData, resp.Header.Get("Content-Type"), nil
}

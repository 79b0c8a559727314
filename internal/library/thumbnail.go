package library

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	"github.com/inkstudio/inkstudio/internal/models"
	_ "golang.org/x/image/webp"
)

// DefaultThumbnailSize is the edge length of library grid thumbnails
const DefaultThumbnailSize = 256

// Thumbnail renders a square PNG thumbnail of a saved design
func Thumbnail(design models.SavedDesign, size int) ([]byte, error) {
	if size <= 0 {
		size = DefaultThumbnailSize
	}

	img, _, err := image.Decode(bytes.NewReader(design.ImageData))
	if err != nil {
		return nil, fmt.Errorf("failed to decode design %s: %w", design.ID, err)
	}

	thumb := imaging.Thumbnail(img, size, size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

package library

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/inkstudio/inkstudio/internal/storage"
)

func TestParquetRoundTrip(t *testing.T) {
	ctx := context.Background()
	source := NewStore(storage.NewMemoryStore(0))
	source.Save(ctx, []byte{0x00, 0x01}, "image/png", "first")
	source.Save(ctx, []byte{0xff}, "image/jpeg", "second")

	path := filepath.Join(t.TempDir(), "library.parquet")
	n, err := source.ExportParquet(ctx, path)
	if err != nil {
		t.Fatalf("ExportParquet: %v", err)
	}
	if n != 2 {
		t.Fatalf("Expected 2 exported designs, got %d", n)
	}

	target := NewStore(storage.NewMemoryStore(0))
	imported, err := target.ImportParquet(ctx, path)
	if err != nil {
		t.Fatalf("ImportParquet: %v", err)
	}
	if imported != 2 {
		t.Fatalf("Expected 2 imported designs, got %d", imported)
	}

	want := source.List(ctx)
	got := target.List(ctx)
	for i := range want {
		if got[i].Prompt != want[i].Prompt || got[i].MimeType != want[i].MimeType {
			t.Errorf("Design %d: expected %s/%s, got %s/%s", i, want[i].Prompt, want[i].MimeType, got[i].Prompt, got[i].MimeType)
		}
		if !bytes.Equal(got[i].ImageData, want[i].ImageData) {
			t.Errorf("Design %d: image bytes differ", i)
		}
	}
}

// closeFailer buffers writes and fails on Close, like a disk that fills up
type closeFailer struct {
	bytes.Buffer
	closed bool
}

func (c *closeFailer) Close() error {
	c.closed = true
	return errors.New("no space left on device")
}

func TestWriteArchiveReportsCloseError(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore(0))
	store.Save(ctx, []byte("abc"), "image/png", "wolf")

	w := &closeFailer{}
	err := writeArchive(w, store.List(ctx))
	if err == nil || !strings.Contains(err.Error(), "no space left on device") {
		t.Errorf("Expected the close error, got %v", err)
	}
	if !w.closed {
		t.Error("Expected the archive to be closed")
	}
}

func TestWriteReadParquet(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore(0))
	saved, _ := store.Save(ctx, []byte("abc"), "image/png", "wolf")

	var buf bytes.Buffer
	if err := WriteParquet(&buf, store.List(ctx)); err != nil {
		t.Fatalf("WriteParquet: %v", err)
	}

	designs, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("ReadParquet: %v", err)
	}
	if len(designs) != 1 || designs[0].ID != saved.ID {
		t.Fatalf("Unexpected designs: %+v", designs)
	}
	if !designs[0].CreatedAt.Equal(saved.CreatedAt) {
		t.Errorf("CreatedAt not preserved: %v vs %v", designs[0].CreatedAt, saved.CreatedAt)
	}
}

func TestWriteYAML(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore(0))
	store.Save(ctx, []byte("abc"), "image/png", "lion with crown")

	var buf bytes.Buffer
	if err := WriteYAML(&buf, store.List(ctx)); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"prompt: lion with crown", "mime_type: image/png", "created_at: ", "size: 3"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestThumbnail(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 64, 32))
	for x := 0; x < 64; x++ {
		for y := 0; y < 32; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore(0))
	saved, _ := store.Save(ctx, buf.Bytes(), "image/png", "gradient")

	thumb, err := Thumbnail(saved, 16)
	if err != nil {
		t.Fatalf("Thumbnail: %v", err)
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(thumb))
	if err != nil {
		t.Fatalf("Thumbnail is not a valid image: %v", err)
	}
	if format != "png" || cfg.Width != 16 || cfg.Height != 16 {
		t.Errorf("Expected 16x16 png, got %dx%d %s", cfg.Width, cfg.Height, format)
	}
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	ctx := context.Background()
	store := NewStore(storage.NewMemoryStore(0))
	saved, _ := store.Save(ctx, []byte("not an image"), "image/png", "junk")

	if _, err := Thumbnail(saved, 16); err == nil {
		t.Error("Expected decode error")
	}
}

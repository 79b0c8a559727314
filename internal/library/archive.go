package library

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/inkstudio/inkstudio/internal/models"
	"github.com/parquet-go/parquet-go"
	"gopkg.in/yaml.v3"
)

// ArchiveRow is one design in a parquet library archive
type ArchiveRow struct {
	ID        string `parquet:"id"`
	ImageData []byte `parquet:"image_data"`
	MimeType  string `parquet:"mime_type"`
	Prompt    string `parquet:"prompt"`
	CreatedAt string `parquet:"created_at"`
}

// WriteParquet writes designs, in the given order, as a parquet archive
func WriteParquet(w io.Writer, designs []models.SavedDesign) error {
	rows := make([]ArchiveRow, 0, len(designs))
	for _, d := range designs {
		rows = append(rows, ArchiveRow{
			ID:        d.ID,
			ImageData: d.ImageData,
			MimeType:  d.MimeType,
			Prompt:    d.Prompt,
			CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}

	writer := parquet.NewGenericWriter[ArchiveRow](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// ReadParquet reads an archive produced by WriteParquet
func ReadParquet(r io.ReaderAt, size int64) ([]models.SavedDesign, error) {
	pf, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet archive opened", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[ArchiveRow](pf)
	defer reader.Close()

	var designs []models.SavedDesign
	rows := make([]ArchiveRow, 64)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			createdAt, perr := time.Parse(time.RFC3339Nano, row.CreatedAt)
			if perr != nil {
				return nil, fmt.Errorf("design %s: invalid created_at: %w", row.ID, perr)
			}
			designs = append(designs, models.SavedDesign{
				ID:        row.ID,
				ImageData: row.ImageData,
				MimeType:  row.MimeType,
				Prompt:    row.Prompt,
				CreatedAt: createdAt,
			})
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
	}

	return designs, nil
}

// ExportParquet writes the whole library to a parquet file
func (s *Store) ExportParquet(ctx context.Context, path string) (int, error) {
	designs := s.List(ctx)

	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}
	if err := writeArchive(file, designs); err != nil {
		return 0, err
	}
	return len(designs), nil
}

// writeArchive writes designs and closes w; a failed close means the
// archive may be truncated.
func writeArchive(w io.WriteCloser, designs []models.SavedDesign) error {
	if err := WriteParquet(w, designs); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return nil
}

// ImportParquet saves every design of an archive into the library. Designs
// get fresh ids; they are saved oldest first so the archive order is kept.
func (s *Store) ImportParquet(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return 0, fmt.Errorf("failed to stat archive: %w", err)
	}

	designs, err := ReadParquet(file, info.Size())
	if err != nil {
		return 0, err
	}

	imported := 0
	for i := len(designs) - 1; i >= 0; i-- {
		d := designs[i]
		if _, err := s.Save(ctx, d.ImageData, d.MimeType, d.Prompt); err != nil {
			return imported, fmt.Errorf("failed to import design %s: %w", d.ID, err)
		}
		imported++
	}
	return imported, nil
}

// ListingEntry is the yaml view of a design, without image bytes
type ListingEntry struct {
	ID        string `yaml:"id"`
	MimeType  string `yaml:"mime_type"`
	Prompt    string `yaml:"prompt"`
	CreatedAt string `yaml:"created_at"`
	Size      int    `yaml:"size"`
}

// WriteYAML writes a metadata listing of designs
func WriteYAML(w io.Writer, designs []models.SavedDesign) error {
	entries := make([]ListingEntry, 0, len(designs))
	for _, d := range designs {
		entries = append(entries, ListingEntry{
			ID:        d.ID,
			MimeType:  d.MimeType,
			Prompt:    d.Prompt,
			CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
			Size:      len(d.ImageData),
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(entries); err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return encoder.Close()
}

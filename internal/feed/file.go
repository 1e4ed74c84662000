package feed

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"bookhub/pkg/models"
)

// FileSource reads a scraper output file: a JSON array of listing
// objects (.json) or a CSV file with a header row of listing keys (.csv).
type FileSource struct {
	Path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

func (s *FileSource) Name() string { return "file:" + filepath.Base(s.Path) }

func (s *FileSource) Fetch(ctx context.Context) ([]models.Listing, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open feed: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(s.Path)) {
	case ".csv":
		return DecodeCSV(f)
	case ".json", "":
		return DecodeJSON(f)
	default:
		return nil, fmt.Errorf("unsupported feed format %q", filepath.Ext(s.Path))
	}
}

// DecodeJSON reads a JSON array of listings. Unknown keys are ignored and
// values may be strings, numbers or null.
func DecodeJSON(r io.Reader) ([]models.Listing, error) {
	var out []models.Listing
	if err := json.NewDecoder(r).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode json feed: %w", err)
	}
	return out, nil
}

// DecodeCSV reads listings keyed by the header row. Columns that are
// not listing keys are ignored.
func DecodeCSV(r io.Reader) ([]models.Listing, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	var out []models.Listing
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", len(out)+2, err)
		}
		var l models.Listing
		for i, v := range rec {
			if i < len(header) {
				l.SetField(header[i], v)
			}
		}
		out = append(out, l)
	}
	return out, nil
}

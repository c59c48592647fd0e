package spreadsheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// CSVDirSource reads each section from "<sheet name>.csv" in a directory,
// falling back to "<section>.csv".
type CSVDirSource struct {
	dir     string
	mapping *Mapping
}

func NewCSVDirSource(dir string, m *Mapping) *CSVDirSource {
	if m == nil {
		m = DefaultMapping()
	}
	return &CSVDirSource{dir: dir, mapping: m}
}

func (s *CSVDirSource) Open(_ context.Context, section Section) (RowReader, error) {
	candidates := []string{
		filepath.Join(s.dir, s.mapping.SheetName(section)+".csv"),
		filepath.Join(s.dir, string(section)+".csv"),
	}

	for _, path := range candidates {
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", path, err)
		}

		r := csv.NewReader(f)
		r.FieldsPerRecord = -1
		r.LazyQuotes = true
		return newMappedReader(section, s.mapping, &csvRows{r: r, f: f}), nil
	}

	return nil, fmt.Errorf("%s in %s: %w", section, s.dir, ErrSectionMissing)
}

func (s *CSVDirSource) Close() error { return nil }

type csvRows struct {
	r   *csv.Reader
	f   *os.File
	rec []string
	err error
}

func (c *csvRows) Next() bool {
	rec, err := c.r.Read()
	if err == io.EOF {
		return false
	}
	if err != nil {
		c.err = err
		return false
	}
	c.rec = rec
	return true
}

func (c *csvRows) Columns() ([]string, error) { return c.rec, nil }
func (c *csvRows) Err() error                 { return c.err }
func (c *csvRows) Close() error               { return c.f.Close() }

package spreadsheet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrSectionMissing means the source has no table for a section.
var ErrSectionMissing = errors.New("section not found")

// Row is one data row. Line is the 1-based position in the sheet; the
// header occupies line 1.
type Row struct {
	Line   int
	Values map[string]string
}

// Get returns the trimmed value of a field, or "".
func (r Row) Get(field string) string {
	return r.Values[field]
}

// RowReader yields rows until io.EOF.
type RowReader interface {
	Next() (Row, error)
	Close() error
}

// Source opens the tables of one import run.
type Source interface {
	Open(ctx context.Context, section Section) (RowReader, error)
	Close() error
}

// rawRows is a header-first stream of cell values.
type rawRows interface {
	Next() bool
	Columns() ([]string, error)
	Err() error
	Close() error
}

type mappedReader struct {
	section Section
	mapping *Mapping
	raw     rawRows

	fields  []string
	line    int
	started bool
}

func newMappedReader(section Section, m *Mapping, raw rawRows) *mappedReader {
	return &mappedReader{section: section, mapping: m, raw: raw}
}

func (r *mappedReader) readHeader() error {
	r.started = true
	if !r.raw.Next() {
		if err := r.raw.Err(); err != nil {
			return err
		}
		return io.EOF
	}
	r.line = 1

	header, err := r.raw.Columns()
	if err != nil {
		return fmt.Errorf("%s header: %w", r.section, err)
	}

	r.fields = make([]string, len(header))
	for i, h := range header {
		if f, ok := r.mapping.Field(r.section, h); ok {
			r.fields[i] = f
		}
	}
	return nil
}

func (r *mappedReader) Next() (Row, error) {
	if !r.started {
		if err := r.readHeader(); err != nil {
			return Row{}, err
		}
	}

	for r.raw.Next() {
		r.line++

		cells, err := r.raw.Columns()
		if err != nil {
			return Row{}, fmt.Errorf("%s line %d: %w", r.section, r.line, err)
		}

		row := Row{Line: r.line, Values: make(map[string]string, len(r.fields))}
		for i, c := range cells {
			if i >= len(r.fields) || r.fields[i] == "" {
				continue
			}
			if v := strings.TrimSpace(c); v != "" {
				// the first mapped column wins for duplicated headers
				if _, seen := row.Values[r.fields[i]]; !seen {
					row.Values[r.fields[i]] = v
				}
			}
		}
		if len(row.Values) == 0 {
			continue
		}
		return row, nil
	}

	if err := r.raw.Err(); err != nil {
		return Row{}, err
	}
	return Row{}, io.EOF
}

func (r *mappedReader) Close() error {
	return r.raw.Close()
}

// ------------------------------------------------------------
// In-memory source
// ------------------------------------------------------------

// MemorySource serves tables held in memory; the first row of each table is
// its header.
type MemorySource struct {
	mapping *Mapping
	tables  map[Section][][]string
}

func NewMemorySource(m *Mapping, tables map[Section][][]string) *MemorySource {
	if m == nil {
		m = DefaultMapping()
	}
	return &MemorySource{mapping: m, tables: tables}
}

func (s *MemorySource) Open(_ context.Context, section Section) (RowReader, error) {
	t, ok := s.tables[section]
	if !ok {
		return nil, fmt.Errorf("%s: %w", section, ErrSectionMissing)
	}
	return newMappedReader(section, s.mapping, &sliceRows{rows: t, pos: -1}), nil
}

func (s *MemorySource) Close() error { return nil }

type sliceRows struct {
	rows [][]string
	pos  int
}

func (s *sliceRows) Next() bool {
	s.pos++
	return s.pos < len(s.rows)
}

func (s *sliceRows) Columns() ([]string, error) { return s.rows[s.pos], nil }
func (s *sliceRows) Err() error                 { return nil }
func (s *sliceRows) Close() error               { return nil }

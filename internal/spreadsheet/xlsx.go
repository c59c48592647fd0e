package spreadsheet

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads sections from the named sheets of one workbook.
// Cells are read raw, so dates and times arrive as Excel serial numbers
// unless the cell holds text.
type XLSXSource struct {
	f       *excelize.File
	mapping *Mapping
}

func OpenXLSX(path string, m *Mapping) (*XLSXSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	return newXLSXSource(f, m), nil
}

func OpenXLSXReader(r io.Reader, m *Mapping) (*XLSXSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	return newXLSXSource(f, m), nil
}

// OpenXLSXBytes is OpenXLSXReader for uploads already held in memory.
func OpenXLSXBytes(b []byte, m *Mapping) (*XLSXSource, error) {
	return OpenXLSXReader(bytes.NewReader(b), m)
}

func newXLSXSource(f *excelize.File, m *Mapping) *XLSXSource {
	if m == nil {
		m = DefaultMapping()
	}
	return &XLSXSource{f: f, mapping: m}
}

func (s *XLSXSource) Open(_ context.Context, section Section) (RowReader, error) {
	sheet := s.mapping.SheetName(section)

	idx, err := s.f.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	if idx < 0 {
		return nil, fmt.Errorf("sheet %s: %w", sheet, ErrSectionMissing)
	}

	rows, err := s.f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %s: %w", sheet, err)
	}
	return newMappedReader(section, s.mapping, &xlsxRows{rows: rows}), nil
}

func (s *XLSXSource) Close() error {
	return s.f.Close()
}

type xlsxRows struct {
	rows *excelize.Rows
}

func (r *xlsxRows) Next() bool { return r.rows.Next() }

func (r *xlsxRows) Columns() ([]string, error) {
	return r.rows.Columns(excelize.Options{RawCellValue: true})
}

func (r *xlsxRows) Err() error   { return r.rows.Error() }
func (r *xlsxRows) Close() error { return r.rows.Close() }

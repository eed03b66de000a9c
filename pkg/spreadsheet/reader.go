package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// NoDataError is returned when a sheet has no data rows below its header.
type NoDataError struct {
	Sheet string
}

func (e *NoDataError) Error() string {
	return fmt.Sprintf("sheet %q contains no data rows", e.Sheet)
}

// IsNoData reports whether err is, or wraps, a *NoDataError.
func IsNoData(err error) bool {
	var target *NoDataError
	return errors.As(err, &target)
}

// Row is one data row. Index is 1-based and counts data rows only, so the
// first row below the header is 1. Blank rows keep their position.
type Row struct {
	Index int
	Cells map[string]Cell
}

// Get returns the named cell, or an empty cell when the column is absent.
func (r Row) Get(column string) Cell {
	if cell, ok := r.Cells[column]; ok {
		return cell
	}
	return Cell{Kind: CellEmpty}
}

// Raw echoes the row as plain strings for error reports.
func (r Row) Raw() map[string]string {
	out := make(map[string]string, len(r.Cells))
	for name, cell := range r.Cells {
		out[name] = cell.String()
	}
	return out
}

// Sheet is the parsed content of the first worksheet of a workbook.
type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

// Read parses the first worksheet of an xlsx workbook, using its first row
// as column headers.
func Read(r io.Reader) (*Sheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &NoDataError{}
	}
	name := sheets[0]

	records, err := f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", name, err)
	}
	if len(records) == 0 {
		return nil, &NoDataError{Sheet: name}
	}

	headers := normalizeHeaders(records[0])
	sheet := &Sheet{Name: name, Headers: compact(headers)}
	for i, record := range records[1:] {
		cells := make(map[string]Cell, len(headers))
		blank := true
		for col, header := range headers {
			if header == "" {
				continue
			}
			if _, seen := cells[header]; seen {
				continue
			}
			raw := ""
			if col < len(record) {
				raw = record[col]
			}
			cell := NewCell(raw)
			if !cell.IsEmpty() {
				blank = false
			}
			cells[header] = cell
		}
		if blank {
			continue
		}
		sheet.Rows = append(sheet.Rows, Row{Index: i + 1, Cells: cells})
	}
	if len(sheet.Rows) == 0 {
		return nil, &NoDataError{Sheet: name}
	}
	return sheet, nil
}

func normalizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	for i, h := range raw {
		headers[i] = strings.TrimSpace(h)
	}
	return headers
}

func compact(headers []string) []string {
	out := make([]string, 0, len(headers))
	seen := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}

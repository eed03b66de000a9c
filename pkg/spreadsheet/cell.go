package spreadsheet

import (
	"math"
	"strconv"
	"strings"
)

// CellKind classifies a raw spreadsheet value.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
)

func (k CellKind) String() string {
	switch k {
	case CellString:
		return "string"
	case CellNumber:
		return "number"
	default:
		return "empty"
	}
}

// Cell is one raw value read from the sheet. Number is only meaningful when
// Kind is CellNumber; Raw always holds the trimmed text as stored in the file.
type Cell struct {
	Kind   CellKind
	Raw    string
	Number float64
}

// NewCell classifies a raw value.
func NewCell(raw string) Cell {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Cell{Kind: CellEmpty}
	}
	if n, err := strconv.ParseFloat(trimmed, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return Cell{Kind: CellNumber, Raw: trimmed, Number: n}
	}
	return Cell{Kind: CellString, Raw: trimmed}
}

// IsEmpty reports whether the cell held no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// String returns the text form of the cell. Whole numbers stored as
// "12.0" or "6.28E+11" render without fraction or exponent so numeric ids
// and phone numbers survive; other values keep their stored text, leading
// zeros included.
func (c Cell) String() string {
	if c.Kind == CellNumber && strings.ContainsAny(c.Raw, ".eE") && c.Number == math.Trunc(c.Number) && math.Abs(c.Number) < 1e15 {
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	}
	return c.Raw
}

package workbook

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the type of value held by a Cell
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindBool
	KindDate
	KindError
)

// String returns a lowercase name for the kind
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindDate:
		return "date"
	case KindError:
		return "error"
	default:
		return "unknown"
	}
}

// Layouts used to render date and time-of-day cells
const (
	isoLayout  = "2006-01-02T15:04:05"
	timeLayout = "15:04:05"
)

// Cell is a single computed cell value. Only the field matching Kind is meaningful,
// except Display which always carries the text shown by the spreadsheet.
type Cell struct {
	Kind     Kind
	Display  string
	Number   float64
	Bool     bool
	Time     time.Time
	TimeOnly bool // a time of day with no date part
}

// EmptyCell returns a cell with no value
func EmptyCell() Cell {
	return Cell{Kind: KindEmpty}
}

// StringCell returns a text cell
func StringCell(s string) Cell {
	return Cell{Kind: KindString, Display: s}
}

// NumberCell returns a numeric cell. display is the formatted value; when empty the
// number is rendered with strconv.
func NumberCell(n float64, display string) Cell {
	if display == "" {
		display = strconv.FormatFloat(n, 'f', -1, 64)
	}
	return Cell{Kind: KindNumber, Number: n, Display: display}
}

// BoolCell returns a boolean cell
func BoolCell(b bool) Cell {
	display := "FALSE"
	if b {
		display = "TRUE"
	}
	return Cell{Kind: KindBool, Bool: b, Display: display}
}

// DateCell returns a date/time cell
func DateCell(t time.Time, display string) Cell {
	if display == "" {
		display = t.Format(isoLayout)
	}
	return Cell{Kind: KindDate, Time: t, Display: display}
}

// TimeCell returns a time-of-day cell. Scalar renders only the clock part of t.
func TimeCell(t time.Time, display string) Cell {
	if display == "" {
		display = t.Format(timeLayout)
	}
	return Cell{Kind: KindDate, Time: t, Display: display, TimeOnly: true}
}

// ErrorCell returns a cell holding a spreadsheet error such as #DIV/0!
func ErrorCell(code string) Cell {
	return Cell{Kind: KindError, Display: code}
}

// Text converts the cell to text
func (c Cell) Text() string {
	if c.Kind == KindEmpty {
		return ""
	}
	return c.Display
}

// IsBlank reports whether the cell is empty or holds only whitespace
func (c Cell) IsBlank() bool {
	return c.Kind == KindEmpty || strings.TrimSpace(c.Text()) == ""
}

// Scalar returns the cell as a JSON-friendly scalar. Empty cells become "".
func (c Cell) Scalar() any {
	switch c.Kind {
	case KindEmpty:
		return ""
	case KindNumber:
		if c.Number == math.Trunc(c.Number) && math.Abs(c.Number) < 1<<53 {
			return int64(c.Number)
		}
		return c.Number
	case KindBool:
		return c.Bool
	case KindDate:
		if c.TimeOnly {
			return c.Time.Format(timeLayout)
		}
		return c.Time.Format(isoLayout)
	default:
		return c.Display
	}
}

// Row is an ordered sequence of cells
type Row []Cell

// IsBlank reports whether every cell in the row is blank. A row with no cells is blank.
func (r Row) IsBlank() bool {
	for _, c := range r {
		if !c.IsBlank() {
			return false
		}
	}
	return true
}

// Scalars returns the row with each cell converted by Scalar
func (r Row) Scalars() []any {
	out := make([]any, len(r))
	for i, c := range r {
		out[i] = c.Scalar()
	}
	return out
}

// inferCell builds a cell from plain text, recognising numbers. Used by backends that only
// expose strings.
func inferCell(s string) Cell {
	if s == "" {
		return EmptyCell()
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil && !math.IsInf(n, 0) && !math.IsNaN(n) {
		return NumberCell(n, s)
	}
	return StringCell(s)
}

// padRows extends every row to width with empty cells
func padRows(rows []Row, width int) []Row {
	for i, row := range rows {
		if len(row) < width {
			padded := make(Row, width)
			copy(padded, row)
			for j := len(row); j < width; j++ {
				padded[j] = EmptyCell()
			}
			rows[i] = padded
		}
	}
	return rows
}

// maxWidth returns the length of the longest row
func maxWidth(rows []Row) int {
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	return width
}

package workbook

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// readXLSX reads every sheet of an OOXML workbook. Formula cells yield their cached values.
func readXLSX(ctx context.Context, path string) ([]*Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	props, err := f.GetWorkbookProps()
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook properties: %w", err)
	}

	r := &xlsxReader{
		f:          f,
		dateStyles: make(map[int]bool),
		date1904:   props.Date1904 != nil && *props.Date1904,
	}

	var sheets []*Sheet
	for _, name := range f.GetSheetList() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rows, err := r.readSheet(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet '%s': %w", name, err)
		}
		sheets = append(sheets, &Sheet{Name: name, Rows: padRows(rows, maxWidth(rows))})
	}

	return sheets, nil
}

const secondsPerDay = 24 * 60 * 60

type xlsxReader struct {
	f *excelize.File
	// dateStyles memoises style index lookups for a single load
	dateStyles map[int]bool
	// date1904 selects the 1904 date system for serial conversion
	date1904 bool
}

func (r *xlsxReader) readSheet(sheet string) ([]Row, error) {
	display, err := r.f.GetRows(sheet)
	if err != nil {
		return nil, err
	}
	raw, err := r.f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	rows := make([]Row, len(display))
	for rowIdx, values := range display {
		row := make(Row, len(values))
		for colIdx, shown := range values {
			rawValue := shown
			if rowIdx < len(raw) && colIdx < len(raw[rowIdx]) {
				rawValue = raw[rowIdx][colIdx]
			}
			cell, err := r.readCell(sheet, colIdx+1, rowIdx+1, shown, rawValue)
			if err != nil {
				return nil, err
			}
			row[colIdx] = cell
		}
		rows[rowIdx] = row
	}
	return rows, nil
}

func (r *xlsxReader) readCell(sheet string, col, row int, shown, raw string) (Cell, error) {
	if shown == "" && raw == "" {
		return EmptyCell(), nil
	}

	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return Cell{}, err
	}

	cellType, err := r.f.GetCellType(sheet, ref)
	if err != nil {
		return Cell{}, err
	}

	switch cellType {
	case excelize.CellTypeBool:
		return BoolCell(raw == "1" || strings.EqualFold(raw, "true")), nil
	case excelize.CellTypeError:
		return ErrorCell(shown), nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		return StringCell(shown), nil
	case excelize.CellTypeDate:
		return r.dateCell(raw, shown), nil
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return StringCell(shown), nil
	}

	isDate, err := r.hasDateStyle(sheet, ref)
	if err != nil {
		return Cell{}, err
	}
	if isDate {
		return r.dateCell(raw, shown), nil
	}
	return NumberCell(n, shown), nil
}

func (r *xlsxReader) dateCell(raw, shown string) Cell {
	serial, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// ISO 8601 date cells (t="d") store text rather than a serial number
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return DateCell(t, shown)
		}
		if t, err := time.Parse(isoLayout, raw); err == nil {
			return DateCell(t, shown)
		}
		return StringCell(shown)
	}
	// serials below one day carry only a time of day
	if serial >= 0 && serial < 1 {
		secs := math.Round(serial * secondsPerDay)
		return TimeCell(time.Time{}.Add(time.Duration(secs)*time.Second), shown)
	}
	t, err := excelize.ExcelDateToTime(serial, r.date1904)
	if err != nil {
		return NumberCell(serial, shown)
	}
	return DateCell(t, shown)
}

func (r *xlsxReader) hasDateStyle(sheet, ref string) (bool, error) {
	idx, err := r.f.GetCellStyle(sheet, ref)
	if err != nil {
		return false, err
	}
	if isDate, ok := r.dateStyles[idx]; ok {
		return isDate, nil
	}

	style, err := r.f.GetStyle(idx)
	if err != nil {
		return false, err
	}
	isDate := false
	if style != nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormat(*style.CustomNumFmt)
		} else {
			isDate = isBuiltInDateFormat(style.NumFmt)
		}
	}
	r.dateStyles[idx] = isDate
	return isDate, nil
}

// isBuiltInDateFormat reports whether a built-in number format id renders dates or times
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22:
		return true
	case id >= 27 && id <= 36:
		return true
	case id >= 45 && id <= 47:
		return true
	case id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormat reports whether a custom number format contains date or time tokens
// outside of quoted literals and bracketed sections
func isDateFormat(format string) bool {
	inQuote, inBracket := false, false
	for i := 0; i < len(format); i++ {
		ch := format[i]
		switch {
		case ch == '\\':
			i++
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '[':
			inBracket = true
		case ch == ']':
			inBracket = false
		case inBracket:
		default:
			switch ch {
			case 'y', 'Y', 'm', 'M', 'd', 'D', 'h', 'H', 's', 'S':
				return true
			}
		}
	}
	return false
}

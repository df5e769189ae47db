package workbook

import (
	"context"
	"fmt"

	"github.com/extrame/xls"
)

// readXLS reads a legacy BIFF workbook. The reader only exposes text, so numbers are
// recognised from their rendering.
func readXLS(ctx context.Context, path string) (sheets []*Sheet, err error) {
	// the BIFF parser panics on some malformed records
	defer func() {
		if r := recover(); r != nil {
			sheets, err = nil, fmt.Errorf("malformed xls file: %v", r)
		}
	}()

	wb, err := xls.Open(path, "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	for i := 0; i < wb.NumSheets(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ws := wb.GetSheet(i)
		if ws == nil {
			continue
		}
		rows := readXLSRows(ws)
		sheets = append(sheets, &Sheet{Name: ws.Name, Rows: padRows(rows, maxWidth(rows))})
	}

	return sheets, nil
}

func readXLSRows(ws *xls.WorkSheet) []Row {
	if ws.MaxRow == 0 && ws.Row(0) == nil {
		return nil
	}

	rows := make([]Row, int(ws.MaxRow)+1)
	for r := range rows {
		src := ws.Row(r)
		if src == nil {
			continue
		}
		row := make(Row, src.LastCol()+1)
		for c := range row {
			row[c] = inferCell(src.Col(c))
		}
		// ROW records report an exclusive last column, so the final cell may be padding
		for len(row) > 0 && row[len(row)-1].Kind == KindEmpty {
			row = row[:len(row)-1]
		}
		rows[r] = row
	}
	return rows
}

package workbook

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// readCSV reads a delimited text file as a single sheet named after the file stem
func readCSV(path string, comma rune) ([]*Sheet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.Comma = comma
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse delimited file: %w", err)
	}

	rows := make([]Row, len(records))
	for i, record := range records {
		row := make(Row, len(record))
		for j, value := range record {
			row[j] = inferCell(value)
		}
		rows[i] = row
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return []*Sheet{{Name: name, Rows: padRows(rows, maxWidth(rows))}}, nil
}

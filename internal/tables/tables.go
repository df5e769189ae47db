// Package tables detects tables within a sheet and shapes size-limited previews of them.
//
// A table is a maximal run of consecutive rows in which no row is blank. Blank rows
// separate tables and never belong to one.
package tables

import "github.com/sammcj/excel-preview-mcp/internal/workbook"

// Table is a non-empty ordered list of normalised rows. Empty cells are "".
type Table [][]any

// RowCount returns the number of rows in the table
func (t Table) RowCount() int {
	return len(t)
}

// ColCount returns the width of the table's first row, or 0 for an empty table
func (t Table) ColCount() int {
	if len(t) == 0 {
		return 0
	}
	return len(t[0])
}

// Extract partitions rows into tables using fully blank rows as separators.
// Leading and trailing blank rows produce nothing and no table is ever empty.
func Extract(rows []workbook.Row) []Table {
	var (
		tables  []Table
		current Table
	)

	for _, row := range rows {
		if !row.IsBlank() {
			current = append(current, row.Scalars())
			continue
		}
		if len(current) > 0 {
			tables = append(tables, current)
			current = nil
		}
	}

	if len(current) > 0 {
		tables = append(tables, current)
	}

	return tables
}

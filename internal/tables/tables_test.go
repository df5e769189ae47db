package tables_test

import (
	"math/rand"
	"testing"

	"github.com/sammcj/excel-preview-mcp/internal/tables"
	"github.com/sammcj/excel-preview-mcp/internal/workbook"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// textRows builds rows of string cells, treating "" as an empty cell
func textRows(values ...[]string) []workbook.Row {
	rows := make([]workbook.Row, len(values))
	for i, vals := range values {
		row := make(workbook.Row, len(vals))
		for j, v := range vals {
			if v == "" {
				row[j] = workbook.EmptyCell()
			} else {
				row[j] = workbook.StringCell(v)
			}
		}
		rows[i] = row
	}
	return rows
}

func sampleRows() []workbook.Row {
	return textRows(
		[]string{"A", "B"},
		[]string{"", ""},
		[]string{"x", "y", "z"},
		[]string{"p", "q", "r"},
		[]string{"", ""},
		[]string{"last"},
	)
}

func TestExtract_SeparatesOnBlankRows(t *testing.T) {
	got := tables.Extract(sampleRows())

	require.Len(t, got, 3)
	assert.Equal(t, tables.Table{{"A", "B"}}, got[0])
	assert.Equal(t, tables.Table{{"x", "y", "z"}, {"p", "q", "r"}}, got[1])
	assert.Equal(t, tables.Table{{"last"}}, got[2])

	assert.Equal(t, 2, got[1].RowCount())
	assert.Equal(t, 3, got[1].ColCount())
}

func TestExtract_NoRows(t *testing.T) {
	assert.Empty(t, tables.Extract(nil))
	assert.Empty(t, tables.Extract([]workbook.Row{}))
}

func TestExtract_OnlyBlankRows(t *testing.T) {
	rows := textRows(
		[]string{"", ""},
		[]string{"   ", "\t"},
		[]string{},
	)
	assert.Empty(t, tables.Extract(rows))
}

func TestExtract_LeadingAndTrailingBlankRows(t *testing.T) {
	rows := textRows(
		[]string{"", ""},
		[]string{"", ""},
		[]string{"h1", "h2"},
		[]string{"1", "2"},
		[]string{"", ""},
		[]string{" ", ""},
	)

	got := tables.Extract(rows)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].RowCount())
}

func TestExtract_WhitespaceOnlyRowSeparates(t *testing.T) {
	rows := textRows(
		[]string{"a"},
		[]string{"  \t "},
		[]string{"b"},
	)

	got := tables.Extract(rows)
	require.Len(t, got, 2)
	assert.Equal(t, tables.Table{{"a"}}, got[0])
	assert.Equal(t, tables.Table{{"b"}}, got[1])
}

func TestExtract_NormalisesEmptyCells(t *testing.T) {
	rows := []workbook.Row{
		{workbook.StringCell("name"), workbook.EmptyCell(), workbook.NumberCell(42, "42")},
		{workbook.EmptyCell(), workbook.BoolCell(true), workbook.NumberCell(1.5, "1.5")},
	}

	got := tables.Extract(rows)
	require.Len(t, got, 1)
	assert.Equal(t, []any{"name", "", int64(42)}, got[0][0])
	assert.Equal(t, []any{"", true, 1.5}, got[0][1])
}

func TestExtract_CountMatchesNonBlankRuns(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 200; trial++ {
		n := rng.Intn(30)
		blank := make([]bool, n)
		values := make([][]string, n)
		for i := range values {
			blank[i] = rng.Intn(3) == 0
			if blank[i] {
				values[i] = []string{"", " "}
			} else {
				values[i] = []string{"v", ""}
			}
		}

		expectedRuns := 0
		for i := range blank {
			if !blank[i] && (i == 0 || blank[i-1]) {
				expectedRuns++
			}
		}

		got := tables.Extract(textRows(values...))
		require.Len(t, got, expectedRuns, "trial %d", trial)

		total := 0
		for _, table := range got {
			require.NotZero(t, table.RowCount())
			total += table.RowCount()
		}
		nonBlank := 0
		for _, b := range blank {
			if !b {
				nonBlank++
			}
		}
		assert.Equal(t, nonBlank, total, "every non-blank row belongs to exactly one table")
	}
}

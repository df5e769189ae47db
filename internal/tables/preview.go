package tables

// Default preview bounds
const (
	DefaultTableLimit = 2
	DefaultRowPreview = 5
)

// TablePreview describes one table. Rows and Cols report the table's full extent even
// when Data is truncated.
type TablePreview struct {
	TableIndex int     `json:"table_index"`
	Rows       int     `json:"rows"`
	Cols       int     `json:"cols"`
	Data       [][]any `json:"data"`
}

// SheetPreview is the result of previewing one sheet
type SheetPreview struct {
	SheetName      string         `json:"sheet_name"`
	DetectedTables int            `json:"detected_tables"`
	Preview        []TablePreview `json:"preview"`
}

// Window returns how many of n items a limit keeps. A negative limit counts back from
// the end, so -1 keeps all but the last item, and limits beyond either end are clamped.
func Window(n, limit int) int {
	if limit < 0 {
		limit += n
	}
	switch {
	case limit < 0:
		return 0
	case limit > n:
		return n
	default:
		return limit
	}
}

// BuildPreview keeps the first tableLimit tables and the first rowPreview rows of each
func BuildPreview(sheetName string, tables []Table, tableLimit, rowPreview int) SheetPreview {
	kept := tables[:Window(len(tables), tableLimit)]

	previews := make([]TablePreview, 0, len(kept))
	for i, table := range kept {
		data := table[:Window(len(table), rowPreview)]
		if data == nil {
			data = [][]any{}
		}
		previews = append(previews, TablePreview{
			TableIndex: i + 1,
			Rows:       table.RowCount(),
			Cols:       table.ColCount(),
			Data:       data,
		})
	}

	return SheetPreview{
		SheetName:      sheetName,
		DetectedTables: len(tables),
		Preview:        previews,
	}
}

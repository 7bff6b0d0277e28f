package dataset

import "strings"

// Type describes the intended interpretation of a column's cells.
type Type string

const (
	TypeText    Type = "text"
	TypeInteger Type = "integer"
	TypeReal    Type = "real"
	TypeDate    Type = "date"
	TypeBool    Type = "bool"
)

// Column pairs a column name with its declared type.
type Column struct {
	Name string
	Type Type
}

// Table is an in-memory tabular dataset. Cells hold nil (missing), string,
// int64, float64, or bool. Loaded CSV data arrives as string/nil; computed
// tables carry typed values.
type Table struct {
	Columns []Column
	Rows    [][]any
}

// NewTable builds an empty table with the given columns.
func NewTable(columns ...Column) *Table {
	cols := make([]Column, len(columns))
	copy(cols, columns)
	return &Table{Columns: cols}
}

// AppendRow adds a row, padding or truncating to the column count.
func (t *Table) AppendRow(values ...any) {
	row := make([]any, len(t.Columns))
	for i := range row {
		if i < len(values) {
			row[i] = values[i]
		}
	}
	t.Rows = append(t.Rows, row)
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// ColumnIndex returns the position of the named column, or -1 when absent.
func (t *Table) ColumnIndex(name string) int {
	if t == nil {
		return -1
	}
	for i, col := range t.Columns {
		if col.Name == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	return t.ColumnIndex(name) >= 0
}

// ColumnNames returns the ordered column names.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		names[i] = col.Name
	}
	return names
}

// IsMissing reports whether a cell counts as absent: nil or blank text.
func IsMissing(value any) bool {
	if value == nil {
		return true
	}
	if s, ok := value.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

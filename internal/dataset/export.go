package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteCSV renders the table as CSV: header row then formatted cells.
func WriteCSV(w io.Writer, t *Table) error {
	if t == nil {
		return fmt.Errorf("write csv: nil table")
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(t.ColumnNames()); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	record := make([]string, len(t.Columns))
	for _, row := range t.Rows {
		for i := range record {
			if i < len(row) {
				record[i] = FormatCell(row[i])
			} else {
				record[i] = ""
			}
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
)

// Spec declares the column contract for a dataset file. Required columns
// must appear in the header; Types supplies interpretation hints for known
// columns, everything else loads as text.
type Spec struct {
	Name     string
	Required []string
	Types    map[string]Type
}

// ListingsSpec is the column contract for the listings dataset.
func ListingsSpec() Spec {
	return Spec{
		Name:     "listings",
		Required: []string{"id", "price"},
		Types: map[string]Type{
			"id":                   TypeInteger,
			"price":                TypeText,
			"number_of_reviews":    TypeInteger,
			"review_scores_rating": TypeReal,
			"reviews_per_month":    TypeReal,
			"minimum_nights":       TypeInteger,
			"last_review":          TypeDate,
		},
	}
}

// CalendarSpec is the column contract for the calendar dataset.
func CalendarSpec() Spec {
	return Spec{
		Name:     "calendar",
		Required: []string{"listing_id", "date", "available"},
		Types: map[string]Type{
			"listing_id": TypeInteger,
			"date":       TypeDate,
			"available":  TypeBool,
			"price":      TypeText,
		},
	}
}

// ReviewsSpec is the column contract for the reviews dataset.
func ReviewsSpec() Spec {
	return Spec{
		Name:     "reviews",
		Required: []string{"listing_id", "date"},
		Types: map[string]Type{
			"listing_id": TypeInteger,
			"date":       TypeDate,
			"id":         TypeInteger,
		},
	}
}

// LoadCSV reads a CSV file into a Table, enforcing the spec's required
// columns. Header names are trimmed and lowercased. Blank cells load as
// nil; short rows are padded so malformed files never fail the load.
func LoadCSV(path string, spec Spec) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s dataset: %w", spec.Name, err)
	}
	defer file.Close()

	table, err := ReadCSV(file, spec)
	if err != nil {
		return nil, err
	}
	return table, nil
}

// ReadCSV parses CSV content from r under the spec's contract.
func ReadCSV(r io.Reader, spec Spec) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", spec.Name, err)
	}

	columns := make([]Column, len(header))
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(name))
		colType := TypeText
		if spec.Types != nil {
			if hint, ok := spec.Types[normalized]; ok {
				colType = hint
			}
		}
		columns[i] = Column{Name: normalized, Type: colType}
	}

	table := &Table{Columns: columns}
	if missing := missingRequired(table, spec.Required); len(missing) > 0 {
		return nil, &SchemaError{Dataset: spec.Name, Missing: missing}
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row: %w", spec.Name, err)
		}
		row := make([]any, len(columns))
		for i := range columns {
			if i >= len(record) {
				continue
			}
			if cell := record[i]; strings.TrimSpace(cell) != "" {
				row[i] = cell
			}
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func missingRequired(t *Table, required []string) []string {
	var missing []string
	for _, name := range required {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

package dataset_test

import (
	"errors"
	"strings"
	"testing"

	"stayscope/internal/dataset"
)

func TestReadCSVLoadsRowsAndTypes(t *testing.T) {
	input := "id,price,number_of_reviews\n1,$100.00,12\n2,$50,\n"
	table, err := dataset.ReadCSV(strings.NewReader(input), dataset.ListingsSpec())
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}

	if table.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.NumRows())
	}
	if table.NumColumns() != 3 {
		t.Fatalf("expected 3 columns, got %d", table.NumColumns())
	}
	if idx := table.ColumnIndex("id"); idx != 0 || table.Columns[idx].Type != dataset.TypeInteger {
		t.Fatalf("unexpected id column: idx=%d type=%v", idx, table.Columns[0].Type)
	}
	if table.Rows[0][1] != "$100.00" {
		t.Fatalf("expected raw price cell, got %#v", table.Rows[0][1])
	}
	if table.Rows[1][2] != nil {
		t.Fatalf("expected blank cell to load as nil, got %#v", table.Rows[1][2])
	}
}

func TestReadCSVMissingRequiredColumns(t *testing.T) {
	input := "name,neighbourhood\nfoo,bar\n"
	_, err := dataset.ReadCSV(strings.NewReader(input), dataset.ListingsSpec())
	if err == nil {
		t.Fatal("expected schema error for missing columns")
	}

	var schemaErr *dataset.SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("expected SchemaError, got %T: %v", err, err)
	}
	if schemaErr.Dataset != "listings" {
		t.Fatalf("expected listings dataset, got %q", schemaErr.Dataset)
	}
	if len(schemaErr.Missing) != 2 {
		t.Fatalf("expected both id and price reported, got %v", schemaErr.Missing)
	}
	if !dataset.IsSchema(err) {
		t.Fatal("IsSchema should report true")
	}
}

func TestReadCSVPadsShortRows(t *testing.T) {
	input := "listing_id,date,available\n1,2025-01-01,t\n2,2025-01-02\n"
	table, err := dataset.ReadCSV(strings.NewReader(input), dataset.CalendarSpec())
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if table.NumRows() != 2 {
		t.Fatalf("expected 2 rows, got %d", table.NumRows())
	}
	if got := len(table.Rows[1]); got != 3 {
		t.Fatalf("expected padded row of 3 cells, got %d", got)
	}
	if table.Rows[1][2] != nil {
		t.Fatalf("expected missing cell to be nil, got %#v", table.Rows[1][2])
	}
}

func TestReadCSVNormalizesHeaderCase(t *testing.T) {
	input := "Listing_ID,Date,Available\n1,2025-01-01,t\n"
	table, err := dataset.ReadCSV(strings.NewReader(input), dataset.CalendarSpec())
	if err != nil {
		t.Fatalf("ReadCSV failed: %v", err)
	}
	if !table.HasColumn("listing_id") {
		t.Fatalf("expected lowercased header, got %v", table.ColumnNames())
	}
}

func TestWriteCSVRoundTrip(t *testing.T) {
	table := dataset.NewTable(
		dataset.Column{Name: "listing_id", Type: dataset.TypeInteger},
		dataset.Column{Name: "rate", Type: dataset.TypeReal},
	)
	table.AppendRow(int64(7), 0.25)
	table.AppendRow(int64(8), nil)

	var buf strings.Builder
	if err := dataset.WriteCSV(&buf, table); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	want := "listing_id,rate\n7,0.25\n8,\n"
	if buf.String() != want {
		t.Fatalf("unexpected csv output:\n%s", buf.String())
	}
}

// Package dataset loads the CSV inputs (listings, calendar, reviews) into
// in-memory tables and supplies the cell-parsing helpers the audits rely on.
//
// Loading enforces each dataset's required-column contract and fails with a
// SchemaError naming every missing column. Everything past the header is
// tolerant: blank cells become nil, short rows are padded, and typed
// interpretation (prices, dates, flags) happens lazily through the Parse
// helpers so malformed cells surface as audit metrics instead of load
// failures.
package dataset

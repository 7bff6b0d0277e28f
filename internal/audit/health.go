package audit

import (
	"strings"

	"stayscope/internal/dataset"
)

// RunHealthAudit computes data-quality metrics and tables from the three
// input datasets. The function is pure: no I/O, no clock, no randomness.
// Malformed cells are counted, never raised.
func RunHealthAudit(listings, calendar, reviews *dataset.Table) *HealthResult {
	listings = emptyIfNil(listings)
	calendar = emptyIfNil(calendar)
	reviews = emptyIfNil(reviews)

	listingIDs, duplicateIDs := collectListingIDs(listings)
	missing := computeMissingness(listings, calendar, reviews)
	referential, violationsTable := computeReferential(listingIDs, calendar, reviews)
	mismatch, mismatchTable := computeReviewMismatch(listings, reviews)

	metrics := HealthMetrics{
		RowsCols:           computeRowsCols(listings, calendar, reviews),
		Missingness:        missingnessMetric(missing),
		Duplicates:         computeDuplicates(listings, calendar, reviews, duplicateIDs),
		Referential:        referential,
		DateRanges:         computeDateRanges(listings, calendar, reviews),
		PriceSummary:       computePriceSummary(listings),
		AvailabilityCounts: computeAvailability(calendar),
		ReviewMismatch:     mismatch,
	}

	tables := map[string]*dataset.Table{
		"missing_columns":        missingnessTable(missing),
		"referential_violations": violationsTable,
		"review_mismatch":        mismatchTable,
	}

	return &HealthResult{Metrics: metrics, Tables: tables}
}

func computeRowsCols(listings, calendar, reviews *dataset.Table) RowsCols {
	shape := func(t *dataset.Table) TableShape {
		return TableShape{Rows: t.NumRows(), Columns: t.NumColumns()}
	}
	return RowsCols{
		Listings: shape(listings),
		Calendar: shape(calendar),
		Reviews:  shape(reviews),
	}
}

// collectListingIDs builds the set of known listing ids and counts repeats.
func collectListingIDs(listings *dataset.Table) (map[int64]struct{}, int) {
	ids := make(map[int64]struct{})
	duplicates := 0
	idx := listings.ColumnIndex("id")
	if idx < 0 {
		return ids, 0
	}
	for _, row := range listings.Rows {
		id, ok := dataset.ParseInt(row[idx])
		if !ok {
			continue
		}
		if _, seen := ids[id]; seen {
			duplicates++
			continue
		}
		ids[id] = struct{}{}
	}
	return ids, duplicates
}

// columnMissing is one dataset column's missing-cell tally, used to build
// both the missingness metric map and the missing_columns table.
type columnMissing struct {
	dataset  string
	column   string
	count    int
	fraction float64
}

func computeMissingness(listings, calendar, reviews *dataset.Table) []columnMissing {
	var out []columnMissing
	for _, entry := range []struct {
		name  string
		table *dataset.Table
	}{
		{"listings", listings},
		{"calendar", calendar},
		{"reviews", reviews},
	} {
		rows := entry.table.NumRows()
		for colIdx, col := range entry.table.Columns {
			count := 0
			for _, row := range entry.table.Rows {
				if cellMissing(row[colIdx], col.Type) {
					count++
				}
			}
			fraction := 0.0
			if rows > 0 {
				fraction = round4(float64(count) / float64(rows))
			}
			out = append(out, columnMissing{
				dataset:  entry.name,
				column:   col.Name,
				count:    count,
				fraction: fraction,
			})
		}
	}
	return out
}

// cellMissing treats absent cells and unparsable typed cells as missing.
func cellMissing(value any, colType dataset.Type) bool {
	if dataset.IsMissing(value) {
		return true
	}
	switch colType {
	case dataset.TypeInteger:
		_, ok := dataset.ParseInt(value)
		return !ok
	case dataset.TypeReal:
		_, ok := dataset.ParseFloat(value)
		return !ok
	case dataset.TypeDate:
		_, ok := dataset.ParseDate(value)
		return !ok
	case dataset.TypeBool:
		_, ok := dataset.ParseBool(value)
		return !ok
	default:
		return false
	}
}

func missingnessMetric(missing []columnMissing) map[string]map[string]float64 {
	metric := map[string]map[string]float64{
		"listings": {},
		"calendar": {},
		"reviews":  {},
	}
	for _, m := range missing {
		metric[m.dataset][m.column] = m.fraction
	}
	return metric
}

func missingnessTable(missing []columnMissing) *dataset.Table {
	table := dataset.NewTable(
		dataset.Column{Name: "dataset", Type: dataset.TypeText},
		dataset.Column{Name: "column", Type: dataset.TypeText},
		dataset.Column{Name: "missing_count", Type: dataset.TypeInteger},
		dataset.Column{Name: "missing_fraction", Type: dataset.TypeReal},
	)
	for _, m := range missing {
		if m.count == 0 {
			continue
		}
		table.AppendRow(m.dataset, m.column, int64(m.count), m.fraction)
	}
	return table
}

func computeDuplicates(listings, calendar, reviews *dataset.Table, duplicateIDs int) DuplicateCounts {
	return DuplicateCounts{
		ListingsRows:        duplicateRowCount(listings),
		CalendarRows:        duplicateRowCount(calendar),
		ReviewsRows:         duplicateRowCount(reviews),
		DuplicateListingIDs: duplicateIDs,
	}
}

// duplicateRowCount counts rows identical to an earlier row.
func duplicateRowCount(t *dataset.Table) int {
	seen := make(map[string]struct{}, t.NumRows())
	duplicates := 0
	var b strings.Builder
	for _, row := range t.Rows {
		b.Reset()
		for i, cell := range row {
			if i > 0 {
				b.WriteByte(0x1f)
			}
			b.WriteString(dataset.FormatCell(cell))
		}
		key := b.String()
		if _, ok := seen[key]; ok {
			duplicates++
			continue
		}
		seen[key] = struct{}{}
	}
	return duplicates
}

func computeReferential(listingIDs map[int64]struct{}, calendar, reviews *dataset.Table) (ReferentialSummary, *dataset.Table) {
	table := dataset.NewTable(
		dataset.Column{Name: "dataset", Type: dataset.TypeText},
		dataset.Column{Name: "listing_id", Type: dataset.TypeInteger},
	)

	summary := ReferentialSummary{}
	sampled := make(map[int64]struct{})

	check := func(name string, t *dataset.Table, counter *int) {
		idx := t.ColumnIndex("listing_id")
		if idx < 0 {
			return
		}
		for _, row := range t.Rows {
			id, ok := dataset.ParseInt(row[idx])
			if !ok {
				continue
			}
			if _, known := listingIDs[id]; known {
				continue
			}
			*counter++
			summary.Total++
			if _, seen := sampled[id]; !seen && len(summary.SampleIDs) < violationSampleCap {
				sampled[id] = struct{}{}
				summary.SampleIDs = append(summary.SampleIDs, id)
			}
			if table.NumRows() < violationSampleCap {
				table.AppendRow(name, id)
			}
		}
	}

	check("calendar", calendar, &summary.Calendar)
	check("reviews", reviews, &summary.Reviews)
	return summary, table
}

func computeDateRanges(listings, calendar, reviews *dataset.Table) map[string]DateRange {
	ranges := make(map[string]DateRange)
	add := func(key string, t *dataset.Table, column string) {
		idx := t.ColumnIndex(column)
		if idx < 0 {
			return
		}
		var minStr, maxStr string
		for _, row := range t.Rows {
			parsed, ok := dataset.ParseDate(row[idx])
			if !ok {
				continue
			}
			formatted := parsed.Format("2006-01-02")
			if minStr == "" || formatted < minStr {
				minStr = formatted
			}
			if maxStr == "" || formatted > maxStr {
				maxStr = formatted
			}
		}
		if minStr != "" {
			ranges[key] = DateRange{Min: minStr, Max: maxStr}
		}
	}
	add("calendar.date", calendar, "date")
	add("reviews.date", reviews, "date")
	add("listings.last_review", listings, "last_review")
	return ranges
}

func computePriceSummary(listings *dataset.Table) PriceSummary {
	summary := PriceSummary{}
	idx := listings.ColumnIndex("price")
	if idx < 0 {
		summary.Missing = listings.NumRows()
		return summary
	}

	var values []float64
	for _, row := range listings.Rows {
		price, ok := dataset.ParsePrice(row[idx])
		if !ok {
			summary.Missing++
			continue
		}
		values = append(values, price)
	}
	summary.Count = len(values)
	if len(values) == 0 {
		return summary
	}

	sorted := sortedCopy(values)
	summary.Min = round2(sorted[0])
	summary.Max = round2(sorted[len(sorted)-1])
	summary.Mean = round2(mean(values))
	summary.Median = round2(quantile(sorted, 0.5))
	summary.P25 = round2(quantile(sorted, 0.25))
	summary.P75 = round2(quantile(sorted, 0.75))
	return summary
}

func computeAvailability(calendar *dataset.Table) AvailabilityCounts {
	counts := AvailabilityCounts{}
	idx := calendar.ColumnIndex("available")
	if idx < 0 {
		counts.Unknown = calendar.NumRows()
		return counts
	}
	for _, row := range calendar.Rows {
		available, ok := dataset.ParseBool(row[idx])
		switch {
		case !ok:
			counts.Unknown++
		case available:
			counts.Available++
		default:
			counts.Unavailable++
		}
	}
	return counts
}

func computeReviewMismatch(listings, reviews *dataset.Table) (ReviewMismatchCounts, *dataset.Table) {
	table := dataset.NewTable(
		dataset.Column{Name: "listing_id", Type: dataset.TypeInteger},
		dataset.Column{Name: "reported", Type: dataset.TypeInteger},
		dataset.Column{Name: "observed", Type: dataset.TypeInteger},
	)

	counts := ReviewMismatchCounts{}
	idIdx := listings.ColumnIndex("id")
	reportedIdx := listings.ColumnIndex("number_of_reviews")
	if idIdx < 0 || reportedIdx < 0 {
		return counts, table
	}

	observed := make(map[int64]int64)
	if reviewIdx := reviews.ColumnIndex("listing_id"); reviewIdx >= 0 {
		for _, row := range reviews.Rows {
			if id, ok := dataset.ParseInt(row[reviewIdx]); ok {
				observed[id]++
			}
		}
	}

	for _, row := range listings.Rows {
		id, ok := dataset.ParseInt(row[idIdx])
		if !ok {
			continue
		}
		reported, ok := dataset.ParseInt(row[reportedIdx])
		if !ok {
			continue
		}
		counts.Checked++
		if reported == observed[id] {
			continue
		}
		counts.Mismatched++
		if table.NumRows() < mismatchSampleCap {
			table.AppendRow(id, reported, observed[id])
		}
	}
	return counts, table
}

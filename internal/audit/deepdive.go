package audit

import (
	"sort"
	"strings"
	"time"

	"stayscope/internal/dataset"
)

// RunDeepDiveAudit computes occupancy, booking-gap, review, and
// neighbourhood metrics from the three input datasets. Like the health
// audit it is pure and tolerates malformed rows by skipping them.
func RunDeepDiveAudit(listings, calendar, reviews *dataset.Table) *DeepDiveResult {
	listings = emptyIfNil(listings)
	calendar = emptyIfNil(calendar)
	reviews = emptyIfNil(reviews)

	occupancy := occupancyByListing(calendar)
	neighborhoods, neighborhoodTable := computeNeighborhoods(listings, occupancy)

	metrics := DeepDiveMetrics{
		Occupancy:     computeOccupancy(occupancy),
		BookingGaps:   computeBookingGaps(calendar),
		ReviewVolume:  computeReviewVolume(listings, reviews),
		Ratings:       computeRatings(listings),
		Neighborhoods: neighborhoods,
	}

	tables := map[string]*dataset.Table{
		"listing_occupancy":    occupancyTable(occupancy),
		"neighborhood_summary": neighborhoodTable,
	}

	return &DeepDiveResult{Metrics: metrics, Tables: tables}
}

// listingOccupancy tallies calendar days for one listing. A day counts as
// booked when available is false.
type listingOccupancy struct {
	days        int
	unavailable int
}

func (o listingOccupancy) rate() float64 {
	if o.days == 0 {
		return 0
	}
	return round4(float64(o.unavailable) / float64(o.days))
}

func occupancyByListing(calendar *dataset.Table) map[int64]listingOccupancy {
	out := make(map[int64]listingOccupancy)
	idIdx := calendar.ColumnIndex("listing_id")
	availableIdx := calendar.ColumnIndex("available")
	if idIdx < 0 || availableIdx < 0 {
		return out
	}
	for _, row := range calendar.Rows {
		id, ok := dataset.ParseInt(row[idIdx])
		if !ok {
			continue
		}
		available, ok := dataset.ParseBool(row[availableIdx])
		if !ok {
			continue
		}
		entry := out[id]
		entry.days++
		if !available {
			entry.unavailable++
		}
		out[id] = entry
	}
	return out
}

func sortedListingIDs(occupancy map[int64]listingOccupancy) []int64 {
	ids := make([]int64, 0, len(occupancy))
	for id := range occupancy {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func computeOccupancy(occupancy map[int64]listingOccupancy) OccupancySummary {
	summary := OccupancySummary{ListingCount: len(occupancy)}
	if len(occupancy) == 0 {
		return summary
	}

	totalDays := 0
	totalUnavailable := 0
	var rates []float64
	for _, id := range sortedListingIDs(occupancy) {
		entry := occupancy[id]
		totalDays += entry.days
		totalUnavailable += entry.unavailable
		rates = append(rates, entry.rate())
	}

	sorted := sortedCopy(rates)
	summary.OverallRate = round4(float64(totalUnavailable) / float64(totalDays))
	summary.MeanRate = round4(mean(rates))
	summary.MinRate = sorted[0]
	summary.MaxRate = sorted[len(sorted)-1]
	return summary
}

func occupancyTable(occupancy map[int64]listingOccupancy) *dataset.Table {
	table := dataset.NewTable(
		dataset.Column{Name: "listing_id", Type: dataset.TypeInteger},
		dataset.Column{Name: "days", Type: dataset.TypeInteger},
		dataset.Column{Name: "unavailable", Type: dataset.TypeInteger},
		dataset.Column{Name: "occupancy_rate", Type: dataset.TypeReal},
	)
	for _, id := range sortedListingIDs(occupancy) {
		entry := occupancy[id]
		table.AppendRow(id, int64(entry.days), int64(entry.unavailable), entry.rate())
	}
	return table
}

// calendarDay is one parsed calendar row for gap analysis.
type calendarDay struct {
	date      time.Time
	available bool
}

// computeBookingGaps measures runs of consecutive available calendar rows
// per listing, ordered by date.
func computeBookingGaps(calendar *dataset.Table) BookingGapSummary {
	summary := BookingGapSummary{}
	idIdx := calendar.ColumnIndex("listing_id")
	dateIdx := calendar.ColumnIndex("date")
	availableIdx := calendar.ColumnIndex("available")
	if idIdx < 0 || dateIdx < 0 || availableIdx < 0 {
		return summary
	}

	byListing := make(map[int64][]calendarDay)
	for _, row := range calendar.Rows {
		id, ok := dataset.ParseInt(row[idIdx])
		if !ok {
			continue
		}
		date, ok := dataset.ParseDate(row[dateIdx])
		if !ok {
			continue
		}
		available, ok := dataset.ParseBool(row[availableIdx])
		if !ok {
			continue
		}
		byListing[id] = append(byListing[id], calendarDay{date: date, available: available})
	}

	var gaps []int
	ids := make([]int64, 0, len(byListing))
	for id := range byListing {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		days := byListing[id]
		sort.SliceStable(days, func(i, j int) bool { return days[i].date.Before(days[j].date) })
		run := 0
		for _, day := range days {
			if day.available {
				run++
				continue
			}
			if run > 0 {
				gaps = append(gaps, run)
				run = 0
			}
		}
		if run > 0 {
			gaps = append(gaps, run)
		}
	}

	summary.Count = len(gaps)
	if len(gaps) == 0 {
		return summary
	}

	values := make([]float64, len(gaps))
	maxGap := gaps[0]
	for i, gap := range gaps {
		values[i] = float64(gap)
		if gap > maxGap {
			maxGap = gap
		}
	}
	summary.Mean = round2(mean(values))
	summary.Median = round2(quantile(sortedCopy(values), 0.5))
	summary.Max = maxGap
	return summary
}

func computeReviewVolume(listings, reviews *dataset.Table) ReviewVolumeSummary {
	summary := ReviewVolumeSummary{}

	counts := make(map[int64]int)
	if idx := reviews.ColumnIndex("listing_id"); idx >= 0 {
		for _, row := range reviews.Rows {
			if id, ok := dataset.ParseInt(row[idx]); ok {
				counts[id]++
			}
		}
	}
	if len(counts) > 0 {
		total := 0
		maxCount := 0
		for _, count := range counts {
			total += count
			if count > maxCount {
				maxCount = count
			}
		}
		summary.ListingsWithReviews = len(counts)
		summary.TotalReviews = total
		summary.MeanPerListing = round2(float64(total) / float64(len(counts)))
		summary.MaxPerListing = maxCount
	}

	if values := columnFloats(listings, "reviews_per_month"); len(values) > 0 {
		sorted := sortedCopy(values)
		summary.ReviewsPerMonth = &ReviewsPerMonthSummary{
			Min:  round2(sorted[0]),
			Mean: round2(mean(values)),
			Max:  round2(sorted[len(sorted)-1]),
		}
	}
	return summary
}

func computeRatings(listings *dataset.Table) RatingSummary {
	summary := RatingSummary{}
	values := columnFloats(listings, "review_scores_rating")
	summary.Count = len(values)
	if len(values) == 0 {
		return summary
	}
	sorted := sortedCopy(values)
	summary.Min = round2(sorted[0])
	summary.Max = round2(sorted[len(sorted)-1])
	summary.Mean = round2(mean(values))
	summary.Median = round2(quantile(sorted, 0.5))
	return summary
}

// columnFloats collects the parsable numeric cells of one column.
func columnFloats(t *dataset.Table, column string) []float64 {
	idx := t.ColumnIndex(column)
	if idx < 0 {
		return nil
	}
	var values []float64
	for _, row := range t.Rows {
		if v, ok := dataset.ParseFloat(row[idx]); ok {
			values = append(values, v)
		}
	}
	return values
}

// neighborhoodGroup accumulates per-neighbourhood aggregates.
type neighborhoodGroup struct {
	listings    int
	prices      []float64
	days        int
	unavailable int
}

func computeNeighborhoods(listings *dataset.Table, occupancy map[int64]listingOccupancy) (NeighborhoodOverview, *dataset.Table) {
	table := dataset.NewTable(
		dataset.Column{Name: "neighbourhood", Type: dataset.TypeText},
		dataset.Column{Name: "listings", Type: dataset.TypeInteger},
		dataset.Column{Name: "price_mean", Type: dataset.TypeReal},
		dataset.Column{Name: "price_median", Type: dataset.TypeReal},
		dataset.Column{Name: "occupancy_rate", Type: dataset.TypeReal},
	)

	overview := NeighborhoodOverview{}
	nameIdx := listings.ColumnIndex("neighbourhood")
	if nameIdx < 0 {
		nameIdx = listings.ColumnIndex("neighborhood")
	}
	if nameIdx < 0 {
		return overview, table
	}

	idIdx := listings.ColumnIndex("id")
	priceIdx := listings.ColumnIndex("price")
	groups := make(map[string]*neighborhoodGroup)
	for _, row := range listings.Rows {
		if dataset.IsMissing(row[nameIdx]) {
			continue
		}
		name := strings.TrimSpace(dataset.FormatCell(row[nameIdx]))
		if name == "" {
			continue
		}
		group := groups[name]
		if group == nil {
			group = &neighborhoodGroup{}
			groups[name] = group
		}
		group.listings++
		if priceIdx >= 0 {
			if price, ok := dataset.ParsePrice(row[priceIdx]); ok {
				group.prices = append(group.prices, price)
			}
		}
		if idIdx >= 0 {
			if id, ok := dataset.ParseInt(row[idIdx]); ok {
				entry := occupancy[id]
				group.days += entry.days
				group.unavailable += entry.unavailable
			}
		}
	}

	summaries := make([]NeighborhoodSummary, 0, len(groups))
	for name, group := range groups {
		summary := NeighborhoodSummary{Name: name, Listings: group.listings}
		if len(group.prices) > 0 {
			sorted := sortedCopy(group.prices)
			summary.PriceMean = round2(mean(group.prices))
			summary.PriceMedian = round2(quantile(sorted, 0.5))
		}
		if group.days > 0 {
			summary.OccupancyRate = round4(float64(group.unavailable) / float64(group.days))
		}
		summaries = append(summaries, summary)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Listings != summaries[j].Listings {
			return summaries[i].Listings > summaries[j].Listings
		}
		return summaries[i].Name < summaries[j].Name
	})

	for _, summary := range summaries {
		table.AppendRow(summary.Name, int64(summary.Listings), summary.PriceMean, summary.PriceMedian, summary.OccupancyRate)
	}

	overview.Count = len(summaries)
	if len(summaries) > neighborhoodTopCap {
		summaries = summaries[:neighborhoodTopCap]
	}
	overview.Top = summaries
	return overview, table
}

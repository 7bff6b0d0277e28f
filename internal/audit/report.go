package audit

import "stayscope/internal/dataset"

// Caps on sample rows emitted into audit tables, keeping persisted output
// bounded on pathological inputs.
const (
	violationSampleCap = 20
	mismatchSampleCap  = 20
	neighborhoodTopCap = 15
)

// HealthResult is the structured output of the health audit. Metrics holds
// the fixed-schema summary; Tables carries the relational exports keyed by
// the stable names in HealthTableKeys.
type HealthResult struct {
	Metrics HealthMetrics             `json:"metrics"`
	Tables  map[string]*dataset.Table `json:"-"`
}

// HealthMetrics is the fixed metric schema for the health audit.
type HealthMetrics struct {
	RowsCols           RowsCols                      `json:"rows_cols"`
	Missingness        map[string]map[string]float64 `json:"missingness"`
	Duplicates         DuplicateCounts               `json:"duplicates"`
	Referential        ReferentialSummary            `json:"referential"`
	DateRanges         map[string]DateRange          `json:"date_ranges"`
	PriceSummary       PriceSummary                  `json:"price_summary"`
	AvailabilityCounts AvailabilityCounts            `json:"availability_counts"`
	ReviewMismatch     ReviewMismatchCounts          `json:"review_mismatch_counts"`
}

// RowsCols reports the shape of each input dataset.
type RowsCols struct {
	Listings TableShape `json:"listings"`
	Calendar TableShape `json:"calendar"`
	Reviews  TableShape `json:"reviews"`
}

// TableShape captures row and column counts for one dataset.
type TableShape struct {
	Rows    int `json:"rows"`
	Columns int `json:"columns"`
}

// DuplicateCounts tallies exact duplicate rows per dataset plus repeated
// listing identifiers.
type DuplicateCounts struct {
	ListingsRows        int `json:"listings_rows"`
	CalendarRows        int `json:"calendar_rows"`
	ReviewsRows         int `json:"reviews_rows"`
	DuplicateListingIDs int `json:"duplicate_listing_ids"`
}

// ReferentialSummary counts calendar/review rows whose listing_id references
// no known listing. SampleIDs holds the first distinct violating ids.
type ReferentialSummary struct {
	Total     int     `json:"total"`
	Calendar  int     `json:"calendar"`
	Reviews   int     `json:"reviews"`
	SampleIDs []int64 `json:"sample_ids,omitempty"`
}

// DateRange is the min/max of a date column, formatted as 2006-01-02.
type DateRange struct {
	Min string `json:"min"`
	Max string `json:"max"`
}

// PriceSummary describes the listings price distribution after currency
// normalization. Missing counts cells that were absent or unparsable.
type PriceSummary struct {
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Min     float64 `json:"min"`
	Mean    float64 `json:"mean"`
	Median  float64 `json:"median"`
	P25     float64 `json:"p25"`
	P75     float64 `json:"p75"`
	Max     float64 `json:"max"`
}

// AvailabilityCounts tallies the calendar availability flag.
type AvailabilityCounts struct {
	Available   int `json:"available"`
	Unavailable int `json:"unavailable"`
	Unknown     int `json:"unknown"`
}

// ReviewMismatchCounts compares each listing's reported review count with
// the observed count in the reviews dataset.
type ReviewMismatchCounts struct {
	Checked    int `json:"checked"`
	Mismatched int `json:"mismatched"`
}

// DeepDiveResult is the structured output of the deep-dive audit.
type DeepDiveResult struct {
	Metrics DeepDiveMetrics           `json:"metrics"`
	Tables  map[string]*dataset.Table `json:"-"`
}

// DeepDiveMetrics is the fixed metric schema for the deep-dive audit.
type DeepDiveMetrics struct {
	Occupancy     OccupancySummary     `json:"occupancy"`
	BookingGaps   BookingGapSummary    `json:"booking_gaps"`
	ReviewVolume  ReviewVolumeSummary  `json:"review_volume"`
	Ratings       RatingSummary        `json:"ratings"`
	Neighborhoods NeighborhoodOverview `json:"neighborhoods"`
}

// OccupancySummary reports booked-share statistics from the calendar.
type OccupancySummary struct {
	OverallRate  float64 `json:"overall_rate"`
	ListingCount int     `json:"listing_count"`
	MeanRate     float64 `json:"mean_rate"`
	MinRate      float64 `json:"min_rate"`
	MaxRate      float64 `json:"max_rate"`
}

// BookingGapSummary describes runs of consecutive available days.
type BookingGapSummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    int     `json:"max"`
}

// ReviewVolumeSummary aggregates review counts per listing plus the
// reviews_per_month column when the listings dataset carries it.
type ReviewVolumeSummary struct {
	ListingsWithReviews int                     `json:"listings_with_reviews"`
	TotalReviews        int                     `json:"total_reviews"`
	MeanPerListing      float64                 `json:"mean_per_listing"`
	MaxPerListing       int                     `json:"max_per_listing"`
	ReviewsPerMonth     *ReviewsPerMonthSummary `json:"reviews_per_month,omitempty"`
}

// ReviewsPerMonthSummary summarizes the optional reviews_per_month column.
type ReviewsPerMonthSummary struct {
	Min  float64 `json:"min"`
	Mean float64 `json:"mean"`
	Max  float64 `json:"max"`
}

// RatingSummary summarizes review_scores_rating across listings.
type RatingSummary struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Max    float64 `json:"max"`
}

// NeighborhoodOverview counts distinct neighbourhoods and lists the largest.
type NeighborhoodOverview struct {
	Count int                   `json:"count"`
	Top   []NeighborhoodSummary `json:"top,omitempty"`
}

// NeighborhoodSummary aggregates listings grouped by neighbourhood.
type NeighborhoodSummary struct {
	Name          string  `json:"name"`
	Listings      int     `json:"listings"`
	PriceMean     float64 `json:"price_mean"`
	PriceMedian   float64 `json:"price_median"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// HealthTableKeys returns the stable table keys the health audit emits.
func HealthTableKeys() []string {
	return []string{"missing_columns", "referential_violations", "review_mismatch"}
}

// DeepDiveTableKeys returns the stable table keys the deep-dive audit emits.
func DeepDiveTableKeys() []string {
	return []string{"listing_occupancy", "neighborhood_summary"}
}

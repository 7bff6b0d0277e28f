package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"stayscope/internal/config"
)

// Canonical CSV fixtures: two priced listings (mean 75.0), one calendar row
// referencing an unknown listing, and three reviews with comments.
const (
	ListingsCSV = `id,price,number_of_reviews,neighbourhood,review_scores_rating,reviews_per_month
1,$100.00,2,Mission,95,1.5
2,$50,1,Richmond,80,0.5
`
	CalendarCSV = `listing_id,date,available
1,2025-01-01,t
1,2025-01-02,f
99,2025-01-01,t
`
	ReviewsCSV = `listing_id,date,comments
1,2025-01-05,Great clean place
1,2025-01-10,dirty and noisy
2,2025-01-07,It was fine
`
)

// WriteDataset writes CSV content to the given path, creating parents.
func WriteDataset(t testing.TB, path, content string) {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// SeedDatasets writes the canonical fixtures to the config's dataset paths.
func SeedDatasets(t testing.TB, cfg *config.Config) {
	t.Helper()

	WriteDataset(t, cfg.Datasets.ListingsCSV, ListingsCSV)
	WriteDataset(t, cfg.Datasets.CalendarCSV, CalendarCSV)
	WriteDataset(t, cfg.Datasets.ReviewsCSV, ReviewsCSV)
}

package preflight

import (
	"context"

	"stayscope/internal/config"
	"stayscope/internal/dataset"
)

// Result is the outcome of one environment check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	results = append(results, CheckDirectoryAccess("Data directory", cfg.Paths.DataDir))
	if cfg.Paths.ArtifactsDir != "" && cfg.Paths.ArtifactsDir != cfg.Paths.DataDir {
		results = append(results, CheckDirectoryAccess("Artifacts directory", cfg.Paths.ArtifactsDir))
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	results = append(results,
		CheckDataset("Listings dataset", cfg.Datasets.ListingsCSV, dataset.ListingsSpec()),
		CheckDataset("Calendar dataset", cfg.Datasets.CalendarCSV, dataset.CalendarSpec()),
		CheckDataset("Reviews dataset", cfg.Datasets.ReviewsCSV, dataset.ReviewsSpec()),
	)

	results = append(results, CheckRegistry(ctx, cfg))

	return results
}

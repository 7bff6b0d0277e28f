package testsupport

import (
	"path/filepath"
	"testing"

	"stayscope/internal/config"
)

// ConfigOption mutates the generated test config before it is returned.
type ConfigOption func(*config.Config)

// NewConfig returns a config rooted in a fresh t.TempDir, with distinct
// data, artifacts, and logs directories plus dataset paths under it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.ArtifactsDir = filepath.Join(base, "artifacts")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Datasets.ListingsCSV = filepath.Join(base, "datasets", "listings.csv")
	cfg.Datasets.CalendarCSV = filepath.Join(base, "datasets", "calendar.csv")
	cfg.Datasets.ReviewsCSV = filepath.Join(base, "datasets", "reviews.csv")

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithAPIBind overrides the HTTP bind address.
func WithAPIBind(addr string) ConfigOption {
	return func(cfg *config.Config) { cfg.Paths.APIBind = addr }
}

// WithModels overrides the model tunables.
func WithModels(clusters, horizon, window int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Models.Clusters = clusters
		cfg.Models.Horizon = horizon
		cfg.Models.Window = window
	}
}

// BaseDir returns the temp root behind a NewConfig-generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

package testsupport

import (
	"testing"

	"stayscope/internal/artifacts"
	"stayscope/internal/config"
	"stayscope/internal/runs"
)

// MustOpenStore opens a runs.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *runs.Store {
	t.Helper()

	store, err := runs.Open(cfg)
	if err != nil {
		t.Fatalf("runs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewArtifactStore returns an artifact store rooted at the test config's
// artifacts directory.
func NewArtifactStore(t testing.TB, cfg *config.Config) *artifacts.Store {
	t.Helper()

	return artifacts.NewStoreFromConfig(cfg)
}

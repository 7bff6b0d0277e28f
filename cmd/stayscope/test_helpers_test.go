package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stayscope/internal/testsupport"
)

// cliFixture holds the paths for a self-contained CLI test run: a config
// file, data and log directories, and seeded dataset CSVs under one temp
// root.
type cliFixture struct {
	baseDir    string
	configPath string
	dataDir    string
	logDir     string
	listings   string
	calendar   string
	reviews    string
}

// newCLIFixture builds a temp directory tree with the canonical dataset
// fixtures and a config file pointing at them.
func newCLIFixture(t *testing.T) *cliFixture {
	t.Helper()

	base := t.TempDir()
	env := &cliFixture{
		baseDir:    base,
		configPath: filepath.Join(base, "config.toml"),
		dataDir:    filepath.Join(base, "data"),
		logDir:     filepath.Join(base, "logs"),
		listings:   filepath.Join(base, "datasets", "listings.csv"),
		calendar:   filepath.Join(base, "datasets", "calendar.csv"),
		reviews:    filepath.Join(base, "datasets", "reviews.csv"),
	}

	for _, dir := range []string{env.dataDir, env.logDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("failed to create %s: %v", dir, err)
		}
	}

	testsupport.WriteDataset(t, env.listings, testsupport.ListingsCSV)
	testsupport.WriteDataset(t, env.calendar, testsupport.CalendarCSV)
	testsupport.WriteDataset(t, env.reviews, testsupport.ReviewsCSV)
	writeTestConfig(t, env)

	return env
}

func writeTestConfig(t *testing.T, env *cliFixture) {
	t.Helper()

	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
api_bind = "127.0.0.1:0"

[datasets]
listings_csv = %q
calendar_csv = %q
reviews_csv = %q

[logging]
format = "json"
level = "info"
`, env.dataDir, env.logDir, env.listings, env.calendar, env.reviews)

	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

// runCLI executes the root command with the given args against the config
// file, returning captured stdout, stderr, and the command error.
func runCLI(t *testing.T, configPath string, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", configPath}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustContain(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("output %q is missing %q", output, substr)
	}
}

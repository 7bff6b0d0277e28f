package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample.toml
var sampleTOML string

// Paths locates the writable directories and the API bind address.
type Paths struct {
	// DataDir holds the run registry database. The artifact tree lives
	// under ArtifactsDir, which defaults to DataDir when unset.
	DataDir      string `toml:"data_dir"`
	ArtifactsDir string `toml:"artifacts_dir"`
	LogDir       string `toml:"log_dir"`
	APIBind      string `toml:"api_bind"`
}

// Datasets contains the CSV source file locations.
type Datasets struct {
	ListingsCSV string `toml:"listings_csv"`
	CalendarCSV string `toml:"calendar_csv"`
	ReviewsCSV  string `toml:"reviews_csv"`
}

// Models contains tunables passed to the training collaborators.
type Models struct {
	Clusters int `toml:"clusters"`
	Horizon  int `toml:"horizon"`
	Window   int `toml:"window"`
}

// Logging selects the log format and verbosity.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config carries every tunable for stayscope, grouped by subsystem:
// Paths (directories, API bind), Datasets (CSV locations), Models
// (collaborator tunables), and Logging (format, level).
type Config struct {
	Paths    Paths    `toml:"paths"`
	Datasets Datasets `toml:"datasets"`
	Models   Models   `toml:"models"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns where stayscope looks for its config file when
// no --config flag is given.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/stayscope/config.toml")
}

// Load reads the configuration, falling back to defaults when no file
// exists. The returned path is where the file was found (or would be
// written), and exists reports whether it was actually read.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		raw, err := os.ReadFile(resolved)
		if err != nil {
			return nil, "", false, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(raw, &cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse %s: %w", resolved, err)
		}
	}

	if err := cfg.canonicalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// resolveConfigPath picks the file to read: an explicit path wins, then
// ~/.config/stayscope/config.toml, then ./stayscope.toml.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		switch _, statErr := os.Stat(expanded); {
		case statErr == nil:
			return expanded, true, nil
		case errors.Is(statErr, fs.ErrNotExist):
			return expanded, false, nil
		default:
			return "", false, fmt.Errorf("stat config: %w", statErr)
		}
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("stayscope.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{defaultPath, projectPath} {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, true, nil
		}
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the registry, artifact store,
// and logger write into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.ArtifactsDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir %q: %w", dir, err)
		}
	}
	return nil
}

// expandPath resolves a leading tilde against the home directory and makes
// the result absolute. Empty input stays empty.
func expandPath(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if rest, ok := strings.CutPrefix(value, "~"); ok && (rest == "" || rest[0] == '/' || rest[0] == '\\') {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("home directory: %w", err)
		}
		value = filepath.Join(home, strings.TrimLeft(rest, `/\`))
	}
	absolute, err := filepath.Abs(filepath.Clean(value))
	if err != nil {
		return "", fmt.Errorf("absolute path for %q: %w", value, err)
	}
	return absolute, nil
}

// ExpandPath applies the same tilde and absolute-path rules Load uses, for
// commands that accept path arguments.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the embedded sample config to path, creating parent
// directories as needed.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create parent directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleTOML), 0o644); err != nil {
		return fmt.Errorf("write sample config %s: %w", path, err)
	}
	return nil
}

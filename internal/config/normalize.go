package config

import (
	"fmt"
	"strings"
)

func (c *Config) canonicalize() error {
	if err := c.canonicalizePaths(); err != nil {
		return err
	}
	if err := c.canonicalizeDatasets(); err != nil {
		return err
	}
	c.canonicalizeLogging()
	return nil
}

func (c *Config) canonicalizePaths() error {
	var err error
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	// The artifact tree shares the data directory unless pointed elsewhere.
	if strings.TrimSpace(c.Paths.ArtifactsDir) == "" {
		c.Paths.ArtifactsDir = c.Paths.DataDir
	}
	if c.Paths.ArtifactsDir, err = expandPath(c.Paths.ArtifactsDir); err != nil {
		return fmt.Errorf("paths.artifacts_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if bind := strings.TrimSpace(c.Paths.APIBind); bind != "" {
		c.Paths.APIBind = bind
	} else {
		c.Paths.APIBind = defaultAPIBind
	}
	return nil
}

func (c *Config) canonicalizeDatasets() error {
	var err error
	if c.Datasets.ListingsCSV, err = expandPath(c.Datasets.ListingsCSV); err != nil {
		return fmt.Errorf("datasets.listings_csv: %w", err)
	}
	if c.Datasets.CalendarCSV, err = expandPath(c.Datasets.CalendarCSV); err != nil {
		return fmt.Errorf("datasets.calendar_csv: %w", err)
	}
	if c.Datasets.ReviewsCSV, err = expandPath(c.Datasets.ReviewsCSV); err != nil {
		return fmt.Errorf("datasets.reviews_csv: %w", err)
	}
	return nil
}

// Unknown logging formats and empty levels fall back to the defaults.
func (c *Config) canonicalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if format != "json" {
		format = "console"
	}
	c.Logging.Format = format

	level := strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if level == "" {
		level = defaultLogLevel
	}
	c.Logging.Level = level
}

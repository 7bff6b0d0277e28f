package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDatasets(); err != nil {
		return err
	}
	if err := c.validateModels(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	if strings.TrimSpace(c.Paths.APIBind) == "" {
		return errors.New("paths.api_bind must be set")
	}
	return nil
}

func (c *Config) validateDatasets() error {
	for key, path := range map[string]string{
		"datasets.listings_csv": c.Datasets.ListingsCSV,
		"datasets.calendar_csv": c.Datasets.CalendarCSV,
		"datasets.reviews_csv":  c.Datasets.ReviewsCSV,
	} {
		if strings.TrimSpace(path) == "" {
			return fmt.Errorf("%s must be set", key)
		}
	}
	return nil
}

func (c *Config) validateModels() error {
	return ensurePositiveMap(map[string]int{
		"models.clusters": c.Models.Clusters,
		"models.horizon":  c.Models.Horizon,
		"models.window":   c.Models.Window,
	})
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}

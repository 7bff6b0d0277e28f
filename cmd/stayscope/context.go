package main

import (
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"stayscope/internal/artifacts"
	"stayscope/internal/config"
	"stayscope/internal/logging"
	"stayscope/internal/pipeline"
	"stayscope/internal/runs"
)

type cliContext struct {
	pathFlag *string

	loadOnce  sync.Once
	cfg       *config.Config
	cfgPath   string
	cfgExists bool
	loadErr   error
}

func newCLIContext(pathFlag *string) *cliContext {
	return &cliContext{pathFlag: pathFlag}
}

// loadConfig loads and validates configuration once. It does not create
// any directories; stores create what they need when they open, so read-only
// commands like status see the filesystem as it is.
func (c *cliContext) loadConfig() (*config.Config, error) {
	c.loadOnce.Do(func() {
		var path string
		if c.pathFlag != nil {
			path = strings.TrimSpace(*c.pathFlag)
		}
		cfg, resolvedPath, exists, err := config.Load(path)
		if err != nil {
			c.loadErr = err
			return
		}
		c.cfg = cfg
		c.cfgPath = resolvedPath
		c.cfgExists = exists
	})
	return c.cfg, c.loadErr
}

// withStore opens the run registry and artifact store for direct access and
// closes the registry when fn returns.
func (c *cliContext) withStore(fn func(*runs.Store, *artifacts.Store) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := runs.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store, artifacts.NewStoreFromConfig(cfg))
}

// withRunner builds a pipeline runner on top of a fresh store handle.
func (c *cliContext) withRunner(fn func(*pipeline.Runner) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	store, err := runs.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	runner, err := pipeline.New(cfg, store, artifacts.NewStoreFromConfig(cfg), fileLogger(cfg))
	if err != nil {
		return err
	}
	return fn(runner)
}

// fileLogger writes structured logs to the configured log directory only,
// keeping command stdout free for rendered output.
func fileLogger(cfg *config.Config) *slog.Logger {
	if cfg == nil || cfg.Paths.LogDir == "" {
		return logging.NewNop()
	}
	logPath := filepath.Join(cfg.Paths.LogDir, "stayscope.log")
	logger, err := logging.New(logging.Options{
		Level:            cfg.Logging.Level,
		Format:           "json",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func runsWithoutConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["noConfig"] == "true" {
			return true
		}
	}
	return false
}

package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"stayscope/internal/config"
)

func newConfigCommand(ctx *cliContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or scaffold stayscope configuration",
	}

	configCmd.AddCommand(newConfigShowCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

func newConfigShowCommand(ctx *cliContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}

			if jsonOut {
				// Mirrors the TOML section and key names.
				return writeJSON(cmd, map[string]any{
					"path":   ctx.cfgPath,
					"exists": ctx.cfgExists,
					"config": map[string]any{
						"paths": map[string]string{
							"data_dir":      cfg.Paths.DataDir,
							"artifacts_dir": cfg.Paths.ArtifactsDir,
							"log_dir":       cfg.Paths.LogDir,
							"api_bind":      cfg.Paths.APIBind,
						},
						"datasets": map[string]string{
							"listings_csv": cfg.Datasets.ListingsCSV,
							"calendar_csv": cfg.Datasets.CalendarCSV,
							"reviews_csv":  cfg.Datasets.ReviewsCSV,
						},
						"models": map[string]int{
							"clusters": cfg.Models.Clusters,
							"horizon":  cfg.Models.Horizon,
							"window":   cfg.Models.Window,
						},
						"logging": map[string]string{
							"format": cfg.Logging.Format,
							"level":  cfg.Logging.Level,
						},
					},
				})
			}

			out := cmd.OutOrStdout()
			if ctx.cfgExists {
				fmt.Fprintf(out, "Config file: %s\n", ctx.cfgPath)
			} else {
				fmt.Fprintf(out, "Config file: %s (missing, defaults in effect)\n", ctx.cfgPath)
			}

			rows := [][]string{
				{"Data directory", cfg.Paths.DataDir},
				{"Artifacts directory", cfg.Paths.ArtifactsDir},
				{"Log directory", cfg.Paths.LogDir},
				{"API bind", cfg.Paths.APIBind},
				{"Listings CSV", cfg.Datasets.ListingsCSV},
				{"Calendar CSV", cfg.Datasets.CalendarCSV},
				{"Reviews CSV", cfg.Datasets.ReviewsCSV},
				{"Clusters", strconv.Itoa(cfg.Models.Clusters)},
				{"Horizon", strconv.Itoa(cfg.Models.Horizon)},
				{"Window", strconv.Itoa(cfg.Models.Window)},
				{"Log format", cfg.Logging.Format},
				{"Log level", cfg.Logging.Level},
			}
			fmt.Fprintln(out, formatTable([]string{"Setting", "Value"}, rows, []cellAlign{leftAlign, leftAlign}))
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a starter config file",
		Annotations: map[string]string{"noConfig": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target := strings.TrimSpace(targetPath)
			var err error
			if target == "" {
				target, err = config.DefaultConfigPath()
			} else {
				target, err = config.ExpandPath(target)
			}
			if err != nil {
				return fmt.Errorf("resolve config destination: %w", err)
			}

			if !overwrite {
				switch _, statErr := os.Stat(target); {
				case statErr == nil:
					return fmt.Errorf("%s already exists; pass --overwrite to replace it", target)
				case !os.IsNotExist(statErr):
					return fmt.Errorf("stat %s: %w", target, statErr)
				}
			}

			if err := config.CreateSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sample config written to %s\n", target)
			fmt.Fprintln(out, "Edit the file to point the dataset paths at your CSV exports.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Where to write the config file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace the file if it already exists")
	return cmd
}

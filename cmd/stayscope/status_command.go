package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stayscope/internal/preflight"
)

func newStatusCommand(ctx *cliContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check directories, datasets, and the run registry",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)

			failed := 0
			for _, result := range results {
				if !result.Passed {
					failed++
				}
			}

			if jsonOut {
				type jsonCheck struct {
					Name   string `json:"name"`
					Passed bool   `json:"passed"`
					Detail string `json:"detail,omitempty"`
				}
				checks := make([]jsonCheck, 0, len(results))
				for _, result := range results {
					checks = append(checks, jsonCheck{Name: result.Name, Passed: result.Passed, Detail: result.Detail})
				}
				if err := writeJSON(cmd, map[string]any{"checks": checks}); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				colorize := useColor(out)
				for _, line := range sectionHeader("Preflight", colorize) {
					fmt.Fprintln(out, line)
				}
				for _, result := range results {
					kind := toneOK
					if !result.Passed {
						kind = toneError
					}
					fmt.Fprintln(out, statusLine(result.Name, kind, result.Detail, colorize))
				}
				if failed == 0 {
					fmt.Fprintln(out, statusLine("Overall", toneOK, "all checks passed", colorize))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d checks failed", failed, len(results))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of status lines")
	return cmd
}

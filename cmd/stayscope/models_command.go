package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stayscope/internal/api"
	"stayscope/internal/artifacts"
	"stayscope/internal/model"
	"stayscope/internal/runs"
)

func newModelsCommand(ctx *cliContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List registered model kinds",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *runs.Store, _ *artifacts.Store) error {
				specs := model.Registry()
				entries := make([]api.Model, 0, len(specs))
				for _, spec := range specs {
					entry := api.Model{ID: spec.Kind, DisplayName: spec.DisplayName, Target: spec.Target}
					if kind, ok := runs.ParseKind(spec.Kind); ok {
						latest, err := store.LatestRun(cmd.Context(), kind)
						if err != nil {
							return err
						}
						if latest != nil {
							run := api.FromRun(latest)
							entry.LatestRun = &run
						}
					}
					entries = append(entries, entry)
				}

				if jsonOut {
					return writeJSON(cmd, api.ModelListResponse{Models: entries})
				}

				rows := make([][]string, 0, len(entries))
				for _, entry := range entries {
					latestRun, latestStatus := "-", "-"
					if entry.LatestRun != nil {
						latestRun = entry.LatestRun.ID
						latestStatus = entry.LatestRun.Status
					}
					rows = append(rows, []string{entry.ID, entry.DisplayName, entry.Target, latestRun, latestStatus})
				}
				table := formatTable(
					[]string{"Model", "Display Name", "Target", "Latest Run", "Status"},
					rows,
					[]cellAlign{leftAlign, leftAlign, leftAlign, leftAlign, leftAlign},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

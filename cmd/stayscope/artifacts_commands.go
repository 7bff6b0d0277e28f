package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"stayscope/internal/api"
	"stayscope/internal/artifacts"
	"stayscope/internal/runs"
)

func newArtifactsCommand(ctx *cliContext) *cobra.Command {
	artifactsCmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Inspect persisted run artifacts",
	}

	artifactsCmd.AddCommand(newArtifactsListCommand(ctx))
	artifactsCmd.AddCommand(newArtifactsCatCommand(ctx))

	return artifactsCmd
}

func newArtifactsListCommand(ctx *cliContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list <run-id>",
		Short: "List the artifacts logged for a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *runs.Store, _ *artifacts.Store) error {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				rows, err := store.ListArtifacts(cmd.Context(), run.ID)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.ArtifactListResponse{RunID: run.ID, Artifacts: api.FromArtifacts(rows)})
				}
				if len(rows) == 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "No artifacts for run %s\n", run.ID)
					return nil
				}
				tableRows := make([][]string, 0, len(rows))
				for _, artifact := range rows {
					tableRows = append(tableRows, []string{
						artifact.Name,
						string(artifact.Kind),
						artifact.Path,
						displayTime(artifact.CreatedAt),
					})
				}
				table := formatTable(
					[]string{"Artifact", "Kind", "Path", "Created"},
					tableRows,
					[]cellAlign{leftAlign, leftAlign, leftAlign, leftAlign},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newArtifactsCatCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "cat <run-id> <name>",
		Short: "Write an artifact's contents to stdout",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *runs.Store, files *artifacts.Store) error {
				artifact, err := store.GetArtifact(cmd.Context(), args[0], args[1])
				if err != nil {
					return err
				}
				data, err := files.Read(artifact.Path)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			})
		},
	}
}

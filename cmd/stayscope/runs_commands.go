package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stayscope/internal/api"
	"stayscope/internal/artifacts"
	"stayscope/internal/runs"
)

func newRunsCommand(ctx *cliContext) *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect the run registry",
	}

	runsCmd.AddCommand(newRunsListCommand(ctx))
	runsCmd.AddCommand(newRunsLatestCommand(ctx))
	runsCmd.AddCommand(newRunsShowCommand(ctx))

	return runsCmd
}

func newRunsListCommand(ctx *cliContext) *cobra.Command {
	var kindFlag string
	var limitFlag int
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			var kind runs.Kind
			if strings.TrimSpace(kindFlag) != "" {
				parsed, ok := runs.ParseKind(kindFlag)
				if !ok {
					return fmt.Errorf("unknown kind %q", kindFlag)
				}
				kind = parsed
			}

			return ctx.withStore(func(store *runs.Store, _ *artifacts.Store) error {
				history, err := store.RunsHistory(cmd.Context(), kind, limitFlag)
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.RunListResponse{Runs: api.FromRuns(history)})
				}
				if len(history) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(history))
				for _, run := range history {
					rows = append(rows, []string{
						run.ID,
						string(run.Kind),
						string(run.Status),
						displayTime(run.StartedAt),
						displayTimePtr(run.EndedAt),
					})
				}
				table := formatTable(
					[]string{"Run ID", "Kind", "Status", "Started", "Ended"},
					rows,
					[]cellAlign{leftAlign, leftAlign, leftAlign, leftAlign, leftAlign},
				)
				fmt.Fprintln(cmd.OutOrStdout(), table)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Filter by run kind")
	cmd.Flags().IntVar(&limitFlag, "limit", 20, "Maximum runs to list (0 for all)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newRunsLatestCommand(ctx *cliContext) *cobra.Command {
	var kindFlag string
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show the most recent ended run of a kind",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, ok := runs.ParseKind(kindFlag)
			if !ok {
				return fmt.Errorf("unknown kind %q", kindFlag)
			}
			return ctx.withStore(func(store *runs.Store, _ *artifacts.Store) error {
				latest, err := store.LatestRun(cmd.Context(), kind)
				if err != nil {
					return err
				}
				if latest == nil {
					if jsonOut {
						return writeJSON(cmd, map[string]any{"run": nil})
					}
					fmt.Fprintf(cmd.OutOrStdout(), "No ended %s runs\n", kind)
					return nil
				}
				if jsonOut {
					return writeJSON(cmd, api.RunResponse{Run: api.FromRun(latest)})
				}
				printRunDetail(cmd, latest, nil)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Run kind to query")
	_ = cmd.MarkFlagRequired("kind")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newRunsShowCommand(ctx *cliContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run with its artifacts",
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
					return writeJSON(cmd, map[string]any{
						"run":       api.FromRun(run),
						"artifacts": api.FromArtifacts(rows),
					})
				}
				printRunDetail(cmd, run, rows)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of tables")
	return cmd
}

func printRunDetail(cmd *cobra.Command, run *runs.Run, artifactRows []*runs.Artifact) {
	out := cmd.OutOrStdout()

	detail := [][]string{
		{"Run ID", run.ID},
		{"Kind", string(run.Kind)},
		{"Status", string(run.Status)},
		{"Started", displayTime(run.StartedAt)},
		{"Ended", displayTimePtr(run.EndedAt)},
	}
	fmt.Fprintln(out, formatTable([]string{"Field", "Value"}, detail, []cellAlign{leftAlign, leftAlign}))

	fmt.Fprintln(out, "Metrics:")
	fmt.Fprintln(out, indentJSON(run.MetricsJSON))

	if artifactRows == nil {
		return
	}
	if len(artifactRows) == 0 {
		fmt.Fprintln(out, "No artifacts")
		return
	}
	rows := make([][]string, 0, len(artifactRows))
	for _, artifact := range artifactRows {
		rows = append(rows, []string{artifact.Name, string(artifact.Kind), artifact.Path})
	}
	fmt.Fprintln(out, formatTable([]string{"Artifact", "Kind", "Path"}, rows, []cellAlign{leftAlign, leftAlign, leftAlign}))
}

// indentJSON pretty-prints a stored metrics document, falling back to the
// raw text when it is empty or not valid JSON.
func indentJSON(value string) string {
	if strings.TrimSpace(value) == "" {
		return "  (none)"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(value), "  ", "  "); err != nil {
		return "  " + value
	}
	return "  " + buf.String()
}

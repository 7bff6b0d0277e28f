package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"stayscope/internal/api"
	"stayscope/internal/model"
	"stayscope/internal/pipeline"
	"stayscope/internal/runs"
)

func newTrainCommand(ctx *cliContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "train <model>",
		Short: "Train a registered model and persist its artifacts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(runner *pipeline.Runner) error {
				run, result, err := runner.Train(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.RunResponse{Run: api.FromRun(run)})
				}
				printTrainSummary(cmd.OutOrStdout(), run, result)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of tables")
	return cmd
}

func printTrainSummary(out io.Writer, run *runs.Run, result *model.Result) {
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names))
	for _, name := range names {
		rows = append(rows, []string{name, formatFloat(result.Metrics[name])})
	}
	fmt.Fprintf(out, "Training run %s (%s, %s)\n", run.ID, run.Kind, run.Status)
	fmt.Fprintln(out, formatTable([]string{"Metric", "Value"}, rows, []cellAlign{leftAlign, rightAlign}))
}

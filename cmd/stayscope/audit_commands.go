package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"stayscope/internal/api"
	"stayscope/internal/audit"
	"stayscope/internal/pipeline"
	"stayscope/internal/runs"
)

func newAuditCommand(ctx *cliContext) *cobra.Command {
	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Run dataset audits",
	}

	auditCmd.AddCommand(newAuditHealthCommand(ctx))
	auditCmd.AddCommand(newAuditDeepDiveCommand(ctx))

	return auditCmd
}

func newAuditHealthCommand(ctx *cliContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Audit dataset health and persist the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(runner *pipeline.Runner) error {
				run, result, err := runner.RunHealth(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.RunResponse{Run: api.FromRun(run)})
				}
				printHealthSummary(cmd.OutOrStdout(), run, result)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of tables")
	return cmd
}

func newAuditDeepDiveCommand(ctx *cliContext) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "deep-dive",
		Short: "Audit occupancy, reviews, and neighbourhoods in depth",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRunner(func(runner *pipeline.Runner) error {
				run, result, err := runner.RunDeepDive(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOut {
					return writeJSON(cmd, api.RunResponse{Run: api.FromRun(run)})
				}
				printDeepDiveSummary(cmd.OutOrStdout(), run, result)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Emit JSON instead of tables")
	return cmd
}

func printHealthSummary(out io.Writer, run *runs.Run, result *audit.HealthResult) {
	metrics := result.Metrics
	rows := [][]string{
		{"Listings rows", strconv.Itoa(metrics.RowsCols.Listings.Rows)},
		{"Calendar rows", strconv.Itoa(metrics.RowsCols.Calendar.Rows)},
		{"Reviews rows", strconv.Itoa(metrics.RowsCols.Reviews.Rows)},
		{"Duplicate listing ids", strconv.Itoa(metrics.Duplicates.DuplicateListingIDs)},
		{"Referential violations", strconv.Itoa(metrics.Referential.Total)},
		{"Price count", strconv.Itoa(metrics.PriceSummary.Count)},
		{"Price mean", formatFloat(metrics.PriceSummary.Mean)},
		{"Price median", formatFloat(metrics.PriceSummary.Median)},
		{"Price min", formatFloat(metrics.PriceSummary.Min)},
		{"Price max", formatFloat(metrics.PriceSummary.Max)},
		{"Days available", strconv.Itoa(metrics.AvailabilityCounts.Available)},
		{"Days unavailable", strconv.Itoa(metrics.AvailabilityCounts.Unavailable)},
		{"Review mismatches", strconv.Itoa(metrics.ReviewMismatch.Mismatched)},
	}
	fmt.Fprintf(out, "Health audit run %s (%s)\n", run.ID, run.Status)
	fmt.Fprintln(out, formatTable([]string{"Metric", "Value"}, rows, []cellAlign{leftAlign, rightAlign}))
}

func printDeepDiveSummary(out io.Writer, run *runs.Run, result *audit.DeepDiveResult) {
	metrics := result.Metrics
	rows := [][]string{
		{"Overall occupancy", formatFloat(metrics.Occupancy.OverallRate)},
		{"Listings tracked", strconv.Itoa(metrics.Occupancy.ListingCount)},
		{"Mean occupancy", formatFloat(metrics.Occupancy.MeanRate)},
		{"Booking gaps", strconv.Itoa(metrics.BookingGaps.Count)},
		{"Gap mean days", formatFloat(metrics.BookingGaps.Mean)},
		{"Gap max days", strconv.Itoa(metrics.BookingGaps.Max)},
		{"Listings with reviews", strconv.Itoa(metrics.ReviewVolume.ListingsWithReviews)},
		{"Total reviews", strconv.Itoa(metrics.ReviewVolume.TotalReviews)},
		{"Rating mean", formatFloat(metrics.Ratings.Mean)},
		{"Rating median", formatFloat(metrics.Ratings.Median)},
		{"Neighbourhoods", strconv.Itoa(metrics.Neighborhoods.Count)},
	}
	fmt.Fprintf(out, "Deep-dive audit run %s (%s)\n", run.ID, run.Status)
	fmt.Fprintln(out, formatTable([]string{"Metric", "Value"}, rows, []cellAlign{leftAlign, rightAlign}))
}

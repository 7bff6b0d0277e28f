package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var pathFlag string

	ctx := newCLIContext(&pathFlag)

	rootCmd := &cobra.Command{
		Use:           "stayscope",
		Short:         "Audit a short-term-rental dataset and track runs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if runsWithoutConfig(cmd) {
				return nil
			}
			_, err := ctx.loadConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&pathFlag, "config", "c", "", "Path to the config file")

	rootCmd.AddCommand(newAuditCommand(ctx))
	rootCmd.AddCommand(newTrainCommand(ctx))
	rootCmd.AddCommand(newModelsCommand(ctx))
	rootCmd.AddCommand(newRunsCommand(ctx))
	rootCmd.AddCommand(newArtifactsCommand(ctx))
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}

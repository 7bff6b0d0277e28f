package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"stayscope/internal/api"
	"stayscope/internal/artifacts"
	"stayscope/internal/logging"
	"stayscope/internal/pipeline"
	"stayscope/internal/runs"
)

func newServeCommand(ctx *cliContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}
			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := runs.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			files := artifacts.NewStoreFromConfig(cfg)
			runner, err := pipeline.New(cfg, store, files, logger)
			if err != nil {
				return err
			}
			server, err := api.New(cfg, store, files, runner, logger)
			if err != nil {
				return err
			}
			if err := server.Start(signalCtx); err != nil {
				return err
			}

			<-signalCtx.Done()
			server.Stop()
			logger.Info("stayscope shutting down")
			return nil
		},
	}
}

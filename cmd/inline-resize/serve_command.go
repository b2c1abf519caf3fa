package main

import (
	"github.com/spf13/cobra"

	"github.com/ironsheep/inline-resize/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve builds and cache diagnostics over MCP on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// stdout carries the protocol; logs go to stderr.
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store := ctx.newStore()
			srv := server.New(store, ctx.backend(), server.Options{
				Pipeline: ctx.pipelineOptions(logger),
				Exclude:  ctx.config.Resize.Exclude,
				Version:  Version,
				Logger:   logger,
			})
			logger.Debug("mcp server starting",
				"version", Version,
				"build_time", BuildTime,
				"commit", GitCommit,
				"config", ctx.configPath)
			return srv.Run(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
}

package main

import (
	"time"

	"github.com/spf13/cobra"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var srcFlag, destFlag string
	var interval time.Duration
	var runs int

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild on an interval, reusing cached scans and variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			target, err := ctx.target(srcFlag, destFlag)
			if err != nil {
				return err
			}
			if interval <= 0 {
				interval = time.Duration(cfg.Watch.IntervalSeconds) * time.Second
			}

			ticker := time.NewTicker(interval)
			defer ticker.Stop()

			return buildLoop(cmd.Context(), cmd, ctx, target, ticker.C, runs)
		},
	}

	addPathFlags(cmd, &srcFlag, &destFlag)
	cmd.Flags().DurationVar(&interval, "interval", 0, "Poll interval (overrides watch.interval_seconds)")
	cmd.Flags().IntVar(&runs, "runs", 0, "Stop after this many builds (0 runs until interrupted)")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/ironsheep/inline-resize/internal/cache"
	"github.com/ironsheep/inline-resize/internal/source"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var srcFlag, destFlag string
	var showCache bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Rewrite references and write resized variants once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := runBuild(cmd, ctx, srcFlag, destFlag, 1)
			if err != nil {
				return err
			}
			if showCache {
				fmt.Fprintln(cmd.OutOrStdout(), renderCacheTable(store))
			}
			return nil
		},
	}

	addPathFlags(cmd, &srcFlag, &destFlag)
	cmd.Flags().BoolVar(&showCache, "show-cache", false, "Print the cache keys after the build")
	return cmd
}

// newCacheCommand replays consecutive builds against one store, so the
// table shows which entries each run reused and which the sweep evicted.
// The MCP cache_keys tool is the view onto a long-lived store.
func newCacheCommand(ctx *commandContext) *cobra.Command {
	var srcFlag, destFlag string
	var runs int

	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Run consecutive builds on one cache and print its keys with their generations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if runs < 1 {
				return fmt.Errorf("--runs must be at least 1, got %d", runs)
			}
			store, err := runBuild(cmd, ctx, srcFlag, destFlag, runs)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderCacheTable(store))
			fmt.Fprintf(out, "Generation %d, max age %d, %d entries\n", store.Generation(), store.MaxAge(), store.Len())
			return nil
		},
	}

	addPathFlags(cmd, &srcFlag, &destFlag)
	cmd.Flags().IntVar(&runs, "runs", 2, "Number of consecutive builds to run against the cache")
	return cmd
}

func addPathFlags(cmd *cobra.Command, src, dest *string) {
	cmd.Flags().StringVar(src, "src", "", "Project root (overrides paths.src)")
	cmd.Flags().StringVar(dest, "dest", "", "Output directory (overrides paths.dest)")
}

// runBuild performs runs consecutive builds against a fresh store and
// returns it. It stops at the first failed build.
func runBuild(cmd *cobra.Command, ctx *commandContext, src, dest string, runs int) (*cache.Store, error) {
	logger, err := ctx.logger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	target, err := ctx.target(src, dest)
	if err != nil {
		return nil, err
	}

	store := ctx.newStore()
	p := ctx.newPipeline(store, logger)
	for i := 0; i < runs; i++ {
		report, err := source.Build(cmd.Context(), p, target)
		printReport(cmd.OutOrStdout(), target, report)
		if err != nil {
			return nil, err
		}
	}
	return store, nil
}

func printReport(w io.Writer, target source.Target, report source.Report) {
	s := report.Stats
	fmt.Fprintf(w, "Wrote %d files to %s (text %d, cached %d, images %d)\n",
		len(report.Written), target.Dest, s.Text, s.TextCached, s.Images)
}

// buildLoop runs builds until ctx is done or runs builds have completed
// (runs <= 0 means forever). A failed build is logged and the loop goes on.
func buildLoop(ctx context.Context, cmd *cobra.Command, cc *commandContext, target source.Target, tick <-chan time.Time, runs int) error {
	logger, err := cc.logger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	store := cc.newStore()
	p := cc.newPipeline(store, logger)

	for n := 0; runs <= 0 || n < runs; n++ {
		if n > 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-tick:
			}
		}
		report, err := source.Build(ctx, p, target)
		if err != nil {
			logger.Error("build failed", slog.String("error", err.Error()))
			continue
		}
		printReport(cmd.OutOrStdout(), target, report)
		logger.Info("build complete",
			slog.String("run_id", report.Stats.RunID),
			slog.Int("cache_entries", store.Len()),
			slog.Int("evicted", len(report.Stats.Evicted)))
	}
	return nil
}

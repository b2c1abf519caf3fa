package main

import (
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/ironsheep/inline-resize/internal/cache"
	"github.com/ironsheep/inline-resize/internal/config"
	"github.com/ironsheep/inline-resize/internal/imaging"
	"github.com/ironsheep/inline-resize/internal/logging"
	"github.com/ironsheep/inline-resize/internal/pipeline"
	"github.com/ironsheep/inline-resize/internal/source"
)

type commandContext struct {
	configFlag *string
	quietFlag  *bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag *string, quietFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		quietFlag:  quietFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.quietFlag != nil && *c.quietFlag {
			cfg.Logging.Quiet = true
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) logger(w io.Writer) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Options{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Quiet:  cfg.Logging.Quiet,
		Output: w,
	})
}

func (c *commandContext) newStore() *cache.Store {
	return cache.New(cache.WithMaxAge(c.config.Resize.MaxCacheAge))
}

func (c *commandContext) backend() imaging.Backend {
	return imaging.NewBackend(c.config.Resize.UseNativeResizeBackend)
}

func (c *commandContext) pipelineOptions(logger *slog.Logger) pipeline.Options {
	return pipeline.Options{
		ReplaceIn: c.config.Resize.ReplaceIn,
		AllowZoom: !c.config.Resize.NoZoom,
		Quiet:     c.config.Logging.Quiet,
		Logger:    logger,
	}
}

func (c *commandContext) newPipeline(store *cache.Store, logger *slog.Logger) *pipeline.Pipeline {
	return pipeline.New(store, c.backend(), c.pipelineOptions(logger))
}

// target applies flag overrides on top of the configured paths.
func (c *commandContext) target(src, dest string) (source.Target, error) {
	t := source.Target{
		Src:     c.config.Paths.Src,
		Dest:    c.config.Paths.Dest,
		Exclude: c.config.Resize.Exclude,
	}
	var err error
	if strings.TrimSpace(src) != "" {
		if t.Src, err = config.ExpandPath(src); err != nil {
			return source.Target{}, err
		}
	}
	if strings.TrimSpace(dest) != "" {
		if t.Dest, err = config.ExpandPath(dest); err != nil {
			return source.Target{}, err
		}
	}
	return t, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

package config

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/gobwas/glob"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateResize(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if c.Watch.IntervalSeconds < 1 {
		return errors.New("watch.interval_seconds must be at least 1")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.Src == "" {
		return errors.New("paths.src must be set")
	}
	if c.Paths.Dest == "" {
		return errors.New("paths.dest must be set")
	}
	if filepath.Clean(c.Paths.Src) == filepath.Clean(c.Paths.Dest) {
		return errors.New("paths.dest must differ from paths.src")
	}
	return nil
}

func (c *Config) validateResize() error {
	if len(c.Resize.ReplaceIn) == 0 {
		return errors.New("resize.replace_in must list at least one extension")
	}
	if c.Resize.MaxCacheAge < 0 {
		return errors.New("resize.max_cache_age must not be negative")
	}
	for _, pattern := range c.Resize.Exclude {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			return fmt.Errorf("resize.exclude: invalid pattern %q: %w", pattern, err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

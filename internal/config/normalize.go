package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.Src, err = ExpandPath(c.Paths.Src); err != nil {
		return fmt.Errorf("paths.src: %w", err)
	}
	if c.Paths.Dest, err = ExpandPath(c.Paths.Dest); err != nil {
		return fmt.Errorf("paths.dest: %w", err)
	}

	exts := make([]string, 0, len(c.Resize.ReplaceIn))
	seen := make(map[string]struct{}, len(c.Resize.ReplaceIn))
	for _, ext := range c.Resize.ReplaceIn {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	c.Resize.ReplaceIn = exts

	exclude := c.Resize.Exclude[:0]
	for _, pattern := range c.Resize.Exclude {
		if pattern = strings.TrimSpace(pattern); pattern != "" {
			exclude = append(exclude, pattern)
		}
	}
	c.Resize.Exclude = exclude

	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	return nil
}

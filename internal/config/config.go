package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains the source and destination directories.
type Paths struct {
	Src  string `toml:"src"`
	Dest string `toml:"dest"`
}

// Resize contains the options recognized by the pipeline.
type Resize struct {
	ReplaceIn              []string `toml:"replace_in"`
	NoZoom                 bool     `toml:"no_zoom"`
	UseNativeResizeBackend bool     `toml:"use_native_resize_backend"`
	MaxCacheAge            int      `toml:"max_cache_age"`
	Exclude                []string `toml:"exclude"`
}

// Logging contains configuration for log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
	Quiet  bool   `toml:"quiet"`
}

// Watch contains configuration for the polling watch loop.
type Watch struct {
	IntervalSeconds int `toml:"interval_seconds"`
}

// Config is the full configuration.
type Config struct {
	Paths   Paths   `toml:"paths"`
	Resize  Resize  `toml:"resize"`
	Logging Logging `toml:"logging"`
	Watch   Watch   `toml:"watch"`
}

const (
	projectConfigName = "inline-resize.toml"
	userConfigPath    = "~/.config/inline-resize/config.toml"
)

// DefaultConfigPath returns the absolute path to the per-user config file.
func DefaultConfigPath() (string, error) {
	return ExpandPath(userConfigPath)
}

// Load locates, parses, and validates a configuration file. It returns the
// config, the resolved path, and whether that file existed. A missing file
// yields the defaults.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

// resolveConfigPath prefers an explicit path, then ./inline-resize.toml,
// then the per-user file.
func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return "", false, err
		}
		if _, err := os.Stat(expanded); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", false, fmt.Errorf("config file %s not found", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err == nil {
		if _, err := os.Stat(projectPath); err == nil {
			return projectPath, true, nil
		}
	}

	userPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	if _, err := os.Stat(userPath); err == nil {
		return userPath, true, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", false, fmt.Errorf("stat config: %w", err)
	}
	return userPath, false, nil
}

// ExpandPath expands a leading "~" and makes the path absolute.
func ExpandPath(pathValue string) (string, error) {
	p := strings.TrimSpace(pathValue)
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve path %q: %w", pathValue, err)
	}
	return abs, nil
}

// CreateSample writes the sample configuration to path, refusing to
// overwrite an existing file.
func CreateSample(path string) error {
	expanded, err := ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(expanded); err == nil {
		return fmt.Errorf("config file %s already exists", expanded)
	}
	if err := os.MkdirAll(filepath.Dir(expanded), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(expanded, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

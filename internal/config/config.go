package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Default configuration values
const (
	DefaultCacheDir = ".confload-cache"
	DefaultColor    = "auto"
	DefaultNoCache  = false
	DefaultVerbose  = false
)

// Holds the configuration options for confload
type Config struct {
	// Directory searched for <name>.config entry files
	Dir string

	// Root directory for per-name compile caches
	CacheDir string

	// Color mode for diagnostics: auto, always or never
	Color string

	// Skip the compile cache and always rebuild
	NoCache bool

	// Enable verbose output
	Verbose bool
}

func Load() (*Config, error) {
	cfg := &Config{
		Dir:      viper.GetString("dir"),
		CacheDir: viper.GetString("cache_dir"),
		Color:    viper.GetString("color"),
		NoCache:  viper.GetBool("no_cache"),
		Verbose:  viper.GetBool("verbose"),
	}

	// Apply defaults if not set
	if cfg.Dir == "" {
		cfg.Dir = "."
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = filepath.Join(cfg.Dir, DefaultCacheDir)
	}

	if cfg.Color == "" {
		cfg.Color = DefaultColor
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Color {
	case "auto", "always", "never":
	default:
		return fmt.Errorf("invalid color mode: %s", c.Color)
	}

	abs, err := filepath.Abs(c.Dir)
	if err != nil {
		return fmt.Errorf("invalid directory path: %v", err)
	}

	c.Dir = abs

	abs, err = filepath.Abs(c.CacheDir)
	if err != nil {
		return fmt.Errorf("invalid cache directory path: %v", err)
	}

	c.CacheDir = abs

	return nil
}

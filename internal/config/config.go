// Package config loads Tempo's configuration from YAML with environment
// overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/HendryAvila/tempo/internal/cache"
	"github.com/HendryAvila/tempo/internal/ratelimit"
	"github.com/HendryAvila/tempo/internal/remote"
	"github.com/HendryAvila/tempo/internal/syncer"
)

// Environment variables that override file settings.
const (
	EnvDatabaseURL        = "TEMPO_DATABASE_URL"
	EnvGenericDatabaseURL = "DATABASE_URL"
	EnvLogLevel           = "TEMPO_LOG_LEVEL"
	EnvDataDir            = "TEMPO_DATA_DIR"
)

// DefaultSearchPaths returns the config file search order:
// ./config.yaml, ~/.config/tempo/config.yaml, /etc/tempo/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"config.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "tempo", "config.yaml"))
	}

	paths = append(paths, "/etc/tempo/config.yaml")
	return paths
}

// FindConfig returns the explicit path if given and present. Otherwise it
// returns the first of DefaultSearchPaths that exists, or "" when none does.
// A missing config file is not an error: defaults plus environment suffice.
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", nil
}

// Config holds all Tempo configuration.
type Config struct {
	Remote    remote.Config    `yaml:"remote"`
	Cache     cache.Config     `yaml:"cache"`
	Sync      syncer.Config    `yaml:"sync"`
	RateLimit ratelimit.Config `yaml:"rate_limit"`
	Log       LogConfig        `yaml:"log"`

	// BaseTarget is the daily points target before readiness adjustment.
	BaseTarget int `yaml:"base_target"`
}

// LogConfig controls the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text or json
}

// Default returns a configuration with every default filled in.
func Default() *Config {
	return &Config{
		Remote:     remote.DefaultConfig(),
		Cache:      cache.DefaultConfig(),
		Sync:       syncer.DefaultConfig(),
		RateLimit:  ratelimit.DefaultConfig(),
		Log:        LogConfig{Level: "info", Format: "text"},
		BaseTarget: 18,
	}
}

// Load reads configuration from a YAML file layered over Default. An empty
// path skips the file. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}

		// Expand environment variables
		expanded := os.ExpandEnv(string(data))

		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvDatabaseURL); v != "" {
		c.Remote.URL = v
	} else if v := os.Getenv(EnvGenericDatabaseURL); v != "" && c.Remote.URL == "" {
		c.Remote.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.Cache.DataDir = v
	}
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Remote.URL == "" {
		errs = append(errs, fmt.Errorf("remote.url is required (or set %s)", EnvDatabaseURL))
	}
	if c.Remote.MaxOpenConns < 0 {
		errs = append(errs, errors.New("remote.max_open_conns must not be negative"))
	}
	if c.Remote.QueryTimeout < 0 || c.Remote.BreakerCooldown < 0 {
		errs = append(errs, errors.New("remote timeouts must not be negative"))
	}
	if c.Sync.StaleAfter < 0 || c.Sync.RefreshInterval < 0 {
		errs = append(errs, errors.New("sync intervals must not be negative"))
	}
	if c.RateLimit.Window < 0 || c.RateLimit.PerTool < 0 || c.RateLimit.Global < 0 {
		errs = append(errs, errors.New("rate_limit window and limits must not be negative"))
	}
	for name, limit := range c.RateLimit.Tools {
		if limit < 0 {
			errs = append(errs, fmt.Errorf("rate_limit.tools.%s must not be negative", name))
		}
	}
	if c.BaseTarget < 1 {
		errs = append(errs, errors.New("base_target must be at least 1"))
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q (valid: text, json)", c.Log.Format))
	}

	return errors.Join(errs...)
}

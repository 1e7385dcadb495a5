package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

// clearEnv unsets every override for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvDatabaseURL, EnvGenericDatabaseURL, EnvLogLevel, EnvDataDir} {
		t.Setenv(k, "")
	}
}

// --- Default / Load ---

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.BaseTarget != 18 {
		t.Errorf("BaseTarget = %d, want 18", cfg.BaseTarget)
	}
	if cfg.Sync.StaleAfter != 5*time.Minute || cfg.Sync.RefreshInterval != 5*time.Minute {
		t.Errorf("Sync = %+v", cfg.Sync)
	}
	if !cfg.RateLimit.Enabled || cfg.RateLimit.PerTool != 60 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Remote.BreakerFailures != 5 {
		t.Errorf("Remote.BreakerFailures = %d, want 5", cfg.Remote.BreakerFailures)
	}
}

func TestLoad_OverlaysFileOnDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TEMPO_TEST_PASSWORD", "s3cret")

	path := writeConfig(t, `
remote:
  url: postgres://tempo:${TEMPO_TEST_PASSWORD}@db/tempo
  query_timeout: 3s
sync:
  refresh_interval: 90s
rate_limit:
  per_tool: 10
  tools:
    sync_cache: 2
log:
  level: debug
  format: json
base_target: 20
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Remote.URL != "postgres://tempo:s3cret@db/tempo" {
		t.Errorf("Remote.URL = %q", cfg.Remote.URL)
	}
	if cfg.Remote.QueryTimeout != 3*time.Second {
		t.Errorf("Remote.QueryTimeout = %v", cfg.Remote.QueryTimeout)
	}
	if cfg.Remote.MaxOpenConns != 5 {
		t.Errorf("unset MaxOpenConns should keep default, got %d", cfg.Remote.MaxOpenConns)
	}
	if cfg.Sync.RefreshInterval != 90*time.Second || cfg.Sync.StaleAfter != 5*time.Minute {
		t.Errorf("Sync = %+v", cfg.Sync)
	}
	if cfg.RateLimit.PerTool != 10 || cfg.RateLimit.Tools["sync_cache"] != 2 || cfg.RateLimit.Global != 300 {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" || cfg.BaseTarget != 20 {
		t.Errorf("Log = %+v BaseTarget = %d", cfg.Log, cfg.BaseTarget)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error: %v", err)
	}
}

func TestLoad_EmptyPathUsesDefaultsAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvGenericDatabaseURL, "postgres://fallback/tempo")
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvDataDir, "/tmp/tempo-test")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Remote.URL != "postgres://fallback/tempo" {
		t.Errorf("Remote.URL = %q", cfg.Remote.URL)
	}
	if cfg.Log.Level != "warn" || cfg.Cache.DataDir != "/tmp/tempo-test" {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoad_EnvPrecedence(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "remote:\n  url: postgres://file/tempo\n")

	t.Setenv(EnvGenericDatabaseURL, "postgres://generic/tempo")
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Remote.URL != "postgres://file/tempo" {
		t.Errorf("DATABASE_URL should not override the file, got %q", cfg.Remote.URL)
	}

	t.Setenv(EnvDatabaseURL, "postgres://tempo-env/tempo")
	cfg, err = Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Remote.URL != "postgres://tempo-env/tempo" {
		t.Errorf("TEMPO_DATABASE_URL should win, got %q", cfg.Remote.URL)
	}
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file should fail")
	}
	if _, err := Load(writeConfig(t, "remote: [not, a, map]\n")); err == nil {
		t.Error("malformed YAML should fail")
	}
}

// --- Validate ---

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"missing url", func(c *Config) { c.Remote.URL = "" }, "remote.url"},
		{"negative window", func(c *Config) { c.RateLimit.Window = -time.Second }, "rate_limit"},
		{"negative tool limit", func(c *Config) { c.RateLimit.Tools = map[string]int{"list_tasks": -1} }, "list_tasks"},
		{"negative interval", func(c *Config) { c.Sync.StaleAfter = -time.Minute }, "sync intervals"},
		{"zero base target", func(c *Config) { c.BaseTarget = 0 }, "base_target"},
		{"bad level", func(c *Config) { c.Log.Level = "loud" }, "unknown log level"},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Remote.URL = "postgres://localhost/tempo"
			tt.mutate(cfg)

			err := cfg.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

// --- FindConfig ---

func TestFindConfig(t *testing.T) {
	path := writeConfig(t, "base_target: 10\n")

	got, err := FindConfig(path)
	if err != nil || got != path {
		t.Errorf("FindConfig(explicit) = %q, %v", got, err)
	}
	if _, err := FindConfig(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing explicit path should fail")
	}
}

func TestDefaultSearchPaths(t *testing.T) {
	paths := DefaultSearchPaths()
	if paths[0] != "config.yaml" || paths[len(paths)-1] != "/etc/tempo/config.yaml" {
		t.Errorf("DefaultSearchPaths() = %v", paths)
	}
}

// --- Logging ---

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"", slog.LevelInfo, false},
		{"TRACE", LevelTrace, false},
		{" debug ", slog.LevelDebug, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		got, err := ParseLogLevel(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestNewLogger_RendersTrace(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, LogConfig{Level: "trace", Format: "text"})
	if err != nil {
		t.Fatal(err)
	}
	logger.Log(context.Background(), LevelTrace, "payload")

	if !strings.Contains(buf.String(), "level=TRACE") {
		t.Errorf("output = %q, want level=TRACE", buf.String())
	}
}

func TestNewLogger_JSONAndErrors(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, LogConfig{Level: "info", Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	logger.Debug("hidden")
	logger.Info("shown", "tool", "list_tasks")

	out := buf.String()
	if strings.Contains(out, "hidden") || !strings.Contains(out, `"tool":"list_tasks"`) {
		t.Errorf("output = %q", out)
	}

	if _, err := NewLogger(&buf, LogConfig{Format: "xml"}); err == nil {
		t.Error("unknown format should fail")
	}
}

// Tempo: personal productivity MCP server
//
// Tracks tasks, habits and daily points against a readiness-adjusted goal,
// backed by PostgreSQL with a local SQLite read cache.
//
// Usage:
//
//	tempo serve    # Start MCP server (stdio transport)
//	tempo sync     # Refresh the local cache once and exit
//	tempo version  # Print the version
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/HendryAvila/tempo/internal/config"
	tempo "github.com/HendryAvila/tempo/internal/server"
)

func main() {
	// A .env file is optional; real environment variables win.
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "tempo",
		Short:         "Tempo: energy-aware task and habit MCP server",
		Long:          "Tempo serves tasks, habits, brain dumps and readiness-adjusted daily goals to AI assistants over MCP.",
		Version:       tempo.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("tempo v{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default: search standard locations)")

	root.AddCommand(
		newServeCmd(&configPath),
		newSyncCmd(&configPath),
		newVersionCmd(),
	)
	return root
}

// loadConfig finds, loads and validates configuration, and builds the
// logger. Logs always go to stderr: stdout carries the MCP protocol.
func loadConfig(configPath string) (*config.Config, *slog.Logger, error) {
	path, err := config.FindConfig(configPath)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := config.NewLogger(os.Stderr, cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)

	if path != "" {
		logger.Debug("config loaded", "path", path)
	}
	return cfg, logger, nil
}

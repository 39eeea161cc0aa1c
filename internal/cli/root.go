// Package cli implements the tripplanner commands.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	appLogger "github.com/FACorreiaa/go-ai-trip-planner/app/logger"
	"github.com/FACorreiaa/go-ai-trip-planner/config"
)

var storeDriver string

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:           "tripplanner",
	Short:         "AI trip planner",
	Long:          "Generates day-by-day travel itineraries with a generative model, stores them and serves them over HTTP.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	RootCmd.PersistentFlags().StringVar(&storeDriver, "store", "", "Document store: postgres or mongo (default from config)")
}

// Execute runs the root command.
func Execute() error {
	if err := RootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return err
	}
	return nil
}

// loadRuntime reads the configuration and sets up the default logger.
func loadRuntime() (*config.Config, *slog.Logger, error) {
	cfg, err := config.InitConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("initializing config: %w", err)
	}
	if storeDriver != "" {
		cfg.Store.Driver = storeDriver
	}
	env := os.Getenv("APP_ENV")
	if env == "" && cfg.Mode != "development" {
		env = cfg.Mode
	}
	logger := appLogger.New(env, os.Stderr)
	slog.SetDefault(logger)
	return &cfg, logger, nil
}

// Package commands implements the foodgram command line.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/foodgram/internal/config"
	"github.com/mmynk/foodgram/internal/storage/sqlite"
	"github.com/mmynk/foodgram/pkg/logging"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "foodgram",
	Short: "Foodgram recipe sharing API",
	Long: `Foodgram serves the recipe sharing REST API and provides
maintenance commands for its database.

Configuration is read from a YAML file (--config, $FOODGRAM_CONFIG or
./config.yaml) and FOODGRAM_* environment variables, for example
FOODGRAM_SERVER__PORT=9000.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML config file")
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFrom(configPath)
	}
	return config.Load()
}

// openStore loads the configuration, sets up logging and opens the database.
func openStore() (*config.Config, *sqlite.SQLiteStore, *slog.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	logger.Info("Storage initialized", "database", cfg.Database.Path)
	return cfg, store, logger, nil
}

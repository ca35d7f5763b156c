// Package cmd holds the growth-tools command line.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"growth_tools/config"
	"growth_tools/video-editor/models"
)

var appConfig *config.Config

var rootCmd = &cobra.Command{
	Use:           "growth-tools",
	Short:         "Render chat mockup videos and AI image slideshows",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(); err != nil {
			slog.Debug("No .env file found, using environment variables")
		}

		cfg, err := config.Load()
		if err != nil {
			return err
		}
		appConfig = cfg
		slog.SetDefault(newLogger(cfg))
		return nil
	},
}

// Execute runs the root command and reports a failure on stderr
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// loadVideoConfig reads the style file, or returns the defaults when path is empty
func loadVideoConfig(path string) (*models.VideoConfig, error) {
	if path == "" {
		return models.DefaultConfig(), nil
	}
	cfg, err := models.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load video config: %w", err)
	}
	slog.Info("Loaded video config", "path", path)
	return cfg, nil
}

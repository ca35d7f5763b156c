package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"growth_tools/api"
	"growth_tools/imagegen"
	"growth_tools/video-editor/engine"
	"growth_tools/video-editor/utils"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API serving POST /whatsapp and POST /slideshow.

Configuration is read from the environment (and a .env file if present):
  PORT, OUTPUT_DIR, FFMPEG_PATH, VIDEO_CONFIG, REPLICATE_API_TOKEN,
  OUTPUT_RETENTION, OUTPUT_SWEEP_SCHEDULE, LOG_LEVEL, LOG_FORMAT, GIN_MODE`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := appConfig
	gin.SetMode(cfg.GinMode)

	videoCfg, err := loadVideoConfig(cfg.VideoConfig)
	if err != nil {
		return err
	}
	if err := utils.EnsureDirectoryExists(cfg.OutputDir); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := utils.ValidateFFmpegInstalled(cfg.FFmpegPath); err != nil {
		slog.Warn("FFmpeg not available, video requests will fail", "error", err)
	}

	assembler := engine.NewAssembler(engine.ExecRunner{}, cfg.FFmpegPath, videoCfg.Settings)
	deps := api.Deps{
		Mockups:    engine.NewGenerator(videoCfg, assembler),
		Slideshows: engine.NewSlideshowBuilder(videoCfg.Slideshow, assembler),
		OutputDir:  cfg.OutputDir,
		FFmpegPath: cfg.FFmpegPath,
	}

	client, err := imagegen.New(imagegen.Config{
		BaseURL:      cfg.Replicate.BaseURL,
		Token:        cfg.Replicate.Token,
		Model:        cfg.Replicate.Model,
		Timeout:      cfg.Replicate.Timeout,
		PollInterval: cfg.Replicate.PollInterval,
	})
	switch {
	case err == nil:
		deps.Images = client
	case errors.Is(err, imagegen.ErrNotConfigured):
		slog.Warn("REPLICATE_API_TOKEN not set, /slideshow is disabled")
	default:
		return err
	}

	if cfg.Retention.MaxAge > 0 {
		sweeper, err := utils.NewRetentionSweeper(cfg.OutputDir, cfg.Retention.MaxAge, cfg.Retention.Schedule)
		if err != nil {
			return err
		}
		sweeper.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			sweeper.Stop(ctx)
		}()
		slog.Info("Output retention enabled", "max_age", cfg.Retention.MaxAge, "schedule", cfg.Retention.Schedule)
	}

	srv := &http.Server{
		Addr:        ":" + cfg.Port,
		Handler:     api.NewRouter(deps),
		ReadTimeout: 30 * time.Second,
		// Rendering runs inside the request, so no write timeout.
		WriteTimeout: 0,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Growth Tools API starting", "addr", srv.Addr, "replicate_configured", deps.Images != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	stop()

	slog.Info("Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("Server stopped successfully")
	return nil
}

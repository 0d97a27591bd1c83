package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saturnino-fabrica-de-software/moodscan/internal/api"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/classifier"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/config"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/face"
	"github.com/saturnino-fabrica-de-software/moodscan/internal/metrics"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	logger.Info("starting mood detection service",
		slog.String("service", cfg.ServiceName),
		slog.String("environment", cfg.Environment),
		slog.Int("port", cfg.Port),
		slog.String("detector", cfg.DetectorType),
	)

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load the emotion model; the server still starts without it and
	// reports not ready
	handle, err := face.LoadClassifier(cfg)
	if err != nil {
		if errors.Is(err, classifier.ErrModelIO) {
			return err
		}
		logger.Error("emotion model not loaded, serving not ready",
			slog.String("model_path", cfg.ModelPath),
			slog.Any("error", err),
		)
	} else {
		logger.Info("emotion model loaded",
			slog.String("model_path", cfg.ModelPath),
			slog.Int("input_size", cfg.ModelInputSize),
			slog.Int("classes", len(cfg.EmotionLabels)),
		)
	}
	defer func() {
		_ = handle.Close()
		_ = classifier.DestroyEnvironment()
	}()

	det, err := face.NewDetector(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to create face detector: %w", err)
	}

	recorder := metrics.NewRecorder()
	svc := face.NewEmotionService(cfg, det, handle, recorder, logger)

	// Periodic counters in the log stream
	var reporter *metrics.Reporter
	if cfg.MetricsLogInterval > 0 {
		reporter = metrics.NewReporter(recorder, logger, cfg.MetricsLogInterval)
		go reporter.Start(ctx)
	}

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Service:  svc,
		Recorder: recorder,
		Config:   cfg,
	})
	router.Setup()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := cfg.Addr()
		logger.Info("server listening", slog.String("addr", addr))
		if err := router.Listen(addr); err != nil {
			errChan <- err
		}
	}()

	// Wait for shutdown signal or error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down server...")
	shutdownDone := make(chan error, 1)
	go func() {
		shutdownDone <- router.Shutdown()
	}()

	// Graceful shutdown with timeout
	select {
	case err := <-shutdownDone:
		if err != nil {
			logger.Error("shutdown error", slog.Any("error", err))
		}
	case <-time.After(10 * time.Second):
		logger.Warn("shutdown timed out")
	}

	if reporter != nil {
		reporter.Stop()
	}

	logger.Info("server stopped")

	return nil
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ocula-id/ocula/internal/api"
	"github.com/ocula-id/ocula/internal/config"
	"github.com/ocula-id/ocula/internal/docscan"
	"github.com/ocula-id/ocula/internal/facedetect"
	"github.com/ocula-id/ocula/internal/quality"
	"github.com/ocula-id/ocula/internal/service"
	"github.com/ocula-id/ocula/internal/verification"
	"github.com/ocula-id/ocula/internal/vision"
	"github.com/ocula-id/ocula/internal/vision/mock"
	"github.com/ocula-id/ocula/internal/vision/rekognition"
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

	logger.Info("starting Ocula Capture API",
		slog.String("environment", cfg.Environment),
		slog.String("provider", cfg.ProviderType),
		slog.Int("port", cfg.Port),
	)

	// Vision provider
	provider, err := newProvider(cfg)
	if err != nil {
		return fmt.Errorf("failed to create vision provider: %w", err)
	}

	// Perception core
	detectOpts := facedetect.DefaultOptions()
	if cfg.MinFaceConfidence > 0 {
		detectOpts.MinConfidence = cfg.MinFaceConfidence
	}
	faces := facedetect.NewDetector(provider, detectOpts)

	scanOpts := docscan.DefaultOptions()
	if cfg.MinDocumentConfidence > 0 {
		scanOpts.MinConfidence = cfg.MinDocumentConfidence
	}

	validator := quality.NewValidator(quality.ProfileByName(cfg.QualityProfile))

	perception := service.NewPerceptionService(provider, faces, validator, scanOpts, logger)

	// Verification backend client; session outcomes from the capture stream
	// are submitted here.
	verifierCfg := verification.DefaultConfig()
	verifierCfg.BaseURL = cfg.VerificationURL
	verifierCfg.APIKey = cfg.VerificationAPIKey
	verifier := verification.NewClient(verifierCfg)

	// Setup router
	router := api.NewRouter(logger, &api.Dependencies{
		Perception: perception,
		Faces:      faces,
		Verifier:   verifier,
	})
	router.Setup()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Start server in goroutine
	errChan := make(chan error, 1)
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Port)
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

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down server...")
	if err := router.Shutdown(); err != nil {
		logger.Error("shutdown error", slog.Any("error", err))
	}

	<-shutdownCtx.Done()
	logger.Info("server stopped")

	return nil
}

func newProvider(cfg *config.Config) (vision.Provider, error) {
	switch cfg.ProviderType {
	case "rekognition":
		rekCfg := rekognition.DefaultConfig()
		rekCfg.Region = cfg.AWSRegion
		return rekognition.NewProvider(context.Background(), rekCfg)
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown provider type %q", cfg.ProviderType)
	}
}

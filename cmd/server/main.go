package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blog-service/internal/app"
	"blog-service/internal/config"
	"blog-service/internal/logger"
	"blog-service/internal/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", map[string]any{
			"error": err.Error(),
		})
	}
	logger.Init(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx, "blog-service", cfg.OTLPEndpoint, cfg.TraceSampleRate)
	if err != nil {
		logger.Fatal("failed to initialize tracing", map[string]any{
			"error": err.Error(),
		})
	}

	application, err := app.New(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize app", map[string]any{
			"error": err.Error(),
		})
	}

	go func() {
		if err := application.Run(); err != nil {
			logger.Fatal("http server failed", map[string]any{
				"error": err.Error(),
			})
		}
	}()

	logger.Info("blog-service started", map[string]any{
		"port": cfg.AppPort,
	})

	<-ctx.Done() // wait for Ctrl+C

	logger.Info("shutdown signal received", nil)

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("graceful shutdown failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("trace flush failed", map[string]any{
			"error": err.Error(),
		})
	}

	logger.Info("blog-service stopped cleanly", nil)
}

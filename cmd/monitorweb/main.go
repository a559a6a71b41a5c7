package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pricewatch/internal/app"
	"pricewatch/internal/config"
	"pricewatch/internal/version"
	"pricewatch/internal/web"
)

func main() {
	configPath := flag.String("config", "configs/monitor.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	// Populate the environment before config expansion
	_ = godotenv.Load()

	logger.Info("starting monitor",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Hosting platforms inject the listen port through the environment.
	port := cfg.Server.Port
	if raw := os.Getenv("PORT"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil || p <= 0 || p > 65535 {
			logger.Error("invalid PORT value", "port", raw)
			os.Exit(1)
		}
		port = p
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"store_backend", cfg.Store.Backend,
		"interval", cfg.Poller.Interval,
		"port", port,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build monitor", "error", err)
		os.Exit(1)
	}

	// Status server runs alongside the poll loop.
	server := web.New(port, a.Monitor.Health(), a.Catalog, a.Store, logger)
	go func() {
		if err := server.Start(); err != nil {
			logger.Error("status server error", "error", err)
			cancel()
		}
	}()

	if err := a.Monitor.Start(ctx); err != nil {
		logger.Error("failed to start monitor", "error", err)
		os.Exit(1)
	}

	logger.Info("monitor running",
		"instance_id", cfg.Instance.ID,
		"health_url", "http://localhost:"+strconv.Itoa(port)+"/health",
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("status server shutdown", "error", err)
	}
	if err := a.Monitor.Stop(shutdownCtx); err != nil {
		logger.Error("monitor stop", "error", err)
	}
	a.Close(shutdownCtx)

	logger.Info("monitor stopped")
}

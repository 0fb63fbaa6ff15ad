package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sglre6355/cirquebot/internal/bot"
	"github.com/sglre6355/cirquebot/internal/modules/absgame"
	"github.com/sglre6355/cirquebot/internal/modules/greetings"
	"github.com/sglre6355/cirquebot/internal/modules/reactionroles"
)

// version is set at build time via ldflags:
// go build -ldflags "-X main.version=1.0.0" ./cmd/cirquebot
var version = "dev"

func main() {
	// Load configuration
	cfg, err := bot.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Configure JSON logging
	logger, logFile, err := bot.NewLogger(cfg.Log)
	if err != nil {
		slog.Error("failed to configure logging", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()
	slog.SetDefault(logger)

	slog.Info("starting cirquebot", "version", version)

	// Create and configure bot
	b := bot.NewBot(cfg)
	registry := bot.NewRegistry(
		absgame.New(),
		greetings.New(),
		reactionroles.New(),
	)
	if err := b.LoadModules(registry); err != nil {
		slog.Error("failed to load modules", "error", err)
		os.Exit(1)
	}

	// Start bot
	if err := b.Start(); err != nil {
		slog.Error("failed to start bot", "error", err)
		_ = b.Stop()
		os.Exit(1)
	}

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	slog.Info("received termination signal, shutting down")
	if err := b.Stop(); err != nil {
		slog.Error("failed to shutdown", "error", err)
	}

	slog.Info("completed bot shutdown")
}

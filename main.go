package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jasstafel-Club/jasstafel-bot/app"
	"github.com/Jasstafel-Club/jasstafel-bot/config"
)

func main() {
	configFile := "config.yaml"
	if v := os.Getenv("CONFIG_FILE"); v != "" {
		configFile = v
	}

	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application := &app.App{}
	if err := application.Initialize(ctx, cfg, logger); err != nil {
		log.Fatalf("Failed to initialize app: %v", err)
	}
	defer application.Close()

	if err := application.Run(ctx); err != nil {
		log.Fatalf("Application exited with error: %v", err)
	}

	logger.Info("Application shut down gracefully")
}

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ChannelDigest/internal/app"
	"ChannelDigest/internal/config"
	"ChannelDigest/internal/logging"
)

func main() {
	once := flag.Bool("once", false, "run a single pipeline pass and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *once {
		report, err := application.RunOnce(ctx)
		if err != nil {
			logger.Error("pipeline run failed", "execution_id", report.ExecutionID, "error", err)
			os.Exit(1)
		}
		logger.Info("pipeline run complete", "execution_id", report.ExecutionID, "status", report.Status)
		return
	}

	if err := application.Start(ctx); err != nil {
		logger.Error("application stopped", "error", err)
		os.Exit(1)
	}
}

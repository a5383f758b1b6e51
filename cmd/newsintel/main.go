package main

import (
	"context"
	"os"

	_ "github.com/lib/pq"

	"github.com/Dinesh-raya/news-intel/internal/app"
	"github.com/Dinesh-raya/news-intel/internal/config"
	"github.com/Dinesh-raya/news-intel/internal/logging"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level)

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	// "run" executes one pipeline pass and exits; default serves HTTP.
	if len(os.Args) > 1 && os.Args[1] == "run" {
		if err := application.RunOnce(ctx); err != nil {
			logger.Error("pipeline run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := application.Serve(); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

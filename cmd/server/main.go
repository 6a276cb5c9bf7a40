// Card fraud detection API - risk scoring, transaction monitoring, analytics
package main

import (
	"context"
	"os"

	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/config"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/logging"
	"github.com/Riteshgoel21/CreditDebitCardFraudDetection/internal/server"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	logger := logging.New("info", "text")

	logger.Info("starting fraud detection server",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"env", cfg.Env,
		"demo_transactions", cfg.DemoTransactionCount,
		"alert_threshold", cfg.AlertThreshold,
	)

	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

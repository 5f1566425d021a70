package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/go-gin-pos-ledger/internal/app/api"
	ledgerpostgres "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/persistence/postgres"
	platformobservability "github.com/Apurer/go-gin-pos-ledger/internal/platform/observability"
	platformpostgres "github.com/Apurer/go-gin-pos-ledger/internal/platform/postgres"
)

// session-purger removes expired till sessions for TERMINAL_ID. Run it from cron or a k8s CronJob.
func main() {
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := platformobservability.NewLogger(os.Stdout, platformobservability.ParseLevel(cfg.LogLevel)).
		With(slog.String("terminal.id", cfg.TerminalID))

	if err := purge(cfg, logger); err != nil {
		logger.Error("ledger session purge failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func purge(cfg api.Config, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, cleanup := platformpostgres.ConnectFromEnv(ctx, logger, "OFFLINE_QUEUE_DSN", "POSTGRES_DSN")
	defer cleanup()
	if db == nil {
		return errors.New("cannot purge ledger sessions without a database")
	}

	purged, err := ledgerpostgres.NewSessionStore(db, cfg.TerminalID, cfg.SessionTTL).PurgeExpired(ctx)
	if err != nil {
		return err
	}
	logger.Info("ledger session purge completed", slog.Int64("purged", purged))
	return nil
}

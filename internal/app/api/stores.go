package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-pos-ledger/internal/clients/http/posbackend"
	ledgermemory "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/memory"
	ledgerpostgres "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/persistence/postgres"
	ledgerrest "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/persistence/rest"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
	"github.com/Apurer/go-gin-pos-ledger/internal/platform/migrations"
	platformpostgres "github.com/Apurer/go-gin-pos-ledger/internal/platform/postgres"
)

// Stores bundles the outbound adapters a ledger process runs on.
type Stores struct {
	Persistence ports.Persistence
	Queue       ports.OfflineQueue
	ReplayLog   ports.ReplayLog
	Sessions    ports.SessionStore
	// Shared is set when the queue, replay log and sessions live in postgres and can be
	// drained by another process such as the Temporal worker.
	Shared bool
}

// BuildStores selects adapters from cfg. Postgres falls back to memory when it cannot be reached.
// The queue database is dialed on its own unless it shares the ledger DSN.
func BuildStores(ctx context.Context, cfg Config, logger *slog.Logger) (*Stores, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	var ledgerDB, queueDB *gorm.DB
	if cfg.Backend == BackendPostgres {
		db, closeDB := openDatabase(ctx, "POSTGRES_DSN", cfg.PostgresDSN, logger)
		ledgerDB = db
		closers = append(closers, closeDB)
	}
	if cfg.OfflineQueue == BackendPostgres {
		queueDSN := cfg.OfflineQueueDSN
		if queueDSN == "" {
			queueDSN = cfg.PostgresDSN
		}
		if cfg.Backend == BackendPostgres && queueDSN == cfg.PostgresDSN {
			queueDB = ledgerDB
			if queueDB != nil {
				logger.Warn("offline queue shares the ledger database; set OFFLINE_QUEUE_DSN to queue while it is down")
			}
		} else {
			db, closeDB := openDatabase(ctx, "OFFLINE_QUEUE_DSN", queueDSN, logger)
			queueDB = db
			closers = append(closers, closeDB)
		}
	}
	stores := &Stores{}

	if queueDB != nil {
		stores.Queue = ledgerpostgres.NewOfflineQueue(queueDB)
		stores.ReplayLog = ledgerpostgres.NewReplayLog(queueDB)
		stores.Sessions = ledgerpostgres.NewSessionStore(queueDB, cfg.TerminalID, cfg.SessionTTL)
		stores.Shared = true
		logger.Info("offline queue configured with postgres")
	} else {
		stores.Queue = ledgermemory.NewOfflineQueue()
		stores.ReplayLog = ledgermemory.NewReplayLog()
		stores.Sessions = ledgermemory.NewSessionStore()
		logger.Info("offline queue configured in memory")
	}

	switch {
	case cfg.Backend == BackendREST:
		client, err := posbackend.NewClient(cfg.RemoteAPIURL,
			posbackend.WithHTTPClient(&http.Client{
				Timeout:   cfg.RemoteAPITimeout,
				Transport: otelhttp.NewTransport(http.DefaultTransport),
			}),
			posbackend.WithTokenSource(ledgerrest.TokenFromSessions(stores.Sessions)),
		)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("configure remote backend: %w", err)
		}
		stores.Persistence = ledgerrest.NewRepository(client)
		logger.Info("ledger backend configured with remote API", slog.String("url", cfg.RemoteAPIURL))
	case cfg.Backend == BackendPostgres && ledgerDB != nil:
		stores.Persistence = ledgerpostgres.NewRepository(ledgerDB)
		logger.Info("ledger backend configured with postgres")
	default:
		stores.Persistence = ledgermemory.NewStore()
		logger.Info("ledger backend configured in memory")
	}
	return stores, cleanup, nil
}

// openDatabase dials and migrates dsn. Failures are logged and yield a nil DB so the caller
// falls back to memory.
func openDatabase(ctx context.Context, key, dsn string, logger *slog.Logger) (*gorm.DB, func()) {
	if dsn == "" {
		logger.Warn("postgres DSN not set, falling back to in-memory ledger stores", slog.String("env", key))
		return nil, func() {}
	}
	db, err := platformpostgres.Connect(ctx, dsn, platformpostgres.WithLogger(logger))
	if err != nil {
		logger.Warn("failed to connect to postgres, falling back to memory",
			slog.String("env", key), slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, falling back to memory",
			slog.String("env", key), slog.String("error", err.Error()))
		return nil, func() {}
	}
	if err := migrations.Run(db); err != nil {
		_ = sqlDB.Close()
		logger.Warn("failed to migrate ledger schema, falling back to memory",
			slog.String("env", key), slog.String("error", err.Error()))
		return nil, func() {}
	}
	return db, func() { _ = sqlDB.Close() }
}

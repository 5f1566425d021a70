package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// A terminal keeps a handful of connections: one for requests, one for the sweeper, spare for the worker.
const (
	defaultMaxOpenConns    = 8
	defaultMaxIdleConns    = 2
	defaultConnMaxLifetime = 30 * time.Minute
	pingTimeout            = 5 * time.Second
	slowQueryThreshold     = 500 * time.Millisecond
)

// ErrEmptyDSN is returned by Connect when no DSN is configured.
var ErrEmptyDSN = errors.New("postgres DSN is empty")

type options struct {
	logger       *slog.Logger
	maxOpenConns int
	maxIdleConns int
	connLifetime time.Duration
}

// Option tunes Connect.
type Option func(*options)

// WithLogger routes gorm's slow query and error logs through logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithPool overrides the connection pool bounds.
func WithPool(maxOpen, maxIdle int, lifetime time.Duration) Option {
	return func(o *options) {
		o.maxOpenConns = maxOpen
		o.maxIdleConns = maxIdle
		o.connLifetime = lifetime
	}
}

// Connect opens the ledger database through gorm, sizes the pool and pings it.
// Driver errors are translated so adapters can match gorm.ErrDuplicatedKey.
func Connect(ctx context.Context, dsn string, opts ...Option) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, ErrEmptyDSN
	}
	cfg := options{
		maxOpenConns: defaultMaxOpenConns,
		maxIdleConns: defaultMaxIdleConns,
		connLifetime: defaultConnMaxLifetime,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	gormCfg := &gorm.Config{TranslateError: true, Logger: gormlogger.Discard}
	if cfg.logger != nil {
		gormCfg.Logger = gormlogger.New(
			slog.NewLogLogger(cfg.logger.Handler(), slog.LevelWarn),
			gormlogger.Config{
				SlowThreshold:             slowQueryThreshold,
				LogLevel:                  gormlogger.Warn,
				IgnoreRecordNotFoundError: true,
			},
		)
	}
	db, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(cfg.maxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.maxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.connLifetime)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// ConnectFromEnv dials the DSN held by the first non-empty of keys, POSTGRES_DSN when none are
// given. A missing DSN or failed dial is logged and yields a nil DB with a no-op cleanup.
func ConnectFromEnv(ctx context.Context, logger *slog.Logger, keys ...string) (*gorm.DB, func()) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(keys) == 0 {
		keys = []string{"POSTGRES_DSN"}
	}
	var dsn string
	for _, key := range keys {
		if dsn = strings.TrimSpace(os.Getenv(key)); dsn != "" {
			break
		}
	}
	if dsn == "" {
		logger.Warn("no postgres DSN set, ledger database disabled", slog.Any("keys", keys))
		return nil, func() {}
	}
	db, err := Connect(ctx, dsn, WithLogger(logger))
	if err != nil {
		logger.Warn("failed to connect to postgres, ledger database disabled", slog.String("error", err.Error()))
		return nil, func() {}
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Warn("failed to unwrap postgres connection, ledger database disabled", slog.String("error", err.Error()))
		return nil, func() {}
	}
	logger.Info("ledger database connected")
	return db, func() { _ = sqlDB.Close() }
}

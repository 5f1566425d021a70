package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-pos-ledger/internal/clients/http/posbackend"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/scheduler"
	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
)

// Ledger backends.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendREST     = "rest"
)

// Config carries environment-driven settings for the ledger processes.
type Config struct {
	Port              string
	TerminalID        string
	Backend           string
	PostgresDSN       string
	// OfflineQueueDSN locates the offline queue, replay log and sessions. It defaults to
	// PostgresDSN; a separate database keeps queueing working while the ledger database is down.
	OfflineQueueDSN   string
	RemoteAPIURL      string
	RemoteAPITimeout  time.Duration
	OfflineQueue      string
	ReplaySchedule    string
	LowStockThreshold int
	SessionTTL        time.Duration
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	LogLevel          string
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	dsn := strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	queueDSN := envDefault("OFFLINE_QUEUE_DSN", dsn)
	durable := BackendMemory
	if dsn != "" {
		durable = BackendPostgres
	}
	queueDurable := BackendMemory
	if queueDSN != "" {
		queueDurable = BackendPostgres
	}
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		TerminalID:        envDefault("TERMINAL_ID", "default"),
		Backend:           strings.ToLower(envDefault("LEDGER_BACKEND", durable)),
		PostgresDSN:       dsn,
		OfflineQueueDSN:   queueDSN,
		RemoteAPIURL:      strings.TrimSpace(os.Getenv("REMOTE_API_URL")),
		RemoteAPITimeout:  posbackend.DefaultTimeout,
		OfflineQueue:      strings.ToLower(envDefault("OFFLINE_QUEUE", queueDurable)),
		ReplaySchedule:    envDefault("REPLAY_SCHEDULE", scheduler.DefaultSchedule),
		LowStockThreshold: ledgertypes.DefaultLowStockThreshold,
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		LogLevel:          envDefault("LOG_LEVEL", "info"),
	}
	if raw := strings.TrimSpace(os.Getenv("REMOTE_API_TIMEOUT_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("REMOTE_API_TIMEOUT_SECONDS must be a positive integer")
		}
		cfg.RemoteAPITimeout = time.Duration(seconds) * time.Second
	}
	if raw := strings.TrimSpace(os.Getenv("LOW_STOCK_THRESHOLD")); raw != "" {
		threshold, err := strconv.Atoi(raw)
		if err != nil || threshold < 0 {
			return Config{}, fmt.Errorf("LOW_STOCK_THRESHOLD must be a non-negative integer")
		}
		cfg.LowStockThreshold = threshold
	}
	if raw := strings.TrimSpace(os.Getenv("SESSION_TTL_HOURS")); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil || hours <= 0 {
			return Config{}, fmt.Errorf("SESSION_TTL_HOURS must be a positive integer")
		}
		cfg.SessionTTL = time.Duration(hours) * time.Hour
	}
	switch cfg.Backend {
	case BackendMemory, BackendPostgres:
	case BackendREST:
		if cfg.RemoteAPIURL == "" {
			return Config{}, fmt.Errorf("REMOTE_API_URL is required when LEDGER_BACKEND=rest")
		}
	default:
		return Config{}, fmt.Errorf("LEDGER_BACKEND must be one of memory, postgres or rest")
	}
	switch cfg.OfflineQueue {
	case BackendMemory, BackendPostgres:
	default:
		return Config{}, fmt.Errorf("OFFLINE_QUEUE must be memory or postgres")
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Port, ":")
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}

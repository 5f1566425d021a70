package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"

	posserver "github.com/Apurer/go-gin-pos-ledger/go"

	ledgerobs "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/observability"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/scheduler"
	ledgerworkflows "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/workflows"
	ledgerapp "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
	platformobservability "github.com/Apurer/go-gin-pos-ledger/internal/platform/observability"
)

// Run boots the POS ledger HTTP API with observability, stores, replay and the sweeper wired.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	const serviceName = "pos-ledger-api"
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName,
		platformobservability.WithLogLevel(cfg.LogLevel),
		platformobservability.WithTerminalID(cfg.TerminalID),
	)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger.With(slog.String("terminal.id", cfg.TerminalID))

	stores, cleanupStores, err := BuildStores(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanupStores()

	core := ledgerapp.NewLedger(
		stores.Persistence,
		ledgerapp.WithOfflineQueue(stores.Queue),
		ledgerapp.WithReplayLog(stores.ReplayLog),
		ledgerapp.WithSessionStore(stores.Sessions),
		ledgerapp.WithLogger(logger),
		ledgerapp.WithLowStockThreshold(cfg.LowStockThreshold),
	)
	if err := core.Start(ctx); err != nil {
		return fmt.Errorf("failed to start ledger: %w", err)
	}
	defer func() { _ = core.Close(context.Background()) }()
	service := ledgerobs.New(
		core,
		ledgerobs.WithLogger(logger),
		ledgerobs.WithTracer(instruments.Tracer("internal.ledger.application")),
		ledgerobs.WithMeter(instruments.Meter("internal.ledger.application")),
	)

	var orchestrator ports.ReplayOrchestrator = ledgerworkflows.NewInlineReplay(service)
	switch {
	case !stores.Shared:
		logger.Info("offline queue is process-local, replaying inline")
	default:
		temporalClient, err := connectTemporalClient(cfg, instruments)
		if err != nil {
			logger.Warn("Temporal workflows unavailable, replaying inline", slog.String("error", err.Error()))
			break
		}
		defer temporalClient.Close()
		orchestrator = ledgerworkflows.NewTemporalReplay(temporalClient, service, cfg.TerminalID)
		logger.Info("Temporal replay enabled", slog.String("namespace", cfg.TemporalNamespace))
	}

	sweeper, err := scheduler.NewSweeper(orchestrator, service, cfg.ReplaySchedule, scheduler.WithLogger(logger))
	if err != nil {
		return err
	}
	sweeper.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := sweeper.Stop(stopCtx); err != nil {
			logger.Warn("sweeper did not stop cleanly", slog.String("error", err.Error()))
		}
	}()

	handlers := posserver.ApiHandleFunctions{
		ProductAPI: posserver.NewProductAPI(service),
		CartAPI:    posserver.NewCartAPI(service),
		SaleAPI:    posserver.NewSaleAPI(service),
		SessionAPI: posserver.NewSessionAPI(service),
		SyncAPI:    posserver.NewSyncAPI(service, orchestrator),
	}
	engine := gin.Default()
	engine.Use(otelgin.Middleware(serviceName))
	router := posserver.NewRouterWithGinEngine(engine, handlers)

	addr := cfg.Addr()
	logger.Info("POS ledger API listening", slog.String("addr", addr), slog.String("backend", cfg.Backend))
	if err := router.Run(addr); err != nil {
		logger.Error("POS ledger API server exited", slog.String("addr", addr), slog.String("error", err.Error()))
		return err
	}
	return nil
}

// ConnectTemporal dials Temporal with tracing and structured logging, honouring TEMPORAL_DISABLED.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	return connectTemporalClient(cfg, instruments)
}

func connectTemporalClient(cfg Config, instruments *platformobservability.Instruments) (client.Client, error) {
	if cfg.TemporalDisabled {
		return nil, errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	tracerOptions := temporalotel.TracerOptions{}
	if instruments != nil {
		tracerOptions.Tracer = instruments.Tracer("temporal-client")
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(tracerOptions)
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:  cfg.TemporalAddress,
		Namespace: cfg.TemporalNamespace,
		Logger:    workerlog.NewStructuredLogger(effectiveLogger(instruments)),
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

func effectiveLogger(instruments *platformobservability.Instruments) *slog.Logger {
	if instruments != nil && instruments.Logger != nil {
		return instruments.Logger
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

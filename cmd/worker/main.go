package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/go-gin-pos-ledger/internal/app/api"
	ledgerapp "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application"
	platformobservability "github.com/Apurer/go-gin-pos-ledger/internal/platform/observability"
	ledgeractivities "github.com/Apurer/go-gin-pos-ledger/internal/platform/temporal/activities/ledger"
	ledgerworkflows "github.com/Apurer/go-gin-pos-ledger/internal/platform/temporal/workflows/ledger"
)

func main() {
	ctx := context.Background()
	const serviceName = "pos-ledger-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName,
		platformobservability.WithLogLevel(cfg.LogLevel),
		platformobservability.WithTerminalID(cfg.TerminalID),
	)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	stores, cleanupStores, err := api.BuildStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build ledger stores", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer cleanupStores()
	if !stores.Shared {
		logger.Warn("worker offline queue is not shared with the API; set OFFLINE_QUEUE=postgres and OFFLINE_QUEUE_DSN or POSTGRES_DSN")
	}
	replayer := ledgerapp.NewReplayer(
		stores.Persistence,
		stores.Queue,
		ledgerapp.WithReplayerLog(stores.ReplayLog),
		ledgerapp.WithReplayerLogger(logger),
	)
	replayActivities := ledgeractivities.NewActivities(replayer)

	temporalClient, err := api.ConnectTemporal(cfg, instruments)
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	w := worker.New(temporalClient, ledgerworkflows.OfflineReplayTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(ledgerworkflows.OfflineReplayWorkflow, workflow.RegisterOptions{Name: ledgerworkflows.OfflineReplayWorkflowName})
	w.RegisterActivityWithOptions(replayActivities.ListPendingActions, activity.RegisterOptions{Name: ledgeractivities.ListPendingActionsActivityName})
	w.RegisterActivityWithOptions(replayActivities.ReplayAction, activity.RegisterOptions{Name: ledgeractivities.ReplayActionActivityName})

	logger.Info("worker listening", slog.String("taskQueue", ledgerworkflows.OfflineReplayTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}

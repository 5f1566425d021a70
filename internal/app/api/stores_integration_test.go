//go:build integration

package api

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	ledgermemory "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/memory"
	ledgerpostgres "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/persistence/postgres"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
)

func TestBuildStores_QueueSurvivesLedgerDatabaseOutage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	queueContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("ledger_queue"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = queueContainer.Terminate(ctx) })

	queueDSN, err := queueContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cfg := Config{
		TerminalID:      "till-1",
		Backend:         BackendPostgres,
		PostgresDSN:     unreachableDSN,
		OfflineQueue:    BackendPostgres,
		OfflineQueueDSN: queueDSN,
	}
	stores, cleanup, err := BuildStores(ctx, cfg, discardLogger())
	require.NoError(t, err)
	defer cleanup()

	assert.IsType(t, &ledgermemory.Store{}, stores.Persistence)
	assert.IsType(t, &ledgerpostgres.OfflineQueue{}, stores.Queue)
	assert.True(t, stores.Shared)

	action := domain.NewAction(domain.ActionAddProduct, time.Now())
	action.Product = domain.NewProduct("p1", "Widget", decimal.NewFromInt(10), 5)
	action.ProductID = action.Product.ID
	require.NoError(t, stores.Queue.Enqueue(ctx, action))
	queued, err := stores.Queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, queued)
}

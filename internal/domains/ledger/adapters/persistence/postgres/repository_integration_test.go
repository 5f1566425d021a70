//go:build integration

package postgres

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
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
	"github.com/Apurer/go-gin-pos-ledger/internal/platform/migrations"
)

func setupLedgerPostgresContainer(t *testing.T) (*gorm.DB, func()) {
	ctx := context.Background()

	pgContainer, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("ledger_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = migrations.Run(db)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		pgContainer.Terminate(ctx)
	}

	return db, cleanup
}

func seedWidget(t *testing.T, repo *Repository, stock int) *domain.Product {
	t.Helper()
	saved, err := repo.CreateProduct(context.Background(), domain.NewProduct("p1", "Widget", decimal.NewFromInt(10), stock))
	require.NoError(t, err)
	return saved
}

func saleOf(t *testing.T, status domain.SaleStatus, qty int) *domain.Sale {
	t.Helper()
	sale, err := domain.NewSale([]domain.CartLine{{
		ProductID:   "p1",
		ProductName: "Widget",
		Price:       decimal.NewFromInt(10),
		Quantity:    qty,
	}}, status, time.Now())
	require.NoError(t, err)
	return sale
}

func TestRepository_ProductLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupLedgerPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()

	saved := seedWidget(t, repo, 5)
	assert.Equal(t, int64(1), saved.Version)

	_, err := repo.CreateProduct(ctx, domain.NewProduct("p1", "Clone", decimal.Zero, 0))
	assert.ErrorIs(t, err, ports.ErrAlreadyExists)

	name := "Widget XL"
	patched, err := repo.PatchProduct(ctx, "p1", domain.ProductPatch{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, patched.Name)
	assert.Equal(t, 5, patched.Stock)
	assert.Equal(t, int64(2), patched.Version)

	_, err = repo.PatchProduct(ctx, "ghost", domain.ProductPatch{Name: &name})
	assert.ErrorIs(t, err, ports.ErrNotFound)

	products, err := repo.LoadProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(products[0].Price))

	require.NoError(t, repo.DeleteProduct(ctx, "p1"))
	assert.ErrorIs(t, repo.DeleteProduct(ctx, "p1"), ports.ErrNotFound)
}

func TestRepository_CreateSaleDecrementsStockClamped(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupLedgerPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	seedWidget(t, repo, 3)

	sale := saleOf(t, domain.SaleStatusCompleted, 2)
	_, err := repo.CreateSale(ctx, sale)
	require.NoError(t, err)

	_, err = repo.CreateSale(ctx, sale)
	assert.ErrorIs(t, err, ports.ErrAlreadyExists)

	_, err = repo.CreateSale(ctx, saleOf(t, domain.SaleStatusCompleted, 4))
	require.NoError(t, err)

	products, err := repo.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, products[0].Stock)

	sales, err := repo.LoadSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 2)
	assert.Equal(t, sale.ID, sales[0].ID)
	require.Len(t, sales[0].Items, 1)
	assert.Equal(t, 2, sales[0].Items[0].Quantity)
}

func TestRepository_PendingOrderCompletion(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupLedgerPostgresContainer(t)
	defer cleanup()

	repo := NewRepository(db)
	ctx := context.Background()
	seedWidget(t, repo, 5)

	order := saleOf(t, domain.SaleStatusPending, 2)
	_, err := repo.CreatePendingOrder(ctx, order)
	require.NoError(t, err)

	pending, err := repo.LoadPendingOrders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	completed := order.Clone()
	require.NoError(t, completed.Complete("Card", time.Now()))
	stored, err := repo.CompletePendingOrder(ctx, completed)
	require.NoError(t, err)
	assert.Equal(t, domain.SaleStatusCompleted, stored.Status)
	assert.Equal(t, "Card", stored.PaymentMethod)

	_, err = repo.CompletePendingOrder(ctx, completed)
	assert.ErrorIs(t, err, ports.ErrAlreadyExists)

	pending, err = repo.LoadPendingOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
	products, err := repo.LoadProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, products[0].Stock)

	require.NoError(t, repo.ClearSales(ctx))
	sales, err := repo.LoadSales(ctx)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestOfflineQueue_FIFOAndAck(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupLedgerPostgresContainer(t)
	defer cleanup()

	queue := NewOfflineQueue(db)
	ctx := context.Background()

	first := domain.NewAction(domain.ActionDeleteProduct, time.Now())
	first.ProductID = "p1"
	second := domain.NewAction(domain.ActionAddProduct, time.Now())
	second.Product = domain.NewProduct("p2", "Gadget", decimal.NewFromInt(3), 1)

	require.NoError(t, queue.Enqueue(ctx, first))
	require.NoError(t, queue.Enqueue(ctx, second))
	require.NoError(t, queue.Enqueue(ctx, first))

	pending, err := queue.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, first.ID, pending[0].ID)
	assert.Equal(t, second.ID, pending[1].ID)
	require.NotNil(t, pending[1].Product)
	assert.Equal(t, "Gadget", pending[1].Product.Name)

	require.NoError(t, queue.Ack(ctx, first.ID))
	count, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestReplayLog_DetectsConflicts(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupLedgerPostgresContainer(t)
	defer cleanup()

	log := NewReplayLog(db)
	ctx := context.Background()

	record := ports.ReplayRecord{ActionID: "a1", ActionType: domain.ActionSale, Fingerprint: "f1", Outcome: ports.ReplayApplied, AppliedAt: time.Now()}
	_, err := log.Save(ctx, record)
	require.NoError(t, err)

	again, err := log.Save(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, "f1", again.Fingerprint)

	record.Fingerprint = "f2"
	_, err = log.Save(ctx, record)
	assert.ErrorIs(t, err, ports.ErrReplayConflict)

	missing, err := log.Get(ctx, "unknown")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSessionStore_RoundTripAndPurge(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db, cleanup := setupLedgerPostgresContainer(t)
	defer cleanup()

	store := NewSessionStore(db, "till-1", time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Identity{UserID: "u1", UserName: "Ana", Token: "t"}))
	identity, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, identity)
	assert.Equal(t, "u1", identity.UserID)

	store.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	identity, err = store.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, identity)

	purged, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
}

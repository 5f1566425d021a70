package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-pos-ledger/internal/clients/http/posbackend"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/memory"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

const testToken = "secret"

// fakeBackend mimics the POS backend routes with gin.
type fakeBackend struct {
	mu       sync.Mutex
	products map[string]map[string]any
	sales    []map[string]any
	pending  []map[string]any
	patches  []map[string]any
	status   int
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{products: map[string]map[string]any{}}
}

func (f *fakeBackend) router() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		f.mu.Lock()
		forced := f.status
		f.mu.Unlock()
		if forced != 0 {
			c.AbortWithStatusJSON(forced, gin.H{"error": "forced"})
			return
		}
		if c.GetHeader("Authorization") != "Bearer "+testToken {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		c.Next()
	})
	r.GET("/api/products", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		out := make([]map[string]any, 0, len(f.products))
		for _, p := range f.products {
			out = append(out, p)
		}
		c.JSON(http.StatusOK, out)
	})
	r.POST("/api/products", func(c *gin.Context) {
		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		id, _ := body["id"].(string)
		if _, exists := f.products[id]; exists {
			duplicateKey(c)
			return
		}
		f.products[id] = body
		c.JSON(http.StatusOK, body)
	})
	r.PATCH("/api/products/:id", func(c *gin.Context) {
		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		body["id"] = c.Param("id")
		f.products[c.Param("id")] = body
		f.patches = append(f.patches, body)
		c.JSON(http.StatusOK, gin.H{"message": "Product updated"})
	})
	r.DELETE("/api/products/:id", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if _, ok := f.products[c.Param("id")]; !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
			return
		}
		delete(f.products, c.Param("id"))
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
	})
	r.GET("/api/sales", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c.JSON(http.StatusOK, append([]map[string]any{}, f.sales...))
	})
	r.POST("/api/sales", func(c *gin.Context) {
		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, s := range f.sales {
			if s["id"] == body["id"] {
				duplicateKey(c)
				return
			}
		}
		f.sales = append(f.sales, body)
		c.JSON(http.StatusOK, body)
	})
	r.GET("/api/pending-orders", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		c.JSON(http.StatusOK, append([]map[string]any{}, f.pending...))
	})
	r.POST("/api/pending-orders", func(c *gin.Context) {
		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			return
		}
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, o := range f.pending {
			if o["id"] == body["id"] {
				duplicateKey(c)
				return
			}
		}
		f.pending = append(f.pending, body)
		c.JSON(http.StatusOK, body)
	})
	r.DELETE("/api/pending-orders/:id", func(c *gin.Context) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for i, o := range f.pending {
			if o["id"] == c.Param("id") {
				f.pending = append(f.pending[:i], f.pending[i+1:]...)
				c.JSON(http.StatusOK, gin.H{"message": "Pending order deleted"})
				return
			}
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

// duplicateKey answers the way the backend does when an insert hits an existing primary key:
// the database error escapes as an HTML 500.
func duplicateKey(c *gin.Context) {
	c.Data(http.StatusInternalServerError, "text/html; charset=utf-8", []byte("<h1>Internal Server Error</h1>"))
}

func (f *fakeBackend) forceStatus(code int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = code
}

func newTestRepository(t *testing.T, backend *fakeBackend, token string) (*Repository, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(backend.router())
	t.Cleanup(server.Close)

	sessions := memory.NewSessionStore()
	if token != "" {
		require.NoError(t, sessions.Save(context.Background(), domain.Identity{UserID: "u1", UserName: "Ana", Token: token}))
	}
	client, err := posbackend.NewClient(server.URL, posbackend.WithTokenSource(TokenFromSessions(sessions)))
	require.NoError(t, err)
	return NewRepository(client), server
}

func sampleSale(t *testing.T, status domain.SaleStatus) *domain.Sale {
	t.Helper()
	sale, err := domain.NewSale([]domain.CartLine{{
		ProductID:   "p1",
		ProductName: "Widget",
		Price:       decimal.NewFromInt(10),
		Quantity:    2,
	}}, status, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	sale.UserID = "u1"
	sale.UserName = "Ana"
	return sale
}

func TestRepository_LoadProductsCoercesNumbers(t *testing.T) {
	backend := newFakeBackend()
	backend.products["p1"] = map[string]any{"id": "p1", "name": "Widget", "price": "12.50", "stock": "4", "category": nil}
	backend.products["p2"] = map[string]any{"id": "p2", "name": "Broken", "price": -3, "stock": "lots"}
	repo, _ := newTestRepository(t, backend, testToken)

	products, err := repo.LoadProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 2)

	byID := map[string]*domain.Product{}
	for _, p := range products {
		byID[p.ID] = p
	}
	assert.True(t, decimal.RequireFromString("12.5").Equal(byID["p1"].Price))
	assert.Equal(t, 4, byID["p1"].Stock)
	assert.Equal(t, "", byID["p1"].Category)
	assert.True(t, byID["p2"].Price.IsZero())
	assert.Equal(t, 0, byID["p2"].Stock)
}

func TestRepository_CreateAndPatchProduct(t *testing.T) {
	backend := newFakeBackend()
	repo, _ := newTestRepository(t, backend, testToken)
	ctx := context.Background()

	product := domain.NewProduct("p1", "Widget", decimal.NewFromInt(10), 5)
	product.Category = "Tools"
	saved, err := repo.CreateProduct(ctx, product)
	require.NoError(t, err)
	assert.Equal(t, "p1", saved.ID)

	_, err = repo.CreateProduct(ctx, product)
	assert.ErrorIs(t, err, ports.ErrAlreadyExists)

	stock := 9
	patched, err := repo.PatchProduct(ctx, "p1", domain.ProductPatch{Stock: &stock})
	require.NoError(t, err)
	assert.Equal(t, 9, patched.Stock)
	assert.Equal(t, "Widget", patched.Name)

	require.Len(t, backend.patches, 1)
	assert.Equal(t, "Widget", backend.patches[0]["name"])
	assert.Equal(t, "Tools", backend.patches[0]["category"])
	assert.EqualValues(t, 9, backend.patches[0]["stock"])

	_, err = repo.PatchProduct(ctx, "ghost", domain.ProductPatch{Stock: &stock})
	assert.ErrorIs(t, err, ports.ErrNotFound)

	assert.ErrorIs(t, repo.DeleteProduct(ctx, "ghost"), ports.ErrNotFound)
	require.NoError(t, repo.DeleteProduct(ctx, "p1"))
}

func TestRepository_ErrorMapping(t *testing.T) {
	ctx := context.Background()

	t.Run("missing token is unauthorized", func(t *testing.T) {
		repo, _ := newTestRepository(t, newFakeBackend(), "")
		_, err := repo.LoadProducts(ctx)
		assert.ErrorIs(t, err, ports.ErrUnauthorized)
	})

	t.Run("server error is unavailable", func(t *testing.T) {
		backend := newFakeBackend()
		backend.forceStatus(http.StatusBadGateway)
		repo, _ := newTestRepository(t, backend, testToken)
		_, err := repo.LoadSales(ctx)
		assert.ErrorIs(t, err, ports.ErrUnavailable)
	})

	t.Run("unreachable backend is unavailable", func(t *testing.T) {
		repo, server := newTestRepository(t, newFakeBackend(), testToken)
		server.Close()
		_, err := repo.LoadPendingOrders(ctx)
		assert.ErrorIs(t, err, ports.ErrUnavailable)
	})

	t.Run("unsupported route is a plain error", func(t *testing.T) {
		repo, _ := newTestRepository(t, newFakeBackend(), testToken)
		err := repo.ClearSales(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ports.ErrUnavailable)
		assert.NotErrorIs(t, err, ports.ErrUnauthorized)
	})
}

func TestRepository_LoadSalesSplitsStatuses(t *testing.T) {
	backend := newFakeBackend()
	backend.sales = []map[string]any{
		{"id": "s1", "date": "2024-05-10T12:00:00.000Z", "status": "Paid", "total": "99",
			"items": []map[string]any{{"productId": "p1", "productName": "Widget", "price": "10", "quantity": 2}}},
		{"id": "s2", "date": "2024-05-10T12:00:00Z", "status": "pending",
			"items": []map[string]any{{"productId": "p1", "price": 10, "quantity": 1}}},
	}
	repo, _ := newTestRepository(t, backend, testToken)

	sales, err := repo.LoadSales(context.Background())
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "s1", sales[0].ID)
	assert.Equal(t, domain.SaleStatusCompleted, sales[0].Status)
	assert.True(t, decimal.NewFromInt(20).Equal(sales[0].Total))
	require.NotNil(t, sales[0].CompletedAt)
	assert.Equal(t, time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC), *sales[0].CompletedAt)
}

func TestRepository_CompletePendingOrder(t *testing.T) {
	backend := newFakeBackend()
	repo, _ := newTestRepository(t, backend, testToken)
	ctx := context.Background()

	order := sampleSale(t, domain.SaleStatusPending)
	order.CustomerName = "Bob"
	_, err := repo.CreatePendingOrder(ctx, order)
	require.NoError(t, err)

	completed := order.Clone()
	require.NoError(t, completed.Complete("Card", time.Date(2024, 5, 10, 13, 0, 0, 0, time.UTC)))
	stored, err := repo.CompletePendingOrder(ctx, completed)
	require.NoError(t, err)
	assert.Equal(t, order.ID, stored.ID)

	pending, err := repo.LoadPendingOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	sales, err := repo.LoadSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "Card", sales[0].PaymentMethod)
	assert.Equal(t, "Bob", sales[0].CustomerName)

	_, err = repo.CompletePendingOrder(ctx, completed)
	assert.ErrorIs(t, err, ports.ErrAlreadyExists)

	unknown := sampleSale(t, domain.SaleStatusCompleted)
	_, err = repo.CompletePendingOrder(ctx, unknown)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_CompleteHealsHalfFinishedOrder(t *testing.T) {
	backend := newFakeBackend()
	repo, _ := newTestRepository(t, backend, testToken)
	ctx := context.Background()

	order := sampleSale(t, domain.SaleStatusPending)
	_, err := repo.CreatePendingOrder(ctx, order)
	require.NoError(t, err)
	completed := order.Clone()
	require.NoError(t, completed.Complete("", time.Now()))
	_, err = repo.CreateSale(ctx, completed)
	require.NoError(t, err)

	_, err = repo.CompletePendingOrder(ctx, completed)
	assert.ErrorIs(t, err, ports.ErrAlreadyExists)

	pending, err := repo.LoadPendingOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestRepository_LoadSalesAcceptsNumericUserID(t *testing.T) {
	backend := newFakeBackend()
	backend.sales = []map[string]any{
		{"id": "s1", "userId": 1, "userName": "Ana", "date": "2024-05-10T12:00:00Z", "status": "completed",
			"items": []map[string]any{{"productId": "p1", "price": 10, "quantity": 1}}},
	}
	repo, _ := newTestRepository(t, backend, testToken)
	ctx := context.Background()

	sales, err := repo.LoadSales(ctx)
	require.NoError(t, err)
	require.Len(t, sales, 1)
	assert.Equal(t, "1", sales[0].UserID)

	sale := sampleSale(t, domain.SaleStatusCompleted)
	sale.UserID = "42"
	_, err = repo.CreateSale(ctx, sale)
	require.NoError(t, err)
	require.Len(t, backend.sales, 2)
	assert.Equal(t, float64(42), backend.sales[1]["userId"])
}

func TestRepository_DuplicateInsertIsAlreadyExists(t *testing.T) {
	ctx := context.Background()

	t.Run("sale", func(t *testing.T) {
		repo, _ := newTestRepository(t, newFakeBackend(), testToken)
		sale := sampleSale(t, domain.SaleStatusCompleted)
		_, err := repo.CreateSale(ctx, sale)
		require.NoError(t, err)
		_, err = repo.CreateSale(ctx, sale)
		assert.ErrorIs(t, err, ports.ErrAlreadyExists)
		assert.NotErrorIs(t, err, ports.ErrUnavailable)
	})

	t.Run("pending order", func(t *testing.T) {
		repo, _ := newTestRepository(t, newFakeBackend(), testToken)
		order := sampleSale(t, domain.SaleStatusPending)
		_, err := repo.CreatePendingOrder(ctx, order)
		require.NoError(t, err)
		_, err = repo.CreatePendingOrder(ctx, order)
		assert.ErrorIs(t, err, ports.ErrAlreadyExists)
	})

	t.Run("server error without a row stays unavailable", func(t *testing.T) {
		backend := newFakeBackend()
		backend.forceStatus(http.StatusInternalServerError)
		repo, _ := newTestRepository(t, backend, testToken)
		_, err := repo.CreateSale(ctx, sampleSale(t, domain.SaleStatusCompleted))
		assert.ErrorIs(t, err, ports.ErrUnavailable)
		assert.NotErrorIs(t, err, ports.ErrAlreadyExists)
	})
}

func TestRepository_RequeuedSaleDrains(t *testing.T) {
	backend := newFakeBackend()
	repo, _ := newTestRepository(t, backend, testToken)
	ctx := context.Background()
	queue := memory.NewOfflineQueue()
	replayer := application.NewReplayer(repo, queue)

	sale := sampleSale(t, domain.SaleStatusCompleted)
	delivered := domain.NewAction(domain.ActionSale, sale.CreatedAt)
	delivered.Sale = sale
	require.NoError(t, queue.Enqueue(ctx, delivered))
	report, err := replayer.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Applied)

	// the acknowledgement was lost and the sale was queued again under a new action
	requeued := domain.NewAction(domain.ActionSale, sale.CreatedAt)
	requeued.Sale = sale.Clone()
	require.NoError(t, queue.Enqueue(ctx, requeued))
	report, err = replayer.Drain(ctx)
	require.NoError(t, err)
	assert.False(t, report.Stopped)
	assert.Equal(t, 1, report.Duplicates)

	remaining, err := queue.Len(ctx)
	require.NoError(t, err)
	assert.Zero(t, remaining)
	assert.Len(t, backend.sales, 1)
}

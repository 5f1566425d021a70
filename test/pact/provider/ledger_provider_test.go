//go:build pact
// +build pact

package provider_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	pacttest "github.com/Apurer/go-gin-pos-ledger/test/pact"

	posserver "github.com/Apurer/go-gin-pos-ledger/go"
	ledgermemory "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/memory"
	ledgerobs "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/observability"
	ledgerapp "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application"
	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"

	"github.com/gin-gonic/gin"
	"github.com/pact-foundation/pact-go/v2/models"
	pactprovider "github.com/pact-foundation/pact-go/v2/provider"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestLedgerProviderPact(t *testing.T) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	app := newContractProviderApp(t)
	pactFile := filepath.ToSlash(pacttest.PactFile(t))
	if _, err := os.Stat(pactFile); errors.Is(err, os.ErrNotExist) {
		t.Fatalf("pact file not found at %s - run the pact consumer tests first", pactFile)
	} else {
		require.NoError(t, err)
	}

	verifier := pactprovider.NewVerifier()
	stateHandlers := models.StateHandlers{
		pacttest.StateCatalogEmpty: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.resetCatalog(t)
			return nil, nil
		},
		pacttest.StateProductExists: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.resetCatalog(t)
			if setup {
				app.seedProduct(t)
			}
			return nil, nil
		},
		pacttest.StateProductMissing: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			app.resetCatalog(t)
			return nil, nil
		},
		pacttest.StateLedgerOnline: func(setup bool, _ models.ProviderState) (models.ProviderStateResponse, error) {
			return nil, nil
		},
	}

	err := verifier.VerifyProvider(t, pactprovider.VerifyRequest{
		ProviderBaseURL: app.server.URL,
		Provider:        pacttest.ProviderName,
		PactFiles:       []string{pactFile},
		StateHandlers:   stateHandlers,
		BeforeEach: func() error {
			app.resetCatalog(t)
			return nil
		},
	})
	require.NoError(t, err)
}

type contractProviderApp struct {
	service ports.Service
	server  *httptest.Server
}

func newContractProviderApp(t testing.TB) *contractProviderApp {
	t.Helper()

	ledger := ledgerapp.NewLedger(ledgermemory.NewStore(), ledgerapp.WithOfflineQueue(ledgermemory.NewOfflineQueue()))
	require.NoError(t, ledger.Start(context.Background()))
	service := ledgerobs.New(ledger)

	handlers := posserver.ApiHandleFunctions{
		ProductAPI: posserver.NewProductAPI(service),
		CartAPI:    posserver.NewCartAPI(service),
		SaleAPI:    posserver.NewSaleAPI(service),
		SessionAPI: posserver.NewSessionAPI(service),
		SyncAPI:    posserver.NewSyncAPI(service, nil),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router = posserver.NewRouterWithGinEngine(router, handlers)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &contractProviderApp{
		service: service,
		server:  server,
	}
}

func (a *contractProviderApp) resetCatalog(t testing.TB) {
	t.Helper()
	ctx := context.Background()
	products, err := a.service.ListProducts(ctx)
	require.NoError(t, err)
	for _, product := range products {
		_, err := a.service.DeleteProduct(ctx, ledgertypes.ProductIdentifier{ID: product.ID})
		require.NoError(t, err)
	}
}

func (a *contractProviderApp) seedProduct(t testing.TB) {
	t.Helper()
	_, err := a.service.AddProduct(context.Background(), ledgertypes.AddProductInput{
		ID:    pacttest.ExistingProductID,
		Name:  pacttest.ProductName,
		Price: decimal.RequireFromString("4.50"),
		Stock: 12,
	})
	require.NoError(t, err)
}

//go:build pact
// +build pact

package consumer_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	pacttest "github.com/Apurer/go-gin-pos-ledger/test/pact"

	pactconsumer "github.com/pact-foundation/pact-go/v2/consumer"
	"github.com/pact-foundation/pact-go/v2/matchers"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-pos-ledger/internal/clients/http/posbackend"
	ledgerrest "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/adapters/persistence/rest"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

func exampleSale(t *testing.T) *domain.Sale {
	t.Helper()
	at, err := time.Parse(time.RFC3339, pacttest.ExampleSaleDate)
	require.NoError(t, err)
	sale, err := domain.NewSale([]domain.CartLine{{
		ProductID:   pacttest.ExistingProductID,
		ProductName: pacttest.ProductName,
		Price:       decimal.RequireFromString("4.5"),
		Quantity:    2,
	}}, domain.SaleStatusCompleted, at)
	require.NoError(t, err)
	sale.ID = pacttest.ExampleSaleID
	sale.UserID = "7"
	sale.UserName = "Ana"
	sale.PaymentMethod = "Cash"
	return sale
}

func TestLedgerBackendContract(t *testing.T) {
	t.Helper()

	pact, err := pactconsumer.NewV2Pact(pactconsumer.MockHTTPProviderConfig{
		Consumer: pacttest.BackendConsumerName,
		Provider: pacttest.BackendProviderName,
		PactDir:  pacttest.PactDir(t),
		LogDir:   pacttest.LogDir(t),
	})
	require.NoError(t, err)

	bearer := matchers.Term("Bearer "+pacttest.BackendToken, `^Bearer \S+$`)
	lineMatcher := matchers.Map{
		"productId":   matchers.Like(pacttest.ExistingProductID),
		"productName": matchers.Like(pacttest.ProductName),
		"price":       matchers.Like(4.5),
		"quantity":    matchers.Like(2),
	}
	saleMatcher := matchers.Map{
		"id":            matchers.Like(pacttest.ExampleSaleID),
		"userId":        matchers.Like(7),
		"userName":      matchers.Like("Ana"),
		"paymentMethod": matchers.Like("Cash"),
		"customerName":  matchers.Like(""),
		"notes":         matchers.Like(""),
		"date":          matchers.Like(pacttest.ExampleSaleDate),
		"completedAt":   matchers.Like(pacttest.ExampleSaleDate),
		"items":         matchers.EachLike(lineMatcher, 1),
		"total":         matchers.Like(9),
		"status":        matchers.Term("completed", "completed|pending"),
	}

	pact.AddInteraction().
		Given(pacttest.StateBackendProducts).
		UponReceiving("a request for the catalog").
		WithRequest("GET", "/api/products", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearer)
		}).
		WillRespondWith(http.StatusOK, func(b *pactconsumer.V2ResponseBuilder) {
			b.JSONBody(matchers.EachLike(matchers.Map{
				"id":    matchers.Like(pacttest.ExistingProductID),
				"name":  matchers.Like(pacttest.ProductName),
				"price": matchers.Like("4.50"),
				"stock": matchers.Like(12),
			}, 1))
		})

	pact.AddInteraction().
		Given(pacttest.StateBackendNoSales).
		UponReceiving("a request to record a completed sale").
		WithRequest("POST", "/api/sales", func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearer)
			b.Header("Content-Type", matchers.S("application/json"))
			b.JSONBody(saleMatcher)
		}).
		WillRespondWith(http.StatusCreated, func(b *pactconsumer.V2ResponseBuilder) {
			b.JSONBody(saleMatcher)
		})

	pact.AddInteraction().
		Given(pacttest.StateBackendOrderMissing).
		UponReceiving("a request to delete a missing pending order").
		WithRequest("DELETE", "/api/pending-orders/"+pacttest.MissingOrderID, func(b *pactconsumer.V2RequestBuilder) {
			b.Header("Authorization", bearer)
		}).
		WillRespondWith(http.StatusNotFound, func(b *pactconsumer.V2ResponseBuilder) {
			b.JSONBody(matchers.Map{"error": matchers.Like("Pending order not found")})
		})

	err = pact.ExecuteTest(t, func(config pactconsumer.MockServerConfig) error {
		host := config.Host
		if host == "" {
			host = "localhost"
		}
		client, err := posbackend.NewClient(fmt.Sprintf("http://%s:%d", host, config.Port),
			posbackend.WithTokenSource(func(context.Context) (string, error) { return pacttest.BackendToken, nil }))
		if err != nil {
			return err
		}
		repo := ledgerrest.NewRepository(client)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		products, err := repo.LoadProducts(ctx)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		if len(products) == 0 || !products[0].Price.Equal(decimal.RequireFromString("4.5")) {
			return fmt.Errorf("expected a coerced price, got %+v", products)
		}

		if _, err := repo.CreateSale(ctx, exampleSale(t)); err != nil {
			return fmt.Errorf("create sale: %w", err)
		}

		if err := repo.DeletePendingOrder(ctx, pacttest.MissingOrderID); !errors.Is(err, ports.ErrNotFound) {
			return fmt.Errorf("expected not found, got %v", err)
		}
		return nil
	})
	require.NoError(t, err)
}

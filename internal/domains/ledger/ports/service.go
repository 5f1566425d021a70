package ports

import (
	"context"

	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
)

// Service defines the ledger use cases exposed to adapters (inbound/driving port).
type Service interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	SearchProducts(ctx context.Context, query string) ([]*domain.Product, error)
	AddProduct(ctx context.Context, input ledgertypes.AddProductInput) (*ledgertypes.ProductResult, error)
	UpdateProduct(ctx context.Context, input ledgertypes.UpdateProductInput) (*ledgertypes.ProductResult, error)
	DeleteProduct(ctx context.Context, input ledgertypes.ProductIdentifier) (*ledgertypes.CommandResult, error)

	Cart(ctx context.Context) (*ledgertypes.CartView, error)
	AddToCart(ctx context.Context, input ledgertypes.CartItemInput) (*ledgertypes.CartView, error)
	UpdateCartItemQuantity(ctx context.Context, input ledgertypes.CartItemInput) (*ledgertypes.CartView, error)
	RemoveFromCart(ctx context.Context, productID string) (*ledgertypes.CartView, error)
	ClearCart(ctx context.Context) error

	Checkout(ctx context.Context, input ledgertypes.CheckoutInput) (*ledgertypes.SaleResult, error)
	HoldOrder(ctx context.Context, input ledgertypes.HoldOrderInput) (*ledgertypes.SaleResult, error)
	CompleteOrder(ctx context.Context, input ledgertypes.CompleteOrderInput) (*ledgertypes.SaleResult, error)
	CancelOrder(ctx context.Context, input ledgertypes.OrderIdentifier) (*ledgertypes.CommandResult, error)
	ListSales(ctx context.Context) ([]*domain.Sale, error)
	ListPendingOrders(ctx context.Context) ([]*domain.Sale, error)
	ClearSales(ctx context.Context) error

	Report(ctx context.Context, input ledgertypes.ReportInput) (*ledgertypes.Report, error)
	SetLowStockThreshold(ctx context.Context, threshold int) error

	StartSession(ctx context.Context, identity domain.Identity) error
	EndSession(ctx context.Context) error
	Session(ctx context.Context) (*domain.Identity, error)

	SyncStatus(ctx context.Context) (*ledgertypes.SyncStatus, error)
	Replay(ctx context.Context) (*ledgertypes.ReplayReport, error)
	ReplayWith(ctx context.Context, drain DrainFunc) (*ledgertypes.ReplayReport, error)
	Resync(ctx context.Context) error
	ApplyRemoteSnapshot(ctx context.Context, snapshot Snapshot) error
}

// DrainFunc delivers the offline backlog to the backend and reports what happened.
type DrainFunc func(ctx context.Context) (*ledgertypes.ReplayReport, error)

// ReplayOrchestrator drains the offline queue, durably when a workflow engine is available.
type ReplayOrchestrator interface {
	Replay(ctx context.Context) (*ledgertypes.ReplayReport, error)
}

package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
)

var (
	// ErrNotFound signals the targeted record does not exist in the backend.
	ErrNotFound = errors.New("ledger record not found")
	// ErrAlreadyExists signals a create collided with an existing id.
	ErrAlreadyExists = errors.New("ledger record already exists")
	// ErrUnavailable signals the backend could not be reached; the caller may queue and retry.
	ErrUnavailable = errors.New("ledger backend unavailable")
	// ErrUnauthorized signals the backend rejected the session credentials.
	ErrUnauthorized = errors.New("ledger backend rejected credentials")
)

// Snapshot is the full state held by a backend.
type Snapshot struct {
	Products      []*domain.Product
	Sales         []*domain.Sale
	PendingOrders []*domain.Sale
}

// Persistence is the storage backend behind the ledger (outbound/driven port).
//
// CreateSale of a COMPLETED sale also decrements stock for each line, clamped at zero,
// in the same unit of work. CompletePendingOrder stores the completed sale under the
// pending order's id, decrements stock and removes the pending order.
type Persistence interface {
	LoadProducts(ctx context.Context) ([]*domain.Product, error)
	LoadSales(ctx context.Context) ([]*domain.Sale, error)
	LoadPendingOrders(ctx context.Context) ([]*domain.Sale, error)
	CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error)
	PatchProduct(ctx context.Context, id string, patch domain.ProductPatch) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	CreateSale(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
	DeleteSale(ctx context.Context, id string) error
	ClearSales(ctx context.Context) error
	CreatePendingOrder(ctx context.Context, order *domain.Sale) (*domain.Sale, error)
	DeletePendingOrder(ctx context.Context, id string) error
	CompletePendingOrder(ctx context.Context, sale *domain.Sale) (*domain.Sale, error)
}

// LoadSnapshot reads products, sales and pending orders from p.
func LoadSnapshot(ctx context.Context, p Persistence) (Snapshot, error) {
	products, err := p.LoadProducts(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	sales, err := p.LoadSales(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	pending, err := p.LoadPendingOrders(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Products: products, Sales: sales, PendingOrders: pending}, nil
}

package types

import (
	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/shared/projection"
)

// AddProductInput describes a new catalog item. Numbers are already coerced by the transport.
type AddProductInput struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Stock    int
	Category string
	SKU      string
	ImageURL string
}

// UpdateProductInput merges Patch into the product identified by ID.
type UpdateProductInput struct {
	ID    string
	Patch domain.ProductPatch
}

// ProductIdentifier targets a single product.
type ProductIdentifier struct {
	ID string
}

// CartItemInput targets a cart line.
type CartItemInput struct {
	ProductID string
	Quantity  int
}

// CheckoutInput converts the active cart into a completed sale.
type CheckoutInput struct {
	PaymentMethod string
}

// HoldOrderInput parks the active cart as a pending order.
type HoldOrderInput struct {
	CustomerName string
	Notes        string
}

// CompleteOrderInput finalizes a pending order.
type CompleteOrderInput struct {
	OrderID       string
	PaymentMethod string
}

// OrderIdentifier targets a pending order.
type OrderIdentifier struct {
	ID string
}

// ProductResult is a product plus its persistence metadata.
type ProductResult = projection.Projection[*domain.Product]

// SaleResult is a sale plus its persistence metadata.
type SaleResult = projection.Projection[*domain.Sale]

// CommandResult reports the outcome of a command that returns no entity.
// Applied is false when the target did not exist and the command was a no-op.
type CommandResult struct {
	Applied  bool
	Metadata projection.Metadata
}

// CartView is a read model of the active cart.
type CartView struct {
	Lines     []domain.CartLine
	Total     decimal.Decimal
	ItemCount int
}

package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidQuantity   = errors.New("quantity must be greater than zero")
	ErrOutOfStock        = errors.New("product is out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrProductNotFound   = errors.New("product not found")
	ErrOrderNotFound     = errors.New("pending order not found")
	ErrInvalidStatus     = errors.New("sale status is invalid")
	ErrSaleNotPending    = errors.New("sale is not pending")
	ErrInvalidThreshold  = errors.New("low stock threshold must be greater or equal to zero")
	ErrInvalidAction     = errors.New("offline action is invalid")
)

// Shortfall describes one cart line that cannot be covered by live stock.
type Shortfall struct {
	ProductID   string
	ProductName string
	Requested   int
	Available   int
}

// InsufficientStockError lists every line that exceeded the stock on hand.
// It matches ErrInsufficientStock through errors.Is.
type InsufficientStockError struct {
	Shortfalls []Shortfall
}

func (e *InsufficientStockError) Error() string {
	if e == nil || len(e.Shortfalls) == 0 {
		return ErrInsufficientStock.Error()
	}
	parts := make([]string, 0, len(e.Shortfalls))
	for _, s := range e.Shortfalls {
		name := s.ProductName
		if name == "" {
			name = s.ProductID
		}
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", name, s.Requested, s.Available))
	}
	return fmt.Sprintf("%s: %s", ErrInsufficientStock.Error(), strings.Join(parts, ", "))
}

func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

func insufficient(shortfalls ...Shortfall) error {
	return &InsufficientStockError{Shortfalls: shortfalls}
}

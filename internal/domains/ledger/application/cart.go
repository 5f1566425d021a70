package application

import (
	"context"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
)

// Cart returns the active cart.
func (l *Ledger) Cart(_ context.Context) (*types.CartView, error) {
	var view *types.CartView
	l.read(func(s *ledgerState) {
		view = cartView(s.cart)
	})
	return view, nil
}

// AddToCart adds units of a product, never exceeding its live stock.
func (l *Ledger) AddToCart(_ context.Context, input types.CartItemInput) (*types.CartView, error) {
	return l.updateCart(func(s *ledgerState) error {
		if input.Quantity <= 0 {
			return domain.ErrInvalidQuantity
		}
		product := s.lookup(input.ProductID)
		if product == nil {
			return domain.ErrProductNotFound
		}
		return s.cart.Add(product, input.Quantity)
	})
}

// UpdateCartItemQuantity sets a line quantity; zero or less removes the line.
func (l *Ledger) UpdateCartItemQuantity(_ context.Context, input types.CartItemInput) (*types.CartView, error) {
	return l.updateCart(func(s *ledgerState) error {
		return s.cart.SetQuantity(s.lookup(input.ProductID), input.ProductID, input.Quantity)
	})
}

// RemoveFromCart drops a line. Missing lines are ignored.
func (l *Ledger) RemoveFromCart(_ context.Context, productID string) (*types.CartView, error) {
	return l.updateCart(func(s *ledgerState) error {
		s.cart.Remove(productID)
		return nil
	})
}

// ClearCart empties the cart.
func (l *Ledger) ClearCart(_ context.Context) error {
	_, err := l.updateCart(func(s *ledgerState) error {
		s.cart.Clear()
		return nil
	})
	return err
}

func (l *Ledger) updateCart(fn func(*ledgerState) error) (*types.CartView, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	if _, err := l.mutate(fn); err != nil {
		return nil, mapError(err)
	}
	var view *types.CartView
	l.read(func(s *ledgerState) {
		view = cartView(s.cart)
	})
	return view, nil
}

func cartView(cart *domain.Cart) *types.CartView {
	lines := cart.Lines()
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return &types.CartView{Lines: lines, Total: domain.ComputeTotal(lines), ItemCount: count}
}

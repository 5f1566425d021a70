package application

import (
	"context"
	"strings"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/shared/projection"
)

// Checkout turns the active cart into a completed sale, decrementing stock.
func (l *Ledger) Checkout(ctx context.Context, input types.CheckoutInput) (*types.SaleResult, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	actor := l.currentIdentity()
	if actor == nil || actor.IsZero() {
		return nil, ErrNoActor
	}
	var sale *domain.Sale
	before, err := l.mutate(func(s *ledgerState) error {
		if s.cart.IsEmpty() {
			return domain.ErrEmptyCart
		}
		lines := s.cart.Lines()
		if err := domain.CheckStock(s.lookup, lines); err != nil {
			return err
		}
		created, err := domain.NewSale(lines, domain.SaleStatusCompleted, l.now())
		if err != nil {
			return err
		}
		created.PaymentMethod = paymentMethodOrDefault(input.PaymentMethod)
		created.UserID = actor.UserID
		created.UserName = actor.UserName
		s.decrementStock(lines)
		s.sales = append(s.sales, created.Clone())
		s.cart.Clear()
		sale = created
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	action := domain.NewAction(domain.ActionSale, l.now())
	action.Sale = sale.Clone()
	outcome, err := l.commit(ctx, before, action, commitPolicy{queueable: true}, func(ctx context.Context) error {
		_, err := l.persistence.CreateSale(ctx, sale.Clone())
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return projection.New(sale, outcome.metadata(l)), nil
}

// HoldOrder parks the active cart as a pending order without touching stock.
func (l *Ledger) HoldOrder(ctx context.Context, input types.HoldOrderInput) (*types.SaleResult, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	actor := l.currentIdentity()
	var order *domain.Sale
	before, err := l.mutate(func(s *ledgerState) error {
		if s.cart.IsEmpty() {
			return domain.ErrEmptyCart
		}
		created, err := domain.NewSale(s.cart.Lines(), domain.SaleStatusPending, l.now())
		if err != nil {
			return err
		}
		created.CustomerName = strings.TrimSpace(input.CustomerName)
		created.Notes = strings.TrimSpace(input.Notes)
		if actor != nil {
			created.UserID = actor.UserID
			created.UserName = actor.UserName
		}
		s.pending = append(s.pending, created.Clone())
		s.cart.Clear()
		order = created
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	action := domain.NewAction(domain.ActionHoldOrder, l.now())
	action.OrderID = order.ID
	action.Sale = order.Clone()
	outcome, err := l.commit(ctx, before, action, commitPolicy{queueable: true}, func(ctx context.Context) error {
		_, err := l.persistence.CreatePendingOrder(ctx, order.Clone())
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return projection.New(order, outcome.metadata(l)), nil
}

// CompleteOrder re-validates a pending order against live stock and completes it.
// On a shortfall nothing changes.
func (l *Ledger) CompleteOrder(ctx context.Context, input types.CompleteOrderInput) (*types.SaleResult, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	actor := l.currentIdentity()
	var completed *domain.Sale
	before, err := l.mutate(func(s *ledgerState) error {
		idx, order := s.findPending(input.OrderID)
		if order == nil {
			return domain.ErrOrderNotFound
		}
		if err := domain.CheckStock(s.lookup, order.Items); err != nil {
			return err
		}
		sale := order.Clone()
		if err := sale.Complete(input.PaymentMethod, l.now()); err != nil {
			return err
		}
		if sale.UserID == "" && actor != nil {
			sale.UserID = actor.UserID
			sale.UserName = actor.UserName
		}
		s.decrementStock(sale.Items)
		s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
		s.sales = append(s.sales, sale.Clone())
		completed = sale
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	action := domain.NewAction(domain.ActionCompleteOrder, l.now())
	action.OrderID = completed.ID
	action.Sale = completed.Clone()
	outcome, err := l.commit(ctx, before, action, commitPolicy{queueable: true}, func(ctx context.Context) error {
		_, err := l.persistence.CompletePendingOrder(ctx, completed.Clone())
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return projection.New(completed, outcome.metadata(l)), nil
}

// CancelOrder discards a pending order. Unknown ids are a silent no-op.
func (l *Ledger) CancelOrder(ctx context.Context, input types.OrderIdentifier) (*types.CommandResult, error) {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	found := false
	before, err := l.mutate(func(s *ledgerState) error {
		idx, order := s.findPending(input.ID)
		if order == nil {
			return nil
		}
		found = true
		s.pending = append(s.pending[:idx], s.pending[idx+1:]...)
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	if !found {
		return &types.CommandResult{Applied: false}, nil
	}
	action := domain.NewAction(domain.ActionCancelOrder, l.now())
	action.OrderID = input.ID
	outcome, err := l.commit(ctx, before, action, commitPolicy{queueable: true, silentNotFound: true}, func(ctx context.Context) error {
		return l.persistence.DeletePendingOrder(ctx, input.ID)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &types.CommandResult{Applied: true, Metadata: outcome.metadata(l)}, nil
}

// ClearSales deletes every completed sale. Pending orders are kept. It is never queued:
// any backend failure rolls the local clear back, and it is refused while offline actions
// are waiting.
func (l *Ledger) ClearSales(ctx context.Context) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return err
	}
	pending, err := l.backlog(ctx)
	if err != nil {
		return err
	}
	if pending > 0 {
		return ErrSyncPending
	}
	before, err := l.mutate(func(s *ledgerState) error {
		s.sales = nil
		return nil
	})
	if err != nil {
		return mapError(err)
	}
	action := domain.NewAction(domain.ActionClearSales, l.now())
	_, err = l.commit(ctx, before, action, commitPolicy{}, func(ctx context.Context) error {
		return l.persistence.ClearSales(ctx)
	})
	return mapError(err)
}

// ListSales returns completed sales in creation order.
func (l *Ledger) ListSales(_ context.Context) ([]*domain.Sale, error) {
	var out []*domain.Sale
	l.read(func(s *ledgerState) {
		out = cloneSales(s.sales)
	})
	return out, nil
}

// ListPendingOrders returns held orders in creation order.
func (l *Ledger) ListPendingOrders(_ context.Context) ([]*domain.Sale, error) {
	var out []*domain.Sale
	l.read(func(s *ledgerState) {
		out = cloneSales(s.pending)
	})
	return out, nil
}

func paymentMethodOrDefault(method string) string {
	method = strings.TrimSpace(method)
	if method == "" {
		return domain.DefaultPaymentMethod
	}
	return method
}

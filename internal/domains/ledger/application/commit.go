package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
	"github.com/Apurer/go-gin-pos-ledger/internal/shared/projection"
)

type commitPolicy struct {
	// queueable actions are parked in the offline queue when the backend is unreachable.
	queueable bool
	// silentNotFound treats a missing backend record as success.
	silentNotFound bool
}

type commitOutcome struct {
	queued   bool
	actionID string
}

func (o commitOutcome) metadata(l *Ledger) projection.Metadata {
	now := l.now().UTC()
	return projection.Metadata{CreatedAt: now, UpdatedAt: now, Queued: o.queued, ActionID: o.actionID}
}

// commit pushes an already applied local mutation to the backend.
//
// Failure handling per class:
//   - unreachable backend: the local change stays and the action is queued (rolled back without a queue)
//   - rejected credentials: rolled back and the identity is cleared
//   - missing record: success when policy.silentNotFound is set
//   - anything else: rolled back
//
// While the queue holds actions every queueable mutation goes straight to the queue so replay
// preserves order.
func (l *Ledger) commit(ctx context.Context, before ledgerState, action domain.Action, policy commitPolicy, persist func(context.Context) error) (commitOutcome, error) {
	if policy.queueable && l.queue != nil {
		pending, err := l.backlog(ctx)
		if err != nil {
			l.restore(before)
			return commitOutcome{}, fmt.Errorf("inspect offline queue: %w", err)
		}
		if pending > 0 {
			return l.enqueue(ctx, before, action)
		}
	}

	err := persist(ctx)
	switch {
	case err == nil:
		l.setOnline(true, nil)
		return commitOutcome{}, nil
	case policy.silentNotFound && errors.Is(err, ports.ErrNotFound):
		l.setOnline(true, nil)
		return commitOutcome{}, nil
	case errors.Is(err, ports.ErrUnavailable):
		l.setOnline(false, err)
		if policy.queueable && l.queue != nil {
			return l.enqueue(ctx, before, action)
		}
		l.restore(before)
		return commitOutcome{}, err
	case errors.Is(err, ports.ErrUnauthorized):
		l.restore(before)
		l.dropIdentity(ctx)
		l.logger.WarnContext(ctx, "backend rejected credentials, session cleared",
			slog.String("action.type", string(action.Type)))
		return commitOutcome{}, err
	default:
		l.restore(before)
		return commitOutcome{}, fmt.Errorf("persist %s: %w", action.Type, err)
	}
}

func (l *Ledger) enqueue(ctx context.Context, before ledgerState, action domain.Action) (commitOutcome, error) {
	if err := action.Validate(); err != nil {
		l.restore(before)
		return commitOutcome{}, err
	}
	if err := l.queue.Enqueue(ctx, action); err != nil {
		l.restore(before)
		return commitOutcome{}, fmt.Errorf("enqueue offline action: %w", err)
	}
	l.stateMu.Lock()
	l.changes.record(action)
	l.online = false
	l.stateMu.Unlock()
	l.logger.InfoContext(ctx, "action queued for replay",
		slog.String("action.id", action.ID),
		slog.String("action.type", string(action.Type)),
		slog.String("action.subject", action.Subject()))
	return commitOutcome{queued: true, actionID: action.ID}, nil
}

// localChanges remembers which entities were changed locally and are not yet acknowledged by
// the backend. Remote snapshots never overwrite them.
type localChanges struct {
	dirtyFields     map[string]map[string]struct{}
	createdProducts map[string]struct{}
	deletedProducts map[string]struct{}
	createdSales    map[string]struct{}
	createdOrders   map[string]struct{}
	removedOrders   map[string]struct{}
}

func newLocalChanges() localChanges {
	return localChanges{
		dirtyFields:     map[string]map[string]struct{}{},
		createdProducts: map[string]struct{}{},
		deletedProducts: map[string]struct{}{},
		createdSales:    map[string]struct{}{},
		createdOrders:   map[string]struct{}{},
		removedOrders:   map[string]struct{}{},
	}
}

func (c *localChanges) empty() bool {
	return len(c.dirtyFields) == 0 &&
		len(c.createdProducts) == 0 &&
		len(c.deletedProducts) == 0 &&
		len(c.createdSales) == 0 &&
		len(c.createdOrders) == 0 &&
		len(c.removedOrders) == 0
}

func (c *localChanges) markDirty(productID string, fields ...string) {
	set, ok := c.dirtyFields[productID]
	if !ok {
		set = map[string]struct{}{}
		c.dirtyFields[productID] = set
	}
	for _, f := range fields {
		set[f] = struct{}{}
	}
}

func (c *localChanges) record(action domain.Action) {
	switch action.Type {
	case domain.ActionAddProduct:
		if action.Product != nil {
			c.createdProducts[action.Product.ID] = struct{}{}
		}
	case domain.ActionUpdateProduct:
		if action.Patch != nil {
			c.markDirty(action.ProductID, action.Patch.Fields()...)
		}
	case domain.ActionDeleteProduct:
		c.deletedProducts[action.ProductID] = struct{}{}
		delete(c.createdProducts, action.ProductID)
		delete(c.dirtyFields, action.ProductID)
	case domain.ActionSale:
		if action.Sale != nil {
			c.createdSales[action.Sale.ID] = struct{}{}
			for _, id := range action.Sale.ProductIDs() {
				c.markDirty(id, domain.FieldStock)
			}
		}
	case domain.ActionHoldOrder:
		if action.Sale != nil {
			c.createdOrders[action.Sale.ID] = struct{}{}
		}
	case domain.ActionCompleteOrder:
		if action.Sale != nil {
			c.removedOrders[action.Sale.ID] = struct{}{}
			c.createdSales[action.Sale.ID] = struct{}{}
			for _, id := range action.Sale.ProductIDs() {
				c.markDirty(id, domain.FieldStock)
			}
		}
	case domain.ActionCancelOrder:
		c.removedOrders[action.OrderID] = struct{}{}
		delete(c.createdOrders, action.OrderID)
	}
}

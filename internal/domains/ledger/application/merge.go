package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

// Resync reloads the backend snapshot and merges it into the local state.
func (l *Ledger) Resync(ctx context.Context) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return err
	}
	return l.resyncLocked(ctx)
}

// ApplyRemoteSnapshot merges a snapshot pushed by the backend. Remote values win for every
// field that has no unacknowledged local change.
func (l *Ledger) ApplyRemoteSnapshot(ctx context.Context, snapshot ports.Snapshot) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return err
	}
	l.applySnapshotLocked(ctx, snapshot)
	return nil
}

func (l *Ledger) resyncLocked(ctx context.Context) error {
	snapshot, err := ports.LoadSnapshot(ctx, l.persistence)
	if err != nil {
		if errors.Is(err, ports.ErrUnavailable) {
			l.setOnline(false, err)
		}
		return err
	}
	pending, err := l.backlog(ctx)
	if err != nil {
		return fmt.Errorf("inspect offline queue: %w", err)
	}
	if pending == 0 {
		l.stateMu.Lock()
		l.changes = newLocalChanges()
		l.stateMu.Unlock()
	}
	l.applySnapshotLocked(ctx, snapshot)
	l.setOnline(true, nil)
	return nil
}

func (l *Ledger) applySnapshotLocked(ctx context.Context, snapshot ports.Snapshot) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	changes := &l.changes
	current := &l.state

	products := make([]*domain.Product, 0, len(snapshot.Products))
	seen := map[string]struct{}{}
	for _, remote := range snapshot.Products {
		if remote == nil {
			continue
		}
		if _, deleted := changes.deletedProducts[remote.ID]; deleted {
			continue
		}
		merged := remote.Clone()
		if local := current.lookup(remote.ID); local != nil {
			for field := range changes.dirtyFields[remote.ID] {
				merged.CopyField(field, local)
			}
		}
		products = append(products, merged)
		seen[remote.ID] = struct{}{}
	}
	for _, local := range current.products {
		if _, ok := seen[local.ID]; ok {
			continue
		}
		if _, created := changes.createdProducts[local.ID]; created {
			products = append(products, local.Clone())
		}
	}
	current.products = products
	current.cart.Retain(func(id string) bool {
		return current.lookup(id) != nil
	})

	current.sales = mergeSales(snapshot.Sales, current.sales, nil, changes.createdSales)
	current.pending = mergeSales(snapshot.PendingOrders, current.pending, changes.removedOrders, changes.createdOrders)

	l.logger.DebugContext(ctx, "remote snapshot applied",
		slog.Int("products", len(current.products)),
		slog.Int("sales", len(current.sales)),
		slog.Int("pending", len(current.pending)))
}

// mergeSales keeps remote records minus locally removed ones, then appends local creations the
// backend has not seen yet.
func mergeSales(remote, local []*domain.Sale, removed, created map[string]struct{}) []*domain.Sale {
	out := make([]*domain.Sale, 0, len(remote))
	seen := map[string]struct{}{}
	for _, sale := range remote {
		if sale == nil {
			continue
		}
		if _, gone := removed[sale.ID]; gone {
			continue
		}
		out = append(out, sale.Clone())
		seen[sale.ID] = struct{}{}
	}
	for _, sale := range local {
		if _, ok := seen[sale.ID]; ok {
			continue
		}
		if _, mine := created[sale.ID]; mine {
			out = append(out, sale.Clone())
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

package memory

import (
	"context"
	"sync"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

var _ ports.OfflineQueue = (*OfflineQueue)(nil)

// OfflineQueue keeps queued actions in process memory. Actions are lost on restart.
type OfflineQueue struct {
	mu      sync.Mutex
	actions []domain.Action
}

func NewOfflineQueue() *OfflineQueue {
	return &OfflineQueue{}
}

func (q *OfflineQueue) Enqueue(_ context.Context, action domain.Action) error {
	if err := action.Validate(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, queued := range q.actions {
		if queued.ID == action.ID {
			return nil
		}
	}
	q.actions = append(q.actions, cloneAction(action))
	return nil
}

func (q *OfflineQueue) Pending(_ context.Context) ([]domain.Action, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]domain.Action, 0, len(q.actions))
	for _, action := range q.actions {
		out = append(out, cloneAction(action))
	}
	return out, nil
}

func (q *OfflineQueue) Ack(_ context.Context, actionID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, action := range q.actions {
		if action.ID == actionID {
			q.actions = append(q.actions[:i], q.actions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (q *OfflineQueue) Len(_ context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.actions), nil
}

func cloneAction(action domain.Action) domain.Action {
	clone := action
	clone.Product = action.Product.Clone()
	clone.Sale = action.Sale.Clone()
	if action.Patch != nil {
		patch := *action.Patch
		clone.Patch = &patch
	}
	return clone
}

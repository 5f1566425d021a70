package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

var _ ports.OfflineQueue = (*OfflineQueue)(nil)

// OfflineQueue keeps queued actions in PostgreSQL so they survive restarts.
// It normally points at a database local to the terminal, not at the ledger backend.
type OfflineQueue struct {
	db *gorm.DB
}

func NewOfflineQueue(db *gorm.DB) *OfflineQueue {
	return &OfflineQueue{db: db}
}

// Enqueue appends an action. Enqueueing the same action id twice is a no-op.
func (q *OfflineQueue) Enqueue(ctx context.Context, action domain.Action) error {
	if err := q.ensureDB(); err != nil {
		return err
	}
	if err := action.Validate(); err != nil {
		return err
	}
	record := actionRecord{
		ActionID:   action.ID,
		Type:       string(action.Type),
		Payload:    action,
		EnqueuedAt: action.EnqueuedAt,
	}
	return q.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "action_id"}}, DoNothing: true}).
		Create(&record).Error
}

// Pending lists queued actions in enqueue order.
func (q *OfflineQueue) Pending(ctx context.Context) ([]domain.Action, error) {
	if err := q.ensureDB(); err != nil {
		return nil, err
	}
	var records []actionRecord
	if err := q.db.WithContext(ctx).Order("seq asc").Find(&records).Error; err != nil {
		return nil, err
	}
	actions := make([]domain.Action, 0, len(records))
	for _, rec := range records {
		action := rec.Payload
		action.ID = rec.ActionID
		action.Type = domain.ActionType(rec.Type)
		actions = append(actions, action)
	}
	return actions, nil
}

func (q *OfflineQueue) Ack(ctx context.Context, actionID string) error {
	if err := q.ensureDB(); err != nil {
		return err
	}
	return q.db.WithContext(ctx).Delete(&actionRecord{}, "action_id = ?", actionID).Error
}

func (q *OfflineQueue) Len(ctx context.Context) (int, error) {
	if err := q.ensureDB(); err != nil {
		return 0, err
	}
	var count int64
	if err := q.db.WithContext(ctx).Model(&actionRecord{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return int(count), nil
}

func (q *OfflineQueue) ensureDB() error {
	if q == nil || q.db == nil {
		return errors.New("postgres offline queue not configured")
	}
	return nil
}

package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

var _ ports.ReplayLog = (*ReplayLog)(nil)

// ReplayLog persists delivered action ids in PostgreSQL.
type ReplayLog struct {
	db *gorm.DB
}

// NewReplayLog wires a PostgreSQL-backed replay log.
func NewReplayLog(db *gorm.DB) *ReplayLog {
	return &ReplayLog{db: db}
}

// Get loads a record by action id, returning nil when absent.
func (l *ReplayLog) Get(ctx context.Context, actionID string) (*ports.ReplayRecord, error) {
	if err := l.ensureDB(); err != nil {
		return nil, err
	}
	var record replayRecord
	if err := l.db.WithContext(ctx).First(&record, "action_id = ?", actionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return toPortRecord(&record), nil
}

// Save inserts the record; if the action id already exists with the same fingerprint it is returned,
// otherwise ErrReplayConflict is returned with the stored record.
func (l *ReplayLog) Save(ctx context.Context, record ports.ReplayRecord) (*ports.ReplayRecord, error) {
	if err := l.ensureDB(); err != nil {
		return nil, err
	}
	dbRecord := toDBRecord(record)
	if err := l.db.WithContext(ctx).Create(&dbRecord).Error; err != nil {
		if errors.Is(mapError(err), ports.ErrAlreadyExists) {
			existing, getErr := l.Get(ctx, record.ActionID)
			if getErr != nil {
				return nil, getErr
			}
			if existing == nil {
				return nil, err
			}
			if existing.Fingerprint != record.Fingerprint {
				return existing, ports.ErrReplayConflict
			}
			return existing, nil
		}
		return nil, err
	}
	return toPortRecord(&dbRecord), nil
}

func (l *ReplayLog) ensureDB() error {
	if l == nil || l.db == nil {
		return errors.New("postgres replay log not configured")
	}
	return nil
}

func toDBRecord(rec ports.ReplayRecord) replayRecord {
	return replayRecord{
		ActionID:    rec.ActionID,
		ActionType:  string(rec.ActionType),
		Fingerprint: rec.Fingerprint,
		Outcome:     string(rec.Outcome),
		Detail:      rec.Detail,
		AppliedAt:   rec.AppliedAt,
	}
}

func toPortRecord(rec *replayRecord) *ports.ReplayRecord {
	if rec == nil {
		return nil
	}
	return &ports.ReplayRecord{
		ActionID:    rec.ActionID,
		ActionType:  domain.ActionType(rec.ActionType),
		Fingerprint: rec.Fingerprint,
		Outcome:     ports.ReplayOutcome(rec.Outcome),
		Detail:      rec.Detail,
		AppliedAt:   rec.AppliedAt,
	}
}

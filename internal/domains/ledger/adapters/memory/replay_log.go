package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

var _ ports.ReplayLog = (*ReplayLog)(nil)

// ReplayLog provides an in-memory replay log for development and tests.
type ReplayLog struct {
	mu      sync.RWMutex
	records map[string]ports.ReplayRecord
	now     func() time.Time
}

// NewReplayLog constructs an empty in-memory log.
func NewReplayLog() *ReplayLog {
	return &ReplayLog{
		records: map[string]ports.ReplayRecord{},
		now:     time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (l *ReplayLog) WithClock(now func() time.Time) {
	if now != nil {
		l.now = now
	}
}

// Get returns the stored record for the action, or nil when absent.
func (l *ReplayLog) Get(_ context.Context, actionID string) (*ports.ReplayRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	record, ok := l.records[actionID]
	if !ok {
		return nil, nil
	}
	copy := record
	return &copy, nil
}

// Save persists the record or returns the existing record if it matches.
func (l *ReplayLog) Save(_ context.Context, record ports.ReplayRecord) (*ports.ReplayRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.records[record.ActionID]; ok {
		copy := existing
		if existing.Fingerprint != record.Fingerprint {
			return &copy, ports.ErrReplayConflict
		}
		return &copy, nil
	}
	if record.AppliedAt.IsZero() {
		record.AppliedAt = l.now()
	}
	l.records[record.ActionID] = record
	saved := record
	return &saved, nil
}

package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
)

// OfflineQueue is the durable FIFO of actions recorded while the backend was unreachable.
type OfflineQueue interface {
	Enqueue(ctx context.Context, action domain.Action) error
	// Pending returns unacknowledged actions in enqueue order.
	Pending(ctx context.Context) ([]domain.Action, error)
	// Ack removes an action once it has been replayed. Unknown ids are ignored.
	Ack(ctx context.Context, actionID string) error
	Len(ctx context.Context) (int, error)
}

// ErrReplayConflict indicates an action id was recorded with a different payload.
var ErrReplayConflict = errors.New("replay conflict")

// ReplayOutcome is how the backend received a replayed action.
type ReplayOutcome string

const (
	ReplayApplied   ReplayOutcome = "applied"
	ReplayDuplicate ReplayOutcome = "duplicate"
	ReplayRejected  ReplayOutcome = "rejected"
)

// ReplayRecord remembers that an action was delivered so a crash between delivery and
// acknowledgement does not deliver it twice.
type ReplayRecord struct {
	ActionID    string
	ActionType  domain.ActionType
	Fingerprint string
	Outcome     ReplayOutcome
	Detail      string
	AppliedAt   time.Time
}

// ReplayLog persists replay records keyed by action id.
type ReplayLog interface {
	// Get returns the stored record for the action, or nil when unknown.
	Get(ctx context.Context, actionID string) (*ReplayRecord, error)
	// Save persists the record; if the action id already exists with the same fingerprint, the stored record is returned.
	// When the fingerprint differs, ErrReplayConflict is returned with the stored record.
	Save(ctx context.Context, record ReplayRecord) (*ReplayRecord, error)
}

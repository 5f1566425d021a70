package ledger

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	ledgerapp "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application"
	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

const (
	// ListPendingActionsActivityName reads the offline queue in delivery order.
	ListPendingActionsActivityName = "ledger.activities.ListPendingActions"
	// ReplayActionActivityName delivers one queued action to the backend.
	ReplayActionActivityName = "ledger.activities.ReplayAction"
)

// Application error types surfaced to the replay workflow.
const (
	ErrTypeUnavailable  = "LedgerUnavailable"
	ErrTypeUnauthorized = "LedgerUnauthorized"
)

// Activities groups activities that drain the ledger's offline queue.
type Activities struct {
	replayer *ledgerapp.Replayer
}

// NewActivities wires a replayer into the Temporal activities bundle.
// The replayer must use a durable queue and replay log shared with the API process.
func NewActivities(replayer *ledgerapp.Replayer) *Activities {
	return &Activities{replayer: replayer}
}

// ListPendingActions returns up to limit queued actions; limit <= 0 returns all of them.
func (a *Activities) ListPendingActions(ctx context.Context, limit int) ([]domain.Action, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.replayer == nil {
		logger.Error("ledger replay activity not initialized")
		return nil, errors.New("ledger replay activity not initialized")
	}
	actions, err := a.replayer.Pending(ctx)
	if err != nil {
		logger.Error("ListPendingActions failed", "error", err)
		return nil, classify(err)
	}
	if limit > 0 && len(actions) > limit {
		actions = actions[:limit]
	}
	logger.Info("ListPendingActions completed", "count", len(actions))
	return actions, nil
}

// ReplayAction delivers one action. An unreachable backend is retried by Temporal;
// rejected credentials are not.
func (a *Activities) ReplayAction(ctx context.Context, action domain.Action) (*ledgertypes.ReplayReport, error) {
	logger := activity.GetLogger(ctx)
	if a == nil || a.replayer == nil {
		logger.Error("ledger replay activity not initialized", "actionId", action.ID)
		return nil, errors.New("ledger replay activity not initialized")
	}
	logger.Info("ReplayAction activity started", "actionId", action.ID, "actionType", string(action.Type))
	record, err := a.replayer.ReplayAction(ctx, action)
	if err != nil {
		logger.Error("ReplayAction activity failed", "actionId", action.ID, "error", err)
		return nil, classify(err)
	}
	report := ledgerapp.ReportFor(record)
	logger.Info("ReplayAction activity completed", "actionId", action.ID, "outcome", string(record.Outcome))
	return &report, nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, ports.ErrUnauthorized):
		return temporal.NewNonRetryableApplicationError(err.Error(), ErrTypeUnauthorized, err)
	case errors.Is(err, ports.ErrUnavailable):
		return temporal.NewApplicationErrorWithCause(err.Error(), ErrTypeUnavailable, err)
	default:
		return err
	}
}

package sequences

import (
	"errors"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	ledgeractivities "github.com/Apurer/go-gin-pos-ledger/internal/platform/temporal/activities/ledger"
)

// DefaultReplayBatch bounds how many actions one workflow run delivers.
const DefaultReplayBatch = 500

// RunOfflineReplaySequence delivers queued actions one at a time in queue order.
// It stops at the first action the backend cannot receive and reports what is left.
func RunOfflineReplaySequence(ctx workflow.Context, batch int) (*ledgertypes.ReplayReport, error) {
	logger := workflow.GetLogger(ctx)
	if batch <= 0 {
		batch = DefaultReplayBatch
	}
	listOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:    time.Second,
			BackoffCoefficient: 2.0,
			MaximumInterval:    5 * time.Second,
			MaximumAttempts:    3,
		},
	}
	replayOptions := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			InitialInterval:        2 * time.Second,
			BackoffCoefficient:     2.0,
			MaximumInterval:        10 * time.Second,
			MaximumAttempts:        3,
			NonRetryableErrorTypes: []string{ledgeractivities.ErrTypeUnauthorized},
		},
	}

	var actions []domain.Action
	err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, listOptions), ledgeractivities.ListPendingActionsActivityName, batch).Get(ctx, &actions)
	if err != nil {
		logger.Error("offline replay sequence failed to list actions", "error", err)
		return nil, err
	}
	logger.Info("offline replay sequence started", "actions", len(actions))

	report := &ledgertypes.ReplayReport{}
	for i, action := range actions {
		var step ledgertypes.ReplayReport
		err := workflow.ExecuteActivity(workflow.WithActivityOptions(ctx, replayOptions), ledgeractivities.ReplayActionActivityName, action).Get(ctx, &step)
		if err != nil {
			report.Remaining = len(actions) - i
			report.Stopped = true
			report.StopReason = err.Error()
			if isApplicationError(err, ledgeractivities.ErrTypeUnavailable) {
				logger.Warn("offline replay sequence paused, backend unreachable", "remaining", report.Remaining)
				return report, nil
			}
			logger.Error("offline replay sequence failed", "actionId", action.ID, "error", err)
			return report, err
		}
		report.Merge(step)
	}
	logger.Info("offline replay sequence completed",
		"applied", report.Applied,
		"duplicates", report.Duplicates,
		"rejected", report.Rejected)
	return report, nil
}

func isApplicationError(err error, errType string) bool {
	var appErr *temporal.ApplicationError
	return errors.As(err, &appErr) && appErr.Type() == errType
}

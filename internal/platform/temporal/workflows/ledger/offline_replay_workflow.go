package ledger

import (
	"go.temporal.io/sdk/workflow"

	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/platform/temporal/sequences"
)

const (
	// OfflineReplayWorkflowName is the public identifier for registering the workflow.
	OfflineReplayWorkflowName = "ledger.workflows.OfflineReplay"
	// OfflineReplayTaskQueue is the queue consumed by the worker draining offline actions.
	OfflineReplayTaskQueue = "LEDGER_OFFLINE_REPLAY"
)

// OfflineReplayWorkflowInput tunes one drain of the offline queue.
type OfflineReplayWorkflowInput struct {
	Batch   int
	TraceID string
}

// OfflineReplayWorkflow drains the terminal's offline queue. Only one run per terminal is
// active at a time; callers reuse a fixed workflow id.
func OfflineReplayWorkflow(ctx workflow.Context, input OfflineReplayWorkflowInput) (*ledgertypes.ReplayReport, error) {
	logger := workflow.GetLogger(ctx)
	logger.Info("OfflineReplayWorkflow started", withTraceID(input.TraceID)...)
	report, err := sequences.RunOfflineReplaySequence(ctx, input.Batch)
	if err != nil {
		logger.Error("OfflineReplayWorkflow failed", withTraceID(input.TraceID, "error", err)...)
		return nil, err
	}
	logger.Info("OfflineReplayWorkflow completed", withTraceID(input.TraceID,
		"applied", report.Applied,
		"remaining", report.Remaining)...)
	return report, nil
}

func withTraceID(traceID string, keyvals ...interface{}) []interface{} {
	if traceID == "" {
		return keyvals
	}
	return append(keyvals, "traceId", traceID)
}

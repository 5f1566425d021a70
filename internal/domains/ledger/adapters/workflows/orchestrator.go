package workflows

import (
	"context"
	"errors"
	"fmt"
	"strings"

	oteltrace "go.opentelemetry.io/otel/trace"
	"go.temporal.io/api/serviceerror"
	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/temporal"

	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
	ledgeractivities "github.com/Apurer/go-gin-pos-ledger/internal/platform/temporal/activities/ledger"
	ledgerworkflows "github.com/Apurer/go-gin-pos-ledger/internal/platform/temporal/workflows/ledger"
)

var (
	_ ports.ReplayOrchestrator = (*TemporalReplay)(nil)
	_ ports.ReplayOrchestrator = (*InlineReplay)(nil)
)

// DefaultTerminalID names the replay workflow when a deployment runs a single terminal.
const DefaultTerminalID = "default"

// TemporalReplay drains the offline queue through the replay workflow on a Temporal cluster.
// The worker must share the offline queue and replay log with this process.
type TemporalReplay struct {
	client     client.Client
	service    ports.Service
	taskQueue  string
	workflowID string
	batch      int
}

// TemporalOption configures TemporalReplay.
type TemporalOption func(*TemporalReplay)

// WithBatch bounds the actions one workflow run delivers.
func WithBatch(batch int) TemporalOption {
	return func(o *TemporalReplay) {
		o.batch = batch
	}
}

// NewTemporalReplay wires a Temporal client into the orchestrator. terminalID scopes the
// workflow id so that one drain per terminal runs at a time.
func NewTemporalReplay(c client.Client, service ports.Service, terminalID string, opts ...TemporalOption) *TemporalReplay {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		terminalID = DefaultTerminalID
	}
	o := &TemporalReplay{
		client:     c,
		service:    service,
		taskQueue:  ledgerworkflows.OfflineReplayTaskQueue,
		workflowID: fmt.Sprintf("ledger-offline-replay-%s", terminalID),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o
}

// Replay runs the workflow under the ledger's replay guard so its outcome updates the ledger.
func (o *TemporalReplay) Replay(ctx context.Context) (*ledgertypes.ReplayReport, error) {
	if o == nil || o.client == nil || o.service == nil {
		return nil, errors.New("temporal replay not configured")
	}
	return o.service.ReplayWith(ctx, o.drain)
}

func (o *TemporalReplay) drain(ctx context.Context) (*ledgertypes.ReplayReport, error) {
	options := client.StartWorkflowOptions{
		ID:        o.workflowID,
		TaskQueue: o.taskQueue,
		WorkflowExecutionErrorWhenAlreadyStarted: true,
	}
	input := ledgerworkflows.OfflineReplayWorkflowInput{Batch: o.batch, TraceID: workflowTraceID(ctx)}
	run, err := o.client.ExecuteWorkflow(ctx, options, ledgerworkflows.OfflineReplayWorkflowName, input)
	if err != nil {
		var alreadyStarted *serviceerror.WorkflowExecutionAlreadyStarted
		if !errors.As(err, &alreadyStarted) {
			return nil, fmt.Errorf("%w: start replay workflow: %w", ports.ErrUnavailable, err)
		}
		run = o.client.GetWorkflow(ctx, o.workflowID, alreadyStarted.RunId)
	}
	var report ledgertypes.ReplayReport
	if err := run.Get(ctx, &report); err != nil {
		return nil, mapWorkflowError(err)
	}
	return &report, nil
}

// InlineReplay drains the queue in process without durable orchestration, useful for tests or dev fallbacks.
type InlineReplay struct {
	service ports.Service
}

// NewInlineReplay wraps the ledger service for synchronous replay.
func NewInlineReplay(service ports.Service) *InlineReplay {
	return &InlineReplay{service: service}
}

func (o *InlineReplay) Replay(ctx context.Context) (*ledgertypes.ReplayReport, error) {
	if o == nil || o.service == nil {
		return nil, errors.New("inline replay not configured")
	}
	return o.service.Replay(ctx)
}

func mapWorkflowError(err error) error {
	var appErr *temporal.ApplicationError
	if errors.As(err, &appErr) {
		switch appErr.Type() {
		case ledgeractivities.ErrTypeUnauthorized:
			return fmt.Errorf("%w: %w", ports.ErrUnauthorized, err)
		case ledgeractivities.ErrTypeUnavailable:
			return fmt.Errorf("%w: %w", ports.ErrUnavailable, err)
		}
	}
	return err
}

func workflowTraceID(ctx context.Context) string {
	span := oteltrace.SpanFromContext(ctx)
	if span == nil {
		return ""
	}
	spanCtx := span.SpanContext()
	if !spanCtx.IsValid() {
		return ""
	}
	return spanCtx.TraceID().String()
}

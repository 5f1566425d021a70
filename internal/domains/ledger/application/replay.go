package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

// Replayer delivers queued actions to the backend in FIFO order. Each action is recorded in the
// replay log before it is acknowledged, so a crash in between never delivers it twice.
type Replayer struct {
	persistence ports.Persistence
	queue       ports.OfflineQueue
	log         ports.ReplayLog
	logger      *slog.Logger
	now         func() time.Time
}

// ReplayerOption configures a Replayer.
type ReplayerOption func(*Replayer)

// WithReplayerLog deduplicates deliveries through the given log.
func WithReplayerLog(log ports.ReplayLog) ReplayerOption {
	return func(r *Replayer) {
		r.log = log
	}
}

// WithReplayerLogger injects a slog logger.
func WithReplayerLogger(logger *slog.Logger) ReplayerOption {
	return func(r *Replayer) {
		r.logger = logger
	}
}

// WithReplayerClock overrides the time source.
func WithReplayerClock(now func() time.Time) ReplayerOption {
	return func(r *Replayer) {
		r.now = now
	}
}

// NewReplayer wires a replayer over the backend and queue.
func NewReplayer(persistence ports.Persistence, queue ports.OfflineQueue, opts ...ReplayerOption) *Replayer {
	r := &Replayer{
		persistence: persistence,
		queue:       queue,
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	if r.logger == nil {
		r.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if r.now == nil {
		r.now = time.Now
	}
	return r
}

// Pending lists the queued actions in delivery order.
func (r *Replayer) Pending(ctx context.Context) ([]domain.Action, error) {
	if r == nil || r.queue == nil {
		return nil, errors.New("replayer not configured")
	}
	return r.queue.Pending(ctx)
}

// Drain replays every queued action. It stops at the first action the backend could not
// receive; an unreachable backend is reported through the returned report, not as an error.
func (r *Replayer) Drain(ctx context.Context) (*types.ReplayReport, error) {
	actions, err := r.Pending(ctx)
	if err != nil {
		return nil, err
	}
	report := &types.ReplayReport{}
	for i, action := range actions {
		record, err := r.ReplayAction(ctx, action)
		if err != nil {
			report.Remaining = len(actions) - i
			report.Stopped = true
			report.StopReason = err.Error()
			if errors.Is(err, ports.ErrUnavailable) {
				r.logger.WarnContext(ctx, "offline replay paused, backend unreachable",
					slog.Int("remaining", report.Remaining))
				return report, nil
			}
			return report, err
		}
		report.Merge(ReportFor(record))
	}
	r.logger.InfoContext(ctx, "offline replay drained",
		slog.Int("applied", report.Applied),
		slog.Int("duplicates", report.Duplicates),
		slog.Int("rejected", report.Rejected))
	return report, nil
}

// ReplayAction delivers one action and acknowledges it. Transport and credential failures are
// returned so the caller can stop; every other backend refusal is recorded as rejected and
// acknowledged so a poison action cannot block the queue.
func (r *Replayer) ReplayAction(ctx context.Context, action domain.Action) (*ports.ReplayRecord, error) {
	if r == nil || r.persistence == nil || r.queue == nil {
		return nil, errors.New("replayer not configured")
	}
	fingerprint, err := FingerprintAction(action)
	if err != nil {
		return nil, fmt.Errorf("fingerprint action %s: %w", action.ID, err)
	}
	if r.log != nil {
		existing, err := r.log.Get(ctx, action.ID)
		if err != nil {
			return nil, fmt.Errorf("read replay log: %w", err)
		}
		if existing != nil {
			if existing.Fingerprint != fingerprint {
				r.logger.WarnContext(ctx, "replayed action payload differs from recorded delivery",
					slog.String("action.id", action.ID))
			}
			if err := r.queue.Ack(ctx, action.ID); err != nil {
				return nil, fmt.Errorf("ack action %s: %w", action.ID, err)
			}
			dup := *existing
			dup.Outcome = ports.ReplayDuplicate
			return &dup, nil
		}
	}

	record := ports.ReplayRecord{
		ActionID:    action.ID,
		ActionType:  action.Type,
		Fingerprint: fingerprint,
		Outcome:     ports.ReplayApplied,
	}
	applyErr := action.Validate()
	if applyErr == nil {
		applyErr = r.apply(ctx, action)
	}
	switch {
	case applyErr == nil:
	case errors.Is(applyErr, ports.ErrUnavailable),
		errors.Is(applyErr, ports.ErrUnauthorized),
		errors.Is(applyErr, context.Canceled),
		errors.Is(applyErr, context.DeadlineExceeded):
		return nil, applyErr
	case errors.Is(applyErr, ports.ErrAlreadyExists), errors.Is(applyErr, ports.ErrNotFound):
		record.Outcome = ports.ReplayDuplicate
	default:
		record.Outcome = ports.ReplayRejected
		record.Detail = applyErr.Error()
		r.logger.ErrorContext(ctx, "offline action rejected by backend",
			slog.String("action.id", action.ID),
			slog.String("action.type", string(action.Type)),
			slog.String("error", applyErr.Error()))
	}
	record.AppliedAt = r.now().UTC()

	if r.log != nil {
		saved, err := r.log.Save(ctx, record)
		if err != nil && !errors.Is(err, ports.ErrReplayConflict) {
			return nil, fmt.Errorf("write replay log: %w", err)
		}
		if saved != nil && errors.Is(err, ports.ErrReplayConflict) {
			record = *saved
		}
	}
	if err := r.queue.Ack(ctx, action.ID); err != nil {
		return nil, fmt.Errorf("ack action %s: %w", action.ID, err)
	}
	return &record, nil
}

func (r *Replayer) apply(ctx context.Context, action domain.Action) error {
	switch action.Type {
	case domain.ActionAddProduct:
		_, err := r.persistence.CreateProduct(ctx, action.Product.Clone())
		return err
	case domain.ActionUpdateProduct:
		_, err := r.persistence.PatchProduct(ctx, action.ProductID, *action.Patch)
		return err
	case domain.ActionDeleteProduct:
		return r.persistence.DeleteProduct(ctx, action.ProductID)
	case domain.ActionSale:
		_, err := r.persistence.CreateSale(ctx, action.Sale.Clone())
		return err
	case domain.ActionHoldOrder:
		_, err := r.persistence.CreatePendingOrder(ctx, action.Sale.Clone())
		return err
	case domain.ActionCompleteOrder:
		_, err := r.persistence.CompletePendingOrder(ctx, action.Sale.Clone())
		return err
	case domain.ActionCancelOrder:
		return r.persistence.DeletePendingOrder(ctx, action.OrderID)
	default:
		return domain.ErrInvalidAction
	}
}

// ReportFor summarizes a single delivery.
func ReportFor(record *ports.ReplayRecord) types.ReplayReport {
	var report types.ReplayReport
	switch record.Outcome {
	case ports.ReplayApplied:
		report.Applied = 1
	case ports.ReplayDuplicate:
		report.Duplicates = 1
	case ports.ReplayRejected:
		report.Rejected = 1
		report.Rejections = []types.ReplayRejection{{
			ActionID:   record.ActionID,
			ActionType: record.ActionType,
			Reason:     record.Detail,
		}}
	}
	return report
}

// Replay drains the offline queue in process and resynchronizes from the backend once it is empty.
func (l *Ledger) Replay(ctx context.Context) (*types.ReplayReport, error) {
	var drain ports.DrainFunc
	if l.replayer != nil {
		drain = l.replayer.Drain
	}
	return l.ReplayWith(ctx, drain)
}

// ReplayWith runs drain, then applies the outcome to the ledger: an unreachable backend marks it
// offline, rejected credentials end the session and an empty queue triggers a resync.
// Commands keep running during the drain. They see a non-empty queue and append behind it.
func (l *Ledger) ReplayWith(ctx context.Context, drain ports.DrainFunc) (*types.ReplayReport, error) {
	l.replayMu.Lock()
	defer l.replayMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return nil, err
	}
	if drain == nil {
		return &types.ReplayReport{}, nil
	}
	report, err := drain(ctx)
	if report == nil {
		report = &types.ReplayReport{}
	}

	l.opMu.Lock()
	defer l.opMu.Unlock()
	if closedErr := l.ensureOpen(); closedErr != nil {
		return report, closedErr
	}
	now := l.now().UTC()
	l.stateMu.Lock()
	l.lastReplayAt = &now
	l.stateMu.Unlock()
	if err != nil {
		if errors.Is(err, ports.ErrUnauthorized) {
			l.dropIdentity(ctx)
		}
		l.setOnline(false, err)
		return report, err
	}
	if report.Stopped {
		l.setOnline(false, errors.New(report.StopReason))
		return report, nil
	}
	if err := l.resyncLocked(ctx); err != nil {
		if errors.Is(err, ports.ErrUnavailable) {
			return report, nil
		}
		return report, err
	}
	return report, nil
}

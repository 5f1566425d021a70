package scheduler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	ledgertypes "github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

// DefaultSchedule drains the offline queue every thirty seconds.
const DefaultSchedule = "@every 30s"

// DefaultTimeout bounds one sweep.
const DefaultTimeout = 2 * time.Minute

// StatusReader reports whether there is anything to sweep.
type StatusReader interface {
	SyncStatus(ctx context.Context) (*ledgertypes.SyncStatus, error)
}

// Option configures the Sweeper.
type Option func(*Sweeper)

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sweeper) {
		s.logger = logger
	}
}

// WithTimeout bounds each sweep.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Sweeper) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// Sweeper periodically replays the offline queue while the ledger has a backlog or is offline.
type Sweeper struct {
	cron         *cron.Cron
	orchestrator ports.ReplayOrchestrator
	status       StatusReader
	logger       *slog.Logger
	spec         string
	timeout      time.Duration
}

// NewSweeper schedules replays on spec, a cron expression with optional seconds or a descriptor such as "@every 30s".
func NewSweeper(orchestrator ports.ReplayOrchestrator, status StatusReader, spec string, opts ...Option) (*Sweeper, error) {
	if orchestrator == nil || status == nil {
		return nil, errors.New("sweeper requires an orchestrator and a status reader")
	}
	spec = strings.TrimSpace(spec)
	if spec == "" {
		spec = DefaultSchedule
	}
	s := &Sweeper{
		orchestrator: orchestrator,
		status:       status,
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		spec:         spec,
		timeout:      DefaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelDebug))
	parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	s.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	if _, err := s.cron.AddFunc(spec, func() { s.RunOnce(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid replay schedule %q: %w", spec, err)
	}
	return s, nil
}

// Start runs the schedule in the background.
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("offline replay sweeper started", slog.String("schedule", s.spec))
}

// Stop halts the schedule and waits for a running sweep or ctx, whichever comes first.
func (s *Sweeper) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single sweep. It reports whether a replay was attempted.
func (s *Sweeper) RunOnce(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	status, err := s.status.SyncStatus(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "sweeper failed to read sync status", slog.String("error", err.Error()))
		return false
	}
	if status.Online && status.QueuedActions == 0 {
		return false
	}
	report, err := s.orchestrator.Replay(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "scheduled offline replay failed", slog.String("error", err.Error()))
		return true
	}
	if report != nil && report.Stopped {
		s.logger.InfoContext(ctx, "scheduled offline replay paused",
			slog.Int("remaining", report.Remaining),
			slog.String("reason", report.StopReason))
	}
	return true
}

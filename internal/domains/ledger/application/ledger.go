package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

var _ ports.Service = (*Ledger)(nil)

// Ledger is the authoritative in-process view of products, the active cart, completed sales
// and pending orders. Commands are serialized; reads never wait on the backend.
type Ledger struct {
	// replayMu allows one queue drain at a time. It is taken before opMu, never after.
	replayMu sync.Mutex
	// opMu serializes commands, snapshot merges and the outcome of a replay.
	opMu sync.Mutex
	// stateMu guards everything below it.
	stateMu           sync.RWMutex
	state             ledgerState
	changes           localChanges
	identity          *domain.Identity
	online            bool
	closed            bool
	lowStockThreshold int
	lastReplayAt      *time.Time
	lastError         string

	persistence ports.Persistence
	queue       ports.OfflineQueue
	replayLog   ports.ReplayLog
	replayer    *Replayer
	sessions    ports.SessionStore
	logger      *slog.Logger
	now         func() time.Time
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithOfflineQueue enables queueing of mutations while the backend is unreachable.
func WithOfflineQueue(queue ports.OfflineQueue) Option {
	return func(l *Ledger) {
		l.queue = queue
	}
}

// WithReplayLog deduplicates replayed actions.
func WithReplayLog(log ports.ReplayLog) Option {
	return func(l *Ledger) {
		l.replayLog = log
	}
}

// WithSessionStore persists the acting identity.
func WithSessionStore(store ports.SessionStore) Option {
	return func(l *Ledger) {
		l.sessions = store
	}
}

// WithLogger injects a slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithLowStockThreshold sets the initial low stock threshold.
func WithLowStockThreshold(threshold int) Option {
	return func(l *Ledger) {
		if threshold >= 0 {
			l.lowStockThreshold = threshold
		}
	}
}

// NewLedger wires a ledger over the given persistence backend.
func NewLedger(persistence ports.Persistence, opts ...Option) *Ledger {
	l := &Ledger{
		state:             newLedgerState(),
		changes:           newLocalChanges(),
		online:            true,
		lowStockThreshold: types.DefaultLowStockThreshold,
		persistence:       persistence,
		sessions:          ports.NoopSessionStore,
		logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:               time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	if l.sessions == nil {
		l.sessions = ports.NoopSessionStore
	}
	if l.logger == nil {
		l.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if l.now == nil {
		l.now = time.Now
	}
	if l.queue != nil {
		l.replayer = NewReplayer(persistence, l.queue,
			WithReplayerLog(l.replayLog),
			WithReplayerLogger(l.logger),
			WithReplayerClock(l.now),
		)
	}
	return l
}

// Start loads the backend snapshot and the stored session. An unreachable backend is not fatal:
// the ledger starts offline and serves whatever it can.
func (l *Ledger) Start(ctx context.Context) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return err
	}
	identity, err := l.sessions.Load(ctx)
	if err != nil {
		l.logger.WarnContext(ctx, "failed to load session", slog.String("error", err.Error()))
	} else if identity != nil && !identity.IsZero() {
		l.stateMu.Lock()
		copy := *identity
		l.identity = &copy
		l.stateMu.Unlock()
	}
	if err := l.resyncLocked(ctx); err != nil {
		switch {
		case errors.Is(err, ports.ErrUnavailable):
			l.logger.WarnContext(ctx, "ledger backend unreachable, starting offline", slog.String("error", err.Error()))
			return nil
		case errors.Is(err, ports.ErrUnauthorized):
			l.dropIdentity(ctx)
			l.logger.WarnContext(ctx, "ledger backend rejected stored session", slog.String("error", err.Error()))
			return nil
		default:
			return fmt.Errorf("load ledger snapshot: %w", err)
		}
	}
	return nil
}

// Close stops accepting commands. It waits for an in-flight command to finish.
func (l *Ledger) Close(_ context.Context) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.closed = true
	return nil
}

func (l *Ledger) ensureOpen() error {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	if l.closed {
		return ErrClosed
	}
	return nil
}

// mutate applies fn to the live state and returns the state as it was before.
// When fn fails the state is left untouched.
func (l *Ledger) mutate(fn func(*ledgerState) error) (ledgerState, error) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	before := l.state.clone()
	if err := fn(&l.state); err != nil {
		l.state = before
		return before, err
	}
	return before, nil
}

func (l *Ledger) restore(before ledgerState) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.state = before
}

func (l *Ledger) read(fn func(*ledgerState)) {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	fn(&l.state)
}

func (l *Ledger) currentIdentity() *domain.Identity {
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	if l.identity == nil {
		return nil
	}
	copy := *l.identity
	return &copy
}

// dropIdentity forgets the signed-in user after the backend rejected its credentials.
func (l *Ledger) dropIdentity(ctx context.Context) {
	l.stateMu.Lock()
	l.identity = nil
	l.stateMu.Unlock()
	if err := l.sessions.Clear(ctx); err != nil {
		l.logger.WarnContext(ctx, "failed to clear session", slog.String("error", err.Error()))
	}
}

func (l *Ledger) setOnline(online bool, lastErr error) {
	l.stateMu.Lock()
	defer l.stateMu.Unlock()
	l.online = online
	if lastErr != nil {
		l.lastError = lastErr.Error()
	} else if online {
		l.lastError = ""
	}
}

func (l *Ledger) backlog(ctx context.Context) (int, error) {
	if l.queue == nil {
		return 0, nil
	}
	return l.queue.Len(ctx)
}

// ledgerState is the data the ledger owns. clone produces an independent copy used for rollback.
type ledgerState struct {
	products []*domain.Product
	cart     *domain.Cart
	sales    []*domain.Sale
	pending  []*domain.Sale
}

func newLedgerState() ledgerState {
	return ledgerState{cart: domain.NewCart()}
}

func (s ledgerState) clone() ledgerState {
	return ledgerState{
		products: cloneProducts(s.products),
		cart:     s.cart.Clone(),
		sales:    cloneSales(s.sales),
		pending:  cloneSales(s.pending),
	}
}

func (s *ledgerState) findProduct(id string) (int, *domain.Product) {
	for i, p := range s.products {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (s *ledgerState) lookup(id string) *domain.Product {
	_, p := s.findProduct(id)
	return p
}

func (s *ledgerState) findPending(id string) (int, *domain.Sale) {
	for i, order := range s.pending {
		if order.ID == id {
			return i, order
		}
	}
	return -1, nil
}

func (s *ledgerState) decrementStock(items []domain.CartLine) {
	for _, item := range items {
		if p := s.lookup(item.ProductID); p != nil {
			p.DecrementStock(item.Quantity)
		}
	}
}

func cloneProducts(src []*domain.Product) []*domain.Product {
	if len(src) == 0 {
		return nil
	}
	out := make([]*domain.Product, 0, len(src))
	for _, p := range src {
		out = append(out, p.Clone())
	}
	return out
}

func cloneSales(src []*domain.Sale) []*domain.Sale {
	if len(src) == 0 {
		return nil
	}
	out := make([]*domain.Sale, 0, len(src))
	for _, s := range src {
		out = append(out, s.Clone())
	}
	return out
}

package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/application/types"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
)

// StartSession signs a user in. Sales created afterwards carry the identity.
func (l *Ledger) StartSession(ctx context.Context, identity domain.Identity) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return err
	}
	identity.UserID = strings.TrimSpace(identity.UserID)
	identity.UserName = strings.TrimSpace(identity.UserName)
	if identity.IsZero() {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if identity.UserName == "" {
		identity.UserName = identity.UserID
	}
	if err := l.sessions.Save(ctx, identity); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	l.stateMu.Lock()
	l.identity = &identity
	l.stateMu.Unlock()
	l.logger.InfoContext(ctx, "session started", slog.String("user.id", identity.UserID))
	return nil
}

// EndSession signs the user out and discards the active cart.
func (l *Ledger) EndSession(ctx context.Context) error {
	l.opMu.Lock()
	defer l.opMu.Unlock()
	if err := l.ensureOpen(); err != nil {
		return err
	}
	l.stateMu.Lock()
	l.identity = nil
	l.state.cart.Clear()
	l.stateMu.Unlock()
	if err := l.sessions.Clear(ctx); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// Session returns the signed-in user, or nil.
func (l *Ledger) Session(_ context.Context) (*domain.Identity, error) {
	return l.currentIdentity(), nil
}

// SyncStatus reports connectivity and the offline backlog.
func (l *Ledger) SyncStatus(ctx context.Context) (*types.SyncStatus, error) {
	queued, err := l.backlog(ctx)
	if err != nil {
		return nil, fmt.Errorf("inspect offline queue: %w", err)
	}
	l.stateMu.RLock()
	defer l.stateMu.RUnlock()
	status := &types.SyncStatus{
		Online:        l.online,
		QueuedActions: queued,
		LastError:     l.lastError,
	}
	if l.lastReplayAt != nil {
		at := *l.lastReplayAt
		status.LastReplayAt = &at
	}
	return status, nil
}

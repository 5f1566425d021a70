package ports

import (
	"context"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
)

// SessionStore abstracts persistence of the acting identity and its token.
type SessionStore interface {
	// Load returns the stored identity, or nil when nobody is signed in.
	Load(ctx context.Context) (*domain.Identity, error)
	Save(ctx context.Context, identity domain.Identity) error
	Clear(ctx context.Context) error
}

// NoopSessionStore is a safe default when callers do not need session persistence.
var NoopSessionStore SessionStore = noopSessionStore{}

type noopSessionStore struct{}

func (noopSessionStore) Load(_ context.Context) (*domain.Identity, error)  { return nil, nil }
func (noopSessionStore) Save(_ context.Context, _ domain.Identity) error { return nil }
func (noopSessionStore) Clear(_ context.Context) error                    { return nil }

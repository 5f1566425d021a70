package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/domain"
	"github.com/Apurer/go-gin-pos-ledger/internal/domains/ledger/ports"
)

// DefaultSessionTTL provides the fallback TTL when none is configured.
const DefaultSessionTTL = 12 * time.Hour

// DefaultTerminalID names the session row when a deployment runs a single terminal.
const DefaultTerminalID = "default"

// SessionStore persists the signed-in identity of one terminal in PostgreSQL.
type SessionStore struct {
	db         *gorm.DB
	terminalID string
	ttl        time.Duration
	now        func() time.Time
}

// NewSessionStore wires a PostgreSQL-backed session store. Caller owns DB lifecycle.
func NewSessionStore(db *gorm.DB, terminalID string, ttl time.Duration) *SessionStore {
	terminalID = strings.TrimSpace(terminalID)
	if terminalID == "" {
		terminalID = DefaultTerminalID
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{db: db, terminalID: terminalID, ttl: ttl, now: time.Now}
}

// Load returns the stored identity unless it has expired.
func (s *SessionStore) Load(ctx context.Context) (*domain.Identity, error) {
	if err := s.ensureDB(); err != nil {
		return nil, err
	}
	var rec sessionRecord
	err := s.db.WithContext(ctx).
		Where("terminal_id = ? AND (expires_at IS NULL OR expires_at > ?)", s.terminalID, s.now()).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &domain.Identity{UserID: rec.UserID, UserName: rec.UserName, Token: rec.Token}, nil
}

// Save upserts the identity for this terminal.
func (s *SessionStore) Save(ctx context.Context, identity domain.Identity) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	if identity.IsZero() {
		return errors.New("user id is required")
	}
	expiry := s.now().Add(s.ttl)
	rec := sessionRecord{
		TerminalID: s.terminalID,
		UserID:     identity.UserID,
		UserName:   identity.UserName,
		Token:      identity.Token,
		ExpiresAt:  &expiry,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "terminal_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"user_id", "user_name", "token", "expires_at", "updated_at"}),
		}).
		Create(&rec).Error
}

// Clear removes the identity for this terminal.
func (s *SessionStore) Clear(ctx context.Context) error {
	if err := s.ensureDB(); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Delete(&sessionRecord{}, "terminal_id = ?", s.terminalID).Error
}

// PurgeExpired removes expired sessions of every terminal and reports how many were removed.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	if err := s.ensureDB(); err != nil {
		return 0, err
	}
	result := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", s.now()).
		Delete(&sessionRecord{})
	return result.RowsAffected, result.Error
}

func (s *SessionStore) ensureDB() error {
	if s == nil || s.db == nil {
		return errors.New("postgres session store not configured")
	}
	return nil
}

var _ ports.SessionStore = (*SessionStore)(nil)

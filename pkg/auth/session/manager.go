package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/config"
	"github.com/google/uuid"
)

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Del(ctx context.Context, keys ...string) error
	SessionKey(jti string) string
}

// Manager tracks issued access tokens by jti so logout can revoke them before expiry.
type Manager struct {
	store sessionStore
	ttl   time.Duration
}

// AccessSessionChecker exposes the read-only surface needed by middleware.
type AccessSessionChecker interface {
	HasSession(ctx context.Context, jti string) (bool, error)
}

// NewManager constructs a session manager backed by Redis.
func NewManager(store sessionStore, cfg config.JWTConfig) (*Manager, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	ttl := cfg.TokenTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Create records a fresh session for subject and returns the jti to embed in its token.
func (m *Manager) Create(ctx context.Context, subject string) (string, error) {
	if strings.TrimSpace(subject) == "" {
		return "", fmt.Errorf("session subject is required")
	}
	jti := NewAccessID()
	if err := m.store.Set(ctx, m.store.SessionKey(jti), subject, m.ttl); err != nil {
		return "", err
	}
	return jti, nil
}

// HasSession reports whether the jti is still backed by a live session.
func (m *Manager) HasSession(ctx context.Context, jti string) (bool, error) {
	if strings.TrimSpace(jti) == "" {
		return false, fmt.Errorf("access id is required")
	}
	return m.store.Exists(ctx, m.store.SessionKey(jti))
}

// Revoke deletes the session tied to the jti.
func (m *Manager) Revoke(ctx context.Context, jti string) error {
	if strings.TrimSpace(jti) == "" {
		return fmt.Errorf("access id is required")
	}
	return m.store.Del(ctx, m.store.SessionKey(jti))
}

// NewAccessID produces the identifier used as the JWT jti and Redis key.
func NewAccessID() string {
	return uuid.NewString()
}

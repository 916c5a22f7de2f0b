package ports

import (
	"context"
	"time"

	"github.com/aretw0/adwizard/pkg/domain"
)

// SessionStore defines the interface for persisting wizard sessions.
type SessionStore interface {
	// Save persists the session under the given id.
	Save(ctx context.Context, sessionID string, session *domain.Session) error

	// Load retrieves the session for a given id.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.Session, error)

	// Delete removes the session for a given id.
	Delete(ctx context.Context, sessionID string) error

	// List returns all active session ids.
	List(ctx context.Context) ([]string, error)
}

// KeyValueStore persists small values such as notification preferences or
// "while you were away" markers. A zero ttl means no expiry.
type KeyValueStore interface {
	// Get returns the value for key; ok is false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

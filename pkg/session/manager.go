package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/adwizard/internal/logging"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/ports"
)

// DefaultLockTTL bounds how long a distributed session lock is held if the holder dies.
const DefaultLockTTL = 30 * time.Second

// slot is the in-process turn for one session. sem has capacity one; holding
// its token means owning the session. waiters counts goroutines holding or
// queued for the token, and the slot is dropped when it reaches zero.
type slot struct {
	sem     chan struct{}
	waiters int
}

// Manager serializes load-modify-save cycles on wizard sessions. Two replies
// to the same session never interleave; replies to different sessions never
// wait on each other.
type Manager struct {
	store ports.SessionStore

	mu    sync.Mutex
	slots map[string]*slot

	locker  ports.DistributedLocker
	lockTTL time.Duration
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker also takes a distributed lock per cycle, for replicas sharing a store.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL overrides DefaultLockTTL.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a Manager over store.
func NewManager(store ports.SessionStore, opts ...Option) *Manager {
	m := &Manager{
		store:   store,
		slots:   make(map[string]*slot),
		lockTTL: DefaultLockTTL,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Load returns the stored session.
func (m *Manager) Load(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.exclusive(ctx, sessionID, func(ctx context.Context) (err error) {
		s, err = m.store.Load(ctx, sessionID)
		return err
	})
	return s, err
}

// LoadOrCreate returns the stored session, or saves a fresh one in template
// selection when the id is unknown. Concurrent callers get the same session.
func (m *Manager) LoadOrCreate(ctx context.Context, sessionID string) (*domain.Session, error) {
	var s *domain.Session
	err := m.exclusive(ctx, sessionID, func(ctx context.Context) error {
		existing, err := m.store.Load(ctx, sessionID)
		switch {
		case err == nil:
			s = existing
			return nil
		case !errors.Is(err, domain.ErrSessionNotFound):
			return fmt.Errorf("failed to check session existence: %w", err)
		}

		fresh := domain.NewSession(sessionID)
		if err := m.store.Save(ctx, sessionID, fresh); err != nil {
			return fmt.Errorf("failed to initialize session: %w", err)
		}
		s = fresh
		return nil
	})
	return s, err
}

// Update applies fn to a private copy of the session and saves it. An error
// from fn discards the copy. before and after are the session on either side
// of fn; after carries a fresh UpdatedAt.
func (m *Manager) Update(ctx context.Context, sessionID string, fn func(s *domain.Session) error) (before, after *domain.Session, err error) {
	err = m.exclusive(ctx, sessionID, func(ctx context.Context) error {
		current, err := m.store.Load(ctx, sessionID)
		if err != nil {
			return err
		}
		next := current.Snapshot()
		if err := fn(next); err != nil {
			return err
		}
		next.UpdatedAt = time.Now().UTC()
		if err := m.store.Save(ctx, sessionID, next); err != nil {
			return err
		}
		before, after = current, next
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return before, after, nil
}

// Delete removes the session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.exclusive(ctx, sessionID, func(ctx context.Context) error {
		return m.store.Delete(ctx, sessionID)
	})
}

// List returns the stored session ids.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	return m.store.List(ctx)
}

// Store returns the underlying session store.
func (m *Manager) Store() ports.SessionStore {
	return m.store
}

// exclusive runs fn while owning the session, first in process and then,
// when configured, across replicas.
func (m *Manager) exclusive(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	done, err := m.enter(ctx, sessionID)
	if err != nil {
		return err
	}
	defer done()

	if m.locker == nil {
		return fn(ctx)
	}

	unlock, err := m.locker.Lock(ctx, sessionID, m.lockTTL)
	if err != nil {
		return fmt.Errorf("failed to acquire distributed lock: %w", err)
	}
	defer func() {
		// Release even when ctx was cancelled mid-cycle.
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			m.logger.Warn("failed to release distributed lock, it will expire",
				"session_id", sessionID, "ttl", m.lockTTL, "err", err)
		}
	}()
	return fn(ctx)
}

// enter waits for the session's turn. A caller whose ctx ends while queued
// gives up its place and gets ctx.Err().
func (m *Manager) enter(ctx context.Context, sessionID string) (func(), error) {
	m.mu.Lock()
	sl, ok := m.slots[sessionID]
	if !ok {
		sl = &slot{sem: make(chan struct{}, 1)}
		m.slots[sessionID] = sl
	}
	sl.waiters++
	m.mu.Unlock()

	select {
	case sl.sem <- struct{}{}:
	case <-ctx.Done():
		m.leave(sessionID, sl)
		return nil, ctx.Err()
	}
	return func() {
		<-sl.sem
		m.leave(sessionID, sl)
	}, nil
}

func (m *Manager) leave(sessionID string, sl *slot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sl.waiters--
	if sl.waiters == 0 && m.slots[sessionID] == sl {
		delete(m.slots, sessionID)
	}
}

package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/adwizard/internal/logging"
	"github.com/aretw0/adwizard/pkg/ports"
)

// ErrFeedbackSubmitted is returned when a session already has feedback.
var ErrFeedbackSubmitted = errors.New("feedback already submitted")

// DefaultStateTTL bounds how long per-session notification state is kept.
const DefaultStateTTL = 7 * 24 * time.Hour

// Kind classifies an Event.
type Kind string

const (
	KindGenerationComplete Kind = "generation_complete"
	KindGenerationFailed   Kind = "generation_failed"
)

// Event is one notification-worthy outcome.
type Event struct {
	SessionID string    `json:"session_id"`
	Kind      Kind      `json:"kind"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	At        time.Time `json:"at"`
}

// Preferences are the user's notification switches.
type Preferences struct {
	Sound  bool `json:"sound"`
	Native bool `json:"native"`
}

// DefaultPreferences is used until a session stores its own.
var DefaultPreferences = Preferences{Sound: true, Native: true}

// Feedback is the rating a user leaves after seeing results.
type Feedback struct {
	Rating  int       `json:"rating"`
	Comment string    `json:"comment,omitempty"`
	At      time.Time `json:"at"`
}

// Dispatcher routes events to a Notifier or to the away queue.
type Dispatcher struct {
	kv       ports.KeyValueStore
	notifier ports.Notifier
	ttl      time.Duration
	logger   *slog.Logger

	mu sync.Mutex // serializes queue and feedback read-modify-write
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithStateTTL overrides DefaultStateTTL.
func WithStateTTL(ttl time.Duration) Option {
	return func(d *Dispatcher) {
		d.ttl = ttl
	}
}

// NewDispatcher creates a dispatcher. notifier may be nil, in which case
// events are only queued or dropped.
func NewDispatcher(kv ports.KeyValueStore, notifier ports.Notifier, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		kv:       kv,
		notifier: notifier,
		ttl:      DefaultStateTTL,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func prefsKey(sessionID string) string    { return "prefs:" + sessionID }
func awayKey(sessionID string) string     { return "away:" + sessionID }
func queueKey(sessionID string) string    { return "queue:" + sessionID }
func feedbackKey(sessionID string) string { return "feedback:" + sessionID }

// Preferences returns the stored preferences or DefaultPreferences.
func (d *Dispatcher) Preferences(ctx context.Context, sessionID string) (Preferences, error) {
	p := DefaultPreferences
	ok, err := d.getJSON(ctx, prefsKey(sessionID), &p)
	if err != nil || !ok {
		return DefaultPreferences, err
	}
	return p, nil
}

// SetPreferences stores the preferences for a session.
func (d *Dispatcher) SetPreferences(ctx context.Context, sessionID string, p Preferences) error {
	return d.setJSON(ctx, prefsKey(sessionID), p)
}

// Away reports whether the session's user is currently away.
func (d *Dispatcher) Away(ctx context.Context, sessionID string) (bool, error) {
	_, ok, err := d.kv.Get(ctx, awayKey(sessionID))
	return ok, err
}

// SetAway records presence. Coming back returns and clears the queued events.
func (d *Dispatcher) SetAway(ctx context.Context, sessionID string, away bool) ([]Event, error) {
	if away {
		return nil, d.kv.Set(ctx, awayKey(sessionID), []byte("1"), d.ttl)
	}
	if err := d.kv.Delete(ctx, awayKey(sessionID)); err != nil {
		return nil, err
	}
	return d.drain(ctx, sessionID)
}

// Pending returns queued events without clearing them.
func (d *Dispatcher) Pending(ctx context.Context, sessionID string) ([]Event, error) {
	var events []Event
	if _, err := d.getJSON(ctx, queueKey(sessionID), &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (d *Dispatcher) drain(ctx context.Context, sessionID string) ([]Event, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var events []Event
	if _, err := d.getJSON(ctx, queueKey(sessionID), &events); err != nil {
		return nil, err
	}
	if err := d.kv.Delete(ctx, queueKey(sessionID)); err != nil {
		return nil, err
	}
	return events, nil
}

// Notify delivers e: queued when the user is away, otherwise sound and native
// notification per preferences. Notifier failures are logged, not returned.
func (d *Dispatcher) Notify(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}

	away, err := d.Away(ctx, e.SessionID)
	if err != nil {
		return fmt.Errorf("failed to read presence: %w", err)
	}
	if away {
		return d.enqueue(ctx, e)
	}

	if d.notifier == nil {
		return nil
	}
	prefs, err := d.Preferences(ctx, e.SessionID)
	if err != nil {
		return fmt.Errorf("failed to read preferences: %w", err)
	}
	ctx = WithSessionID(ctx, e.SessionID)
	if prefs.Sound {
		if err := d.notifier.PlaySound(ctx); err != nil {
			d.logger.Warn("play sound failed", "session_id", e.SessionID, "err", err)
		}
	}
	if prefs.Native {
		payload := ports.NotificationPayload{
			SessionID: e.SessionID,
			Title:     e.Title,
			Body:      e.Body,
			Tag:       string(e.Kind),
		}
		if err := d.notifier.ShowNativeNotification(ctx, payload); err != nil {
			d.logger.Warn("native notification failed", "session_id", e.SessionID, "err", err)
		}
	}
	return nil
}

func (d *Dispatcher) enqueue(ctx context.Context, e Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var events []Event
	if _, err := d.getJSON(ctx, queueKey(e.SessionID), &events); err != nil {
		return err
	}
	events = append(events, e)
	d.logger.Debug("queued notification while away", "session_id", e.SessionID, "pending", len(events))
	return d.setJSON(ctx, queueKey(e.SessionID), events)
}

// SubmitFeedback records feedback once per session.
func (d *Dispatcher) SubmitFeedback(ctx context.Context, sessionID string, fb Feedback) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	submitted, err := d.FeedbackSubmitted(ctx, sessionID)
	if err != nil {
		return err
	}
	if submitted {
		return ErrFeedbackSubmitted
	}
	if fb.At.IsZero() {
		fb.At = time.Now().UTC()
	}
	return d.setJSON(ctx, feedbackKey(sessionID), fb)
}

// FeedbackSubmitted reports whether the session already left feedback.
func (d *Dispatcher) FeedbackSubmitted(ctx context.Context, sessionID string) (bool, error) {
	_, ok, err := d.kv.Get(ctx, feedbackKey(sessionID))
	return ok, err
}

// Forget removes all notification state of a session.
func (d *Dispatcher) Forget(ctx context.Context, sessionID string) error {
	var errs []error
	for _, key := range []string{prefsKey(sessionID), awayKey(sessionID), queueKey(sessionID), feedbackKey(sessionID)} {
		if err := d.kv.Delete(ctx, key); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (d *Dispatcher) getJSON(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := d.kv.Get(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

func (d *Dispatcher) setJSON(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return d.kv.Set(ctx, key, raw, d.ttl)
}

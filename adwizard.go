package adwizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/adwizard/internal/logging"
	"github.com/aretw0/adwizard/pkg/adapters/generator"
	"github.com/aretw0/adwizard/pkg/adapters/memory"
	"github.com/aretw0/adwizard/pkg/catalog"
	"github.com/aretw0/adwizard/pkg/domain"
	"github.com/aretw0/adwizard/pkg/flow"
	"github.com/aretw0/adwizard/pkg/matcher"
	"github.com/aretw0/adwizard/pkg/notify"
	"github.com/aretw0/adwizard/pkg/ports"
	"github.com/aretw0/adwizard/pkg/session"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// DefaultGenerationTimeout bounds a single generation run.
const DefaultGenerationTimeout = 2 * time.Minute

// persistTimeout bounds the write that records a finished generation run.
const persistTimeout = 10 * time.Second

// errUnchanged aborts a session update whose transition was a no-op.
var errUnchanged = errors.New("unchanged")

// ChangeListener receives the diff of every persisted session change.
type ChangeListener func(ctx context.Context, diff *domain.SessionDiff)

// Wizard is the high-level entry point: it owns sessions and drives them
// through template selection, input collection and generation.
type Wizard struct {
	catalog   ports.TemplateCatalog
	store     ports.SessionStore
	locker    ports.DistributedLocker
	kv        ports.KeyValueStore
	generator ports.Generator
	analyzer  ports.Analyzer
	notifier  ports.Notifier
	matcher   *matcher.Matcher
	hooks     domain.LifecycleHooks
	listeners []ChangeListener
	logger    *slog.Logger

	generationTimeout time.Duration

	sessions   *session.Manager
	machine    *flow.Machine
	dispatcher *notify.Dispatcher

	flights singleflight.Group // product analysis, keyed by link
	runs    sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	signalMu sync.Mutex
	signals  map[string]chan struct{}
}

// Option defines a functional option for configuring the Wizard.
type Option func(*Wizard)

// WithCatalog sets the template catalog (default: built-in templates).
func WithCatalog(c ports.TemplateCatalog) Option {
	return func(w *Wizard) {
		w.catalog = c
	}
}

// WithStore sets the session store (default: in-memory).
func WithStore(s ports.SessionStore) Option {
	return func(w *Wizard) {
		w.store = s
	}
}

// WithLocker enables distributed session locking.
func WithLocker(l ports.DistributedLocker) Option {
	return func(w *Wizard) {
		w.locker = l
	}
}

// WithKeyValueStore sets where notification state is kept (default: in-memory).
func WithKeyValueStore(kv ports.KeyValueStore) Option {
	return func(w *Wizard) {
		w.kv = kv
	}
}

// WithGenerator sets the creative-generation service (default: a mock with a short delay).
func WithGenerator(g ports.Generator) Option {
	return func(w *Wizard) {
		w.generator = g
	}
}

// WithAnalyzer sets the product analyzer used for pasted links.
func WithAnalyzer(a ports.Analyzer) Option {
	return func(w *Wizard) {
		w.analyzer = a
	}
}

// WithNotifier sets the notifier for finished generations.
func WithNotifier(n ports.Notifier) Option {
	return func(w *Wizard) {
		w.notifier = n
	}
}

// WithMatcher overrides the option matcher.
func WithMatcher(m *matcher.Matcher) Option {
	return func(w *Wizard) {
		w.matcher = m
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(w *Wizard) {
		w.hooks = w.hooks.Merge(hooks)
	}
}

// WithChangeListener registers a listener for session diffs.
func WithChangeListener(l ChangeListener) Option {
	return func(w *Wizard) {
		w.listeners = append(w.listeners, l)
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Wizard) {
		w.logger = logger
	}
}

// WithGenerationTimeout overrides DefaultGenerationTimeout.
func WithGenerationTimeout(d time.Duration) Option {
	return func(w *Wizard) {
		if d > 0 {
			w.generationTimeout = d
		}
	}
}

// New initializes a Wizard. Every dependency has an in-process default, so
// New() alone yields a working wizard backed by memory and a mock generator.
func New(opts ...Option) (*Wizard, error) {
	w := &Wizard{
		generationTimeout: DefaultGenerationTimeout,
		signals:           make(map[string]chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if w.logger == nil {
		w.logger = logging.NewNop()
	}
	if w.catalog == nil {
		w.catalog = catalog.Builtin()
	}
	if w.store == nil {
		w.store = memory.NewStore()
	}
	if w.kv == nil {
		w.kv = memory.NewKeyValueStore()
	}
	if w.generator == nil {
		w.generator = generator.NewMock(2 * time.Second)
	}
	if w.matcher == nil {
		w.matcher = matcher.New()
	}

	sessionOpts := []session.Option{session.WithLogger(w.logger)}
	if w.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(w.locker))
	}
	w.sessions = session.NewManager(w.store, sessionOpts...)
	w.machine = flow.New(w.catalog)
	w.dispatcher = notify.NewDispatcher(w.kv, w.notifier, notify.WithLogger(w.logger))
	w.ctx, w.cancel = context.WithCancel(context.Background())

	return w, nil
}

// Turn is the result of one wizard operation.
type Turn struct {
	Session *domain.Session     `json:"session"`
	Prompt  *domain.Prompt      `json:"prompt,omitempty"`
	Match   *domain.MatchResult `json:"match,omitempty"`
	Changed bool                `json:"changed"`

	// Notifications holds events queued while the user was away.
	Notifications []notify.Event `json:"notifications,omitempty"`
}

// Create starts a new session. An empty id gets a random UUID.
func (w *Wizard) Create(ctx context.Context, sessionID string) (*Turn, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	s, err := w.sessions.LoadOrCreate(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	w.publishDiff(ctx, nil, s)
	return w.turn(ctx, s, true)
}

// Get returns the session and the prompt for its current step.
func (w *Wizard) Get(ctx context.Context, sessionID string) (*Turn, error) {
	s, err := w.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return w.turn(ctx, s, false)
}

// Delete removes a session and its notification state.
func (w *Wizard) Delete(ctx context.Context, sessionID string) error {
	if err := w.sessions.Delete(ctx, sessionID); err != nil {
		return err
	}
	w.signal(sessionID)
	if err := w.dispatcher.Forget(ctx, sessionID); err != nil {
		w.logger.Warn("failed to clear notification state", "session_id", sessionID, "err", err)
	}
	return nil
}

// List returns all session ids.
func (w *Wizard) List(ctx context.Context) ([]string, error) {
	return w.sessions.List(ctx)
}

// Templates lists the catalog.
func (w *Wizard) Templates(ctx context.Context) ([]domain.Template, error) {
	return w.catalog.List(ctx)
}

// Catalog returns the template catalog in use.
func (w *Wizard) Catalog() ports.TemplateCatalog {
	return w.catalog
}

// Match runs the configured matcher without touching any session.
func (w *Wizard) Match(input string, q *domain.Question) domain.MatchResult {
	return w.matcher.Match(input, q)
}

// SelectTemplate picks a template. Unknown ids leave the session unchanged.
func (w *Wizard) SelectTemplate(ctx context.Context, sessionID, templateID string) (*Turn, error) {
	return w.apply(ctx, sessionID, func(ctx context.Context, s *domain.Session) (flow.Transition, error) {
		return w.machine.SelectTemplate(ctx, s, templateID)
	})
}

// StartFreeform skips template selection and generates from a single prompt.
func (w *Wizard) StartFreeform(ctx context.Context, sessionID, prompt string) (*Turn, error) {
	return w.apply(ctx, sessionID, func(ctx context.Context, s *domain.Session) (flow.Transition, error) {
		return w.machine.StartFreeform(s, prompt), nil
	})
}

// ProvideInput records a value for one of the template inputs.
func (w *Wizard) ProvideInput(ctx context.Context, sessionID, inputID string, value domain.InputValue) (*Turn, error) {
	return w.apply(ctx, sessionID, func(ctx context.Context, s *domain.Session) (flow.Transition, error) {
		return w.machine.ProvideInput(s, inputID, value), nil
	})
}

// SkipInput declines an optional input.
func (w *Wizard) SkipInput(ctx context.Context, sessionID, inputID string) (*Turn, error) {
	return w.apply(ctx, sessionID, func(ctx context.Context, s *domain.Session) (flow.Transition, error) {
		return w.machine.SkipInput(s, inputID), nil
	})
}

// StartGeneration launches generation. Repeated calls while a run is in
// flight are no-ops.
func (w *Wizard) StartGeneration(ctx context.Context, sessionID string) (*Turn, error) {
	return w.apply(ctx, sessionID, func(ctx context.Context, s *domain.Session) (flow.Transition, error) {
		return w.machine.StartGeneration(s), nil
	})
}

// Publish marks the result as published.
func (w *Wizard) Publish(ctx context.Context, sessionID string) (*Turn, error) {
	return w.apply(ctx, sessionID, func(ctx context.Context, s *domain.Session) (flow.Transition, error) {
		return w.machine.Publish(s), nil
	})
}

// Reset returns the session to template selection. A generation still in
// flight keeps running but its result is discarded.
func (w *Wizard) Reset(ctx context.Context, sessionID string) (*Turn, error) {
	return w.apply(ctx, sessionID, func(ctx context.Context, s *domain.Session) (flow.Transition, error) {
		return w.machine.Reset(s), nil
	})
}

// SetPresence records whether the user is looking at the session. Coming back
// returns the notifications queued in the meantime.
func (w *Wizard) SetPresence(ctx context.Context, sessionID string, away bool) (*Turn, error) {
	t, err := w.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	queued, err := w.dispatcher.SetAway(ctx, sessionID, away)
	if err != nil {
		return nil, fmt.Errorf("failed to update presence: %w", err)
	}
	t.Notifications = queued
	return t, nil
}

// NotificationSettings returns the session's notification preferences.
func (w *Wizard) NotificationSettings(ctx context.Context, sessionID string) (notify.Preferences, error) {
	if _, err := w.sessions.Load(ctx, sessionID); err != nil {
		return notify.Preferences{}, err
	}
	return w.dispatcher.Preferences(ctx, sessionID)
}

// SetNotificationSettings stores the session's notification preferences.
func (w *Wizard) SetNotificationSettings(ctx context.Context, sessionID string, p notify.Preferences) error {
	if _, err := w.sessions.Load(ctx, sessionID); err != nil {
		return err
	}
	return w.dispatcher.SetPreferences(ctx, sessionID, p)
}

// SubmitFeedback records a rating for the session's result. Feedback is
// accepted once per session.
func (w *Wizard) SubmitFeedback(ctx context.Context, sessionID string, fb notify.Feedback) error {
	if _, err := w.sessions.Load(ctx, sessionID); err != nil {
		return err
	}
	return w.dispatcher.SubmitFeedback(ctx, sessionID, fb)
}

// Wait blocks until the session is no longer generating or ctx is done.
func (w *Wizard) Wait(ctx context.Context, sessionID string) (*Turn, error) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	var changed <-chan struct{}
	for {
		s, err := w.sessions.Load(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		if s.CanvasState != domain.StateGenerating {
			// The outcome may have landed between Load and watch; release
			// the channel so it does not outlive the run.
			if changed != nil {
				w.signal(sessionID)
			}
			return w.turn(ctx, s, false)
		}
		if changed == nil {
			changed = w.watch(sessionID)
			continue
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-changed:
			changed = nil
		case <-ticker.C:
		}
	}
}

// Close cancels in-flight generation runs and waits for them to finish.
// Cancelled runs leave their sessions in a retryable error state.
func (w *Wizard) Close() error {
	w.cancel()
	w.runs.Wait()
	return nil
}

// apply runs op on the session under its lock, persists the result when op
// changed something, and launches generation when the session entered generating.
func (w *Wizard) apply(ctx context.Context, sessionID string, op func(context.Context, *domain.Session) (flow.Transition, error)) (*Turn, error) {
	tr, before, after, err := w.mutate(ctx, sessionID, op)
	if err != nil {
		return nil, err
	}
	w.afterTransition(ctx, before, after, tr)
	return w.turn(ctx, after, tr.Changed)
}

func (w *Wizard) mutate(ctx context.Context, sessionID string, op func(context.Context, *domain.Session) (flow.Transition, error)) (flow.Transition, *domain.Session, *domain.Session, error) {
	var tr flow.Transition
	before, after, err := w.sessions.Update(ctx, sessionID, func(s *domain.Session) error {
		var err error
		tr, err = op(ctx, s)
		if err != nil {
			return err
		}
		if !tr.Changed {
			return errUnchanged
		}
		return nil
	})
	if errors.Is(err, errUnchanged) {
		s, err := w.sessions.Load(ctx, sessionID)
		return tr, s, s, err
	}
	return tr, before, after, err
}

func (w *Wizard) afterTransition(ctx context.Context, before, after *domain.Session, tr flow.Transition) {
	if !tr.Changed {
		return
	}
	if tr.From != tr.To && w.hooks.OnTransition != nil {
		w.hooks.OnTransition(ctx, &domain.TransitionEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTransition, SessionID: after.ID},
			From:      tr.From,
			To:        tr.To,
		})
	}
	w.publishDiff(ctx, before, after)
	if tr.GenerationID != "" {
		w.launch(after)
	}
}

func (w *Wizard) publishDiff(ctx context.Context, before, after *domain.Session) {
	if len(w.listeners) == 0 {
		return
	}
	diff := domain.Diff(before, after)
	if diff == nil {
		return
	}
	for _, l := range w.listeners {
		l(ctx, diff)
	}
}

func (w *Wizard) turn(ctx context.Context, s *domain.Session, changed bool) (*Turn, error) {
	prompt, err := w.machine.NextPrompt(ctx, s)
	if err != nil {
		return nil, err
	}
	return &Turn{Session: s, Prompt: prompt, Changed: changed}, nil
}

// watch returns a channel closed on the session's next generation outcome.
// Only waiters on a generating session register one.
func (w *Wizard) watch(sessionID string) <-chan struct{} {
	w.signalMu.Lock()
	defer w.signalMu.Unlock()
	ch, ok := w.signals[sessionID]
	if !ok {
		ch = make(chan struct{})
		w.signals[sessionID] = ch
	}
	return ch
}

// signal wakes the session's waiters and drops the channel.
func (w *Wizard) signal(sessionID string) {
	w.signalMu.Lock()
	defer w.signalMu.Unlock()
	if ch, ok := w.signals[sessionID]; ok {
		close(ch)
		delete(w.signals, sessionID)
	}
}

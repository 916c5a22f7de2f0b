package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aretw0/adwizard/pkg/ports"
)

type sessionKey struct{}

// WithSessionID attaches the session a notification belongs to. PlaySound has
// no payload, so notifiers that route per session read it from the context.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionKey{}, sessionID)
}

// SessionIDFromContext returns the id set by WithSessionID.
func SessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// LogNotifier writes notifications to a logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) PlaySound(ctx context.Context) error {
	n.Logger.Info("notification sound", "session_id", SessionIDFromContext(ctx))
	return nil
}

func (n LogNotifier) ShowNativeNotification(ctx context.Context, p ports.NotificationPayload) error {
	n.Logger.Info("native notification",
		"session_id", p.SessionID,
		"title", p.Title,
		"body", p.Body,
		"tag", p.Tag,
	)
	return nil
}

// Publisher pushes a named event to the subscribers of a session.
type Publisher interface {
	Publish(sessionID, event string, data any)
}

// StreamNotifier forwards notifications to live event streams so the browser
// can play the sound or raise the notification itself.
type StreamNotifier struct {
	Publisher Publisher
}

// Event names used by StreamNotifier.
const (
	StreamEventSound        = "sound"
	StreamEventNotification = "notification"
)

func (n StreamNotifier) PlaySound(ctx context.Context) error {
	n.Publisher.Publish(SessionIDFromContext(ctx), StreamEventSound, struct{}{})
	return nil
}

func (n StreamNotifier) ShowNativeNotification(ctx context.Context, p ports.NotificationPayload) error {
	n.Publisher.Publish(p.SessionID, StreamEventNotification, p)
	return nil
}

// Multi fans out to several notifiers and joins their errors.
type Multi []ports.Notifier

func (m Multi) PlaySound(ctx context.Context) error {
	var errs []error
	for _, n := range m {
		if err := n.PlaySound(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) ShowNativeNotification(ctx context.Context, p ports.NotificationPayload) error {
	var errs []error
	for _, n := range m {
		if err := n.ShowNativeNotification(ctx, p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

package notify_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/aretw0/adwizard/pkg/notify"
	"github.com/aretw0/adwizard/pkg/ports"
	"github.com/stretchr/testify/assert"
)

type published struct {
	sessionID, event string
	data             any
}

type fakePublisher struct {
	events []published
}

func (p *fakePublisher) Publish(sessionID, event string, data any) {
	p.events = append(p.events, published{sessionID, event, data})
}

func TestStreamNotifier(t *testing.T) {
	pub := &fakePublisher{}
	n := notify.StreamNotifier{Publisher: pub}
	ctx := notify.WithSessionID(context.Background(), "s1")

	assert.NoError(t, n.PlaySound(ctx))
	assert.NoError(t, n.ShowNativeNotification(ctx, ports.NotificationPayload{SessionID: "s1", Title: "Ready"}))

	if assert.Len(t, pub.events, 2) {
		assert.Equal(t, "s1", pub.events[0].sessionID)
		assert.Equal(t, notify.StreamEventSound, pub.events[0].event)
		assert.Equal(t, notify.StreamEventNotification, pub.events[1].event)
	}
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := notify.LogNotifier{Logger: slog.New(slog.NewTextHandler(&buf, nil))}

	assert.NoError(t, n.ShowNativeNotification(context.Background(), ports.NotificationPayload{SessionID: "s1", Title: "Ready"}))
	assert.Contains(t, buf.String(), "title=Ready")
}

func TestMulti_JoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	ok := &recorder{}
	failing := &recorder{err: boom}
	m := notify.Multi{ok, failing}

	err := m.PlaySound(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Len(t, ok.sounds, 1)
	assert.Len(t, failing.sounds, 1)
}

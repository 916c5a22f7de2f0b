package ports

import "context"

// NotificationPayload is the content of a native notification.
type NotificationPayload struct {
	SessionID string `json:"session_id,omitempty"`
	Title     string `json:"title"`
	Body      string `json:"body"`
	Tag       string `json:"tag,omitempty"`
}

// Notifier is the application-wide channel for audible and native notifications.
// One instance is constructed per application and passed by reference.
type Notifier interface {
	PlaySound(ctx context.Context) error
	ShowNativeNotification(ctx context.Context, payload NotificationPayload) error
}

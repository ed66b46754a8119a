package worker

import (
	"context"
	"sync"
)

// NotificationAction is a button shown on a notification
type NotificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
	Icon   string `json:"icon,omitempty"`
}

// NotificationOptions mirrors the options accepted by showNotification
type NotificationOptions struct {
	Body               string               `json:"body"`
	Icon               string               `json:"icon,omitempty"`
	Badge              string               `json:"badge,omitempty"`
	Tag                string               `json:"tag,omitempty"`
	RequireInteraction bool                 `json:"requireInteraction"`
	Actions            []NotificationAction `json:"actions,omitempty"`
	Data               map[string]string    `json:"data,omitempty"`
}

// Notification is a notification shown by the platform
type Notification struct {
	Title   string              `json:"title"`
	Options NotificationOptions `json:"options"`

	closeOnce sync.Once
	onClose   func()
}

// NewNotification creates a notification; onClose runs once on Close
func NewNotification(title string, opts NotificationOptions, onClose func()) *Notification {
	return &Notification{Title: title, Options: opts, onClose: onClose}
}

// Data returns the data carried through to click handling
func (n *Notification) Data() map[string]string {
	return n.Options.Data
}

// Close removes the notification from the notification center
func (n *Notification) Close() {
	n.closeOnce.Do(func() {
		if n.onClose != nil {
			n.onClose()
		}
	})
}

// Registration displays notifications on behalf of the worker
type Registration interface {
	ShowNotification(ctx context.Context, title string, opts NotificationOptions) error
}

// MatchOptions filters the clients returned by MatchAll
type MatchOptions struct {
	Type                string
	IncludeUncontrolled bool
}

// Clients enumerates and opens application windows
type Clients interface {
	MatchAll(ctx context.Context, opts MatchOptions) ([]WindowClient, error)
	OpenWindow(ctx context.Context, url string) (WindowClient, error)
}

// WindowClient is an open application window or tab
type WindowClient interface {
	URL() string
	Focus(ctx context.Context) error
	Navigate(ctx context.Context, url string) error
}

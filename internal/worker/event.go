package worker

import (
	"bytes"
	"context"
	"encoding/json"

	"pwa-push-backend/internal/notification/domain"

	"golang.org/x/sync/errgroup"
)

// ExtendableEvent tracks the asynchronous work an event handler starts.
// The platform keeps the worker alive until every function passed to
// WaitUntil has returned.
type ExtendableEvent struct {
	ctx   context.Context
	group *errgroup.Group
}

// NewExtendableEvent creates an event bound to ctx
func NewExtendableEvent(ctx context.Context) *ExtendableEvent {
	group, gctx := errgroup.WithContext(ctx)
	return &ExtendableEvent{ctx: gctx, group: group}
}

// WaitUntil extends the event's lifetime until fn returns
func (e *ExtendableEvent) WaitUntil(fn func(ctx context.Context) error) {
	e.group.Go(func() error {
		return fn(e.ctx)
	})
}

// Wait blocks until all extended work settles and returns the first error
func (e *ExtendableEvent) Wait() error {
	return e.group.Wait()
}

// Event is one of the events a worker receives from the platform
type Event interface {
	eventName() string
}

// MessageNotification is the notification block of a push payload
type MessageNotification struct {
	Title       string `json:"title,omitempty"`
	Body        string `json:"body,omitempty"`
	ClickAction string `json:"click_action,omitempty"`
}

// MessagePayload is the push payload shape delivered by the gateway
type MessagePayload struct {
	Notification *MessageNotification `json:"notification,omitempty"`
	Data         map[string]string    `json:"data,omitempty"`
}

// UnmarshalJSON accepts non-string data values and flattens them to strings
func (p *MessagePayload) UnmarshalJSON(b []byte) error {
	var raw struct {
		Notification *MessageNotification  `json:"notification"`
		Data         map[string]interface{} `json:"data"`
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	p.Notification = raw.Notification
	p.Data = domain.StringifyData(raw.Data)
	return nil
}

// BackgroundMessageEvent is a decoded message delivered while no page is focused
type BackgroundMessageEvent struct {
	Payload MessagePayload
}

// PushEvent is a raw push with an undecoded body; nil Data means no body
type PushEvent struct {
	Data []byte
}

// NotificationClickEvent fires when the user clicks a notification or one
// of its action buttons. Action is empty for a click on the body.
type NotificationClickEvent struct {
	Notification *Notification
	Action       string
}

// NotificationCloseEvent fires when a notification is dismissed
type NotificationCloseEvent struct {
	Notification *Notification
}

func (BackgroundMessageEvent) eventName() string { return "backgroundmessage" }
func (PushEvent) eventName() string              { return "push" }
func (NotificationClickEvent) eventName() string { return "notificationclick" }
func (NotificationCloseEvent) eventName() string { return "notificationclose" }

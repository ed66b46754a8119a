package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sync"

	"pwa-push-backend/internal/notification/domain"
	"pwa-push-backend/pkg/apperror"
	"pwa-push-backend/pkg/logger"
)

// Fallback text for pushes that carry no title or body
const (
	DefaultTitle = "New Notification"
	DefaultBody  = "You have a new message"
)

// Config controls how notifications look and where clicks go
type Config struct {
	// DefaultURL is opened when a payload names no click target
	DefaultURL string
	// AppOrigin identifies windows that belong to the app; derived from
	// DefaultURL when empty
	AppOrigin          string
	Icon               string
	Badge              string
	Tag                string
	RequireInteraction bool
}

// Worker handles push and notification events one at a time
type Worker struct {
	cfg          Config
	origin       *url.URL
	registration Registration
	clients      Clients

	mu sync.Mutex
}

var log = logger.For("worker")

// New creates a new Worker
func New(cfg Config, registration Registration, clients Clients) (*Worker, error) {
	rawOrigin := cfg.AppOrigin
	if rawOrigin == "" {
		rawOrigin = cfg.DefaultURL
	}
	origin, err := url.Parse(rawOrigin)
	if err != nil || origin.Host == "" {
		return nil, &apperror.ConfigurationError{Message: fmt.Sprintf("invalid app origin %q", rawOrigin), Err: err}
	}

	return &Worker{
		cfg:          cfg,
		origin:       origin,
		registration: registration,
		clients:      clients,
	}, nil
}

// Dispatch runs the handler for ev and waits for all work it extended.
// Events are processed strictly one after another.
func (w *Worker) Dispatch(ctx context.Context, ev Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	e := NewExtendableEvent(ctx)
	switch ev := ev.(type) {
	case BackgroundMessageEvent:
		w.handleBackgroundMessage(e, ev)
	case PushEvent:
		w.handlePush(e, ev)
	case NotificationClickEvent:
		w.handleNotificationClick(e, ev)
	case NotificationCloseEvent:
		w.handleNotificationClose(ev)
	default:
		return fmt.Errorf("unsupported event %T", ev)
	}
	return e.Wait()
}

func (w *Worker) handleBackgroundMessage(e *ExtendableEvent, ev BackgroundMessageEvent) {
	log.WithField("event", ev.eventName()).Debug("Received background message")
	w.display(e, ev.Payload)
}

func (w *Worker) handlePush(e *ExtendableEvent, ev PushEvent) {
	if len(ev.Data) == 0 {
		log.WithField("event", ev.eventName()).Debug("Push without data, nothing to show")
		return
	}

	var payload MessagePayload
	if err := json.Unmarshal(ev.Data, &payload); err != nil {
		log.WithError(&apperror.ParseError{Err: err}).Error("Error parsing push data")
		return
	}
	w.display(e, payload)
}

func (w *Worker) display(e *ExtendableEvent, payload MessagePayload) {
	title, opts := w.Present(payload)

	e.WaitUntil(func(ctx context.Context) error {
		if err := w.registration.ShowNotification(ctx, title, opts); err != nil {
			log.WithError(err).WithField("title", title).Error("Failed to show notification")
		}
		return nil
	})
}

// Present computes the title and options for a payload
func (w *Worker) Present(payload MessagePayload) (string, NotificationOptions) {
	var block MessageNotification
	if payload.Notification != nil {
		block = *payload.Notification
	}

	title := firstNonEmpty(block.Title, payload.Data["title"], DefaultTitle)
	body := firstNonEmpty(block.Body, payload.Data["body"], DefaultBody)

	data := make(map[string]string, len(payload.Data)+2)
	for k, v := range payload.Data {
		data[k] = v
	}
	// computed keys are written last so passthrough cannot override them
	data["click_action"] = firstNonEmpty(payload.Data["click_action"], block.ClickAction, payload.Data["url"], w.cfg.DefaultURL)
	data["url"] = firstNonEmpty(payload.Data["url"], w.cfg.DefaultURL)

	return title, NotificationOptions{
		Body:               body,
		Icon:               w.cfg.Icon,
		Badge:              w.cfg.Badge,
		Tag:                w.cfg.Tag,
		RequireInteraction: w.cfg.RequireInteraction,
		Actions: []NotificationAction{
			{Action: "open", Title: "Open App", Icon: w.cfg.Badge},
			{Action: "close", Title: "Close", Icon: w.cfg.Badge},
		},
		Data: data,
	}
}

func (w *Worker) handleNotificationClick(e *ExtendableEvent, ev NotificationClickEvent) {
	var data map[string]string
	if ev.Notification != nil {
		ev.Notification.Close()
		data = ev.Notification.Data()
	}

	entry := log.WithField("event", ev.eventName()).WithField("action", ev.Action)
	if ev.Action == "close" {
		entry.Debug("Notification dismissed from action")
		return
	}

	target := domain.ResolveClickURL(data, w.cfg.DefaultURL)
	entry.WithField("url", target).Info("Notification clicked")

	e.WaitUntil(func(ctx context.Context) error {
		w.route(ctx, target)
		return nil
	})
}

// route focuses an existing app window or opens target in a new one
func (w *Worker) route(ctx context.Context, target string) {
	windows, err := w.clients.MatchAll(ctx, MatchOptions{Type: "window", IncludeUncontrolled: true})
	if err != nil {
		log.WithError(err).Error("Error enumerating clients")
		w.open(ctx, target, nil)
		return
	}

	for _, client := range windows {
		if !w.isAppWindow(client.URL()) {
			continue
		}
		if err := client.Focus(ctx); err != nil {
			log.WithError(err).WithField("client", client.URL()).Warn("Could not focus existing client")
			break
		}
		log.WithField("client", client.URL()).Debug("Focused existing client")
		return
	}

	w.open(ctx, target, windows)
}

// open tries a new window, then navigating an existing one, then one
// more open.
func (w *Worker) open(ctx context.Context, target string, windows []WindowClient) {
	_, err := w.clients.OpenWindow(ctx, target)
	if err == nil {
		return
	}
	entry := log.WithField("url", target)
	entry.WithError(err).Warn("Opening window failed")

	if len(windows) > 0 {
		client := windows[0]
		if err := client.Navigate(ctx, target); err != nil {
			entry.WithError(err).Error("Navigating existing client failed")
			return
		}
		if err := client.Focus(ctx); err != nil {
			entry.WithError(err).Warn("Navigated client could not be focused")
		}
		return
	}

	if _, err := w.clients.OpenWindow(ctx, target); err != nil {
		entry.WithError(err).Error("Retrying window open failed")
	}
}

func (w *Worker) handleNotificationClose(ev NotificationCloseEvent) {
	entry := log.WithField("event", ev.eventName())
	if ev.Notification != nil {
		entry = entry.WithField("title", ev.Notification.Title)
	}
	entry.Info("Notification closed")
}

func (w *Worker) isAppWindow(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return u.Scheme == w.origin.Scheme && u.Host == w.origin.Host
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

package agent

import (
	"context"
	"errors"

	"pwa-push-backend/pkg/config"
	"pwa-push-backend/pkg/logger"
)

// Permission is the browser's notification permission state
type Permission string

const (
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
	PermissionDefault Permission = "default"
)

// ErrNoInstallPrompt is returned by PromptInstall when the platform has
// not offered an install prompt
var ErrNoInstallPrompt = errors.New("no install prompt available")

// Messaging is the client-side platform: notification permission plus the
// messaging SDK that issues device tokens.
type Messaging interface {
	// Available is false when messaging cannot run, e.g. outside a secure context
	Available() bool
	Permission() Permission
	RequestPermission(ctx context.Context) (Permission, error)
	GetToken(ctx context.Context, vapidKey string) (string, error)
}

// TokenReporter receives tokens from the agent
type TokenReporter interface {
	Register(ctx context.Context, token, userAgent string) (string, error)
	Deactivate(ctx context.Context, token string) error
}

// Agent registers this client for push and owns its install prompt
type Agent struct {
	messaging Messaging
	reporter  TokenReporter
	vapidKey  string
	userAgent string
	prompts   PromptStore
}

// New creates a new Agent
func New(messaging Messaging, reporter TokenReporter, vapidKey, userAgent string) *Agent {
	return &Agent{
		messaging: messaging,
		reporter:  reporter,
		vapidKey:  vapidKey,
		userAgent: userAgent,
	}
}

var log = logger.For("agent")

// RequestPermission asks the user for notification permission.
// Denial and platform failures both yield false.
func (a *Agent) RequestPermission(ctx context.Context) bool {
	if !a.messaging.Available() {
		log.Info("Messaging not available")
		return false
	}

	permission, err := a.messaging.RequestPermission(ctx)
	if err != nil {
		log.WithError(err).Error("Error requesting notification permission")
		return false
	}
	if permission != PermissionGranted {
		log.WithField("permission", string(permission)).Info("Notification permission denied")
		return false
	}
	log.Info("Notification permission granted")
	return true
}

// FetchToken asks the messaging SDK for the current device token. It
// returns false instead of an error whenever push cannot be used. Tokens
// rotate, so callers should fetch again rather than keep an old one.
func (a *Agent) FetchToken(ctx context.Context) (string, bool) {
	if !a.messaging.Available() {
		log.Info("Messaging not available")
		return "", false
	}
	if !config.IsUsableVAPIDKey(a.vapidKey) {
		log.Error("VAPID key not configured")
		return "", false
	}
	if a.messaging.Permission() != PermissionGranted {
		log.Debug("Notification permission not granted, no token")
		return "", false
	}

	token, err := a.messaging.GetToken(ctx, a.vapidKey)
	if err != nil {
		log.WithError(err).Error("Error occurred while retrieving token")
		return "", false
	}
	if token == "" {
		log.Warn("No registration token available")
		return "", false
	}

	log.WithField("token", logger.MaskToken(token)).Info("FCM token generated")
	return token, true
}

// Enable requests permission, fetches a token and registers it. An empty
// token with a nil error means push is unavailable on this client.
func (a *Agent) Enable(ctx context.Context) (string, error) {
	if !a.RequestPermission(ctx) {
		return "", nil
	}

	token, ok := a.FetchToken(ctx)
	if !ok {
		return "", nil
	}

	action, err := a.reporter.Register(ctx, token, a.userAgent)
	if err != nil {
		return "", err
	}
	log.WithField("action", action).Info("Device registered for push")
	return token, nil
}

// Disable deregisters token
func (a *Agent) Disable(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return a.reporter.Deactivate(ctx, token)
}

// HandleBeforeInstallPrompt stores the prompt for a later PromptInstall
func (a *Agent) HandleBeforeInstallPrompt(p InstallPrompt) {
	a.prompts.Set(p)
	log.Debug("Install prompt deferred")
}

// HandleAppInstalled drops any pending prompt
func (a *Agent) HandleAppInstalled() {
	a.prompts.Clear()
	log.Info("App installed")
}

// CanInstall reports whether an install prompt is waiting
func (a *Agent) CanInstall() bool {
	return a.prompts.Pending()
}

// PromptInstall shows the pending install prompt once and returns the
// user's choice.
func (a *Agent) PromptInstall(ctx context.Context) (string, error) {
	prompt, ok := a.prompts.Consume()
	if !ok {
		return "", ErrNoInstallPrompt
	}

	outcome, err := prompt.Prompt(ctx)
	if err != nil {
		return "", err
	}
	log.WithField("outcome", outcome).Info("Install prompt answered")
	return outcome, nil
}

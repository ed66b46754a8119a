package usecase

import (
	"context"
	"strings"
	"time"

	devicedomain "pwa-push-backend/internal/device/domain"
	"pwa-push-backend/internal/notification/domain"
	"pwa-push-backend/pkg/apperror"
	"pwa-push-backend/pkg/fcm"
	"pwa-push-backend/pkg/logger"
	"pwa-push-backend/pkg/metrics"

	"firebase.google.com/go/v4/messaging"
	"github.com/sethvargo/go-retry"
)

// Dispatcher delivers notifications through the push gateway
type Dispatcher interface {
	// Send pushes one notification to one token
	Send(ctx context.Context, req domain.SendRequest) (*domain.SendResult, error)

	// Broadcast pushes the same notification to every active token
	Broadcast(ctx context.Context, req domain.BroadcastRequest) (*domain.BroadcastResult, error)

	// PruneDeadTokens dry-runs a send to every active token and deactivates
	// the ones the gateway no longer recognizes
	PruneDeadTokens(ctx context.Context) (int, error)
}

// TokenStore is the part of the device registry the dispatcher needs
type TokenStore interface {
	// Deactivate reports whether a stored token matched
	Deactivate(ctx context.Context, token string) (bool, error)
	ListActive(ctx context.Context) ([]devicedomain.DeviceToken, error)
}

// Options tunes payload appearance and send behaviour
type Options struct {
	DefaultClickURL string
	Appearance      fcm.Appearance
	Timeout         time.Duration
	MaxRetries      uint64
	RetryBaseDelay  time.Duration
}

type dispatcher struct {
	source fcm.Source
	tokens TokenStore
	opts   Options
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(source fcm.Source, tokens TokenStore, opts Options) Dispatcher {
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = 200 * time.Millisecond
	}
	return &dispatcher{source: source, tokens: tokens, opts: opts}
}

var log = logger.For("dispatcher")

func (d *dispatcher) Send(ctx context.Context, req domain.SendRequest) (*domain.SendResult, error) {
	token := strings.TrimSpace(req.Token)
	if token == "" {
		return nil, apperror.Required("token", "Device token is required")
	}
	title, body := domain.WithDefaults(req.Title, req.Body)
	if err := domain.ValidateData(title, body, req.Data); err != nil {
		return nil, err
	}

	gateway, err := d.source.Gateway(ctx)
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("config").Inc()
		return nil, err
	}

	message := fcm.BuildMessage(token, d.content(title, body, req.Data), d.opts.Appearance)

	entry := log.WithField("token", logger.MaskToken(token))
	entry.WithField("title", title).Debug("Sending notification")

	start := time.Now()
	defer func() { metrics.SendDuration.Observe(time.Since(start).Seconds()) }()

	var messageID string
	outcome := fcm.Transient
	err = retry.Do(ctx, d.backoff(), func(ctx context.Context) error {
		attemptCtx, cancel := d.attemptContext(ctx)
		defer cancel()

		id, sendErr := gateway.Send(attemptCtx, message)
		if sendErr == nil {
			messageID = id
			return nil
		}

		outcome = fcm.Classify(sendErr)
		if outcome == fcm.Transient {
			entry.WithError(sendErr).Warn("Transient gateway failure, retrying")
			return retry.RetryableError(sendErr)
		}
		return sendErr
	})
	if err == nil {
		metrics.NotificationsSent.WithLabelValues("success").Inc()
		entry.WithField("message_id", messageID).Info("Notification sent")
		return &domain.SendResult{MessageID: messageID, Title: title, Body: body}, nil
	}

	dispatchErr := &apperror.DispatchError{Err: err, Terminal: outcome != fcm.Transient}
	if outcome == fcm.DeadToken {
		dispatchErr.Deactivated = d.deactivate(ctx, token)
	}
	if dispatchErr.Terminal {
		metrics.NotificationsSent.WithLabelValues("terminal").Inc()
	} else {
		metrics.NotificationsSent.WithLabelValues("transient").Inc()
	}
	entry.WithError(err).WithField("outcome", outcome.String()).Error("Failed to send notification")
	return nil, dispatchErr
}

func (d *dispatcher) Broadcast(ctx context.Context, req domain.BroadcastRequest) (*domain.BroadcastResult, error) {
	title, body := domain.WithDefaults(req.Title, req.Body)
	if err := domain.ValidateData(title, body, req.Data); err != nil {
		return nil, err
	}

	gateway, err := d.source.Gateway(ctx)
	if err != nil {
		metrics.NotificationsSent.WithLabelValues("config").Inc()
		return nil, err
	}

	active, err := d.tokens.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.BroadcastResult{Targeted: len(active)}
	if len(active) == 0 {
		return result, nil
	}

	content := d.content(title, body, req.Data)

	var lastErr error
	for _, batch := range chunk(tokenStrings(active), fcm.MaxMulticastTokens) {
		var resp *messaging.BatchResponse
		err := retry.Do(ctx, d.backoff(), func(ctx context.Context) error {
			attemptCtx, cancel := d.attemptContext(ctx)
			defer cancel()

			r, sendErr := gateway.SendEachForMulticast(attemptCtx, fcm.BuildMulticast(batch, content, d.opts.Appearance))
			if sendErr != nil {
				if fcm.Classify(sendErr) == fcm.Transient {
					return retry.RetryableError(sendErr)
				}
				return sendErr
			}
			resp = r
			return nil
		})
		if err != nil {
			log.WithError(err).WithField("batch_size", len(batch)).Error("Multicast batch failed")
			metrics.NotificationsSent.WithLabelValues(resultLabel(fcm.Classify(err))).Add(float64(len(batch)))
			result.FailureCount += len(batch)
			lastErr = err
			continue
		}

		log.WithField("batch_size", len(batch)).Infof("Multicast sent: %s", fcm.Describe(resp))
		for i, r := range resp.Responses {
			if i >= len(batch) {
				break
			}
			if r.Success {
				result.SuccessCount++
				metrics.NotificationsSent.WithLabelValues("success").Inc()
				continue
			}
			result.FailureCount++
			outcome := fcm.Classify(r.Error)
			metrics.NotificationsSent.WithLabelValues(resultLabel(outcome)).Inc()
			if outcome == fcm.DeadToken && d.deactivate(ctx, batch[i]) {
				result.Deactivated++
			}
		}
	}

	if result.SuccessCount == 0 && lastErr != nil {
		return result, &apperror.DispatchError{Err: lastErr, Terminal: fcm.Classify(lastErr) != fcm.Transient}
	}
	return result, nil
}

func (d *dispatcher) PruneDeadTokens(ctx context.Context) (int, error) {
	gateway, err := d.source.Gateway(ctx)
	if err != nil {
		return 0, err
	}

	active, err := d.tokens.ListActive(ctx)
	if err != nil {
		return 0, err
	}

	probe := d.content(domain.DefaultTitle, domain.DefaultBody, nil)
	removed := 0
	for _, batch := range chunk(tokenStrings(active), fcm.MaxMulticastTokens) {
		messages := make([]*messaging.Message, len(batch))
		for i, token := range batch {
			messages[i] = fcm.BuildMessage(token, probe, d.opts.Appearance)
		}

		attemptCtx, cancel := d.attemptContext(ctx)
		resp, err := gateway.SendEachDryRun(attemptCtx, messages)
		cancel()
		if err != nil {
			return removed, &apperror.DispatchError{Err: err, Terminal: fcm.Classify(err) != fcm.Transient}
		}

		for i, r := range resp.Responses {
			if i >= len(batch) || r.Success {
				continue
			}
			if fcm.Classify(r.Error) == fcm.DeadToken && d.deactivate(ctx, batch[i]) {
				removed++
			}
		}
	}
	return removed, nil
}

func (d *dispatcher) content(title, body string, data map[string]string) fcm.Content {
	return fcm.Content{
		Title:    title,
		Body:     body,
		Data:     data,
		ClickURL: domain.ResolveClickURL(data, d.opts.DefaultClickURL),
	}
}

func (d *dispatcher) backoff() retry.Backoff {
	return retry.WithMaxRetries(d.opts.MaxRetries, retry.NewExponential(d.opts.RetryBaseDelay))
}

func (d *dispatcher) attemptContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.opts.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d.opts.Timeout)
}

// deactivate reports whether a stored token was soft-deleted
func (d *dispatcher) deactivate(ctx context.Context, token string) bool {
	entry := log.WithField("token", logger.MaskToken(token))
	matched, err := d.tokens.Deactivate(ctx, token)
	if err != nil {
		entry.WithError(err).Warn("Could not deactivate dead token")
		return false
	}
	if !matched {
		entry.Debug("Gateway rejected a token the registry does not hold")
		return false
	}
	entry.Info("Deactivated token rejected by gateway")
	return true
}

func resultLabel(o fcm.Outcome) string {
	if o == fcm.Transient {
		return "transient"
	}
	return "terminal"
}

func tokenStrings(tokens []devicedomain.DeviceToken) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = t.Token
	}
	return out
}

func chunk(items []string, size int) [][]string {
	var batches [][]string
	for size < len(items) {
		items, batches = items[size:], append(batches, items[0:size:size])
	}
	if len(items) > 0 {
		batches = append(batches, items)
	}
	return batches
}

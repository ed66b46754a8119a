package fcm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"sync"

	"pwa-push-backend/pkg/apperror"
	"pwa-push-backend/pkg/logger"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// Gateway is the subset of *messaging.Client used by this service
type Gateway interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
	SendEachDryRun(ctx context.Context, messages []*messaging.Message) (*messaging.BatchResponse, error)
}

// Source hands out a ready Gateway or the reason it cannot
type Source interface {
	Gateway(ctx context.Context) (Gateway, error)
}

// Credentials selects the service account used to talk to FCM.
// ServiceAccountBase64 wins when both are set.
type Credentials struct {
	ProjectID            string
	ServiceAccountBase64 string
	CredentialsFile      string
}

// Provider lazily initializes the FCM client on first use and caches the
// outcome, client or error, for the life of the process.
type Provider struct {
	mu      sync.Mutex
	done    bool
	gateway Gateway
	err     error
	init    func(ctx context.Context) (Gateway, error)
}

// NewProvider creates a Provider that builds a messaging client from creds
func NewProvider(creds Credentials) *Provider {
	return &Provider{init: func(ctx context.Context) (Gateway, error) {
		return newMessagingClient(ctx, creds)
	}}
}

// NewStaticProvider wraps an existing gateway, e.g. a fake in tests
func NewStaticProvider(gateway Gateway) *Provider {
	return &Provider{done: true, gateway: gateway}
}

// Gateway returns the cached client, initializing it on the first call
func (p *Provider) Gateway(ctx context.Context) (Gateway, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.done {
		p.gateway, p.err = p.init(ctx)
		p.done = true
	}
	return p.gateway, p.err
}

var log = logger.For("fcm")

func newMessagingClient(ctx context.Context, creds Credentials) (Gateway, error) {
	var opts []option.ClientOption
	switch {
	case creds.ServiceAccountBase64 != "":
		raw, err := base64.StdEncoding.DecodeString(creds.ServiceAccountBase64)
		if err != nil {
			return nil, &apperror.ConfigurationError{Message: "FIREBASE_SERVICE_ACCOUNT_BASE64 is not valid base64", Err: err}
		}
		if !json.Valid(raw) {
			return nil, &apperror.ConfigurationError{Message: "FIREBASE_SERVICE_ACCOUNT_BASE64 does not decode to JSON"}
		}
		opts = append(opts, option.WithCredentialsJSON(raw))
	case creds.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(creds.CredentialsFile))
	default:
		return nil, &apperror.ConfigurationError{Message: "Firebase Admin not initialized: no service account configured"}
	}

	var conf *firebase.Config
	if creds.ProjectID != "" {
		conf = &firebase.Config{ProjectID: creds.ProjectID}
	}

	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, &apperror.ConfigurationError{Message: "failed to initialize Firebase app", Err: err}
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, &apperror.ConfigurationError{Message: "failed to get messaging client", Err: err}
	}

	log.Info("Client initialized successfully")
	return client, nil
}

// Describe renders a short form of a batch response for logs
func Describe(resp *messaging.BatchResponse) string {
	if resp == nil {
		return "no response"
	}
	return fmt.Sprintf("%d success, %d failures", resp.SuccessCount, resp.FailureCount)
}

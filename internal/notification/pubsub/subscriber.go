package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"pwa-push-backend/internal/notification/domain"
	"pwa-push-backend/internal/notification/usecase"
	"pwa-push-backend/pkg/apperror"
	"pwa-push-backend/pkg/logger"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// Message is the JSON body published to the notifications topic.
// A message with a token is a single send; without one it is a broadcast.
type Message struct {
	Token string                 `json:"token"`
	Title string                 `json:"title"`
	Body  string                 `json:"body"`
	Data  map[string]interface{} `json:"data"`
}

// Subscriber feeds Pub/Sub messages into the dispatcher
type Subscriber struct {
	client     *pubsub.Client
	dispatcher usecase.Dispatcher
	topicName  string
	subName    string
}

var log = logger.For("pubsub")

// NewSubscriber connects to Pub/Sub for the given project and topic
func NewSubscriber(ctx context.Context, projectID, topicName, credentialsFile string, dispatcher usecase.Dispatcher) (*Subscriber, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}

	return &Subscriber{
		client:     client,
		dispatcher: dispatcher,
		topicName:  topicName,
		subName:    topicName + "-sub",
	}, nil
}

// Start blocks receiving messages until ctx is cancelled
func (s *Subscriber) Start(ctx context.Context) error {
	entry := log.WithField("subscription", s.subName)
	entry.WithField("topic", s.topicName).Info("Starting notification subscriber")

	sub, err := s.ensureSubscription(ctx)
	if err != nil {
		return err
	}

	entry.Info("Listening for messages")
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if err := s.Handle(ctx, msg.Data); err != nil {
			entry.WithError(err).WithField("message_id", msg.ID).Warn("Message not delivered")
		}
		msg.Ack()
	})
	if err != nil {
		return fmt.Errorf("receive on %s: %w", s.subName, err)
	}
	return nil
}

// Close releases the underlying client
func (s *Subscriber) Close() error {
	return s.client.Close()
}

func (s *Subscriber) ensureSubscription(ctx context.Context) (*pubsub.Subscription, error) {
	sub := s.client.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check subscription %s: %w", s.subName, err)
	}
	if exists {
		return sub, nil
	}

	topic := s.client.Topic(s.topicName)
	topicExists, err := topic.Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("check topic %s: %w", s.topicName, err)
	}
	if !topicExists {
		return nil, fmt.Errorf("topic %s does not exist, cannot create subscription", s.topicName)
	}

	sub, err = s.client.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
		Topic:       topic,
		AckDeadline: 30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("create subscription %s: %w", s.subName, err)
	}
	log.WithField("subscription", s.subName).Info("Created subscription")
	return sub, nil
}

// Handle decodes one message and sends or broadcasts it. Malformed
// messages yield a ParseError; the caller still acks them.
func (s *Subscriber) Handle(ctx context.Context, data []byte) error {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return &apperror.ParseError{Err: err}
	}

	if token := strings.TrimSpace(msg.Token); token != "" {
		res, err := s.dispatcher.Send(ctx, domain.SendRequest{
			Token: token,
			Title: msg.Title,
			Body:  msg.Body,
			Data:  domain.StringifyData(msg.Data),
		})
		if err != nil {
			return err
		}
		log.WithField("message_id", res.MessageID).Debug("Delivered queued notification")
		return nil
	}

	res, err := s.dispatcher.Broadcast(ctx, domain.BroadcastRequest{
		Title: msg.Title,
		Body:  msg.Body,
		Data:  domain.StringifyData(msg.Data),
	})
	if err != nil {
		return err
	}
	log.WithField("targeted", res.Targeted).
		WithField("success", res.SuccessCount).
		WithField("deactivated", res.Deactivated).
		Info("Delivered queued broadcast")
	return nil
}

package events

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	"github.com/otherjamesbrown/deskspin/pkg/logging"
)

// Handler receives decoded catalog.imported events.
type Handler func(ctx context.Context, event CatalogImportedEvent)

// Subscriber delivers catalog events from a Redis channel to a handler.
type Subscriber struct {
	client  *redis.Client
	channel string
	handler Handler
	logger  logging.Logger
}

// NewSubscriber creates a subscriber on channel (DefaultChannel when empty).
func NewSubscriber(client *redis.Client, channel string, handler Handler, logger logging.Logger) *Subscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Subscriber{
		client:  client,
		channel: channel,
		handler: handler,
		logger:  logger.With(logging.F("component", "event_subscriber")),
	}
}

// Run consumes messages until ctx is done.
func (s *Subscriber) Run(ctx context.Context) error {
	pubsub := s.client.Subscribe(ctx, s.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", s.channel, err)
	}
	s.logger.Info("Subscribed", logging.F("channel", s.channel))

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			s.dispatch(ctx, msg.Payload)
		}
	}
}

// dispatch decodes one payload and calls the handler. Payloads that are not
// catalog.imported events are logged and dropped.
func (s *Subscriber) dispatch(ctx context.Context, payload string) {
	var event CatalogImportedEvent
	if err := json.Unmarshal([]byte(payload), &event); err != nil {
		s.logger.Warn("Dropping undecodable event", logging.Err(err))
		return
	}
	if event.EventType != EventTypeCatalogImported {
		s.logger.Debug("Ignoring event", logging.F("event_type", event.EventType))
		return
	}
	s.handler(ctx, event)
}

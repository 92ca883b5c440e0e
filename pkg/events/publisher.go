package events

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"

	dserrors "github.com/otherjamesbrown/deskspin/pkg/errors"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

// publishClient is the part of *redis.Client the publisher needs.
type publishClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	Close() error
}

// Publisher publishes catalog events to Redis.
type Publisher struct {
	client  publishClient
	channel string
	logger  logging.Logger
}

// NewClient opens a Redis client and checks it with a ping.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %v: %w", cfg.Addr, err, dserrors.ErrUnavailable)
	}
	return client, nil
}

// NewPublisher creates a publisher on channel (DefaultChannel when empty).
func NewPublisher(client publishClient, channel string, logger logging.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Publisher{
		client:  client,
		channel: channel,
		logger:  logger.With(logging.F("component", "event_publisher")),
	}
}

// PublishCatalogImported announces a completed import.
func (p *Publisher) PublishCatalogImported(ctx context.Context, params CatalogImportedParams) error {
	return p.publish(ctx, NewCatalogImportedEvent(params))
}

// publish serializes and publishes an event to Redis.
func (p *Publisher) publish(ctx context.Context, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		p.logger.Error("Failed to publish event",
			logging.Err(err),
			logging.F("channel", p.channel))
		return fmt.Errorf("failed to publish to %s: %w", p.channel, err)
	}

	p.logger.Debug("Event published",
		logging.F("channel", p.channel),
		logging.F("payload_size", len(data)))

	return nil
}

// Close closes the Redis connection.
func (p *Publisher) Close() error {
	return p.client.Close()
}

package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBaseEvent(t *testing.T) {
	event := NewBaseEvent("test.event")

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "test.event", event.EventType)
	assert.Equal(t, "deskspin", event.Source)
	assert.Equal(t, "1.0", event.Version)
	assert.False(t, event.Timestamp.IsZero())
}

func TestNewCatalogImportedEvent(t *testing.T) {
	event := NewCatalogImportedEvent(CatalogImportedParams{
		RunID:      "run-1",
		Products:   12,
		Categories: map[string]int{"mouse": 5, "monitor": 7},
		Duration:   1500 * time.Millisecond,
	})

	assert.Equal(t, EventTypeCatalogImported, event.EventType)
	assert.Equal(t, 12, event.Products)
	assert.Equal(t, int64(1500), event.DurationMs)
	require.NotNil(t, event.CorrelationID)
	assert.Equal(t, "run-1", *event.CorrelationID)

	empty := NewCatalogImportedEvent(CatalogImportedParams{})
	assert.NotNil(t, empty.Categories)
	assert.Nil(t, empty.CorrelationID)
}

type fakePublishClient struct {
	channel string
	payload []byte
	err     error
	closed  bool
}

func (f *fakePublishClient) Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd {
	f.channel = channel
	f.payload, _ = message.([]byte)
	return redis.NewIntResult(1, f.err)
}

func (f *fakePublishClient) Close() error {
	f.closed = true
	return nil
}

func TestPublisher_PublishCatalogImported(t *testing.T) {
	client := &fakePublishClient{}
	p := NewPublisher(client, "", nil)

	err := p.PublishCatalogImported(context.Background(), CatalogImportedParams{RunID: "run-2", Products: 3})
	require.NoError(t, err)

	assert.Equal(t, DefaultChannel, client.channel)
	var got CatalogImportedEvent
	require.NoError(t, json.Unmarshal(client.payload, &got))
	assert.Equal(t, EventTypeCatalogImported, got.EventType)
	assert.Equal(t, "run-2", got.RunID)
	assert.Equal(t, 3, got.Products)

	require.NoError(t, p.Close())
	assert.True(t, client.closed)
}

func TestPublisher_PublishError(t *testing.T) {
	client := &fakePublishClient{err: errors.New("connection refused")}
	p := NewPublisher(client, "custom", nil)

	err := p.PublishCatalogImported(context.Background(), CatalogImportedParams{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom")
}

func TestSubscriber_Dispatch(t *testing.T) {
	var got []CatalogImportedEvent
	s := NewSubscriber(nil, "", func(ctx context.Context, e CatalogImportedEvent) {
		got = append(got, e)
	}, nil)

	payload, err := json.Marshal(NewCatalogImportedEvent(CatalogImportedParams{Products: 4}))
	require.NoError(t, err)

	s.dispatch(context.Background(), string(payload))
	s.dispatch(context.Background(), `{"event_type":"something.else"}`)
	s.dispatch(context.Background(), `not json`)

	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].Products)
}

// Package events publishes and consumes catalog change notifications over
// Redis pub/sub.
package events

import (
	"time"

	"github.com/google/uuid"
)

// DefaultChannel carries catalog.imported events.
const DefaultChannel = "events.catalog.imported"

// EventTypeCatalogImported identifies a completed catalog replacement.
const EventTypeCatalogImported = "catalog.imported"

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID *string   `json:"correlation_id,omitempty"`
	Source        string    `json:"source"`
	Version       string    `json:"version"`
}

// NewBaseEvent creates a BaseEvent with a generated id.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    "deskspin",
		Version:   "1.0",
	}
}

// CatalogImportedEvent is published after the catalog store was replaced.
type CatalogImportedEvent struct {
	BaseEvent

	RunID      string         `json:"run_id,omitempty"`
	Products   int            `json:"products"`
	Categories map[string]int `json:"categories"`
	DurationMs int64          `json:"duration_ms"`
}

// CatalogImportedParams contains parameters for a catalog.imported event.
type CatalogImportedParams struct {
	RunID      string
	Products   int
	Categories map[string]int
	Duration   time.Duration
}

// NewCatalogImportedEvent builds the event for params.
func NewCatalogImportedEvent(params CatalogImportedParams) CatalogImportedEvent {
	event := CatalogImportedEvent{
		BaseEvent:  NewBaseEvent(EventTypeCatalogImported),
		RunID:      params.RunID,
		Products:   params.Products,
		Categories: params.Categories,
		DurationMs: params.Duration.Milliseconds(),
	}
	if event.Categories == nil {
		event.Categories = map[string]int{}
	}
	if params.RunID != "" {
		id := params.RunID
		event.CorrelationID = &id
	}
	return event
}

// Package registry routes stored outbox rows to Pub/Sub topics and decodes
// them for the publisher.
package registry

import (
	"errors"
	"fmt"

	"github.com/angelmondragon/vendora-backend/pkg/config"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/outbox"
	"github.com/google/uuid"
)

// Route is a schema plus the topic its events are published to.
type Route struct {
	outbox.Schema
	Topic string
}

// ResolvedEvent is a row that passed every check and is ready to send.
type ResolvedEvent struct {
	Route    Route
	Envelope outbox.Envelope
	Payload  any
}

// NonRetryableError marks a failure that retrying the same row cannot fix.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// EventRegistry knows the route for every event type with a schema.
type EventRegistry struct {
	routes map[enums.OutboxEventType]Route
}

// NewEventRegistry routes every order and payment event to the orders topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.OrdersTopic == "" {
		return nil, errors.New("orders topic is required")
	}
	reg := &EventRegistry{routes: make(map[enums.OutboxEventType]Route)}
	for _, schema := range outbox.Schemas() {
		reg.routes[schema.EventType] = Route{Schema: schema, Topic: cfg.OrdersTopic}
	}
	return reg, nil
}

// Topics lists the distinct topics events can be sent to.
func (r *EventRegistry) Topics() []string {
	seen := make(map[string]struct{})
	var topics []string
	for _, route := range r.routes {
		if _, ok := seen[route.Topic]; ok {
			continue
		}
		seen[route.Topic] = struct{}{}
		topics = append(topics, route.Topic)
	}
	return topics
}

// Resolve checks the row against its schema and decodes the typed payload.
// Every failure is non-retryable since the stored row will not change.
func (r *EventRegistry) Resolve(row models.OutboxEvent) (*ResolvedEvent, error) {
	route, ok := r.routes[row.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", row.EventType))
	}
	if route.AggregateType != row.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("%s is a %s event, row says %s", row.EventType, route.AggregateType, row.AggregateType))
	}
	if row.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(errors.New("missing aggregate_id"))
	}
	env, err := outbox.DecodeEnvelope(row.Payload)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	payload := route.NewPayload()
	if err := env.DecodeData(payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("%s: %w", row.EventType, err))
	}
	return &ResolvedEvent{Route: route, Envelope: env, Payload: payload}, nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/metrics"
	"github.com/angelmondragon/vendora-backend/pkg/outbox/registry"
	"gorm.io/gorm"
)

type outcome int

const (
	outcomePublished outcome = iota
	outcomeRetry
	outcomeTerminal
)

// Why a row was pinned.
const (
	reasonUnroutable = "unroutable"
	reasonRejected   = "rejected"
	reasonExhausted  = "exhausted"
)

// delivery is what one send attempt decided for a row.
type delivery struct {
	outcome outcome
	topic   string
	eventID string
	reason  string
	err     error
}

func (r *Relay) deliver(ctx context.Context, row models.OutboxEvent) delivery {
	resolved, err := r.registry.Resolve(row)
	if err != nil {
		return delivery{outcome: outcomeTerminal, reason: reasonUnroutable, err: err}
	}
	d := delivery{topic: resolved.Route.Topic, eventID: resolved.Envelope.EventID}

	pub := r.topics.Topic(d.topic)
	if pub == nil {
		d.outcome, d.reason = outcomeTerminal, reasonUnroutable
		d.err = fmt.Errorf("%w %s", errNoPublisher, d.topic)
		return d
	}

	sendCtx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	err = pub.Send(sendCtx, messageFor(row, resolved))

	var rejected registry.NonRetryableError
	switch {
	case err == nil:
		d.outcome = outcomePublished
	case errors.As(err, &rejected):
		d.outcome, d.reason, d.err = outcomeTerminal, reasonRejected, err
	case row.AttemptCount+1 >= r.maxAttempts:
		d.outcome, d.reason = outcomeTerminal, reasonExhausted
		d.err = fmt.Errorf("gave up after %d attempts: %w", row.AttemptCount+1, err)
	default:
		d.outcome, d.err = outcomeRetry, err
	}
	return d
}

// messageFor carries the raw envelope as data. Attributes let subscribers
// filter on event type and aggregate without decoding the body.
func messageFor(row models.OutboxEvent, resolved *registry.ResolvedEvent) *gcppubsub.Message {
	return &gcppubsub.Message{
		Data: row.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(row.EventType),
			"aggregate_type": string(row.AggregateType),
			"aggregate_id":   row.AggregateID.String(),
			"created_at":     row.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	}
}

// record writes the delivery back to the row inside the batch transaction.
func (r *Relay) record(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, d delivery) error {
	logCtx := r.logg.WithFields(ctx, map[string]any{
		"outbox_id":     row.ID.String(),
		"event_type":    row.EventType,
		"aggregate_id":  row.AggregateID.String(),
		"attempt_count": row.AttemptCount,
		"topic":         d.topic,
		"event_id":      d.eventID,
	})

	switch d.outcome {
	case outcomePublished:
		if err := r.store.MarkPublishedTx(tx, row.ID); err != nil {
			return fmt.Errorf("mark published %s: %w", row.ID, err)
		}
		r.metrics.IncDelivery(string(row.EventType), metrics.DeliveryPublished)
		r.logg.Info(logCtx, "outbox event published")
		return nil

	case outcomeRetry:
		if err := r.store.MarkFailedTx(tx, row.ID, d.err); err != nil {
			return fmt.Errorf("mark failed %s: %w", row.ID, err)
		}
		r.metrics.IncDelivery(string(row.EventType), metrics.DeliveryRetry)
		r.logg.Warn(r.logg.WithField(logCtx, "error", d.err.Error()), "outbox publish failed, will retry")
		return nil

	default:
		return r.pin(logCtx, tx, row, d)
	}
}

// pin parks a row that must never be sent again. attempt_count is raised to
// the ceiling so the fetch query skips it, and the payload stays in place for
// the retention job.
func (r *Relay) pin(ctx context.Context, tx *gorm.DB, row models.OutboxEvent, d delivery) error {
	if err := r.store.MarkTerminalTx(tx, row.ID, d.err, r.maxAttempts); err != nil {
		return fmt.Errorf("pin %s: %w", row.ID, err)
	}
	r.metrics.IncDelivery(string(row.EventType), metrics.DeliveryTerminal)
	r.logg.Warn(r.logg.WithFields(ctx, map[string]any{
		"terminal_reason": d.reason,
		"error":           d.err.Error(),
	}), "outbox event pinned as terminal")
	return nil
}

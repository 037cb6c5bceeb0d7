package notifications

import (
	"context"
	"fmt"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/angelmondragon/vendora-backend/pkg/outbox"
	"github.com/angelmondragon/vendora-backend/pkg/outbox/payloads"
	"github.com/goccy/go-json"
)

const (
	consumerName        = "order-notifications"
	defaultProcessedTTL = 7 * 24 * time.Hour
)

type receiver interface {
	Receive(ctx context.Context, f func(context.Context, *pubsub.Message)) error
}

// processedStore remembers which events were already turned into notifications.
type processedStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

type creator interface {
	CreateBatch(ctx context.Context, rows []models.Notification) error
}

// ConsumerParams wires the order notification consumer.
type ConsumerParams struct {
	Repo         creator
	Subscription receiver
	Processed    processedStore
	ProcessedTTL time.Duration
	Logger       *logger.Logger
}

// Consumer turns order events into feed entries for buyers and vendors.
type Consumer struct {
	repo         creator
	subscription receiver
	processed    processedStore
	ttl          time.Duration
	logg         *logger.Logger
}

// NewConsumer builds an order notification consumer.
func NewConsumer(p ConsumerParams) (*Consumer, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if p.Subscription == nil {
		return nil, fmt.Errorf("notifications subscription required")
	}
	if p.Processed == nil {
		return nil, fmt.Errorf("processed event store required")
	}
	if p.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if p.ProcessedTTL <= 0 {
		p.ProcessedTTL = defaultProcessedTTL
	}
	return &Consumer{
		repo:         p.Repo,
		subscription: p.Subscription,
		processed:    p.Processed,
		ttl:          p.ProcessedTTL,
		logg:         p.Logger,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.process(ctx, msg.ID, msg.Attributes, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// process reports whether the message should be acked. Malformed messages are
// acked and dropped; storage failures are nacked for redelivery.
func (c *Consumer) process(ctx context.Context, messageID string, attrs map[string]string, data []byte) bool {
	eventType := enums.OutboxEventType(attrs["event_type"])
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"event_type": eventType,
	})

	envelope, err := outbox.DecodeEnvelope(data)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return true
	}

	rows, err := buildNotifications(eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to parse payload", err)
		return true
	}
	if len(rows) == 0 {
		c.logg.Debug(logCtx, "event produces no notifications")
		return true
	}

	key := c.processed.IdempotencyKey(consumerName, envelope.EventID)
	fresh, err := c.processed.SetNX(ctx, key, "1", c.ttl)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return false
	}
	if !fresh {
		c.logg.Info(logCtx, "event already processed")
		return true
	}

	if err := c.repo.CreateBatch(ctx, rows); err != nil {
		c.logg.Error(logCtx, "notification insert failed", err)
		if delErr := c.processed.Del(context.WithoutCancel(ctx), key); delErr != nil {
			c.logg.Error(logCtx, "failed to clear processed marker", delErr)
		}
		return false
	}
	c.logg.Info(c.logg.WithField(logCtx, "count", len(rows)), "notifications created")
	return true
}

func buildNotifications(eventType enums.OutboxEventType, data []byte) ([]models.Notification, error) {
	switch eventType {
	case enums.EventOrderCreated:
		var e payloads.OrderCreatedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return forOrderCreated(e), nil
	case enums.EventOrderStatusChanged:
		var e payloads.OrderStatusChangedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return forStatusChanged(e), nil
	case enums.EventOrderRefundFlagged:
		var e payloads.OrderRefundFlaggedEvent
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, err
		}
		return forRefundFlagged(e), nil
	}
	return nil, nil
}

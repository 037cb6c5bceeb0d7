package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vendora-backend/internal/orders"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/gateway"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/angelmondragon/vendora-backend/pkg/outbox"
	"github.com/angelmondragon/vendora-backend/pkg/outbox/payloads"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const (
	defaultIntentGrace = 15 * time.Minute
	defaultIntentBatch = 100
)

// IntentExpiryJobParams configure the abandoned payment intent sweep.
type IntentExpiryJobParams struct {
	Logger  *logger.Logger
	DB      txRunner
	Orders  orders.Repository
	Outbox  outboxEmitter
	Gateway gatewayReader
	Grace   time.Duration
	Batch   int
}

// gatewayReader is optional; without it intents are expired on age alone.
type gatewayReader interface {
	FetchOrder(ctx context.Context, gatewayOrderID string) (gateway.Order, error)
}

// NewIntentExpiryJob builds the job that closes phase-one intents nobody confirmed.
func NewIntentExpiryJob(params IntentExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	grace := params.Grace
	if grace <= 0 {
		grace = defaultIntentGrace
	}
	batch := params.Batch
	if batch <= 0 {
		batch = defaultIntentBatch
	}
	return &intentExpiryJob{
		logg:    params.Logger,
		db:      params.DB,
		orders:  params.Orders,
		outbox:  params.Outbox,
		gateway: params.Gateway,
		grace:   grace,
		batch:   batch,
		now:     time.Now,
	}, nil
}

type intentExpiryJob struct {
	logg    *logger.Logger
	db      txRunner
	orders  orders.Repository
	outbox  outboxEmitter
	gateway gatewayReader
	grace   time.Duration
	batch   int
	now     func() time.Time
}

func (j *intentExpiryJob) Name() string { return "payment-intent-expiry" }

func (j *intentExpiryJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	intents, err := j.orders.ListStaleIntents(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("list stale intents: %w", err)
	}

	var errs error
	expired, settled := 0, 0
	for _, intent := range intents {
		status, event, gatewayStatus := enums.PaymentIntentStatusExpired, enums.EventPaymentIntentExpired, ""
		if j.gateway != nil {
			gw, err := j.gateway.FetchOrder(ctx, intent.GatewayOrderID)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("fetch gateway order %s: %w", intent.GatewayOrderID, err))
				continue
			}
			gatewayStatus = gw.Status
			if gw.IsPaid() {
				// Captured but never confirmed; settled rows stay confirmable and leave the scan.
				status, event = enums.PaymentIntentStatusSettled, enums.EventPaymentIntentSettled
				logCtx := j.logg.WithFields(ctx, map[string]any{
					"intent_id":        intent.ID.String(),
					"gateway_order_id": intent.GatewayOrderID,
					"user_id":          intent.UserID.String(),
				})
				j.logg.Warn(logCtx, "paid payment intent was never confirmed")
			}
		}

		ok, err := j.closeIntent(ctx, intent, status, event, gatewayStatus)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("close intent %s: %w", intent.ID, err))
			continue
		}
		switch {
		case !ok:
		case status == enums.PaymentIntentStatusSettled:
			settled++
		default:
			expired++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":  cutoff,
		"scanned": len(intents),
		"expired": expired,
		"settled": settled,
	})
	j.logg.Info(logCtx, "payment intent sweep complete")
	return errs
}

// closeIntent flips the intent and records the event together; false means someone confirmed it first.
func (j *intentExpiryJob) closeIntent(ctx context.Context, intent models.PaymentIntent, status enums.PaymentIntentStatus, event enums.OutboxEventType, gatewayStatus string) (bool, error) {
	var closed bool
	err := j.db.WithTx(ctx, func(tx *gorm.DB) error {
		ok, err := j.orders.WithTx(tx).ClosePaymentIntent(ctx, intent.ID, status)
		if err != nil || !ok {
			return err
		}
		closed = true
		return j.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     event,
			AggregateType: enums.AggregatePaymentIntent,
			AggregateID:   intent.ID,
			OccurredAt:    j.now().UTC(),
			Data: payloads.PaymentIntentEvent{
				IntentID:       intent.ID,
				GatewayOrderID: intent.GatewayOrderID,
				UserID:         intent.UserID,
				Status:         status,
				GatewayStatus:  gatewayStatus,
			},
		})
	})
	return closed, err
}

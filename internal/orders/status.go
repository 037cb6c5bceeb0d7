package orders

import (
	"context"
	"errors"
	"strings"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/outbox"
	"github.com/angelmondragon/vendora-backend/pkg/outbox/payloads"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxReasonLength = 500

// UpdateStatus moves an order through the state machine on behalf of its owner
// or one of its vendors. A rejected attempt writes nothing.
func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	dto, err := s.updateStatus(ctx, input)
	s.metrics.IncTransition(input.Actor.Role.String(), input.Status.String(), err == nil)
	return dto, err
}

func (s *service) updateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error) {
	if !input.Actor.Role.IsValid() || input.Actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "actor role missing")
	}
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "orderId is required")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgUnknownStatus)
	}
	reason := strings.TrimSpace(input.Reason)
	if len(reason) > maxReasonLength {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "reason is too long")
	}

	var (
		order  *models.Order
		from   enums.OrderStatus
		effect refundEffect
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = repo.FindByID(ctx, input.OrderID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
		}
		if err := authorize(input.Actor, order); err != nil {
			return err
		}
		from = order.OrderStatus
		if err := CheckTransition(input.Actor.Role, from, input.Status); err != nil {
			return err
		}

		now := s.now().UTC()
		effect = applyRefundEffects(order, input.Status, now)
		order.OrderStatus = input.Status
		order.UpdatedAt = now

		ok, err := repo.UpdateStatusIfCurrent(ctx, order, from)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, msgConcurrentChange)
		}

		if reason == "" {
			reason = defaultReason(from, input.Status, input.Actor.Role)
		}
		entry := &models.OrderStatusHistory{
			OrderID:    order.ID,
			FromStatus: from,
			ToStatus:   input.Status,
			ActorID:    input.Actor.ID,
			ActorRole:  input.Actor.Role,
			Reason:     reason,
			CreatedAt:  now,
		}
		if err := repo.AppendHistory(ctx, entry); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: append status history")
		}
		order.History = append(order.History, *entry)
		return s.emitStatusEvents(ctx, tx, input.Actor, order, from, reason, effect)
	})
	if err != nil {
		return nil, err
	}

	s.logInfo(ctx, map[string]any{
		"order_id":   order.ID.String(),
		"from":       from,
		"to":         order.OrderStatus,
		"actor_id":   input.Actor.ID.String(),
		"actor_role": input.Actor.Role,
	}, "order status changed")
	dto := NewOrderDTO(order)
	return &dto, nil
}

// authorize checks the actor may act on this order at all. Users must own it;
// vendors must have at least one item in it.
func authorize(actor Actor, order *models.Order) error {
	switch actor.Role {
	case enums.ActorRoleUser:
		if order.UserID != actor.ID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "You can only update your own orders")
		}
	case enums.ActorRoleVendor:
		if !order.HasVendor(actor.ID) {
			return pkgerrors.New(pkgerrors.CodeForbidden, "You can only update orders containing your products")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeInternal, "actor role missing")
	}
	return nil
}

func (s *service) emitStatusEvents(ctx context.Context, tx *gorm.DB, actor Actor, order *models.Order, from enums.OrderStatus, reason string, effect refundEffect) error {
	ref := &outbox.ActorRef{ID: actor.ID, Role: actor.Role.String()}
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderStatusChanged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         ref,
		Data: payloads.OrderStatusChangedEvent{
			OrderID:        order.ID,
			OrderReference: order.OrderReference,
			UserID:         order.UserID,
			VendorIDs:      order.VendorIDs(),
			FromStatus:     from,
			ToStatus:       order.OrderStatus,
			PaymentStatus:  order.PaymentStatus,
			ActorRole:      actor.Role,
			Reason:         reason,
		},
	})
	if err != nil || !effect.changed() {
		return err
	}

	refund := payloads.OrderRefundFlaggedEvent{
		OrderID:        order.ID,
		OrderReference: order.OrderReference,
		UserID:         order.UserID,
		Amount:         order.TotalAmount.StringFixed(2),
		Currency:       order.Currency,
		Trigger:        order.OrderStatus,
		Completed:      effect.completed,
	}
	if order.GatewayPaymentID != nil {
		refund.GatewayPaymentID = *order.GatewayPaymentID
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderRefundFlagged,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         ref,
		Data:          refund,
	})
}

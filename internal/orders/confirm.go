package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/gateway"
	"github.com/angelmondragon/vendora-backend/pkg/outbox"
	"github.com/angelmondragon/vendora-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/vendora-backend/pkg/types"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	msgInvalidSignature  = "Invalid payment signature"
	msgPaymentIncomplete = "Payment not completed"
	msgAmountMismatch    = "Amount mismatch"
	msgPaymentNotOwned   = "Payment does not belong to this account"
	msgBadNotes          = "Payment details are incomplete"
	msgConfirmInFlight   = "Payment confirmation already in progress"
)

var errDuplicateOrder = errors.New("order already exists for gateway payment")

// paymentNotes is what phase one stored on the gateway order.
type paymentNotes struct {
	userID uuid.UUID
	cartID uuid.UUID
}

// ConfirmPayment verifies a gateway callback and turns the paid gateway order
// into a local order. Repeating a confirmation returns the order it created.
func (s *service) ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*OrderDTO, error) {
	input.GatewayOrderID = strings.TrimSpace(input.GatewayOrderID)
	input.GatewayPaymentID = strings.TrimSpace(input.GatewayPaymentID)
	input.Signature = strings.TrimSpace(input.Signature)
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if input.GatewayOrderID == "" || input.GatewayPaymentID == "" || input.Signature == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gatewayOrderId, gatewayPaymentId and gatewaySignature are required")
	}
	if s.gateway == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, msgGatewayDisabled)
	}
	if !s.gateway.VerifySignature(input.GatewayOrderID, input.GatewayPaymentID, input.Signature) {
		s.logWarn(ctx, map[string]any{
			"user_id":          input.UserID.String(),
			"gateway_order_id": input.GatewayOrderID,
		}, "gateway signature mismatch")
		return nil, pkgerrors.New(pkgerrors.CodePaymentVerification, msgInvalidSignature)
	}

	if existing, err := s.existingConfirmation(ctx, input); existing != nil || err != nil {
		return existing, err
	}

	release, existing, err := s.acquireMarker(ctx, input)
	if existing != nil || err != nil {
		return existing, err
	}
	order, err := s.confirm(ctx, input)
	if err != nil {
		release()
	}
	return order, err
}

// existingConfirmation returns the caller's order if this payment was already
// confirmed, or a forbidden error if it belongs to someone else.
func (s *service) existingConfirmation(ctx context.Context, input ConfirmPaymentInput) (*OrderDTO, error) {
	order, err := s.repo.FindByGatewayIDs(ctx, input.GatewayOrderID, input.GatewayPaymentID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load confirmed order")
	}
	if order.UserID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgPaymentNotOwned)
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

// acquireMarker sets the confirmation marker. Redis failures are logged and the
// confirmation carries on with the database guards. When another call holds the
// marker, the order it produced is returned if it exists. The returned func
// clears a marker this call set.
func (s *service) acquireMarker(ctx context.Context, input ConfirmPaymentInput) (func(), *OrderDTO, error) {
	noop := func() {}
	if s.marker == nil {
		return noop, nil, nil
	}
	key := s.marker.ConfirmMarkerKey(input.GatewayPaymentID)
	ok, err := s.marker.SetNX(ctx, key, input.UserID.String(), s.markerTTL)
	if err != nil {
		s.logWarn(ctx, map[string]any{"gateway_payment_id": input.GatewayPaymentID, "error": err.Error()}, "confirm marker unavailable")
		return noop, nil, nil
	}
	if !ok {
		if existing, err := s.existingConfirmation(ctx, input); existing != nil || err != nil {
			return nil, existing, err
		}
		return nil, nil, pkgerrors.New(pkgerrors.CodeConflict, msgConfirmInFlight)
	}
	return func() {
		if err := s.marker.Del(context.WithoutCancel(ctx), key); err != nil {
			s.logWarn(ctx, map[string]any{"gateway_payment_id": input.GatewayPaymentID, "error": err.Error()}, "confirm marker release failed")
		}
	}, nil, nil
}

func (s *service) confirm(ctx context.Context, input ConfirmPaymentInput) (*OrderDTO, error) {
	start := time.Now()
	gw, err := s.gateway.FetchOrder(ctx, input.GatewayOrderID)
	s.metrics.ObserveGateway("fetch_order", err == nil, time.Since(start))
	if err != nil {
		return nil, gatewayErr(err, "gateway: fetch order")
	}
	if !gw.IsPaid() {
		return nil, pkgerrors.New(pkgerrors.CodePaymentVerification, msgPaymentIncomplete)
	}
	notes, err := parseNotes(gw)
	if err != nil {
		return nil, err
	}
	if notes.userID != input.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, msgPaymentNotOwned)
	}
	address, err := s.intentAddress(ctx, input)
	if err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		c, err := s.carts.WithTx(tx).FindByUserForUpdate(ctx, notes.userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, msgCartEmpty)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock cart")
		}
		if c.ID != notes.cartID {
			return pkgerrors.New(pkgerrors.CodeConflict, msgCartChanged)
		}
		priced, err := priceCart(ctx, s.catalog, c)
		if err != nil {
			return err
		}
		amountMinor, err := toMinorUnits(priced.total)
		if err != nil || amountMinor != gw.AmountMinor {
			return pkgerrors.New(pkgerrors.CodePaymentVerification, msgAmountMismatch).
				WithDetails(map[string]any{"expected": gw.AmountMinor, "actual": amountMinor})
		}

		order = s.newOrder(notes.userID, address, enums.PaymentMethodGateway, priced)
		order.OrderStatus = enums.OrderStatusProcessing
		order.PaymentStatus = enums.PaymentStatusCompleted
		order.GatewayOrderID = &input.GatewayOrderID
		order.GatewayPaymentID = &input.GatewayPaymentID
		if err := s.persistOrder(ctx, tx, order, priced); err != nil {
			return err
		}
		return s.settleIntent(ctx, tx, input, order)
	})

	switch {
	case errors.Is(err, errDuplicateOrder):
		s.logInfo(ctx, map[string]any{"gateway_order_id": input.GatewayOrderID}, "concurrent confirmation resolved to existing order")
		existing, lookupErr := s.existingConfirmation(ctx, input)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing == nil {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, msgConfirmInFlight)
		}
		return existing, nil
	case err != nil:
		return nil, err
	}

	s.metrics.IncCreated(enums.PaymentMethodGateway.String())
	s.logInfo(ctx, map[string]any{
		"order_id":         order.ID.String(),
		"user_id":          order.UserID.String(),
		"gateway_order_id": input.GatewayOrderID,
	}, "gateway order confirmed")
	dto := NewOrderDTO(order)
	return &dto, nil
}

// settleIntent marks the phase-one intent confirmed and records the settlement.
func (s *service) settleIntent(ctx context.Context, tx *gorm.DB, input ConfirmPaymentInput, order *models.Order) error {
	repo := s.repo.WithTx(tx)
	if err := repo.ConfirmPaymentIntent(ctx, input.GatewayOrderID, order.ID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: confirm payment intent")
	}
	intent, err := repo.FindPaymentIntent(ctx, input.GatewayOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load payment intent")
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventPaymentIntentSettled,
		AggregateType: enums.AggregatePaymentIntent,
		AggregateID:   intent.ID,
		Data: payloads.PaymentIntentEvent{
			IntentID:       intent.ID,
			GatewayOrderID: intent.GatewayOrderID,
			UserID:         intent.UserID,
			Status:         enums.PaymentIntentStatusConfirmed,
			GatewayStatus:  gateway.StatusPaid,
		},
	})
}

func parseNotes(gw gateway.Order) (paymentNotes, error) {
	bad := pkgerrors.New(pkgerrors.CodePaymentVerification, msgBadNotes)
	userID, err := uuid.Parse(gw.Notes[noteUserID])
	if err != nil {
		return paymentNotes{}, bad
	}
	cartID, err := uuid.Parse(gw.Notes[noteCartID])
	if err != nil {
		return paymentNotes{}, bad
	}
	return paymentNotes{userID: userID, cartID: cartID}, nil
}

// intentAddress reads the shipping address phase one stored with the intent.
func (s *service) intentAddress(ctx context.Context, input ConfirmPaymentInput) (types.ShippingAddress, error) {
	intent, err := s.repo.FindPaymentIntent(ctx, input.GatewayOrderID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return types.ShippingAddress{}, pkgerrors.New(pkgerrors.CodePaymentVerification, msgBadNotes)
	}
	if err != nil {
		return types.ShippingAddress{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load payment intent")
	}
	if intent.UserID != input.UserID {
		return types.ShippingAddress{}, pkgerrors.New(pkgerrors.CodeForbidden, msgPaymentNotOwned)
	}
	addr := intent.ShippingAddress.Normalize()
	if addr.Validate() != nil {
		return types.ShippingAddress{}, pkgerrors.New(pkgerrors.CodePaymentVerification, msgBadNotes)
	}
	return addr, nil
}

package orders

import (
	"context"
	"errors"
	"strconv"
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

// Gateway order notes carrying the cart phase two rebuilds the order from.
// Gateway notes are capped in length, so the address stays on the intent row.
const (
	noteUserID      = "userId"
	noteCartID      = "cartId"
	noteCartVersion = "cartVersion"
)

const (
	msgCartChanged     = "Cart was modified while placing the order, please retry"
	msgGatewayDisabled = "Online payments are not available"
)

// CreateOrder places a cod order immediately, or opens a gateway payment intent.
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (CreateOrderResult, error) {
	input, err := validateCreateInput(input)
	if err != nil {
		return CreateOrderResult{}, err
	}
	if input.PaymentMethod == enums.PaymentMethodGateway {
		intent, err := s.CreatePaymentIntent(ctx, input)
		if err != nil {
			return CreateOrderResult{}, err
		}
		return CreateOrderResult{Payment: &intent}, nil
	}
	order, err := s.createCODOrder(ctx, input)
	if err != nil {
		return CreateOrderResult{}, err
	}
	return CreateOrderResult{Order: order}, nil
}

func validateCreateInput(input CreateOrderInput) (CreateOrderInput, error) {
	if input.UserID == uuid.Nil {
		return input, pkgerrors.New(pkgerrors.CodeUnauthorized, "user required")
	}
	if !input.PaymentMethod.IsValid() {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "Invalid payment method")
	}
	input.ShippingAddress = input.ShippingAddress.Normalize()
	if missing := input.ShippingAddress.MissingFields(); len(missing) > 0 {
		return input, pkgerrors.New(pkgerrors.CodeValidation, "Shipping address is incomplete").
			WithDetails(map[string]any{"missing": missing})
	}
	return input, nil
}

// createCODOrder locks the cart, prices it, inserts the order and empties the
// cart in one transaction.
func (s *service) createCODOrder(ctx context.Context, input CreateOrderInput) (*OrderDTO, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		c, err := carts.FindByUserForUpdate(ctx, input.UserID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeValidation, msgCartEmpty)
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: lock cart")
		}
		priced, err := priceCart(ctx, s.catalog, c)
		if err != nil {
			return err
		}

		order = s.newOrder(input.UserID, input.ShippingAddress, enums.PaymentMethodCOD, priced)
		order.OrderStatus = enums.OrderStatusPending
		order.PaymentStatus = enums.PaymentStatusPending
		return s.persistOrder(ctx, tx, order, priced)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncCreated(enums.PaymentMethodCOD.String())
	s.logInfo(ctx, map[string]any{
		"order_id":  order.ID.String(),
		"user_id":   order.UserID.String(),
		"reference": order.OrderReference,
	}, "cod order created")
	dto := NewOrderDTO(order)
	return &dto, nil
}

func (s *service) newOrder(userID uuid.UUID, addr types.ShippingAddress, method enums.PaymentMethod, priced pricedCart) *models.Order {
	now := s.now().UTC()
	return &models.Order{
		OrderReference:  newOrderReference(now),
		UserID:          userID,
		TotalAmount:     priced.total,
		Currency:        s.currency,
		ShippingAddress: addr,
		PaymentMethod:   method,
		Items:           priced.items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// persistOrder inserts the order, empties the cart at the priced version and
// queues order.created. It must run inside tx.
func (s *service) persistOrder(ctx context.Context, tx *gorm.DB, order *models.Order, priced pricedCart) error {
	if err := s.repo.WithTx(tx).CreateOrder(ctx, order); err != nil {
		if pkgerrors.IsUniqueViolation(err, "") {
			return errDuplicateOrder
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
	}
	cleared, err := s.carts.WithTx(tx).Clear(ctx, priced.cart.ID, priced.cart.Version)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
	}
	if !cleared {
		return pkgerrors.New(pkgerrors.CodeConflict, msgCartChanged)
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   order.ID,
		Actor:         &outbox.ActorRef{ID: order.UserID, Role: enums.ActorRoleUser.String()},
		Data: payloads.OrderCreatedEvent{
			OrderID:        order.ID,
			OrderReference: order.OrderReference,
			UserID:         order.UserID,
			VendorIDs:      order.VendorIDs(),
			TotalAmount:    order.TotalAmount.StringFixed(2),
			Currency:       order.Currency,
			PaymentMethod:  order.PaymentMethod,
			PaymentStatus:  order.PaymentStatus,
			OrderStatus:    order.OrderStatus,
		},
	})
}

// CreatePaymentIntent prices the cart without locking it and opens a gateway
// order for the total. No order row is written until ConfirmPayment.
func (s *service) CreatePaymentIntent(ctx context.Context, input CreateOrderInput) (PaymentIntentDTO, error) {
	input.PaymentMethod = enums.PaymentMethodGateway
	input, err := validateCreateInput(input)
	if err != nil {
		return PaymentIntentDTO{}, err
	}
	if s.gateway == nil {
		return PaymentIntentDTO{}, pkgerrors.New(pkgerrors.CodeValidation, msgGatewayDisabled)
	}

	c, err := s.carts.FindByUser(ctx, input.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return PaymentIntentDTO{}, pkgerrors.New(pkgerrors.CodeValidation, msgCartEmpty)
	}
	if err != nil {
		return PaymentIntentDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}
	priced, err := priceCart(ctx, s.catalog, c)
	if err != nil {
		return PaymentIntentDTO{}, err
	}
	amountMinor, err := toMinorUnits(priced.total)
	if err != nil {
		return PaymentIntentDTO{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, msgInvalidPrice)
	}
	now := s.now().UTC()
	start := time.Now()
	gw, err := s.gateway.CreateOrder(ctx, gateway.CreateOrderRequest{
		AmountMinor: amountMinor,
		Currency:    s.currency,
		Receipt:     newOrderReference(now),
		Notes: map[string]string{
			noteUserID:      input.UserID.String(),
			noteCartID:      c.ID.String(),
			noteCartVersion: strconv.FormatInt(c.Version, 10),
		},
	})
	s.metrics.ObserveGateway("create_order", err == nil, time.Since(start))
	if err != nil {
		return PaymentIntentDTO{}, gatewayErr(err, "gateway: create order")
	}

	intent := &models.PaymentIntent{
		GatewayOrderID:  gw.ID,
		UserID:          input.UserID,
		CartID:          c.ID,
		CartVersion:     c.Version,
		AmountMinor:     amountMinor,
		Currency:        s.currency,
		ShippingAddress: input.ShippingAddress,
		Status:          enums.PaymentIntentStatusCreated,
		ExpiresAt:       now.Add(s.intentTTL),
	}
	if err := s.repo.CreatePaymentIntent(ctx, intent); err != nil {
		return PaymentIntentDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert payment intent")
	}

	s.logInfo(ctx, map[string]any{
		"user_id":          input.UserID.String(),
		"gateway_order_id": gw.ID,
		"amount_minor":     amountMinor,
	}, "payment intent created")
	return PaymentIntentDTO{
		GatewayOrderID: gw.ID,
		Amount:         amountMinor,
		Currency:       s.currency,
		Key:            s.gateway.KeyID(),
	}, nil
}

func gatewayErr(err error, msg string) error {
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

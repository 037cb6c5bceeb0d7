// Package orders owns the order lifecycle: creation from a cart, gateway
// payment confirmation and the status state machine.
package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/db"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/angelmondragon/vendora-backend/pkg/metrics"
	"github.com/angelmondragon/vendora-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultCurrency  = "INR"
	defaultIntentTTL = 30 * time.Minute
	defaultMarkerTTL = 24 * time.Hour
)

// Service defines the order operations exposed to controllers and workers.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (CreateOrderResult, error)
	CreatePaymentIntent(ctx context.Context, input CreateOrderInput) (PaymentIntentDTO, error)
	ConfirmPayment(ctx context.Context, input ConfirmPaymentInput) (*OrderDTO, error)
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*OrderDTO, error)
	ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (OrderListDTO, error)
	ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (OrderListDTO, error)
	GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error)
}

// CreateOrderResult holds a placed cod order or, for gateway payments, the
// phase-one intent the client completes with the gateway.
type CreateOrderResult struct {
	Order   *OrderDTO
	Payment *PaymentIntentDTO
}

// ServiceParams wires the order service. Gateway and Marker are optional: without
// a gateway, online payments are rejected; without a marker, confirmation relies
// on the unique indexes alone.
type ServiceParams struct {
	Repo      Repository
	Tx        db.TxRunner
	Outbox    OutboxPublisher
	Carts     CartStore
	Catalog   ProductCatalog
	Gateway   PaymentGateway
	Marker    ConfirmMarker
	MarkerTTL time.Duration
	Metrics   *metrics.OrderMetrics
	Logger    *logger.Logger
	Currency  string
	IntentTTL time.Duration
	Now       func() time.Time
}

type service struct {
	repo      Repository
	tx        db.TxRunner
	outbox    OutboxPublisher
	carts     CartStore
	catalog   ProductCatalog
	gateway   PaymentGateway
	marker    ConfirmMarker
	markerTTL time.Duration
	metrics   *metrics.OrderMetrics
	logg      *logger.Logger
	currency  string
	intentTTL time.Duration
	now       func() time.Time
}

// NewService builds the order service.
func NewService(p ServiceParams) (Service, error) {
	if p.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if p.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if p.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if p.Carts == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if p.Catalog == nil {
		return nil, fmt.Errorf("product catalog required")
	}
	if p.Currency == "" {
		p.Currency = defaultCurrency
	}
	if p.IntentTTL <= 0 {
		p.IntentTTL = defaultIntentTTL
	}
	if p.MarkerTTL <= 0 {
		p.MarkerTTL = defaultMarkerTTL
	}
	if p.Now == nil {
		p.Now = time.Now
	}
	return &service{
		repo:      p.Repo,
		tx:        p.Tx,
		outbox:    p.Outbox,
		carts:     p.Carts,
		catalog:   p.Catalog,
		gateway:   p.Gateway,
		marker:    p.Marker,
		markerTTL: p.MarkerTTL,
		metrics:   p.Metrics,
		logg:      p.Logger,
		currency:  p.Currency,
		intentTTL: p.IntentTTL,
		now:       p.Now,
	}, nil
}

func (s *service) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (OrderListDTO, error) {
	rows, next, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return OrderListDTO{}, wrapStoreErr(err, "db: list user orders")
	}
	return newOrderList(rows, next), nil
}

// ListVendorOrders returns orders containing the vendor's items, with only
// those items attached.
func (s *service) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (OrderListDTO, error) {
	rows, next, err := s.repo.ListByVendor(ctx, vendorID, params)
	if err != nil {
		return OrderListDTO{}, wrapStoreErr(err, "db: list vendor orders")
	}
	return newOrderList(rows, next), nil
}

// GetOrder returns the order to its owner or to a vendor with an item in it.
// Anyone else sees not found.
func (s *service) GetOrder(ctx context.Context, actor Actor, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, wrapStoreErr(err, "db: load order")
	}
	switch actor.Role {
	case enums.ActorRoleUser:
		if order.UserID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
	case enums.ActorRoleVendor:
		if !order.HasVendor(actor.ID) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "actor role missing")
	}
	dto := NewOrderDTO(order)
	return &dto, nil
}

// wrapStoreErr maps store failures onto typed errors, passing typed ones through.
func wrapStoreErr(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "Order not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
}

func (s *service) logWarn(ctx context.Context, fields map[string]any, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithFields(ctx, fields), msg)
}

func (s *service) logInfo(ctx context.Context, fields map[string]any, msg string) {
	if s.logg == nil {
		return
	}
	s.logg.Info(s.logg.WithFields(ctx, fields), msg)
}

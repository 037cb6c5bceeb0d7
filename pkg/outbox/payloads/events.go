package payloads

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/vendora-backend/pkg/enums"
)

// OrderCreatedEvent announces a newly persisted order.
type OrderCreatedEvent struct {
	OrderID        uuid.UUID           `json:"orderId"`
	OrderReference string              `json:"orderReference"`
	UserID         uuid.UUID           `json:"userId"`
	VendorIDs      []uuid.UUID         `json:"vendorIds"`
	TotalAmount    string              `json:"totalAmount"`
	Currency       string              `json:"currency"`
	PaymentMethod  enums.PaymentMethod `json:"paymentMethod"`
	PaymentStatus  enums.PaymentStatus `json:"paymentStatus"`
	OrderStatus    enums.OrderStatus   `json:"orderStatus"`
}

// OrderStatusChangedEvent mirrors one status history row.
type OrderStatusChangedEvent struct {
	OrderID        uuid.UUID           `json:"orderId"`
	OrderReference string              `json:"orderReference"`
	UserID         uuid.UUID           `json:"userId"`
	VendorIDs      []uuid.UUID         `json:"vendorIds"`
	FromStatus     enums.OrderStatus   `json:"fromStatus"`
	ToStatus       enums.OrderStatus   `json:"toStatus"`
	PaymentStatus  enums.PaymentStatus `json:"paymentStatus"`
	ActorRole      enums.ActorRole     `json:"actorRole"`
	Reason         string              `json:"reason"`
}

// OrderRefundFlaggedEvent asks finance to reconcile a refund with the gateway.
type OrderRefundFlaggedEvent struct {
	OrderID          uuid.UUID         `json:"orderId"`
	OrderReference   string            `json:"orderReference"`
	UserID           uuid.UUID         `json:"userId"`
	GatewayPaymentID string            `json:"gatewayPaymentId,omitempty"`
	Amount           string            `json:"amount"`
	Currency         string            `json:"currency"`
	Trigger          enums.OrderStatus `json:"trigger"`
	Completed        bool              `json:"completed"`
}

// PaymentIntentEvent describes a phase-one gateway order reaching a final state.
type PaymentIntentEvent struct {
	IntentID       uuid.UUID                 `json:"intentId"`
	GatewayOrderID string                    `json:"gatewayOrderId"`
	UserID         uuid.UUID                 `json:"userId"`
	Status         enums.PaymentIntentStatus `json:"status"`
	GatewayStatus  string                    `json:"gatewayStatus,omitempty"`
}

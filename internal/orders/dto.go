package orders

import (
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/types"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated caller acting on an order.
type Actor struct {
	ID   uuid.UUID
	Role enums.ActorRole
}

// CreateOrderInput starts checkout for the user's current cart.
type CreateOrderInput struct {
	UserID          uuid.UUID
	ShippingAddress types.ShippingAddress
	PaymentMethod   enums.PaymentMethod
}

// ConfirmPaymentInput carries the gateway callback fields for phase two.
type ConfirmPaymentInput struct {
	UserID           uuid.UUID
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

// UpdateStatusInput asks to move one order to a new status.
type UpdateStatusInput struct {
	Actor   Actor
	OrderID uuid.UUID
	Status  enums.OrderStatus
	Reason  string
}

// PaymentIntentDTO is returned by phase one so the client can open the gateway checkout.
type PaymentIntentDTO struct {
	GatewayOrderID string `json:"gatewayOrderId"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Key            string `json:"key"`
}

// OrderItemDTO is one priced line of an order.
type OrderItemDTO struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductType string          `json:"productType"`
	VendorID    uuid.UUID       `json:"vendorId"`
	Name        string          `json:"name"`
	Variant     string          `json:"variant,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// StatusHistoryDTO is one accepted transition in an order's audit trail.
type StatusHistoryDTO struct {
	FromStatus string    `json:"fromStatus"`
	ToStatus   string    `json:"toStatus"`
	ActorID    uuid.UUID `json:"actorId"`
	ActorRole  string    `json:"actorRole"`
	Reason     string    `json:"reason"`
	Timestamp  time.Time `json:"timestamp"`
}

// OrderDTO is the order payload returned to users and vendors.
type OrderDTO struct {
	ID                uuid.UUID             `json:"id"`
	OrderReference    string                `json:"orderReference"`
	UserID            uuid.UUID             `json:"userId"`
	Items             []OrderItemDTO        `json:"items"`
	TotalAmount       decimal.Decimal       `json:"totalAmount"`
	Currency          string                `json:"currency"`
	ShippingAddress   types.ShippingAddress `json:"shippingAddress"`
	PaymentMethod     string                `json:"paymentMethod"`
	PaymentStatus     string                `json:"paymentStatus"`
	OrderStatus       string                `json:"orderStatus"`
	GatewayOrderID    *string               `json:"gatewayOrderId,omitempty"`
	GatewayPaymentID  *string               `json:"gatewayPaymentId,omitempty"`
	RefundRequestedAt *time.Time            `json:"refundRequestedAt,omitempty"`
	RefundCompletedAt *time.Time            `json:"refundCompletedAt,omitempty"`
	StatusHistory     []StatusHistoryDTO    `json:"statusHistory"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
}

// OrderListDTO is a cursor-paginated list of orders.
type OrderListDTO struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"nextCursor,omitempty"`
}

// NewOrderDTO maps an order row and whichever items and history were loaded with it.
func NewOrderDTO(o *models.Order) OrderDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{
			ProductID:   it.ProductID,
			ProductType: it.ProductType.String(),
			VendorID:    it.VendorID,
			Name:        it.Name,
			Variant:     it.Variant,
			Quantity:    it.Quantity,
			Price:       it.Price,
			Subtotal:    it.Subtotal,
		})
	}
	history := make([]StatusHistoryDTO, 0, len(o.History))
	for _, h := range o.History {
		history = append(history, StatusHistoryDTO{
			FromStatus: h.FromStatus.String(),
			ToStatus:   h.ToStatus.String(),
			ActorID:    h.ActorID,
			ActorRole:  h.ActorRole.String(),
			Reason:     h.Reason,
			Timestamp:  h.CreatedAt,
		})
	}
	return OrderDTO{
		ID:                o.ID,
		OrderReference:    o.OrderReference,
		UserID:            o.UserID,
		Items:             items,
		TotalAmount:       o.TotalAmount,
		Currency:          o.Currency,
		ShippingAddress:   o.ShippingAddress,
		PaymentMethod:     o.PaymentMethod.String(),
		PaymentStatus:     o.PaymentStatus.String(),
		OrderStatus:       o.OrderStatus.String(),
		GatewayOrderID:    o.GatewayOrderID,
		GatewayPaymentID:  o.GatewayPaymentID,
		RefundRequestedAt: o.RefundRequestedAt,
		RefundCompletedAt: o.RefundCompletedAt,
		StatusHistory:     history,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func newOrderList(rows []models.Order, next string) OrderListDTO {
	out := OrderListDTO{Orders: make([]OrderDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		out.Orders = append(out.Orders, NewOrderDTO(&rows[i]))
	}
	return out
}

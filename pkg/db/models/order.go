package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/types"
)

// Order is one purchase placed by a user across any number of vendors.
type Order struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderReference    string                `gorm:"column:order_reference;not null;uniqueIndex:orders_order_reference_key"`
	UserID            uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index:orders_user_id_idx"`
	TotalAmount       decimal.Decimal       `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Currency          string                `gorm:"column:currency;not null;default:'INR'"`
	ShippingAddress   types.ShippingAddress `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	PaymentMethod     enums.PaymentMethod   `gorm:"column:payment_method;type:text;not null"`
	PaymentStatus     enums.PaymentStatus   `gorm:"column:payment_status;type:text;not null;default:'pending'"`
	OrderStatus       enums.OrderStatus     `gorm:"column:order_status;type:text;not null;default:'pending'"`
	GatewayOrderID    *string               `gorm:"column:gateway_order_id;uniqueIndex:orders_gateway_order_id_key"`
	GatewayPaymentID  *string               `gorm:"column:gateway_payment_id;uniqueIndex:orders_gateway_payment_id_key"`
	RefundRequestedAt *time.Time            `gorm:"column:refund_requested_at"`
	RefundCompletedAt *time.Time            `gorm:"column:refund_completed_at"`
	Items             []OrderItem           `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	History           []OrderStatusHistory  `gorm:"foreignKey:OrderID"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(*gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// HasVendor reports whether any line item belongs to the vendor.
func (o *Order) HasVendor(vendorID uuid.UUID) bool {
	for _, item := range o.Items {
		if item.VendorID == vendorID {
			return true
		}
	}
	return false
}

// VendorIDs lists the distinct vendors with items in the order, in item order.
func (o *Order) VendorIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(o.Items))
	out := make([]uuid.UUID, 0, len(o.Items))
	for _, item := range o.Items {
		if _, ok := seen[item.VendorID]; ok {
			continue
		}
		seen[item.VendorID] = struct{}{}
		out = append(out, item.VendorID)
	}
	return out
}

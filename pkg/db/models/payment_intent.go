package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/types"
)

// PaymentIntent records a gateway order created before any local order exists.
type PaymentIntent struct {
	ID              uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	GatewayOrderID  string                    `gorm:"column:gateway_order_id;not null;uniqueIndex:payment_intents_gateway_order_id_key"`
	UserID          uuid.UUID                 `gorm:"column:user_id;type:uuid;not null;index:payment_intents_user_id_idx"`
	CartID          uuid.UUID                 `gorm:"column:cart_id;type:uuid;not null"`
	CartVersion     int64                     `gorm:"column:cart_version;not null"`
	AmountMinor     int64                     `gorm:"column:amount_minor;not null"`
	Currency        string                    `gorm:"column:currency;not null"`
	ShippingAddress types.ShippingAddress     `gorm:"column:shipping_address;type:jsonb;serializer:json;not null"`
	Status          enums.PaymentIntentStatus `gorm:"column:status;type:text;not null;default:'created'"`
	OrderID         *uuid.UUID                `gorm:"column:order_id;type:uuid"`
	ExpiresAt       time.Time                 `gorm:"column:expires_at;not null;index:payment_intents_expires_at_idx"`
	CreatedAt       time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *PaymentIntent) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendora-backend/pkg/enums"
)

// OrderItem snapshots one priced cart line at the moment the order was placed.
type OrderItem struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID         `gorm:"column:order_id;type:uuid;not null;index:order_items_order_id_idx"`
	Position    int               `gorm:"column:position;not null"`
	ProductID   uuid.UUID         `gorm:"column:product_id;type:uuid;not null"`
	ProductType enums.ProductType `gorm:"column:product_type;type:text;not null"`
	VendorID    uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index:order_items_vendor_id_idx"`
	Name        string            `gorm:"column:name;not null"`
	Variant     string            `gorm:"column:variant;not null;default:''"`
	Quantity    int               `gorm:"column:quantity;not null"`
	Price       decimal.Decimal   `gorm:"column:price;type:numeric(12,2);not null"`
	Subtotal    decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
}

func (i *OrderItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

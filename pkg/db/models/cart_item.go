package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendora-backend/pkg/enums"
)

// CartItem is one (product, type, variant) line inside a cart.
type CartItem struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID      uuid.UUID         `gorm:"column:cart_id;type:uuid;not null;uniqueIndex:cart_items_line_key"`
	ProductID   uuid.UUID         `gorm:"column:product_id;type:uuid;not null;uniqueIndex:cart_items_line_key"`
	ProductType enums.ProductType `gorm:"column:product_type;type:text;not null;uniqueIndex:cart_items_line_key"`
	Variant     string            `gorm:"column:variant;not null;default:'';uniqueIndex:cart_items_line_key"`
	Quantity    int               `gorm:"column:quantity;not null"`
	CreatedAt   time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (i *CartItem) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

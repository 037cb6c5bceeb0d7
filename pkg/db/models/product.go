package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendora-backend/pkg/enums"
)

// Product is a vendor listing inside one of the catalog collections.
type Product struct {
	ID          uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID    uuid.UUID           `gorm:"column:vendor_id;type:uuid;not null;index:products_vendor_id_idx"`
	ProductType enums.ProductType   `gorm:"column:product_type;type:text;not null;index:products_type_idx"`
	Name        string              `gorm:"column:name;not null"`
	Brand       string              `gorm:"column:brand;not null;default:''"`
	Description *string             `gorm:"column:description"`
	Price       decimal.NullDecimal `gorm:"column:price;type:numeric(12,2)"`
	Variants    pq.StringArray      `gorm:"column:variants;type:text[];not null;default:'{}'"`
	Stock       int                 `gorm:"column:stock;not null;default:0"`
	IsActive    bool                `gorm:"column:is_active;not null"`
	CreatedAt   time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HasVariant reports whether the label may be ordered for this product. Products
// without variants accept only the empty label.
func (p *Product) HasVariant(label string) bool {
	if len(p.Variants) == 0 {
		return label == ""
	}
	for _, v := range p.Variants {
		if v == label {
			return true
		}
	}
	return false
}

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendora-backend/pkg/enums"
)

// BrandList holds the brand names a vendor curates for one product category.
type BrandList struct {
	ID        uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VendorID  uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:brand_lists_vendor_category_key"`
	Category  enums.ProductType `gorm:"column:category;type:text;not null;uniqueIndex:brand_lists_vendor_category_key"`
	Names     pq.StringArray    `gorm:"column:names;type:text[];not null;default:'{}'"`
	CreatedAt time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (b *BrandList) BeforeCreate(*gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

package product

import (
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductDTO is the product payload returned to clients.
type ProductDTO struct {
	ID          uuid.UUID        `json:"id"`
	VendorID    uuid.UUID        `json:"vendorId"`
	ProductType string           `json:"productType"`
	Name        string           `json:"name"`
	Brand       string           `json:"brand,omitempty"`
	Description *string          `json:"description,omitempty"`
	Price       *decimal.Decimal `json:"price"`
	Variants    []string         `json:"variants"`
	Stock       int              `json:"stock"`
	IsActive    bool             `json:"isActive"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// NewProductDTO maps a product row to its API shape.
func NewProductDTO(p *models.Product) ProductDTO {
	dto := ProductDTO{
		ID:          p.ID,
		VendorID:    p.VendorID,
		ProductType: p.ProductType.String(),
		Name:        p.Name,
		Brand:       p.Brand,
		Description: p.Description,
		Variants:    append([]string{}, p.Variants...),
		Stock:       p.Stock,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.Price.Valid {
		price := p.Price.Decimal
		dto.Price = &price
	}
	return dto
}

// CreateProductInput is the validated payload for a new product.
type CreateProductInput struct {
	ProductType enums.ProductType
	Name        string
	Brand       string
	Description *string
	Price       *decimal.Decimal
	Variants    []string
	Stock       int
	IsActive    bool
}

// UpdateProductInput holds optional changes; nil fields are left alone.
type UpdateProductInput struct {
	Name        *string
	Brand       *string
	Description *string
	Price       *decimal.Decimal
	ClearPrice  bool
	Variants    *[]string
	Stock       *int
	IsActive    *bool
}

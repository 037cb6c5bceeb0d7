package cart

import (
	"time"

	product "github.com/angelmondragon/vendora-backend/internal/products"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AddItemInput is a validated request to put a product line in the cart.
type AddItemInput struct {
	ProductID   uuid.UUID
	ProductType enums.ProductType
	Variant     string
	Quantity    int
}

// CartItemDTO is one cart line. Product is nil when the listing no longer exists.
type CartItemDTO struct {
	ID          uuid.UUID           `json:"id"`
	ProductID   uuid.UUID           `json:"productId"`
	ProductType string              `json:"productType"`
	Variant     string              `json:"variant"`
	Quantity    int                 `json:"quantity"`
	Product     *product.ProductDTO `json:"product,omitempty"`
	LineTotal   *decimal.Decimal    `json:"lineTotal,omitempty"`
}

// CartDTO is the cart payload returned to shoppers. Subtotal only counts lines
// whose product currently has a price.
type CartDTO struct {
	ID        *uuid.UUID      `json:"id,omitempty"`
	Version   int64           `json:"version"`
	Items     []CartItemDTO   `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

func emptyCart() CartDTO {
	return CartDTO{Items: []CartItemDTO{}, Subtotal: decimal.Zero}
}

func newCartItemDTO(item models.CartItem, p *models.Product) CartItemDTO {
	dto := CartItemDTO{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductType: item.ProductType.String(),
		Variant:     item.Variant,
		Quantity:    item.Quantity,
	}
	if p != nil {
		pd := product.NewProductDTO(p)
		dto.Product = &pd
		if p.Price.Valid {
			total := p.Price.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity)))
			dto.LineTotal = &total
		}
	}
	return dto
}

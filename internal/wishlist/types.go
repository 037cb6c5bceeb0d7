package wishlist

import (
	"time"

	product "github.com/angelmondragon/vendora-backend/internal/products"
	"github.com/google/uuid"
)

// WishlistItemDTO is one saved product. Product is nil when the listing was removed.
type WishlistItemDTO struct {
	ProductID   uuid.UUID           `json:"productId"`
	ProductType string              `json:"productType"`
	Product     *product.ProductDTO `json:"product,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
}

// WishlistPageDTO is a cursor-paginated wishlist view.
type WishlistPageDTO struct {
	Items      []WishlistItemDTO `json:"items"`
	NextCursor string            `json:"nextCursor,omitempty"`
}

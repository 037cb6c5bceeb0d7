package wishlist

import (
	"context"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository encapsulates wishlist persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a wishlist repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// AddItem inserts a wishlist entry; an existing entry is left untouched.
func (r *Repository) AddItem(ctx context.Context, userID, productID uuid.UUID, productType enums.ProductType) error {
	item := &models.WishlistItem{UserID: userID, ProductID: productID, ProductType: productType}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}, {Name: "product_type"}},
			DoNothing: true,
		}).
		Create(item).Error
}

// RemoveItem deletes the entry if it exists.
func (r *Repository) RemoveItem(ctx context.Context, userID, productID uuid.UUID, productType enums.ProductType) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ? AND product_type = ?", userID, productID, productType).
		Delete(&models.WishlistItem{}).
		Error
}

// ListItems returns one page of the user's wishlist, newest first.
func (r *Repository) ListItems(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.WishlistItem, string, error) {
	keyset, err := pagination.Keyset(params)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	var rows []models.WishlistItem
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Scopes(keyset).Find(&rows).Error; err != nil {
		return nil, "", err
	}

	page, next := pagination.Trim(rows, params.Limit, func(w models.WishlistItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: w.CreatedAt, ID: w.ID}
	})
	return page, next, nil
}

// FindProducts loads the products referenced by ids, keyed by id.
func (r *Repository) FindProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := make(map[uuid.UUID]models.Product, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []models.Product
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, p := range rows {
		out[p.ID] = p
	}
	return out, nil
}

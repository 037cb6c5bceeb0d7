package cart

import (
	"context"
	"errors"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository exposes persistence operations for carts and their lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUser loads the user's cart with its lines in insertion order.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.findByUser(r.db.WithContext(ctx), userID)
}

// FindByUserForUpdate loads the cart and holds a row lock on it until the
// surrounding transaction ends.
func (r *Repository) FindByUserForUpdate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	return r.findByUser(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), userID)
}

func (r *Repository) findByUser(q *gorm.DB, userID uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := q.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		Where("user_id = ?", userID).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// GetOrCreate returns the user's cart, creating an empty one on first use.
func (r *Repository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*models.Cart, error) {
	cart := &models.Cart{UserID: userID}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
		Create(cart).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUser(ctx, userID)
}

// AddItem inserts the line or adds quantity to an existing one, then bumps the
// cart version.
func (r *Repository) AddItem(ctx context.Context, cartID uuid.UUID, line LineKey, quantity int) (*models.CartItem, error) {
	db := r.db.WithContext(ctx)

	var item models.CartItem
	err := db.
		Where("cart_id = ? AND product_id = ? AND product_type = ? AND variant = ?",
			cartID, line.ProductID, line.ProductType, line.Variant).
		First(&item).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{
			CartID:      cartID,
			ProductID:   line.ProductID,
			ProductType: line.ProductType,
			Variant:     line.Variant,
			Quantity:    quantity,
		}
		if err := db.Create(&item).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		item.Quantity += quantity
		if err := db.Model(&item).Update("quantity", item.Quantity).Error; err != nil {
			return nil, err
		}
	}

	if err := r.bumpVersion(db, cartID); err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItemQuantity sets the quantity of a line. It reports false when the line
// is not in the cart.
func (r *Repository) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.CartItem{}).
		Where("id = ? AND cart_id = ?", itemID, cartID).
		Update("quantity", quantity)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, r.bumpVersion(db, cartID)
}

// RemoveItem deletes a line. It reports false when the line is not in the cart.
func (r *Repository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Where("id = ? AND cart_id = ?", itemID, cartID).Delete(&models.CartItem{})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	return true, r.bumpVersion(db, cartID)
}

// Clear empties the cart only if its version still equals expectedVersion.
// A false result means another writer got there first.
func (r *Repository) Clear(ctx context.Context, cartID uuid.UUID, expectedVersion int64) (bool, error) {
	db := r.db.WithContext(ctx)
	res := db.Model(&models.Cart{}).
		Where("id = ? AND version = ?", cartID, expectedVersion).
		Update("version", gorm.Expr("version + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, nil
	}
	if err := db.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (r *Repository) bumpVersion(db *gorm.DB, cartID uuid.UUID) error {
	return db.Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("version", gorm.Expr("version + 1")).Error
}

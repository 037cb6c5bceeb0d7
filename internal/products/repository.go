package product

import (
	"context"
	"fmt"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists catalog products.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// FindByID loads a product regardless of type.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDAndType loads a product only when it is listed under productType.
// Cart and order pricing resolve every line through this lookup.
func (r *Repository) FindByIDAndType(ctx context.Context, id uuid.UUID, productType enums.ProductType) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND product_type = ?", id, productType).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindOwned loads a product belonging to vendorID.
func (r *Repository) FindOwned(ctx context.Context, vendorID, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// Create inserts a new product row.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Save writes every column of an existing product.
func (r *Repository) Save(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Save(product).Error
}

// DeleteOwned removes the product when it belongs to vendorID and reports whether a row went away.
func (r *Repository) DeleteOwned(ctx context.Context, vendorID, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("id = ? AND vendor_id = ?", id, vendorID).
		Delete(&models.Product{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListQuery narrows a keyset-paginated product listing.
type ListQuery struct {
	ProductType *enums.ProductType
	VendorID    *uuid.UUID
	ActiveOnly  bool
	Pagination  pagination.Params
}

// List returns one page of products, newest first, plus the cursor for the next page.
func (r *Repository) List(ctx context.Context, query ListQuery) ([]models.Product, string, error) {
	page, err := pagination.Keyset(query.Pagination)
	if err != nil {
		return nil, "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	qb := r.db.WithContext(ctx).Model(&models.Product{})
	if query.ProductType != nil {
		qb = qb.Where("product_type = ?", *query.ProductType)
	}
	if query.VendorID != nil {
		qb = qb.Where("vendor_id = ?", *query.VendorID)
	}
	if query.ActiveOnly {
		qb = qb.Where("is_active = ?", true)
	}

	var rows []models.Product
	if err := qb.Scopes(page).Find(&rows).Error; err != nil {
		return nil, "", fmt.Errorf("list products: %w", err)
	}

	out, next := pagination.Trim(rows, query.Pagination.Limit, func(p models.Product) pagination.Cursor {
		return pagination.Cursor{CreatedAt: p.CreatedAt, ID: p.ID}
	})
	return out, next, nil
}

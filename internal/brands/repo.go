package brands

import (
	"context"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository persists per-vendor brand lists.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds the repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Find loads the list for (vendorID, category).
func (r *Repository) Find(ctx context.Context, vendorID uuid.UUID, category enums.ProductType) (*models.BrandList, error) {
	var list models.BrandList
	err := r.db.WithContext(ctx).
		Where("vendor_id = ? AND category = ?", vendorID, category).
		First(&list).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// FindForUpdate loads the list and locks its row until the transaction ends.
func (r *Repository) FindForUpdate(ctx context.Context, vendorID uuid.UUID, category enums.ProductType) (*models.BrandList, error) {
	var list models.BrandList
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("vendor_id = ? AND category = ?", vendorID, category).
		First(&list).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// ListByVendor returns every category list the vendor owns.
func (r *Repository) ListByVendor(ctx context.Context, vendorID uuid.UUID) ([]models.BrandList, error) {
	var lists []models.BrandList
	err := r.db.WithContext(ctx).
		Where("vendor_id = ?", vendorID).
		Order("category ASC").
		Find(&lists).Error
	return lists, err
}

// Create inserts a new list.
func (r *Repository) Create(ctx context.Context, list *models.BrandList) error {
	return r.db.WithContext(ctx).Create(list).Error
}

// UpdateNames replaces the names on an existing list.
func (r *Repository) UpdateNames(ctx context.Context, list *models.BrandList) error {
	return r.db.WithContext(ctx).
		Model(list).
		Select("names", "updated_at").
		Updates(list).Error
}

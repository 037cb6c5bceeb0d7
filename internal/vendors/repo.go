package vendors

import (
	"context"

	"github.com/angelmondragon/vendora-backend/internal/accounts"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"gorm.io/gorm"
)

// EmailConstraint is the unique index guarding vendor emails.
const EmailConstraint = "vendors_email_key"

// Repository persists vendor accounts.
type Repository struct {
	*accounts.Store[models.Vendor]
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Store: accounts.NewStore[models.Vendor](db)}
}

func (r *Repository) Create(ctx context.Context, dto CreateVendorDTO) (*models.Vendor, error) {
	return r.Insert(ctx, dto.ToModel())
}

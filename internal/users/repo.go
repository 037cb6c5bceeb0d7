package users

import (
	"context"

	"github.com/angelmondragon/vendora-backend/internal/accounts"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"gorm.io/gorm"
)

// EmailConstraint is the unique index guarding shopper emails.
const EmailConstraint = "users_email_key"

// Repository persists shopper accounts.
type Repository struct {
	*accounts.Store[models.User]
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Store: accounts.NewStore[models.User](db)}
}

// Create persists a new, active shopper.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	return r.Insert(ctx, dto.ToModel())
}

// Package accounts holds the persistence shared by the two login tables,
// shoppers and vendors.
package accounts

import (
	"context"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is a row that signs in with email and password.
type Account interface {
	models.User | models.Vendor
}

// Store reads and writes one account table.
type Store[A Account] struct {
	db *gorm.DB
}

func NewStore[A Account](db *gorm.DB) *Store[A] {
	return &Store[A]{db: db}
}

// Insert creates row and returns it with its generated id.
func (s *Store[A]) Insert(ctx context.Context, row *A) (*A, error) {
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// FindByEmail expects email already normalized by the caller.
func (s *Store[A]) FindByEmail(ctx context.Context, email string) (*A, error) {
	var row A
	if err := s.db.WithContext(ctx).Where("email = ?", email).Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

// RecordLogin stamps last_login_at and, when rehash is set, replaces the
// stored password hash in the same statement.
func (s *Store[A]) RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, rehash string) error {
	cols := map[string]any{"last_login_at": at.UTC()}
	if rehash != "" {
		cols["password_hash"] = rehash
	}
	res := s.db.WithContext(ctx).Model(new(A)).Where("id = ?", id).UpdateColumns(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

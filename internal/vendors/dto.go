package vendors

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
)

// VendorDTO is the public shape of a seller account.
type VendorDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	ShopName    string     `json:"shopName"`
	Phone       *string    `json:"phone,omitempty"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// CreateVendorDTO holds the fields needed to persist a new vendor.
type CreateVendorDTO struct {
	Email        string
	PasswordHash string
	Name         string
	ShopName     string
	Phone        *string
}

func FromModel(v *models.Vendor) *VendorDTO {
	if v == nil {
		return nil
	}
	return &VendorDTO{
		ID:          v.ID,
		Email:       v.Email,
		Name:        v.Name,
		ShopName:    v.ShopName,
		Phone:       v.Phone,
		LastLoginAt: v.LastLoginAt,
		CreatedAt:   v.CreatedAt,
	}
}

func (c CreateVendorDTO) ToModel() *models.Vendor {
	return &models.Vendor{
		Email:        c.Email,
		PasswordHash: c.PasswordHash,
		Name:         c.Name,
		ShopName:     c.ShopName,
		Phone:        c.Phone,
		IsActive:     true,
	}
}

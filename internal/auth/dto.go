package auth

import (
	"time"

	"github.com/angelmondragon/vendora-backend/internal/users"
	"github.com/angelmondragon/vendora-backend/internal/vendors"
)

// LoginRequest captures the credentials sent to either login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterUserRequest is the shopper signup payload.
type RegisterUserRequest struct {
	Name     string  `json:"name" validate:"required"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// RegisterVendorRequest is the seller signup payload.
type RegisterVendorRequest struct {
	Name     string  `json:"name" validate:"required"`
	ShopName string  `json:"shopName" validate:"required,notblank"`
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required"`
	Phone    *string `json:"phone,omitempty"`
}

// UserLoginResponse carries the shopper token and profile.
type UserLoginResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      *users.UserDTO `json:"user"`
}

// VendorLoginResponse carries the vendor token and profile.
type VendorLoginResponse struct {
	Token     string             `json:"token"`
	ExpiresAt time.Time          `json:"expiresAt"`
	Vendor    *vendors.VendorDTO `json:"vendor"`
}

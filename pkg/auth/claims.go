package auth

import (
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// UserTokenPayload captures the data available when minting a shopper JWT.
type UserTokenPayload struct {
	UserID uuid.UUID
	JTI    string
}

// VendorTokenPayload captures the data available when minting a vendor JWT.
type VendorTokenPayload struct {
	VendorID uuid.UUID
	ShopName string
	JTI      string
}

// UserClaims is the typed JWT issued to shoppers.
type UserClaims struct {
	UserID uuid.UUID       `json:"user_id"`
	Role   enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

// VendorClaims is the typed JWT issued to vendors.
type VendorClaims struct {
	VendorID uuid.UUID       `json:"vendor_id"`
	ShopName string          `json:"shop_name"`
	Role     enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}

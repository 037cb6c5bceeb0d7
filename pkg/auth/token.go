package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/config"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// MintUserToken issues a signed shopper JWT using the configured TTL.
func MintUserToken(cfg config.JWTConfig, now time.Time, payload UserTokenPayload) (string, error) {
	if payload.UserID == uuid.Nil {
		return "", fmt.Errorf("user id is required")
	}
	registered, err := registeredClaims(cfg, now, payload.JTI)
	if err != nil {
		return "", err
	}
	return sign(cfg, UserClaims{
		UserID:           payload.UserID,
		Role:             enums.ActorRoleUser,
		RegisteredClaims: registered,
	})
}

// MintVendorToken issues a signed vendor JWT using the configured TTL.
func MintVendorToken(cfg config.JWTConfig, now time.Time, payload VendorTokenPayload) (string, error) {
	if payload.VendorID == uuid.Nil {
		return "", fmt.Errorf("vendor id is required")
	}
	registered, err := registeredClaims(cfg, now, payload.JTI)
	if err != nil {
		return "", err
	}
	return sign(cfg, VendorClaims{
		VendorID:         payload.VendorID,
		ShopName:         strings.TrimSpace(payload.ShopName),
		Role:             enums.ActorRoleVendor,
		RegisteredClaims: registered,
	})
}

// ParseUserToken validates a shopper JWT and returns its claims.
func ParseUserToken(cfg config.JWTConfig, tokenString string) (*UserClaims, error) {
	claims := &UserClaims{}
	if err := parse(cfg, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Role != enums.ActorRoleUser {
		return nil, fmt.Errorf("token role %q is not a user token", claims.Role)
	}
	if claims.UserID == uuid.Nil {
		return nil, fmt.Errorf("token is missing user_id")
	}
	return claims, nil
}

// ParseVendorToken validates a vendor JWT and returns its claims.
func ParseVendorToken(cfg config.JWTConfig, tokenString string) (*VendorClaims, error) {
	claims := &VendorClaims{}
	if err := parse(cfg, tokenString, claims); err != nil {
		return nil, err
	}
	if claims.Role != enums.ActorRoleVendor {
		return nil, fmt.Errorf("token role %q is not a vendor token", claims.Role)
	}
	if claims.VendorID == uuid.Nil {
		return nil, fmt.Errorf("token is missing vendor_id")
	}
	return claims, nil
}

func registeredClaims(cfg config.JWTConfig, now time.Time, jti string) (jwt.RegisteredClaims, error) {
	if cfg.Secret == "" {
		return jwt.RegisteredClaims{}, fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return jwt.RegisteredClaims{}, fmt.Errorf("jwt issuer is required")
	}
	if cfg.ExpirationMinutes <= 0 {
		return jwt.RegisteredClaims{}, fmt.Errorf("jwt expiration minutes must be positive")
	}

	jti = strings.TrimSpace(jti)
	if jti == "" {
		jti = uuid.NewString()
	}
	return jwt.RegisteredClaims{
		Issuer:    cfg.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TokenTTL())),
		ID:        jti,
	}, nil
}

func sign(cfg config.JWTConfig, claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func parse(cfg config.JWTConfig, tokenString string, claims jwt.Claims) error {
	if cfg.Secret == "" {
		return fmt.Errorf("jwt secret is required")
	}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
	)
	return err
}

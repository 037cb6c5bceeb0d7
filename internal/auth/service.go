package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vendora-backend/internal/users"
	"github.com/angelmondragon/vendora-backend/internal/vendors"
	pkgAuth "github.com/angelmondragon/vendora-backend/pkg/auth"
	"github.com/angelmondragon/vendora-backend/pkg/config"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/security"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controllers.
type Service interface {
	LoginUser(ctx context.Context, req LoginRequest) (*UserLoginResponse, error)
	LoginVendor(ctx context.Context, req LoginRequest) (*VendorLoginResponse, error)
	Logout(ctx context.Context, jti string) error
}

type service struct {
	users     userRepository
	vendors   vendorRepository
	session   sessionManager
	passwords *security.Hasher
	jwtCfg    config.JWTConfig
	now       func() time.Time
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, rehash string) error
}

type vendorRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Vendor, error)
	RecordLogin(ctx context.Context, id uuid.UUID, at time.Time, rehash string) error
}

type sessionManager interface {
	Create(ctx context.Context, subject string) (string, error)
	Revoke(ctx context.Context, jti string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	VendorRepo     vendorRepository
	SessionManager sessionManager
	Passwords      *security.Hasher
	JWTConfig      config.JWTConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.VendorRepo == nil {
		return nil, fmt.Errorf("vendor repository is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	if params.Passwords == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	return &service{
		users:     params.UserRepo,
		vendors:   params.VendorRepo,
		session:   params.SessionManager,
		passwords: params.Passwords,
		jwtCfg:    params.JWTConfig,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) LoginUser(ctx context.Context, req LoginRequest) (*UserLoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.lookupErr(err, req.Password, "lookup user")
	}
	rehash, err := s.checkCredentials(req.Password, user.PasswordHash, user.IsActive)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.users.RecordLogin(ctx, user.ID, now, rehash); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	jti, err := s.session.Create(ctx, "user:"+user.ID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	token, err := pkgAuth.MintUserToken(s.jwtCfg, now, pkgAuth.UserTokenPayload{UserID: user.ID, JTI: jti})
	if err != nil {
		_ = s.session.Revoke(ctx, jti)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &UserLoginResponse{
		Token:     token,
		ExpiresAt: now.Add(s.jwtCfg.TokenTTL()),
		User:      users.FromModel(user),
	}, nil
}

func (s *service) LoginVendor(ctx context.Context, req LoginRequest) (*VendorLoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	vendor, err := s.vendors.FindByEmail(ctx, email)
	if err != nil {
		return nil, s.lookupErr(err, req.Password, "lookup vendor")
	}
	rehash, err := s.checkCredentials(req.Password, vendor.PasswordHash, vendor.IsActive)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.vendors.RecordLogin(ctx, vendor.ID, now, rehash); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	vendor.LastLoginAt = &now

	jti, err := s.session.Create(ctx, "vendor:"+vendor.ID.String())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store session")
	}
	token, err := pkgAuth.MintVendorToken(s.jwtCfg, now, pkgAuth.VendorTokenPayload{
		VendorID: vendor.ID,
		ShopName: vendor.ShopName,
		JTI:      jti,
	})
	if err != nil {
		_ = s.session.Revoke(ctx, jti)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &VendorLoginResponse{
		Token:     token,
		ExpiresAt: now.Add(s.jwtCfg.TokenTTL()),
		Vendor:    vendors.FromModel(vendor),
	}, nil
}

// Logout revokes the session behind the token's jti. Unknown sessions are not an error.
func (s *service) Logout(ctx context.Context, jti string) error {
	if strings.TrimSpace(jti) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, jti); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

// checkCredentials returns a replacement hash when the stored one was made
// with outdated parameters, or "" when it is current.
func (s *service) checkCredentials(password, hash string, active bool) (string, error) {
	valid, stale, err := s.passwords.Verify(password, hash)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !active {
		return "", pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	if !stale {
		return "", nil
	}
	rehash, err := s.passwords.Hash(password)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "rehash password")
	}
	return rehash, nil
}

// lookupErr answers an unknown email only after a full hash derivation so
// response time does not reveal which emails are registered.
func (s *service) lookupErr(err error, password, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.passwords.Burn(password)
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/vendora-backend/internal/users"
	"github.com/angelmondragon/vendora-backend/internal/vendors"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/security"
	"gorm.io/gorm"
)

const emailTakenMessage = "email already registered"

// RegisterService handles account signup for both roles.
type RegisterService interface {
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*users.UserDTO, error)
	RegisterVendor(ctx context.Context, req RegisterVendorRequest) (*vendors.VendorDTO, error)
}

type userCreator interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
}

type vendorCreator interface {
	FindByEmail(ctx context.Context, email string) (*models.Vendor, error)
	Create(ctx context.Context, dto vendors.CreateVendorDTO) (*models.Vendor, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	Users     userCreator
	Vendors   vendorCreator
	Passwords *security.Hasher
}

type registerService struct {
	users     userCreator
	vendors   vendorCreator
	passwords *security.Hasher
}

// NewRegisterService builds a registration service with the provided dependencies.
func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Vendors == nil {
		return nil, fmt.Errorf("vendor repository is required")
	}
	if params.Passwords == nil {
		return nil, fmt.Errorf("password hasher is required")
	}
	return &registerService{
		users:     params.Users,
		vendors:   params.Vendors,
		passwords: params.Passwords,
	}, nil
}

func (s *registerService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*users.UserDTO, error) {
	email, name, hash, err := s.prepare(req.Email, req.Name, req.Password)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, emailTakenMessage)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user email")
	}

	user, err := s.users.Create(ctx, users.CreateUserDTO{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Phone:        trimmedPhone(req.Phone),
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err, users.EmailConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, emailTakenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}
	return users.FromModel(user), nil
}

func (s *registerService) RegisterVendor(ctx context.Context, req RegisterVendorRequest) (*vendors.VendorDTO, error) {
	email, name, hash, err := s.prepare(req.Email, req.Name, req.Password)
	if err != nil {
		return nil, err
	}
	shopName := strings.TrimSpace(req.ShopName)
	if shopName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shop name is required")
	}

	if _, err := s.vendors.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, emailTakenMessage)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check vendor email")
	}

	vendor, err := s.vendors.Create(ctx, vendors.CreateVendorDTO{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		ShopName:     shopName,
		Phone:        trimmedPhone(req.Phone),
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err, vendors.EmailConstraint) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, emailTakenMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create vendor")
	}
	return vendors.FromModel(vendor), nil
}

// prepare normalizes the shared signup fields and hashes the password.
func (s *registerService) prepare(rawEmail, rawName, password string) (string, string, string, error) {
	email := normalizeEmail(rawEmail)
	if email == "" {
		return "", "", "", pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	name := strings.TrimSpace(rawName)
	if name == "" {
		return "", "", "", pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := security.CheckPasswordPolicy(password); err != nil {
		return "", "", "", pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return "", "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	return email, name, hash, nil
}

func trimmedPhone(phone *string) *string {
	if phone == nil {
		return nil
	}
	v := strings.TrimSpace(*phone)
	if v == "" {
		return nil
	}
	return &v
}

// Package brands keeps each vendor's brand names per product category.
package brands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/vendora-backend/pkg/db"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const maxNameLength = 80

// BrandListDTO is the brand names a vendor keeps for one category.
type BrandListDTO struct {
	Category string   `json:"category"`
	Names    []string `json:"names"`
}

// Service manages vendor brand lists.
type Service interface {
	AddBrand(ctx context.Context, vendorID uuid.UUID, category enums.ProductType, name string) (BrandListDTO, error)
	RemoveBrand(ctx context.Context, vendorID uuid.UUID, category enums.ProductType, name string) (BrandListDTO, error)
	GetBrands(ctx context.Context, vendorID uuid.UUID, category enums.ProductType) (BrandListDTO, error)
	ListBrands(ctx context.Context, vendorID uuid.UUID) ([]BrandListDTO, error)
}

type service struct {
	repo *Repository
	tx   db.TxRunner
}

// NewService wires the brand list service.
func NewService(repo *Repository, tx db.TxRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("brand repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: repo, tx: tx}, nil
}

// AddBrand appends name to the category list, creating the list on first use.
// Names match case-insensitively, so re-adding an existing name is a no-op.
func (s *service) AddBrand(ctx context.Context, vendorID uuid.UUID, category enums.ProductType, name string) (BrandListDTO, error) {
	if !category.IsValid() {
		return BrandListDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	name, err := normalizeName(name)
	if err != nil {
		return BrandListDTO{}, err
	}

	var out BrandListDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		list, err := repo.FindForUpdate(ctx, vendorID, category)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			list = &models.BrandList{VendorID: vendorID, Category: category, Names: pq.StringArray{name}}
			if err := repo.Create(ctx, list); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create brand list")
			}
			out = toDTO(list)
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load brand list")
		}

		if indexOf(list.Names, name) < 0 {
			list.Names = append(list.Names, name)
			if err := repo.UpdateNames(ctx, list); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update brand list")
			}
		}
		out = toDTO(list)
		return nil
	})
	if err != nil {
		if pkgerrors.IsUniqueViolation(err, "") {
			return BrandListDTO{}, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "brand list was modified concurrently")
		}
		return BrandListDTO{}, err
	}
	return out, nil
}

func (s *service) RemoveBrand(ctx context.Context, vendorID uuid.UUID, category enums.ProductType, name string) (BrandListDTO, error) {
	if !category.IsValid() {
		return BrandListDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	name, err := normalizeName(name)
	if err != nil {
		return BrandListDTO{}, err
	}

	var out BrandListDTO
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		list, err := repo.FindForUpdate(ctx, vendorID, category)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load brand list")
		}
		idx := indexOf(list.Names, name)
		if idx < 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "brand not found")
		}
		list.Names = append(list.Names[:idx], list.Names[idx+1:]...)
		if err := repo.UpdateNames(ctx, list); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update brand list")
		}
		out = toDTO(list)
		return nil
	})
	if err != nil {
		return BrandListDTO{}, err
	}
	return out, nil
}

// GetBrands returns the category list; a category never written yields an empty list.
func (s *service) GetBrands(ctx context.Context, vendorID uuid.UUID, category enums.ProductType) (BrandListDTO, error) {
	if !category.IsValid() {
		return BrandListDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid category")
	}
	list, err := s.repo.Find(ctx, vendorID, category)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return BrandListDTO{Category: category.String(), Names: []string{}}, nil
	}
	if err != nil {
		return BrandListDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load brand list")
	}
	return toDTO(list), nil
}

func (s *service) ListBrands(ctx context.Context, vendorID uuid.UUID) ([]BrandListDTO, error) {
	lists, err := s.repo.ListByVendor(ctx, vendorID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list brand lists")
	}
	out := make([]BrandListDTO, 0, len(lists))
	for i := range lists {
		out = append(out, toDTO(&lists[i]))
	}
	return out, nil
}

func normalizeName(name string) (string, error) {
	name = strings.Join(strings.Fields(name), " ")
	if name == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "brand name is required")
	}
	if len(name) > maxNameLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("brand name must be at most %d characters", maxNameLength))
	}
	return name, nil
}

func indexOf(names []string, name string) int {
	for i, existing := range names {
		if strings.EqualFold(existing, name) {
			return i
		}
	}
	return -1
}

func toDTO(list *models.BrandList) BrandListDTO {
	return BrandListDTO{Category: list.Category.String(), Names: append([]string{}, list.Names...)}
}

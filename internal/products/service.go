package product

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/cache"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	itemCachePrefix = "products:item:"
	maxVariants     = 50
)

// Service exposes catalog reads and vendor product management.
type Service interface {
	CreateProduct(ctx context.Context, vendorID uuid.UUID, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, vendorID, productID uuid.UUID) error
	ListVendorProducts(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*ProductListResult, error)
	ListByType(ctx context.Context, input ListByTypeInput) (*ProductListResult, error)
	GetProduct(ctx context.Context, productType enums.ProductType, id uuid.UUID) (*ProductDTO, error)
}

type service struct {
	repo     *Repository
	cache    cache.Store
	cacheTTL time.Duration
}

// NewService constructs the product service. A nil cache disables read caching.
func NewService(repo *Repository, store cache.Store, cacheTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if store == nil {
		store = cache.Nop{}
	}
	return &service{repo: repo, cache: store, cacheTTL: cacheTTL}, nil
}

func (s *service) CreateProduct(ctx context.Context, vendorID uuid.UUID, input CreateProductInput) (*ProductDTO, error) {
	if !input.ProductType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if err := validatePrice(input.Price); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}
	variants, err := normalizeVariants(input.Variants)
	if err != nil {
		return nil, err
	}

	product := &models.Product{
		VendorID:    vendorID,
		ProductType: input.ProductType,
		Name:        name,
		Brand:       strings.TrimSpace(input.Brand),
		Description: trimPtr(input.Description),
		Variants:    variants,
		Stock:       input.Stock,
		IsActive:    input.IsActive,
	}
	if input.Price != nil {
		product.Price.Decimal = *input.Price
		product.Price.Valid = true
	}
	if err := s.repo.Create(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
	}
	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	product, err := s.loadOwned(ctx, vendorID, productID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be empty")
		}
		product.Name = name
	}
	if input.Brand != nil {
		product.Brand = strings.TrimSpace(*input.Brand)
	}
	if input.Description != nil {
		product.Description = trimPtr(input.Description)
	}
	switch {
	case input.ClearPrice:
		product.Price.Valid = false
	case input.Price != nil:
		if err := validatePrice(input.Price); err != nil {
			return nil, err
		}
		product.Price.Decimal = *input.Price
		product.Price.Valid = true
	}
	if input.Variants != nil {
		variants, err := normalizeVariants(*input.Variants)
		if err != nil {
			return nil, err
		}
		product.Variants = variants
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		product.Stock = *input.Stock
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.repo.Save(ctx, product); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
	}
	s.cache.Delete(itemCacheKey(product.ProductType, product.ID))

	dto := NewProductDTO(product)
	return &dto, nil
}

func (s *service) DeleteProduct(ctx context.Context, vendorID, productID uuid.UUID) error {
	product, err := s.loadOwned(ctx, vendorID, productID)
	if err != nil {
		return err
	}
	deleted, err := s.repo.DeleteOwned(ctx, vendorID, productID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	s.cache.Delete(itemCacheKey(product.ProductType, product.ID))
	return nil
}

func (s *service) ListVendorProducts(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*ProductListResult, error) {
	return s.list(ctx, ListQuery{VendorID: &vendorID, Pagination: params})
}

func (s *service) ListByType(ctx context.Context, input ListByTypeInput) (*ProductListResult, error) {
	if !input.ProductType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}
	productType := input.ProductType
	return s.list(ctx, ListQuery{ProductType: &productType, ActiveOnly: true, Pagination: input.Pagination})
}

// GetProduct is a read-through lookup; vendor writes evict the entry.
func (s *service) GetProduct(ctx context.Context, productType enums.ProductType, id uuid.UUID) (*ProductDTO, error) {
	if !productType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}
	key := itemCacheKey(productType, id)
	if cached, ok := s.cache.Get(key); ok {
		if dto, ok := cached.(ProductDTO); ok {
			return &dto, nil
		}
	}

	product, err := s.repo.FindByIDAndType(ctx, id, productType)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}

	dto := NewProductDTO(product)
	s.cache.Set(key, dto, s.cacheTTL)
	return &dto, nil
}

func (s *service) list(ctx context.Context, query ListQuery) (*ProductListResult, error) {
	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	out := &ProductListResult{Products: make([]ProductDTO, 0, len(rows)), NextCursor: next}
	for i := range rows {
		out.Products = append(out.Products, NewProductDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) loadOwned(ctx context.Context, vendorID, productID uuid.UUID) (*models.Product, error) {
	product, err := s.repo.FindOwned(ctx, vendorID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return product, nil
}

func itemCacheKey(productType enums.ProductType, id uuid.UUID) string {
	return itemCachePrefix + productType.String() + ":" + id.String()
}

func validatePrice(price *decimal.Decimal) error {
	if price != nil && price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	return nil
}

func normalizeVariants(values []string) (pq.StringArray, error) {
	if len(values) > maxVariants {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("at most %d variants are allowed", maxVariants))
	}
	seen := make(map[string]struct{}, len(values))
	out := make(pq.StringArray, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant labels cannot be empty")
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, nil
}

func trimPtr(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

package wishlist

import (
	"context"
	"errors"
	"fmt"

	product "github.com/angelmondragon/vendora-backend/internal/products"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type productLookup interface {
	FindByIDAndType(ctx context.Context, id uuid.UUID, productType enums.ProductType) (*models.Product, error)
}

// Service exposes wishlist management for shoppers.
type Service interface {
	GetWishlist(ctx context.Context, userID uuid.UUID, params pagination.Params) (WishlistPageDTO, error)
	AddItem(ctx context.Context, userID, productID uuid.UUID, productType enums.ProductType) error
	RemoveItem(ctx context.Context, userID, productID uuid.UUID, productType enums.ProductType) error
}

type service struct {
	repo     *Repository
	products productLookup
}

// NewService builds a wishlist service with the required dependencies.
func NewService(repo *Repository, products productLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("wishlist repo is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup is required")
	}
	return &service{repo: repo, products: products}, nil
}

func (s *service) GetWishlist(ctx context.Context, userID uuid.UUID, params pagination.Params) (WishlistPageDTO, error) {
	rows, next, err := s.repo.ListItems(ctx, userID, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return WishlistPageDTO{}, err
		}
		return WishlistPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list wishlist")
	}

	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ProductID)
	}
	found, err := s.repo.FindProducts(ctx, ids)
	if err != nil {
		return WishlistPageDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load wishlist products")
	}

	page := WishlistPageDTO{Items: make([]WishlistItemDTO, 0, len(rows)), NextCursor: next}
	for _, row := range rows {
		item := WishlistItemDTO{
			ProductID:   row.ProductID,
			ProductType: row.ProductType.String(),
			CreatedAt:   row.CreatedAt,
		}
		if p, ok := found[row.ProductID]; ok && p.ProductType == row.ProductType {
			dto := product.NewProductDTO(&p)
			item.Product = &dto
		}
		page.Items = append(page.Items, item)
	}
	return page, nil
}

// AddItem checks the product exists under its type, then saves it. Adding twice is a no-op.
func (s *service) AddItem(ctx context.Context, userID, productID uuid.UUID, productType enums.ProductType) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !productType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}
	if _, err := s.products.FindByIDAndType(ctx, productID, productType); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "product not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if err := s.repo.AddItem(ctx, userID, productID, productType); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "add wishlist item")
	}
	return nil
}

func (s *service) RemoveItem(ctx context.Context, userID, productID uuid.UUID, productType enums.ProductType) error {
	if !productType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}
	if err := s.repo.RemoveItem(ctx, userID, productID, productType); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "remove wishlist item")
	}
	return nil
}

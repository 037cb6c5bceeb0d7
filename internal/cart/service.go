// Package cart manages each shopper's single pre-purchase cart.
package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 999

// Service exposes cart operations for shoppers. Every mutation bumps the cart
// version so an order being placed concurrently observes a conflict.
type Service interface {
	GetCart(ctx context.Context, userID uuid.UUID) (CartDTO, error)
	AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (CartDTO, error)
	UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (CartDTO, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (CartDTO, error)
	ClearCart(ctx context.Context, userID uuid.UUID) error
}

type service struct {
	repo     CartRepository
	tx       txRunner
	products productLookup
}

// NewService builds a cart service backed by the provided stack.
func NewService(repo CartRepository, tx txRunner, products productLookup) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if products == nil {
		return nil, fmt.Errorf("product lookup required")
	}
	return &service{repo: repo, tx: tx, products: products}, nil
}

func (s *service) GetCart(ctx context.Context, userID uuid.UUID) (CartDTO, error) {
	cart, err := s.repo.FindByUser(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return emptyCart(), nil
	}
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
	}
	return s.toDTO(ctx, cart)
}

func (s *service) AddItem(ctx context.Context, userID uuid.UUID, input AddItemInput) (CartDTO, error) {
	input.Variant = strings.TrimSpace(input.Variant)
	if input.ProductID == uuid.Nil {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "productId is required")
	}
	if !input.ProductType.IsValid() {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}
	if err := validateQuantity(input.Quantity, 1); err != nil {
		return CartDTO{}, err
	}

	p, err := s.products.FindByIDAndType(ctx, input.ProductID, input.ProductType)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeNotFound, "Product not found")
	}
	if err != nil {
		return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	if !p.IsActive {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "Product is not available")
	}
	if !p.HasVariant(input.Variant) {
		return CartDTO{}, pkgerrors.New(pkgerrors.CodeValidation, "Invalid variant for product")
	}

	line := LineKey{ProductID: input.ProductID, ProductType: input.ProductType, Variant: input.Variant}
	var cart *models.Cart
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := repo.GetOrCreate(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
		}
		item, err := repo.AddItem(ctx, c.ID, line, input.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: add cart item")
		}
		if item.Quantity > MaxLineQuantity {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must not exceed %d", MaxLineQuantity))
		}
		cart, err = repo.FindByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload cart")
		}
		return nil
	})
	if err != nil {
		return CartDTO{}, err
	}

	return s.toDTO(ctx, cart)
}

// UpdateItem sets a line's quantity; zero removes the line.
func (s *service) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (CartDTO, error) {
	if err := validateQuantity(quantity, 0); err != nil {
		return CartDTO{}, err
	}
	if quantity == 0 {
		return s.RemoveItem(ctx, userID, itemID)
	}
	return s.mutateLine(ctx, userID, func(repo CartRepository, cartID uuid.UUID) (bool, error) {
		return repo.UpdateItemQuantity(ctx, cartID, itemID, quantity)
	})
}

func (s *service) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (CartDTO, error) {
	return s.mutateLine(ctx, userID, func(repo CartRepository, cartID uuid.UUID) (bool, error) {
		return repo.RemoveItem(ctx, cartID, itemID)
	})
}

func (s *service) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		cart, err := repo.FindByUserForUpdate(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
		}
		ok, err := repo.Clear(ctx, cart.ID, cart.Version)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: clear cart")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "Cart was modified concurrently")
		}
		return nil
	})
}

func (s *service) mutateLine(ctx context.Context, userID uuid.UUID, fn func(CartRepository, uuid.UUID) (bool, error)) (CartDTO, error) {
	var cart *models.Cart
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		c, err := repo.FindByUserForUpdate(ctx, userID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
		}
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart")
		}
		found, err := fn(repo, c.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update cart item")
		}
		if !found {
			return pkgerrors.New(pkgerrors.CodeNotFound, "Cart item not found")
		}
		cart, err = repo.FindByUser(ctx, userID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload cart")
		}
		return nil
	})
	if err != nil {
		return CartDTO{}, err
	}
	return s.toDTO(ctx, cart)
}

func (s *service) toDTO(ctx context.Context, cart *models.Cart) (CartDTO, error) {
	id := cart.ID
	updated := cart.UpdatedAt
	out := CartDTO{
		ID:        &id,
		Version:   cart.Version,
		Items:     make([]CartItemDTO, 0, len(cart.Items)),
		Subtotal:  decimal.Zero,
		UpdatedAt: &updated,
	}
	for _, item := range cart.Items {
		p, err := s.products.FindByIDAndType(ctx, item.ProductID, item.ProductType)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return CartDTO{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load cart product")
		}
		line := newCartItemDTO(item, p)
		if line.LineTotal != nil {
			out.Subtotal = out.Subtotal.Add(*line.LineTotal)
		}
		out.Items = append(out.Items, line)
	}
	return out, nil
}

func validateQuantity(quantity, lowest int) error {
	if quantity < lowest || quantity > MaxLineQuantity {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity must be between %d and %d", lowest, MaxLineQuantity))
	}
	return nil
}

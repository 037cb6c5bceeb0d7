package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	msgCartEmpty      = "Cart is empty"
	msgInvalidPrice   = "Invalid price"
	msgInvalidTotal   = "Order total must be greater than zero"
	msgInvalidVariant = "Invalid variant for product"
	msgUnavailable    = "Product is not available"
)

var hundred = decimal.NewFromInt(100)

// pricedCart is a cart snapshot priced against the live catalog.
type pricedCart struct {
	cart  *models.Cart
	items []models.OrderItem
	total decimal.Decimal
}

// priceCart prices every line through the catalog. The first bad line aborts
// the whole cart.
func priceCart(ctx context.Context, catalog ProductCatalog, c *models.Cart) (pricedCart, error) {
	if c.IsEmpty() {
		return pricedCart{}, pkgerrors.New(pkgerrors.CodeValidation, msgCartEmpty)
	}

	out := pricedCart{cart: c, items: make([]models.OrderItem, 0, len(c.Items)), total: decimal.Zero}
	for i, line := range c.Items {
		p, err := catalog.FindByIDAndType(ctx, line.ProductID, line.ProductType)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pricedCart{}, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("Product %s not found", line.ProductID))
		}
		if err != nil {
			return pricedCart{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
		}
		if !p.IsActive {
			return pricedCart{}, pkgerrors.New(pkgerrors.CodeValidation, msgUnavailable).
				WithDetails(map[string]any{"productId": p.ID.String()})
		}
		if !p.HasVariant(line.Variant) {
			return pricedCart{}, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidVariant).
				WithDetails(map[string]any{"productId": p.ID.String(), "variant": line.Variant})
		}
		if !p.Price.Valid || p.Price.Decimal.IsNegative() || !p.Price.Decimal.Equal(p.Price.Decimal.Truncate(2)) {
			return pricedCart{}, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidPrice).
				WithDetails(map[string]any{"productId": p.ID.String()})
		}
		if line.Quantity < 1 {
			return pricedCart{}, pkgerrors.New(pkgerrors.CodeValidation, "Invalid quantity")
		}

		price := p.Price.Decimal
		subtotal := price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		out.items = append(out.items, models.OrderItem{
			Position:    i,
			ProductID:   p.ID,
			ProductType: p.ProductType,
			VendorID:    p.VendorID,
			Name:        p.Name,
			Variant:     line.Variant,
			Quantity:    line.Quantity,
			Price:       price,
			Subtotal:    subtotal,
		})
		out.total = out.total.Add(subtotal)
	}

	if !out.total.IsPositive() {
		return pricedCart{}, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidTotal)
	}
	return out, nil
}

// toMinorUnits converts a two-decimal amount to the gateway's integer minor units.
func toMinorUnits(amount decimal.Decimal) (int64, error) {
	minor := amount.Mul(hundred)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %s has more than two decimal places", amount)
	}
	return minor.IntPart(), nil
}

const referenceAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newOrderReference returns ORD-<unix millis>-<6 uppercase alphanumerics>.
func newOrderReference(now time.Time) string {
	id := uuid.New()
	suffix := make([]byte, 6)
	for i := range suffix {
		suffix[i] = referenceAlphabet[int(id[i])%len(referenceAlphabet)]
	}
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}

package cart

import (
	"context"
	"testing"

	product "github.com/angelmondragon/vendora-backend/internal/products"
	"github.com/angelmondragon/vendora-backend/pkg/db"
	"github.com/angelmondragon/vendora-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	svc      Service
	repo     *Repository
	products *product.Repository
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	products := product.NewRepository(conn)
	svc, err := NewService(repo, db.Wrap(conn), products)
	require.NoError(t, err)
	return fixture{svc: svc, repo: repo, products: products}
}

func (f fixture) seedProduct(t *testing.T, price string, variants ...string) *models.Product {
	t.Helper()
	p := &models.Product{
		VendorID:    uuid.New(),
		ProductType: enums.ProductTypeFootwear,
		Name:        "Runner",
		Variants:    pq.StringArray(variants),
		IsActive:    true,
	}
	if price != "" {
		p.Price = decimal.NewNullDecimal(decimal.RequireFromString(price))
	}
	require.NoError(t, f.products.Create(context.Background(), p))
	return p
}

func TestAddItemMergesSameLine(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	shoe := f.seedProduct(t, "1200.50", "8", "9")

	c, err := f.svc.AddItem(ctx, userID, AddItemInput{ProductID: shoe.ID, ProductType: shoe.ProductType, Variant: "8", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	first := c.Version

	c, err = f.svc.AddItem(ctx, userID, AddItemInput{ProductID: shoe.ID, ProductType: shoe.ProductType, Variant: "8", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, c.Items, 1)
	require.Equal(t, 3, c.Items[0].Quantity)
	require.Greater(t, c.Version, first)

	c, err = f.svc.AddItem(ctx, userID, AddItemInput{ProductID: shoe.ID, ProductType: shoe.ProductType, Variant: "9", Quantity: 1})
	require.NoError(t, err)
	require.Len(t, c.Items, 2)
	require.True(t, c.Subtotal.Equal(decimal.RequireFromString("4802.00")), c.Subtotal.String())
}

func TestAddItemValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	shoe := f.seedProduct(t, "10", "8")
	plain := f.seedProduct(t, "10")

	_, err := f.svc.AddItem(ctx, userID, AddItemInput{ProductID: shoe.ID, ProductType: shoe.ProductType, Variant: "12", Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddItem(ctx, userID, AddItemInput{ProductID: plain.ID, ProductType: plain.ProductType, Variant: "8", Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddItem(ctx, userID, AddItemInput{ProductID: shoe.ID, ProductType: shoe.ProductType, Variant: "8", Quantity: 0})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.AddItem(ctx, userID, AddItemInput{ProductID: shoe.ID, ProductType: enums.ProductTypeBags, Variant: "8", Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.AddItem(ctx, userID, AddItemInput{ProductID: shoe.ID, ProductType: shoe.ProductType, Variant: "8", Quantity: MaxLineQuantity})
	require.NoError(t, err)
	_, err = f.svc.AddItem(ctx, userID, AddItemInput{ProductID: shoe.ID, ProductType: shoe.ProductType, Variant: "8", Quantity: 1})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	c, err := f.svc.GetCart(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, MaxLineQuantity, c.Items[0].Quantity)
}

func TestUpdateAndRemoveItem(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	bag := f.seedProduct(t, "")

	c, err := f.svc.AddItem(ctx, userID, AddItemInput{ProductID: bag.ID, ProductType: bag.ProductType, Quantity: 1})
	require.NoError(t, err)
	itemID := c.Items[0].ID
	require.Nil(t, c.Items[0].LineTotal)
	require.True(t, c.Subtotal.IsZero())

	c, err = f.svc.UpdateItem(ctx, userID, itemID, 5)
	require.NoError(t, err)
	require.Equal(t, 5, c.Items[0].Quantity)

	_, err = f.svc.UpdateItem(ctx, userID, uuid.New(), 2)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.UpdateItem(ctx, uuid.New(), itemID, 2)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	c, err = f.svc.UpdateItem(ctx, userID, itemID, 0)
	require.NoError(t, err)
	require.Empty(t, c.Items)
}

func TestGetCartWithoutCart(t *testing.T) {
	f := newFixture(t)
	c, err := f.svc.GetCart(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, c.ID)
	require.Empty(t, c.Items)
}

func TestClearRequiresObservedVersion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	userID := uuid.New()
	bag := f.seedProduct(t, "20")

	_, err := f.svc.AddItem(ctx, userID, AddItemInput{ProductID: bag.ID, ProductType: bag.ProductType, Quantity: 1})
	require.NoError(t, err)
	cart, err := f.repo.FindByUser(ctx, userID)
	require.NoError(t, err)

	ok, err := f.repo.Clear(ctx, cart.ID, cart.Version-1)
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = f.repo.Clear(ctx, cart.ID, cart.Version)
	require.NoError(t, err)
	require.True(t, ok)

	after, err := f.repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.Empty(t, after.Items)
	require.Equal(t, cart.Version+1, after.Version)

	require.NoError(t, f.svc.ClearCart(ctx, userID))
	require.NoError(t, f.svc.ClearCart(ctx, uuid.New()))
}

package wishlist

import (
	"context"
	"testing"

	product "github.com/angelmondragon/vendora-backend/internal/products"
	"github.com/angelmondragon/vendora-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vendora-backend/pkg/db/models"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/pagination"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestWishlistAddIsIdempotent(t *testing.T) {
	conn := dbtest.Open(t)
	products := product.NewRepository(conn)
	svc, err := NewService(NewRepository(conn), products)
	require.NoError(t, err)

	ctx := context.Background()
	item := &models.Product{VendorID: uuid.New(), ProductType: enums.ProductTypeBags, Name: "Tote", IsActive: true}
	require.NoError(t, products.Create(ctx, item))
	userID := uuid.New()

	require.NoError(t, svc.AddItem(ctx, userID, item.ID, enums.ProductTypeBags))
	require.NoError(t, svc.AddItem(ctx, userID, item.ID, enums.ProductTypeBags))

	page, err := svc.GetWishlist(ctx, userID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.NotNil(t, page.Items[0].Product)
	require.Equal(t, "Tote", page.Items[0].Product.Name)

	require.NoError(t, svc.RemoveItem(ctx, userID, item.ID, enums.ProductTypeBags))
	page, err = svc.GetWishlist(ctx, userID, pagination.Params{})
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestWishlistRejectsUnknownProduct(t *testing.T) {
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), product.NewRepository(conn))
	require.NoError(t, err)
	ctx := context.Background()

	err = svc.AddItem(ctx, uuid.New(), uuid.New(), enums.ProductTypeBags)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = svc.AddItem(ctx, uuid.New(), uuid.New(), "gadgets")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

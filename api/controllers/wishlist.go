package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendora-backend/api/responses"
	"github.com/angelmondragon/vendora-backend/api/validators"
	wishlistsvc "github.com/angelmondragon/vendora-backend/internal/wishlist"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/angelmondragon/vendora-backend/pkg/types"
)

type wishlistItemRequest struct {
	ProductID   string `json:"productId" validate:"required"`
	ProductType string `json:"productType" validate:"required"`
}

func WishlistList(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable"))
			return
		}
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := validators.ParsePagination(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.GetWishlist(r.Context(), userID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		items := page.Items
		if items == nil {
			items = []wishlistsvc.WishlistItemDTO{}
		}
		payload := types.Payload{"items": items}
		if page.NextCursor != "" {
			payload["nextCursor"] = page.NextCursor
		}
		responses.WriteSuccess(w, payload)
	}
}

// WishlistAdd is idempotent: adding a saved product again still succeeds.
func WishlistAdd(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistMutation(svc, logg, "Added to wishlist", func(s wishlistsvc.Service, r *http.Request, item wishlistTarget) error {
		return s.AddItem(r.Context(), item.userID, item.productID, item.productType)
	})
}

func WishlistRemove(svc wishlistsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return wishlistMutation(svc, logg, "Removed from wishlist", func(s wishlistsvc.Service, r *http.Request, item wishlistTarget) error {
		return s.RemoveItem(r.Context(), item.userID, item.productID, item.productType)
	})
}

type wishlistTarget struct {
	userID      uuid.UUID
	productID   uuid.UUID
	productType enums.ProductType
}

func wishlistMutation(svc wishlistsvc.Service, logg *logger.Logger, message string, apply func(wishlistsvc.Service, *http.Request, wishlistTarget) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wishlist service unavailable"))
			return
		}
		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body wishlistItemRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.ParseUUID(body.ProductID, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productType, err := enums.ParseProductType(body.ProductType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid productType"))
			return
		}

		if err := apply(svc, r, wishlistTarget{userID: userID, productID: productID, productType: productType}); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteMessage(w, http.StatusOK, message)
	}
}

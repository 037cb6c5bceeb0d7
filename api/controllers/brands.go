package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/vendora-backend/api/responses"
	"github.com/angelmondragon/vendora-backend/api/validators"
	brandsvc "github.com/angelmondragon/vendora-backend/internal/brands"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/angelmondragon/vendora-backend/pkg/types"
)

type brandRequest struct {
	Name string `json:"name" validate:"required,notblank,max=100"`
}

// VendorListBrands returns every category's brand list for the vendor.
func VendorListBrands(svc brandsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "brand service unavailable"))
			return
		}
		vendorID, err := vendorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lists, err := svc.ListBrands(r.Context(), vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if lists == nil {
			lists = []brandsvc.BrandListDTO{}
		}
		responses.WriteSuccess(w, types.Payload{"brands": lists})
	}
}

func VendorGetBrands(svc brandsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "brand service unavailable"))
			return
		}
		vendorID, err := vendorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := brandCategory(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.GetBrands(r.Context(), vendorID, category)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.Payload{"brands": list})
	}
}

func VendorAddBrand(svc brandsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return brandMutation(svc, logg, brandsvc.Service.AddBrand)
}

func VendorRemoveBrand(svc brandsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return brandMutation(svc, logg, brandsvc.Service.RemoveBrand)
}

type brandOp func(brandsvc.Service, context.Context, uuid.UUID, enums.ProductType, string) (brandsvc.BrandListDTO, error)

func brandMutation(svc brandsvc.Service, logg *logger.Logger, op brandOp) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "brand service unavailable"))
			return
		}
		vendorID, err := vendorIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := brandCategory(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body brandRequest
		if err := validators.DecodeJSONBody(w, r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := op(svc, r.Context(), vendorID, category, body.Name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, types.Payload{"brands": list})
	}
}

func brandCategory(r *http.Request) (enums.ProductType, error) {
	category, err := enums.ParseProductType(chi.URLParam(r, "category"))
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid brand category")
	}
	return category, nil
}

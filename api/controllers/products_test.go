package controllers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vendora-backend/api/middleware"
	brandsvc "github.com/angelmondragon/vendora-backend/internal/brands"
	productsvc "github.com/angelmondragon/vendora-backend/internal/products"
	"github.com/angelmondragon/vendora-backend/pkg/config"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/angelmondragon/vendora-backend/pkg/pagination"
)

type stubProductService struct {
	product    *productsvc.ProductDTO
	list       *productsvc.ProductListResult
	err        error
	lastCreate productsvc.CreateProductInput
	lastUpdate productsvc.UpdateProductInput
	lastVendor uuid.UUID
	lastList   productsvc.ListByTypeInput
	deleted    uuid.UUID
}

func (s *stubProductService) CreateProduct(ctx context.Context, vendorID uuid.UUID, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	s.lastVendor = vendorID
	s.lastCreate = input
	return s.product, s.err
}

func (s *stubProductService) UpdateProduct(ctx context.Context, vendorID, productID uuid.UUID, input productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	s.lastVendor = vendorID
	s.lastUpdate = input
	return s.product, s.err
}

func (s *stubProductService) DeleteProduct(ctx context.Context, vendorID, productID uuid.UUID) error {
	s.lastVendor = vendorID
	s.deleted = productID
	return s.err
}

func (s *stubProductService) ListVendorProducts(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (*productsvc.ProductListResult, error) {
	s.lastVendor = vendorID
	return s.list, s.err
}

func (s *stubProductService) ListByType(ctx context.Context, input productsvc.ListByTypeInput) (*productsvc.ProductListResult, error) {
	s.lastList = input
	return s.list, s.err
}

func (s *stubProductService) GetProduct(ctx context.Context, productType enums.ProductType, id uuid.UUID) (*productsvc.ProductDTO, error) {
	return s.product, s.err
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func withParams(req *http.Request, kv ...string) *http.Request {
	rc := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rc.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func asVendorReq(req *http.Request, id uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), id, enums.ActorRoleVendor, "jti"))
}

func TestVendorCreateProductDefaultsActive(t *testing.T) {
	vendorID := uuid.New()
	svc := &stubProductService{product: &productsvc.ProductDTO{ID: uuid.New()}}
	productType := enums.ProductTypes()[0]

	body := `{"productType":"` + string(productType) + `","name":"Tee","price":"499.50","variants":["S","M"],"stock":3}`
	req := asVendorReq(httptest.NewRequest(http.MethodPost, "/vendor/products", strings.NewReader(body)), vendorID)
	resp := httptest.NewRecorder()
	VendorCreateProduct(svc, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, vendorID, svc.lastVendor)
	require.Equal(t, productType, svc.lastCreate.ProductType)
	require.True(t, svc.lastCreate.IsActive)
	require.NotNil(t, svc.lastCreate.Price)
	require.True(t, svc.lastCreate.Price.Equal(decimal.RequireFromString("499.50")))
	require.Equal(t, []string{"S", "M"}, svc.lastCreate.Variants)
}

func TestVendorCreateProductRequiresVendor(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/vendor/products", strings.NewReader(`{}`))
	req = req.WithContext(middleware.WithActor(req.Context(), uuid.New(), enums.ActorRoleUser, "jti"))
	resp := httptest.NewRecorder()
	VendorCreateProduct(&stubProductService{}, testLogger()).ServeHTTP(resp, req)
	require.Equal(t, http.StatusForbidden, resp.Code)
}

func TestVendorUpdateProductPartial(t *testing.T) {
	svc := &stubProductService{product: &productsvc.ProductDTO{}}
	productID := uuid.New()
	req := asVendorReq(httptest.NewRequest(http.MethodPatch, "/vendor/products/"+productID.String(), strings.NewReader(`{"stock":0,"clearPrice":true}`)), uuid.New())
	req = withParams(req, "productId", productID.String())
	resp := httptest.NewRecorder()
	VendorUpdateProduct(svc, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.NotNil(t, svc.lastUpdate.Stock)
	require.Equal(t, 0, *svc.lastUpdate.Stock)
	require.True(t, svc.lastUpdate.ClearPrice)
	require.Nil(t, svc.lastUpdate.Name)
}

func TestVendorDeleteProductNotOwned(t *testing.T) {
	svc := &stubProductService{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	productID := uuid.New()
	req := asVendorReq(httptest.NewRequest(http.MethodDelete, "/vendor/products/"+productID.String(), nil), uuid.New())
	req = withParams(req, "productId", productID.String())
	resp := httptest.NewRecorder()
	VendorDeleteProduct(svc, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusNotFound, resp.Code)
	require.Equal(t, productID, svc.deleted)
}

func TestListProductsByTypeRejectsUnknownType(t *testing.T) {
	req := withParams(httptest.NewRequest(http.MethodGet, "/products/spaceships", nil), "type", "spaceships")
	resp := httptest.NewRecorder()
	ListProductsByType(&stubProductService{}, testLogger()).ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestListProductsByTypePassesPagination(t *testing.T) {
	productType := enums.ProductTypes()[1]
	svc := &stubProductService{list: &productsvc.ProductListResult{}}
	req := withParams(httptest.NewRequest(http.MethodGet, "/products/"+string(productType)+"?limit=7", nil), "type", string(productType))
	resp := httptest.NewRecorder()
	ListProductsByType(svc, testLogger()).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, productType, svc.lastList.ProductType)
	require.Equal(t, 7, svc.lastList.Pagination.Limit)
	require.Contains(t, resp.Body.String(), `"products":[]`)
}

type stubBrandService struct {
	added   string
	removed string
	err     error
}

func (s *stubBrandService) AddBrand(ctx context.Context, vendorID uuid.UUID, category enums.ProductType, name string) (brandsvc.BrandListDTO, error) {
	s.added = name
	return brandsvc.BrandListDTO{Category: string(category), Names: []string{name}}, s.err
}

func (s *stubBrandService) RemoveBrand(ctx context.Context, vendorID uuid.UUID, category enums.ProductType, name string) (brandsvc.BrandListDTO, error) {
	s.removed = name
	return brandsvc.BrandListDTO{Category: string(category), Names: []string{}}, s.err
}

func (s *stubBrandService) GetBrands(ctx context.Context, vendorID uuid.UUID, category enums.ProductType) (brandsvc.BrandListDTO, error) {
	return brandsvc.BrandListDTO{Category: string(category)}, s.err
}

func (s *stubBrandService) ListBrands(ctx context.Context, vendorID uuid.UUID) ([]brandsvc.BrandListDTO, error) {
	return nil, s.err
}

func TestVendorBrandMutations(t *testing.T) {
	svc := &stubBrandService{}
	category := string(enums.ProductTypes()[0])

	add := asVendorReq(httptest.NewRequest(http.MethodPost, "/vendor/brands/"+category, strings.NewReader(`{"name":"Acme"}`)), uuid.New())
	add = withParams(add, "category", category)
	resp := httptest.NewRecorder()
	VendorAddBrand(svc, testLogger()).ServeHTTP(resp, add)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "Acme", svc.added)

	remove := asVendorReq(httptest.NewRequest(http.MethodDelete, "/vendor/brands/"+category, strings.NewReader(`{"name":"Acme"}`)), uuid.New())
	remove = withParams(remove, "category", category)
	resp = httptest.NewRecorder()
	VendorRemoveBrand(svc, testLogger()).ServeHTTP(resp, remove)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "Acme", svc.removed)
}

func TestVendorListBrandsEmpty(t *testing.T) {
	req := asVendorReq(httptest.NewRequest(http.MethodGet, "/vendor/brands", nil), uuid.New())
	resp := httptest.NewRecorder()
	VendorListBrands(&stubBrandService{}, testLogger()).ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	require.Contains(t, resp.Body.String(), `"brands":[]`)
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	resp := httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"db": stubPinger{}, "redis": stubPinger{}}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "test", resp.Header().Get("X-Vendora-Env"))

	resp = httptest.NewRecorder()
	HealthReady(cfg, testLogger(), map[string]Pinger{"redis": stubPinger{err: context.DeadlineExceeded}}).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

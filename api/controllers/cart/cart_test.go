package cart

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/angelmondragon/vendora-backend/api/middleware"
	cartsvc "github.com/angelmondragon/vendora-backend/internal/cart"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
)

type stubCartService struct {
	cart     cartsvc.CartDTO
	err      error
	lastAdd  cartsvc.AddItemInput
	lastItem uuid.UUID
	lastQty  int
	cleared  bool
}

func (s *stubCartService) GetCart(ctx context.Context, userID uuid.UUID) (cartsvc.CartDTO, error) {
	return s.cart, s.err
}

func (s *stubCartService) AddItem(ctx context.Context, userID uuid.UUID, input cartsvc.AddItemInput) (cartsvc.CartDTO, error) {
	s.lastAdd = input
	return s.cart, s.err
}

func (s *stubCartService) UpdateItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (cartsvc.CartDTO, error) {
	s.lastItem = itemID
	s.lastQty = quantity
	return s.cart, s.err
}

func (s *stubCartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (cartsvc.CartDTO, error) {
	s.lastItem = itemID
	return s.cart, s.err
}

func (s *stubCartService) ClearCart(ctx context.Context, userID uuid.UUID) error {
	s.cleared = true
	return s.err
}

func asUser(req *http.Request) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), uuid.New(), enums.ActorRoleUser, "jti"))
}

func withItemID(req *http.Request, id string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("itemId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func TestFetchReturnsCart(t *testing.T) {
	id := uuid.New()
	svc := &stubCartService{cart: cartsvc.CartDTO{ID: &id, Version: 3, Items: []cartsvc.CartItemDTO{}}}

	resp := httptest.NewRecorder()
	Fetch(svc, nil).ServeHTTP(resp, asUser(httptest.NewRequest(http.MethodGet, "/cart", nil)))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var body struct {
		Success bool            `json:"success"`
		Cart    cartsvc.CartDTO `json:"cart"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !body.Success || body.Cart.Version != 3 {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestFetchRejectsVendor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/cart", nil)
	req = req.WithContext(middleware.WithActor(req.Context(), uuid.New(), enums.ActorRoleVendor, "jti"))

	resp := httptest.NewRecorder()
	Fetch(&stubCartService{}, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestAddItemParsesPayload(t *testing.T) {
	svc := &stubCartService{}
	productID := uuid.New()
	body := `{"productId":"` + productID.String() + `","productType":"` + string(enums.ProductTypes()[0]) + `","variant":"M","quantity":2}`

	resp := httptest.NewRecorder()
	AddItem(svc, nil).ServeHTTP(resp, asUser(httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body))))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if svc.lastAdd.ProductID != productID || svc.lastAdd.Quantity != 2 || svc.lastAdd.Variant != "M" {
		t.Fatalf("unexpected input %+v", svc.lastAdd)
	}
}

func TestAddItemRejectsUnknownType(t *testing.T) {
	body := `{"productId":"` + uuid.NewString() + `","productType":"spaceships","quantity":1}`
	resp := httptest.NewRecorder()
	AddItem(&stubCartService{}, nil).ServeHTTP(resp, asUser(httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(body))))
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestUpdateItemPassesQuantity(t *testing.T) {
	svc := &stubCartService{}
	itemID := uuid.New()
	req := asUser(httptest.NewRequest(http.MethodPut, "/cart/items/"+itemID.String(), strings.NewReader(`{"quantity":0}`)))
	req = withItemID(req, itemID.String())

	resp := httptest.NewRecorder()
	UpdateItem(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if svc.lastItem != itemID || svc.lastQty != 0 {
		t.Fatalf("unexpected update item=%s qty=%d", svc.lastItem, svc.lastQty)
	}
}

func TestRemoveItemNotFound(t *testing.T) {
	svc := &stubCartService{err: pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")}
	itemID := uuid.New()
	req := withItemID(asUser(httptest.NewRequest(http.MethodDelete, "/cart/items/"+itemID.String(), nil)), itemID.String())

	resp := httptest.NewRecorder()
	RemoveItem(svc, nil).ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func TestClearCart(t *testing.T) {
	svc := &stubCartService{}
	resp := httptest.NewRecorder()
	Clear(svc, nil).ServeHTTP(resp, asUser(httptest.NewRequest(http.MethodDelete, "/cart", nil)))
	if resp.Code != http.StatusOK || !svc.cleared {
		t.Fatalf("expected cart cleared, got %d", resp.Code)
	}
}

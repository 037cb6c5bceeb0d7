package orders

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vendora-backend/api/middleware"
	internalorders "github.com/angelmondragon/vendora-backend/internal/orders"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendora-backend/pkg/errors"
	"github.com/angelmondragon/vendora-backend/pkg/pagination"
)

type stubOrderService struct {
	createResult internalorders.CreateOrderResult
	order        *internalorders.OrderDTO
	list         internalorders.OrderListDTO
	err          error

	lastCreate  internalorders.CreateOrderInput
	lastConfirm internalorders.ConfirmPaymentInput
	lastUpdate  internalorders.UpdateStatusInput
	lastParams  pagination.Params
	lastActor   internalorders.Actor
}

func (s *stubOrderService) CreateOrder(ctx context.Context, input internalorders.CreateOrderInput) (internalorders.CreateOrderResult, error) {
	s.lastCreate = input
	return s.createResult, s.err
}

func (s *stubOrderService) CreatePaymentIntent(ctx context.Context, input internalorders.CreateOrderInput) (internalorders.PaymentIntentDTO, error) {
	panic("not used by handlers")
}

func (s *stubOrderService) ConfirmPayment(ctx context.Context, input internalorders.ConfirmPaymentInput) (*internalorders.OrderDTO, error) {
	s.lastConfirm = input
	return s.order, s.err
}

func (s *stubOrderService) UpdateStatus(ctx context.Context, input internalorders.UpdateStatusInput) (*internalorders.OrderDTO, error) {
	s.lastUpdate = input
	return s.order, s.err
}

func (s *stubOrderService) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (internalorders.OrderListDTO, error) {
	s.lastParams = params
	return s.list, s.err
}

func (s *stubOrderService) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (internalorders.OrderListDTO, error) {
	s.lastParams = params
	return s.list, s.err
}

func (s *stubOrderService) GetOrder(ctx context.Context, actor internalorders.Actor, orderID uuid.UUID) (*internalorders.OrderDTO, error) {
	s.lastActor = actor
	return s.order, s.err
}

func asUser(req *http.Request, id uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), id, enums.ActorRoleUser, "jti"))
}

func asVendor(req *http.Request, id uuid.UUID) *http.Request {
	return req.WithContext(middleware.WithActor(req.Context(), id, enums.ActorRoleVendor, "jti"))
}

func withOrderID(req *http.Request, id string) *http.Request {
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderId", id)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func decodeBody(t *testing.T, resp *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return body
}

func TestCreateCODReturns201(t *testing.T) {
	userID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrderService{createResult: internalorders.CreateOrderResult{Order: &internalorders.OrderDTO{ID: orderID}}}

	body := `{"shippingAddress":{"fullName":"A","locality":"L","city":"C","district":"D","state":"S","postalCode":"1","country":"IN","phone":"9999999999"},"paymentMethod":"cod"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/order/create", strings.NewReader(body)), userID)
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusCreated, resp.Code)
	require.Equal(t, userID, svc.lastCreate.UserID)
	require.Equal(t, enums.PaymentMethodCOD, svc.lastCreate.PaymentMethod)
	require.Equal(t, "C", svc.lastCreate.ShippingAddress.City)

	payload := decodeBody(t, resp)
	require.Equal(t, true, payload["success"])
	order, ok := payload["order"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, orderID.String(), order["id"])
}

func TestCreateGatewayReturnsIntent(t *testing.T) {
	svc := &stubOrderService{createResult: internalorders.CreateOrderResult{Payment: &internalorders.PaymentIntentDTO{
		GatewayOrderID: "order_1",
		Amount:         150050,
		Currency:       "INR",
		Key:            "rzp_test_key",
	}}}

	req := asUser(httptest.NewRequest(http.MethodPost, "/order/create", strings.NewReader(`{"paymentMethod":"gateway"}`)), uuid.New())
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	payload := decodeBody(t, resp)
	require.Equal(t, "order_1", payload["gatewayOrderId"])
	require.EqualValues(t, 150050, payload["amount"])
	require.Equal(t, "rzp_test_key", payload["key"])
}

func TestCreateParsesPaymentMethodAliases(t *testing.T) {
	cases := map[string]enums.PaymentMethod{
		"razorpay": enums.PaymentMethodGateway,
		" Online ": enums.PaymentMethodGateway,
		"COD":      enums.PaymentMethodCOD,
	}
	for raw, want := range cases {
		svc := &stubOrderService{createResult: internalorders.CreateOrderResult{Payment: &internalorders.PaymentIntentDTO{GatewayOrderID: "order_1"}}}
		body := `{"paymentMethod":"` + raw + `"}`
		req := asUser(httptest.NewRequest(http.MethodPost, "/order/create", strings.NewReader(body)), uuid.New())
		resp := httptest.NewRecorder()
		Create(svc, nil).ServeHTTP(resp, req)

		require.Equal(t, http.StatusOK, resp.Code, raw)
		require.Equal(t, want, svc.lastCreate.PaymentMethod, raw)
	}
}

func TestCreateRejectsUnknownPaymentMethod(t *testing.T) {
	svc := &stubOrderService{}
	req := asUser(httptest.NewRequest(http.MethodPost, "/order/create", strings.NewReader(`{"paymentMethod":"cheque"}`)), uuid.New())
	resp := httptest.NewRecorder()
	Create(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeBody(t, resp)
	require.Equal(t, string(pkgerrors.CodeValidation), payload["code"])
	require.Equal(t, uuid.Nil, svc.lastCreate.UserID)
}

func TestCreateRequiresUserContext(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/order/create", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	Create(&stubOrderService{}, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestCreateRejectsVendorContext(t *testing.T) {
	req := asVendor(httptest.NewRequest(http.MethodPost, "/order/create", strings.NewReader(`{}`)), uuid.New())
	resp := httptest.NewRecorder()
	Create(&stubOrderService{}, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusInternalServerError, resp.Code)
}

func TestConfirmPaymentMapsFields(t *testing.T) {
	svc := &stubOrderService{order: &internalorders.OrderDTO{ID: uuid.New()}}
	body := `{"gatewayPaymentId":"pay_1","gatewayOrderId":"order_1","gatewaySignature":"sig"}`
	req := asUser(httptest.NewRequest(http.MethodPost, "/order/confirm-payment", strings.NewReader(body)), uuid.New())
	resp := httptest.NewRecorder()
	ConfirmPayment(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, "pay_1", svc.lastConfirm.GatewayPaymentID)
	require.Equal(t, "order_1", svc.lastConfirm.GatewayOrderID)
	require.Equal(t, "sig", svc.lastConfirm.Signature)
}

func TestConfirmPaymentSurfacesVerificationFailure(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodePaymentVerification, "Invalid payment signature")}
	req := asUser(httptest.NewRequest(http.MethodPost, "/order/confirm-payment", strings.NewReader(`{}`)), uuid.New())
	resp := httptest.NewRecorder()
	ConfirmPayment(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusBadRequest, resp.Code)
	payload := decodeBody(t, resp)
	require.Equal(t, false, payload["success"])
	require.Equal(t, string(pkgerrors.CodePaymentVerification), payload["code"])
}

func TestListUserPassesPagination(t *testing.T) {
	svc := &stubOrderService{list: internalorders.OrderListDTO{NextCursor: "next"}}
	req := asUser(httptest.NewRequest(http.MethodGet, "/order?limit=5&cursor=abc", nil), uuid.New())
	resp := httptest.NewRecorder()
	ListUser(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, 5, svc.lastParams.Limit)
	require.Equal(t, "abc", svc.lastParams.Cursor)

	payload := decodeBody(t, resp)
	require.Equal(t, "next", payload["nextCursor"])
	orders, ok := payload["orders"].([]any)
	require.True(t, ok)
	require.Empty(t, orders)
}

func TestListVendorRejectsBadLimit(t *testing.T) {
	req := asVendor(httptest.NewRequest(http.MethodGet, "/order/vendor-orders?limit=1000", nil), uuid.New())
	resp := httptest.NewRecorder()
	ListVendor(&stubOrderService{}, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestDetailPassesActor(t *testing.T) {
	vendorID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrderService{order: &internalorders.OrderDTO{ID: orderID}}

	req := asVendor(httptest.NewRequest(http.MethodGet, "/order/"+orderID.String(), nil), vendorID)
	req = withOrderID(req, orderID.String())
	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, internalorders.Actor{ID: vendorID, Role: enums.ActorRoleVendor}, svc.lastActor)
}

func TestDetailRejectsMalformedID(t *testing.T) {
	req := asUser(httptest.NewRequest(http.MethodGet, "/order/nope", nil), uuid.New())
	req = withOrderID(req, "nope")
	resp := httptest.NewRecorder()
	Detail(&stubOrderService{}, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestUpdateStatusUsesRouteRole(t *testing.T) {
	vendorID := uuid.New()
	orderID := uuid.New()
	svc := &stubOrderService{order: &internalorders.OrderDTO{ID: orderID}}

	req := asVendor(httptest.NewRequest(http.MethodPut, "/order/vendor/status/"+orderID.String(), strings.NewReader(`{"status":"shipped","reason":"handed to courier"}`)), vendorID)
	req = withOrderID(req, orderID.String())
	resp := httptest.NewRecorder()
	UpdateStatus(svc, enums.ActorRoleVendor, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	require.Equal(t, enums.ActorRoleVendor, svc.lastUpdate.Actor.Role)
	require.Equal(t, vendorID, svc.lastUpdate.Actor.ID)
	require.Equal(t, enums.OrderStatus("shipped"), svc.lastUpdate.Status)
	require.Equal(t, "handed to courier", svc.lastUpdate.Reason)
}

func TestUpdateStatusConflictMapsTo409(t *testing.T) {
	svc := &stubOrderService{err: pkgerrors.New(pkgerrors.CodeConflict, "Order was updated concurrently, please retry")}
	orderID := uuid.New()
	req := asUser(httptest.NewRequest(http.MethodPut, "/order/status/"+orderID.String(), strings.NewReader(`{"status":"cancelled"}`)), uuid.New())
	req = withOrderID(req, orderID.String())
	resp := httptest.NewRecorder()
	UpdateStatus(svc, enums.ActorRoleUser, nil).ServeHTTP(resp, req)
	require.Equal(t, http.StatusConflict, resp.Code)
}

func TestDetailIncludesStatusHistory(t *testing.T) {
	userID := uuid.New()
	vendorID := uuid.New()
	orderID := uuid.New()
	at := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	svc := &stubOrderService{order: &internalorders.OrderDTO{
		ID:          orderID,
		OrderStatus: "shipped",
		StatusHistory: []internalorders.StatusHistoryDTO{
			{FromStatus: "pending", ToStatus: "processing", ActorID: vendorID, ActorRole: "vendor", Reason: "Packed", Timestamp: at},
			{FromStatus: "processing", ToStatus: "shipped", ActorID: vendorID, ActorRole: "vendor", Reason: "Handed to courier", Timestamp: at.Add(time.Hour)},
		},
	}}

	req := withOrderID(asUser(httptest.NewRequest(http.MethodGet, "/order/"+orderID.String(), nil), userID), orderID.String())
	resp := httptest.NewRecorder()
	Detail(svc, nil).ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	payload := decodeBody(t, resp)
	order, ok := payload["order"].(map[string]any)
	require.True(t, ok)
	history, ok := order["statusHistory"].([]any)
	require.True(t, ok)
	require.Len(t, history, 2)

	first, ok := history[0].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "pending", first["fromStatus"])
	require.Equal(t, "processing", first["toStatus"])
	require.Equal(t, vendorID.String(), first["actorId"])
	require.Equal(t, "vendor", first["actorRole"])
	require.Equal(t, "Packed", first["reason"])
	require.Equal(t, "2026-05-01T09:30:00Z", first["timestamp"])
}

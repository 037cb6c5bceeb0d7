package routes

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/vendora-backend/internal/orders"
	pkgAuth "github.com/angelmondragon/vendora-backend/pkg/auth"
	"github.com/angelmondragon/vendora-backend/pkg/config"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/angelmondragon/vendora-backend/pkg/metrics"
	"github.com/angelmondragon/vendora-backend/pkg/pagination"
)

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type stubSessions struct{}

func (stubSessions) HasSession(ctx context.Context, jti string) (bool, error) {
	return jti != "revoked", nil
}

type memoryRedis struct {
	mu   sync.Mutex
	data map[string]string
	hits map[string]int64
}

func newMemoryRedis() *memoryRedis {
	return &memoryRedis{data: map[string]string{}, hits: map[string]int64{}}
}

func (m *memoryRedis) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (m *memoryRedis) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *memoryRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return false, nil
	}
	m.data[key] = fmt.Sprint(value)
	return true, nil
}

func (m *memoryRedis) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *memoryRedis) IdempotencyKey(scope, id string) string {
	return "idem:" + scope + ":" + id
}

func (m *memoryRedis) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hits[scope]++
	return m.hits[scope] <= limit, m.hits[scope], nil
}

func (m *memoryRedis) Ping(context.Context) error { return nil }

type stubOrders struct {
	mu      sync.Mutex
	creates int
}

func (s *stubOrders) CreateOrder(ctx context.Context, input orders.CreateOrderInput) (orders.CreateOrderResult, error) {
	s.mu.Lock()
	s.creates++
	s.mu.Unlock()
	return orders.CreateOrderResult{Order: &orders.OrderDTO{ID: uuid.New(), UserID: input.UserID}}, nil
}

func (s *stubOrders) CreatePaymentIntent(ctx context.Context, input orders.CreateOrderInput) (orders.PaymentIntentDTO, error) {
	return orders.PaymentIntentDTO{}, nil
}

func (s *stubOrders) ConfirmPayment(ctx context.Context, input orders.ConfirmPaymentInput) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{}, nil
}

func (s *stubOrders) UpdateStatus(ctx context.Context, input orders.UpdateStatusInput) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: input.OrderID}, nil
}

func (s *stubOrders) ListUserOrders(ctx context.Context, userID uuid.UUID, params pagination.Params) (orders.OrderListDTO, error) {
	return orders.OrderListDTO{}, nil
}

func (s *stubOrders) ListVendorOrders(ctx context.Context, vendorID uuid.UUID, params pagination.Params) (orders.OrderListDTO, error) {
	return orders.OrderListDTO{}, nil
}

func (s *stubOrders) GetOrder(ctx context.Context, actor orders.Actor, orderID uuid.UUID) (*orders.OrderDTO, error) {
	return &orders.OrderDTO{ID: orderID}, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
			UserCookieName:    "vendora_user",
			VendorCookieName:  "vendora_vendor",
		},
		AuthRateLimit: config.AuthRateLimitConfig{LoginWindow: time.Minute, LoginEmailLimit: 2},
		Idempotency:   config.IdempotencyConfig{ResponseTTL: time.Hour},
	}
}

type harness struct {
	handler http.Handler
	orders  *stubOrders
	cfg     *config.Config
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	cfg := testConfig()
	reg := prometheus.NewRegistry()
	svc := &stubOrders{}
	handler := NewRouter(Dependencies{
		Config:   cfg,
		Logger:   logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard}),
		DB:       stubPinger{},
		Redis:    newMemoryRedis(),
		Sessions: stubSessions{},
		Metrics:  metrics.NewHTTPMetrics(reg),
		Gatherer: reg,
		Orders:   svc,
	})
	return &harness{handler: handler, orders: svc, cfg: cfg}
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	resp := httptest.NewRecorder()
	h.handler.ServeHTTP(resp, req)
	return resp
}

func userToken(t *testing.T, cfg *config.Config, jti string) string {
	t.Helper()
	tok, err := pkgAuth.MintUserToken(cfg.JWT, time.Now(), pkgAuth.UserTokenPayload{UserID: uuid.New(), JTI: jti})
	if err != nil {
		t.Fatalf("mint user token: %v", err)
	}
	return tok
}

func vendorToken(t *testing.T, cfg *config.Config) string {
	t.Helper()
	tok, err := pkgAuth.MintVendorToken(cfg.JWT, time.Now(), pkgAuth.VendorTokenPayload{VendorID: uuid.New(), ShopName: "Acme", JTI: "vendor-jti"})
	if err != nil {
		t.Fatalf("mint vendor token: %v", err)
	}
	return tok
}

func TestHealthRoutes(t *testing.T) {
	h := newHarness(t)

	if resp := h.do(httptest.NewRequest(http.MethodGet, "/health/live", nil)); resp.Code != http.StatusOK {
		t.Fatalf("live: expected 200 got %d", resp.Code)
	}
	if resp := h.do(httptest.NewRequest(http.MethodGet, "/health/ready", nil)); resp.Code != http.StatusOK {
		t.Fatalf("ready: expected 200 got %d", resp.Code)
	}
}

func TestMetricsEndpointExposesHTTPSeries(t *testing.T) {
	h := newHarness(t)
	h.do(httptest.NewRequest(http.MethodGet, "/health/live", nil))

	resp := h.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "/health/live") {
		t.Fatalf("expected route label in metrics output")
	}
}

func TestOrderRoutesRequireUser(t *testing.T) {
	h := newHarness(t)

	if resp := h.do(httptest.NewRequest(http.MethodGet, "/order", nil)); resp.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: expected 401 got %d", resp.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/order", nil)
	req.Header.Set("Authorization", "Bearer "+vendorToken(t, h.cfg))
	if resp := h.do(req); resp.Code != http.StatusUnauthorized {
		t.Fatalf("vendor token on user route: expected 401 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/order", nil)
	req.AddCookie(&http.Cookie{Name: h.cfg.JWT.UserCookieName, Value: userToken(t, h.cfg, "user-jti")})
	if resp := h.do(req); resp.Code != http.StatusOK {
		t.Fatalf("user cookie: expected 200 got %d", resp.Code)
	}
}

func TestRevokedSessionIsRejected(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodGet, "/order", nil)
	req.Header.Set("Authorization", "Bearer "+userToken(t, h.cfg, "revoked"))
	if resp := h.do(req); resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestVendorOrderRoutes(t *testing.T) {
	h := newHarness(t)
	token := vendorToken(t, h.cfg)

	req := httptest.NewRequest(http.MethodGet, "/order/vendor-orders", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if resp := h.do(req); resp.Code != http.StatusOK {
		t.Fatalf("vendor orders: expected 200 got %d", resp.Code)
	}

	orderID := uuid.New()
	req = httptest.NewRequest(http.MethodPut, "/order/vendor/status/"+orderID.String(), strings.NewReader(`{"status":"shipped"}`))
	req.Header.Set("Authorization", "Bearer "+token)
	if resp := h.do(req); resp.Code != http.StatusOK {
		t.Fatalf("vendor status: expected 200 got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/order/"+orderID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	if resp := h.do(req); resp.Code != http.StatusOK {
		t.Fatalf("vendor detail: expected 200 got %d", resp.Code)
	}
}

func TestOrderCreateReplaysIdempotentRequest(t *testing.T) {
	h := newHarness(t)
	token := userToken(t, h.cfg, "user-jti")
	body := `{"shippingAddress":{},"paymentMethod":"cod"}`

	var first string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/order/create", strings.NewReader(body))
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Idempotency-Key", "order-1")
		resp := h.do(req)
		if resp.Code != http.StatusCreated {
			t.Fatalf("attempt %d: expected 201 got %d", i, resp.Code)
		}
		if i == 0 {
			first = resp.Body.String()
		} else if resp.Body.String() != first {
			t.Fatalf("expected replayed body")
		}
	}
	if h.orders.creates != 1 {
		t.Fatalf("expected one create call, got %d", h.orders.creates)
	}
}

func TestLoginRateLimitedPerEmail(t *testing.T) {
	h := newHarness(t)
	var last int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/user/login", strings.NewReader(`{"email":"a@example.com","password":"secret123"}`))
		req.RemoteAddr = "10.0.0.1:1234"
		last = h.do(req).Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on third attempt, got %d", last)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	h := newHarness(t)
	if resp := h.do(httptest.NewRequest(http.MethodGet, "/nope", nil)); resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/vendora-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/vendora-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/vendora-backend/api/controllers/orders"
	"github.com/angelmondragon/vendora-backend/api/middleware"
	"github.com/angelmondragon/vendora-backend/internal/auth"
	"github.com/angelmondragon/vendora-backend/internal/brands"
	"github.com/angelmondragon/vendora-backend/internal/cart"
	"github.com/angelmondragon/vendora-backend/internal/notifications"
	"github.com/angelmondragon/vendora-backend/internal/orders"
	product "github.com/angelmondragon/vendora-backend/internal/products"
	"github.com/angelmondragon/vendora-backend/internal/wishlist"
	"github.com/angelmondragon/vendora-backend/pkg/auth/session"
	"github.com/angelmondragon/vendora-backend/pkg/config"
	"github.com/angelmondragon/vendora-backend/pkg/enums"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/angelmondragon/vendora-backend/pkg/metrics"
	pkgredis "github.com/angelmondragon/vendora-backend/pkg/redis"
)

type counterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// RedisStore is the slice of the redis client the HTTP layer needs.
type RedisStore interface {
	pkgredis.IdempotencyStore
	controllers.Pinger
	counterStore
}

// Dependencies collects everything the router mounts. Nil services answer 500
// from their handlers, which keeps partial wiring usable in tests.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       controllers.Pinger
	Redis    RedisStore
	Sessions session.AccessSessionChecker
	Limiter  *middleware.RateLimiter
	Metrics  *metrics.HTTPMetrics
	Gatherer prometheus.Gatherer

	Auth     auth.Service
	Register auth.RegisterService
	Orders   orders.Service
	Cart     cart.Service
	Products product.Service
	Brands   brands.Service
	Wishlist wishlist.Service

	Notifications notifications.Service
}

func NewRouter(d Dependencies) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, d.Metrics),
		middleware.CORS(cfg.App.CORSOrigins),
		gziphandler.GzipHandler,
	)
	if d.Limiter != nil {
		r.Use(d.Limiter.Middleware())
	}

	// Interfaces stay nil rather than typed-nil when redis is not wired.
	var rateStore counterStore
	var idemStore pkgredis.IdempotencyStore
	var redisPinger controllers.Pinger
	if d.Redis != nil {
		rateStore = d.Redis
		idemStore = d.Redis
		redisPinger = d.Redis
	}

	loginLimit := middleware.AuthRateLimit(middleware.LoginRateLimitPolicy(cfg.AuthRateLimit), rateStore, logg)
	registerLimit := middleware.AuthRateLimit(middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit), rateStore, logg)

	requireUser := middleware.RequireUser(cfg.JWT, d.Sessions, logg)
	requireVendor := middleware.RequireVendor(cfg.JWT, d.Sessions, logg)
	requireActor := middleware.RequireActor(cfg.JWT, d.Sessions, logg)
	idempotent := middleware.Idempotency(idemStore, cfg.Idempotency.ResponseTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": d.DB,
			"redis":    redisPinger,
		}))
	})

	gatherer := d.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/auth/user", func(r chi.Router) {
		r.With(registerLimit).Post("/register", controllers.UserRegister(d.Register, logg))
		r.With(loginLimit).Post("/login", controllers.UserLogin(d.Auth, cfg.JWT, logg))
		r.With(requireUser).Post("/logout", controllers.Logout(d.Auth, cfg.JWT, cfg.JWT.UserCookieName, logg))
	})

	r.Route("/auth/vendor", func(r chi.Router) {
		r.With(registerLimit).Post("/register", controllers.VendorRegister(d.Register, logg))
		r.With(loginLimit).Post("/login", controllers.VendorLogin(d.Auth, cfg.JWT, logg))
		r.With(requireVendor).Post("/logout", controllers.Logout(d.Auth, cfg.JWT, cfg.JWT.VendorCookieName, logg))
	})

	r.Route("/order", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(requireUser)
			r.With(idempotent).Post("/create", ordercontrollers.Create(d.Orders, logg))
			r.With(idempotent).Post("/confirm-payment", ordercontrollers.ConfirmPayment(d.Orders, logg))
			r.Get("/", ordercontrollers.ListUser(d.Orders, logg))
			r.Put("/status/{orderId}", ordercontrollers.UpdateStatus(d.Orders, enums.ActorRoleUser, logg))
		})
		r.Group(func(r chi.Router) {
			r.Use(requireVendor)
			r.Get("/vendor-orders", ordercontrollers.ListVendor(d.Orders, logg))
			r.Put("/vendor/status/{orderId}", ordercontrollers.UpdateStatus(d.Orders, enums.ActorRoleVendor, logg))
		})
		r.With(requireActor).Get("/{orderId}", ordercontrollers.Detail(d.Orders, logg))
	})

	r.Route("/cart", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/", cartcontrollers.Fetch(d.Cart, logg))
		r.Delete("/", cartcontrollers.Clear(d.Cart, logg))
		r.Post("/items", cartcontrollers.AddItem(d.Cart, logg))
		r.Put("/items/{itemId}", cartcontrollers.UpdateItem(d.Cart, logg))
		r.Delete("/items/{itemId}", cartcontrollers.RemoveItem(d.Cart, logg))
	})

	r.Route("/wishlist", func(r chi.Router) {
		r.Use(requireUser)
		r.Get("/", controllers.WishlistList(d.Wishlist, logg))
		r.Post("/", controllers.WishlistAdd(d.Wishlist, logg))
		r.Delete("/", controllers.WishlistRemove(d.Wishlist, logg))
	})

	r.Route("/notifications", func(r chi.Router) {
		r.Use(requireActor)
		r.Get("/", controllers.NotificationsList(d.Notifications, logg))
		r.Put("/read", controllers.NotificationsMarkAllRead(d.Notifications, logg))
		r.Put("/{notificationId}/read", controllers.NotificationMarkRead(d.Notifications, logg))
	})

	r.Route("/products/{type}", func(r chi.Router) {
		r.Get("/", controllers.ListProductsByType(d.Products, logg))
		r.Get("/{productId}", controllers.GetProduct(d.Products, logg))
	})

	r.Route("/vendor", func(r chi.Router) {
		r.Use(requireVendor)
		r.Get("/products", controllers.VendorListProducts(d.Products, logg))
		r.Post("/products", controllers.VendorCreateProduct(d.Products, logg))
		r.Patch("/products/{productId}", controllers.VendorUpdateProduct(d.Products, logg))
		r.Delete("/products/{productId}", controllers.VendorDeleteProduct(d.Products, logg))

		r.Get("/brands", controllers.VendorListBrands(d.Brands, logg))
		r.Get("/brands/{category}", controllers.VendorGetBrands(d.Brands, logg))
		r.Post("/brands/{category}", controllers.VendorAddBrand(d.Brands, logg))
		r.Delete("/brands/{category}", controllers.VendorRemoveBrand(d.Brands, logg))
	})

	return r
}

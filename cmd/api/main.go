package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/angelmondragon/vendora-backend/api/middleware"
	"github.com/angelmondragon/vendora-backend/api/routes"
	"github.com/angelmondragon/vendora-backend/internal/auth"
	"github.com/angelmondragon/vendora-backend/internal/brands"
	"github.com/angelmondragon/vendora-backend/internal/cart"
	"github.com/angelmondragon/vendora-backend/internal/notifications"
	"github.com/angelmondragon/vendora-backend/internal/orders"
	product "github.com/angelmondragon/vendora-backend/internal/products"
	"github.com/angelmondragon/vendora-backend/internal/users"
	"github.com/angelmondragon/vendora-backend/internal/vendors"
	"github.com/angelmondragon/vendora-backend/internal/wishlist"
	"github.com/angelmondragon/vendora-backend/pkg/auth/session"
	"github.com/angelmondragon/vendora-backend/pkg/cache"
	"github.com/angelmondragon/vendora-backend/pkg/config"
	"github.com/angelmondragon/vendora-backend/pkg/db"
	"github.com/angelmondragon/vendora-backend/pkg/gateway"
	"github.com/angelmondragon/vendora-backend/pkg/logger"
	"github.com/angelmondragon/vendora-backend/pkg/metrics"
	"github.com/angelmondragon/vendora-backend/pkg/migrate"
	"github.com/angelmondragon/vendora-backend/pkg/outbox"
	"github.com/angelmondragon/vendora-backend/pkg/redis"
	"github.com/angelmondragon/vendora-backend/pkg/security"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := buildServices(cfg, logg, dbClient, redisClient, sessionManager, registry)
	if err != nil {
		logg.Error(ctx, "failed to wire services", err)
		os.Exit(1)
	}
	deps.Limiter = middleware.NewRateLimiter(ctx, cfg.RateLimit, logg)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(deps),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "api server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.App.ShutdownWait)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
	}
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, sessions *session.Manager, registry *prometheus.Registry) (routes.Dependencies, error) {
	gormDB := dbClient.DB()
	userRepo := users.NewRepository(gormDB)
	vendorRepo := vendors.NewRepository(gormDB)
	productRepo := product.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)

	passwords := security.NewHasher(cfg.Password)
	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		VendorRepo:     vendorRepo,
		SessionManager: sessions,
		Passwords:      passwords,
		JWTConfig:      cfg.JWT,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}
	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		Users:     userRepo,
		Vendors:   vendorRepo,
		Passwords: passwords,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	productService, err := product.NewService(productRepo, cache.NewMemory(cfg.Cache.ProductTTL, cfg.Cache.CleanupPeriod), cfg.Cache.ProductTTL)
	if err != nil {
		return routes.Dependencies{}, err
	}
	cartService, err := cart.NewService(cartRepo, dbClient, productRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}
	brandService, err := brands.NewService(brands.NewRepository(gormDB), dbClient)
	if err != nil {
		return routes.Dependencies{}, err
	}
	wishlistService, err := wishlist.NewService(wishlist.NewRepository(gormDB), productRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}
	notificationService, err := notifications.NewService(notifications.NewRepository(gormDB))
	if err != nil {
		return routes.Dependencies{}, err
	}

	orderParams := orders.ServiceParams{
		Repo:      orders.NewRepository(gormDB),
		Tx:        dbClient,
		Outbox:    outbox.NewService(outbox.NewRepository(gormDB), logg),
		Carts:     cartRepo,
		Catalog:   productRepo,
		Marker:    redisClient,
		MarkerTTL: cfg.Idempotency.ConfirmMarkerTTL,
		Metrics:   metrics.NewOrderMetrics(registry),
		Logger:    logg,
		Currency:  cfg.Gateway.Currency,
		IntentTTL: cfg.Gateway.IntentTTL,
	}
	// Left unset, online payments answer with a validation error.
	if cfg.Gateway.Enabled() {
		gatewayClient, err := gateway.NewClient(cfg.Gateway)
		if err != nil {
			return routes.Dependencies{}, err
		}
		orderParams.Gateway = gatewayClient
	}
	orderService, err := orders.NewService(orderParams)
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Redis:         redisClient,
		Sessions:      sessions,
		Metrics:       metrics.NewHTTPMetrics(registry),
		Gatherer:      registry,
		Auth:          authService,
		Register:      registerService,
		Orders:        orderService,
		Cart:          cartService,
		Products:      productService,
		Brands:        brandService,
		Wishlist:      wishlistService,
		Notifications: notificationService,
	}, nil
}

package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	RateLimit     RateLimitConfig
	Gateway       GatewayConfig
	Cache         CacheConfig
	Idempotency   IdempotencyConfig
	Cron          CronConfig
	Outbox        OutboxConfig
	PubSub        PubSubConfig
	Notifications NotificationsConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Gateway.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string        `envconfig:"VENDORA_APP_ENV" required:"true"`
	Port         string        `envconfig:"VENDORA_APP_PORT" required:"true"`
	LogLevel     string        `envconfig:"VENDORA_LOG_LEVEL" default:"info"`
	LogWarnStack bool          `envconfig:"VENDORA_LOG_WARN_STACK" default:"false"`
	LogFormat    string        `envconfig:"VENDORA_LOG_FORMAT" default:"json"`
	CORSOrigins  []string      `envconfig:"VENDORA_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:5173"`
	ShutdownWait time.Duration `envconfig:"VENDORA_SHUTDOWN_TIMEOUT" default:"15s"`

	// Workers serve /metrics here when set; the API uses its own router.
	WorkerMetricsAddr string `envconfig:"VENDORA_WORKER_METRICS_ADDR"`
	// InstanceID tags worker log lines; the hostname is used when unset.
	InstanceID        string `envconfig:"VENDORA_INSTANCE_ID"`
}

// Instance names this process for logs, falling back to the hostname.
func (a AppConfig) Instance() string {
	if id := strings.TrimSpace(a.InstanceID); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VENDORA_DB_DSN"`
	Driver string `envconfig:"VENDORA_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VENDORA_DB_HOST"`
	LegacyPort     int    `envconfig:"VENDORA_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VENDORA_DB_USER"`
	LegacyPassword string `envconfig:"VENDORA_DB_PASSWORD"`
	LegacyName     string `envconfig:"VENDORA_DB_NAME"`
	LegacySSLMode  string `envconfig:"VENDORA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VENDORA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VENDORA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VENDORA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VENDORA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"VENDORA_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	// URL wins over Address when both are set.
	URL          string        `envconfig:"VENDORA_REDIS_URL"`
	Address      string        `envconfig:"VENDORA_REDIS_ADDR"`
	Password     string        `envconfig:"VENDORA_REDIS_PASSWORD"`
	DB           int           `envconfig:"VENDORA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VENDORA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VENDORA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VENDORA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VENDORA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VENDORA_REDIS_WRITE_TIMEOUT" default:"5s"`
	// Namespace prefixes every key so environments can share one server.
	Namespace    string        `envconfig:"VENDORA_REDIS_NAMESPACE" default:"vendora"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VENDORA_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VENDORA_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VENDORA_JWT_EXPIRATION_MINUTES" required:"true"`
	UserCookieName    string `envconfig:"VENDORA_JWT_USER_COOKIE" default:"vendora_user"`
	VendorCookieName  string `envconfig:"VENDORA_JWT_VENDOR_COOKIE" default:"vendora_vendor"`
	CookieSecure      bool   `envconfig:"VENDORA_JWT_COOKIE_SECURE" default:"true"`
}

// TokenTTL is the lifetime of an access token and its session record.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"VENDORA_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"VENDORA_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"VENDORA_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"VENDORA_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"VENDORA_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"VENDORA_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"VENDORA_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"VENDORA_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"VENDORA_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
}

// RateLimitConfig drives the per-IP token bucket in front of every route.
type RateLimitConfig struct {
	RequestsPerSecond float64       `envconfig:"VENDORA_RATE_LIMIT_RPS" default:"20"`
	Burst             int           `envconfig:"VENDORA_RATE_LIMIT_BURST" default:"40"`
	CleanupPeriod     time.Duration `envconfig:"VENDORA_RATE_LIMIT_CLEANUP" default:"1m"`
	ClientTTL         time.Duration `envconfig:"VENDORA_RATE_LIMIT_CLIENT_TTL" default:"3m"`
}

type GatewayConfig struct {
	BaseURL   string        `envconfig:"VENDORA_GATEWAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	KeyID     string        `envconfig:"VENDORA_GATEWAY_KEY_ID"`
	KeySecret string        `envconfig:"VENDORA_GATEWAY_KEY_SECRET"`
	Currency  string        `envconfig:"VENDORA_GATEWAY_CURRENCY" default:"INR"`
	Timeout   time.Duration `envconfig:"VENDORA_GATEWAY_TIMEOUT" default:"10s"`
	IntentTTL time.Duration `envconfig:"VENDORA_GATEWAY_INTENT_TTL" default:"30m"`
}

// Enabled reports whether online payments are configured.
func (g GatewayConfig) Enabled() bool {
	return strings.TrimSpace(g.KeyID) != "" && strings.TrimSpace(g.KeySecret) != ""
}

func (g GatewayConfig) validate() error {
	hasID := strings.TrimSpace(g.KeyID) != ""
	hasSecret := strings.TrimSpace(g.KeySecret) != ""
	if hasID != hasSecret {
		return fmt.Errorf("%s and %s must be set together", EnvGatewayKeyID, EnvGatewayKeySecret)
	}
	return nil
}

type CacheConfig struct {
	ProductTTL    time.Duration `envconfig:"VENDORA_CACHE_PRODUCT_TTL" default:"5m"`
	CleanupPeriod time.Duration `envconfig:"VENDORA_CACHE_CLEANUP" default:"10m"`
}

type IdempotencyConfig struct {
	ResponseTTL      time.Duration `envconfig:"VENDORA_IDEMPOTENCY_TTL" default:"24h"`
	ConfirmMarkerTTL time.Duration `envconfig:"VENDORA_CONFIRM_MARKER_TTL" default:"24h"`
}

type CronConfig struct {
	Interval    time.Duration `envconfig:"VENDORA_CRON_INTERVAL" default:"5m"`
	LockTTL     time.Duration `envconfig:"VENDORA_CRON_LOCK_TTL" default:"4m"`
	// Intents older than this with no order are expired.
	IntentGrace time.Duration `envconfig:"VENDORA_CRON_INTENT_GRACE" default:"15m"`
	BatchSize   int           `envconfig:"VENDORA_CRON_BATCH_SIZE" default:"100"`
	PruneBatch  int           `envconfig:"VENDORA_CRON_PRUNE_BATCH" default:"500"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VENDORA_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VENDORA_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VENDORA_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type PubSubConfig struct {
	ProjectID   string `envconfig:"VENDORA_GCP_PROJECT_ID"`
	OrdersTopic string `envconfig:"VENDORA_PUBSUB_ORDERS_TOPIC" default:"vendora-order-events"`

	// NotificationsSubscription is the orders-topic subscription drained by the worker.
	NotificationsSubscription string `envconfig:"VENDORA_PUBSUB_NOTIFICATIONS_SUBSCRIPTION" default:"vendora-order-notifications"`
}

type NotificationsConfig struct {
	// ProcessedTTL bounds how long consumed event ids are remembered.
	ProcessedTTL time.Duration `envconfig:"VENDORA_NOTIFICATIONS_PROCESSED_TTL" default:"168h"`
	// Retention is how long read entries stay in the feed.
	Retention    time.Duration `envconfig:"VENDORA_NOTIFICATIONS_RETENTION" default:"720h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"VENDORA_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}
	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

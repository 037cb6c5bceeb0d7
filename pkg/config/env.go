package config

const EnvPrefix = "VENDORA"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv     = "VENDORA_APP_ENV"
	EnvPort       = "VENDORA_APP_PORT"
	EnvLogLevel   = "VENDORA_LOG_LEVEL"
	EnvDBDSN      = "VENDORA_DB_DSN"
	EnvDBHost     = "VENDORA_DB_HOST"
	EnvDBUser     = "VENDORA_DB_USER"
	EnvDBName     = "VENDORA_DB_NAME"
	EnvRedisURL   = "VENDORA_REDIS_URL"
	EnvJWTSecret  = "VENDORA_JWT_SECRET"
	EnvJWTIssuer  = "VENDORA_JWT_ISSUER"
	EnvJWTExpMins = "VENDORA_JWT_EXPIRATION_MINUTES"

	EnvGatewayKeyID     = "VENDORA_GATEWAY_KEY_ID"
	EnvGatewayKeySecret = "VENDORA_GATEWAY_KEY_SECRET"
	EnvGatewayTimeout   = "VENDORA_GATEWAY_TIMEOUT"
	EnvCronInterval     = "VENDORA_CRON_INTERVAL"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

package config

const (
	EnvPrefix = "NEXUS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvAppEnv   = "NEXUS_APP_ENV"
	EnvPort     = "NEXUS_APP_PORT"
	EnvLogLevel = "NEXUS_LOG_LEVEL"

	EnvDBDSN    = "NEXUS_DB_DSN"
	EnvDBDriver = "NEXUS_DB_DRIVER"
	EnvDBHost   = "NEXUS_DB_HOST"
	EnvDBUser   = "NEXUS_DB_USER"
	EnvDBName   = "NEXUS_DB_NAME"

	EnvRedisURL = "NEXUS_REDIS_URL"

	EnvAdminJWTSecret = "NEXUS_ADMIN_JWT_SECRET"

	EnvKafkaBrokers = "NEXUS_KAFKA_BROKERS"

	EnvReservationTimeoutMinutes = "NEXUS_CART_RESERVATION_TIMEOUT_MINUTES"
	EnvCartExpiryDays            = "NEXUS_CART_EXPIRY_DAYS"
	EnvLowStockThreshold         = "NEXUS_LOW_STOCK_THRESHOLD"
	EnvCartSweepInterval         = "NEXUS_CART_SWEEP_INTERVAL"
	EnvReservationSweepInterval  = "NEXUS_RESERVATION_SWEEP_INTERVAL"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

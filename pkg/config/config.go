package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Kafka        KafkaConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
	Reservation  ReservationConfig
	Payments     PaymentsConfig
	Checkout     CheckoutConfig
	HTTP         HTTPConfig
	AdminAuth    AdminAuthConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Reservation.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadAdminAuth reads only the staff token settings, for tooling that has no
// database or broker.
func LoadAdminAuth() (AdminAuthConfig, error) {
	var cfg AdminAuthConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing admin auth config: %w", err)
	}
	if cfg.Secret == "" {
		return cfg, fmt.Errorf("%s is required", EnvAdminJWTSecret)
	}
	return cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"NEXUS_APP_ENV" required:"true"`
	Port         string `envconfig:"NEXUS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"NEXUS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"NEXUS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"NEXUS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"NEXUS_DB_DSN"`
	Driver string `envconfig:"NEXUS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"NEXUS_DB_HOST"`
	LegacyPort     int    `envconfig:"NEXUS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"NEXUS_DB_USER"`
	LegacyPassword string `envconfig:"NEXUS_DB_PASSWORD"`
	LegacyName     string `envconfig:"NEXUS_DB_NAME"`
	LegacySSLMode  string `envconfig:"NEXUS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"NEXUS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"NEXUS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"NEXUS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"NEXUS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

// IsSQLite reports whether the sqlite driver was selected.
func (db DBConfig) IsSQLite() bool {
	return strings.EqualFold(strings.TrimSpace(db.Driver), DriverSQLite)
}

type RedisConfig struct {
	URL          string        `envconfig:"NEXUS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"NEXUS_REDIS_ADDR"`
	Password     string        `envconfig:"NEXUS_REDIS_PASSWORD"`
	DB           int           `envconfig:"NEXUS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"NEXUS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"NEXUS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"NEXUS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"NEXUS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"NEXUS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type KafkaConfig struct {
	Brokers      []string      `envconfig:"NEXUS_KAFKA_BROKERS" default:"localhost:9092"`
	OrdersTopic  string        `envconfig:"NEXUS_KAFKA_ORDERS_TOPIC" default:"nexus.orders"`
	StockTopic   string        `envconfig:"NEXUS_KAFKA_STOCK_TOPIC" default:"nexus.stock"`
	PaymentTopic string        `envconfig:"NEXUS_KAFKA_PAYMENTS_TOPIC" default:"nexus.payments"`
	BatchTimeout time.Duration `envconfig:"NEXUS_KAFKA_BATCH_TIMEOUT" default:"50ms"`
	WriteTimeout time.Duration `envconfig:"NEXUS_KAFKA_WRITE_TIMEOUT" default:"10s"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"NEXUS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"NEXUS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"NEXUS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	RetentionDays  int `envconfig:"NEXUS_OUTBOX_RETENTION_DAYS" default:"7"`

	DedupTTL time.Duration `envconfig:"NEXUS_OUTBOX_DEDUP_TTL" default:"72h"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"NEXUS_AUTO_MIGRATE" default:"false"`
}

// ReservationConfig carries the timing knobs of the reservation lifecycle.
type ReservationConfig struct {
	TimeoutMinutes           int           `envconfig:"NEXUS_CART_RESERVATION_TIMEOUT_MINUTES" default:"15"`
	CartExpiryDays           int           `envconfig:"NEXUS_CART_EXPIRY_DAYS" default:"30"`
	LowStockThreshold        int           `envconfig:"NEXUS_LOW_STOCK_THRESHOLD" default:"5"`
	CartSweepInterval        time.Duration `envconfig:"NEXUS_CART_SWEEP_INTERVAL" default:"2h"`
	ReservationSweepInterval time.Duration `envconfig:"NEXUS_RESERVATION_SWEEP_INTERVAL" default:"10m"`
	SweepBatchSize           int           `envconfig:"NEXUS_SWEEP_BATCH_SIZE" default:"500"`
}

// ReservationTTL returns how long a cart line holds its stock claim.
func (r ReservationConfig) ReservationTTL() time.Duration {
	return time.Duration(r.TimeoutMinutes) * time.Minute
}

// CartTTL returns how long a cart lives after its last mutation.
func (r ReservationConfig) CartTTL() time.Duration {
	return time.Duration(r.CartExpiryDays) * 24 * time.Hour
}

// Validate enforces positive TTLs and a reservation sweep finer than the cart sweep.
func (r ReservationConfig) Validate() error {
	if r.TimeoutMinutes <= 0 {
		return fmt.Errorf("%s must be positive", EnvReservationTimeoutMinutes)
	}
	if r.CartExpiryDays <= 0 {
		return fmt.Errorf("%s must be positive", EnvCartExpiryDays)
	}
	if r.LowStockThreshold < 0 {
		return fmt.Errorf("%s must not be negative", EnvLowStockThreshold)
	}
	if r.CartSweepInterval <= 0 || r.ReservationSweepInterval <= 0 {
		return fmt.Errorf("sweep intervals must be positive")
	}
	if r.ReservationSweepInterval >= r.CartSweepInterval {
		return fmt.Errorf("%s (%s) must be shorter than %s (%s)",
			EnvReservationSweepInterval, r.ReservationSweepInterval,
			EnvCartSweepInterval, r.CartSweepInterval)
	}
	return nil
}

type PaymentsConfig struct {
	Provider        string        `envconfig:"NEXUS_PAYMENTS_PROVIDER" default:"stub"`
	WebhookSecret   string        `envconfig:"NEXUS_PAYMENTS_WEBHOOK_SECRET"`
	WebhookDedupTTL time.Duration `envconfig:"NEXUS_PAYMENTS_WEBHOOK_DEDUP_TTL" default:"24h"`
}

type CheckoutConfig struct {
	ReplayWindow time.Duration `envconfig:"NEXUS_CHECKOUT_REPLAY_WINDOW" default:"15m"`
}

// HTTPConfig tunes the public API surface.
type HTTPConfig struct {
	CORSOrigins        []string      `envconfig:"NEXUS_HTTP_CORS_ORIGINS" default:"http://localhost:3000"`
	RateLimitPerMinute int           `envconfig:"NEXUS_HTTP_RATE_LIMIT_PER_MINUTE" default:"120"`
	IdempotencyTTL     time.Duration `envconfig:"NEXUS_HTTP_IDEMPOTENCY_TTL" default:"24h"`
	ShutdownTimeout    time.Duration `envconfig:"NEXUS_HTTP_SHUTDOWN_TIMEOUT" default:"15s"`
}

// AdminAuthConfig signs and verifies staff tokens for the catalog and stock
// write routes. An empty secret rejects every admin request.
type AdminAuthConfig struct {
	Secret   string        `envconfig:"NEXUS_ADMIN_JWT_SECRET"`
	Issuer   string        `envconfig:"NEXUS_ADMIN_JWT_ISSUER" default:"nexus-cards"`
	TokenTTL time.Duration `envconfig:"NEXUS_ADMIN_JWT_TTL" default:"12h"`
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

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
	JWT          JWTConfig
	Cart         CartConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Eventing     EventingConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Stripe       StripeConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VOYAGO_APP_ENV" required:"true"`
	Port         string `envconfig:"VOYAGO_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VOYAGO_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VOYAGO_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"VOYAGO_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"VOYAGO_DB_DSN"`
	Driver string `envconfig:"VOYAGO_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VOYAGO_DB_HOST"`
	LegacyPort     int    `envconfig:"VOYAGO_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VOYAGO_DB_USER"`
	LegacyPassword string `envconfig:"VOYAGO_DB_PASSWORD"`
	LegacyName     string `envconfig:"VOYAGO_DB_NAME"`
	LegacySSLMode  string `envconfig:"VOYAGO_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VOYAGO_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VOYAGO_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VOYAGO_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VOYAGO_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VOYAGO_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VOYAGO_REDIS_ADDR"`
	Password     string        `envconfig:"VOYAGO_REDIS_PASSWORD"`
	DB           int           `envconfig:"VOYAGO_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VOYAGO_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VOYAGO_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VOYAGO_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VOYAGO_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VOYAGO_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VOYAGO_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VOYAGO_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VOYAGO_JWT_EXPIRATION_MINUTES" required:"true"`
}

// CartConfig controls cart lifetime. ExpiryWindow is how long a cart stays
// fresh after its last extension; ExpiringSoonThreshold is the horizon under
// which responses flag the cart as expiring soon.
type CartConfig struct {
	ExpiryWindow          time.Duration `envconfig:"VOYAGO_CART_EXPIRY_WINDOW" default:"30m"`
	ExpiringSoonThreshold time.Duration `envconfig:"VOYAGO_CART_EXPIRING_SOON_THRESHOLD" default:"5m"`
}

// RateLimitConfig throttles the cart extension surface. Extensions are cheap
// but unbounded calls would let a client pin a cart open forever.
type RateLimitConfig struct {
	CartExtendWindow time.Duration `envconfig:"VOYAGO_RATE_LIMIT_CART_EXTEND_WINDOW" default:"1m"`
	CartExtendLimit  int64         `envconfig:"VOYAGO_RATE_LIMIT_CART_EXTEND_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VOYAGO_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VOYAGO_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"VOYAGO_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
	WebhookDedupTTL      time.Duration `envconfig:"VOYAGO_EVENTING_WEBHOOK_DEDUP_TTL" default:"24h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"VOYAGO_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"VOYAGO_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"VOYAGO_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	BookingsTopic        string `envconfig:"VOYAGO_PUBSUB_BOOKINGS_TOPIC" required:"true"`
	BookingsSubscription string `envconfig:"VOYAGO_PUBSUB_BOOKINGS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"VOYAGO_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"VOYAGO_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"VOYAGO_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type StripeConfig struct {
	APIKey         string `envconfig:"VOYAGO_STRIPE_API_KEY"`
	Secret         string `envconfig:"VOYAGO_STRIPE_SECRET"`
	PublishableKey string `envconfig:"VOYAGO_STRIPE_PUBLISHABLE_KEY"`
	Env            string `envconfig:"VOYAGO_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
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

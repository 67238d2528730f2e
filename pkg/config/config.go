package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/shopspring/decimal"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	Billing      BillingConfig
	TableToken   TableTokenConfig
	Sessions     SessionsConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Square       SquareConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	BigQuery     BigQueryConfig
	Outbox       OutboxConfig
	Cron         CronConfig
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
	Env          string `envconfig:"TABLESERVE_APP_ENV" required:"true"`
	Port         string `envconfig:"TABLESERVE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TABLESERVE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TABLESERVE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"TABLESERVE_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"TABLESERVE_DB_DSN"`
	Driver string `envconfig:"TABLESERVE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"TABLESERVE_DB_HOST"`
	LegacyPort     int    `envconfig:"TABLESERVE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"TABLESERVE_DB_USER"`
	LegacyPassword string `envconfig:"TABLESERVE_DB_PASSWORD"`
	LegacyName     string `envconfig:"TABLESERVE_DB_NAME"`
	LegacySSLMode  string `envconfig:"TABLESERVE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"TABLESERVE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"TABLESERVE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"TABLESERVE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"TABLESERVE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TABLESERVE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"TABLESERVE_REDIS_ADDR"`
	Password     string        `envconfig:"TABLESERVE_REDIS_PASSWORD"`
	DB           int           `envconfig:"TABLESERVE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TABLESERVE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TABLESERVE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TABLESERVE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TABLESERVE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"TABLESERVE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// BillingConfig carries the tax and currency settings applied to every bill.
// The VAT rate is deployment configuration, never hard-coded at call sites.
type BillingConfig struct {
	VATRate  decimal.Decimal `envconfig:"TABLESERVE_BILLING_VAT_RATE" default:"0.14"`
	Currency string          `envconfig:"TABLESERVE_BILLING_CURRENCY" default:"BWP"`
}

// TableTokenConfig signs the QR payloads that identify physical tables.
type TableTokenConfig struct {
	Secret string `envconfig:"TABLESERVE_TABLE_TOKEN_SECRET" required:"true"`
	Issuer string `envconfig:"TABLESERVE_TABLE_TOKEN_ISSUER" default:"tableserve"`
}

type SessionsConfig struct {
	IdleAfter time.Duration `envconfig:"TABLESERVE_SESSION_IDLE_AFTER" default:"4h"`
}

type RateLimitConfig struct {
	CartWindow time.Duration `envconfig:"TABLESERVE_RATE_LIMIT_CART_WINDOW" default:"1m"`
	CartLimit  int           `envconfig:"TABLESERVE_RATE_LIMIT_CART_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"TABLESERVE_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"TABLESERVE_AUTO_MIGRATE" default:"false"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"TABLESERVE_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"TABLESERVE_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"TABLESERVE_SQUARE_LOCATION_ID"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

type GCPConfig struct {
	ProjectID              string `envconfig:"TABLESERVE_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"TABLESERVE_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"TABLESERVE_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrderEventsTopic        string `envconfig:"TABLESERVE_PUBSUB_ORDER_EVENTS_TOPIC" required:"true"`
	OrderEventsSubscription string `envconfig:"TABLESERVE_PUBSUB_ORDER_EVENTS_SUBSCRIPTION" required:"true"`
}

type BigQueryConfig struct {
	Dataset         string `envconfig:"TABLESERVE_BIGQUERY_DATASET" default:"tableserve"`
	SalesFactsTable string `envconfig:"TABLESERVE_BIGQUERY_SALES_FACTS_TABLE" default:"sales_facts"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"TABLESERVE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"TABLESERVE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"TABLESERVE_OUTBOX_MAX_ATTEMPTS" default:"10"`
	IdempotencyTTL time.Duration `envconfig:"TABLESERVE_OUTBOX_IDEMPOTENCY_TTL" default:"168h"`
}

type CronConfig struct {
	TickInterval time.Duration `envconfig:"TABLESERVE_CRON_TICK_INTERVAL" default:"1m"`
	LockTTL      time.Duration `envconfig:"TABLESERVE_CRON_LOCK_TTL" default:"5m"`
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

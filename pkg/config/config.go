package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "FREIGHTBOARD"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv    = "FREIGHTBOARD_APP_ENV"
	EnvPort      = "FREIGHTBOARD_APP_PORT"
	EnvDBDSN     = "FREIGHTBOARD_DB_DSN"
	EnvDBHost    = "FREIGHTBOARD_DB_HOST"
	EnvDBUser    = "FREIGHTBOARD_DB_USER"
	EnvDBName    = "FREIGHTBOARD_DB_NAME"
	EnvRedisURL  = "FREIGHTBOARD_REDIS_URL"
	EnvJWTSecret = "FREIGHTBOARD_JWT_SECRET"
	EnvJWTIssuer = "FREIGHTBOARD_JWT_ISSUER"
	EnvJWTExp    = "FREIGHTBOARD_JWT_EXPIRATION_MINUTES"
	EnvGCP       = "FREIGHTBOARD_GCP_PROJECT_ID"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Eventing     EventingConfig
	Quota        QuotaConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"FREIGHTBOARD_APP_ENV" required:"true"`
	Port         string `envconfig:"FREIGHTBOARD_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FREIGHTBOARD_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FREIGHTBOARD_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FREIGHTBOARD_DB_DSN"`
	Driver string `envconfig:"FREIGHTBOARD_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FREIGHTBOARD_DB_HOST"`
	LegacyPort     int    `envconfig:"FREIGHTBOARD_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FREIGHTBOARD_DB_USER"`
	LegacyPassword string `envconfig:"FREIGHTBOARD_DB_PASSWORD"`
	LegacyName     string `envconfig:"FREIGHTBOARD_DB_NAME"`
	LegacySSLMode  string `envconfig:"FREIGHTBOARD_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FREIGHTBOARD_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FREIGHTBOARD_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FREIGHTBOARD_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FREIGHTBOARD_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FREIGHTBOARD_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FREIGHTBOARD_REDIS_ADDR"`
	Password     string        `envconfig:"FREIGHTBOARD_REDIS_PASSWORD"`
	DB           int           `envconfig:"FREIGHTBOARD_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FREIGHTBOARD_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FREIGHTBOARD_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FREIGHTBOARD_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FREIGHTBOARD_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FREIGHTBOARD_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"FREIGHTBOARD_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"FREIGHTBOARD_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"FREIGHTBOARD_JWT_EXPIRATION_MINUTES" required:"true"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FREIGHTBOARD_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"FREIGHTBOARD_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FREIGHTBOARD_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"FREIGHTBOARD_PUBSUB_DOMAIN_TOPIC" default:"fb-domain-events"`
	DomainSubscription string `envconfig:"FREIGHTBOARD_PUBSUB_DOMAIN_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FREIGHTBOARD_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FREIGHTBOARD_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FREIGHTBOARD_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"FREIGHTBOARD_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

// QuotaConfig carries per-tier ceilings. -1 means unlimited.
type QuotaConfig struct {
	BasicBidsPerMonth int           `envconfig:"FREIGHTBOARD_QUOTA_BASIC_BIDS_PER_MONTH" default:"10"`
	BasicActiveLoads  int           `envconfig:"FREIGHTBOARD_QUOTA_BASIC_ACTIVE_LOADS" default:"2"`
	ProBidsPerMonth   int           `envconfig:"FREIGHTBOARD_QUOTA_PRO_BIDS_PER_MONTH" default:"50"`
	ProActiveLoads    int           `envconfig:"FREIGHTBOARD_QUOTA_PRO_ACTIVE_LOADS" default:"10"`
	EnterpriseBidsPM  int           `envconfig:"FREIGHTBOARD_QUOTA_ENTERPRISE_BIDS_PER_MONTH" default:"-1"`
	EnterpriseActive  int           `envconfig:"FREIGHTBOARD_QUOTA_ENTERPRISE_ACTIVE_LOADS" default:"-1"`
	SnapshotTTL       time.Duration `envconfig:"FREIGHTBOARD_QUOTA_SNAPSHOT_TTL" default:"30s"`
}

// RateLimitConfig throttles mutating API calls. Zero limits disable the check.
type RateLimitConfig struct {
	WriteWindow    time.Duration `envconfig:"FREIGHTBOARD_RATE_LIMIT_WRITE_WINDOW" default:"1m"`
	WriteIPLimit   int           `envconfig:"FREIGHTBOARD_RATE_LIMIT_WRITE_IP_LIMIT" default:"120"`
	WriteUserLimit int           `envconfig:"FREIGHTBOARD_RATE_LIMIT_WRITE_USER_LIMIT" default:"60"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FREIGHTBOARD_AUTO_MIGRATE" default:"false"`
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

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv       = "FLEURLY_APP_ENV"
	EnvPort         = "FLEURLY_APP_PORT"
	EnvDBDSN        = "FLEURLY_DB_DSN"
	EnvDBHost       = "FLEURLY_DB_HOST"
	EnvDBUser       = "FLEURLY_DB_USER"
	EnvDBName       = "FLEURLY_DB_NAME"
	EnvRedisURL     = "FLEURLY_REDIS_URL"
	EnvGCPProjectID = "FLEURLY_GCP_PROJECT_ID"
	EnvDomainTopic  = "FLEURLY_PUBSUB_DOMAIN_TOPIC"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Inventory    InventoryConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
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
	Env          string `envconfig:"FLEURLY_APP_ENV" required:"true"`
	Port         string `envconfig:"FLEURLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FLEURLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLEURLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"FLEURLY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"FLEURLY_DB_DSN"`
	Driver string `envconfig:"FLEURLY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FLEURLY_DB_HOST"`
	LegacyPort     int    `envconfig:"FLEURLY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLEURLY_DB_USER"`
	LegacyPassword string `envconfig:"FLEURLY_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLEURLY_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLEURLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLEURLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLEURLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLEURLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLEURLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLEURLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FLEURLY_REDIS_ADDR"`
	Password     string        `envconfig:"FLEURLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLEURLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLEURLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLEURLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLEURLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLEURLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLEURLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"FLEURLY_AUTO_MIGRATE" default:"false"`
}

// InventoryConfig tunes the reservation sweep and the cron cadence.
type InventoryConfig struct {
	ReservationMaxAgeHours int           `envconfig:"FLEURLY_RESERVATION_MAX_AGE_HOURS" default:"72"`
	CleanupDryRun          bool          `envconfig:"FLEURLY_RESERVATION_CLEANUP_DRY_RUN" default:"false"`
	CronInterval           time.Duration `envconfig:"FLEURLY_CRON_INTERVAL" default:"1h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FLEURLY_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"FLEURLY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FLEURLY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	DomainTopic        string `envconfig:"FLEURLY_PUBSUB_DOMAIN_TOPIC" required:"true"`
	DomainSubscription string `envconfig:"FLEURLY_PUBSUB_DOMAIN_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"FLEURLY_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"FLEURLY_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"FLEURLY_OUTBOX_MAX_ATTEMPTS" default:"10"`
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

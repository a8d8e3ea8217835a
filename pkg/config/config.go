package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "stockdesk"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	PubSub       PubSubConfig
	Outbox       OutboxConfig
	Dashboard    DashboardConfig
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
	Env          string `envconfig:"STOCKDESK_APP_ENV" required:"true"`
	Port         string `envconfig:"STOCKDESK_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"STOCKDESK_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"STOCKDESK_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"STOCKDESK_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"STOCKDESK_DB_DSN"`
	Driver string `envconfig:"STOCKDESK_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"STOCKDESK_DB_HOST"`
	Port     int    `envconfig:"STOCKDESK_DB_PORT" default:"5432"`
	User     string `envconfig:"STOCKDESK_DB_USER"`
	Password string `envconfig:"STOCKDESK_DB_PASSWORD"`
	Name     string `envconfig:"STOCKDESK_DB_NAME"`
	SSLMode  string `envconfig:"STOCKDESK_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOCKDESK_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOCKDESK_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOCKDESK_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"STOCKDESK_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"STOCKDESK_REDIS_URL"`
	Address      string        `envconfig:"STOCKDESK_REDIS_ADDR"`
	Password     string        `envconfig:"STOCKDESK_REDIS_PASSWORD"`
	DB           int           `envconfig:"STOCKDESK_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"STOCKDESK_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"STOCKDESK_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"STOCKDESK_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"STOCKDESK_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"STOCKDESK_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"STOCKDESK_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"STOCKDESK_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"STOCKDESK_JWT_EXPIRATION_MINUTES" default:"60"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"STOCKDESK_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"STOCKDESK_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID string `envconfig:"STOCKDESK_GCP_PROJECT_ID"`
}

type PubSubConfig struct {
	OrdersTopic        string `envconfig:"STOCKDESK_PUBSUB_ORDERS_TOPIC" default:"stockdesk-order-events"`
	OrdersSubscription string `envconfig:"STOCKDESK_PUBSUB_ORDERS_SUBSCRIPTION"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"STOCKDESK_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"STOCKDESK_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"STOCKDESK_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type DashboardConfig struct {
	SummaryCacheTTL time.Duration `envconfig:"STOCKDESK_DASHBOARD_SUMMARY_TTL" default:"1m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	required := []struct {
		env   string
		value string
	}{
		{"STOCKDESK_DB_HOST", db.Host},
		{"STOCKDESK_DB_USER", db.User},
		{"STOCKDESK_DB_NAME", db.Name},
	}
	for _, entry := range required {
		if entry.value == "" {
			missing = append(missing, entry.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either STOCKDESK_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

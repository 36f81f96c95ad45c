package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Payment      PaymentConfig
	BuyBox       BuyBoxConfig
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
	Env          string `envconfig:"DJASSA_APP_ENV" required:"true"`
	Port         string `envconfig:"DJASSA_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"DJASSA_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"DJASSA_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"DJASSA_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"DJASSA_DB_DSN"`
	Driver string `envconfig:"DJASSA_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"DJASSA_DB_HOST"`
	Port     int    `envconfig:"DJASSA_DB_PORT" default:"5432"`
	User     string `envconfig:"DJASSA_DB_USER"`
	Password string `envconfig:"DJASSA_DB_PASSWORD"`
	Name     string `envconfig:"DJASSA_DB_NAME"`
	SSLMode  string `envconfig:"DJASSA_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"DJASSA_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"DJASSA_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"DJASSA_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"DJASSA_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"DJASSA_REDIS_URL" required:"true"`
	Address      string        `envconfig:"DJASSA_REDIS_ADDR"`
	Password     string        `envconfig:"DJASSA_REDIS_PASSWORD"`
	DB           int           `envconfig:"DJASSA_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"DJASSA_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"DJASSA_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"DJASSA_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"DJASSA_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"DJASSA_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"DJASSA_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"DJASSA_AUTO_MIGRATE" default:"false"`
}

// PaymentConfig is passed into the payment orchestrator at construction and
// treated as immutable from then on.
type PaymentConfig struct {
	Mode     string        `envconfig:"DJASSA_PAYMENT_MODE" default:"SIMULATION"`
	Currency string        `envconfig:"DJASSA_PAYMENT_CURRENCY" default:"XOF"`
	Timeout  time.Duration `envconfig:"DJASSA_PAYMENT_TIMEOUT" default:"10m"`

	MaxDispatchRetries   int           `envconfig:"DJASSA_PAYMENT_MAX_DISPATCH_RETRIES" default:"3"`
	DispatchRetryBackoff time.Duration `envconfig:"DJASSA_PAYMENT_DISPATCH_RETRY_BACKOFF" default:"500ms"`

	// Fee percentages expressed in basis points to keep the math integral.
	PlatformCommissionBps int `envconfig:"DJASSA_PLATFORM_COMMISSION_BPS" default:"250"`
	OrangeGatewayFeeBps   int `envconfig:"DJASSA_ORANGE_GATEWAY_FEE_BPS" default:"150"`
	MTNGatewayFeeBps      int `envconfig:"DJASSA_MTN_GATEWAY_FEE_BPS" default:"180"`
	MoovGatewayFeeBps     int `envconfig:"DJASSA_MOOV_GATEWAY_FEE_BPS" default:"200"`

	OrangeWebhookSecret string `envconfig:"DJASSA_ORANGE_WEBHOOK_SECRET" default:"change-me-orange"`
	MTNWebhookSecret    string `envconfig:"DJASSA_MTN_WEBHOOK_SECRET" default:"change-me-mtn"`
	MoovWebhookSecret   string `envconfig:"DJASSA_MOOV_WEBHOOK_SECRET" default:"change-me-moov"`

	SimulationWebhookSecret string        `envconfig:"DJASSA_SIMULATION_WEBHOOK_SECRET" default:"simulation-secret"`
	SimulationDelay         time.Duration `envconfig:"DJASSA_SIMULATION_AUTO_DELAY" default:"5s"`
}

// BuyBoxConfig carries the ranking constants. The weights and both
// normalization constants are tunable so tests can pin exact scores.
type BuyBoxConfig struct {
	StockWeight    float64 `envconfig:"DJASSA_BUYBOX_STOCK_WEIGHT" default:"0.40"`
	DistanceWeight float64 `envconfig:"DJASSA_BUYBOX_DISTANCE_WEIGHT" default:"0.35"`
	RatingWeight   float64 `envconfig:"DJASSA_BUYBOX_RATING_WEIGHT" default:"0.25"`

	ReferenceStock int     `envconfig:"DJASSA_BUYBOX_REFERENCE_STOCK" default:"100"`
	DecayFactor    float64 `envconfig:"DJASSA_BUYBOX_DISTANCE_DECAY" default:"1.0"`
}

type CronConfig struct {
	Interval time.Duration `envconfig:"DJASSA_CRON_INTERVAL" default:"1m"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	for envName, value := range map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	} {
		if value == "" {
			missing = append(missing, envName)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("database DSN not set and missing %s", strings.Join(missing, ", "))
	}

	db.DSN = fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode,
	)
	return nil
}

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
	App         AppConfig
	Service     ServiceConfig
	DB          DBConfig
	Redis       RedisConfig
	JWT         JWTConfig
	Pricing     PricingConfig
	Payment     PaymentConfig
	MobileMoney MobileMoneyConfig
	Square      SquareConfig
	GCP         GCPConfig
	PubSub      PubSubConfig
	Outbox      OutboxConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Pricing.validate(); err != nil {
		return nil, err
	}
	if err := cfg.Payment.validate(cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PARTSDEALER_APP_ENV" required:"true"`
	Port         string `envconfig:"PARTSDEALER_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PARTSDEALER_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PARTSDEALER_LOG_WARN_STACK" default:"false"`
	AutoMigrate  bool   `envconfig:"PARTSDEALER_AUTO_MIGRATE" default:"false"`

	CORSOrigins []string `envconfig:"PARTSDEALER_CORS_ORIGINS"`
	// ShutdownTimeout bounds graceful drain of in-flight requests.
	ShutdownTimeout time.Duration `envconfig:"PARTSDEALER_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "production")
}

type ServiceConfig struct {
	Kind string `envconfig:"PARTSDEALER_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN string `envconfig:"PARTSDEALER_DB_DSN"`

	Host     string `envconfig:"PARTSDEALER_DB_HOST"`
	Port     int    `envconfig:"PARTSDEALER_DB_PORT" default:"5432"`
	User     string `envconfig:"PARTSDEALER_DB_USER"`
	Password string `envconfig:"PARTSDEALER_DB_PASSWORD"`
	Name     string `envconfig:"PARTSDEALER_DB_NAME"`
	SSLMode  string `envconfig:"PARTSDEALER_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PARTSDEALER_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PARTSDEALER_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PARTSDEALER_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PARTSDEALER_DB_CONN_MAX_IDLE_TIME" default:"10m"`

	// SlowQueryThreshold logs statements slower than this at warn; zero disables.
	SlowQueryThreshold time.Duration `envconfig:"PARTSDEALER_DB_SLOW_QUERY_THRESHOLD" default:"500ms"`
}

type RedisConfig struct {
	URL            string        `envconfig:"PARTSDEALER_REDIS_URL" required:"true"`
	PoolSize       int           `envconfig:"PARTSDEALER_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns   int           `envconfig:"PARTSDEALER_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout    time.Duration `envconfig:"PARTSDEALER_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout    time.Duration `envconfig:"PARTSDEALER_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout   time.Duration `envconfig:"PARTSDEALER_REDIS_WRITE_TIMEOUT" default:"5s"`
	IdempotencyTTL time.Duration `envconfig:"PARTSDEALER_IDEMPOTENCY_TTL" default:"24h"`
}

type JWTConfig struct {
	Secret string `envconfig:"PARTSDEALER_JWT_SECRET" required:"true"`
	Issuer string `envconfig:"PARTSDEALER_JWT_ISSUER" required:"true"`

	ExpirationMinutes int `envconfig:"PARTSDEALER_JWT_EXPIRATION_MINUTES" default:"60"`
}

// PricingConfig drives the checkout totals. TaxRate is a decimal fraction
// ("0.03" is three percent).
type PricingConfig struct {
	TaxRate               string `envconfig:"PARTSDEALER_TAX_RATE" default:"0.03"`
	Currency              string `envconfig:"PARTSDEALER_CURRENCY" default:"USD"`
	ShippingStandardCents int64  `envconfig:"PARTSDEALER_SHIPPING_STANDARD_CENTS" default:"500"`
	ShippingExpressCents  int64  `envconfig:"PARTSDEALER_SHIPPING_EXPRESS_CENTS" default:"1500"`
	ShippingPickupCents   int64  `envconfig:"PARTSDEALER_SHIPPING_PICKUP_CENTS" default:"0"`
}

// TaxRateDecimal parses TaxRate; validate guarantees it parses after Load.
func (p PricingConfig) TaxRateDecimal() decimal.Decimal {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return decimal.Zero
	}
	return rate
}

func (p PricingConfig) validate() error {
	rate, err := decimal.NewFromString(strings.TrimSpace(p.TaxRate))
	if err != nil {
		return fmt.Errorf("%s must be a decimal: %w", EnvTaxRate, err)
	}
	if rate.IsNegative() || rate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return fmt.Errorf("%s must be within [0,1)", EnvTaxRate)
	}
	if p.ShippingStandardCents < 0 || p.ShippingExpressCents < 0 || p.ShippingPickupCents < 0 {
		return fmt.Errorf("shipping fees must be non-negative")
	}
	return nil
}

type PaymentConfig struct {
	Provider string        `envconfig:"PARTSDEALER_PAYMENT_PROVIDER" default:"mobile_money"`
	Timeout  time.Duration `envconfig:"PARTSDEALER_PAYMENT_TIMEOUT" default:"15s"`
}

func (p PaymentConfig) validate(cfg Config) error {
	switch strings.ToLower(strings.TrimSpace(p.Provider)) {
	case PaymentProviderMobileMoney:
		if cfg.MobileMoney.BaseURL == "" {
			return fmt.Errorf("%s is required for the mobile money provider", EnvMobileMoneyBaseURL)
		}
	case PaymentProviderSquare:
		if cfg.Square.AccessToken == "" || cfg.Square.LocationID == "" {
			return fmt.Errorf("%s and %s are required for the square provider", EnvSquareAccessToken, EnvSquareLocationID)
		}
	default:
		return fmt.Errorf("unsupported payment provider %q", p.Provider)
	}
	if p.Timeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvPaymentTimeout)
	}
	return nil
}

type MobileMoneyConfig struct {
	BaseURL         string `envconfig:"PARTSDEALER_MOBILE_MONEY_BASE_URL"`
	APIKey          string `envconfig:"PARTSDEALER_MOBILE_MONEY_API_KEY"`
	MerchantAccount string `envconfig:"PARTSDEALER_MOBILE_MONEY_MERCHANT_ACCOUNT"`
}

type SquareConfig struct {
	AccessToken string `envconfig:"PARTSDEALER_SQUARE_ACCESS_TOKEN"`
	Env         string `envconfig:"PARTSDEALER_SQUARE_ENV" default:"sandbox"`
	LocationID  string `envconfig:"PARTSDEALER_SQUARE_LOCATION_ID"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"PARTSDEALER_GCP_PROJECT_ID"`
	CredentialsJSON string `envconfig:"PARTSDEALER_GCP_CREDENTIALS_JSON"`
	CredentialsFile string `envconfig:"GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	OrdersTopic   string `envconfig:"PARTSDEALER_PUBSUB_ORDERS_TOPIC" default:"pd-order-events"`
	PaymentsTopic string `envconfig:"PARTSDEALER_PUBSUB_PAYMENTS_TOPIC" default:"pd-payment-events"`
	DealersTopic  string `envconfig:"PARTSDEALER_PUBSUB_DEALERS_TOPIC" default:"pd-dealer-events"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"PARTSDEALER_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"PARTSDEALER_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"PARTSDEALER_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range []string{EnvDBHost, EnvDBUser, EnvDBName} {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
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

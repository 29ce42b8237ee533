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
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Password     PasswordConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	Checkout     CheckoutConfig
	RBAC         RBACConfig
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
	Env          string `envconfig:"BALADY_APP_ENV" required:"true"`
	Port         string `envconfig:"BALADY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"BALADY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"BALADY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"BALADY_DB_DSN"`
	Driver string `envconfig:"BALADY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"BALADY_DB_HOST"`
	LegacyPort     int    `envconfig:"BALADY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"BALADY_DB_USER"`
	LegacyPassword string `envconfig:"BALADY_DB_PASSWORD"`
	LegacyName     string `envconfig:"BALADY_DB_NAME"`
	LegacySSLMode  string `envconfig:"BALADY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"BALADY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"BALADY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"BALADY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"BALADY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"BALADY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"BALADY_REDIS_ADDR"`
	Password     string        `envconfig:"BALADY_REDIS_PASSWORD"`
	DB           int           `envconfig:"BALADY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"BALADY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"BALADY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"BALADY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"BALADY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"BALADY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"BALADY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"BALADY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"BALADY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"BALADY_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"BALADY_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"BALADY_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"BALADY_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"BALADY_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	GuestSessionWindow time.Duration `envconfig:"BALADY_RATE_LIMIT_GUEST_SESSION_WINDOW" default:"1m"`
	GuestSessionLimit  int           `envconfig:"BALADY_RATE_LIMIT_GUEST_SESSION_LIMIT" default:"10"`
	InvoiceWindow      time.Duration `envconfig:"BALADY_RATE_LIMIT_INVOICE_WINDOW" default:"1m"`
	InvoiceLimit       int           `envconfig:"BALADY_RATE_LIMIT_INVOICE_LIMIT" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"BALADY_AUTO_MIGRATE" default:"false"`
}

type CheckoutConfig struct {
	// PlaceOrderTimeout bounds the order assembly transaction. It is generous
	// because large carts touch many product rows sequentially.
	PlaceOrderTimeout time.Duration `envconfig:"BALADY_CHECKOUT_PLACE_ORDER_TIMEOUT" default:"30s"`
}

type RBACConfig struct {
	PermissionCacheTTL time.Duration `envconfig:"BALADY_RBAC_PERMISSION_CACHE_TTL" default:"5m"`
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

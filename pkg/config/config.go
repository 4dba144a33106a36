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
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	Circulation   CirculationConfig
	CORS          CORSConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Circulation.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"LIBRARIAN_APP_ENV" required:"true"`
	Port         string `envconfig:"LIBRARIAN_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"LIBRARIAN_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"LIBRARIAN_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"LIBRARIAN_DB_DSN"`
	Driver string `envconfig:"LIBRARIAN_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"LIBRARIAN_DB_HOST"`
	LegacyPort     int    `envconfig:"LIBRARIAN_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"LIBRARIAN_DB_USER"`
	LegacyPassword string `envconfig:"LIBRARIAN_DB_PASSWORD"`
	LegacyName     string `envconfig:"LIBRARIAN_DB_NAME"`
	LegacySSLMode  string `envconfig:"LIBRARIAN_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"LIBRARIAN_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"LIBRARIAN_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"LIBRARIAN_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"LIBRARIAN_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"LIBRARIAN_REDIS_URL" required:"true"`
	Address      string        `envconfig:"LIBRARIAN_REDIS_ADDR"`
	Password     string        `envconfig:"LIBRARIAN_REDIS_PASSWORD"`
	DB           int           `envconfig:"LIBRARIAN_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"LIBRARIAN_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"LIBRARIAN_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"LIBRARIAN_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"LIBRARIAN_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"LIBRARIAN_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"LIBRARIAN_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"LIBRARIAN_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"LIBRARIAN_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"LIBRARIAN_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"LIBRARIAN_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"LIBRARIAN_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"LIBRARIAN_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"LIBRARIAN_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"LIBRARIAN_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow     time.Duration `envconfig:"LIBRARIAN_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit int           `envconfig:"LIBRARIAN_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit    int           `envconfig:"LIBRARIAN_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
}

// CirculationConfig carries lending policy knobs.
type CirculationConfig struct {
	// FineDailyRate is the charge per day a return is late, in currency units.
	FineDailyRate string `envconfig:"LIBRARIAN_FINE_DAILY_RATE" default:"1.00"`
	// DefaultLoanDays fills the due date when the caller omits one.
	DefaultLoanDays int `envconfig:"LIBRARIAN_DEFAULT_LOAN_DAYS" default:"14"`
}

// DailyRate parses the configured per-day fine into a decimal.
func (c CirculationConfig) DailyRate() decimal.Decimal {
	rate, err := decimal.NewFromString(c.FineDailyRate)
	if err != nil {
		return decimal.NewFromInt(1)
	}
	return rate
}

func (c CirculationConfig) validate() error {
	rate, err := decimal.NewFromString(c.FineDailyRate)
	if err != nil {
		return fmt.Errorf("invalid fine daily rate %q: %w", c.FineDailyRate, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("fine daily rate cannot be negative")
	}
	if c.DefaultLoanDays <= 0 {
		return fmt.Errorf("default loan days must be positive")
	}
	return nil
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"LIBRARIAN_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"LIBRARIAN_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"LIBRARIAN_AUTO_MIGRATE" default:"false"`
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

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
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	Settlement   SettlementConfig
	Worker       WorkerConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Settlement.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SMARTWISH_APP_ENV" required:"true"`
	Port         string `envconfig:"SMARTWISH_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SMARTWISH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SMARTWISH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"SMARTWISH_DB_DSN"`
	Driver string `envconfig:"SMARTWISH_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SMARTWISH_DB_HOST"`
	LegacyPort     int    `envconfig:"SMARTWISH_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SMARTWISH_DB_USER"`
	LegacyPassword string `envconfig:"SMARTWISH_DB_PASSWORD"`
	LegacyName     string `envconfig:"SMARTWISH_DB_NAME"`
	LegacySSLMode  string `envconfig:"SMARTWISH_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SMARTWISH_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SMARTWISH_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SMARTWISH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SMARTWISH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SMARTWISH_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SMARTWISH_REDIS_ADDR"`
	Password     string        `envconfig:"SMARTWISH_REDIS_PASSWORD"`
	DB           int           `envconfig:"SMARTWISH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SMARTWISH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SMARTWISH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SMARTWISH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SMARTWISH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SMARTWISH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SMARTWISH_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SMARTWISH_AUTO_MIGRATE" default:"false"`
}

// SettlementConfig carries the rate constants the calculator needs. Percent
// values are expressed as human percentages ("2.9" means 2.9%).
type SettlementConfig struct {
	CardFeePercentRaw         string        `envconfig:"SMARTWISH_CARD_FEE_PERCENT" default:"2.9"`
	CardFeeFixedRaw           string        `envconfig:"SMARTWISH_CARD_FEE_FIXED" default:"0.30"`
	DefaultManagerRatePercent string        `envconfig:"SMARTWISH_DEFAULT_MANAGER_RATE_PERCENT" default:"20"`
	ClaimTTL                  time.Duration `envconfig:"SMARTWISH_SETTLEMENT_CLAIM_TTL" default:"720h"`

	cardFeePercent     decimal.Decimal
	cardFeeFixed       decimal.Decimal
	defaultManagerRate decimal.Decimal
}

func (s *SettlementConfig) validate() error {
	var err error
	if s.cardFeePercent, err = decimal.NewFromString(s.CardFeePercentRaw); err != nil {
		return fmt.Errorf("parsing card fee percent %q: %w", s.CardFeePercentRaw, err)
	}
	if s.cardFeeFixed, err = decimal.NewFromString(s.CardFeeFixedRaw); err != nil {
		return fmt.Errorf("parsing card fee fixed %q: %w", s.CardFeeFixedRaw, err)
	}
	if s.defaultManagerRate, err = decimal.NewFromString(s.DefaultManagerRatePercent); err != nil {
		return fmt.Errorf("parsing default manager rate %q: %w", s.DefaultManagerRatePercent, err)
	}
	if s.cardFeePercent.IsNegative() || s.cardFeeFixed.IsNegative() || s.defaultManagerRate.IsNegative() {
		return fmt.Errorf("settlement rates must be non-negative")
	}
	return nil
}

// CardFeePercent returns the card processor's percentage fee.
func (s SettlementConfig) CardFeePercent() decimal.Decimal {
	return s.cardFeePercent
}

// CardFeeFixed returns the card processor's fixed per-charge fee.
func (s SettlementConfig) CardFeeFixed() decimal.Decimal {
	return s.cardFeeFixed
}

// DefaultManagerRate returns the manager rate applied when a kiosk has no
// explicit assignment rate.
func (s SettlementConfig) DefaultManagerRate() decimal.Decimal {
	return s.defaultManagerRate
}

type WorkerConfig struct {
	BatchSize      int `envconfig:"SMARTWISH_WORKER_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SMARTWISH_WORKER_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SMARTWISH_WORKER_MAX_ATTEMPTS" default:"10"`
}

func (w WorkerConfig) PollInterval() time.Duration {
	if w.PollIntervalMS <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(w.PollIntervalMS) * time.Millisecond
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

package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

type Config struct {
	// Storage
	StoreDriver string `env:"STORE_DRIVER" envDefault:"postgres"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      string `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER" envDefault:"postgres"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME" envDefault:"questlog"`
	DBSSLMode   string `env:"DB_SSLMODE" envDefault:"disable"`

	// JWT
	JWTSecret        string        `env:"JWT_SECRET"`
	JWTAccessExpiry  time.Duration `env:"JWT_ACCESS_EXPIRY" envDefault:"15m"`
	JWTRefreshExpiry time.Duration `env:"JWT_REFRESH_EXPIRY" envDefault:"168h"`

	// Progression
	XPPerLevel    int    `env:"XP_PER_LEVEL" envDefault:"100"`
	XPAwardPolicy string `env:"XP_AWARD_POLICY" envDefault:"flat"`
	XPAwardFlat   int    `env:"XP_AWARD_FLAT" envDefault:"10"`

	// Catalog
	CatalogPath      string `env:"CATALOG_PATH" envDefault:"catalog.yaml"`
	SeedOnStart      bool   `env:"SEED_ON_START" envDefault:"true"`
	QuestCacheSize   int    `env:"QUEST_CACHE_SIZE" envDefault:"512"`
	SystemEmail      string `env:"SYSTEM_ACCOUNT_EMAIL" envDefault:"system@questlog.local"`
	SystemAccountOff bool   `env:"SYSTEM_ACCOUNT_DISABLED" envDefault:"false"`

	// Admin
	AdminEmails []string `env:"ADMIN_EMAILS" envSeparator:","`
	AdminToken  string   `env:"ADMIN_TOKEN"`

	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
	SentryDSN   string `env:"SENTRY_DSN"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogRetain   int    `env:"LOG_RETENTION_DAYS" envDefault:"30"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.DBPassword == "" {
			return errors.New("DB_PASSWORD environment variable is required")
		}
	case StoreDriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.XPPerLevel <= 0 {
		return errors.New("XP_PER_LEVEL must be positive")
	}
	if c.XPAwardFlat <= 0 {
		return errors.New("XP_AWARD_FLAT must be positive")
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

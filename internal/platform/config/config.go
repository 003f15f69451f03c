// Package config loads process configuration from the environment (with an
// optional .env overlay), matching the teacher's caarlos0/env/v11 +
// joho/godotenv convention (internal/config, internal/platform/config).
package config

import (
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is the full set of recognized environment variables (spec.md §6).
type Config struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	DatabaseURL      string `env:"DATABASE_URL,required"`
	DatabaseURLAsync string `env:"DATABASE_URL_ASYNC"`

	TelegramAPIID   int    `env:"TELEGRAM_API_ID,required"`
	TelegramAPIHash string `env:"TELEGRAM_API_HASH,required"`
	TGPhone         string `env:"TG_PHONE"`
	TG2FAPassword   string `env:"TG_2FA_PASSWORD"`
	TGSessionPath   string `env:"TG_SESSION_PATH" envDefault:"./tg.session"`

	DefaultChannels []string `env:"DEFAULT_CHANNELS" envSeparator:","`

	SecretSalt string `env:"SECRET_SALT,required"`

	PublicDashboardEnabled bool   `env:"PUBLIC_DASHBOARD_ENABLED" envDefault:"false"`
	FrontendURL            string `env:"FRONTEND_URL" envDefault:""`

	EnvFilePath  string `env:"ENV_FILE_PATH" envDefault:".env"`
	UserFilePath string `env:"USER_FILE_PATH" envDefault:"./users.json"`
	FailLogDir   string `env:"FAIL_LOG_DIR" envDefault:"./data"`

	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8000"`

	DedupScheduleCron string `env:"DEDUP_SCHEDULE_CRON" envDefault:"*/10 * * * *"`

	HealthPort int `env:"HEALTH_PORT" envDefault:"8080"`
}

// Load parses Config from the environment, overlaying a .env file when
// present (godotenv.Load is a no-op error we ignore, matching the teacher).
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ResolvedAsyncDSN resolves the async driver DSN: the explicit override when
// set, otherwise the sync DSN with its scheme swapped (spec.md §6).
func (c *Config) ResolvedAsyncDSN() string {
	if c.DatabaseURLAsync != "" {
		return c.DatabaseURLAsync
	}

	return swapScheme(c.DatabaseURL, "postgresql+asyncpg")
}

func swapScheme(dsn, scheme string) string {
	idx := indexScheme(dsn)
	if idx < 0 {
		return dsn
	}

	return scheme + dsn[idx:]
}

func indexScheme(dsn string) int {
	for i := 0; i < len(dsn); i++ {
		if dsn[i] == ':' {
			return i
		}
	}

	return -1
}

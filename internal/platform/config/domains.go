package config

// DatabaseConfig holds relational store connection settings.
type DatabaseConfig struct {
	DSN      string
	AsyncDSN string
}

// DatabaseCfg returns the database configuration extracted from Config.
func (c *Config) DatabaseCfg() DatabaseConfig {
	return DatabaseConfig{DSN: c.DatabaseURL, AsyncDSN: c.ResolvedAsyncDSN()}
}

// TelegramMTProtoConfig holds Telegram MTProto API settings.
type TelegramMTProtoConfig struct {
	APIID       int
	APIHash     string
	Phone       string
	Password2FA string
	SessionPath string
}

// TelegramMTProtoCfg returns the Telegram MTProto configuration.
func (c *Config) TelegramMTProtoCfg() TelegramMTProtoConfig {
	return TelegramMTProtoConfig{
		APIID:       c.TelegramAPIID,
		APIHash:     c.TelegramAPIHash,
		Phone:       c.TGPhone,
		Password2FA: c.TG2FAPassword,
		SessionPath: c.TGSessionPath,
	}
}

// DashboardConfig holds the public guest-dashboard toggle and the frontend
// origin used for CORS.
type DashboardConfig struct {
	PublicEnabled bool
	FrontendURL   string
}

// DashboardCfg returns the dashboard configuration.
func (c *Config) DashboardCfg() DashboardConfig {
	return DashboardConfig{PublicEnabled: c.PublicDashboardEnabled, FrontendURL: c.FrontendURL}
}

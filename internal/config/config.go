// Package config provides centralized configuration management for the application.
// It loads configuration from environment variables with sensible defaults and
// validates all settings on startup to fail fast on misconfiguration.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
	Session  SessionConfig
	Export   ExportConfig
	Checkin  CheckinConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds record store connection settings.
type DatabaseConfig struct {
	// Driver selects the record store: postgres or sqlite (default: postgres)
	Driver string `env:"DB_DRIVER" default:"postgres"`

	// URL is the connection string (required). For sqlite this is a file path
	// or a "file:" URI. Supports both DATABASE_URL and DB_URL env vars.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of connections in the pool (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the maximum idle time before a connection is closed (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`

	// FetchTimeout bounds a single snapshot fetch (default: 10s)
	FetchTimeout time.Duration `env:"DB_FETCH_TIMEOUT" default:"10s"`

	// Migrate creates the schema on startup when true (default: true)
	Migrate bool `env:"DB_MIGRATE" default:"true"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	// Enabled controls whether rate limiting is active (default: true)
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute is the sustained rate per IP (default: 120)
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// Burst is the number of requests allowed above the sustained rate (default: 20)
	Burst int `env:"RATE_LIMIT_BURST" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of trusted proxy CIDRs
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	// EnableCSP enables Content-Security-Policy headers (default: true)
	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`

	// RequireAPIKey protects admin routes with an X-API-Key header (default: false)
	RequireAPIKey bool `env:"REQUIRE_API_KEY" default:"false"`

	// APIKeys is a comma-separated list of accepted admin API keys
	APIKeys []string `env:"API_KEYS"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// SessionConfig holds curation session settings.
type SessionConfig struct {
	// TTL is how long an idle curation session is kept (default: 30m)
	TTL time.Duration `env:"SESSION_TTL" default:"30m"`

	// CleanupInterval is how often expired sessions are evicted (default: 5m)
	CleanupInterval time.Duration `env:"SESSION_CLEANUP_INTERVAL" default:"5m"`

	// CookieName names the cookie carrying the session ID (default: curation_session)
	CookieName string `env:"SESSION_COOKIE_NAME" default:"curation_session"`
}

// ExportConfig holds scheduled snapshot export settings.
type ExportConfig struct {
	// Dir is where scheduled exports are written (default: exports)
	Dir string `env:"EXPORT_DIR" default:"exports"`

	// Schedule is a cron expression; empty disables scheduled exports
	Schedule string `env:"EXPORT_SCHEDULE"`

	// Tables lists the tables exported on schedule (default: users,events)
	Tables []string `env:"EXPORT_TABLES" default:"users,events"`

	// MaxConcurrent caps exports running at once (default: 4)
	MaxConcurrent int `env:"EXPORT_MAX_CONCURRENT" default:"4"`

	// Wait is how long an export queues for a free slot (default: 10s)
	Wait time.Duration `env:"EXPORT_WAIT" default:"10s"`
}

// CheckinConfig holds QR check-in settings.
type CheckinConfig struct {
	// BaseURL is the public origin used in check-in links (default: http://localhost:8080)
	BaseURL string `env:"CHECKIN_BASE_URL" default:"http://localhost:8080"`

	// QRSize is the QR code image edge length in pixels (default: 400)
	QRSize int `env:"CHECKIN_QR_SIZE" default:"400"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	if c.Host == "" {
		return ":" + strconv.Itoa(c.Port)
	}
	return c.Host + ":" + strconv.Itoa(c.Port)
}

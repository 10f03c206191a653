// Package config handles runtime configuration for the journal server:
// development defaults overlaid with environment variables. Command-line
// flags are applied on top by the CLI.
package config

import (
	"os"
	"strconv"
	"time"
)

const (
	// DefaultAdminUsername and DefaultAdminPassword are development-only
	// credentials. main warns loudly when the default password is in use.
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin"

	DefaultDatabasePath = "./journal.db"
	DefaultAddr         = ":8000"
	DefaultSessionTTL   = 7 * 24 * time.Hour
)

// Config holds runtime settings for the journal server.
//
// Fields:
//   - DatabasePath: SQLite database file path.
//   - Addr: HTTP listen address.
//   - AdminUsername / AdminPassword / AdminPasswordHash: the single admin
//     account. When the hash is set it takes precedence and the plaintext is
//     ignored; otherwise the plaintext is hashed once at startup.
//   - SessionSecret: HMAC secret for signing the session cookie. Empty means
//     a random per-process secret.
//   - SessionTTL: session cookie lifetime.
//   - HashIterations / HashSaltLength: PBKDF2 work factor and salt length.
//   - LogFile: rotating log file path; empty logs to console only.
type Config struct {
	DatabasePath      string
	Addr              string
	AdminUsername     string
	AdminPassword     string
	AdminPasswordHash string
	SessionSecret     string
	SessionTTL        time.Duration
	HashIterations    int
	HashSaltLength    int
	LogFile           string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.DatabasePath = DefaultDatabasePath
	c.Addr = DefaultAddr
	c.AdminUsername = DefaultAdminUsername
	c.AdminPassword = DefaultAdminPassword
	c.AdminPasswordHash = ""
	c.SessionSecret = ""
	c.SessionTTL = DefaultSessionTTL
	c.HashIterations = 600000
	c.HashSaltLength = 16
	c.LogFile = ""
}

// Load builds a Config by applying defaults and overlaying values from the
// environment.
func Load() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.loadEnv()
	return cfg
}

func (c *Config) loadEnv() {
	c.DatabasePath = envString("JOURNAL_DB", c.DatabasePath)
	c.Addr = envString("JOURNAL_ADDR", c.Addr)
	c.AdminUsername = envString("JOURNAL_ADMIN_USERNAME", c.AdminUsername)
	c.AdminPassword = envString("JOURNAL_ADMIN_PASSWORD", c.AdminPassword)
	c.AdminPasswordHash = envString("JOURNAL_ADMIN_PASSWORD_HASH", c.AdminPasswordHash)
	c.SessionSecret = envString("JOURNAL_SESSION_SECRET", c.SessionSecret)
	c.SessionTTL = envDuration("JOURNAL_SESSION_TTL", c.SessionTTL)
	c.HashIterations = envInt("JOURNAL_HASH_ITERATIONS", c.HashIterations)
	c.HashSaltLength = envInt("JOURNAL_HASH_SALT_LENGTH", c.HashSaltLength)
	c.LogFile = envString("JOURNAL_LOG_FILE", c.LogFile)
}

// UsingDefaultPassword reports whether the insecure development password is
// still the effective credential.
func (c *Config) UsingDefaultPassword() bool {
	return c.AdminPasswordHash == "" && c.AdminPassword == DefaultAdminPassword
}

func envString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if v, err := strconv.Atoi(val); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil && d > 0 {
			return d
		}
	}
	return defaultVal
}

// Package config handles configuration for the Sentinel Solo engine,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the engine and its CLI shell.
//
// Fields:
//   - DatabaseDSN: SQLite file path (default) or a postgres:// DSN for the
//     shared remote-database mode.
//   - SecretKey: HMAC secret for signing session tokens (HS256).
//   - SessionValidityDuration: lifetime of an issued session token.
//   - S3RootUser / S3RootPassword: credentials for the offsite snapshot
//     bucket (S3-compatible).
//   - S3Bucket / S3Region / S3BaseEndpoint: offsite snapshot settings.
//     Leave S3Bucket empty to disable offsite upload.
type Config struct {
	DatabaseDSN             string
	SecretKey               string
	SessionValidityDuration time.Duration
	S3RootUser              string
	S3RootPassword          string
	S3Bucket                string
	S3Region                string
	S3BaseEndpoint          string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.DatabaseDSN = "sentinel.db"
	c.SecretKey = "secretKey"
	c.SessionValidityDuration = 12 * time.Hour
	c.S3RootUser = "admin"
	c.S3RootPassword = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}

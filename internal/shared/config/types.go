// Package config defines the typed configuration sections shared across the
// application. Loading and defaults live in internal/infrastructure/config.
package config

import (
	"fmt"
	"time"
)

type ServerConfig struct {
	Host           string   `mapstructure:"host"`
	Port           int      `mapstructure:"port"`
	Mode           string   `mapstructure:"mode"`
	BaseURL        string   `mapstructure:"base_url"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func (s *ServerConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Username        string `mapstructure:"username"`
	Password        string `mapstructure:"password"`
	Database        string `mapstructure:"database"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
}

func (d *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		d.Username, d.Password, d.Host, d.Port, d.Database)
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// CookieConfig controls attributes of the cookies the server issues.
type CookieConfig struct {
	Path     string `mapstructure:"path"`
	Domain   string `mapstructure:"domain"`
	Secure   bool   `mapstructure:"secure"`
	SameSite string `mapstructure:"same_site"`
}

// TOTPConfig configures authenticator-app enrollment.
type TOTPConfig struct {
	Issuer string `mapstructure:"issuer"`
}

// WebAuthnConfig configures the relying party identity for passkey ceremonies.
type WebAuthnConfig struct {
	RPID          string   `mapstructure:"rp_id"`
	RPName        string   `mapstructure:"rp_name"`
	RPOrigins     []string `mapstructure:"rp_origins"`
	TimeoutMillis int      `mapstructure:"timeout_millis"`
}

func (w *WebAuthnConfig) IsConfigured() bool {
	return w.RPID != "" && w.RPName != "" && len(w.RPOrigins) > 0
}

// TrustedDeviceConfig controls device-remembering tokens.
type TrustedDeviceConfig struct {
	TTLDays int `mapstructure:"ttl_days"`
}

func (t *TrustedDeviceConfig) TTL() time.Duration {
	return time.Duration(t.TTLDays) * 24 * time.Hour
}

// RateLimitConfig bounds verification attempts per subject and method.
type RateLimitConfig struct {
	MaxAttempts   int `mapstructure:"max_attempts"`
	WindowSeconds int `mapstructure:"window_seconds"`
}

func (r *RateLimitConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// RecoveryCodeConfig controls backup-code batches.
type RecoveryCodeConfig struct {
	BatchSize  int `mapstructure:"batch_size"`
	BcryptCost int `mapstructure:"bcrypt_cost"`
}

// SessionConfig controls how long second-factor session state is retained.
type SessionConfig struct {
	StateTTLHours int `mapstructure:"state_ttl_hours"`
}

func (s *SessionConfig) StateTTL() time.Duration {
	return time.Duration(s.StateTTLHours) * time.Hour
}

// MFAConfig groups all second-factor settings.
type MFAConfig struct {
	TOTP          TOTPConfig          `mapstructure:"totp"`
	WebAuthn      WebAuthnConfig      `mapstructure:"webauthn"`
	TrustedDevice TrustedDeviceConfig `mapstructure:"trusted_device"`
	RateLimit     RateLimitConfig     `mapstructure:"rate_limit"`
	RecoveryCodes RecoveryCodeConfig  `mapstructure:"recovery_codes"`
	Session       SessionConfig       `mapstructure:"session"`
}

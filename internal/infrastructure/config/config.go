package config

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/viper"

	sharedConfig "github.com/inkwell-press/inkwell/internal/shared/config"
)

type Config struct {
	Server   sharedConfig.ServerConfig   `mapstructure:"server"`
	Database sharedConfig.DatabaseConfig `mapstructure:"database"`
	Logger   sharedConfig.LoggerConfig   `mapstructure:"logger"`
	Redis    sharedConfig.RedisConfig    `mapstructure:"redis"`
	Cookie   sharedConfig.CookieConfig   `mapstructure:"cookie"`
	MFA      sharedConfig.MFAConfig      `mapstructure:"mfa"`
}

var (
	appConfig   *Config
	appConfigMu sync.RWMutex
)

// Load loads configuration from file and environment variables
func Load(env string) (*Config, error) {
	// Load single config file
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../configs")
	viper.AddConfigPath("../../configs")

	// Set environment variable prefix and replacer
	viper.SetEnvPrefix("INKWELL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Allow env parameter to override server mode if provided
	if env != "" && env != "default" {
		viper.Set("server.mode", env)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	appConfigMu.Lock()
	appConfig = &config
	appConfigMu.Unlock()

	return &config, nil
}

// Get returns the loaded configuration
func Get() *Config {
	appConfigMu.RLock()
	defer appConfigMu.RUnlock()
	return appConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "debug")
	viper.SetDefault("server.base_url", "http://localhost:8080")

	// Database defaults
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.username", "root")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.database", "inkwell_dev")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("database.conn_max_lifetime", 60)

	// Logger defaults
	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.format", "console")
	viper.SetDefault("logger.output_path", "stdout")

	// Redis defaults
	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", 6379)
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	// Cookie defaults
	viper.SetDefault("cookie.path", "/")
	viper.SetDefault("cookie.domain", "")
	viper.SetDefault("cookie.secure", true)
	viper.SetDefault("cookie.same_site", "Lax")

	// TOTP defaults
	viper.SetDefault("mfa.totp.issuer", "Inkwell")

	// WebAuthn defaults (RP identity must be configured per deployment)
	viper.SetDefault("mfa.webauthn.rp_id", "")
	viper.SetDefault("mfa.webauthn.rp_name", "Inkwell")
	viper.SetDefault("mfa.webauthn.rp_origins", []string{})
	viper.SetDefault("mfa.webauthn.timeout_millis", 60000)

	// Trusted device defaults
	viper.SetDefault("mfa.trusted_device.ttl_days", 30)

	// Rate limit defaults
	viper.SetDefault("mfa.rate_limit.max_attempts", 5)
	viper.SetDefault("mfa.rate_limit.window_seconds", 300)

	// Recovery code defaults
	viper.SetDefault("mfa.recovery_codes.batch_size", 10)
	viper.SetDefault("mfa.recovery_codes.bcrypt_cost", 10)

	// Session state defaults
	viper.SetDefault("mfa.session.state_ttl_hours", 24)
}

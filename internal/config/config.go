// Package config loads engine configuration from YAML plus environment
// overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Rates    RatesConfig    `mapstructure:"rates"`
	Travel   TravelConfig   `mapstructure:"travel"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds sqlite configuration.
type DatabaseConfig struct {
	Path            string        `mapstructure:"path"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationsDir   string        `mapstructure:"migrations_dir"`
}

// RatesConfig holds the external per-diem rate authority configuration
// and the fallback rates used when it is unreachable.
type RatesConfig struct {
	AuthorityBaseURL     string        `mapstructure:"authority_base_url"`
	AuthorityAPIKey      string        `mapstructure:"authority_api_key"`
	AuthorityTimeout     time.Duration `mapstructure:"authority_timeout"`
	CacheTTL             time.Duration `mapstructure:"cache_ttl"`
	FallbackMIECents     int64         `mapstructure:"fallback_mie_cents"`
	FallbackLodgingCents int64         `mapstructure:"fallback_lodging_cents"`
}

// TravelConfig holds travel-policy values that change by fiscal year and
// are therefore configuration, not code.
type TravelConfig struct {
	MileageRateCents int64 `mapstructure:"mileage_rate_cents"`
}

// LoggerConfig holds logger configuration.
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	bindEnvVars()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 30*time.Second)

	viper.SetDefault("database.path", "data/tdy.db")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", 5*time.Minute)
	viper.SetDefault("database.migrations_dir", "migrations")

	viper.SetDefault("rates.authority_timeout", 10*time.Second)
	viper.SetDefault("rates.cache_ttl", 30*24*time.Hour)
	// Standard CONUS default rates, in cents.
	viper.SetDefault("rates.fallback_mie_cents", 5900)
	viper.SetDefault("rates.fallback_lodging_cents", 9800)

	// POV mileage rate, cents per mile.
	viper.SetDefault("travel.mileage_rate_cents", 67)

	viper.SetDefault("logger.level", "info")
	viper.SetDefault("logger.output_path", "stdout")
	viper.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration.
func bindEnvVars() {
	viper.BindEnv("rates.authority_base_url", "RATE_AUTHORITY_BASE_URL")
	viper.BindEnv("rates.authority_api_key", "RATE_AUTHORITY_API_KEY")
	viper.BindEnv("database.path", "DATABASE_PATH")
}

// Validate validates the configuration. The rate authority key is allowed
// to be empty: the resolver then always uses the fallback rates, which is
// the intended degraded mode, not a misconfiguration.
func (c *Config) Validate() error {
	if c.Travel.MileageRateCents <= 0 {
		return fmt.Errorf("travel.mileage_rate_cents must be positive")
	}
	if c.Rates.FallbackMIECents <= 0 || c.Rates.FallbackLodgingCents <= 0 {
		return fmt.Errorf("rates fallback values must be positive")
	}
	if c.Rates.AuthorityAPIKey != "" && c.Rates.AuthorityBaseURL == "" {
		return fmt.Errorf("rates.authority_base_url is required when an API key is set")
	}
	return nil
}

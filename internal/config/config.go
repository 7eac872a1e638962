// internal/config/config.go
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
	HTTPAddr         string        `mapstructure:"HTTP_ADDR"`
	DBURL            string        `mapstructure:"DB_URL"`
	GithubAPIURL     string        `mapstructure:"GITHUB_API_URL"`
	UserAgent        string        `mapstructure:"USER_AGENT"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	BatchConcurrency int           `mapstructure:"BATCH_CONCURRENCY"`
	HistoryLimitMax  int           `mapstructure:"HISTORY_LIMIT_MAX"`
}

// LoadConfig reads configuration from file and/or environment variables.
func LoadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DB_URL", "")
	v.SetDefault("GITHUB_API_URL", "https://api.github.com/")
	v.SetDefault("USER_AGENT", "IndieGameHub-RepoCheck")
	v.SetDefault("REQUEST_TIMEOUT", "10s")
	v.SetDefault("BATCH_CONCURRENCY", 5)
	v.SetDefault("HISTORY_LIMIT_MAX", 100)

	// Load from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // Ignore error if file not found

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.DBURL == "" {
		return errors.New("DB_URL is a required configuration field")
	}
	if c.GithubAPIURL == "" {
		return errors.New("GITHUB_API_URL must not be empty")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be a positive duration (e.g. 10s)")
	}
	if c.BatchConcurrency <= 0 {
		return errors.New("BATCH_CONCURRENCY must be at least 1")
	}
	if c.HistoryLimitMax <= 0 {
		return errors.New("HISTORY_LIMIT_MAX must be at least 1")
	}
	return nil
}

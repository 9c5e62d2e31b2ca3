// Package config loads service settings from app.env and the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every setting of the tracking service.
type Config struct {
	ServerPort   string `mapstructure:"SERVER_PORT"`
	DatabaseURL  string `mapstructure:"DATABASE_URL"`
	JWTSecret    string `mapstructure:"JWT_SECRET"`
	ClientOrigin string `mapstructure:"CLIENT_ORIGIN"`

	// Maps provider (geocoding + directions). An empty key disables ETA.
	MapsAPIKey      string        `mapstructure:"MAPS_API_KEY"`
	MapsBaseURL     string        `mapstructure:"MAPS_BASE_URL"`
	ProviderTimeout time.Duration `mapstructure:"PROVIDER_TIMEOUT"`

	// Optional event mirror.
	KafkaBrokers string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string `mapstructure:"KAFKA_TOPIC"`

	// Optional status e-mails through SES.
	AWSRegion    string `mapstructure:"AWS_REGION"`
	SESFromEmail string `mapstructure:"SES_FROM_EMAIL"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
}

var defaults = map[string]any{
	"SERVER_PORT":      "8080",
	"DATABASE_URL":     "",
	"JWT_SECRET":       "",
	"CLIENT_ORIGIN":    "http://localhost:5173",
	"MAPS_API_KEY":     "",
	"MAPS_BASE_URL":    "https://rsapi.goong.io",
	"PROVIDER_TIMEOUT": "5s",
	"KAFKA_BROKERS":    "",
	"KAFKA_TOPIC":      "order.tracking",
	"AWS_REGION":       "",
	"SES_FROM_EMAIL":   "",
	"LOG_LEVEL":        "info",
	"LOG_FORMAT":       "json",
}

// LoadConfig reads app.env from path when it exists and overlays
// environment variables on top of it.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config.LoadConfig: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config.LoadConfig unmarshal: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return errors.New("config: DATABASE_URL is required")
	}
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("config: PROVIDER_TIMEOUT must be positive, got %s", c.ProviderTimeout)
	}
	return nil
}

// Brokers splits KAFKA_BROKERS into addresses. Empty means mirroring is off.
func (c *Config) Brokers() []string {
	var out []string
	for _, b := range strings.Split(c.KafkaBrokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

// EmailEnabled reports whether status e-mails can be sent.
func (c *Config) EmailEnabled() bool {
	return c.AWSRegion != "" && c.SESFromEmail != ""
}

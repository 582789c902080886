package otel

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// Config holds OTEL exporter configuration.
type Config struct {
	Endpoint string `envconfig:"OTEL_ENDPOINT"`
	Enabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	Insecure bool   `envconfig:"OTEL_INSECURE" default:"false"`
}

// LoadConfig loads OTEL configuration from VIABILITY_OTEL_* environment variables.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process("VIABILITY", &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to load otel config: %w", err)
	}
	return cfg, nil
}

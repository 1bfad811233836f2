package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Server configuration
	Server struct {
		// Port the HTTP API listens on
		Port string `env:"SERVER_PORT" envDefault:"5250"`

		// Allowed CORS origins, comma separated
		AllowedOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

		// Maximum accepted upload size in bytes
		MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`
	}

	// Session configuration
	Sessions struct {
		// How long an idle session table is kept in memory (in minutes)
		TTLMinutes int `env:"SESSION_TTL_MINUTES" envDefault:"120"`

		// Interval between expiry sweeps (in minutes)
		SweepIntervalMinutes int `env:"SESSION_SWEEP_MINUTES" envDefault:"10"`
	}

	// CRM lead lookup configuration
	CRM struct {
		// Base URL of the CRM API; lead enrichment is disabled when empty
		BaseURL string `env:"CRM_BASE_URL"`

		// API key for the CRM API
		APIKey string `env:"CRM_API_KEY"`

		// Delay between per-record lead lookups (in milliseconds)
		LookupDelayMillis int `env:"CRM_LOOKUP_DELAY_MS" envDefault:"250"`

		// HTTP client timeout for CRM requests (in seconds)
		TimeoutSeconds int `env:"CRM_TIMEOUT_SECONDS" envDefault:"10"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

package config

import "github.com/caarlos0/env/v6"

type Config struct {
	// Server configuration for the dashboard API
	Server struct {
		// Port the dashboard API listens on
		Port string `env:"SERVER_PORT" envDefault:"5250"`

		// Origins allowed to call the API from a browser
		CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	}

	// Engine is the external valuation engine API
	Engine struct {
		// Base URL of the engine's REST API
		BaseURL string `env:"ENGINE_BASE_URL" envDefault:"http://localhost:8000/api"`

		// Request timeout in seconds
		Timeout int `env:"ENGINE_TIMEOUT" envDefault:"15"`
	}

	// Monitor controls CEP status polling
	Monitor struct {
		// Seconds between status polls
		PollInterval int `env:"MONITOR_POLL_INTERVAL" envDefault:"5"`

		// Keep polling even when no record is pending or processing
		KeepAlive bool `env:"MONITOR_KEEP_ALIVE" envDefault:"false"`
	}

	// Market controls the properties view
	Market struct {
		// Comparables search radius around the region center, in meters
		RadiusMeters float64 `env:"MARKET_RADIUS_METERS" envDefault:"500"`
	}

	// Autocomplete controls the address search passthrough
	Autocomplete struct {
		// Queries shorter than this return no suggestions
		MinQueryLength int `env:"AUTOCOMPLETE_MIN_QUERY" envDefault:"2"`

		// Suggestion count requested when the client sends no limit
		DefaultLimit int `env:"AUTOCOMPLETE_LIMIT" envDefault:"5"`
	}

	// Database is the local snapshot store
	Database struct {
		// Path to the sqlite file
		Path string `env:"DATABASE_PATH" envDefault:"database/cepradar.db"`
	}
}

func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

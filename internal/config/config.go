// Package config loads service configuration from the environment.
package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all runtime configuration for the ChatRizz backend
type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE" default:"chatrizz.log"`

	DatabaseURL string `envconfig:"DATABASE_URL"`
	DBHost      string `envconfig:"DB_HOST" default:"localhost"`
	DBPort      string `envconfig:"DB_PORT" default:"5432"`
	DBUser      string `envconfig:"DB_USER" default:"postgres"`
	DBPassword  string `envconfig:"DB_PASSWORD"`
	DBName      string `envconfig:"DB_NAME" default:"chatrizz"`
	DBSSLMode   string `envconfig:"DB_SSLMODE" default:"disable"`

	RedisHost     string `envconfig:"REDIS_HOST"`
	RedisPort     string `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`

	JWTSecret   string        `envconfig:"JWT_SECRET" required:"true"`
	TokenExpiry time.Duration `envconfig:"TOKEN_EXPIRY" default:"168h"`

	// Translation provider (LibreTranslate-compatible HTTP API)
	TranslateURL     string        `envconfig:"TRANSLATE_URL"`
	TranslateAPIKey  string        `envconfig:"TRANSLATE_API_KEY"`
	TranslateTimeout time.Duration `envconfig:"TRANSLATE_TIMEOUT" default:"5s"`

	// Tracing
	TracingEnabled  bool    `envconfig:"TRACING_ENABLED" default:"false"`
	OTLPEndpoint    string  `envconfig:"OTLP_ENDPOINT" default:"localhost:4318"`
	TraceSampleRate float64 `envconfig:"TRACE_SAMPLE_RATE" default:"1.0"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

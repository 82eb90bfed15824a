package config

import (
	"fmt"
	"slices"
	"time"

	pkgconfig "github.com/Lava-10/knowMoreQR/pkg/config"
	"github.com/Lava-10/knowMoreQR/pkg/database"
	"github.com/Lava-10/knowMoreQR/pkg/tracing"
)

// ServiceName identifies this service in logs, metrics, traces and events.
const ServiceName = "wishlist-service"

const defaultJWTSecret = "change-this-to-a-secure-secret"

// Catalog lookup backends.
const (
	LookupScan          = "scan"
	LookupElasticsearch = "elasticsearch"
)

// Config holds all configuration for the wishlist service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort       int           `env:"HTTP_PORT" envDefault:"8080"`
	RequestTimeout time.Duration `env:"HTTP_REQUEST_TIMEOUT" envDefault:"45s"`

	Postgres database.PostgresConfig
	Redis    database.RedisConfig
	Tracing  tracing.Config

	RunMigrations      bool          `env:"DB_RUN_MIGRATIONS" envDefault:"true"`
	SlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"500ms"`

	// Catalog
	CatalogCacheEnabled bool          `env:"CATALOG_CACHE_ENABLED" envDefault:"true"`
	CatalogCacheTTL     time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"10m"`
	CatalogLookup       string        `env:"CATALOG_LOOKUP" envDefault:"scan"`
	ElasticsearchURL    string        `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex  string        `env:"ELASTICSEARCH_INDEX" envDefault:"knowmoreqr_tags"`
	ReindexOnStart      bool          `env:"ELASTICSEARCH_REINDEX_ON_START" envDefault:"false"`

	// Kafka
	KafkaBrokers       []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" envDefault:"wishlist-service"`

	// Language model (OpenAI-compatible chat completions)
	LLMAPIKey      string        `env:"OPENAI_API_KEY"`
	LLMBaseURL     string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel       string        `env:"OPENAI_MODEL" envDefault:"gpt-3.5-turbo"`
	LLMTemperature float64       `env:"LLM_TEMPERATURE" envDefault:"0.1"`
	LLMMaxTokens   int           `env:"LLM_MAX_TOKENS" envDefault:"150"`
	LLMTimeout     time.Duration `env:"LLM_TIMEOUT" envDefault:"30s"`

	// JWT
	JWTSecret string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTIssuer string `env:"JWT_ISSUER"`

	// Command endpoint rate limit, per user
	CommandRatePerMinute int `env:"COMMAND_RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	CommandRateBurst     int `env:"COMMAND_RATE_LIMIT_BURST" envDefault:"10"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load(opts ...pkgconfig.Option) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, opts...); err != nil {
		return nil, fmt.Errorf("load wishlist config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	cfg.Tracing.ServiceName = ServiceName
	cfg.Tracing.ServiceVersion = "0.1.0"
	cfg.Tracing.Environment = cfg.Environment
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.Postgres.Host == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.Tracing.SampleRate)
	}
	if !slices.Contains([]string{LookupScan, LookupElasticsearch}, c.CatalogLookup) {
		return fmt.Errorf("CATALOG_LOOKUP must be %q or %q, got %q", LookupScan, LookupElasticsearch, c.CatalogLookup)
	}
	if c.CatalogCacheEnabled && c.CatalogCacheTTL <= 0 {
		return fmt.Errorf("CATALOG_CACHE_TTL must be positive, got %s", c.CatalogCacheTTL)
	}

	// The parser prompt only works with near-deterministic, short answers.
	if c.LLMTemperature < 0 || c.LLMTemperature > 0.2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0.0 and 0.2, got %g", c.LLMTemperature)
	}
	if c.LLMMaxTokens < 1 || c.LLMMaxTokens > 150 {
		return fmt.Errorf("LLM_MAX_TOKENS must be between 1 and 150, got %d", c.LLMMaxTokens)
	}
	if c.LLMTimeout <= 0 || c.LLMTimeout >= c.RequestTimeout {
		return fmt.Errorf("LLM_TIMEOUT (%s) must be positive and below HTTP_REQUEST_TIMEOUT (%s)", c.LLMTimeout, c.RequestTimeout)
	}

	if c.CommandRatePerMinute < 1 || c.CommandRateBurst < 1 {
		return fmt.Errorf("command rate limit must be positive, got %d/min burst %d", c.CommandRatePerMinute, c.CommandRateBurst)
	}

	// In non-development environments, require an explicitly set, strong JWT secret.
	if c.Environment != "development" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be explicitly set via environment variable in %q mode", c.Environment)
		}
		if len(c.JWTSecret) < 32 {
			return fmt.Errorf("JWT_SECRET must be at least 32 characters long, got %d", len(c.JWTSecret))
		}
	}
	return nil
}

// LLMEnabled reports whether an API key was configured for the language model.
func (c *Config) LLMEnabled() bool {
	return c.LLMAPIKey != ""
}

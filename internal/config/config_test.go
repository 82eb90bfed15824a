package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgconfig "github.com/Lava-10/knowMoreQR/pkg/config"
)

func load(t *testing.T, vars map[string]string) (*Config, error) {
	t.Helper()
	return Load(pkgconfig.WithEnvironment(vars))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := load(t, map[string]string{})

	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "localhost", cfg.Postgres.Host)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr())
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, LookupScan, cfg.CatalogLookup)
	assert.Equal(t, "gpt-3.5-turbo", cfg.LLMModel)
	assert.Equal(t, 0.1, cfg.LLMTemperature)
	assert.Equal(t, 150, cfg.LLMMaxTokens)
	assert.Equal(t, 30*time.Second, cfg.LLMTimeout)
	assert.False(t, cfg.LLMEnabled())
	assert.Equal(t, ServiceName, cfg.Tracing.ServiceName)
	assert.Equal(t, "development", cfg.Tracing.Environment)
}

func TestLoad_Overrides(t *testing.T) {
	cfg, err := load(t, map[string]string{
		"HTTP_PORT":         "9090",
		"POSTGRES_HOST":     "db.internal",
		"KAFKA_BROKERS":     "k1:9092,k2:9092",
		"CATALOG_LOOKUP":    "elasticsearch",
		"OPENAI_API_KEY":    "sk-test",
		"CATALOG_CACHE_TTL": "1m",
	})

	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, LookupElasticsearch, cfg.CatalogLookup)
	assert.Equal(t, time.Minute, cfg.CatalogCacheTTL)
	assert.True(t, cfg.LLMEnabled())
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"port", map[string]string{"HTTP_PORT": "0"}, "invalid HTTP port"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2.0"}, "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
		{"lookup", map[string]string{"CATALOG_LOOKUP": "sql"}, "CATALOG_LOOKUP must be"},
		{"temperature", map[string]string{"LLM_TEMPERATURE": "0.7"}, "LLM_TEMPERATURE"},
		{"max tokens", map[string]string{"LLM_MAX_TOKENS": "500"}, "LLM_MAX_TOKENS"},
		{"llm timeout", map[string]string{"LLM_TIMEOUT": "60s"}, "LLM_TIMEOUT"},
		{"rate", map[string]string{"COMMAND_RATE_LIMIT_BURST": "0"}, "command rate limit"},
		{"cache ttl", map[string]string{"CATALOG_CACHE_TTL": "0s"}, "CATALOG_CACHE_TTL"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := load(t, tc.vars)
			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestLoad_ProductionRequiresStrongJWTSecret(t *testing.T) {
	_, err := load(t, map[string]string{"ENVIRONMENT": "production"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET must be explicitly set")

	_, err = load(t, map[string]string{"ENVIRONMENT": "production", "JWT_SECRET": "short"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least 32 characters")

	cfg, err := load(t, map[string]string{
		"ENVIRONMENT": "production",
		"JWT_SECRET":  "0123456789abcdef0123456789abcdef",
	})
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Tracing.Environment)
}

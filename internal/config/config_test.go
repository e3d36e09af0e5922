package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaults(t *testing.T) {
	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, cfg.Database.WriterDSN, cfg.Database.ReaderDSN)
	assert.Equal(t, "storefront", cfg.Auth.Issuer)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, "/metrics", cfg.Observability.PrometheusPath)
	assert.Equal(t, 1.0, cfg.Observability.TraceSampleRatio)
}

func TestNewNormalisesValues(t *testing.T) {
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("MESSAGING_ENABLED", "false")
	t.Setenv("OBS_LOG_LEVEL", "  DEBUG ")
	t.Setenv("OBS_PROMETHEUS_PATH", "prom")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("DB_WRITER_DSN", "file:test.db")
	t.Setenv("AUTH_TOKEN_TTL", "-1s")
	t.Setenv("KAFKA_BROKERS", "a:9092, ,b:9092")

	cfg, err := New()
	require.NoError(t, err)

	assert.Equal(t, "noop", cfg.Cache.Driver)
	assert.Equal(t, "noop", cfg.Messaging.Driver)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
	assert.Equal(t, "/prom", cfg.Observability.PrometheusPath)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "file:test.db", cfg.Database.ReaderDSN)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Messaging.Kafka.Brokers)
}

func TestNewValidation(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"invalid http port", map[string]string{"HTTP_PORT": "0"}},
		{"empty jwt secret", map[string]string{"AUTH_JWT_SECRET": " "}},
		{"unknown cache driver", map[string]string{"CACHE_DRIVER": "memcached"}},
		{"unknown database driver", map[string]string{"DB_DRIVER": "oracle"}},
		{"empty writer dsn", map[string]string{"DB_WRITER_DSN": ""}},
		{"empty kafka topic", map[string]string{"KAFKA_TOPIC": ""}},
		{"sample ratio out of range", map[string]string{"OBS_TRACE_SAMPLE_RATIO": "1.5"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := New()
			assert.Error(t, err)
		})
	}
}

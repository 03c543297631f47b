package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("HTTP_PORT", "")
	t.Setenv("BACKEND_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("REQUEST_TIMEOUT", "")
	t.Setenv("SESSION_IDLE_TIMEOUT", "")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, "http://localhost:5000", cfg.BackendURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.CookieSecure)
	assert.Equal(t, 30*time.Minute, cfg.SessionIdleTimeout)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("KAFKA_GROUP_ID", "sf-1")
	t.Setenv("SESSION_IDLE_TIMEOUT", "5m")

	cfg := Load(filepath.Join(t.TempDir(), "missing.env"))

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "sf-1", cfg.KafkaGroupID)
	assert.Equal(t, 5*time.Minute, cfg.SessionIdleTimeout)
}

func TestLoad_DotEnvDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("SF_TEST_BACKEND=http://from-file\nLOG_LEVEL=debug\n"), 0o600))

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("SF_TEST_BACKEND", "")
	os.Unsetenv("SF_TEST_BACKEND")

	cfg := Load(envFile)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "http://from-file", os.Getenv("SF_TEST_BACKEND"))
}

func TestGetDuration_Invalid(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")
	assert.Equal(t, 10*time.Second, getDuration("SHUTDOWN_TIMEOUT", 10*time.Second))
}

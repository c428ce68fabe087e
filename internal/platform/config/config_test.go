package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("VH_ENV", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.UsesPostgres())
	assert.Equal(t, "Asia/Singapore", cfg.Report.Location.String())
	assert.Equal(t, "volunteerhub.audit", cfg.Audit.Topic)
	assert.Equal(t, time.Hour, cfg.Auth.DevTokenTTL)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VH_ADDR", ":9090")
	t.Setenv("DATABASE_URL", "postgres://localhost/vh")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REPORT_TIMEZONE", "UTC")
	t.Setenv("VH_REQUEST_TIMEOUT", "3s")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.UsesPostgres())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Audit.KafkaBrokers)
	assert.Equal(t, time.UTC, cfg.Report.Location)
	assert.Equal(t, 3*time.Second, cfg.Server.RequestTimeout)
}

func TestFromEnvRejectsInvalidSettings(t *testing.T) {
	t.Run("unknown time zone", func(t *testing.T) {
		t.Setenv("REPORT_TIMEZONE", "Mars/Olympus")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("production requires signing key", func(t *testing.T) {
		t.Setenv("VH_ENV", "production")
		t.Setenv("JWT_SIGNING_KEY", "")
		_, err := FromEnv()
		assert.Error(t, err)
	})

	t.Run("relay requires postgres", func(t *testing.T) {
		t.Setenv("DATABASE_URL", "")
		t.Setenv("KAFKA_BROKERS", "k1:9092")
		_, err := FromEnv()
		assert.Error(t, err)
	})
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("VH_TEST_ONLY_ADDR=:7070\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("VH_TEST_ONLY_ADDR") })

	_, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7070", os.Getenv("VH_TEST_ONLY_ADDR"))

	_, err = Load(filepath.Join(dir, "missing.env"))
	assert.NoError(t, err)
}

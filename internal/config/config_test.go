package config

import (
	"testing"
	"time"

	"gochurn/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, key := range []string{
		"PORT", "GIN_MODE", "FRONTEND_URL", "METRICS_PORT", "MODEL_STORE", "MODEL_DIR",
		"MODEL_ID", "DATABASE_URL", "HORIZONS", "BATCH_CONCURRENCY", "LOG_LEVEL",
		"READ_TIMEOUT", "WRITE_TIMEOUT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Server.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.Server.FrontendURLs)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, StoreFilesystem, cfg.Store.Kind)
	assert.Equal(t, "./models", cfg.Store.Dir)
	assert.Equal(t, []int{30, 90, 180}, cfg.Inference.Horizons)
	assert.Equal(t, 8, cfg.Inference.BatchConcurrency)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("FRONTEND_URL", "https://app.example.com, https://admin.example.com")
	t.Setenv("HORIZONS", "7,30")
	t.Setenv("MODEL_STORE", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/churn")
	t.Setenv("WRITE_TIMEOUT", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"https://app.example.com", "https://admin.example.com"}, cfg.Server.FrontendURLs)
	assert.Equal(t, []int{7, 30}, cfg.Inference.Horizons)
	assert.Equal(t, StorePostgres, cfg.Store.Kind)
	assert.Equal(t, time.Minute, cfg.Server.WriteTimeout)
}

func TestLoad_PostgresRequiresDatabaseURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_STORE", "postgres")

	_, err := Load()
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
}

func TestLoad_UnknownStore(t *testing.T) {
	clearEnv(t)
	t.Setenv("MODEL_STORE", "s3")

	_, err := Load()
	assert.Error(t, err)
}

func TestParseHorizons(t *testing.T) {
	h, err := ParseHorizons(" 30, 90 ,180,")
	require.NoError(t, err)
	assert.Equal(t, []int{30, 90, 180}, h)

	_, err = ParseHorizons("30,abc")
	assert.Error(t, err)
	_, err = ParseHorizons("-5")
	assert.Error(t, err)
	_, err = ParseHorizons("")
	assert.Error(t, err)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DETECTION_HAMMING_THRESHOLD", "")
	t.Setenv("DETECTION_RETENTION_DAYS", "")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Detection.HammingThreshold)
	assert.Equal(t, 90*24*time.Hour, cfg.Detection.RetentionAge)
	assert.Equal(t, "https://graph.facebook.com", cfg.WhatsApp.APIURL)
	assert.False(t, cfg.WhatsApp.Enabled())
	assert.Equal(t, 16*1024*1024, cfg.Server.BodyLimit)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DETECTION_HAMMING_THRESHOLD", "8")
	t.Setenv("DETECTION_RETENTION_DAYS", "30")
	t.Setenv("WHATSAPP_ACCESS_TOKEN", "token")
	t.Setenv("WHATSAPP_PHONE_NUMBER_ID", "12345")
	t.Setenv("UPLOAD_DIR", "/tmp/proofs")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Detection.HammingThreshold)
	assert.Equal(t, 30*24*time.Hour, cfg.Detection.RetentionAge)
	assert.True(t, cfg.WhatsApp.Enabled())
	assert.Equal(t, "/tmp/proofs", cfg.Storage.UploadDir)
}

func TestLoad_InvalidDetectionValuesFallBack(t *testing.T) {
	t.Setenv("DETECTION_HAMMING_THRESHOLD", "-3")
	t.Setenv("DETECTION_RETENTION_DAYS", "abc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Detection.HammingThreshold)
	assert.Equal(t, 90*24*time.Hour, cfg.Detection.RetentionAge)
}

func TestLoad_DatabasePool(t *testing.T) {
	t.Setenv("DB_MAX_CONNS", "")
	t.Setenv("DB_MIN_CONNS", "")
	t.Setenv("DB_MAX_CONN_IDLE_SECONDS", "")
	t.Setenv("DB_HEALTH_CHECK_SECONDS", "")
	t.Setenv("DB_CONNECT_TIMEOUT_SECONDS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, int32(10), cfg.Database.MaxConns)
	assert.Equal(t, int32(2), cfg.Database.MinConns)
	assert.Equal(t, 5*time.Minute, cfg.Database.MaxConnIdleTime)
	assert.Equal(t, 30*time.Second, cfg.Database.HealthCheckPeriod)
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)

	t.Setenv("DB_MIN_CONNS", "4")
	t.Setenv("DB_HEALTH_CHECK_SECONDS", "10")

	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, int32(4), cfg.Database.MinConns)
	assert.Equal(t, 10*time.Second, cfg.Database.HealthCheckPeriod)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8003", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, 2*time.Second, cfg.Wizard.AutosaveDebounce)
	assert.Equal(t, 7*24*time.Hour, cfg.Wizard.SnapshotTTL)
	assert.Equal(t, "0 0 7 * * *", cfg.Jobs.BalanceReminderCron)
	assert.Contains(t, cfg.DBConfig.DSN(), "dbname=booking_db")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("BOOKING_SERVICE_PORT", ":9090")
	t.Setenv("BOOKING_APP_ENV", "production")
	t.Setenv("BOOKING_KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("BOOKING_AUTOSAVE_DEBOUNCE", "500ms")
	t.Setenv("BOOKING_DB_PORT", "6543")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaConfig.Brokers)
	assert.Equal(t, 500*time.Millisecond, cfg.Wizard.AutosaveDebounce)
	assert.Equal(t, 6543, cfg.DBConfig.Port)
}

func TestLoad_RejectsUnknownEnvironment(t *testing.T) {
	t.Setenv("BOOKING_APP_ENV", "moon")
	_, err := Load()
	assert.Error(t, err)
}

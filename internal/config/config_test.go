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

	assert.Equal(t, "hoaledger.db", cfg.DBPath)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, time.Hour, cfg.OverdueSweepInterval)
	assert.Equal(t, "45", cfg.DefaultCommonAreaPercentage.String())
	assert.Equal(t, "info", cfg.GetLoggerConfig().Level)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("HOA_DB_PATH", "/tmp/test.db")
	t.Setenv("HOA_OVERDUE_SWEEP_INTERVAL", "15m")
	t.Setenv("HOA_DEFAULT_COMMON_AREA_PCT", "45.99")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, 15*time.Minute, cfg.OverdueSweepInterval)
	assert.Equal(t, "45.99", cfg.DefaultCommonAreaPercentage.String())
	assert.Equal(t, "json", cfg.GetLoggerConfig().Format)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"bad interval", "HOA_OVERDUE_SWEEP_INTERVAL", "soon"},
		{"negative interval", "HOA_OVERDUE_SWEEP_INTERVAL", "-1m"},
		{"bad percentage", "HOA_DEFAULT_COMMON_AREA_PCT", "lots"},
		{"percentage out of range", "HOA_DEFAULT_COMMON_AREA_PCT", "120"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

package config

import (
	"testing"

	"boxmeta/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var envKeys = []string{
	"CONFIDENCE_LEVEL", "COMPARISON_MODE", "CORRELATION", "FIVE_NUMBER_FORMULA",
	"SKEW_MEAN_COEFFICIENT", "SKEW_SD_COEFFICIENT", "WORKERS", "REPORT_FORMAT",
	"REPORT_LANG", "PORT", "RATE_LIMIT", "RATE_BURST", "ALLOWED_ORIGINS",
	"LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIDENCE_LEVEL", "0.99")
	t.Setenv("COMPARISON_MODE", "Pairwise")
	t.Setenv("CORRELATION", "0.4")
	t.Setenv("FIVE_NUMBER_FORMULA", "closed")
	t.Setenv("WORKERS", "8")
	t.Setenv("REPORT_FORMAT", "json")
	t.Setenv("REPORT_LANG", "zh")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 0.99, cfg.Engine.ConfidenceLevel)
	assert.Equal(t, "pairwise", cfg.Engine.Mode)
	assert.Equal(t, 0.4, cfg.Engine.Correlation)
	assert.Equal(t, "closed", cfg.Engine.FiveNumber)
	assert.Equal(t, 8, cfg.Run.Workers)
	assert.Equal(t, "json", cfg.Report.Format)
	assert.Equal(t, "zh", cfg.Report.Language)
}

func TestLoad_ServerSettings(t *testing.T) {
	clearEnv(t)
	t.Setenv("RATE_LIMIT", "2.5")
	t.Setenv("RATE_BURST", "5")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2.5, cfg.Server.RateLimit)
	assert.Equal(t, 5, cfg.Server.Burst)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
}

func TestLoad_UnparsableNumbersFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("WORKERS", "many")
	t.Setenv("CONFIDENCE_LEVEL", "high")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Run.Workers)
	assert.Equal(t, 0.95, cfg.Engine.ConfidenceLevel)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CONFIDENCE_LEVEL", "1.5"},
		{"CORRELATION", "-2"},
		{"COMPARISON_MODE", "everything"},
		{"FIVE_NUMBER_FORMULA", "hozo"},
		{"WORKERS", "0"},
		{"REPORT_FORMAT", "pdf"},
		{"RATE_LIMIT", "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, errors.CodeConfigInvalid, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

package config

import (
	"testing"
	"time"

	apperrors "goposterior/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv blanks every variable Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_CONNECT_TIMEOUT",
		"PORT", "GIN_MODE", "SERVER_READ_TIMEOUT", "SERVER_WRITE_TIMEOUT",
		"DATA_FILE", "EXCEL_FILE", "DATA_SHEET",
		"SAMPLER_SEED", "SAMPLER_DRAWS", "SAMPLER_BINS", "SAMPLER_FALLBACK_SD",
		"MIN_MINUTES", "NUISANCE_MODE", "WEIGHT_BY_GAMES",
		"LOG_LEVEL", "PPROF_PORT", "PPROF_ENABLED",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Database.Enabled())
	assert.Equal(t, 5*time.Second, cfg.Database.ConnectTimeout)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Server.GinMode)
	assert.Equal(t, int64(42), cfg.Sampler.Seed)
	assert.Equal(t, 10000, cfg.Sampler.Draws)
	assert.Equal(t, 40, cfg.Sampler.Bins)
	assert.Equal(t, 500.0, cfg.Analysis.MinMinutes)
	assert.Equal(t, "pooled", cfg.Analysis.Nuisance)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Profiling.Enabled)
}

func TestLoad_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_URL", "postgres://localhost/posterior?sslmode=disable")
	t.Setenv("DATA_FILE", "data/per.xlsx")
	t.Setenv("SAMPLER_SEED", "-7")
	t.Setenv("SAMPLER_DRAWS", "500")
	t.Setenv("MIN_MINUTES", "0")
	t.Setenv("NUISANCE_MODE", "within_player")
	t.Setenv("GIN_MODE", "release")
	t.Setenv("DB_CONNECT_TIMEOUT", "250ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Database.Enabled())
	assert.Equal(t, 250*time.Millisecond, cfg.Database.ConnectTimeout)
	assert.Equal(t, "data/per.xlsx", cfg.Data.File)
	assert.Equal(t, int64(-7), cfg.Sampler.Seed)
	assert.Equal(t, 500, cfg.Sampler.Draws)
	assert.Equal(t, 0.0, cfg.Analysis.MinMinutes)
	assert.Equal(t, "within_player", cfg.Analysis.Nuisance)
	assert.Equal(t, "release", cfg.Server.GinMode)
}

func TestLoad_LegacyExcelFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXCEL_FILE", "legacy.csv")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "legacy.csv", cfg.Data.File)
}

func TestLoad_Invalid(t *testing.T) {
	cases := []struct {
		name, key, value string
	}{
		{"bad seed", "SAMPLER_SEED", "forty-two"},
		{"zero draws", "SAMPLER_DRAWS", "0"},
		{"negative fallback", "SAMPLER_FALLBACK_SD", "-1"},
		{"negative minutes", "MIN_MINUTES", "-10"},
		{"unknown nuisance", "NUISANCE_MODE", "median"},
		{"unknown gin mode", "GIN_MODE", "verbose"},
		{"unsupported data file", "DATA_FILE", "per.json"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tc.key, tc.value)

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeConfigInvalid, apperrors.GetCode(err))
		})
	}
}

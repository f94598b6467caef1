package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LL_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "sarima", cfg.Forecast.Backend)
	assert.Equal(t, "weekly", cfg.Forecast.Granularity)
	assert.Equal(t, "per-gap", cfg.Forecast.Training)
	assert.Equal(t, "linear", cfg.Forecast.Growth)
	assert.NotEmpty(t, cfg.Coverage.URL)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lendlib.yaml")
	content := []byte(`
server:
  port: 9090
paths:
  data_dir: /tmp/source
coverage:
  file: /tmp/logbook-dates.json
`)
	require.NoError(t, os.WriteFile(path, content, 0644))
	t.Setenv("LL_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/source", cfg.Paths.DataDir)
	assert.Equal(t, "/tmp/logbook-dates.json", cfg.Coverage.File)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lendlib.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0644))
	t.Setenv("LL_CONFIG", path)
	t.Setenv("LL_LOGGING_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "bad backend",
			mutate:  func(c *Config) { c.Forecast.Backend = "prophet" },
			wantErr: "invalid forecast backend",
		},
		{
			name:    "bad granularity",
			mutate:  func(c *Config) { c.Forecast.Granularity = "hourly" },
			wantErr: "invalid forecast granularity",
		},
		{
			name:    "bad training mode",
			mutate:  func(c *Config) { c.Forecast.Training = "hybrid" },
			wantErr: "invalid forecast training mode",
		},
		{
			name:    "bad port",
			mutate:  func(c *Config) { c.Server.Port = -1 },
			wantErr: "invalid server port",
		},
		{
			name: "no coverage source",
			mutate: func(c *Config) {
				c.Coverage.URL = ""
				c.Coverage.File = ""
			},
			wantErr: "coverage source required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Server: ServerConfig{Port: 8080},
				Forecast: ForecastConfig{
					Backend:     "sarima",
					Granularity: "weekly",
					Training:    "per-gap",
					Growth:      "linear",
				},
				Coverage: CoverageConfig{File: "logbook-dates.json"},
			}
			tt.mutate(&cfg)

			err := cfg.validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

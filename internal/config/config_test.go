package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "data/tdy.db", cfg.Database.Path)
	assert.Equal(t, int64(67), cfg.Travel.MileageRateCents)
	assert.Equal(t, int64(5900), cfg.Rates.FallbackMIECents)
	assert.Equal(t, int64(9800), cfg.Rates.FallbackLodgingCents)
	assert.Equal(t, 30*24*time.Hour, cfg.Rates.CacheTTL)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/override.db")
	path := writeConfig(t, "database:\n  path: data/file.db\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Travel: TravelConfig{MileageRateCents: 67},
			Rates: RatesConfig{
				FallbackMIECents:     5900,
				FallbackLodgingCents: 9800,
			},
		}
	}

	assert.NoError(t, valid().Validate())

	cfg := valid()
	cfg.Travel.MileageRateCents = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Rates.FallbackMIECents = 0
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Rates.AuthorityAPIKey = "key"
	assert.Error(t, cfg.Validate())

	cfg = valid()
	cfg.Rates.AuthorityAPIKey = "key"
	cfg.Rates.AuthorityBaseURL = "https://rates.example.gov"
	assert.NoError(t, cfg.Validate())

	// No API key at all is the intended fallback-only mode.
	assert.NoError(t, valid().Validate())
}

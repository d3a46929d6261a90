package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("VISITS_FILE", "testdata/visits.json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, "₹", cfg.Currency)
	assert.Equal(t, "lp", cfg.PrintCommand)
	assert.Equal(t, 5*time.Second, cfg.AssetTimeout)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/clinic")
	t.Setenv("PORT", "9000")
	t.Setenv("CURRENCY", "Rs. ")
	t.Setenv("PRINT_COMMAND", "lpr")
	t.Setenv("ASSET_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, "Rs. ", cfg.Currency)
	assert.Equal(t, "lpr", cfg.PrintCommand)
	assert.Equal(t, 2*time.Second, cfg.AssetTimeout)
	assert.Equal(t, "postgres://localhost/clinic", cfg.DatabaseURL)
}

func TestLoadRequiresBackend(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("VISITS_FILE", "")

	_, err := Load()
	assert.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writePlans(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plans.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadPlanOverrides(t *testing.T) {
	path := writePlans(t, `
plans:
  factory_license:
    professional:
      price: 899
      limits:
        workers: 300
        documents: -1
`)

	overrides, err := LoadPlanOverrides(Config{PlansFile: path}, zap.NewNop())
	require.NoError(t, err)

	pro := overrides["factory_license"]["professional"]
	require.NotNil(t, pro.Price)
	assert.Equal(t, 899.0, *pro.Price)
	assert.Equal(t, int64(300), pro.Limits["workers"])
	assert.Equal(t, int64(-1), pro.Limits["documents"])
}

func TestLoadPlanOverridesRejectsInvalid(t *testing.T) {
	path := writePlans(t, `
plans:
  factory_license:
    basic:
      limits:
        workers: -5
`)

	_, err := LoadPlanOverrides(Config{PlansFile: path}, zap.NewNop())
	assert.Error(t, err)

	path = writePlans(t, `
plans:
  storage:
    basic:
      price: -1
`)
	_, err = LoadPlanOverrides(Config{PlansFile: path}, zap.NewNop())
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SWEEP_INTERVAL", "15m")
	t.Setenv("RENEW_REACTIVATES_CANCELLED", "no")
	t.Setenv("CHANGEFEED", "REDIS")
	t.Setenv("DATABASE_MAX_OPEN_CONN", "not-a-number")

	cfg := Load()
	assert.Equal(t, "15m0s", cfg.Billing.SweepInterval.String())
	assert.False(t, cfg.Billing.RenewReactivatesCancelled)
	assert.Equal(t, "redis", cfg.ChangeFeed)
	assert.Equal(t, 20, cfg.DBMaxOpenConn)
	assert.Equal(t, "db", cfg.Storage.Source)
}

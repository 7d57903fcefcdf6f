package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/servicereports/servicereports/internal/lifecycle"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("SYNC_MODE", "direct")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, StoreMemory, cfg.StoreDriver)
	require.Equal(t, lifecycle.CarryLatestClosed, cfg.CarryForwardPolicy())
	require.Equal(t, "*/10 * * * *", cfg.RolloverCron)
	require.Equal(t, 2*time.Minute, cfg.LockTTL)
}

func TestLoadConfigRejectsUnknownValues(t *testing.T) {
	cases := map[string]map[string]string{
		"store":    {"STORE_DRIVER": "sqlite"},
		"sync":     {"STORE_DRIVER": "memory", "SYNC_MODE": "carrier-pigeon"},
		"queue":    {"STORE_DRIVER": "memory", "SYNC_MODE": "queue", "REDIS_ADDR": ""},
		"carry":    {"STORE_DRIVER": "memory", "CARRY_FORWARD": "forever"},
		"postgres": {"STORE_DRIVER": "postgres", "PG_DSN": ""},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestConfigHelpers(t *testing.T) {
	var nilCfg *Config
	require.False(t, nilCfg.IsProduction())
	require.False(t, nilCfg.RemoteEnabled())

	cfg := &Config{AppEnv: "production", RemoteBaseURL: "https://reports.example.org"}
	require.True(t, cfg.IsProduction())
	require.True(t, cfg.RemoteEnabled())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "casino.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.False(t, cfg.NATS.Enabled())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  request_timeout: 5s
store:
  driver: badger
  path: /var/lib/casino
log:
  level: debug
nats:
  url: nats://localhost:4222
ledger:
  opening_balances:
    alice: "100.50"
    bob: "20"
scan:
  workers: 4
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout, "unset fields keep defaults")
	assert.Equal(t, "badger", cfg.Store.Driver)
	assert.True(t, cfg.NATS.Enabled())
	assert.Equal(t, 4, cfg.Scan.Workers)

	balances, err := cfg.Ledger.Balances()
	require.NoError(t, err)
	assert.Equal(t, "100.5", balances["alice"].String())
}

func TestLoadRejects(t *testing.T) {
	tests := map[string]string{
		"driver":  "store:\n  driver: postgres\n",
		"level":   "log:\n  level: loud\n",
		"path":    "store:\n  driver: sqlite\n  path: \"\"\n",
		"balance": "ledger:\n  opening_balances:\n    alice: lots\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestMemoryDriverNeedsNoPath(t *testing.T) {
	_, err := Load(writeConfig(t, "store:\n  driver: memory\n  path: \"\"\n"))
	assert.NoError(t, err)
}

func TestEnvOverrides(t *testing.T) {
	cfg := Default()
	env := map[string]string{
		"CASINO_ADDR":         ":7000",
		"CASINO_STORE_DRIVER": "memory",
		"CASINO_LOG_LEVEL":    "warn",
		"CASINO_NATS_URL":     "nats://audit:4222",
	}
	applyEnv(&cfg, func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "nats://audit:4222", cfg.NATS.URL)
	assert.Equal(t, "casino.db", cfg.Store.Path)
}

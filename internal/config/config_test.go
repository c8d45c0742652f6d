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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.App.Port)
	assert.Equal(t, "pinata", cfg.IPFS.Provider)
	assert.Equal(t, int64(1315), cfg.Chain.ChainID)
	assert.Equal(t, 100, cfg.Chain.ScanLimit)
	assert.Equal(t, 15*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 120*time.Second, cfg.TxTimeout)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
app:
  env: production
  port: 9090
chain:
  mode: local
  scan_limit: 25
events:
  transport: kafka
  brokers: ["k1:9092", "k2:9092"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.App.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "local", cfg.Chain.Mode)
	assert.Equal(t, 25, cfg.Chain.ScanLimit)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Events.Brokers)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
chain:
  rpc_url: http://file-rpc
pinata:
  jwt: from-file
`)
	t.Setenv("CHAIN_RPC_URL", "http://env-rpc")
	t.Setenv("PINATA_JWT", "from-env")
	t.Setenv("CHAIN_SCAN_LIMIT", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "http://env-rpc", cfg.Chain.RPCURL)
	assert.Equal(t, "from-env", cfg.Pinata.JWT)
	assert.Equal(t, 7, cfg.Chain.ScanLimit)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := writeConfig(t, "app: [unclosed")
	_, err := Load(path)
	assert.Error(t, err)
}

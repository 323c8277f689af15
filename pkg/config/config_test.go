package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helium-ledger/pkg/heliumapi"
	"helium-ledger/pkg/ledger"
)

func TestInitDefaults(t *testing.T) {
	viper.Reset()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, Init(""))
	assert.Equal(t, "development", Global.App.Env)
	assert.Equal(t, uint8(0), Global.Ledger.Account)
	assert.False(t, Global.Ledger.Emulator)
	assert.Equal(t, ledger.DefaultEmulatorAddr, Global.Ledger.EmulatorAddr)
	assert.Zero(t, Global.Ledger.Timeout)
	assert.Equal(t, heliumapi.DefaultMainNetURL, Global.API.MainNetURL)
	assert.Equal(t, heliumapi.DefaultTestNetURL, Global.API.TestNetURL)
	assert.Equal(t, heliumapi.DefaultTimeout, Global.API.Timeout)
	assert.Equal(t, "8080", Global.Server.HttpPort)
}

func TestInitFileAndEnv(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	file := filepath.Join(dir, "ledger.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
app:
  env: production
ledger:
  account: 3
  emulator: true
  timeout: 90s
api:
  testnet_url: http://localhost:4000
`), 0o600))
	t.Setenv("SERVER_HTTP_PORT", "9090")

	require.NoError(t, Init(file))
	assert.Equal(t, "production", Global.App.Env)
	assert.Equal(t, uint8(3), Global.Ledger.Account)
	assert.True(t, Global.Ledger.Emulator)
	assert.Equal(t, 90*time.Second, Global.Ledger.Timeout)
	assert.Equal(t, "http://localhost:4000", Global.API.TestNetURL)
	assert.Equal(t, "9090", Global.Server.HttpPort)
}

func TestInitMissingExplicitFile(t *testing.T) {
	viper.Reset()
	err := Init(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

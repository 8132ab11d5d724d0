package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `exchanges:
  - name: deribit
    enabled: true
    httpTimeout: 30s
    credentials:
      apiKey: file-key
      apiSecret: file-secret
  - name: woo
    enabled: false
`

func writeConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)
	require.Len(t, cfg.Exchanges, 2)

	deribit, err := cfg.Exchange("Deribit")
	require.NoError(t, err, "lookup is case insensitive")
	assert.True(t, deribit.Enabled)
	assert.Equal(t, 30*time.Second, deribit.HTTPTimeout)
	assert.Equal(t, "file-key", deribit.Credentials.Key)

	woo, err := cfg.Exchange("woo")
	require.NoError(t, err)
	assert.False(t, woo.Enabled)
	assert.Equal(t, DefaultHTTPTimeout, woo.HTTPTimeout, "missing timeout takes the default")

	_, err = cfg.Exchange("binance")
	assert.ErrorIs(t, err, ErrExchangeNotFound)
}

func TestLoadEnvCredentialOverride(t *testing.T) {
	t.Setenv("UNIFEX_DERIBIT_APIKEY", "env-key")
	t.Setenv("UNIFEX_DERIBIT_APISECRET", "env-secret")

	cfg, err := Load(writeConfig(t))
	require.NoError(t, err)

	deribit, err := cfg.Exchange("deribit")
	require.NoError(t, err)
	assert.Equal(t, "env-key", deribit.Credentials.Key)
	assert.Equal(t, "env-secret", deribit.Credentials.Secret)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

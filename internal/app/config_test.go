package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
telegram:
  token: "123:abc"
  admin_id: 99
  run_mode: longpoll
store:
  backend: memory
payment:
  upi_id: "store@upi"
checkout:
  backend: memory
  ttl_seconds: 600
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadConfigValid(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, validYAML))
	require.NoError(t, err)

	assert.Equal(t, int64(99), cfg.Core.Telegram.AdminID)
	assert.Equal(t, StoreBackendMemory, cfg.Store.Backend)
	assert.Equal(t, CheckoutBackendMemory, cfg.Checkout.Backend)
	assert.Equal(t, 600, cfg.Checkout.TTLSeconds)
	assert.Equal(t, "store@upi", cfg.Payment.UPIID)
	require.NotNil(t, cfg.CoreConfig())
	assert.Equal(t, "123:abc", cfg.CoreConfig().Telegram.Token)
}

func TestLoadConfigDefaultsBackends(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 99
payment:
  upi_id: "store@upi"
`))
	require.NoError(t, err)
	assert.Equal(t, StoreBackendPostgres, cfg.Store.Backend)
	assert.Equal(t, CheckoutBackendMemory, cfg.Checkout.Backend)
}

func TestLoadConfigRejectsMissingUPI(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 99
store:
  backend: memory
`))
	assert.ErrorContains(t, err, "upi_id")
}

func TestLoadConfigRejectsFileBackendWithoutPath(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 99
store:
  backend: file
payment:
  upi_id: "store@upi"
`))
	assert.ErrorContains(t, err, "store.path")
}

func TestLoadConfigRejectsUnknownBackends(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 99
store:
  backend: mongo
payment:
  upi_id: "store@upi"
`))
	assert.ErrorContains(t, err, "store.backend")

	_, err = LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 99
store:
  backend: memory
payment:
  upi_id: "store@upi"
checkout:
  backend: kafka
`))
	assert.ErrorContains(t, err, "checkout.backend")
}

func TestLoadConfigRejectsRedisWithoutAddr(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 99
store:
  backend: memory
payment:
  upi_id: "store@upi"
checkout:
  backend: redis
`))
	assert.ErrorContains(t, err, "redis_addr")
}

func TestLoadConfigRequiresAdminID(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, `
telegram:
  token: "123:abc"
store:
  backend: memory
payment:
  upi_id: "store@upi"
`))
	assert.ErrorContains(t, err, "admin_id")
}

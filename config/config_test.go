package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "")
	t.Setenv("GATEWAY_TIMEOUT", "")
	t.Setenv("BILLING_CURRENCY", "")
	t.Setenv("PAYPAL_MODE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, 15*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "sandbox", cfg.PayPal.Mode)
	assert.Contains(t, cfg.DB.DSN(), "dbname=rentlot")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("GATEWAY_TIMEOUT", "3s")
	t.Setenv("BILLING_CURRENCY", "eur")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.DB.Driver)
	assert.Equal(t, 3*time.Second, cfg.GatewayTimeout)
	assert.Equal(t, "EUR", cfg.Currency)
}

func TestLoad_MemoryDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.DB.Driver)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	t.Setenv("DB_DRIVER", "mysql")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("GATEWAY_TIMEOUT", "soon")
	_, err = Load()
	assert.Error(t, err)
}

func TestParseAccounts(t *testing.T) {
	doc := []byte(`
accounts:
  - name: north-lot
    client_id: id-1
    client_secret: secret-1
    webhook_id: wh-1
    properties: [prop-a, prop-b]
  - name: south-lot
    client_id: id-2
    client_secret: secret-2
    properties: [prop-c]
`)
	accounts, err := ParseAccounts(doc)
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, []string{"prop-a", "prop-b"}, accounts[0].PropertyIDs)
	assert.Equal(t, "wh-1", accounts[0].WebhookID)
}

func TestParseAccounts_RejectsDoubleAssignment(t *testing.T) {
	doc := []byte(`
accounts:
  - {name: a, client_id: x, client_secret: y, properties: [p1]}
  - {name: b, client_id: x, client_secret: y, properties: [p1]}
`)
	_, err := ParseAccounts(doc)
	assert.ErrorContains(t, err, "p1")
}

func TestParseAccounts_RequiresCredentials(t *testing.T) {
	_, err := ParseAccounts([]byte("accounts:\n  - name: a\n"))
	assert.Error(t, err)
}

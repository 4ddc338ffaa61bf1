package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	t.Setenv("APP_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	c, err := New()
	require.NoError(t, err)
	assert.True(t, c.IsDev())
	assert.Equal(t, 8888, c.Server.Port)
	assert.Equal(t, BusDriverMemory, c.Bus.Driver)
	assert.Equal(t, 5, c.Bus.MaxAttempts)
	assert.Equal(t, time.Second, c.Bus.BackoffBase)
	assert.Equal(t, 15*time.Second, c.ShopAPITimeout())
	assert.Equal(t, "/webapi/rest", c.ShopAPI.APIPath)
	assert.Equal(t, 5*time.Minute, c.Verify.CacheTTL)
}

func TestNew_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prod.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: prod
bus:
  driver: kafka
  kafka:
    brokers: ["kafka-1:9092", "kafka-2:9092"]
    topic: payments
app_store:
  application_code: app-1
  appstore_secret: from-file
webhook:
  secret: whsec
default_payment:
  currencies: [1, 2]
`), 0o600))
	t.Setenv("APP_CONFIG_FILE", path)
	t.Setenv("APP_APP_STORE_APPSTORE_SECRET", "from-env")

	c, err := New()
	require.NoError(t, err)
	assert.False(t, c.IsDev())
	assert.Equal(t, BusDriverKafka, c.Bus.Driver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, c.Bus.Kafka.Brokers)
	assert.Equal(t, "payments", c.Bus.Kafka.Topic)
	assert.Equal(t, "app-1", c.AppStore.ApplicationCode)
	assert.Equal(t, "from-env", c.AppStore.AppstoreSecret)
	assert.Equal(t, "whsec", c.Webhook.Secret)
	assert.Equal(t, []int{1, 2}, c.DefaultPayment.Currencies)
}

func TestShopAPITimeout_NilSafe(t *testing.T) {
	var c *Config
	assert.Equal(t, 15*time.Second, c.ShopAPITimeout())
	assert.False(t, c.IsDev())
}

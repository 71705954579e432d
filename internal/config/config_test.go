package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdir(t, t.TempDir())
	for _, k := range []string{"STORE_DRIVER", "KAFKA_BROKERS", "REQUEST_TIMEOUT", "DB_ACQUIRE_TIMEOUT", "PUBLISH_TIMEOUT", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 30*time.Second, cfg.DBAcquireTimeout)
	assert.Equal(t, 45*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 3*time.Second, cfg.PublishTimeout)
	assert.Equal(t, "list-updates", cfg.ListEventsTopic)
	assert.Equal(t, "payment-requests", cfg.PaymentsTopic)
	assert.False(t, cfg.QueueConfigured())
	assert.True(t, cfg.DBMigrate)
}

func TestLoadFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/x.db")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")
	t.Setenv("PUBLISH_TIMEOUT", "2s")
	t.Setenv("DB_MIGRATE", "false")
	t.Setenv("PAYMENTS_WORKERS", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.QueueConfigured())
	assert.Equal(t, 2*time.Second, cfg.PublishTimeout)
	assert.False(t, cfg.DBMigrate)
	assert.Equal(t, 4, cfg.PaymentsWorkers, "unparsable values fall back to the default")
}

func validConfig() Config {
	return Config{
		LogLevel:         "info",
		StoreDriver:      DriverSQLite,
		SQLitePath:       "lists.db",
		DBMaxConns:       10,
		DBAcquireTimeout: 30 * time.Second,
		RequestTimeout:   45 * time.Second,
		PublishTimeout:   3 * time.Second,
		PaymentsWorkers:  1,
	}
}

func TestValidate(t *testing.T) {
	cfg := validConfig()
	require.NoError(t, cfg.Validate())

	cases := map[string]func(c *Config){
		"unknown driver":        func(c *Config) { c.StoreDriver = "mysql" },
		"publish too short":     func(c *Config) { c.PublishTimeout = 500 * time.Millisecond },
		"publish too long":      func(c *Config) { c.PublishTimeout = 6 * time.Second },
		"request under acquire": func(c *Config) { c.RequestTimeout = 30 * time.Second },
		"no pool":               func(c *Config) { c.DBMaxConns = 0 },
		"bad log level":         func(c *Config) { c.LogLevel = "trace" },
		"no workers":            func(c *Config) { c.PaymentsWorkers = 0 },
		"postgres without dsn":  func(c *Config) { c.StoreDriver = DriverPostgres; c.PostgresDSN = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(&c)
			assert.Error(t, c.Validate())
		})
	}
}

// chdir mirrors testing.T.Chdir (Go 1.24+) for the Go 1.21 toolchain.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

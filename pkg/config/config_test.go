package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "access")
	t.Setenv("JWT_REFRESH_SECRET", "refresh")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("LOCK_TIMEOUT", "1500ms")

	cfg, err := Load("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "marketplace", cfg.ServiceName)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, 1500*time.Millisecond, cfg.LockTimeout)
	assert.Equal(t, 10*time.Second, cfg.CheckoutTimeout)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.Equal(t, "none", cfg.EventsDriver)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := Config{
		DBDriver:         "postgres",
		DatabaseURL:      "postgres://u:p@localhost:5432/db",
		JWTAccessSecret:  "a",
		JWTRefreshSecret: "r",
		EventsDriver:     "none",
		LockTimeout:      time.Second,
		CheckoutTimeout:  time.Second,
	}
	require.NoError(t, base.Validate())

	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "missing jwt secret", mutate: func(c *Config) { c.JWTAccessSecret = "" }, want: "JWT_SECRET"},
		{name: "missing database url", mutate: func(c *Config) { c.DatabaseURL = "" }, want: "DATABASE_URL"},
		{name: "unknown driver", mutate: func(c *Config) { c.DBDriver = "mysql" }, want: "DB_DRIVER"},
		{name: "kafka without brokers", mutate: func(c *Config) { c.EventsDriver = "kafka" }, want: "KAFKA_BROKERS"},
		{name: "amqp without url", mutate: func(c *Config) { c.EventsDriver = "amqp" }, want: "AMQP_URL"},
		{name: "zero lock timeout", mutate: func(c *Config) { c.LockTimeout = 0 }, want: "LOCK_TIMEOUT"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a", "b"}, CSV(" a, ,b ,"))
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORS.AllowedOrigins)

	require.Len(t, cfg.Banks, 5)
	for _, name := range []string{"stripe", "paypal", "square", "adyen", "braintree"} {
		bank, ok := cfg.Banks[name]
		require.True(t, ok, "bank %s missing", name)
		assert.True(t, bank.Enabled)
		assert.Equal(t, 30*time.Second, bank.Timeout)
		assert.Equal(t, "sk_sandbox_"+name, bank.APIKey)
		assert.Equal(t, "paygate-demo", bank.MerchantID)
	}

	assert.Equal(t, 200*time.Millisecond, cfg.Banks["stripe"].Latency)
	assert.Equal(t, 2*time.Second, cfg.Banks["paypal"].Latency)
	assert.Equal(t, 500*time.Millisecond, cfg.Banks["square"].Latency)
	assert.Equal(t, 300*time.Millisecond, cfg.Banks["adyen"].Latency)
	assert.Equal(t, 400*time.Millisecond, cfg.Banks["braintree"].Latency)

	assert.Equal(t, "sandbox-hmac-key", cfg.Banks["adyen"].Extra["hmac_key"])

	assert.Equal(t, uint(3), cfg.Probe.Attempts)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Banks: map[string]BankConfig{
			"stripe": {Timeout: 30 * time.Second, Latency: 200 * time.Millisecond},
		},
		Probe: ProbeConfig{Attempts: 3, Delay: 200 * time.Millisecond},
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validConfig().Validate())
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"zero port", func(c *Config) { c.Server.Port = 0 }, "server.port"},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"zero read timeout", func(c *Config) { c.Server.ReadTimeout = 0 }, "read_timeout"},
		{"zero write timeout", func(c *Config) { c.Server.WriteTimeout = 0 }, "write_timeout"},
		{"no banks", func(c *Config) { c.Banks = nil }, "at least one bank"},
		{"zero bank timeout", func(c *Config) {
			c.Banks["stripe"] = BankConfig{Timeout: 0}
		}, "banks.stripe.timeout"},
		{"negative latency", func(c *Config) {
			c.Banks["stripe"] = BankConfig{Timeout: time.Second, Latency: -1}
		}, "banks.stripe.latency"},
		{"zero probe attempts", func(c *Config) { c.Probe.Attempts = 0 }, "probe.attempts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestConfig_Validate_CollectsAllErrors(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server.port")
	assert.Contains(t, err.Error(), "at least one bank")
	assert.Contains(t, err.Error(), "probe.attempts")
}

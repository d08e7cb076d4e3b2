package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig          `mapstructure:"server"`
	Banks         map[string]BankConfig `mapstructure:"banks"`
	Probe         ProbeConfig           `mapstructure:"probe"`
	Observability ObservabilityConfig   `mapstructure:"observability"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// BankConfig holds one simulated bank's settings. The latency doubles
// as the advertised average processing time; the timeout is enforced
// as a real deadline around each charge.
type BankConfig struct {
	BaseURL    string            `mapstructure:"base_url"`
	APIKey     string            `mapstructure:"api_key"`
	MerchantID string            `mapstructure:"merchant_id"`
	Enabled    bool              `mapstructure:"enabled"`
	Timeout    time.Duration     `mapstructure:"timeout"`
	Latency    time.Duration     `mapstructure:"latency"`
	Extra      map[string]string `mapstructure:"extra"`
}

type ProbeConfig struct {
	Attempts uint          `mapstructure:"attempts"`
	Delay    time.Duration `mapstructure:"delay"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PAYGATE")
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/paygate")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}
	if len(c.Banks) == 0 {
		errs = append(errs, fmt.Errorf("at least one bank must be configured"))
	}
	for name, bank := range c.Banks {
		if bank.Timeout <= 0 {
			errs = append(errs, fmt.Errorf("banks.%s.timeout must be positive", name))
		}
		if bank.Latency < 0 {
			errs = append(errs, fmt.Errorf("banks.%s.latency must not be negative", name))
		}
	}
	if c.Probe.Attempts == 0 {
		errs = append(errs, fmt.Errorf("probe.attempts must be positive"))
	}

	return errors.Join(errs...)
}

// setDefaults seeds the five simulated banks with their design
// latencies and sandbox credentials.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allow_credentials", false)

	type bankDefaults struct {
		baseURL string
		latency string
		extra   map[string]string
	}
	banks := map[string]bankDefaults{
		"stripe":    {baseURL: "https://api.stripe-sim.local/v1", latency: "200ms"},
		"paypal":    {baseURL: "https://soap.paypal-sim.local/2.0", latency: "2s"},
		"square":    {baseURL: "https://connect.square-sim.local/v2", latency: "500ms"},
		"adyen":     {baseURL: "https://checkout.adyen-sim.local/v71", latency: "300ms", extra: map[string]string{"hmac_key": "sandbox-hmac-key"}},
		"braintree": {baseURL: "https://payments.braintree-sim.local/graphql", latency: "400ms"},
	}
	for name, d := range banks {
		prefix := "banks." + name + "."
		v.SetDefault(prefix+"base_url", d.baseURL)
		v.SetDefault(prefix+"api_key", "sk_sandbox_"+name)
		v.SetDefault(prefix+"merchant_id", "paygate-demo")
		v.SetDefault(prefix+"enabled", true)
		v.SetDefault(prefix+"timeout", "30s")
		v.SetDefault(prefix+"latency", d.latency)
		if d.extra != nil {
			v.SetDefault(prefix+"extra", d.extra)
		}
	}

	v.SetDefault("probe.attempts", 3)
	v.SetDefault("probe.delay", "200ms")

	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", false)
}

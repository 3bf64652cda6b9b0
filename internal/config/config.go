// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Binance   BinanceConfig   `mapstructure:"binance"`
	Bitstamp  BitstampConfig  `mapstructure:"bitstamp"`
	Bus       BusConfig       `mapstructure:"bus"`
	Publisher PublisherConfig `mapstructure:"publisher"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	LogLevel    string `mapstructure:"log_level"`
	TradingPair string `mapstructure:"trading_pair"`
}

// BinanceSymbol converts the configured trading pair into Binance's bare,
// uppercase, separator-free symbol convention (e.g. "BTC-USDT" -> "BTCUSDT").
func (c *AppConfig) BinanceSymbol() string {
	return strings.ToUpper(stripSeparators(c.TradingPair))
}

// BitstampChannelSuffix converts the configured trading pair into Bitstamp's
// lowercase, separator-free pair code used in its channel name
// ("order_book_<paircode>"), e.g. "BTC-USDT" -> "btcusdt".
func (c *AppConfig) BitstampChannelSuffix() string {
	return strings.ToLower(stripSeparators(c.TradingPair))
}

func stripSeparators(pair string) string {
	r := strings.NewReplacer("-", "", "_", "", "/", "")
	return r.Replace(pair)
}

// BinanceConfig holds configuration for the SnapshotAdapter.
type BinanceConfig struct {
	WebSocketURL string        `mapstructure:"websocket_url"`
	RESTBaseURL  string        `mapstructure:"rest_base_url"`
	DepthSpeedMs int           `mapstructure:"depth_speed_ms"`
	StaleTimeout time.Duration `mapstructure:"stale_timeout"`
	QtyDecimals  int           `mapstructure:"qty_decimals"`
}

// BitstampConfig holds configuration for the DeltaAdapter.
type BitstampConfig struct {
	WebSocketURL string `mapstructure:"websocket_url"`
	QtyDecimals  int    `mapstructure:"qty_decimals"`
}

// BusConfig holds event bus configuration.
type BusConfig struct {
	Capacity int `mapstructure:"capacity"`
}

// PublisherConfig holds snapshot publisher configuration.
type PublisherConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// TelemetryConfig holds observability configuration.
type TelemetryConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	ServiceName    string `mapstructure:"service_name"`
	OTLPEndpoint   string `mapstructure:"otlp_endpoint"`
	OTLPHeaders    string `mapstructure:"otlp_headers"`
	PrometheusPort int    `mapstructure:"prometheus_port"`
}

// Load loads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables
	v.SetEnvPrefix("DEPTH")
	v.AutomaticEnv()

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, use env vars
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

func bindEnvVars(v *viper.Viper) {
	// App. TRADING_PAIR is bound bare (no DEPTH_ prefix) to match deployment
	// tooling that already sets it without the prefix.
	v.BindEnv("app.name", "DEPTH_APP_NAME", "SERVICE_NAME")
	v.BindEnv("app.environment", "DEPTH_ENVIRONMENT", "ENVIRONMENT")
	v.BindEnv("app.log_level", "DEPTH_LOG_LEVEL", "LOG_LEVEL")
	v.BindEnv("app.trading_pair", "TRADING_PAIR")

	// Binance (Primary / SnapshotAdapter)
	v.BindEnv("binance.websocket_url", "DEPTH_BINANCE_WS_URL", "BINANCE_WS_URL")
	v.BindEnv("binance.rest_base_url", "DEPTH_BINANCE_REST_URL", "BINANCE_REST_URL")
	v.BindEnv("binance.depth_speed_ms", "DEPTH_BINANCE_DEPTH_SPEED_MS")
	v.BindEnv("binance.stale_timeout", "DEPTH_BINANCE_STALE_TIMEOUT")

	// Bitstamp (Secondary / DeltaAdapter)
	v.BindEnv("bitstamp.websocket_url", "DEPTH_BITSTAMP_WS_URL", "BITSTAMP_WS_URL")

	// Bus / Publisher
	v.BindEnv("bus.capacity", "DEPTH_BUS_CAPACITY")
	v.BindEnv("publisher.interval", "DEPTH_PUBLISH_INTERVAL")

	// Telemetry
	v.BindEnv("telemetry.enabled", "DEPTH_OTEL_ENABLED", "OTEL_ENABLED")
	v.BindEnv("telemetry.service_name", "DEPTH_OTEL_SERVICE_NAME", "OTEL_SERVICE_NAME")
	v.BindEnv("telemetry.otlp_endpoint", "DEPTH_OTEL_ENDPOINT", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "depth-aggregator")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("app.trading_pair", "BTC-USDT")

	v.SetDefault("binance.websocket_url", "wss://stream.binance.com:9443")
	v.SetDefault("binance.rest_base_url", "https://api.binance.com")
	v.SetDefault("binance.depth_speed_ms", 100)
	v.SetDefault("binance.stale_timeout", "5s")
	v.SetDefault("binance.qty_decimals", 8)

	v.SetDefault("bitstamp.websocket_url", "wss://ws.bitstamp.net")
	v.SetDefault("bitstamp.qty_decimals", 8)

	v.SetDefault("bus.capacity", 1000)
	v.SetDefault("publisher.interval", "500ms")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "depth-aggregator")
	v.SetDefault("telemetry.prometheus_port", 9090)
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Binance.WebSocketURL == "" {
		return fmt.Errorf("binance.websocket_url is required")
	}
	if c.Bitstamp.WebSocketURL == "" {
		return fmt.Errorf("bitstamp.websocket_url is required")
	}
	if c.App.TradingPair == "" {
		return fmt.Errorf("app.trading_pair (TRADING_PAIR) is required")
	}
	if c.Bus.Capacity <= 0 {
		return fmt.Errorf("bus.capacity must be positive")
	}
	return nil
}

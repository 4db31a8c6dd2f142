package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment"`
	Server      struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
		Output string `yaml:"output"`
	} `yaml:"logging"`
	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Path    string `yaml:"path"`
	} `yaml:"metrics"`
	Source struct {
		Type string `yaml:"type"` // "binance" or "kafka"
	} `yaml:"source"`
	Binance struct {
		APIKey         string        `yaml:"api_key"`
		APISecret      string        `yaml:"api_secret"`
		WebSocketURL   string        `yaml:"websocket_url"`
		RestURL        string        `yaml:"rest_url"`
		Symbols        []string      `yaml:"symbols"`
		ReconnectDelay time.Duration `yaml:"reconnect_delay"`
		PingInterval   time.Duration `yaml:"ping_interval"`
	} `yaml:"binance"`
	Execution struct {
		Mode          string  `yaml:"mode"` // "paper" or "binance"
		TradeQuantity float64 `yaml:"trade_quantity"`
	} `yaml:"execution"`
	Candle struct {
		WindowMinutes int `yaml:"window_minutes"`
		MaxHistory    int `yaml:"max_history"`
	} `yaml:"candle"`
	Strategy struct {
		SMAShortWindow int     `yaml:"sma_short_window"`
		SMALongWindow  int     `yaml:"sma_long_window"`
		EMASpan        int     `yaml:"ema_span"`
		SLVariantA     float64 `yaml:"sl_variant_a"`
		SLVariantB     float64 `yaml:"sl_variant_b"`
		MaxSignals     int     `yaml:"max_signals"`
	} `yaml:"strategy"`
	Kafka struct {
		Enabled     bool     `yaml:"enabled"`
		Brokers     []string `yaml:"brokers"`
		TicksTopic  string   `yaml:"ticks_topic"`
		CandleTopic string   `yaml:"candle_topic"`
		Compression string   `yaml:"compression"`
		Consumer    struct {
			GroupID    string        `yaml:"group_id"`
			Workers    int           `yaml:"workers"`
			BufferSize int           `yaml:"buffer_size"`
			RetryMax   int           `yaml:"retry_max"`
			BackoffMin time.Duration `yaml:"backoff_min"`
			BackoffMax time.Duration `yaml:"backoff_max"`
			DLQTopic   string        `yaml:"dlq_topic"`
			MinBytes   int           `yaml:"min_bytes"`
			MaxBytes   int           `yaml:"max_bytes"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	ClickHouse struct {
		Enabled      bool          `yaml:"enabled"`
		Host         string        `yaml:"host"`
		Port         int           `yaml:"port"`
		Database     string        `yaml:"database"`
		User         string        `yaml:"user"`
		Password     string        `yaml:"password"`
		UseHTTP      bool          `yaml:"use_http"`
		AsyncInsert  bool          `yaml:"async_insert"`
		WaitForAsync bool          `yaml:"wait_for_async_insert"`
		DialTimeout  time.Duration `yaml:"dial_timeout"`
		ReadTimeout  time.Duration `yaml:"read_timeout"`
		WriteTimeout time.Duration `yaml:"write_timeout"`
	} `yaml:"clickhouse"`
	Redis struct {
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		CacheTTL struct {
			Candles time.Duration `yaml:"candles"`
			Signals time.Duration `yaml:"signals"`
		} `yaml:"cache_ttl"`
	} `yaml:"redis"`
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	c.applyDefaults()

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}

	if v := os.Getenv("BINANCE_API_KEY"); v != "" {
		c.Binance.APIKey = v
	}
	if v := os.Getenv("BINANCE_API_SECRET"); v != "" {
		c.Binance.APISecret = v
	}
	if v := os.Getenv("SYMBOLS"); v != "" {
		c.Binance.Symbols = strings.Split(v, ",")
	}
	if v := os.Getenv("SOURCE"); v != "" {
		c.Source.Type = v
	}
	if v := os.Getenv("EXECUTION_MODE"); v != "" {
		c.Execution.Mode = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
	}

	return c, nil
}

func (c *Config) applyDefaults() {
	if c.Source.Type == "" {
		c.Source.Type = "binance"
	}
	if c.Execution.Mode == "" {
		c.Execution.Mode = "paper"
	}
	if c.Execution.TradeQuantity <= 0 {
		c.Execution.TradeQuantity = 0.001
	}
	if len(c.Binance.Symbols) == 0 {
		c.Binance.Symbols = []string{"btcusdt", "ethusdt"}
	}
	if c.Candle.WindowMinutes <= 0 {
		c.Candle.WindowMinutes = 1
	}
	if c.Candle.MaxHistory <= 0 {
		c.Candle.MaxHistory = 100
	}
	if c.Strategy.SMAShortWindow <= 0 {
		c.Strategy.SMAShortWindow = 5
	}
	if c.Strategy.SMALongWindow <= 0 {
		c.Strategy.SMALongWindow = 20
	}
	if c.Strategy.EMASpan <= 0 {
		c.Strategy.EMASpan = 12
	}
	if c.Strategy.SLVariantA <= 0 {
		c.Strategy.SLVariantA = 15.0
	}
	if c.Strategy.SLVariantB <= 0 {
		c.Strategy.SLVariantB = 10.0
	}
	if c.Strategy.MaxSignals <= 0 {
		c.Strategy.MaxSignals = 50
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Environment == "" {
		return fmt.Errorf("environment is required")
	}
	if c.Source.Type != "binance" && c.Source.Type != "kafka" {
		return fmt.Errorf("source.type must be 'binance' or 'kafka', got '%s'", c.Source.Type)
	}
	if c.Execution.Mode != "paper" && c.Execution.Mode != "binance" {
		return fmt.Errorf("execution.mode must be 'paper' or 'binance', got '%s'", c.Execution.Mode)
	}
	if c.Execution.Mode == "binance" && (c.Binance.APIKey == "" || c.Binance.APISecret == "") {
		return fmt.Errorf("binance execution requires binance.api_key and binance.api_secret")
	}
	if c.Source.Type == "kafka" && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka source requires kafka.brokers")
	}
	if c.Strategy.SMAShortWindow >= c.Strategy.SMALongWindow {
		return fmt.Errorf("strategy.sma_short_window must be below sma_long_window")
	}
	return nil
}

// CandleWindow returns the candle window as a duration.
func (c *Config) CandleWindow() time.Duration {
	return time.Duration(c.Candle.WindowMinutes) * time.Minute
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "environment: test\n")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Source.Type != "binance" || c.Execution.Mode != "paper" {
		t.Fatalf("unexpected defaults: %s %s", c.Source.Type, c.Execution.Mode)
	}
	if c.Execution.TradeQuantity != 0.001 {
		t.Fatalf("unexpected quantity default %v", c.Execution.TradeQuantity)
	}
	if c.Candle.WindowMinutes != 1 || c.Candle.MaxHistory != 100 {
		t.Fatalf("unexpected candle defaults %+v", c.Candle)
	}
	if c.Strategy.SMAShortWindow != 5 || c.Strategy.SMALongWindow != 20 || c.Strategy.EMASpan != 12 {
		t.Fatalf("unexpected strategy defaults %+v", c.Strategy)
	}
	if c.Strategy.SLVariantA != 15.0 || c.Strategy.SLVariantB != 10.0 {
		t.Fatalf("unexpected stop-loss defaults %+v", c.Strategy)
	}
	if c.CandleWindow() != time.Minute {
		t.Fatalf("unexpected window %v", c.CandleWindow())
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing environment", "server:\n  port: 8080\n"},
		{"bad source", "environment: test\nsource:\n  type: rabbitmq\n"},
		{"bad execution mode", "environment: test\nexecution:\n  mode: margin\n"},
		{"binance mode without keys", "environment: test\nexecution:\n  mode: binance\n"},
		{"kafka source without brokers", "environment: test\nsource:\n  type: kafka\n"},
		{"short window above long", "environment: test\nstrategy:\n  sma_short_window: 30\n  sma_long_window: 20\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, tc.content)
			if _, err := Load(path); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadWithEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
environment: test
binance:
  api_key: yaml-key
  symbols: [btcusdt]
`)
	t.Setenv("BINANCE_API_KEY", "env-key")
	t.Setenv("SYMBOLS", "solusdt,adausdt")
	t.Setenv("EXECUTION_MODE", "paper")

	c, err := LoadWithEnv(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Binance.APIKey != "env-key" {
		t.Fatalf("env override lost: %s", c.Binance.APIKey)
	}
	if len(c.Binance.Symbols) != 2 || c.Binance.Symbols[0] != "solusdt" {
		t.Fatalf("symbol override lost: %v", c.Binance.Symbols)
	}
}

func TestLoadParsesFullConfig(t *testing.T) {
	path := writeConfig(t, `
environment: production
server:
  port: 9090
  shutdown_timeout: 15s
source:
  type: kafka
kafka:
  enabled: true
  brokers: [broker-1:9092, broker-2:9092]
  ticks_topic: market.ticks
  consumer:
    group_id: bartrader
    workers: 4
candle:
  window_minutes: 5
strategy:
  sma_short_window: 7
  sma_long_window: 21
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 9090 || c.Server.ShutdownTimeout != 15*time.Second {
		t.Fatalf("unexpected server config %+v", c.Server)
	}
	if len(c.Kafka.Brokers) != 2 || c.Kafka.Consumer.Workers != 4 {
		t.Fatalf("unexpected kafka config %+v", c.Kafka)
	}
	if c.CandleWindow() != 5*time.Minute {
		t.Fatalf("unexpected window %v", c.CandleWindow())
	}
	if c.Strategy.SMAShortWindow != 7 || c.Strategy.SMALongWindow != 21 {
		t.Fatalf("unexpected strategy config %+v", c.Strategy)
	}
}

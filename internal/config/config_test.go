package config

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleYAML = `
server-ip: "0.0.0.0"
server-port: 50051
symbol: "BTCUSDT"
alpha:
  rest_base_url: "https://api.binance.com/api/v3"
  ws_url: "wss://stream.binance.com:9443/ws"
beta:
  rest_base_url: "https://www.bitstamp.net/api/v2"
  ws_url: "wss://ws.bitstamp.net"
channels:
  buffer_size: 32
logging:
  level: "debug"
  format: "json"
`

func writeSampleConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o644); err != nil {
		t.Fatalf("write sample config: %v", err)
	}
	return path
}

func TestLoadAndValidate(t *testing.T) {
	t.Parallel()
	path := writeSampleConfig(t)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.ListenAddr() != "0.0.0.0:50051" {
		t.Errorf("ListenAddr = %q", cfg.ListenAddr())
	}
	if cfg.Channels.BufferSize != 32 {
		t.Errorf("BufferSize = %d, want 32", cfg.Channels.BufferSize)
	}
}

func TestLoadAppliesDefaults(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "config.yaml")
	minimal := `
server-ip: "127.0.0.1"
server-port: 50051
symbol: "BTCUSDT"
alpha:
  rest_base_url: "https://api.binance.com/api/v3"
  ws_url: "wss://stream.binance.com:9443/ws"
beta:
  rest_base_url: "https://www.bitstamp.net/api/v2"
  ws_url: "wss://ws.bitstamp.net"
`
	if err := os.WriteFile(path, []byte(minimal), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Channels.BufferSize != 64 {
		t.Errorf("default buffer_size = %d, want 64", cfg.Channels.BufferSize)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("default logging.level = %q, want info", cfg.Logging.Level)
	}
}

func TestValidateRejectsMissingFields(t *testing.T) {
	t.Parallel()
	cases := []struct {
		name string
		cfg  Config
	}{
		{"missing port", Config{Symbol: "BTCUSDT", Alpha: VenueConfig{RESTBaseURL: "x", WSURL: "y"}, Beta: VenueConfig{RESTBaseURL: "x", WSURL: "y"}, Channels: ChannelsConfig{BufferSize: 1}}},
		{"missing symbol", Config{ServerPort: 1, Alpha: VenueConfig{RESTBaseURL: "x", WSURL: "y"}, Beta: VenueConfig{RESTBaseURL: "x", WSURL: "y"}, Channels: ChannelsConfig{BufferSize: 1}}},
		{"missing alpha urls", Config{ServerPort: 1, Symbol: "BTCUSDT", Beta: VenueConfig{RESTBaseURL: "x", WSURL: "y"}, Channels: ChannelsConfig{BufferSize: 1}}},
		{"missing buffer size", Config{ServerPort: 1, Symbol: "BTCUSDT", Alpha: VenueConfig{RESTBaseURL: "x", WSURL: "y"}, Beta: VenueConfig{RESTBaseURL: "x", WSURL: "y"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := tc.cfg.Validate(); err == nil {
				t.Error("expected Validate error, got nil")
			}
		})
	}
}

// Package config defines all configuration for the book merger process.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// the listen address overridable via BOOKMERGE_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML file
// structure.
type Config struct {
	ServerIP   string         `mapstructure:"server-ip"`
	ServerPort int            `mapstructure:"server-port"`
	Symbol     string         `mapstructure:"symbol"`
	Alpha      VenueConfig    `mapstructure:"alpha"`
	Beta       VenueConfig    `mapstructure:"beta"`
	Channels   ChannelsConfig `mapstructure:"channels"`
	Logging    LoggingConfig  `mapstructure:"logging"`
}

// VenueConfig holds one venue connector's REST/WS endpoints.
type VenueConfig struct {
	RESTBaseURL string `mapstructure:"rest_base_url"`
	WSURL       string `mapstructure:"ws_url"`
}

// ChannelsConfig sizes the fetcher->applier and applier->merger channels.
type ChannelsConfig struct {
	BufferSize int `mapstructure:"buffer_size"`
}

// LoggingConfig selects the slog handler and level.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// ListenAddr returns the RPC server's bind address, server-ip:server-port.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerIP, c.ServerPort)
}

// Load reads config from a YAML file with env var overrides. BOOKMERGE_*
// environment variables (e.g. BOOKMERGE_SERVER_IP) override the listen
// address.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("BOOKMERGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("channels.buffer_size", 64)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if ip := os.Getenv("BOOKMERGE_SERVER_IP"); ip != "" {
		cfg.ServerIP = ip
	}

	return &cfg, nil
}

// Validate checks all required fields, per spec.md §7's ConfigError kind:
// a missing or unparseable listen address is fatal at startup.
func (c *Config) Validate() error {
	if c.ServerPort == 0 {
		return fmt.Errorf("server-port is required")
	}
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.Alpha.RESTBaseURL == "" || c.Alpha.WSURL == "" {
		return fmt.Errorf("alpha.rest_base_url and alpha.ws_url are required")
	}
	if c.Beta.RESTBaseURL == "" || c.Beta.WSURL == "" {
		return fmt.Errorf("beta.rest_base_url and beta.ws_url are required")
	}
	if c.Channels.BufferSize <= 0 {
		return fmt.Errorf("channels.buffer_size must be > 0")
	}
	return nil
}

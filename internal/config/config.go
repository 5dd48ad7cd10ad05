package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values applied when fields are absent from the config file.
const (
	DefaultAPIBase           = "https://api.allstream.ai"
	DefaultGatewayURL        = "wss://gw0.streamapp365.com/connect"
	DefaultAccountsFile      = "accounts.txt"
	DefaultRoutesFile        = "proxy.txt"
	DefaultHeartbeatInterval = 60 * time.Second
	DefaultReconnectDelay    = 5 * time.Second
)

// Config is the top-level configuration for the streamnode client.
// Fields map 1:1 to config.example.yaml.
type Config struct {
	Platform PlatformConfig `yaml:"platform"`
	Client   ClientConfig   `yaml:"client"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// PlatformConfig holds the remote platform endpoints.
type PlatformConfig struct {
	// APIBase is the base URL of the platform's HTTP API
	// (login and dashboard endpoints hang off it).
	APIBase string `yaml:"api_base"`

	// GatewayURL is the wss:// endpoint every session connects to.
	GatewayURL string `yaml:"gateway_url"`
}

// ClientConfig holds session behavior and input file locations.
type ClientConfig struct {
	// AccountsFile is the path to the email:password credential list.
	AccountsFile string `yaml:"accounts_file"`

	// RoutesFile is the path to the proxy endpoint list. Only read when
	// UseRoutes is true (or the operator answers yes at the prompt).
	RoutesFile string `yaml:"routes_file"`

	// UseRoutes enables routed mode: every account is fanned out across
	// every loaded route instead of a single direct session.
	UseRoutes bool `yaml:"use_routes"`

	// HeartbeatInterval controls how often each open session pings the
	// gateway and polls reward points.
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`

	// ReconnectDelay is the fixed wait after a session's channel closes
	// before the next dial attempt. No backoff growth, no jitter — the
	// gateway expects dumb fixed-cadence retries.
	ReconnectDelay time.Duration `yaml:"reconnect_delay"`
}

// MetricsConfig configures the optional local observability endpoint.
type MetricsConfig struct {
	// ListenAddr is the host:port the Prometheus text endpoint binds to.
	// Empty disables the endpoint entirely.
	ListenAddr string `yaml:"listen_addr"`
}

// Load reads and parses the YAML config file at path.
// Missing optional fields are filled with sensible defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Platform: PlatformConfig{
			APIBase:    DefaultAPIBase,
			GatewayURL: DefaultGatewayURL,
		},
		Client: ClientConfig{
			AccountsFile:      DefaultAccountsFile,
			RoutesFile:        DefaultRoutesFile,
			HeartbeatInterval: DefaultHeartbeatInterval,
			ReconnectDelay:    DefaultReconnectDelay,
		},
	}
}

// validate checks required fields and structural constraints.
func validate(cfg *Config) error {
	if cfg.Platform.APIBase == "" {
		return fmt.Errorf("platform.api_base is required")
	}
	if !strings.HasPrefix(cfg.Platform.APIBase, "http://") && !strings.HasPrefix(cfg.Platform.APIBase, "https://") {
		return fmt.Errorf("platform.api_base must be an http(s) URL, got %q", cfg.Platform.APIBase)
	}
	if cfg.Platform.GatewayURL == "" {
		return fmt.Errorf("platform.gateway_url is required")
	}
	if !strings.HasPrefix(cfg.Platform.GatewayURL, "ws://") && !strings.HasPrefix(cfg.Platform.GatewayURL, "wss://") {
		return fmt.Errorf("platform.gateway_url must be a ws(s) URL, got %q", cfg.Platform.GatewayURL)
	}
	if cfg.Client.AccountsFile == "" {
		return fmt.Errorf("client.accounts_file is required")
	}
	if cfg.Client.HeartbeatInterval <= 0 {
		return fmt.Errorf("client.heartbeat_interval must be positive")
	}
	if cfg.Client.ReconnectDelay <= 0 {
		return fmt.Errorf("client.reconnect_delay must be positive")
	}
	return nil
}

package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/c360/streampace/errors"
)

// Environment variable overrides
const (
	EnvNATSURL     = "STREAMPACE_NATS_URL"
	EnvMetricsPort = "STREAMPACE_METRICS_PORT"
	EnvLogLevel    = "STREAMPACE_LOG_LEVEL"
	EnvRecording   = "STREAMPACE_RECORDING"
)

// Config represents the complete application configuration
type Config struct {
	LogLevel string        `json:"log_level,omitempty"`
	NATS     NATSConfig    `json:"nats"`
	Metrics  MetricsConfig `json:"metrics"`

	// Source is the JSONL input section, passed through to input/jsonl.
	Source json.RawMessage `json:"source"`

	// Replay is the session section, passed through to replayer.
	Replay json.RawMessage `json:"replay,omitempty"`

	// Outputs holds per-sink sections, passed through to the matching
	// output package. Known keys: "nats", "websocket".
	Outputs map[string]json.RawMessage `json:"outputs"`
}

// NATSConfig defines NATS connection settings
type NATSConfig struct {
	URL           string `json:"url,omitempty"`
	MaxReconnects int    `json:"max_reconnects,omitempty"`
}

// MetricsConfig defines the metrics/health HTTP endpoint
type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Port    int    `json:"port,omitempty"`
	Path    string `json:"path,omitempty"`
}

// DefaultConfig returns the default application configuration
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		NATS: NATSConfig{
			URL:           "nats://localhost:4222",
			MaxReconnects: -1,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Port:    9090,
			Path:    "/metrics",
		},
		Outputs: map[string]json.RawMessage{},
	}
}

// Load reads the configuration file, applies environment overrides, and
// validates the result. An empty path yields the defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapFatal(err, "Config", "Load", "read config file")
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", "parse config file")
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(EnvNATSURL); v != "" {
		c.NATS.URL = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(EnvMetricsPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Metrics.Port = port
		}
	}
	if v := os.Getenv(EnvRecording); v != "" {
		c.Source = json.RawMessage(fmt.Sprintf(`{"path":%q}`, v))
	}
}

// Validate checks what the host binary needs before component wiring.
// Component sections validate themselves in their constructors.
func (c *Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	if len(c.Source) == 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
			"source section is required")
	}
	if len(c.Outputs) == 0 {
		return errors.WrapInvalid(errors.ErrMissingConfig, "Config", "Validate",
			"at least one output section is required")
	}
	for name := range c.Outputs {
		switch name {
		case "nats", "websocket":
		default:
			return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
				fmt.Sprintf("unknown output %q", name))
		}
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "Validate",
			fmt.Sprintf("metrics port %d out of range", c.Metrics.Port))
	}
	return nil
}

// ParseLogLevel maps a config string to a slog level
func ParseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, errors.WrapInvalid(errors.ErrInvalidConfig, "Config", "ParseLogLevel",
			fmt.Sprintf("unknown log level %q", level))
	}
}

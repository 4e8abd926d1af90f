package swarm

import (
	"fmt"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// MapConfig provides a map-based Config implementation.
type MapConfig struct {
	data map[string]interface{}
	mu   sync.RWMutex
}

// NewMapConfig creates a new map-based configuration.
func NewMapConfig() Config {
	return &MapConfig{
		data: make(map[string]interface{}),
	}
}

// NewMapConfigFrom creates a new map-based configuration from existing data.
func NewMapConfigFrom(data map[string]interface{}) Config {
	config := &MapConfig{
		data: make(map[string]interface{}),
	}

	for key, value := range data {
		config.data[key] = value
	}

	return config
}

// Get retrieves a configuration value.
func (c *MapConfig) Get(key string) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.data[key]
}

// GetString retrieves a string configuration value.
func (c *MapConfig) GetString(key string) string {
	if value := c.Get(key); value != nil {
		if str, ok := value.(string); ok {
			return str
		}
	}
	return ""
}

// GetInt retrieves an integer configuration value.
func (c *MapConfig) GetInt(key string) int {
	if value := c.Get(key); value != nil {
		switch v := value.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		}
	}
	return 0
}

// GetBool retrieves a boolean configuration value.
func (c *MapConfig) GetBool(key string) bool {
	if value := c.Get(key); value != nil {
		if b, ok := value.(bool); ok {
			return b
		}
	}
	return false
}

// GetDuration retrieves a duration configuration value.
func (c *MapConfig) GetDuration(key string) time.Duration {
	if value := c.Get(key); value != nil {
		switch v := value.(type) {
		case time.Duration:
			return v
		case string:
			if d, err := time.ParseDuration(v); err == nil {
				return d
			}
		case int64:
			return time.Duration(v)
		case float64:
			return time.Duration(int64(v))
		}
	}
	return 0
}

// Set stores a configuration value.
func (c *MapConfig) Set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data[key] = value
}

// Has checks if a configuration key exists.
func (c *MapConfig) Has(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	_, exists := c.data[key]
	return exists
}

// Default values for SwarmConfig.
const (
	DefaultBusSize           = 1000
	DefaultMailboxSize       = 100
	DefaultHistoryLimit      = 1000
	DefaultRequestTimeout    = 30 * time.Second
	DefaultHealthInterval    = 30 * time.Second
	DefaultTickInterval      = 100 * time.Millisecond
	DefaultHealthReportEvery = 600
)

// AgentSpec declares one agent instance to be built through a factory.
type AgentSpec struct {
	Type    string            `yaml:"type"`
	ID      string            `yaml:"id"`
	Options map[string]string `yaml:"options"`
}

// SwarmConfig holds the tunable parameters of an orchestrator, its router,
// and the declarative agent list.
type SwarmConfig struct {
	SwarmID           string
	BusSize           int
	MailboxSize       int
	HistoryLimit      int
	RequestTimeout    time.Duration
	HealthInterval    time.Duration
	TickInterval      time.Duration
	HealthReportEvery uint64
	LogLevel          string
	Agents            []AgentSpec
}

// swarmConfigWire is the YAML form of SwarmConfig. Durations are parsed from
// strings after unmarshaling.
type swarmConfigWire struct {
	SwarmID           string      `yaml:"swarm_id"`
	BusSize           int         `yaml:"bus_size"`
	MailboxSize       int         `yaml:"mailbox_size"`
	HistoryLimit      int         `yaml:"history_limit"`
	RequestTimeout    string      `yaml:"request_timeout"`
	HealthInterval    string      `yaml:"health_interval"`
	TickInterval      string      `yaml:"tick_interval"`
	HealthReportEvery uint64      `yaml:"health_report_every"`
	LogLevel          string      `yaml:"log_level"`
	Agents            []AgentSpec `yaml:"agents"`
}

// DefaultConfig returns a SwarmConfig populated with defaults.
func DefaultConfig() *SwarmConfig {
	return &SwarmConfig{
		SwarmID:           "swarm",
		BusSize:           DefaultBusSize,
		MailboxSize:       DefaultMailboxSize,
		HistoryLimit:      DefaultHistoryLimit,
		RequestTimeout:    DefaultRequestTimeout,
		HealthInterval:    DefaultHealthInterval,
		TickInterval:      DefaultTickInterval,
		HealthReportEvery: DefaultHealthReportEvery,
		LogLevel:          "info",
	}
}

// LoadConfig reads a SwarmConfig from a YAML file, applying defaults for
// anything not set.
func LoadConfig(path string) (*SwarmConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewSwarmErrorWithCause(ErrInvalidConfiguration, fmt.Sprintf("reading config file %s", path), err)
	}

	var wire swarmConfigWire
	if err := yaml.Unmarshal(data, &wire); err != nil {
		return nil, NewSwarmErrorWithCause(ErrInvalidConfiguration, fmt.Sprintf("parsing config file %s", path), err)
	}

	cfg := DefaultConfig()
	if wire.SwarmID != "" {
		cfg.SwarmID = wire.SwarmID
	}
	if wire.BusSize != 0 {
		cfg.BusSize = wire.BusSize
	}
	if wire.MailboxSize != 0 {
		cfg.MailboxSize = wire.MailboxSize
	}
	if wire.HistoryLimit != 0 {
		cfg.HistoryLimit = wire.HistoryLimit
	}
	if wire.HealthReportEvery != 0 {
		cfg.HealthReportEvery = wire.HealthReportEvery
	}
	if wire.LogLevel != "" {
		cfg.LogLevel = wire.LogLevel
	}
	cfg.Agents = wire.Agents

	durations := []struct {
		raw  string
		name string
		dst  *time.Duration
	}{
		{wire.RequestTimeout, "request_timeout", &cfg.RequestTimeout},
		{wire.HealthInterval, "health_interval", &cfg.HealthInterval},
		{wire.TickInterval, "tick_interval", &cfg.TickInterval},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return nil, NewSwarmErrorWithCause(ErrInvalidConfiguration, fmt.Sprintf("parsing %s", d.name), err)
		}
		*d.dst = parsed
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for values the core cannot run with.
func (c *SwarmConfig) Validate() error {
	if c.BusSize <= 0 {
		return NewSwarmError(ErrInvalidConfiguration, "bus_size must be positive")
	}
	if c.MailboxSize <= 0 {
		return NewSwarmError(ErrInvalidConfiguration, "mailbox_size must be positive")
	}
	if c.HistoryLimit < 0 {
		return NewSwarmError(ErrInvalidConfiguration, "history_limit must not be negative")
	}
	if c.RequestTimeout <= 0 {
		return NewSwarmError(ErrInvalidConfiguration, "request_timeout must be positive")
	}
	if c.HealthInterval <= 0 {
		return NewSwarmError(ErrInvalidConfiguration, "health_interval must be positive")
	}
	if c.TickInterval <= 0 {
		return NewSwarmError(ErrInvalidConfiguration, "tick_interval must be positive")
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	for i, spec := range c.Agents {
		if spec.Type == "" {
			return NewSwarmError(ErrInvalidConfiguration, fmt.Sprintf("agents[%d]: type is required", i))
		}
	}
	return nil
}

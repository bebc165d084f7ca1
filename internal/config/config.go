// Package config defines process configuration for the mission runtime:
// command channel endpoint, engine tuning, archive location, and logging.
package config

import (
	"fmt"
	"time"

	"github.com/skyward-ai/skyward/internal/types"
)

// Config is the root configuration.
type Config struct {
	Channel ChannelConfig `mapstructure:"channel" yaml:"channel"`
	Engine  EngineConfig  `mapstructure:"engine" yaml:"engine"`
	Archive ArchiveConfig `mapstructure:"archive" yaml:"archive"`
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// ChannelConfig configures the external command channel. An empty endpoint
// disables the channel entirely; every node is then simulated locally.
type ChannelConfig struct {
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// EngineConfig tunes mission execution.
type EngineConfig struct {
	// HomeLat/HomeLng is the position fresh missions start from.
	HomeLat float64 `mapstructure:"home_lat" yaml:"home_lat"`
	HomeLng float64 `mapstructure:"home_lng" yaml:"home_lng"`

	// SimulatorDelay is the artificial per-node delay of the fallback
	// simulator.
	SimulatorDelay time.Duration `mapstructure:"simulator_delay" yaml:"simulator_delay"`

	// EventBuffer is the per-subscriber event channel capacity.
	EventBuffer int `mapstructure:"event_buffer" yaml:"event_buffer"`
}

// ArchiveConfig configures terminal-snapshot persistence. An empty path
// disables archiving.
type ArchiveConfig struct {
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `mapstructure:"level" yaml:"level"`

	// Format is "text" or "json".
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Channel: ChannelConfig{
			Endpoint: "",
			Timeout:  10 * time.Second,
		},
		Engine: EngineConfig{
			SimulatorDelay: 300 * time.Millisecond,
			EventBuffer:    100,
		},
		Archive: ArchiveConfig{
			Path: "skyward.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the configuration for values the runtime cannot use.
func (c *Config) Validate() error {
	if c.Channel.Timeout < 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "channel.timeout cannot be negative")
	}
	if c.Engine.SimulatorDelay < 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "engine.simulator_delay cannot be negative")
	}
	if c.Engine.EventBuffer < 0 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED, "engine.event_buffer cannot be negative")
	}
	if c.Engine.HomeLat < -90 || c.Engine.HomeLat > 90 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("engine.home_lat %v is out of range", c.Engine.HomeLat))
	}
	if c.Engine.HomeLng < -180 || c.Engine.HomeLng > 180 {
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("engine.home_lng %v is out of range", c.Engine.HomeLng))
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("logging.level %q is not one of debug, info, warn, error", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("logging.format %q is not one of text, json", c.Logging.Format))
	}

	return nil
}

package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/skyward-ai/skyward/internal/types"
)

// Loader reads configuration files.
type Loader struct{}

// NewLoader creates a new Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads the configuration file at path, applying defaults for unset
// keys and SKYWARD_* environment overrides (SKYWARD_CHANNEL_ENDPOINT and so
// on). The file must exist.
func (l *Loader) Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	return unmarshal(v)
}

// LoadWithDefaults behaves like Load but returns the default configuration
// when the file does not exist.
func (l *Loader) LoadWithDefaults(path string) (*Config, error) {
	if path == "" {
		return defaults()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return defaults()
	}
	return l.Load(path)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("SKYWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	def := DefaultConfig()
	v.SetDefault("channel.endpoint", def.Channel.Endpoint)
	v.SetDefault("channel.timeout", def.Channel.Timeout)
	v.SetDefault("engine.home_lat", def.Engine.HomeLat)
	v.SetDefault("engine.home_lng", def.Engine.HomeLng)
	v.SetDefault("engine.simulator_delay", def.Engine.SimulatorDelay)
	v.SetDefault("engine.event_buffer", def.Engine.EventBuffer)
	v.SetDefault("archive.path", def.Archive.Path)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("logging.format", def.Logging.Format)

	return v
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to unmarshal config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaults() (*Config, error) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skyward-ai/skyward/internal/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "skyward.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_Load(t *testing.T) {
	path := writeConfig(t, `
channel:
  endpoint: "localhost:9090"
  timeout: 3s
engine:
  home_lat: 37.7749
  home_lng: -122.4194
  simulator_delay: 50ms
archive:
  path: "/var/lib/skyward/archive.db"
logging:
  level: debug
  format: json
`)

	cfg, err := NewLoader().Load(path)
	require.NoError(t, err)

	assert.Equal(t, "localhost:9090", cfg.Channel.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Channel.Timeout)
	assert.Equal(t, 37.7749, cfg.Engine.HomeLat)
	assert.Equal(t, -122.4194, cfg.Engine.HomeLng)
	assert.Equal(t, 50*time.Millisecond, cfg.Engine.SimulatorDelay)
	assert.Equal(t, "/var/lib/skyward/archive.db", cfg.Archive.Path)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)

	// Unset keys fall back to defaults.
	assert.Equal(t, 100, cfg.Engine.EventBuffer)
}

func TestLoader_LoadMissingFile(t *testing.T) {
	_, err := NewLoader().Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)

	var serr *types.SkywardError
	require.True(t, errors.As(err, &serr))
	assert.Equal(t, types.CONFIG_LOAD_FAILED, serr.Code)
}

func TestLoader_LoadWithDefaults(t *testing.T) {
	cfg, err := NewLoader().LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = NewLoader().LoadWithDefaults("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_LoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "bad latitude",
			content: `
engine:
  home_lat: 123.0
`,
		},
		{
			name: "bad log level",
			content: `
logging:
  level: verbose
`,
		},
		{
			name: "bad log format",
			content: `
logging:
  format: xml
`,
		},
		{
			name: "negative timeout",
			content: `
channel:
  timeout: -1s
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLoader().Load(writeConfig(t, tt.content))
			require.Error(t, err)

			var serr *types.SkywardError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, types.CONFIG_VALIDATION_FAILED, serr.Code)
		})
	}
}

func TestConfig_ValidateDefaults(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigYAML = `
env:
  env: test
  serviceName: streetsearch
  log:
    level: debug
    pretty: true
http:
  port: 9090
  timeouts:
    readTimeout: 5s
routing:
  enabled: true
  dataPath: ./data/routing
  distance: spherical
search:
  walkReluctance: 3
  reachTimeout: 250ms
`

func writeConfig(t *testing.T, content string) {
	t.Helper()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	t.Chdir(dir)
}

func TestLoadWithEnv(t *testing.T) {
	writeConfig(t, testConfigYAML)
	t.Setenv("ROUTING_DATAPATH", "/srv/graph")
	t.Setenv("SEARCH_ALPHADISTANCEM", "75")

	cfg, err := LoadWithEnv[Config]("config")
	require.NoError(t, err)

	assert.Equal(t, "streetsearch", cfg.Env.ServiceName)
	assert.Equal(t, 9090, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Second, cfg.HTTP.Timeouts.ReadTimeout)

	require.NotNil(t, cfg.Routing)
	assert.True(t, cfg.Routing.Enabled)
	assert.Equal(t, "/srv/graph", cfg.Routing.DataPath, "env overrides yaml")
	assert.Equal(t, "spherical", cfg.Routing.Distance)

	require.NotNil(t, cfg.Search)
	assert.InDelta(t, 3.0, cfg.Search.WalkReluctance, 1e-9)
	assert.InDelta(t, 75.0, cfg.Search.AlphaDistanceM, 1e-9)
	assert.Equal(t, 250*time.Millisecond, cfg.Search.ReachTimeout)
}

func TestLoadWithEnv_MissingFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadWithEnv[Config]("config")
	assert.Error(t, err)
}

func TestConfig_ApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.ApplyDefaults()

	assert.Equal(t, defaultPort, cfg.HTTP.Port)
	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
	assert.Equal(t, "info", cfg.Env.Log.Level)

	require.NotNil(t, cfg.Routing)
	assert.InDelta(t, 500.0, cfg.Routing.MaxSnapDistanceM, 1e-9)
	assert.Equal(t, "haversine", cfg.Routing.Distance)
	assert.Equal(t, defaultBatchWorkers, cfg.Routing.BatchWorkers)

	require.NotNil(t, cfg.Search)
	assert.InDelta(t, 2.0, cfg.Search.WalkReluctance, 1e-9)
	assert.InDelta(t, 13.41, cfg.Search.MaxStreetSpeed, 1e-9)
	assert.InDelta(t, 1.33, cfg.Search.WalkSpeed, 1e-9)
	assert.InDelta(t, 50.0, cfg.Search.AlphaDistanceM, 1e-9)
	assert.InDelta(t, 1.0, cfg.Search.ImportanceMultiplier, 1e-9)
	assert.InDelta(t, 0.95, cfg.Search.ReachPercentage, 1e-9)
	assert.Zero(t, cfg.Search.SampleFraction, "zero keeps every waypoint")

	require.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "enabled without data path", mutate: func(c *Config) { c.Routing.Enabled = true }},
		{name: "unknown distance", mutate: func(c *Config) { c.Routing.Distance = "manhattan" }},
		{name: "reach above one", mutate: func(c *Config) { c.Search.ReachPercentage = 1.5 }},
		{name: "negative sample fraction", mutate: func(c *Config) { c.Search.SampleFraction = -0.1 }},
		{name: "unknown log level", mutate: func(c *Config) { c.Env.Log.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{}
			cfg.ApplyDefaults()
			tt.mutate(cfg)

			assert.Error(t, cfg.Validate())
		})
	}
}

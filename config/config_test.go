package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/stintplan/core/planner"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `solver:
  backend:
    type: bnb
    conf:
      node_limit: 5000
  time_limit_seconds: 12.5
  spotter_mode: sequential
  allow_empty_spotter: true
  weights:
    policy: legacy
logging:
  level: debug
  format: console
metrics:
  sinks:
    - type: nop
history:
  backend: sqlite
sentry:
  dsn: ""
  traces_sample_rate: 0.5
publish:
  broker: "tcp://localhost:1883"
  client_id: "planner"
  topic: "race/schedule"
  qos: 1
  retain: true
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"backend", cfg.Solver.Backend.Type, "bnb"},
		{"node_limit", cfg.Solver.Backend.Conf["node_limit"], 5000},
		{"time_limit", cfg.Solver.TimeLimit(), 12500 * time.Millisecond},
		{"spotter_mode", cfg.Solver.SpotterMode, "sequential"},
		{"allow_empty", cfg.Solver.AllowEmptySpotter, true},
		{"log level", cfg.Logging.Level, "debug"},
		{"metrics sinks", len(cfg.Metrics.Sinks), 1},
		{"history backend", cfg.History.Backend, "sqlite"},
		{"history path", cfg.History.Path, "stintplan-history.db"},
		{"sample rate", cfg.Sentry.TracesSampleRate, 0.5},
		{"broker", cfg.Publish.Broker, "tcp://localhost:1883"},
		{"topic", cfg.Publish.Topic, "race/schedule"},
		{"qos", cfg.Publish.QoS, byte(1)},
		{"retain", cfg.Publish.Retain, true},
	}
	for _, c := range checks {
		assert.EqualValues(t, c.want, c.got, c.name)
	}

	opts, err := cfg.Solver.PlannerOptions()
	require.NoError(t, err)
	assert.Equal(t, planner.SpotterSequential, opts.Mode)
	assert.Equal(t, planner.WeightsLegacy, opts.WeightPolicy)
	assert.True(t, opts.AllowEmptySpotter)
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"solver":{"spotter_mode":"integrated"}}`), 0o644))
	t.Setenv("K_SOLVER__TIME_LIMIT_SECONDS", "7")
	t.Setenv("K_HISTORY__BACKEND", "jsonl")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, cfg.Solver.TimeLimit())
	assert.Equal(t, "integrated", cfg.Solver.SpotterMode)
	assert.Equal(t, "stintplan-history.jsonl", cfg.History.Path)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "bnb", cfg.Solver.Backend.Type)
	assert.Equal(t, DefaultTimeLimitSeconds*time.Second, cfg.Solver.TimeLimit())
	assert.Equal(t, "none", cfg.Solver.SpotterMode)
	assert.False(t, cfg.History.Enabled())
	assert.False(t, cfg.Publish.Enabled())
	assert.Equal(t, Default().Solver, cfg.Solver)
	assert.Equal(t, "stintplan:runs", cfg.History.Redis.Key)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	checks := []struct {
		name string
		file string
		body string
	}{
		{"unsupported extension", "config.toml", "x = 1"},
		{"bad spotter mode", "config.yaml", "solver:\n  spotter_mode: both\n"},
		{"bad weight policy", "config.yaml", "solver:\n  weights:\n    policy: heavy\n"},
		{"custom weights missing", "config.yaml", "solver:\n  weights:\n    policy: custom\n"},
		{"bad history backend", "config.yaml", "history:\n  backend: postgres\n"},
		{"redis without addr", "config.yaml", "history:\n  backend: redis\n"},
		{"bad log level", "config.yaml", "logging:\n  level: loud\n"},
		{"bad sample rate", "config.yaml", "sentry:\n  traces_sample_rate: 2\n"},
	}
	for _, c := range checks {
		t.Run(c.name, func(t *testing.T) {
			path := filepath.Join(dir, c.file)
			require.NoError(t, os.WriteFile(path, []byte(c.body), 0o644))
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

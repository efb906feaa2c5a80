package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWhenNoPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Pivot.Port)
	assert.Equal(t, "default", cfg.Pivot.Scheduler)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pivot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
pivot:
  master: cluster-1
  n_parallel: 8
service:
  host: marathon.internal
  port: 8080
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "cluster-1", cfg.Pivot.Master)
	assert.Equal(t, 8, cfg.Pivot.NParallel)
	assert.Equal(t, "marathon.internal", cfg.Service.Host)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	t.Setenv("PIVOT_MASTER", "env-master")
	t.Setenv("PIVOT_PORT", "9999")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-master", cfg.Pivot.Master)
	assert.Equal(t, 9999, cfg.Pivot.Port)
}

func TestLiveEndpointsRewrite(t *testing.T) {
	le := NewLiveEndpoints(Default())
	assert.Equal(t, "localhost", le.Job().Host)

	le.SetJob(Backend{Host: "new-leader", Port: 4400})
	assert.Equal(t, "new-leader", le.Job().Host)
}

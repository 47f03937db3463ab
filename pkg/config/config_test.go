package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airsstack/airssys/pkg/config"
)

func TestParseRejectsUnknownFields(t *testing.T) {
	data := []byte(`
security:
  mode: strict
  bogus_field: true
`)
	_, err := config.Parse(data)
	require.Error(t, err)
}

func TestParseRejectsUnknownNestedFields(t *testing.T) {
	data := []byte(`
audit:
  sink: console
  unexpected: nope
`)
	_, err := config.Parse(data)
	require.Error(t, err)
}

func TestParseLayersYAMLOverDefaults(t *testing.T) {
	data := []byte(`
security:
  mode: permissive
supervisor:
  max_restarts: 9
`)
	cfg, err := config.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, config.ModePermissive, cfg.Security.Mode)
	assert.Equal(t, 9, cfg.Supervisor.MaxRestarts)
	// Fields the YAML document omits still fall back to defaults.
	assert.Equal(t, config.AuditSinkConsole, cfg.Audit.Sink)
	assert.Equal(t, 1024, cfg.Audit.RingCapacity)
}

func TestDefaultReturnsHardcodedBaseline(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, config.ModeStrict, cfg.Security.Mode)
	assert.Equal(t, config.AuditSinkConsole, cfg.Audit.Sink)
	assert.Equal(t, 1024, cfg.Audit.RingCapacity)
	assert.Equal(t, 5, cfg.Supervisor.MaxRestarts)
	assert.Equal(t, 60*time.Second, cfg.Supervisor.RestartWindow)
	assert.Equal(t, uint64(64*1024*1024), cfg.Resources.MaxMemoryBytes)
}

func TestDefaultAppliesEnvironmentOverrides(t *testing.T) {
	t.Setenv("AIRSSYS_SECURITY_MODE", "development")
	t.Setenv("AIRSSYS_SUPERVISOR_MAX_RESTARTS", "42")
	t.Setenv("AIRSSYS_SUPERVISOR_BASE_DELAY", "250ms")

	cfg := config.Default()

	assert.Equal(t, config.SecurityMode("development"), cfg.Security.Mode)
	assert.Equal(t, 42, cfg.Supervisor.MaxRestarts)
	assert.Equal(t, 250*time.Millisecond, cfg.Supervisor.BaseDelay)
}

func TestParseEnvironmentOverridesTakePriorityOverYAML(t *testing.T) {
	t.Setenv("AIRSSYS_AUDIT_SINK", "file")
	t.Setenv("AIRSSYS_AUDIT_FILE_PATH", "/var/log/override.log")

	data := []byte(`
audit:
  sink: ring
  ring_capacity: 2048
`)
	cfg, err := config.Parse(data)
	require.NoError(t, err)

	assert.Equal(t, config.AuditSinkFile, cfg.Audit.Sink)
	assert.Equal(t, "/var/log/override.log", cfg.Audit.FilePath)
	// A field the env layer doesn't touch still reflects the YAML layer.
	assert.Equal(t, 2048, cfg.Audit.RingCapacity)
}

func TestEnvOverridesIgnoreUnparsableValues(t *testing.T) {
	t.Setenv("AIRSSYS_SUPERVISOR_MAX_RESTARTS", "not-a-number")

	cfg := config.Default()
	assert.Equal(t, 5, cfg.Supervisor.MaxRestarts)
}

func TestLoadReadsFileFromDisk(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "airssys-*.yaml")
	require.NoError(t, err)
	_, err = f.WriteString("security:\n  mode: permissive\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	cfg, err := config.Load(f.Name())
	require.NoError(t, err)
	assert.Equal(t, config.ModePermissive, cfg.Security.Mode)
}

func TestLoadMissingFileReturnsError(t *testing.T) {
	_, err := config.Load("/nonexistent/path/airssys.yaml")
	require.Error(t, err)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"VSIM_LOG_DIR", "VSIM_MAX_CYCLES", "VSIM_TRACE", "VSIM_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, "logs", c.LogDir)
	assert.Equal(t, int64(12000), c.MaxCycles)
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 1, c.Workers)
	assert.False(t, c.Trace.Enabled)
	assert.Equal(t, "vcd", c.Trace.Format)
	assert.Equal(t, filepath.Join("logs", "cpu_vsim.vcd"), c.TraceFile())
	assert.NoError(t, c.Validate())
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
log_dir: out
max_cycles: 500
trace:
  enabled: true
  format: sqlite
`), 0644))

	c, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "out", c.LogDir)
	assert.Equal(t, int64(500), c.MaxCycles)
	assert.True(t, c.Trace.Enabled)
	assert.Equal(t, "sqlite", c.Trace.Format)
	assert.Equal(t, filepath.Join("out", "cpu_vsim.db"), c.TraceFile())
	// unset fields keep their default
	assert.Equal(t, "info", c.LogLevel)
	assert.Equal(t, 1, c.Workers)
}

func TestLoadFromFile_errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_cycles: [1, 2]\n"), 0644))
	_, err = LoadFromFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config file")
}

func TestLoad_env(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "vsim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_dir: fromfile\nlog_level: debug\n"), 0644))

	t.Setenv("VSIM_LOG_DIR", "fromenv")
	t.Setenv("VSIM_MAX_CYCLES", "42")
	t.Setenv("VSIM_TRACE", "SQLite")
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fromenv", c.LogDir)
	assert.Equal(t, int64(42), c.MaxCycles)
	assert.True(t, c.Trace.Enabled)
	assert.Equal(t, "sqlite", c.Trace.Format)
	assert.Equal(t, "debug", c.LogLevel)

	t.Setenv("VSIM_TRACE", "false")
	t.Setenv("VSIM_LOG_LEVEL", "trace")
	c, err = Load("")
	require.NoError(t, err)
	assert.False(t, c.Trace.Enabled)
	assert.Equal(t, "vcd", c.Trace.Format)
	assert.Equal(t, "trace", c.LogLevel)
}

func TestLoad_envErrors(t *testing.T) {
	clearEnv(t)
	t.Setenv("VSIM_MAX_CYCLES", "lots")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VSIM_MAX_CYCLES")

	clearEnv(t)
	t.Setenv("VSIM_TRACE", "fst")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VSIM_TRACE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		err    string
	}{
		{"zero_cycles", func(c *Config) { c.MaxCycles = 0 }, "max_cycles must be positive, got 0"},
		{"negative_cycles", func(c *Config) { c.MaxCycles = -3 }, "max_cycles must be positive, got -3"},
		{"workers", func(c *Config) { c.Workers = -1 }, "workers must not be negative, got -1"},
		{"log_dir", func(c *Config) { c.LogDir = "" }, "log_dir must not be empty"},
		{"level", func(c *Config) { c.LogLevel = "warn" }, "invalid log level: warn (valid: info, debug, trace)"},
		{"format", func(c *Config) { c.Trace.Format = "fst" }, "invalid trace format: fst (valid: vcd, sqlite)"},
		{"format_case", func(c *Config) { c.Trace.Format = "VCD" }, ""},
		{"trace_file", func(c *Config) { c.Trace.File = "/tmp/x.vcd" }, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			err := c.Validate()
			if tt.err == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.err, err.Error())
		})
	}
}

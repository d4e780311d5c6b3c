package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"VSIM_LOG_DIR", "VSIM_MAX_CYCLES", "VSIM_TRACE", "VSIM_LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	clearEnv(t)
	var out, errOut bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0644))
	return path
}

func golden(t *testing.T) *goldie.Goldie {
	return goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand()
	assert.Equal(t, "cpu_vsim [program.asm]", cmd.Use)
	assert.True(t, cmd.SilenceUsage)

	for _, name := range []string{"config", "log-dir", "max-cycles", "trace", "trace-format", "trace-file", "log-level", "workers"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "c", cmd.Flags().Lookup("config").Shorthand)

	for _, name := range []string{"asm", "version"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err)
		assert.Equal(t, name, sub.Name())
	}
}

func TestRun_default(t *testing.T) {
	dir := t.TempDir()
	stdout, stderr, err := execute(t, "--log-dir", dir)
	require.NoError(t, err)
	assert.Empty(t, stderr)
	golden(t).Assert(t, "run_default", []byte(stdout))

	data, err := os.ReadFile(filepath.Join(dir, "cpu_vsim.log"))
	require.NoError(t, err)
	lines := strings.SplitAfter(string(data), "\n")
	require.True(t, len(lines) > 3)
	assert.Equal(t, "\n", lines[0])
	assert.Equal(t, "Simulation started\n", lines[1])
	require.True(t, strings.HasPrefix(lines[2], "Run ID: "), lines[2])
	id, err := uuid.Parse(strings.TrimSpace(strings.TrimPrefix(lines[2], "Run ID: ")))
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
	// apart from the run ID, the log file matches the console
	assert.Equal(t, stdout, lines[0]+lines[1]+strings.Join(lines[3:], ""))
}

func TestRun_program(t *testing.T) {
	src := writeFile(t, "seven.asm", "\tLDI 7\n\tOUT\n\tHLT\n")
	stdout, _, err := execute(t, "--log-dir", t.TempDir(), "--workers", "2", src)
	require.NoError(t, err)
	assert.Contains(t, stdout, "=== OUT: 0x07 (7)\n")
	assert.Contains(t, stdout, "=== HLT: CPU halted.\n")
}

func TestRun_cutoff(t *testing.T) {
	src := writeFile(t, "loop.asm", "loop:\tJMP loop\n")
	stdout, _, err := execute(t, "--log-dir", t.TempDir(), "--max-cycles", "50", src)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(stdout, "Maximum simulation time, quitting.\nSimulation ended after 50 clock ticks\n"), stdout)
	assert.NotContains(t, stdout, "HLT")
}

func TestRun_configFile(t *testing.T) {
	dir := t.TempDir()
	prog := writeFile(t, "five.asm", "\tLDI 5\n\tOUT\n\tHLT\n")
	cfg := writeFile(t, "vsim.yaml", "log_dir: "+dir+"\nprogram: "+prog+"\nmax_cycles: 100\n")
	stdout, _, err := execute(t, "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, stdout, "=== OUT: 0x05 (5)\n")
	assert.FileExists(t, filepath.Join(dir, "cpu_vsim.log"))
}

func TestRun_trace(t *testing.T) {
	for _, tt := range []struct {
		args  []string
		file  string
		title string
	}{
		{[]string{"--trace"}, "cpu_vsim.vcd", "VCD"},
		{[]string{"--trace-format", "sqlite"}, "cpu_vsim.db", "SQLite"},
	} {
		t.Run(tt.title, func(t *testing.T) {
			dir := t.TempDir()
			stdout, _, err := execute(t, append([]string{"--log-dir", dir}, tt.args...)...)
			require.NoError(t, err)
			golden(t).Assert(t, "run_default", []byte(stdout))

			trace := filepath.Join(dir, tt.file)
			info, err := os.Stat(trace)
			require.NoError(t, err)
			assert.NotZero(t, info.Size())
			data, err := os.ReadFile(filepath.Join(dir, "cpu_vsim.log"))
			require.NoError(t, err)
			assert.Contains(t, string(data), "Writing "+tt.title+" waveform file to \""+trace+"\"...\n")
		})
	}
}

func TestRun_traceFailure(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(writeFile(t, "file", ""), "trace.vcd")
	stdout, stderr, err := execute(t, "--log-dir", dir, "--trace", "--trace-file", bad)
	require.NoError(t, err)
	golden(t).Assert(t, "run_default", []byte(stdout))
	assert.Contains(t, stderr, "tracing disabled")
	assert.NoFileExists(t, bad)
}

func TestRun_errors(t *testing.T) {
	notDir := writeFile(t, "file", "")
	badSrc := writeFile(t, "bad.asm", "\tFOO 1\n")
	tests := []struct {
		name string
		args []string
		code int
		msg  string
	}{
		{"format", []string{"--trace-format", "fst"}, exitCommandError, "invalid trace format: fst"},
		{"level", []string{"--log-level", "warn"}, exitCommandError, "invalid log level: warn"},
		{"cycles", []string{"--max-cycles", "0"}, exitCommandError, "max_cycles must be positive"},
		{"workers", []string{"--workers=-1"}, exitCommandError, "workers must not be negative"},
		{"program", []string{badSrc}, exitCommandError, "bad.asm"},
		{"missing_program", []string{filepath.Join(t.TempDir(), "nope.asm")}, exitCommandError, "nope.asm"},
		{"args", []string{"a.asm", "b.asm"}, exitCommandError, "accepts at most 1 arg"},
		{"flag", []string{"--bogus"}, exitCommandError, "unknown flag"},
		{"log_dir", []string{"--log-dir", notDir}, exitFailure, "can't create " + filepath.Join(notDir, "cpu_vsim.log")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, tt.code, exitCode(err))
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestAsm(t *testing.T) {
	stdout, _, err := execute(t, "asm")
	require.NoError(t, err)
	golden(t).Assert(t, "asm_default", []byte(stdout))

	src := writeFile(t, "bad.asm", "x:\nx:\n")
	_, _, err = execute(t, "asm", src)
	require.Error(t, err)
	assert.Equal(t, exitCommandError, exitCode(err))
	assert.Contains(t, err.Error(), "duplicate label")
}

func TestVersion(t *testing.T) {
	stdout, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "cpu_vsim dev\n", stdout)
}

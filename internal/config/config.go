// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package config loads the simulator configuration. Settings are layered:
// defaults, then an optional YAML file, then VSIM_* environment variables.
// Command line flags are applied last by the caller.
//
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/db47h/vsim"
	"github.com/db47h/vsim/internal/logging"
	"github.com/db47h/vsim/trace"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config is the simulator configuration.
//
type Config struct {
	// LogDir is the directory of the log and trace files.
	LogDir string `yaml:"log_dir"`
	// MaxCycles is the simulation cycle limit.
	MaxCycles int64 `yaml:"max_cycles"`
	// LogLevel is the diagnostics level: info, debug or trace.
	LogLevel string `yaml:"log_level"`
	// Program is the path of the SAP-1 assembly source to run. The built-in
	// program is used if empty.
	Program string `yaml:"program"`
	// Workers is the number of goroutines used to evaluate the circuit.
	// 0 means GOMAXPROCS.
	Workers int `yaml:"workers"`

	Trace TraceConfig `yaml:"trace"`
}

// TraceConfig configures waveform tracing.
//
type TraceConfig struct {
	Enabled bool   `yaml:"enabled"`
	Format  string `yaml:"format"`
	// File defaults to cpu_vsim.vcd or cpu_vsim.db in LogDir.
	File string `yaml:"file,omitempty"`
}

// Default returns the default configuration.
//
func Default() *Config {
	return &Config{
		LogDir:    "logs",
		MaxCycles: vsim.MaxSimCycles,
		LogLevel:  "info",
		Workers:   1,
		Trace: TraceConfig{
			Format: trace.FormatVCD,
		},
	}
}

// Load returns the default configuration, updated with the YAML file at path
// if path is not empty, then with environment variables.
//
func Load(path string) (*Config, error) {
	c := Default()
	if path != "" {
		var err error
		if c, err = LoadFromFile(path); err != nil {
			return nil, err
		}
	}
	if err := applyEnvOverrides(c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadFromFile loads the YAML file at path over the default configuration.
//
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config file")
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, errors.Wrap(err, "parse config file "+path)
	}
	return c, nil
}

// applyEnvOverrides applies the VSIM_* environment variables.
//
// VSIM_TRACE accepts a boolean, or a trace format name which also enables
// tracing.
//
func applyEnvOverrides(c *Config) error {
	if v := os.Getenv("VSIM_LOG_DIR"); v != "" {
		c.LogDir = v
	}
	if v := os.Getenv("VSIM_MAX_CYCLES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return errors.Errorf("VSIM_MAX_CYCLES: invalid value %q", v)
		}
		c.MaxCycles = n
	}
	if v := os.Getenv("VSIM_TRACE"); v != "" {
		switch strings.ToLower(v) {
		case trace.FormatVCD, trace.FormatSQLite:
			c.Trace.Enabled = true
			c.Trace.Format = strings.ToLower(v)
		default:
			b, err := strconv.ParseBool(v)
			if err != nil {
				return errors.Errorf("VSIM_TRACE: invalid value %q", v)
			}
			c.Trace.Enabled = b
		}
	}
	if v := os.Getenv("VSIM_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	return nil
}

// Validate checks the configuration.
//
func (c *Config) Validate() error {
	if c.MaxCycles <= 0 {
		return errors.Errorf("max_cycles must be positive, got %d", c.MaxCycles)
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.LogDir == "" {
		return errors.New("log_dir must not be empty")
	}
	if !logging.ValidLevel(c.LogLevel) {
		return errors.Errorf("invalid log level: %s (valid: %s)", c.LogLevel, strings.Join(logging.Levels, ", "))
	}
	valid := false
	for _, f := range trace.Formats {
		valid = valid || strings.ToLower(c.Trace.Format) == f
	}
	if !valid {
		return errors.Errorf("invalid trace format: %s (valid: %s)", c.Trace.Format, strings.Join(trace.Formats, ", "))
	}
	return nil
}

// TraceFile returns the trace file path.
//
func (c *Config) TraceFile() string {
	if c.Trace.File != "" {
		return c.Trace.File
	}
	return filepath.Join(c.LogDir, trace.FileName(c.Trace.Format))
}

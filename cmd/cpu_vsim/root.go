// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/db47h/vsim"
	"github.com/db47h/vsim/internal/config"
	"github.com/db47h/vsim/internal/logging"
	"github.com/db47h/vsim/sap1"
	"github.com/db47h/vsim/trace"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath  string
	logDir      string
	maxCycles   int64
	trace       bool
	traceFormat string
	traceFile   string
	logLevel    string
	workers     int
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "cpu_vsim [program.asm]",
		Short: "Run a program on the simulated SAP-1 CPU",
		Long: `cpu_vsim runs a SAP-1 assembly program on a cycle-stepped simulation of the
CPU. The built-in program is run if no program is given.

Events are written to the console and to cpu_vsim.log in the log directory.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config(cmd, args)
			if err != nil {
				return fail(exitCommandError, err)
			}
			return runSimulation(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "YAML configuration file")
	f.StringVar(&opts.logDir, "log-dir", "", "log directory (default \"logs\")")
	f.Int64Var(&opts.maxCycles, "max-cycles", 0, "simulation cycle limit (default 12000)")
	f.BoolVar(&opts.trace, "trace", false, "record a waveform trace")
	f.StringVar(&opts.traceFormat, "trace-format", "", "trace format: vcd or sqlite (default \"vcd\")")
	f.StringVar(&opts.traceFile, "trace-file", "", "trace file (default cpu_vsim.vcd or cpu_vsim.db in the log directory)")
	f.StringVar(&opts.logLevel, "log-level", "", "diagnostics level: info, debug or trace (default \"info\")")
	f.IntVar(&opts.workers, "workers", 0, "circuit evaluation goroutines, 0 for GOMAXPROCS (default 1)")

	cmd.AddCommand(newAsmCommand(), newVersionCommand())
	return cmd
}

// config loads the configuration file and environment, then applies the
// flags that were set on the command line.
//
func (o *rootOptions) config(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	if f.Changed("log-dir") {
		cfg.LogDir = o.logDir
	}
	if f.Changed("max-cycles") {
		cfg.MaxCycles = o.maxCycles
	}
	if f.Changed("trace") {
		cfg.Trace.Enabled = o.trace
	}
	if f.Changed("trace-format") {
		cfg.Trace.Format = o.traceFormat
		// asking for a format implies tracing unless --trace=false
		if !f.Changed("trace") {
			cfg.Trace.Enabled = true
		}
	}
	if f.Changed("trace-file") {
		cfg.Trace.File = o.traceFile
	}
	if f.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if f.Changed("workers") {
		cfg.Workers = o.workers
	}
	if len(args) > 0 {
		cfg.Program = args[0]
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadProgram(name string) (*sap1.Program, error) {
	if name == "" {
		return sap1.Default(), nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	p, err := sap1.Assemble(f)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return p, nil
}

func runSimulation(cfg *config.Config, stdout, stderr io.Writer) error {
	diag := logging.NewLogger(cfg.LogLevel, stderr)

	prog, err := loadProgram(cfg.Program)
	if err != nil {
		return fail(exitCommandError, err)
	}

	log, err := vsim.OpenLogFile(cfg.LogDir, stdout)
	if err != nil {
		return fail(exitFailure, err)
	}

	cpu, err := sap1.New(prog, cfg.Workers)
	if err != nil {
		log.Close()
		return fail(exitFailure, err)
	}
	cpu.SetLogger(diag)

	runID := newRunID(diag)
	opts := vsim.Options{
		MaxCycles: uint64(cfg.MaxCycles),
		RunID:     runID,
		Diag:      diag,
	}
	if cfg.Trace.Enabled {
		name := cfg.TraceFile()
		t, err := trace.Create(cfg.Trace.Format, name, runID)
		if err != nil {
			diag.Error("tracing disabled", "err", err)
		} else {
			opts.Trace = t
			opts.TraceFormat = trace.Title(cfg.Trace.Format)
			opts.TracePath = name
		}
	}

	s := vsim.NewSession(cpu, log, opts)
	stop := vsim.NotifySignals(s.Canceller())
	defer stop()

	res := s.Run()
	diag.Debug("simulation done", "reason", res.Reason, "cycles", res.Cycles, "time", res.Time, "run", runID)
	if err := cpu.Err(); err != nil {
		diag.Warn("circuit did not settle", "err", err)
	}
	if res.TraceErr != nil {
		diag.Warn("trace incomplete", "err", res.TraceErr)
	}
	if res.LogErr != nil {
		diag.Warn("log incomplete", "err", res.LogErr)
	}
	return nil
}

func newRunID(diag *slog.Logger) string {
	id, err := uuid.NewV7()
	if err != nil {
		diag.Debug("uuid v7 failed, using v4", "err", err)
		return uuid.NewString()
	}
	return id.String()
}

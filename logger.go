// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vsim

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// LogFileName is the name of the log file created by OpenLogFile.
const LogFileName = "cpu_vsim.log"

// EventKind identifies the kind of a logged Event.
//
type EventKind int

// Event kinds.
const (
	EventStarted     EventKind = iota // simulation started banner
	EventRunID                        // run identifier (Text)
	EventTraceFile                    // trace file announcement (Format, Text)
	EventReset                        // reset asserted during Cycle
	EventHalt                         // DUT halted at Cycle
	EventOut                          // output strobe at Cycle with Value
	EventCutoff                       // cycle limit reached
	EventInterrupted                  // cancellation requested
	EventEnded                        // simulation ended after Cycle clock ticks
)

// An Event is a structured log record. Only the fields relevant to its Kind
// are used when rendering.
//
type Event struct {
	Kind   EventKind
	Cycle  uint64
	Value  uint8
	Format string
	Text   string
}

// String renders the event as a log line, including the trailing newline.
//
func (e Event) String() string {
	switch e.Kind {
	case EventStarted:
		return "\nSimulation started\n"
	case EventRunID:
		return "Run ID: " + e.Text + "\n"
	case EventTraceFile:
		return fmt.Sprintf("Writing %s waveform file to \"%s\"...\n", e.Format, e.Text)
	case EventReset:
		return fmt.Sprintf("%5d: <reset>\n", e.Cycle)
	case EventHalt:
		return fmt.Sprintf("%5d: === HLT: CPU halted.\n", e.Cycle)
	case EventOut:
		return fmt.Sprintf("%5d: === OUT: 0x%02x (%d)\n", e.Cycle, e.Value, e.Value)
	case EventCutoff:
		return "Maximum simulation time, quitting.\n"
	case EventInterrupted:
		return "Simulation interrupted, quitting.\n"
	case EventEnded:
		return fmt.Sprintf("Simulation ended after %d clock ticks\n", e.Cycle)
	}
	return fmt.Sprintf("unknown event %d\n", int(e.Kind))
}

// sink is one of the Logger outputs. A sink that failed once is muted.
//
type sink struct {
	name string
	w    io.Writer
	err  error
}

func (s *sink) write(b []byte, diag *slog.Logger) {
	if s.w == nil || s.err != nil {
		return
	}
	if _, err := s.w.Write(b); err != nil {
		s.err = errors.Wrapf(err, "write to %s log", s.name)
		diag.Error("log sink failed, further writes skipped", "sink", s.name, "err", err)
	}
}

// Logger writes log events to a console sink and a file sink. Both sinks
// receive the same bytes in the same order.
//
// A Logger is not safe for concurrent use.
//
type Logger struct {
	console sink
	file    sink
	closer  io.Closer
	diag    *slog.Logger
}

// NewLogger returns a Logger writing to console and file. Either may be nil.
// Closing the logger closes file if it implements io.Closer.
//
func NewLogger(console, file io.Writer) *Logger {
	l := &Logger{
		console: sink{name: "console", w: console},
		file:    sink{name: "file", w: file},
		diag:    slog.Default(),
	}
	if c, ok := file.(io.Closer); ok {
		l.closer = c
	}
	return l
}

// OpenLogFile creates dir if needed, then creates (or truncates) the log file
// LogFileName in dir and returns a Logger writing to console and this file.
//
func OpenLogFile(dir string, console io.Writer) (*Logger, error) {
	name := filepath.Join(dir, LogFileName)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "can't create "+name)
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, errors.Wrap(err, "can't create "+name)
	}
	return NewLogger(console, f), nil
}

// SetDiagnostics sets the logger used to report sink failures. The default
// is slog.Default().
//
func (l *Logger) SetDiagnostics(d *slog.Logger) {
	if d != nil {
		l.diag = d
	}
}

// Log writes e to the console sink, then to the file sink.
//
func (l *Logger) Log(e Event) {
	b := []byte(e.String())
	l.console.write(b, l.diag)
	l.file.write(b, l.diag)
}

// LogFileOnly writes e to the file sink only.
//
func (l *Logger) LogFileOnly(e Event) {
	l.file.write([]byte(e.String()), l.diag)
}

// Err returns the first write error of the console sink, or if none, of the
// file sink.
//
func (l *Logger) Err() error {
	if l.console.err != nil {
		return l.console.err
	}
	return l.file.err
}

// Close closes the file sink. Subsequent writes to it are dropped.
//
func (l *Logger) Close() error {
	c := l.closer
	l.closer = nil
	l.file.w = nil
	if c == nil {
		return nil
	}
	return errors.Wrap(c.Close(), "close log file")
}

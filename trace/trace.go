// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package trace provides waveform trace sinks for vsim sessions.
//
package trace

import (
	"path/filepath"
	"strings"

	"github.com/db47h/vsim"
	"github.com/pkg/errors"
)

// Trace formats.
const (
	FormatVCD    = "vcd"
	FormatSQLite = "sqlite"
)

// Formats lists the supported trace formats.
var Formats = []string{FormatVCD, FormatSQLite}

// FileName returns the default trace file name for the given format.
//
func FileName(format string) string {
	if strings.ToLower(format) == FormatSQLite {
		return "cpu_vsim.db"
	}
	return "cpu_vsim.vcd"
}

// Title returns the name of the format as written in log files.
//
func Title(format string) string {
	if strings.ToLower(format) == FormatSQLite {
		return "SQLite"
	}
	return "VCD"
}

// Create creates a trace sink of the given format writing to file name.
// runID is only used by the SQLite format.
//
func Create(format, name, runID string) (vsim.TraceSink, error) {
	var (
		t   vsim.TraceSink
		err error
	)
	switch strings.ToLower(format) {
	case FormatVCD:
		t, err = CreateVCD(name, strings.TrimSuffix(filepath.Base(name), filepath.Ext(name)))
	case FormatSQLite:
		t, err = OpenSQLite(name, runID)
	default:
		return nil, errors.Errorf("unknown trace format %q", format)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

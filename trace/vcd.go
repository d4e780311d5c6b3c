// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package trace

import (
	"bufio"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/db47h/vsim"
	"github.com/pkg/errors"
)

// VCD writes a Value Change Dump (IEEE 1364) waveform file. One time unit is
// one half clock cycle.
//
// The signal set is taken from the first Dump and must not change afterwards.
// Only changed values are written after the initial $dumpvars section.
//
type VCD struct {
	w      *bufio.Writer
	c      io.Closer
	scope  string
	names  []string
	ids    []string
	last   []uint64
	t      uint64
	err    error
	closed bool
}

// NewVCD returns a VCD writer to w. If w is an io.Closer, it is closed by
// Close. All signals are declared in the given module scope.
//
func NewVCD(w io.Writer, scope string) *VCD {
	v := &VCD{w: bufio.NewWriter(w), scope: scope}
	if c, ok := w.(io.Closer); ok {
		v.c = c
	}
	return v
}

// CreateVCD creates the named VCD file and its parent directory.
//
func CreateVCD(name, scope string) (*VCD, error) {
	if err := os.MkdirAll(filepath.Dir(name), 0755); err != nil {
		return nil, errors.Wrap(err, "create trace directory")
	}
	f, err := os.Create(name)
	if err != nil {
		return nil, errors.Wrap(err, "create VCD file")
	}
	return NewVCD(f, scope), nil
}

// vcdID returns the short identifier code of the n-th signal, using the
// printable ASCII characters from '!' to '~'.
//
func vcdID(n int) string {
	const base = '~' - '!' + 1
	var b []byte
	for {
		b = append(b, byte('!'+n%base))
		n /= base
		if n == 0 {
			break
		}
		n--
	}
	return string(b)
}

func (v *VCD) puts(ss ...string) {
	for _, s := range ss {
		if v.err != nil {
			return
		}
		_, v.err = v.w.WriteString(s)
	}
}

func (v *VCD) value(width int, x uint64, id string) {
	if width == 1 {
		v.puts(strconv.FormatUint(x&1, 2), id, "\n")
		return
	}
	v.puts("b", strconv.FormatUint(x, 2), " ", id, "\n")
}

func (v *VCD) header(sigs []vsim.Signal) {
	v.puts("$version vsim $end\n",
		"$timescale 1ns $end\n",
		"$scope module ", v.scope, " $end\n")
	for i, s := range sigs {
		id := vcdID(i)
		v.names = append(v.names, s.Name)
		v.ids = append(v.ids, id)
		v.last = append(v.last, s.Value)
		v.puts("$var wire ", strconv.Itoa(s.Width), " ", id, " ", s.Name)
		if s.Width > 1 {
			v.puts(" [", strconv.Itoa(s.Width-1), ":0]")
		}
		v.puts(" $end\n")
	}
	v.puts("$upscope $end\n",
		"$enddefinitions $end\n")
}

// Dump implements vsim.TraceSink.
//
func (v *VCD) Dump(t uint64, sigs []vsim.Signal) error {
	if v.closed {
		return errors.New("VCD trace closed")
	}
	if v.err != nil {
		return v.err
	}
	if v.names == nil {
		v.header(sigs)
		v.puts("#", strconv.FormatUint(t, 10), "\n", "$dumpvars\n")
		for i, s := range sigs {
			v.value(s.Width, s.Value, v.ids[i])
		}
		v.puts("$end\n")
		v.t = t
		return errors.Wrap(v.err, "write VCD")
	}

	if t <= v.t {
		return errors.Errorf("VCD time %d not after %d", t, v.t)
	}
	if len(sigs) != len(v.names) {
		return errors.Errorf("signal count changed from %d to %d", len(v.names), len(sigs))
	}
	v.t = t
	stamped := false
	for i, s := range sigs {
		if s.Name != v.names[i] {
			return errors.Errorf("signal %d renamed from %s to %s", i, v.names[i], s.Name)
		}
		if s.Value == v.last[i] {
			continue
		}
		if !stamped {
			v.puts("#", strconv.FormatUint(t, 10), "\n")
			stamped = true
		}
		v.last[i] = s.Value
		v.value(s.Width, s.Value, v.ids[i])
	}
	return errors.Wrap(v.err, "write VCD")
}

// Close writes the final timestamp, flushes the output and closes the
// underlying writer. Close is idempotent.
//
func (v *VCD) Close() error {
	if v.closed {
		return nil
	}
	v.closed = true
	if v.names != nil {
		v.puts("#", strconv.FormatUint(v.t+1, 10), "\n")
	}
	if v.err == nil {
		v.err = v.w.Flush()
	}
	err := errors.Wrap(v.err, "write VCD")
	if v.c != nil {
		if cerr := v.c.Close(); err == nil && cerr != nil {
			err = errors.Wrap(cerr, "close VCD")
		}
	}
	return err
}

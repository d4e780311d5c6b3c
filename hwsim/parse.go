// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// Inputs is a list of input pin names.
//
type Inputs []string

// Outputs is a list of output pin names.
//
type Outputs []string

// In parses an input pin specification like "a, b, bus[4]" and returns the
// expanded pin names. It panics if the specification is malformed.
//
func In(spec string) Inputs {
	pins, err := ParseIOSpec(spec)
	if err != nil {
		panic(err)
	}
	return pins
}

// Out parses an output pin specification. See In.
//
func Out(spec string) Outputs {
	pins, err := ParseIOSpec(spec)
	if err != nil {
		panic(err)
	}
	return pins
}

// ParseIOSpec parses the pin specification string and returns individual pin
// names in a slice, also expanding bus declarations to individual pin names.
// For example:
//
//	ParseIOSpec("in[2], sel") // returns []string{"in[0]", "in[1]", "sel"}
//
func ParseIOSpec(spec string) ([]string, error) {
	var out []string
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}
	for pos, item := range strings.Split(spec, ",") {
		item = strings.TrimSpace(item)
		name, size := item, -1
		if i := strings.IndexByte(item, '['); i >= 0 {
			if !strings.HasSuffix(item, "]") {
				return nil, parseError(spec, pos, "missing close bracket")
			}
			n, err := strconv.Atoi(item[i+1 : len(item)-1])
			if err != nil || n <= 0 {
				return nil, parseError(spec, pos, "invalid bus size")
			}
			name, size = item[:i], n
		}
		if !isIdent(name) {
			return nil, parseError(spec, pos, "expected pin name")
		}
		if size < 0 {
			out = append(out, name)
			continue
		}
		for i := 0; i < size; i++ {
			out = append(out, BusPinName(name, i))
		}
	}
	return out, nil
}

// A Connection connects a part pin PP to one or more wires CP of its
// container. Multiple wires are only valid when PP is a bus name.
//
type Connection struct {
	PP string
	CP []string
}

// ParseConnections parses a connection configuration like "a=x, b=y" into a
// slice of Connections.
//
// Both sides of a connection accept single pins ("in", "bus[3]"), bus names
// ("bus") and bus ranges ("bus[0..3]"). When a bus is connected to a single
// wire name, the wire is assumed to be a bus of the same width, unless it is
// one of the constants true or false, in which case all the bus pins are
// wired to that constant.
//
func ParseConnections(c string) ([]Connection, error) {
	var conns []Connection
	if strings.TrimSpace(c) == "" {
		return nil, nil
	}
	for pos, item := range strings.Split(c, ",") {
		kv := strings.SplitN(item, "=", 2)
		if len(kv) != 2 {
			return nil, parseError(c, pos, "expected pin=wire")
		}
		k, v := strings.TrimSpace(kv[0]), strings.TrimSpace(kv[1])
		if k == "" || v == "" {
			return nil, parseError(c, pos, "invalid pin mapping "+k+"="+v)
		}
		ks, err := expandRange(k)
		if err != nil {
			return nil, errors.Wrap(err, "expand key "+k)
		}
		vs, err := expandRange(v)
		if err != nil {
			return nil, errors.Wrap(err, "expand value "+v)
		}
		switch {
		case len(ks) == 1:
			conns = append(conns, Connection{ks[0], vs})
		case len(ks) == len(vs):
			// many to many
			for i := range ks {
				conns = append(conns, Connection{ks[i], []string{vs[i]}})
			}
		case len(vs) == 1 && (isConstant(v) || strings.IndexByte(v, '[') >= 0):
			// many to one
			for _, k := range ks {
				conns = append(conns, Connection{k, vs})
			}
		case len(vs) == 1:
			// bus range to bus name
			for i := range ks {
				conns = append(conns, Connection{ks[i], []string{BusPinName(v, i)}})
			}
		default:
			return nil, parseError(c, pos, "pin count mismatch in pin mapping "+k+"="+v)
		}
	}
	return conns, nil
}

func expandRange(name string) ([]string, error) {
	i := strings.IndexRune(name, '[')
	if i < 0 {
		if !isIdent(name) {
			return nil, errors.New("invalid pin name " + name)
		}
		return []string{name}, nil
	}
	bus := name[:i]
	if bus == "" {
		return nil, errors.New("empty bus name")
	}
	if !strings.HasSuffix(name, "]") {
		return nil, errors.New("no terminating ] in bus range")
	}
	n := name[i+1 : len(name)-1]
	i = strings.Index(n, "..")
	if i < 0 {
		if _, err := strconv.Atoi(n); err != nil {
			return nil, errors.New("invalid bus index in " + name)
		}
		return []string{name}, nil
	}
	start, err := strconv.Atoi(n[:i])
	if err != nil {
		return nil, err
	}
	end, err := strconv.Atoi(n[i+2:])
	if err != nil {
		return nil, err
	}
	if end < start {
		return nil, errors.New("invalid bus range " + name)
	}
	r := make([]string, 0, end-start+1)
	for i := start; i <= end; i++ {
		r = append(r, BusPinName(bus, i))
	}
	return r, nil
}

// BusPinName returns the pin name for the n-th bit of the given bus.
//
func BusPinName(bus string, bit int) string {
	return bus + "[" + strconv.Itoa(bit) + "]"
}

// splitBusPin splits a bus pin name like "a[3]" into its bus name and index.
//
func splitBusPin(pin string) (string, int, bool) {
	i := strings.IndexByte(pin, '[')
	if i <= 0 || !strings.HasSuffix(pin, "]") {
		return "", 0, false
	}
	n, err := strconv.Atoi(pin[i+1 : len(pin)-1])
	if err != nil {
		return "", 0, false
	}
	return pin[:i], n, true
}

func isIdent(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if r == '_' || unicode.IsLetter(r) || i > 0 && unicode.IsDigit(r) {
			continue
		}
		return false
	}
	return true
}

func parseError(in string, item int, msg string) error {
	return errors.Errorf("in %q at item %d: %s", in, item+1, msg)
}

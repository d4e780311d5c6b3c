// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sap1

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

// MemSize is the RAM size in bytes.
const MemSize = 16

// DefaultSource computes 28 + 14 and outputs the result.
const DefaultSource = `; 28 + 14
	LDA x
	ADD y
	OUT
	HLT

	.org 14
x:	.byte 28
y:	.byte 14
`

// A Program is an assembled RAM image.
//
type Program struct {
	mem    [MemSize]byte
	Labels map[string]uint8
}

// Default returns the assembled DefaultSource.
//
func Default() *Program {
	return MustAssemble(DefaultSource)
}

// MustAssemble is like Assemble but panics on error.
//
func MustAssemble(src string) *Program {
	p, err := Assemble(strings.NewReader(src))
	if err != nil {
		panic(err)
	}
	return p
}

// Image returns the RAM image.
//
func (p *Program) Image() [MemSize]byte { return p.mem }

// Words returns the RAM image in the form expected by hwlib.RAM.
//
func (p *Program) Words() []uint64 {
	w := make([]uint64, MemSize)
	for i, b := range p.mem {
		w[i] = uint64(b)
	}
	return w
}

// WriteListing writes the RAM image with a disassembly of each byte.
//
func (p *Program) WriteListing(w io.Writer) error {
	labels := make(map[uint8][]string)
	for l, a := range p.Labels {
		labels[a] = append(labels[a], l)
	}
	bw := bufio.NewWriter(w)
	for i, b := range p.mem {
		l := labels[uint8(i)]
		sort.Strings(l)
		lbl := ""
		if len(l) > 0 {
			lbl = strings.Join(l, ",") + ":"
		}
		fmt.Fprintf(bw, "%2d: 0x%02x  %08b  %-8s %s\n", i, b, b, lbl, disasm(b))
	}
	return errors.Wrap(bw.Flush(), "write listing")
}

func disasm(b byte) string {
	op, n := Opcode(b>>4), b&0xf
	switch {
	case !op.Valid():
		return fmt.Sprintf(".byte %d", b)
	case op.hasOperand():
		return fmt.Sprintf("%s %d", op, n)
	}
	return op.String()
}

// stmt is a statement that emits a byte.
//
type stmt struct {
	line int
	addr int
	op   string
	arg  string
}

// Assemble assembles a program.
//
// The source has one statement per line. A statement is an optional label
// ("name:"), followed by an instruction or a directive. Comments start with
// ';'. Operands are decimal or hexadecimal (0x prefix) numbers, or labels.
// Directives are:
//
//	.org n   continue assembly at address n
//	.byte n  emit byte n
//
// Unused memory is zero.
//
func Assemble(r io.Reader) (*Program, error) {
	var (
		p     = &Program{Labels: make(map[string]uint8)}
		stmts []stmt
		addr  int
		line  int
	)

	// first pass: addresses and labels
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line++
		s := sc.Text()
		if i := strings.IndexByte(s, ';'); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(s)
		if i := strings.IndexByte(s, ':'); i >= 0 {
			l := strings.TrimSpace(s[:i])
			if !isLabel(l) {
				return nil, errors.Errorf("line %d: invalid label %q", line, l)
			}
			if _, ok := p.Labels[l]; ok {
				return nil, errors.Errorf("line %d: duplicate label %q", line, l)
			}
			if addr >= MemSize {
				return nil, errors.Errorf("line %d: label %q out of memory", line, l)
			}
			p.Labels[l] = uint8(addr)
			s = strings.TrimSpace(s[i+1:])
		}
		f := strings.Fields(s)
		if len(f) == 0 {
			continue
		}
		if len(f) > 2 {
			return nil, errors.Errorf("line %d: too many operands", line)
		}
		st := stmt{line: line, addr: addr, op: strings.ToUpper(f[0])}
		if len(f) == 2 {
			st.arg = f[1]
		}
		if st.op == ".ORG" {
			n, err := strconv.ParseUint(st.arg, 0, 8)
			if err != nil || n >= MemSize {
				return nil, errors.Errorf("line %d: invalid address %q", line, st.arg)
			}
			addr = int(n)
			continue
		}
		if addr >= MemSize {
			return nil, errors.Errorf("line %d: program does not fit in %d bytes", line, MemSize)
		}
		stmts = append(stmts, st)
		addr++
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read source")
	}

	// second pass: code
	var used [MemSize]bool
	for _, st := range stmts {
		if used[st.addr] {
			return nil, errors.Errorf("line %d: address %d already in use", st.line, st.addr)
		}
		used[st.addr] = true
		b, err := p.encode(st)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", st.line)
		}
		p.mem[st.addr] = b
	}
	return p, nil
}

func (p *Program) encode(st stmt) (byte, error) {
	if st.op == ".BYTE" {
		if st.arg == "" {
			return 0, errors.New(".byte: missing value")
		}
		v, err := p.value(st.arg, 0xff)
		return byte(v), err
	}
	op, ok := opcodes[st.op]
	if !ok {
		return 0, errors.Errorf("unknown instruction %q", st.op)
	}
	switch {
	case !op.hasOperand() && st.arg != "":
		return 0, errors.Errorf("%s: unexpected operand %q", st.op, st.arg)
	case op.hasOperand() && st.arg == "":
		return 0, errors.Errorf("%s: missing operand", st.op)
	case !op.hasOperand():
		return byte(op) << 4, nil
	}
	v, err := p.value(st.arg, 0xf)
	if err != nil {
		return 0, errors.Wrap(err, st.op)
	}
	return byte(op)<<4 | byte(v), nil
}

// value evaluates a number or label operand.
//
func (p *Program) value(s string, limit uint64) (uint64, error) {
	if a, ok := p.Labels[s]; ok {
		if uint64(a) > limit {
			return 0, errors.Errorf("label %s out of range", s)
		}
		return uint64(a), nil
	}
	if isLabel(s) {
		return 0, errors.Errorf("undefined label %q", s)
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, errors.Errorf("invalid number %q", s)
	}
	if v > limit {
		return 0, errors.Errorf("value %d out of range [0, %d]", v, limit)
	}
	return v, nil
}

func isLabel(s string) bool {
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

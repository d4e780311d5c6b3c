// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sap1

import (
	"github.com/db47h/vsim/hwlib"
	"github.com/db47h/vsim/hwsim"
)

// An Opcode is the upper nibble of an instruction byte. The lower nibble is
// the operand.
//
type Opcode uint8

// Instruction set.
const (
	NOP Opcode = 0x0
	LDA Opcode = 0x1 // A = mem[n]
	ADD Opcode = 0x2 // A = A + mem[n]
	SUB Opcode = 0x3 // A = A - mem[n]
	STA Opcode = 0x4 // mem[n] = A
	LDI Opcode = 0x5 // A = n
	JMP Opcode = 0x6 // PC = n
	JC  Opcode = 0x7 // if carry { PC = n }
	JZ  Opcode = 0x8 // if zero { PC = n }
	OUT Opcode = 0xe // OUT = A
	HLT Opcode = 0xf
)

var mnemonics = map[Opcode]string{
	NOP: "NOP", LDA: "LDA", ADD: "ADD", SUB: "SUB", STA: "STA", LDI: "LDI",
	JMP: "JMP", JC: "JC", JZ: "JZ", OUT: "OUT", HLT: "HLT",
}

var opcodes = func() map[string]Opcode {
	m := make(map[string]Opcode, len(mnemonics))
	for op, s := range mnemonics {
		m[s] = op
	}
	return m
}()

func (op Opcode) String() string {
	if s, ok := mnemonics[op]; ok {
		return s
	}
	return "???"
}

// hasOperand reports whether the instruction uses its lower nibble.
//
func (op Opcode) hasOperand() bool {
	switch op {
	case NOP, OUT, HLT:
		return false
	}
	return true
}

// Valid reports whether op is part of the instruction set. Invalid opcodes
// execute as NOP.
//
func (op Opcode) Valid() bool {
	_, ok := mnemonics[op]
	return ok
}

// MicroSteps is the number of clock cycles per instruction.
const MicroSteps = 5

// ctl is a control word. Each bit drives one control line.
//
type ctl uint16

const (
	cHLT ctl = 1 << iota // halt
	cMI                  // memory address register in
	cRI                  // RAM in (write)
	cRO                  // RAM out
	cIO                  // instruction register out (operand)
	cII                  // instruction register in
	cAI                  // A register in
	cAO                  // A register out
	cEO                  // ALU out
	cSU                  // ALU subtract
	cBI                  // B register in
	cOI                  // output register in
	cCE                  // program counter enable (increment)
	cCO                  // program counter out
	cJ                   // jump (program counter in)
	cFI                  // flags in
)

// fetch is common to all instructions.
var fetch = [2]ctl{
	cMI | cCO,
	cRO | cII | cCE,
}

// execute holds the control words of microsteps 2 to 4.
var execute = map[Opcode][MicroSteps - 2]ctl{
	LDA: {cIO | cMI, cRO | cAI, 0},
	ADD: {cIO | cMI, cRO | cBI, cEO | cAI | cFI},
	SUB: {cIO | cMI, cRO | cBI, cEO | cAI | cSU | cFI},
	STA: {cIO | cMI, cAO | cRI, 0},
	LDI: {cIO | cAI, 0, 0},
	JMP: {cIO | cJ, 0, 0},
	JC:  {cIO | cJ, 0, 0},
	JZ:  {cIO | cJ, 0, 0},
	OUT: {cAO | cOI, 0, 0},
	HLT: {cHLT, 0, 0},
}

// microcode returns the control word for the given instruction, microstep
// and flags.
//
func microcode(op Opcode, step int, carry, zero bool) ctl {
	if step < len(fetch) {
		return fetch[step]
	}
	switch {
	case op == JC && !carry, op == JZ && !zero:
		return 0
	}
	return execute[op][step-len(fetch)]
}

// controlUnit sequences the microsteps and decodes the control lines from the
// opcode, the current step and the flags. The step counter has a synchronous
// reset.
//
type controlUnit struct {
	Clk   int    `hw:"in"`
	Reset int    `hw:"in"`
	Op    [4]int `hw:"in"`
	CF    int    `hw:"in"`
	ZF    int    `hw:"in"`

	Step [3]int `hw:"out"`
	Hlt  int    `hw:"out"`
	MI   int    `hw:"out"`
	RI   int    `hw:"out"`
	RO   int    `hw:"out"`
	IO   int    `hw:"out"`
	II   int    `hw:"out"`
	AI   int    `hw:"out"`
	AO   int    `hw:"out"`
	EO   int    `hw:"out"`
	SU   int    `hw:"out"`
	BI   int    `hw:"out"`
	OI   int    `hw:"out"`
	CE   int    `hw:"out"`
	CO   int    `hw:"out"`
	J    int    `hw:"out"`
	FI   int    `hw:"out"`

	step int
	prev bool
}

var controlSpec = hwsim.MakePart((*controlUnit)(nil))

func (u *controlUnit) Update(c *hwsim.Circuit) {
	clk := c.Get(u.Clk)
	if clk && !u.prev {
		if c.Get(u.Reset) {
			u.step = 0
		} else {
			u.step = (u.step + 1) % MicroSteps
		}
	}
	u.prev = clk

	w := microcode(Opcode(hwlib.Int64(c, u.Op[:])), u.step, c.Get(u.CF), c.Get(u.ZF))
	hwlib.SetInt64(c, u.Step[:], int64(u.step))
	for _, l := range [...]struct {
		pin int
		bit ctl
	}{
		{u.Hlt, cHLT}, {u.MI, cMI}, {u.RI, cRI}, {u.RO, cRO},
		{u.IO, cIO}, {u.II, cII}, {u.AI, cAI}, {u.AO, cAO},
		{u.EO, cEO}, {u.SU, cSU}, {u.BI, cBI}, {u.OI, cOI},
		{u.CE, cCE}, {u.CO, cCO}, {u.J, cJ}, {u.FI, cFI},
	} {
		c.Set(l.pin, w&l.bit != 0)
	}
}

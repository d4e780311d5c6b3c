// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package sap1 implements a SAP-1 ("Simple As Possible") 8 bits CPU with
// hwlib parts, and wraps it as a device under test for the vsim harness.
//
// The CPU has 16 bytes of RAM, a 4 bits program counter, A and B registers,
// an 8 bits adder/subtractor with carry and zero flags, and an output
// register. Every instruction takes MicroSteps clock cycles: two fetch steps
// followed by three execute steps.
//
// The clock seen by the CPU is the external clock gated by clock enable and by
// the halt line: once a HLT instruction is decoded, the CPU freezes until a
// reset. Reset is synchronous.
//
package sap1

import (
	"github.com/db47h/vsim/hwlib"
	"github.com/db47h/vsim/hwsim"
)

// Top level pin names.
const (
	PinReset       = "reset_i"
	PinClockEnable = "clk_en_i"
	PinClock       = "clk"
	PinHalt        = "halt_o"
	PinOutStrobe   = "out_strobe_o"
	PinOutValue    = "out_value_o"
	PinStep        = "step"
)

var (
	cpuInputs  = hwsim.In(PinReset + ", " + PinClockEnable + ", " + PinClock)
	cpuOutputs = hwsim.Out(PinHalt + ", " + PinOutStrobe + ", " + PinOutValue + "[8], " + PinStep + "[3]")
)

// clockGate drives out = clk & en & (!halt | reset). It is a single
// component so that all inputs reach out with the same delay.
//
var clockGate = (&hwsim.PartSpec{
	Name:    "CLKGATE",
	Inputs:  hwsim.In("clk, en, halt, reset"),
	Outputs: hwsim.Out("out"),
	Mount: func(s *hwsim.Socket) []hwsim.Component {
		clk, en, halt, reset, out := s.Pin("clk"), s.Pin("en"), s.Pin("halt"), s.Pin("reset"), s.Pin("out")
		return []hwsim.Component{func(c *hwsim.Circuit) {
			c.Set(out, c.Get(clk) && c.Get(en) && (!c.Get(halt) || c.Get(reset)))
		}}
	},
}).NewPart

// cpuParts returns the parts of a SAP-1 whose RAM is initialized with mem.
//
// All parts are mounted flat, so that every internal wire is a top level net
// of the circuit.
//
func cpuParts(mem []uint64) hwsim.Parts {
	return hwsim.Parts{
		clockGate("clk=clk, en=clk_en_i, halt=halt_o, reset=reset_i, out=gclk"),

		controlSpec.NewPart("clk=gclk, reset=reset_i, op[0..3]=ir[4..7], cf=cf, zf=zf, step=step, " +
			"hlt=halt_o, mi=mi, ri=ri, ro=ro, io=io, ii=ii, ai=ai, ao=ao, " +
			"eo=eo, su=su, bi=bi, oi=oi, ce=ce, co=co, j=j, fi=fi"),

		hwlib.Bus(8, 5)("in0[0..3]=pc[0..3], in0[4..7]=false, oe0=co, " +
			"in1=ram, oe1=ro, " +
			"in2[0..3]=ir[0..3], in2[4..7]=false, oe2=io, " +
			"in3=a, oe3=ao, " +
			"in4=alu, oe4=eo, " +
			"out=bus"),

		hwlib.Counter(4)("clk=gclk, en=true, reset=reset_i, inc=ce, load=j, in[0..3]=bus[0..3], out=pc"),
		hwlib.Register(4)("clk=gclk, en=true, reset=reset_i, load=mi, in[0..3]=bus[0..3], out=mar"),
		hwlib.RAM(4, 8, mem)("clk=gclk, en=true, we=ri, addr=mar, in=bus, out=ram"),
		hwlib.Register(8)("clk=gclk, en=true, reset=reset_i, load=ii, in=bus, out=ir"),

		hwlib.Register(8)("clk=gclk, en=true, reset=reset_i, load=ai, in=bus, out=a"),
		hwlib.Register(8)("clk=gclk, en=true, reset=reset_i, load=bi, in=bus, out=b"),
		hwlib.ALU(8)("a=a, b=b, sub=su, out=alu, c=carry, z=zero"),
		hwlib.Register(2)("clk=gclk, en=true, reset=reset_i, load=fi, in[0]=carry, in[1]=zero, out[0]=cf, out[1]=zf"),

		hwlib.Register(8)("clk=gclk, en=true, reset=reset_i, load=oi, in=bus, out=out_value_o"),
		// out_strobe_o is high during the cycle following an OUT.
		hwlib.Register(1)("clk=gclk, en=true, reset=reset_i, load=true, in[0]=oi, out[0]=out_strobe_o"),
	}
}

// newCircuit builds a SAP-1 circuit.
//
func newCircuit(workers int, mem []uint64) (*hwsim.Circuit, error) {
	return hwsim.NewCircuit(workers, cpuInputs, cpuOutputs, cpuParts(mem))
}

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/vsim/hwsim"
)

var hAdder = &hwsim.PartSpec{
	Name:    "HalfAdder",
	Inputs:  hwsim.Inputs{pA, pB},
	Outputs: hwsim.Outputs{"s", "c"},
	Mount: func(s *hwsim.Socket) []hwsim.Component {
		a, b := s.Pin(pA), s.Pin(pB)
		sum, cout := s.Pin("s"), s.Pin("c")
		return []hwsim.Component{
			func(c *hwsim.Circuit) {
				va, vb := c.Get(a), c.Get(b)
				c.Set(sum, va != vb)
				c.Set(cout, va && vb)
			}}
	}}

// HalfAdder returns a half adder.
//
//	Inputs: a, b
//	Outputs: s, c
//	Function: s = lsb(a + b)
//	          c = msb(a + b)
//
func HalfAdder(c string) hwsim.Part {
	return hAdder.NewPart(c)
}

var adder = &hwsim.PartSpec{
	Name:    "FullAdder",
	Inputs:  hwsim.Inputs{pA, pB, "cin"},
	Outputs: hwsim.Outputs{"s", "cout"},
	Mount: func(s *hwsim.Socket) []hwsim.Component {
		a, b, cin := s.Pin(pA), s.Pin(pB), s.Pin("cin")
		sum, cout := s.Pin("s"), s.Pin("cout")
		return []hwsim.Component{
			func(c *hwsim.Circuit) {
				va, vb, vc := c.Get(a), c.Get(b), c.Get(cin)
				s := va != vb
				c.Set(sum, s != vc)
				c.Set(cout, s && vc || va && vb)
			}}
	}}

// FullAdder returns a 3 bit adder.
//
//	Inputs: a, b, cin
//	Outputs: s, cout
//	Function: s = lsb(a + b + cin)
//	          cout = msb(a + b + cin)
//
func FullAdder(c string) hwsim.Part {
	return adder.NewPart(c)
}

// AdderN returns a N-bits adder with carry in.
//
//	Inputs: a[bits], b[bits], cin
//	Outputs: out[bits], c
//	Function: out = lsb(a + b + cin)
//	          c = carry out of the msb
//
func AdderN(bits int) hwsim.NewPartFn {
	adderN := &hwsim.PartSpec{
		Name:    "Adder" + strconv.Itoa(bits),
		Inputs:  append(bus(bits, pA, pB), "cin"),
		Outputs: append(bus(bits, pOut), "c"),
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			a, b, cin := s.Bus(pA, bits), s.Bus(pB, bits), s.Pin("cin")
			out, cout := s.Bus(pOut, bits), s.Pin("c")
			return []hwsim.Component{
				func(c *hwsim.Circuit) {
					cc := c.Get(cin)
					for i, o := range out {
						va, vb := c.Get(a[i]), c.Get(b[i])
						s0 := va != vb
						c.Set(o, s0 != cc)
						cc = va && vb || s0 && cc
					}
					c.Set(cout, cc)
				}}
		}}
	return adderN.NewPart
}

// IsZeroN returns a N-bits zero detector.
//
//	Inputs: in[bits]
//	Outputs: out
//	Function: out = in == 0
//
func IsZeroN(bits int) hwsim.NewPartFn {
	return (&hwsim.PartSpec{
		Name:    "IsZero" + strconv.Itoa(bits),
		Inputs:  bus(bits, pIn),
		Outputs: hwsim.Outputs{pOut},
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			in, out := s.Bus(pIn, bits), s.Pin(pOut)
			return []hwsim.Component{
				func(c *hwsim.Circuit) {
					z := true
					for _, p := range in {
						if c.Get(p) {
							z = false
							break
						}
					}
					c.Set(out, z)
				}}
		}}).NewPart
}

// ALU returns a N-bits adder/subtractor built from an AdderN, a row of XOR
// gates inverting b when subtracting and a zero detector.
//
//	Inputs: a[bits], b[bits], sub
//	Outputs: out[bits], c, z
//	Function: if sub { out = a - b } else { out = a + b }
//	          c = carry out (set on subtraction when a >= b)
//	          z = out == 0
//
func ALU(bits int) hwsim.NewPartFn {
	var parts hwsim.Parts
	for i := 0; i < bits; i++ {
		n := strconv.Itoa(i)
		parts = append(parts, Xor("a=b["+n+"], b=sub, out=bx["+n+"]"))
	}
	parts = append(parts,
		AdderN(bits)("a=a, b=bx, cin=sub, out=out, c=c"),
		IsZeroN(bits)("in=out, out=z"),
	)
	alu, err := hwsim.Chip("ALU"+strconv.Itoa(bits),
		append(bus(bits, pA, pB), "sub"),
		append(bus(bits, pOut), "c", "z"),
		parts)
	if err != nil {
		panic(err)
	}
	return alu
}

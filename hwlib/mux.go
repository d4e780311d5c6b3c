// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/vsim/hwsim"
)

// Mux returns a multiplexer.
//
//	Inputs: a, b, sel
//	Outputs: out
//	Function: if sel == 0 { out = a } else { out = b }
//
func Mux(w string) hwsim.Part { return mux.NewPart(w) }

var mux = hwsim.PartSpec{
	Name:    "MUX",
	Inputs:  hwsim.Inputs{pA, pB, pSel},
	Outputs: hwsim.Outputs{pOut},
	Mount: func(s *hwsim.Socket) []hwsim.Component {
		a, b, sel, out := s.Pin(pA), s.Pin(pB), s.Pin(pSel), s.Pin(pOut)
		return []hwsim.Component{func(c *hwsim.Circuit) {
			if c.Get(sel) {
				c.Set(out, c.Get(b))
			} else {
				c.Set(out, c.Get(a))
			}
		}}
	},
}

// DMux returns a demultiplexer.
//
//	Inputs: in, sel
//	Outputs: a, b
//	Function: if sel == 0 { a = in; b = 0 } else { a = 0; b = in }
//
func DMux(w string) hwsim.Part { return dmux.NewPart(w) }

var dmux = hwsim.PartSpec{
	Name:    "DMUX",
	Inputs:  hwsim.Inputs{pIn, pSel},
	Outputs: hwsim.Outputs{pA, pB},
	Mount: func(s *hwsim.Socket) []hwsim.Component {
		in, sel, a, b := s.Pin(pIn), s.Pin(pSel), s.Pin(pA), s.Pin(pB)
		return []hwsim.Component{func(c *hwsim.Circuit) {
			if c.Get(sel) {
				c.Set(a, false)
				c.Set(b, c.Get(in))
			} else {
				c.Set(a, c.Get(in))
				c.Set(b, false)
			}
		}}
	},
}

// MuxN returns a N-bits Mux
//
//	Inputs: a[bits], b[bits], sel
//	Outputs: out[bits]
//	Function: for i := range out { if sel == 0 { out[i] = a[i] } else { out[i] = b[i] } }
//
func MuxN(bits int) hwsim.NewPartFn {
	return (&hwsim.PartSpec{
		Name:    "MUX" + strconv.Itoa(bits),
		Inputs:  append(bus(bits, pA, pB), pSel),
		Outputs: bus(bits, pOut),
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			a, b, sel := s.Bus(pA, bits), s.Bus(pB, bits), s.Pin(pSel)
			o := s.Bus(pOut, bits)
			return []hwsim.Component{
				func(c *hwsim.Circuit) {
					src := a
					if c.Get(sel) {
						src = b
					}
					for i := range o {
						c.Set(o[i], c.Get(src[i]))
					}
				}}
		}}).NewPart
}

// DMuxN returns a N-bits DMux
//
//	Inputs: in[bits], sel
//	Outputs: a[bits], b[bits]
//	Function: for i := range in { if sel == 0 { a[i] = in[i]; b[i] = 0 } else { a[i] = 0; b[i] = in[i] } }
//
func DMuxN(bits int) hwsim.NewPartFn {
	return (&hwsim.PartSpec{
		Name:    "DMUX" + strconv.Itoa(bits),
		Inputs:  append(bus(bits, pIn), pSel),
		Outputs: bus(bits, pA, pB),
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			in, sel := s.Bus(pIn, bits), s.Pin(pSel)
			a, b := s.Bus(pA, bits), s.Bus(pB, bits)
			return []hwsim.Component{
				func(c *hwsim.Circuit) {
					on, off := a, b
					if c.Get(sel) {
						on, off = b, a
					}
					for i := range in {
						c.Set(on[i], c.Get(in[i]))
						c.Set(off[i], false)
					}
				}}
		}}).NewPart
}

// Bus returns a N-bits shared bus with the given number of sources. It models
// a tri-state bus: every source with its output enable set drives the bus and
// the result is the OR of the enabled sources (a bus conflict therefore never
// goes unnoticed in a trace).
//
//	Inputs: in0[bits], oe0, in1[bits], oe1, ..., in{sources-1}[bits], oe{sources-1}
//	Outputs: out[bits]
//	Function: out = OR(in_k for all k where oe_k)
//
func Bus(bits, sources int) hwsim.NewPartFn {
	var ins hwsim.Inputs
	for k := 0; k < sources; k++ {
		src := pIn + strconv.Itoa(k)
		ins = append(ins, bus(bits, src)...)
		ins = append(ins, "oe"+strconv.Itoa(k))
	}
	return (&hwsim.PartSpec{
		Name:    "BUS" + strconv.Itoa(bits) + "x" + strconv.Itoa(sources),
		Inputs:  ins,
		Outputs: bus(bits, pOut),
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			in := make([][]int, sources)
			oe := make([]int, sources)
			for k := range in {
				in[k] = s.Bus(pIn+strconv.Itoa(k), bits)
				oe[k] = s.Pin("oe" + strconv.Itoa(k))
			}
			out := s.Bus(pOut, bits)
			return []hwsim.Component{
				func(c *hwsim.Circuit) {
					for i, o := range out {
						v := false
						for k := range in {
							if c.Get(oe[k]) && c.Get(in[k][i]) {
								v = true
								break
							}
						}
						c.Set(o, v)
					}
				}}
		}}).NewPart
}

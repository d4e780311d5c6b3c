// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/vsim/hwsim"
)

// edge detects raising edges of a clock pin. Each mounted part has its own.
//
type edge struct {
	clk  int
	prev bool
}

func (e *edge) raising(c *hwsim.Circuit) bool {
	k := c.Get(e.clk)
	r := k && !e.prev
	e.prev = k
	return r
}

var dff = &hwsim.PartSpec{
	Name:    "DFF",
	Inputs:  hwsim.Inputs{pClk, pIn},
	Outputs: hwsim.Outputs{pOut},
	Mount: func(s *hwsim.Socket) []hwsim.Component {
		in, out := s.Pin(pIn), s.Pin(pOut)
		clk := &edge{clk: s.Pin(pClk)}
		var curOut bool
		return []hwsim.Component{
			func(c *hwsim.Circuit) {
				if clk.raising(c) {
					curOut = c.Get(in)
				}
				c.Set(out, curOut)
			}}
	}}

// DFF returns a clocked data flip flop.
//
//	Inputs: clk, in
//	Outputs: out
//	Function: out(t) = in(t-1) // where t is the current clock cycle.
//
func DFF(w string) hwsim.Part {
	return dff.NewPart(w)
}

// Register returns a N-bits register with synchronous reset.
//
//	Inputs: clk, en, reset, load, in[bits]
//	Outputs: out[bits]
//	Function: on raising edge of clk:
//	          if reset { out = 0 } else if en && load { out = in }
//
func Register(bits int) hwsim.NewPartFn {
	return (&hwsim.PartSpec{
		Name:    "Register" + strconv.Itoa(bits),
		Inputs:  append(hwsim.Inputs{pClk, pEn, pReset, pLoad}, bus(bits, pIn)...),
		Outputs: bus(bits, pOut),
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			clk := &edge{clk: s.Pin(pClk)}
			en, reset, load := s.Pin(pEn), s.Pin(pReset), s.Pin(pLoad)
			in, out := s.Bus(pIn, bits), s.Bus(pOut, bits)
			var v int64
			return []hwsim.Component{
				func(c *hwsim.Circuit) {
					if clk.raising(c) {
						switch {
						case c.Get(reset):
							v = 0
						case c.Get(en) && c.Get(load):
							v = Int64(c, in)
						}
					}
					SetInt64(c, out, v)
				}}
		}}).NewPart
}

// Counter returns a N-bits counter with synchronous reset and parallel load.
//
//	Inputs: clk, en, reset, inc, load, in[bits]
//	Outputs: out[bits]
//	Function: on raising edge of clk:
//	          if reset { out = 0 }
//	          else if en && load { out = in }
//	          else if en && inc { out = out + 1 }
//
func Counter(bits int) hwsim.NewPartFn {
	mask := int64(1)<<uint(bits) - 1
	return (&hwsim.PartSpec{
		Name:    "Counter" + strconv.Itoa(bits),
		Inputs:  append(hwsim.Inputs{pClk, pEn, pReset, "inc", pLoad}, bus(bits, pIn)...),
		Outputs: bus(bits, pOut),
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			clk := &edge{clk: s.Pin(pClk)}
			en, reset, inc, load := s.Pin(pEn), s.Pin(pReset), s.Pin("inc"), s.Pin(pLoad)
			in, out := s.Bus(pIn, bits), s.Bus(pOut, bits)
			var v int64
			return []hwsim.Component{
				func(c *hwsim.Circuit) {
					if clk.raising(c) {
						switch {
						case c.Get(reset):
							v = 0
						case !c.Get(en):
						case c.Get(load):
							v = Int64(c, in)
						case c.Get(inc):
							v = (v + 1) & mask
						}
					}
					SetInt64(c, out, v)
				}}
		}}).NewPart
}

// RAM returns a RAM of 2^addrBits words of the given bits size. Reads are
// combinational, writes happen on the raising edge of clk. Each mounted RAM
// starts with a copy of init.
//
//	Inputs: clk, en, we, addr[addrBits], in[bits]
//	Outputs: out[bits]
//	Function: out = mem[addr]
//	          on raising edge of clk: if en && we { mem[addr] = in }
//
func RAM(addrBits, bits int, init []uint64) hwsim.NewPartFn {
	size := 1 << uint(addrBits)
	return (&hwsim.PartSpec{
		Name:    "RAM" + strconv.Itoa(size) + "x" + strconv.Itoa(bits),
		Inputs:  append(append(hwsim.Inputs{pClk, pEn, "we"}, bus(addrBits, "addr")...), bus(bits, pIn)...),
		Outputs: bus(bits, pOut),
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			clk := &edge{clk: s.Pin(pClk)}
			en, we := s.Pin(pEn), s.Pin("we")
			addr, in, out := s.Bus("addr", addrBits), s.Bus(pIn, bits), s.Bus(pOut, bits)
			mem := make([]int64, size)
			for i := 0; i < len(init) && i < size; i++ {
				mem[i] = int64(init[i])
			}
			return []hwsim.Component{
				func(c *hwsim.Circuit) {
					a := Int64(c, addr)
					if clk.raising(c) && c.Get(en) && c.Get(we) {
						mem[a] = Int64(c, in)
					}
					SetInt64(c, out, mem[a])
				}}
		}}).NewPart
}

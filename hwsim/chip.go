// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"github.com/pkg/errors"
)

type chip struct {
	PartSpec // PartSpec for this chip
	parts    []Part
	// wires maps the pins of each sub part to the chip internal wire name which
	// may be the name of any input/output of the chip or an internal wire.
	wires []map[string]string
}

func (c *chip) mount(s *Socket) []Component {
	var updaters []Component

	for i, p := range c.parts {
		// make a sub-socket
		sub := newSocket(s.c)
		for _, k := range p.Inputs {
			if w, ok := c.wires[i][k]; ok {
				sub.m[k] = s.PinOrNew(w)
			} else {
				// unconnected inputs are wired to False.
				sub.m[k] = cstFalse
			}
		}
		for _, k := range p.Outputs {
			if w, ok := c.wires[i][k]; ok {
				sub.m[k] = s.PinOrNew(w)
			} else {
				// unconnected outputs get a private wire.
				sub.m[k] = s.c.allocPin()
			}
		}
		updaters = append(updaters, p.Mount(sub)...)
	}
	return updaters
}

// Chip composes existing parts into a new part packaged into a chip.
// The pin names specified as inputs and outputs will be the inputs
// and outputs of the chip.
//
// An Xor gate could be created like this:
//
//	xor, err := Chip(
//		"XOR",
//		In("a, b"),
//		Out("out"),
//		Parts{
//			Nand("a=a, b=b, out=nandAB"),
//			Nand("a=a, b=nandAB, out=w0"),
//			Nand("a=b, b=nandAB, out=w1"),
//			Nand("a=w0, b=w1, out=out"),
//		})
//
// The returned value is a function of type NewPartFn that can be used to
// compose the new part with others into other chips:
//
//	xnor, err := Chip(
//		"XNOR",
//		In("a, b"),
//		Out("out"),
//		Parts{
//			xor("a=a, b=b, out=xorAB"),
//			Not("in=xorAB, out=out"),
//		})
//
// Chip checks the wiring: every wire read by a part or exported as a chip
// output must be driven by exactly one part output or chip input, and every
// internal wire driven by a part must be used.
//
func Chip(name string, inputs Inputs, outputs Outputs, parts Parts) (NewPartFn, error) {
	var (
		wires   = make([]map[string]string, len(parts))
		drivers = make(map[string]string) // wire -> driving pin
		readers = make(map[string]string) // wire -> first reading pin
		isIn    = make(map[string]bool, len(inputs))
		isOut   = make(map[string]bool, len(outputs))
	)

	for _, in := range inputs {
		if isIn[in] {
			return nil, errors.New("duplicate input pin " + in + " for chip " + name)
		}
		isIn[in] = true
		drivers[in] = in
	}
	for _, out := range outputs {
		if isIn[out] || isOut[out] {
			return nil, errors.New("duplicate output pin " + out + " for chip " + name)
		}
		isOut[out] = true
		readers[out] = out
	}

	for pnum, p := range parts {
		w, err := p.wires()
		if err != nil {
			return nil, err
		}
		wires[pnum] = w

		for _, k := range p.Inputs {
			if v, ok := w[k]; ok && !isConstant(v) {
				if _, ok := readers[v]; !ok {
					readers[v] = p.Name + "." + k
				}
			}
		}
		for _, k := range p.Outputs {
			v, ok := w[k]
			if !ok {
				continue
			}
			pn := p.Name + "." + k
			switch {
			case isConstant(v):
				return nil, errors.Wrap(errors.New("output pin connected to constant "+v+" input"), pn+":"+v)
			case isIn[v]:
				return nil, errors.Wrap(errors.New("chip input pin used as output"), pn+":"+v)
			case drivers[v] != "":
				return nil, errors.Wrap(errors.New("output pin already used as output"), pn+":"+v)
			}
			drivers[v] = pn
		}
	}

	for v, r := range readers {
		if drivers[v] == "" {
			if r == v {
				return nil, errors.New("pin " + v + " not connected to any output")
			}
			return nil, errors.New("pin " + v + " not connected to any output (read by " + r + ")")
		}
	}
	for v := range drivers {
		if _, ok := readers[v]; !ok && !isIn[v] {
			return nil, errors.New("pin " + v + " not connected to any input")
		}
	}

	c := &chip{
		PartSpec: PartSpec{
			Name:    name,
			Inputs:  inputs,
			Outputs: outputs,
		},
		parts: parts,
		wires: wires,
	}
	c.PartSpec.Mount = c.mount
	return c.PartSpec.NewPart, nil
}

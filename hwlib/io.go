// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwlib

import (
	"strconv"

	"github.com/db47h/vsim/hwsim"
)

// Int64 returns the pins as an int64. Pin 0 is lsb.
//
func Int64(c *hwsim.Circuit, pins []int) int64 {
	var out int64
	for bit := range pins {
		if c.Get(pins[bit]) {
			out |= 1 << uint(bit)
		}
	}
	return out
}

// SetInt64 sets the pins to the given int64 value.
//
func SetInt64(c *hwsim.Circuit, pins []int, v int64) {
	for bit := range pins {
		c.Set(pins[bit], v&(1<<uint(bit)) != 0)
	}
}

// InputN returns a part driving out[bits] with the value of f, evaluated on
// every simulation step. Bit 0 of the result drives out[0].
//
func InputN(bits int, f func() int64) hwsim.NewPartFn {
	return ioPart("IN", bits, pOut, func(c *hwsim.Circuit, pins []int) { SetInt64(c, pins, f()) })
}

// OutputN returns a part calling f with the value of in[bits] on every
// simulation step, unsettled steps included.
//
func OutputN(bits int, f func(int64)) hwsim.NewPartFn {
	return ioPart("OUT", bits, pIn, func(c *hwsim.Circuit, pins []int) { f(Int64(c, pins)) })
}

func ioPart(name string, bits int, pin string, fn func(c *hwsim.Circuit, pins []int)) hwsim.NewPartFn {
	p := &hwsim.PartSpec{
		Name: name + strconv.Itoa(bits),
		Mount: func(s *hwsim.Socket) []hwsim.Component {
			pins := s.Bus(pin, bits)
			return []hwsim.Component{func(c *hwsim.Circuit) { fn(c, pins) }}
		},
	}
	if pin == pIn {
		p.Inputs = bus(bits, pin)
	} else {
		p.Outputs = bus(bits, pin)
	}
	return p.NewPart
}

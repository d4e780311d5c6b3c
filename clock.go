// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vsim

// runCycle drives one full clock cycle: raising edge, then falling edge, with
// a DUT evaluation and a trace dump after each. Reset is released once two
// half cycles have elapsed.
//
func (s *Session) runCycle() Outputs {
	d := s.dut

	s.clk = true
	d.SetClock(true)
	d.Eval()
	s.dump()
	s.time.Advance()

	s.clk = false
	d.SetClock(false)
	d.Eval()
	s.dump()

	if s.reset {
		s.log.Log(Event{Kind: EventReset, Cycle: s.time.Cycle()})
	}

	s.time.Advance()

	if s.reset && s.time.Now() >= 2 {
		s.reset = false
		d.SetReset(false)
	}
	return observe(d)
}

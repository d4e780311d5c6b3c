// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vsim

// monitor inspects the DUT outputs observed at the end of a cycle and logs
// the corresponding events. It reports whether the DUT halted.
//
// Halt is checked before the output strobe; both may be logged in the same
// cycle.
//
func (s *Session) monitor(cycle uint64, o Outputs) (halted bool) {
	if o.Halt {
		s.log.Log(Event{Kind: EventHalt, Cycle: cycle})
		halted = true
	}
	if o.OutStrobe {
		s.log.Log(Event{Kind: EventOut, Cycle: cycle, Value: o.OutValue})
	}
	return halted
}

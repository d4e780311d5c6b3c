// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package vsim is a cycle-stepped simulation harness for a synchronous digital
circuit, typically a small CPU.

The harness owns time and control: it drives the clock of a device under test
(DUT) one full cycle at a time, watches its halt and output ports, decides when
the run is over and optionally records a waveform trace. It never implements
any logic itself; the DUT is only reached through the DUT interface.

A run is managed by a Session:

	log, err := vsim.OpenLogFile("logs", os.Stdout)
	if err != nil {
		// fatal
	}
	s := vsim.NewSession(dut, log, vsim.Options{Trace: sink})
	defer s.Close()
	res := s.Run()

Each cycle the session raises then lowers the DUT clock, evaluating the DUT
after each edge, and advances its TimeBase by two half-cycle steps. Reset is
held for cycle 0 only. The run stops at the end of the first cycle where a
cancellation was requested, the DUT halted or the cycle limit was reached, in
that order of priority.
*/
package vsim

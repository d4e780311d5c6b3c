// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vsim

// DUT is the device under test driven by a Session.
//
// Inputs set with the Set methods take effect on the next call to Eval. The
// observed outputs reflect the state after the last Eval.
//
type DUT interface {
	SetReset(v bool)
	SetClockEnable(v bool)
	SetClock(v bool)

	// Eval settles the model after an input change.
	Eval()

	Halt() bool
	OutStrobe() bool
	OutValue() uint8

	// Final shuts the model down. It is called exactly once per session.
	Final()
}

// A Signal is a named value sampled for a waveform trace. Width is the
// number of significant bits of Value, 1 for single wires.
//
type Signal struct {
	Name  string
	Width int
	Value uint64
}

// Prober is implemented by DUTs that expose internal signals for tracing.
// Probe appends the current value of every traced signal to dst and returns
// the extended slice. The set and order of signals must not change over a
// session.
//
type Prober interface {
	Probe(dst []Signal) []Signal
}

// TimeAware is implemented by DUTs that want to know the simulation time
// (like $time in Verilog). The session hands over its TimeBase when it is
// created.
//
type TimeAware interface {
	SetTimeSource(now func() uint64)
}

// Outputs is a snapshot of the DUT observed ports taken after a full cycle.
//
type Outputs struct {
	Halt      bool
	OutStrobe bool
	OutValue  uint8
}

func observe(d DUT) Outputs {
	return Outputs{
		Halt:      d.Halt(),
		OutStrobe: d.OutStrobe(),
		OutValue:  d.OutValue(),
	}
}

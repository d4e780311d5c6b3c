// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vsim

// MaxSimCycles is the default cycle limit of a session.
const MaxSimCycles = 12000

// Reason is the reason a simulation run ended.
//
type Reason int

// Termination reasons.
const (
	ReasonNone   Reason = iota // still running, or never run
	ReasonHalt                 // the DUT asserted halt
	ReasonCutoff               // the cycle limit was reached
	ReasonCancel               // a stop was requested through the Canceller
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonHalt:
		return "halt"
	case ReasonCutoff:
		return "cutoff"
	case ReasonCancel:
		return "cancel"
	}
	return "unknown"
}

// policy decides when a run is complete.
//
type policy struct {
	maxCycles uint64
	cancel    *Canceller
}

// check is called once per completed cycle. When several stop conditions
// hold, cancellation wins over halt, which wins over cutoff.
//
func (p *policy) check(cycle uint64, halted bool) (Reason, bool) {
	switch {
	case p.cancel.Requested():
		return ReasonCancel, true
	case halted:
		return ReasonHalt, true
	case cycle >= p.maxCycles:
		return ReasonCutoff, true
	}
	return ReasonNone, false
}

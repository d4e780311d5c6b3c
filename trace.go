// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vsim

import "github.com/pkg/errors"

// TraceSink records waveform snapshots.
//
// Dump is called once per half cycle with strictly increasing times and no
// gaps. The signal set is the same for every call. Close is called exactly
// once, after the last Dump.
//
type TraceSink interface {
	Dump(t uint64, sigs []Signal) error
	Close() error
}

// portSignals samples the DUT ports. It is used for DUTs that do not
// implement Prober.
//
func (s *Session) portSignals(dst []Signal) []Signal {
	d := s.dut
	o := observe(d)
	return append(dst,
		Signal{Name: "reset_i", Width: 1, Value: b2u(s.reset)},
		Signal{Name: "clk_en_i", Width: 1, Value: 1},
		Signal{Name: "clk", Width: 1, Value: b2u(s.clk)},
		Signal{Name: "halt_o", Width: 1, Value: b2u(o.Halt)},
		Signal{Name: "out_strobe_o", Width: 1, Value: b2u(o.OutStrobe)},
		Signal{Name: "out_value_o", Width: 8, Value: uint64(o.OutValue)},
	)
}

func b2u(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}

// dump takes a snapshot of the DUT and hands it to the trace sink. A failing
// sink is reported once and detached; the run goes on untraced.
//
func (s *Session) dump() {
	if s.trace == nil {
		return
	}
	if p, ok := s.dut.(Prober); ok {
		s.sigs = p.Probe(s.sigs[:0])
	} else {
		s.sigs = s.portSignals(s.sigs[:0])
	}
	if err := s.trace.Dump(s.time.Now(), s.sigs); err != nil {
		s.traceErr = errors.Wrapf(err, "trace dump at time %d", s.time.Now())
		s.diag.Error("trace sink failed, tracing disabled", "time", s.time.Now(), "err", err)
		s.closeTrace()
	}
}

// closeTrace closes and detaches the trace sink, if any.
//
func (s *Session) closeTrace() {
	t := s.trace
	s.trace = nil
	if t == nil {
		return
	}
	if err := t.Close(); err != nil {
		if s.traceErr == nil {
			s.traceErr = errors.Wrap(err, "trace close")
		}
		s.diag.Error("trace sink close failed", "err", err)
	}
}

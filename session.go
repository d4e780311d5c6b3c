// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vsim

import (
	"log/slog"
	"sync"
)

// Options configures a Session.
//
type Options struct {
	// MaxCycles is the cycle limit. Defaults to MaxSimCycles.
	MaxCycles uint64

	// Trace is the waveform trace sink. nil disables tracing. The session
	// takes ownership of the sink and closes it.
	Trace TraceSink
	// TraceFormat and TracePath are only used to announce the trace file in
	// the log file.
	TraceFormat string
	TracePath   string

	// RunID, if not empty, is written to the log file.
	RunID string

	// Canceller used to stop the run early. If nil, the session uses its
	// own, available from Session.Canceller.
	Canceller *Canceller

	// Diag receives diagnostics (sink failures). Defaults to slog.Default().
	Diag *slog.Logger
}

// Result describes how a run ended.
//
type Result struct {
	Reason Reason
	// Cycles is the number of completed clock cycles.
	Cycles uint64
	// Time is the final TimeBase value.
	Time uint64
	// TraceErr is the first trace sink error, if any. Tracing stops after
	// the first error.
	TraceErr error
	// LogErr is the first log sink error, if any.
	LogErr error
}

// Session runs a DUT until it halts, the cycle limit is reached or a
// cancellation is requested. A Session is single use.
//
type Session struct {
	dut    DUT
	log    *Logger
	diag   *slog.Logger
	time   TimeBase
	policy policy
	opts   Options

	trace    TraceSink
	traceErr error
	sigs     []Signal

	reset  bool
	clk    bool
	done   bool
	ran    bool
	reason Reason

	finalOnce sync.Once
	closeOnce sync.Once
	closeErr  error
}

// NewSession returns a new session driving dut. The session takes ownership
// of dut, log and opts.Trace: they are shut down by Run or Close.
//
func NewSession(dut DUT, log *Logger, opts Options) *Session {
	if opts.MaxCycles == 0 {
		opts.MaxCycles = MaxSimCycles
	}
	if opts.Canceller == nil {
		opts.Canceller = new(Canceller)
	}
	if opts.Diag == nil {
		opts.Diag = slog.Default()
	}
	log.SetDiagnostics(opts.Diag)
	s := &Session{
		dut:    dut,
		log:    log,
		diag:   opts.Diag,
		policy: policy{maxCycles: opts.MaxCycles, cancel: opts.Canceller},
		opts:   opts,
		trace:  opts.Trace,
	}
	if ta, ok := dut.(TimeAware); ok {
		ta.SetTimeSource(s.time.Now)
	}
	return s
}

// Canceller returns the session's canceller.
//
func (s *Session) Canceller() *Canceller { return s.policy.cancel }

// Now returns the current simulation time in half cycles.
//
func (s *Session) Now() uint64 { return s.time.Now() }

// Run runs the simulation to completion, then shuts down the DUT, the trace
// sink and the log file. Calling Run more than once, or after Close, does not
// run the simulation again and returns the same result.
//
func (s *Session) Run() Result {
	if s.ran {
		return s.result()
	}
	s.ran = true

	s.log.Log(Event{Kind: EventStarted})
	if s.opts.RunID != "" {
		s.log.LogFileOnly(Event{Kind: EventRunID, Text: s.opts.RunID})
	}
	if s.trace != nil && s.opts.TracePath != "" {
		s.log.LogFileOnly(Event{Kind: EventTraceFile, Format: s.opts.TraceFormat, Text: s.opts.TracePath})
	}

	s.reset = true
	s.dut.SetReset(true)
	s.dut.SetClockEnable(true)
	s.dut.SetClock(false)

	for !s.done {
		o := s.runCycle()
		cycle := s.time.Cycle()
		halted := s.monitor(cycle, o)
		if r, stop := s.policy.check(cycle, halted); stop {
			s.stop(r)
		}
	}

	s.shutdown()
	s.log.Log(Event{Kind: EventEnded, Cycle: s.time.Cycle()})
	s.Close()
	return s.result()
}

// stop records the termination reason. Only the first call has an effect.
//
func (s *Session) stop(r Reason) {
	if s.done {
		return
	}
	s.done = true
	s.reason = r
	switch r {
	case ReasonCancel:
		s.log.Log(Event{Kind: EventInterrupted})
	case ReasonCutoff:
		s.log.Log(Event{Kind: EventCutoff})
	}
	s.diag.Debug("simulation stopped", "reason", r, "cycle", s.time.Cycle())
}

// shutdown finalizes the DUT and closes the trace sink, once.
//
func (s *Session) shutdown() {
	s.finalOnce.Do(func() {
		s.dut.Final()
		s.closeTrace()
	})
}

// Close releases all session resources: the DUT is finalized, then the trace
// sink and the log file are closed. Each happens exactly once, whether Run
// was called or not. Close is idempotent and always returns the error of
// the first call.
//
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.ran = true
		s.shutdown()
		if s.closeErr = s.log.Close(); s.closeErr != nil {
			s.diag.Error("log file close failed", "err", s.closeErr)
		}
	})
	return s.closeErr
}

func (s *Session) result() Result {
	return Result{
		Reason:   s.reason,
		Cycles:   s.time.Cycle(),
		Time:     s.time.Now(),
		TraceErr: s.traceErr,
		LogErr:   s.log.Err(),
	}
}

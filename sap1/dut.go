// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package sap1

import (
	"context"
	"log/slog"
	"strings"

	"github.com/db47h/vsim"
	"github.com/db47h/vsim/hwlib"
	"github.com/db47h/vsim/hwsim"
	"github.com/db47h/vsim/internal/logging"
	"github.com/pkg/errors"
)

// net is a named top level wire or bus.
//
type net struct {
	name string
	pins []int
}

// CPU is a SAP-1 circuit ready to be driven by a vsim.Session. It implements
// vsim.DUT, vsim.Prober and vsim.TimeAware.
//
type CPU struct {
	c *hwsim.Circuit

	reset, clkEn, clk int
	halt, strobe      int
	value             []int

	nets  []net
	index map[string]int

	now func() uint64
	log *slog.Logger
	err error
}

// New returns a new CPU running program p. See hwsim.NewCircuit for the
// meaning of workers.
//
func New(p *Program, workers int) (*CPU, error) {
	c, err := newCircuit(workers, p.Words())
	if err != nil {
		return nil, errors.Wrap(err, "build SAP-1 circuit")
	}
	cpu := &CPU{
		c:      c,
		reset:  c.Pin(PinReset),
		clkEn:  c.Pin(PinClockEnable),
		clk:    c.Pin(PinClock),
		halt:   c.Pin(PinHalt),
		strobe: c.Pin(PinOutStrobe),
		value:  c.Bus(PinOutValue),
		index:  make(map[string]int),
		now:    func() uint64 { return 0 },
		log:    slog.Default(),
	}

	// group bus pins: Nets is sorted, so all pins of a bus are adjacent.
	for _, name := range c.Nets() {
		if i := strings.IndexByte(name, '['); i > 0 {
			name = name[:i]
			if _, ok := cpu.index[name]; ok {
				continue
			}
			cpu.index[name] = len(cpu.nets)
			cpu.nets = append(cpu.nets, net{name, c.Bus(name)})
			continue
		}
		cpu.index[name] = len(cpu.nets)
		cpu.nets = append(cpu.nets, net{name, []int{c.Pin(name)}})
	}
	return cpu, nil
}

// SetLogger sets the diagnostics logger. The default is slog.Default().
//
func (cpu *CPU) SetLogger(l *slog.Logger) {
	if l != nil {
		cpu.log = l
	}
}

// SetTimeSource implements vsim.TimeAware.
//
func (cpu *CPU) SetTimeSource(now func() uint64) { cpu.now = now }

func (cpu *CPU) SetReset(v bool)       { cpu.c.SetInput(cpu.reset, v) }
func (cpu *CPU) SetClockEnable(v bool) { cpu.c.SetInput(cpu.clkEn, v) }
func (cpu *CPU) SetClock(v bool)       { cpu.c.SetInput(cpu.clk, v) }

// Eval lets the circuit settle. The first settle failure is kept and
// reported by Err; the simulation carries on.
//
func (cpu *CPU) Eval() {
	steps := cpu.c.Steps()
	err := cpu.c.Eval()
	if cpu.log.Enabled(context.Background(), logging.LevelTrace) {
		cpu.log.Log(context.Background(), logging.LevelTrace, "eval",
			"time", cpu.now(), "steps", cpu.c.Steps()-steps)
	}
	if err != nil && cpu.err == nil {
		cpu.err = errors.Wrapf(err, "time %d", cpu.now())
		cpu.log.Error("SAP-1 circuit unstable", "time", cpu.now(), "err", err)
	}
}

func (cpu *CPU) Halt() bool      { return cpu.c.Get(cpu.halt) }
func (cpu *CPU) OutStrobe() bool { return cpu.c.Get(cpu.strobe) }
func (cpu *CPU) OutValue() uint8 { return uint8(hwlib.Int64(cpu.c, cpu.value)) }

// Final releases the circuit. The CPU must not be used afterwards.
//
func (cpu *CPU) Final() {
	cpu.log.Debug("SAP-1 final", "time", cpu.now(), "steps", cpu.c.Steps(), "components", cpu.c.Size())
	cpu.c.Dispose()
}

// Err returns the first error encountered by Eval.
//
func (cpu *CPU) Err() error { return cpu.err }

// Probe implements vsim.Prober. It samples every top level net, bus pins
// being grouped into a single multi-bit signal.
//
func (cpu *CPU) Probe(dst []vsim.Signal) []vsim.Signal {
	for _, n := range cpu.nets {
		dst = append(dst, vsim.Signal{
			Name:  n.name,
			Width: len(n.pins),
			Value: uint64(hwlib.Int64(cpu.c, n.pins)),
		})
	}
	return dst
}

// Value returns the current value of the named net or bus.
//
func (cpu *CPU) Value(name string) (uint64, bool) {
	i, ok := cpu.index[name]
	if !ok {
		return 0, false
	}
	return uint64(hwlib.Int64(cpu.c, cpu.nets[i].pins)), true
}

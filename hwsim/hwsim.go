// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package hwsim

import (
	"runtime"
	"sort"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

// DefaultMaxSettleSteps is the default bound on the number of steps Eval runs
// before giving up on a circuit that does not reach a stable state.
const DefaultMaxSettleSteps = 1024

// A Component is a component in a circuit that can Get and Set states.
//
type Component func(c *Circuit)

// A MountFn mounts a part into socket s. MountFn's should query
// the socket for assigned pin numbers and return closures around
// these pin numbers.
//
// For example, a Not gate can be defined like this:
//
//	not := &PartSpec{
//		Name: "Not",
//		Inputs: In("in"),
//		Outputs: Out("out"),
//		Mount: func (s *Socket) []Component {
//			in, out := s.Pin("in"), s.Pin("out")
//			return []Component{
//				func (c *Circuit) { c.Set(out, !c.Get(in)) }
//			}
//		}}
//
type MountFn func(s *Socket) []Component

// A PartSpec wraps a part specification (its blueprint).
//
// Custom parts are implemented by creating a PartSpec, then using its NewPart
// method as a NewPartFn:
//
//	var notGate = notSpec.NewPart
//
// or:
//
//	func Not(c string) Part { return notSpec.NewPart(c) }
//
// Which can then be used when building other chips:
//
//	c, _ := Chip("dummy", In("a, b"), Out("c, d"), Parts{
//		notGate("in=a, out=c"),
//		Not("in=b, out=d"),
//	})
//
type PartSpec struct {
	// Part name.
	Name string
	// Input pin names. Must be distinct pin names.
	// Use In() to expand an input description like "a, b, bus[2]"
	// to Inputs{"a", "b", "bus[0]", "bus[1]"}.
	Inputs Inputs
	// Output pin names. Must be distinct pin names.
	// Use Out() to expand an output description string.
	Outputs Outputs

	// Mount function (see MountFn).
	Mount MountFn
}

// NewPart is a NewPartFn that wraps p with the given connections into a Part.
// It panics if the connection string is malformed. Connections to unknown
// pins are only reported when the part is used in a Chip or Circuit.
//
func (p *PartSpec) NewPart(connections string) Part {
	conns, err := ParseConnections(connections)
	if err != nil {
		panic(errors.Wrap(err, p.Name))
	}
	return Part{p, conns}
}

// busWidth returns the number of pins in bus name, 0 if name is not a bus.
//
func (p *PartSpec) busWidth(name string) int {
	n := 0
	for _, pins := range [][]string{p.Inputs, p.Outputs} {
		for _, pin := range pins {
			if b, _, ok := splitBusPin(pin); ok && b == name {
				n++
			}
		}
	}
	return n
}

func (p *PartSpec) isInput(name string) bool {
	for _, in := range p.Inputs {
		if in == name {
			return true
		}
	}
	return false
}

func (p *PartSpec) isOutput(name string) bool {
	for _, out := range p.Outputs {
		if out == name {
			return true
		}
	}
	return false
}

// wires resolves the part connections into a part pin to container wire map.
// Bare bus names on either side of a connection are expanded to all the bus
// pins. Constant wires are fanned out to every pin of a bus.
//
func (p Part) wires() (map[string]string, error) {
	w := make(map[string]string, len(p.Conns))
	for _, conn := range p.Conns {
		var pins []string
		if p.isInput(conn.PP) || p.isOutput(conn.PP) {
			pins = []string{conn.PP}
		} else if n := p.busWidth(conn.PP); n > 0 {
			pins = make([]string, n)
			for i := range pins {
				pins[i] = BusPinName(conn.PP, i)
			}
		} else {
			return nil, errors.New("invalid pin name " + conn.PP + " for part " + p.Name)
		}

		wires := conn.CP
		switch {
		case len(wires) == len(pins):
		case len(wires) == 1 && isConstant(wires[0]):
			wires = make([]string, len(pins))
			for i := range wires {
				wires[i] = conn.CP[0]
			}
		case len(wires) == 1 && len(pins) > 1:
			wires = make([]string, len(pins))
			for i := range wires {
				wires[i] = BusPinName(conn.CP[0], i)
			}
		default:
			return nil, errors.Errorf("pin count mismatch in connection %s=%v for part %s", conn.PP, conn.CP, p.Name)
		}
		for i, pin := range pins {
			if _, ok := w[pin]; ok {
				return nil, errors.New("pin " + pin + " connected more than once for part " + p.Name)
			}
			w[pin] = wires[i]
		}
	}
	return w, nil
}

// A NewPartFn is a function that takes a connection configuration and returns a
// new Part. See ParseConnections for the syntax of the connection configuration
// string.
//
type NewPartFn func(c string) Part

// A Part wraps a part specification together with its connections within a host
// chip.
//
type Part struct {
	*PartSpec
	Conns []Connection
}

// Parts is a convenience wrapper for []Part.
//
type Parts []Part

// Circuit is a runnable circuit simulation.
//
// Unlike a free running simulation, the circuit has no internal clock: clock
// signals are ordinary inputs driven with SetInput. After changing any input,
// call Eval to let the circuit settle.
//
type Circuit struct {
	s0    []bool // wire states frame #0
	s1    []bool // wire states frame #1
	cs    []Component
	count int // wire count
	steps uint64
	max   int

	nets   map[string]int
	inputs map[int]bool

	wc       []chan struct{}
	wg       sync.WaitGroup
	disposed bool
}

// NewCircuit builds a new circuit based on the given parts.
//
// workers is the number of goroutines used to update the state of the Circuit
// each step of the simulation. If 0, the value of GOMAXPROCS will be used. If
// 1, components are updated on the calling goroutine.
//
// inputs lists the top level wires that are driven from outside the circuit
// with SetInput (typically reset, clock, etc.). All other wires must be
// driven by a part output. outputs lists the top level wires observed from
// outside the circuit with Get; they need not be read by any part.
//
// Callers must make sure to call Dispose() once the circuit is no longer needed
// in order to release allocated resources.
//
func NewCircuit(workers int, inputs Inputs, outputs Outputs, parts Parts) (*Circuit, error) {
	if len(parts) == 0 {
		return nil, errors.New("empty part list")
	}

	// new circuit with room for constant value pins.
	cc := &Circuit{count: cstCount, max: DefaultMaxSettleSteps}
	wrap, err := Chip("CIRCUIT", inputs, outputs, parts)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create chip wrapper")
	}
	s := newSocket(cc)
	for _, in := range inputs {
		s.PinOrNew(in)
	}
	cc.cs = wrap("").Mount(s)
	cc.s0 = make([]bool, cc.count)
	cc.s1 = make([]bool, cc.count)
	// init constant pins
	cc.s0[cstTrue] = true
	cc.s1[cstTrue] = true

	cc.nets = make(map[string]int, len(s.m))
	for name, n := range s.m {
		if !isConstant(name) {
			cc.nets[name] = n
		}
	}
	cc.inputs = make(map[int]bool, len(inputs))
	for _, in := range inputs {
		cc.inputs[s.Pin(in)] = true
	}

	if workers == 0 {
		workers = runtime.GOMAXPROCS(-1)
	}
	if workers <= 1 {
		return cc, nil
	}
	ups := cc.cs
	for len(ups) > 0 {
		size := len(ups) / workers
		if size*workers < len(ups) {
			size++
		}
		wc := make(chan struct{}, 1)
		cc.wc = append(cc.wc, wc)
		go worker(cc, ups[:size], wc)
		ups = ups[size:]
	}

	return cc, nil
}

// Dispose releases all resources allocated for a circuit and stops
// worker goroutines. It is safe to call Dispose more than once.
//
func (c *Circuit) Dispose() {
	if c.disposed {
		return
	}
	c.disposed = true
	c.wg.Add(len(c.wc))
	for _, wc := range c.wc {
		close(wc)
	}
	c.wg.Wait()
}

func worker(c *Circuit, cs []Component, wc <-chan struct{}) {
	for {
		_, ok := <-wc
		if !ok {
			c.wg.Done()
			return
		}
		for _, f := range cs {
			f(c)
		}
		c.wg.Done()
	}
}

// allocPin allocates a pin and returns its number.
//
func (c *Circuit) allocPin() int {
	cnt := c.count
	c.count++
	return cnt
}

// SetMaxSettleSteps sets the maximum number of steps Eval will run.
//
func (c *Circuit) SetMaxSettleSteps(n int) {
	if n < 1 {
		n = 1
	}
	c.max = n
}

// Steps returns the value of the step counter.
//
func (c *Circuit) Steps() uint64 {
	return c.steps
}

// Get returns the state of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Get(n int) bool {
	return c.s0[n]
}

// Set sets the state s of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Set(n int, s bool) {
	c.s1[n] = s
}

// Toggle toggles the state of pin n. The value of n should be obtained in a
// MountFn by a call to one of the Socket methods.
//
func (c *Circuit) Toggle(n int) {
	c.s1[n] = !c.s0[n]
}

// SetInput drives the external input pin n to state s. The new state is
// visible to components on the next step.
//
// SetInput panics if n is not one of the circuit inputs.
//
func (c *Circuit) SetInput(n int, s bool) {
	if !c.inputs[n] {
		panic("pin " + c.netName(n) + " is not a circuit input")
	}
	c.s0[n] = s
	c.s1[n] = s
}

// Step advances the simulation by one step.
//
func (c *Circuit) Step() {
	if len(c.wc) == 0 {
		for _, f := range c.cs {
			f(c)
		}
	} else {
		c.wg.Add(len(c.wc))
		for _, wc := range c.wc {
			wc <- struct{}{}
		}
		c.wg.Wait()
	}
	c.steps++
	c.s0, c.s1 = c.s1, c.s0
}

// Eval runs the simulation until no wire changes state from one step to the
// next. It returns an error if the circuit is still changing after the
// maximum number of settle steps (see SetMaxSettleSteps), which usually
// indicates a combinational loop.
//
func (c *Circuit) Eval() error {
	for i := 0; i < c.max; i++ {
		c.Step()
		if c.stable() {
			return nil
		}
	}
	return errors.Errorf("circuit did not settle after %d steps", c.max)
}

// stable reports whether the last step left all wires unchanged.
//
func (c *Circuit) stable() bool {
	for i := range c.s0 {
		if c.s0[i] != c.s1[i] {
			return false
		}
	}
	return true
}

// Pin returns the pin number of the named top level wire.
// This function panics if the wire does not exist.
//
func (c *Circuit) Pin(name string) int {
	n, ok := c.nets[name]
	if !ok {
		panic("wire " + name + " does not exist")
	}
	return n
}

// Lookup returns the pin number of the named top level wire.
//
func (c *Circuit) Lookup(name string) (int, bool) {
	n, ok := c.nets[name]
	return n, ok
}

// Bus returns the pin numbers of the named top level bus.
//
func (c *Circuit) Bus(name string) []int {
	var out []int
	for i := 0; ; i++ {
		n, ok := c.nets[BusPinName(name, i)]
		if !ok {
			break
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		panic("bus " + name + " does not exist")
	}
	return out
}

// Nets returns the sorted names of all top level wires.
//
func (c *Circuit) Nets() []string {
	names := make([]string, 0, len(c.nets))
	for name := range c.nets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Circuit) netName(n int) string {
	for name, p := range c.nets {
		if p == n {
			return name
		}
	}
	return "#" + strconv.Itoa(n)
}

// Size returns the component count in the circuit.
//
func (c *Circuit) Size() int { return len(c.cs) }

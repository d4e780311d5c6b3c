// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Package hwtest provides utility functions for testing circuits.
//
package hwtest

import (
	"fmt"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/db47h/vsim/hwsim"
)

// clock pin name. Parts with a clk input are compared cycle by cycle.
const clk = "clk"

// connString maps every input pin to a wire of the same name and every output
// pin to a wire prefixed with prefix.
//
func connString(in, out []string, prefix string) string {
	var b strings.Builder
	for _, n := range in {
		if b.Len() > 0 {
			b.WriteRune(',')
		}
		b.WriteString(n)
		b.WriteRune('=')
		b.WriteString(n)
	}
	for _, n := range out {
		if b.Len() > 0 {
			b.WriteRune(',')
		}
		b.WriteString(n)
		b.WriteRune('=')
		b.WriteString(prefix)
		b.WriteString(n)
	}
	return b.String()
}

func prefixed(prefix string, names []string) hwsim.Outputs {
	out := make(hwsim.Outputs, len(names))
	for i, n := range names {
		out[i] = prefix + n
	}
	return out
}

// ComparePart takes two parts and compares their outputs given the same inputs.
// Both parts must have the same Input/Output interface.
//
// Inputs are driven with random values for up to 2^iter rounds (iter is
// capped to the number of inputs and 12). If the parts have a clk input, each
// round runs a full clock cycle and outputs are compared after the raising
// edge.
//
func ComparePart(t *testing.T, part1 hwsim.NewPartFn, part2 hwsim.NewPartFn) {
	t.Helper()

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	ps1, ps2 := part1(""), part2("")

	// compare specs
	if len(ps1.Inputs) != len(ps2.Inputs) {
		t.Fatal("len(ps1.Inputs) != len(ps2.Inputs)")
	}
	if len(ps1.Outputs) != len(ps2.Outputs) {
		t.Fatal("len(ps1.Outputs) != len(ps2.Outputs)")
	}
	for i := range ps1.Inputs {
		if ps1.Inputs[i] != ps2.Inputs[i] {
			t.Fatalf("ps1.Inputs[i] = %q != ps2.Inputs[i] = %q", ps1.Inputs[i], ps2.Inputs[i])
		}
	}
	for i := range ps1.Outputs {
		if ps1.Outputs[i] != ps2.Outputs[i] {
			t.Fatalf("ps1.Outputs[i] = %q != ps2.Outputs[i] = %q", ps1.Outputs[i], ps2.Outputs[i])
		}
	}

	outs := append(prefixed("p1_", ps1.Outputs), prefixed("p2_", ps2.Outputs)...)
	c, err := hwsim.NewCircuit(1, hwsim.Inputs(ps1.Inputs), outs, hwsim.Parts{
		part1(connString(ps1.Inputs, ps1.Outputs, "p1_")),
		part2(connString(ps2.Inputs, ps2.Outputs, "p2_")),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	var (
		inputs  = make([]bool, len(ps1.Inputs))
		inPins  = make([]int, len(ps1.Inputs))
		out1    = make([]int, len(ps1.Outputs))
		out2    = make([]int, len(ps1.Outputs))
		clkPin  = -1
		clocked = false
	)
	for i, n := range ps1.Inputs {
		inPins[i] = c.Pin(n)
		if n == clk {
			clkPin, clocked = i, true
		}
	}
	for i, n := range ps1.Outputs {
		out1[i] = c.Pin("p1_" + n)
		out2[i] = c.Pin("p2_" + n)
	}

	errString := func(oname string, ex, got bool) string {
		var b strings.Builder
		for i, n := range ps1.Inputs {
			if b.Len() > 0 {
				b.WriteString(", ")
			}
			b.WriteString(n)
			b.WriteRune('=')
			if inputs[i] {
				b.WriteString("true")
			} else {
				b.WriteString("false")
			}
		}
		return fmt.Sprintf("\nExpected %s => %s=%v\nGot %v", b.String(), oname, ex, got)
	}

	eval := func() {
		if err := c.Eval(); err != nil {
			t.Fatal(err)
		}
	}

	round := func() {
		for i, p := range inPins {
			if i == clkPin {
				c.SetInput(p, false)
				continue
			}
			c.SetInput(p, inputs[i])
		}
		eval()
		if clocked {
			c.SetInput(inPins[clkPin], true)
			eval()
		}
		for o := range out1 {
			if v1, v2 := c.Get(out1[o]), c.Get(out2[o]); v1 != v2 {
				t.Fatal(errString(ps1.Outputs[o], v1, v2))
			}
		}
	}

	iter := len(ps1.Inputs)
	if iter > 12 {
		iter = 12
	}
	iter = 1 << uint(iter)

	start := time.Now()

	// try all 0
	round()

	// try all 1
	for in := range inputs {
		inputs[in] = true
	}
	round()

	for i := 0; i < iter; i++ {
		for in := range inputs {
			inputs[in] = rnd.Int63()&(1<<62) != 0
		}
		round()
	}

	elapsed := time.Since(start)
	t.Logf("%d components. %d steps in %v", c.Size(), c.Steps(), elapsed)
}

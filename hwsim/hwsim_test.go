package hwsim_test

import (
	"strings"
	"testing"

	hl "github.com/db47h/vsim/hwlib"
	hw "github.com/db47h/vsim/hwsim"
	"github.com/db47h/vsim/hwtest"
	"github.com/pkg/errors"
)

func trace(t *testing.T, err error) {
	t.Helper()
	if err, ok := err.(interface {
		StackTrace() errors.StackTrace
	}); ok {
		for _, f := range err.StackTrace() {
			t.Logf("%+v ", f)
		}
	}
}

func Test_gate_custom(t *testing.T) {
	and, err := hw.Chip("AND", hw.In("a, b"), hw.Out("out"),
		hw.Parts{
			hl.Nand("a=a, b=b, out=nand"),
			hl.Nand("a=nand, b=nand, out=out"),
		})
	if err != nil {
		t.Fatal(err)
	}
	or, err := hw.Chip("OR", hw.In("a, b"), hw.Out("out"),
		hw.Parts{
			hl.Nand("a=a, b=a, out=notA"),
			hl.Nand("a=b, b=b, out=notB"),
			hl.Nand("a=notA, b=notB, out=out"),
		})
	if err != nil {
		t.Fatal(err)
	}
	nor, err := hw.Chip("NOR", hw.In("a, b"), hw.Out("out"),
		hw.Parts{
			or("a=a, b=b, out=orAB"),
			hl.Nand("a=orAB, b=orAB, out=out"),
		})
	if err != nil {
		t.Fatal(err)
	}
	xor, err := hw.Chip("XOR", hw.In("a, b"), hw.Out("out"),
		hw.Parts{
			hl.Nand("a=a, b=b, out=nandAB"),
			hl.Nand("a=a, b=nandAB, out=w0"),
			hl.Nand("a=b, b=nandAB, out=w1"),
			hl.Nand("a=w0, b=w1, out=out"),
		})
	if err != nil {
		t.Fatal(err)
	}
	xnor, err := hw.Chip("XNOR", hw.In("a, b"), hw.Out("out"),
		hw.Parts{
			or("a=a, b=b, out=or"),
			hl.Nand("a=a, b=b, out=nand"),
			hl.Nand("a=or, b=nand, out=out"),
		})
	if err != nil {
		t.Fatal(err)
	}
	not, err := hw.Chip("NOT", hw.In("in"), hw.Out("out"),
		hw.Parts{
			hl.Nand("a=in, b=in, out=out"),
		})
	if err != nil {
		t.Fatal(err)
	}
	mux, err := hw.Chip("MUX", hw.In("a, b, sel"), hw.Out("out"), hw.Parts{
		hl.Not("in=sel, out=notSel"),
		hl.And("a=a, b=notSel, out=w0"),
		hl.And("a=b, b=sel, out=w1"),
		hl.Or("a=w0, b=w1, out=out"),
	})
	if err != nil {
		t.Fatal(err)
	}
	dmux, err := hw.Chip("DMUX", hw.In("in, sel"), hw.Out("a, b"), hw.Parts{
		hl.Not("in=sel, out=notSel"),
		hl.And("a=in, b=notSel, out=a"),
		hl.And("a=in, b=sel, out=b"),
	})
	if err != nil {
		t.Fatal(err)
	}
	td := []struct {
		name   string
		gate   hw.NewPartFn
		custom hw.NewPartFn
	}{
		{"AND", hl.And, and},
		{"OR", hl.Or, or},
		{"NOR", hl.Nor, nor},
		{"XOR", hl.Xor, xor},
		{"XNOR", hl.Xnor, xnor},
		{"NOT", hl.Not, not},
		{"MUX", hl.Mux, mux},
		{"DMUX", hl.DMux, dmux},
	}
	for _, d := range td {
		t.Run(d.name, func(t *testing.T) {
			hwtest.ComparePart(t, d.gate, d.custom)
		})
	}
}

// A NOR gate looping back onto itself oscillates as long as disable is low.
// Eval must detect it and give up.
//
func Test_unstable(t *testing.T) {
	clk, err := hw.Chip("CLK", hw.In("disable"), hw.Out("tick"), hw.Parts{
		hl.Nor("a=disable, b=tick, out=tick"),
	})
	if err != nil {
		t.Fatal(err)
	}
	c, err := hw.NewCircuit(1, hw.In("disable"), hw.Out("tick"), hw.Parts{
		clk("disable=disable, tick=tick"),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()
	c.SetMaxSettleSteps(16)

	disable, tick := c.Pin("disable"), c.Pin("tick")

	c.SetInput(disable, true)
	if err = c.Eval(); err != nil {
		t.Fatalf("disabled clock: %v", err)
	}
	if c.Get(tick) {
		t.Fatal("disabled clock: tick must be false")
	}

	c.SetInput(disable, false)
	err = c.Eval()
	if err == nil {
		t.Fatal("free running NOR loop settled")
	}
	if !strings.Contains(err.Error(), "did not settle after 16 steps") {
		t.Fatalf("unexpected error %q", err)
	}

	// and it can be stopped again
	c.SetInput(disable, true)
	if err = c.Eval(); err != nil {
		t.Fatalf("clock stop: %v", err)
	}
	if c.Get(tick) {
		t.Fatal("stopped clock: tick must be false")
	}
}

func TestCircuit_workers(t *testing.T) {
	var a, b int64
	for _, workers := range []int{0, 1, 3} {
		c, err := hw.NewCircuit(workers, nil, hw.Out("out[8], c, z"), hw.Parts{
			hl.InputN(8, func() int64 { return a })("out=a"),
			hl.InputN(8, func() int64 { return b })("out=b"),
			hl.ALU(8)("a=a, b=b, sub=false, out=out, c=c, z=z"),
		})
		if err != nil {
			t.Fatal(err)
		}
		out := c.Bus("out")
		for i := int64(0); i < 256; i += 7 {
			a, b = i, 255-i
			if err := c.Eval(); err != nil {
				c.Dispose()
				t.Fatal(err)
			}
			if got := hl.Int64(c, out); got != 255 {
				t.Errorf("workers=%d: %d + %d = %d", workers, a, b, got)
			}
		}
		c.Dispose()
		c.Dispose() // must not panic
	}
}

func TestCircuit_inputs(t *testing.T) {
	c, err := hw.NewCircuit(1, hw.In("in"), hw.Out("out"), hw.Parts{
		hl.Not("in=in, out=out"),
	})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Dispose()

	if nets := strings.Join(c.Nets(), ","); nets != "in,out" {
		t.Fatalf("Nets() = %q", nets)
	}
	if _, ok := c.Lookup("nope"); ok {
		t.Fatal("Lookup found a non-existent wire")
	}

	in, out := c.Pin("in"), c.Pin("out")
	for _, v := range []bool{false, true, false} {
		c.SetInput(in, v)
		if err = c.Eval(); err != nil {
			t.Fatal(err)
		}
		if c.Get(out) == v {
			t.Fatalf("NOT %v = %v", v, c.Get(out))
		}
	}
	if c.Steps() == 0 {
		t.Fatal("step counter not updated")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("SetInput on an output did not panic")
		}
	}()
	c.SetInput(out, true)
}

func TestNewCircuit_errors(t *testing.T) {
	if _, err := hw.NewCircuit(1, nil, nil, nil); err == nil {
		t.Fatal("empty part list accepted")
	}
	_, err := hw.NewCircuit(1, nil, hw.Out("out"), hw.Parts{
		hl.Not("in=in, out=out"),
	})
	if err == nil || !strings.Contains(err.Error(), "pin in not connected to any output") {
		t.Fatalf("unexpected error %v", err)
	}
	trace(t, err)
}

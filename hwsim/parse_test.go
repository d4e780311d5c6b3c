package hwsim_test

import (
	"reflect"
	"testing"

	hw "github.com/db47h/vsim/hwsim"
)

func TestParseIOSpec(t *testing.T) {
	td := []struct {
		in   string
		out  []string
		fail bool
	}{
		{"", nil, false},
		{"a, b", []string{"a", "b"}, false},
		{"in[2], sel", []string{"in[0]", "in[1]", "sel"}, false},
		{"a, bus[0]", nil, true},
		{"a, bus[2", nil, true},
		{"1a", nil, true},
	}
	for _, d := range td {
		got, err := hw.ParseIOSpec(d.in)
		if (err != nil) != d.fail {
			t.Errorf("%q: unexpected error status %v", d.in, err)
			continue
		}
		if !d.fail && !reflect.DeepEqual(got, d.out) {
			t.Errorf("%q: expected %v, got %v", d.in, d.out, got)
		}
	}
}

func TestParseConnections(t *testing.T) {
	td := []struct {
		in   string
		out  []hw.Connection
		fail bool
	}{
		{"", nil, false},
		{"a=x, b=y", []hw.Connection{{"a", []string{"x"}}, {"b", []string{"y"}}}, false},
		{"a=bus", []hw.Connection{{"a", []string{"bus"}}}, false},
		{"a[0..1]=b[2..3]", []hw.Connection{{"a[0]", []string{"b[2]"}}, {"a[1]", []string{"b[3]"}}}, false},
		{"a[0..1]=true", []hw.Connection{{"a[0]", []string{"true"}}, {"a[1]", []string{"true"}}}, false},
		{"a[0..1]=w[4]", []hw.Connection{{"a[0]", []string{"w[4]"}}, {"a[1]", []string{"w[4]"}}}, false},
		{"a[0..1]=w", []hw.Connection{{"a[0]", []string{"w[0]"}}, {"a[1]", []string{"w[1]"}}}, false},
		{"a=w[0..2]", []hw.Connection{{"a", []string{"w[0]", "w[1]", "w[2]"}}}, false},
		{"a", nil, true},
		{"a=", nil, true},
		{"a[0..2]=b[0..1]", nil, true},
		{"a[2..0]=b", nil, true},
		{"a[x]=b", nil, true},
	}
	for _, d := range td {
		got, err := hw.ParseConnections(d.in)
		if (err != nil) != d.fail {
			t.Errorf("%q: unexpected error status %v", d.in, err)
			continue
		}
		if !d.fail && !reflect.DeepEqual(got, d.out) {
			t.Errorf("%q: expected %v, got %v", d.in, d.out, got)
		}
	}
}

func TestPartSpec_NewPart_panics(t *testing.T) {
	spec := &hw.PartSpec{Name: "dummy", Inputs: hw.In("a"), Outputs: hw.Out("b")}
	defer func() {
		if recover() == nil {
			t.Fatal("malformed connection string did not panic")
		}
	}()
	spec.NewPart("a=, b")
}

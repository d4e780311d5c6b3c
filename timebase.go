// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vsim

// TimeBase counts simulation time in half clock cycles. It starts at 0 and
// never decreases.
//
type TimeBase struct {
	now uint64
}

// Now returns the current time.
//
func (t *TimeBase) Now() uint64 { return t.now }

// Cycle returns the number of completed full clock cycles.
//
func (t *TimeBase) Cycle() uint64 { return t.now / 2 }

// Advance moves time forward by one half cycle.
//
func (t *TimeBase) Advance() { t.now++ }

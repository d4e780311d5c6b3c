// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

/*
Package hwsim provides the necessary tools to build a virtual CPU using Go as
a hardware description language and evaluate it.

This includes a naive hardware simulator and an API to compose basic components
(logic gates, muxers, etc.) into more complex ones.

A Circuit has no clock of its own. Clock, reset and other control signals are
plain inputs driven from outside with SetInput, after which Eval runs the
simulation until every wire has settled. This makes a Circuit suitable as the
device under test of a cycle-stepped simulation driver (see package vsim).

The API is designed to mimic a real hardware description language. As a
result, it relies heavily on closures and can feel a bit awkward when
implementing custom components. MakePart offers a reflection based
alternative.
*/
package hwsim

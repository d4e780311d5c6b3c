// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

// Command cpu_vsim runs a SAP-1 program on the simulated CPU.
//
//	cpu_vsim [flags] [program.asm]
//
// Simulation events are written to the console and to logs/cpu_vsim.log. With
// --trace, every half clock cycle of every net is recorded in a VCD file or a
// SQLite database.
//
package main

import (
	"fmt"
	"os"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}

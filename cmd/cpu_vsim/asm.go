// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var version = "dev"

func newAsmCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "asm [program.asm]",
		Short: "Assemble a program and print its memory listing",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 0 {
				name = args[0]
			}
			p, err := loadProgram(name)
			if err != nil {
				return fail(exitCommandError, err)
			}
			if err := p.WriteListing(cmd.OutOrStdout()); err != nil {
				return fail(exitFailure, err)
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "cpu_vsim %s\n", version)
		},
	}
}

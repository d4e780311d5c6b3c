// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package main

import (
	stderrors "errors"
)

// Exit codes.
const (
	exitFailure      = 1 // the simulation could not run
	exitCommandError = 2 // bad configuration, flags or program
)

// exitError is an error with a process exit code.
//
type exitError struct {
	Code int
	Err  error
}

func (e *exitError) Error() string { return e.Err.Error() }

func (e *exitError) Unwrap() error { return e.Err }

func fail(code int, err error) error {
	return &exitError{Code: code, Err: err}
}

// exitCode returns the exit code for err. Errors that are not an exitError
// come from the command line parser.
//
func exitCode(err error) int {
	var e *exitError
	if stderrors.As(err, &e) {
		return e.Code
	}
	return exitCommandError
}

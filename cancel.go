// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package vsim

import (
	"os"
	"os/signal"
	"sync/atomic"
)

// A Canceller carries an asynchronous stop request to a running Session.
// Request may be called from any goroutine, including a signal handler
// goroutine. The session only looks at the flag at cycle boundaries.
//
// The zero value is ready to use.
//
type Canceller struct {
	req atomic.Bool
}

// Request asks the session to stop at the end of the current cycle.
//
func (c *Canceller) Request() { c.req.Store(true) }

// Requested reports whether a stop was requested.
//
func (c *Canceller) Requested() bool { return c.req.Load() }

// NotifySignals forwards interrupt signals (SIGINT, plus SIGTERM on Unix) to
// c.Request. The returned function stops signal delivery; it must be called
// once the session is over.
//
func NotifySignals(c *Canceller) (stop func()) {
	ch := make(chan os.Signal, 1)
	done := make(chan struct{})
	notifySignals(ch)
	go func() {
		for {
			select {
			case <-ch:
				c.Request()
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(ch)
		close(done)
	}
}

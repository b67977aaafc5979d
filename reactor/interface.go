/*
 * MIT License
 *
 * Copyright (c) 2025 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Package reactor implements the per-thread readiness loop the socket
// layer registers file descriptors with. Each Reactor owns one
// dedicated goroutine driving an edge-triggered epoll instance on
// Linux (epoll_linux.go), or a portable level-triggered poll(2) loop
// on every other platform (reactor_other.go); a Pool binds file
// descriptors to reactors by a stable `fd mod N` affinity so the
// socket manager always knows which goroutine last touched a given
// socket.
package reactor

import (
	"github.com/sabouaram/rpccore/logger"
)

// Event is a bitmask of readiness conditions.
type Event uint8

const (
	Readable Event = 1 << iota
	Writable
)

// Handler is invoked on the owning Reactor's goroutine when a
// registered fd becomes ready for ev. It must not block.
type Handler func(ev Event)

// registration is the bookkeeping kept per registered fd by both
// platform implementations: the handlers to invoke for each readiness
// direction and the interest mask last pushed to the kernel, so a
// second AddEvent for the other direction can amend instead of
// clobbering. The mask's bit meaning is platform-specific (epoll_linux.go
// packs EPOLL* bits, reactor_other.go packs POLL* bits).
type registration struct {
	mask    uint32
	onRead  Handler
	onWrite Handler
}

// Reactor is one readiness loop bound to a single goroutine:
// edge-triggered epoll on Linux, level-triggered poll(2) elsewhere.
type Reactor interface {
	// AddEvent registers interest in ev for fd, invoking h on the
	// reactor's goroutine whenever fd becomes ready.
	AddEvent(fd int, ev Event, h Handler) error

	// RemoveEvent revokes interest in ev for fd. It is safe to call
	// even if fd was never registered.
	RemoveEvent(fd int, ev Event) error

	// Wakeup schedules cb to run once on the reactor's own goroutine at
	// the start of its next loop turn, then closes the returned channel.
	// A caller receiving from that channel is guaranteed the reactor has
	// executed at least one loop turn since any RemoveEvent it issued
	// before calling Wakeup - this is the barrier the socket manager
	// uses to prove a socket's read handler will not run again.
	Wakeup(cb func()) <-chan struct{}

	// Run blocks, dispatching readiness events and wakeups until Stop is
	// called. Intended to be the entire body of the reactor's goroutine.
	Run()

	// Stop unblocks Run and releases the epoll file descriptor. Safe to
	// call once; further calls are no-ops.
	Stop()
}

// Pool is a fixed-size set of Reactors, one goroutine each.
type Pool interface {
	// For returns the Reactor affined to hint by hint mod N. Sockets
	// pass their own fd as hint so the same socket always lands on the
	// same reactor.
	For(hint int) Reactor

	// Size returns the number of reactors in the pool.
	Size() int

	// Start launches every reactor's goroutine.
	Start()

	// Stop stops every reactor and waits for its goroutine to exit.
	Stop()
}

// New returns a single Reactor: epoll-backed on Linux, falling back to
// a portable goroutine+poll(2) implementation (see reactor_other.go)
// on every other platform. log may be nil, in which case nothing is
// logged.
func New(log logger.Logger) Reactor {
	if log == nil {
		log = logger.NewNop()
	}
	return newPlatformReactor(log)
}

// NewPool returns a Pool of n Reactors. n must be > 0.
func NewPool(n int, log logger.Logger) Pool {
	if n <= 0 {
		n = 1
	}
	p := &pool{reactors: make([]Reactor, n)}
	for i := range p.reactors {
		p.reactors[i] = New(log)
	}
	return p
}

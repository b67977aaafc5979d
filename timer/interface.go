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

// Package timer implements the single-thread min-heap timer service:
// one dedicated goroutine owns the heap, and any number of Producers
// (typically one per long-lived reactor or caller goroutine) feed it
// through their own SPSC incoming/cancel queues, mirroring
// antflash::TimeThread's per-thread task containers. Merging those
// queues into the heap, and honouring cancellations against an active-id
// set, happens only on the timer goroutine - nothing else touches the
// heap.
package timer

import (
	"time"

	"github.com/sabouaram/rpccore/logger"
)

// ID is a monotonically increasing, process-unique, non-zero handle
// returned by Schedule. Zero signals that the producer's incoming queue
// was full.
type ID uint64

// queueCapacity is the fixed per-producer SPSC capacity; pushes above
// two thirds of it wake the timer goroutine early so it can drain
// before the queue actually fills.
const queueCapacity = 4096

// Fn is a task body run by the timer goroutine when its deadline
// elapses and it has not been cancelled first.
type Fn func()

// Producer is the per-goroutine handle used to schedule and cancel
// timers, the Go analogue of one thread's TaskContainer. Schedule and
// Unschedule take a per-producer lock, so one Producer may also be
// shared by concurrent callers.
type Producer interface {
	// Schedule arms fn to run at deadline and returns its ID, or 0 if
	// this producer's incoming queue is full.
	Schedule(deadline time.Time, fn Fn) ID

	// Unschedule best-effort cancels id. Returns false if this
	// producer's cancel queue is full; a false return does not mean the
	// task will still fire - it may already have, or another Unschedule
	// attempt may succeed.
	Unschedule(id ID) bool
}

// Service is the timer goroutine plus its producer registry.
type Service interface {
	// NewProducer registers and returns a fresh Producer. Intended to be
	// called once per long-lived goroutine and reused, not once per
	// schedule call.
	NewProducer() Producer

	// Start launches the timer goroutine.
	Start()

	// Stop halts the timer goroutine. Before returning, it runs every
	// task still in the heap whose id was never cancelled, so that any
	// Session blocked on a timeout's completion latch is guaranteed to
	// observe a deterministic outcome.
	Stop()
}

// New returns a ready-to-Start Service. log may be nil.
func New(log logger.Logger) Service {
	if log == nil {
		log = logger.NewNop()
	}
	return newService(log)
}

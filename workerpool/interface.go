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

// Package workerpool is a small fixed-size worker pool: a caller Submits
// a func(), and one of the pool's goroutines runs it.
//
// Go has no supported thread-local storage and a goroutine has no
// fixed OS thread, so thread-pinned task affinity has no analogue
// here - Submit instead round-robins across workers, each backed by
// its own queue.MPSC so any number of concurrent Submit callers can
// feed it safely. The fixed worker count and per-worker queue shape
// mirror the same trade-off channel.subChannel documents for its own
// pool.
package workerpool

import (
	"sync"
	"sync/atomic"

	"github.com/sabouaram/rpccore/logger"
	"github.com/sabouaram/rpccore/queue"
)

// defaultQueueCapacity is the per-worker task queue size, rounded up to
// a power of two by queue.NewMPSC.
const defaultQueueCapacity = 256

// Task is a unit of work submitted to a Pool.
type Task func()

// Pool is a fixed-size set of worker goroutines draining their own
// task queues.
type Pool struct {
	log     logger.Logger
	workers []*worker
	next    atomic.Uint64

	wg      sync.WaitGroup
	started bool
}

// New returns a Pool of n workers, each with a queue of the given
// per-worker capacity (rounded up to a power of two). n and capacity
// must be > 0; log may be nil.
func New(n int, queueCapacity int, log logger.Logger) *Pool {
	if n <= 0 {
		n = 1
	}
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueCapacity
	}
	if log == nil {
		log = logger.NewNop()
	}
	p := &Pool{log: log, workers: make([]*worker, n)}
	for i := range p.workers {
		p.workers[i] = &worker{
			tasks: queue.NewMPSC[Task](uint64(queueCapacity)),
			wake:  make(chan struct{}, 1),
			stop:  make(chan struct{}),
		}
	}
	return p
}

// Start launches every worker goroutine. Safe to call once.
func (p *Pool) Start() {
	if p.started {
		return
	}
	p.started = true
	for _, w := range p.workers {
		p.wg.Add(1)
		go p.run(w)
	}
}

// Stop signals every worker to drain its remaining queued tasks and
// exit, then waits for them to finish.
func (p *Pool) Stop() {
	if !p.started {
		return
	}
	for _, w := range p.workers {
		close(w.stop)
	}
	p.wg.Wait()
	p.started = false
}

// Submit enqueues task on the next worker in round-robin order. If
// that worker's queue is full, task runs synchronously on the calling
// goroutine instead of blocking.
func (p *Pool) Submit(task Task) {
	n := len(p.workers)
	idx := int(p.next.Add(1)) % n
	w := p.workers[idx]
	if !w.tasks.Push(task) {
		task()
		return
	}
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Size returns the number of worker goroutines.
func (p *Pool) Size() int { return len(p.workers) }

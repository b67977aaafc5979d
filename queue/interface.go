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

// Package queue provides fixed-capacity, allocation-free ring buffers for
// three producer/consumer shapes. In this module MPSC backs a socket's
// queue of posted ReadSessions and each workerpool worker's task queue,
// SPSC backs each timer Producer's schedule and cancel queues, and SPMC
// has no caller outside its tests.
//
// All three require their capacity to be a power of two so index
// wrap-around reduces to a mask instead of a modulo.
package queue

// SPSC is a single-producer/single-consumer ring buffer.
type SPSC[T any] interface {
	// Push enqueues v. Returns false if the queue is full.
	Push(v T) bool
	// Pop dequeues the oldest value. Returns false if the queue is empty.
	Pop() (T, bool)
	Len() uint64
	Cap() uint64
}

// SPMC is a single-producer/multi-consumer ring buffer.
type SPMC[T any] interface {
	// Push enqueues v. Returns false if the queue is full. Only one
	// goroutine may call Push.
	Push(v T) bool
	// Pop dequeues the oldest value. Safe for concurrent callers.
	Pop() (T, bool)
	Len() uint64
	Cap() uint64
}

// MPSC is a multi-producer/single-consumer ring buffer.
type MPSC[T any] interface {
	// Push enqueues v. Safe for concurrent callers. Returns false if the
	// queue is full.
	Push(v T) bool
	// Pop dequeues the oldest value. Only one goroutine may call Pop.
	Pop() (T, bool)
	Len() uint64
	Cap() uint64
}

// NewSPSC returns an SPSC ring buffer with at least the given capacity,
// rounded up to the next power of two.
func NewSPSC[T any](capacity uint64) SPSC[T] {
	return &spsc[T]{
		mask: roundUpPow2(capacity) - 1,
		buf:  make([]T, roundUpPow2(capacity)),
	}
}

// NewSPMC returns an SPMC ring buffer with at least the given capacity,
// rounded up to the next power of two.
func NewSPMC[T any](capacity uint64) SPMC[T] {
	return &spmc[T]{
		mask: roundUpPow2(capacity) - 1,
		buf:  make([]T, roundUpPow2(capacity)),
	}
}

// NewMPSC returns an MPSC ring buffer with at least the given capacity,
// rounded up to the next power of two.
func NewMPSC[T any](capacity uint64) MPSC[T] {
	return &mpsc[T]{
		mask: roundUpPow2(capacity) - 1,
		buf:  make([]T, roundUpPow2(capacity)),
	}
}

func roundUpPow2(v uint64) uint64 {
	if v == 0 {
		return 1
	}
	v--
	v |= v >> 1
	v |= v >> 2
	v |= v >> 4
	v |= v >> 8
	v |= v >> 16
	v |= v >> 32
	return v + 1
}

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

package queue

import "sync/atomic"

// spsc mirrors antflash::SPSCQueue: one producer owns writeIdx, one
// consumer owns readIdx, and the two never contend on the same variable.
type spsc[T any] struct {
	mask     uint64
	buf      []T
	readIdx  uint64
	writeIdx uint64
}

func (q *spsc[T]) Push(v T) bool {
	w := atomic.LoadUint64(&q.writeIdx)
	if w >= atomic.LoadUint64(&q.readIdx)+uint64(len(q.buf)) {
		return false
	}
	q.buf[w&q.mask] = v
	atomic.StoreUint64(&q.writeIdx, w+1)
	return true
}

func (q *spsc[T]) Pop() (T, bool) {
	var zero T
	r := atomic.LoadUint64(&q.readIdx)
	if r == atomic.LoadUint64(&q.writeIdx) {
		return zero, false
	}
	v := q.buf[r&q.mask]
	q.buf[r&q.mask] = zero
	atomic.StoreUint64(&q.readIdx, r+1)
	return v, true
}

func (q *spsc[T]) Len() uint64 {
	w := atomic.LoadUint64(&q.writeIdx)
	r := atomic.LoadUint64(&q.readIdx)
	if w <= r {
		return 0
	}
	return w - r
}

func (q *spsc[T]) Cap() uint64 { return uint64(len(q.buf)) }

// spmc mirrors antflash::SPMCQueue: one producer owns writeIdx outright,
// any number of consumers race for readIdx via CAS.
type spmc[T any] struct {
	mask     uint64
	buf      []T
	readIdx  uint64
	writeIdx uint64
}

func (q *spmc[T]) Push(v T) bool {
	w := atomic.LoadUint64(&q.writeIdx)
	r := atomic.LoadUint64(&q.readIdx)
	if w >= r+uint64(len(q.buf)) {
		return false
	}
	q.buf[w&q.mask] = v
	atomic.StoreUint64(&q.writeIdx, w+1)
	return true
}

func (q *spmc[T]) Pop() (T, bool) {
	var zero T
	for {
		r := atomic.LoadUint64(&q.readIdx)
		if r == atomic.LoadUint64(&q.writeIdx) {
			return zero, false
		}
		v := q.buf[r&q.mask]
		if atomic.CompareAndSwapUint64(&q.readIdx, r, r+1) {
			return v, true
		}
	}
}

func (q *spmc[T]) Len() uint64 {
	w := atomic.LoadUint64(&q.writeIdx)
	r := atomic.LoadUint64(&q.readIdx)
	if w <= r {
		return 0
	}
	return w - r
}

func (q *spmc[T]) Cap() uint64 { return uint64(len(q.buf)) }

// mpsc mirrors antflash::MPSCQueue: many producers reserve a slot via
// writePrepareIdx CAS, write into it, then spin until writeIdx catches up
// to their reserved slot so the single consumer never observes a gap.
type mpsc[T any] struct {
	mask         uint64
	buf          []T
	readIdx      uint64
	writePrepare uint64
	writeIdx     uint64
}

func (q *mpsc[T]) Push(v T) bool {
	w := atomic.LoadUint64(&q.writePrepare)
	for {
		r := atomic.LoadUint64(&q.readIdx)
		if w >= r+uint64(len(q.buf)) {
			return false
		}
		if atomic.CompareAndSwapUint64(&q.writePrepare, w, w+1) {
			break
		}
		w = atomic.LoadUint64(&q.writePrepare)
	}

	q.buf[w&q.mask] = v

	for !atomic.CompareAndSwapUint64(&q.writeIdx, w, w+1) {
	}

	return true
}

func (q *mpsc[T]) Pop() (T, bool) {
	var zero T
	r := atomic.LoadUint64(&q.readIdx)
	if r == atomic.LoadUint64(&q.writeIdx) {
		return zero, false
	}
	v := q.buf[r&q.mask]
	q.buf[r&q.mask] = zero
	atomic.StoreUint64(&q.readIdx, r+1)
	return v, true
}

func (q *mpsc[T]) Len() uint64 {
	w := atomic.LoadUint64(&q.writeIdx)
	r := atomic.LoadUint64(&q.readIdx)
	if w <= r {
		return 0
	}
	return w - r
}

func (q *mpsc[T]) Cap() uint64 { return uint64(len(q.buf)) }

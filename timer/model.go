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

package timer

import (
	"container/heap"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sabouaram/rpccore/logger"
	"github.com/sabouaram/rpccore/queue"
)

type task struct {
	deadline time.Time
	id       ID
	fn       Fn
}

// taskHeap keeps the earliest deadline at index 0. Same-deadline tasks
// keep their relative arrival order via seq.
type taskHeap struct {
	items []task
	seq   []uint64
	next  uint64
}

func (h *taskHeap) Len() int { return len(h.items) }
func (h *taskHeap) Less(i, j int) bool {
	if h.items[i].deadline.Equal(h.items[j].deadline) {
		return h.seq[i] < h.seq[j]
	}
	return h.items[i].deadline.Before(h.items[j].deadline)
}
func (h *taskHeap) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.seq[i], h.seq[j] = h.seq[j], h.seq[i]
}
func (h *taskHeap) Push(x any) {
	h.items = append(h.items, x.(task))
	h.seq = append(h.seq, h.next)
	h.next++
}
func (h *taskHeap) Pop() any {
	n := len(h.items)
	x := h.items[n-1]
	h.items = h.items[:n-1]
	h.seq = h.seq[:n-1]
	return x
}

type scheduleMsg struct {
	deadline time.Time
	id       ID
	fn       Fn
}

type producer struct {
	svc      *service
	mu       sync.Mutex // serializes pushes into the SPSC queues
	incoming queue.SPSC[scheduleMsg]
	cancel   queue.SPSC[ID]
}

func (p *producer) Schedule(deadline time.Time, fn Fn) ID {
	p.mu.Lock()
	defer p.mu.Unlock()
	id := ID(atomic.AddUint64(&p.svc.idCounter, 1))
	if !p.incoming.Push(scheduleMsg{deadline: deadline, id: id, fn: fn}) {
		return 0
	}

	p.svc.maybeWake(deadline, p.incoming.Len())
	return id
}

func (p *producer) Unschedule(id ID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	ok := p.cancel.Push(id)
	if ok {
		p.svc.wake()
	}
	return ok
}

type service struct {
	log logger.Logger

	mu        sync.Mutex
	producers []*producer

	wakeCh chan struct{}
	stopCh chan struct{}
	doneCh chan struct{}

	idCounter   uint64
	nearestFire atomic.Int64 // unix nanos; 1<<62 means "no task pending"
}

func newService(log logger.Logger) *service {
	s := &service{
		log:    log,
		wakeCh: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	s.nearestFire.Store(int64(1) << 62)
	return s
}

func (s *service) NewProducer() Producer {
	p := &producer{
		svc:      s,
		incoming: queue.NewSPSC[scheduleMsg](queueCapacity),
		cancel:   queue.NewSPSC[ID](queueCapacity),
	}
	s.mu.Lock()
	s.producers = append(s.producers, p)
	s.mu.Unlock()
	return p
}

func (s *service) wake() {
	select {
	case s.wakeCh <- struct{}{}:
	default:
	}
}

// maybeWake wakes the timer goroutine early if the new deadline is
// sooner than what it's currently waiting for, or if this producer's
// queue has crossed its high-water mark (2/3 capacity) so the timer
// drains before the queue fills.
func (s *service) maybeWake(deadline time.Time, queued uint64) {
	if deadline.UnixNano() < s.nearestFire.Load() {
		s.wake()
		return
	}
	if queued*3 >= queueCapacity*2 {
		s.wake()
	}
}

func (s *service) Start() {
	go s.run()
}

func (s *service) run() {
	defer close(s.doneCh)

	h := &taskHeap{}
	active := make(map[ID]struct{})

	drain := func() {
		s.mu.Lock()
		producers := append([]*producer(nil), s.producers...)
		s.mu.Unlock()

		for _, p := range producers {
			for {
				msg, ok := p.incoming.Pop()
				if !ok {
					break
				}
				heap.Push(h, task{deadline: msg.deadline, id: msg.id, fn: msg.fn})
				active[msg.id] = struct{}{}
			}
			for {
				id, ok := p.cancel.Pop()
				if !ok {
					break
				}
				delete(active, id)
			}
		}
	}

	fireDue := func() {
		now := time.Now()
		for h.Len() > 0 {
			next := h.items[0]
			if next.deadline.After(now) {
				break
			}
			heap.Pop(h)
			if _, ok := active[next.id]; ok {
				delete(active, next.id)
				next.fn()
			}
		}
	}

	for {
		drain()
		fireDue()

		if h.Len() > 0 {
			s.nearestFire.Store(h.items[0].deadline.UnixNano())
		} else {
			s.nearestFire.Store(int64(1) << 62)
		}

		var timer *time.Timer
		var timerCh <-chan time.Time
		if h.Len() > 0 {
			d := time.Until(h.items[0].deadline)
			if d < 0 {
				d = 0
			}
			timer = time.NewTimer(d)
			timerCh = timer.C
		}

		select {
		case <-s.stopCh:
			if timer != nil {
				timer.Stop()
			}
			drain()
			for h.Len() > 0 {
				t := heap.Pop(h).(task)
				if _, ok := active[t.id]; ok {
					delete(active, t.id)
					t.fn()
				}
			}
			return
		case <-s.wakeCh:
			if timer != nil {
				timer.Stop()
			}
		case <-timerCh:
		}
	}
}

func (s *service) Stop() {
	close(s.stopCh)
	<-s.doneCh
}

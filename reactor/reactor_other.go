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

//go:build !linux

package reactor

import (
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/sabouaram/rpccore/logger"
)

// pollReactor is the portable fallback for platforms without epoll: a
// single goroutine rebuilds a pollfd set from regs every iteration and
// blocks in unix.Poll, trading epoll's O(1) rearm for a loop that works
// anywhere golang.org/x/sys/unix exposes Poll. The self-pipe wakeFD
// stands in for Linux's eventfd.
type pollReactor struct {
	log logger.Logger

	wakeR *os.File
	wakeW *os.File

	mu   sync.Mutex
	regs map[int]*registration

	wmu     sync.Mutex
	wakeups []func() (cb func(), done chan struct{})

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newPlatformReactor(log logger.Logger) Reactor {
	r, w, err := os.Pipe()
	if err != nil {
		log.Error("reactor wakeup pipe failed", logger.Fields{"error": err})
	}

	return &pollReactor{
		log:    log,
		wakeR:  r,
		wakeW:  w,
		regs:   make(map[int]*registration),
		stopCh: make(chan struct{}),
	}
}

func (r *pollReactor) AddEvent(fd int, ev Event, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.regs[fd]
	if !ok {
		reg = &registration{}
		r.regs[fd] = reg
	}

	if ev&Readable != 0 {
		reg.onRead = h
		reg.mask |= unix.POLLIN
	}
	if ev&Writable != 0 {
		reg.onWrite = h
		reg.mask |= unix.POLLOUT
	}

	return nil
}

func (r *pollReactor) RemoveEvent(fd int, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.regs[fd]
	if !ok {
		return nil
	}

	if ev&Readable != 0 {
		reg.onRead = nil
		reg.mask &^= unix.POLLIN
	}
	if ev&Writable != 0 {
		reg.onWrite = nil
		reg.mask &^= unix.POLLOUT
	}

	if reg.mask == 0 {
		delete(r.regs, fd)
	}

	return nil
}

func (r *pollReactor) Wakeup(cb func()) <-chan struct{} {
	done := make(chan struct{})

	r.wmu.Lock()
	r.wakeups = append(r.wakeups, func() (func(), chan struct{}) { return cb, done })
	r.wmu.Unlock()

	if r.wakeW != nil {
		_, _ = r.wakeW.Write([]byte{0})
	}

	return done
}

func (r *pollReactor) drainWakeups() {
	if r.wakeR != nil {
		buf := make([]byte, 64)
		_, _ = r.wakeR.Read(buf)
	}

	r.wmu.Lock()
	pending := r.wakeups
	r.wakeups = nil
	r.wmu.Unlock()

	for _, entry := range pending {
		cb, done := entry()
		if cb != nil {
			cb()
		}
		close(done)
	}
}

// snapshot copies the current registrations into a pollfd slice plus a
// parallel fd->registration lookup, so Run can release r.mu before
// blocking in unix.Poll and before invoking any handler.
func (r *pollReactor) snapshot() ([]unix.PollFd, map[int]*registration) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fds := make([]unix.PollFd, 0, len(r.regs)+1)
	regs := make(map[int]*registration, len(r.regs))
	if r.wakeR != nil {
		fds = append(fds, unix.PollFd{Fd: int32(r.wakeR.Fd()), Events: unix.POLLIN})
	}
	for fd, reg := range r.regs {
		fds = append(fds, unix.PollFd{Fd: int32(fd), Events: int16(reg.mask)})
		regs[fd] = reg
	}
	return fds, regs
}

func (r *pollReactor) Run() {
	if r.wakeR == nil {
		<-r.stopCh
		return
	}

	wakeFD := int32(r.wakeR.Fd())
	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		fds, regs := r.snapshot()
		n, err := unix.Poll(fds, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			r.log.Error("poll failed", logger.Fields{"error": err})
			return
		}
		if n == 0 {
			continue
		}

		for _, pfd := range fds {
			if pfd.Revents == 0 {
				continue
			}
			if pfd.Fd == wakeFD {
				r.drainWakeups()
				continue
			}

			reg, ok := regs[int(pfd.Fd)]
			if !ok {
				continue
			}
			if pfd.Revents&(unix.POLLIN|unix.POLLHUP|unix.POLLERR) != 0 && reg.onRead != nil {
				reg.onRead(Readable)
			}
			if pfd.Revents&unix.POLLOUT != 0 && reg.onWrite != nil {
				reg.onWrite(Writable)
			}
		}
	}
}

func (r *pollReactor) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.wakeW != nil {
			_, _ = r.wakeW.Write([]byte{0})
		}
		if r.wakeR != nil {
			_ = r.wakeR.Close()
		}
		if r.wakeW != nil {
			_ = r.wakeW.Close()
		}
	})
}

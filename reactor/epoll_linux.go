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

//go:build linux

package reactor

import (
	"encoding/binary"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/sabouaram/rpccore/logger"
)

type epollReactor struct {
	log logger.Logger

	epfd   int
	wakeFD int

	mu   sync.Mutex
	regs map[int]*registration

	wmu     sync.Mutex
	wakeups []func() (cb func(), done chan struct{})

	stopOnce sync.Once
	stopCh   chan struct{}
}

func newPlatformReactor(log logger.Logger) Reactor {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		// A Reactor that cannot create its epoll fd cannot do anything
		// useful; surface the failure the first time it is driven rather
		// than panicking at construction, which the Pool constructor
		// cannot itself recover from.
		log.Error("epoll_create1 failed", logger.Fields{"error": err})
		epfd = -1
	}

	wfd, _, errno := unix.Syscall(unix.SYS_EVENTFD2, 0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC, 0)
	wakeFD := int(wfd)
	if errno != 0 {
		log.Error("eventfd2 failed", logger.Fields{"errno": errno})
		wakeFD = -1
	}

	r := &epollReactor{
		log:    log,
		epfd:   epfd,
		wakeFD: wakeFD,
		regs:   make(map[int]*registration),
		stopCh: make(chan struct{}),
	}

	if epfd >= 0 && wakeFD >= 0 {
		_ = unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, wakeFD, &unix.EpollEvent{
			Events: unix.EPOLLIN,
			Fd:     int32(wakeFD),
		})
	}

	return r
}

func toEpollMask(ev Event) uint32 {
	var m uint32
	if ev&Readable != 0 {
		m |= unix.EPOLLIN
	}
	if ev&Writable != 0 {
		m |= unix.EPOLLOUT
	}
	return m
}

func (r *epollReactor) AddEvent(fd int, ev Event, h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.regs[fd]
	op := unix.EPOLL_CTL_MOD
	if !ok {
		reg = &registration{}
		r.regs[fd] = reg
		op = unix.EPOLL_CTL_ADD
	}

	if ev&Readable != 0 {
		reg.onRead = h
	}
	if ev&Writable != 0 {
		reg.onWrite = h
	}
	reg.mask |= toEpollMask(ev) | unix.EPOLLET

	return unix.EpollCtl(r.epfd, op, fd, &unix.EpollEvent{
		Events: reg.mask,
		Fd:     int32(fd),
	})
}

func (r *epollReactor) RemoveEvent(fd int, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.regs[fd]
	if !ok {
		return nil
	}

	if ev&Readable != 0 {
		reg.onRead = nil
		reg.mask &^= unix.EPOLLIN
	}
	if ev&Writable != 0 {
		reg.onWrite = nil
		reg.mask &^= unix.EPOLLOUT
	}

	if reg.mask&^uint32(unix.EPOLLET) == 0 {
		delete(r.regs, fd)
		return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	}

	return unix.EpollCtl(r.epfd, unix.EPOLL_CTL_MOD, fd, &unix.EpollEvent{
		Events: reg.mask,
		Fd:     int32(fd),
	})
}

func (r *epollReactor) Wakeup(cb func()) <-chan struct{} {
	done := make(chan struct{})

	r.wmu.Lock()
	r.wakeups = append(r.wakeups, func() (func(), chan struct{}) { return cb, done })
	r.wmu.Unlock()

	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, 1)
	_, _ = unix.Write(r.wakeFD, buf)

	return done
}

func (r *epollReactor) drainWakeups() {
	buf := make([]byte, 8)
	_, _ = unix.Read(r.wakeFD, buf)

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

func (r *epollReactor) Run() {
	if r.epfd < 0 {
		<-r.stopCh
		return
	}

	events := make([]unix.EpollEvent, 256)
	for {
		select {
		case <-r.stopCh:
			return
		default:
		}

		n, err := unix.EpollWait(r.epfd, events, -1)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			r.log.Error("epoll_wait failed", logger.Fields{"error": err})
			return
		}

		for i := 0; i < n; i++ {
			fd := int(events[i].Fd)
			if fd == r.wakeFD {
				r.drainWakeups()
				continue
			}

			r.mu.Lock()
			reg, ok := r.regs[fd]
			r.mu.Unlock()
			if !ok {
				continue
			}

			if events[i].Events&(unix.EPOLLIN|unix.EPOLLHUP|unix.EPOLLERR) != 0 && reg.onRead != nil {
				reg.onRead(Readable)
			}
			if events[i].Events&unix.EPOLLOUT != 0 && reg.onWrite != nil {
				reg.onWrite(Writable)
			}
		}
	}
}

func (r *epollReactor) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopCh)
		if r.wakeFD >= 0 {
			buf := make([]byte, 8)
			binary.LittleEndian.PutUint64(buf, 1)
			_, _ = unix.Write(r.wakeFD, buf)
		}
		if r.epfd >= 0 {
			_ = unix.Close(r.epfd)
		}
		if r.wakeFD >= 0 {
			_ = unix.Close(r.wakeFD)
		}
	})
}

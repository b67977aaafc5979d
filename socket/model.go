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

package socket

import (
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sys/unix"

	"github.com/sabouaram/rpccore/endpoint"
	"github.com/sabouaram/rpccore/errors"
	"github.com/sabouaram/rpccore/lifecycle"
	"github.com/sabouaram/rpccore/logger"
	"github.com/sabouaram/rpccore/protocol"
	"github.com/sabouaram/rpccore/queue"
	"github.com/sabouaram/rpccore/reactor"

	"github.com/sabouaram/rpccore/iobuf"
)

type socket struct {
	remote endpoint.EndPoint
	pool   reactor.Pool
	rct    reactor.Reactor
	log    logger.Logger

	fd     int
	status atomic.Int32

	proto atomic.Pointer[protocolHolder]

	lastActiveUs atomic.Int64

	writeMu sync.Mutex

	readBuf *iobuf.Buffer

	pending queue.MPSC[*ReadSession]

	mu       sync.Mutex
	sessions map[uint64]*ReadSession
	fifo     []uint64

	sharers lifecycle.Lock
}

// protocolHolder lets atomic.Pointer store an interface value.
type protocolHolder struct {
	p protocol.Protocol
}

func newSocket(remote endpoint.EndPoint, pool reactor.Pool, log logger.Logger) *socket {
	s := &socket{
		remote:   remote,
		pool:     pool,
		log:      log,
		fd:       -1,
		readBuf:  iobuf.New(),
		pending:  queue.NewMPSC[*ReadSession](MaxParallelSession),
		sessions: make(map[uint64]*ReadSession, MaxParallelSession),
		sharers:  lifecycle.New(),
	}
	s.status.Store(int32(StatusInit))
	return s
}

func (s *socket) Fd() int                     { return s.fd }
func (s *socket) Remote() endpoint.EndPoint   { return s.remote }
func (s *socket) Status() Status              { return Status(s.status.Load()) }
func (s *socket) SetStatus(st Status)         { s.status.Store(int32(st)) }
func (s *socket) Active() bool                { return s.Status() == StatusOK }

func (s *socket) SetProtocol(p protocol.Protocol) {
	s.proto.Store(&protocolHolder{p: p})
}

func (s *socket) Protocol() protocol.Protocol {
	h := s.proto.Load()
	if h == nil {
		return nil
	}
	return h.p
}

func (s *socket) LastActiveTime() time.Time {
	return time.UnixMicro(s.lastActiveUs.Load())
}

func (s *socket) touch() {
	s.lastActiveUs.Store(time.Now().UnixMicro())
}

func (s *socket) TryShared() bool      { return s.sharers.TryShared() }
func (s *socket) ReleaseShared()       { s.sharers.ReleaseShared() }
func (s *socket) ReleaseExclusive()    { s.sharers.ReleaseExclusive() }

func (s *socket) TryExclusive() bool {
	return s.sharers.TryUpgrade() && s.sharers.TryExclusive()
}

func (s *socket) PrepareRead(session *ReadSession) bool {
	return s.pending.Push(session)
}

// Connect dials remote non-blockingly, waits for the connect to
// complete (or fail, or time out) via the reactor's writable
// notification, then registers the read handler.
func (s *socket) Connect(timeoutMs int) error {
	fd, err := createSocket()
	if err != nil {
		s.SetStatus(StatusConnectFail)
		return err
	}
	s.fd = fd

	if err := startConnect(fd, s.remote); err != nil {
		closeFd(fd)
		s.SetStatus(StatusConnectFail)
		s.log.Error("connect failed", logger.Fields{"remote": s.remote.String(), "error": err.Error()})
		return err
	}

	rct := s.pool.For(fd)
	s.rct = rct

	done := make(chan error, 1)
	err = rct.AddEvent(fd, reactor.Writable, func(reactor.Event) {
		_ = rct.RemoveEvent(fd, reactor.Writable)
		done <- connectError(fd)
	})
	if err != nil {
		closeFd(fd)
		s.SetStatus(StatusConnectFail)
		return err
	}

	var waitErr error
	if timeoutMs > 0 {
		select {
		case waitErr = <-done:
		case <-time.After(time.Duration(timeoutMs) * time.Millisecond):
			_ = rct.RemoveEvent(fd, reactor.Writable)
			s.SetStatus(StatusConnectTimeout)
			closeFd(fd)
			return errors.SocketLost.Error()
		}
	} else {
		waitErr = <-done
	}

	if waitErr != nil {
		s.SetStatus(StatusConnectFail)
		closeFd(fd)
		return waitErr
	}

	s.touch()
	if err := rct.AddEvent(fd, reactor.Readable, s.onReadable); err != nil {
		s.SetStatus(StatusConnectFail)
		closeFd(fd)
		return err
	}

	s.SetStatus(StatusOK)
	s.log.Info("socket connected", logger.Fields{"remote": s.remote.String(), "fd": fd})
	return nil
}

func (s *socket) Disconnect() {
	if s.rct != nil {
		_ = s.rct.RemoveEvent(s.fd, reactor.Readable)
	}
}

// Write serializes writers with a mutex; nothing here calls Write
// recursively, so a plain sync.Mutex suffices. On EAGAIN it waits for
// the reactor to report the fd writable again instead of busy-spinning.
func (s *socket) Write(buffer *iobuf.Buffer, timeoutMs int) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if timeoutMs < 0 {
		return errors.WriteFail.Error()
	}
	if buffer.Empty() {
		return errors.WriteFail.Error()
	}

	var deadline time.Time
	if timeoutMs > 0 {
		deadline = time.Now().Add(time.Duration(timeoutMs) * time.Millisecond)
	}

	tmp := make([]byte, iobuf.BlockSize)
	for !buffer.Empty() {
		n := buffer.CopyTo(tmp)
		written, err := writeFd(s.fd, tmp[:n])
		if written > 0 {
			buffer.PopFront(written)
		}
		if err == nil {
			continue
		}
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN {
			if werr := s.waitWritable(timeoutMs, deadline); werr != nil {
				s.SetStatus(StatusWriteError)
				return errors.WriteFail.Error(werr)
			}
			continue
		}
		s.SetStatus(StatusWriteError)
		s.log.Error("write failed", logger.Fields{"remote": s.remote.String(), "error": err.Error()})
		return errors.WriteFail.Error(err)
	}

	return nil
}

func (s *socket) waitWritable(timeoutMs int, deadline time.Time) error {
	if s.rct == nil {
		return errors.WriteFail.Error()
	}
	ready := make(chan struct{}, 1)
	err := s.rct.AddEvent(s.fd, reactor.Writable, func(reactor.Event) {
		_ = s.rct.RemoveEvent(s.fd, reactor.Writable)
		select {
		case ready <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}

	if timeoutMs <= 0 {
		<-ready
		return nil
	}

	remaining := time.Until(deadline)
	if remaining <= 0 {
		_ = s.rct.RemoveEvent(s.fd, reactor.Writable)
		return errors.WriteFail.Error()
	}

	select {
	case <-ready:
		return nil
	case <-time.After(remaining):
		_ = s.rct.RemoveEvent(s.fd, reactor.Writable)
		return errors.WriteFail.Error()
	}
}

// onReadable is the reactor handler invoked whenever the fd becomes
// readable. It drains as much as the kernel will give it, cuts as many
// complete frames as the protocol can identify, and dispatches each to
// its ReadSession.
func (s *socket) onReadable(reactor.Event) {
	proto := s.Protocol()
	if proto == nil {
		s.SetStatus(StatusReadError)
		return
	}

	readEOF := !s.Active()
	tmp := make([]byte, MinOnceRead)

	for !readEOF {
		n, err := readFd(s.fd, tmp)
		if n > 0 {
			s.readBuf.Append(tmp[:n])
			s.touch()
		}

		if n == 0 && err == nil {
			readEOF = true
			s.SetStatus(StatusClosedByServer)
		} else if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN {
				break
			}
			s.log.Error("read failed", logger.Fields{"remote": s.remote.String(), "error": err.Error()})
			s.SetStatus(StatusReadError)
			break
		}

		for {
			consumed, cerr := s.cutIntoMessage(proto)
			if cerr != nil {
				s.SetStatus(StatusReadError)
				readEOF = true
				break
			}
			if !consumed {
				break
			}
		}
	}

	s.tryReclaimSessionMap()
}

// cutIntoMessage identifies and dispatches at most one complete frame
// from the shared read buffer. Returns true if a frame was consumed
// (whether or not a session was found for it).
func (s *socket) cutIntoMessage(proto protocol.Protocol) (bool, error) {
	if s.readBuf.Empty() {
		return false, nil
	}

	frame := proto.ParseFrame(s.readBuf)
	switch frame.Status {
	case protocol.NeedMore:
		return false, nil
	case protocol.FrameError:
		return false, errors.ReadFail.Error()
	}

	s.mu.Lock()
	for {
		sess, ok := s.pending.Pop()
		if !ok {
			break
		}
		s.sessions[sess.RequestID] = sess
		s.fifo = append(s.fifo, sess.RequestID)
	}

	var sess *ReadSession
	if proto.CarriesRequestID() {
		sess = s.sessions[frame.RequestID]
		if sess != nil {
			delete(s.sessions, frame.RequestID)
		}
	} else {
		for len(s.fifo) > 0 {
			id := s.fifo[0]
			s.fifo = s.fifo[1:]
			if cand, ok := s.sessions[id]; ok {
				sess = cand
				delete(s.sessions, id)
				break
			}
		}
	}
	s.mu.Unlock()

	if sess == nil {
		s.log.Warn("frame matched no pending session", logger.Fields{"request_id": frame.RequestID})
		s.readBuf.PopFront(frame.Size)
		return true, nil
	}

	cut, _ := s.readBuf.Cut(frame.Size)
	sess.readBuf = cut
	sess.Notify(nil)

	return true, nil
}

// tryReclaimSessionMap frees every session whose owners lock has gone
// fully exclusive, meaning Notify ran and every shared holder (the
// sync caller or a racing timeout) has released.
func (s *socket) tryReclaimSessionMap() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if sess.owners.TryExclusive() {
			delete(s.sessions, id)
		}
	}
}

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

// Package socket owns one TCP connection: its non-blocking fd, its
// reactor-driven read loop, and the map of in-flight ReadSessions
// waiting on frames from that connection. A Socket never blocks its
// caller on read; write blocks up to a caller-given deadline.
//
// The notify-vs-reclaim race is the one subtle part of this package.
// A ReadSession can be completed by two different goroutines: the
// reactor, when a full frame for it arrives, or the timer service,
// when its deadline elapses first. Both call Notify; lifecycle.Lock
// guarantees exactly one of them runs the session's post-processing,
// and the loser simply releases its shared hold and returns. The
// session's memory itself is only ever freed by the reactor goroutine,
// in tryReclaimSessionMap, once no shared holder remains.
package socket

import (
	"time"

	"github.com/sabouaram/rpccore/endpoint"
	"github.com/sabouaram/rpccore/errors"
	"github.com/sabouaram/rpccore/iobuf"
	"github.com/sabouaram/rpccore/lifecycle"
	"github.com/sabouaram/rpccore/logger"
	"github.com/sabouaram/rpccore/protocol"
	"github.com/sabouaram/rpccore/reactor"
	"github.com/sabouaram/rpccore/timer"
)

// MaxParallelSession bounds the number of ReadSessions a single Socket
// may have pending at once, via the capacity of its prepare-read queue.
const MaxParallelSession = 1024

// MinOnceRead is the buffer size, in bytes, onReadable passes to each
// read call, to keep read batching cheap under load.
const MinOnceRead = 4096

// MaxIdle is how long a Socket may go without activity before the
// socket manager's tick sends it a heartbeat.
const MaxIdle = 30 * time.Second

// Status is a Socket's connection lifecycle state.
type Status int32

const (
	StatusInit Status = iota
	StatusOK
	StatusConnectFail
	StatusConnectTimeout
	StatusClosedByServer
	StatusReadError
	StatusWriteError
)

// ReadSession tracks one in-flight request waiting for its response
// frame (or a timeout) on a Socket. Callers obtain one from
// Socket.PrepareRead before writing their request, so that a response
// racing the write itself is never missed.
type ReadSession struct {
	RequestID   uint64
	RequestTime time.Time
	ExpireTime  time.Time
	TimerTaskID timer.ID

	// Callback, if non-nil, makes this an async session: Notify invokes
	// it instead of publishing to the result channel.
	Callback func(err error, response any)

	Response any
	Data     any

	proto  protocol.Protocol
	owners lifecycle.Lock
	result chan error

	// readBuf accumulates exactly this session's frame bytes, cut from
	// the Socket's shared read buffer once a full frame is identified.
	readBuf *iobuf.Buffer
}

// NewReadSession returns a ReadSession ready to be handed to
// Socket.PrepareRead. For synchronous use, call Wait after the write
// succeeds; for async use, set Callback before PrepareRead.
func NewReadSession(requestID uint64, proto protocol.Protocol) *ReadSession {
	return &ReadSession{
		RequestID:   requestID,
		RequestTime: time.Now(),
		proto:       proto,
		owners:      lifecycle.New(),
		result:      make(chan error, 2),
		readBuf:     iobuf.New(),
	}
}

// Wait blocks for a synchronous session's outcome.
func (s *ReadSession) Wait() error {
	return <-s.result
}

// RawBytes returns the exact frame bytes Notify cut for this session,
// before any protocol decode. A session constructed with a nil proto
// skips postProcess's ParseResponse entirely, leaving these bytes as
// the only way to inspect what came back - which is what a heartbeat
// probe's VerifyHeartbeat needs, since the raw cmdcode it checks for
// usually isn't part of any decoded Response.
func (s *ReadSession) RawBytes() []byte {
	return s.readBuf.Bytes()
}

// Notify is called by exactly one of the reactor (frame arrived) or
// the timer service (deadline elapsed); the other backs off. Returns
// true if this call won the race and ran post-processing.
func (s *ReadSession) Notify(err error) bool {
	if !s.owners.TryShared() {
		return false
	}

	won := false
	if s.owners.TryUpgradeNonReEntrant() {
		won = true
		err = s.postProcess(err)
		if s.Callback != nil {
			s.Callback(err, s.Response)
		} else {
			s.result <- err
		}
	}
	s.owners.ReleaseShared()
	return won
}

// postProcess decodes the accumulated frame bytes into Response via
// the session's protocol, only when a frame genuinely arrived.
func (s *ReadSession) postProcess(err error) error {
	if err == nil && s.proto != nil && s.readBuf.Len() > 0 {
		resp, perr := s.proto.ParseResponse(s.readBuf.Bytes(), nil)
		if perr != nil {
			return errors.ParseResponseFail.Error(perr)
		}
		s.Response = resp
	}
	return err
}

// Socket owns one TCP connection and its reactor-driven read loop.
type Socket interface {
	Fd() int
	Remote() endpoint.EndPoint

	SetProtocol(p protocol.Protocol)
	Protocol() protocol.Protocol

	// Connect dials the remote endpoint and registers it with the
	// reactor pool. It blocks until the connection completes, fails, or
	// timeoutMs elapses (<=0 means wait forever).
	Connect(timeoutMs int) error

	// Disconnect revokes the socket's read interest; the socket manager
	// calls this before reclaiming it.
	Disconnect()

	Active() bool
	SetStatus(s Status)
	Status() Status

	// TryShared/ReleaseShared let a Channel hold a socket while using it.
	// TryExclusive (Channel/SocketManager use only) atomically upgrades
	// and exclusives the socket's own lifecycle lock in one call, the
	// way the socket manager proves nobody else still holds the socket
	// before reclaiming it; ReleaseExclusive returns it to unlocked.
	TryShared() bool
	ReleaseShared()
	TryExclusive() bool
	ReleaseExclusive()

	// Write blocks until buffer has been handed entirely to the kernel
	// or timeoutMs elapses.
	Write(buffer *iobuf.Buffer, timeoutMs int) error

	LastActiveTime() time.Time

	// PrepareRead registers session so a frame carrying its request id
	// (once parsed by onReadable) will be routed to it. Returns false if the
	// socket's pending-read queue is full.
	PrepareRead(session *ReadSession) bool
}

// New returns a Socket bound to remote, using pool for its read-ready
// registration. log may be nil.
func New(remote endpoint.EndPoint, pool reactor.Pool, log logger.Logger) Socket {
	if log == nil {
		log = logger.NewNop()
	}
	return newSocket(remote, pool, log)
}

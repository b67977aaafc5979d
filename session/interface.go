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

// Package session is the one-shot and pipelined send path: given a
// Channel and a protocol-specific payload, it assembles the request,
// registers the response with the owning Socket, arms a timeout on the
// shared timer service, writes the frame, and - for a synchronous call
// - blocks until the Socket's reactor goroutine or the timer fires the
// matching ReadSession.Notify.
package session

import (
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/sabouaram/rpccore/channel"
	"github.com/sabouaram/rpccore/logger"
	"github.com/sabouaram/rpccore/timer"
)

// Request describes one RPC call. TimeoutMs and MaxRetry of 0 fall
// back to Channel.Options()'s values; a MaxRetry that resolves to <= 0
// is treated as 1 (no retry), matching Channel's own default.
//
// TraceID correlates a Request across retries and log lines. It has
// no bearing on the wire request id a Protocol assembles - that one
// is scoped to a single Socket and reused by the peer in its
// response; TraceID instead survives every retry of the same logical
// call and is generated if left empty.
type Request struct {
	Channel   channel.Channel
	Payload   any
	TimeoutMs int
	MaxRetry  int
	TraceID   string
}

// Manager owns the process-wide request id counter and the timer
// Producer every dispatched Request schedules its timeout on. One
// Manager is typically shared by an entire process.
type Manager struct {
	producer timer.Producer
	log      logger.Logger
	nextID   atomic.Uint64
}

// NewManager returns a Manager scheduling timeouts on svc. svc must
// already be Start()ed. log may be nil.
func NewManager(svc timer.Service, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	return &Manager{
		producer: svc.NewProducer(),
		log:      log,
	}
}

// Send performs req synchronously, making up to its resolved MaxRetry
// attempts and retrying on any failure other than a response timeout,
// and returns the decoded response.
func (m *Manager) Send(req Request) (any, error) {
	resp, err, _ := m.dispatch(req, nil)
	return resp, err
}

// SendAsync performs req without blocking for a response. callback
// runs once a response, timeout, or terminal error is known - either
// from this call directly (every retry failed before a Socket ever
// accepted the request for writing) or later, from the Socket's
// reactor goroutine or the timer goroutine, whichever notices the
// outcome first.
func (m *Manager) SendAsync(req Request, callback func(response any, err error)) {
	_, err, handled := m.dispatch(req, callback)
	if err != nil && callback != nil && !handled {
		callback(nil, err)
	}
}

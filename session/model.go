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

package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/sabouaram/rpccore/errors"
	"github.com/sabouaram/rpccore/logger"
	"github.com/sabouaram/rpccore/socket"
	"github.com/sabouaram/rpccore/timer"
)

// dispatch resolves req's effective timeout/retry against its Channel's
// defaults and drives sendOnce up to that many times, stopping early on
// success or on a response timeout (a timeout is never retried).
func (m *Manager) dispatch(req Request, callback func(any, error)) (any, error, bool) {
	if req.TraceID == "" {
		req.TraceID = uuid.NewString()
	}

	timeoutMs := req.TimeoutMs
	retry := req.MaxRetry
	if req.Channel != nil {
		opts := req.Channel.Options()
		if timeoutMs == 0 {
			timeoutMs = opts.TimeoutMs
		}
		if retry == 0 {
			retry = opts.MaxRetry
		}
	}
	if retry <= 0 {
		retry = 1
	}

	var resp any
	var err error
	var handled bool
	for i := 0; i < retry; i++ {
		resp, err, handled = m.sendOnce(req, timeoutMs, callback)
		if err == nil || errors.Has(err, errors.ReadTimeout) {
			break
		}
		// Notify has already delivered this failure to callback.
		if handled && callback != nil {
			break
		}
		m.log.Debug("retrying request", logger.Fields{"trace_id": req.TraceID, "attempt": i + 1, "error": err.Error()})
	}
	return resp, err, handled
}

// sendOnce runs one attempt: assemble, register, arm the timeout,
// write, and - for a synchronous call (callback == nil) - wait.
//
// handled reports whether a ReadSession.Notify call has already run
// for this attempt's session, which is true for every failure after
// PrepareRead has succeeded. Notify invokes callback itself when one is set,
// so a caller that sees handled == true must not invoke callback again.
func (m *Manager) sendOnce(req Request, timeoutMs int, callback func(any, error)) (any, error, bool) {
	if req.Channel == nil {
		return nil, errors.ProtocolNotFound.Error(), false
	}

	sock, err := req.Channel.GetSocket()
	if err != nil || sock == nil {
		m.log.Warn("socket lost", logger.Fields{"trace_id": req.TraceID})
		return nil, errors.SocketLost.Error(err), false
	}

	proto := sock.Protocol()
	if proto == nil {
		return nil, errors.ProtocolNotFound.Error(), false
	}

	sessionID := m.nextID.Add(1)
	writeBuf, err := proto.AssembleRequest(req.Payload, sessionID)
	if err != nil {
		return nil, errors.AssembleRequestFail.Error(err), false
	}

	rs := socket.NewReadSession(proto.NormalizeRequestID(sessionID), proto)
	if callback != nil {
		rs.Callback = func(err error, response any) { callback(response, err) }
	}
	if timeoutMs > 0 {
		rs.ExpireTime = rs.RequestTime.Add(time.Duration(timeoutMs) * time.Millisecond)
	}

	if !sock.PrepareRead(rs) {
		return nil, errors.SocketBusy.Error(), false
	}

	var timerID timer.ID
	if timeoutMs > 0 {
		timerID = m.producer.Schedule(rs.ExpireTime, func() {
			rs.Notify(errors.ReadTimeout.Error())
		})
		if timerID == 0 {
			rs.Notify(errors.TimerBusy.Error())
			return nil, errors.TimerBusy.Error(), true
		}
		rs.TimerTaskID = timerID
	}

	if err := sock.Write(writeBuf, timeoutMs); err != nil {
		if timerID != 0 {
			m.producer.Unschedule(timerID)
		}
		werr := errors.WriteFail.Error(err)
		rs.Notify(werr)
		return nil, werr, true
	}

	if callback != nil {
		return nil, nil, true
	}

	waitErr := rs.Wait()
	if timerID != 0 {
		m.producer.Unschedule(timerID)
	}
	return rs.Response, waitErr, true
}

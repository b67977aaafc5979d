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

package sockmgr

import (
	"time"

	"github.com/sabouaram/rpccore/errors"
	"github.com/sabouaram/rpccore/logger"
	"github.com/sabouaram/rpccore/reactor"
	"github.com/sabouaram/rpccore/socket"
	"github.com/sabouaram/rpccore/timer"
)

func (m *Manager) run() {
	defer m.wg.Done()
	ticker := time.NewTicker(m.TickInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			m.tick()
		}
	}
}

// tick splits the watch list into reclaimed and still-live sockets,
// barriers the reclaimed ones off their reactors, then heartbeats
// whichever live sockets have gone idle too long.
func (m *Manager) tick() {
	m.mu.Lock()
	batch := m.watched
	m.watched = nil
	m.mu.Unlock()

	var reclaim, live []socket.Socket
	for _, sock := range batch {
		if sock.TryExclusive() {
			sock.Disconnect()
			reclaim = append(reclaim, sock)
		} else {
			live = append(live, sock)
		}
	}

	m.mu.Lock()
	m.watched = append(live, m.watched...)
	m.mu.Unlock()

	m.metrics.watched.Set(float64(len(live)))
	m.metrics.reclaimed.Add(float64(len(reclaim)))

	m.reclaimBarrier(reclaim)
	m.heartbeatAll(live)

	seq := m.tickSeq.Add(1)
	if raw := encodeSnapshot(newSnapshot(live)); raw != nil {
		m.history.Store(seq, raw)
	}
}

// reclaimBarrier proves, for every reactor owning a reclaimed socket,
// that the reactor has executed a loop turn since Disconnect's
// RemoveEvent, since no onReadable call for it can still be queued
// behind the barrier once that happens. reactor.Wakeup is what lets a
// caller outside the reactor goroutine observe that guarantee.
func (m *Manager) reclaimBarrier(reclaim []socket.Socket) {
	if len(reclaim) == 0 {
		return
	}

	byReactor := make(map[reactor.Reactor][]socket.Socket)
	for _, sock := range reclaim {
		r := m.pool.For(sock.Fd())
		byReactor[r] = append(byReactor[r], sock)
	}

	for r, socks := range byReactor {
		done := r.Wakeup(func() {})
		select {
		case <-done:
		case <-time.After(defaultReclaimBarrierTimeout):
			m.log.Warn("reclaim barrier timed out", logger.Fields{"count": len(socks)})
		}
		for _, sock := range socks {
			m.log.Debug("reclaimed socket", logger.Fields{"fd": sock.Fd(), "remote": sock.Remote().String()})
		}
	}
}

// heartbeatAll probes every still-owned socket whose last activity is
// older than MaxIdle, sequentially - there is no reason to parallelize
// a check that only runs once a second against however many sockets
// went quiet.
func (m *Manager) heartbeatAll(live []socket.Socket) {
	for _, sock := range live {
		if !sock.Active() {
			continue
		}
		if time.Since(sock.LastActiveTime()) < m.MaxIdle {
			continue
		}
		m.metrics.heartbeats.Inc()
		if err := m.heartbeat(sock); err != nil {
			m.metrics.hbFailures.Inc()
			sock.SetStatus(socket.StatusConnectFail)
			m.log.Warn("heartbeat failed", logger.Fields{"remote": sock.Remote().String(), "error": err.Error()})
		} else {
			m.log.Debug("heartbeat ok", logger.Fields{"remote": sock.Remote().String()})
		}
	}
}

// heartbeat sends one heartbeat frame and blocks for its response. The
// session it builds uses a nil protocol so postProcess skips
// ParseResponse entirely, leaving RawBytes as the only decode
// VerifyHeartbeat needs - heartbeats don't produce a typed Response the
// way a normal request does.
func (m *Manager) heartbeat(sock socket.Socket) error {
	proto := sock.Protocol()
	if proto == nil || !proto.SupportsHeartbeat() {
		return nil
	}

	id := m.nextID.Add(1)
	buf, err := proto.AssembleHeartbeat(id)
	if err != nil {
		return err
	}

	rs := socket.NewReadSession(proto.NormalizeRequestID(id), nil)
	if !sock.PrepareRead(rs) {
		return errors.SocketBusy.Error()
	}

	var timerID timer.ID
	if m.HeartbeatTimeoutMs > 0 {
		rs.ExpireTime = rs.RequestTime.Add(time.Duration(m.HeartbeatTimeoutMs) * time.Millisecond)
		timerID = m.producer.Schedule(rs.ExpireTime, func() {
			rs.Notify(errors.ReadTimeout.Error())
		})
		if timerID == 0 {
			rs.Notify(errors.TimerBusy.Error())
			return errors.TimerBusy.Error()
		}
		rs.TimerTaskID = timerID
	}

	if err := sock.Write(buf, m.HeartbeatTimeoutMs); err != nil {
		if timerID != 0 {
			m.producer.Unschedule(timerID)
		}
		werr := errors.WriteFail.Error(err)
		rs.Notify(werr)
		return werr
	}

	waitErr := rs.Wait()
	if timerID != 0 {
		m.producer.Unschedule(timerID)
	}
	if waitErr != nil {
		return waitErr
	}
	if !proto.VerifyHeartbeat(rs.RawBytes()) {
		return errors.ParseResponseFail.Error()
	}
	return nil
}

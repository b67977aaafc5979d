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

// Package sockmgr runs the background sweep that reclaims sockets a
// Channel has surrendered and keeps idle-but-still-owned sockets alive
// with a heartbeat. It is the one piece of the runtime with no request
// path of its own: Channel and Session never call into it; rpc.NewChannel
// registers the sockets a new Channel holds with Watch.
package sockmgr

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sabouaram/rpccore/cache"
	"github.com/sabouaram/rpccore/logger"
	"github.com/sabouaram/rpccore/reactor"
	"github.com/sabouaram/rpccore/socket"
	"github.com/sabouaram/rpccore/timer"
)

// defaultTickInterval is how often the watcher loop runs.
const defaultTickInterval = time.Second

// defaultReclaimBarrierTimeout bounds how long one tick waits for a
// reactor's Wakeup to fire before logging and moving on.
const defaultReclaimBarrierTimeout = 500 * time.Millisecond

// defaultHeartbeatTimeoutMs bounds a heartbeat round-trip.
const defaultHeartbeatTimeoutMs = 1000

// snapshotRetention is how long a tick's Snapshot stays in the history
// cache before it expires.
const snapshotRetention = 10 * time.Minute

// Manager periodically scans every Socket it has been told to Watch,
// reclaiming ones a Channel has surrendered (TryExclusive succeeds) and
// heartbeating ones that are still owned but have gone quiet past
// MaxIdle.
type Manager struct {
	pool     reactor.Pool
	producer timer.Producer
	log      logger.Logger

	TickInterval       time.Duration
	MaxIdle            time.Duration
	HeartbeatTimeoutMs int

	nextID  atomic.Uint64
	tickSeq atomic.Uint64

	metrics  *metrics
	registry *prometheus.Registry
	history  cache.Cache[uint64, []byte]

	mu      sync.Mutex
	watched []socket.Socket

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New returns a Manager ready to Watch sockets and Start its sweep.
// pool is used to find the reactor that owns a reclaimed socket's fd
// for the reclaim barrier; svc schedules heartbeat timeouts. log may
// be nil. The Manager keeps its own Prometheus registry (Registry) so
// that more than one Manager can coexist in a process without a
// collector-already-registered panic.
func New(pool reactor.Pool, svc timer.Service, log logger.Logger) *Manager {
	if log == nil {
		log = logger.NewNop()
	}
	reg := prometheus.NewRegistry()
	return &Manager{
		pool:               pool,
		producer:           svc.NewProducer(),
		log:                log,
		TickInterval:       defaultTickInterval,
		MaxIdle:            socket.MaxIdle,
		HeartbeatTimeoutMs: defaultHeartbeatTimeoutMs,
		metrics:            newMetrics(reg),
		registry:           reg,
		history:            cache.New[uint64, []byte](context.Background(), snapshotRetention),
	}
}

// Registry exposes the Manager's own Prometheus collectors so an
// embedder can merge them into its process-wide /metrics handler.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Watch registers sock to be swept by future ticks. rpc.NewChannel
// calls this once for each socket the new Channel holds after
// InitAddress.
func (m *Manager) Watch(sock socket.Socket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watched = append(m.watched, sock)
}

// Start launches the sweep goroutine. Safe to call once.
func (m *Manager) Start() {
	m.stopCh = make(chan struct{})
	m.wg.Add(1)
	go m.run()
}

// Stop halts the sweep goroutine and waits for the in-flight tick, if
// any, to finish.
func (m *Manager) Stop() {
	close(m.stopCh)
	m.wg.Wait()
	_ = m.history.Close()
}

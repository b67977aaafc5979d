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

package channel

import (
	"math"
	"math/rand"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sabouaram/rpccore/endpoint"
	"github.com/sabouaram/rpccore/errors"
	"github.com/sabouaram/rpccore/lifecycle"
	"github.com/sabouaram/rpccore/logger"
	"github.com/sabouaram/rpccore/protocol"
	"github.com/sabouaram/rpccore/reactor"
	"github.com/sabouaram/rpccore/socket"
)

// socketHolder lets atomic.Pointer store an interface value, same
// trick socket.protocolHolder uses for protocol.Protocol.
type socketHolder struct {
	s socket.Socket
}

// subChannel is one of a Pooled channel's independent connections. Its
// sharedNum counts the GetSocket calls it has been assigned, used to
// pick the least-loaded sub-channel on every GetSocket call. It is
// decremented only when claiming the sub-channel's socket fails, not
// when a caller is done with the socket, so it is a running assignment
// count rather than a count of current holders.
//
// Go has no supported thread-local storage and goroutines routinely
// migrate across OS threads, so there is no caller-affinity cache to
// keep here; GetSocket re-runs the idle scan on every call instead,
// converging callers on the least-loaded connection.
type subChannel struct {
	ch        *channel
	sharedNum atomic.Int64
	active    atomic.Bool
}

type channel struct {
	pool reactor.Pool
	log  logger.Logger

	address endpoint.EndPoint
	opts    Options
	proto   protocol.Protocol

	lock lifecycle.Lock
	sock atomic.Pointer[socketHolder]

	subs     []*subChannel
	metrics  *metrics
	registry *prometheus.Registry
}

func newChannel(pool reactor.Pool, log logger.Logger) *channel {
	reg := prometheus.NewRegistry()
	return &channel{
		pool:     pool,
		log:      log,
		lock:     lifecycle.New(),
		metrics:  newMetrics(reg),
		registry: reg,
	}
}

// Registry exposes this channel's own Prometheus collectors - today
// just the Pooled sub-channel fairness gauge - so an embedder can
// merge them into its process-wide /metrics handler.
func (c *channel) Registry() *prometheus.Registry {
	return c.registry
}

func (c *channel) Init(remote endpoint.EndPoint, opts Options) error {
	if err := opts.validate(); err != nil {
		return err
	}
	proto, ok := protocol.Lookup(opts.Protocol)
	if !ok {
		return errors.ConfigUnknownProtocol.Error()
	}

	c.address = remote
	c.opts = opts
	c.proto = proto

	if opts.ConnectionType != Pooled {
		if opts.ConnectionType == Single {
			_, err := c.getSocketInternal()
			return err
		}
		return nil
	}

	c.subs = make([]*subChannel, opts.PoolSize)
	for i := range c.subs {
		sub := newChannel(c.pool, c.log)
		sub.address = remote
		sub.opts = opts
		sub.opts.ConnectionType = Single
		sub.proto = proto
		c.subs[i] = &subChannel{ch: sub}
		if _, err := sub.getSocketInternal(); err == nil {
			c.subs[i].active.Store(true)
		}
	}
	return nil
}

func (c *channel) InitAddress(addr string, opts Options) error {
	uri, err := endpoint.ParseURI(addr)
	if err != nil {
		return err
	}
	if opts.Protocol == "" && uri.Scheme != "" {
		opts.Protocol = uri.Scheme
	}
	return c.Init(uri.Endpoint(), opts)
}

func (c *channel) Address() endpoint.EndPoint { return c.address }
func (c *channel) Options() Options           { return c.opts }

func (c *channel) Close() {
	if h := c.sock.Load(); h != nil {
		h.s.Disconnect()
		h.s.ReleaseExclusive()
	}
	for _, sub := range c.subs {
		sub.ch.Close()
	}
}

// Sockets returns the socket(s) this channel currently holds: the one
// cached socket for Single, every active sub-channel's cached socket
// for Pooled, or nothing for Short, which never caches one between
// calls.
func (c *channel) Sockets() []socket.Socket {
	if len(c.subs) > 0 {
		out := make([]socket.Socket, 0, len(c.subs))
		for _, sub := range c.subs {
			if h := sub.ch.sock.Load(); h != nil {
				out = append(out, h.s)
			}
		}
		return out
	}
	if h := c.sock.Load(); h != nil {
		return []socket.Socket{h.s}
	}
	return nil
}

func (c *channel) GetSocket() (socket.Socket, error) {
	switch c.opts.ConnectionType {
	case Pooled:
		return c.getSubSocketInternal()
	case Short:
		return c.tryConnect()
	default:
		return c.getSocketInternal()
	}
}

// getSocketInternal is the Single/Short connection-reuse path: a quick
// shared-held check for an already-active socket, falling back to a
// non-reentrant upgrade that makes exactly one caller the reconnector
// while every other concurrent caller reports SocketBusy rather than
// piling onto a second simultaneous Connect, reusing the same
// lifecycle.Lock primitive ReadSession.Notify uses to arbitrate its own
// single-winner race.
func (c *channel) getSocketInternal() (socket.Socket, error) {
	if !c.lock.TryShared() {
		return nil, errors.SocketBusy.Error()
	}
	defer c.lock.ReleaseShared()

	if h := c.sock.Load(); h != nil && h.s.Active() {
		return h.s, nil
	}

	if !c.lock.TryUpgradeNonReEntrant() {
		return nil, errors.SocketBusy.Error()
	}
	defer c.lock.ReleaseExclusive()

	if h := c.sock.Load(); h != nil && h.s.Active() {
		return h.s, nil
	}
	// Surrender ownership of the stale socket rather than disconnecting
	// it inline - the socket manager's reclaim sweep notices it via
	// TryExclusive and disconnects it there.
	if old := c.sock.Load(); old != nil {
		old.s.ReleaseExclusive()
	}

	sock, err := c.tryConnect()
	if err != nil {
		return nil, err
	}
	c.sock.Store(&socketHolder{s: sock})
	return sock, nil
}

// tryConnect dials a fresh socket and claims exclusive ownership of it
// before returning, so the socket manager's idle-reclaim sweep can
// never mistake a freshly dialed, not-yet-used socket for an orphan.
func (c *channel) tryConnect() (socket.Socket, error) {
	sock := socket.New(c.address, c.pool, c.log)
	if !sock.TryExclusive() {
		return nil, errors.SocketLost.Error()
	}
	sock.SetProtocol(c.proto)
	if err := sock.Connect(c.opts.ConnectTimeoutMs); err != nil {
		sock.ReleaseExclusive()
		return nil, err
	}
	return sock, nil
}

// getSubSocketInternal picks the active sub-channel with the lowest
// sharedNum (the "most idle" one) and claims it, falling back to a
// random sweep over every sub-channel when none report active.
func (c *channel) getSubSocketInternal() (socket.Socket, error) {
	n := len(c.subs)
	if n == 0 {
		return nil, errors.SocketLost.Error()
	}

	best := -1
	bestShared := int64(math.MaxInt64)
	for i, sub := range c.subs {
		if !sub.active.Load() {
			continue
		}
		if v := sub.sharedNum.Load(); v < bestShared {
			bestShared = v
			best = i
		}
	}

	if best >= 0 {
		sub := c.subs[best]
		c.metrics.set(best, sub.sharedNum.Add(1))
		sock, err := sub.ch.getSocketInternal()
		if err != nil {
			sub.active.Store(false)
			c.metrics.set(best, sub.sharedNum.Add(-1))
			return nil, err
		}
		return sock, nil
	}

	start := rand.Intn(n)
	for i := 0; i < n; i++ {
		idx := (start + i) % n
		sub := c.subs[idx]
		sock, err := sub.ch.getSocketInternal()
		if err == nil {
			sub.active.Store(true)
			c.metrics.set(idx, sub.sharedNum.Add(1))
			return sock, nil
		}
	}
	return nil, errors.SocketLost.Error()
}

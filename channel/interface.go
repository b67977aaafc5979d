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

// Package channel binds a remote EndPoint, a Protocol and a connection
// policy into a reusable handle that Session calls GetSocket on. A
// Channel is built once and shared across goroutines; GetSocket is safe
// for concurrent use.
package channel

import (
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shirou/gopsutil/cpu"

	"github.com/sabouaram/rpccore/endpoint"
	"github.com/sabouaram/rpccore/errors"
	"github.com/sabouaram/rpccore/logger"
	"github.com/sabouaram/rpccore/reactor"
	"github.com/sabouaram/rpccore/socket"
)

// ConnectionType selects how a Channel manages the sockets behind it.
type ConnectionType int

const (
	// Single holds one connection to the remote, reconnecting lazily
	// whenever GetSocket finds it not active. The default.
	Single ConnectionType = iota
	// Pooled holds PoolSize independent connections and spreads callers
	// across whichever is least shared at the moment of the call.
	Pooled
	// Short reconnects fresh for every GetSocket call and never reuses
	// a socket across sessions.
	Short
)

// defaultConnectTimeoutMs/defaultTimeoutMs/defaultMaxRetry mirror the
// SOCKET_CONNECT_TIMEOUT_MS / SOCKET_TIMEOUT_MS / SOCKET_MAX_RETRY
// constants ChannelOptions' default constructor used.
const (
	defaultConnectTimeoutMs = 1000
	defaultTimeoutMs        = 1000
	defaultMaxRetry         = 0
)

// Options configures a Channel. The zero value is not ready to use;
// call DefaultOptions and override fields as needed.
type Options struct {
	// ConnectTimeoutMs bounds Connect; 0 waits forever.
	ConnectTimeoutMs int
	// TimeoutMs bounds one Session's send+receive; 0 waits forever.
	TimeoutMs int
	// MaxRetry is how many attempts a Session makes when a write/read
	// fails; <= 0 means one attempt. A read timeout is never retried.
	MaxRetry int
	// PoolSize is the number of sockets a Pooled channel keeps open.
	// Ignored for Single and Short.
	PoolSize int
	// Protocol names a protocol registered via protocol.Register
	// ("bolt", "http").
	Protocol string
	// ConnectionType selects the socket-reuse policy.
	ConnectionType ConnectionType
}

// DefaultOptions returns a conservative set of connection defaults,
// sizing PoolSize from the machine's logical CPU count.
func DefaultOptions() Options {
	return Options{
		ConnectTimeoutMs: defaultConnectTimeoutMs,
		TimeoutMs:        defaultTimeoutMs,
		MaxRetry:         defaultMaxRetry,
		PoolSize:         hardwareParallelism(),
		Protocol:         "bolt",
		ConnectionType:   Single,
	}
}

// hardwareParallelism probes logical CPU count via gopsutil, falling
// back to runtime.NumCPU() if the probe errors or returns zero (e.g.
// inside some sandboxes' restricted /proc).
func hardwareParallelism() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

func (o Options) validate() error {
	if o.ConnectionType == Pooled && o.PoolSize <= 0 {
		return errors.ConfigInvalidPoolSize.Error()
	}
	return nil
}

// Channel is a bound, reusable handle to a remote endpoint.
type Channel interface {
	// Init binds the channel to remote with opts. Must be called
	// exactly once before GetSocket. Not safe to call concurrently with
	// GetSocket.
	Init(remote endpoint.EndPoint, opts Options) error

	// InitAddress parses addr (see endpoint.ParseURI) and Inits against
	// the resulting endpoint. A recognized URI scheme ("bolt", "http")
	// overrides opts.Protocol when opts.Protocol is empty.
	InitAddress(addr string, opts Options) error

	// Address returns the endpoint this channel was bound to.
	Address() endpoint.EndPoint

	// Options returns the options this channel was bound with.
	Options() Options

	// GetSocket returns an active socket for the next Session to use.
	// Single and Short reconnect lazily as needed; Pooled spreads the
	// call across its least-shared-currently sub-channel.
	GetSocket() (socket.Socket, error)

	// Close disconnects every socket this channel owns.
	Close()

	// Registry exposes this channel's own Prometheus collectors (the
	// Pooled sub-channel fairness gauge) for an embedder to merge into
	// its process-wide /metrics handler. Never nil.
	Registry() *prometheus.Registry

	// Sockets returns every socket currently held by this channel - one
	// for Single, up to PoolSize for Pooled, none for Short (which never
	// holds a socket between calls). A caller that wants the runtime's
	// socket manager to reclaim and heartbeat a long-lived channel's
	// sockets registers each one returned here.
	Sockets() []socket.Socket
}

// New returns a Channel bound to no endpoint yet; call Init before use.
// pool is shared with every socket the channel ever creates, and log
// may be nil.
func New(pool reactor.Pool, log logger.Logger) Channel {
	if log == nil {
		log = logger.NewNop()
	}
	return newChannel(pool, log)
}

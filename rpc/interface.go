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

// Package rpc is the process-wide entry point: Init starts the reactor
// pool, timer service and socket manager every Channel and Session
// needs, and NewChannel/NewSession hand out handles wired against that
// shared runtime. Nothing in channel, session or sockmgr reaches for a
// global itself - this package is the only place that owns one, with
// Init/Destroy giving callers explicit control over the lifetime of
// the process-wide reactor, timer and socket-manager singletons.
package rpc

import (
	"runtime"
	"sync"

	"github.com/sabouaram/rpccore/channel"
	"github.com/sabouaram/rpccore/errors"
	"github.com/sabouaram/rpccore/logger"
	loglvl "github.com/sabouaram/rpccore/logger/level"
	"github.com/sabouaram/rpccore/reactor"
	"github.com/sabouaram/rpccore/session"
	"github.com/sabouaram/rpccore/sockmgr"
	"github.com/sabouaram/rpccore/timer"
)

// Options configures Init. The zero value is valid and picks every
// default a direct channel.New/session.NewManager/sockmgr.New call
// would.
type Options struct {
	// ReactorPoolSize is the number of reactor goroutines; defaults to
	// runtime.GOMAXPROCS(0) when <= 0.
	ReactorPoolSize int
	// Logger is shared by every subsystem Init starts. Defaults to
	// logger.New() (logrus, stderr) when nil.
	Logger logger.Logger
}

var (
	mu      sync.Mutex
	started bool

	pool    reactor.Pool
	svc     timer.Service
	mgr     *sockmgr.Manager
	sess    *session.Manager
	sharedL logger.Logger
)

// Init starts the reactors, timer service and socket manager, in that
// order, and must be called before any Channel or Session is created
// through this package. Calling Init again before Destroy returns an
// errors.AlreadyInitialized error.
func Init(opts Options) error {
	mu.Lock()
	defer mu.Unlock()
	if started {
		return errors.AlreadyInitialized.Error()
	}

	log := opts.Logger
	if log == nil {
		log = logger.New()
	}
	sharedL = log

	n := opts.ReactorPoolSize
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}

	pool = reactor.NewPool(n, log)
	pool.Start()

	svc = timer.New(log)
	svc.Start()

	mgr = sockmgr.New(pool, svc, log)
	mgr.Start()

	sess = session.NewManager(svc, log)

	started = true
	return nil
}

// Destroy stops the reactors, the socket manager, and the timer
// service, in that order, and is idempotent - calling it when Init was
// never called, or calling it twice, is a no-op. A reclaim barrier
// still in flight when the reactors stop simply times out instead of
// observing its Wakeup fire; sockmgr's own shutdown tolerates that.
func Destroy() {
	mu.Lock()
	defer mu.Unlock()
	if !started {
		return
	}

	pool.Stop()
	mgr.Stop()
	svc.Stop()

	pool, svc, mgr, sess = nil, nil, nil, nil
	started = false
}

// SetLogger replaces the shared Logger that later NewChannel calls hand
// to their channels and that SetLogLevel adjusts. Subsystems already
// started by Init keep the Logger they were built with, and Init itself
// replaces the shared Logger with Options.Logger (or its default), so a
// Logger set before Init is not used by Init.
func SetLogger(l logger.Logger) {
	mu.Lock()
	defer mu.Unlock()
	sharedL = l
}

// SetLogLevel changes the minimal severity the shared Logger emits.
// A no-op before Init/SetLogger has established a Logger.
func SetLogLevel(lvl loglvl.Level) {
	mu.Lock()
	defer mu.Unlock()
	if sharedL != nil {
		sharedL.SetLevel(lvl)
	}
}

// NewChannel builds and initializes a Channel against addr (a
// "scheme://host:port" URI or a bare "host:port"), using the reactor
// pool started by Init, then registers every socket it now holds with
// the socket manager's reclaim/heartbeat sweep. Init must have run
// first.
func NewChannel(addr string, opts channel.Options) (channel.Channel, error) {
	mu.Lock()
	p, l, m := pool, sharedL, mgr
	mu.Unlock()
	if p == nil {
		return nil, errors.NotInitialized.Error()
	}

	ch := channel.New(p, l)
	if err := ch.InitAddress(addr, opts); err != nil {
		return nil, err
	}
	for _, sock := range ch.Sockets() {
		m.Watch(sock)
	}
	return ch, nil
}

// Session returns the shared session.Manager started by Init, the
// handle Send/SendAsync/SendPipeline are called on.
func Session() *session.Manager {
	mu.Lock()
	defer mu.Unlock()
	return sess
}

// SocketManager returns the shared sockmgr.Manager started by Init, for
// callers that want its Prometheus registry or snapshot history (e.g.
// cmd/rpcctl's "heartbeat" subcommand).
func SocketManager() *sockmgr.Manager {
	mu.Lock()
	defer mu.Unlock()
	return mgr
}

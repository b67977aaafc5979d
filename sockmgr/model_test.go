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

package sockmgr_test

import (
	"encoding/binary"
	"net"
	"strconv"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	dto "github.com/prometheus/client_model/go"

	"github.com/sabouaram/rpccore/endpoint"
	"github.com/sabouaram/rpccore/protocol/bolt"
	"github.com/sabouaram/rpccore/reactor"
	"github.com/sabouaram/rpccore/socket"
	"github.com/sabouaram/rpccore/sockmgr"
	"github.com/sabouaram/rpccore/timer"
)

// serveHeartbeat answers every request it reads with a well-formed
// heartbeat response, until ln is closed.
func serveHeartbeat(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go func(c net.Conn) {
			defer c.Close()
			for {
				hdr := make([]byte, 22)
				if !readFullMgr(c, hdr) {
					return
				}
				requestID := binary.BigEndian.Uint32(hdr[5:9])

				resp := make([]byte, 20)
				resp[0] = 1
				// resp[1] left zero: directionResponse
				// resp[2:4] left zero: cmdHeartbeat
				resp[4] = 1
				binary.BigEndian.PutUint32(resp[5:9], requestID)
				resp[9] = 11
				if _, err := c.Write(resp); err != nil {
					return
				}
			}
		}(conn)
	}
}

// serveSilent accepts connections and never answers, exercising the
// heartbeat-timeout path.
func serveSilent(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go func(c net.Conn) {
			defer c.Close()
			hdr := make([]byte, 22)
			readFullMgr(c, hdr)
			time.Sleep(2 * time.Second)
		}(conn)
	}
}

func readFullMgr(conn net.Conn, buf []byte) bool {
	off := 0
	for off < len(buf) {
		n, err := conn.Read(buf[off:])
		if err != nil {
			return false
		}
		off += n
	}
	return true
}

func listenMgr() (net.Listener, endpoint.EndPoint) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	Expect(err).ToNot(HaveOccurred())
	port, err := strconv.Atoi(portStr)
	Expect(err).ToNot(HaveOccurred())
	return ln, endpoint.EndPoint{Host: "127.0.0.1", Port: port}
}

var _ = Describe("Manager", func() {
	var (
		pool reactor.Pool
		svc  timer.Service
		mgr  *sockmgr.Manager
	)

	BeforeEach(func() {
		pool = reactor.NewPool(1, nil)
		pool.Start()
		svc = timer.New(nil)
		svc.Start()
		mgr = sockmgr.New(pool, svc, nil)
		mgr.TickInterval = 20 * time.Millisecond
		mgr.MaxIdle = 10 * time.Millisecond
		mgr.HeartbeatTimeoutMs = 200
	})

	AfterEach(func() {
		mgr.Stop()
		svc.Stop()
		pool.Stop()
	})

	It("keeps a watched socket alive by heartbeating it once it goes idle", func() {
		ln, ep := listenMgr()
		defer ln.Close()
		go serveHeartbeat(ln)

		sock := socket.New(ep, pool, nil)
		Expect(sock.TryExclusive()).To(BeTrue())
		sock.SetProtocol(bolt.New())
		Expect(sock.Connect(500)).To(Succeed())

		mgr.Watch(sock)
		mgr.Start()

		Consistently(func() socket.Status {
			return sock.Status()
		}, 300*time.Millisecond, 20*time.Millisecond).Should(Equal(socket.StatusOK))
	})

	It("marks a socket connect-failed when its heartbeat never answers", func() {
		ln, ep := listenMgr()
		defer ln.Close()
		go serveSilent(ln)

		sock := socket.New(ep, pool, nil)
		Expect(sock.TryExclusive()).To(BeTrue())
		sock.SetProtocol(bolt.New())
		Expect(sock.Connect(500)).To(Succeed())

		mgr.Watch(sock)
		mgr.Start()

		Eventually(func() socket.Status {
			return sock.Status()
		}, 2*time.Second, 20*time.Millisecond).Should(Equal(socket.StatusConnectFail))
	})

	It("records a CBOR snapshot and Prometheus gauge for each tick", func() {
		ln, ep := listenMgr()
		defer ln.Close()
		go serveHeartbeat(ln)

		sock := socket.New(ep, pool, nil)
		Expect(sock.TryExclusive()).To(BeTrue())
		sock.SetProtocol(bolt.New())
		Expect(sock.Connect(500)).To(Succeed())

		mgr.Watch(sock)
		mgr.Start()

		Eventually(func() []sockmgr.Snapshot {
			return mgr.Snapshots()
		}, time.Second, 20*time.Millisecond).ShouldNot(BeEmpty())

		families, err := mgr.Registry().Gather()
		Expect(err).ToNot(HaveOccurred())

		var watchedGauge *dto.MetricFamily
		for _, f := range families {
			if f.GetName() == "rpccore_sockmgr_watched_sockets" {
				watchedGauge = f
			}
		}
		Expect(watchedGauge).ToNot(BeNil())
		Expect(watchedGauge.GetMetric()[0].GetGauge().GetValue()).To(BeNumerically(">=", 1))
	})

	It("reclaims a socket once its owning channel has surrendered it", func() {
		ln, ep := listenMgr()
		defer ln.Close()
		go serveHeartbeat(ln)

		sock := socket.New(ep, pool, nil)
		Expect(sock.TryExclusive()).To(BeTrue())
		sock.SetProtocol(bolt.New())
		Expect(sock.Connect(500)).To(Succeed())

		// Simulate a Channel surrendering ownership ahead of a reconnect.
		sock.ReleaseExclusive()

		mgr.Watch(sock)
		mgr.Start()

		// Give the sweep a few ticks to notice the surrendered socket and
		// reclaim it; a single TryExclusive call mutates the lock, so this
		// checks once rather than polling.
		time.Sleep(100 * time.Millisecond)
		Expect(sock.TryExclusive()).To(BeFalse())
	})
})

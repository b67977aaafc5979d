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

import "github.com/prometheus/client_golang/prometheus"

// metrics holds the Manager's Prometheus collectors. Each Manager
// registers its own instance into the registry it's given rather than
// using the global default, so more than one Manager (one per process
// that embeds this runtime) can coexist without a collector-already-
// registered panic.
type metrics struct {
	watched    prometheus.Gauge
	reclaimed  prometheus.Counter
	heartbeats prometheus.Counter
	hbFailures prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		watched: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "rpccore_sockmgr_watched_sockets",
			Help: "Number of sockets currently registered with the socket manager.",
		}),
		reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rpccore_sockmgr_reclaimed_total",
			Help: "Sockets whose ownership was surrendered and reclaimed by the sweep.",
		}),
		heartbeats: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rpccore_sockmgr_heartbeats_total",
			Help: "Heartbeat probes sent to idle sockets.",
		}),
		hbFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rpccore_sockmgr_heartbeat_failures_total",
			Help: "Heartbeat probes that failed or were rejected by VerifyHeartbeat.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.watched, m.reclaimed, m.heartbeats, m.hbFailures)
	}
	return m
}

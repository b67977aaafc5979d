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
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds a Pooled channel's own Prometheus collectors, one
// gauge per sub-channel index tracking sharedNum - the value
// getSubSocketInternal balances across to pick the least-loaded
// sub-channel. Every channel allocates one, but only a Pooled channel
// ever sets a value on it.
type metrics struct {
	sharedNum *prometheus.GaugeVec
}

func newMetrics(reg prometheus.Registerer) *metrics {
	m := &metrics{
		sharedNum: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "rpccore_channel_subchannel_shared",
			Help: "Number of GetSocket calls assigned to each pooled sub-channel, less failed claims.",
		}, []string{"index"}),
	}
	if reg != nil {
		reg.MustRegister(m.sharedNum)
	}
	return m
}

func (m *metrics) set(index int, n int64) {
	if m == nil {
		return
	}
	m.sharedNum.WithLabelValues(strconv.Itoa(index)).Set(float64(n))
}

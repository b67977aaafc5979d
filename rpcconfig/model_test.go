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

package rpcconfig_test

import (
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/rpccore/channel"
	"github.com/sabouaram/rpccore/rpcconfig"
)

const initialYAML = `
channel:
  timeout_ms: 500
  max_retry: 2
  protocol: bolt
  connection_type: pooled
  pool_size: 4
pool:
  size: 2
socket_manager:
  tick_interval_ms: 1000
  max_idle_ms: 30000
  heartbeat_timeout_ms: 1000
`

const reloadedYAML = `
channel:
  timeout_ms: 900
  max_retry: 3
  protocol: bolt
  connection_type: single
pool:
  size: 4
`

var _ = Describe("Loader", func() {
	var path string

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		path = filepath.Join(dir, "rpccore.yaml")
		Expect(os.WriteFile(path, []byte(initialYAML), 0o644)).To(Succeed())
	})

	It("decodes every section into its typed struct", func() {
		ld := rpcconfig.NewLoader(path, nil)
		cfg, err := ld.Load()
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.Channel.TimeoutMs).To(Equal(500))
		Expect(cfg.Channel.MaxRetry).To(Equal(2))
		Expect(cfg.Pool.Size).To(Equal(2))
		Expect(cfg.SocketManager.MaxIdleMs).To(Equal(30000))
	})

	It("converts ChannelConfig into channel.Options with the right ConnectionType", func() {
		ld := rpcconfig.NewLoader(path, nil)
		cfg, err := ld.Load()
		Expect(err).ToNot(HaveOccurred())
		opts := cfg.Channel.ToOptions()
		Expect(opts.ConnectionType).To(Equal(channel.Pooled))
		Expect(opts.PoolSize).To(Equal(4))
	})

	It("defaults an empty connection type to Single", func() {
		cfg := rpcconfig.ChannelConfig{}
		Expect(cfg.ToOptions().ConnectionType).To(Equal(channel.Single))
	})

	It("errors on a missing file", func() {
		ld := rpcconfig.NewLoader(filepath.Join(filepath.Dir(path), "nope.yaml"), nil)
		_, err := ld.Load()
		Expect(err).To(HaveOccurred())
	})

	It("re-decodes and calls back when the watched file changes", func() {
		ld := rpcconfig.NewLoader(path, nil)
		defer ld.Stop()

		changed := make(chan *rpcconfig.Config, 1)
		cfg, err := ld.Watch(func(c *rpcconfig.Config) {
			changed <- c
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(cfg.Channel.TimeoutMs).To(Equal(500))

		Expect(os.WriteFile(path, []byte(reloadedYAML), 0o644)).To(Succeed())

		select {
		case c := <-changed:
			Expect(c.Channel.TimeoutMs).To(Equal(900))
			Expect(c.Channel.ConnectionType).To(Equal("single"))
		case <-time.After(3 * time.Second):
			Fail("timed out waiting for config reload callback")
		}
	})
})

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

package workerpool_test

import (
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/rpccore/workerpool"
)

var _ = Describe("Pool", func() {
	It("runs every submitted task exactly once", func() {
		p := workerpool.New(4, 64, nil)
		p.Start()
		defer p.Stop()

		var n atomic.Int64
		var wg sync.WaitGroup
		wg.Add(100)
		for i := 0; i < 100; i++ {
			p.Submit(func() {
				n.Add(1)
				wg.Done()
			})
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			Fail("timed out waiting for submitted tasks to run")
		}
		Expect(n.Load()).To(Equal(int64(100)))
	})

	It("runs blocking tasks on more than one worker concurrently", func() {
		p := workerpool.New(4, 64, nil)
		p.Start()
		defer p.Stop()

		var inFlight, peak atomic.Int64
		var wg sync.WaitGroup
		wg.Add(4)
		for i := 0; i < 4; i++ {
			p.Submit(func() {
				defer wg.Done()
				n := inFlight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(100 * time.Millisecond)
				inFlight.Add(-1)
			})
		}
		wg.Wait()
		Expect(peak.Load()).To(BeNumerically(">", 1))
	})

	It("recovers a panicking task without killing the worker", func() {
		p := workerpool.New(1, 8, nil)
		p.Start()
		defer p.Stop()

		p.Submit(func() { panic("boom") })

		var ran atomic.Bool
		done := make(chan struct{})
		p.Submit(func() {
			ran.Store(true)
			close(done)
		})

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			Fail("worker did not survive a panicking task")
		}
		Expect(ran.Load()).To(BeTrue())
	})

	It("runs a task inline when every worker's queue is full", func() {
		p := workerpool.New(1, 1, nil)
		// Deliberately never Start: nothing ever drains the one worker's
		// queue, so the second Submit must fall back to running inline.
		var ran atomic.Bool
		p.Submit(func() { time.Sleep(50 * time.Millisecond) })
		p.Submit(func() { ran.Store(true) })
		Expect(ran.Load()).To(BeTrue())
	})
})

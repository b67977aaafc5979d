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

package timer_test

import (
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/rpccore/logger"
	"github.com/sabouaram/rpccore/timer"
)

var _ = Describe("Service", func() {
	It("fires a task at its deadline", func() {
		svc := timer.New(logger.NewNop())
		svc.Start()
		defer svc.Stop()

		p := svc.NewProducer()
		fired := make(chan struct{})
		id := p.Schedule(time.Now().Add(20*time.Millisecond), func() { close(fired) })
		Expect(id).ToNot(Equal(timer.ID(0)))

		Eventually(fired, time.Second).Should(BeClosed())
	})

	It("does not fire a task that was cancelled before its deadline", func() {
		svc := timer.New(logger.NewNop())
		svc.Start()
		defer svc.Stop()

		p := svc.NewProducer()
		var fired int32
		id := p.Schedule(time.Now().Add(50*time.Millisecond), func() { atomic.AddInt32(&fired, 1) })
		Expect(p.Unschedule(id)).To(BeTrue())

		time.Sleep(120 * time.Millisecond)
		Expect(atomic.LoadInt32(&fired)).To(Equal(int32(0)))
	})

	It("fires tasks in non-decreasing deadline order", func() {
		svc := timer.New(logger.NewNop())
		svc.Start()
		defer svc.Stop()

		p := svc.NewProducer()
		var mu sync.Mutex
		var order []int
		var wg sync.WaitGroup
		wg.Add(3)

		base := time.Now()
		p.Schedule(base.Add(60*time.Millisecond), func() {
			mu.Lock()
			order = append(order, 3)
			mu.Unlock()
			wg.Done()
		})
		p.Schedule(base.Add(10*time.Millisecond), func() {
			mu.Lock()
			order = append(order, 1)
			mu.Unlock()
			wg.Done()
		})
		p.Schedule(base.Add(35*time.Millisecond), func() {
			mu.Lock()
			order = append(order, 2)
			mu.Unlock()
			wg.Done()
		})

		wg.Wait()
		Expect(order).To(Equal([]int{1, 2, 3}))
	})

	It("runs still-active tasks on Stop instead of dropping them", func() {
		svc := timer.New(logger.NewNop())
		svc.Start()

		p := svc.NewProducer()
		ran := make(chan struct{})
		p.Schedule(time.Now().Add(time.Hour), func() { close(ran) })

		svc.Stop()
		Eventually(ran, time.Second).Should(BeClosed())
	})
})

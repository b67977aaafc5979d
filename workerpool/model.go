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

package workerpool

import (
	"fmt"
	"time"

	"github.com/sabouaram/rpccore/logger"
	"github.com/sabouaram/rpccore/queue"
)

// worker owns one task queue, drained by exactly one goroutine
// (run), fed by however many goroutines call Pool.Submit.
type worker struct {
	tasks queue.MPSC[Task]
	wake  chan struct{}
	stop  chan struct{}
}

// run drains w's queue until stop closes, parking on wake (or a short
// poll interval, covering the race between a Submit's Push and its
// wake send) whenever the queue is empty rather than busy-spinning.
func (p *Pool) run(w *worker) {
	defer p.wg.Done()
	idle := time.NewTicker(5 * time.Millisecond)
	defer idle.Stop()
	for {
		if task, ok := w.tasks.Pop(); ok {
			p.runTask(task)
			continue
		}
		select {
		case <-w.stop:
			for task, ok := w.tasks.Pop(); ok; task, ok = w.tasks.Pop() {
				p.runTask(task)
			}
			return
		case <-w.wake:
		case <-idle.C:
		}
	}
}

func (p *Pool) runTask(task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("worker task panicked", logger.Fields{"recover": fmt.Sprint(r)})
		}
	}()
	task()
}

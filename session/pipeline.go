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

package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/sabouaram/rpccore/channel"
)

// PipelineRequest fans Payloads out over Channel concurrently, each as
// its own SendAsync call, and waits for every one to settle (or for
// TimeoutMs to elapse) before returning.
type PipelineRequest struct {
	Channel   channel.Channel
	Payloads  []any
	TimeoutMs int
}

// PipelineResult carries one response/error pair per PipelineRequest
// Payload, in the same order. TimedOut is set if the overall
// TimeoutMs elapsed before every Payload settled; Responses/Errs for
// any Payload still outstanding at that point are left at their zero
// value.
type PipelineResult struct {
	Responses []any
	Errs      []error
	TimedOut  bool
}

// Failed reports whether any Payload in the pipeline failed.
func (r PipelineResult) Failed() bool {
	if r.TimedOut {
		return true
	}
	for _, err := range r.Errs {
		if err != nil {
			return true
		}
	}
	return false
}

// Err folds every non-nil Errs entry into a single error, in payload
// order, or returns nil if none failed. A caller that only cares
// whether the pipeline as a whole succeeded can use this instead of
// walking Errs itself.
func (r PipelineResult) Err() error {
	var result *multierror.Error
	for i, err := range r.Errs {
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("payload %d: %w", i, err))
		}
	}
	return result.ErrorOrNil()
}

// SendPipeline dispatches every Payload as an independent async
// request over the same Channel and blocks until all have completed,
// or until TimeoutMs elapses (0 waits forever). Unlike Send, a
// pipelined call does not retry individual payloads.
func (m *Manager) SendPipeline(req PipelineRequest) PipelineResult {
	n := len(req.Payloads)
	result := PipelineResult{
		Responses: make([]any, n),
		Errs:      make([]error, n),
	}
	if n == 0 {
		return result
	}

	var wg sync.WaitGroup
	wg.Add(n)
	for i, payload := range req.Payloads {
		idx, p := i, payload
		m.SendAsync(Request{Channel: req.Channel, Payload: p, TimeoutMs: req.TimeoutMs, MaxRetry: 1}, func(resp any, err error) {
			result.Responses[idx] = resp
			result.Errs[idx] = err
			wg.Done()
		})
	}

	if req.TimeoutMs <= 0 {
		wg.Wait()
		return result
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Duration(req.TimeoutMs) * time.Millisecond):
		result.TimedOut = true
	}
	return result
}

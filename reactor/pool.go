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

package reactor

import "sync"

type pool struct {
	reactors []Reactor
}

func (p *pool) For(hint int) Reactor {
	n := len(p.reactors)
	idx := hint % n
	if idx < 0 {
		idx += n
	}
	return p.reactors[idx]
}

func (p *pool) Size() int { return len(p.reactors) }

func (p *pool) Start() {
	for _, r := range p.reactors {
		go r.Run()
	}
}

func (p *pool) Stop() {
	var wg sync.WaitGroup
	for _, r := range p.reactors {
		wg.Add(1)
		go func(r Reactor) {
			defer wg.Done()
			r.Stop()
		}(r)
	}
	wg.Wait()
}

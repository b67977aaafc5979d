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

package iobuf

import (
	"sync"
	"sync/atomic"
)

// Block is a fixed-size byte arena shared by reference between Slices.
// It is released back to the pool once its reference count drops to
// zero, the Go equivalent of antflash::Block's shared_ptr lifetime.
type Block struct {
	buf  [BlockSize]byte
	refs int32
}

var blockPool = sync.Pool{
	New: func() any { return &Block{refs: 1} },
}

func getBlock() *Block {
	b := blockPool.Get().(*Block)
	atomic.StoreInt32(&b.refs, 1)
	return b
}

func (b *Block) retain() {
	atomic.AddInt32(&b.refs, 1)
}

func (b *Block) release() {
	if atomic.AddInt32(&b.refs, -1) == 0 {
		blockPool.Put(b)
	}
}

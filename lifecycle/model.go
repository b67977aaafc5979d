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

package lifecycle

import "sync/atomic"

type lock struct {
	bits int32
}

func (o *lock) TryShared() bool {
	v := atomic.AddInt32(&o.bits, bitShared)
	if v&(bitUpgraded|bitExclusive) != 0 {
		atomic.AddInt32(&o.bits, -bitShared)
		return false
	}

	return true
}

func (o *lock) TryUpgrade() bool {
	v := orInt32(&o.bits, bitUpgraded)
	return v&bitExclusive == 0
}

func (o *lock) TryUpgradeNonReEntrant() bool {
	v := orInt32(&o.bits, bitUpgraded)
	return v&(bitUpgraded|bitExclusive) == 0
}

func (o *lock) TryExclusive() bool {
	return atomic.CompareAndSwapInt32(&o.bits, bitUpgraded, bitExclusive)
}

func (o *lock) ReleaseShared() {
	atomic.AddInt32(&o.bits, -bitShared)
}

func (o *lock) ReleaseExclusive() {
	andInt32(&o.bits, ^(bitExclusive | bitUpgraded))
}

func (o *lock) Bits() int32 {
	return atomic.LoadInt32(&o.bits)
}

// orInt32 and andInt32 fill the gap left by sync/atomic having no
// fetch-or/fetch-and for int32 before Go added atomic.Int32.Or/And in 1.23;
// the runtime here targets 1.22.
func orInt32(addr *int32, mask int32) int32 {
	for {
		old := atomic.LoadInt32(addr)
		if atomic.CompareAndSwapInt32(addr, old, old|mask) {
			return old
		}
	}
}

func andInt32(addr *int32, mask int32) int32 {
	for {
		old := atomic.LoadInt32(addr)
		if atomic.CompareAndSwapInt32(addr, old, old&mask) {
			return old
		}
	}
}

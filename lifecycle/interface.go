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

// Package lifecycle provides a three-state spin lock used to arbitrate
// between a fast-path reader (the reactor, reacting to a frame arriving)
// and a slow-path reclaimer (the timer service, reacting to a deadline)
// racing over the same in-flight ReadSession. At most one of the two may
// win; the loser must back off without touching the session again.
//
// The lock has three bits: SHARED, UPGRADED and EXCLUSIVE. Many callers
// may hold SHARED at once (readers proving the session is still live).
// Exactly one caller may hold UPGRADED at a time, and it only becomes
// EXCLUSIVE once every SHARED holder has released - i.e. once nobody
// else could still be touching the session.
package lifecycle

// bit values mirror antflash::LifeCycleLock's enum exactly: SHARED is
// added/subtracted in units of 4 so it never collides with the low two
// bits used by UPGRADED and EXCLUSIVE.
const (
	bitShared    int32 = 4
	bitUpgraded  int32 = 2
	bitExclusive int32 = 1
)

// Lock is a three-state lock: any number of SHARED holders, at most one
// UPGRADED holder, and an EXCLUSIVE holder that implies no SHARED holders
// remain. The zero value is a valid, unlocked Lock.
type Lock interface {
	// TryShared attempts to acquire a shared hold. It fails if the lock is
	// currently UPGRADED or EXCLUSIVE. Safe to call from any number of
	// goroutines concurrently.
	TryShared() bool

	// TryUpgrade sets the UPGRADED bit and reports whether the lock was
	// not already EXCLUSIVE. Re-entrant: calling it again while already
	// UPGRADED still reports success, matching antflash's tryUpgrade.
	TryUpgrade() bool

	// TryUpgradeNonReEntrant sets the UPGRADED bit and reports success
	// only if neither UPGRADED nor EXCLUSIVE was already set. Use this
	// when exactly one of several racing goroutines must win the upgrade.
	TryUpgradeNonReEntrant() bool

	// TryExclusive atomically turns an UPGRADED-only state into EXCLUSIVE.
	// It fails if any SHARED holder is still outstanding or the state is
	// anything other than exactly UPGRADED.
	TryExclusive() bool

	// ReleaseShared drops one shared hold.
	ReleaseShared()

	// ReleaseExclusive clears both EXCLUSIVE and UPGRADED, returning the
	// lock to its initial unlocked state.
	ReleaseExclusive()

	// Bits returns the raw bitmask, for diagnostics and tests.
	Bits() int32
}

// New returns a ready-to-use Lock in the unlocked state.
func New() Lock {
	return &lock{}
}

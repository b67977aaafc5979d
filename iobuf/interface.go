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

// Package iobuf provides the chained-slice byte buffer the socket and
// protocol layers pass frames through. Append copies the caller's bytes
// into pooled Blocks once; after that a Buffer holds a sequence of
// Slices, each a (block, offset, length) view onto a fixed-size Block,
// and several Slices from different Buffers can share the same
// underlying Block without further copying. Blocks are
// drawn from a sync.Pool acting as a per-size free-list - Go's runtime
// already shards sync.Pool per-P, so concurrent readers on different
// reactor goroutines rarely contend.
package iobuf

import "io"

// BlockSize is the capacity of a single pooled Block. Appends larger
// than this span multiple blocks.
const BlockSize = 16 * 1024

// Slice is a zero-copy view onto part of a Block.
type Slice struct {
	Block  *Block
	Offset uint32
	Length uint32
}

// Bytes returns the Slice's view as a []byte. The returned slice aliases
// the Block's storage and must not be retained past the owning Buffer's
// lifetime.
func (s Slice) Bytes() []byte {
	return s.Block.buf[s.Offset : s.Offset+s.Length]
}

// Buffer is a not-thread-safe chain of Slices. It is the Go analogue of
// antflash::IOBuffer: append, cut and pop operate in terms of whole or
// partial Slices rather than copying the underlying bytes around.
type Buffer struct {
	ref    []Slice
	offset int
}

// New returns an empty Buffer.
func New() *Buffer {
	return &Buffer{}
}

// Len returns the number of bytes currently held.
func (b *Buffer) Len() int {
	total := 0
	for i := b.offset; i < len(b.ref); i++ {
		total += int(b.ref[i].Length)
	}
	return total
}

// Empty reports whether the buffer holds no bytes.
func (b *Buffer) Empty() bool { return b.Len() == 0 }

// SliceNum returns the number of live slices backing the buffer.
func (b *Buffer) SliceNum() int { return len(b.ref) - b.offset }

// Slice returns the i-th live slice's bytes.
func (b *Buffer) Slice(i int) []byte { return b.ref[b.offset+i].Bytes() }

// Append copies data into the buffer, splitting across as many pooled
// Blocks as needed.
func (b *Buffer) Append(data []byte) {
	for len(data) > 0 {
		blk, off := b.tailForWrite()
		n := copy(blk.buf[off:], data)
		b.ref[len(b.ref)-1].Length += uint32(n)
		data = data[n:]
	}
}

// AppendString is a convenience wrapper around Append.
func (b *Buffer) AppendString(s string) { b.Append([]byte(s)) }

// AppendBuffer appends another Buffer's slices by reference, retaining
// their Blocks rather than copying bytes.
func (b *Buffer) AppendBuffer(other *Buffer) {
	for i := other.offset; i < len(other.ref); i++ {
		s := other.ref[i]
		s.Block.retain()
		b.ref = append(b.ref, s)
	}
}

// tailForWrite returns a Block with room to write into, allocating a
// fresh one from the pool if the current tail is full or absent.
func (b *Buffer) tailForWrite() (*Block, uint32) {
	if len(b.ref) > 0 {
		last := &b.ref[len(b.ref)-1]
		if last.Offset+last.Length < BlockSize {
			return last.Block, last.Offset + last.Length
		}
	}

	blk := getBlock()
	b.ref = append(b.ref, Slice{Block: blk, Offset: 0, Length: 0})
	return blk, 0
}

// PopFront discards up to n bytes from the front of the buffer,
// releasing any Block that becomes fully consumed back to the pool.
// Returns the number of bytes actually discarded.
func (b *Buffer) PopFront(n int) int {
	discarded := 0
	for n > 0 && b.offset < len(b.ref) {
		s := &b.ref[b.offset]
		if int(s.Length) <= n {
			n -= int(s.Length)
			discarded += int(s.Length)
			s.Block.release()
			b.offset++
		} else {
			s.Offset += uint32(n)
			s.Length -= uint32(n)
			discarded += n
			n = 0
		}
	}
	if b.offset == len(b.ref) {
		b.ref = b.ref[:0]
		b.offset = 0
	}
	return discarded
}

// Cut moves up to n bytes from the front of b into a freshly returned
// Buffer without copying, and returns it along with how many bytes were
// moved.
func (b *Buffer) Cut(n int) (*Buffer, int) {
	out := New()
	moved := 0
	for n > 0 && b.offset < len(b.ref) {
		s := b.ref[b.offset]
		if int(s.Length) <= n {
			out.ref = append(out.ref, s)
			n -= int(s.Length)
			moved += int(s.Length)
			b.offset++
		} else {
			s.Block.retain()
			out.ref = append(out.ref, Slice{Block: s.Block, Offset: s.Offset, Length: uint32(n)})
			b.ref[b.offset].Offset += uint32(n)
			b.ref[b.offset].Length -= uint32(n)
			moved += n
			n = 0
		}
	}
	if b.offset == len(b.ref) {
		b.ref = b.ref[:0]
		b.offset = 0
	}
	return out, moved
}

// CopyTo copies up to len(dst) bytes from the front of the buffer into
// dst without consuming them. Returns the number of bytes copied.
func (b *Buffer) CopyTo(dst []byte) int {
	copied := 0
	for i := b.offset; i < len(b.ref) && copied < len(dst); i++ {
		n := copy(dst[copied:], b.ref[i].Bytes())
		copied += n
	}
	return copied
}

// Clear releases every Block currently held and empties the buffer.
func (b *Buffer) Clear() {
	for i := b.offset; i < len(b.ref); i++ {
		b.ref[i].Block.release()
	}
	b.ref = nil
	b.offset = 0
}

// Bytes flattens the buffer into a single freshly-allocated slice. It
// exists for callers (protocol decoders, tests) that need contiguous
// bytes; the hot read/write path should use Slice/CopyTo instead.
func (b *Buffer) Bytes() []byte {
	out := make([]byte, 0, b.Len())
	for i := b.offset; i < len(b.ref); i++ {
		out = append(out, b.ref[i].Bytes()...)
	}
	return out
}

// WriteTo writes the full contents of the buffer to w, consuming it.
func (b *Buffer) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for b.offset < len(b.ref) {
		s := b.ref[b.offset]
		n, err := w.Write(s.Bytes())
		total += int64(n)
		if err != nil {
			b.ref[b.offset].Offset += uint32(n)
			b.ref[b.offset].Length -= uint32(n)
			return total, err
		}
		s.Block.release()
		b.offset++
	}
	b.ref = b.ref[:0]
	b.offset = 0
	return total, nil
}

// ReadFrom reads from r into freshly allocated blocks until r returns
// EOF or an error.
func (b *Buffer) ReadFrom(r io.Reader) (int64, error) {
	var total int64
	for {
		blk, off := b.tailForWrite()
		n, err := r.Read(blk.buf[off:])
		if n > 0 {
			b.ref[len(b.ref)-1].Length += uint32(n)
			total += int64(n)
		}
		if err == io.EOF {
			return total, nil
		}
		if err != nil {
			return total, err
		}
	}
}

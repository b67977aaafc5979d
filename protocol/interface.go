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

// Package protocol defines the per-wire-format vtable that Session and
// Socket call out to. Every concrete protocol (bolt, http) implements
// this interface as a set of pure functions of their inputs; neither
// Socket nor Session knows the wire format, only this contract.
package protocol

import "github.com/sabouaram/rpccore/iobuf"

// FrameStatus is the outcome of inspecting a socket's receive buffer
// for one complete frame.
type FrameStatus int

const (
	// NeedMore means the buffer does not yet hold a full frame header
	// plus body; the reactor's read turn ends without consuming bytes.
	NeedMore FrameStatus = iota
	// FrameOk means exactly one frame was identified.
	FrameOk
	// FrameError means the bytes seen so far cannot be a valid frame
	// (bad magic, oversized body, ...); the socket's status becomes
	// read-error.
	FrameError
)

// Frame is the result of a successful parse_frame call: how many bytes
// the frame occupies, the request id it carries (protocols without a
// wire id return 0 and rely on FIFO ordering), and an opaque
// parser-accumulator a protocol may thread into ParseResponse (neither
// bolt nor http sets one).
type Frame struct {
	Status      FrameStatus
	Size        int
	RequestID   uint64
	Accumulator any
}

// Protocol is the per-wire-format vtable. Implementations must be safe
// for concurrent use by multiple reactor goroutines since a single
// Protocol instance is shared by every Channel configured with it.
type Protocol interface {
	// Name identifies the protocol for ChannelOptions.Protocol lookup
	// and logging.
	Name() string

	// AssembleRequest serializes request, tagged with requestID, into a
	// fresh frame. Returns an error if the request cannot be framed.
	AssembleRequest(request any, requestID uint64) (*iobuf.Buffer, error)

	// ParseFrame non-destructively inspects in for one complete frame.
	// It must not mutate in; the caller (Socket) performs the actual
	// consumption once Size is known.
	ParseFrame(in *iobuf.Buffer) Frame

	// ParseResponse decodes framebytes (exactly Frame.Size bytes, as
	// identified by ParseFrame) into a response value, using acc if the
	// protocol threaded one through Frame.Accumulator.
	ParseResponse(framebytes []byte, acc any) (any, error)

	// SupportsHeartbeat reports whether AssembleHeartbeat/VerifyHeartbeat
	// are meaningful for this protocol.
	SupportsHeartbeat() bool

	// AssembleHeartbeat returns a heartbeat request frame tagged with
	// requestID; VerifyHeartbeat checks the raw response frame.
	AssembleHeartbeat(requestID uint64) (*iobuf.Buffer, error)

	// VerifyHeartbeat reports whether framebytes is a valid heartbeat
	// response.
	VerifyHeartbeat(framebytes []byte) bool

	// NormalizeRequestID narrows a process-unique session id to
	// whatever the wire format actually carries back (Bolt narrows to
	// 32 bits); protocols with no such narrowing return id unchanged.
	NormalizeRequestID(id uint64) uint64

	// CarriesRequestID reports whether Frame.RequestID identifies the
	// session a frame belongs to. Protocols without a wire request id
	// (HTTP/1.1) return false, and the socket routes frames to the
	// oldest still-pending session instead (FIFO pipelining order).
	CarriesRequestID() bool
}

// registry is the process-wide name -> Protocol lookup ChannelOptions
// consults. Protocols register themselves from their package's init.
var registry = map[string]Protocol{}

// Register makes p available under p.Name() for ChannelOptions.Protocol
// lookups. Intended to be called from a protocol package's init.
func Register(p Protocol) {
	registry[p.Name()] = p
}

// Lookup returns the registered Protocol for name, or false if none is
// registered.
func Lookup(name string) (Protocol, bool) {
	p, ok := registry[name]
	return p, ok
}

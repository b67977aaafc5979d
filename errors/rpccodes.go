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

package errors

// Public error-code enumeration surfaced to Session callers (spec §6.3 /
// §7). Values are allocated in the RPC namespace block (MinPkgRPC).
const (
	SessionOK CodeError = MinPkgRPC + iota
	ProtocolNotFound
	AssembleRequestFail
	SocketLost
	SocketBusy
	WriteFail
	ReadFail
	ReadTimeout
	ParseResponseFail
	TimerBusy
	AlreadyInitialized
	NotInitialized
)

// Configuration-time errors (spec §7 "Configuration"): invalid address
// strings, pool_size <= 0 on a pooled channel, unknown protocol name.
// These fail initialization outright; there is no retry.
const (
	ConfigInvalidAddress CodeError = MinPkgConfig + iota
	ConfigInvalidPoolSize
	ConfigUnknownProtocol
	ConfigLoadFailed
	ConfigWatchFailed
)

func init() {
	RegisterIdFctMessage(MinPkgConfig, func(code CodeError) string {
		switch code {
		case SessionOK:
			return "session completed successfully"
		case ProtocolNotFound:
			return "no protocol vtable registered for this channel"
		case AssembleRequestFail:
			return "protocol failed to assemble the request frame"
		case SocketLost:
			return "channel could not produce an active socket"
		case SocketBusy:
			return "socket's pending-read queue is full"
		case WriteFail:
			return "write to the socket failed"
		case ReadFail:
			return "read from the socket failed or the peer closed it"
		case ReadTimeout:
			return "deadline elapsed before a response frame arrived"
		case ParseResponseFail:
			return "protocol failed to parse the response frame"
		case TimerBusy:
			return "timer service's producer queue is full"
		case AlreadyInitialized:
			return "rpc.Init was already called; call rpc.Destroy first"
		case NotInitialized:
			return "rpc.Init must be called before using this runtime"
		case ConfigInvalidAddress:
			return "address string could not be parsed into host and port"
		case ConfigInvalidPoolSize:
			return "pool_size must be > 0 for a pooled channel"
		case ConfigUnknownProtocol:
			return "no such protocol is registered"
		case ConfigLoadFailed:
			return "config file could not be read or decoded"
		case ConfigWatchFailed:
			return "config file watcher could not be set up"
		default:
			return UnknownMessage
		}
	})
}

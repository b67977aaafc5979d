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

// Package bolt implements the Bolt binary RPC wire protocol: a fixed
// header, big-endian on the wire, followed by a class name, a header
// key/value section, and a payload.
package bolt

const (
	protoType = 1

	directionResponse = 0
	directionRequest  = 1
	directionOneway   = 2

	cmdHeartbeat = 0
	cmdRequest   = 1
	cmdResponse  = 2

	versionV2 = 1
	codecPB   = 11

	// commonHeaderLen is the byte0..byte9 prefix shared by request and
	// response headers: proto, direction, cmdcode, version2, request_id,
	// codec.
	commonHeaderLen = 10

	// requestHeaderLen is the full request header: common prefix plus
	// timeout_ms, class_len, header_len, content_len.
	requestHeaderLen = 22

	// responseHeaderLen is the full response header: common prefix plus
	// status, class_len, header_len, content_len.
	responseHeaderLen = 20

	// MaxBodySize is the largest content_len Bolt accepts; larger values
	// are a parse error rather than being read.
	MaxBodySize = 64 * 1024 * 1024
)

// Status is a Bolt response status code, carried on the wire as the
// 2-byte status field of a response header.
type Status uint16

const (
	StatusSuccess               Status = 0
	StatusError                 Status = 1
	StatusServerException       Status = 2
	StatusUnknown               Status = 3
	StatusServerThreadPoolBusy  Status = 4
	StatusErrorCommunication    Status = 5
	StatusNoProcessor           Status = 6
	StatusTimeout               Status = 7
	StatusClientSendError       Status = 8
	StatusCodecException        Status = 9
	StatusConnectionClosed      Status = 16
	StatusServerSerialException Status = 17
	StatusServerDeserialExcept  Status = 18
)

// Request is the application-level Bolt request payload. ClassName and
// Headers mirror the Bolt wire's class-name and key/value header
// sections; Content is the already-serialized request body.
type Request struct {
	ClassName string
	Headers   map[string]string
	Content   []byte
	TimeoutMs uint32
}

// Response is the decoded result of a Bolt response frame.
type Response struct {
	Status    Status
	ClassName string
	Headers   map[string]string
	Content   []byte
}

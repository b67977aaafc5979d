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

package bolt

import (
	"encoding/binary"
	"fmt"

	"github.com/sabouaram/rpccore/errors"
	"github.com/sabouaram/rpccore/iobuf"
	"github.com/sabouaram/rpccore/protocol"
)

// boltProtocol implements protocol.Protocol for the Bolt wire format.
type boltProtocol struct{}

// New returns the Bolt protocol vtable.
func New() protocol.Protocol { return boltProtocol{} }

func init() {
	protocol.Register(New())
}

func (boltProtocol) Name() string { return "bolt" }

func (boltProtocol) NormalizeRequestID(id uint64) uint64 {
	return uint64(uint32(id))
}

func (boltProtocol) CarriesRequestID() bool { return true }

func appendKV(buf *iobuf.Buffer, key, val string) {
	var lenbuf [4]byte
	binary.BigEndian.PutUint32(lenbuf[:], uint32(len(key)))
	buf.Append(lenbuf[:])
	buf.AppendString(key)
	binary.BigEndian.PutUint32(lenbuf[:], uint32(len(val)))
	buf.Append(lenbuf[:])
	buf.AppendString(val)
}

func (boltProtocol) AssembleRequest(request any, requestID uint64) (*iobuf.Buffer, error) {
	req, ok := request.(*Request)
	if !ok {
		return nil, fmt.Errorf("bolt: AssembleRequest expects *bolt.Request, got %T", request)
	}

	kv := iobuf.New()
	for k, v := range req.Headers {
		appendKV(kv, k, v)
	}

	classLen := len(req.ClassName)
	headerLen := kv.Len()
	contentLen := len(req.Content)

	out := iobuf.New()
	var hdr [requestHeaderLen]byte
	hdr[0] = protoType
	hdr[1] = directionRequest
	binary.BigEndian.PutUint16(hdr[2:4], cmdRequest)
	hdr[4] = versionV2
	binary.BigEndian.PutUint32(hdr[5:9], uint32(requestID))
	hdr[9] = codecPB
	binary.BigEndian.PutUint32(hdr[10:14], req.TimeoutMs)
	binary.BigEndian.PutUint16(hdr[14:16], uint16(classLen))
	binary.BigEndian.PutUint16(hdr[16:18], uint16(headerLen))
	binary.BigEndian.PutUint32(hdr[18:22], uint32(contentLen))

	out.Append(hdr[:])
	out.AppendString(req.ClassName)
	out.AppendBuffer(kv)
	out.Append(req.Content)

	return out, nil
}

func (boltProtocol) SupportsHeartbeat() bool { return true }

func (p boltProtocol) AssembleHeartbeat(requestID uint64) (*iobuf.Buffer, error) {
	out := iobuf.New()
	var hdr [requestHeaderLen]byte
	hdr[0] = protoType
	hdr[1] = directionRequest
	binary.BigEndian.PutUint16(hdr[2:4], cmdHeartbeat)
	hdr[4] = versionV2
	binary.BigEndian.PutUint32(hdr[5:9], uint32(requestID))
	hdr[9] = codecPB
	// timeout_ms, class_len, header_len, content_len all zero.
	out.Append(hdr[:])
	return out, nil
}

func (boltProtocol) VerifyHeartbeat(framebytes []byte) bool {
	if len(framebytes) < responseHeaderLen {
		return false
	}
	cmdcode := binary.BigEndian.Uint16(framebytes[2:4])
	return cmdcode == cmdHeartbeat
}

// ParseFrame peeks enough of in's front to identify one complete frame
// without consuming anything; Socket performs the actual Cut once Size
// is known.
func (boltProtocol) ParseFrame(in *iobuf.Buffer) protocol.Frame {
	if in.Len() < commonHeaderLen {
		return protocol.Frame{Status: protocol.NeedMore}
	}

	prefix := make([]byte, commonHeaderLen)
	in.CopyTo(prefix)

	if prefix[0] != protoType || prefix[4] != versionV2 {
		return protocol.Frame{Status: protocol.FrameError}
	}

	direction := prefix[1]
	requestID := uint64(binary.BigEndian.Uint32(prefix[5:9]))

	var headerLen int
	switch direction {
	case directionRequest, directionOneway:
		headerLen = requestHeaderLen
	case directionResponse:
		headerLen = responseHeaderLen
	default:
		return protocol.Frame{Status: protocol.FrameError}
	}

	if in.Len() < headerLen {
		return protocol.Frame{Status: protocol.NeedMore}
	}

	full := make([]byte, headerLen)
	in.CopyTo(full)

	var classLen, kvLen uint16
	var contentLen uint32
	if direction == directionResponse {
		classLen = binary.BigEndian.Uint16(full[12:14])
		kvLen = binary.BigEndian.Uint16(full[14:16])
		contentLen = binary.BigEndian.Uint32(full[16:20])
	} else {
		classLen = binary.BigEndian.Uint16(full[14:16])
		kvLen = binary.BigEndian.Uint16(full[16:18])
		contentLen = binary.BigEndian.Uint32(full[18:22])
	}

	if contentLen > MaxBodySize {
		return protocol.Frame{Status: protocol.FrameError}
	}

	total := headerLen + int(classLen) + int(kvLen) + int(contentLen)
	if in.Len() < total {
		return protocol.Frame{Status: protocol.NeedMore}
	}

	return protocol.Frame{Status: protocol.FrameOk, Size: total, RequestID: requestID}
}

func parseKV(data []byte) (map[string]string, error) {
	headers := map[string]string{}
	off := 0
	for off < len(data) {
		if off+4 > len(data) {
			return nil, errors.ParseResponseFail.Error()
		}
		klen := int(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
		if off+klen > len(data) {
			return nil, errors.ParseResponseFail.Error()
		}
		key := string(data[off : off+klen])
		off += klen

		if off+4 > len(data) {
			return nil, errors.ParseResponseFail.Error()
		}
		vlen := int(binary.BigEndian.Uint32(data[off : off+4]))
		off += 4
		if off+vlen > len(data) {
			return nil, errors.ParseResponseFail.Error()
		}
		headers[key] = string(data[off : off+vlen])
		off += vlen
	}
	return headers, nil
}

func (boltProtocol) ParseResponse(framebytes []byte, _ any) (any, error) {
	if len(framebytes) < responseHeaderLen {
		return nil, errors.ParseResponseFail.Error()
	}
	if framebytes[0] != protoType || framebytes[1] != directionResponse {
		return nil, errors.ParseResponseFail.Error()
	}

	status := Status(binary.BigEndian.Uint16(framebytes[10:12]))
	classLen := int(binary.BigEndian.Uint16(framebytes[12:14]))
	kvLen := int(binary.BigEndian.Uint16(framebytes[14:16]))
	contentLen := int(binary.BigEndian.Uint32(framebytes[16:20]))

	off := responseHeaderLen
	if off+classLen+kvLen+contentLen > len(framebytes) {
		return nil, errors.ParseResponseFail.Error()
	}

	className := string(framebytes[off : off+classLen])
	off += classLen

	headers, err := parseKV(framebytes[off : off+kvLen])
	if err != nil {
		return nil, err
	}
	off += kvLen

	content := append([]byte(nil), framebytes[off:off+contentLen]...)

	return &Response{Status: status, ClassName: className, Headers: headers, Content: content}, nil
}

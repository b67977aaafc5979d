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

package bolt_test

import (
	"encoding/binary"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/rpccore/iobuf"
	"github.com/sabouaram/rpccore/protocol"
	"github.com/sabouaram/rpccore/protocol/bolt"
)

// buildResponseFrame hand-assembles a Bolt response frame the way a
// server would, for tests that exercise the client-side parse path.
func buildResponseFrame(status bolt.Status, className string, headers map[string]string, content []byte) []byte {
	var kv []byte
	for k, v := range headers {
		var lenbuf [4]byte
		binary.BigEndian.PutUint32(lenbuf[:], uint32(len(k)))
		kv = append(kv, lenbuf[:]...)
		kv = append(kv, k...)
		binary.BigEndian.PutUint32(lenbuf[:], uint32(len(v)))
		kv = append(kv, lenbuf[:]...)
		kv = append(kv, v...)
	}

	hdr := make([]byte, 20)
	hdr[0] = 1 // protoType
	hdr[1] = 0 // directionResponse
	binary.BigEndian.PutUint16(hdr[2:4], 2) // cmdResponse
	hdr[4] = 1                              // versionV2
	binary.BigEndian.PutUint32(hdr[5:9], 42)
	hdr[9] = 11 // codecPB
	binary.BigEndian.PutUint16(hdr[10:12], uint16(status))
	binary.BigEndian.PutUint16(hdr[12:14], uint16(len(className)))
	binary.BigEndian.PutUint16(hdr[14:16], uint16(len(kv)))
	binary.BigEndian.PutUint32(hdr[16:20], uint32(len(content)))

	out := append(hdr, className...)
	out = append(out, kv...)
	out = append(out, content...)
	return out
}

var _ = Describe("AssembleRequest", func() {
	It("assembles a well-formed request frame parseable by ParseFrame", func() {
		p := bolt.New()
		req := &bolt.Request{
			ClassName: "com.example.EchoService",
			Headers:   map[string]string{"trace-id": "abc123"},
			Content:   []byte("hello"),
			TimeoutMs: 500,
		}

		buf, err := p.AssembleRequest(req, 7)
		Expect(err).ToNot(HaveOccurred())

		frame := p.ParseFrame(buf)
		Expect(frame.Status).To(Equal(protocol.FrameOk))
		Expect(frame.Size).To(Equal(buf.Len()))
		Expect(frame.RequestID).To(Equal(uint64(7)))
	})

	It("rejects a request of the wrong type", func() {
		p := bolt.New()
		_, err := p.AssembleRequest("not a *bolt.Request", 1)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParseFrame", func() {
	It("reports NeedMore on an empty buffer", func() {
		p := bolt.New()
		frame := p.ParseFrame(iobuf.New())
		Expect(frame.Status).To(Equal(protocol.NeedMore))
	})

	It("reports NeedMore when only part of the header has arrived", func() {
		p := bolt.New()
		buf := iobuf.New()
		buf.Append([]byte{1, 1, 0, 1})
		frame := p.ParseFrame(buf)
		Expect(frame.Status).To(Equal(protocol.NeedMore))
	})

	It("reports FrameError when content_len exceeds MaxBodySize", func() {
		p := bolt.New()
		raw := buildResponseFrame(bolt.StatusSuccess, "", nil, nil)
		binary.BigEndian.PutUint32(raw[16:20], bolt.MaxBodySize+1)

		buf := iobuf.New()
		buf.Append(raw)
		frame := p.ParseFrame(buf)
		Expect(frame.Status).To(Equal(protocol.FrameError))
	})

	It("reports FrameOk once the full response frame has arrived", func() {
		p := bolt.New()
		raw := buildResponseFrame(bolt.StatusSuccess, "svc", map[string]string{"k": "v"}, []byte("payload"))

		buf := iobuf.New()
		buf.Append(raw)
		frame := p.ParseFrame(buf)
		Expect(frame.Status).To(Equal(protocol.FrameOk))
		Expect(frame.Size).To(Equal(len(raw)))
	})
})

var _ = Describe("ParseResponse", func() {
	It("decodes class name, headers and content", func() {
		p := bolt.New()
		raw := buildResponseFrame(bolt.StatusSuccess, "com.example.EchoService", map[string]string{"trace-id": "abc123"}, []byte("hello"))

		decoded, err := p.ParseResponse(raw, nil)
		Expect(err).ToNot(HaveOccurred())

		resp, ok := decoded.(*bolt.Response)
		Expect(ok).To(BeTrue())
		Expect(resp.Status).To(Equal(bolt.StatusSuccess))
		Expect(resp.ClassName).To(Equal("com.example.EchoService"))
		Expect(resp.Headers).To(HaveKeyWithValue("trace-id", "abc123"))
		Expect(resp.Content).To(Equal([]byte("hello")))
	})

	It("errors on a truncated frame", func() {
		p := bolt.New()
		raw := buildResponseFrame(bolt.StatusSuccess, "svc", nil, []byte("hello"))
		_, err := p.ParseResponse(raw[:len(raw)-2], nil)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("Heartbeat", func() {
	It("assembles a heartbeat request that VerifyHeartbeat accepts", func() {
		p := bolt.New()
		Expect(p.SupportsHeartbeat()).To(BeTrue())

		buf, err := p.AssembleHeartbeat(99)
		Expect(err).ToNot(HaveOccurred())
		Expect(p.VerifyHeartbeat(buf.Bytes())).To(BeTrue())
	})

	It("rejects a non-heartbeat frame", func() {
		p := bolt.New()
		req := &bolt.Request{ClassName: "x"}
		buf, _ := p.AssembleRequest(req, 1)
		Expect(p.VerifyHeartbeat(buf.Bytes())).To(BeFalse())
	})
})

var _ = Describe("NormalizeRequestID", func() {
	It("narrows a 64-bit id to its low 32 bits", func() {
		p := bolt.New()
		id := uint64(0x1_0000_0007)
		Expect(p.NormalizeRequestID(id)).To(Equal(uint64(7)))
	})
})

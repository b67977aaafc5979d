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

package http_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/rpccore/iobuf"
	"github.com/sabouaram/rpccore/protocol"
	"github.com/sabouaram/rpccore/protocol/http"
)

var _ = Describe("AssembleRequest", func() {
	It("assembles a GET request with no Content-Length", func() {
		p := http.New()
		req := &http.Request{Method: http.MethodGet, Path: "/echo", Host: "127.0.0.1:8080"}

		buf, err := p.AssembleRequest(req, 5)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf.Bytes())).To(ContainSubstring("GET /echo HTTP/1.1\r\n"))
		Expect(string(buf.Bytes())).To(ContainSubstring("Log-Id: 5\r\n"))
		Expect(string(buf.Bytes())).ToNot(ContainSubstring("Content-Length"))
	})

	It("includes Content-Length for a POST body", func() {
		p := http.New()
		req := &http.Request{Method: http.MethodPost, Path: "/echo", Host: "h", Content: []byte("hello")}

		buf, err := p.AssembleRequest(req, 1)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(buf.Bytes())).To(ContainSubstring("Content-Length: 5\r\n"))
		Expect(string(buf.Bytes())).To(HaveSuffix("hello"))
	})

	It("rejects a request of the wrong type", func() {
		p := http.New()
		_, err := p.AssembleRequest(42, 1)
		Expect(err).To(HaveOccurred())
	})
})

var _ = Describe("ParseFrame", func() {
	It("reports NeedMore on an empty buffer", func() {
		p := http.New()
		frame := p.ParseFrame(iobuf.New())
		Expect(frame.Status).To(Equal(protocol.NeedMore))
	})

	It("reports NeedMore when the body hasn't fully arrived", func() {
		p := http.New()
		buf := iobuf.New()
		buf.AppendString("HTTP/1.1 200 OK\r\nContent-Length: 10\r\n\r\nhel")
		frame := p.ParseFrame(buf)
		Expect(frame.Status).To(Equal(protocol.NeedMore))
	})

	It("reports FrameOk once headers and body have fully arrived", func() {
		p := http.New()
		raw := "HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\nhello"
		buf := iobuf.New()
		buf.AppendString(raw)
		frame := p.ParseFrame(buf)
		Expect(frame.Status).To(Equal(protocol.FrameOk))
		Expect(frame.Size).To(Equal(len(raw)))
	})

	It("leaves a second pipelined response for the next ParseFrame call", func() {
		p := http.New()
		first := "HTTP/1.1 200 OK\r\nContent-Length: 2\r\n\r\nok"
		second := "HTTP/1.1 200 OK\r\nContent-Length: 3\r\n\r\nbye"
		buf := iobuf.New()
		buf.AppendString(first + second)
		frame := p.ParseFrame(buf)
		Expect(frame.Status).To(Equal(protocol.FrameOk))
		Expect(frame.Size).To(Equal(len(first)))
	})
})

var _ = Describe("ParseResponse", func() {
	It("decodes status, headers and body", func() {
		p := http.New()
		raw := []byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\nX-Trace: abc\r\n\r\nhello")

		decoded, err := p.ParseResponse(raw, nil)
		Expect(err).ToNot(HaveOccurred())

		resp, ok := decoded.(*http.Response)
		Expect(ok).To(BeTrue())
		Expect(resp.StatusCode).To(Equal(200))
		Expect(resp.Body).To(Equal([]byte("hello")))
		Expect(resp.Headers).To(HaveKeyWithValue("X-Trace", "abc"))
	})
})

var _ = Describe("NormalizeRequestID", func() {
	It("is the identity", func() {
		p := http.New()
		Expect(p.NormalizeRequestID(9999)).To(Equal(uint64(9999)))
	})
})

var _ = Describe("SupportsHeartbeat", func() {
	It("is false", func() {
		p := http.New()
		Expect(p.SupportsHeartbeat()).To(BeFalse())
	})
})

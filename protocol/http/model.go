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

package http

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"sort"

	"github.com/sabouaram/rpccore/iobuf"
	"github.com/sabouaram/rpccore/protocol"
)

// httpProtocol implements protocol.Protocol for HTTP/1.1.
type httpProtocol struct{}

// New returns the HTTP protocol vtable.
func New() protocol.Protocol { return httpProtocol{} }

func init() {
	protocol.Register(New())
}

func (httpProtocol) Name() string { return "http" }

// NormalizeRequestID is the identity: HTTP carries no wire-level
// request id, so the Session's own FIFO ordering is what correlates
// a pipelined response back to its request.
func (httpProtocol) NormalizeRequestID(id uint64) uint64 { return id }

// CarriesRequestID is false: HTTP/1.1 responses carry no correlation
// id, so pipelined responses are matched to the oldest pending session.
func (httpProtocol) CarriesRequestID() bool { return false }

func (httpProtocol) AssembleRequest(request any, requestID uint64) (*iobuf.Buffer, error) {
	req, ok := request.(*Request)
	if !ok {
		return nil, fmt.Errorf("http: AssembleRequest expects *http.Request, got %T", request)
	}

	method := req.Method
	if method == "" {
		method = MethodGet
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", method, req.Path)
	if method != MethodGet {
		fmt.Fprintf(&b, "Content-Length: %d\r\n", len(req.Content))
	}
	fmt.Fprintf(&b, "Host: %s\r\n", req.Host)
	fmt.Fprintf(&b, "Accept: */*\r\n")
	fmt.Fprintf(&b, "User-Agent: rpccore/1.0\r\n")
	fmt.Fprintf(&b, "Connection: keep-alive\r\n")
	fmt.Fprintf(&b, "Log-Id: %d\r\n", requestID)

	keys := make([]string, 0, len(req.Headers))
	for k := range req.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, req.Headers[k])
	}

	b.WriteString("\r\n")
	b.Write(req.Content)

	out := iobuf.New()
	out.Append(b.Bytes())
	return out, nil
}

// ParseFrame attempts a full HTTP/1.1 response parse against whatever
// bytes have arrived so far. Because net/http's reader is not
// resumable across partial reads, every call reparses from byte zero;
// this trades some CPU on large bodies for not having to hand-roll a
// streaming parser.
func (httpProtocol) ParseFrame(in *iobuf.Buffer) protocol.Frame {
	raw := in.Bytes()
	if len(raw) == 0 {
		return protocol.Frame{Status: protocol.NeedMore}
	}

	size := len(raw)
	if size < 1 {
		size = 1
	}
	br := bufio.NewReaderSize(bytes.NewReader(raw), size)

	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return protocol.Frame{Status: protocol.NeedMore}
		}
		return protocol.Frame{Status: protocol.FrameError}
	}

	_, err = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		if err == io.ErrUnexpectedEOF {
			return protocol.Frame{Status: protocol.NeedMore}
		}
		return protocol.Frame{Status: protocol.FrameError}
	}

	consumed := len(raw) - br.Buffered()
	return protocol.Frame{Status: protocol.FrameOk, Size: consumed}
}

func (httpProtocol) ParseResponse(framebytes []byte, _ any) (any, error) {
	br := bufio.NewReader(bytes.NewReader(framebytes))
	resp, err := http.ReadResponse(br, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	headers := map[string]string{}
	for k := range resp.Header {
		headers[k] = resp.Header.Get(k)
	}

	return &Response{
		StatusCode: resp.StatusCode,
		Headers:    headers,
		Body:       body,
	}, nil
}

// SupportsHeartbeat is false: HTTP/1.1 has no out-of-band heartbeat
// frame, unlike Bolt's reserved cmdcode 0.
func (httpProtocol) SupportsHeartbeat() bool { return false }

func (httpProtocol) AssembleHeartbeat(uint64) (*iobuf.Buffer, error) {
	return nil, fmt.Errorf("http: protocol has no heartbeat frame")
}

func (httpProtocol) VerifyHeartbeat([]byte) bool { return false }

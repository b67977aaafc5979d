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

package rpc_test

import (
	"encoding/binary"
	"net"
	"strconv"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sabouaram/rpccore/channel"
	"github.com/sabouaram/rpccore/endpoint"
	"github.com/sabouaram/rpccore/errors"
	"github.com/sabouaram/rpccore/protocol/bolt"
	"github.com/sabouaram/rpccore/rpc"
	"github.com/sabouaram/rpccore/session"
)

func serveBoltEchoRPC(ln net.Listener) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		go func(c net.Conn) {
			defer c.Close()
			for {
				hdr := make([]byte, 22)
				if !readFullRPC(c, hdr) {
					return
				}
				requestID := binary.BigEndian.Uint32(hdr[5:9])
				classLen := binary.BigEndian.Uint16(hdr[14:16])
				headerLen := binary.BigEndian.Uint16(hdr[16:18])
				contentLen := binary.BigEndian.Uint32(hdr[18:22])

				rest := make([]byte, int(classLen)+int(headerLen)+int(contentLen))
				if !readFullRPC(c, rest) {
					return
				}

				resp := make([]byte, 20)
				resp[0] = 1
				binary.BigEndian.PutUint16(resp[2:4], 2)
				resp[4] = 1
				binary.BigEndian.PutUint32(resp[5:9], requestID)
				resp[9] = 11
				binary.BigEndian.PutUint16(resp[10:12], uint16(bolt.StatusSuccess))
				if _, err := c.Write(resp); err != nil {
					return
				}
			}
		}(conn)
	}
}

func readFullRPC(conn net.Conn, buf []byte) bool {
	off := 0
	for off < len(buf) {
		n, err := conn.Read(buf[off:])
		if err != nil {
			return false
		}
		off += n
	}
	return true
}

func listenRPC() (net.Listener, endpoint.EndPoint) {
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	Expect(err).ToNot(HaveOccurred())
	_, portStr, err := net.SplitHostPort(ln.Addr().String())
	Expect(err).ToNot(HaveOccurred())
	port, err := strconv.Atoi(portStr)
	Expect(err).ToNot(HaveOccurred())
	return ln, endpoint.EndPoint{Host: "127.0.0.1", Port: port}
}

var _ = Describe("Init/Destroy", func() {
	AfterEach(func() {
		rpc.Destroy()
	})

	It("refuses a second Init before Destroy", func() {
		Expect(rpc.Init(rpc.Options{})).To(Succeed())
		err := rpc.Init(rpc.Options{})
		Expect(err).To(HaveOccurred())
		Expect(errors.Has(err, errors.AlreadyInitialized)).To(BeTrue())
	})

	It("is safe to Destroy before any Init", func() {
		Expect(func() { rpc.Destroy() }).ToNot(Panic())
	})

	It("refuses NewChannel before Init", func() {
		_, err := rpc.NewChannel("bolt://127.0.0.1:1", channel.DefaultOptions())
		Expect(err).To(HaveOccurred())
		Expect(errors.Has(err, errors.NotInitialized)).To(BeTrue())
	})

	It("builds a working channel and watches its socket once initialized", func() {
		ln, ep := listenRPC()
		defer ln.Close()
		go serveBoltEchoRPC(ln)

		Expect(rpc.Init(rpc.Options{})).To(Succeed())

		ch, err := rpc.NewChannel("bolt://"+ep.String(), channel.DefaultOptions())
		Expect(err).ToNot(HaveOccurred())
		Expect(ch.Sockets()).To(HaveLen(1))

		resp, err := rpc.Session().Send(session.Request{
			Channel: ch,
			Payload: &bolt.Request{ClassName: "echo.Service"},
		})
		Expect(err).ToNot(HaveOccurred())
		Expect(resp.(*bolt.Response).Status).To(Equal(bolt.StatusSuccess))
	})
})

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

//go:build linux

package socket

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"

	"github.com/sabouaram/rpccore/endpoint"
)

// createSocket opens a non-blocking, close-on-exec TCP fd, the Go
// analogue of base::create_socket + base::prepare_socket.
func createSocket() (int, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_NODELAY, 1); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// resolveV4 looks up remote's host and returns its first IPv4 address.
func resolveV4(remote endpoint.EndPoint) ([4]byte, error) {
	var out [4]byte
	ips, err := net.LookupIP(remote.Host)
	if err != nil {
		return out, err
	}
	for _, ip := range ips {
		if v4 := ip.To4(); v4 != nil {
			copy(out[:], v4)
			return out, nil
		}
	}
	return out, fmt.Errorf("socket: %s has no IPv4 address", remote.Host)
}

// startConnect issues a non-blocking connect, returning immediately;
// the caller waits for the fd to become writable to learn the outcome.
func startConnect(fd int, remote endpoint.EndPoint) error {
	ip, err := resolveV4(remote)
	if err != nil {
		return err
	}
	addr := &unix.SockaddrInet4{Port: remote.Port, Addr: ip}
	err = unix.Connect(fd, addr)
	if err != nil && err != unix.EINPROGRESS {
		return err
	}
	return nil
}

// connectError reports the pending error on fd (SO_ERROR), nil if the
// non-blocking connect succeeded.
func connectError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

func closeFd(fd int) {
	_ = unix.Close(fd)
}

func readFd(fd int, p []byte) (int, error) {
	return unix.Read(fd, p)
}

func writeFd(fd int, p []byte) (int, error) {
	return unix.Write(fd, p)
}

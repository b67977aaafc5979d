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

// Package endpoint parses the address strings Channel.Init accepts: a
// bare "host:port", or a "scheme://host:port/path" URI whose scheme
// Channel.InitAddress uses as the protocol name when none is set
// (see ParseURI).
package endpoint

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/sabouaram/rpccore/errors"
)

// EndPoint is a resolved remote address: a host (dotted-quad or
// hostname, resolution is deferred to net.Dial) and a TCP port.
type EndPoint struct {
	Host string
	Port int
}

// String renders the endpoint as host:port.
func (e EndPoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Parse accepts "host:port" and returns the resolved EndPoint. It
// mirrors antflash::EndPoint::parseFromString: both host and port are
// mandatory, and the port must be a valid uint16.
func Parse(addr string) (EndPoint, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return EndPoint{}, errors.ConfigInvalidAddress.Error(err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return EndPoint{}, errors.ConfigInvalidAddress.Error(err)
	}
	if port <= 0 || port > 65535 || host == "" {
		return EndPoint{}, errors.ConfigInvalidAddress.Error()
	}
	return EndPoint{Host: host, Port: port}, nil
}

// URI is the result of parsing a "scheme://[userinfo@]host:port/path"
// address, the Go analogue of antflash::URI. A Channel init string may
// use this richer form to name its protocol via the scheme when
// ChannelOptions.Protocol is empty.
type URI struct {
	Scheme string
	Host   string
	Port   int
	Path   string
}

// Endpoint returns the URI's host/port as an EndPoint.
func (u URI) Endpoint() EndPoint { return EndPoint{Host: u.Host, Port: u.Port} }

// ParseURI parses a "scheme://host:port/path" address string. The
// scheme determines no transport behaviour here - it is carried through
// so callers (Channel.Init) can map recognized schemes ("bolt", "http")
// onto a default protocol the way a bare host:port cannot.
func ParseURI(raw string) (URI, error) {
	schemeIdx := strings.Index(raw, "://")
	if schemeIdx < 0 {
		ep, err := Parse(raw)
		if err != nil {
			return URI{}, err
		}
		return URI{Host: ep.Host, Port: ep.Port}, nil
	}

	scheme := raw[:schemeIdx]
	rest := raw[schemeIdx+3:]

	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}

	path := ""
	if slash := strings.Index(rest, "/"); slash >= 0 {
		path = rest[slash:]
		rest = rest[:slash]
	}

	ep, err := Parse(rest)
	if err != nil {
		return URI{}, fmt.Errorf("endpoint: invalid authority %q: %w", rest, err)
	}

	return URI{Scheme: scheme, Host: ep.Host, Port: ep.Port, Path: path}, nil
}

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

// Package logger provides the structured logger contract shared by every
// subsystem of the runtime (reactor, timer, socket, socket manager, channel,
// session). It wraps logrus rather than re-inventing a sink/formatter stack.
package logger

import (
	"sync"

	"github.com/sirupsen/logrus"

	loglvl "github.com/sabouaram/rpccore/logger/level"
)

// Fields is a shorthand for structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// Logger is the minimal structured-logging contract used across the runtime.
// Every component (Reactor, Timer service, Socket, Socket manager, Channel,
// Session) accepts a Logger at construction and never writes to stdout
// directly.
type Logger interface {
	// SetLevel changes the minimal level of message this logger emits.
	SetLevel(lvl loglvl.Level)

	// GetLevel returns the minimal level of message this logger emits.
	GetLevel() loglvl.Level

	// WithFields returns a derived Logger which always carries the given
	// fields in addition to whatever is passed at the call site.
	WithFields(f Fields) Logger

	Debug(message string, f Fields)
	Info(message string, f Fields)
	Warn(message string, f Fields)
	Error(message string, f Fields)
}

// New returns a Logger backed by a fresh logrus.Logger writing to stderr,
// the way github.com/sirupsen/logrus behaves by default.
func New() Logger {
	l := logrus.New()
	l.SetLevel(loglvl.InfoLevel.Logrus())

	return &lgr{
		m: &sync.RWMutex{},
		l: l,
		f: Fields{},
	}
}

// NewNop returns a Logger that discards everything. Useful as a zero-value
// default so callers never need a nil check.
func NewNop() Logger {
	l := logrus.New()
	l.SetOutput(nop{})
	return &lgr{m: &sync.RWMutex{}, l: l, f: Fields{}}
}

type nop struct{}

func (nop) Write(p []byte) (int, error) { return len(p), nil }

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

package logger

import (
	"sync"

	"github.com/sirupsen/logrus"

	loglvl "github.com/sabouaram/rpccore/logger/level"
)

type lgr struct {
	m *sync.RWMutex
	l *logrus.Logger
	f Fields
}

func (o *lgr) SetLevel(lvl loglvl.Level) {
	o.m.Lock()
	defer o.m.Unlock()
	o.l.SetLevel(lvl.Logrus())
}

func (o *lgr) GetLevel() loglvl.Level {
	o.m.RLock()
	defer o.m.RUnlock()
	return loglvl.ParseFromUint32(uint32(o.l.GetLevel()))
}

func (o *lgr) WithFields(f Fields) Logger {
	o.m.RLock()
	defer o.m.RUnlock()

	merged := make(Fields, len(o.f)+len(f))
	for k, v := range o.f {
		merged[k] = v
	}
	for k, v := range f {
		merged[k] = v
	}

	return &lgr{m: o.m, l: o.l, f: merged}
}

func (o *lgr) entry(f Fields) *logrus.Entry {
	merged := make(logrus.Fields, len(o.f)+len(f))
	for k, v := range o.f {
		merged[k] = v
	}
	for k, v := range f {
		merged[k] = v
	}
	return o.l.WithFields(merged)
}

func (o *lgr) Debug(message string, f Fields) { o.entry(f).Debug(message) }
func (o *lgr) Info(message string, f Fields)  { o.entry(f).Info(message) }
func (o *lgr) Warn(message string, f Fields)  { o.entry(f).Warn(message) }
func (o *lgr) Error(message string, f Fields) { o.entry(f).Error(message) }

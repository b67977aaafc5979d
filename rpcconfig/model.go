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

package rpcconfig

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/sabouaram/rpccore/errors"
	"github.com/sabouaram/rpccore/logger"
)

// Loader reads a Config from a file and can watch that file for
// changes, re-decoding and notifying a callback on every write.
type Loader struct {
	path string
	log  logger.Logger

	mu  sync.Mutex
	vpr *viper.Viper
	wat *fsnotify.Watcher

	stopCh chan struct{}
}

// NewLoader returns a Loader bound to path (any format viper supports
// by extension - yaml, json, toml). log may be nil.
func NewLoader(path string, log logger.Logger) *Loader {
	if log == nil {
		log = logger.NewNop()
	}
	return &Loader{path: path, log: log}
}

// Load reads and decodes the file at l's path into a Config. Safe to
// call repeatedly; each call re-reads the file from disk.
func (l *Loader) Load() (*Config, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	v := viper.New()
	v.SetConfigFile(l.path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.ConfigLoadFailed.Error(err)
	}
	l.vpr = v

	cfg := &Config{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           cfg,
	})
	if err != nil {
		return nil, errors.ConfigLoadFailed.Error(err)
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return nil, errors.ConfigLoadFailed.Error(err)
	}
	return cfg, nil
}

// Watch loads the file once (that first Config is returned, not passed
// to onChange), then watches the file's directory (fsnotify can't watch a bare file
// across editors that replace it via rename) and re-runs Load/
// onChange on every relevant event. Returns the initial Config, or an
// error if the first Load or the watcher setup fails. Call Stop to
// release the watcher goroutine.
func (l *Loader) Watch(onChange func(*Config)) (*Config, error) {
	cfg, err := l.Load()
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.ConfigWatchFailed.Error(err)
	}
	if err := w.Add(filepath.Dir(l.path)); err != nil {
		w.Close()
		return nil, errors.ConfigWatchFailed.Error(err)
	}

	l.mu.Lock()
	l.wat = w
	l.stopCh = make(chan struct{})
	stopCh := l.stopCh
	l.mu.Unlock()

	go l.watchLoop(w, stopCh, onChange)
	return cfg, nil
}

func (l *Loader) watchLoop(w *fsnotify.Watcher, stopCh chan struct{}, onChange func(*Config)) {
	target := filepath.Clean(l.path)
	for {
		select {
		case <-stopCh:
			return
		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			cfg, err := l.Load()
			if err != nil {
				l.log.Warn("config reload failed", logger.Fields{"path": l.path, "error": err.Error()})
				continue
			}
			l.log.Info("config reloaded", logger.Fields{"path": l.path})
			onChange(cfg)
		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			l.log.Warn("config watcher error", logger.Fields{"error": err.Error()})
		}
	}
}

// Stop releases the watcher goroutine started by Watch. Safe to call
// even if Watch was never called.
func (l *Loader) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.stopCh != nil {
		close(l.stopCh)
		l.stopCh = nil
	}
	if l.wat != nil {
		_ = l.wat.Close()
		l.wat = nil
	}
}

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

// Package rpcconfig loads ChannelOptions and the reactor-pool / socket-
// manager tunables from a viper-backed file, decoding into plain
// structs with github.com/mitchellh/mapstructure rather than a
// hand-rolled parser. A Loader optionally watches its file with
// github.com/fsnotify/fsnotify and re-decodes on every write, handing
// the fresh Config to a caller-supplied callback.
package rpcconfig

import (
	"github.com/sabouaram/rpccore/channel"
)

// ChannelConfig mirrors channel.Options field-for-field using plain
// types mapstructure can decode from YAML/JSON/TOML without a custom
// hook.
type ChannelConfig struct {
	ConnectTimeoutMs int    `mapstructure:"connect_timeout_ms"`
	TimeoutMs        int    `mapstructure:"timeout_ms"`
	MaxRetry         int    `mapstructure:"max_retry"`
	PoolSize         int    `mapstructure:"pool_size"`
	Protocol         string `mapstructure:"protocol"`
	ConnectionType   string `mapstructure:"connection_type"` // "single", "pooled", "short"
}

// ToOptions converts c into channel.Options. An unrecognized or empty
// ConnectionType defaults to channel.Single, the same default
// channel.DefaultOptions uses.
func (c ChannelConfig) ToOptions() channel.Options {
	opts := channel.Options{
		ConnectTimeoutMs: c.ConnectTimeoutMs,
		TimeoutMs:        c.TimeoutMs,
		MaxRetry:         c.MaxRetry,
		PoolSize:         c.PoolSize,
		Protocol:         c.Protocol,
	}
	switch c.ConnectionType {
	case "pooled":
		opts.ConnectionType = channel.Pooled
	case "short":
		opts.ConnectionType = channel.Short
	default:
		opts.ConnectionType = channel.Single
	}
	return opts
}

// PoolConfig tunes the reactor pool started by rpc.Init.
type PoolConfig struct {
	Size int `mapstructure:"size"`
}

// SocketManagerConfig tunes sockmgr.Manager's sweep.
type SocketManagerConfig struct {
	TickIntervalMs     int `mapstructure:"tick_interval_ms"`
	MaxIdleMs          int `mapstructure:"max_idle_ms"`
	HeartbeatTimeoutMs int `mapstructure:"heartbeat_timeout_ms"`
}

// Config is the full set of tunables a deployment can override; every
// section has a zero value that is a legitimate "use the package
// default" sentinel, so a caller only needs to set the fields it cares
// about in its config file.
type Config struct {
	Channel       ChannelConfig       `mapstructure:"channel"`
	Pool          PoolConfig          `mapstructure:"pool"`
	SocketManager SocketManagerConfig `mapstructure:"socket_manager"`
}

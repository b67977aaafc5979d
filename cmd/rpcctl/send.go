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

package main

import (
	"fmt"

	"github.com/fatih/color"
	spfcbr "github.com/spf13/cobra"

	"github.com/sabouaram/rpccore/protocol/bolt"
	"github.com/sabouaram/rpccore/protocol/http"
	"github.com/sabouaram/rpccore/rpc"
	"github.com/sabouaram/rpccore/rpcconfig"
	"github.com/sabouaram/rpccore/session"
)

var (
	sendConnType   string
	sendPoolSize   int
	sendTimeoutMs  int
	sendMaxRetry   int
	sendClassName  string
	sendHTTPPath   string
	sendHTTPMethod string
)

func channelConfigFromFlags(protocol string) rpcconfig.ChannelConfig {
	return rpcconfig.ChannelConfig{
		TimeoutMs:      sendTimeoutMs,
		MaxRetry:       sendMaxRetry,
		PoolSize:       sendPoolSize,
		Protocol:       protocol,
		ConnectionType: sendConnType,
	}
}

func buildPayload(protocol string) (any, error) {
	switch protocol {
	case "bolt":
		return &bolt.Request{ClassName: sendClassName}, nil
	case "http":
		m := http.MethodGet
		switch sendHTTPMethod {
		case "POST":
			m = http.MethodPost
		case "PUT":
			m = http.MethodPut
		}
		return &http.Request{Method: m, Path: sendHTTPPath}, nil
	default:
		return nil, fmt.Errorf("unsupported protocol %q", protocol)
	}
}

func newSendCommand() *spfcbr.Command {
	var protocol string

	cmd := &spfcbr.Command{
		Use:     "send <address>",
		Short:   "Send one request and print the response",
		Example: "rpcctl send bolt://127.0.0.1:9000 --class echo.Service",
		Args:    spfcbr.ExactArgs(1),
		RunE: func(cmd *spfcbr.Command, args []string) error {
			ch, err := rpc.NewChannel(args[0], channelConfigFromFlags(protocol).ToOptions())
			if err != nil {
				return err
			}
			defer ch.Close()

			payload, err := buildPayload(protocol)
			if err != nil {
				return err
			}

			resp, err := rpc.Session().Send(session.Request{
				Channel:   ch,
				Payload:   payload,
				TimeoutMs: sendTimeoutMs,
				MaxRetry:  sendMaxRetry,
			})
			if err != nil {
				fmt.Println(color.RedString("send failed: %v", err))
				return err
			}
			fmt.Println(color.GreenString("ok"), fmt.Sprintf("%+v", resp))
			return nil
		},
	}

	cmd.Flags().StringVar(&protocol, "protocol", "bolt", "protocol name registered via protocol.Register (bolt, http)")
	cmd.Flags().StringVar(&sendConnType, "connection-type", "single", "single, pooled or short")
	cmd.Flags().IntVar(&sendPoolSize, "pool-size", 4, "sockets kept open by a pooled channel")
	cmd.Flags().IntVar(&sendTimeoutMs, "timeout-ms", 1000, "per-request timeout in milliseconds")
	cmd.Flags().IntVar(&sendMaxRetry, "max-retry", 0, "retries after a write/read failure")
	cmd.Flags().StringVar(&sendClassName, "class", "echo.Service", "Bolt request class name")
	cmd.Flags().StringVar(&sendHTTPPath, "path", "/", "HTTP request path")
	cmd.Flags().StringVar(&sendHTTPMethod, "method", "GET", "HTTP method (GET, POST, PUT; anything else sends GET)")

	return cmd
}

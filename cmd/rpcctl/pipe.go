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
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
	spfcbr "github.com/spf13/cobra"

	"github.com/sabouaram/rpccore/protocol/bolt"
	"github.com/sabouaram/rpccore/rpc"
	"github.com/sabouaram/rpccore/rpcconfig"
	"github.com/sabouaram/rpccore/session"
	"github.com/sabouaram/rpccore/workerpool"
)

var (
	pipeConnType  string
	pipePoolSize  int
	pipeTimeoutMs int
	pipeClassName string
	pipeCount     int
	pipeWorkers   int
)

// newPipeCommand fans pipeCount copies of one Bolt request out over
// pipeWorkers concurrent goroutines (a workerpool.Pool, so the same
// load-generation path cmd/rpcctl exercises is the one a caller can
// embed directly), each leg using SendPipeline's independent-payload
// batching rather than one request per Session call.
func newPipeCommand() *spfcbr.Command {
	cmd := &spfcbr.Command{
		Use:     "pipe <address>",
		Short:   "Drive concurrent load against one channel and report ok and failed batch counts",
		Example: "rpcctl pipe bolt://127.0.0.1:9000 --count 64 --workers 16",
		Args:    spfcbr.ExactArgs(1),
		RunE: func(cmd *spfcbr.Command, args []string) error {
			cfg := rpcconfig.ChannelConfig{
				TimeoutMs:      pipeTimeoutMs,
				PoolSize:       pipePoolSize,
				Protocol:       "bolt",
				ConnectionType: pipeConnType,
			}
			ch, err := rpc.NewChannel(args[0], cfg.ToOptions())
			if err != nil {
				return err
			}
			defer ch.Close()

			if pipeWorkers <= 0 {
				pipeWorkers = 1
			}
			if pipeCount <= 0 {
				pipeCount = 1
			}

			pool := workerpool.New(pipeWorkers, pipeCount, nil)
			pool.Start()
			defer pool.Stop()

			var ok, failed atomic.Int64
			var wg sync.WaitGroup
			wg.Add(pipeCount)
			for i := 0; i < pipeCount; i++ {
				pool.Submit(func() {
					defer wg.Done()
					result := rpc.Session().SendPipeline(session.PipelineRequest{
						Channel:   ch,
						Payloads:  []any{&bolt.Request{ClassName: pipeClassName}},
						TimeoutMs: pipeTimeoutMs,
					})
					if result.Failed() {
						failed.Add(1)
					} else {
						ok.Add(1)
					}
				})
			}
			wg.Wait()

			fmt.Println(color.GreenString("%d ok", ok.Load()), color.RedString("%d failed", failed.Load()))
			return nil
		},
	}

	cmd.Flags().StringVar(&pipeConnType, "connection-type", "pooled", "single, pooled or short")
	cmd.Flags().IntVar(&pipePoolSize, "pool-size", 8, "sockets kept open by a pooled channel")
	cmd.Flags().IntVar(&pipeTimeoutMs, "timeout-ms", 2000, "per-batch timeout in milliseconds")
	cmd.Flags().StringVar(&pipeClassName, "class", "echo.Service", "Bolt request class name")
	cmd.Flags().IntVar(&pipeCount, "count", 16, "number of requests to send")
	cmd.Flags().IntVar(&pipeWorkers, "workers", 16, "concurrent workers driving the load")

	return cmd
}

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
	"time"

	"github.com/fatih/color"
	spfcbr "github.com/spf13/cobra"

	"github.com/sabouaram/rpccore/rpc"
	"github.com/sabouaram/rpccore/rpcconfig"
	"github.com/sabouaram/rpccore/socket"
	"github.com/sabouaram/rpccore/sockmgr"
)

var (
	hbConnType  string
	hbTimeoutMs int
	hbTicks     int
	hbInterval  time.Duration
)

// newHeartbeatCommand opens a channel, registers its socket(s) with the
// shared socket manager and prints one status line per tick read back
// from Manager.Snapshots, the CLI-facing use of the CBOR history cache
// sockmgr keeps for introspection.
func newHeartbeatCommand() *spfcbr.Command {
	cmd := &spfcbr.Command{
		Use:     "heartbeat <address>",
		Short:   "Watch a channel's sockets and print the socket manager's tick snapshots",
		Example: "rpcctl heartbeat bolt://127.0.0.1:9000 --ticks 5",
		Args:    spfcbr.ExactArgs(1),
		RunE: func(cmd *spfcbr.Command, args []string) error {
			cfg := rpcconfig.ChannelConfig{
				TimeoutMs:      hbTimeoutMs,
				Protocol:       "bolt",
				ConnectionType: hbConnType,
			}
			ch, err := rpc.NewChannel(args[0], cfg.ToOptions())
			if err != nil {
				return err
			}
			defer ch.Close()

			mgr := rpc.SocketManager()
			seen := 0
			for seen < hbTicks {
				time.Sleep(hbInterval)
				snaps := mgr.Snapshots()
				if len(snaps) == 0 {
					continue
				}
				printSnapshotLine(snaps[len(snaps)-1])
				seen++
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&hbConnType, "connection-type", "single", "single, pooled or short")
	cmd.Flags().IntVar(&hbTimeoutMs, "timeout-ms", 1000, "per-heartbeat response timeout in milliseconds")
	cmd.Flags().IntVar(&hbTicks, "ticks", 3, "number of tick snapshots to print before exiting")
	cmd.Flags().DurationVar(&hbInterval, "interval", 2*time.Second, "how often to poll for a new snapshot")

	return cmd
}

func printSnapshotLine(snap sockmgr.Snapshot) {
	fmt.Printf("%s  %d socket(s)\n", snap.TakenAt.Format(time.RFC3339), len(snap.Sockets))
	for _, s := range snap.Sockets {
		paint := statusColor(s.Status)
		fmt.Printf("  fd=%d remote=%s status=%s idle=%dms\n",
			s.Fd, s.Remote, paint("%d", int(s.Status)), s.IdleMs)
	}
}

func statusColor(s socket.Status) func(format string, a ...interface{}) string {
	switch s {
	case socket.StatusOK:
		return color.GreenString
	case socket.StatusConnectFail, socket.StatusConnectTimeout:
		return color.RedString
	default:
		return color.YellowString
	}
}

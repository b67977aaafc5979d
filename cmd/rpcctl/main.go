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

// Command rpcctl is a small interactive client for the rpc runtime,
// covering one-shot calls, concurrent load generation and socket
// heartbeat inspection from a single binary.
package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	spfcbr "github.com/spf13/cobra"

	libcbr "github.com/sabouaram/rpccore/cobra"
	"github.com/sabouaram/rpccore/logger"
	loglvl "github.com/sabouaram/rpccore/logger/level"

	_ "github.com/sabouaram/rpccore/protocol/bolt"
	_ "github.com/sabouaram/rpccore/protocol/http"

	"github.com/sabouaram/rpccore/rpc"
	libver "github.com/sabouaram/rpccore/version"
)

var (
	log      logger.Logger
	verbose  int
	reactors int
)

func main() {
	log = logger.New()

	app := libcbr.New()
	app.SetVersion(libver.New(
		"rpcctl", "github.com/sabouaram/rpccore", "RPC client and load-test harness",
		"rpccore", "MIT", "dev", "0.1.0", "unreleased", "rpcctl",
	))
	app.SetLogger(func() logger.Logger { return log })
	app.SetFuncInit(func() {})
	app.Init()

	app.SetFlagVerbose(true, &verbose)
	app.AddFlagInt(true, &reactors, "reactors", "r", 1, "size of the shared reactor pool")

	app.AddCommand(
		newSendCommand(),
		newPipeCommand(),
		newHeartbeatCommand(),
	)
	app.AddCommandPrintErrorCode(func(item, value string) {
		fmt.Printf("%s\t%s\n", color.YellowString(item), value)
	})

	root := app.Cobra()
	root.PersistentPreRunE = func(cmd *spfcbr.Command, args []string) error {
		if cmd.Name() == "error" || cmd.Name() == "completion" {
			return nil
		}
		return initRuntime(reactors, verbose)
	}
	root.PersistentPostRun = func(cmd *spfcbr.Command, args []string) {
		rpc.Destroy()
	}

	if err := app.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		os.Exit(1)
	}
}

func verbosityToLevel(v int) loglvl.Level {
	switch {
	case v >= 3:
		return loglvl.DebugLevel
	case v == 2:
		return loglvl.InfoLevel
	case v == 1:
		return loglvl.WarnLevel
	default:
		return loglvl.ErrorLevel
	}
}

func initRuntime(reactors int, verbose int) error {
	log.SetLevel(verbosityToLevel(verbose))
	return rpc.Init(rpc.Options{ReactorPoolSize: reactors, Logger: log})
}

// Copyright 2014 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

// evmchain is a command-line client for a local proof-of-work chain.
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/sunyihoo/evmchain/cmd/utils"
	"github.com/sunyihoo/evmchain/internal/debug"
	"github.com/sunyihoo/evmchain/internal/flags"
)

const (
	clientIdentifier = "evmchain" // Client identifier reported in block extra data
)

var app = flags.NewApp("the evmchain command line interface")

func init() {
	app.Commands = []*cli.Command{
		// See chaincmd.go:
		initCommand,
		mineCommand,
		transferCommand,
		execCommand,
		// See dbcmd.go:
		inspectCommand,
		// See config.go:
		dumpConfigCommand,
	}
	app.Flags = flags.Merge([]cli.Flag{configFileFlag, utils.MetricsEnabledFlag}, debug.Flags)

	app.Before = func(ctx *cli.Context) error {
		return debug.Setup(ctx)
	}
	app.After = func(ctx *cli.Context) error {
		utils.ReportChainMetrics()
		debug.Exit()
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

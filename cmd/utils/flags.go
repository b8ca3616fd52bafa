// Copyright 2015 The go-ethereum Authors
// This file is part of the go-ethereum library.
//
// The go-ethereum library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The go-ethereum library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the go-ethereum library. If not, see <http://www.gnu.org/licenses/>.

// Package utils contains internal helper functions for evmchain commands.
package utils

import (
	"math/big"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/sunyihoo/evmchain/core/rawdb"
	"github.com/sunyihoo/evmchain/internal/flags"
	"github.com/sunyihoo/evmchain/params"
)

// These are all the command line flags we support.
// If you add to this list, please remember to include the
// flag in the appropriate command definition.
//
// The flags are defined here so their names and help texts
// are the same for all commands.

var (
	// General settings
	DataDirFlag = &flags.DirectoryFlag{
		Name:     "datadir",
		Usage:    "Data directory for the databases",
		Value:    flags.DirectoryString(DefaultDataDir()),
		Category: flags.ChainCategory,
	}
	DBEngineFlag = &cli.StringFlag{
		Name:     "db.engine",
		Usage:    "Backing database implementation to use ('pebble', 'leveldb' or 'memory')",
		Value:    rawdb.DBPebble,
		Category: flags.ChainCategory,
	}

	// Dev mode
	DeveloperFaucetFlag = &cli.StringFlag{
		Name:     "dev.faucet",
		Usage:    "Address funded by the development genesis",
		Category: flags.DevCategory,
	}
	DeveloperBalanceFlag = &flags.BigFlag{
		Name:     "dev.balance",
		Usage:    "Balance of the development faucet in wei",
		Value:    new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(params.Ether)),
		Category: flags.DevCategory,
	}

	// Performance tuning settings
	CacheFlag = &cli.IntFlag{
		Name:     "cache",
		Usage:    "Megabytes of memory allocated to internal caching",
		Value:    64,
		Category: flags.PerfCategory,
	}
	HandlesFlag = &cli.IntFlag{
		Name:     "handles",
		Usage:    "Number of file descriptors the database may keep open",
		Value:    256,
		Category: flags.PerfCategory,
	}

	// Miner settings
	MinerEtherbaseFlag = &cli.StringFlag{
		Name:     "miner.etherbase",
		Usage:    "Public address for block mining rewards",
		Category: flags.MinerCategory,
	}
	MinerExtraDataFlag = &cli.StringFlag{
		Name:     "miner.extradata",
		Usage:    "Block extra data set by the miner (default = client version)",
		Category: flags.MinerCategory,
	}

	// Metrics flags
	// The metrics package enables itself by scanning os.Args for this name
	// before any meter is created.
	MetricsEnabledFlag = &cli.BoolFlag{
		Name:     "metrics",
		Usage:    "Enable metrics collection and print a summary on exit",
		Category: flags.MetricsCategory,
	}
)

// DatabaseFlags are the flags of every command touching the chain store.
var DatabaseFlags = []cli.Flag{
	DataDirFlag,
	DBEngineFlag,
	CacheFlag,
	HandlesFlag,
}

// DefaultDataDir is the default data directory to use for the databases.
func DefaultDataDir() string {
	if home := flags.HomeDir(); home != "" {
		return filepath.Join(home, ".evmchain")
	}
	return ""
}

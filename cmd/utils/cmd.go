// Copyright 2014 The go-ethereum Authors
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

package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/urfave/cli/v2"

	"github.com/sunyihoo/evmchain/core/rawdb"
)

// DatabaseConfig selects and sizes the chain store.
type DatabaseConfig struct {
	DataDir string
	Engine  string
	Cache   int // megabytes
	Handles int
}

// MinerConfig holds the block production settings.
type MinerConfig struct {
	Etherbase common.Address `toml:",omitempty"`
	ExtraData string         `toml:",omitempty"`
}

// DefaultDatabaseConfig contains the default database settings.
var DefaultDatabaseConfig = DatabaseConfig{
	DataDir: DefaultDataDir(),
	Engine:  rawdb.DBPebble,
	Cache:   64,
	Handles: 256,
}

// Fatalf formats a message to standard error and exits the program.
// The message is also printed to standard output if standard error
// is redirected to a different file.
func Fatalf(format string, args ...interface{}) {
	w := io.MultiWriter(os.Stdout, os.Stderr)
	if runtime.GOOS == "windows" {
		// The SameFile check below doesn't work on Windows.
		// stdout is unlikely to get redirected though, so just print there.
		w = os.Stdout
	} else {
		outf, _ := os.Stdout.Stat()
		errf, _ := os.Stderr.Stat()
		if outf != nil && errf != nil && os.SameFile(outf, errf) {
			w = os.Stderr
		}
	}
	fmt.Fprintf(w, "Fatal: "+format+"\n", args...)
	os.Exit(1)
}

// SetDatabaseConfig applies database-related command line flags to the config.
func SetDatabaseConfig(ctx *cli.Context, cfg *DatabaseConfig) {
	if ctx.IsSet(DataDirFlag.Name) {
		cfg.DataDir = ctx.String(DataDirFlag.Name)
	}
	if ctx.IsSet(DBEngineFlag.Name) {
		cfg.Engine = ctx.String(DBEngineFlag.Name)
	}
	if ctx.IsSet(CacheFlag.Name) {
		cfg.Cache = ctx.Int(CacheFlag.Name)
	}
	if ctx.IsSet(HandlesFlag.Name) {
		cfg.Handles = ctx.Int(HandlesFlag.Name)
	}
}

// SetMinerConfig applies miner-related command line flags to the config.
func SetMinerConfig(ctx *cli.Context, cfg *MinerConfig) {
	if ctx.IsSet(MinerEtherbaseFlag.Name) {
		addr := ctx.String(MinerEtherbaseFlag.Name)
		if !common.IsHexAddress(addr) {
			Fatalf("Invalid miner etherbase: %v", addr)
		}
		cfg.Etherbase = common.HexToAddress(addr)
	}
	if ctx.IsSet(MinerExtraDataFlag.Name) {
		cfg.ExtraData = ctx.String(MinerExtraDataFlag.Name)
	}
}

// OpenChainDatabase opens the chain store described by cfg. The store lives
// in the chaindata folder of the data directory.
func OpenChainDatabase(cfg DatabaseConfig, readonly bool) (*rawdb.ChainDB, error) {
	dir := ""
	if cfg.Engine != rawdb.DBMemory {
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("no data directory for %s database", cfg.Engine)
		}
		dir = filepath.Join(cfg.DataDir, "chaindata")
	}
	kv, err := rawdb.Open(rawdb.OpenOptions{
		Type:      cfg.Engine,
		Directory: dir,
		Cache:     cfg.Cache,
		Handles:   cfg.Handles,
		ReadOnly:  readonly,
	})
	if err != nil {
		return nil, err
	}
	log.Debug("Opened chain database", "engine", cfg.Engine, "dir", dir, "cache", cfg.Cache, "handles", cfg.Handles)
	return rawdb.NewChainDB(kv, cfg.Cache/4), nil
}

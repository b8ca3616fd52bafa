// Copyright 2018 The go-ethereum Authors
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

package rawdb

import (
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/leveldb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/log"

	"github.com/sunyihoo/evmchain/ethdb/pebble"
)

// Supported database engines.
const (
	DBMemory  = "memory"
	DBLeveldb = "leveldb"
	DBPebble  = "pebble"
)

// KeyValueStore contains all the methods required to allow handling different
// key-value data stores backing the chain.
type KeyValueStore interface {
	ethdb.KeyValueReader
	ethdb.KeyValueWriter
	ethdb.Batcher
	io.Closer
}

// NewMemoryDatabase creates an ephemeral in-memory key-value database.
func NewMemoryDatabase() KeyValueStore {
	return memorydb.New()
}

// OpenOptions contains the options to apply when opening a database.
type OpenOptions struct {
	Type      string // "leveldb" | "pebble" | "memory"
	Directory string // the datadir
	Cache     int    // the capacity(in megabytes) of the data caching
	Handles   int    // number of files to be open simultaneously
	ReadOnly  bool
}

// Open opens a key-value store with the given options.
func Open(o OpenOptions) (KeyValueStore, error) {
	switch o.Type {
	case DBMemory:
		return NewMemoryDatabase(), nil
	case DBPebble:
		log.Info("Using pebble as the backing database")
		return pebble.New(o.Directory, o.Cache, o.Handles, o.ReadOnly)
	case DBLeveldb, "":
		log.Info("Using leveldb as the backing database")
		return leveldb.New(o.Directory, o.Cache, o.Handles, "evmchain/db/chaindata/", o.ReadOnly)
	default:
		return nil, fmt.Errorf("unknown db.engine %v", o.Type)
	}
}

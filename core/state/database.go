// Copyright 2017 The go-ethereum Authors
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

package state

import (
	"maps"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/triedb/database"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sunyihoo/evmchain/core/rawdb"
	"github.com/sunyihoo/evmchain/core/types"
)

// codeCacheSize is the number of contract code blobs kept in memory.
const codeCacheSize = 1024

// Store is the hash keyed key-value store the state lives in. Trie nodes and
// contract code share one namespace, both keyed by their keccak256 hash.
type Store interface {
	ethdb.KeyValueReader
	ethdb.KeyValueWriter
}

// Database wraps access to the backing store of the tries and contract code.
// Database 封装了对 trie 和合约代码底层存储的访问。
type Database struct {
	disk      Store
	codeCache *lru.Cache[common.Hash, []byte]
}

// NewDatabase creates a state database over the given store.
func NewDatabase(disk Store) *Database {
	cache, _ := lru.New[common.Hash, []byte](codeCacheSize)
	return &Database{disk: disk, codeCache: cache}
}

// DiskDB returns the underlying key-value store.
func (db *Database) DiskDB() Store {
	return db.disk
}

// HasState reports whether the state rooted at root is available.
func (db *Database) HasState(root common.Hash) bool {
	return rawdb.HasState(db.disk, root)
}

// AccessLogs records every state entry read from or written to the store by
// one StateDB. The reads of a transaction form its witness; the writes are
// the entries later transactions of the same block need to see.
// AccessLogs 记录一个 StateDB 读写过的所有状态条目，读集合即交易的见证数据。
type AccessLogs struct {
	Reads  map[common.Hash][]byte
	Writes map[common.Hash][]byte
}

func newAccessLogs() *AccessLogs {
	return &AccessLogs{
		Reads:  make(map[common.Hash][]byte),
		Writes: make(map[common.Hash][]byte),
	}
}

// Copy returns a deep-copied access log.
func (l *AccessLogs) Copy() *AccessLogs {
	return &AccessLogs{Reads: maps.Clone(l.Reads), Writes: maps.Clone(l.Writes)}
}

// nodeDatabase serves trie nodes to the go-ethereum trie straight out of the
// hash keyed store, logging every access.
type nodeDatabase struct {
	db   *Database
	logs *AccessLogs
}

// NodeReader implements database.NodeDatabase. Nodes are addressed by hash
// alone, so one reader serves every state root.
func (n *nodeDatabase) NodeReader(stateRoot common.Hash) (database.NodeReader, error) {
	return n, nil
}

// Node implements database.NodeReader. A missing node is reported as an empty
// blob, which the trie turns into a MissingNodeError.
func (n *nodeDatabase) Node(owner common.Hash, path []byte, hash common.Hash) ([]byte, error) {
	blob := rawdb.ReadStateEntry(n.db.disk, hash)
	if len(blob) > 0 {
		n.logs.Reads[hash] = blob
	}
	return blob, nil
}

// write persists a batch of committed entries and logs them as writes.
func (n *nodeDatabase) write(entries map[common.Hash][]byte) {
	if len(entries) == 0 {
		return
	}
	rawdb.WriteStateEntries(n.db.disk, entries)
	for hash, blob := range entries {
		n.logs.Writes[hash] = blob
	}
}

// code loads the contract code with the given hash.
func (n *nodeDatabase) code(hash common.Hash) []byte {
	if hash == types.EmptyCodeHash {
		return nil
	}
	if code, ok := n.db.codeCache.Get(hash); ok {
		n.logs.Reads[hash] = code
		return code
	}
	code := rawdb.ReadCode(n.db.disk, hash)
	if len(code) > 0 {
		n.db.codeCache.Add(hash, code)
		n.logs.Reads[hash] = code
	}
	return code
}

// writeCode persists contract code.
func (n *nodeDatabase) writeCode(hash common.Hash, code []byte) {
	rawdb.WriteCode(n.db.disk, hash, code)
	n.db.codeCache.Add(hash, code)
	n.logs.Writes[hash] = code
}

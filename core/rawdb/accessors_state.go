// Copyright 2020 The go-ethereum Authors
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
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/log"

	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/params"
)

// ReadCode retrieves the contract code of the provided code hash. Code lives
// in the hash keyed state namespace, next to the trie nodes.
func ReadCode(db ethdb.KeyValueReader, hash common.Hash) []byte {
	data, _ := db.Get(hash.Bytes())
	return data
}

// WriteCode writes the provided contract code database.
func WriteCode(db ethdb.KeyValueWriter, hash common.Hash, code []byte) {
	if err := db.Put(hash.Bytes(), code); err != nil {
		log.Crit("Failed to store contract code", "err", err)
	}
}

// HasState reports whether the state rooted at root can be opened. The empty
// trie root always exists.
func HasState(db ethdb.KeyValueReader, root common.Hash) bool {
	if root == types.EmptyRootHash {
		return true
	}
	ok, _ := db.Has(root.Bytes())
	return ok
}

// ReadStateEntry retrieves a hash keyed state entry: a trie node or a code blob.
func ReadStateEntry(db ethdb.KeyValueReader, hash common.Hash) []byte {
	data, _ := db.Get(hash.Bytes())
	return data
}

// WriteStateEntries persists a batch of state entries, typically the contents
// of a witness. Every blob is stored under its own keccak256 hash; the key it
// was handed in with is ignored, so a mislabelled blob can never shadow the
// entry it claims to be.
func WriteStateEntries(db ethdb.KeyValueWriter, entries map[common.Hash][]byte) {
	for _, blob := range entries {
		if err := db.Put(crypto.Keccak256(blob), blob); err != nil {
			log.Crit("Failed to store state entry", "err", err)
		}
	}
}

// ReadChainConfig retrieves the consensus settings based on the given genesis hash.
func ReadChainConfig(db ethdb.KeyValueReader, hash common.Hash) *params.ChainConfig {
	data, _ := db.Get(configKey(hash))
	if len(data) == 0 {
		return nil
	}
	var config params.ChainConfig
	if err := json.Unmarshal(data, &config); err != nil {
		log.Error("Invalid chain config JSON", "hash", hash, "err", err)
		return nil
	}
	return &config
}

// WriteChainConfig writes the chain config settings to the database.
func WriteChainConfig(db ethdb.KeyValueWriter, hash common.Hash, cfg *params.ChainConfig) {
	if cfg == nil {
		return
	}
	data, err := json.Marshal(cfg)
	if err != nil {
		log.Crit("Failed to JSON encode chain config", "err", err)
	}
	if err := db.Put(configKey(hash), data); err != nil {
		log.Crit("Failed to store chain config", "err", err)
	}
}

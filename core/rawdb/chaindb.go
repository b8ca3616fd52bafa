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
	"errors"
	"fmt"

	"github.com/VictoriaMetrics/fastcache"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/sunyihoo/evmchain/core/types"
)

var (
	// ErrHeaderNotFound is returned when a header lookup by hash misses.
	ErrHeaderNotFound = errors.New("header not found")

	// ErrTransactionNotFound is returned when a pending transaction lookup misses.
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrReceiptsNotFound is returned when a block has no stored receipts.
	ErrReceiptsNotFound = errors.New("receipts not found")
)

// ChainDB is the backing store of the engine: a key-value store holding hash
// keyed state entries next to headers, bodies, receipts and pending
// transactions. Decoded header lookups are served from a fastcache.
// ChainDB 是引擎的后端存储，头部查询经过 fastcache 缓存。
type ChainDB struct {
	KeyValueStore
	headers *fastcache.Cache
}

// NewChainDB wraps db. cacheMB sizes the header cache in megabytes.
func NewChainDB(db KeyValueStore, cacheMB int) *ChainDB {
	if cacheMB <= 0 {
		cacheMB = 16
	}
	return &ChainDB{
		KeyValueStore: db,
		headers:       fastcache.New(cacheMB * 1024 * 1024),
	}
}

// NewMemoryChainDB returns a chain store over a fresh in-memory database.
func NewMemoryChainDB() *ChainDB {
	return NewChainDB(NewMemoryDatabase(), 0)
}

// Header returns the header with the given hash.
func (db *ChainDB) Header(hash common.Hash) (*types.Header, error) {
	if enc, ok := db.headers.HasGet(nil, hash.Bytes()); ok {
		header := new(types.Header)
		if err := rlp.DecodeBytes(enc, header); err == nil {
			return header, nil
		}
	}
	enc := ReadHeaderRLP(db.KeyValueStore, hash)
	if len(enc) == 0 {
		return nil, fmt.Errorf("%w: %x", ErrHeaderNotFound, hash)
	}
	header := new(types.Header)
	if err := rlp.DecodeBytes(enc, header); err != nil {
		return nil, fmt.Errorf("invalid header %x: %v", hash, err)
	}
	db.headers.Set(hash.Bytes(), enc)
	return header, nil
}

// HasHeader reports whether a header with the given hash is stored.
func (db *ChainDB) HasHeader(hash common.Hash) bool {
	if db.headers.Has(hash.Bytes()) {
		return true
	}
	return HasHeader(db.KeyValueStore, hash)
}

// WriteHeader persists the header and caches its encoding.
func (db *ChainDB) WriteHeader(header *types.Header) {
	WriteHeader(db.KeyValueStore, header)
	if enc, err := rlp.EncodeToBytes(header); err == nil {
		db.headers.Set(header.Hash().Bytes(), enc)
	}
}

// WriteBlock persists the header and body of a block together with its
// receipts in a single batch.
func (db *ChainDB) WriteBlock(block *types.Block, receipts types.Receipts) {
	hash := block.Hash()
	batch := db.NewBatch()
	WriteBody(batch, hash, block.Body())
	WriteReceipts(batch, hash, receipts)
	WriteHeader(batch, block.Header())
	if err := batch.Write(); err != nil {
		log.Crit("Failed to write block", "hash", hash, "err", err)
	}
	if enc, err := rlp.EncodeToBytes(block.Header()); err == nil {
		db.headers.Set(hash.Bytes(), enc)
	}
}

// Block returns the full block with the given hash.
func (db *ChainDB) Block(hash common.Hash) (*types.Block, error) {
	header, err := db.Header(hash)
	if err != nil {
		return nil, err
	}
	block := types.NewBlockWithHeader(header)
	if body := ReadBody(db.KeyValueStore, hash); body != nil {
		block = block.WithBody(*body)
	}
	return block, nil
}

// Receipts returns the receipts of the block with the given hash.
func (db *ChainDB) Receipts(hash common.Hash) (types.Receipts, error) {
	receipts := ReadReceipts(db.KeyValueStore, hash)
	if receipts == nil {
		return nil, fmt.Errorf("%w: %x", ErrReceiptsNotFound, hash)
	}
	return receipts, nil
}

// HasState reports whether the state root is present.
func (db *ChainDB) HasState(root common.Hash) bool {
	return HasState(db.KeyValueStore, root)
}

// PersistWitness writes every entry of a witness into the store, each under
// the hash of its blob.
func (db *ChainDB) PersistWitness(witness map[common.Hash][]byte) {
	WriteStateEntries(db.KeyValueStore, witness)
}

// PendingTransaction returns a submitted but not yet included transaction.
func (db *ChainDB) PendingTransaction(hash common.Hash) (*types.Transaction, error) {
	tx := ReadPendingTransaction(db.KeyValueStore, hash)
	if tx == nil {
		return nil, fmt.Errorf("%w: %x", ErrTransactionNotFound, hash)
	}
	return tx, nil
}

// AddPendingTransaction stores a submitted transaction.
func (db *ChainDB) AddPendingTransaction(tx *types.Transaction) {
	WritePendingTransaction(db.KeyValueStore, tx)
}

// HeadHeader returns the current canonical head header.
func (db *ChainDB) HeadHeader() (*types.Header, error) {
	hash := ReadHeadHeaderHash(db.KeyValueStore)
	if hash == (common.Hash{}) {
		return nil, ErrHeaderNotFound
	}
	return db.Header(hash)
}

// SetHead records the header as canonical for its number and marks it as head.
func (db *ChainDB) SetHead(header *types.Header) {
	hash := header.Hash()
	WriteCanonicalHash(db.KeyValueStore, hash, header.Number.Uint64())
	WriteHeadHeaderHash(db.KeyValueStore, hash)
}

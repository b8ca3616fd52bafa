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
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/ethdb/pebble"
)

func testHeader(number int64) *types.Header {
	return &types.Header{
		Number:     big.NewInt(number),
		Difficulty: big.NewInt(131072),
		GasLimit:   4712388,
		Time:       uint64(number),
		UncleHash:  types.EmptyUncleHash,
		Root:       types.EmptyRootHash,
	}
}

func TestHeaderStorage(t *testing.T) {
	db := NewMemoryChainDB()
	header := testHeader(42)
	hash := header.Hash()

	_, err := db.Header(hash)
	assert.ErrorIs(t, err, ErrHeaderNotFound)
	assert.False(t, db.HasHeader(hash))

	db.WriteHeader(header)
	got, err := db.Header(hash)
	require.NoError(t, err)
	assert.Equal(t, hash, got.Hash())
	assert.True(t, db.HasHeader(hash))

	number := ReadHeaderNumber(db, hash)
	require.NotNil(t, number)
	assert.Equal(t, uint64(42), *number)
}

func TestHeaderCacheSurvivesFreshHandle(t *testing.T) {
	store := NewMemoryDatabase()
	header := testHeader(1)
	WriteHeader(store, header)

	// A new ChainDB over the same store reads through to the database.
	db := NewChainDB(store, 1)
	got, err := db.Header(header.Hash())
	require.NoError(t, err)
	assert.Equal(t, header.Hash(), got.Hash())
}

func TestBlockStorage(t *testing.T) {
	db := NewMemoryChainDB()
	tx := types.NewTransaction(0, common.Address{0x01}, big.NewInt(1), 21000, big.NewInt(1), nil)
	receipts := types.Receipts{types.NewReceipt(nil, false, 21000)}
	block := types.NewBlock(testHeader(3), &types.Body{Transactions: []*types.Transaction{tx}}, receipts, trie.NewStackTrie(nil))

	db.WriteBlock(block, receipts)
	got, err := db.Block(block.Hash())
	require.NoError(t, err)
	assert.Equal(t, block.Hash(), got.Hash())
	require.Len(t, got.Transactions(), 1)
	assert.Equal(t, tx.Hash(), got.Transactions()[0].Hash())

	stored := ReadReceipts(db, block.Hash())
	require.Len(t, stored, 1)
	assert.Equal(t, uint64(21000), stored[0].CumulativeGasUsed)
}

func TestHeadTracking(t *testing.T) {
	db := NewMemoryChainDB()
	_, err := db.HeadHeader()
	assert.ErrorIs(t, err, ErrHeaderNotFound)

	header := testHeader(7)
	db.WriteHeader(header)
	db.SetHead(header)

	head, err := db.HeadHeader()
	require.NoError(t, err)
	assert.Equal(t, header.Hash(), head.Hash())
	assert.Equal(t, header.Hash(), ReadCanonicalHash(db, 7))
}

func TestStateEntriesAndWitness(t *testing.T) {
	db := NewMemoryChainDB()
	assert.True(t, db.HasState(types.EmptyRootHash), "empty root always exists")

	root := crypto.Keccak256Hash([]byte{0xc0})
	assert.False(t, db.HasState(root))
	db.PersistWitness(map[common.Hash][]byte{root: {0xc0}})
	assert.True(t, db.HasState(root))
	assert.Equal(t, []byte{0xc0}, ReadStateEntry(db, root))

	// A blob filed under a foreign hash lands under its own one.
	forged := common.HexToHash("0x1234")
	db.PersistWitness(map[common.Hash][]byte{forged: {0xc1, 0x80}})
	assert.False(t, db.HasState(forged))
	assert.Equal(t, []byte{0xc1, 0x80}, ReadStateEntry(db, crypto.Keccak256Hash([]byte{0xc1, 0x80})))
}

func TestPendingTransactions(t *testing.T) {
	db := NewMemoryChainDB()
	tx := types.NewTransaction(5, common.Address{0x02}, big.NewInt(1), 21000, big.NewInt(1), nil)

	_, err := db.PendingTransaction(tx.Hash())
	assert.ErrorIs(t, err, ErrTransactionNotFound)

	db.AddPendingTransaction(tx)
	got, err := db.PendingTransaction(tx.Hash())
	require.NoError(t, err)
	assert.Equal(t, tx.Hash(), got.Hash())
}

func TestOpenBackends(t *testing.T) {
	for _, engine := range []string{DBMemory, DBLeveldb, DBPebble} {
		t.Run(engine, func(t *testing.T) {
			store, err := Open(OpenOptions{Type: engine, Directory: t.TempDir()})
			require.NoError(t, err)
			defer store.Close()

			db := NewChainDB(store, 1)
			header := testHeader(9)
			db.WriteHeader(header)
			got, err := db.Header(header.Hash())
			require.NoError(t, err)
			assert.Equal(t, header.Hash(), got.Hash())

			// Blocks go through the engine's batch.
			receipts := types.Receipts{types.NewReceipt(nil, false, 21000)}
			block := types.NewBlock(testHeader(10), &types.Body{}, receipts, trie.NewStackTrie(nil))
			db.WriteBlock(block, receipts)
			assert.True(t, HasHeader(store, block.Hash()))
			_, err = db.Receipts(block.Hash())
			assert.NoError(t, err)
		})
	}
	_, err := Open(OpenOptions{Type: "rocksdb"})
	assert.Error(t, err)
}

func TestPebbleMemoryStore(t *testing.T) {
	store, err := pebble.NewMemory()
	require.NoError(t, err)
	defer store.Close()

	db := NewChainDB(store, 1)
	tx := types.NewTransaction(1, common.Address{}, big.NewInt(0), 21000, big.NewInt(1), nil)
	db.AddPendingTransaction(tx)
	_, err = db.PendingTransaction(tx.Hash())
	assert.NoError(t, err)
}

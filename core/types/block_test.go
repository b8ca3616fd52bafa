// Copyright 2024 The go-ethereum Authors
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

package types

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testHeader() *Header {
	return &Header{
		ParentHash: common.HexToHash("0xd4fe7bc31cedb7bfb8a345f31e668033056b2728"),
		UncleHash:  EmptyUncleHash,
		Coinbase:   common.HexToAddress("0x8888f1f195afa192cfee860698584c030f4c9db1"),
		Root:       EmptyRootHash,
		Difficulty: big.NewInt(131072),
		Number:     big.NewInt(100),
		GasLimit:   3141592,
		Time:       1698771234,
		Extra:      []byte("evmchain"),
		Nonce:      EncodeNonce(42),
	}
}

func TestHeaderHashIsKeccakOfRLP(t *testing.T) {
	h := testHeader()
	enc, err := rlp.EncodeToBytes(h)
	require.NoError(t, err)
	assert.Equal(t, crypto.Keccak256Hash(enc), h.Hash())

	var dec Header
	require.NoError(t, rlp.DecodeBytes(enc, &dec))
	assert.Equal(t, h.Hash(), dec.Hash())
}

func TestCopyHeaderIsDeep(t *testing.T) {
	h := testHeader()
	cpy := CopyHeader(h)
	cpy.Number.SetUint64(7)
	cpy.Extra[0] = 'X'
	assert.Equal(t, int64(100), h.Number.Int64())
	assert.Equal(t, byte('e'), h.Extra[0])
}

func TestCalcUncleHash(t *testing.T) {
	assert.Equal(t, EmptyUncleHash, CalcUncleHash(nil))
	assert.Equal(t, common.HexToHash("0x1dcc4de8dec75d7aab85b567b6ccd41ad312451b948a7413f0a142fd40d49347"), EmptyUncleHash)

	uncles := []*Header{testHeader()}
	assert.NotEqual(t, EmptyUncleHash, CalcUncleHash(uncles))
	assert.Equal(t, rlpHash(uncles), CalcUncleHash(uncles))
}

func TestNewBlockDerivesRoots(t *testing.T) {
	empty := NewBlock(testHeader(), nil, nil, trie.NewStackTrie(nil))
	assert.Equal(t, EmptyTxsHash, empty.TxHash())
	assert.Equal(t, EmptyReceiptsHash, empty.ReceiptHash())
	assert.Equal(t, EmptyUncleHash, empty.UncleHash())

	to := common.HexToAddress("0x01")
	tx := NewTransaction(0, to, big.NewInt(1), 21000, big.NewInt(1), nil)
	receipt := NewReceipt(nil, false, 21000)
	receipt.Logs = []*Log{{Address: to, Topics: []common.Hash{{0x01}}}}
	uncle := testHeader()
	block := NewBlock(testHeader(), &Body{Transactions: []*Transaction{tx}, Uncles: []*Header{uncle}}, []*Receipt{receipt}, trie.NewStackTrie(nil))

	assert.NotEqual(t, EmptyTxsHash, block.TxHash())
	assert.NotEqual(t, EmptyReceiptsHash, block.ReceiptHash())
	assert.Equal(t, CalcUncleHash([]*Header{uncle}), block.UncleHash())
	assert.True(t, block.Bloom().Test(to.Bytes()))
	assert.Len(t, block.Transactions(), 1)
}

func TestBlockIsImmutable(t *testing.T) {
	h := testHeader()
	b := NewBlockWithHeader(h)
	hash := b.Hash()

	h.GasUsed = 1
	b.Header().GasUsed = 2
	assert.Equal(t, hash, b.Hash())

	sealed := b.WithSeal(&Header{Number: big.NewInt(101), Difficulty: big.NewInt(1)})
	assert.NotEqual(t, hash, sealed.Hash())
	assert.Equal(t, hash, b.Hash())
}

func TestBlockEncodingRoundTrip(t *testing.T) {
	key, _ := crypto.GenerateKey()
	tx := MustSignNewTx(key, HomesteadSigner{}, &LegacyTx{Nonce: 1, GasPrice: big.NewInt(1), Gas: 21000, Value: big.NewInt(5)})
	block := NewBlock(testHeader(), &Body{Transactions: []*Transaction{tx}}, nil, trie.NewStackTrie(nil))

	enc, err := rlp.EncodeToBytes(block)
	require.NoError(t, err)
	var dec Block
	require.NoError(t, rlp.DecodeBytes(enc, &dec))
	assert.Equal(t, block.Hash(), dec.Hash())
	assert.Equal(t, tx.Hash(), dec.Transactions()[0].Hash())
	assert.Equal(t, uint64(len(enc)), dec.Size())
}

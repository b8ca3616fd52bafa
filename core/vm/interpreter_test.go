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

package vm

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunyihoo/evmchain/core/state"
	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/params"
)

var (
	alice = common.HexToAddress("0xa11ce")
	bob   = common.HexToAddress("0xb0b")
)

func newState(t *testing.T) *state.StateDB {
	sdb, err := state.New(types.EmptyRootHash, state.NewDatabase(memorydb.New()))
	require.NoError(t, err)
	sdb.SetBalance(alice, uint256.NewInt(1000))
	return sdb
}

func testContext() *ExecutionContext {
	return &ExecutionContext{BlockNumber: big.NewInt(3), Difficulty: big.NewInt(1), GasLimit: 1e6}
}

func TestCallTransfers(t *testing.T) {
	sdb := newState(t)
	in := NewTransferInterpreter(nil)

	comp := in.Call(sdb, testContext(), &Message{Sender: alice, To: &bob, Gas: 100, Value: uint256.NewInt(400)})
	require.True(t, comp.IsSuccess())
	assert.Equal(t, uint64(0), comp.GasUsed())
	assert.Equal(t, uint64(600), sdb.GetBalance(alice).Uint64())
	assert.Equal(t, uint64(400), sdb.GetBalance(bob).Uint64())
}

func TestCallInsufficientBalance(t *testing.T) {
	sdb := newState(t)
	in := NewTransferInterpreter(nil)

	comp := in.Call(sdb, testContext(), &Message{Sender: alice, To: &bob, Gas: 100, Value: uint256.NewInt(1001)})
	require.ErrorIs(t, comp.Err, ErrInsufficientBalance)
	assert.Equal(t, uint64(100), comp.GasUsed(), "failed messages burn all gas")
	assert.Equal(t, uint64(0), comp.GasRefund())
	assert.False(t, sdb.Exist(bob))
}

func TestCreateDeploysCode(t *testing.T) {
	sdb := newState(t)
	in := NewTransferInterpreter(nil)
	code := []byte{0x60, 0x00, 0x60, 0x00}

	comp := in.Create(sdb, testContext(), &Message{Sender: alice, CreateAddress: bob, Gas: 1000, Value: uint256.NewInt(1), Data: code})
	require.True(t, comp.IsSuccess())
	assert.Equal(t, uint64(len(code))*params.CreateDataGas, comp.GasUsed())
	assert.Equal(t, code, sdb.GetCode(bob))

	// A second creation at the same address collides.
	comp = in.Create(sdb, testContext(), &Message{Sender: alice, CreateAddress: bob, Gas: 1000, Data: code})
	assert.ErrorIs(t, comp.Err, ErrContractAddressCollision)
}

func TestCreateCodeStoreOutOfGas(t *testing.T) {
	sdb := newState(t)
	in := NewTransferInterpreter(nil)

	comp := in.Create(sdb, testContext(), &Message{Sender: alice, CreateAddress: bob, Gas: 10, Value: uint256.NewInt(5), Data: []byte{1, 2, 3}})
	require.ErrorIs(t, comp.Err, ErrCodeStoreOutOfGas)
	assert.False(t, sdb.Exist(bob))
	assert.Equal(t, uint64(1000), sdb.GetBalance(alice).Uint64())
}

func TestGetHashWindow(t *testing.T) {
	ctx := &ExecutionContext{
		BlockNumber: big.NewInt(3),
		PrevHashes:  []common.Hash{{2}, {1}, {0xff}},
	}
	assert.Equal(t, common.Hash{2}, ctx.GetHash(2))
	assert.Equal(t, common.Hash{1}, ctx.GetHash(1))
	assert.Equal(t, common.Hash{0xff}, ctx.GetHash(0))
	assert.Equal(t, common.Hash{}, ctx.GetHash(3), "current block is not in the window")
}

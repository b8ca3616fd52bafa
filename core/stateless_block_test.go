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

package core

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunyihoo/evmchain/core/state"
	"github.com/sunyihoo/evmchain/core/stateless"
	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/core/vm"
	"github.com/sunyihoo/evmchain/params"
	"github.com/sunyihoo/evmchain/params/forks"
)

// The second transaction spends what the first one sent. Its witness lacks
// every entry the first one wrote, so it only runs because the writes of
// accepted transactions are carried forward.
func TestCreateBlockTransferThenSpend(t *testing.T) {
	rules := RulesForFork(forks.Frontier)
	db, genesis := newTestDB(t, params.FrontierChainConfig)

	oneEther := big.NewInt(params.Ether)
	halfEther := new(big.Int).Div(oneEther, big.NewInt(2))
	tx1 := signTransfer(t, rules.Signer, 0, bobAddr, oneEther, common.Big1)
	tx2 := signTransferFrom(t, bobKey, rules.Signer, 0, carolAddr, halfEther, common.Big1)

	// Record the witnesses on the full state.
	full := newChildVM(t, db, genesis.Header(), rules, types.HeaderFields{types.FieldCoinbase: minerAddr})
	comp1, _, err := full.ApplyTransaction(tx1)
	require.NoError(t, err)
	comp2, _, err := full.ApplyTransaction(tx2)
	require.NoError(t, err)
	want, err := full.MineBlock(nil)
	require.NoError(t, err)

	w1 := stateless.Witness(comp1.Reads).Copy()
	w2 := stateless.New()
	for hash, blob := range comp2.Reads {
		if _, written := comp1.Writes[hash]; !written {
			w2[hash] = blob
		}
	}
	require.Less(t, len(w2), len(comp2.Reads))

	packages := []TransactionPackage{{Tx: tx1, Witness: w1}, {Tx: tx2, Witness: w2}}
	block, witness, err := CreateBlock(rules, vm.NewTransferInterpreter(nil), packages, []common.Hash{genesis.Hash()}, minerAddr, genesis.Header(), nil)
	require.NoError(t, err)
	require.Len(t, block.Transactions(), 2)
	assert.Equal(t, want.Root(), block.Root())
	assert.Equal(t, want.Hash(), block.Hash())
	assert.Equal(t, 2*params.TxGas, block.GasUsed())

	// The returned witness alone re-opens the final state.
	sdb, err := state.New(block.Root(), state.NewDatabase(witness.MakeStore()))
	require.NoError(t, err)

	fee := uint256.NewInt(params.TxGas)
	wantBob := new(uint256.Int).Sub(uint256.MustFromBig(halfEther), fee)
	assert.Equal(t, wantBob, sdb.GetBalance(bobAddr))
	assert.Equal(t, uint256.MustFromBig(halfEther), sdb.GetBalance(carolAddr))
	wantMiner := new(uint256.Int).Add(rules.BlockReward, new(uint256.Int).Mul(fee, uint256.NewInt(2)))
	assert.Equal(t, wantMiner, sdb.GetBalance(minerAddr))
	assert.Equal(t, uint64(1), sdb.GetNonce(testAddr))
	assert.Equal(t, uint64(1), sdb.GetNonce(bobAddr))
}

// witnessFor records the entries tx reads on top of parent.
func witnessFor(t *testing.T, db *state.Database, parent *types.Header, rules *ForkRules, tx *types.Transaction) stateless.Witness {
	t.Helper()
	header, err := rules.CreateHeaderFromParent(parent, nil)
	require.NoError(t, err)
	bs, err := NewBlockState(db, header, nil, rules, vm.NewTransferInterpreter(nil), nil)
	require.NoError(t, err)
	comp, _, err := bs.ApplyTransaction(tx)
	require.NoError(t, err)
	return stateless.Witness(comp.Reads)
}

func TestCreateBlockSkipsFailedExecution(t *testing.T) {
	rules := RulesForFork(forks.Frontier)
	db, genesis := newTestDB(t, params.FrontierChainConfig)
	sdb := state.NewDatabase(db)

	code := []byte{1, 2, 3, 4}
	intrinsic, err := rules.IntrinsicGas(code, true)
	require.NoError(t, err)
	failing := types.MustSignNewTx(testKey, rules.Signer, &types.LegacyTx{Gas: intrinsic + 1, GasPrice: common.Big1, Value: common.Big0, Data: code})
	transfer := signTransfer(t, rules.Signer, 0, bobAddr, big.NewInt(7), common.Big1)

	packages := []TransactionPackage{
		{Tx: failing, Witness: witnessFor(t, sdb, genesis.Header(), rules, failing)},
		{Tx: transfer, Witness: witnessFor(t, sdb, genesis.Header(), rules, transfer)},
	}
	block, witness, err := CreateBlock(rules, vm.NewTransferInterpreter(nil), packages, nil, minerAddr, genesis.Header(), nil)
	require.NoError(t, err)
	require.Len(t, block.Transactions(), 1)
	assert.Equal(t, transfer.Hash(), block.Transactions()[0].Hash())
	assert.Equal(t, params.TxGas, block.GasUsed())

	post, err := state.New(block.Root(), state.NewDatabase(witness.MakeStore()))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), post.GetNonce(testAddr))
	assert.Equal(t, uint256.NewInt(7), post.GetBalance(bobAddr))
}

func TestCreateBlockAbortsOnInvalidTransaction(t *testing.T) {
	rules := RulesForFork(forks.Frontier)
	db, genesis := newTestDBWithAlloc(t, params.FrontierChainConfig, gethtypes.GenesisAlloc{testAddr: {Balance: big.NewInt(params.Ether)}})
	tx := signTransfer(t, rules.Signer, 0, bobAddr, big.NewInt(1), common.Big1)
	witness := witnessFor(t, state.NewDatabase(db), genesis.Header(), rules, tx)

	replay := signTransfer(t, rules.Signer, 3, bobAddr, big.NewInt(1), common.Big1)
	_, _, err := CreateBlock(rules, vm.NewTransferInterpreter(nil), []TransactionPackage{{Tx: replay, Witness: witness}}, nil, minerAddr, genesis.Header(), nil)
	assert.ErrorIs(t, err, ErrInvalidNonce)

	_, _, err = CreateBlock(nil, vm.NewTransferInterpreter(nil), nil, nil, minerAddr, genesis.Header(), nil)
	assert.ErrorIs(t, err, ErrNilCollaborator)
}

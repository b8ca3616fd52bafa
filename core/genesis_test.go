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

package core

import (
	"encoding/json"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunyihoo/evmchain/core/rawdb"
	"github.com/sunyihoo/evmchain/core/state"
	"github.com/sunyihoo/evmchain/params"
)

func TestSetupGenesis(t *testing.T) {
	custom := testGenesis(params.FrontierChainConfig, gethtypes.GenesisAlloc{
		testAddr: {Balance: big.NewInt(1), Nonce: 3, Code: []byte{0x60, 0x00}},
	})
	customBlock, err := custom.ToBlock()
	require.NoError(t, err)
	defaultBlock, err := DefaultGenesisBlock().ToBlock()
	require.NoError(t, err)

	tests := []struct {
		name       string
		fn         func(*rawdb.ChainDB) (*params.ChainConfig, common.Hash, error)
		wantConfig *params.ChainConfig
		wantHash   common.Hash
		wantErr    error
	}{
		{
			name: "empty db, nil genesis",
			fn: func(db *rawdb.ChainDB) (*params.ChainConfig, common.Hash, error) {
				return SetupGenesisBlock(db, nil)
			},
			wantConfig: params.AllForksChainConfig,
			wantHash:   defaultBlock.Hash(),
		},
		{
			name: "empty db, custom genesis",
			fn: func(db *rawdb.ChainDB) (*params.ChainConfig, common.Hash, error) {
				return SetupGenesisBlock(db, custom)
			},
			wantConfig: params.FrontierChainConfig,
			wantHash:   customBlock.Hash(),
		},
		{
			name: "stored genesis, nil genesis",
			fn: func(db *rawdb.ChainDB) (*params.ChainConfig, common.Hash, error) {
				if _, err := custom.Commit(db); err != nil {
					return nil, common.Hash{}, err
				}
				return SetupGenesisBlock(db, nil)
			},
			wantConfig: params.FrontierChainConfig,
			wantHash:   customBlock.Hash(),
		},
		{
			name: "stored genesis, same genesis",
			fn: func(db *rawdb.ChainDB) (*params.ChainConfig, common.Hash, error) {
				if _, err := custom.Commit(db); err != nil {
					return nil, common.Hash{}, err
				}
				return SetupGenesisBlock(db, custom)
			},
			wantConfig: params.FrontierChainConfig,
			wantHash:   customBlock.Hash(),
		},
		{
			name: "stored genesis, different genesis",
			fn: func(db *rawdb.ChainDB) (*params.ChainConfig, common.Hash, error) {
				if _, err := custom.Commit(db); err != nil {
					return nil, common.Hash{}, err
				}
				return SetupGenesisBlock(db, DefaultGenesisBlock())
			},
			wantErr: &GenesisMismatchError{Stored: customBlock.Hash(), New: defaultBlock.Hash()},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := rawdb.NewMemoryChainDB()
			config, hash, err := tt.fn(db)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantConfig.String(), config.String())
			assert.Equal(t, tt.wantHash, hash)

			head, err := db.HeadHeader()
			require.NoError(t, err)
			assert.Equal(t, tt.wantHash, head.Hash())
		})
	}
}

func TestGenesisCommitState(t *testing.T) {
	slot, value := common.HexToHash("0x01"), common.HexToHash("0xbeef")
	g := testGenesis(params.AllForksChainConfig, gethtypes.GenesisAlloc{
		testAddr: {Balance: big.NewInt(77), Nonce: 4, Code: []byte{0x01}, Storage: map[common.Hash]common.Hash{slot: value}},
		bobAddr:  {},
	})
	db := rawdb.NewMemoryChainDB()
	block, err := g.Commit(db)
	require.NoError(t, err)
	assert.Equal(t, params.GenesisDifficulty, block.Difficulty())
	assert.True(t, db.HasState(block.Root()))

	statedb, err := state.New(block.Root(), state.NewDatabase(db))
	require.NoError(t, err)
	assert.Equal(t, uint64(77), statedb.GetBalance(testAddr).Uint64())
	assert.Equal(t, uint64(4), statedb.GetNonce(testAddr))
	assert.Equal(t, []byte{0x01}, statedb.GetCode(testAddr))
	assert.Equal(t, value, statedb.GetState(testAddr, slot))
	assert.True(t, statedb.Exist(bobAddr))
}

func TestGenesisCommitErrors(t *testing.T) {
	g := testGenesis(nil, nil)
	_, err := g.Commit(rawdb.NewMemoryChainDB())
	assert.ErrorIs(t, err, errGenesisNoConfig)

	g = testGenesis(&params.ChainConfig{ByzantiumBlock: common.Big0}, nil)
	_, err = g.Commit(rawdb.NewMemoryChainDB())
	assert.ErrorContains(t, err, "unsupported fork ordering")

	g = testGenesis(params.AllForksChainConfig, nil)
	g.GasLimit = params.MinGasLimit - 1
	_, err = g.Commit(rawdb.NewMemoryChainDB())
	assert.ErrorIs(t, err, ErrInvalidGasLimit)
}

func TestGenesisJSON(t *testing.T) {
	const input = `{
		"config": {"homesteadBlock": 0},
		"timestamp": "0x10",
		"gasLimit": "0x47b760",
		"difficulty": "131072",
		"extraData": "0xcafe",
		"alloc": {
			"0x71562b71999873db5b286df957af199ec94617f7": {"balance": "0x2a", "nonce": "0x1"}
		}
	}`
	var g Genesis
	require.NoError(t, json.Unmarshal([]byte(input), &g))
	assert.Equal(t, uint64(16), g.Timestamp)
	assert.Equal(t, uint64(4_700_000), g.GasLimit)
	assert.Equal(t, big.NewInt(131_072), g.Difficulty)
	assert.Equal(t, []byte{0xca, 0xfe}, g.ExtraData)
	require.NotNil(t, g.Config.HomesteadBlock)
	assert.Zero(t, g.Config.HomesteadBlock.Sign())
	account := g.Alloc[testAddr]
	assert.Equal(t, big.NewInt(42), account.Balance)
	assert.Equal(t, uint64(1), account.Nonce)

	out, err := json.Marshal(&g)
	require.NoError(t, err)
	var back Genesis
	require.NoError(t, json.Unmarshal(out, &back))
	assert.Equal(t, g.Difficulty, back.Difficulty)

	assert.ErrorContains(t, json.Unmarshal([]byte(`{"difficulty": "1", "alloc": {}}`), &g), "gasLimit")
}

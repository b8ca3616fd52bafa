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
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/params"
	"github.com/sunyihoo/evmchain/params/forks"
)

func TestRulesForBlock(t *testing.T) {
	tests := []struct {
		number uint64
		want   forks.Fork
	}{
		{0, forks.Frontier},
		{1_149_999, forks.Frontier},
		{1_150_000, forks.Homestead},
		{4_370_000, forks.Byzantium},
		{7_279_999, forks.Byzantium},
		{7_280_000, forks.Petersburg},
		{20_000_000, forks.Petersburg},
	}
	for _, tt := range tests {
		rules := RulesForBlock(params.MainnetChainConfig, new(big.Int).SetUint64(tt.number))
		assert.Equal(t, tt.want, rules.Fork, "block %d", tt.number)
	}
	// A nil Petersburg block follows Constantinople.
	config := &params.ChainConfig{HomesteadBlock: common.Big0, ByzantiumBlock: common.Big0, ConstantinopleBlock: big.NewInt(5)}
	assert.Equal(t, forks.Byzantium, RulesForBlock(config, big.NewInt(4)).Fork)
	assert.Equal(t, forks.Petersburg, RulesForBlock(config, big.NewInt(5)).Fork)
}

func TestRulesValidate(t *testing.T) {
	for _, fork := range []forks.Fork{forks.Frontier, forks.Homestead, forks.Byzantium, forks.Constantinople, forks.Petersburg} {
		assert.NoError(t, RulesForFork(fork).Validate(), fork.String())
	}
	rules := RulesForFork(forks.Byzantium)
	rules.Finalize = nil
	assert.ErrorIs(t, rules.Validate(), ErrMissingHook)
}

func TestRulesCopyIndependent(t *testing.T) {
	a := RulesForFork(forks.Frontier)
	a.BlockReward.SetUint64(1)
	a.Signer = nil

	b := RulesForFork(forks.Frontier)
	assert.NotEqual(t, uint256.NewInt(1), b.BlockReward)
	assert.NotNil(t, b.Signer)

	dev := b.WithDevfund(bobAddr, uint256.NewInt(7))
	assert.True(t, dev.HasDevfund())
	assert.False(t, b.HasDevfund())
	assert.False(t, RulesForFork(forks.Petersburg).HasDevfund())
}

func TestRewards(t *testing.T) {
	rules := RulesForFork(forks.Frontier)
	assert.Equal(t, new(uint256.Int).Mul(uint256.NewInt(5), uint256.NewInt(params.Ether)), rules.BlockReward)
	assert.Equal(t, new(uint256.Int).Rsh(rules.BlockReward, 5), rules.NephewReward())
	// (8 - distance) / 8 of the block reward, nothing past the depth limit.
	want := new(uint256.Int).Mul(rules.BlockReward, uint256.NewInt(6))
	want.Rsh(want, 3)
	assert.Equal(t, want, rules.UncleReward(2))
	assert.True(t, rules.UncleReward(params.MaxUncleDepth).IsZero())
}

func TestIntrinsicGas(t *testing.T) {
	data := []byte{0, 1, 0, 2}
	tests := []struct {
		fork   forks.Fork
		data   []byte
		create bool
		want   uint64
	}{
		{forks.Frontier, nil, false, 21000},
		{forks.Frontier, nil, true, 21000},
		{forks.Homestead, nil, false, 21000},
		{forks.Homestead, nil, true, 53000},
		{forks.Frontier, data, false, 21000 + 2*4 + 2*68},
		{forks.Petersburg, data, true, 53000 + 2*4 + 2*68},
	}
	for _, tt := range tests {
		have, err := RulesForFork(tt.fork).IntrinsicGas(tt.data, tt.create)
		require.NoError(t, err)
		assert.Equal(t, tt.want, have, "%v create=%v", tt.fork, tt.create)
	}
}

func TestCreateHeaderFromParent(t *testing.T) {
	rules := RulesForFork(forks.Homestead)
	parent := &types.Header{
		Number:     big.NewInt(10),
		Time:       1_000,
		Difficulty: big.NewInt(200_000),
		GasLimit:   params.GenesisGasLimit,
		Root:       common.HexToHash("0xaa"),
	}
	header, err := rules.CreateHeaderFromParent(parent, nil)
	require.NoError(t, err)
	assert.Equal(t, parent.Hash(), header.ParentHash)
	assert.Equal(t, parent.Root, header.Root)
	assert.Equal(t, uint64(11), header.Number.Uint64())
	assert.Equal(t, uint64(1_001), header.Time)
	assert.Equal(t, rules.ComputeDifficulty(1_001, parent), header.Difficulty)
	assert.Equal(t, CalcGasLimit(parent.GasLimit, rules.GasLimitFloor), header.GasLimit)
	assert.Equal(t, types.EmptyUncleHash, header.UncleHash)

	// The overridden timestamp feeds the difficulty, other fields win as given.
	header, err = rules.CreateHeaderFromParent(parent, types.HeaderFields{
		types.FieldTime:     uint64(1_100),
		types.FieldCoinbase: minerAddr,
		types.FieldGasLimit: uint64(6_000_000),
	})
	require.NoError(t, err)
	assert.Equal(t, rules.ComputeDifficulty(1_100, parent), header.Difficulty)
	assert.Equal(t, minerAddr, header.Coinbase)
	assert.Equal(t, uint64(6_000_000), header.GasLimit)

	header, err = rules.CreateHeaderFromParent(parent, types.HeaderFields{types.FieldDifficulty: big.NewInt(3)})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(3), header.Difficulty)

	_, err = rules.CreateHeaderFromParent(parent, types.HeaderFields{"hash": common.Hash{}})
	assert.ErrorIs(t, err, types.ErrUnknownHeaderField)
}

func TestConfigureHeader(t *testing.T) {
	rules := RulesForFork(forks.Frontier)
	parent := &types.Header{Number: big.NewInt(1), Time: 100, Difficulty: big.NewInt(131_072), GasLimit: params.GenesisGasLimit}
	header, err := rules.CreateHeaderFromParent(parent, nil)
	require.NoError(t, err)

	configured, err := rules.ConfigureHeader(header, parent, types.HeaderFields{types.FieldTime: uint64(200)})
	require.NoError(t, err)
	assert.Equal(t, rules.ComputeDifficulty(200, parent), configured.Difficulty)
	assert.Equal(t, uint64(101), header.Time, "input header untouched")

	configured, err = rules.ConfigureHeader(header, parent, types.HeaderFields{types.FieldTime: uint64(200), types.FieldDifficulty: big.NewInt(9)})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(9), configured.Difficulty)

	_, err = rules.ConfigureHeader(header, nil, types.HeaderFields{types.FieldTime: uint64(200)})
	assert.Error(t, err)

	// Genesis keeps its difficulty without a parent.
	genesis := &types.Header{Number: new(big.Int), Difficulty: big.NewInt(5)}
	configured, err = rules.ConfigureHeader(genesis, nil, types.HeaderFields{types.FieldTime: uint64(7)})
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(5), configured.Difficulty)
	assert.Equal(t, uint64(7), configured.Time)
}

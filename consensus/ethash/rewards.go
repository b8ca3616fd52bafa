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

package ethash

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/params"
	"github.com/sunyihoo/evmchain/params/forks"
)

// Ethash proof-of-work protocol constants.
// Ethash 工作量证明协议的常量。
var (
	FrontierBlockReward       = uint256.NewInt(5e+18) // Block reward in wei for successfully mining a block
	ByzantiumBlockReward      = uint256.NewInt(3e+18) // Block reward in wei for successfully mining a block upward from Byzantium
	ConstantinopleBlockReward = uint256.NewInt(2e+18) // Block reward in wei for successfully mining a block upward from Constantinople
)

// BlockRewardFor returns the static block reward of the given fork.
func BlockRewardFor(fork forks.Fork) *uint256.Int {
	switch {
	case fork >= forks.Constantinople:
		return new(uint256.Int).Set(ConstantinopleBlockReward)
	case fork >= forks.Byzantium:
		return new(uint256.Int).Set(ByzantiumBlockReward)
	default:
		return new(uint256.Int).Set(FrontierBlockReward)
	}
}

// UncleReward returns the reward paid to the coinbase of an uncle included
// distance generations below its nephew: blockReward * (8 - distance) / 8.
// Uncles at distance MaxUncleDepth or more earn nothing.
func UncleReward(blockReward *uint256.Int, distance uint64) *uint256.Int {
	if distance >= params.MaxUncleDepth {
		return new(uint256.Int)
	}
	r := new(uint256.Int).SetUint64(params.MaxUncleDepth - distance)
	r.Mul(r, blockReward)
	return r.Rsh(r, 3)
}

// NephewReward returns the bonus credited to the block coinbase per included
// uncle: blockReward / 32.
func NephewReward(blockReward *uint256.Int) *uint256.Int {
	return new(uint256.Int).Rsh(blockReward, 5)
}

// BalanceAdder is the subset of the state needed to pay out rewards.
type BalanceAdder interface {
	AddBalance(addr common.Address, amount *uint256.Int)
}

// AccumulateRewards credits the coinbase of the given block with the mining
// reward. The total reward consists of the static block reward and rewards for
// included uncles. The coinbase of each uncle block is also rewarded.
func AccumulateRewards(state BalanceAdder, blockReward *uint256.Int, header *types.Header, uncles []*types.Header) {
	reward := new(uint256.Int).Set(blockReward)
	number := header.Number.Uint64()
	for _, uncle := range uncles {
		state.AddBalance(uncle.Coinbase, UncleReward(blockReward, number-uncle.Number.Uint64()))
		reward.Add(reward, NephewReward(blockReward))
	}
	state.AddBalance(header.Coinbase, reward)
}

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
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/params"
	"github.com/sunyihoo/evmchain/params/forks"
)

type balances map[common.Address]*uint256.Int

func (b balances) AddBalance(addr common.Address, amount *uint256.Int) {
	if b[addr] == nil {
		b[addr] = new(uint256.Int)
	}
	b[addr].Add(b[addr], amount)
}

func TestBlockRewardSchedule(t *testing.T) {
	assert.Equal(t, uint256.NewInt(5e18), BlockRewardFor(forks.Frontier))
	assert.Equal(t, uint256.NewInt(5e18), BlockRewardFor(forks.Homestead))
	assert.Equal(t, uint256.NewInt(3e18), BlockRewardFor(forks.Byzantium))
	assert.Equal(t, uint256.NewInt(2e18), BlockRewardFor(forks.Constantinople))
	assert.Equal(t, uint256.NewInt(2e18), BlockRewardFor(forks.Petersburg))

	// Callers get a copy.
	BlockRewardFor(forks.Frontier).SetUint64(1)
	assert.Equal(t, uint256.NewInt(5e18), FrontierBlockReward)
}

func TestUncleReward(t *testing.T) {
	reward := uint256.NewInt(2e18)
	assert.Equal(t, uint256.NewInt(1_750_000_000_000_000_000), UncleReward(reward, 1))
	assert.Equal(t, uint256.NewInt(250_000_000_000_000_000), UncleReward(reward, 7))
	assert.True(t, UncleReward(reward, 8).IsZero())
	assert.Equal(t, uint256.NewInt(62_500_000_000_000_000), NephewReward(reward))
}

func TestAccumulateRewards(t *testing.T) {
	var (
		miner  = common.HexToAddress("0x01")
		uncle1 = common.HexToAddress("0x02")
		uncle2 = common.HexToAddress("0x03")
		state  = balances{}
		reward = uint256.NewInt(2e18)
	)
	header := &types.Header{Number: big.NewInt(10), Coinbase: miner}
	uncles := []*types.Header{
		{Number: big.NewInt(9), Coinbase: uncle1},
		{Number: big.NewInt(8), Coinbase: uncle2},
	}
	AccumulateRewards(state, reward, header, uncles)

	assert.Equal(t, uint256.NewInt(2_125_000_000_000_000_000), state[miner])
	assert.Equal(t, uint256.NewInt(1_750_000_000_000_000_000), state[uncle1])
	assert.Equal(t, uint256.NewInt(1_500_000_000_000_000_000), state[uncle2])
}

func TestDifficultyFrontier(t *testing.T) {
	parent := &types.Header{Number: big.NewInt(0), Time: 0, Difficulty: big.NewInt(1_000_000)}

	// Fast block raises difficulty by parent/2048.
	assert.Equal(t, big.NewInt(1_000_488), CalcDifficultyFrontier(12, parent))
	// Slow block lowers it.
	assert.Equal(t, big.NewInt(999_512), CalcDifficultyFrontier(13, parent))

	// Never below the minimum.
	low := &types.Header{Number: big.NewInt(0), Difficulty: params.MinimumDifficulty}
	assert.Equal(t, params.MinimumDifficulty, CalcDifficultyFrontier(100, low))
}

func TestDifficultyHomestead(t *testing.T) {
	parent := &types.Header{Number: big.NewInt(1), Time: 100, Difficulty: big.NewInt(2_048_000)}

	assert.Equal(t, big.NewInt(2_049_000), CalcDifficultyHomestead(109, parent))
	assert.Equal(t, big.NewInt(2_048_000), CalcDifficultyHomestead(110, parent))
	assert.Equal(t, big.NewInt(2_047_000), CalcDifficultyHomestead(120, parent))
	// Adjustment is capped at -99 steps.
	assert.Equal(t, big.NewInt(2_048_000-99*1000), CalcDifficultyHomestead(100_000, parent))
}

func TestDifficultyByzantiumUncles(t *testing.T) {
	parent := &types.Header{Number: big.NewInt(1), Time: 100, Difficulty: big.NewInt(2_048_000), UncleHash: types.EmptyUncleHash}
	assert.Equal(t, big.NewInt(2_049_000), CalcDifficultyFor(forks.Byzantium)(108, parent))

	parent.UncleHash = common.Hash{0x01}
	assert.Equal(t, big.NewInt(2_050_000), CalcDifficultyFor(forks.Byzantium)(108, parent))
}

func TestDifficultyBomb(t *testing.T) {
	parent := &types.Header{Number: big.NewInt(299_999), Time: 100, Difficulty: big.NewInt(2_048_000)}
	// Homestead at block 300000: period 3, bomb adds 2^1.
	assert.Equal(t, big.NewInt(2_048_002), CalcDifficultyHomestead(110, parent))

	// Constantinople delays the bomb by five million blocks.
	parent.UncleHash = types.EmptyUncleHash
	assert.Equal(t, big.NewInt(2_048_000), CalcDifficultyFor(forks.Constantinople)(109, parent))
}

// Uncle rewards shrink with distance, never exceed the block reward and the
// payout of a block is exactly the block reward plus the uncle and nephew
// shares.
func TestRewardProperties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		reward := uint256.NewInt(rapid.Uint64().Draw(t, "reward"))
		number := rapid.Uint64Range(params.MaxUncleDepth, 1<<40).Draw(t, "number")
		distances := rapid.SliceOfN(rapid.Uint64Range(1, params.MaxUncleDepth-1), 0, 2).Draw(t, "distances")

		for d := uint64(1); d < params.MaxUncleDepth; d++ {
			if UncleReward(reward, d).Lt(UncleReward(reward, d+1)) {
				t.Fatalf("uncle reward grows from distance %d to %d", d, d+1)
			}
			if reward.Lt(UncleReward(reward, d)) {
				t.Fatalf("uncle reward at distance %d exceeds block reward", d)
			}
		}
		header := &types.Header{Number: new(big.Int).SetUint64(number), Coinbase: common.Address{0xff}}
		want := new(uint256.Int).Set(reward)
		var uncles []*types.Header
		for i, d := range distances {
			uncles = append(uncles, &types.Header{
				Number:   new(big.Int).SetUint64(number - d),
				Coinbase: common.Address{byte(i + 1)},
			})
			want.Add(want, UncleReward(reward, d))
			want.Add(want, NephewReward(reward))
		}
		state := balances{}
		AccumulateRewards(state, reward, header, uncles)

		total := new(uint256.Int)
		for _, amount := range state {
			total.Add(total, amount)
		}
		if !total.Eq(want) {
			t.Fatalf("paid %v, want %v", total, want)
		}
	})
}

// No difficulty algorithm drops below the protocol minimum.
func TestDifficultyFloorProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		fork := forks.Fork(rapid.IntRange(int(forks.Frontier), int(forks.Petersburg)).Draw(t, "fork"))
		parentTime := rapid.Uint64Range(0, 1<<32).Draw(t, "parentTime")
		parent := &types.Header{
			Number:     new(big.Int).SetUint64(rapid.Uint64Range(0, 10_000_000).Draw(t, "number")),
			Time:       parentTime,
			Difficulty: new(big.Int).SetUint64(rapid.Uint64Range(params.MinimumDifficulty.Uint64(), 1<<40).Draw(t, "difficulty")),
			UncleHash:  types.EmptyUncleHash,
		}
		time := parentTime + rapid.Uint64Range(1, 1<<20).Draw(t, "delta")
		if diff := CalcDifficultyFor(fork)(time, parent); diff.Cmp(params.MinimumDifficulty) < 0 {
			t.Fatalf("%v difficulty %v below minimum", fork, diff)
		}
	})
}

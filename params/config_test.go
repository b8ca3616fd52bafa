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

package params

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunyihoo/evmchain/params/forks"
)

func TestLatestFork(t *testing.T) {
	cfg := MainnetChainConfig
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
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, cfg.LatestFork(new(big.Int).SetUint64(tt.number)), "block %d", tt.number)
	}
	assert.Equal(t, forks.Frontier, FrontierChainConfig.LatestFork(big.NewInt(10_000_000)))
	assert.Equal(t, forks.Petersburg, AllForksChainConfig.LatestFork(big.NewInt(0)))
}

func TestPetersburgDefaultsToConstantinople(t *testing.T) {
	cfg := &ChainConfig{
		HomesteadBlock:      big.NewInt(0),
		ByzantiumBlock:      big.NewInt(0),
		ConstantinopleBlock: big.NewInt(10),
	}
	assert.Equal(t, forks.Byzantium, cfg.LatestFork(big.NewInt(9)))
	assert.Equal(t, forks.Petersburg, cfg.LatestFork(big.NewInt(10)))
}

func TestCheckConfigForkOrder(t *testing.T) {
	require.NoError(t, MainnetChainConfig.CheckConfigForkOrder())
	require.NoError(t, FrontierChainConfig.CheckConfigForkOrder())

	skipped := &ChainConfig{ByzantiumBlock: big.NewInt(5)}
	assert.Error(t, skipped.CheckConfigForkOrder())

	reversed := &ChainConfig{HomesteadBlock: big.NewInt(10), ByzantiumBlock: big.NewInt(5)}
	assert.Error(t, reversed.CheckConfigForkOrder())
}

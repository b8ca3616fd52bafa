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
	"fmt"
	"math/big"

	"github.com/sunyihoo/evmchain/params/forks"
)

// MainnetChainConfig is the chain parameters to run a node on the main network,
// restricted to the proof-of-work forks this engine implements.
var MainnetChainConfig = &ChainConfig{
	HomesteadBlock:      big.NewInt(1_150_000),
	ByzantiumBlock:      big.NewInt(4_370_000),
	ConstantinopleBlock: big.NewInt(7_280_000),
	PetersburgBlock:     big.NewInt(7_280_000),
}

// AllForksChainConfig activates every known fork from genesis. It is the
// default for freshly initialised development chains.
var AllForksChainConfig = &ChainConfig{
	HomesteadBlock:      big.NewInt(0),
	ByzantiumBlock:      big.NewInt(0),
	ConstantinopleBlock: big.NewInt(0),
	PetersburgBlock:     big.NewInt(0),
}

// FrontierChainConfig never leaves Frontier.
var FrontierChainConfig = &ChainConfig{}

// ChainConfig is the core config which determines the blockchain settings.
//
// ChainConfig is stored in the TOML configuration file of the node. A nil fork
// block means the fork is never activated.
// ChainConfig 决定链的分叉高度，nil 表示该分叉永不激活。
type ChainConfig struct {
	HomesteadBlock      *big.Int `json:"homesteadBlock,omitempty"`      // Homestead switch block (nil = no fork, 0 = already homestead)
	ByzantiumBlock      *big.Int `json:"byzantiumBlock,omitempty"`      // Byzantium switch block (nil = no fork, 0 = already on byzantium)
	ConstantinopleBlock *big.Int `json:"constantinopleBlock,omitempty"` // Constantinople switch block (nil = no fork, 0 = already activated)
	PetersburgBlock     *big.Int `json:"petersburgBlock,omitempty"`     // Petersburg switch block (nil = same as Constantinople)
}

// String implements fmt.Stringer.
func (c *ChainConfig) String() string {
	return fmt.Sprintf("{Homestead: %v Byzantium: %v Constantinople: %v Petersburg: %v}",
		c.HomesteadBlock, c.ByzantiumBlock, c.ConstantinopleBlock, c.PetersburgBlock)
}

// IsHomestead returns whether num is either equal to the homestead block or greater.
func (c *ChainConfig) IsHomestead(num *big.Int) bool {
	return isBlockForked(c.HomesteadBlock, num)
}

// IsByzantium returns whether num is either equal to the Byzantium fork block or greater.
func (c *ChainConfig) IsByzantium(num *big.Int) bool {
	return isBlockForked(c.ByzantiumBlock, num)
}

// IsConstantinople returns whether num is either equal to the Constantinople fork block or greater.
func (c *ChainConfig) IsConstantinople(num *big.Int) bool {
	return isBlockForked(c.ConstantinopleBlock, num)
}

// IsPetersburg returns whether num is either
// - equal to or greater than the PetersburgBlock fork block,
// - OR is nil, and Constantinople is active
func (c *ChainConfig) IsPetersburg(num *big.Int) bool {
	return isBlockForked(c.PetersburgBlock, num) || c.PetersburgBlock == nil && isBlockForked(c.ConstantinopleBlock, num)
}

// LatestFork returns the latest fork active at the given block number.
// LatestFork 返回给定区块高度上激活的最新分叉。
func (c *ChainConfig) LatestFork(num *big.Int) forks.Fork {
	switch {
	case c.IsPetersburg(num):
		return forks.Petersburg
	case c.IsConstantinople(num):
		return forks.Constantinople
	case c.IsByzantium(num):
		return forks.Byzantium
	case c.IsHomestead(num):
		return forks.Homestead
	default:
		return forks.Frontier
	}
}

// CheckConfigForkOrder checks that we don't "skip" any forks. Geth isn't
// pluggable enough to support out-of-order forks and neither is this engine.
func (c *ChainConfig) CheckConfigForkOrder() error {
	type fork struct {
		name  string
		block *big.Int
	}
	var lastFork fork
	for _, cur := range []fork{
		{name: "homesteadBlock", block: c.HomesteadBlock},
		{name: "byzantiumBlock", block: c.ByzantiumBlock},
		{name: "constantinopleBlock", block: c.ConstantinopleBlock},
		{name: "petersburgBlock", block: c.PetersburgBlock},
	} {
		if lastFork.name != "" {
			switch {
			case lastFork.block == nil && cur.block != nil:
				return fmt.Errorf("unsupported fork ordering: %v not enabled, but %v enabled at block %v",
					lastFork.name, cur.name, cur.block)
			case lastFork.block != nil && cur.block != nil && lastFork.block.Cmp(cur.block) > 0:
				return fmt.Errorf("unsupported fork ordering: %v enabled at block %v, but %v enabled at block %v",
					lastFork.name, lastFork.block, cur.name, cur.block)
			}
		}
		lastFork = cur
	}
	return nil
}

// isBlockForked returns whether a fork scheduled at block s is active at the
// given head block.
func isBlockForked(s, head *big.Int) bool {
	if s == nil || head == nil {
		return false
	}
	return s.Cmp(head) <= 0
}

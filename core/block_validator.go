// Copyright 2015 The go-ethereum Authors
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
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/trie"

	"github.com/sunyihoo/evmchain/consensus"
	"github.com/sunyihoo/evmchain/core/rawdb"
	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/params"
)

// HeaderReader looks up headers by hash.
type HeaderReader interface {
	Header(hash common.Hash) (*types.Header, error)
}

// ChainReader is the part of the chain store block validation needs.
type ChainReader interface {
	HeaderReader
	HasState(root common.Hash) bool
}

// BlockValidator is responsible for validating block headers, uncles and
// processed state.
// BlockValidator 负责验证区块头、叔块以及处理后的状态。
type BlockValidator struct {
	chain ChainReader
}

// NewBlockValidator returns a new block validator which is safe for re-use
func NewBlockValidator(chain ChainReader) *BlockValidator {
	return &BlockValidator{chain: chain}
}

// ValidateBlock checks the structural rules of a block. Blocks past genesis
// must continue the gas limit of their parent, carry at most 32 bytes of
// extra-data and be strictly younger than their parent. Every block carries at
// most MaxUncles valid uncles, a state root present in the store and an uncle
// hash matching its uncles. Validation has no side effects.
// ValidateBlock 检查区块的结构规则，创世区块跳过所有与父区块相关的检查。
func (v *BlockValidator) ValidateBlock(block *types.Block) error {
	header := block.Header()
	if !block.IsGenesis() {
		parent, err := v.chain.Header(header.ParentHash)
		if err != nil {
			return err
		}
		if err := ValidateGasLimit(header.GasLimit, parent.GasLimit); err != nil {
			return err
		}
		if uint64(len(header.Extra)) > params.MaximumExtraDataSize {
			return fmt.Errorf("%w: %d > %d", ErrExtraDataTooLong, len(header.Extra), params.MaximumExtraDataSize)
		}
		if header.Time <= parent.Time {
			return fmt.Errorf("%w: block %d, parent %d", ErrTimestampNotIncreasing, header.Time, parent.Time)
		}
	}
	uncles := block.Uncles()
	if len(uncles) > params.MaxUncles {
		return fmt.Errorf("%w: have %d, max %d", ErrTooManyUncles, len(uncles), params.MaxUncles)
	}
	for _, uncle := range uncles {
		if err := v.ValidateUncle(block, uncle); err != nil {
			return err
		}
	}
	if !v.chain.HasState(header.Root) {
		return fmt.Errorf("%w: %x", ErrStateRootMissing, header.Root)
	}
	if hash := types.CalcUncleHash(uncles); hash != header.UncleHash {
		return fmt.Errorf("%w: have %x, want %x (%d uncles)", ErrUncleHashMismatch, header.UncleHash, hash, len(uncles))
	}
	return nil
}

// ValidateUncle checks an uncle against the block including it and the
// uncle's own parent.
func (v *BlockValidator) ValidateUncle(block *types.Block, uncle *types.Header) error {
	if uncle.Number.Cmp(block.Number()) >= 0 {
		return fmt.Errorf("%w: %w: uncle %d, block %d", ErrInvalidUncle, consensus.ErrInvalidUncleNumber, uncle.Number, block.Number())
	}
	parent, err := v.chain.Header(uncle.ParentHash)
	if err != nil {
		if errors.Is(err, rawdb.ErrHeaderNotFound) {
			return fmt.Errorf("%w: %w: %x", ErrInvalidUncle, consensus.ErrUnknownAncestor, uncle.ParentHash)
		}
		return err
	}
	if want := new(big.Int).Add(parent.Number, common.Big1); uncle.Number.Cmp(want) != 0 {
		return fmt.Errorf("%w: %w: uncle %d, ancestor %d", ErrInvalidUncle, consensus.ErrInvalidNumber, uncle.Number, parent.Number)
	}
	if uncle.Time < parent.Time {
		return fmt.Errorf("%w: %w: uncle %d, ancestor %d", ErrInvalidUncle, consensus.ErrOlderBlockTime, uncle.Time, parent.Time)
	}
	if uncle.GasUsed > uncle.GasLimit {
		return fmt.Errorf("%w: %w: used %d, limit %d", ErrInvalidUncle, consensus.ErrUncleGasUsed, uncle.GasUsed, uncle.GasLimit)
	}
	return nil
}

// ValidateBody validates the given block's uncles and verifies the block
// header's transaction and uncle roots.
func (v *BlockValidator) ValidateBody(block *types.Block) error {
	header := block.Header()
	if hash := types.CalcUncleHash(block.Uncles()); hash != header.UncleHash {
		return fmt.Errorf("%w: have %x, want %x", ErrUncleHashMismatch, header.UncleHash, hash)
	}
	if hash := types.DeriveSha(block.Transactions(), trie.NewStackTrie(nil)); hash != header.TxHash {
		return fmt.Errorf("%w: transaction root hash mismatch (header value %x, calculated %x)", ErrInvalidBlock, header.TxHash, hash)
	}
	return nil
}

// ValidateState compares a received block with the block obtained by
// executing its body: gas used, bloom, receipt root and state root must match.
func ValidateState(block, executed *types.Block) error {
	switch {
	case block.GasUsed() != executed.GasUsed():
		return fmt.Errorf("%w: invalid gas used (remote: %d local: %d)", ErrBlockMismatch, block.GasUsed(), executed.GasUsed())
	case block.Bloom() != executed.Bloom():
		return fmt.Errorf("%w: invalid bloom (remote: %x  local: %x)", ErrBlockMismatch, block.Bloom(), executed.Bloom())
	case block.ReceiptHash() != executed.ReceiptHash():
		return fmt.Errorf("%w: invalid receipt root hash (remote: %x local: %x)", ErrBlockMismatch, block.ReceiptHash(), executed.ReceiptHash())
	case block.Root() != executed.Root():
		return fmt.Errorf("%w: invalid merkle root (remote: %x local: %x)", ErrBlockMismatch, block.Root(), executed.Root())
	}
	return nil
}

// ValidateGasLimit checks that gasLimit is at least MinGasLimit and within
// parentGasLimit/GasLimitBoundDivisor of the parent, bounds included.
func ValidateGasLimit(gasLimit, parentGasLimit uint64) error {
	if gasLimit < params.MinGasLimit {
		return fmt.Errorf("%w: have %d, minimum %d", ErrInvalidGasLimit, gasLimit, params.MinGasLimit)
	}
	bound := parentGasLimit / params.GasLimitBoundDivisor
	if gasLimit+bound < parentGasLimit || gasLimit > parentGasLimit+bound {
		return fmt.Errorf("%w: have %d, parent %d, bound %d", ErrInvalidGasLimit, gasLimit, parentGasLimit, bound)
	}
	return nil
}

// CalcGasLimit computes the gas limit of the next block after parent. It aims
// to keep the baseline gas close to the provided target, and increase it towards
// the target if the baseline gas is lower.
func CalcGasLimit(parentGasLimit, desiredLimit uint64) uint64 {
	delta := parentGasLimit/params.GasLimitBoundDivisor - 1
	limit := parentGasLimit
	if desiredLimit < params.MinGasLimit {
		desiredLimit = params.MinGasLimit
	}
	// If we're outside our allowed gas range, we try to hone towards them
	if limit < desiredLimit {
		limit = parentGasLimit + delta
		if limit > desiredLimit {
			limit = desiredLimit
		}
		return limit
	}
	if limit > desiredLimit {
		limit = parentGasLimit - delta
		if limit < desiredLimit {
			limit = desiredLimit
		}
	}
	return limit
}

// Copyright 2018 The go-ethereum Authors
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
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/sunyihoo/evmchain/consensus/ethash"
	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/params"
	"github.com/sunyihoo/evmchain/params/forks"
)

// FinalizeFunc credits the rewards of a block to the state and returns the
// block with its final state root.
type FinalizeFunc func(rules *ForkRules, state *BlockState, block *types.Block) (*types.Block, error)

// IntrinsicGasFunc computes the gas a transaction pays before execution.
type IntrinsicGasFunc func(data []byte, isContractCreation bool) (uint64, error)

// ReceiptFunc builds the receipt of a transaction. root is the post state
// root, failed reports a failed execution.
type ReceiptFunc func(root common.Hash, failed bool, cumulativeGasUsed uint64) *types.Receipt

// ForkRules is the parameter set of one protocol version. A later fork is
// built from an earlier one by replacing the hooks that changed; finalize
// steps delegate explicitly to the step they extend.
// ForkRules 是单个协议版本的参数集合，后续分叉通过替换变化的钩子构建。
type ForkRules struct {
	Fork forks.Fork

	// ComputeDifficulty returns the difficulty of a block created at time on
	// top of parent.
	ComputeDifficulty ethash.DifficultyCalculator

	// BlockReward is the static reward of the block coinbase.
	BlockReward *uint256.Int

	// DevfundReward is credited to DevfundBeneficiary on finalize. Nil or
	// zero disables the devfund.
	DevfundReward      *uint256.Int
	DevfundBeneficiary common.Address

	// GasLimitFloor is the gas limit new headers move towards.
	GasLimitFloor uint64

	IntrinsicGas IntrinsicGasFunc
	MakeReceipt  ReceiptFunc
	Signer       types.Signer
	Finalize     FinalizeFunc
}

// Name returns the protocol version name, used to tag log output.
func (r *ForkRules) Name() string {
	return r.Fork.String()
}

// Validate checks that every hook is set.
func (r *ForkRules) Validate() error {
	switch {
	case r.ComputeDifficulty == nil:
		return fmt.Errorf("%w: %s: ComputeDifficulty", ErrMissingHook, r.Name())
	case r.BlockReward == nil:
		return fmt.Errorf("%w: %s: BlockReward", ErrMissingHook, r.Name())
	case r.IntrinsicGas == nil:
		return fmt.Errorf("%w: %s: IntrinsicGas", ErrMissingHook, r.Name())
	case r.MakeReceipt == nil:
		return fmt.Errorf("%w: %s: MakeReceipt", ErrMissingHook, r.Name())
	case r.Signer == nil:
		return fmt.Errorf("%w: %s: Signer", ErrMissingHook, r.Name())
	case r.Finalize == nil:
		return fmt.Errorf("%w: %s: Finalize", ErrMissingHook, r.Name())
	}
	return nil
}

// Copy returns a copy of the rules, for deriving a variant.
func (r *ForkRules) Copy() *ForkRules {
	cpy := *r
	if r.BlockReward != nil {
		cpy.BlockReward = r.BlockReward.Clone()
	}
	if r.DevfundReward != nil {
		cpy.DevfundReward = r.DevfundReward.Clone()
	}
	return &cpy
}

// WithDevfund returns a copy of the rules paying amount to beneficiary on
// every finalized block.
func (r *ForkRules) WithDevfund(beneficiary common.Address, amount *uint256.Int) *ForkRules {
	cpy := r.Copy()
	cpy.DevfundBeneficiary = beneficiary
	cpy.DevfundReward = new(uint256.Int).Set(amount)
	return cpy
}

// UncleReward returns the reward of an uncle included distance blocks below
// its nephew.
func (r *ForkRules) UncleReward(distance uint64) *uint256.Int {
	return ethash.UncleReward(r.BlockReward, distance)
}

// NephewReward returns the bonus paid to the block coinbase per uncle.
func (r *ForkRules) NephewReward() *uint256.Int {
	return ethash.NephewReward(r.BlockReward)
}

// HasDevfund reports whether finalize pays a devfund.
func (r *ForkRules) HasDevfund() bool {
	return r.DevfundReward != nil && !r.DevfundReward.IsZero()
}

// CreateHeaderFromParent builds the header of the child of parent. The fields
// not given in overrides are derived: the timestamp is parent + 1, the
// difficulty follows the fork's formula and the gas limit moves towards the
// floor.
func (r *ForkRules) CreateHeaderFromParent(parent *types.Header, overrides types.HeaderFields) (*types.Header, error) {
	if err := overrides.Validate(); err != nil {
		return nil, err
	}
	header := &types.Header{
		ParentHash:  parent.Hash(),
		UncleHash:   types.EmptyUncleHash,
		Root:        parent.Root,
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Number:      new(big.Int).Add(parent.Number, common.Big1),
		GasLimit:    CalcGasLimit(parent.GasLimit, r.GasLimitFloor),
		Time:        parent.Time + 1,
	}
	// The timestamp drives the difficulty, settle it first.
	if overrides.Has(types.FieldTime) {
		if err := (types.HeaderFields{types.FieldTime: overrides[types.FieldTime]}).Apply(header); err != nil {
			return nil, err
		}
	}
	header.Difficulty = r.ComputeDifficulty(header.Time, parent)

	if err := overrides.Apply(header); err != nil {
		return nil, err
	}
	return header, nil
}

// ConfigureHeader applies caller supplied fields to a copy of the in-progress
// header. A new timestamp on a non-genesis header recomputes the difficulty
// against parent, unless the difficulty is supplied as well.
func (r *ForkRules) ConfigureHeader(header, parent *types.Header, overrides types.HeaderFields) (*types.Header, error) {
	configured := types.CopyHeader(header)
	if err := overrides.Apply(configured); err != nil {
		return nil, err
	}
	if overrides.Has(types.FieldTime) && !overrides.Has(types.FieldDifficulty) && !configured.IsGenesis() {
		if parent == nil {
			return nil, fmt.Errorf("configure header %d: parent required to recompute difficulty", configured.Number)
		}
		configured.Difficulty = r.ComputeDifficulty(configured.Time, parent)
	}
	return configured, nil
}

// frontierIntrinsicGas computes the intrinsic gas before Homestead, when
// contract creation cost the same as a call.
func frontierIntrinsicGas(data []byte, isContractCreation bool) (uint64, error) {
	return intrinsicGas(data, params.TxGas)
}

// homesteadIntrinsicGas charges contract creation TxGasContractCreation (EIP-2).
func homesteadIntrinsicGas(data []byte, isContractCreation bool) (uint64, error) {
	if isContractCreation {
		return intrinsicGas(data, params.TxGasContractCreation)
	}
	return intrinsicGas(data, params.TxGas)
}

func intrinsicGas(data []byte, gas uint64) (uint64, error) {
	if len(data) == 0 {
		return gas, nil
	}
	var nz uint64
	for _, byt := range data {
		if byt != 0 {
			nz++
		}
	}
	z := uint64(len(data)) - nz

	// Make sure we don't exceed uint64 for all data combinations
	if (^uint64(0)-gas)/params.TxDataNonZeroGas < nz {
		return 0, ErrGasUintOverflow
	}
	gas += nz * params.TxDataNonZeroGas
	if (^uint64(0)-gas)/params.TxDataZeroGas < z {
		return 0, ErrGasUintOverflow
	}
	gas += z * params.TxDataZeroGas
	return gas, nil
}

// rootReceipt commits to the intermediate state root (pre-Byzantium).
func rootReceipt(root common.Hash, failed bool, cumulativeGasUsed uint64) *types.Receipt {
	return types.NewReceipt(root.Bytes(), failed, cumulativeGasUsed)
}

// statusReceipt commits to the execution status (EIP-658).
func statusReceipt(root common.Hash, failed bool, cumulativeGasUsed uint64) *types.Receipt {
	return types.NewReceipt(nil, failed, cumulativeGasUsed)
}

// finalizeRewards is the base finalize step: it pays the block reward plus a
// nephew bonus per uncle to the coinbase and the distance scaled uncle reward
// to every uncle coinbase, then seals the resulting state root.
func finalizeRewards(rules *ForkRules, state *BlockState, block *types.Block) (*types.Block, error) {
	ethash.AccumulateRewards(state.StateDB(), rules.BlockReward, block.Header(), block.Uncles())

	root, err := state.Commit()
	if err != nil {
		return nil, err
	}
	header := block.Header()
	header.Root = root
	return block.WithSeal(header), nil
}

// finalizePetersburg credits the devfund and then delegates to the reward
// step it extends.
func finalizePetersburg(rules *ForkRules, state *BlockState, block *types.Block) (*types.Block, error) {
	if rules.HasDevfund() {
		state.StateDB().AddBalance(rules.DevfundBeneficiary, rules.DevfundReward)
	}
	return finalizeConstantinople(rules, state, block)
}

// finalizeConstantinople is the reward step of Constantinople. Only the
// reward amount changed, which the rules carry.
func finalizeConstantinople(rules *ForkRules, state *BlockState, block *types.Block) (*types.Block, error) {
	return finalizeRewards(rules, state, block)
}

var (
	frontierRules = &ForkRules{
		Fork:              forks.Frontier,
		ComputeDifficulty: ethash.CalcDifficultyFor(forks.Frontier),
		BlockReward:       ethash.BlockRewardFor(forks.Frontier),
		GasLimitFloor:     params.GenesisGasLimit,
		IntrinsicGas:      frontierIntrinsicGas,
		MakeReceipt:       rootReceipt,
		Signer:            types.SignerForFork(forks.Frontier),
		Finalize:          finalizeRewards,
	}
	homesteadRules      = derive(frontierRules, forks.Homestead, func(r *ForkRules) { r.IntrinsicGas = homesteadIntrinsicGas })
	byzantiumRules      = derive(homesteadRules, forks.Byzantium, func(r *ForkRules) { r.MakeReceipt = statusReceipt })
	constantinopleRules = derive(byzantiumRules, forks.Constantinople, func(r *ForkRules) { r.Finalize = finalizeConstantinople })
	petersburgRules     = derive(constantinopleRules, forks.Petersburg, func(r *ForkRules) {
		r.DevfundReward = new(uint256.Int)
		r.DevfundBeneficiary = common.Address{}
		r.Finalize = finalizePetersburg
	})
)

// derive builds the rules of fork from those of its predecessor: the fork
// specific difficulty, reward and signer are looked up, the rest is inherited
// unless override replaces it.
func derive(parent *ForkRules, fork forks.Fork, override func(*ForkRules)) *ForkRules {
	r := parent.Copy()
	r.Fork = fork
	r.ComputeDifficulty = ethash.CalcDifficultyFor(fork)
	r.BlockReward = ethash.BlockRewardFor(fork)
	r.Signer = types.SignerForFork(fork)
	override(r)
	return r
}

// RulesForFork returns a copy of the parameter set of the given fork.
func RulesForFork(fork forks.Fork) *ForkRules {
	switch fork {
	case forks.Frontier:
		return frontierRules.Copy()
	case forks.Homestead:
		return homesteadRules.Copy()
	case forks.Byzantium:
		return byzantiumRules.Copy()
	case forks.Constantinople:
		return constantinopleRules.Copy()
	default:
		return petersburgRules.Copy()
	}
}

// RulesForBlock returns the parameter set active at the given block number.
func RulesForBlock(config *params.ChainConfig, number *big.Int) *ForkRules {
	return RulesForFork(config.LatestFork(number))
}

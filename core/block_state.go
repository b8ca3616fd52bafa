// Copyright 2019 The go-ethereum Authors
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
	"maps"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/sunyihoo/evmchain/core/state"
	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/core/vm"
)

// BlockState is the mutable world state of one in-progress block, together
// with the block context execution runs in and the gas accounting of the
// transactions applied so far.
// BlockState 是单个构建中区块的可变世界状态，以及执行上下文和已用 gas。
type BlockState struct {
	statedb     *state.StateDB
	ctx         *vm.ExecutionContext
	gasUsed     uint64
	gasLimit    uint64
	rules       *ForkRules
	interpreter vm.Interpreter
	logger      log.Logger
}

// NewBlockState opens the state at the root of header. prevHashes lists the
// ancestors of header, parent first.
func NewBlockState(db *state.Database, header *types.Header, prevHashes []common.Hash, rules *ForkRules, interpreter vm.Interpreter, logger log.Logger) (*BlockState, error) {
	if db == nil || header == nil || rules == nil || interpreter == nil {
		return nil, ErrNilCollaborator
	}
	statedb, err := state.New(header.Root, db)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Root()
	}
	difficulty := new(big.Int)
	if header.Difficulty != nil {
		difficulty.Set(header.Difficulty)
	}
	ctx := &vm.ExecutionContext{
		Coinbase:    header.Coinbase,
		Timestamp:   header.Time,
		BlockNumber: new(big.Int).Set(header.Number),
		Difficulty:  difficulty,
		GasLimit:    header.GasLimit,
		PrevHashes:  prevHashes,
	}
	return &BlockState{
		statedb:     statedb,
		ctx:         ctx,
		gasUsed:     header.GasUsed,
		gasLimit:    header.GasLimit,
		rules:       rules,
		interpreter: interpreter,
		logger:      logger,
	}, nil
}

// StateDB returns the account state.
func (bs *BlockState) StateDB() *state.StateDB { return bs.statedb }

// Context returns the block context execution runs in.
func (bs *BlockState) Context() *vm.ExecutionContext { return bs.ctx }

// GasUsed returns the gas consumed by the block so far.
func (bs *BlockState) GasUsed() uint64 { return bs.gasUsed }

// GasLimit returns the gas limit of the block.
func (bs *BlockState) GasLimit() uint64 { return bs.gasLimit }

func (bs *BlockState) GetBalance(addr common.Address) *uint256.Int {
	return bs.statedb.GetBalance(addr)
}

func (bs *BlockState) GetNonce(addr common.Address) uint64 {
	return bs.statedb.GetNonce(addr)
}

// Snapshot returns an identifier for the current revision of the state.
func (bs *BlockState) Snapshot() int {
	return bs.statedb.Snapshot()
}

// Revert undoes every change made since the given snapshot. Later snapshots
// become invalid.
func (bs *BlockState) Revert(id int) {
	bs.statedb.RevertToSnapshot(id)
}

// DiscardSnapshot keeps the changes made since the snapshot.
func (bs *BlockState) DiscardSnapshot(id int) {
	bs.statedb.DiscardSnapshot(id)
}

// ClearJournal drops every snapshot, making the current state permanent.
func (bs *BlockState) ClearJournal() {
	bs.statedb.ClearJournal()
}

// Commit persists the pending changes and returns the new state root.
func (bs *BlockState) Commit() (common.Hash, error) {
	return bs.statedb.Commit()
}

// Root returns the state root of the last commit.
func (bs *BlockState) Root() common.Hash {
	return bs.statedb.Root()
}

// AccessLogs returns a copy of the store entries read and written so far.
func (bs *BlockState) AccessLogs() *state.AccessLogs {
	return bs.statedb.AccessLogs().Copy()
}

// ExecuteMessage runs msg on the interpreter and stamps the computation with
// the store entries accessed so far.
func (bs *BlockState) ExecuteMessage(msg *vm.Message) *vm.Computation {
	var comp *vm.Computation
	if msg.IsCreate() {
		comp = bs.interpreter.Create(bs.statedb, bs.ctx, msg)
	} else {
		comp = bs.interpreter.Call(bs.statedb, bs.ctx, msg)
	}
	logs := bs.statedb.AccessLogs()
	comp.Reads = maps.Clone(logs.Reads)
	return comp
}

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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/sunyihoo/evmchain/core/state"
	"github.com/sunyihoo/evmchain/core/stateless"
	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/core/vm"
)

// TransactionPackage pairs a transaction with the witness it needs to run
// without the full state.
type TransactionPackage struct {
	Tx      *types.Transaction
	Witness stateless.Witness
}

// CreateBlock builds and finalizes a child of parent out of witnessed
// transactions, without access to the full state. Each transaction runs on a
// fresh store holding its own witness plus every entry written by the
// transactions accepted before it. A transaction whose execution fails is
// left out of the block; an invalid one, or one whose witness holds an entry
// not keyed by its own hash, aborts the build.
//
// The returned witness holds every entry the block touched, enough to
// re-open its final state root.
// CreateBlock 仅凭交易见证数据构建区块：执行失败的交易被跳过，无效交易中止构建。
func CreateBlock(rules *ForkRules, interpreter vm.Interpreter, packages []TransactionPackage, prevHashes []common.Hash, coinbase common.Address, parent *types.Header, logger log.Logger) (*types.Block, stateless.Witness, error) {
	if rules == nil || interpreter == nil || parent == nil {
		return nil, nil, ErrNilCollaborator
	}
	if logger == nil {
		logger = log.Root()
	}
	logger = logger.New("fork", rules.Name())

	header, err := rules.CreateHeaderFromParent(parent, types.HeaderFields{types.FieldCoinbase: coinbase})
	if err != nil {
		return nil, nil, err
	}
	var (
		block    = types.NewBlockWithHeader(header)
		receipts types.Receipts
		recent   = stateless.New() // entries written by accepted transactions
		touched  = stateless.New()
	)
	for i, pkg := range packages {
		if err := pkg.Witness.Validate(); err != nil {
			return nil, nil, fmt.Errorf("transaction %d [%x]: %w", i, pkg.Tx.Hash(), err)
		}
		witness := stateless.Union(pkg.Witness, recent)
		touched.Merge(pkg.Witness)

		bs, err := NewBlockState(state.NewDatabase(witness.MakeStore()), block.Header(), prevHashes, rules, interpreter, logger)
		if err != nil {
			return nil, nil, err
		}
		comp, receipt, err := bs.ApplyTransaction(pkg.Tx)
		if err != nil {
			return nil, nil, err
		}
		if comp.IsError() {
			logger.Debug("Skipping failed transaction", "index", i, "hash", pkg.Tx.Hash(), "err", comp.Err)
			continue
		}
		receipts = append(receipts, receipt)
		block = appendTransaction(block, pkg.Tx, receipts, bs.Root())
		recent.Merge(comp.Writes)
	}
	final := stateless.Union(touched, recent)
	bs, err := NewBlockState(state.NewDatabase(final.MakeStore()), block.Header(), prevHashes, rules, interpreter, logger)
	if err != nil {
		return nil, nil, err
	}
	block, err = rules.Finalize(rules, bs, block)
	if err != nil {
		return nil, nil, err
	}
	final.Merge(bs.AccessLogs().Writes)

	logger.Info("Created stateless block", "number", block.Number(), "txs", len(block.Transactions()), "skipped", len(packages)-len(block.Transactions()), "root", block.Root())
	return block, final, nil
}

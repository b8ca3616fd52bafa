// Copyright 2014 The go-ethereum Authors
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
	"maps"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"

	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/core/vm"
	"github.com/sunyihoo/evmchain/params"
)

// stateTransition represents a state transition.
//
// == The State Transitioning Model
//
// A state transition is a change made when a transaction is applied to the
// current world state. The state transitioning model does all the necessary
// work to work out a valid new state root.
//
//  1. Intrinsic gas and nonce / balance checks
//  2. Buy gas, increment the sender nonce
//  3. Run the message (create or call)
//  4. Refund the unused gas, pay the coinbase
//
// 状态转换模型：校验、购买 gas、执行消息、退还剩余 gas 并支付给 coinbase。
type stateTransition struct {
	bs     *BlockState
	tx     *types.Transaction
	sender common.Address
	gp     *GasPool

	gasPrice  *uint256.Int
	value     *uint256.Int
	intrinsic uint64
}

// ApplyTransaction validates tx against the block state and executes it. An
// error is returned only when the transaction is invalid, in which case the
// state is untouched; a failed execution is reported through the computation
// and still consumes gas. On success the state is committed and the receipt
// carries the cumulative gas used by the block.
// ApplyTransaction 校验并执行交易。只有交易无效时返回错误，执行失败由 Computation 表示。
func (bs *BlockState) ApplyTransaction(tx *types.Transaction) (*vm.Computation, *types.Receipt, error) {
	st, err := bs.newStateTransition(tx)
	if err != nil {
		return nil, nil, err
	}
	if err := st.preCheck(); err != nil {
		return nil, nil, err
	}
	comp := st.execute()

	root, err := bs.Commit()
	if err != nil {
		return nil, nil, err
	}
	receipt := bs.rules.MakeReceipt(root, comp.IsError(), bs.gasUsed)
	receipt.TxHash = tx.Hash()
	receipt.GasUsed = st.gasUsed(comp)
	if comp.IsSuccess() {
		receipt.Logs = comp.Logs
	}
	receipt.Bloom = types.LogsBloom(receipt.Logs)
	if tx.IsContractCreation() {
		receipt.ContractAddress = comp.Msg.CreateAddress
	}
	logs := bs.statedb.AccessLogs()
	comp.Reads = maps.Clone(logs.Reads)
	comp.Writes = maps.Clone(logs.Writes)

	bs.logger.Debug("Applied transaction", "hash", tx.Hash(), "sender", st.sender, "gas", receipt.GasUsed, "failed", comp.IsError())
	return comp, receipt, nil
}

func (bs *BlockState) newStateTransition(tx *types.Transaction) (*stateTransition, error) {
	sender, err := types.Sender(bs.rules.Signer, tx)
	if err != nil {
		return nil, err
	}
	gasPrice, err := tx.GasPriceU256()
	if err != nil {
		return nil, fmt.Errorf("%w: gas price: %v", ErrInsufficientFundsForGas, err)
	}
	value, err := tx.ValueU256()
	if err != nil {
		return nil, fmt.Errorf("%w: value: %v", ErrInsufficientFunds, err)
	}
	return &stateTransition{
		bs:       bs,
		tx:       tx,
		sender:   sender,
		gp:       NewGasPool(bs.gasLimit, bs.gasUsed),
		gasPrice: gasPrice,
		value:    value,
	}, nil
}

func (st *stateTransition) preCheck() error {
	intrinsic, err := st.bs.rules.IntrinsicGas(st.tx.Data(), st.tx.IsContractCreation())
	if err != nil {
		return err
	}
	if st.tx.Gas() < intrinsic {
		return fmt.Errorf("%w: have %d, want %d", ErrIntrinsicGas, st.tx.Gas(), intrinsic)
	}
	st.intrinsic = intrinsic

	if err := ValidateTransaction(st.bs, st.sender, st.tx); err != nil {
		return err
	}
	if st.bs.GetNonce(st.sender)+1 == 0 {
		return fmt.Errorf("%w: address %v, nonce: %d", ErrNonceMax, st.sender.Hex(), st.tx.Nonce())
	}
	return nil
}

// buyGas debits the full gas allowance from the sender and reserves it in the
// block gas pool.
func (st *stateTransition) buyGas() {
	mgval := new(uint256.Int).Mul(uint256.NewInt(st.tx.Gas()), st.gasPrice)
	st.bs.statedb.SubBalance(st.sender, mgval)
	// Checked by ValidateMessage.
	_ = st.gp.SubGas(st.tx.Gas())
}

func (st *stateTransition) execute() *vm.Computation {
	statedb := st.bs.statedb

	st.buyGas()
	nonce := statedb.GetNonce(st.sender)
	statedb.SetNonce(st.sender, nonce+1)

	msg := &vm.Message{
		Sender:   st.sender,
		Origin:   st.sender,
		To:       st.tx.To(),
		GasPrice: st.gasPrice,
		Gas:      st.tx.Gas() - st.intrinsic,
		Value:    st.value,
	}
	if msg.IsCreate() {
		msg.CreateAddress = crypto.CreateAddress(st.sender, nonce)
		msg.Code = st.tx.Data()
	} else {
		msg.Data = st.tx.Data()
		msg.Code = statedb.GetCode(*msg.To)
		msg.CodeAddress = *msg.To
	}
	comp := st.bs.ExecuteMessage(msg)
	st.refundGas(comp)
	return comp
}

// refundGas returns the unused gas plus the capped refund to the sender and
// pays the consumed gas to the coinbase.
func (st *stateTransition) refundGas(comp *vm.Computation) {
	remaining := comp.GasRemaining()
	refund := st.refund(comp)

	if back := remaining + refund; back > 0 {
		amount := new(uint256.Int).Mul(uint256.NewInt(back), st.gasPrice)
		st.bs.statedb.AddBalance(st.sender, amount)
		st.gp.AddGas(back)
	}
	used := st.gasUsed(comp)
	fee := new(uint256.Int).Mul(uint256.NewInt(used), st.gasPrice)
	st.bs.statedb.AddBalance(st.bs.ctx.Coinbase, fee)

	st.bs.gasUsed = st.bs.gasLimit - st.gp.Gas()
}

// refund caps the computation refund at half of the consumed gas.
func (st *stateTransition) refund(comp *vm.Computation) uint64 {
	consumed := st.tx.Gas() - comp.GasRemaining()
	return min(comp.GasRefund(), consumed/params.RefundQuotient)
}

// gasUsed is the gas the transaction pays for, refund deducted.
func (st *stateTransition) gasUsed(comp *vm.Computation) uint64 {
	return st.tx.Gas() - comp.GasRemaining() - st.refund(comp)
}

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

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/core/vm"
)

// StateReader is the read-only view of a block state the message checks run
// against.
type StateReader interface {
	GetBalance(addr common.Address) *uint256.Int
	GetNonce(addr common.Address) uint64
	GasUsed() uint64
	GasLimit() uint64
}

// ValidateMessage checks that the sender can pay for the message and that it
// fits in the block:
//
//   - balance >= gas * gasPrice
//   - balance >= gas * gasPrice + value
//   - gasUsed + gas <= gasLimit
func ValidateMessage(st StateReader, msg *vm.Message) error {
	gasPrice, value := msg.GasPrice, msg.Value
	if gasPrice == nil {
		gasPrice = new(uint256.Int)
	}
	if value == nil {
		value = new(uint256.Int)
	}
	balance := st.GetBalance(msg.Sender)

	gasCost, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(msg.Gas), gasPrice)
	if overflow || balance.Lt(gasCost) {
		return fmt.Errorf("%w: address %v have %v want %v", ErrInsufficientFundsForGas, msg.Sender.Hex(), balance, gasCost)
	}
	totalCost, overflow := new(uint256.Int).AddOverflow(gasCost, value)
	if overflow || balance.Lt(totalCost) {
		return fmt.Errorf("%w: address %v have %v want %v", ErrInsufficientFunds, msg.Sender.Hex(), balance, totalCost)
	}
	used, limit := st.GasUsed(), st.GasLimit()
	if used+msg.Gas < used || used+msg.Gas > limit {
		return fmt.Errorf("%w: used %d + gas %d > limit %d", ErrGasLimitExceeded, used, msg.Gas, limit)
	}
	return nil
}

// ValidateTransaction runs the message checks on the transaction and requires
// its nonce to equal the sender's current nonce.
func ValidateTransaction(st StateReader, sender common.Address, tx *types.Transaction) error {
	gasPrice, err := tx.GasPriceU256()
	if err != nil {
		return fmt.Errorf("%w: gas price: %v", ErrInsufficientFundsForGas, err)
	}
	value, err := tx.ValueU256()
	if err != nil {
		return fmt.Errorf("%w: value: %v", ErrInsufficientFunds, err)
	}
	msg := &vm.Message{Sender: sender, Gas: tx.Gas(), GasPrice: gasPrice, Value: value}
	if err := ValidateMessage(st, msg); err != nil {
		return err
	}
	if have, want := tx.Nonce(), st.GetNonce(sender); have != want {
		return fmt.Errorf("%w: address %v, tx: %d state: %d", ErrInvalidNonce, sender.Hex(), have, want)
	}
	return nil
}

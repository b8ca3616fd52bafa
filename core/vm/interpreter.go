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

package vm

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/params"
)

// TransferInterpreter is an interpreter that moves value and deploys code but
// never runs opcodes: a call transfers value to the recipient, a creation
// stores the message data as the contract code.
// TransferInterpreter 只转移价值和部署代码，不执行任何操作码。
type TransferInterpreter struct {
	logger log.Logger
}

// NewTransferInterpreter creates a transfer-only interpreter.
func NewTransferInterpreter(logger log.Logger) *TransferInterpreter {
	if logger == nil {
		logger = log.Root()
	}
	return &TransferInterpreter{logger: logger.New("interpreter", "transfer")}
}

// Call implements Interpreter.
func (in *TransferInterpreter) Call(state StateDB, ctx *ExecutionContext, msg *Message) *Computation {
	comp := NewComputation(msg)
	value := valueOf(msg)

	// Fail if we're trying to execute above the call depth limit
	if msg.Depth > int(params.CallCreateDepth) {
		comp.Err = ErrDepth
		return comp
	}
	// Fail if we're trying to transfer more than the available balance
	if !value.IsZero() && !CanTransfer(state, msg.Sender, value) {
		comp.Err = ErrInsufficientBalance
		return comp
	}
	snapshot := state.Snapshot()

	to := msg.StorageAddress()
	if !state.Exist(to) {
		state.CreateAccount(to)
	}
	Transfer(state, msg.Sender, to, value)
	state.DiscardSnapshot(snapshot)

	in.logger.Trace("Executed call", "from", msg.Sender, "to", to, "value", value, "code", len(msg.Code))
	return comp
}

// Create implements Interpreter.
func (in *TransferInterpreter) Create(state StateDB, ctx *ExecutionContext, msg *Message) *Computation {
	comp := NewComputation(msg)
	value := valueOf(msg)
	address := msg.CreateAddress

	if msg.Depth > int(params.CallCreateDepth) {
		comp.Err = ErrDepth
		return comp
	}
	if !CanTransfer(state, msg.Sender, value) {
		comp.Err = ErrInsufficientBalance
		return comp
	}
	// Ensure there's no existing contract already at the designated address.
	contractHash := state.GetCodeHash(address)
	storageRoot := state.GetStorageRoot(address)
	if state.GetNonce(address) != 0 ||
		(contractHash != (common.Hash{}) && contractHash != types.EmptyCodeHash) ||
		(storageRoot != (common.Hash{}) && storageRoot != types.EmptyRootHash) {
		comp.Err = ErrContractAddressCollision
		comp.GasLeft = 0
		return comp
	}
	snapshot := state.Snapshot()
	if !state.Exist(address) {
		state.CreateAccount(address)
	}
	Transfer(state, msg.Sender, address, value)

	code := msg.Code
	if code == nil {
		code = msg.Data
	}
	if !comp.UseGas(uint64(len(code)) * params.CreateDataGas) {
		comp.Err = ErrCodeStoreOutOfGas
		state.RevertToSnapshot(snapshot)
		return comp
	}
	if len(code) > 0 {
		state.SetCode(address, code)
	}
	state.DiscardSnapshot(snapshot)

	comp.Output = code
	in.logger.Trace("Deployed contract", "from", msg.Sender, "address", address, "size", len(code))
	return comp
}

func valueOf(msg *Message) *uint256.Int {
	if msg.Value == nil {
		return new(uint256.Int)
	}
	return msg.Value
}

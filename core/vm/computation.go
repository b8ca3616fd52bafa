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

	"github.com/sunyihoo/evmchain/core/types"
)

// Computation is the outcome of applying one message.
// Computation 是执行一条消息的结果。
type Computation struct {
	Msg      *Message
	Output   []byte
	Gas      uint64 // gas the message started with
	GasLeft  uint64
	Refund   uint64
	Logs     []*types.Log
	Err      error
	Children []*Computation

	// Reads and Writes hold the state entries the enclosing transaction
	// loaded from and committed to the store, keyed by hash.
	Reads  map[common.Hash][]byte
	Writes map[common.Hash][]byte
}

// NewComputation starts the computation of a message with its full gas.
func NewComputation(msg *Message) *Computation {
	return &Computation{Msg: msg, Gas: msg.Gas, GasLeft: msg.Gas}
}

// IsError reports whether the message failed.
func (c *Computation) IsError() bool {
	return c.Err != nil
}

// IsSuccess reports whether the message completed.
func (c *Computation) IsSuccess() bool {
	return c.Err == nil
}

// GasRemaining returns the unused gas. A failed message burns all its gas.
func (c *Computation) GasRemaining() uint64 {
	if c.IsError() {
		return 0
	}
	return c.GasLeft
}

// GasRefund returns the refund counter. A failed message earns no refund.
func (c *Computation) GasRefund() uint64 {
	if c.IsError() {
		return 0
	}
	return c.Refund
}

// GasUsed returns the gas consumed by the message.
func (c *Computation) GasUsed() uint64 {
	return c.Gas - c.GasRemaining()
}

// UseGas deducts amount, failing with ErrOutOfGas if not enough is left.
func (c *Computation) UseGas(amount uint64) bool {
	if c.GasLeft < amount {
		c.GasLeft = 0
		c.Err = ErrOutOfGas
		return false
	}
	c.GasLeft -= amount
	return true
}

// AddChild records a nested computation and merges its logs.
func (c *Computation) AddChild(child *Computation) {
	c.Children = append(c.Children, child)
	if child.IsSuccess() {
		c.Logs = append(c.Logs, child.Logs...)
	}
}

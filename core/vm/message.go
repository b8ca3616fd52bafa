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
	"github.com/holiman/uint256"
)

// Message is a single call or contract creation handed to the interpreter. It
// carries no nonce or signature: those belong to the transaction envelope.
// Message 是交给解释器的一次调用或合约创建，不携带 nonce 和签名。
type Message struct {
	Sender   common.Address
	Origin   common.Address
	To       *common.Address // nil means contract creation
	GasPrice *uint256.Int
	Gas      uint64
	Value    *uint256.Int
	Data     []byte

	// Code is the bytecode to run: the init code of a creation, or the code
	// found at CodeAddress for a call.
	Code []byte

	// CreateAddress is the account a creation occupies.
	CreateAddress common.Address

	// CodeAddress is the account the code was read from.
	CodeAddress common.Address

	Depth int
}

// IsCreate reports whether the message creates a contract.
func (m *Message) IsCreate() bool {
	return m.To == nil
}

// StorageAddress is the account whose state the message runs against.
func (m *Message) StorageAddress() common.Address {
	if m.To == nil {
		return m.CreateAddress
	}
	return *m.To
}

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
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/sunyihoo/evmchain/params"
)

// ExecutionContext provides the EVM with auxiliary information about the
// block the message executes in. Once provided it shouldn't be modified.
// ExecutionContext 为 EVM 提供当前区块的辅助信息，提供后不应修改。
type ExecutionContext struct {
	Coinbase    common.Address
	Timestamp   uint64
	BlockNumber *big.Int
	Difficulty  *big.Int
	GasLimit    uint64

	// PrevHashes lists the ancestor hashes, parent first, at most
	// MaxPrevHeaderDepth of them.
	PrevHashes []common.Hash
}

// GetHash returns the hash of block n, or the zero hash when n is not one of
// the ancestors in the window.
func (ctx *ExecutionContext) GetHash(n uint64) common.Hash {
	number := ctx.BlockNumber.Uint64()
	if n >= number || number-n > params.MaxPrevHeaderDepth {
		return common.Hash{}
	}
	idx := number - n - 1
	if idx >= uint64(len(ctx.PrevHashes)) {
		return common.Hash{}
	}
	return ctx.PrevHashes[idx]
}

// CanTransfer checks whether there are enough funds in the address' account to make a transfer.
// This does not take the necessary gas in to account to make the transfer valid.
func CanTransfer(db StateDB, addr common.Address, amount *uint256.Int) bool {
	return db.GetBalance(addr).Cmp(amount) >= 0
}

// Transfer subtracts amount from sender and adds amount to recipient using the given Db
func Transfer(db StateDB, sender, recipient common.Address, amount *uint256.Int) {
	db.SubBalance(sender, amount)
	db.AddBalance(recipient, amount)
}

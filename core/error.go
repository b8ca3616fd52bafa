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
	"errors"
	"fmt"
)

var (
	// ErrKnownBlock is returned when a block to import is already known locally.
	ErrKnownBlock = errors.New("block already known")

	// ErrNoGenesis is returned when there is no Genesis Block.
	ErrNoGenesis = errors.New("genesis not found in chain")

	// ErrChainStopped is returned by chain mutations after Stop.
	ErrChainStopped = errors.New("blockchain is stopped")

	// ErrBlockMismatch is returned by the chain when re-executing an imported
	// block yields a different block.
	ErrBlockMismatch = errors.New("imported block does not match its re-execution")
)

// Configuration errors. They signal a setup defect and are returned from
// constructors, never at execution time.
var (
	// ErrMissingHook is returned when a fork rule set leaves a required hook unset.
	ErrMissingHook = errors.New("fork rules missing required hook")

	// ErrNilCollaborator is returned when a required collaborator is nil.
	ErrNilCollaborator = errors.New("required collaborator is nil")
)

// List of message pre-checking errors. All state transition messages will be
// pre-checked before execution. If any invalidation detected, the
// corresponding error should be returned which is defined here.
// 消息预检查错误列表。所有状态转换消息在执行前都会被预检查。
var (
	// ErrInvalidNonce is returned if the nonce of a transaction differs from
	// the sender's current nonce.
	ErrInvalidNonce = errors.New("invalid transaction nonce")

	// ErrNonceMax is returned if the nonce of a transaction sender account has
	// maximum allowed value and would become invalid if incremented.
	ErrNonceMax = errors.New("nonce has max value")

	// ErrGasLimitExceeded is returned if the gas of a message does not fit in
	// what is left of the block gas limit.
	ErrGasLimitExceeded = errors.New("message exceeds block gas limit")

	// ErrInsufficientFundsForGas is returned if the sender cannot pay for the
	// gas of a message: balance < gas * price.
	ErrInsufficientFundsForGas = errors.New("insufficient funds for gas * price")

	// ErrInsufficientFunds is returned if the total cost of executing a transaction
	// is higher than the balance of the user's account.
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")

	// ErrGasUintOverflow is returned when calculating gas usage.
	ErrGasUintOverflow = errors.New("gas uint64 overflow")

	// ErrIntrinsicGas is returned if the transaction is specified to use less gas
	// than required to start the invocation.
	ErrIntrinsicGas = errors.New("intrinsic gas too low")
)

// ErrInvalidBlock is the root of every block and uncle validation failure.
var ErrInvalidBlock = errors.New("invalid block")

// Block validation errors, all wrapping ErrInvalidBlock.
var (
	ErrInvalidGasLimit        = fmt.Errorf("%w: invalid gas limit", ErrInvalidBlock)
	ErrExtraDataTooLong       = fmt.Errorf("%w: extra-data too long", ErrInvalidBlock)
	ErrTimestampNotIncreasing = fmt.Errorf("%w: timestamp not after parent", ErrInvalidBlock)
	ErrTooManyUncles          = fmt.Errorf("%w: too many uncles", ErrInvalidBlock)
	ErrStateRootMissing       = fmt.Errorf("%w: state root not found", ErrInvalidBlock)
	ErrUncleHashMismatch      = fmt.Errorf("%w: uncle hash mismatch", ErrInvalidBlock)
	ErrInvalidUncle           = fmt.Errorf("%w: invalid uncle", ErrInvalidBlock)
)

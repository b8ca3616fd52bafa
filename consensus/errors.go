// Copyright 2017 The go-ethereum Authors
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

package consensus

import "errors"

var (
	// ErrUnknownAncestor is returned when validating a block requires an ancestor
	// that is unknown.
	// 当验证一个区块需要一个未知的祖先区块时返回 ErrUnknownAncestor。
	ErrUnknownAncestor = errors.New("unknown ancestor")

	// ErrInvalidNumber is returned if a block's number doesn't equal its parent's
	// plus one.
	ErrInvalidNumber = errors.New("invalid block number")

	// ErrOlderBlockTime is returned if a block's timestamp is older than its
	// parent's.
	ErrOlderBlockTime = errors.New("timestamp older than parent")

	// ErrInvalidUncleNumber is returned if an uncle is not older than the block
	// including it.
	ErrInvalidUncleNumber = errors.New("uncle not older than nephew")

	// ErrUncleGasUsed is returned if an uncle used more gas than its limit.
	ErrUncleGasUsed = errors.New("uncle gas used above gas limit")
)

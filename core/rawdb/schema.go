// Copyright 2018 The go-ethereum Authors
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

// Package rawdb contains a collection of low level database accessors.
package rawdb

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/common"
)

// The fields below define the low level database schema prefixing.
//
// State data (trie nodes and contract code) is stored under the bare 32 byte
// hash with no prefix. Witnesses are hash to value maps of exactly these
// entries, so a witness can be written straight into any store.
// 状态数据（trie 节点和合约代码）直接以 32 字节哈希为键存储，不加前缀。
var (
	// headHeaderKey tracks the latest known header's hash.
	headHeaderKey = []byte("LastHeader")

	// Data item prefixes (use single byte to avoid mixing data types).
	headerPrefix       = []byte("h") // headerPrefix + hash -> header
	headerHashSuffix   = []byte("n") // headerPrefix + num (uint64 big endian) + headerHashSuffix -> hash
	headerNumberPrefix = []byte("H") // headerNumberPrefix + hash -> num (uint64 big endian)

	blockBodyPrefix     = []byte("b") // blockBodyPrefix + hash -> block body
	blockReceiptsPrefix = []byte("r") // blockReceiptsPrefix + hash -> block receipts

	pendingTxPrefix = []byte("p") // pendingTxPrefix + tx hash -> transaction

	configPrefix = []byte("evmchain-config-") // config prefix for the db
)

// encodeBlockNumber encodes a block number as big endian uint64
func encodeBlockNumber(number uint64) []byte {
	enc := make([]byte, 8)
	binary.BigEndian.PutUint64(enc, number)
	return enc
}

// headerKey = headerPrefix + hash
func headerKey(hash common.Hash) []byte {
	return append(append([]byte{}, headerPrefix...), hash.Bytes()...)
}

// headerHashKey = headerPrefix + num (uint64 big endian) + headerHashSuffix
func headerHashKey(number uint64) []byte {
	return append(append(append([]byte{}, headerPrefix...), encodeBlockNumber(number)...), headerHashSuffix...)
}

// headerNumberKey = headerNumberPrefix + hash
func headerNumberKey(hash common.Hash) []byte {
	return append(append([]byte{}, headerNumberPrefix...), hash.Bytes()...)
}

// blockBodyKey = blockBodyPrefix + hash
func blockBodyKey(hash common.Hash) []byte {
	return append(append([]byte{}, blockBodyPrefix...), hash.Bytes()...)
}

// blockReceiptsKey = blockReceiptsPrefix + hash
func blockReceiptsKey(hash common.Hash) []byte {
	return append(append([]byte{}, blockReceiptsPrefix...), hash.Bytes()...)
}

// pendingTxKey = pendingTxPrefix + hash
func pendingTxKey(hash common.Hash) []byte {
	return append(append([]byte{}, pendingTxPrefix...), hash.Bytes()...)
}

// configKey = configPrefix + hash
func configKey(hash common.Hash) []byte {
	return append(append([]byte{}, configPrefix...), hash.Bytes()...)
}

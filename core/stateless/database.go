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

package stateless

import (
	"github.com/ethereum/go-ethereum/ethdb/memorydb"

	"github.com/sunyihoo/evmchain/core/rawdb"
)

// MakeStore imports the witness into a new hash keyed memory store. Entries
// are re-keyed by the hash of their blob, so a mislabelled entry is simply
// unreachable and trie expansion errors on it.
// MakeStore 将见证导入新的内存数据库，条目按内容哈希重新索引。
func (w Witness) MakeStore() *memorydb.Database {
	memdb := memorydb.NewWithCap(len(w))
	rawdb.WriteStateEntries(memdb, w)
	return memdb
}

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

package forks

// Fork is a numerical identifier of a proof-of-work protocol version. Each
// fork is activated at a block number configured in params.ChainConfig.
// Fork 是工作量证明时代协议版本的数字标识符，在 ChainConfig 配置的区块高度激活。
type Fork int

const (
	Frontier Fork = iota
	Homestead
	Byzantium
	Constantinople
	Petersburg
)

var forkNames = map[Fork]string{
	Frontier:       "frontier",
	Homestead:      "homestead",
	Byzantium:      "byzantium",
	Constantinople: "constantinople",
	Petersburg:     "petersburg",
}

// String implements fmt.Stringer.
func (f Fork) String() string {
	if name, ok := forkNames[f]; ok {
		return name
	}
	return "unknown"
}

// Latest is the most recent fork the engine knows the rules of.
const Latest = Petersburg

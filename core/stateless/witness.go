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

// Package stateless holds the partial state a transaction needs to execute
// without access to the full state.
package stateless

import (
	"errors"
	"fmt"
	"maps"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// ErrInvalidWitness is returned when a witness entry is not keyed by the
// keccak256 hash of its content.
var ErrInvalidWitness = errors.New("invalid witness")

// Witness encompasses the state entries required to apply a transaction: the
// account and storage trie nodes it walks and the code it runs, keyed by their
// keccak256 hash.
// Witness 包含执行交易所需的状态条目（trie 节点与合约代码），以哈希为键。
type Witness map[common.Hash][]byte

// New returns an empty witness.
func New() Witness {
	return make(Witness)
}

// FromBlobs builds a witness out of raw entries, deriving each key.
func FromBlobs(blobs ...[]byte) Witness {
	w := make(Witness, len(blobs))
	for _, blob := range blobs {
		w.Add(blob)
	}
	return w
}

// Add inserts a raw entry keyed by its hash.
func (w Witness) Add(blob []byte) common.Hash {
	hash := crypto.Keccak256Hash(blob)
	w[hash] = common.CopyBytes(blob)
	return hash
}

// Validate checks that every entry is keyed by the hash of its blob.
func (w Witness) Validate() error {
	for hash, blob := range w {
		if have := crypto.Keccak256Hash(blob); have != hash {
			return fmt.Errorf("%w: entry %x hashes to %x", ErrInvalidWitness, hash, have)
		}
	}
	return nil
}

// Copy deep-copies the witness.
func (w Witness) Copy() Witness {
	cpy := make(Witness, len(w))
	for hash, blob := range w {
		cpy[hash] = common.CopyBytes(blob)
	}
	return cpy
}

// Merge adds every entry of other, returning w for chaining.
func (w Witness) Merge(other map[common.Hash][]byte) Witness {
	maps.Copy(w, other)
	return w
}

// Union returns a fresh witness holding the entries of all the given ones.
func Union(witnesses ...map[common.Hash][]byte) Witness {
	w := New()
	for _, other := range witnesses {
		w.Merge(other)
	}
	return w
}

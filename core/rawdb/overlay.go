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

package rawdb

import (
	"errors"

	"github.com/ethereum/go-ethereum/ethdb"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
)

var errNotFound = errors.New("not found")

// Overlay is a key-value store layered over a read-only base. Reads fall
// through to the base, writes stay in memory and are gone once the overlay
// is dropped.
// Overlay 在只读底层存储之上叠加一层内存写入，丢弃后写入随之消失。
type Overlay struct {
	base    ethdb.KeyValueReader
	dirty   *memorydb.Database
	deleted map[string]struct{}
}

// NewOverlay returns an empty overlay over base.
func NewOverlay(base ethdb.KeyValueReader) *Overlay {
	return &Overlay{
		base:    base,
		dirty:   memorydb.New(),
		deleted: make(map[string]struct{}),
	}
}

// Has implements ethdb.KeyValueReader.
func (o *Overlay) Has(key []byte) (bool, error) {
	if _, gone := o.deleted[string(key)]; gone {
		return false, nil
	}
	if ok, _ := o.dirty.Has(key); ok {
		return true, nil
	}
	return o.base.Has(key)
}

// Get implements ethdb.KeyValueReader.
func (o *Overlay) Get(key []byte) ([]byte, error) {
	if _, gone := o.deleted[string(key)]; gone {
		return nil, errNotFound
	}
	if ok, _ := o.dirty.Has(key); ok {
		return o.dirty.Get(key)
	}
	return o.base.Get(key)
}

// Put implements ethdb.KeyValueWriter.
func (o *Overlay) Put(key []byte, value []byte) error {
	delete(o.deleted, string(key))
	return o.dirty.Put(key, value)
}

// Delete implements ethdb.KeyValueWriter.
func (o *Overlay) Delete(key []byte) error {
	o.deleted[string(key)] = struct{}{}
	return o.dirty.Delete(key)
}

// Len returns the number of entries written to the overlay.
func (o *Overlay) Len() int {
	return o.dirty.Len()
}

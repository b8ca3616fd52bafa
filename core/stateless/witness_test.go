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
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWitnessMergeAndCopy(t *testing.T) {
	a := FromBlobs([]byte("node-a"))
	b := FromBlobs([]byte("node-b"))

	union := Union(a, b)
	assert.Len(t, union, 2)
	assert.Len(t, a, 1, "union must not alias its inputs")

	cpy := union.Copy()
	cpy[crypto.Keccak256Hash([]byte("node-a"))][0] = 'X'
	assert.Equal(t, []byte("node-a"), union[crypto.Keccak256Hash([]byte("node-a"))])
}

func TestWitnessStore(t *testing.T) {
	w := New()
	hash := w.Add([]byte{0xc0, 0x01})
	store := w.MakeStore()

	blob, err := store.Get(hash.Bytes())
	require.NoError(t, err)
	assert.Equal(t, []byte{0xc0, 0x01}, blob)
}

func TestWitnessRejectsMislabelledEntries(t *testing.T) {
	genuine := FromBlobs([]byte("genuine"))
	require.NoError(t, genuine.Validate())

	claimed := crypto.Keccak256Hash([]byte("genuine"))
	forged := Witness{claimed: []byte("forged")}
	assert.ErrorIs(t, forged.Validate(), ErrInvalidWitness)

	// The store only serves blobs under their own hash.
	store := forged.MakeStore()
	ok, err := store.Has(claimed.Bytes())
	require.NoError(t, err)
	assert.False(t, ok)
	blob, err := store.Get(crypto.Keccak256([]byte("forged")))
	require.NoError(t, err)
	assert.Equal(t, []byte("forged"), blob)
}

func TestWitnessEncoding(t *testing.T) {
	w := FromBlobs([]byte("one"), []byte("two"), []byte("three"))
	enc, err := rlp.EncodeToBytes(w)
	require.NoError(t, err)

	// Map iteration order must not leak into the encoding.
	again, err := rlp.EncodeToBytes(w.Copy())
	require.NoError(t, err)
	assert.Equal(t, enc, again)

	var dec Witness
	require.NoError(t, rlp.DecodeBytes(enc, &dec))
	assert.Equal(t, w, dec)
}

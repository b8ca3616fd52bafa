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
	"bytes"
	"io"
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
)

// extWitness is a witness RLP encoding for transferring across clients. Keys
// are not transmitted, they are derived from the blobs.
type extWitness struct {
	State [][]byte
}

// toExtWitness converts our internal witness representation to the wire one,
// ordering the blobs by hash so the encoding is canonical.
func (w Witness) toExtWitness() *extWitness {
	hashes := make([]common.Hash, 0, len(w))
	for hash := range w {
		hashes = append(hashes, hash)
	}
	slices.SortFunc(hashes, func(a, b common.Hash) int { return bytes.Compare(a[:], b[:]) })

	ext := &extWitness{State: make([][]byte, 0, len(w))}
	for _, hash := range hashes {
		ext.State = append(ext.State, w[hash])
	}
	return ext
}

// EncodeRLP serializes a witness as RLP.
func (w Witness) EncodeRLP(wr io.Writer) error {
	return rlp.Encode(wr, w.toExtWitness())
}

// DecodeRLP decodes a witness from RLP.
func (w *Witness) DecodeRLP(s *rlp.Stream) error {
	var ext extWitness
	if err := s.Decode(&ext); err != nil {
		return err
	}
	*w = FromBlobs(ext.State...)
	return nil
}

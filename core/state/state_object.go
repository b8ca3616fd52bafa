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

package state

import (
	"bytes"
	"fmt"
	"maps"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/holiman/uint256"

	"github.com/sunyihoo/evmchain/core/types"
)

// Storage represents the storage slots of an account.
type Storage map[common.Hash]common.Hash

// Copy returns a deep-copied storage map.
func (s Storage) Copy() Storage {
	return maps.Clone(s)
}

// stateObject represents an Ethereum account which is being modified.
//
// The usage pattern is as follows:
// - First you need to obtain a state object.
// - Account values as well as storages can be accessed and modified through the object.
// - Finally, call commit to write the changed storage and update account data.
//
// stateObject 表示正在修改的以太坊账户。
type stateObject struct {
	db       *StateDB
	address  common.Address
	addrHash common.Hash
	data     gethtypes.StateAccount

	// Write caches.
	trie      *trie.Trie // storage trie, which becomes non-nil on first access
	code      []byte     // contract bytecode, which gets set when code is loaded
	dirtyCode bool       // true if the code was updated

	originStorage Storage // Storage entries read from the trie or already committed
	dirtyStorage  Storage // Storage entries modified since the last commit
}

// empty returns whether the account is considered empty.
func (s *stateObject) empty() bool {
	return s.data.Nonce == 0 && s.data.Balance.IsZero() && bytes.Equal(s.data.CodeHash, types.EmptyCodeHash.Bytes())
}

// newObject creates a state object.
func newObject(db *StateDB, address common.Address, acct *gethtypes.StateAccount) *stateObject {
	if acct == nil {
		acct = gethtypes.NewEmptyStateAccount()
	}
	if acct.Balance == nil {
		acct.Balance = new(uint256.Int)
	}
	return &stateObject{
		db:            db,
		address:       address,
		addrHash:      crypto.Keccak256Hash(address[:]),
		data:          *acct,
		originStorage: make(Storage),
		dirtyStorage:  make(Storage),
	}
}

// getTrie returns the associated storage trie, opening it on first use. Node
// lookups are hash keyed, so the storage trie is opened by its own root.
func (s *stateObject) getTrie() (*trie.Trie, error) {
	if s.trie == nil {
		tr, err := trie.New(trie.TrieID(s.data.Root), s.db.nodes)
		if err != nil {
			return nil, fmt.Errorf("can't open storage trie of %x: %w", s.address, err)
		}
		s.trie = tr
	}
	return s.trie, nil
}

// GetState retrieves a value associated with the given storage key.
func (s *stateObject) GetState(key common.Hash) common.Hash {
	if value, dirty := s.dirtyStorage[key]; dirty {
		return value
	}
	return s.GetCommittedState(key)
}

// GetCommittedState retrieves the value associated with the specific key
// without any mutations caused in the current execution.
func (s *stateObject) GetCommittedState(key common.Hash) common.Hash {
	if value, cached := s.originStorage[key]; cached {
		return value
	}
	var value common.Hash
	if s.data.Root == types.EmptyRootHash {
		s.originStorage[key] = value
		return value
	}
	tr, err := s.getTrie()
	if err != nil {
		s.db.setError(err)
		return common.Hash{}
	}
	enc, err := tr.Get(crypto.Keccak256(key[:]))
	if err != nil {
		s.db.setError(err)
		return common.Hash{}
	}
	if len(enc) > 0 {
		_, content, _, err := rlp.Split(enc)
		if err != nil {
			s.db.setError(err)
		}
		value.SetBytes(content)
	}
	s.originStorage[key] = value
	return value
}

// SetState updates a value in account storage.
func (s *stateObject) SetState(key, value common.Hash) {
	prev := s.GetState(key)
	if prev == value {
		return
	}
	s.db.journal.storageChange(s.address, key, prev)
	s.setState(key, value)
}

func (s *stateObject) setState(key, value common.Hash) {
	s.dirtyStorage[key] = value
	s.db.markDirty(s.address)
}

// commitStorage writes the dirty storage slots into the storage trie, commits
// it and updates the account's storage root.
func (s *stateObject) commitStorage() error {
	if len(s.dirtyStorage) == 0 {
		return nil
	}
	tr, err := s.getTrie()
	if err != nil {
		return err
	}
	for key, value := range s.dirtyStorage {
		if value == (common.Hash{}) {
			err = tr.Delete(crypto.Keccak256(key[:]))
		} else {
			v, _ := rlp.EncodeToBytes(common.TrimLeftZeroes(value[:]))
			err = tr.Update(crypto.Keccak256(key[:]), v)
		}
		if err != nil {
			return err
		}
		s.originStorage[key] = value
	}
	clear(s.dirtyStorage)

	root, nodes := tr.Commit(false)
	s.db.writeNodes(nodes)
	s.data.Root = root
	// A committed trie is unusable, reopen it lazily at the new root.
	s.trie = nil
	return nil
}

// AddBalance adds amount to s's balance.
// It is used to add funds to the destination account of a transfer.
func (s *stateObject) AddBalance(amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	s.SetBalance(new(uint256.Int).Add(s.Balance(), amount))
}

// SubBalance removes amount from s's balance.
// It is used to remove funds from the origin account of a transfer.
func (s *stateObject) SubBalance(amount *uint256.Int) {
	if amount.IsZero() {
		return
	}
	s.SetBalance(new(uint256.Int).Sub(s.Balance(), amount))
}

func (s *stateObject) SetBalance(amount *uint256.Int) {
	s.db.journal.balanceChange(s.address, s.data.Balance)
	s.setBalance(amount)
}

func (s *stateObject) setBalance(amount *uint256.Int) {
	s.data.Balance = amount.Clone()
	s.db.markDirty(s.address)
}

// Code returns the contract code associated with this object, if any.
func (s *stateObject) Code() []byte {
	if len(s.code) != 0 {
		return s.code
	}
	if bytes.Equal(s.CodeHash(), types.EmptyCodeHash.Bytes()) {
		return nil
	}
	code := s.db.nodes.code(common.BytesToHash(s.CodeHash()))
	if len(code) == 0 {
		s.db.setError(fmt.Errorf("can't load code hash %x", s.CodeHash()))
	}
	s.code = code
	return code
}

func (s *stateObject) SetCode(codeHash common.Hash, code []byte) {
	s.db.journal.setCode(s.address, s.Code(), common.BytesToHash(s.CodeHash()))
	s.setCode(codeHash, code)
}

func (s *stateObject) setCode(codeHash common.Hash, code []byte) {
	s.code = code
	s.data.CodeHash = codeHash[:]
	s.dirtyCode = true
	s.db.markDirty(s.address)
}

func (s *stateObject) SetNonce(nonce uint64) {
	s.db.journal.nonceChange(s.address, s.data.Nonce)
	s.setNonce(nonce)
}

func (s *stateObject) setNonce(nonce uint64) {
	s.data.Nonce = nonce
	s.db.markDirty(s.address)
}

func (s *stateObject) CodeHash() []byte {
	return s.data.CodeHash
}

func (s *stateObject) Balance() *uint256.Int {
	return s.data.Balance
}

func (s *stateObject) Nonce() uint64 {
	return s.data.Nonce
}

func (s *stateObject) Root() common.Hash {
	return s.data.Root
}

// nodeSetBlobs flattens the live nodes of a commit into hash keyed entries.
func nodeSetBlobs(set *trienode.NodeSet) map[common.Hash][]byte {
	if set == nil {
		return nil
	}
	blobs := make(map[common.Hash][]byte, len(set.Nodes))
	for _, n := range set.Nodes {
		// Deleted nodes carry no blob. Hash keyed storage never prunes them.
		if len(n.Blob) == 0 {
			continue
		}
		blobs[n.Hash] = n.Blob
	}
	return blobs
}

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

// Package state provides a caching layer atop the Ethereum state trie.
package state

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/trie/trienode"
	"github.com/holiman/uint256"
)

// StateDB structs within the ethereum protocol are used to store anything
// within the merkle trie. StateDBs take care of caching and storing
// nested states. It's the general query interface to retrieve:
//
// * Contracts
// * Accounts
//
// Every StateDB is anchored at its own state root and owns its own snapshot
// stack; several of them may share one backing store.
// StateDB 锚定在各自的状态根上，拥有独立的快照栈，可以共享同一个底层存储。
type StateDB struct {
	db    *Database
	nodes *nodeDatabase
	trie  *trie.Trie
	root  common.Hash // root of the last commit

	// This map holds 'live' objects, which will get modified while
	// processing a state transition.
	stateObjects      map[common.Address]*stateObject
	stateObjectsDirty map[common.Address]struct{}

	// Accounts to remove from the trie on the next commit: objects created
	// and then reverted away, possibly after they were committed.
	destructed mapset.Set[common.Address]

	// DB error.
	// State objects are used by the consensus core and VM which are
	// unable to deal with database-level errors. Any error that occurs
	// during a database read is memoized here and will eventually be
	// returned by StateDB.Commit.
	dbErr error

	// Journal of state modifications. This is the backbone of
	// Snapshot and RevertToSnapshot.
	journal *journal
}

// New creates a new state from a given trie.
func New(root common.Hash, db *Database) (*StateDB, error) {
	nodes := &nodeDatabase{db: db, logs: newAccessLogs()}
	tr, err := trie.New(trie.TrieID(root), nodes)
	if err != nil {
		return nil, err
	}
	return &StateDB{
		db:                db,
		nodes:             nodes,
		trie:              tr,
		root:              root,
		stateObjects:      make(map[common.Address]*stateObject),
		stateObjectsDirty: make(map[common.Address]struct{}),
		destructed:        mapset.NewThreadUnsafeSet[common.Address](),
		journal:           newJournal(),
	}, nil
}

// setError remembers the first non-nil error it is called with.
func (s *StateDB) setError(err error) {
	if s.dbErr == nil {
		s.dbErr = err
	}
}

// Error returns the memorized database failure occurred earlier.
func (s *StateDB) Error() error {
	return s.dbErr
}

// Database returns the backing state database.
func (s *StateDB) Database() *Database {
	return s.db
}

// AccessLogs returns the entries this state read from and wrote to the store.
func (s *StateDB) AccessLogs() *AccessLogs {
	return s.nodes.logs
}

func (s *StateDB) markDirty(addr common.Address) {
	s.stateObjectsDirty[addr] = struct{}{}
}

func (s *StateDB) writeNodes(set *trienode.NodeSet) {
	s.nodes.write(nodeSetBlobs(set))
}

// Exist reports whether the given account address exists in the state.
func (s *StateDB) Exist(addr common.Address) bool {
	return s.getStateObject(addr) != nil
}

// Empty returns whether the state object is either non-existent
// or empty according to the EIP161 specification (balance = nonce = code = 0)
func (s *StateDB) Empty(addr common.Address) bool {
	so := s.getStateObject(addr)
	return so == nil || so.empty()
}

// GetBalance retrieves the balance from the given address or 0 if object not found
func (s *StateDB) GetBalance(addr common.Address) *uint256.Int {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.Balance().Clone()
	}
	return new(uint256.Int)
}

// GetNonce retrieves the nonce from the given address or 0 if object not found
func (s *StateDB) GetNonce(addr common.Address) uint64 {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.Nonce()
	}
	return 0
}

// GetStorageRoot retrieves the storage root from the given address or empty
// if object not found.
func (s *StateDB) GetStorageRoot(addr common.Address) common.Hash {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.Root()
	}
	return common.Hash{}
}

func (s *StateDB) GetCode(addr common.Address) []byte {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.Code()
	}
	return nil
}

func (s *StateDB) GetCodeSize(addr common.Address) int {
	return len(s.GetCode(addr))
}

func (s *StateDB) GetCodeHash(addr common.Address) common.Hash {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return common.BytesToHash(stateObject.CodeHash())
	}
	return common.Hash{}
}

// GetState retrieves the value associated with the specific key.
func (s *StateDB) GetState(addr common.Address, hash common.Hash) common.Hash {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.GetState(hash)
	}
	return common.Hash{}
}

// GetCommittedState retrieves the value associated with the specific key
// without any mutations caused since the last commit.
func (s *StateDB) GetCommittedState(addr common.Address, hash common.Hash) common.Hash {
	stateObject := s.getStateObject(addr)
	if stateObject != nil {
		return stateObject.GetCommittedState(hash)
	}
	return common.Hash{}
}

/*
 * SETTERS
 */

// AddBalance adds amount to the account associated with addr.
func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int) {
	stateObject := s.getOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.AddBalance(amount)
	}
}

// SubBalance subtracts amount from the account associated with addr.
func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int) {
	stateObject := s.getOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SubBalance(amount)
	}
}

func (s *StateDB) SetBalance(addr common.Address, amount *uint256.Int) {
	stateObject := s.getOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetBalance(amount)
	}
}

func (s *StateDB) SetNonce(addr common.Address, nonce uint64) {
	stateObject := s.getOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetNonce(nonce)
	}
}

func (s *StateDB) SetCode(addr common.Address, code []byte) {
	stateObject := s.getOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetCode(crypto.Keccak256Hash(code), code)
	}
}

func (s *StateDB) SetState(addr common.Address, key, value common.Hash) {
	stateObject := s.getOrNewStateObject(addr)
	if stateObject != nil {
		stateObject.SetState(key, value)
	}
}

// CreateAccount explicitly creates a new state object, assuming that the
// account did not previously exist in the state. If the account already
// exists, this function is a no-op.
func (s *StateDB) CreateAccount(addr common.Address) {
	if s.getStateObject(addr) == nil {
		s.createObject(addr)
	}
}

//
// Setting, updating & deleting state object methods.
//

// getStateObject retrieves a state object given by the address, returning nil if
// the object is not found or was deleted in this execution context.
func (s *StateDB) getStateObject(addr common.Address) *stateObject {
	// Prefer live objects if any is available
	if obj := s.stateObjects[addr]; obj != nil {
		return obj
	}
	if s.destructed.Contains(addr) {
		return nil
	}
	enc, err := s.trie.Get(crypto.Keccak256(addr[:]))
	if err != nil {
		s.setError(fmt.Errorf("getStateObject (%x) error: %w", addr.Bytes(), err))
		return nil
	}
	if len(enc) == 0 {
		return nil
	}
	data := new(gethtypes.StateAccount)
	if err := rlp.DecodeBytes(enc, data); err != nil {
		s.setError(fmt.Errorf("can't decode account %x: %w", addr.Bytes(), err))
		return nil
	}
	// Insert into the live set
	obj := newObject(s, addr, data)
	s.stateObjects[addr] = obj
	return obj
}

// getOrNewStateObject retrieves a state object or create a new state object if nil.
func (s *StateDB) getOrNewStateObject(addr common.Address) *stateObject {
	obj := s.getStateObject(addr)
	if obj == nil {
		obj = s.createObject(addr)
	}
	return obj
}

// createObject creates a new state object. The assumption is held there is no
// existing account with the given address, otherwise it will be silently overwritten.
func (s *StateDB) createObject(addr common.Address) *stateObject {
	obj := newObject(s, addr, nil)
	s.journal.createObject(addr)
	s.destructed.Remove(addr)
	s.stateObjects[addr] = obj
	s.markDirty(addr)
	return obj
}

// Snapshot returns an identifier for the current revision of the state.
func (s *StateDB) Snapshot() int {
	return s.journal.snapshot()
}

// RevertToSnapshot reverts all state changes made since the given revision.
// Revisions taken after it are invalidated.
func (s *StateDB) RevertToSnapshot(revid int) {
	s.journal.revertToSnapshot(revid, s)
}

// DiscardSnapshot keeps the changes made since the given revision and forgets
// the revision together with every revision taken after it.
func (s *StateDB) DiscardSnapshot(revid int) {
	s.journal.discardSnapshot(revid)
}

// ClearJournal drops every journal entry and revision. Changes made so far can
// no longer be reverted.
// ClearJournal 清空日志，此后已有的修改无法再回滚。
func (s *StateDB) ClearJournal() {
	s.journal.reset()
}

// Root returns the state root of the last commit.
func (s *StateDB) Root() common.Hash {
	return s.root
}

// Commit writes the state to the underlying store and returns the new root.
// The journal is left intact, so revisions taken before the commit can still
// be reverted and committed again.
// Commit 将状态写入底层存储并返回新的状态根，日志保持不变。
func (s *StateDB) Commit() (common.Hash, error) {
	if s.dbErr != nil {
		return common.Hash{}, fmt.Errorf("commit aborted due to earlier error: %v", s.dbErr)
	}
	for _, addr := range s.destructed.ToSlice() {
		if err := s.trie.Delete(crypto.Keccak256(addr[:])); err != nil {
			return common.Hash{}, err
		}
	}
	s.destructed.Clear()

	for addr := range s.stateObjectsDirty {
		obj, live := s.stateObjects[addr]
		if !live {
			continue
		}
		if err := obj.commitStorage(); err != nil {
			return common.Hash{}, err
		}
		if obj.dirtyCode {
			if len(obj.code) > 0 {
				s.nodes.writeCode(common.BytesToHash(obj.CodeHash()), obj.code)
			}
			obj.dirtyCode = false
		}
		data, err := rlp.EncodeToBytes(&obj.data)
		if err != nil {
			return common.Hash{}, err
		}
		if err := s.trie.Update(obj.addrHash[:], data); err != nil {
			return common.Hash{}, err
		}
	}
	clear(s.stateObjectsDirty)

	root, nodes := s.trie.Commit(false)
	s.writeNodes(nodes)

	// The committed trie is unusable, reopen it at the new root.
	tr, err := trie.New(trie.TrieID(root), s.nodes)
	if err != nil {
		return common.Hash{}, err
	}
	s.trie, s.root = tr, root
	return root, nil
}

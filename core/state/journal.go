// Copyright 2016 The go-ethereum Authors
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
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

type revision struct {
	id           int
	journalIndex int
}

// journalEntry is a modification entry in the state change journal that can be
// reverted on demand.
// journalEntry 是状态变更日志中的修改条目，可以按需撤销。
type journalEntry interface {
	// revert undoes the changes introduced by this journal entry.
	revert(*StateDB)

	// dirtied returns the Ethereum address modified by this journal entry.
	dirtied() *common.Address
}

// journal contains the list of state modifications applied since the journal
// was last cleared. These are tracked to be able to be reverted in the case of
// an execution exception or request for reversal. Trie commits do not clear
// the journal, so a revision taken before a commit can still be reverted.
// journal 记录自上次清空以来的状态修改，提交 trie 不会清空日志。
type journal struct {
	entries []journalEntry

	validRevisions []revision
	nextRevisionId int
}

// newJournal creates a new initialized journal.
func newJournal() *journal {
	return new(journal)
}

// reset clears the journal, after this operation the journal can be used anew.
func (j *journal) reset() {
	j.entries = j.entries[:0]
	j.validRevisions = j.validRevisions[:0]
	j.nextRevisionId = 0
}

// snapshot returns an identifier for the current revision of the state.
func (j *journal) snapshot() int {
	id := j.nextRevisionId
	j.nextRevisionId++
	j.validRevisions = append(j.validRevisions, revision{id, j.length()})
	return id
}

// find returns the index of the revision in the stack of valid revisions.
func (j *journal) find(revid int) int {
	idx := sort.Search(len(j.validRevisions), func(i int) bool {
		return j.validRevisions[i].id >= revid
	})
	if idx == len(j.validRevisions) || j.validRevisions[idx].id != revid {
		panic(fmt.Errorf("revision id %v cannot be reverted", revid))
	}
	return idx
}

// revertToSnapshot reverts all state changes made since the given revision.
func (j *journal) revertToSnapshot(revid int, s *StateDB) {
	idx := j.find(revid)
	snapshot := j.validRevisions[idx].journalIndex

	// Replay the journal to undo changes and remove invalidated snapshots
	j.revert(s, snapshot)
	j.validRevisions = j.validRevisions[:idx]
}

// discardSnapshot drops the revision and every revision taken after it. The
// changes stay in the journal so an enclosing revision can still undo them.
// discardSnapshot 丢弃该修订及其之后的修订，但保留日志条目供外层修订回滚。
func (j *journal) discardSnapshot(revid int) {
	j.validRevisions = j.validRevisions[:j.find(revid)]
}

// append inserts a new modification entry to the end of the change journal.
func (j *journal) append(entry journalEntry) {
	j.entries = append(j.entries, entry)
}

// revert undoes a batch of journalled modifications along with any reverted
// dirty handling too.
func (j *journal) revert(statedb *StateDB, snapshot int) {
	for i := len(j.entries) - 1; i >= snapshot; i-- {
		// Undo the changes made by the operation
		j.entries[i].revert(statedb)

		// The reverted values differ from the committed ones, so the account
		// must be written again on the next commit.
		if addr := j.entries[i].dirtied(); addr != nil {
			statedb.markDirty(*addr)
		}
	}
	j.entries = j.entries[:snapshot]
}

// length returns the current number of entries in the journal.
func (j *journal) length() int {
	return len(j.entries)
}

func (j *journal) createObject(addr common.Address) {
	j.append(createObjectChange{account: addr})
}

func (j *journal) balanceChange(addr common.Address, previous *uint256.Int) {
	j.append(balanceChange{
		account: addr,
		prev:    previous.Clone(),
	})
}

func (j *journal) nonceChange(addr common.Address, prev uint64) {
	j.append(nonceChange{
		account: addr,
		prev:    prev,
	})
}

func (j *journal) setCode(addr common.Address, prevCode []byte, prevHash common.Hash) {
	j.append(codeChange{
		account:  addr,
		prevCode: prevCode,
		prevHash: prevHash,
	})
}

func (j *journal) storageChange(addr common.Address, key, prev common.Hash) {
	j.append(storageChange{
		account:  addr,
		key:      key,
		prevalue: prev,
	})
}

type (
	// Changes to the account trie.
	createObjectChange struct {
		account common.Address
	}

	// Changes to individual accounts.
	balanceChange struct {
		account common.Address
		prev    *uint256.Int
	}
	nonceChange struct {
		account common.Address
		prev    uint64
	}
	storageChange struct {
		account  common.Address
		key      common.Hash
		prevalue common.Hash
	}
	codeChange struct {
		account  common.Address
		prevCode []byte
		prevHash common.Hash
	}
)

// revert drops the object. It may have been committed in the meantime, so the
// account is also queued for removal from the trie.
func (ch createObjectChange) revert(s *StateDB) {
	delete(s.stateObjects, ch.account)
	s.destructed.Add(ch.account)
}

func (ch createObjectChange) dirtied() *common.Address {
	return &ch.account
}

func (ch balanceChange) revert(s *StateDB) {
	s.getStateObject(ch.account).setBalance(ch.prev)
}

func (ch balanceChange) dirtied() *common.Address {
	return &ch.account
}

func (ch nonceChange) revert(s *StateDB) {
	s.getStateObject(ch.account).setNonce(ch.prev)
}

func (ch nonceChange) dirtied() *common.Address {
	return &ch.account
}

func (ch codeChange) revert(s *StateDB) {
	s.getStateObject(ch.account).setCode(ch.prevHash, ch.prevCode)
}

func (ch codeChange) dirtied() *common.Address {
	return &ch.account
}

func (ch storageChange) revert(s *StateDB) {
	s.getStateObject(ch.account).setState(ch.key, ch.prevalue)
}

func (ch storageChange) dirtied() *common.Address {
	return &ch.account
}

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
	"bytes"
	"maps"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/sunyihoo/evmchain/core/types"
)

var (
	testAddrs = []common.Address{
		common.HexToAddress("0x01"),
		common.HexToAddress("0x02"),
		common.HexToAddress("0xdeadbeef"),
	}
	testKeys  = []common.Hash{common.HexToHash("0x00"), common.HexToHash("0x11")}
	testVals  = []common.Hash{{}, common.HexToHash("0x01"), common.HexToHash("0xff00")}
	testCodes = [][]byte{nil, {0x60, 0x00}, {0x60, 0x01, 0x60, 0x02}}
)

func newTestState(t testing.TB) *StateDB {
	sdb, err := New(types.EmptyRootHash, NewDatabase(memorydb.New()))
	require.NoError(t, err)
	return sdb
}

func TestBalanceNonceCodeStorage(t *testing.T) {
	sdb := newTestState(t)
	addr := testAddrs[0]

	require.False(t, sdb.Exist(addr))
	sdb.AddBalance(addr, uint256.NewInt(42))
	sdb.SubBalance(addr, uint256.NewInt(2))
	sdb.SetNonce(addr, 7)
	sdb.SetCode(addr, testCodes[1])
	sdb.SetState(addr, testKeys[1], testVals[2])

	require.True(t, sdb.Exist(addr))
	require.Equal(t, uint64(40), sdb.GetBalance(addr).Uint64())
	require.Equal(t, uint64(7), sdb.GetNonce(addr))
	require.Equal(t, testCodes[1], sdb.GetCode(addr))
	require.Equal(t, testVals[2], sdb.GetState(addr, testKeys[1]))
	require.Equal(t, common.Hash{}, sdb.GetCommittedState(addr, testKeys[1]))
}

func TestCommitPersists(t *testing.T) {
	disk := memorydb.New()
	sdb, err := New(types.EmptyRootHash, NewDatabase(disk))
	require.NoError(t, err)

	addr := testAddrs[2]
	sdb.SetBalance(addr, uint256.NewInt(1000))
	sdb.SetCode(addr, testCodes[2])
	sdb.SetState(addr, testKeys[0], testVals[1])
	root, err := sdb.Commit()
	require.NoError(t, err)
	require.NotEqual(t, types.EmptyRootHash, root)
	require.Equal(t, root, sdb.Root())
	require.True(t, sdb.Database().HasState(root))

	reopened, err := New(root, NewDatabase(disk))
	require.NoError(t, err)
	require.Equal(t, uint64(1000), reopened.GetBalance(addr).Uint64())
	require.Equal(t, testCodes[2], reopened.GetCode(addr))
	require.Equal(t, testVals[1], reopened.GetState(addr, testKeys[0]))
	require.NoError(t, reopened.Error())

	// Everything the reopened state touched is in its read log.
	reads := reopened.AccessLogs().Reads
	require.Contains(t, reads, root)
	require.Contains(t, reads, reopened.GetCodeHash(addr))
	require.Contains(t, reads, reopened.GetStorageRoot(addr))
}

func TestCommitLogsWrites(t *testing.T) {
	disk := memorydb.New()
	sdb, err := New(types.EmptyRootHash, NewDatabase(disk))
	require.NoError(t, err)
	sdb.AddBalance(testAddrs[0], uint256.NewInt(1))
	root, err := sdb.Commit()
	require.NoError(t, err)

	writes := sdb.AccessLogs().Writes
	require.Contains(t, writes, root)

	// The write log alone is enough to open the state elsewhere.
	witness := memorydb.New()
	for hash, blob := range writes {
		require.NoError(t, witness.Put(hash.Bytes(), blob))
	}
	other, err := New(root, NewDatabase(witness))
	require.NoError(t, err)
	require.Equal(t, uint64(1), other.GetBalance(testAddrs[0]).Uint64())
}

func TestMissingRoot(t *testing.T) {
	_, err := New(common.HexToHash("0xabcdef"), NewDatabase(memorydb.New()))
	require.Error(t, err)
}

func TestRevertAcrossCommit(t *testing.T) {
	sdb := newTestState(t)
	a, b := testAddrs[0], testAddrs[1]
	sdb.AddBalance(a, uint256.NewInt(10))
	before, err := sdb.Commit()
	require.NoError(t, err)

	snap := sdb.Snapshot()
	sdb.AddBalance(a, uint256.NewInt(5))
	sdb.AddBalance(b, uint256.NewInt(3))
	sdb.SetState(a, testKeys[1], testVals[1])
	_, err = sdb.Commit()
	require.NoError(t, err)

	sdb.RevertToSnapshot(snap)
	require.False(t, sdb.Exist(b))
	require.Equal(t, uint64(10), sdb.GetBalance(a).Uint64())
	require.Equal(t, common.Hash{}, sdb.GetState(a, testKeys[1]))

	after, err := sdb.Commit()
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestNestedSnapshots(t *testing.T) {
	sdb := newTestState(t)
	addr := testAddrs[0]

	outer := sdb.Snapshot()
	sdb.SetNonce(addr, 1)
	inner := sdb.Snapshot()
	sdb.SetNonce(addr, 2)
	sdb.DiscardSnapshot(inner)
	require.Equal(t, uint64(2), sdb.GetNonce(addr))

	// The inner revision is gone, its changes are not.
	require.Panics(t, func() { sdb.RevertToSnapshot(inner) })
	sdb.RevertToSnapshot(outer)
	require.False(t, sdb.Exist(addr))
}

func TestClearJournal(t *testing.T) {
	sdb := newTestState(t)
	snap := sdb.Snapshot()
	sdb.AddBalance(testAddrs[0], uint256.NewInt(1))
	sdb.ClearJournal()
	require.Panics(t, func() { sdb.RevertToSnapshot(snap) })
	require.Equal(t, uint64(1), sdb.GetBalance(testAddrs[0]).Uint64())
}

// modelAccount is the expected view of one account.
type modelAccount struct {
	balance uint64
	nonce   uint64
	code    []byte
	storage map[common.Hash]common.Hash
}

type model map[common.Address]*modelAccount

func (m model) copy() model {
	cpy := make(model, len(m))
	for addr, acct := range m {
		c := *acct
		c.storage = maps.Clone(acct.storage)
		cpy[addr] = &c
	}
	return cpy
}

func (m model) account(addr common.Address) *modelAccount {
	if m[addr] == nil {
		m[addr] = &modelAccount{storage: make(map[common.Hash]common.Hash)}
	}
	return m[addr]
}

func checkModel(t *rapid.T, sdb *StateDB, m model) {
	for _, addr := range testAddrs {
		acct := m[addr]
		if acct == nil {
			if sdb.Exist(addr) {
				t.Fatalf("account %x should not exist", addr)
			}
			continue
		}
		if !sdb.Exist(addr) {
			t.Fatalf("account %x should exist", addr)
		}
		if have := sdb.GetBalance(addr).Uint64(); have != acct.balance {
			t.Fatalf("balance mismatch for %x: have %d, want %d", addr, have, acct.balance)
		}
		if have := sdb.GetNonce(addr); have != acct.nonce {
			t.Fatalf("nonce mismatch for %x: have %d, want %d", addr, have, acct.nonce)
		}
		if have := sdb.GetCode(addr); !bytes.Equal(have, acct.code) {
			t.Fatalf("code mismatch for %x: have %x, want %x", addr, have, acct.code)
		}
		for _, key := range testKeys {
			if have, want := sdb.GetState(addr, key), acct.storage[key]; have != want {
				t.Fatalf("storage mismatch for %x/%x: have %x, want %x", addr, key, have, want)
			}
		}
	}
	if err := sdb.Error(); err != nil {
		t.Fatalf("state error: %v", err)
	}
}

type revisionCheckpoint struct {
	id    int
	state model
}

// TestSnapshotRevertProperty checks that reverting to a revision restores the
// account view of the moment it was taken, whatever happened in between.
func TestSnapshotRevertProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		disk := memorydb.New()
		sdb, err := New(types.EmptyRootHash, NewDatabase(disk))
		if err != nil {
			t.Fatal(err)
		}
		var (
			expect = make(model)
			stack  []revisionCheckpoint
		)
		steps := rapid.IntRange(1, 60).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			addr := rapid.SampledFrom(testAddrs).Draw(t, "addr")
			switch rapid.IntRange(0, 7).Draw(t, "op") {
			case 0:
				amount := rapid.Uint64Range(0, 100).Draw(t, "amount")
				sdb.AddBalance(addr, uint256.NewInt(amount))
				expect.account(addr).balance += amount
			case 1:
				nonce := rapid.Uint64Range(0, 10).Draw(t, "nonce")
				sdb.SetNonce(addr, nonce)
				expect.account(addr).nonce = nonce
			case 2:
				code := rapid.SampledFrom(testCodes).Draw(t, "code")
				sdb.SetCode(addr, code)
				expect.account(addr).code = code
			case 3:
				key := rapid.SampledFrom(testKeys).Draw(t, "key")
				val := rapid.SampledFrom(testVals).Draw(t, "val")
				sdb.SetState(addr, key, val)
				expect.account(addr).storage[key] = val
			case 4:
				stack = append(stack, revisionCheckpoint{id: sdb.Snapshot(), state: expect.copy()})
			case 5:
				if len(stack) == 0 {
					continue
				}
				idx := rapid.IntRange(0, len(stack)-1).Draw(t, "revert")
				sdb.RevertToSnapshot(stack[idx].id)
				expect = stack[idx].state.copy()
				stack = stack[:idx]
			case 6:
				if len(stack) == 0 {
					continue
				}
				idx := rapid.IntRange(0, len(stack)-1).Draw(t, "discard")
				sdb.DiscardSnapshot(stack[idx].id)
				stack = stack[:idx]
			case 7:
				if _, err := sdb.Commit(); err != nil {
					t.Fatalf("commit failed: %v", err)
				}
			}
			checkModel(t, sdb, expect)
		}
		// The committed trie holds exactly the modelled view.
		root, err := sdb.Commit()
		if err != nil {
			t.Fatalf("commit failed: %v", err)
		}
		reopened, err := New(root, NewDatabase(disk))
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		checkModel(t, reopened, expect)
	})
}

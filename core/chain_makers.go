// Copyright 2015 The go-ethereum Authors
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

package core

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/sunyihoo/evmchain/core/rawdb"
	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/core/vm"
	"github.com/sunyihoo/evmchain/params"
)

// BlockGen creates blocks for testing.
// See GenerateChain for a detailed explanation.
// BlockGen 用于创建测试用的区块。
type BlockGen struct {
	i      int
	cm     *chainMaker
	parent *types.Block
	header *types.Header
	rules  *ForkRules
	vm     *VM // created by the first transaction, the header is fixed from then on

	uncles []*types.Header
}

// SetCoinbase sets the coinbase of the generated block.
// It must be called before adding transactions.
func (b *BlockGen) SetCoinbase(addr common.Address) {
	b.mutable("coinbase")
	b.header.Coinbase = addr
}

// SetExtra sets the extra data field of the generated block.
func (b *BlockGen) SetExtra(data []byte) {
	b.mutable("extra-data")
	b.header.Extra = data
}

// SetNonce sets the nonce field of the generated block.
func (b *BlockGen) SetNonce(nonce types.BlockNonce) {
	b.mutable("nonce")
	b.header.Nonce = nonce
}

// OffsetTime modifies the time instance of a block, implicitly changing its
// associated difficulty.
// OffsetTime 修改区块的时间，隐式更改其难度。
func (b *BlockGen) OffsetTime(seconds int64) {
	b.mutable("time")
	b.header.Time = uint64(int64(b.header.Time) + seconds)
	if b.header.Time <= b.parent.Time() {
		panic("block time out of range")
	}
	b.header.Difficulty = b.rules.ComputeDifficulty(b.header.Time, b.parent.Header())
}

// Difficulty returns the currently calculated difficulty of the block.
func (b *BlockGen) Difficulty() *big.Int {
	return new(big.Int).Set(b.header.Difficulty)
}

func (b *BlockGen) mutable(field string) {
	if b.vm != nil {
		panic(field + " must be set before adding transactions")
	}
}

func (b *BlockGen) getVM() *VM {
	if b.vm == nil {
		v, err := NewVM(b.header, b.cm.db, b.rules, b.cm.interpreter, b.cm.logger)
		if err != nil {
			panic(err)
		}
		b.vm = v
	}
	return b.vm
}

// AddTx adds a transaction to the generated block. If no coinbase has been
// set, the block's coinbase is the zero address.
//
// AddTx panics if the transaction is invalid. A transaction whose execution
// fails is included all the same.
func (b *BlockGen) AddTx(tx *types.Transaction) {
	if err := b.AddTxWithErr(tx); err != nil {
		panic(err)
	}
}

// AddTxWithErr is AddTx returning the validation error instead of panicking.
func (b *BlockGen) AddTxWithErr(tx *types.Transaction) error {
	_, _, err := b.getVM().ApplyTransaction(tx)
	return err
}

// GetBalance returns the balance of the given address at the generated block.
func (b *BlockGen) GetBalance(addr common.Address) *uint256.Int {
	bs, err := b.getVM().State()
	if err != nil {
		panic(err)
	}
	return bs.GetBalance(addr)
}

// TxNonce returns the next valid transaction nonce for the account at addr.
func (b *BlockGen) TxNonce(addr common.Address) uint64 {
	bs, err := b.getVM().State()
	if err != nil {
		panic(err)
	}
	return bs.GetNonce(addr)
}

// Number returns the block number of the block being generated.
func (b *BlockGen) Number() *big.Int {
	return new(big.Int).Set(b.header.Number)
}

// Timestamp returns the timestamp of the block being generated.
func (b *BlockGen) Timestamp() uint64 {
	return b.header.Time
}

// Gas returns the amount of gas left in the current block.
func (b *BlockGen) Gas() uint64 {
	if b.vm == nil {
		return b.header.GasLimit
	}
	return b.header.GasLimit - b.vm.Block().GasUsed()
}

// Signer returns a valid signer instance for the current block.
func (b *BlockGen) Signer() types.Signer {
	return b.rules.Signer
}

// AddUncle adds an uncle header to the generated block. The uncle gets the
// block's timestamp, a difficulty computed against its parent and the gas
// limit of its parent.
func (b *BlockGen) AddUncle(h *types.Header) {
	h.Time = b.header.Time

	parent, err := b.cm.db.Header(h.ParentHash)
	if err != nil {
		panic(fmt.Errorf("uncle parent: %w", err))
	}
	h.Difficulty = b.rules.ComputeDifficulty(h.Time, parent)
	h.GasLimit = parent.GasLimit
	b.uncles = append(b.uncles, h)
}

// PrevBlock returns a previously generated block by number. It panics if
// num is greater or equal to the number of the block being generated.
// For index -1, PrevBlock returns the parent block given to GenerateChain.
func (b *BlockGen) PrevBlock(index int) *types.Block {
	if index >= b.i {
		panic(fmt.Errorf("block index %d out of range (%d,%d)", index, -1, b.i))
	}
	if index == -1 {
		return b.cm.bottom
	}
	return b.cm.chain[index]
}

// GenerateChain creates a chain of n blocks. The first block's
// parent will be the provided parent. db is used to store
// intermediate states and should contain the parent's state trie.
//
// The generator function is called with a new block generator for
// every block. Any transactions and uncles added to the generator
// become part of the block. If gen is nil, the blocks will be empty
// and their coinbase will be the zero address.
//
// Blocks created by GenerateChain are stored in db but never become its
// head. They can be inserted into a chain sharing the same genesis.
// GenerateChain 生成 n 个区块组成的链，区块写入 db 但不设置为链头。
func GenerateChain(config *params.ChainConfig, parent *types.Block, db *rawdb.ChainDB, n int, gen func(int, *BlockGen)) ([]*types.Block, []types.Receipts) {
	cm := newChainMaker(parent, config, db)
	for i := 0; i < n; i++ {
		number := new(big.Int).Add(parent.Number(), common.Big1)
		rules := RulesForBlock(config, number)
		header, err := rules.CreateHeaderFromParent(parent.Header(), nil)
		if err != nil {
			panic(err)
		}
		b := &BlockGen{i: i, cm: cm, parent: parent, header: header, rules: rules}
		if gen != nil {
			gen(i, b)
		}
		v := b.getVM()
		var overrides types.HeaderFields
		if len(b.uncles) > 0 {
			overrides = types.HeaderFields{UnclesOverride: b.uncles}
		}
		block, err := v.MineBlock(overrides)
		if err != nil {
			panic(fmt.Sprintf("block %d: %v", number, err))
		}
		receipts := v.Receipts()
		db.WriteBlock(block, receipts)
		cm.add(block, receipts)
		parent = block
	}
	return cm.chain, cm.receipts
}

// GenerateChainWithGenesis is a wrapper of GenerateChain which will initialize
// genesis block to database first according to the provided genesis specification
// then generate chain on top.
func GenerateChainWithGenesis(genesis *Genesis, n int, gen func(int, *BlockGen)) (*rawdb.ChainDB, []*types.Block, []types.Receipts) {
	db := rawdb.NewMemoryChainDB()
	block, err := genesis.Commit(db)
	if err != nil {
		panic(err)
	}
	blocks, receipts := GenerateChain(genesis.Config, block, db, n, gen)
	return db, blocks, receipts
}

type chainMaker struct {
	bottom      *types.Block
	config      *params.ChainConfig
	db          *rawdb.ChainDB
	interpreter vm.Interpreter
	logger      log.Logger
	chain       []*types.Block
	receipts    []types.Receipts
}

func newChainMaker(bottom *types.Block, config *params.ChainConfig, db *rawdb.ChainDB) *chainMaker {
	logger := log.Root().New("gen", "chain")
	return &chainMaker{
		bottom:      bottom,
		config:      config,
		db:          db,
		interpreter: vm.NewTransferInterpreter(logger),
		logger:      logger,
	}
}

func (cm *chainMaker) add(b *types.Block, r types.Receipts) {
	cm.chain = append(cm.chain, b)
	cm.receipts = append(cm.receipts, r)
}

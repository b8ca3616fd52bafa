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

package core

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/event"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/metrics"

	"github.com/sunyihoo/evmchain/consensus"
	"github.com/sunyihoo/evmchain/core/rawdb"
	"github.com/sunyihoo/evmchain/core/stateless"
	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/core/vm"
	"github.com/sunyihoo/evmchain/internal/syncx"
	"github.com/sunyihoo/evmchain/params"
)

var (
	headBlockGauge  = metrics.NewRegisteredGauge("chain/head/block", nil)
	headHeaderGauge = metrics.NewRegisteredGauge("chain/head/header", nil)

	blockInsertTimer     = metrics.NewRegisteredResettingTimer("chain/inserts", nil)
	blockExecutionTimer  = metrics.NewRegisteredResettingTimer("chain/execution", nil)
	blockValidationTimer = metrics.NewRegisteredResettingTimer("chain/validation", nil)
	blockWriteTimer      = metrics.NewRegisteredResettingTimer("chain/write", nil)
)

// ChainHeadEvent is posted when a block becomes the new head.
type ChainHeadEvent struct {
	Header *types.Header
}

// Chain drives the VMs of a proof-of-work chain stored in a chain database:
// it picks the protocol version of every block, mines new blocks on top of
// the head and imports blocks produced elsewhere by re-executing them.
//
// Insertions are serialised. The longest chain wins; there is no
// total-difficulty fork choice.
// Chain 在链数据库之上驱动各协议版本的 VM：挖出新区块或重新执行导入外部区块。
type Chain struct {
	config      *params.ChainConfig
	db          *rawdb.ChainDB
	interpreter vm.Interpreter
	validator   *BlockValidator
	genesis     common.Hash
	logger      log.Logger

	chainHeadFeed event.Feed
	chainmu       *syncx.ClosableMutex // serialises insertions, closed by Stop
}

// NewChain opens the chain stored in db. The genesis block must have been
// committed already, see SetupGenesisBlock.
func NewChain(db *rawdb.ChainDB, interpreter vm.Interpreter, logger log.Logger) (*Chain, error) {
	if db == nil || interpreter == nil {
		return nil, ErrNilCollaborator
	}
	genesis := rawdb.ReadCanonicalHash(db, 0)
	if genesis == (common.Hash{}) {
		return nil, ErrNoGenesis
	}
	config := rawdb.ReadChainConfig(db, genesis)
	if config == nil {
		return nil, fmt.Errorf("%w: config of %x missing", ErrNoGenesis, genesis)
	}
	if logger == nil {
		logger = log.Root()
	}
	bc := &Chain{
		config:      config,
		db:          db,
		interpreter: interpreter,
		validator:   NewBlockValidator(db),
		genesis:     genesis,
		logger:      logger,
		chainmu:     syncx.NewClosableMutex(),
	}
	head, err := bc.CurrentHeader()
	if err != nil {
		return nil, err
	}
	headBlockGauge.Update(int64(head.Number.Uint64()))
	headHeaderGauge.Update(int64(head.Number.Uint64()))
	bc.logger.Info("Loaded most recent local header", "number", head.Number, "hash", head.Hash(), "age", common.PrettyAge(time.Unix(int64(head.Time), 0)))
	return bc, nil
}

// Config returns the chain configuration.
func (bc *Chain) Config() *params.ChainConfig { return bc.config }

// DB returns the chain database.
func (bc *Chain) DB() *rawdb.ChainDB { return bc.db }

// Genesis returns the hash of the genesis block.
func (bc *Chain) Genesis() common.Hash { return bc.genesis }

// CurrentHeader returns the head of the canonical chain.
func (bc *Chain) CurrentHeader() (*types.Header, error) {
	return bc.db.HeadHeader()
}

// GetBlockByHash returns a stored block.
func (bc *Chain) GetBlockByHash(hash common.Hash) (*types.Block, error) {
	return bc.db.Block(hash)
}

// GetBlockByNumber returns the canonical block of the given height.
func (bc *Chain) GetBlockByNumber(number uint64) (*types.Block, error) {
	hash := rawdb.ReadCanonicalHash(bc.db, number)
	if hash == (common.Hash{}) {
		return nil, fmt.Errorf("%w: number %d", rawdb.ErrHeaderNotFound, number)
	}
	return bc.db.Block(hash)
}

// RulesAt returns the protocol version parameters of the given block.
func (bc *Chain) RulesAt(header *types.Header) *ForkRules {
	return RulesForBlock(bc.config, header.Number)
}

// GetVM returns a VM whose in-progress block is header.
func (bc *Chain) GetVM(header *types.Header) (*VM, error) {
	return NewVM(header, bc.db, bc.RulesAt(header), bc.interpreter, bc.logger)
}

// NewBlockVM returns a VM building a child of parent. overrides replace the
// derived header fields.
func (bc *Chain) NewBlockVM(parent *types.Header, overrides types.HeaderFields) (*VM, error) {
	rules := RulesForBlock(bc.config, new(big.Int).Add(parent.Number, common.Big1))
	header, err := rules.CreateHeaderFromParent(parent, overrides)
	if err != nil {
		return nil, err
	}
	return NewVM(header, bc.db, rules, bc.interpreter, bc.logger)
}

// MineBlock mines a block holding txs on top of the head and makes it the new
// head. overrides may carry header fields as well as the UnclesOverride key.
// An invalid transaction aborts mining.
func (bc *Chain) MineBlock(txs []*types.Transaction, overrides types.HeaderFields) (*types.Block, error) {
	if !bc.chainmu.TryLock() {
		return nil, ErrChainStopped
	}
	defer bc.chainmu.Unlock()

	head, err := bc.CurrentHeader()
	if err != nil {
		return nil, err
	}
	v, err := bc.NewBlockVM(head, overrides.Without(UnclesOverride))
	if err != nil {
		return nil, err
	}
	pstart := time.Now()
	for i, tx := range txs {
		if _, _, err := v.ApplyTransaction(tx); err != nil {
			return nil, fmt.Errorf("transaction %d [%x]: %w", i, tx.Hash(), err)
		}
	}
	var mine types.HeaderFields
	if uncles, ok := overrides[UnclesOverride]; ok {
		mine = types.HeaderFields{UnclesOverride: uncles}
	}
	block, err := v.MineBlock(mine)
	if err != nil {
		return nil, err
	}
	blockExecutionTimer.UpdateSince(pstart)
	bc.writeBlock(block, v.Receipts())
	return block, nil
}

// BuildStatelessBlock creates a child of the head out of witnessed
// transactions and makes it the new head. The block is re-executed against
// the full state first; the witness is persisted only once both executions
// agree.
func (bc *Chain) BuildStatelessBlock(packages []TransactionPackage, coinbase common.Address) (*types.Block, stateless.Witness, error) {
	if !bc.chainmu.TryLock() {
		return nil, nil, ErrChainStopped
	}
	defer bc.chainmu.Unlock()

	head, err := bc.CurrentHeader()
	if err != nil {
		return nil, nil, err
	}
	prevHashes, err := GetPrevHashes(head.Hash(), bc.db)
	if err != nil {
		return nil, nil, err
	}
	rules := RulesForBlock(bc.config, new(big.Int).Add(head.Number, common.Big1))
	block, witness, err := CreateBlock(rules, bc.interpreter, packages, prevHashes, coinbase, head, bc.logger)
	if err != nil {
		return nil, nil, err
	}
	// Re-execute against the full state, which also yields the receipts.
	v, err := bc.NewBlockVM(head, nil)
	if err != nil {
		return nil, nil, err
	}
	imported, err := v.ImportBlock(block)
	if err != nil {
		return nil, nil, err
	}
	if err := ValidateState(block, imported); err != nil {
		return nil, nil, err
	}
	if err := bc.validator.ValidateBlock(block); err != nil {
		return nil, nil, err
	}
	bc.db.PersistWitness(witness)
	bc.writeBlock(block, v.Receipts())
	return block, witness, nil
}

// InsertBlock imports a block produced elsewhere. The body is checked
// against the header, the transactions are re-executed on top of the parent
// and the result must match the block exactly.
func (bc *Chain) InsertBlock(block *types.Block) error {
	if !bc.chainmu.TryLock() {
		return ErrChainStopped
	}
	defer bc.chainmu.Unlock()

	if bc.db.HasHeader(block.Hash()) {
		return ErrKnownBlock
	}
	start := time.Now()
	parent, err := bc.db.Header(block.ParentHash())
	if err != nil {
		if errors.Is(err, rawdb.ErrHeaderNotFound) {
			return fmt.Errorf("%w: %x", consensus.ErrUnknownAncestor, block.ParentHash())
		}
		return err
	}
	if err := bc.validator.ValidateBody(block); err != nil {
		return err
	}
	v, err := bc.NewBlockVM(parent, types.HeaderFields{types.FieldCoinbase: block.Coinbase()})
	if err != nil {
		return err
	}
	pstart := time.Now()
	imported, err := v.ImportBlock(block)
	if err != nil {
		return err
	}
	vstart := time.Now()
	blockExecutionTimer.Update(vstart.Sub(pstart))

	if err := ValidateState(block, imported); err != nil {
		return err
	}
	if imported.Hash() != block.Hash() {
		return fmt.Errorf("%w: hash (remote: %x local: %x)", ErrBlockMismatch, block.Hash(), imported.Hash())
	}
	blockValidationTimer.UpdateSince(vstart)

	bc.writeBlock(imported, v.Receipts())
	blockInsertTimer.UpdateSince(start)
	return nil
}

// InsertChain imports blocks in order. It returns the index of the block
// that failed, with the error.
func (bc *Chain) InsertChain(chain types.Blocks) (int, error) {
	for i, block := range chain {
		if err := bc.InsertBlock(block); err != nil {
			return i, err
		}
	}
	return len(chain), nil
}

// writeBlock persists block and its receipts and moves the head if the block
// extends the chain.
func (bc *Chain) writeBlock(block *types.Block, receipts types.Receipts) {
	wstart := time.Now()
	bc.db.WriteBlock(block, receipts)
	blockWriteTimer.UpdateSince(wstart)

	head, err := bc.CurrentHeader()
	if err == nil && block.Number().Cmp(head.Number) <= 0 {
		bc.logger.Info("Inserted side block", "number", block.Number(), "hash", block.Hash())
		return
	}
	bc.db.SetHead(block.Header())
	headBlockGauge.Update(int64(block.NumberU64()))
	headHeaderGauge.Update(int64(block.NumberU64()))
	bc.logger.Info("Inserted new block", "number", block.Number(), "hash", block.Hash(), "txs", len(block.Transactions()), "gas", block.GasUsed(), "root", block.Root())
	bc.chainHeadFeed.Send(ChainHeadEvent{Header: block.Header()})
}

// SubscribeChainHeadEvent registers a subscription of ChainHeadEvent.
func (bc *Chain) SubscribeChainHeadEvent(ch chan<- ChainHeadEvent) event.Subscription {
	return bc.chainHeadFeed.Subscribe(ch)
}

// Stop waits for a running insertion to finish and rejects all later ones
// with ErrChainStopped. It must be called at most once.
func (bc *Chain) Stop() {
	bc.chainmu.Close()
	bc.logger.Info("Blockchain stopped")
}

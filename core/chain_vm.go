// Copyright 2019 The go-ethereum Authors
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
	"slices"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/holiman/uint256"

	"github.com/sunyihoo/evmchain/core/rawdb"
	"github.com/sunyihoo/evmchain/core/state"
	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/core/vm"
	"github.com/sunyihoo/evmchain/params"
)

// UnclesOverride is the MineBlock/PackBlock override key carrying the uncle
// headers of the block. Every other key names a header field.
const UnclesOverride = "uncles"

// VM builds, imports and finalizes blocks of one protocol version. It holds
// the in-progress block on top of a parent stored in the chain database.
// VM 负责单个协议版本下区块的构建、导入与最终化，持有正在构建的区块。
type VM struct {
	db          *rawdb.ChainDB
	statedb     *state.Database
	rules       *ForkRules
	interpreter vm.Interpreter
	validator   *BlockValidator
	logger      log.Logger

	block      *types.Block
	receipts   types.Receipts
	prevHashes []common.Hash // cached ancestors of block, nil until first use
}

// NewVM creates a VM whose in-progress block has the given header. If the
// block body is already stored, it is loaded together with its receipts.
func NewVM(header *types.Header, db *rawdb.ChainDB, rules *ForkRules, interpreter vm.Interpreter, logger log.Logger) (*VM, error) {
	if header == nil || db == nil || rules == nil || interpreter == nil {
		return nil, ErrNilCollaborator
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Root()
	}
	v := &VM{
		db:          db,
		statedb:     state.NewDatabase(db),
		rules:       rules,
		interpreter: interpreter,
		validator:   NewBlockValidator(db),
		logger:      logger.New("fork", rules.Name()),
		block:       types.NewBlockWithHeader(header),
	}
	hash := header.Hash()
	if body := rawdb.ReadBody(db, hash); body != nil {
		v.block = v.block.WithBody(*body)
		v.receipts = rawdb.ReadReceipts(db, hash)
	}
	return v, nil
}

// Block returns the in-progress block.
func (v *VM) Block() *types.Block { return v.block }

// Receipts returns the receipts of the transactions applied so far.
func (v *VM) Receipts() types.Receipts { return slices.Clone(v.receipts) }

// Rules returns the protocol version parameters of the VM.
func (v *VM) Rules() *ForkRules { return v.rules }

// State opens the state of the in-progress block.
func (v *VM) State() (*BlockState, error) {
	prevHashes, err := v.PreviousHashes()
	if err != nil {
		return nil, err
	}
	return NewBlockState(v.statedb, v.block.Header(), prevHashes, v.rules, v.interpreter, v.logger)
}

// PreviousHashes returns the hashes of the ancestors of the in-progress
// block, parent first.
func (v *VM) PreviousHashes() ([]common.Hash, error) {
	if v.prevHashes == nil {
		hashes, err := GetPrevHashes(v.block.ParentHash(), v.db)
		if err != nil {
			return nil, err
		}
		v.prevHashes = hashes
	}
	return v.prevHashes, nil
}

// GetPrevHashes walks back from lastHash and returns at most
// MaxPrevHeaderDepth hashes, lastHash first. The walk stops at the first
// ancestor that is not stored. A zero lastHash yields no hashes; an unknown
// one is an error.
func GetPrevHashes(lastHash common.Hash, chain HeaderReader) ([]common.Hash, error) {
	if lastHash == (common.Hash{}) {
		return []common.Hash{}, nil
	}
	header, err := chain.Header(lastHash)
	if err != nil {
		return nil, err
	}
	hashes := make([]common.Hash, 0, params.MaxPrevHeaderDepth)
	for len(hashes) < params.MaxPrevHeaderDepth {
		hashes = append(hashes, header.Hash())
		if header.ParentHash == (common.Hash{}) {
			break
		}
		parent, err := chain.Header(header.ParentHash)
		if err != nil {
			break
		}
		header = parent
	}
	return hashes, nil
}

// ApplyTransaction applies tx on top of the in-progress block and appends it
// together with its receipt. An invalid transaction leaves the block
// unchanged; a failed execution is still included.
func (v *VM) ApplyTransaction(tx *types.Transaction) (*vm.Computation, *types.Block, error) {
	bs, err := v.State()
	if err != nil {
		return nil, nil, err
	}
	comp, receipt, err := bs.ApplyTransaction(tx)
	if err != nil {
		return nil, nil, err
	}
	v.receipts = append(slices.Clone(v.receipts), receipt)
	v.block = appendTransaction(v.block, tx, v.receipts, bs.Root())
	return comp, v.block, nil
}

// appendTransaction returns block extended with tx. The header commits to
// the post state root, the cumulative gas and the transaction and receipt
// roots; the uncles are kept.
func appendTransaction(block *types.Block, tx *types.Transaction, receipts types.Receipts, root common.Hash) *types.Block {
	txs := append(slices.Clone(block.Transactions()), tx)

	header := block.Header()
	header.Root = root
	header.GasUsed = receipts[len(receipts)-1].CumulativeGasUsed
	header.Bloom = types.CreateBloom(receipts)
	header.TxHash = types.DeriveSha(txs, trie.NewStackTrie(nil))
	header.ReceiptHash = types.DeriveSha(receipts, trie.NewStackTrie(nil))

	return types.NewBlockWithHeader(header).WithBody(types.Body{Transactions: txs, Uncles: block.Uncles()})
}

// ConfigureHeader applies overrides to the header of the in-progress block
// and returns the result.
func (v *VM) ConfigureHeader(overrides types.HeaderFields) (*types.Header, error) {
	var parent *types.Header
	if overrides.Has(types.FieldTime) && !v.block.IsGenesis() {
		var err error
		if parent, err = v.db.Header(v.block.ParentHash()); err != nil {
			return nil, err
		}
	}
	header, err := v.rules.ConfigureHeader(v.block.Header(), parent, overrides)
	if err != nil {
		return nil, err
	}
	v.block = v.block.WithSeal(header)
	return header, nil
}

// ImportBlock re-executes block on top of the parent of the in-progress
// block: the sealing fields are copied, every transaction applied in order
// and the result mined with the block's uncles. The first invalid
// transaction aborts the import.
// ImportBlock 在父区块之上重新执行给定区块的交易并返回挖出的区块。
func (v *VM) ImportBlock(block *types.Block) (*types.Block, error) {
	header := block.Header()
	_, err := v.ConfigureHeader(types.HeaderFields{
		types.FieldCoinbase:  header.Coinbase,
		types.FieldGasLimit:  header.GasLimit,
		types.FieldTime:      header.Time,
		types.FieldExtra:     header.Extra,
		types.FieldMixDigest: header.MixDigest,
		types.FieldNonce:     header.Nonce,
		types.FieldUncleHash: types.CalcUncleHash(block.Uncles()),
	})
	if err != nil {
		return nil, err
	}
	for i, tx := range block.Transactions() {
		if _, _, err := v.ApplyTransaction(tx); err != nil {
			return nil, fmt.Errorf("transaction %d [%x]: %w", i, tx.Hash(), err)
		}
	}
	v.block = v.block.WithBody(types.Body{Transactions: v.block.Transactions(), Uncles: block.Uncles()})

	imported, err := v.MineBlock(nil)
	if err != nil {
		return nil, err
	}
	v.logger.Debug("Imported block", "number", imported.Number(), "hash", imported.Hash(), "txs", len(imported.Transactions()), "uncles", len(imported.Uncles()))
	return imported, nil
}

// MineBlock packs the in-progress block with overrides, validates it and,
// unless it is the genesis block, finalizes it. The result becomes the
// in-progress block.
func (v *VM) MineBlock(overrides types.HeaderFields) (*types.Block, error) {
	packed, err := v.PackBlock(v.block, overrides)
	if err != nil {
		return nil, err
	}
	v.block = packed
	if packed.IsGenesis() {
		return packed, nil
	}
	bs, err := v.State()
	if err != nil {
		return nil, err
	}
	final, err := v.rules.Finalize(v.rules, bs, packed)
	if err != nil {
		return nil, err
	}
	v.block = final
	v.logger.Info("Mined block", "number", final.Number(), "hash", final.Hash(), "root", final.Root(), "txs", len(final.Transactions()))
	return final, nil
}

// PackBlock applies overrides to block and validates the result. The
// UnclesOverride key replaces the uncles and, unless the uncle hash is given
// too, derives it from them. Any other key must name a header field.
func (v *VM) PackBlock(block *types.Block, overrides types.HeaderFields) (*types.Block, error) {
	fields := overrides.Without(UnclesOverride)
	if value, ok := overrides[UnclesOverride]; ok {
		uncles, ok := value.([]*types.Header)
		if !ok {
			return nil, fmt.Errorf("%w: %s: want []*types.Header, have %T", types.ErrInvalidOverride, UnclesOverride, value)
		}
		block = block.WithBody(types.Body{Transactions: block.Transactions(), Uncles: uncles})
		if !fields.Has(types.FieldUncleHash) {
			fields[types.FieldUncleHash] = types.CalcUncleHash(uncles)
		}
	}
	header := block.Header()
	if err := fields.Apply(header); err != nil {
		return nil, err
	}
	packed := block.WithSeal(header)
	if err := v.ValidateBlock(packed); err != nil {
		return nil, err
	}
	return packed, nil
}

// StateInTempBlock runs fn against the state of a temporary child of the
// in-progress block. Every change fn makes is reverted afterwards, and even
// committed state never reaches the chain database: the temporary state lives
// on an in-memory overlay that is dropped when fn returns.
func (v *VM) StateInTempBlock(fn func(*BlockState) error) error {
	header := v.block.Header()
	temp, err := v.rules.CreateHeaderFromParent(header, types.HeaderFields{types.FieldCoinbase: header.Coinbase})
	if err != nil {
		return err
	}
	prev, err := v.PreviousHashes()
	if err != nil {
		return err
	}
	prevHashes := append([]common.Hash{header.Hash()}, prev...)
	if len(prevHashes) > params.MaxPrevHeaderDepth {
		prevHashes = prevHashes[:params.MaxPrevHeaderDepth]
	}
	overlay := state.NewDatabase(rawdb.NewOverlay(v.db))
	bs, err := NewBlockState(overlay, temp, prevHashes, v.rules, v.interpreter, v.logger)
	if err != nil {
		return err
	}
	snapshot := bs.Snapshot()
	defer bs.Revert(snapshot)

	return fn(bs)
}

// BytecodeCall describes a raw message run by ExecuteBytecode. Nil fields
// take their defaults: the gas limit of the block, a gas price of 1, the
// zero address for sender, origin and recipient, no value and no data.
type BytecodeCall struct {
	Code        []byte
	Gas         *uint64
	GasPrice    *uint256.Int
	To          *common.Address
	Sender      *common.Address
	Origin      *common.Address
	Value       *uint256.Int
	Data        []byte
	CodeAddress *common.Address

	// Create runs Data as init code of a new contract instead of calling To.
	Create bool
}

// ExecuteBytecode runs a message on the state of the in-progress block
// without persisting anything. The gas fee is debited from the sender and
// its nonce incremented before the message runs, as for a transaction.
func (v *VM) ExecuteBytecode(call BytecodeCall) (*vm.Computation, error) {
	gas := v.block.GasLimit()
	if call.Gas != nil {
		gas = *call.Gas
	}
	gasPrice := uint256.NewInt(1)
	if call.GasPrice != nil {
		gasPrice = call.GasPrice
	}
	value := new(uint256.Int)
	if call.Value != nil {
		value = call.Value
	}
	var sender, to common.Address
	if call.Sender != nil {
		sender = *call.Sender
	}
	if call.To != nil {
		to = *call.To
	}
	origin := sender
	if call.Origin != nil {
		origin = *call.Origin
	}
	bs, err := v.State()
	if err != nil {
		return nil, err
	}
	statedb := bs.StateDB()

	fee, overflow := new(uint256.Int).MulOverflow(uint256.NewInt(gas), gasPrice)
	if balance := statedb.GetBalance(sender); overflow || balance.Lt(fee) {
		return nil, fmt.Errorf("%w: address %v have %v want %v", ErrInsufficientFundsForGas, sender.Hex(), balance, fee)
	}
	nonce := statedb.GetNonce(sender)
	if nonce+1 == 0 {
		return nil, fmt.Errorf("%w: address %v", ErrNonceMax, sender.Hex())
	}
	statedb.SubBalance(sender, fee)
	statedb.SetNonce(sender, nonce+1)

	msg := &vm.Message{
		Sender:   sender,
		Origin:   origin,
		GasPrice: gasPrice,
		Gas:      gas,
		Value:    value,
	}
	if call.Create {
		msg.CreateAddress = crypto.CreateAddress(sender, nonce)
		msg.Code = common.CopyBytes(call.Data)
	} else {
		msg.To = &to
		msg.Data = common.CopyBytes(call.Data)
		msg.Code = call.Code
		msg.CodeAddress = to
		if call.CodeAddress != nil {
			msg.CodeAddress = *call.CodeAddress
		}
	}
	return bs.ExecuteMessage(msg), nil
}

// ValidateBlock checks the structural rules of block against the chain.
func (v *VM) ValidateBlock(block *types.Block) error {
	return v.validator.ValidateBlock(block)
}

// ValidateUncle checks uncle against the block including it.
func (v *VM) ValidateUncle(block *types.Block, uncle *types.Header) error {
	return v.validator.ValidateUncle(block, uncle)
}

// GetPendingTransaction returns a submitted but not yet included transaction.
func (v *VM) GetPendingTransaction(hash common.Hash) (*types.Transaction, error) {
	return v.db.PendingTransaction(hash)
}

// CumulativeGasUsed returns the gas consumed by all transactions of a stored
// block, taken from its last receipt.
func (v *VM) CumulativeGasUsed(block *types.Block) (uint64, error) {
	if len(block.Transactions()) == 0 {
		return 0, nil
	}
	receipts, err := v.db.Receipts(block.Hash())
	if err != nil {
		return 0, err
	}
	if len(receipts) == 0 {
		return 0, nil
	}
	return receipts[len(receipts)-1].CumulativeGasUsed, nil
}

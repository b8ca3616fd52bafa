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

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"github.com/sunyihoo/evmchain/core/rawdb"
	"github.com/sunyihoo/evmchain/core/state"
	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/params"
)

//go:generate go run github.com/fjl/gencodec -type Genesis -field-override genesisSpecMarshaling -out gen_genesis.go

var errGenesisNoConfig = errors.New("genesis has no chain config")

// Genesis specifies the header fields, state of a genesis block. It also defines hard
// fork switch-over blocks through the chain configuration.
type Genesis struct {
	Config     *params.ChainConfig    `json:"config"`
	Nonce      uint64                 `json:"nonce"`
	Timestamp  uint64                 `json:"timestamp"`
	ExtraData  []byte                 `json:"extraData"`
	GasLimit   uint64                 `json:"gasLimit"   gencodec:"required"`
	Difficulty *big.Int               `json:"difficulty" gencodec:"required"`
	Mixhash    common.Hash            `json:"mixHash"`
	Coinbase   common.Address         `json:"coinbase"`
	Alloc      gethtypes.GenesisAlloc `json:"alloc"      gencodec:"required"`
}

// field type overrides for gencodec
type genesisSpecMarshaling struct {
	Nonce      math.HexOrDecimal64
	Timestamp  math.HexOrDecimal64
	ExtraData  []byte
	GasLimit   math.HexOrDecimal64
	Difficulty *math.HexOrDecimal256
}

// GenesisMismatchError is raised when trying to overwrite an existing
// genesis block with an incompatible one.
type GenesisMismatchError struct {
	Stored, New common.Hash
}

func (e *GenesisMismatchError) Error() string {
	return fmt.Sprintf("database contains incompatible genesis (have %x, new %x)", e.Stored, e.New)
}

// flush writes the allocation into a fresh state on db and returns its root.
func (g *Genesis) flush(db *state.Database) (common.Hash, error) {
	statedb, err := state.New(types.EmptyRootHash, db)
	if err != nil {
		return common.Hash{}, err
	}
	for addr, account := range g.Alloc {
		if account.Balance != nil {
			balance, overflow := uint256.FromBig(account.Balance)
			if overflow {
				return common.Hash{}, fmt.Errorf("genesis balance of %x exceeds 256 bits", addr)
			}
			statedb.AddBalance(addr, balance)
		} else {
			statedb.CreateAccount(addr)
		}
		statedb.SetCode(addr, account.Code)
		statedb.SetNonce(addr, account.Nonce)
		for key, value := range account.Storage {
			statedb.SetState(addr, key, value)
		}
	}
	return statedb.Commit()
}

// toBlock builds the genesis block on top of the state root.
func (g *Genesis) toBlock(root common.Hash) *types.Block {
	head := &types.Header{
		UncleHash:   types.EmptyUncleHash,
		Coinbase:    g.Coinbase,
		Root:        root,
		TxHash:      types.EmptyTxsHash,
		ReceiptHash: types.EmptyReceiptsHash,
		Difficulty:  g.Difficulty,
		Number:      new(big.Int),
		GasLimit:    g.GasLimit,
		Time:        g.Timestamp,
		Extra:       g.ExtraData,
		MixDigest:   g.Mixhash,
		Nonce:       types.EncodeNonce(g.Nonce),
	}
	if g.GasLimit == 0 {
		head.GasLimit = params.GenesisGasLimit
	}
	if g.Difficulty == nil {
		head.Difficulty = params.GenesisDifficulty
	}
	return types.NewBlockWithHeader(head)
}

// ToBlock returns the genesis block without persisting anything.
func (g *Genesis) ToBlock() (*types.Block, error) {
	root, err := g.flush(state.NewDatabase(rawdb.NewMemoryDatabase()))
	if err != nil {
		return nil, err
	}
	return g.toBlock(root), nil
}

// Commit writes the genesis state, block and chain config to db and marks
// the block as head.
func (g *Genesis) Commit(db *rawdb.ChainDB) (*types.Block, error) {
	if g.Config == nil {
		return nil, errGenesisNoConfig
	}
	if err := g.Config.CheckConfigForkOrder(); err != nil {
		return nil, err
	}
	root, err := g.flush(state.NewDatabase(db))
	if err != nil {
		return nil, err
	}
	block := g.toBlock(root)
	if block.GasLimit() < params.MinGasLimit {
		return nil, fmt.Errorf("%w: genesis gas limit %d below %d", ErrInvalidGasLimit, block.GasLimit(), params.MinGasLimit)
	}
	db.WriteBlock(block, nil)
	rawdb.WriteChainConfig(db, block.Hash(), g.Config)
	db.SetHead(block.Header())
	return block, nil
}

// SetupGenesisBlock writes or updates the genesis block in db.
//
//	                     genesis == nil       genesis != nil
//	                  +------------------------------------------
//	db has no genesis |  default genesis    |  genesis
//	db has genesis    |  from DB            |  genesis (if compatible)
//
// The returned chain configuration is the one stored with the genesis.
func SetupGenesisBlock(db *rawdb.ChainDB, genesis *Genesis) (*params.ChainConfig, common.Hash, error) {
	stored := rawdb.ReadCanonicalHash(db, 0)
	if stored == (common.Hash{}) {
		if genesis == nil {
			genesis = DefaultGenesisBlock()
		}
		block, err := genesis.Commit(db)
		if err != nil {
			return nil, common.Hash{}, err
		}
		return genesis.Config, block.Hash(), nil
	}
	if genesis != nil {
		block, err := genesis.ToBlock()
		if err != nil {
			return nil, common.Hash{}, err
		}
		if hash := block.Hash(); hash != stored {
			return nil, common.Hash{}, &GenesisMismatchError{Stored: stored, New: hash}
		}
	}
	config := rawdb.ReadChainConfig(db, stored)
	if config == nil {
		return nil, common.Hash{}, fmt.Errorf("%w: config of %x missing", ErrNoGenesis, stored)
	}
	return config, stored, nil
}

// DefaultGenesisBlock returns the genesis of a development chain running
// every supported fork from the start.
func DefaultGenesisBlock() *Genesis {
	config := *params.AllForksChainConfig
	return &Genesis{
		Config:     &config,
		GasLimit:   params.GenesisGasLimit,
		Difficulty: new(big.Int).Set(params.GenesisDifficulty),
		Alloc:      gethtypes.GenesisAlloc{},
	}
}

// DeveloperGenesisBlock returns the default genesis with faucet pre-funded.
func DeveloperGenesisBlock(faucet common.Address, balance *big.Int) *Genesis {
	genesis := DefaultGenesisBlock()
	genesis.Alloc[faucet] = gethtypes.Account{Balance: new(big.Int).Set(balance)}
	return genesis
}

// Copyright 2015 The go-ethereum Authors
// This file is part of go-ethereum.
//
// go-ethereum is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// go-ethereum is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with go-ethereum. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
	"github.com/urfave/cli/v2"

	"github.com/sunyihoo/evmchain/cmd/utils"
	"github.com/sunyihoo/evmchain/core"
	"github.com/sunyihoo/evmchain/core/rawdb"
	"github.com/sunyihoo/evmchain/core/stateless"
	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/core/vm"
	"github.com/sunyihoo/evmchain/internal/flags"
	"github.com/sunyihoo/evmchain/internal/version"
	"github.com/sunyihoo/evmchain/params"
)

var (
	initCommand = &cli.Command{
		Action:    initGenesis,
		Name:      "init",
		Usage:     "Bootstrap and initialize a new genesis block",
		ArgsUsage: "<genesisPath>",
		Flags: flags.Merge(utils.DatabaseFlags, []cli.Flag{
			utils.DeveloperFaucetFlag,
			utils.DeveloperBalanceFlag,
		}),
		Description: `
The init command initializes a new genesis block and definition for the chain.
Without a genesis file the default genesis, or the development genesis when
--dev.faucet is given, is written.

It expects the genesis file as argument.`,
	}
	mineCommand = &cli.Command{
		Action: mineBlocks,
		Name:   "mine",
		Usage:  "Mine blocks on top of the chain head",
		Flags: flags.Merge(utils.DatabaseFlags, minerFlags, []cli.Flag{
			txFlag,
			timeFlag,
			countFlag,
		}),
		Description: `
The mine command mines --count blocks on top of the current head. The raw
transactions given with --tx go into the first block, an invalid transaction
aborts mining.`,
	}
	transferCommand = &cli.Command{
		Action: transfer,
		Name:   "transfer",
		Usage:  "Sign a value transfer and mine it into a block",
		Flags: flags.Merge(utils.DatabaseFlags, minerFlags, []cli.Flag{
			keyFlag,
			receiverFlag,
			valueFlag,
			gasPriceFlag,
		}),
	}
	execCommand = &cli.Command{
		Action:    execBytecode,
		Name:      "exec",
		Usage:     "Run a message against the head state without persisting it",
		ArgsUsage: "",
		Flags: flags.Merge(utils.DatabaseFlags, []cli.Flag{
			codeFlag,
			inputFlag,
			gasFlag,
			gasPriceFlag,
			valueFlag,
			senderFlag,
			receiverFlag,
			createFlag,
			witnessFlag,
			dumpFlag,
		}),
		Description: `
The exec command runs a message on the state of a block built on top of the
head. The gas fee is charged and the sender nonce bumped as for a transaction,
but nothing is written to the database. With --witness the state entries the
message read are stored RLP encoded in the given file.`,
	}

	txFlag = &cli.StringSliceFlag{
		Name:     "tx",
		Usage:    "RLP encoded signed transaction in hex, may be repeated",
		Category: flags.MinerCategory,
	}
	timeFlag = &cli.Uint64Flag{
		Name:     "time",
		Usage:    "Timestamp of the first mined block (default = parent + 1)",
		Category: flags.MinerCategory,
	}
	countFlag = &cli.IntFlag{
		Name:     "count",
		Usage:    "Number of blocks to mine",
		Value:    1,
		Category: flags.MinerCategory,
	}
	keyFlag = &cli.StringFlag{
		Name:     "key",
		Usage:    "File holding the hex encoded private key of the sender",
		Required: true,
		Category: flags.ChainCategory,
	}
	receiverFlag = &cli.StringFlag{
		Name:     "to",
		Usage:    "Recipient of the message",
		Category: flags.VMCategory,
	}
	senderFlag = &cli.StringFlag{
		Name:     "sender",
		Usage:    "Sender of the message",
		Category: flags.VMCategory,
	}
	valueFlag = &flags.BigFlag{
		Name:     "value",
		Usage:    "Value in wei transferred with the message",
		Value:    new(big.Int),
		Category: flags.VMCategory,
	}
	gasPriceFlag = &flags.BigFlag{
		Name:     "price",
		Usage:    "Gas price in wei",
		Value:    big.NewInt(1),
		Category: flags.VMCategory,
	}
	gasFlag = &cli.Uint64Flag{
		Name:     "gas",
		Usage:    "Gas limit of the message (default = block gas limit)",
		Category: flags.VMCategory,
	}
	codeFlag = &cli.StringFlag{
		Name:     "code",
		Usage:    "Hex encoded code to run instead of the recipient's code",
		Category: flags.VMCategory,
	}
	inputFlag = &cli.StringFlag{
		Name:     "input",
		Usage:    "Hex encoded call data, or init code with --create",
		Category: flags.VMCategory,
	}
	createFlag = &cli.BoolFlag{
		Name:     "create",
		Usage:    "Run the input as init code of a new contract",
		Category: flags.VMCategory,
	}
	witnessFlag = &cli.StringFlag{
		Name:     "witness",
		Usage:    "File to write the witness of the message to",
		Category: flags.VMCategory,
	}
	dumpFlag = &cli.BoolFlag{
		Name:     "dump",
		Usage:    "Dump the full computation",
		Category: flags.VMCategory,
	}
)

// makeChain opens the chain store of the configured data directory.
func makeChain(ctx *cli.Context) (*core.Chain, *rawdb.ChainDB, evmchainConfig) {
	cfg := loadBaseConfig(ctx)
	log.Info("Opening chain", "client", version.ClientName(clientIdentifier), "datadir", cfg.Database.DataDir)
	db, err := utils.OpenChainDatabase(cfg.Database, false)
	if err != nil {
		utils.Fatalf("Failed to open database: %v", err)
	}
	chain, err := core.NewChain(db, vm.NewTransferInterpreter(log.Root()), log.Root())
	if err != nil {
		db.Close()
		utils.Fatalf("Failed to load chain: %v", err)
	}
	return chain, db, cfg
}

// initGenesis will initialise the given JSON format genesis file and writes it as
// the zero'd block (i.e. genesis) or will fail hard if it can't succeed.
func initGenesis(ctx *cli.Context) error {
	if ctx.Args().Len() > 1 {
		utils.Fatalf("invalid number of arguments: %v", ctx.Args().Slice())
	}
	var genesis *core.Genesis
	switch {
	case ctx.Args().Len() == 1:
		if ctx.IsSet(utils.DeveloperFaucetFlag.Name) {
			utils.Fatalf("--%s can't be combined with a genesis file", utils.DeveloperFaucetFlag.Name)
		}
		file, err := os.Open(ctx.Args().First())
		if err != nil {
			utils.Fatalf("Failed to read genesis file: %v", err)
		}
		defer file.Close()

		genesis = new(core.Genesis)
		if err := json.NewDecoder(file).Decode(genesis); err != nil {
			utils.Fatalf("invalid genesis file: %v", err)
		}
	case ctx.IsSet(utils.DeveloperFaucetFlag.Name):
		faucet := parseAddress(ctx.String(utils.DeveloperFaucetFlag.Name))
		genesis = core.DeveloperGenesisBlock(faucet, flags.GlobalBig(ctx, utils.DeveloperBalanceFlag.Name))
	}
	cfg := loadBaseConfig(ctx)
	db, err := utils.OpenChainDatabase(cfg.Database, false)
	if err != nil {
		utils.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	config, hash, err := core.SetupGenesisBlock(db, genesis)
	if err != nil {
		utils.Fatalf("Failed to write genesis block: %v", err)
	}
	log.Info("Successfully wrote genesis state", "hash", hash, "config", config)
	return nil
}

func mineBlocks(ctx *cli.Context) error {
	chain, db, cfg := makeChain(ctx)
	defer db.Close()
	defer chain.Stop()

	var txs []*types.Transaction
	for i, raw := range ctx.StringSlice(txFlag.Name) {
		tx := new(types.Transaction)
		if err := rlp.DecodeBytes(common.FromHex(raw), tx); err != nil {
			return fmt.Errorf("transaction %d: %v", i, err)
		}
		txs = append(txs, tx)
	}
	overrides := minerOverrides(cfg.Miner)
	if ctx.IsSet(timeFlag.Name) {
		overrides[types.FieldTime] = ctx.Uint64(timeFlag.Name)
	}
	for i := 0; i < ctx.Int(countFlag.Name); i++ {
		block, err := chain.MineBlock(txs, overrides)
		if err != nil {
			return err
		}
		fmt.Printf("%d %s\n", block.NumberU64(), block.Hash().Hex())
		txs = nil
		delete(overrides, types.FieldTime)
	}
	return nil
}

func transfer(ctx *cli.Context) error {
	key, err := crypto.LoadECDSA(ctx.String(keyFlag.Name))
	if err != nil {
		utils.Fatalf("Failed to load private key: %v", err)
	}
	if !ctx.IsSet(receiverFlag.Name) {
		utils.Fatalf("--%s is required", receiverFlag.Name)
	}
	to := parseAddress(ctx.String(receiverFlag.Name))

	chain, db, cfg := makeChain(ctx)
	defer db.Close()
	defer chain.Stop()

	head, err := chain.CurrentHeader()
	if err != nil {
		return err
	}
	v, err := chain.GetVM(head)
	if err != nil {
		return err
	}
	state, err := v.State()
	if err != nil {
		return err
	}
	from := crypto.PubkeyToAddress(key.PublicKey)
	rules := core.RulesForBlock(chain.Config(), new(big.Int).Add(head.Number, common.Big1))
	unsigned := types.NewTransaction(state.GetNonce(from), to, flags.GlobalBig(ctx, valueFlag.Name), params.TxGas, flags.GlobalBig(ctx, gasPriceFlag.Name), nil)
	tx, err := types.SignTx(unsigned, rules.Signer, key)
	if err != nil {
		return err
	}
	block, err := chain.MineBlock([]*types.Transaction{tx}, minerOverrides(cfg.Miner))
	if err != nil {
		return err
	}
	raw, err := rlp.EncodeToBytes(tx)
	if err != nil {
		return err
	}
	fmt.Printf("tx    %s\nraw   0x%x\nblock %d %s\n", tx.Hash().Hex(), raw, block.NumberU64(), block.Hash().Hex())
	return nil
}

func execBytecode(ctx *cli.Context) error {
	if err := flags.CheckExclusive(ctx, receiverFlag, createFlag); err != nil {
		utils.Fatalf("%v", err)
	}
	chain, db, _ := makeChain(ctx)
	defer db.Close()

	head, err := chain.CurrentHeader()
	if err != nil {
		return err
	}
	v, err := chain.NewBlockVM(head, nil)
	if err != nil {
		return err
	}
	call := core.BytecodeCall{
		Code:   common.FromHex(ctx.String(codeFlag.Name)),
		Data:   common.FromHex(ctx.String(inputFlag.Name)),
		Create: ctx.Bool(createFlag.Name),
	}
	if ctx.IsSet(gasFlag.Name) {
		gas := ctx.Uint64(gasFlag.Name)
		call.Gas = &gas
	}
	if call.GasPrice, err = toU256(flags.GlobalBig(ctx, gasPriceFlag.Name)); err != nil {
		return err
	}
	if call.Value, err = toU256(flags.GlobalBig(ctx, valueFlag.Name)); err != nil {
		return err
	}
	if ctx.IsSet(senderFlag.Name) {
		sender := parseAddress(ctx.String(senderFlag.Name))
		call.Sender = &sender
	}
	if ctx.IsSet(receiverFlag.Name) {
		to := parseAddress(ctx.String(receiverFlag.Name))
		call.To = &to
	}
	comp, err := v.ExecuteBytecode(call)
	if err != nil {
		return err
	}
	if ctx.Bool(dumpFlag.Name) {
		spew.Fdump(os.Stdout, comp)
	}
	fmt.Printf("gas used: %d\noutput:   0x%x\n", comp.Gas-comp.GasLeft, comp.Output)
	if comp.IsError() {
		fmt.Printf("error:    %v\n", comp.Err)
	}
	if file := ctx.String(witnessFlag.Name); file != "" {
		enc, err := rlp.EncodeToBytes(stateless.Witness(comp.Reads))
		if err != nil {
			return err
		}
		if err := os.WriteFile(file, enc, 0644); err != nil {
			return err
		}
		log.Info("Wrote witness", "file", file, "entries", len(comp.Reads), "size", common.StorageSize(len(enc)))
	}
	return nil
}

// minerOverrides returns the header fields set by the miner configuration.
// Extra data beyond the protocol limit is truncated.
func minerOverrides(cfg utils.MinerConfig) types.HeaderFields {
	extra := []byte(cfg.ExtraData)
	if uint64(len(extra)) > params.MaximumExtraDataSize {
		log.Warn("Miner extra data exceed limit", "extra", hexutil.Bytes(extra), "limit", params.MaximumExtraDataSize)
		extra = extra[:params.MaximumExtraDataSize]
	}
	return types.HeaderFields{
		types.FieldCoinbase: cfg.Etherbase,
		types.FieldExtra:    extra,
	}
}

func parseAddress(s string) common.Address {
	if !common.IsHexAddress(s) {
		utils.Fatalf("Invalid address: %q", s)
	}
	return common.HexToAddress(s)
}

func toU256(v *big.Int) (*uint256.Int, error) {
	if v == nil {
		return nil, nil
	}
	u, overflow := uint256.FromBig(v)
	if overflow {
		return nil, errors.New("value exceeds 256 bits")
	}
	return u, nil
}

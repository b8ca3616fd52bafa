// Copyright 2021 The go-ethereum Authors
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
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"

	"github.com/sunyihoo/evmchain/cmd/utils"
	"github.com/sunyihoo/evmchain/core"
	"github.com/sunyihoo/evmchain/core/rawdb"
	"github.com/sunyihoo/evmchain/core/types"
)

var inspectCommand = &cli.Command{
	Action:    inspect,
	Name:      "inspect",
	Usage:     "Show a block of the chain, the head by default",
	ArgsUsage: "<number (optional)>",
	Flags:     utils.DatabaseFlags,
}

func inspect(ctx *cli.Context) error {
	if ctx.NArg() > 1 {
		return fmt.Errorf("max 1 argument: %v", ctx.Command.ArgsUsage)
	}
	chain, db, _ := makeChain(ctx)
	defer db.Close()

	var (
		block *types.Block
		err   error
	)
	if ctx.NArg() == 1 {
		number, perr := strconv.ParseUint(ctx.Args().First(), 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid block number: %v", perr)
		}
		block, err = chain.GetBlockByNumber(number)
	} else {
		var head *types.Header
		if head, err = chain.CurrentHeader(); err == nil {
			block, err = chain.GetBlockByHash(head.Hash())
		}
	}
	if err != nil {
		return err
	}
	v, err := chain.GetVM(block.Header())
	if err != nil {
		return err
	}
	gas, err := v.CumulativeGasUsed(block)
	if err != nil && !errors.Is(err, rawdb.ErrReceiptsNotFound) {
		return err
	}
	printBlock(os.Stdout, block, v.Rules(), gas)
	return nil
}

func printBlock(w io.Writer, block *types.Block, rules *core.ForkRules, cumulativeGas uint64) {
	age := common.PrettyAge(time.Unix(int64(block.Time()), 0))
	fmt.Fprintf(w, "Number:      %d\n", block.NumberU64())
	fmt.Fprintf(w, "Hash:        %s\n", block.Hash().Hex())
	fmt.Fprintf(w, "Parent:      %s\n", block.ParentHash().Hex())
	fmt.Fprintf(w, "Fork:        %s\n", rules.Name())
	fmt.Fprintf(w, "Coinbase:    %s\n", block.Coinbase().Hex())
	fmt.Fprintf(w, "State root:  %s\n", block.Root().Hex())
	fmt.Fprintf(w, "Difficulty:  %v\n", block.Difficulty())
	fmt.Fprintf(w, "Gas:         %d / %d (receipts %d)\n", block.GasUsed(), block.GasLimit(), cumulativeGas)
	fmt.Fprintf(w, "Time:        %d (%s ago)\n", block.Time(), age)
	fmt.Fprintf(w, "Extra:       %q\n", block.Extra())
	fmt.Fprintf(w, "Txs:         %d\n", len(block.Transactions()))
	for _, tx := range block.Transactions() {
		fmt.Fprintf(w, "  %s nonce %d gas %d\n", tx.Hash().Hex(), tx.Nonce(), tx.Gas())
	}
	fmt.Fprintf(w, "Uncles:      %d\n", len(block.Uncles()))
	for _, uncle := range block.Uncles() {
		fmt.Fprintf(w, "  %s number %d miner %s\n", uncle.Hash().Hex(), uncle.Number, uncle.Coinbase.Hex())
	}
}

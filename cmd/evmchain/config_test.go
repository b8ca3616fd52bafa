// Copyright 2023 The go-ethereum Authors
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
	"bytes"
	"flag"
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/sunyihoo/evmchain/cmd/utils"
	"github.com/sunyihoo/evmchain/core"
	"github.com/sunyihoo/evmchain/core/rawdb"
	"github.com/sunyihoo/evmchain/core/types"
	"github.com/sunyihoo/evmchain/params"
)

func newContext(t *testing.T, fs []cli.Flag, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range fs {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func TestLoadConfig(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	content := `
[Database]
Engine = "leveldb"
Cache = 128

[Miner]
Etherbase = "0x00000000000000000000000000000000c0ffee00"
ExtraData = "from file"
`
	require.NoError(t, os.WriteFile(file, []byte(content), 0644))

	fs := []cli.Flag{configFileFlag, utils.DBEngineFlag, utils.CacheFlag, utils.MinerExtraDataFlag}
	cfg := loadBaseConfig(newContext(t, fs, "--config", file, "--cache", "32"))
	assert.Equal(t, rawdb.DBLeveldb, cfg.Database.Engine)
	assert.Equal(t, 32, cfg.Database.Cache, "flags win over the file")
	assert.Equal(t, utils.DefaultDatabaseConfig.Handles, cfg.Database.Handles)
	assert.Equal(t, common.HexToAddress("0xc0ffee00"), cfg.Miner.Etherbase)
	assert.Equal(t, "from file", cfg.Miner.ExtraData)
}

func TestLoadConfigUnknownField(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, []byte("[Database]\nEngin = \"pebble\"\n"), 0644))

	var cfg evmchainConfig
	err := loadConfig(file, &cfg)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), file), err.Error())
	assert.Contains(t, err.Error(), "Engin")
}

func TestConfigRoundTrip(t *testing.T) {
	cfg := evmchainConfig{Database: utils.DefaultDatabaseConfig, Miner: defaultMinerConfig()}
	cfg.Miner.Etherbase = common.HexToAddress("0x1234")
	out, err := tomlSettings.Marshal(&cfg)
	require.NoError(t, err)

	file := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(file, out, 0644))
	var loaded evmchainConfig
	require.NoError(t, loadConfig(file, &loaded))
	assert.Equal(t, cfg, loaded)
}

func TestMinerOverrides(t *testing.T) {
	coinbase := common.HexToAddress("0xbeef")
	overrides := minerOverrides(utils.MinerConfig{Etherbase: coinbase, ExtraData: strings.Repeat("x", 40)})
	assert.Equal(t, coinbase, overrides[types.FieldCoinbase])
	assert.Len(t, overrides[types.FieldExtra], int(params.MaximumExtraDataSize))
	assert.NoError(t, overrides.Validate())

	assert.LessOrEqual(t, uint64(len(defaultMinerConfig().ExtraData)), params.MaximumExtraDataSize)
}

func TestPrintBlock(t *testing.T) {
	genesis := core.DeveloperGenesisBlock(common.HexToAddress("0xfa"), big.NewInt(1))
	block, err := genesis.ToBlock()
	require.NoError(t, err)

	var buf bytes.Buffer
	printBlock(&buf, block, core.RulesForBlock(genesis.Config, block.Number()), 0)
	out := buf.String()
	assert.Contains(t, out, block.Hash().Hex())
	assert.Contains(t, out, "Number:      0")
	assert.Contains(t, out, "Fork:        "+core.RulesForBlock(genesis.Config, block.Number()).Name())
	assert.Contains(t, out, "Txs:         0")
}

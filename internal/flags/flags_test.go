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

package flags

import (
	"flag"
	"math/big"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func TestPathExpansion(t *testing.T) {
	home := HomeDir()
	tests := map[string]string{
		"/home/someuser/tmp": "/home/someuser/tmp",
		"~/tmp":              home + "/tmp",
		"~thisOtherUser/b/":  "~thisOtherUser/b",
		"$DDDXXX/a/b":        "/tmp/a/b",
		"/a/b/":              "/a/b",
		"/a/b/../c":          "/a/c",
	}
	if runtime.GOOS == "windows" {
		t.Skip("unix paths")
	}
	t.Setenv("DDDXXX", "/tmp")
	for test, expected := range tests {
		assert.Equal(t, expected, expandPath(test), test)
	}
}

func TestDirectoryFlagEnv(t *testing.T) {
	t.Setenv("EVMCHAIN_TEST_DIR", "~/chain")
	f := &DirectoryFlag{Name: "datadir", EnvVars: []string{"EVMCHAIN_TEST_DIR"}}
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	require.NoError(t, f.Apply(set))
	assert.True(t, f.IsSet())
	assert.Equal(t, HomeDir()+"/chain", f.GetValue())
}

func TestBigFlag(t *testing.T) {
	f := &BigFlag{Name: "value", Value: big.NewInt(7)}
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	require.NoError(t, f.Apply(set))
	assert.Equal(t, "7", f.GetDefaultText())

	require.NoError(t, set.Parse([]string{"--value", "0x100"}))
	assert.Equal(t, big.NewInt(256), f.Value)
	assert.Equal(t, "7", f.GetDefaultText())

	assert.Error(t, set.Parse([]string{"--value", "ten"}))
}

func TestBigFlagBadEnv(t *testing.T) {
	t.Setenv("EVMCHAIN_TEST_BIG", "zz")

	f := &BigFlag{Name: "value", EnvVars: []string{"EVMCHAIN_TEST_BIG"}}
	assert.Error(t, f.Apply(flag.NewFlagSet("test", flag.ContinueOnError)))
}

func TestCheckExclusive(t *testing.T) {
	var (
		to     = &cli.StringFlag{Name: "to"}
		create = &cli.BoolFlag{Name: "create"}
		engine = &cli.StringFlag{Name: "db.engine"}
	)
	parse := func(args ...string) *cli.Context {
		set := flag.NewFlagSet("test", flag.ContinueOnError)
		for _, f := range []cli.Flag{to, create, engine} {
			require.NoError(t, f.Apply(set))
		}
		require.NoError(t, set.Parse(args))
		return cli.NewContext(cli.NewApp(), set, nil)
	}
	assert.NoError(t, CheckExclusive(parse("--to", "0x01"), to, create))
	assert.ErrorContains(t, CheckExclusive(parse("--to", "0x01", "--create"), to, create), "--to, --create")

	// A string option narrows the exclusion to that value.
	assert.NoError(t, CheckExclusive(parse("--create", "--db.engine", "leveldb"), create, engine, "pebble"))
	assert.ErrorContains(t, CheckExclusive(parse("--create", "--db.engine", "pebble"), create, engine, "pebble"), "--db.engine=pebble")

	assert.Error(t, CheckExclusive(parse(), "not a flag"))
}

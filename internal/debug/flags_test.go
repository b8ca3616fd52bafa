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

package debug

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

func newContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("test", flag.ContinueOnError)
	for _, f := range Flags {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func TestSetupLogFile(t *testing.T) {
	defer log.SetDefault(log.Root())
	file := filepath.Join(t.TempDir(), "logs", "chain.log")

	ctx := newContext(t, "--log.file", file, "--log.format", "logfmt", "--verbosity", "4")
	require.NoError(t, Setup(ctx))
	log.Debug("Written to file", "key", "value")
	Exit()

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Written to file")
	assert.Contains(t, string(data), "key=value")
}

func TestSetupRejectsUnknownFormat(t *testing.T) {
	assert.ErrorContains(t, Setup(newContext(t, "--log.format", "xml")), "unknown log format")
}

func TestSetupRejectsBadVmodule(t *testing.T) {
	assert.Error(t, Setup(newContext(t, "--log.vmodule", "core=x")))
}

func TestHandlerVerbosity(t *testing.T) {
	defer log.SetDefault(log.Root())
	file := filepath.Join(t.TempDir(), "chain.log")

	require.NoError(t, Setup(newContext(t, "--log.file", file, "--log.format", "logfmt")))
	defer Exit()
	log.Debug("Hidden at info")
	Handler.Verbosity(4)
	log.Debug("Shown at debug")

	require.NoError(t, Handler.Vmodule("rawdb=5"))
	assert.Error(t, Handler.Vmodule("rawdb=x"))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "Hidden at info")
	assert.Contains(t, string(data), "Shown at debug")
}

// Copyright 2024 The go-ethereum Authors
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

package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReceiptStatusEncoding(t *testing.T) {
	root := common.HexToHash("0xabcdef").Bytes()
	tests := []struct {
		name    string
		receipt *Receipt
	}{
		{"pre-byzantium", NewReceipt(root, false, 21000)},
		{"success", NewReceipt(nil, false, 42000)},
		{"failed", NewReceipt(nil, true, 63000)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := rlp.EncodeToBytes(tt.receipt)
			require.NoError(t, err)

			var dec Receipt
			require.NoError(t, rlp.DecodeBytes(enc, &dec))
			assert.Equal(t, tt.receipt.PostState, dec.PostState)
			assert.Equal(t, tt.receipt.CumulativeGasUsed, dec.CumulativeGasUsed)
			if len(tt.receipt.PostState) == 0 {
				assert.Equal(t, tt.receipt.Status, dec.Status)
			}
		})
	}
}

func TestLogsBloom(t *testing.T) {
	addr := common.HexToAddress("0x1234")
	topic := common.HexToHash("0x5678")
	bloom := LogsBloom([]*Log{{Address: addr, Topics: []common.Hash{topic}}})
	assert.True(t, bloom.Test(addr.Bytes()))
	assert.True(t, bloom.Test(topic.Bytes()))
	assert.Equal(t, bloom, CreateBloom(Receipts{{Logs: []*Log{{Address: addr, Topics: []common.Hash{topic}}}}}))
}

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
	"errors"
	"fmt"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
)

var (
	// ErrUnknownHeaderField is returned when a header override names a field
	// that does not exist in the header.
	ErrUnknownHeaderField = errors.New("unknown header field")

	// ErrInvalidOverride is returned when a header override carries a value of
	// the wrong type for its field.
	ErrInvalidOverride = errors.New("invalid header field value")
)

// Header field names, as used by HeaderFields.
const (
	FieldParentHash  = "parentHash"
	FieldUncleHash   = "sha3Uncles"
	FieldCoinbase    = "miner"
	FieldRoot        = "stateRoot"
	FieldTxHash      = "transactionsRoot"
	FieldReceiptHash = "receiptsRoot"
	FieldBloom       = "logsBloom"
	FieldDifficulty  = "difficulty"
	FieldNumber      = "number"
	FieldGasLimit    = "gasLimit"
	FieldGasUsed     = "gasUsed"
	FieldTime        = "timestamp"
	FieldExtra       = "extraData"
	FieldMixDigest   = "mixHash"
	FieldNonce       = "nonce"
)

// HeaderFields is a set of caller supplied header values keyed by field name.
// Only the fixed header field set is accepted.
// HeaderFields 是调用方提供的区块头字段覆盖值，只接受固定的字段集合。
type HeaderFields map[string]interface{}

// Has reports whether the field is present.
func (f HeaderFields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// Without returns a copy of the fields minus the named ones.
func (f HeaderFields) Without(names ...string) HeaderFields {
	cpy := make(HeaderFields, len(f))
	for k, v := range f {
		cpy[k] = v
	}
	for _, name := range names {
		delete(cpy, name)
	}
	return cpy
}

// Validate checks that every key names a header field.
func (f HeaderFields) Validate() error {
	for _, name := range f.keys() {
		if _, ok := fieldSetters[name]; !ok {
			return fmt.Errorf("%w: %q", ErrUnknownHeaderField, name)
		}
	}
	return nil
}

// Apply writes the fields into the header. Unknown keys and mistyped values
// leave the header untouched.
func (f HeaderFields) Apply(h *Header) error {
	if err := f.Validate(); err != nil {
		return err
	}
	// Stage the writes on a copy so a failure does not leave h half updated.
	staged := CopyHeader(h)
	for _, name := range f.keys() {
		if err := fieldSetters[name](staged, f[name]); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidOverride, name, err)
		}
	}
	*h = *staged
	return nil
}

// keys returns the field names in a stable order.
func (f HeaderFields) keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var fieldSetters = map[string]func(h *Header, v interface{}) error{
	FieldParentHash:  func(h *Header, v interface{}) error { return setHash(&h.ParentHash, v) },
	FieldUncleHash:   func(h *Header, v interface{}) error { return setHash(&h.UncleHash, v) },
	FieldRoot:        func(h *Header, v interface{}) error { return setHash(&h.Root, v) },
	FieldTxHash:      func(h *Header, v interface{}) error { return setHash(&h.TxHash, v) },
	FieldReceiptHash: func(h *Header, v interface{}) error { return setHash(&h.ReceiptHash, v) },
	FieldMixDigest:   func(h *Header, v interface{}) error { return setHash(&h.MixDigest, v) },
	FieldCoinbase: func(h *Header, v interface{}) error {
		switch v := v.(type) {
		case common.Address:
			h.Coinbase = v
		case *common.Address:
			h.Coinbase = *v
		default:
			return fmt.Errorf("want address, have %T", v)
		}
		return nil
	},
	FieldBloom: func(h *Header, v interface{}) error {
		switch v := v.(type) {
		case Bloom:
			h.Bloom = v
		case []byte:
			if len(v) != len(Bloom{}) {
				return fmt.Errorf("bloom length %d", len(v))
			}
			h.Bloom.SetBytes(v)
		default:
			return fmt.Errorf("want bloom, have %T", v)
		}
		return nil
	},
	FieldDifficulty: func(h *Header, v interface{}) error { return setBig(&h.Difficulty, v) },
	FieldNumber:     func(h *Header, v interface{}) error { return setBig(&h.Number, v) },
	FieldGasLimit:   func(h *Header, v interface{}) error { return setUint64(&h.GasLimit, v) },
	FieldGasUsed:    func(h *Header, v interface{}) error { return setUint64(&h.GasUsed, v) },
	FieldTime:       func(h *Header, v interface{}) error { return setUint64(&h.Time, v) },
	FieldExtra: func(h *Header, v interface{}) error {
		switch v := v.(type) {
		case []byte:
			h.Extra = common.CopyBytes(v)
		case string:
			h.Extra = []byte(v)
		default:
			return fmt.Errorf("want bytes, have %T", v)
		}
		return nil
	},
	FieldNonce: func(h *Header, v interface{}) error {
		switch v := v.(type) {
		case BlockNonce:
			h.Nonce = v
		case uint64:
			h.Nonce = EncodeNonce(v)
		case []byte:
			if len(v) != len(BlockNonce{}) {
				return fmt.Errorf("nonce length %d", len(v))
			}
			copy(h.Nonce[:], v)
		default:
			return fmt.Errorf("want nonce, have %T", v)
		}
		return nil
	},
}

func setHash(dst *common.Hash, v interface{}) error {
	switch v := v.(type) {
	case common.Hash:
		*dst = v
	case []byte:
		if len(v) != common.HashLength {
			return fmt.Errorf("hash length %d", len(v))
		}
		*dst = common.BytesToHash(v)
	default:
		return fmt.Errorf("want hash, have %T", v)
	}
	return nil
}

func setBig(dst **big.Int, v interface{}) error {
	switch v := v.(type) {
	case *big.Int:
		if v == nil || v.Sign() < 0 {
			return errors.New("want non-negative integer")
		}
		*dst = new(big.Int).Set(v)
	case uint64:
		*dst = new(big.Int).SetUint64(v)
	case int:
		if v < 0 {
			return errors.New("want non-negative integer")
		}
		*dst = big.NewInt(int64(v))
	default:
		return fmt.Errorf("want integer, have %T", v)
	}
	return nil
}

func setUint64(dst *uint64, v interface{}) error {
	switch v := v.(type) {
	case uint64:
		*dst = v
	case int:
		if v < 0 {
			return errors.New("want non-negative integer")
		}
		*dst = uint64(v)
	case int64:
		if v < 0 {
			return errors.New("want non-negative integer")
		}
		*dst = uint64(v)
	case *big.Int:
		if v == nil || !v.IsUint64() {
			return errors.New("want 64 bit integer")
		}
		*dst = v.Uint64()
	default:
		return fmt.Errorf("want integer, have %T", v)
	}
	return nil
}

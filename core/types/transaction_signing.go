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
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/sunyihoo/evmchain/params"
	"github.com/sunyihoo/evmchain/params/forks"
)

// Signer encapsulates the signature rules of one protocol version. Signers
// don't sign anything themselves: they define the hash a sender signs and
// how the sender is recovered from the signature values.
// Signer 封装某一协议版本的签名规则：待签名哈希与发送者恢复方式。
type Signer interface {
	// Sender returns the sender address of the transaction.
	Sender(tx *Transaction) (common.Address, error)

	// SignatureValues returns the raw R, S, V values corresponding to the
	// given [R || S || V] signature.
	SignatureValues(tx *Transaction, sig []byte) (r, s, v *big.Int, err error)

	// Hash returns the hash the sender signs. It does not uniquely identify
	// the transaction.
	Hash(tx *Transaction) common.Hash

	// Equal returns true if the given signer applies the same rules.
	Equal(Signer) bool
}

// SignerForFork returns the signer of the given protocol version. None of the
// supported forks replay-protects transactions, so from Homestead on the
// only change is the EIP-2 bound on s.
func SignerForFork(fork forks.Fork) Signer {
	if fork >= forks.Homestead {
		return HomesteadSigner{}
	}
	return FrontierSigner{}
}

// MakeSigner returns the signer active at the given block number.
func MakeSigner(config *params.ChainConfig, blockNumber *big.Int) Signer {
	return SignerForFork(config.LatestFork(blockNumber))
}

// FrontierSigner accepts any signature with r and s on the curve.
type FrontierSigner struct{}

// HomesteadSigner additionally rejects s values in the upper half of the
// curve order, making signatures non-malleable (EIP-2).
type HomesteadSigner struct{ FrontierSigner }

func (FrontierSigner) Equal(other Signer) bool {
	_, ok := other.(FrontierSigner)
	return ok
}

func (FrontierSigner) Sender(tx *Transaction) (common.Address, error) {
	return recoverSender(tx, false)
}

func (HomesteadSigner) Equal(other Signer) bool {
	_, ok := other.(HomesteadSigner)
	return ok
}

func (HomesteadSigner) Sender(tx *Transaction) (common.Address, error) {
	return recoverSender(tx, true)
}

// SignatureValues splits a 65 byte signature, turning the recovery id into
// the legacy V of 27 or 28.
func (FrontierSigner) SignatureValues(tx *Transaction, sig []byte) (r, s, v *big.Int, err error) {
	if len(sig) != crypto.SignatureLength {
		return nil, nil, nil, fmt.Errorf("wrong size for signature: got %d, want %d", len(sig), crypto.SignatureLength)
	}
	r = new(big.Int).SetBytes(sig[:32])
	s = new(big.Int).SetBytes(sig[32:64])
	v = big.NewInt(int64(sig[64]) + 27)
	return r, s, v, nil
}

// Hash returns the hash of the unsigned legacy transaction fields.
func (FrontierSigner) Hash(tx *Transaction) common.Hash {
	return sigHash(tx)
}

func sigHash(tx *Transaction) common.Hash {
	return rlpHash([]interface{}{
		tx.Nonce(),
		tx.GasPrice(),
		tx.Gas(),
		tx.To(),
		tx.Value(),
		tx.Data(),
	})
}

// recoverSender derives the sender from the signature values of tx. With
// lowS set, signatures with s above half the curve order are invalid.
func recoverSender(tx *Transaction, lowS bool) (common.Address, error) {
	v, r, s := tx.RawSignatureValues()
	if r == nil || s == nil || v == nil || v.BitLen() > 8 || v.Uint64() < 27 {
		return common.Address{}, ErrInvalidSig
	}
	recid := byte(v.Uint64() - 27)
	if !crypto.ValidateSignatureValues(recid, r, s, lowS) {
		return common.Address{}, ErrInvalidSig
	}
	sig := make([]byte, crypto.SignatureLength)
	r.FillBytes(sig[:32])
	s.FillBytes(sig[32:64])
	sig[64] = recid

	hash := sigHash(tx)
	pub, err := crypto.SigToPub(hash[:], sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", ErrInvalidSig, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// sigCache remembers the sender derived by a signer.
type sigCache struct {
	signer Signer
	from   common.Address
}

// Sender returns the address derived from the signature of tx. The result is
// cached on the transaction and reused as long as the same rules are asked.
func Sender(signer Signer, tx *Transaction) (common.Address, error) {
	if sc := tx.from.Load(); sc != nil && sc.signer.Equal(signer) {
		return sc.from, nil
	}
	addr, err := signer.Sender(tx)
	if err != nil {
		return common.Address{}, err
	}
	tx.from.Store(&sigCache{signer: signer, from: addr})
	return addr, nil
}

// SignTx signs the transaction using the given signer and private key.
func SignTx(tx *Transaction, s Signer, prv *ecdsa.PrivateKey) (*Transaction, error) {
	h := s.Hash(tx)
	sig, err := crypto.Sign(h[:], prv)
	if err != nil {
		return nil, err
	}
	return tx.WithSignature(s, sig)
}

// MustSignNewTx creates a transaction and signs it. It panics if the
// transaction cannot be signed.
func MustSignNewTx(prv *ecdsa.PrivateKey, s Signer, txdata *LegacyTx) *Transaction {
	tx, err := SignTx(NewTx(txdata), s, prv)
	if err != nil {
		panic(err)
	}
	return tx
}

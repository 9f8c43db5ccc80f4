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

package types

import (
	"encoding/binary"
	"time"

	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"

	"github.com/emberchain/ember/common"
	"github.com/emberchain/ember/params"
)

// TxOrigin tags where a transaction entered the node from.
type TxOrigin uint8

const (
	OriginPeer TxOrigin = iota
	OriginLocal
)

func (o TxOrigin) String() string {
	if o == OriginLocal {
		return "local"
	}
	return "peer"
}

// TxData holds the decoded fields of a transaction as delivered by the wire
// transport or the RPC layer. Signature recovery has already happened
// upstream; Sender is authoritative.
type TxData struct {
	Sender     common.Address
	Nonce      uint64
	Gas        uint64
	GasFeeCap  *uint256.Int
	GasTipCap  *uint256.Int
	Value      *uint256.Int
	Size       uint64 // encoded wire size in bytes
	Blobs      int
	BlobFeeCap *uint256.Int
}

// Transaction is an immutable pooled transaction. All fields are fixed at
// construction; sub-pool indices reference transactions by hash and must not
// retain any other mutable link.
type Transaction struct {
	hash       common.Hash
	sender     common.Address
	nonce      uint64
	gas        uint64
	gasFeeCap  uint256.Int
	gasTipCap  uint256.Int
	value      uint256.Int
	size       uint64
	blobs      int
	blobFeeCap uint256.Int

	arrival time.Time
	origin  TxOrigin
}

// NewTransaction assembles a transaction from decoded wire data, stamping it
// with the local arrival time.
func NewTransaction(data TxData, origin TxOrigin) *Transaction {
	tx := &Transaction{
		sender:  data.Sender,
		nonce:   data.Nonce,
		gas:     data.Gas,
		size:    data.Size,
		blobs:   data.Blobs,
		arrival: time.Now(),
		origin:  origin,
	}
	if data.GasFeeCap != nil {
		tx.gasFeeCap.Set(data.GasFeeCap)
	}
	if data.GasTipCap != nil {
		tx.gasTipCap.Set(data.GasTipCap)
	}
	if data.Value != nil {
		tx.value.Set(data.Value)
	}
	if data.BlobFeeCap != nil {
		tx.blobFeeCap.Set(data.BlobFeeCap)
	}
	if tx.size == 0 {
		tx.size = tx.estimateSize()
	}
	tx.hash = tx.computeHash()
	return tx
}

// computeHash derives the content-addressed identifier over the canonical
// field encoding.
func (tx *Transaction) computeHash() common.Hash {
	h := sha3.NewLegacyKeccak256()
	h.Write(tx.sender[:])

	var buf [8]byte
	writeUint := func(v uint64) {
		binary.BigEndian.PutUint64(buf[:], v)
		h.Write(buf[:])
	}
	writeUint(tx.nonce)
	writeUint(tx.gas)
	writeUint(uint64(tx.blobs))
	for _, v := range []*uint256.Int{&tx.gasFeeCap, &tx.gasTipCap, &tx.value, &tx.blobFeeCap} {
		b := v.Bytes32()
		h.Write(b[:])
	}
	return common.BytesToHash(h.Sum(nil))
}

// estimateSize approximates the encoded size when the transport did not
// report one (locally submitted transactions).
func (tx *Transaction) estimateSize() uint64 {
	size := uint64(common.AddressLength + 8 + 8)
	for _, v := range []*uint256.Int{&tx.gasFeeCap, &tx.gasTipCap, &tx.value} {
		size += uint64(len(v.Bytes())) + 1
	}
	if tx.blobs > 0 {
		size += uint64(len(tx.blobFeeCap.Bytes())) + 1 + uint64(tx.blobs)*params.BlobGasPerBlob/256
	}
	return size
}

func (tx *Transaction) Hash() common.Hash      { return tx.hash }
func (tx *Transaction) Sender() common.Address { return tx.sender }
func (tx *Transaction) Nonce() uint64          { return tx.nonce }
func (tx *Transaction) Gas() uint64            { return tx.gas }
func (tx *Transaction) Size() uint64           { return tx.size }
func (tx *Transaction) Blobs() int             { return tx.blobs }
func (tx *Transaction) Arrival() time.Time     { return tx.arrival }
func (tx *Transaction) Origin() TxOrigin       { return tx.origin }

// IsBlob reports whether the transaction carries data blobs and therefore
// belongs to the blob sub-pools.
func (tx *Transaction) IsBlob() bool { return tx.blobs > 0 }

// GasFeeCap returns the maximum fee per gas the sender is willing to pay.
func (tx *Transaction) GasFeeCap() *uint256.Int {
	return new(uint256.Int).Set(&tx.gasFeeCap)
}

// GasTipCap returns the maximum priority fee per gas.
func (tx *Transaction) GasTipCap() *uint256.Int {
	return new(uint256.Int).Set(&tx.gasTipCap)
}

// Value returns the transferred amount.
func (tx *Transaction) Value() *uint256.Int {
	return new(uint256.Int).Set(&tx.value)
}

// BlobFeeCap returns the maximum blob fee per blob gas unit.
func (tx *Transaction) BlobFeeCap() *uint256.Int {
	return new(uint256.Int).Set(&tx.blobFeeCap)
}

// BlobGas returns the total blob gas consumed by the carried blobs.
func (tx *Transaction) BlobGas() uint64 {
	return uint64(tx.blobs) * params.BlobGasPerBlob
}

// Cost returns value + gas * gasFeeCap + blobGas * blobFeeCap, the maximum
// balance the transaction can consume.
func (tx *Transaction) Cost() *uint256.Int {
	cost := new(uint256.Int).SetUint64(tx.gas)
	cost.Mul(cost, &tx.gasFeeCap)
	cost.Add(cost, &tx.value)
	if tx.blobs > 0 {
		blob := new(uint256.Int).SetUint64(tx.BlobGas())
		blob.Mul(blob, &tx.blobFeeCap)
		cost.Add(cost, blob)
	}
	return cost
}

// CoversBaseFee reports whether the fee cap meets the given base fee.
func (tx *Transaction) CoversBaseFee(baseFee *uint256.Int) bool {
	return tx.gasFeeCap.Cmp(baseFee) >= 0
}

// EffectiveGasTip returns min(gasTipCap, gasFeeCap-baseFee), the fee per gas
// actually paid to the block builder under the given base fee. The result is
// clamped at zero when the fee cap does not cover the base fee.
func (tx *Transaction) EffectiveGasTip(baseFee *uint256.Int) *uint256.Int {
	if baseFee == nil {
		return tx.GasTipCap()
	}
	if tx.gasFeeCap.Cmp(baseFee) < 0 {
		return new(uint256.Int)
	}
	tip := new(uint256.Int).Sub(&tx.gasFeeCap, baseFee)
	if tip.Cmp(&tx.gasTipCap) > 0 {
		tip.Set(&tx.gasTipCap)
	}
	return tip
}

// EffectiveGasTipCmp compares the effective tips of two transactions under
// the same base fee.
func (tx *Transaction) EffectiveGasTipCmp(other *Transaction, baseFee *uint256.Int) int {
	return tx.EffectiveGasTip(baseFee).Cmp(other.EffectiveGasTip(baseFee))
}

// GasFeeCapCmp compares the fee caps of two transactions.
func (tx *Transaction) GasFeeCapCmp(other *Transaction) int {
	return tx.gasFeeCap.Cmp(&other.gasFeeCap)
}

// GasTipCapCmp compares the tip caps of two transactions.
func (tx *Transaction) GasTipCapCmp(other *Transaction) int {
	return tx.gasTipCap.Cmp(&other.gasTipCap)
}

// Transactions is a Transaction slice type for basic sorting.
type Transactions []*Transaction

func (s Transactions) Len() int { return len(s) }

// TxByNonce sorts transactions by nonce. Only valid within a single sender.
type TxByNonce Transactions

func (s TxByNonce) Len() int           { return len(s) }
func (s TxByNonce) Less(i, j int) bool { return s[i].nonce < s[j].nonce }
func (s TxByNonce) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// AccountNonce identifies one consumed (sender, nonce) slot, reported by the
// chain when a head confirms transactions.
type AccountNonce struct {
	Sender common.Address
	Nonce  uint64
}

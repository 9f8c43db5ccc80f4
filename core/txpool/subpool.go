// Copyright 2023 The go-ethereum Authors
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

package txpool

import (
	"github.com/holiman/uint256"

	"github.com/emberchain/ember/core/types"
)

// SubPool identifies which of the pool's priority partitions a resident
// transaction currently belongs to. A transaction is in exactly one sub-pool
// at any instant.
type SubPool uint8

const (
	SubPoolNone SubPool = iota
	SubPoolPending
	SubPoolBaseFee
	SubPoolQueued
	SubPoolBlobPending
	SubPoolBlobQueued

	numSubPools
)

func (p SubPool) String() string {
	switch p {
	case SubPoolPending:
		return "pending"
	case SubPoolBaseFee:
		return "basefee"
	case SubPoolQueued:
		return "queued"
	case SubPoolBlobPending:
		return "blob-pending"
	case SubPoolBlobQueued:
		return "blob-queued"
	}
	return "none"
}

// executable reports whether the sub-pool holds immediately includable
// transactions.
func (p SubPool) executable() bool {
	return p == SubPoolPending || p == SubPoolBlobPending
}

// classify returns the sub-pool a transaction belongs to, given the sender's
// next executable nonce and the head fee parameters. It is a pure function:
// calling it twice with the same inputs yields the same sub-pool.
//
// nextNonce is the first nonce not yet covered by the account's confirmed
// state or its executable pooled transactions; a transaction right at it is
// next in line. Transactions below it are stale and map to SubPoolNone; the
// caller drops those before they ever reach an index.
func classify(tx *types.Transaction, nextNonce uint64, baseFee, blobBaseFee *uint256.Int) SubPool {
	if tx.Nonce() < nextNonce {
		return SubPoolNone
	}
	if tx.IsBlob() {
		if tx.Nonce() == nextNonce && tx.CoversBaseFee(baseFee) && coversBlobFee(tx, blobBaseFee) {
			return SubPoolBlobPending
		}
		return SubPoolBlobQueued
	}
	if tx.Nonce() > nextNonce {
		return SubPoolQueued
	}
	if tx.CoversBaseFee(baseFee) {
		return SubPoolPending
	}
	return SubPoolBaseFee
}

func coversBlobFee(tx *types.Transaction, blobBaseFee *uint256.Int) bool {
	if blobBaseFee == nil {
		return true
	}
	return tx.BlobFeeCap().Cmp(blobBaseFee) >= 0
}

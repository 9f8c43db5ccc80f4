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

package txpool

import "errors"

var (
	// ErrAlreadyKnown is returned if a transaction is already contained
	// within the pool.
	ErrAlreadyKnown = errors.New("already known")

	// ErrUnderpriced is returned if a transaction's tip is below the minimum
	// configured for the transaction pool.
	ErrUnderpriced = errors.New("transaction underpriced")

	// ErrReplaceUnderpriced is returned if a transaction is attempted to be
	// replaced with a different one without the required price bump.
	ErrReplaceUnderpriced = errors.New("replacement transaction underpriced")

	// ErrNonceTooLow is returned if the nonce of a transaction is lower than
	// the sender's confirmed nonce.
	ErrNonceTooLow = errors.New("nonce too low")

	// ErrInsufficientFunds is returned if the total cost of executing a
	// transaction is higher than the balance of the user's account.
	ErrInsufficientFunds = errors.New("insufficient funds for gas * price + value")

	// ErrPoolLimit is returned if a sub-pool is full and the incoming
	// transaction is not competitive enough to evict a resident one.
	ErrPoolLimit = errors.New("transaction pool limit reached")

	// ErrAccountLimit is returned if a sender exhausted its slot allowance
	// and the incoming transaction does not outrank any resident one.
	ErrAccountLimit = errors.New("account slot limit reached")

	// ErrOversizedData is returned if the encoded size of a transaction
	// exceeds the admission limit. This is not a consensus error, rather a
	// DOS protection.
	ErrOversizedData = errors.New("oversized data")

	// ErrGasLimit is returned if a transaction's requested gas limit exceeds
	// the maximum allowance of the current block.
	ErrGasLimit = errors.New("exceeds block gas limit")

	// ErrTooManyBlobs is returned if a blob transaction carries more blobs
	// than a block can fit.
	ErrTooManyBlobs = errors.New("too many blobs")
)

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

package params

const (
	TxGas uint64 = 21000 // Per transaction not creating a contract.

	// MaxTxSize is the heuristic limit on the encoded size of a single
	// transaction accepted into the pool.
	MaxTxSize uint64 = 32 * 1024

	// BlobGasPerBlob is the gas consumed by a single data blob.
	BlobGasPerBlob uint64 = 1 << 17

	// MaxBlobsPerTx caps the number of blobs a single transaction may carry.
	MaxBlobsPerTx = 6

	Wei   uint64 = 1
	GWei  uint64 = 1e9
	Ether uint64 = 1e18
)

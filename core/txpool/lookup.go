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

import (
	"github.com/emberchain/ember/common"
	"github.com/emberchain/ember/core/types"
)

// txLookup is the pool's record store. It maps every resident transaction
// hash to its record and tracks which sub-pool each record currently sits in,
// maintaining per-sub-pool slot and byte tallies as records move.
//
// The lookup is internal to the pool and assumes the holder of the pool lock,
// so it performs no locking of its own.
type txLookup struct {
	txs  map[common.Hash]*types.Transaction
	tags map[common.Hash]SubPool

	slots [numSubPools]uint64 // Resident transaction count per sub-pool
	bytes [numSubPools]uint64 // Aggregate encoded size per sub-pool
}

func newTxLookup() *txLookup {
	return &txLookup{
		txs:  make(map[common.Hash]*types.Transaction),
		tags: make(map[common.Hash]SubPool),
	}
}

// Get returns a transaction if it exists in the lookup, or nil if not found.
func (t *txLookup) Get(hash common.Hash) *types.Transaction {
	return t.txs[hash]
}

// Tag returns the sub-pool a resident transaction currently belongs to, or
// SubPoolNone for unknown hashes.
func (t *txLookup) Tag(hash common.Hash) SubPool {
	return t.tags[hash]
}

// Count returns the number of transactions currently resident in a sub-pool.
func (t *txLookup) Count(pool SubPool) uint64 {
	return t.slots[pool]
}

// Bytes returns the aggregate encoded size of a sub-pool's residents.
func (t *txLookup) Bytes(pool SubPool) uint64 {
	return t.bytes[pool]
}

// Total returns the number of transactions across all sub-pools.
func (t *txLookup) Total() int {
	return len(t.txs)
}

// Add inserts a transaction under the given sub-pool tag. The hash must not
// already be present.
func (t *txLookup) Add(tx *types.Transaction, pool SubPool) {
	hash := tx.Hash()
	t.txs[hash] = tx
	t.tags[hash] = pool
	t.slots[pool]++
	t.bytes[pool] += tx.Size()
}

// Move retags a resident transaction into a different sub-pool, shifting its
// slot and byte accounting. A no-op if the hash is unknown or the tag already
// matches.
func (t *txLookup) Move(hash common.Hash, pool SubPool) {
	tx, ok := t.txs[hash]
	if !ok {
		return
	}
	old := t.tags[hash]
	if old == pool {
		return
	}
	t.slots[old]--
	t.bytes[old] -= tx.Size()
	t.tags[hash] = pool
	t.slots[pool]++
	t.bytes[pool] += tx.Size()
}

// Remove deletes a transaction from the lookup, returning it if it was
// present.
func (t *txLookup) Remove(hash common.Hash) *types.Transaction {
	tx, ok := t.txs[hash]
	if !ok {
		return nil
	}
	pool := t.tags[hash]
	t.slots[pool]--
	t.bytes[pool] -= tx.Size()
	delete(t.txs, hash)
	delete(t.tags, hash)
	return tx
}

// Range iterates over all current transactions and invokes the given callback
// with the hash, the record and its sub-pool tag. Returning false from the
// callback stops the iteration.
func (t *txLookup) Range(f func(hash common.Hash, tx *types.Transaction, pool SubPool) bool) {
	for hash, tx := range t.txs {
		if !f(hash, tx, t.tags[hash]) {
			return
		}
	}
}

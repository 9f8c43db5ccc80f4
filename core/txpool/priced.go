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

package txpool

import (
	"container/heap"

	"github.com/holiman/uint256"

	"github.com/emberchain/ember/common"
	"github.com/emberchain/ember/core/types"
)

// evictCmp orders transactions for eviction at the given base fee. The worst
// transaction sorts first: lowest effective tip, ties broken by earliest
// arrival, final ties by hash.
func evictCmp(a, b *types.Transaction, baseFee *uint256.Int) int {
	if c := a.EffectiveGasTipCmp(b, baseFee); c != 0 {
		return c
	}
	if a.Arrival().Before(b.Arrival()) {
		return -1
	}
	if b.Arrival().Before(a.Arrival()) {
		return 1
	}
	ah, bh := a.Hash(), b.Hash()
	return ah.Cmp(bh)
}

// evictHeap is a min-heap over one sub-pool's transactions, worst first.
type evictHeap struct {
	txs     types.Transactions
	baseFee *uint256.Int
}

func (h *evictHeap) Len() int      { return len(h.txs) }
func (h *evictHeap) Swap(i, j int) { h.txs[i], h.txs[j] = h.txs[j], h.txs[i] }

func (h *evictHeap) Less(i, j int) bool {
	return evictCmp(h.txs[i], h.txs[j], h.baseFee) < 0
}

func (h *evictHeap) Push(x interface{}) {
	h.txs = append(h.txs, x.(*types.Transaction))
}

func (h *evictHeap) Pop() interface{} {
	old := h.txs
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	h.txs = old[:n-1]
	return x
}

// pricedIndex keeps a worst-first eviction heap per sub-pool so that capacity
// overflow can shed the least valuable residents.
//
// Removals from the pool do not eagerly fix the heaps. Instead the index
// counts stale entries and filters them out lazily against the lookup when
// popped; once stales grow past a quarter of a heap it is rebuilt. Entries
// whose lookup tag no longer matches the heap they sit in are likewise stale,
// which is how re-classification invalidates old positions for free.
type pricedIndex struct {
	all     *txLookup
	heaps   [numSubPools]*evictHeap
	stales  [numSubPools]int
	baseFee *uint256.Int
}

func newPricedIndex(all *txLookup, baseFee *uint256.Int) *pricedIndex {
	p := &pricedIndex{
		all:     all,
		baseFee: baseFee,
	}
	for i := range p.heaps {
		p.heaps[i] = &evictHeap{baseFee: baseFee}
	}
	return p
}

// Put inserts a transaction into the eviction heap of the sub-pool it was
// tagged into.
func (p *pricedIndex) Put(pool SubPool, tx *types.Transaction) {
	heap.Push(p.heaps[pool], tx)
}

// Removed notifies the index that transactions were dropped from a sub-pool,
// either by eviction elsewhere, confirmation or re-classification. The heap
// is rebuilt once a quarter of its entries have gone stale.
func (p *pricedIndex) Removed(pool SubPool, count int) {
	p.stales[pool] += count
	if h := p.heaps[pool]; p.stales[pool] > h.Len()/4 {
		p.rebuild(pool)
	}
}

// rebuild regenerates one sub-pool's heap from the lookup.
func (p *pricedIndex) rebuild(pool SubPool) {
	h := &evictHeap{
		txs:     make(types.Transactions, 0, p.all.Count(pool)),
		baseFee: p.baseFee,
	}
	p.all.Range(func(_ common.Hash, tx *types.Transaction, tag SubPool) bool {
		if tag == pool {
			h.txs = append(h.txs, tx)
		}
		return true
	})
	heap.Init(h)
	p.heaps[pool], p.stales[pool] = h, 0
}

// SetBaseFee updates the fee point the effective tips are measured against
// and rebuilds every heap, since the relative order may have changed.
func (p *pricedIndex) SetBaseFee(baseFee *uint256.Int) {
	p.baseFee = baseFee
	for i := SubPool(0); i < numSubPools; i++ {
		if i == SubPoolNone {
			continue
		}
		p.rebuild(i)
	}
}

// Worst returns the lowest valued transaction currently resident in a
// sub-pool, skipping over stale heap entries, or nil if the sub-pool is
// empty.
func (p *pricedIndex) Worst(pool SubPool) *types.Transaction {
	h := p.heaps[pool]
	for h.Len() > 0 {
		tx := h.txs[0]
		if p.stale(pool, tx) {
			heap.Pop(h)
			p.stales[pool]--
			continue
		}
		return tx
	}
	return nil
}

// Discard pops up to count live transactions off a sub-pool's eviction heap,
// worst first. The caller is responsible for actually removing the returned
// transactions from the pool structures.
func (p *pricedIndex) Discard(pool SubPool, count int) types.Transactions {
	var drop types.Transactions

	h := p.heaps[pool]
	for h.Len() > 0 && len(drop) < count {
		tx := heap.Pop(h).(*types.Transaction)
		if p.stale(pool, tx) {
			p.stales[pool]--
			continue
		}
		drop = append(drop, tx)
	}
	return drop
}

// stale reports whether a heap entry no longer reflects the lookup: the
// transaction left the pool, was replaced under the same hash slot, or was
// re-classified into a different sub-pool.
func (p *pricedIndex) stale(pool SubPool, tx *types.Transaction) bool {
	hash := tx.Hash()
	return p.all.Get(hash) != tx || p.all.Tag(hash) != pool
}

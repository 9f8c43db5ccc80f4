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
	"sort"

	"github.com/holiman/uint256"

	"github.com/emberchain/ember/core/types"
)

// nonceHeap is a heap.Interface implementation over 64bit unsigned integers for
// retrieving sorted transactions from the possibly gapped future queue.
type nonceHeap []uint64

func (h nonceHeap) Len() int           { return len(h) }
func (h nonceHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h nonceHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *nonceHeap) Push(x interface{}) {
	*h = append(*h, x.(uint64))
}

func (h *nonceHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	old[n-1] = 0
	*h = old[:n-1]
	return x
}

// sortedMap is a nonce->transaction map with a heap based index to allow
// iterating over the contents in a nonce-incrementing way.
type sortedMap struct {
	items map[uint64]*types.Transaction // Hash map storing the transaction data
	index *nonceHeap                    // Heap of nonces of all the stored transactions (non-strict mode)
	cache types.Transactions            // Cache of the transactions already sorted
}

func newSortedMap() *sortedMap {
	return &sortedMap{
		items: make(map[uint64]*types.Transaction),
		index: new(nonceHeap),
	}
}

// Get retrieves the current transaction associated with the given nonce.
func (m *sortedMap) Get(nonce uint64) *types.Transaction {
	return m.items[nonce]
}

// Put inserts a new transaction into the map, also updating the map's nonce
// index. If a transaction already exists with the same nonce, it's overwritten.
func (m *sortedMap) Put(tx *types.Transaction) {
	nonce := tx.Nonce()
	if m.items[nonce] == nil {
		heap.Push(m.index, nonce)
	}
	m.items[nonce], m.cache = tx, nil
}

// Forward removes all transactions from the map with a nonce lower than the
// provided threshold. Every removed transaction is returned for any
// post-removal maintenance.
func (m *sortedMap) Forward(threshold uint64) types.Transactions {
	var removed types.Transactions

	// Pop off heap items until the threshold is reached
	for m.index.Len() > 0 && (*m.index)[0] < threshold {
		nonce := heap.Pop(m.index).(uint64)
		removed = append(removed, m.items[nonce])
		delete(m.items, nonce)
	}
	if m.cache != nil {
		m.cache = m.cache[len(removed):]
	}
	return removed
}

// Filter iterates over the list of transactions and removes all of them for
// which the specified function evaluates to true.
func (m *sortedMap) Filter(filter func(*types.Transaction) bool) types.Transactions {
	var removed types.Transactions

	// Collect all the transactions to filter out
	for nonce, tx := range m.items {
		if filter(tx) {
			removed = append(removed, tx)
			delete(m.items, nonce)
		}
	}
	// If transactions were removed, the heap and cache are ruined
	if len(removed) > 0 {
		m.reheap()
	}
	return removed
}

func (m *sortedMap) reheap() {
	*m.index = make(nonceHeap, 0, len(m.items))
	for nonce := range m.items {
		*m.index = append(*m.index, nonce)
	}
	heap.Init(m.index)
	m.cache = nil
}

// Remove deletes a transaction from the maintained map, returning whether the
// transaction was found.
func (m *sortedMap) Remove(nonce uint64) bool {
	// Short circuit if no transaction is present
	_, ok := m.items[nonce]
	if !ok {
		return false
	}
	// Otherwise delete the transaction and fix the heap index
	for i := 0; i < m.index.Len(); i++ {
		if (*m.index)[i] == nonce {
			heap.Remove(m.index, i)
			break
		}
	}
	delete(m.items, nonce)
	m.cache = nil

	return true
}

// Len returns the length of the transaction map.
func (m *sortedMap) Len() int {
	return len(m.items)
}

// Flatten creates a nonce-sorted slice of transactions based on the loosely
// sorted internal representation. The result of the sorting is cached in case
// it's requested again before any modifications are made to the contents.
func (m *sortedMap) Flatten() types.Transactions {
	// If the sorting was not cached yet, create and cache it
	if m.cache == nil {
		m.cache = make(types.Transactions, 0, len(m.items))
		for _, tx := range m.items {
			m.cache = append(m.cache, tx)
		}
		sort.Sort(types.TxByNonce(m.cache))
	}
	// Copy the cache to prevent accidental modifications
	txs := make(types.Transactions, len(m.cache))
	copy(txs, m.cache)
	return txs
}

// FirstElement returns the transaction with the lowest nonce currently stored
// in the map, or nil if empty.
func (m *sortedMap) FirstElement() *types.Transaction {
	if m.index.Len() == 0 {
		return nil
	}
	return m.items[(*m.index)[0]]
}

// list is a "list" of transactions belonging to an account, sorted by account
// nonce. It holds every pooled transaction of the sender regardless of which
// sub-pool each currently sits in.
type list struct {
	txs *sortedMap // Heap indexed sorted hash map of the transactions

	costcap *uint256.Int // Price of the highest costing transaction (reset only if exceeds balance)
}

func newList() *list {
	return &list{
		txs:     newSortedMap(),
		costcap: new(uint256.Int),
	}
}

// Get returns the transaction with the given nonce, or nil.
func (l *list) Get(nonce uint64) *types.Transaction {
	return l.txs.Get(nonce)
}

// Add tries to insert a new transaction into the list, returning whether the
// transaction was accepted, and if yes, any previous transaction it replaced.
//
// If there is an occupant at the same nonce, the new transaction must carry
// both a fee cap and a tip cap raised by at least priceBump percent over the
// old one, otherwise it is rejected and the occupant kept.
func (l *list) Add(tx *types.Transaction, priceBump uint64) (bool, *types.Transaction) {
	// If there's an older better transaction, abort
	old := l.txs.Get(tx.Nonce())
	if old != nil {
		if !bumpedEnough(old, tx, priceBump) {
			return false, nil
		}
	}
	// Otherwise overwrite the old transaction with the current one
	l.txs.Put(tx)
	if cost := tx.Cost(); l.costcap.Cmp(cost) < 0 {
		l.costcap = cost
	}
	return true, old
}

// bumpedEnough reports whether the replacement transaction raises both the fee
// cap and the tip cap of the occupant by at least priceBump percent. A bump of
// 100 requires doubling.
func bumpedEnough(old, tx *types.Transaction, priceBump uint64) bool {
	// threshold = oldPrice * (100 + priceBump) / 100
	bump := uint256.NewInt(100 + priceBump)

	feeThreshold := new(uint256.Int).Mul(old.GasFeeCap(), bump)
	feeThreshold.Div(feeThreshold, uint256.NewInt(100))

	tipThreshold := new(uint256.Int).Mul(old.GasTipCap(), bump)
	tipThreshold.Div(tipThreshold, uint256.NewInt(100))

	if tx.GasFeeCap().Cmp(feeThreshold) < 0 || tx.GasTipCap().Cmp(tipThreshold) < 0 {
		return false
	}
	if old.IsBlob() && tx.IsBlob() {
		blobThreshold := new(uint256.Int).Mul(old.BlobFeeCap(), bump)
		blobThreshold.Div(blobThreshold, uint256.NewInt(100))
		if tx.BlobFeeCap().Cmp(blobThreshold) < 0 {
			return false
		}
	}
	return true
}

// Forward removes all transactions from the list with a nonce lower than the
// provided threshold. Every removed transaction is returned for any
// post-removal maintenance.
func (l *list) Forward(threshold uint64) types.Transactions {
	return l.txs.Forward(threshold)
}

// Filter removes all transactions from the list with a cost higher than the
// provided balance. Returns the removed transactions.
//
// This method uses the cached costcap to quickly decide if there's even a
// point in calculating all the costs or if the balance covers all.
func (l *list) Filter(balance *uint256.Int) types.Transactions {
	// If all transactions are below the threshold, short circuit
	if l.costcap.Cmp(balance) <= 0 {
		return nil
	}
	l.costcap = new(uint256.Int).Set(balance) // Lower the cap to the threshold

	return l.txs.Filter(func(tx *types.Transaction) bool {
		return tx.Cost().Cmp(balance) > 0
	})
}

// Remove deletes a transaction from the maintained list, returning whether the
// transaction was found.
func (l *list) Remove(nonce uint64) bool {
	return l.txs.Remove(nonce)
}

// Empty reports whether the list holds no transactions.
func (l *list) Empty() bool {
	return l.txs.Len() == 0
}

// Len returns the length of the transaction list.
func (l *list) Len() int {
	return l.txs.Len()
}

// Flatten returns a nonce-sorted slice of the account's transactions.
func (l *list) Flatten() types.Transactions {
	return l.txs.Flatten()
}

// First returns the transaction with the lowest nonce, or nil if the list is
// empty.
func (l *list) First() *types.Transaction {
	return l.txs.FirstElement()
}

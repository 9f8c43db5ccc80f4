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
	"container/heap"

	"github.com/holiman/uint256"

	"github.com/emberchain/ember/common"
)

// TipCmp orders two transactions for block inclusion under the given base
// fee: by effective tip descending, then earliest arrival, then hash. The
// total order is deterministic for any pair of distinct transactions.
func TipCmp(a, b *Transaction, baseFee *uint256.Int) int {
	if c := a.EffectiveGasTipCmp(b, baseFee); c != 0 {
		return c
	}
	if a.arrival.Before(b.arrival) {
		return 1
	}
	if b.arrival.Before(a.arrival) {
		return -1
	}
	return -a.hash.Cmp(b.hash)
}

// tipHeap is a max-heap over the per-sender head transactions.
type tipHeap struct {
	baseFee *uint256.Int
	heads   []*Transaction
}

func (h *tipHeap) Len() int      { return len(h.heads) }
func (h *tipHeap) Swap(i, j int) { h.heads[i], h.heads[j] = h.heads[j], h.heads[i] }

func (h *tipHeap) Less(i, j int) bool {
	return TipCmp(h.heads[i], h.heads[j], h.baseFee) > 0
}

func (h *tipHeap) Push(x interface{}) {
	h.heads = append(h.heads, x.(*Transaction))
}

func (h *tipHeap) Pop() interface{} {
	old := h.heads
	n := len(old)
	x := old[n-1]
	old[n-1] = nil
	h.heads = old[:n-1]
	return x
}

// TransactionsByTipAndNonce represents a set of transactions that can return
// transactions in a profit-maximising order, while supporting removing entire
// batches of transactions for non-executable accounts. Within one sender,
// transactions are always offered in ascending nonce order regardless of fee.
type TransactionsByTipAndNonce struct {
	txs   map[common.Address]Transactions // Per sender nonce-sorted remainder
	heads tipHeap                         // Next transaction of each sender
}

// NewTransactionsByTipAndNonce creates a transaction set that can retrieve
// tip-sorted transactions in a nonce-honouring way. The per-sender slices
// must be nonce-sorted; the map is consumed and must not be reused.
func NewTransactionsByTipAndNonce(txs map[common.Address]Transactions, baseFee *uint256.Int) *TransactionsByTipAndNonce {
	s := &TransactionsByTipAndNonce{
		txs:   txs,
		heads: tipHeap{baseFee: baseFee},
	}
	for sender, list := range txs {
		if len(list) == 0 {
			delete(txs, sender)
			continue
		}
		s.heads.heads = append(s.heads.heads, list[0])
		txs[sender] = list[1:]
	}
	heap.Init(&s.heads)
	return s
}

// Peek returns the next best transaction without removing it from the set.
func (t *TransactionsByTipAndNonce) Peek() *Transaction {
	if len(t.heads.heads) == 0 {
		return nil
	}
	return t.heads.heads[0]
}

// Shift replaces the current best head with the next one from the same sender.
func (t *TransactionsByTipAndNonce) Shift() {
	sender := t.heads.heads[0].sender
	if rest := t.txs[sender]; len(rest) > 0 {
		t.heads.heads[0], t.txs[sender] = rest[0], rest[1:]
		heap.Fix(&t.heads, 0)
		return
	}
	heap.Pop(&t.heads)
}

// Pop removes the best transaction together with the rest of its sender's
// transactions, skipping the whole account. Used when a transaction cannot be
// executed so later nonces of the account are moot.
func (t *TransactionsByTipAndNonce) Pop() {
	sender := t.heads.heads[0].sender
	delete(t.txs, sender)
	heap.Pop(&t.heads)
}

// Empty reports whether the set has been drained.
func (t *TransactionsByTipAndNonce) Empty() bool {
	return len(t.heads.heads) == 0
}

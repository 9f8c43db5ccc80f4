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
	"math/rand"
	"testing"

	"github.com/holiman/uint256"

	"github.com/emberchain/ember/core/types"
	"github.com/emberchain/ember/params"
)

// Tests that transactions can be added to strict lists and list contents and
// nonce boundaries are correctly maintained.
func TestListAdd(t *testing.T) {
	sender := testAddr(1)

	// Generate a list of transactions to insert
	txs := make(types.Transactions, 1024)
	for i := 0; i < len(txs); i++ {
		txs[i] = dynamicTx(sender, uint64(i), params.GWei, 10*params.GWei, types.OriginPeer)
	}
	// Insert the transactions in a random order
	l := newList()
	for _, v := range rand.Perm(len(txs)) {
		l.Add(txs[v], DefaultConfig.PriceBump)
	}
	// Verify internal state
	if l.Len() != len(txs) {
		t.Errorf("transaction count mismatch: have %d, want %d", l.Len(), len(txs))
	}
	for i, tx := range txs {
		if l.Get(uint64(i)) != tx {
			t.Errorf("item %d: transaction mismatch: have %v, want %v", i, l.Get(uint64(i)), tx)
		}
	}
	flat := l.Flatten()
	for i := 1; i < len(flat); i++ {
		if flat[i-1].Nonce() >= flat[i].Nonce() {
			t.Errorf("flatten out of order at %d: %d >= %d", i, flat[i-1].Nonce(), flat[i].Nonce())
		}
	}
}

func TestListReplacement(t *testing.T) {
	sender := testAddr(1)
	l := newList()

	old := dynamicTx(sender, 0, params.GWei, 10*params.GWei, types.OriginPeer)
	if ok, _ := l.Add(old, 10); !ok {
		t.Fatal("failed to insert initial transaction")
	}
	// Under the bump threshold on the fee cap
	weak := dynamicTx(sender, 0, 2*params.GWei, 10*params.GWei, types.OriginPeer)
	if ok, _ := l.Add(weak, 10); ok {
		t.Error("replacement under the fee cap bump accepted")
	}
	// Under the bump threshold on the tip
	weakTip := dynamicTx(sender, 0, params.GWei, 12*params.GWei, types.OriginPeer)
	if ok, _ := l.Add(weakTip, 10); ok {
		t.Error("replacement under the tip bump accepted")
	}
	strong := dynamicTx(sender, 0, 2*params.GWei, 12*params.GWei, types.OriginPeer)
	ok, replaced := l.Add(strong, 10)
	if !ok {
		t.Fatal("valid replacement rejected")
	}
	if replaced != old {
		t.Errorf("replaced transaction mismatch: have %v, want %v", replaced, old)
	}
	if l.Get(0) != strong {
		t.Error("occupant not swapped for the replacement")
	}
}

func TestListForward(t *testing.T) {
	sender := testAddr(1)
	l := newList()

	for i := uint64(0); i < 10; i++ {
		l.Add(dynamicTx(sender, i, params.GWei, 10*params.GWei, types.OriginPeer), 10)
	}
	removed := l.Forward(5)
	if len(removed) != 5 {
		t.Fatalf("removed count mismatch: have %d, want 5", len(removed))
	}
	for _, tx := range removed {
		if tx.Nonce() >= 5 {
			t.Errorf("transaction %d should have been kept", tx.Nonce())
		}
	}
	if l.Len() != 5 {
		t.Errorf("remaining count mismatch: have %d, want 5", l.Len())
	}
	if first := l.First(); first == nil || first.Nonce() != 5 {
		t.Errorf("first nonce mismatch after forward: have %v, want 5", first)
	}
}

func TestListFilterCost(t *testing.T) {
	sender := testAddr(1)
	l := newList()

	// Ascending fee caps make the higher nonces the expensive ones
	for i := uint64(0); i < 10; i++ {
		l.Add(dynamicTx(sender, i, params.GWei, (i+1)*params.GWei, types.OriginPeer), 10)
	}
	// Cover only the five cheapest
	limit := new(uint256.Int).Mul(uint256.NewInt(5*params.GWei), uint256.NewInt(params.TxGas))
	removed := l.Filter(limit)
	if len(removed) != 5 {
		t.Fatalf("removed count mismatch: have %d, want 5", len(removed))
	}
	for _, tx := range removed {
		if tx.Cost().Cmp(limit) <= 0 {
			t.Errorf("transaction %d was payable, should have been kept", tx.Nonce())
		}
	}
	// A second filter at the same threshold short circuits
	if again := l.Filter(limit); len(again) != 0 {
		t.Errorf("second filter removed %d transactions, want 0", len(again))
	}
}

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
	"testing"

	"github.com/holiman/uint256"

	"github.com/emberchain/ember/common"
	"github.com/emberchain/ember/params"
)

func mkTx(sender byte, nonce, tip, feeCap uint64) *Transaction {
	var addr common.Address
	addr[0] = sender
	return NewTransaction(TxData{
		Sender:    addr,
		Nonce:     nonce,
		Gas:       params.TxGas,
		GasFeeCap: uint256.NewInt(feeCap),
		GasTipCap: uint256.NewInt(tip),
		Value:     uint256.NewInt(0),
		Size:      300,
	}, OriginPeer)
}

func TestTransactionHashDeterminism(t *testing.T) {
	a := mkTx(1, 0, params.GWei, 10*params.GWei)
	b := mkTx(1, 0, params.GWei, 10*params.GWei)
	if a.Hash() != b.Hash() {
		t.Error("identical content should hash identically regardless of arrival")
	}
	c := mkTx(1, 0, params.GWei, 11*params.GWei)
	if a.Hash() == c.Hash() {
		t.Error("differing fee caps should change the hash")
	}
}

func TestEffectiveGasTip(t *testing.T) {
	baseFee := uint256.NewInt(10 * params.GWei)

	// Tip capped by the fee cap headroom over the base fee
	capped := mkTx(1, 0, 5*params.GWei, 12*params.GWei)
	if tip := capped.EffectiveGasTip(baseFee); tip.Uint64() != 2*params.GWei {
		t.Errorf("capped tip mismatch: have %v, want 2 gwei", tip)
	}
	// Tip fully payable
	full := mkTx(1, 0, params.GWei, 20*params.GWei)
	if tip := full.EffectiveGasTip(baseFee); tip.Uint64() != params.GWei {
		t.Errorf("full tip mismatch: have %v, want 1 gwei", tip)
	}
	// Under the base fee, the effective tip floors at zero
	under := mkTx(1, 0, params.GWei, 5*params.GWei)
	if tip := under.EffectiveGasTip(baseFee); !tip.IsZero() {
		t.Errorf("under base fee tip mismatch: have %v, want 0", tip)
	}
}

func TestTransactionCost(t *testing.T) {
	tx := NewTransaction(TxData{
		Sender:    common.Address{1},
		Nonce:     0,
		Gas:       params.TxGas,
		GasFeeCap: uint256.NewInt(2 * params.GWei),
		GasTipCap: uint256.NewInt(params.GWei),
		Value:     uint256.NewInt(params.Ether),
		Size:      300,
	}, OriginPeer)

	want := new(uint256.Int).Mul(uint256.NewInt(2*params.GWei), uint256.NewInt(params.TxGas))
	want.Add(want, uint256.NewInt(params.Ether))
	if tx.Cost().Cmp(want) != 0 {
		t.Errorf("cost mismatch: have %v, want %v", tx.Cost(), want)
	}
}

func TestBlobTransactionCost(t *testing.T) {
	tx := NewTransaction(TxData{
		Sender:     common.Address{1},
		Nonce:      0,
		Gas:        params.TxGas,
		GasFeeCap:  uint256.NewInt(2 * params.GWei),
		GasTipCap:  uint256.NewInt(params.GWei),
		Value:      uint256.NewInt(0),
		Size:       1024,
		Blobs:      2,
		BlobFeeCap: uint256.NewInt(params.GWei),
	}, OriginPeer)

	want := new(uint256.Int).Mul(uint256.NewInt(2*params.GWei), uint256.NewInt(params.TxGas))
	blob := new(uint256.Int).Mul(uint256.NewInt(params.GWei), uint256.NewInt(2*params.BlobGasPerBlob))
	want.Add(want, blob)
	if tx.Cost().Cmp(want) != 0 {
		t.Errorf("blob cost mismatch: have %v, want %v", tx.Cost(), want)
	}
}

func TestTransactionsByTipAndNonce(t *testing.T) {
	baseFee := uint256.NewInt(params.GWei)

	groups := make(map[common.Address]Transactions)
	for sender := byte(1); sender <= 3; sender++ {
		var addr common.Address
		addr[0] = sender
		for nonce := uint64(0); nonce < 3; nonce++ {
			// Spread the tips so cross-sender order interleaves
			groups[addr] = append(groups[addr], mkTx(sender, nonce, uint64(sender)*params.GWei+nonce, 20*params.GWei))
		}
	}
	set := NewTransactionsByTipAndNonce(groups, baseFee)

	// The globally best tip leads
	if first := set.Peek(); first.Sender()[0] != 3 || first.Nonce() != 0 {
		t.Errorf("head mismatch: have sender %d nonce %d, want sender 3 nonce 0", first.Sender()[0], first.Nonce())
	}
	var (
		total int
		seen  = make(map[common.Address]uint64)
	)
	for !set.Empty() {
		tx := set.Peek()
		total++

		// Per sender, nonces must come out ascending even though the later
		// ones carry higher tips
		if last, ok := seen[tx.Sender()]; ok && tx.Nonce() <= last {
			t.Errorf("sender %v nonce order violated: %d after %d", tx.Sender(), tx.Nonce(), last)
		}
		seen[tx.Sender()] = tx.Nonce()
		set.Shift()
	}
	if total != 9 {
		t.Errorf("transaction count mismatch: have %d, want 9", total)
	}
}

func TestTransactionsByTipAndNoncePop(t *testing.T) {
	baseFee := uint256.NewInt(params.GWei)

	var a, b common.Address
	a[0], b[0] = 1, 2
	groups := map[common.Address]Transactions{
		a: {mkTx(1, 0, 5*params.GWei, 20*params.GWei), mkTx(1, 1, 5*params.GWei, 20*params.GWei)},
		b: {mkTx(2, 0, 3*params.GWei, 20*params.GWei)},
	}
	set := NewTransactionsByTipAndNonce(groups, baseFee)

	// Popping the best sender discards its whole lane
	if set.Peek().Sender() != a {
		t.Fatal("expected sender a first")
	}
	set.Pop()
	if set.Peek().Sender() != b {
		t.Error("pop should discard the remaining transactions of the sender")
	}
	set.Shift()
	if !set.Empty() {
		t.Error("set should be exhausted")
	}
}

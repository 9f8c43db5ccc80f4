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

package gasprice

import (
	"testing"

	"github.com/holiman/uint256"

	"github.com/emberchain/ember/common"
	"github.com/emberchain/ember/core/types"
	"github.com/emberchain/ember/params"
)

type testBackend struct {
	head    *types.Head
	pending map[common.Address]types.Transactions
}

func (b *testBackend) CurrentHead() *types.Head { return b.head }

func (b *testBackend) Pending() map[common.Address]types.Transactions { return b.pending }

func makeBackend(tips ...uint64) *testBackend {
	head := &types.Head{
		Number:  1,
		Hash:    common.BytesToHash([]byte{1}),
		BaseFee: uint256.NewInt(params.GWei),
	}
	pending := make(map[common.Address]types.Transactions)
	for i, tip := range tips {
		var sender common.Address
		sender[0] = byte(i + 1)
		pending[sender] = types.Transactions{types.NewTransaction(types.TxData{
			Sender:    sender,
			Nonce:     0,
			Gas:       params.TxGas,
			// Fee cap covers base fee plus the whole tip, so the effective
			// tip is never clamped below the fixture value
			GasFeeCap: uint256.NewInt(tip + params.GWei),
			GasTipCap: uint256.NewInt(tip),
			Size:      300,
		}, types.OriginPeer)}
	}
	return &testBackend{head: head, pending: pending}
}

func TestSuggestTipPercentile(t *testing.T) {
	backend := makeBackend(
		1*params.GWei, 2*params.GWei, 3*params.GWei, 4*params.GWei, 5*params.GWei,
		6*params.GWei, 7*params.GWei, 8*params.GWei, 9*params.GWei, 10*params.GWei,
	)
	oracle := NewOracle(backend, Config{Percentile: 60})

	// Index (10-1)*60/100 = 5 in the sorted tips
	if tip := oracle.SuggestTip(); tip.Uint64() != 6*params.GWei {
		t.Errorf("suggestion mismatch: have %v, want 6 gwei", tip)
	}
}

func TestSuggestTipEmptyPool(t *testing.T) {
	oracle := NewOracle(makeBackend(), Config{Percentile: 60})

	if tip := oracle.SuggestTip(); tip.Cmp(DefaultTip) != 0 {
		t.Errorf("empty pool suggestion mismatch: have %v, want %v", tip, DefaultTip)
	}
}

func TestSuggestTipThinSample(t *testing.T) {
	// Two pooled transactions are below the sample floor of three
	oracle := NewOracle(makeBackend(50*params.GWei, 60*params.GWei), Config{Percentile: 60})

	if tip := oracle.SuggestTip(); tip.Cmp(DefaultTip) != 0 {
		t.Errorf("thin sample suggestion mismatch: have %v, want %v", tip, DefaultTip)
	}
}

func TestSuggestTipCapped(t *testing.T) {
	backend := makeBackend(1000*params.GWei, 2000*params.GWei, 3000*params.GWei)
	oracle := NewOracle(backend, Config{Percentile: 100})

	if tip := oracle.SuggestTip(); tip.Cmp(DefaultMaxPrice) != 0 {
		t.Errorf("cap not applied: have %v, want %v", tip, DefaultMaxPrice)
	}
}

func TestSuggestTipCachedPerHead(t *testing.T) {
	backend := makeBackend(1*params.GWei, 2*params.GWei, 3*params.GWei)
	oracle := NewOracle(backend, Config{Percentile: 100})

	first := oracle.SuggestTip()

	// Pool churn without a head change does not move the cached suggestion
	backend.pending = makeBackend(50*params.GWei, 60*params.GWei, 70*params.GWei).pending
	if tip := oracle.SuggestTip(); tip.Cmp(first) != 0 {
		t.Errorf("cached suggestion moved without a head change: have %v, want %v", tip, first)
	}
	// A new head resamples
	backend.head = &types.Head{
		Number:  2,
		Hash:    common.BytesToHash([]byte{2}),
		BaseFee: uint256.NewInt(params.GWei),
	}
	if tip := oracle.SuggestTip(); tip.Uint64() != 70*params.GWei {
		t.Errorf("resample after head change mismatch: have %v", tip)
	}
}

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

package core

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/emberchain/ember/common"
	"github.com/emberchain/ember/core/types"
	"github.com/emberchain/ember/params"
)

func devTx(sender common.Address, nonce, tip uint64) *types.Transaction {
	return types.NewTransaction(types.TxData{
		Sender:    sender,
		Nonce:     nonce,
		Gas:       params.TxGas,
		GasFeeCap: uint256.NewInt(20 * params.GWei),
		GasTipCap: uint256.NewInt(tip),
		Value:     uint256.NewInt(0),
		Size:      300,
	}, types.OriginPeer)
}

func TestAdvanceHead(t *testing.T) {
	chain := NewSimChain(params.GWei)

	var sender common.Address
	sender[0] = 1
	chain.SetAccount(sender, 0, new(uint256.Int).Mul(uint256.NewInt(10), uint256.NewInt(params.Ether)))

	events := make(chan HeadEvent, 1)
	chain.SubscribeHeadEvent(events)
	defer chain.UnsubscribeHeadEvent(events)

	tx := devTx(sender, 0, params.GWei)
	head := chain.AdvanceHead(uint256.NewInt(2*params.GWei), types.Transactions{tx}, nil)

	require.Equal(t, uint64(1), head.Number)
	require.Equal(t, uint256.NewInt(2*params.GWei), head.BaseFee)

	nonce, balance := chain.AccountState(sender)
	require.Equal(t, uint64(1), nonce, "inclusion should advance the confirmed nonce")
	require.Negative(t, balance.Cmp(new(uint256.Int).Mul(uint256.NewInt(10), uint256.NewInt(params.Ether))),
		"inclusion should charge the sender")

	select {
	case ev := <-events:
		require.Equal(t, head.Hash, ev.Head.Hash)
		require.Len(t, ev.Confirmed, 1)
		require.Equal(t, types.AccountNonce{Sender: sender, Nonce: 0}, ev.Confirmed[0])
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for head event")
	}
}

func TestExecIsolated(t *testing.T) {
	chain := NewSimChain(params.GWei)

	var sender common.Address
	sender[0] = 1
	chain.SetAccount(sender, 0, new(uint256.Int).Mul(uint256.NewInt(10), uint256.NewInt(params.Ether)))

	exec := chain.NewExec(chain.CurrentHead())
	gasUsed, fee, err := exec.Apply(devTx(sender, 0, params.GWei))
	require.NoError(t, err)
	require.Equal(t, uint64(params.TxGas), gasUsed)
	require.Equal(t, new(uint256.Int).Mul(uint256.NewInt(params.GWei), uint256.NewInt(params.TxGas)), fee)

	// The environment mutated its private copy only
	nonce, _ := chain.AccountState(sender)
	require.Zero(t, nonce)

	// Replays against the same environment hit the bumped nonce
	_, _, err = exec.Apply(devTx(sender, 0, params.GWei))
	require.ErrorIs(t, err, ErrNonceTooLow)
}

func TestExecFailureInjection(t *testing.T) {
	chain := NewSimChain(params.GWei)

	var sender common.Address
	sender[0] = 1
	chain.SetAccount(sender, 0, new(uint256.Int).Mul(uint256.NewInt(10), uint256.NewInt(params.Ether)))

	tx := devTx(sender, 0, params.GWei)
	chain.FailTx(tx.Hash())

	exec := chain.NewExec(chain.CurrentHead())
	_, _, err := exec.Apply(tx)
	require.Error(t, err)

	// The failure must not consume the nonce; a replacement at the same
	// nonce still executes
	_, _, err = exec.Apply(devTx(sender, 0, 2*params.GWei))
	require.NoError(t, err)
}

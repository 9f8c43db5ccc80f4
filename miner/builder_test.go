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

package miner

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/emberchain/ember/common"
	"github.com/emberchain/ember/core"
	"github.com/emberchain/ember/core/txpool"
	"github.com/emberchain/ember/core/types"
	"github.com/emberchain/ember/params"
)

func testAddr(b byte) common.Address {
	var a common.Address
	a[0] = b
	return a
}

func dynamicTx(sender common.Address, nonce, tip uint64) *types.Transaction {
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

func testConfig() Config {
	return Config{
		Interval:   50 * time.Millisecond,
		Deadline:   time.Second,
		MaxTasks:   3,
		GasCeiling: 30_000_000,
	}
}

// setup funds a handful of senders, pools their transactions and hands back
// the collaborators. The builder is started by the individual tests so they
// control what the first job observes.
func setup(t *testing.T) (*core.SimChain, *txpool.TxPool) {
	t.Helper()

	chain := core.NewSimChain(params.GWei)

	poolConfig := txpool.DefaultConfig
	poolConfig.Journal = ""
	pool := txpool.New(poolConfig, chain)
	t.Cleanup(pool.Stop)

	return chain, pool
}

func fund(chain *core.SimChain, addr common.Address) {
	chain.SetAccount(addr, 0, new(uint256.Int).Mul(uint256.NewInt(100), uint256.NewInt(params.Ether)))
}

func TestBuildEmptyPool(t *testing.T) {
	chain, pool := setup(t)

	builder := New(testConfig(), chain, pool)
	defer builder.Stop()

	payload := builder.Resolve()
	require.NotNil(t, payload, "an empty pool still resolves a payload")
	require.Empty(t, payload.Txs)
	require.Zero(t, payload.GasUsed)
	require.True(t, payload.Fees.IsZero())
}

func TestBuildOrdering(t *testing.T) {
	chain, pool := setup(t)

	// Two senders, the cheaper one with a two transaction run
	a, b := testAddr(1), testAddr(2)
	fund(chain, a)
	fund(chain, b)

	require.NoError(t, pool.AddRemote(dynamicTx(a, 0, 2*params.GWei)))
	require.NoError(t, pool.AddRemote(dynamicTx(a, 1, 5*params.GWei)))
	require.NoError(t, pool.AddRemote(dynamicTx(b, 0, 3*params.GWei)))

	builder := New(testConfig(), chain, pool)
	defer builder.Stop()

	payload := builder.Resolve()
	require.NotNil(t, payload)
	require.Len(t, payload.Txs, 3)

	// Sender a's nonce 1 pays the most but must trail nonce 0
	seen := make(map[common.Address]uint64)
	for _, tx := range payload.Txs {
		if last, ok := seen[tx.Sender()]; ok {
			require.Greater(t, tx.Nonce(), last, "sender nonce order violated in payload")
		}
		seen[tx.Sender()] = tx.Nonce()
	}
	require.Equal(t, uint64(3*params.TxGas), payload.GasUsed)

	// 2 + 5 + 3 gwei of tip over 21k gas each
	wantFees := new(uint256.Int).Mul(uint256.NewInt(10*params.GWei), uint256.NewInt(params.TxGas))
	require.Equal(t, wantFees, payload.Fees)
}

// A transaction failing mid-execution is dropped from the attempt and the
// job still resolves with the surviving work instead of erroring out.
func TestBuildPartialFailure(t *testing.T) {
	chain, pool := setup(t)

	a, b, c := testAddr(1), testAddr(2), testAddr(3)
	for _, addr := range []common.Address{a, b, c} {
		fund(chain, addr)
	}
	poisoned := dynamicTx(b, 0, 5*params.GWei)
	require.NoError(t, pool.AddRemote(dynamicTx(a, 0, 2*params.GWei)))
	require.NoError(t, pool.AddRemote(poisoned))
	require.NoError(t, pool.AddRemote(dynamicTx(c, 0, 3*params.GWei)))

	chain.FailTx(poisoned.Hash())

	builder := New(testConfig(), chain, pool)
	defer builder.Stop()

	payload := builder.Resolve()
	require.NotNil(t, payload)
	require.Len(t, payload.Txs, 2)
	for _, tx := range payload.Txs {
		require.NotEqual(t, poisoned.Hash(), tx.Hash(), "failing transaction leaked into the payload")
	}
}

func TestBuildGasCeiling(t *testing.T) {
	chain, pool := setup(t)

	sender := testAddr(1)
	fund(chain, sender)
	for nonce := uint64(0); nonce < 5; nonce++ {
		require.NoError(t, pool.AddRemote(dynamicTx(sender, nonce, 2*params.GWei)))
	}
	// Room for two transfers only
	config := testConfig()
	config.GasCeiling = 2*params.TxGas + params.TxGas/2

	builder := New(config, chain, pool)
	defer builder.Stop()

	payload := builder.Resolve()
	require.NotNil(t, payload)
	require.Len(t, payload.Txs, 2)
	require.LessOrEqual(t, payload.GasUsed, config.GasCeiling)
}

// A resolve request arriving while the very first job is still assembling
// must not shortcut it: the returned payload carries the full pool contents.
func TestResolveDuringFirstBuild(t *testing.T) {
	chain, pool := setup(t)

	sender := testAddr(1)
	fund(chain, sender)
	for nonce := uint64(0); nonce < 4; nonce++ {
		require.NoError(t, pool.AddRemote(dynamicTx(sender, nonce, 2*params.GWei)))
	}
	builder := New(testConfig(), chain, pool)
	defer builder.Stop()

	payload := builder.Resolve()
	require.NotNil(t, payload)
	require.Len(t, payload.Txs, 4, "early resolve returned a truncated payload")
}

func TestBuildRestartOnNewHead(t *testing.T) {
	chain, pool := setup(t)

	sender := testAddr(1)
	fund(chain, sender)
	require.NoError(t, pool.AddRemote(dynamicTx(sender, 0, 2*params.GWei)))

	config := testConfig()
	config.Deadline = time.Minute // Only head interrupts end jobs here

	builder := New(config, chain, pool)
	defer builder.Stop()

	head := chain.AdvanceHead(uint256.NewInt(params.GWei), nil, nil)

	// The interrupted job unwinds and a fresh one builds on the new parent.
	// Resolve drains whichever job is current until the new parent shows up.
	require.Eventually(t, func() bool {
		payload := builder.Resolve()
		return payload != nil && payload.Parent.Number >= head.Number
	}, 5*time.Second, 10*time.Millisecond)
}

func TestBuildContinuous(t *testing.T) {
	chain, pool := setup(t)

	sender := testAddr(1)
	fund(chain, sender)
	require.NoError(t, pool.AddRemote(dynamicTx(sender, 0, 2*params.GWei)))

	config := testConfig()
	config.Deadline = 100 * time.Millisecond
	config.Continuous = true

	builder := New(config, chain, pool)
	defer builder.Stop()

	// Jobs run back to back without resolve requests
	require.Eventually(t, func() bool {
		payload := builder.BestPayload()
		return payload != nil && len(payload.Txs) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

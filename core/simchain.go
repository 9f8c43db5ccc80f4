// Copyright 2017 The go-ethereum Authors
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
	"errors"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"github.com/emberchain/ember/common"
	"github.com/emberchain/ember/core/types"
)

// Execution errors surfaced by the simulated state. The payload builder
// reacts to these per transaction and never aborts a whole job over them.
var (
	ErrNonceTooLow      = errors.New("nonce too low")
	ErrNonceTooHigh     = errors.New("nonce too high")
	ErrGasLimitReached  = errors.New("gas limit reached")
	ErrBalanceExhausted = errors.New("balance exhausted")
)

type simAccount struct {
	nonce   uint64
	balance uint256.Int
}

// SimChain is an in-memory chain-state collaborator: it tracks per-account
// nonce/balance, publishes head events and hands out execution environments
// for payload building. It backs the dev node and the test suites; a real
// deployment wires the execution client's state here instead.
type SimChain struct {
	mu       sync.RWMutex
	head     *types.Head
	accounts map[common.Address]*simAccount
	headFeed HeadFeed

	// Hashes that Exec.Apply fails deliberately, for exercising the
	// builder's partial-failure path.
	failing map[common.Hash]struct{}
}

// NewSimChain starts a chain at block 0 with the given base fee.
func NewSimChain(baseFee uint64) *SimChain {
	return &SimChain{
		head: &types.Head{
			Number:      0,
			Time:        uint64(time.Now().Unix()),
			GasLimit:    30_000_000,
			BaseFee:     uint256.NewInt(baseFee),
			BlobBaseFee: uint256.NewInt(1),
		},
		accounts: make(map[common.Address]*simAccount),
		failing:  make(map[common.Hash]struct{}),
	}
}

// SetAccount installs or overwrites an account's confirmed state.
func (c *SimChain) SetAccount(addr common.Address, nonce uint64, balance *uint256.Int) {
	c.mu.Lock()
	acct := &simAccount{nonce: nonce}
	acct.balance.Set(balance)
	c.accounts[addr] = acct
	c.mu.Unlock()
}

// CurrentHead returns the canonical tip.
func (c *SimChain) CurrentHead() *types.Head {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.head.Copy()
}

// AccountState returns the confirmed nonce and balance of an account.
// Unknown accounts read as empty.
func (c *SimChain) AccountState(addr common.Address) (uint64, *uint256.Int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if acct, ok := c.accounts[addr]; ok {
		return acct.nonce, new(uint256.Int).Set(&acct.balance)
	}
	return 0, new(uint256.Int)
}

func (c *SimChain) SubscribeHeadEvent(ch chan<- HeadEvent)   { c.headFeed.Subscribe(ch) }
func (c *SimChain) UnsubscribeHeadEvent(ch chan<- HeadEvent) { c.headFeed.Unsubscribe(ch) }

// AdvanceHead moves the chain one block forward: it bumps the confirmed
// nonces of the included transactions, charges their senders, applies the
// base fee and posts the head event. Discarded carries any transactions a
// reorg dropped from the old canonical chain.
func (c *SimChain) AdvanceHead(baseFee *uint256.Int, included types.Transactions, discarded types.Transactions) *types.Head {
	c.mu.Lock()
	confirmed := make([]types.AccountNonce, 0, len(included))
	for _, tx := range included {
		acct := c.accounts[tx.Sender()]
		if acct == nil {
			acct = new(simAccount)
			c.accounts[tx.Sender()] = acct
		}
		if tx.Nonce() >= acct.nonce {
			acct.nonce = tx.Nonce() + 1
		}
		cost := tx.Cost()
		if acct.balance.Cmp(cost) >= 0 {
			acct.balance.Sub(&acct.balance, cost)
		} else {
			acct.balance.Clear()
		}
		confirmed = append(confirmed, types.AccountNonce{Sender: tx.Sender(), Nonce: tx.Nonce()})
	}
	head := &types.Head{
		Number:      c.head.Number + 1,
		ParentHash:  c.head.Hash,
		Time:        uint64(time.Now().Unix()),
		GasLimit:    c.head.GasLimit,
		BaseFee:     new(uint256.Int).Set(baseFee),
		BlobBaseFee: new(uint256.Int).Set(c.head.BlobBaseFee),
	}
	var numBytes [8]byte
	for i := 0; i < 8; i++ {
		numBytes[i] = byte(head.Number >> (56 - 8*i))
	}
	head.Hash = common.BytesToHash(numBytes[:])
	c.head = head
	c.mu.Unlock()

	c.headFeed.Send(HeadEvent{Head: head.Copy(), Confirmed: confirmed, Discarded: discarded})
	return head.Copy()
}

// FailTx marks a transaction hash so the execution environment rejects it.
func (c *SimChain) FailTx(hash common.Hash) {
	c.mu.Lock()
	c.failing[hash] = struct{}{}
	c.mu.Unlock()
}

// Exec is a single-use execution environment for assembling one candidate
// payload. Implementations are not safe for concurrent use; every build task
// gets its own.
type Exec interface {
	// GasLeft returns the remaining block gas.
	GasLeft() uint64

	// Apply executes a single transaction, returning the gas used and the
	// fees accruing to the block builder.
	Apply(tx *types.Transaction) (uint64, *uint256.Int, error)
}

// NewExec returns a fresh execution environment over a copy of the current
// account state. Environments are independent; concurrent build tasks each
// get their own.
func (c *SimChain) NewExec(head *types.Head) Exec {
	c.mu.RLock()
	accounts := make(map[common.Address]*simAccount, len(c.accounts))
	for addr, acct := range c.accounts {
		cpy := &simAccount{nonce: acct.nonce}
		cpy.balance.Set(&acct.balance)
		accounts[addr] = cpy
	}
	failing := make(map[common.Hash]struct{}, len(c.failing))
	for h := range c.failing {
		failing[h] = struct{}{}
	}
	c.mu.RUnlock()

	return &SimExec{
		head:     head,
		accounts: accounts,
		failing:  failing,
		gasLeft:  head.GasLimit,
	}
}

// SimExec executes transactions against a private copy of the account state.
// Not safe for concurrent use; one per build task.
type SimExec struct {
	head     *types.Head
	accounts map[common.Address]*simAccount
	failing  map[common.Hash]struct{}
	gasLeft  uint64
}

// GasLeft returns the remaining block gas.
func (e *SimExec) GasLeft() uint64 { return e.gasLeft }

// Apply executes a single transaction, returning the gas used and the fees
// accruing to the block builder. State changes of failed transactions are
// not applied.
func (e *SimExec) Apply(tx *types.Transaction) (uint64, *uint256.Int, error) {
	if _, ok := e.failing[tx.Hash()]; ok {
		return 0, nil, errors.New("execution reverted")
	}
	acct := e.accounts[tx.Sender()]
	if acct == nil {
		acct = new(simAccount)
		e.accounts[tx.Sender()] = acct
	}
	if tx.Nonce() < acct.nonce {
		return 0, nil, ErrNonceTooLow
	}
	if tx.Nonce() > acct.nonce {
		return 0, nil, ErrNonceTooHigh
	}
	if e.gasLeft < tx.Gas() {
		return 0, nil, ErrGasLimitReached
	}
	cost := tx.Cost()
	if acct.balance.Cmp(cost) < 0 {
		return 0, nil, ErrBalanceExhausted
	}
	acct.nonce++
	acct.balance.Sub(&acct.balance, cost)
	e.gasLeft -= tx.Gas()

	fee := tx.EffectiveGasTip(e.head.BaseFee)
	fee.Mul(fee, uint256.NewInt(tx.Gas()))
	return tx.Gas(), fee, nil
}

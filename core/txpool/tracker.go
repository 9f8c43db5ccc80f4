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
	"time"

	mapset "github.com/deckarep/golang-set"
	"github.com/holiman/uint256"

	"github.com/emberchain/ember/common"
)

// accountInfo is the tracker's view of one sender: the confirmed nonce and
// balance as of the pool's current head, refreshed whenever the head moves.
type accountInfo struct {
	nonce   uint64
	balance *uint256.Int
}

// accountTracker caches per-sender chain state for every address with at
// least one resident transaction, and remembers when each sender was last
// active so that stale queued transactions can be expired.
//
// Like the rest of the pool internals it relies on the pool lock.
type accountTracker struct {
	accounts map[common.Address]*accountInfo
	beats    map[common.Address]time.Time // Last activity from each known sender
}

func newAccountTracker() *accountTracker {
	return &accountTracker{
		accounts: make(map[common.Address]*accountInfo),
		beats:    make(map[common.Address]time.Time),
	}
}

// get returns the cached state for a sender, or nil if untracked.
func (t *accountTracker) get(addr common.Address) *accountInfo {
	return t.accounts[addr]
}

// set overwrites the cached state for a sender.
func (t *accountTracker) set(addr common.Address, nonce uint64, balance *uint256.Int) {
	t.accounts[addr] = &accountInfo{nonce: nonce, balance: balance}
}

// heartbeat marks a sender as active now.
func (t *accountTracker) heartbeat(addr common.Address) {
	t.beats[addr] = time.Now()
}

// lastBeat returns the time of a sender's last activity.
func (t *accountTracker) lastBeat(addr common.Address) time.Time {
	return t.beats[addr]
}

// drop removes every trace of a sender. Called when the sender's last
// transaction leaves the pool.
func (t *accountTracker) drop(addr common.Address) {
	delete(t.accounts, addr)
	delete(t.beats, addr)
}

// accountSet is simply a set of addresses to check for existence.
type accountSet struct {
	accounts mapset.Set
}

func newAccountSet() *accountSet {
	return &accountSet{accounts: mapset.NewThreadUnsafeSet()}
}

// contains checks if a given address is contained within the set.
func (as *accountSet) contains(addr common.Address) bool {
	return as.accounts.Contains(addr)
}

// add inserts a new address into the set to track.
func (as *accountSet) add(addr common.Address) {
	as.accounts.Add(addr)
}

// flatten returns the list of addresses within this set.
func (as *accountSet) flatten() []common.Address {
	addrs := make([]common.Address, 0, as.accounts.Cardinality())
	for addr := range as.accounts.Iter() {
		addrs = append(addrs, addr.(common.Address))
	}
	return addrs
}

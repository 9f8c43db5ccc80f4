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

package core

import (
	"sync"

	"github.com/emberchain/ember/core/types"
	"github.com/emberchain/ember/log"
)

// NewTxsEvent is posted when a batch of transactions enters the pool.
type NewTxsEvent struct{ Txs types.Transactions }

// HeadEvent is posted when the canonical chain tip changes. Confirmed lists
// the (sender, nonce) slots consumed by the new head, Discarded carries the
// transactions dropped from the canonical chain by a reorg, to be considered
// for re-injection into the pool.
type HeadEvent struct {
	Head      *types.Head
	Confirmed []types.AccountNonce
	Discarded types.Transactions
}

// HeadFeed delivers HeadEvents to its subscribers. Sends never block: a
// subscriber with a full channel misses the event and is expected to resync
// from the current head.
type HeadFeed struct {
	sync.RWMutex
	subs []chan<- HeadEvent
}

func (f *HeadFeed) Close() {
	f.Lock()
	for _, sub := range f.subs {
		close(sub)
	}
	f.subs = nil
	f.Unlock()
}

func (f *HeadFeed) Subscribe(ch chan<- HeadEvent) {
	f.Lock()
	f.subs = append(f.subs, ch)
	f.Unlock()
}

func (f *HeadFeed) Unsubscribe(ch chan<- HeadEvent) {
	f.Lock()
	for i, s := range f.subs {
		if s == ch {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			close(ch)
			break
		}
	}
	f.Unlock()
}

func (f *HeadFeed) Send(ev HeadEvent) {
	f.RLock()
	for _, sub := range f.subs {
		select {
		case sub <- ev:
		default:
			log.Info("HeadFeed send dropped: channel full", "cap", cap(sub), "number", ev.Head.Number)
		}
	}
	f.RUnlock()
}

// NewTxsFeed delivers NewTxsEvents to its subscribers.
type NewTxsFeed struct {
	sync.RWMutex
	subs []chan<- NewTxsEvent
}

func (f *NewTxsFeed) Close() {
	f.Lock()
	for _, sub := range f.subs {
		close(sub)
	}
	f.subs = nil
	f.Unlock()
}

func (f *NewTxsFeed) Subscribe(ch chan<- NewTxsEvent) {
	f.Lock()
	f.subs = append(f.subs, ch)
	f.Unlock()
}

func (f *NewTxsFeed) Unsubscribe(ch chan<- NewTxsEvent) {
	f.Lock()
	for i, s := range f.subs {
		if s == ch {
			f.subs = append(f.subs[:i], f.subs[i+1:]...)
			close(ch)
			break
		}
	}
	f.Unlock()
}

func (f *NewTxsFeed) Send(ev NewTxsEvent) {
	f.RLock()
	for _, sub := range f.subs {
		select {
		case sub <- ev:
		default:
			log.Trace("NewTxsFeed send dropped: channel full", "cap", cap(sub), "txs", len(ev.Txs))
		}
	}
	f.RUnlock()
}

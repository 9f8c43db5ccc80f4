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

// Package gasprice recommends a priority fee for new transactions, derived
// from what the currently executable pool content is actually paying.
package gasprice

import (
	"sort"
	"sync"

	"github.com/holiman/uint256"

	"github.com/emberchain/ember/common"
	"github.com/emberchain/ember/core/types"
	"github.com/emberchain/ember/log"
	"github.com/emberchain/ember/params"
)

var (
	DefaultTip      = uint256.NewInt(params.GWei)
	DefaultMaxPrice = uint256.NewInt(500 * params.GWei)
)

type Config struct {
	Percentile int           `toml:",omitempty"` // Percentile of pooled tips to recommend
	Default    *uint256.Int  `toml:",omitempty"` // Suggestion for an empty pool
	MaxPrice   *uint256.Int  `toml:",omitempty"` // Upper bound on any suggestion
	MinSample  int           `toml:",omitempty"` // Fewer pooled transactions fall back to the default
}

// OracleBackend is the pool and chain surface the oracle samples.
type OracleBackend interface {
	CurrentHead() *types.Head
	Pending() map[common.Address]types.Transactions
}

// Oracle recommends a priority fee based on the tips the executable pool
// content offers at the current head. Suggestions are cached per head so
// repeated RPC calls within one block are free.
type Oracle struct {
	backend OracleBackend

	percentile int
	minSample  int
	defaultTip *uint256.Int
	maxPrice   *uint256.Int

	cacheLock sync.RWMutex
	lastHead  common.Hash
	lastTip   *uint256.Int
}

// NewOracle returns an oracle which suggests a priority fee at a configured
// percentile of the executable pool's effective tips.
func NewOracle(backend OracleBackend, config Config) *Oracle {
	percentile := config.Percentile
	if percentile < 0 || percentile > 100 {
		log.Warn("Sanitizing invalid gasprice percentile", "provided", percentile, "updated", 60)
		percentile = 60
	}
	defaultTip := config.Default
	if defaultTip == nil {
		defaultTip = DefaultTip
	}
	maxPrice := config.MaxPrice
	if maxPrice == nil || maxPrice.IsZero() {
		maxPrice = DefaultMaxPrice
	}
	minSample := config.MinSample
	if minSample < 1 {
		minSample = 3
	}
	return &Oracle{
		backend:    backend,
		percentile: percentile,
		minSample:  minSample,
		defaultTip: defaultTip,
		maxPrice:   maxPrice,
	}
}

// SuggestTip returns a priority fee that should get a new transaction
// included reasonably fast at the current head.
func (o *Oracle) SuggestTip() *uint256.Int {
	head := o.backend.CurrentHead()

	o.cacheLock.RLock()
	lastHead, lastTip := o.lastHead, o.lastTip
	o.cacheLock.RUnlock()
	if lastTip != nil && head.Hash == lastHead {
		return new(uint256.Int).Set(lastTip)
	}

	tip := o.sample(head)
	if tip.Cmp(o.maxPrice) > 0 {
		tip = new(uint256.Int).Set(o.maxPrice)
	}
	o.cacheLock.Lock()
	o.lastHead, o.lastTip = head.Hash, tip
	o.cacheLock.Unlock()

	log.Debug("Suggested new transaction tip", "tip", tip, "number", head.Number)
	return new(uint256.Int).Set(tip)
}

// sample picks the configured percentile of the effective tips across the
// executable pool content. Only one transaction per sender enters the sample
// so a single spamming account cannot move the suggestion.
func (o *Oracle) sample(head *types.Head) *uint256.Int {
	pending := o.backend.Pending()

	tips := make([]*uint256.Int, 0, len(pending))
	for _, txs := range pending {
		if len(txs) == 0 {
			continue
		}
		tips = append(tips, txs[0].EffectiveGasTip(head.BaseFee))
	}
	if len(tips) < o.minSample {
		return new(uint256.Int).Set(o.defaultTip)
	}
	sort.Slice(tips, func(i, j int) bool { return tips[i].Cmp(tips[j]) < 0 })

	idx := (len(tips) - 1) * o.percentile / 100
	return tips[idx]
}

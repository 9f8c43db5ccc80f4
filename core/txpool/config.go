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

	"github.com/emberchain/ember/log"
)

// SubPoolLimits caps one sub-pool by transaction count and by aggregate
// encoded byte size.
type SubPoolLimits struct {
	Slots uint64 `toml:",omitempty"` // Maximum number of resident transactions
	Bytes uint64 `toml:",omitempty"` // Maximum aggregate encoded size
}

// Config are the configuration parameters of the transaction pool.
type Config struct {
	NoLocals  bool          `toml:",omitempty"` // Whether local transaction handling should be disabled
	Journal   string        `toml:",omitempty"` // Journal of local transactions to survive node restarts
	Rejournal time.Duration `toml:",omitempty"` // Time interval to regenerate the local transaction journal

	TipFloor      uint64 `toml:",omitempty"` // Minimum priority fee to enforce for acceptance of remote transactions
	PriceBump     uint64 `toml:",omitempty"` // Minimum price bump percentage to replace an already existing transaction (nonce)
	BlobPriceBump uint64 `toml:",omitempty"` // Minimum price bump percentage to replace a blob transaction

	AccountSlots uint64 `toml:",omitempty"` // Number of transaction slots guaranteed per account

	Pending     SubPoolLimits `toml:",omitempty"` // Executable regular transactions
	BaseFee     SubPoolLimits `toml:",omitempty"` // Next-in-line transactions priced under the current base fee
	Queue       SubPoolLimits `toml:",omitempty"` // Non-executable (nonce gapped) regular transactions
	BlobPending SubPoolLimits `toml:",omitempty"` // Executable blob transactions
	BlobQueue   SubPoolLimits `toml:",omitempty"` // Non-executable blob transactions

	Lifetime time.Duration `toml:",omitempty"` // Maximum amount of time non-executable transactions are queued
}

// DefaultConfig contains the default configurations for the transaction pool.
var DefaultConfig = Config{
	Journal:   "transactions.journal",
	Rejournal: time.Hour,

	TipFloor:      1,
	PriceBump:     10,
	BlobPriceBump: 100,

	AccountSlots: 16,

	Pending:     SubPoolLimits{Slots: 4096, Bytes: 64 * 1024 * 1024},
	BaseFee:     SubPoolLimits{Slots: 1024, Bytes: 16 * 1024 * 1024},
	Queue:       SubPoolLimits{Slots: 1024, Bytes: 16 * 1024 * 1024},
	BlobPending: SubPoolLimits{Slots: 512, Bytes: 256 * 1024 * 1024},
	BlobQueue:   SubPoolLimits{Slots: 256, Bytes: 128 * 1024 * 1024},

	Lifetime: 3 * time.Hour,
}

// sanitize checks the provided user configurations and changes anything
// that's unreasonable or unworkable.
func (config *Config) sanitize() Config {
	conf := *config
	if conf.Rejournal < time.Second {
		log.Warn("Sanitizing invalid txpool journal time", "provided", conf.Rejournal, "updated", time.Second)
		conf.Rejournal = time.Second
	}
	if conf.PriceBump < 1 {
		log.Warn("Sanitizing invalid txpool price bump", "provided", conf.PriceBump, "updated", DefaultConfig.PriceBump)
		conf.PriceBump = DefaultConfig.PriceBump
	}
	if conf.BlobPriceBump < conf.PriceBump {
		log.Warn("Sanitizing invalid txpool blob price bump", "provided", conf.BlobPriceBump, "updated", DefaultConfig.BlobPriceBump)
		conf.BlobPriceBump = DefaultConfig.BlobPriceBump
	}
	if conf.AccountSlots < 1 {
		log.Warn("Sanitizing invalid txpool account slots", "provided", conf.AccountSlots, "updated", DefaultConfig.AccountSlots)
		conf.AccountSlots = DefaultConfig.AccountSlots
	}
	sanePool := func(name string, limits, def SubPoolLimits) SubPoolLimits {
		if limits.Slots < 1 {
			log.Warn("Sanitizing invalid txpool slot limit", "pool", name, "provided", limits.Slots, "updated", def.Slots)
			limits.Slots = def.Slots
		}
		if limits.Bytes < 1 {
			log.Warn("Sanitizing invalid txpool byte limit", "pool", name, "provided", limits.Bytes, "updated", def.Bytes)
			limits.Bytes = def.Bytes
		}
		return limits
	}
	conf.Pending = sanePool("pending", conf.Pending, DefaultConfig.Pending)
	conf.BaseFee = sanePool("basefee", conf.BaseFee, DefaultConfig.BaseFee)
	conf.Queue = sanePool("queue", conf.Queue, DefaultConfig.Queue)
	conf.BlobPending = sanePool("blobpending", conf.BlobPending, DefaultConfig.BlobPending)
	conf.BlobQueue = sanePool("blobqueue", conf.BlobQueue, DefaultConfig.BlobQueue)
	if conf.Lifetime <= 0 {
		log.Warn("Sanitizing invalid txpool lifetime", "provided", conf.Lifetime, "updated", DefaultConfig.Lifetime)
		conf.Lifetime = DefaultConfig.Lifetime
	}
	return conf
}

// limitsFor returns the configured caps of one sub-pool.
func (config *Config) limitsFor(pool SubPool) SubPoolLimits {
	switch pool {
	case SubPoolPending:
		return config.Pending
	case SubPoolBaseFee:
		return config.BaseFee
	case SubPoolQueued:
		return config.Queue
	case SubPoolBlobPending:
		return config.BlobPending
	case SubPoolBlobQueued:
		return config.BlobQueue
	}
	return SubPoolLimits{}
}

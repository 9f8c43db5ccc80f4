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

// Package miner assembles candidate payloads from the transaction pool. A
// builder runs one job at a time: it snapshots the best executable
// transactions, races a handful of assembly tasks against a wall-clock
// deadline and keeps the most valuable result.
package miner

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/sync/errgroup"

	"github.com/emberchain/ember/common"
	"github.com/emberchain/ember/core"
	"github.com/emberchain/ember/core/types"
	"github.com/emberchain/ember/log"
)

var (
	builtJobsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "miner_build_jobs_total",
		Help: "Number of payload build jobs resolved.",
	})
	interruptedJobsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "miner_interrupted_jobs_total",
		Help: "Number of build jobs interrupted by a new chain head.",
	})
	failedTxsCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "miner_failed_transactions_total",
		Help: "Number of transactions dropped by build tasks mid-execution.",
	})
	payloadTxsGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "miner_payload_transactions",
		Help: "Number of transactions in the most recently resolved payload.",
	})
	payloadGasGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "miner_payload_gas_used",
		Help: "Gas used by the most recently resolved payload.",
	})
)

// Pool hands the builder a consumable snapshot of the executable transaction
// set, priced at the pool's current head.
type Pool interface {
	BestTransactions() *types.TransactionsByTipAndNonce
}

// BlockChain supplies the canonical head, head change notifications and
// per-job execution environments.
type BlockChain interface {
	CurrentHead() *types.Head
	NewExec(head *types.Head) core.Exec
	SubscribeHeadEvent(ch chan<- core.HeadEvent)
	UnsubscribeHeadEvent(ch chan<- core.HeadEvent)
}

// Config are the configuration parameters of the payload builder.
type Config struct {
	Interval   time.Duration `toml:",omitempty"` // Delay between a resolved job and the next one
	Deadline   time.Duration `toml:",omitempty"` // Wall-clock bound on a single build job
	MaxTasks   int           `toml:",omitempty"` // Number of concurrent assembly attempts per job
	GasCeiling uint64        `toml:",omitempty"` // Target gas usage of built payloads
	Extra      []byte        `toml:",omitempty"` // Extra data to stamp built payloads with
	Continuous bool          `toml:",omitempty"` // Debug mode running jobs back to back
}

// DefaultConfig contains the default configurations for the payload builder.
var DefaultConfig = Config{
	Interval:   time.Second,
	Deadline:   12 * time.Second,
	MaxTasks:   3,
	GasCeiling: 30_000_000,
}

func (config *Config) sanitize() Config {
	conf := *config
	if conf.Interval < 10*time.Millisecond {
		log.Warn("Sanitizing invalid builder interval", "provided", conf.Interval, "updated", DefaultConfig.Interval)
		conf.Interval = DefaultConfig.Interval
	}
	if conf.Deadline < 100*time.Millisecond {
		log.Warn("Sanitizing invalid builder deadline", "provided", conf.Deadline, "updated", DefaultConfig.Deadline)
		conf.Deadline = DefaultConfig.Deadline
	}
	if conf.MaxTasks < 1 {
		log.Warn("Sanitizing invalid builder task count", "provided", conf.MaxTasks, "updated", DefaultConfig.MaxTasks)
		conf.MaxTasks = DefaultConfig.MaxTasks
	}
	if conf.GasCeiling < 1 {
		log.Warn("Sanitizing invalid builder gas ceiling", "provided", conf.GasCeiling, "updated", DefaultConfig.GasCeiling)
		conf.GasCeiling = DefaultConfig.GasCeiling
	}
	return conf
}

// Payload is one assembled block candidate.
type Payload struct {
	Parent  *types.Head
	Txs     types.Transactions
	GasUsed uint64
	Fees    *uint256.Int
	Extra   []byte
}

// Builder drives the payload build loop. At most one job is in flight at any
// time; a new chain head interrupts the running job and triggers a fresh one
// against the new parent.
type Builder struct {
	config Config
	chain  BlockChain
	pool   Pool

	mu   sync.RWMutex
	best *Payload // Most recently resolved payload

	headCh    chan core.HeadEvent
	resolveCh chan chan *Payload

	wg       sync.WaitGroup
	shutdown chan struct{}
}

// New creates a payload builder and starts its scheduling loop.
func New(config Config, chain BlockChain, pool Pool) *Builder {
	b := &Builder{
		config:    (&config).sanitize(),
		chain:     chain,
		pool:      pool,
		headCh:    make(chan core.HeadEvent, 16),
		resolveCh: make(chan chan *Payload),
		shutdown:  make(chan struct{}),
	}
	chain.SubscribeHeadEvent(b.headCh)

	b.wg.Add(1)
	go b.loop()

	return b
}

// Stop terminates the builder, cancelling any job in flight.
func (b *Builder) Stop() {
	b.chain.UnsubscribeHeadEvent(b.headCh)
	close(b.shutdown)
	b.wg.Wait()
	log.Info("Payload builder stopped")
}

// BestPayload returns the most recently resolved payload, or nil if no job
// has completed yet.
func (b *Builder) BestPayload() *Payload {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.best
}

// Resolve waits out the job currently in flight and returns its payload. If
// the builder is idle, the last resolved payload is returned instead.
func (b *Builder) Resolve() *Payload {
	reply := make(chan *Payload, 1)
	select {
	case b.resolveCh <- reply:
		return <-reply
	case <-b.shutdown:
		return b.BestPayload()
	}
}

// loop schedules build jobs: one on every interval tick, an immediate restart
// on every new chain head, back to back in continuous mode. The job itself
// runs in a separate goroutine so the loop stays responsive to interrupts.
func (b *Builder) loop() {
	defer b.wg.Done()

	type jobResult struct {
		payload *Payload
	}
	var (
		jobDone chan jobResult // Non-nil while a job is in flight
		cancel  context.CancelFunc
		restart bool            // Start a fresh job as soon as the current one unwinds
		waiters []chan *Payload // Resolve requests pending on the running job
	)
	timer := time.NewTimer(b.config.Interval)
	defer timer.Stop()

	var jobStart time.Time

	start := func() {
		if jobDone != nil {
			restart = true
			return
		}
		ctx, c := context.WithTimeout(context.Background(), b.config.Deadline)
		cancel = c
		jobDone = make(chan jobResult, 1)
		jobStart = time.Now()

		parent := b.chain.CurrentHead()
		done := jobDone
		go func() {
			done <- jobResult{payload: b.buildJob(ctx, parent)}
		}()
	}
	start()

	for {
		select {
		case <-timer.C:
			start()

		case <-b.headCh:
			// A new head invalidates the current attempt; unwind and rebuild
			// against the fresh parent
			if jobDone != nil {
				interruptedJobsCounter.Inc()
				cancel()
			}
			start()

		case reply := <-b.resolveCh:
			if jobDone == nil {
				reply <- b.BestPayload()
				continue
			}
			// The running job completes its full pass; cancelling here could
			// hand back an empty payload over a populated pool. Tasks finish
			// when their snapshot is exhausted, the deadline caps the rest.
			waiters = append(waiters, reply)

		case res := <-jobDone:
			cancel()
			jobDone, cancel = nil, nil

			if res.payload != nil {
				b.mu.Lock()
				b.best = res.payload
				b.mu.Unlock()

				builtJobsCounter.Inc()
				payloadTxsGauge.Set(float64(len(res.payload.Txs)))
				payloadGasGauge.Set(float64(res.payload.GasUsed))
				log.Debug("Resolved payload build job",
					"txs", len(res.payload.Txs), "gas", res.payload.GasUsed,
					"fees", res.payload.Fees, "elapsed", common.PrettyDuration(time.Since(jobStart)))
			}
			for _, reply := range waiters {
				reply <- res.payload
			}
			waiters = nil

			if restart || b.config.Continuous {
				restart = false
				start()
			} else {
				timer.Reset(b.config.Interval)
			}

		case <-b.shutdown:
			if cancel != nil {
				cancel()
				<-jobDone
			}
			for _, reply := range waiters {
				reply <- b.BestPayload()
			}
			return
		}
	}
}

// buildJob races up to MaxTasks assembly attempts against each other and the
// deadline, returning the one accruing the highest fees. A job never fails:
// if every task comes back empty the result is an empty payload on top of
// the parent.
func (b *Builder) buildJob(ctx context.Context, parent *types.Head) *Payload {
	var (
		mu   sync.Mutex
		best *Payload
	)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < b.config.MaxTasks; i++ {
		offset := i
		g.Go(func() error {
			payload := b.buildTask(ctx, parent, offset)

			mu.Lock()
			if best == nil || payload.Fees.Cmp(best.Fees) > 0 {
				best = payload
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	return best
}

// buildTask assembles one candidate payload. Tasks differentiate by skipping
// a different number of the top ranked senders, so the job explores more of
// the fee landscape than a single greedy walk. Execution failures drop the
// offending sender and carry on; cancellation is honored between
// transactions and surfaces whatever was assembled so far.
func (b *Builder) buildTask(ctx context.Context, parent *types.Head, offset int) *Payload {
	payload := &Payload{
		Parent: parent,
		Fees:   new(uint256.Int),
		Extra:  b.config.Extra,
	}
	exec := b.chain.NewExec(parent)
	txs := b.pool.BestTransactions()

	for skip := 0; skip < offset && !txs.Empty(); skip++ {
		txs.Pop()
	}
	gasLeft := b.config.GasCeiling
	for !txs.Empty() {
		if ctx.Err() != nil {
			log.Trace("Build task interrupted", "txs", len(payload.Txs))
			break
		}
		tx := txs.Peek()
		if tx.Gas() > gasLeft {
			txs.Pop()
			continue
		}
		gasUsed, fee, err := exec.Apply(tx)
		switch {
		case err == nil:
			payload.Txs = append(payload.Txs, tx)
			payload.GasUsed += gasUsed
			payload.Fees.Add(payload.Fees, fee)
			gasLeft -= gasUsed
			txs.Shift()

		case errors.Is(err, core.ErrNonceTooLow):
			// Already included ahead of the snapshot; try the sender's next
			txs.Shift()

		default:
			// The sender's remaining transactions can no longer execute in
			// order, drop the whole lane and keep building
			log.Trace("Dropping failing transaction from build",
				"hash", tx.Hash().TerminalString(), "err", err)
			failedTxsCounter.Inc()
			txs.Pop()
		}
	}
	return payload
}

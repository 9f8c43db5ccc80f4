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
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/emberchain/ember/common"
	"github.com/emberchain/ember/core"
	"github.com/emberchain/ember/core/types"
	"github.com/emberchain/ember/log"
	"github.com/emberchain/ember/params"
)

const (
	// statsReportInterval is the time interval to report pool stats.
	statsReportInterval = 8 * time.Second

	// evictionInterval is the time interval to check for expired residents.
	evictionInterval = time.Minute

	// droppedTxCacheSize bounds the recently-dropped hash cache used to reject
	// re-submissions of transactions the pool just got rid of.
	droppedTxCacheSize = 16384
)

var (
	invalidTxCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txpool_invalid_transactions_total",
		Help: "Number of transactions rejected during validation.",
	})
	knownTxCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txpool_known_transactions_total",
		Help: "Number of already known transactions rejected on arrival.",
	})
	underpricedTxCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txpool_underpriced_transactions_total",
		Help: "Number of transactions rejected for an insufficient tip.",
	})
	replacedTxCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txpool_replaced_transactions_total",
		Help: "Number of transactions replaced under the same sender and nonce.",
	})
	evictedTxCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txpool_evicted_transactions_total",
		Help: "Number of transactions evicted for capacity or age.",
	})
	reinjectedTxCounter = promauto.NewCounter(prometheus.CounterOpts{
		Name: "txpool_reinjected_transactions_total",
		Help: "Number of transactions re-admitted after a chain reorganisation.",
	})
	subPoolSlotsGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "txpool_subpool_slots",
		Help: "Number of transactions resident per sub-pool.",
	}, []string{"subpool"})
	subPoolBytesGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "txpool_subpool_bytes",
		Help: "Aggregate encoded size per sub-pool.",
	}, []string{"subpool"})
)

// BlockChain provides the chain state the pool validates and classifies
// against: the current head and per-account nonce and balance at that head.
type BlockChain interface {
	CurrentHead() *types.Head
	AccountState(addr common.Address) (uint64, *uint256.Int)
	SubscribeHeadEvent(ch chan<- core.HeadEvent)
	UnsubscribeHeadEvent(ch chan<- core.HeadEvent)
}

// PoolStats is a point-in-time census of the pool's sub-pools.
type PoolStats struct {
	Pending     uint64
	BaseFee     uint64
	Queued      uint64
	BlobPending uint64
	BlobQueued  uint64
}

// TxPool contains all currently known transactions. Transactions enter the
// pool when they are received from the network or submitted locally. They
// exit the pool when they are included in the chain, replaced, evicted for
// capacity or expired.
//
// Every resident is held in a per-sender nonce-sorted list and tagged into
// exactly one of five sub-pools. Tags are recomputed for affected senders on
// every insertion, removal and head change, so a reader always observes a
// classification consistent with the pool's current head.
type TxPool struct {
	config Config
	chain  BlockChain

	mu       sync.RWMutex
	head     *types.Head
	tipFloor *uint256.Int

	pending map[common.Address]*list // All resident transactions, per sender
	all     *txLookup
	priced  *pricedIndex
	tracker *accountTracker

	locals  *accountSet
	journal *txJournal
	dropped *lru.Cache // Hashes of recently discarded transactions

	txFeed core.NewTxsFeed
	headCh chan core.HeadEvent

	wg       sync.WaitGroup
	shutdown chan struct{}
}

// New creates a new transaction pool to gather, sort and filter inbound
// transactions from the network and local submitters.
func New(config Config, chain BlockChain) *TxPool {
	config = (&config).sanitize()

	dropped, _ := lru.New(droppedTxCacheSize)

	head := chain.CurrentHead()
	pool := &TxPool{
		config:   config,
		chain:    chain,
		head:     head,
		tipFloor: uint256.NewInt(config.TipFloor),
		pending:  make(map[common.Address]*list),
		all:      newTxLookup(),
		tracker:  newAccountTracker(),
		locals:   newAccountSet(),
		dropped:  dropped,
		headCh:   make(chan core.HeadEvent, 16),
		shutdown: make(chan struct{}),
	}
	pool.priced = newPricedIndex(pool.all, head.BaseFee)

	// If local transactions and journaling is enabled, load from disk
	if !config.NoLocals && config.Journal != "" {
		pool.journal = newTxJournal(config.Journal)

		if err := pool.journal.load(pool.addJournaled); err != nil {
			log.Warn("Failed to load transaction journal", "err", err)
		}
		if err := pool.journal.rotate(len(pool.pending), pool.local()); err != nil {
			log.Warn("Failed to rotate transaction journal", "err", err)
		}
	}
	chain.SubscribeHeadEvent(pool.headCh)

	pool.wg.Add(1)
	go pool.loop()

	return pool
}

// loop is the transaction pool's main event loop, waiting for and reacting to
// head changes as well as for various reporting and eviction events.
func (pool *TxPool) loop() {
	defer pool.wg.Done()

	report := time.NewTicker(statsReportInterval)
	defer report.Stop()

	evict := time.NewTicker(evictionInterval)
	defer evict.Stop()

	journal := time.NewTicker(pool.config.Rejournal)
	defer journal.Stop()

	var prev PoolStats
	for {
		select {
		case ev := <-pool.headCh:
			if ev.Head != nil {
				pool.mu.Lock()
				pool.reset(ev)
				pool.mu.Unlock()
			}

		case <-report.C:
			stats := pool.Stats()
			pool.reportMetrics(stats)
			if stats != prev {
				log.Debug("Transaction pool status report",
					"pending", stats.Pending, "basefee", stats.BaseFee, "queued", stats.Queued,
					"blobPending", stats.BlobPending, "blobQueued", stats.BlobQueued,
					"size", pool.totalBytes())
				prev = stats
			}

		case <-evict.C:
			pool.mu.Lock()
			pool.evictExpired()
			pool.mu.Unlock()

		case <-journal.C:
			if pool.journal != nil {
				pool.mu.Lock()
				if err := pool.journal.rotate(len(pool.pending), pool.local()); err != nil {
					log.Warn("Failed to rotate local tx journal", "err", err)
				}
				pool.mu.Unlock()
			}

		case <-pool.shutdown:
			return
		}
	}
}

// Stop terminates the transaction pool.
func (pool *TxPool) Stop() {
	pool.chain.UnsubscribeHeadEvent(pool.headCh)
	close(pool.shutdown)
	pool.wg.Wait()

	pool.txFeed.Close()
	if pool.journal != nil {
		pool.journal.close()
	}
	log.Info("Transaction pool stopped")
}

// SubscribeNewTxsEvent registers a subscription for promoted transactions.
func (pool *TxPool) SubscribeNewTxsEvent(ch chan<- core.NewTxsEvent) {
	pool.txFeed.Subscribe(ch)
}

// UnsubscribeNewTxsEvent cancels a previous subscription.
func (pool *TxPool) UnsubscribeNewTxsEvent(ch chan<- core.NewTxsEvent) {
	pool.txFeed.Unsubscribe(ch)
}

// TipFloor returns the minimum tip enforced for remote admission.
func (pool *TxPool) TipFloor() *uint256.Int {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	return new(uint256.Int).Set(pool.tipFloor)
}

// SetTipFloor updates the minimum tip required for remote transactions and
// drops any resident remote transactions falling below the new floor.
func (pool *TxPool) SetTipFloor(floor *uint256.Int) {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	pool.tipFloor = new(uint256.Int).Set(floor)

	var drop types.Transactions
	pool.all.Range(func(hash common.Hash, tx *types.Transaction, _ SubPool) bool {
		if tx.Origin() != types.OriginLocal && !pool.locals.contains(tx.Sender()) && tx.GasTipCap().Cmp(floor) < 0 {
			drop = append(drop, tx)
		}
		return true
	})
	for _, tx := range drop {
		pool.removeTx(tx.Hash())
	}
	for _, tx := range drop {
		pool.reclassifyAccount(tx.Sender())
	}
	log.Info("Transaction pool tip floor updated", "floor", floor, "dropped", len(drop))
}

// Get returns a transaction if it is contained in the pool, or nil otherwise.
func (pool *TxPool) Get(hash common.Hash) *types.Transaction {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	return pool.all.Get(hash)
}

// Status returns the sub-pool each of the given hashes currently resides in,
// with SubPoolNone marking unknown transactions.
func (pool *TxPool) Status(hashes []common.Hash) []SubPool {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	status := make([]SubPool, len(hashes))
	for i, hash := range hashes {
		status[i] = pool.all.Tag(hash)
	}
	return status
}

// Stats returns a census of the pool's sub-pools.
func (pool *TxPool) Stats() PoolStats {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	return PoolStats{
		Pending:     pool.all.Count(SubPoolPending),
		BaseFee:     pool.all.Count(SubPoolBaseFee),
		Queued:      pool.all.Count(SubPoolQueued),
		BlobPending: pool.all.Count(SubPoolBlobPending),
		BlobQueued:  pool.all.Count(SubPoolBlobQueued),
	}
}

// totalBytes returns the aggregate encoded size of all residents.
func (pool *TxPool) totalBytes() common.StorageSize {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	var total uint64
	for p := SubPoolPending; p < numSubPools; p++ {
		total += pool.all.Bytes(p)
	}
	return common.StorageSize(total)
}

func (pool *TxPool) reportMetrics(stats PoolStats) {
	subPoolSlotsGauge.WithLabelValues("pending").Set(float64(stats.Pending))
	subPoolSlotsGauge.WithLabelValues("basefee").Set(float64(stats.BaseFee))
	subPoolSlotsGauge.WithLabelValues("queued").Set(float64(stats.Queued))
	subPoolSlotsGauge.WithLabelValues("blob-pending").Set(float64(stats.BlobPending))
	subPoolSlotsGauge.WithLabelValues("blob-queued").Set(float64(stats.BlobQueued))

	pool.mu.RLock()
	for p := SubPoolPending; p < numSubPools; p++ {
		subPoolBytesGauge.WithLabelValues(p.String()).Set(float64(pool.all.Bytes(p)))
	}
	pool.mu.RUnlock()
}

// Content retrieves the data content of the transaction pool, returning the
// currently executable transactions and the ones waiting behind a nonce gap
// or an insufficient fee, grouped by account and sorted by nonce.
func (pool *TxPool) Content() (map[common.Address]types.Transactions, map[common.Address]types.Transactions) {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	executable := make(map[common.Address]types.Transactions)
	waiting := make(map[common.Address]types.Transactions)
	for addr, l := range pool.pending {
		for _, tx := range l.Flatten() {
			if pool.all.Tag(tx.Hash()).executable() {
				executable[addr] = append(executable[addr], tx)
			} else {
				waiting[addr] = append(waiting[addr], tx)
			}
		}
	}
	return executable, waiting
}

// Pending retrieves all currently executable transactions, grouped by sender
// and sorted by nonce. Each sender's slice starts at its next executable
// nonce and is gap free.
func (pool *TxPool) Pending() map[common.Address]types.Transactions {
	pool.mu.RLock()
	defer pool.mu.RUnlock()

	return pool.pendingLocked()
}

func (pool *TxPool) pendingLocked() map[common.Address]types.Transactions {
	executable := make(map[common.Address]types.Transactions)
	for addr, l := range pool.pending {
		for _, tx := range l.Flatten() {
			if pool.all.Tag(tx.Hash()).executable() {
				executable[addr] = append(executable[addr], tx)
			}
		}
	}
	return executable
}

// BestTransactions returns a consumable view over the executable set, ordered
// by effective tip at the current base fee while respecting per-sender nonce
// order. The view is a snapshot; later pool mutations do not affect it.
func (pool *TxPool) BestTransactions() *types.TransactionsByTipAndNonce {
	pool.mu.RLock()
	pending := pool.pendingLocked()
	baseFee := pool.head.BaseFee
	pool.mu.RUnlock()

	return types.NewTransactionsByTipAndNonce(pending, baseFee)
}

// local retrieves all currently known local transactions. The returned slice
// feeds journal rotation.
func (pool *TxPool) local() types.Transactions {
	var txs types.Transactions
	for _, addr := range pool.locals.flatten() {
		if l, ok := pool.pending[addr]; ok {
			txs = append(txs, l.Flatten()...)
		}
	}
	return txs
}

// AddLocal enqueues a single transaction into the pool if it is valid, marking
// the sender as local so its transactions are journaled and exempt from the
// remote tip floor and expiry.
func (pool *TxPool) AddLocal(tx *types.Transaction) error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	return pool.add(tx, !pool.config.NoLocals)
}

// AddRemote enqueues a single transaction received from the network.
func (pool *TxPool) AddRemote(tx *types.Transaction) error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	return pool.add(tx, false)
}

// AddRemotes enqueues a batch of remote transactions. The returned slice has
// one entry per input transaction, nil if accepted.
func (pool *TxPool) AddRemotes(txs types.Transactions) []error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	errs := make([]error, len(txs))
	for i, tx := range txs {
		errs[i] = pool.add(tx, false)
	}
	return errs
}

// addJournaled is the journal load callback, re-admitting persisted local
// transactions on startup.
func (pool *TxPool) addJournaled(txs types.Transactions) []error {
	pool.mu.Lock()
	defer pool.mu.Unlock()

	var errs []error
	for _, tx := range txs {
		if err := pool.add(tx, true); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// validateTx checks whether a transaction is valid according to the consensus
// rules and adheres to some heuristic limits of the local node (price and
// size).
func (pool *TxPool) validateTx(tx *types.Transaction, local bool) error {
	// Reject transactions over the hard size cap
	if tx.Size() > params.MaxTxSize {
		return ErrOversizedData
	}
	// Transactions can't claim more gas than a whole block
	if tx.Gas() > pool.head.GasLimit {
		return ErrGasLimit
	}
	if tx.Blobs() > params.MaxBlobsPerTx {
		return ErrTooManyBlobs
	}
	// Drop remote transactions under the configured tip floor
	if !local && !pool.locals.contains(tx.Sender()) && tx.GasTipCap().Cmp(pool.tipFloor) < 0 {
		return ErrUnderpriced
	}
	nonce, balance := pool.accountState(tx.Sender())
	if nonce > tx.Nonce() {
		return ErrNonceTooLow
	}
	// The sender must be able to cover the worst-case cost
	if balance.Cmp(tx.Cost()) < 0 {
		return ErrInsufficientFunds
	}
	return nil
}

// accountState returns the cached nonce and balance for a sender, fetching
// and caching it from the chain on first touch.
func (pool *TxPool) accountState(addr common.Address) (uint64, *uint256.Int) {
	if info := pool.tracker.get(addr); info != nil {
		return info.nonce, info.balance
	}
	nonce, balance := pool.chain.AccountState(addr)
	pool.tracker.set(addr, nonce, balance)
	return nonce, balance
}

// add validates a transaction and inserts it into the pool's indices. The
// same sender and nonce as an existing resident triggers the replacement
// path, requiring the configured price bump. A full pool sheds its worst
// resident to make room, or rejects the newcomer if it is the worst itself.
func (pool *TxPool) add(tx *types.Transaction, local bool) error {
	hash := tx.Hash()

	// If the transaction is already known or only just dropped, discard it
	if pool.all.Get(hash) != nil {
		knownTxCounter.Inc()
		return ErrAlreadyKnown
	}
	if _, ok := pool.dropped.Get(hash); ok {
		knownTxCounter.Inc()
		return ErrAlreadyKnown
	}
	if err := pool.validateTx(tx, local); err != nil {
		log.Trace("Discarding invalid transaction", "hash", hash.TerminalString(), "err", err)
		invalidTxCounter.Inc()
		return err
	}
	from := tx.Sender()
	l, ok := pool.pending[from]
	if !ok {
		l = newList()
	}
	// Same nonce as an occupant: this is a replacement attempt
	if old := l.Get(tx.Nonce()); old != nil {
		bump := pool.config.PriceBump
		if old.IsBlob() || tx.IsBlob() {
			bump = pool.config.BlobPriceBump
		}
		inserted, replaced := l.Add(tx, bump)
		if !inserted {
			log.Trace("Discarding replacement below price bump", "hash", hash.TerminalString(), "bump", bump)
			underpricedTxCounter.Inc()
			return ErrReplaceUnderpriced
		}
		oldTag := pool.all.Tag(replaced.Hash())
		pool.all.Remove(replaced.Hash())
		pool.priced.Removed(oldTag, 1)
		pool.dropped.Add(replaced.Hash(), struct{}{})
		replacedTxCounter.Inc()

		pool.insert(from, l, tx, local)
		log.Trace("Replaced pooled transaction", "hash", hash.TerminalString(), "old", replaced.Hash().TerminalString())
		return nil
	}
	// A brand new nonce must honor the per-account allowance. The victim is
	// only picked here; it stays resident until admission is certain.
	var victim *types.Transaction
	if uint64(l.Len()) >= pool.config.AccountSlots {
		victim = accountVictim(l, pool.head.BaseFee)
		if !outranks(tx, victim, pool.head.BaseFee) {
			log.Trace("Discarding transaction over account allowance", "hash", hash.TerminalString(), "sender", from.Hex())
			return ErrAccountLimit
		}
	}
	// Make room in the target sub-pool if it overflowed
	target := classify(tx, pool.nextNonce(from, l, tx.Nonce()), pool.head.BaseFee, pool.head.BlobBaseFee)
	if err := pool.makeRoom(target, tx, local, victim); err != nil {
		underpricedTxCounter.Inc()
		return err
	}
	if victim != nil && pool.all.Get(victim.Hash()) != nil {
		pool.dropLocked(victim, true)
		evictedTxCounter.Inc()
	}
	l.Add(tx, pool.config.PriceBump)
	pool.insert(from, l, tx, local)
	return nil
}

// insert registers an already list-resident transaction with the lookup and
// eviction index, re-classifies the sender and fires promotion events. The
// caller has put tx into l.
func (pool *TxPool) insert(from common.Address, l *list, tx *types.Transaction, local bool) {
	pool.pending[from] = l
	pool.all.Add(tx, SubPoolQueued)
	pool.priced.Put(SubPoolQueued, tx)
	pool.tracker.heartbeat(from)

	if local && !pool.config.NoLocals && !pool.locals.contains(from) {
		log.Info("Setting new local account", "address", from.Hex())
		pool.locals.add(from)
	}
	pool.journalTx(from, tx)

	promoted := pool.reclassifyAccount(from)

	// Promotions may have cascaded residents into an already full sub-pool
	pool.truncateAll()

	if len(promoted) > 0 {
		pool.txFeed.Send(core.NewTxsEvent{Txs: promoted})
	}
}

// journalTx adds the specified transaction to the local disk journal if it is
// deemed to have been sent from a local account.
func (pool *TxPool) journalTx(from common.Address, tx *types.Transaction) {
	// Only journal if it's enabled and the transaction is local
	if pool.journal == nil || !pool.locals.contains(from) {
		return
	}
	if err := pool.journal.insert(tx); err != nil {
		log.Warn("Failed to journal local transaction", "err", err)
	}
}

// nextNonce computes the sender's next executable nonce: the confirmed nonce
// advanced across contiguous executable residents. incoming marks the nonce
// about to be inserted so a gap it would fill counts as filled.
func (pool *TxPool) nextNonce(from common.Address, l *list, incoming uint64) uint64 {
	nonce, _ := pool.accountState(from)
	for {
		if nonce == incoming {
			return nonce
		}
		tx := l.Get(nonce)
		if tx == nil || !pool.all.Tag(tx.Hash()).executable() {
			return nonce
		}
		nonce++
	}
}

// accountVictim picks the sender's least valuable resident: lowest effective
// tip, ties resolved against the higher nonce.
func accountVictim(l *list, baseFee *uint256.Int) *types.Transaction {
	var victim *types.Transaction
	for _, tx := range l.Flatten() {
		if victim == nil {
			victim = tx
			continue
		}
		switch tx.EffectiveGasTipCmp(victim, baseFee) {
		case -1:
			victim = tx
		case 0:
			if tx.Nonce() > victim.Nonce() {
				victim = tx
			}
		}
	}
	return victim
}

// outranks reports whether the incoming transaction is strictly more valuable
// than the would-be victim.
func outranks(tx, victim *types.Transaction, baseFee *uint256.Int) bool {
	switch tx.EffectiveGasTipCmp(victim, baseFee) {
	case 1:
		return true
	case 0:
		return tx.Nonce() < victim.Nonce()
	}
	return false
}

// makeRoom ensures the target sub-pool has a free slot and spare bytes for
// the incoming transaction, worst-first evicting residents as needed. A
// remote newcomer that would itself be the next eviction candidate is
// rejected instead; locals always force room. A pending account-slot victim
// sharing the target counts as already freed, since the caller drops it on
// admission. Evicted senders are re-classified so no resident stays tagged
// executable behind a fresh nonce gap.
func (pool *TxPool) makeRoom(target SubPool, tx *types.Transaction, local bool, victim *types.Transaction) error {
	limits := pool.config.limitsFor(target)

	for {
		slots, bytes := pool.all.Count(target), pool.all.Bytes(target)
		if victim != nil && pool.all.Tag(victim.Hash()) == target {
			slots--
			bytes -= victim.Size()
		}
		if slots < limits.Slots && bytes+tx.Size() <= limits.Bytes {
			return nil
		}
		worst := pool.priced.Worst(target)
		if worst == nil {
			// The lone incoming transaction exceeds the byte cap
			return ErrPoolLimit
		}
		if !local && evictCmp(tx, worst, pool.head.BaseFee) <= 0 {
			log.Trace("Discarding transaction below pool floor", "hash", tx.Hash().TerminalString(), "subpool", target)
			return ErrPoolLimit
		}
		for _, drop := range pool.priced.Discard(target, 1) {
			log.Trace("Evicting transaction for capacity", "hash", drop.Hash().TerminalString(), "subpool", target)
			pool.dropLocked(drop, false)
			evictedTxCounter.Inc()
			pool.reclassifyAccount(drop.Sender())
		}
	}
}

// dropLocked removes a transaction from all pool structures and notes its
// hash in the recently-dropped cache. It does not re-classify the sender.
// heapped marks a transaction still held by the eviction index; one obtained
// through Discard is already off its heap and must not count as stale.
func (pool *TxPool) dropLocked(tx *types.Transaction, heapped bool) {
	hash := tx.Hash()
	tag := pool.all.Tag(hash)
	if pool.all.Remove(hash) == nil {
		return
	}
	if heapped {
		pool.priced.Removed(tag, 1)
	}
	pool.dropped.Add(hash, struct{}{})

	from := tx.Sender()
	if l, ok := pool.pending[from]; ok {
		l.Remove(tx.Nonce())
		if l.Empty() {
			delete(pool.pending, from)
			pool.tracker.drop(from)
		}
	}
}

// removeTx is dropLocked by hash, for callers that only hold an identifier.
func (pool *TxPool) removeTx(hash common.Hash) {
	if tx := pool.all.Get(hash); tx != nil {
		pool.dropLocked(tx, true)
	}
}

// reclassifyAccount recomputes the sub-pool tag of every resident transaction
// of one sender against the tracker's current view, dropping confirmed and
// no longer payable entries on the way. It returns the transactions that
// newly became executable.
//
// The walk is idempotent: running it twice in a row yields identical tags.
func (pool *TxPool) reclassifyAccount(addr common.Address) types.Transactions {
	l, ok := pool.pending[addr]
	if !ok {
		return nil
	}
	nonce, balance := pool.accountState(addr)

	// Drop residents the chain state has made obsolete
	for _, tx := range l.Forward(nonce) {
		pool.untrack(tx, "confirmed")
	}
	for _, tx := range l.Filter(balance) {
		pool.untrack(tx, "unpayable")
	}
	if l.Empty() {
		delete(pool.pending, addr)
		pool.tracker.drop(addr)
		return nil
	}
	// Re-tag the survivors with a cursor walk over the nonce order
	var promoted types.Transactions

	cursor := nonce
	for _, tx := range l.Flatten() {
		tag := classify(tx, cursor, pool.head.BaseFee, pool.head.BlobBaseFee)
		if tag.executable() {
			cursor++
		}
		hash := tx.Hash()
		if old := pool.all.Tag(hash); old != tag {
			pool.all.Move(hash, tag)
			pool.priced.Removed(old, 1)
			pool.priced.Put(tag, tx)
			if tag.executable() && !old.executable() {
				promoted = append(promoted, tx)
			}
		}
	}
	return promoted
}

// untrack removes a single transaction from the lookup and eviction index
// without touching the sender's list, which the caller is already mutating.
func (pool *TxPool) untrack(tx *types.Transaction, reason string) {
	hash := tx.Hash()
	tag := pool.all.Tag(hash)
	if pool.all.Remove(hash) == nil {
		return
	}
	pool.priced.Removed(tag, 1)
	pool.dropped.Add(hash, struct{}{})
	log.Trace("Removed pooled transaction", "hash", hash.TerminalString(), "reason", reason)
}

// reset adjusts the pool's internal state to a new chain head: refresh every
// tracked account, re-admit transactions dropped by a reorganisation and
// recompute all classifications at the new base fee.
func (pool *TxPool) reset(ev core.HeadEvent) {
	pool.head = ev.Head
	pool.priced.SetBaseFee(ev.Head.BaseFee)

	// Refresh the tracker before touching any classification
	for addr := range pool.pending {
		nonce, balance := pool.chain.AccountState(addr)
		pool.tracker.set(addr, nonce, balance)
	}
	var promoted types.Transactions
	for addr := range pool.pending {
		promoted = append(promoted, pool.reclassifyAccount(addr)...)
	}
	// Reinject transactions a reorganisation dropped from the chain
	for _, tx := range ev.Discarded {
		pool.dropped.Remove(tx.Hash())
		if err := pool.add(tx, tx.Origin() == types.OriginLocal); err == nil {
			reinjectedTxCounter.Inc()
		} else {
			log.Trace("Failed to reinject reorged transaction", "hash", tx.Hash().TerminalString(), "err", err)
		}
	}
	if len(ev.Discarded) > 0 {
		log.Debug("Reinjected reorged transactions", "count", len(ev.Discarded))
	}
	// The base fee shift may have overflowed some sub-pool
	pool.truncateAll()

	if len(promoted) > 0 {
		pool.txFeed.Send(core.NewTxsEvent{Txs: promoted})
	}
	log.Debug("Transaction pool reset", "number", ev.Head.Number, "hash", ev.Head.Hash.TerminalString(), "basefee", ev.Head.BaseFee)
}

// truncateAll sheds worst-first from every sub-pool exceeding its limits.
func (pool *TxPool) truncateAll() {
	var touched []common.Address
	for p := SubPoolPending; p < numSubPools; p++ {
		limits := pool.config.limitsFor(p)
		for pool.all.Count(p) > limits.Slots || pool.all.Bytes(p) > limits.Bytes {
			drop := pool.priced.Discard(p, 1)
			if len(drop) == 0 {
				break
			}
			for _, tx := range drop {
				touched = append(touched, tx.Sender())
				pool.dropLocked(tx, false)
				evictedTxCounter.Inc()
			}
		}
	}
	for _, addr := range touched {
		pool.reclassifyAccount(addr)
	}
}

// evictExpired drops the queued transactions of any remote sender that has
// been inactive beyond the configured lifetime.
func (pool *TxPool) evictExpired() {
	for addr, l := range pool.pending {
		if pool.locals.contains(addr) {
			continue
		}
		if time.Since(pool.tracker.lastBeat(addr)) <= pool.config.Lifetime {
			continue
		}
		var expired types.Transactions
		for _, tx := range l.Flatten() {
			if !pool.all.Tag(tx.Hash()).executable() {
				expired = append(expired, tx)
			}
		}
		for _, tx := range expired {
			log.Trace("Evicting expired transaction", "hash", tx.Hash().TerminalString(), "sender", addr.Hex())
			pool.dropLocked(tx, true)
			evictedTxCounter.Inc()
		}
		if len(expired) > 0 {
			pool.reclassifyAccount(addr)
		}
	}
}

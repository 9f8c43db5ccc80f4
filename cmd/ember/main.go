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

// ember runs a transaction pool and payload builder against a simulated
// chain: a self-contained dev node for exercising admission, classification
// and block building end to end.
package main

import (
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/holiman/uint256"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli"

	"github.com/emberchain/ember/common"
	"github.com/emberchain/ember/core"
	"github.com/emberchain/ember/core/txpool"
	"github.com/emberchain/ember/core/types"
	"github.com/emberchain/ember/eth/gasprice"
	"github.com/emberchain/ember/log"
	"github.com/emberchain/ember/miner"
	"github.com/emberchain/ember/params"
)

var (
	configFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	verbosityFlag = cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging level (trace|debug|info|warn|error)",
		Value: "info",
	}
	logJSONFlag = cli.BoolFlag{
		Name:  "log.json",
		Usage: "Format logs as JSON",
	}
	metricsAddrFlag = cli.StringFlag{
		Name:  "metrics.addr",
		Usage: "Address to serve Prometheus metrics on, empty to disable",
		Value: "127.0.0.1:6060",
	}
	journalFlag = cli.StringFlag{
		Name:  "txpool.journal",
		Usage: "Path of the local transaction journal",
	}
	tipFloorFlag = cli.Uint64Flag{
		Name:  "txpool.tipfloor",
		Usage: "Minimum tip in wei for remote transaction acceptance",
	}
	continuousFlag = cli.BoolFlag{
		Name:  "builder.continuous",
		Usage: "Run build jobs back to back (debug)",
	}
)

// gitCommit is set via linker flags at build time.
var gitCommit string

func main() {
	app := cli.NewApp()
	app.Name = "ember"
	app.Usage = "transaction pool and payload builder dev node"
	app.Version = params.VersionWithCommit(gitCommit)
	app.Flags = []cli.Flag{
		configFlag,
		verbosityFlag,
		logJSONFlag,
		metricsAddrFlag,
		journalFlag,
		tipFloorFlag,
		continuousFlag,
	}
	app.Commands = []cli.Command{
		{
			Name:   "dumpconfig",
			Usage:  "Print the effective configuration as TOML",
			Action: dumpConfig,
		},
	}
	app.Before = func(ctx *cli.Context) error {
		lvl, err := log.LvlFromString(ctx.GlobalString(verbosityFlag.Name))
		if err != nil {
			return err
		}
		log.Setup(lvl, ctx.GlobalBool(logJSONFlag.Name))
		return nil
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	log.Info("Starting ember", "version", params.Version)

	chain := core.NewSimChain(config.Dev.BaseFee)
	accounts := fundAccounts(chain, config.Dev.Accounts)

	pool := txpool.New(config.TxPool, chain)
	defer pool.Stop()

	builder := miner.New(config.Builder, chain, pool)
	defer builder.Stop()

	oracle := gasprice.NewOracle(struct {
		*core.SimChain
		*txpool.TxPool
	}{chain, pool}, config.GasPrice)

	if addr := ctx.GlobalString(metricsAddrFlag.Name); addr != "" {
		go serveMetrics(addr)
	}
	stop := make(chan struct{})
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Info("Shutting down")
		close(stop)
	}()

	if config.Dev.Traffic > 0 {
		go generateTraffic(pool, oracle, accounts, config.Dev.Traffic, stop)
	}
	sealLoop(chain, pool, builder, config.Dev.BlockTime, config.Builder.GasCeiling, stop)
	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("Serving metrics", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("Metrics server failed", "err", err)
	}
}

func fundAccounts(chain *core.SimChain, count int) []common.Address {
	accounts := make([]common.Address, count)
	for i := range accounts {
		accounts[i][0] = byte(i + 1)
		chain.SetAccount(accounts[i], 0, new(uint256.Int).Mul(uint256.NewInt(1000), uint256.NewInt(params.Ether)))
	}
	return accounts
}

// generateTraffic submits random transfers from the funded dev accounts,
// pricing them off the oracle so the pool sees a spread of tips.
func generateTraffic(pool *txpool.TxPool, oracle *gasprice.Oracle, accounts []common.Address, interval time.Duration, stop chan struct{}) {
	nonces := make(map[common.Address]uint64, len(accounts))

	tick := time.NewTicker(interval)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			sender := accounts[rand.Intn(len(accounts))]

			tip := oracle.SuggestTip()
			// Jitter around the suggestion, occasionally well below it
			jitter := uint256.NewInt(uint64(rand.Int63n(int64(2 * params.GWei))))
			if rand.Intn(10) == 0 {
				tip = uint256.NewInt(1)
			} else {
				tip = new(uint256.Int).Add(tip, jitter)
			}
			feeCap := new(uint256.Int).Add(tip, uint256.NewInt(50*params.GWei))

			tx := types.NewTransaction(types.TxData{
				Sender:    sender,
				Nonce:     nonces[sender],
				Gas:       params.TxGas,
				GasFeeCap: feeCap,
				GasTipCap: tip,
				Value:     uint256.NewInt(params.GWei),
				Size:      300,
			}, types.OriginLocal)

			if err := pool.AddLocal(tx); err != nil {
				log.Debug("Dev transaction rejected", "err", err)
				continue
			}
			nonces[sender]++

		case <-stop:
			return
		}
	}
}

// sealLoop resolves a payload every block time and advances the simulated
// chain with it, feeding head events back into the pool and builder.
func sealLoop(chain *core.SimChain, pool *txpool.TxPool, builder *miner.Builder, blockTime time.Duration, gasCeiling uint64, stop chan struct{}) {
	tick := time.NewTicker(blockTime)
	defer tick.Stop()

	for {
		select {
		case <-tick.C:
			payload := builder.Resolve()
			if payload == nil {
				continue
			}
			baseFee := nextBaseFee(payload.Parent.BaseFee, payload.GasUsed, gasCeiling)
			head := chain.AdvanceHead(baseFee, payload.Txs, nil)

			stats := pool.Stats()
			log.Info("Sealed dev block", "number", head.Number, "txs", len(payload.Txs),
				"gas", payload.GasUsed, "basefee", head.BaseFee,
				"pending", stats.Pending, "queued", stats.Queued)

		case <-stop:
			return
		}
	}
}

// nextBaseFee adjusts the base fee by up to 1/8 per block towards matching
// the gas target, half the ceiling.
func nextBaseFee(baseFee *uint256.Int, gasUsed, gasCeiling uint64) *uint256.Int {
	target := gasCeiling / 2
	next := new(uint256.Int).Set(baseFee)

	delta := new(uint256.Int).Div(baseFee, uint256.NewInt(8))
	switch {
	case gasUsed > target:
		next.Add(next, delta)
	case gasUsed < target && delta.Sign() > 0:
		next.Sub(next, delta)
	}
	if next.IsZero() {
		next = uint256.NewInt(1)
	}
	return next
}

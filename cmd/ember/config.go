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

package main

import (
	"fmt"
	"os"
	"reflect"
	"time"

	"github.com/naoina/toml"
	"github.com/urfave/cli"

	"github.com/emberchain/ember/core/txpool"
	"github.com/emberchain/ember/eth/gasprice"
	"github.com/emberchain/ember/miner"
	"github.com/emberchain/ember/params"
)

// devConfig drives the simulated chain the node runs against.
type devConfig struct {
	BlockTime time.Duration `toml:",omitempty"` // Interval between sealed dev blocks
	BaseFee   uint64        `toml:",omitempty"` // Starting base fee in wei
	Accounts  int           `toml:",omitempty"` // Number of funded traffic accounts
	Traffic   time.Duration `toml:",omitempty"` // Interval between generated transactions, 0 disables
}

type emberConfig struct {
	TxPool   txpool.Config
	Builder  miner.Config
	GasPrice gasprice.Config
	Dev      devConfig
}

func defaultConfig() emberConfig {
	return emberConfig{
		TxPool:   txpool.DefaultConfig,
		Builder:  miner.DefaultConfig,
		GasPrice: gasprice.Config{Percentile: 60},
		Dev: devConfig{
			BlockTime: 4 * time.Second,
			BaseFee:   params.GWei,
			Accounts:  8,
			Traffic:   250 * time.Millisecond,
		},
	}
}

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

func loadConfig(ctx *cli.Context) (emberConfig, error) {
	config := defaultConfig()

	if path := ctx.GlobalString(configFlag.Name); path != "" {
		f, err := os.Open(path)
		if err != nil {
			return config, err
		}
		defer f.Close()

		if err := tomlSettings.NewDecoder(f).Decode(&config); err != nil {
			return config, fmt.Errorf("invalid config file %s: %v", path, err)
		}
	}
	// Flag overrides beat the config file
	if ctx.GlobalIsSet(journalFlag.Name) {
		config.TxPool.Journal = ctx.GlobalString(journalFlag.Name)
	}
	if ctx.GlobalIsSet(tipFloorFlag.Name) {
		config.TxPool.TipFloor = ctx.GlobalUint64(tipFloorFlag.Name)
	}
	if ctx.GlobalIsSet(continuousFlag.Name) {
		config.Builder.Continuous = ctx.GlobalBool(continuousFlag.Name)
	}
	return config, nil
}

func dumpConfig(ctx *cli.Context) error {
	config, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	out, err := tomlSettings.Marshal(&config)
	if err != nil {
		return err
	}
	os.Stdout.Write(out)
	return nil
}

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

package types

import (
	"github.com/holiman/uint256"

	"github.com/emberchain/ember/common"
)

// Head is the chain-state view of the current canonical tip that the pool
// and builder validate against. It is immutable once published.
type Head struct {
	Number      uint64
	Hash        common.Hash
	ParentHash  common.Hash
	Time        uint64
	GasLimit    uint64
	BaseFee     *uint256.Int
	BlobBaseFee *uint256.Int
}

// Copy returns a deep copy of the head.
func (h *Head) Copy() *Head {
	cpy := *h
	if h.BaseFee != nil {
		cpy.BaseFee = new(uint256.Int).Set(h.BaseFee)
	}
	if h.BlobBaseFee != nil {
		cpy.BlobBaseFee = new(uint256.Int).Set(h.BlobBaseFee)
	}
	return &cpy
}

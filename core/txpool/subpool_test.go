// Copyright 2023 The go-ethereum Authors
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
	"testing"

	"github.com/holiman/uint256"

	"github.com/emberchain/ember/core/types"
	"github.com/emberchain/ember/params"
)

func TestClassify(t *testing.T) {
	var (
		sender      = testAddr(1)
		baseFee     = uint256.NewInt(10 * params.GWei)
		blobBaseFee = uint256.NewInt(5 * params.GWei)
	)
	tests := []struct {
		name      string
		tx        *types.Transaction
		nextNonce uint64
		want      SubPool
	}{
		{
			name:      "executable",
			tx:        dynamicTx(sender, 5, params.GWei, 20*params.GWei, types.OriginPeer),
			nextNonce: 5,
			want:      SubPoolPending,
		},
		{
			name:      "fee cap exactly base fee",
			tx:        dynamicTx(sender, 5, params.GWei, 10*params.GWei, types.OriginPeer),
			nextNonce: 5,
			want:      SubPoolPending,
		},
		{
			name:      "under base fee",
			tx:        dynamicTx(sender, 5, params.GWei, 5*params.GWei, types.OriginPeer),
			nextNonce: 5,
			want:      SubPoolBaseFee,
		},
		{
			name:      "nonce gap",
			tx:        dynamicTx(sender, 7, params.GWei, 20*params.GWei, types.OriginPeer),
			nextNonce: 5,
			want:      SubPoolQueued,
		},
		{
			name:      "stale nonce",
			tx:        dynamicTx(sender, 4, params.GWei, 20*params.GWei, types.OriginPeer),
			nextNonce: 5,
			want:      SubPoolNone,
		},
		{
			name:      "blob executable",
			tx:        blobTx(sender, 5, params.GWei, 20*params.GWei, 10*params.GWei, 2),
			nextNonce: 5,
			want:      SubPoolBlobPending,
		},
		{
			name:      "blob under base fee",
			tx:        blobTx(sender, 5, params.GWei, 5*params.GWei, 10*params.GWei, 2),
			nextNonce: 5,
			want:      SubPoolBlobQueued,
		},
		{
			name:      "blob under blob base fee",
			tx:        blobTx(sender, 5, params.GWei, 20*params.GWei, params.GWei, 2),
			nextNonce: 5,
			want:      SubPoolBlobQueued,
		},
		{
			name:      "blob nonce gap",
			tx:        blobTx(sender, 7, params.GWei, 20*params.GWei, 10*params.GWei, 2),
			nextNonce: 5,
			want:      SubPoolBlobQueued,
		},
		{
			name:      "blob stale nonce",
			tx:        blobTx(sender, 4, params.GWei, 20*params.GWei, 10*params.GWei, 2),
			nextNonce: 5,
			want:      SubPoolNone,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if have := classify(tt.tx, tt.nextNonce, baseFee, blobBaseFee); have != tt.want {
				t.Errorf("classification mismatch: have %v, want %v", have, tt.want)
			}
			// Classification is pure: a second run must agree
			if have := classify(tt.tx, tt.nextNonce, baseFee, blobBaseFee); have != tt.want {
				t.Errorf("repeated classification diverged from %v", tt.want)
			}
		})
	}
}

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

package common

import "testing"

func TestHashHexRoundtrip(t *testing.T) {
	hex := "0x00000000000000000000000000000000000000000000000000000000deadbeef"
	hash := HexToHash(hex)
	if hash.Hex() != hex {
		t.Errorf("roundtrip mismatch: have %s, want %s", hash.Hex(), hex)
	}
}

func TestHashSetBytesTruncation(t *testing.T) {
	var hash Hash
	data := make([]byte, HashLength+4)
	for i := range data {
		data[i] = byte(i + 1)
	}
	hash.SetBytes(data)
	// Overlong input keeps the trailing bytes, like a big integer would
	if hash[HashLength-1] != data[len(data)-1] {
		t.Error("trailing bytes not preserved on truncation")
	}
}

func TestHashTextMarshaling(t *testing.T) {
	orig := HexToHash("0x1234000000000000000000000000000000000000000000000000000000005678")
	text, err := orig.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	var parsed Hash
	if err := parsed.UnmarshalText(text); err != nil {
		t.Fatal(err)
	}
	if parsed != orig {
		t.Errorf("marshal roundtrip mismatch: have %v, want %v", parsed, orig)
	}
}

func TestAddressHex(t *testing.T) {
	addr := HexToAddress("0x00000000000000000000000000000000deadbeef")
	if addr.Hex() != "0x00000000000000000000000000000000deadbeef" {
		t.Errorf("address hex mismatch: have %s", addr.Hex())
	}
}

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

import (
	"bytes"
	"encoding/hex"
	"fmt"
)

const (
	// HashLength is the expected length of the hash, in bytes.
	HashLength = 32
	// AddressLength is the expected length of an account address, in bytes.
	AddressLength = 20
)

// Hash represents the 32 byte content hash of a transaction or block.
type Hash [HashLength]byte

// BytesToHash sets b to hash. If b is larger than 32 bytes, b will be
// cropped from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// HexToHash sets byte representation of s to hash.
func HexToHash(s string) Hash { return BytesToHash(fromHex(s)) }

// Bytes gets the byte representation of the underlying hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex converts a hash to a hex string.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements the fmt.Stringer interface.
func (h Hash) String() string { return h.Hex() }

// TerminalString formats the hash for console output during logging.
func (h Hash) TerminalString() string {
	return fmt.Sprintf("%x…%x", h[:3], h[29:])
}

// SetBytes sets the hash to the value of b. If b is larger than 32 bytes,
// b will be cropped from the left.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h) {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
}

// Cmp compares two hashes byte-wise, for deterministic total ordering.
func (h Hash) Cmp(other Hash) int { return bytes.Compare(h[:], other[:]) }

// MarshalText returns the hex representation of h.
func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

// UnmarshalText parses a hash in hex syntax.
func (h *Hash) UnmarshalText(input []byte) error {
	b, err := parseHex(string(input), HashLength)
	if err != nil {
		return err
	}
	copy(h[:], b)
	return nil
}

// Address represents the 20 byte address of an account.
type Address [AddressLength]byte

// BytesToAddress sets b to address. If b is larger than 20 bytes, b will be
// cropped from the left.
func BytesToAddress(b []byte) Address {
	var a Address
	a.SetBytes(b)
	return a
}

// HexToAddress sets byte representation of s to address.
func HexToAddress(s string) Address { return BytesToAddress(fromHex(s)) }

// Bytes gets the byte representation of the underlying address.
func (a Address) Bytes() []byte { return a[:] }

// Hex converts an address to a hex string.
func (a Address) Hex() string { return "0x" + hex.EncodeToString(a[:]) }

// String implements the fmt.Stringer interface.
func (a Address) String() string { return a.Hex() }

// SetBytes sets the address to the value of b. If b is larger than 20 bytes,
// b will be cropped from the left.
func (a *Address) SetBytes(b []byte) {
	if len(b) > len(a) {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
}

// MarshalText returns the hex representation of a.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.Hex()), nil
}

// UnmarshalText parses an address in hex syntax.
func (a *Address) UnmarshalText(input []byte) error {
	b, err := parseHex(string(input), AddressLength)
	if err != nil {
		return err
	}
	copy(a[:], b)
	return nil
}

func fromHex(s string) []byte {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	if len(s)%2 == 1 {
		s = "0" + s
	}
	b, _ := hex.DecodeString(s)
	return b
}

func parseHex(s string, want int) ([]byte, error) {
	if len(s) >= 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != want {
		return nil, fmt.Errorf("hex value has length %d, want %d", len(b), want)
	}
	return b, nil
}

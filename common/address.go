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
	"fmt"
	"math/big"
)

// Length of Addresses in bytes.
const (
	AddressLength = 20
)

// Address represents the 20 byte of address.
type Address struct {
	Bytes [AddressLength]byte
}

// ZeroAddress is the null sentinel used as the target of contract creations.
var ZeroAddress = Address{}

// BytesToAddress sets b to address.
// If b is larger than len(h), b will be cropped from the left.
func BytesToAddress(b []byte) Address {
	var h Address
	h.SetBytes(b)
	return h
}

// BigToAddress sets byte representation of b to Address.
// If b is larger than len(h), b will be cropped from the left.
func BigToAddress(b *big.Int) Address { return BytesToAddress(b.Bytes()) }

// HexToAddress sets byte representation of s to Address.
// If b is larger than len(h), b will be cropped from the left.
func HexToAddress(s string) Address { return BytesToAddress(FromHex(s)) }

// ToBytes convers Address to []byte.
func (h Address) ToBytes() []byte { return h.Bytes[:] }

// Big converts an Address to a big integer.
func (h Address) Big() *big.Int { return new(big.Int).SetBytes(h.Bytes[:]) }

// Hex converts a Address to a hex string.
func (h Address) Hex() string { return Encode(h.Bytes[:]) }

// TerminalString implements log.TerminalStringer, formatting a string for console
// output during logging.
func (h Address) TerminalString() string {
	return fmt.Sprintf("%x…%x", h.Bytes[:3], h.Bytes[len(h.Bytes)-3:])
}

// String implements the stringer interface and is used also by the logger.
func (h Address) String() string {
	return h.Hex()
}

// IsZero reports whether the address is the null sentinel.
func (h Address) IsZero() bool {
	return h == ZeroAddress
}

// SetBytes sets the address to the value of b.
// If b is larger than len(a) it will panic.
func (h *Address) SetBytes(b []byte) {
	if len(b) > len(h.Bytes) {
		b = b[len(b)-AddressLength:]
	}
	h.Bytes = [AddressLength]byte{}
	copy(h.Bytes[AddressLength-len(b):], b)
}

package common

import (
	"bytes"
	"fmt"
	"math/big"
)

const (
	HashLength = 32
)

// Hash is a 32 byte word. It is used both as a storage slot key and as a storage slot value.
type Hash struct {
	Bytes [HashLength]byte
}

type Hashes []Hash

func (a Hashes) Len() int           { return len(a) }
func (a Hashes) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a Hashes) Less(i, j int) bool { return a[i].Cmp(a[j]) < 0 }

// BytesToHash sets b to hash.
// If b is larger than len(h), b will be cropped from the left.
func BytesToHash(b []byte) Hash {
	var h Hash
	h.SetBytes(b)
	return h
}

// BigToHash sets byte representation of b to hash.
// Negative numbers are stored in two's complement form.
func BigToHash(b *big.Int) Hash {
	if b.Sign() < 0 {
		b = new(big.Int).Add(b, new(big.Int).Lsh(big.NewInt(1), 256))
	}
	return BytesToHash(b.Bytes())
}

// HexToHash sets byte representation of s to hash.
func HexToHash(s string) Hash { return BytesToHash(FromHex(s)) }

func (h Hash) ToBytes() []byte { return h.Bytes[:] }

// Big converts a hash to an unsigned big integer.
func (h Hash) Big() *big.Int { return new(big.Int).SetBytes(h.Bytes[:]) }

func (h Hash) Hex() string { return Encode(h.Bytes[:]) }

func (h Hash) Empty() bool { return h == Hash{} }

func (h Hash) TerminalString() string {
	return fmt.Sprintf("%x…%x", h.Bytes[:3], h.Bytes[29:])
}

func (h Hash) String() string {
	return h.Hex()
}

func (h Hash) Cmp(another Hash) int {
	return bytes.Compare(h.Bytes[:], another.Bytes[:])
}

// SetBytes sets the hash to the value of b.
// If b is larger than len(h), b will be cropped from the left.
func (h *Hash) SetBytes(b []byte) {
	if len(b) > len(h.Bytes) {
		b = b[len(b)-HashLength:]
	}
	h.Bytes = [HashLength]byte{}
	copy(h.Bytes[HashLength-len(b):], b)
}

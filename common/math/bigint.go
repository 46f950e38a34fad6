package math

import (
	"fmt"
	"math/big"
)

// A BigInt represents a signed multi-precision integer.
type BigInt struct {
	Value *big.Int
}

// NewBigInt allocates and returns a new BigInt set to x.
func NewBigInt(x int64) *BigInt {
	return &BigInt{big.NewInt(x)}
}

// NewBigIntFromString allocates and returns a new BigInt set to x.
func NewBigIntFromString(x string, base int) (*BigInt, bool) {
	v, success := big.NewInt(0).SetString(x, base)
	return &BigInt{v}, success
}

// NewBigIntFromBigInt allocates and returns a new BigInt holding a copy of x.
func NewBigIntFromBigInt(x *big.Int) *BigInt {
	return &BigInt{new(big.Int).Set(x)}
}

// GetBytes returns the absolute value of x as a big-endian byte slice.
func (bi *BigInt) GetBytes() []byte {
	return bi.Value.Bytes()
}

// String returns the value of x as a formatted decimal string.
func (bi *BigInt) String() string {
	return bi.Value.String()
}

// Sign returns:
//
//	-1 if x <  0
//	 0 if x == 0
//	+1 if x >  0
//
func (bi *BigInt) Sign() int {
	return bi.Value.Sign()
}

func (bi *BigInt) Cmp(another *BigInt) int {
	return bi.Value.Cmp(another.Value)
}

func (bi *BigInt) Add(another *BigInt) *BigInt {
	return &BigInt{new(big.Int).Add(bi.Value, another.Value)}
}

func (bi *BigInt) Sub(another *BigInt) *BigInt {
	return &BigInt{new(big.Int).Sub(bi.Value, another.Value)}
}

func (bi *BigInt) Format(s fmt.State, ch rune) {
	bi.Value.Format(s, ch)
}

var (
	// number of bits in a big.Word
	wordBits = 32 << (uint64(^big.Word(0)) >> 63)
	// number of bytes in a big.Word
	wordBytes = wordBits / 8
)

// PaddedBigBytes encodes a big integer as a big-endian byte slice. The length
// of the slice is at least n bytes.
func PaddedBigBytes(bigint *big.Int, n int) []byte {
	if bigint.BitLen()/8 >= n {
		return bigint.Bytes()
	}
	ret := make([]byte, n)
	ReadBits(bigint, ret)
	return ret
}

// ReadBits encodes the absolute value of bigint as big-endian bytes. Callers must ensure
// that buf has enough space. If buf is too short the result will be incomplete.
func ReadBits(bigint *big.Int, buf []byte) {
	i := len(buf)
	for _, d := range bigint.Bits() {
		for j := 0; j < wordBytes && i > 0; j++ {
			i--
			buf[i] = byte(d)
			d >>= 8
		}
	}
}

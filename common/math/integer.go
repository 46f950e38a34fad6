package math

import (
	"math/big"
)

var (
	Big0   = big.NewInt(0)
	Big1   = big.NewInt(1)
	Big256 = big.NewInt(256)

	tt256   = BigPow(2, 256)
	tt256m1 = new(big.Int).Sub(tt256, Big1)
)

// BigPow returns a ** b as a big integer.
func BigPow(a, b int64) *big.Int {
	r := big.NewInt(a)
	return r.Exp(r, big.NewInt(b), nil)
}

// IntRange returns the inclusive bounds of an N-bit integer.
func IntRange(bits int, signed bool) (min *big.Int, max *big.Int) {
	if signed {
		half := new(big.Int).Lsh(Big1, uint(bits-1))
		return new(big.Int).Neg(half), new(big.Int).Sub(half, Big1)
	}
	return new(big.Int), new(big.Int).Sub(new(big.Int).Lsh(Big1, uint(bits)), Big1)
}

// InRange reports whether v is representable as an N-bit integer.
func InRange(v *big.Int, bits int, signed bool) bool {
	min, max := IntRange(bits, signed)
	return v.Cmp(min) >= 0 && v.Cmp(max) <= 0
}

// Wrap reduces v modulo 2**bits and reinterprets the result as signed when required.
// The returned value always lies inside IntRange(bits, signed).
func Wrap(v *big.Int, bits int, signed bool) *big.Int {
	mod := new(big.Int).Lsh(Big1, uint(bits))
	r := new(big.Int).Mod(v, mod)
	if signed {
		half := new(big.Int).Lsh(Big1, uint(bits-1))
		if r.Cmp(half) >= 0 {
			r.Sub(r, mod)
		}
	}
	return r
}

// U256 encodes x as a 256 bit two's complement number.
func U256(x *big.Int) *big.Int {
	return new(big.Int).And(x, tt256m1)
}

// S256 interprets x as a two's complement number.
func S256(x *big.Int) *big.Int {
	if x.Cmp(new(big.Int).Rsh(tt256, 1)) < 0 {
		return new(big.Int).Set(x)
	}
	return new(big.Int).Sub(x, tt256)
}

// ToWord encodes v as a 32 byte big-endian two's complement word.
func ToWord(v *big.Int) []byte {
	return PaddedBigBytes(U256(v), 32)
}

// FromWord decodes an N-bit integer from the low-order bytes of a big-endian word.
func FromWord(b []byte, bits int, signed bool) *big.Int {
	v := new(big.Int).SetBytes(b)
	return Wrap(v, bits, signed)
}

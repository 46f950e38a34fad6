package math

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMoney(t *testing.T) {
	s := "1234567890123456789012345678901234567890123456789012345678901234567890123456789012345678901234567890"
	a, success := NewBigIntFromString(s, 10)
	assert.True(t, success)

	a2 := NewBigInt(2)
	a3 := a.Add(a2)
	assert.Equal(t, "1234567890123456789012345678901234567890123456789012345678901234567890123456789012345678901234567892", a3.String())
	assert.Equal(t, 0, a3.Sub(a2).Cmp(a))
}

func TestWrap(t *testing.T) {
	assert.Equal(t, int64(0), Wrap(big.NewInt(256), 8, false).Int64())
	assert.Equal(t, int64(255), Wrap(big.NewInt(-1), 8, false).Int64())
	assert.Equal(t, int64(-128), Wrap(big.NewInt(128), 8, true).Int64())
	assert.Equal(t, int64(127), Wrap(big.NewInt(-129), 8, true).Int64())
	assert.Equal(t, int64(-1), Wrap(big.NewInt(-1), 256, true).Int64())
}

func TestIntRange(t *testing.T) {
	min, max := IntRange(8, true)
	assert.Equal(t, int64(-128), min.Int64())
	assert.Equal(t, int64(127), max.Int64())
	assert.True(t, InRange(big.NewInt(127), 8, true))
	assert.False(t, InRange(big.NewInt(128), 8, true))
	assert.False(t, InRange(big.NewInt(-1), 16, false))
}

func TestWord(t *testing.T) {
	w := ToWord(big.NewInt(-2))
	assert.Len(t, w, 32)
	assert.Equal(t, byte(0xfe), w[31])
	assert.Equal(t, byte(0xff), w[0])
	assert.Equal(t, int64(-2), FromWord(w, 256, true).Int64())
	assert.Equal(t, int64(254), FromWord(w, 8, false).Int64())
}

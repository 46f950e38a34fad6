package soltypes

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayoutPacking(t *testing.T) {
	members := []NamedType{
		{"a", Uint8},
		{"b", IntType{Bits: 128}},
		{"c", Address},
		{"d", ArrayType{Elem: Uint256}},
		{"e", Bool},
	}
	pos, total := Layout(members)
	assert.Equal(t, int64(0), pos[0].Slot.Int64())
	assert.Equal(t, 0, pos[0].Offset)
	assert.Equal(t, int64(0), pos[1].Slot.Int64())
	assert.Equal(t, 1, pos[1].Offset)
	// 1 + 16 + 20 > 32
	assert.Equal(t, int64(1), pos[2].Slot.Int64())
	assert.Equal(t, 0, pos[2].Offset)
	assert.Equal(t, int64(2), pos[3].Slot.Int64())
	assert.Equal(t, int64(3), pos[4].Slot.Int64())
	assert.Equal(t, int64(4), total.Int64())
}

func TestStaticArraySlots(t *testing.T) {
	assert.Equal(t, int64(1), StorageSlots(ArrayType{Elem: Uint8, Size: big.NewInt(32)}).Int64())
	assert.Equal(t, int64(2), StorageSlots(ArrayType{Elem: Uint8, Size: big.NewInt(33)}).Int64())
	assert.Equal(t, int64(3), StorageSlots(ArrayType{Elem: Uint256, Size: big.NewInt(3)}).Int64())

	inner := ArrayType{Elem: IntType{Bits: 128}, Size: big.NewInt(3)}
	assert.Equal(t, int64(4), StorageSlots(ArrayType{Elem: inner, Size: big.NewInt(2)}).Int64())

	p := ElementPosition(IntType{Bits: 128}, big.NewInt(3))
	assert.Equal(t, int64(1), p.Slot.Int64())
	assert.Equal(t, 16, p.Offset)
}

func TestStructLayout(t *testing.T) {
	st := &StructType{Name: "S", Fields: []Field{
		{"x", Uint256},
		{"m", MappingType{Key: Address, Value: Uint256}},
		{"f", Bool},
		{"g", Uint8},
	}}
	pos, total := StructLayout(st)
	assert.Equal(t, int64(2), pos[2].Slot.Int64())
	assert.Equal(t, 1, pos[3].Offset)
	assert.Equal(t, int64(3), total.Int64())
	assert.Len(t, WireFields(st), 3)
	assert.True(t, ContainsMapping(st))
}

func TestDynamicAndHeadSize(t *testing.T) {
	assert.False(t, IsDynamic(ArrayType{Elem: Uint256, Size: big.NewInt(2)}))
	assert.True(t, IsDynamic(ArrayType{Elem: String, Size: big.NewInt(2)}))
	assert.Equal(t, 64, HeadSize(ArrayType{Elem: Uint256, Size: big.NewInt(2)}))
	assert.Equal(t, 32, HeadSize(Bytes))
	assert.Equal(t, 96, HeadSize(TupleType{Elems: []Type{Bool, ArrayType{Elem: Address, Size: big.NewInt(2)}}}))
}

func TestParse(t *testing.T) {
	ty, err := Parse("uint256[2][]")
	require.NoError(t, err)
	assert.Equal(t, "uint256[2][]", ty.String())

	ts, err := ParseList("address,(bool,bytes),string")
	require.NoError(t, err)
	require.Len(t, ts, 3)
	assert.Equal(t, "(bool,bytes)", CanonicalName(ts[1]))

	_, err = Parse("uint7")
	assert.Error(t, err)
	_, err = Parse("bytes33")
	assert.Error(t, err)
}

func TestSignature(t *testing.T) {
	st := &StructType{Name: "P", Fields: []Field{{"a", Uint256}, {"b", ArrayType{Elem: Address}}}}
	e := &EnumType{Name: "E", Members: []string{"A", "B"}}
	sig := Signature("f", []Type{st, e, ContractType{Name: "C"}, PointerType{To: String, Location: Memory}})
	assert.Equal(t, "f((uint256,address[]),uint8,address,string)", sig)
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(ArrayType{Elem: Uint8}, ArrayType{Elem: Uint8}))
	assert.False(t, Equal(ArrayType{Elem: Uint8}, ArrayType{Elem: Uint8, Size: big.NewInt(1)}))
	assert.True(t, Equal(&StructType{Name: "S"}, &StructType{Name: "S"}))
	assert.False(t, Equal(PointerType{To: Bytes, Location: Memory}, PointerType{To: Bytes, Location: Storage}))
}

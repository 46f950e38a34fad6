package abi

import (
	"math/big"
	"testing"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/annchain/solinterp/vm/values"
	"github.com/davecgh/go-spew/spew"
	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	gethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(vs ...int64) values.Composite {
	c := values.Composite{}
	for _, v := range vs {
		c.Elems = append(c.Elems, values.NewInt(v))
	}
	return c
}

func memory(t soltypes.Type) soltypes.Type {
	return soltypes.PointerType{To: t, Location: soltypes.Memory}
}

var point = &soltypes.StructType{Name: "Point", Fields: []soltypes.Field{
	{Name: "x", Type: soltypes.Uint8},
	{Name: "seen", Type: soltypes.MappingType{Key: soltypes.Address, Value: soltypes.Bool}},
	{Name: "ys", Type: soltypes.ArrayType{Elem: soltypes.Uint256}},
	{Name: "label", Type: soltypes.String},
}}

func TestLowering(t *testing.T) {
	lowered := ToABIEncodedType(memory(point))
	assert.Equal(t, "tuple(uint8,uint256[],string)", lowered.String())
	assert.Equal(t, soltypes.Uint256, ToABIEncodedType(soltypes.PointerType{To: point, Location: soltypes.Storage}))
	assert.Equal(t, soltypes.FixedBytesType{Size: 24}, ToABIEncodedType(soltypes.FunctionType{External: true}))
	fixed := soltypes.ArrayType{Elem: soltypes.Bool, Size: big.NewInt(2)}
	assert.Equal(t, soltypes.TupleType{Elems: []soltypes.Type{soltypes.Bool, soltypes.Bool}}, ToABIEncodedType(fixed))
	assert.Equal(t, soltypes.Uint8, ToABIEncodedType(&soltypes.EnumType{Name: "E", Members: []string{"A"}}))
}

func TestRoundTrip(t *testing.T) {
	owner := values.NewAddress(common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"))
	cases := []struct {
		typ soltypes.Type
		val values.Value
	}{
		{soltypes.Uint256, values.NewInt(123456789)},
		{soltypes.IntType{Bits: 8, Signed: true}, values.NewInt(-5)},
		{soltypes.Bool, values.Bool(true)},
		{soltypes.Address, owner},
		{soltypes.Bytes4, values.FixedBytes{1, 2, 3, 4}},
		{memory(soltypes.Bytes), values.Bytes("a longer byte sequence that spans two words")},
		{memory(soltypes.String), values.Bytes("")},
		{memory(soltypes.ArrayType{Elem: soltypes.Uint256, Size: big.NewInt(3)}), ints(1, 2, 3)},
		{memory(soltypes.ArrayType{Elem: soltypes.String}), values.Composite{Elems: []values.Value{values.Bytes("a"), values.Bytes("bc")}}},
		{memory(soltypes.ArrayType{Elem: soltypes.ArrayType{Elem: soltypes.Uint8}}), values.Composite{Elems: []values.Value{ints(1), ints(), ints(2, 3)}}},
		{memory(point), values.Composite{Elems: []values.Value{values.NewInt(7), ints(8, 9), values.Bytes("p")}, Names: []string{"x", "ys", "label"}}},
		{soltypes.FunctionType{External: true}, values.ExternalFunction{Address: owner.Address, Selector: [4]byte{0xde, 0xad, 0xbe, 0xef}}},
	}
	for _, c := range cases {
		enc, err := Encode([]values.Value{c.val}, []soltypes.Type{c.typ})
		require.NoError(t, err, c.typ.String())
		assert.Zero(t, len(enc)%32)

		dec, err := Decode(enc, []soltypes.Type{c.typ}, 0, Target{})
		require.NoError(t, err)
		assert.True(t, values.Equal(c.val, dec[0]), "%s: %s", c.typ, spew.Sdump(dec[0]))

		mem := values.NewMemory()
		dec, err = Decode(enc, []soltypes.Type{c.typ}, 0, Target{Mem: mem})
		require.NoError(t, err)
		assert.True(t, values.Equal(c.val, dec[0]), c.typ.String())
	}
}

func TestStructNamesRecovered(t *testing.T) {
	val := values.Composite{Elems: []values.Value{values.NewInt(1), ints(), values.Bytes("z")}}
	enc, err := Encode([]values.Value{val}, []soltypes.Type{memory(point)})
	require.NoError(t, err)
	dec, err := Decode(enc, []soltypes.Type{memory(point)}, 0, Target{})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "ys", "label"}, dec[0].(values.Composite).Names)
}

func TestAgainstGethPacker(t *testing.T) {
	uint256T, _ := ethabi.NewType("uint256", "", nil)
	stringT, _ := ethabi.NewType("string", "", nil)
	arrT, _ := ethabi.NewType("uint8[]", "", nil)
	addrT, _ := ethabi.NewType("address", "", nil)
	args := ethabi.Arguments{{Type: uint256T}, {Type: stringT}, {Type: arrT}, {Type: addrT}}
	owner := common.HexToAddress("0x00000000000000000000000000000000000000ff")
	want, err := args.Pack(big.NewInt(7), "hi", []uint8{1, 2}, gethcommon.BytesToAddress(owner.Bytes[:]))
	require.NoError(t, err)

	got, err := Encode(
		[]values.Value{values.NewInt(7), values.Bytes("hi"), ints(1, 2), values.NewAddress(owner)},
		[]soltypes.Type{soltypes.Uint256, memory(soltypes.String), memory(soltypes.ArrayType{Elem: soltypes.Uint8}), soltypes.Address},
	)
	require.NoError(t, err)
	assert.Equal(t, common.Encode(want), common.Encode(got))
}

func TestPointerLocations(t *testing.T) {
	storageArr := soltypes.PointerType{To: soltypes.ArrayType{Elem: soltypes.Uint256}, Location: soltypes.Storage}
	store := &values.Store{}
	view := values.NewStorageView(store, big.NewInt(5), 0, storageArr.To)
	enc, err := Encode([]values.Value{view}, []soltypes.Type{storageArr})
	require.NoError(t, err)
	assert.Equal(t, int64(5), new(big.Int).SetBytes(enc).Int64())

	dec, err := Decode(enc, []soltypes.Type{storageArr}, 0, Target{Store: store})
	require.NoError(t, err)
	sv, ok := dec[0].(*values.StorageView)
	require.True(t, ok)
	assert.Equal(t, int64(5), sv.Slot.Int64())

	calldataArr := soltypes.PointerType{To: soltypes.ArrayType{Elem: soltypes.Uint256}, Location: soltypes.CallData}
	enc, err = Encode([]values.Value{ints(4, 5)}, []soltypes.Type{calldataArr})
	require.NoError(t, err)
	dec, err = Decode(enc, []soltypes.Type{calldataArr}, 0, Target{})
	require.NoError(t, err)
	_, isCalldata := dec[0].(*values.CalldataView)
	assert.True(t, isCalldata)
	assert.True(t, values.Equal(ints(4, 5), dec[0]))
}

func TestDecodesWithSelector(t *testing.T) {
	sel := Selector("transfer(address,uint256)")
	assert.Equal(t, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, sel)
	types := []soltypes.Type{soltypes.Address, soltypes.Uint256}
	payload, err := EncodeWithSelector(sel, []values.Value{values.NewAddress(common.HexToAddress("0x01")), values.NewInt(10)}, types)
	require.NoError(t, err)

	vals, ok := DecodesWithSelector(sel, payload, types, Target{})
	require.True(t, ok)
	assert.True(t, values.Equal(values.NewInt(10), vals[1]))

	_, ok = DecodesWithSelector(Selector("approve(address,uint256)"), payload, types, Target{})
	assert.False(t, ok)
	_, ok = DecodesWithSelector(sel, payload[:40], types, Target{})
	assert.False(t, ok)

	dirty := append([]byte{}, payload...)
	dirty[4] = 1
	_, ok = DecodesWithSelector(sel, dirty, types, Target{})
	assert.False(t, ok)
}

func TestRevertPayloads(t *testing.T) {
	msg, code, ok := DecodeRevert(EncodeError([]byte("boom")))
	assert.True(t, ok)
	assert.Nil(t, code)
	assert.Equal(t, []byte("boom"), msg)

	msg, code, ok = DecodeRevert(EncodePanic(0x11))
	assert.True(t, ok)
	assert.Nil(t, msg)
	assert.Equal(t, int64(0x11), code.Int64())

	_, _, ok = DecodeRevert(nil)
	assert.False(t, ok)
}

func TestEncodePacked(t *testing.T) {
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	out, err := EncodePacked(
		[]values.Value{values.NewInt(1), values.NewAddress(owner), values.Bytes("ab"), values.FixedBytes{0xc, 0xd}, ints(3)},
		[]soltypes.Type{soltypes.Uint8, soltypes.Address, memory(soltypes.String), soltypes.FixedBytesType{Size: 2}, memory(soltypes.ArrayType{Elem: soltypes.Uint8})},
	)
	require.NoError(t, err)
	assert.Len(t, out, 1+20+2+2+32)
	assert.Equal(t, byte(1), out[0])
	assert.Equal(t, byte(0xaa), out[20])
	assert.Equal(t, []byte("ab"), out[21:23])
	assert.Equal(t, byte(3), out[len(out)-1])

	_, err = EncodePacked([]values.Value{values.Composite{}}, []soltypes.Type{point})
	assert.Error(t, err)
}

package values

import (
	"math/big"
	"testing"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/crypto"
	"github.com/annchain/solinterp/common/math"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapState map[common.Address]map[common.Hash]common.Hash

func (m mapState) GetState(a common.Address, k common.Hash) common.Hash {
	return m[a][k]
}

func (m mapState) SetState(a common.Address, k, v common.Hash) {
	if m[a] == nil {
		m[a] = map[common.Hash]common.Hash{}
	}
	m[a][k] = v
}

func newStore() (*Store, mapState) {
	db := mapState{}
	return &Store{DB: db, Account: common.HexToAddress("0x01")}, db
}

func ints(vs ...int64) Composite {
	c := Composite{}
	for _, v := range vs {
		c.Elems = append(c.Elems, NewInt(v))
	}
	return c
}

func TestStoragePacking(t *testing.T) {
	store, db := newStore()
	a := NewStorageView(store, big.NewInt(0), 0, soltypes.Uint8)
	b := NewStorageView(store, big.NewInt(0), 1, soltypes.IntType{Bits: 16, Signed: true})
	require.NoError(t, a.Encode(NewInt(0xab)))
	require.NoError(t, b.Encode(NewInt(-2)))

	word := db.GetState(store.Account, common.Hash{})
	assert.Equal(t, byte(0xab), word.Bytes[31])
	assert.Equal(t, []byte{0xff, 0xfe}, word.Bytes[29:31])
	assert.True(t, Equal(NewInt(0xab), a.Decode()))
	assert.True(t, Equal(NewInt(-2), b.Decode()))
}

func TestStorageDynamicArray(t *testing.T) {
	store, db := newStore()
	arr := NewStorageView(store, big.NewInt(0), 0, soltypes.ArrayType{Elem: soltypes.Uint256})
	require.NoError(t, arr.Encode(ints(7, 8, 9)))

	assert.Equal(t, "0x290decd9548b62a8d60345a988386fc84ba6bc95484008f6362f93160ef3e563",
		common.BigToHash(DataSlot(big.NewInt(0))).Hex())
	n, err := arr.Length()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n.Int64())
	assert.Equal(t, int64(8), db.GetState(store.Account, common.BigToHash(new(big.Int).Add(DataSlot(big.NewInt(0)), big.NewInt(1)))).Big().Int64())

	_, err = arr.Index(NewInt(3))
	assert.Equal(t, ErrOutOfBounds, err)

	// shrinking clears the tail
	require.NoError(t, arr.Encode(ints(1)))
	assert.True(t, db.GetState(store.Account, common.BigToHash(new(big.Int).Add(DataSlot(big.NewInt(0)), big.NewInt(2)))).Empty())
	assert.True(t, Equal(ints(1), Load(arr)), spew.Sdump(Load(arr)))
}

func TestStoragePushPop(t *testing.T) {
	store, _ := newStore()
	arr := NewStorageView(store, big.NewInt(3), 0, soltypes.ArrayType{Elem: soltypes.Uint8})
	assert.Equal(t, ErrPopEmpty, arr.Pop())
	n, _ := arr.Length()
	assert.Equal(t, int64(0), n.Int64())

	_, err := arr.Push(NewInt(5))
	require.NoError(t, err)
	_, err = arr.Push(nil)
	require.NoError(t, err)
	assert.True(t, Equal(ints(5, 0), Load(arr)))

	require.NoError(t, arr.Pop())
	assert.True(t, Equal(ints(5), Load(arr)))

	store.ReadOnly = true
	_, err = arr.Push(NewInt(1))
	assert.Equal(t, ErrWriteProtection, err)
}

func TestStorageBytes(t *testing.T) {
	store, db := newStore()
	s := NewStorageView(store, big.NewInt(2), 0, soltypes.String)
	require.NoError(t, s.Encode(Bytes("hello")))
	word := db.GetState(store.Account, common.BigToHash(big.NewInt(2)))
	assert.Equal(t, byte(10), word.Bytes[31])
	assert.Equal(t, Bytes("hello"), s.Decode())

	long := make([]byte, 40)
	for i := range long {
		long[i] = byte(i)
	}
	require.NoError(t, s.Encode(Bytes(long)))
	word = db.GetState(store.Account, common.BigToHash(big.NewInt(2)))
	assert.Equal(t, int64(81), word.Big().Int64())
	assert.Equal(t, Bytes(long), s.Decode())

	require.NoError(t, s.Encode(Bytes("x")))
	second := new(big.Int).Add(DataSlot(big.NewInt(2)), big.NewInt(1))
	assert.True(t, db.GetState(store.Account, common.BigToHash(second)).Empty())
}

func TestStorageMappingAndStruct(t *testing.T) {
	store, _ := newStore()
	point := &soltypes.StructType{Name: "P", Fields: []soltypes.Field{
		{Name: "x", Type: soltypes.Uint8},
		{Name: "tags", Type: soltypes.MappingType{Key: soltypes.Uint256, Value: soltypes.Bool}},
		{Name: "ys", Type: soltypes.ArrayType{Elem: soltypes.Uint256}},
	}}
	m := NewStorageView(store, big.NewInt(1), 0, soltypes.MappingType{Key: soltypes.Address, Value: point})
	owner := common.HexToAddress("0x00000000000000000000000000000000000000aa")
	entry, err := m.Index(NewAddress(owner))
	require.NoError(t, err)

	want := new(big.Int).SetBytes(crypto.Keccak256(common.LeftPadBytes(owner.Bytes[:], 32), math.ToWord(big.NewInt(1))))
	assert.Equal(t, 0, want.Cmp(entry.(*StorageView).Slot))

	require.NoError(t, entry.Encode(Composite{Elems: []Value{NewInt(4), ints(1, 2)}}))
	loaded := Load(entry).(Composite)
	assert.Equal(t, []string{"x", "ys"}, loaded.Names)
	assert.True(t, Equal(NewInt(4), loaded.Elems[0]))
	assert.True(t, Equal(ints(1, 2), loaded.Elems[1]))

	tags, err := entry.(Structured).Field("tags")
	require.NoError(t, err)
	flag, err := tags.(Indexable).Index(NewInt(9))
	require.NoError(t, err)
	require.NoError(t, flag.Encode(Bool(true)))

	require.NoError(t, entry.(*StorageView).Clear())
	assert.True(t, Equal(NewInt(0), Load(mustField(t, entry, "x"))))
	assert.Equal(t, Bool(true), flag.Decode())
}

func mustField(t *testing.T, v View, name string) View {
	f, err := v.(Structured).Field(name)
	require.NoError(t, err)
	return f
}

func TestMemoryAllocate(t *testing.T) {
	mem := NewMemory()
	nested := soltypes.ArrayType{Elem: soltypes.ArrayType{Elem: soltypes.Uint256}}
	v, err := mem.Allocate(nested, Composite{Elems: []Value{ints(1, 2), ints(3)}})
	require.NoError(t, err)
	assert.Equal(t, uint64(FreePointerStart), v.Off)

	inner, err := v.Index(NewInt(1))
	require.NoError(t, err)
	_, isPointer := inner.(Pointer)
	assert.True(t, isPointer)
	assert.True(t, Equal(ints(3), Load(inner)))

	// pointer assignment aliases the other object
	first, _ := v.Index(NewInt(0))
	require.NoError(t, inner.Encode(first.(Pointer).ToView()))
	elem, _ := Deref(inner).(Indexable).Index(NewInt(1))
	require.NoError(t, elem.Encode(NewInt(42)))
	assert.True(t, Equal(Composite{Elems: []Value{ints(1, 42), ints(1, 42)}}, Load(v)))

	b, err := mem.Allocate(soltypes.Bytes, Bytes("abc"))
	require.NoError(t, err)
	assert.Equal(t, Bytes("abc"), b.Decode())
	bi, err := b.Index(NewInt(1))
	require.NoError(t, err)
	require.NoError(t, bi.Encode(FixedBytes("z")))
	assert.Equal(t, Bytes("azc"), b.Decode())
	_, err = b.Index(NewInt(3))
	assert.Equal(t, ErrOutOfBounds, err)
}

func TestCalldataPoison(t *testing.T) {
	data := make([]byte, 64)
	data[31] = 0x20
	data[63] = 0x05
	v := NewCalldataView(data, 0, 0, soltypes.Bytes)
	assert.True(t, HasPoison(v.Decode()))

	flag := NewCalldataView(data, 0, 32, soltypes.Bool)
	assert.True(t, HasPoison(flag.Decode()))

	n := NewCalldataView(data, 0, 32, soltypes.Uint8)
	assert.True(t, Equal(NewInt(5), n.Decode()))

	short := NewCalldataView(data, 0, 48, soltypes.Uint256)
	assert.True(t, HasPoison(short.Decode()))
}

func TestZeroValues(t *testing.T) {
	fixed := soltypes.ArrayType{Elem: soltypes.Bool, Size: big.NewInt(2)}
	assert.True(t, Equal(Composite{Elems: []Value{Bool(false), Bool(false)}}, Zero(fixed)))
	assert.Equal(t, FixedBytes{0, 0, 0, 0}, Zero(soltypes.Bytes4))
	assert.Equal(t, None{}, Zero(soltypes.TupleType{Elems: []soltypes.Type{nil}}).(Composite).Elems[0])
}

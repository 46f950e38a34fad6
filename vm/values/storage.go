package values

import (
	"math/big"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/crypto"
	"github.com/annchain/solinterp/common/math"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/pkg/errors"
)

// StateAccess is the part of the ledger that storage views need.
type StateAccess interface {
	GetState(common.Address, common.Hash) common.Hash
	SetState(common.Address, common.Hash, common.Hash)
}

// Store is the persistent storage of one account as seen by one execution.
type Store struct {
	DB        StateAccess
	Account   common.Address
	ReadOnly  bool
	Functions FunctionTable
}

func slotKey(slot *big.Int) common.Hash {
	return common.BigToHash(math.U256(slot))
}

func (s *Store) Load(slot *big.Int) []byte {
	h := s.DB.GetState(s.Account, slotKey(slot))
	return common.CopyBytes(h.Bytes[:])
}

func (s *Store) Save(slot *big.Int, word []byte) error {
	if s.ReadOnly {
		return ErrWriteProtection
	}
	s.DB.SetState(s.Account, slotKey(slot), common.BytesToHash(word))
	return nil
}

// DataSlot is where the contents of a dynamic array or long bytes at slot begin.
func DataSlot(slot *big.Int) *big.Int {
	return new(big.Int).SetBytes(crypto.Keccak256(math.ToWord(slot)))
}

// MappingKey encodes a mapping key the way storage hashing expects: value
// types padded to a word, bytes and strings unpadded.
func MappingKey(t soltypes.Type, key Value) ([]byte, error) {
	switch soltypes.Deref(t).(type) {
	case soltypes.BytesType, soltypes.StringType:
		b, ok := AsBytes(key)
		if !ok {
			return nil, errors.Errorf("invalid mapping key %v", key)
		}
		return b, nil
	}
	return Word(t, key)
}

// StorageView is a typed location in contract storage. Offset counts bytes from
// the low-order end of the slot and is only non-zero for packed value types.
type StorageView struct {
	Store  *Store
	Slot   *big.Int
	Offset int
	Typ    soltypes.Type
}

func NewStorageView(store *Store, slot *big.Int, offset int, t soltypes.Type) *StorageView {
	return &StorageView{Store: store, Slot: new(big.Int).Set(slot), Offset: offset, Typ: soltypes.Deref(t)}
}

func (v *StorageView) isValue() {}

func (v *StorageView) Type() soltypes.Type {
	return v.Typ
}

func (v *StorageView) Location() soltypes.DataLocation { return soltypes.Storage }

func (v *StorageView) String() string {
	return "storage[" + v.Slot.String() + "]." + v.Typ.String()
}

func (v *StorageView) Decode() Value {
	switch v.Typ.(type) {
	case soltypes.BytesType, soltypes.StringType:
		return Bytes(v.loadBytes())
	}
	if !soltypes.IsValueType(v.Typ) {
		return v
	}
	size := soltypes.StorageBytes(v.Typ)
	word := v.Store.Load(v.Slot)
	end := soltypes.SlotSize - v.Offset
	return FromPacked(v.Typ, word[end-size:end], v.Store.Functions)
}

func (v *StorageView) Encode(val Value) error {
	if soltypes.IsValueType(v.Typ) {
		packed, err := Packed(v.Typ, val)
		if err != nil {
			return err
		}
		word := v.Store.Load(v.Slot)
		end := soltypes.SlotSize - v.Offset
		copy(word[end-len(packed):end], packed)
		return v.Store.Save(v.Slot, word)
	}
	if same, ok := val.(*StorageView); ok && same.Store == v.Store && same.Slot.Cmp(v.Slot) == 0 {
		return nil
	}
	switch t := v.Typ.(type) {
	case soltypes.BytesType, soltypes.StringType:
		b, ok := AsBytes(val)
		if !ok {
			return errors.Errorf("cannot store %v as %s", val, t)
		}
		return v.storeBytes(b)
	case soltypes.MappingType:
		return errors.New("mappings cannot be assigned")
	case soltypes.ArrayType:
		c, ok := Load(val).(Composite)
		if !ok {
			return errors.Errorf("cannot store %v as %s", val, t)
		}
		return v.storeArray(t, c.Elems)
	case *soltypes.StructType:
		c, ok := Load(val).(Composite)
		if !ok {
			return errors.Errorf("cannot store %v as %s", val, t)
		}
		fields := soltypes.WireFields(t)
		if len(fields) != len(c.Elems) {
			return errors.Errorf("struct %s expects %d members, got %d", t.Name, len(fields), len(c.Elems))
		}
		for i, f := range fields {
			fv, err := v.Field(f.Name)
			if err != nil {
				return err
			}
			if err := fv.Encode(c.Elems[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return errors.Errorf("cannot store into %s", v.Typ)
}

// Clear resets the location to the zero value. Mappings are left untouched.
func (v *StorageView) Clear() error {
	switch t := v.Typ.(type) {
	case soltypes.MappingType:
		return nil
	case *soltypes.StructType:
		for _, f := range t.Fields {
			fv, err := v.Field(f.Name)
			if err != nil {
				return err
			}
			if err := fv.(*StorageView).Clear(); err != nil {
				return err
			}
		}
		return nil
	}
	return v.Encode(Zero(v.Typ))
}

func (v *StorageView) storeArray(t soltypes.ArrayType, elems []Value) error {
	n := big.NewInt(int64(len(elems)))
	var old *big.Int
	if t.Dynamic() {
		old = new(big.Int).SetBytes(v.Store.Load(v.Slot))
		if err := v.Store.Save(v.Slot, math.ToWord(n)); err != nil {
			return err
		}
	} else if t.Size.Cmp(n) != 0 {
		return errors.Errorf("array %s expects %s elements, got %d", t, t.Size, len(elems))
	}
	base := v.dataSlot(t)
	for i, e := range elems {
		ev := v.element(base, t.Elem, big.NewInt(int64(i)))
		if err := ev.Encode(e); err != nil {
			return err
		}
	}
	for i := new(big.Int).Set(n); old != nil && i.Cmp(old) < 0; i.Add(i, math.Big1) {
		if err := v.element(base, t.Elem, i).Clear(); err != nil {
			return err
		}
	}
	return nil
}

func (v *StorageView) dataSlot(t soltypes.ArrayType) *big.Int {
	if t.Dynamic() {
		return DataSlot(v.Slot)
	}
	return v.Slot
}

func (v *StorageView) element(base *big.Int, elem soltypes.Type, i *big.Int) *StorageView {
	pos := soltypes.ElementPosition(elem, i)
	return NewStorageView(v.Store, new(big.Int).Add(base, pos.Slot), pos.Offset, elem)
}

func (v *StorageView) Length() (*big.Int, error) {
	switch t := v.Typ.(type) {
	case soltypes.ArrayType:
		if t.Dynamic() {
			return new(big.Int).SetBytes(v.Store.Load(v.Slot)), nil
		}
		return new(big.Int).Set(t.Size), nil
	case soltypes.BytesType, soltypes.StringType:
		return big.NewInt(int64(len(v.loadBytes()))), nil
	}
	return nil, errors.Errorf("%s has no length", v.Typ)
}

func (v *StorageView) Index(key Value) (View, error) {
	switch t := v.Typ.(type) {
	case soltypes.MappingType:
		k, err := MappingKey(t.Key, key)
		if err != nil {
			return nil, err
		}
		slot := new(big.Int).SetBytes(crypto.Keccak256(k, math.ToWord(v.Slot)))
		return NewStorageView(v.Store, slot, 0, t.Value), nil
	case soltypes.ArrayType:
		n, err := v.Length()
		if err != nil {
			return nil, err
		}
		i, err := index(key, n)
		if err != nil {
			return nil, err
		}
		return v.element(v.dataSlot(t), t.Elem, i), nil
	case soltypes.BytesType:
		n := big.NewInt(int64(len(v.loadBytes())))
		i, err := index(key, n)
		if err != nil {
			return nil, err
		}
		return &ByteIndexView{Parent: v, Index: int(i.Int64())}, nil
	}
	return nil, errors.Errorf("%s is not indexable", v.Typ)
}

func (v *StorageView) Field(name string) (View, error) {
	st, ok := v.Typ.(*soltypes.StructType)
	if !ok {
		return nil, errors.Errorf("%s has no member %s", v.Typ, name)
	}
	i, f, ok := st.Field(name)
	if !ok {
		return nil, errors.Errorf("struct %s has no member %s", st.Name, name)
	}
	positions, _ := soltypes.StructLayout(st)
	pos := positions[i]
	return NewStorageView(v.Store, new(big.Int).Add(v.Slot, pos.Slot), pos.Offset, f.Type), nil
}

// Push appends v, or the element's zero value when v is nil, and returns the new element.
func (v *StorageView) Push(val Value) (View, error) {
	switch t := v.Typ.(type) {
	case soltypes.ArrayType:
		if !t.Dynamic() {
			return nil, errors.Errorf("push on fixed-size array %s", t)
		}
		n := new(big.Int).SetBytes(v.Store.Load(v.Slot))
		if err := v.Store.Save(v.Slot, math.ToWord(new(big.Int).Add(n, math.Big1))); err != nil {
			return nil, err
		}
		ev := v.element(DataSlot(v.Slot), t.Elem, n)
		if val == nil {
			val = Zero(t.Elem)
		}
		if err := ev.Encode(val); err != nil {
			return nil, err
		}
		return ev, nil
	case soltypes.BytesType:
		b := v.loadBytes()
		elem := byte(0)
		if val != nil {
			fb, ok := AsBytes(val)
			if !ok || len(fb) != 1 {
				return nil, errors.Errorf("cannot push %v onto bytes", val)
			}
			elem = fb[0]
		}
		if err := v.storeBytes(append(b, elem)); err != nil {
			return nil, err
		}
		return &ByteIndexView{Parent: v, Index: len(b)}, nil
	}
	return nil, errors.Errorf("push on %s", v.Typ)
}

func (v *StorageView) Pop() error {
	switch t := v.Typ.(type) {
	case soltypes.ArrayType:
		if !t.Dynamic() {
			return errors.Errorf("pop on fixed-size array %s", t)
		}
		n := new(big.Int).SetBytes(v.Store.Load(v.Slot))
		if n.Sign() == 0 {
			return ErrPopEmpty
		}
		n.Sub(n, math.Big1)
		if err := v.element(DataSlot(v.Slot), t.Elem, n).Clear(); err != nil {
			return err
		}
		return v.Store.Save(v.Slot, math.ToWord(n))
	case soltypes.BytesType:
		b := v.loadBytes()
		if len(b) == 0 {
			return ErrPopEmpty
		}
		return v.storeBytes(b[:len(b)-1])
	}
	return errors.Errorf("pop on %s", v.Typ)
}

// loadBytes reads a bytes or string value: short values live in the slot with
// length*2 in the lowest byte, long ones store length*2+1 and keep the data at keccak(slot).
func (v *StorageView) loadBytes() []byte {
	word := v.Store.Load(v.Slot)
	if word[31]&1 == 0 {
		n := int(word[31] / 2)
		if n > 31 {
			n = 31
		}
		return common.CopyBytes(word[:n])
	}
	n := new(big.Int).SetBytes(word)
	n.Rsh(n, 1)
	if !n.IsInt64() || n.Int64() > 1<<24 {
		return nil
	}
	length := int(n.Int64())
	out := make([]byte, 0, length)
	data := DataSlot(v.Slot)
	for i := 0; len(out) < length; i++ {
		chunk := v.Store.Load(new(big.Int).Add(data, big.NewInt(int64(i))))
		need := length - len(out)
		if need > soltypes.SlotSize {
			need = soltypes.SlotSize
		}
		out = append(out, chunk[:need]...)
	}
	return out
}

func (v *StorageView) storeBytes(b []byte) error {
	if err := v.clearLongBytes(); err != nil {
		return err
	}
	if len(b) < soltypes.SlotSize {
		word := make([]byte, soltypes.SlotSize)
		copy(word, b)
		word[31] = byte(len(b) * 2)
		return v.Store.Save(v.Slot, word)
	}
	if err := v.Store.Save(v.Slot, math.ToWord(big.NewInt(int64(len(b)*2+1)))); err != nil {
		return err
	}
	data := DataSlot(v.Slot)
	for i := 0; i*soltypes.SlotSize < len(b); i++ {
		end := (i + 1) * soltypes.SlotSize
		if end > len(b) {
			end = len(b)
		}
		if err := v.Store.Save(new(big.Int).Add(data, big.NewInt(int64(i))), common.RightPadBytes(b[i*soltypes.SlotSize:end], soltypes.SlotSize)); err != nil {
			return err
		}
	}
	return nil
}

func (v *StorageView) clearLongBytes() error {
	word := v.Store.Load(v.Slot)
	if word[31]&1 == 0 {
		return nil
	}
	n := new(big.Int).SetBytes(word)
	n.Rsh(n, 1)
	if !n.IsInt64() {
		return nil
	}
	data := DataSlot(v.Slot)
	zero := make([]byte, soltypes.SlotSize)
	for i := int64(0); i*soltypes.SlotSize < n.Int64(); i++ {
		if err := v.Store.Save(new(big.Int).Add(data, big.NewInt(i)), zero); err != nil {
			return err
		}
	}
	return nil
}

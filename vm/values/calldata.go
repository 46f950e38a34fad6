package values

import (
	"math/big"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/pkg/errors"
)

// CalldataView reads an ABI-encoded buffer in place. Off is the position of the
// value's head word; Base is the start of the enclosing tuple, against which
// dynamic offsets are resolved. Reads past the buffer decode to Poison.
type CalldataView struct {
	Data []byte
	Base int
	Off  int
	Typ  soltypes.Type
}

func NewCalldataView(data []byte, base, off int, t soltypes.Type) *CalldataView {
	return &CalldataView{Data: data, Base: base, Off: off, Typ: soltypes.Deref(t)}
}

func (v *CalldataView) isValue() {}

func (v *CalldataView) Type() soltypes.Type { return v.Typ }

func (v *CalldataView) Location() soltypes.DataLocation { return soltypes.CallData }

func (v *CalldataView) String() string {
	return "calldata[" + big.NewInt(int64(v.Off)).String() + "]." + v.Typ.String()
}

func (v *CalldataView) word(pos int) ([]byte, bool) {
	if pos < 0 || pos+soltypes.SlotSize > len(v.Data) {
		return nil, false
	}
	return v.Data[pos : pos+soltypes.SlotSize], true
}

func (v *CalldataView) smallInt(pos int) (int, bool) {
	w, ok := v.word(pos)
	if !ok {
		return 0, false
	}
	n := new(big.Int).SetBytes(w)
	if !n.IsInt64() || n.Int64() > int64(len(v.Data)) {
		return 0, false
	}
	return int(n.Int64()), true
}

// start is where the encoding of the value itself begins.
func (v *CalldataView) start() (int, bool) {
	if !soltypes.IsDynamic(v.Typ) {
		return v.Off, v.Off+soltypes.HeadSize(v.Typ) <= len(v.Data)
	}
	rel, ok := v.smallInt(v.Off)
	if !ok {
		return 0, false
	}
	s := v.Base + rel
	return s, s <= len(v.Data)
}

func (v *CalldataView) Decode() Value {
	if soltypes.IsValueType(v.Typ) {
		w, ok := v.word(v.Off)
		if !ok {
			return Poison{Reason: "calldata too short"}
		}
		return FromWord(v.Typ, w, true, nil)
	}
	s, ok := v.start()
	if !ok {
		return Poison{Reason: "invalid calldata offset"}
	}
	switch v.Typ.(type) {
	case soltypes.BytesType, soltypes.StringType:
		n, ok := v.smallInt(s)
		if !ok || s+soltypes.SlotSize+n > len(v.Data) {
			return Poison{Reason: "calldata bytes out of range"}
		}
		return Bytes(common.CopyBytes(v.Data[s+soltypes.SlotSize : s+soltypes.SlotSize+n]))
	case soltypes.ArrayType:
		n, err := v.Length()
		if err != nil {
			return Poison{Reason: err.Error()}
		}
		elemsBase, _ := v.elements()
		if n.Sign() > 0 && elemsBase+int(n.Int64())*soltypes.HeadSize(v.elem()) > len(v.Data) {
			return Poison{Reason: "calldata array out of range"}
		}
	}
	return v
}

func (v *CalldataView) Encode(Value) error {
	return errors.Wrap(ErrReadOnly, "calldata")
}

func (v *CalldataView) elem() soltypes.Type {
	return v.Typ.(soltypes.ArrayType).Elem
}

// elements returns the position of the first element of an array.
func (v *CalldataView) elements() (int, bool) {
	s, ok := v.start()
	if !ok {
		return 0, false
	}
	if t, isArr := v.Typ.(soltypes.ArrayType); isArr && t.Dynamic() {
		return s + soltypes.SlotSize, true
	}
	return s, true
}

func (v *CalldataView) Length() (*big.Int, error) {
	switch t := v.Typ.(type) {
	case soltypes.ArrayType:
		if !t.Dynamic() {
			return new(big.Int).Set(t.Size), nil
		}
	case soltypes.BytesType, soltypes.StringType:
	default:
		return nil, errors.Errorf("%s has no length", v.Typ)
	}
	s, ok := v.start()
	if !ok {
		return nil, errors.New("invalid calldata offset")
	}
	n, ok := v.smallInt(s)
	if !ok {
		return nil, errors.New("invalid calldata length")
	}
	return big.NewInt(int64(n)), nil
}

func (v *CalldataView) Index(key Value) (View, error) {
	n, err := v.Length()
	if err != nil {
		return nil, err
	}
	i, err := index(key, n)
	if err != nil {
		return nil, err
	}
	switch t := v.Typ.(type) {
	case soltypes.ArrayType:
		base, ok := v.elements()
		if !ok {
			return nil, errors.New("invalid calldata offset")
		}
		return NewCalldataView(v.Data, base, base+int(i.Int64())*soltypes.HeadSize(t.Elem), t.Elem), nil
	case soltypes.BytesType:
		return &ByteIndexView{Parent: v, Index: int(i.Int64())}, nil
	}
	return nil, errors.Errorf("%s is not indexable", v.Typ)
}

// Component returns element i of a tuple or the i-th wire field of a struct.
func (v *CalldataView) Component(i int) (View, error) {
	var members []soltypes.Type
	switch t := v.Typ.(type) {
	case soltypes.TupleType:
		members = t.Elems
	case *soltypes.StructType:
		for _, f := range soltypes.WireFields(t) {
			members = append(members, f.Type)
		}
	default:
		return nil, errors.Errorf("%s has no components", v.Typ)
	}
	if i < 0 || i >= len(members) {
		return nil, ErrOutOfBounds
	}
	s, ok := v.start()
	if !ok {
		return nil, errors.New("invalid calldata offset")
	}
	off := s
	for _, m := range members[:i] {
		off += soltypes.HeadSize(m)
	}
	return NewCalldataView(v.Data, s, off, members[i]), nil
}

func (v *CalldataView) Field(name string) (View, error) {
	st, ok := v.Typ.(*soltypes.StructType)
	if !ok {
		return nil, errors.Errorf("%s has no member %s", v.Typ, name)
	}
	for i, f := range soltypes.WireFields(st) {
		if f.Name == name {
			return v.Component(i)
		}
	}
	return nil, errors.Errorf("struct %s has no member %s", st.Name, name)
}

package values

import (
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/pkg/errors"
)

// LocalStore is the binding table a local variable lives in.
type LocalStore interface {
	Lookup(name string) (Value, bool)
	Set(name string, v Value) error
}

// LocalView names a local variable. Value-typed locals hold scalars, reference-typed
// locals hold the view they point at.
type LocalView struct {
	Scope LocalStore
	Name  string
	Typ   soltypes.Type
}

func (v *LocalView) isValue() {}

func (v *LocalView) Type() soltypes.Type { return v.Typ }

func (v *LocalView) Location() soltypes.DataLocation {
	if p, ok := v.Typ.(soltypes.PointerType); ok {
		return p.Location
	}
	return soltypes.LocationDefault
}

func (v *LocalView) String() string { return "local " + v.Name }

func (v *LocalView) Decode() Value {
	val, ok := v.Scope.Lookup(v.Name)
	if !ok {
		return Poison{Reason: "unbound local " + v.Name}
	}
	return val
}

func (v *LocalView) Encode(val Value) error {
	if soltypes.IsValueType(soltypes.Deref(v.Typ)) {
		val = Load(val)
	}
	return v.Scope.Set(v.Name, val)
}

// ByteIndexView is one byte of a bytes or bytesN value held by another view.
type ByteIndexView struct {
	Parent View
	Index  int
}

func (v *ByteIndexView) isValue() {}

func (v *ByteIndexView) Type() soltypes.Type { return soltypes.FixedBytesType{Size: 1} }

func (v *ByteIndexView) Location() soltypes.DataLocation { return v.Parent.Location() }

func (v *ByteIndexView) Decode() Value {
	b, ok := AsBytes(v.Parent.Decode())
	if !ok || v.Index < 0 || v.Index >= len(b) {
		return Poison{Reason: "byte index out of range"}
	}
	return FixedBytes{b[v.Index]}
}

func (v *ByteIndexView) Encode(val Value) error {
	x, ok := AsBytes(val)
	if !ok || len(x) != 1 {
		return errors.Errorf("cannot store %v into a byte", val)
	}
	parent := v.Parent.Decode()
	b, ok := AsBytes(parent)
	if !ok || v.Index >= len(b) {
		return ErrOutOfBounds
	}
	b = append([]byte{}, b...)
	b[v.Index] = x[0]
	if _, fixed := parent.(FixedBytes); fixed {
		return v.Parent.Encode(FixedBytes(b))
	}
	return v.Parent.Encode(Bytes(b))
}

// IndexFixedBytes reads byte i of a bytesN value held in any view or as a plain value.
func IndexFixedBytes(base Value, key Value) (Value, error) {
	b, ok := AsBytes(base)
	if !ok {
		return nil, errors.Errorf("%v is not a byte sequence", base)
	}
	i, err := index(key, bigLen(len(b)))
	if err != nil {
		return nil, err
	}
	return FixedBytes{b[i.Int64()]}, nil
}

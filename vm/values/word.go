package values

import (
	"math/big"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/math"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/pkg/errors"
)

// FunctionTable resolves internal function pointers stored as node ids.
type FunctionTable map[int]*ast.FunctionDefinition

// leftAligned types keep their bytes at the high-order end of a word.
func leftAligned(t soltypes.Type) bool {
	switch x := t.(type) {
	case soltypes.FixedBytesType:
		return true
	case soltypes.FunctionType:
		return x.External
	}
	return false
}

// Word encodes a scalar value into a 32-byte word as used by memory and the ABI.
func Word(t soltypes.Type, v Value) ([]byte, error) {
	v = Load(v)
	word := make([]byte, soltypes.SlotSize)
	switch x := v.(type) {
	case Int:
		return math.ToWord(x.V), nil
	case Bool:
		if x {
			word[31] = 1
		}
		return word, nil
	case Address:
		copy(word[12:], x.Bytes[:])
		return word, nil
	case FixedBytes:
		copy(word, x)
		return word, nil
	case ExternalFunction:
		copy(word, x.Address.Bytes[:])
		copy(word[20:], x.Selector[:])
		return word, nil
	case InternalFunction:
		if x.Def != nil {
			return math.ToWord(big.NewInt(int64(x.Def.ID))), nil
		}
		return word, nil
	}
	return nil, errors.Errorf("cannot encode %v as a word of type %s", v, t)
}

// FromWord decodes a scalar of type t. With strict set, non-canonical encodings
// (dirty high bits, bools other than 0/1, enums out of range) decode to Poison.
func FromWord(t soltypes.Type, word []byte, strict bool, fns FunctionTable) Value {
	if len(word) != soltypes.SlotSize {
		return Poison{Reason: "short word"}
	}
	switch x := soltypes.Deref(t).(type) {
	case soltypes.IntType:
		v := math.FromWord(word, x.Bits, x.Signed)
		if strict && math.FromWord(word, 256, x.Signed).Cmp(v) != 0 {
			return Poison{Reason: "dirty integer bits for " + x.String()}
		}
		return Int{V: v}
	case *soltypes.EnumType:
		v := new(big.Int).SetBytes(word)
		if strict && v.Cmp(big.NewInt(int64(len(x.Members)))) >= 0 {
			return Poison{Reason: "enum value out of range"}
		}
		return Int{V: v}
	case soltypes.BoolType:
		v := new(big.Int).SetBytes(word)
		if strict && v.Cmp(big.NewInt(1)) > 0 {
			return Poison{Reason: "invalid bool"}
		}
		return Bool(v.Sign() != 0)
	case soltypes.AddressType, soltypes.ContractType:
		if strict && new(big.Int).SetBytes(word[:12]).Sign() != 0 {
			return Poison{Reason: "dirty address bits"}
		}
		return NewAddress(common.BytesToAddress(word[12:]))
	case soltypes.FixedBytesType:
		if strict && new(big.Int).SetBytes(word[x.Size:]).Sign() != 0 {
			return Poison{Reason: "dirty bytes bits"}
		}
		return FixedBytes(common.CopyBytes(word[:x.Size]))
	case soltypes.FunctionType:
		if x.External {
			f := ExternalFunction{Address: common.BytesToAddress(word[:20])}
			copy(f.Selector[:], word[20:24])
			return f
		}
		id := new(big.Int).SetBytes(word)
		if id.Sign() == 0 {
			return InternalFunction{}
		}
		if def, ok := fns[int(id.Int64())]; ok {
			return InternalFunction{Def: def}
		}
		return Poison{Reason: "unknown internal function pointer"}
	}
	return Poison{Reason: "not a scalar type: " + t.String()}
}

// Packed encodes a scalar into exactly StorageBytes(t) bytes.
func Packed(t soltypes.Type, v Value) ([]byte, error) {
	word, err := Word(t, v)
	if err != nil {
		return nil, err
	}
	size := soltypes.StorageBytes(t)
	if leftAligned(t) {
		return word[:size], nil
	}
	return word[soltypes.SlotSize-size:], nil
}

// FromPacked is the inverse of Packed.
func FromPacked(t soltypes.Type, b []byte, fns FunctionTable) Value {
	word := make([]byte, soltypes.SlotSize)
	if leftAligned(t) {
		copy(word, b)
	} else {
		copy(word[soltypes.SlotSize-len(b):], b)
	}
	return FromWord(t, word, false, fns)
}

// Zero is the default value of t, fully materialized.
func Zero(t soltypes.Type) Value {
	switch x := t.(type) {
	case soltypes.IntType, soltypes.IntLiteralType, *soltypes.EnumType:
		return NewInt(0)
	case soltypes.BoolType:
		return Bool(false)
	case soltypes.AddressType, soltypes.ContractType:
		return Address{}
	case soltypes.FixedBytesType:
		return FixedBytes(make([]byte, x.Size))
	case soltypes.BytesType, soltypes.StringType:
		return Bytes{}
	case soltypes.FunctionType:
		if x.External {
			return ExternalFunction{}
		}
		return InternalFunction{}
	case soltypes.ArrayType:
		if x.Size == nil {
			return Composite{Elems: []Value{}}
		}
		elems := make([]Value, x.Size.Int64())
		for i := range elems {
			elems[i] = Zero(x.Elem)
		}
		return Composite{Elems: elems}
	case *soltypes.StructType:
		fields := soltypes.WireFields(x)
		c := Composite{Elems: make([]Value, len(fields)), Names: make([]string, len(fields))}
		for i, f := range fields {
			c.Elems[i] = Zero(f.Type)
			c.Names[i] = f.Name
		}
		return c
	case soltypes.PointerType:
		return Zero(x.To)
	case soltypes.TupleType:
		elems := make([]Value, len(x.Elems))
		for i, e := range x.Elems {
			if e == nil {
				elems[i] = None{}
				continue
			}
			elems[i] = Zero(e)
		}
		return Composite{Elems: elems}
	}
	return None{}
}

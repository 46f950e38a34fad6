package abi

import (
	"math/big"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/math"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/annchain/solinterp/vm/values"
	"github.com/pkg/errors"
)

// Encode ABI-encodes vals as a tuple of the given (unlowered) types.
func Encode(vals []values.Value, types []soltypes.Type) ([]byte, error) {
	if len(vals) != len(types) {
		return nil, errors.Errorf("encode: %d values for %d types", len(vals), len(types))
	}
	lowered := make([]soltypes.Type, len(types))
	prepared := make([]values.Value, len(vals))
	for i, t := range types {
		lowered[i] = ToABIEncodedType(t)
		v, err := prepare(t, vals[i])
		if err != nil {
			return nil, errors.Wrapf(err, "argument %d", i)
		}
		prepared[i] = v
	}
	return encodeTuple(lowered, prepared)
}

// EncodeWithSelector prefixes the encoding of vals with sel.
func EncodeWithSelector(sel [4]byte, vals []values.Value, types []soltypes.Type) ([]byte, error) {
	enc, err := Encode(vals, types)
	if err != nil {
		return nil, err
	}
	return append(sel[:], enc...), nil
}

// EncodeError builds the Error(string) payload of require and revert.
func EncodeError(msg []byte) []byte {
	enc, _ := EncodeWithSelector(ErrorSelector, []values.Value{values.Bytes(msg)}, []soltypes.Type{soltypes.String})
	return enc
}

// EncodePanic builds the Panic(uint256) payload for a panic code.
func EncodePanic(code uint64) []byte {
	return append(PanicSelector[:], math.ToWord(new(big.Int).SetUint64(code))...)
}

// prepare turns v into the loaded value encoded for type t: storage references
// passed by pointer encode as their slot, everything else is fully loaded.
func prepare(t soltypes.Type, v values.Value) (values.Value, error) {
	if p, ok := t.(soltypes.PointerType); ok && p.Location == soltypes.Storage {
		sv, ok := values.Deref(v).(*values.StorageView)
		if !ok {
			return nil, errors.Errorf("expected a storage reference, got %v", v)
		}
		return values.Int{V: new(big.Int).Set(sv.Slot)}, nil
	}
	loaded := values.Load(v)
	if values.HasPoison(loaded) {
		return nil, errors.Errorf("cannot encode undecodable value %v", loaded)
	}
	return loaded, nil
}

func encodeTuple(types []soltypes.Type, vals []values.Value) ([]byte, error) {
	if len(types) != len(vals) {
		return nil, errors.Errorf("tuple of %d types given %d values", len(types), len(vals))
	}
	headSize := 0
	for _, t := range types {
		headSize += soltypes.HeadSize(t)
	}
	head := make([]byte, 0, headSize)
	var tail []byte
	for i, t := range types {
		enc, err := encodeOne(t, vals[i])
		if err != nil {
			return nil, err
		}
		if soltypes.IsDynamic(t) {
			head = append(head, math.ToWord(big.NewInt(int64(headSize+len(tail))))...)
			tail = append(tail, enc...)
		} else {
			head = append(head, enc...)
		}
	}
	return append(head, tail...), nil
}

func encodeOne(t soltypes.Type, v values.Value) ([]byte, error) {
	switch x := t.(type) {
	case soltypes.BytesType, soltypes.StringType:
		b, ok := values.AsBytes(v)
		if !ok {
			return nil, errors.Errorf("cannot encode %v as %s", v, t)
		}
		out := math.ToWord(big.NewInt(int64(len(b))))
		if len(b) > 0 {
			out = append(out, common.RightPadBytes(b, (len(b)+31)/32*32)...)
		}
		return out, nil
	case soltypes.ArrayType:
		c, ok := values.Load(v).(values.Composite)
		if !ok {
			return nil, errors.Errorf("cannot encode %v as %s", v, t)
		}
		types := make([]soltypes.Type, len(c.Elems))
		for i := range types {
			types[i] = x.Elem
		}
		enc, err := encodeTuple(types, c.Elems)
		if err != nil {
			return nil, err
		}
		return append(math.ToWord(big.NewInt(int64(len(c.Elems)))), enc...), nil
	case soltypes.TupleType:
		c, ok := values.Load(v).(values.Composite)
		if !ok {
			return nil, errors.Errorf("cannot encode %v as %s", v, t)
		}
		return encodeTuple(x.Elems, c.Elems)
	}
	return values.Word(t, v)
}

// EncodePacked implements the non-standard packed mode: value types use their
// natural width, byte sequences are raw and array elements are padded to words.
func EncodePacked(vals []values.Value, types []soltypes.Type) ([]byte, error) {
	if len(vals) != len(types) {
		return nil, errors.Errorf("encodePacked: %d values for %d types", len(vals), len(types))
	}
	var out []byte
	for i, t := range types {
		t = soltypes.Deref(t)
		v := values.Load(vals[i])
		switch x := t.(type) {
		case soltypes.BytesType, soltypes.StringType:
			b, ok := values.AsBytes(v)
			if !ok {
				return nil, errors.Errorf("cannot pack %v as %s", v, t)
			}
			out = append(out, b...)
		case soltypes.ArrayType:
			c, ok := v.(values.Composite)
			if !ok || !soltypes.IsValueType(x.Elem) {
				return nil, errors.Errorf("cannot pack %v as %s", v, t)
			}
			for _, e := range c.Elems {
				w, err := values.Word(ToABIEncodedType(x.Elem), e)
				if err != nil {
					return nil, err
				}
				out = append(out, w...)
			}
		case *soltypes.StructType, soltypes.MappingType, soltypes.TupleType:
			return nil, errors.Errorf("type %s cannot be packed", t)
		default:
			b, err := values.Packed(ToABIEncodedType(t), v)
			if err != nil {
				return nil, err
			}
			out = append(out, b...)
		}
	}
	return out, nil
}

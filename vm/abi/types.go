// Package abi converts between interpreter values and the contract ABI wire format.
package abi

import (
	"github.com/annchain/solinterp/common/crypto"
	"github.com/annchain/solinterp/vm/soltypes"
)

var (
	// ErrorSelector prefixes Error(string) revert payloads.
	ErrorSelector = [4]byte{0x08, 0xc3, 0x79, 0xa0}
	// PanicSelector prefixes Panic(uint256) payloads.
	PanicSelector = [4]byte{0x4e, 0x48, 0x7b, 0x71}

	functionRef = soltypes.FixedBytesType{Size: 24}
)

// Selector is the first four bytes of the keccak hash of a signature.
func Selector(signature string) [4]byte {
	var sel [4]byte
	copy(sel[:], crypto.Keccak256([]byte(signature)))
	return sel
}

// ToABIEncodedType lowers t to the shape it has on the wire. Storage pointers
// become the uint256 slot key, other pointers their pointee, fixed arrays and
// structs tuples, and function references 24 raw bytes. Struct members that
// contain a mapping are dropped.
func ToABIEncodedType(t soltypes.Type) soltypes.Type {
	switch x := t.(type) {
	case soltypes.PointerType:
		if x.Location == soltypes.Storage {
			return soltypes.Uint256
		}
		return ToABIEncodedType(x.To)
	case soltypes.ContractType:
		return soltypes.Address
	case *soltypes.EnumType:
		return soltypes.IntType{Bits: soltypes.EnumBits(x)}
	case soltypes.FunctionType:
		return functionRef
	case soltypes.ArrayType:
		if x.Dynamic() {
			return soltypes.ArrayType{Elem: ToABIEncodedType(x.Elem)}
		}
		n := int(x.Size.Int64())
		elems := make([]soltypes.Type, n)
		lowered := ToABIEncodedType(x.Elem)
		for i := range elems {
			elems[i] = lowered
		}
		return soltypes.TupleType{Elems: elems}
	case *soltypes.StructType:
		fields := soltypes.WireFields(x)
		elems := make([]soltypes.Type, len(fields))
		for i, f := range fields {
			elems[i] = ToABIEncodedType(f.Type)
		}
		return soltypes.TupleType{Elems: elems}
	case soltypes.TupleType:
		return soltypes.TupleType{Elems: ToABIEncodedTypes(x.Elems)}
	case soltypes.IntLiteralType:
		return soltypes.Uint256
	}
	return t
}

func ToABIEncodedTypes(ts []soltypes.Type) []soltypes.Type {
	out := make([]soltypes.Type, len(ts))
	for i, t := range ts {
		out[i] = ToABIEncodedType(t)
	}
	return out
}

// viewType is the type a calldata view over an argument of type t is built with.
// Everything except storage pointers keeps enough structure to recover struct member names.
func viewType(t soltypes.Type) soltypes.Type {
	if p, ok := t.(soltypes.PointerType); ok {
		if p.Location == soltypes.Storage {
			return soltypes.Uint256
		}
		return p.To
	}
	return t
}

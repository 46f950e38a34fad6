package soltypes

import (
	"math/big"

	"github.com/pkg/errors"
)

// SlotSize is the width of a storage slot, a memory word and an ABI word.
const SlotSize = 32

// StorageBytes is the number of bytes a value type occupies inside a storage slot.
// Reference types always occupy whole slots and report SlotSize.
func StorageBytes(t Type) int {
	switch x := t.(type) {
	case IntType:
		return x.Bits / 8
	case BoolType:
		return 1
	case AddressType, ContractType:
		return 20
	case FixedBytesType:
		return x.Size
	case *EnumType:
		return EnumBits(x) / 8
	case FunctionType:
		if x.External {
			return 24
		}
		return 8
	}
	return SlotSize
}

// StorageSlots is the number of consecutive slots occupied by t when it starts a slot.
func StorageSlots(t Type) *big.Int {
	switch x := t.(type) {
	case ArrayType:
		if x.Size == nil {
			return big.NewInt(1)
		}
		if IsValueType(x.Elem) {
			per := int64(SlotSize / StorageBytes(x.Elem))
			n := new(big.Int).Add(x.Size, big.NewInt(per-1))
			return n.Div(n, big.NewInt(per))
		}
		return new(big.Int).Mul(x.Size, StorageSlots(x.Elem))
	case *StructType:
		_, total := StructLayout(x)
		return total
	}
	return big.NewInt(1)
}

// Position is the location of a member relative to the first slot of its container.
// Offset counts bytes from the low-order end of the slot.
type Position struct {
	Slot   *big.Int
	Offset int
}

// NamedType is one member of a storage container in declaration order.
type NamedType struct {
	Name string
	Type Type
}

// Layout packs members into consecutive slots: value types share a slot while they fit,
// reference types start and end on a slot boundary. It returns the positions and the
// total number of slots used.
func Layout(members []NamedType) ([]Position, *big.Int) {
	slot := new(big.Int)
	offset := 0
	positions := make([]Position, len(members))
	for i, m := range members {
		if IsValueType(m.Type) {
			size := StorageBytes(m.Type)
			if offset+size > SlotSize {
				slot.Add(slot, big.NewInt(1))
				offset = 0
			}
			positions[i] = Position{Slot: new(big.Int).Set(slot), Offset: offset}
			offset += size
			continue
		}
		if offset > 0 {
			slot.Add(slot, big.NewInt(1))
			offset = 0
		}
		positions[i] = Position{Slot: new(big.Int).Set(slot)}
		slot.Add(slot, StorageSlots(m.Type))
	}
	total := new(big.Int).Set(slot)
	if offset > 0 {
		total.Add(total, big.NewInt(1))
	}
	return positions, total
}

// StructLayout lays out every struct member, mappings included.
func StructLayout(t *StructType) ([]Position, *big.Int) {
	members := make([]NamedType, len(t.Fields))
	for i, f := range t.Fields {
		members[i] = NamedType{Name: f.Name, Type: f.Type}
	}
	return Layout(members)
}

// ElementPosition locates element i of an array whose data starts at slot 0.
func ElementPosition(elem Type, i *big.Int) Position {
	if IsValueType(elem) {
		size := StorageBytes(elem)
		per := big.NewInt(int64(SlotSize / size))
		q, r := new(big.Int).QuoRem(i, per, new(big.Int))
		return Position{Slot: q, Offset: int(r.Int64()) * size}
	}
	return Position{Slot: new(big.Int).Mul(i, StorageSlots(elem))}
}

// IsDynamic reports whether t is encoded in the tail section of an ABI tuple.
func IsDynamic(t Type) bool {
	switch x := t.(type) {
	case BytesType, StringType:
		return true
	case ArrayType:
		return x.Size == nil || IsDynamic(x.Elem)
	case TupleType:
		for _, e := range x.Elems {
			if IsDynamic(e) {
				return true
			}
		}
	case *StructType:
		for _, f := range WireFields(x) {
			if IsDynamic(f.Type) {
				return true
			}
		}
	case PointerType:
		return IsDynamic(x.To)
	}
	return false
}

// HeadSize is the number of bytes t occupies in the head of an ABI tuple.
func HeadSize(t Type) int {
	if IsDynamic(t) {
		return SlotSize
	}
	switch x := t.(type) {
	case ArrayType:
		return int(x.Size.Int64()) * HeadSize(x.Elem)
	case TupleType:
		n := 0
		for _, e := range x.Elems {
			n += HeadSize(e)
		}
		return n
	case *StructType:
		n := 0
		for _, f := range WireFields(x) {
			n += HeadSize(f.Type)
		}
		return n
	case PointerType:
		return HeadSize(x.To)
	}
	return SlotSize
}

// MemoryWords is the number of words a freshly allocated memory object of type t needs,
// excluding any dynamic payload. Reference-typed members occupy one pointer word.
func MemoryWords(t Type) (int, error) {
	switch x := t.(type) {
	case ArrayType:
		if x.Size == nil {
			return 1, nil
		}
		if !x.Size.IsInt64() || x.Size.Int64() > 1<<20 {
			return 0, errors.Errorf("array too large for memory: %s", x)
		}
		return int(x.Size.Int64()), nil
	case *StructType:
		return len(WireFields(x)), nil
	case BytesType, StringType:
		return 1, nil
	}
	return 1, nil
}

package soltypes

import (
	"fmt"
	"math/big"
	"strings"
)

// Type is a runtime type of the interpreted language. Types are produced by the
// type-inference collaborator and attached to the AST; the interpreter only reads them.
type Type interface {
	String() string
}

// DataLocation tags the area a reference type lives in.
type DataLocation int

const (
	// LocationDefault is the unspecified location. It only appears in generic builtin
	// signatures and unifies with every concrete location.
	LocationDefault DataLocation = iota
	Storage
	Memory
	CallData
)

func (l DataLocation) String() string {
	switch l {
	case Storage:
		return "storage"
	case Memory:
		return "memory"
	case CallData:
		return "calldata"
	default:
		return "default"
	}
}

type IntType struct {
	Bits   int
	Signed bool
}

func (t IntType) String() string {
	if t.Signed {
		return fmt.Sprintf("int%d", t.Bits)
	}
	return fmt.Sprintf("uint%d", t.Bits)
}

// IntLiteralType is the type of a compile-time rational constant. Values of this
// type are never clamped.
type IntLiteralType struct{}

func (IntLiteralType) String() string { return "int_const" }

type BoolType struct{}

func (BoolType) String() string { return "bool" }

type AddressType struct {
	Payable bool
}

func (t AddressType) String() string {
	if t.Payable {
		return "address payable"
	}
	return "address"
}

type FixedBytesType struct {
	Size int
}

func (t FixedBytesType) String() string { return fmt.Sprintf("bytes%d", t.Size) }

type BytesType struct{}

func (BytesType) String() string { return "bytes" }

type StringType struct{}

func (StringType) String() string { return "string" }

// ArrayType is a fixed (Size != nil) or dynamic (Size == nil) array.
type ArrayType struct {
	Elem Type
	Size *big.Int
}

func (t ArrayType) String() string {
	if t.Size == nil {
		return fmt.Sprintf("%s[]", t.Elem)
	}
	return fmt.Sprintf("%s[%s]", t.Elem, t.Size)
}

func (t ArrayType) Dynamic() bool { return t.Size == nil }

type MappingType struct {
	Key   Type
	Value Type
}

func (t MappingType) String() string {
	return fmt.Sprintf("mapping(%s => %s)", t.Key, t.Value)
}

type Field struct {
	Name string
	Type Type
}

// StructType is nominal: two struct types are equal when their names are.
type StructType struct {
	Name   string
	Fields []Field
}

func (t *StructType) String() string { return "struct " + t.Name }

// Field returns the index and the declaration of the named member.
func (t *StructType) Field(name string) (int, Field, bool) {
	for i, f := range t.Fields {
		if f.Name == name {
			return i, f, true
		}
	}
	return -1, Field{}, false
}

type EnumType struct {
	Name    string
	Members []string
}

func (t *EnumType) String() string { return "enum " + t.Name }

// PointerType is a reference to a value living in a particular data location.
type PointerType struct {
	To       Type
	Location DataLocation
}

func (t PointerType) String() string {
	if t.Location == Storage {
		return fmt.Sprintf("%s storage pointer", t.To)
	}
	return fmt.Sprintf("%s %s", t.To, t.Location)
}

// TupleType elements may be nil for omitted components.
type TupleType struct {
	Elems []Type
}

func (t TupleType) String() string {
	parts := make([]string, len(t.Elems))
	for i, e := range t.Elems {
		if e != nil {
			parts[i] = e.String()
		}
	}
	return "tuple(" + strings.Join(parts, ",") + ")"
}

type FunctionType struct {
	Name       string
	Params     []Type
	Returns    []Type
	External   bool
	Mutability string
}

func (t FunctionType) String() string {
	vis := "internal"
	if t.External {
		vis = "external"
	}
	return fmt.Sprintf("function %s(%s) %s returns (%s)", t.Name, joinTypes(t.Params), vis, joinTypes(t.Returns))
}

type ContractType struct {
	Name    string
	Library bool
}

func (t ContractType) String() string {
	if t.Library {
		return "library " + t.Name
	}
	return "contract " + t.Name
}

// TypeNameType is the type of an expression that names a type, e.g. the callee of a conversion.
type TypeNameType struct {
	Type Type
}

func (t TypeNameType) String() string { return fmt.Sprintf("type(%s)", t.Type) }

type BuiltinFunctionType struct {
	Name string
}

func (t BuiltinFunctionType) String() string { return "builtin " + t.Name }

type BuiltinStructType struct {
	Name string
}

func (t BuiltinStructType) String() string { return "builtin struct " + t.Name }

func joinTypes(ts []Type) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		if t == nil {
			parts[i] = ""
			continue
		}
		parts[i] = t.String()
	}
	return strings.Join(parts, ",")
}

// Common shorthands.
var (
	Uint8   = IntType{Bits: 8}
	Uint160 = IntType{Bits: 160}
	Uint256 = IntType{Bits: 256}
	Int256  = IntType{Bits: 256, Signed: true}
	Bool    = BoolType{}
	Address = AddressType{}
	Bytes32 = FixedBytesType{Size: 32}
	Bytes4  = FixedBytesType{Size: 4}
	Bytes   = BytesType{}
	String  = StringType{}
)

// Equal compares two types structurally. Struct and enum types compare by name.
func Equal(a, b Type) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch x := a.(type) {
	case IntType, BoolType, FixedBytesType, BytesType, StringType, IntLiteralType, BuiltinFunctionType, BuiltinStructType:
		return a == b
	case AddressType:
		_, ok := b.(AddressType)
		return ok
	case ArrayType:
		y, ok := b.(ArrayType)
		if !ok || !Equal(x.Elem, y.Elem) {
			return false
		}
		if x.Size == nil || y.Size == nil {
			return x.Size == nil && y.Size == nil
		}
		return x.Size.Cmp(y.Size) == 0
	case MappingType:
		y, ok := b.(MappingType)
		return ok && Equal(x.Key, y.Key) && Equal(x.Value, y.Value)
	case *StructType:
		y, ok := b.(*StructType)
		return ok && x.Name == y.Name
	case *EnumType:
		y, ok := b.(*EnumType)
		return ok && x.Name == y.Name
	case PointerType:
		y, ok := b.(PointerType)
		return ok && x.Location == y.Location && Equal(x.To, y.To)
	case TupleType:
		y, ok := b.(TupleType)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case FunctionType:
		y, ok := b.(FunctionType)
		if !ok || x.External != y.External || len(x.Params) != len(y.Params) || len(x.Returns) != len(y.Returns) {
			return false
		}
		for i := range x.Params {
			if !Equal(x.Params[i], y.Params[i]) {
				return false
			}
		}
		for i := range x.Returns {
			if !Equal(x.Returns[i], y.Returns[i]) {
				return false
			}
		}
		return true
	case ContractType:
		y, ok := b.(ContractType)
		return ok && x.Name == y.Name
	case TypeNameType:
		y, ok := b.(TypeNameType)
		return ok && Equal(x.Type, y.Type)
	}
	return false
}

// Deref strips a pointer type.
func Deref(t Type) Type {
	if p, ok := t.(PointerType); ok {
		return p.To
	}
	return t
}

// IsValueType reports whether values of t are copied rather than referenced.
func IsValueType(t Type) bool {
	switch t.(type) {
	case IntType, IntLiteralType, BoolType, AddressType, FixedBytesType, *EnumType, ContractType, FunctionType:
		return true
	}
	return false
}

// IsReferenceType reports whether t lives in a data location.
func IsReferenceType(t Type) bool {
	switch t.(type) {
	case ArrayType, BytesType, StringType, *StructType, MappingType:
		return true
	}
	return false
}

// ContainsMapping reports whether t structurally contains a mapping. Such types have no
// wire or memory representation.
func ContainsMapping(t Type) bool {
	return containsMapping(t, map[string]bool{})
}

func containsMapping(t Type, seen map[string]bool) bool {
	switch x := t.(type) {
	case MappingType:
		return true
	case ArrayType:
		return containsMapping(x.Elem, seen)
	case PointerType:
		return containsMapping(x.To, seen)
	case *StructType:
		if seen[x.Name] {
			return false
		}
		seen[x.Name] = true
		for _, f := range x.Fields {
			if containsMapping(f.Type, seen) {
				return true
			}
		}
	case TupleType:
		for _, e := range x.Elems {
			if e != nil && containsMapping(e, seen) {
				return true
			}
		}
	}
	return false
}

// WireFields returns the struct members that survive ABI lowering and memory copies.
func WireFields(t *StructType) []Field {
	var fs []Field
	for _, f := range t.Fields {
		if !ContainsMapping(f.Type) {
			fs = append(fs, f)
		}
	}
	return fs
}

// EnumBits is the width of the integer used to store an enum with n members.
func EnumBits(t *EnumType) int {
	bits := 8
	for n := len(t.Members); n > 256; n >>= 8 {
		bits += 8
	}
	return bits
}

// Package values holds the interpreter's runtime values and the typed views
// that read and write them in storage, memory, calldata and local variables.
package values

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/soltypes"
)

// Value is the tagged union of everything an expression can evaluate to.
type Value interface {
	isValue()
}

// Int carries every integer-like value: uintN, intN, enums and number literals.
type Int struct {
	V *big.Int
}

type Bool bool

type Address struct {
	common.Address
}

// FixedBytes is a bytesN value; its length is N.
type FixedBytes []byte

// Bytes is a dynamic byte sequence, used for both bytes and string.
type Bytes []byte

// Composite is an ordered sequence of values: tuples, multi-returns, array and struct contents.
// Names is set for struct contents.
type Composite struct {
	Elems []Value
	Names []string
}

// None marks a missing tuple component.
type None struct{}

// Poison is a decoding failure. It travels as data until someone checks for it.
type Poison struct {
	Reason string
}

// BuiltinFunction is a callable provided by the interpreter; Self is the bound receiver, if any.
type BuiltinFunction struct {
	Name string
	Self Value
	Type soltypes.Type
}

// BuiltinStruct is one of the namespaces msg, block, tx, abi.
type BuiltinStruct struct {
	Name string
}

// TypeRef is the value of an expression naming a type, e.g. a contract, struct or elementary type.
type TypeRef struct {
	Type soltypes.Type
}

// InternalFunction references a function executed in the current context. A nil
// Def is the zero function pointer.
type InternalFunction struct {
	Def *ast.FunctionDefinition
	// Super bounds virtual lookup for super.f().
	Super *ast.ContractDefinition
}

type ExternalFunction struct {
	Address  common.Address
	Selector [4]byte
	Def      *ast.FunctionDefinition
	Delegate bool
}

func (Int) isValue()              {}
func (Bool) isValue()             {}
func (Address) isValue()          {}
func (FixedBytes) isValue()       {}
func (Bytes) isValue()            {}
func (Composite) isValue()        {}
func (None) isValue()             {}
func (Poison) isValue()           {}
func (BuiltinFunction) isValue()  {}
func (BuiltinStruct) isValue()    {}
func (TypeRef) isValue()          {}
func (InternalFunction) isValue() {}
func (ExternalFunction) isValue() {}

func NewInt(v int64) Int {
	return Int{V: big.NewInt(v)}
}

func NewAddress(a common.Address) Address {
	return Address{Address: a}
}

func (v Int) String() string              { return v.V.String() }
func (v Address) String() string          { return v.Hex() }
func (v FixedBytes) String() string       { return common.Encode(v) }
func (v Bytes) String() string            { return common.Encode(v) }
func (None) String() string               { return "<none>" }
func (v Poison) String() string           { return "<poison: " + v.Reason + ">" }
func (v BuiltinFunction) String() string  { return "<builtin " + v.Name + ">" }
func (v BuiltinStruct) String() string    { return "<" + v.Name + ">" }
func (v TypeRef) String() string          { return "type(" + v.Type.String() + ")" }
func (v ExternalFunction) String() string { return fmt.Sprintf("%s.%x", v.Address.Hex(), v.Selector) }

func (v InternalFunction) String() string {
	if v.Def == nil {
		return "<zero function>"
	}
	return "<function " + v.Def.Name + ">"
}

func (v Composite) String() string {
	parts := make([]string, len(v.Elems))
	for i, e := range v.Elems {
		if v.Names != nil {
			parts[i] = v.Names[i] + ": " + fmt.Sprint(e)
		} else {
			parts[i] = fmt.Sprint(e)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// AsInt extracts the integer behind an integer-like value.
func AsInt(v Value) (*big.Int, bool) {
	v = Load(v)
	if i, ok := v.(Int); ok && i.V != nil {
		return i.V, true
	}
	return nil, false
}

func AsBool(v Value) (bool, bool) {
	b, ok := Load(v).(Bool)
	return bool(b), ok
}

// AsBytes extracts the raw bytes of a byte-like value.
func AsBytes(v Value) ([]byte, bool) {
	switch x := Load(v).(type) {
	case Bytes:
		return x, true
	case FixedBytes:
		return x, true
	}
	return nil, false
}

func AsAddress(v Value) (common.Address, bool) {
	switch x := Load(v).(type) {
	case Address:
		return x.Address, true
	}
	return common.Address{}, false
}

// HasPoison reports whether v or anything nested in it failed to decode.
func HasPoison(v Value) bool {
	switch x := v.(type) {
	case Poison:
		return true
	case Composite:
		for _, e := range x.Elems {
			if HasPoison(e) {
				return true
			}
		}
	}
	return false
}

// Equal compares two fully loaded values.
func Equal(a, b Value) bool {
	a, b = Load(a), Load(b)
	switch x := a.(type) {
	case Int:
		y, ok := b.(Int)
		return ok && x.V.Cmp(y.V) == 0
	case Bool:
		y, ok := b.(Bool)
		return ok && x == y
	case Address:
		y, ok := b.(Address)
		return ok && x.Address == y.Address
	case FixedBytes:
		y, ok := b.(FixedBytes)
		return ok && bytes.Equal(x, y)
	case Bytes:
		y, ok := b.(Bytes)
		return ok && bytes.Equal(x, y)
	case Composite:
		y, ok := b.(Composite)
		if !ok || len(x.Elems) != len(y.Elems) {
			return false
		}
		for i := range x.Elems {
			if !Equal(x.Elems[i], y.Elems[i]) {
				return false
			}
		}
		return true
	case None:
		_, ok := b.(None)
		return ok
	case ExternalFunction:
		y, ok := b.(ExternalFunction)
		return ok && x.Address == y.Address && x.Selector == y.Selector
	case InternalFunction:
		y, ok := b.(InternalFunction)
		return ok && x.Def == y.Def
	}
	return false
}

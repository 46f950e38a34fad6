// Package infer answers the static questions the evaluator asks about a program:
// node types, ABI shapes, selectors and getter signatures for one language version.
package infer

import (
	"math/big"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/crypto"
	"github.com/annchain/solinterp/common/math"
	"github.com/annchain/solinterp/vm/abi"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/hashicorp/golang-lru"
)

const selectorCacheSize = 4096

type Service struct {
	version   string
	selectors *lru.Cache
}

func New(version string) *Service {
	if version == "" || !ast.ValidVersion(version) {
		version = ast.DefaultCompilerVersion
	}
	cache, _ := lru.New(selectorCacheSize)
	return &Service{version: version, selectors: cache}
}

func (s *Service) Version() string { return s.version }

// CheckedArithmetic reports whether overflow raises a panic outside unchecked blocks.
func (s *Service) CheckedArithmetic() bool {
	return ast.VersionAtLeast(s.version, ast.VersionCheckedMath)
}

// TypedPanics reports whether panics carry a Panic(uint256) payload.
func (s *Service) TypedPanics() bool {
	return ast.VersionAtLeast(s.version, ast.VersionTypedPanics)
}

// TypeOf returns the static type of an expression, declaration or function.
func (s *Service) TypeOf(n ast.Node) soltypes.Type {
	switch x := n.(type) {
	case ast.Expression:
		return x.StaticType()
	case *ast.VariableDeclaration:
		return x.Type
	case *ast.FunctionDefinition:
		return s.FunctionType(x)
	case *ast.ContractDefinition:
		return soltypes.ContractType{Name: x.Name, Library: x.IsLibrary()}
	}
	return nil
}

func (s *Service) FunctionType(fn *ast.FunctionDefinition) soltypes.FunctionType {
	return soltypes.FunctionType{
		Name:       fn.Name,
		Params:     fn.ParamTypes(),
		Returns:    fn.ReturnTypes(),
		External:   fn.Visibility == ast.VisibilityExternal,
		Mutability: fn.Mutability,
	}
}

// ABIType lowers t to its wire shape.
func (s *Service) ABIType(t soltypes.Type) soltypes.Type {
	return abi.ToABIEncodedType(t)
}

// Signature is the canonical external signature of fn. Library functions mark
// storage reference parameters the way library selectors do.
func (s *Service) Signature(fn *ast.FunctionDefinition) string {
	params := fn.ParamTypes()
	if fn.Contract == nil || !fn.Contract.IsLibrary() {
		return soltypes.Signature(fn.Name, params)
	}
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = soltypes.CanonicalName(p)
		if ptr, ok := p.(soltypes.PointerType); ok && ptr.Location == soltypes.Storage {
			names[i] += " storage"
		}
	}
	sig := fn.Name + "("
	for i, n := range names {
		if i > 0 {
			sig += ","
		}
		sig += n
	}
	return sig + ")"
}

// SelectorOf hashes a signature, caching the result.
func (s *Service) SelectorOf(signature string) [4]byte {
	if v, ok := s.selectors.Get(signature); ok {
		return v.([4]byte)
	}
	sel := abi.Selector(signature)
	s.selectors.Add(signature, sel)
	return sel
}

func (s *Service) Selector(fn *ast.FunctionDefinition) [4]byte {
	return s.SelectorOf(s.Signature(fn))
}

// ErrorSelector identifies a custom error.
func (s *Service) ErrorSelector(e *ast.ErrorDefinition) [4]byte {
	return s.SelectorOf(soltypes.Signature(e.Name, paramTypes(e.Parameters)))
}

// EventTopic is topic0 of a non-anonymous event.
func (s *Service) EventTopic(e *ast.EventDefinition) common.Hash {
	return crypto.Keccak256Hash([]byte(soltypes.Signature(e.Name, paramTypes(e.Parameters))))
}

func paramTypes(decls []*ast.VariableDeclaration) []soltypes.Type {
	ts := make([]soltypes.Type, len(decls))
	for i, d := range decls {
		ts[i] = d.Type
	}
	return ts
}

// GetterArgs lists the parameters of the getter generated for a public state
// variable: one key per mapping level and one uint256 index per array level.
func (s *Service) GetterArgs(v *ast.VariableDeclaration) []soltypes.Type {
	var args []soltypes.Type
	t := soltypes.Deref(v.Type)
	for {
		switch x := t.(type) {
		case soltypes.MappingType:
			key := x.Key
			if soltypes.IsReferenceType(key) {
				key = soltypes.PointerType{To: key, Location: soltypes.Memory}
			}
			args = append(args, key)
			t = soltypes.Deref(x.Value)
			continue
		case soltypes.ArrayType:
			args = append(args, soltypes.Uint256)
			t = soltypes.Deref(x.Elem)
			continue
		}
		return args
	}
}

// GetterValueType is the type reached after applying every getter argument.
func (s *Service) GetterValueType(v *ast.VariableDeclaration) soltypes.Type {
	t := soltypes.Deref(v.Type)
	for {
		switch x := t.(type) {
		case soltypes.MappingType:
			t = soltypes.Deref(x.Value)
			continue
		case soltypes.ArrayType:
			t = soltypes.Deref(x.Elem)
			continue
		}
		return t
	}
}

// GetterReturns lists the returned types and member names. Struct getters return
// the members one by one, leaving out mappings and arrays.
func (s *Service) GetterReturns(v *ast.VariableDeclaration) ([]soltypes.Type, []string) {
	t := s.GetterValueType(v)
	st, ok := t.(*soltypes.StructType)
	if !ok {
		return []soltypes.Type{memoryIfReference(t)}, []string{""}
	}
	var types []soltypes.Type
	var names []string
	for _, f := range st.Fields {
		switch f.Type.(type) {
		case soltypes.MappingType, soltypes.ArrayType:
			continue
		}
		if soltypes.ContainsMapping(f.Type) {
			continue
		}
		types = append(types, memoryIfReference(f.Type))
		names = append(names, f.Name)
	}
	return types, names
}

func memoryIfReference(t soltypes.Type) soltypes.Type {
	if soltypes.IsReferenceType(t) {
		return soltypes.PointerType{To: t, Location: soltypes.Memory}
	}
	return t
}

func (s *Service) GetterSelector(v *ast.VariableDeclaration) [4]byte {
	return s.SelectorOf(soltypes.Signature(v.Name, s.GetterArgs(v)))
}

// TypeMin and TypeMax implement type(T).min and type(T).max.
func TypeMin(t soltypes.Type) *big.Int {
	if x, ok := t.(soltypes.IntType); ok {
		min, _ := math.IntRange(x.Bits, x.Signed)
		return min
	}
	return new(big.Int)
}

func TypeMax(t soltypes.Type) *big.Int {
	switch x := t.(type) {
	case soltypes.IntType:
		_, max := math.IntRange(x.Bits, x.Signed)
		return max
	case *soltypes.EnumType:
		return big.NewInt(int64(len(x.Members) - 1))
	}
	return new(big.Int)
}

package poly

import "github.com/annchain/solinterp/vm/soltypes"

var (
	elemVar   = TVar{Name: "T"}
	container = TUnion{Name: "C", Alternatives: []soltypes.Type{
		soltypes.ArrayType{Elem: elemVar},
		soltypes.Bytes,
	}}
	anyString = soltypes.PointerType{To: soltypes.String}
	anyBytes  = soltypes.PointerType{To: soltypes.Bytes}
)

// Signatures holds the generic formals of the builtins that need resolving.
var Signatures = map[string][]soltypes.Type{
	"push":                    {soltypes.PointerType{To: container, Location: soltypes.Storage}, TOptional{Type: elemVar}},
	"pop":                     {soltypes.PointerType{To: container, Location: soltypes.Storage}},
	"require":                 {soltypes.Bool, TOptional{Type: anyString}},
	"revert":                  {TOptional{Type: anyString}},
	"keccak256":               {anyBytes},
	"sha256":                  {anyBytes},
	"ripemd160":               {anyBytes},
	"abi.encode":              {TRest{Name: "args"}},
	"abi.encodePacked":        {TRest{Name: "args"}},
	"abi.encodeWithSelector":  {soltypes.Bytes4, TRest{Name: "args"}},
	"abi.encodeWithSignature": {anyString, TRest{Name: "args"}},
}

// Resolve concretizes the signature of builtin name against actuals. Builtins
// without a generic signature accept their actuals unchanged.
func Resolve(name string, actuals []soltypes.Type) ([]soltypes.Type, Substitution, error) {
	formals, ok := Signatures[name]
	if !ok {
		return actuals, Substitution{}, nil
	}
	return Concretize(formals, actuals)
}

// ElementType reports the element type solved for push/pop, bytes1 for byte arrays.
func ElementType(s Substitution) soltypes.Type {
	if c, ok := s[container.Name]; ok {
		if _, isBytes := c.(soltypes.BytesType); isBytes {
			return soltypes.FixedBytesType{Size: 1}
		}
	}
	if t, ok := s[elemVar.Name]; ok {
		return Substitute(t, s)
	}
	return nil
}

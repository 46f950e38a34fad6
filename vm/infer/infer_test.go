package infer

import (
	"testing"

	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/stretchr/testify/assert"
)

func TestSelectors(t *testing.T) {
	s := New("0.8.19")
	fn := ast.NewFunction("transfer", ast.VisibilityPublic,
		[]*ast.VariableDeclaration{ast.NewVar("to", soltypes.Address), ast.NewVar("amount", soltypes.Uint256)}, nil)
	assert.Equal(t, "transfer(address,uint256)", s.Signature(fn))
	assert.Equal(t, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, s.Selector(fn))
	// second lookup comes from the cache
	assert.Equal(t, [4]byte{0xa9, 0x05, 0x9c, 0xbb}, s.SelectorOf("transfer(address,uint256)"))

	lib := &ast.ContractDefinition{Name: "L", Kind: ast.KindLibrary}
	libFn := ast.NewFunction("sum", ast.VisibilityPublic, []*ast.VariableDeclaration{
		ast.NewVar("xs", soltypes.PointerType{To: soltypes.ArrayType{Elem: soltypes.Uint256}, Location: soltypes.Storage}),
	}, nil)
	libFn.Contract = lib
	assert.Equal(t, "sum(uint256[] storage)", s.Signature(libFn))

	ev := &ast.EventDefinition{Name: "Transfer", Parameters: []*ast.VariableDeclaration{
		ast.NewVar("from", soltypes.Address), ast.NewVar("to", soltypes.Address), ast.NewVar("value", soltypes.Uint256),
	}}
	assert.Equal(t, "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef", s.EventTopic(ev).Hex())
}

func TestGetterShapes(t *testing.T) {
	s := New("0.8.0")
	rec := &soltypes.StructType{Name: "Rec", Fields: []soltypes.Field{
		{Name: "id", Type: soltypes.Uint256},
		{Name: "items", Type: soltypes.ArrayType{Elem: soltypes.Uint256}},
		{Name: "name", Type: soltypes.String},
		{Name: "flags", Type: soltypes.MappingType{Key: soltypes.Uint256, Value: soltypes.Bool}},
	}}
	v := ast.NewStateVar("recs", soltypes.MappingType{Key: soltypes.String, Value: soltypes.ArrayType{Elem: rec}}, ast.VisibilityPublic, nil)
	args := s.GetterArgs(v)
	assert.Equal(t, []soltypes.Type{soltypes.PointerType{To: soltypes.String, Location: soltypes.Memory}, soltypes.Uint256}, args)
	types, names := s.GetterReturns(v)
	assert.Equal(t, []string{"id", "name"}, names)
	assert.Equal(t, soltypes.Uint256, types[0])
	assert.Equal(t, "recs(string,uint256)", soltypes.Signature(v.Name, args))

	plain := ast.NewStateVar("total", soltypes.Uint256, ast.VisibilityPublic, nil)
	assert.Empty(t, s.GetterArgs(plain))
	types, _ = s.GetterReturns(plain)
	assert.Equal(t, []soltypes.Type{soltypes.Uint256}, types)
}

func TestVersionFlags(t *testing.T) {
	assert.True(t, New("0.8.0").CheckedArithmetic())
	assert.False(t, New("0.7.6").CheckedArithmetic())
	assert.Equal(t, ast.DefaultCompilerVersion, New("").Version())
	assert.Equal(t, "-128", TypeMin(soltypes.IntType{Bits: 8, Signed: true}).String())
	assert.Equal(t, "255", TypeMax(soltypes.Uint8).String())
}

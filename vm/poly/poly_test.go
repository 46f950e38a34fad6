package poly

import (
	"math/big"
	"testing"

	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func storageArray(elem soltypes.Type) soltypes.Type {
	return soltypes.PointerType{To: soltypes.ArrayType{Elem: elem}, Location: soltypes.Storage}
}

func TestUnifyVariable(t *testing.T) {
	s := Substitution{}
	require.NoError(t, Unify(soltypes.Uint256, TVar{Name: "T"}, s))
	assert.Equal(t, soltypes.Uint256, s["T"])

	// bound variable must agree with later uses
	assert.Error(t, Unify(TVar{Name: "T"}, soltypes.Bool, s))
	assert.NoError(t, Unify(TVar{Name: "T"}, soltypes.Uint256, s))
}

func TestOccursCheck(t *testing.T) {
	s := Substitution{}
	self := soltypes.ArrayType{Elem: TVar{Name: "T"}}
	assert.Error(t, Unify(TVar{Name: "T"}, self, s))
	assert.Empty(t, s)
}

func TestPointerDefaultLocation(t *testing.T) {
	s := Substitution{}
	formal := soltypes.PointerType{To: soltypes.String}
	assert.NoError(t, Unify(formal, soltypes.PointerType{To: soltypes.String, Location: soltypes.Memory}, s))
	assert.NoError(t, Unify(formal, soltypes.PointerType{To: soltypes.String, Location: soltypes.CallData}, s))
	assert.Error(t, Unify(
		soltypes.PointerType{To: soltypes.String, Location: soltypes.Storage},
		soltypes.PointerType{To: soltypes.String, Location: soltypes.Memory}, s))
}

func TestUnionRecordsChoice(t *testing.T) {
	s := Substitution{}
	u := TUnion{Name: "U", Alternatives: []soltypes.Type{soltypes.Bool, soltypes.ArrayType{Elem: TVar{Name: "E"}}}}
	require.NoError(t, Unify(soltypes.ArrayType{Elem: soltypes.Address}, u, s))
	assert.Equal(t, soltypes.ArrayType{Elem: TVar{Name: "E"}}, s["U"])
	assert.Equal(t, soltypes.Address, s["E"])
	assert.Equal(t, soltypes.ArrayType{Elem: soltypes.Address}, Substitute(u, s))

	// a failed alternative leaves no bindings behind
	s = Substitution{}
	assert.Error(t, Unify(u, soltypes.String, s))
	assert.Empty(t, s)
}

func TestTupleOptionalTail(t *testing.T) {
	long := soltypes.TupleType{Elems: []soltypes.Type{soltypes.Bool, TOptional{Type: soltypes.Uint256}}}
	short := soltypes.TupleType{Elems: []soltypes.Type{soltypes.Bool}}
	assert.NoError(t, Unify(long, short, Substitution{}))
	assert.NoError(t, Unify(short, long, Substitution{}))

	strict := soltypes.TupleType{Elems: []soltypes.Type{soltypes.Bool, soltypes.Uint256}}
	assert.Error(t, Unify(strict, short, Substitution{}))
}

func TestFixedArraySize(t *testing.T) {
	a := soltypes.ArrayType{Elem: TVar{Name: "T"}, Size: big.NewInt(3)}
	assert.NoError(t, Unify(a, soltypes.ArrayType{Elem: soltypes.Uint8, Size: big.NewInt(3)}, Substitution{}))
	assert.Error(t, Unify(a, soltypes.ArrayType{Elem: soltypes.Uint8, Size: big.NewInt(4)}, Substitution{}))
	assert.Error(t, Unify(a, soltypes.ArrayType{Elem: soltypes.Uint8}, Substitution{}))
}

func TestConcretizePush(t *testing.T) {
	arr := storageArray(soltypes.Uint256)
	types, s, err := Resolve("push", []soltypes.Type{arr, soltypes.Uint256})
	require.NoError(t, err)
	assert.Equal(t, []soltypes.Type{arr, soltypes.Uint256}, types)
	assert.Equal(t, soltypes.Uint256, ElementType(s))

	types, s, err = Resolve("push", []soltypes.Type{arr})
	require.NoError(t, err)
	assert.Len(t, types, 1)
	assert.Equal(t, soltypes.Uint256, ElementType(s))

	_, _, err = Resolve("push", []soltypes.Type{arr, soltypes.Bool})
	assert.Error(t, err)

	_, _, err = Resolve("push", []soltypes.Type{arr, soltypes.IntLiteralType{}})
	assert.NoError(t, err)

	bytesPtr := soltypes.PointerType{To: soltypes.Bytes, Location: soltypes.Storage}
	_, s, err = Resolve("pop", []soltypes.Type{bytesPtr})
	require.NoError(t, err)
	assert.Equal(t, soltypes.FixedBytesType{Size: 1}, ElementType(s))

	_, _, err = Resolve("pop", []soltypes.Type{soltypes.PointerType{To: soltypes.ArrayType{Elem: soltypes.Bool}, Location: soltypes.Memory}})
	assert.Error(t, err)
}

func TestConcretizeRest(t *testing.T) {
	actuals := []soltypes.Type{soltypes.Bytes4, soltypes.Uint256, soltypes.Address}
	types, s, err := Resolve("abi.encodeWithSelector", actuals)
	require.NoError(t, err)
	assert.Equal(t, actuals, types)
	assert.Equal(t, soltypes.TupleType{Elems: []soltypes.Type{soltypes.Uint256, soltypes.Address}}, s["args"])

	_, _, err = Concretize([]soltypes.Type{TRest{Name: "r"}, soltypes.Bool}, actuals)
	assert.Error(t, err)

	_, _, err = Resolve("require", []soltypes.Type{soltypes.Bool, soltypes.PointerType{To: soltypes.String, Location: soltypes.Memory}, soltypes.Bool})
	assert.Error(t, err)
}

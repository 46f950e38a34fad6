package scope

import (
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/annchain/solinterp/vm/values"
)

type storageVar struct {
	decl *ast.VariableDeclaration
	pos  soltypes.Position
}

// Contract exposes the state variables and functions of the executing contract.
type Contract struct {
	base
	Def   *ast.ContractDefinition
	Store *values.Store
	vars  map[string]storageVar
	funcs map[string]values.InternalFunction
}

// StorageLayout lays out the non-constant state variables of def, most base contract first.
func StorageLayout(def *ast.ContractDefinition) ([]*ast.VariableDeclaration, []soltypes.Position) {
	var decls []*ast.VariableDeclaration
	var members []soltypes.NamedType
	for _, v := range def.AllStateVariables() {
		if v.Constant {
			continue
		}
		decls = append(decls, v)
		members = append(members, soltypes.NamedType{Name: v.Name, Type: v.Type})
	}
	positions, _ := soltypes.Layout(members)
	return decls, positions
}

func NewContract(outer Scope, def *ast.ContractDefinition, store *values.Store) *Contract {
	c := &Contract{
		base:  newBase(outer),
		Def:   def,
		Store: store,
		vars:  map[string]storageVar{},
		funcs: map[string]values.InternalFunction{},
	}
	decls, positions := StorageLayout(def)
	for i, d := range decls {
		// a derived declaration of the same name shadows the base one
		c.vars[d.Name] = storageVar{decl: d, pos: positions[i]}
		c.names.Add(d.Name)
	}
	for _, b := range def.Linearized {
		for _, f := range b.Functions {
			if f.Kind != ast.KindFunction {
				continue
			}
			if _, seen := c.funcs[f.Name]; seen {
				continue
			}
			c.funcs[f.Name] = values.InternalFunction{Def: f}
			c.names.Add(f.Name)
		}
	}
	return c
}

func (c *Contract) view(v storageVar) *values.StorageView {
	return values.NewStorageView(c.Store, v.pos.Slot, v.pos.Offset, v.decl.Type)
}

// Variable returns the storage view of a state variable.
func (c *Contract) Variable(name string) (*values.StorageView, bool) {
	v, ok := c.vars[name]
	if !ok {
		return nil, false
	}
	return c.view(v), true
}

func (c *Contract) lookup(name string) (values.Value, bool, error) {
	if v, ok := c.vars[name]; ok {
		view := c.view(v)
		if soltypes.IsValueType(view.Typ) {
			return view.Decode(), true, nil
		}
		return view, true, nil
	}
	f, ok := c.funcs[name]
	return f, ok, nil
}

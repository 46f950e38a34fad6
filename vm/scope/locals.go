package scope

import (
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/annchain/solinterp/vm/values"
	"github.com/pkg/errors"
)

// Locals binds function parameters, return variables and block-scoped declarations.
type Locals struct {
	base
	Node  ast.Node
	vals  map[string]values.Value
	types map[string]soltypes.Type
}

func NewLocals(outer Scope, node ast.Node) *Locals {
	return &Locals{base: newBase(outer), Node: node, vals: map[string]values.Value{}, types: map[string]soltypes.Type{}}
}

// Declare binds a new name in this scope.
func (l *Locals) Declare(name string, t soltypes.Type, v values.Value) error {
	if l.names.Contains(name) {
		return errors.Wrap(ErrDuplicate, name)
	}
	l.names.Add(name)
	l.types[name] = t
	l.vals[name] = v
	return nil
}

// Lookup reads a name bound directly in this scope.
func (l *Locals) Lookup(name string) (values.Value, bool) {
	v, ok := l.vals[name]
	return v, ok
}

// Set writes a name bound directly in this scope. Value-typed locals are stored as
// plain scalars; reference-typed ones keep the view.
func (l *Locals) Set(name string, v values.Value) error {
	t, ok := l.types[name]
	if !ok {
		return errors.Errorf("local %s is not declared", name)
	}
	if soltypes.IsValueType(soltypes.Deref(t)) {
		v = values.Load(v)
	}
	l.vals[name] = v
	return nil
}

func (l *Locals) TypeOf(name string) (soltypes.Type, bool) {
	t, ok := l.types[name]
	return t, ok
}

// BlockDeclarations lists the locals a block binds on entry. From 0.5.0 on a
// declaration is visible from its statement to the end of the block, so blocks bind
// nothing up front; older dialects bind every local declared directly in the block.
func BlockDeclarations(block *ast.Block, version string) []*ast.VariableDeclaration {
	if ast.VersionAtLeast(version, ast.VersionBlockScoping) {
		return nil
	}
	var decls []*ast.VariableDeclaration
	for _, s := range block.Statements {
		if vd, ok := s.(*ast.VariableDeclarationStatement); ok {
			for _, d := range vd.Declarations {
				if d != nil {
					decls = append(decls, d)
				}
			}
		}
	}
	return decls
}

// Package scope resolves identifiers through the chain of builtin, global,
// contract and local binding tables of one execution.
package scope

import (
	"github.com/annchain/solinterp/vm/values"
	"github.com/deckarep/golang-set"
	"github.com/pkg/errors"
)

var (
	// ErrNoScope means an identifier was resolved while no scope was active.
	ErrNoScope    = errors.New("no active scope")
	ErrFrozen     = errors.New("globals are frozen")
	ErrDuplicate  = errors.New("duplicate definition")
	ErrImmutable  = errors.New("builtins cannot be assigned")
	ErrNoLocation = errors.New("name has no location")
)

// Scope is one of *Builtins, *Globals, *Contract or *Locals.
type Scope interface {
	Outer() Scope
	// Names is the static set of names bound by this scope.
	Names() mapset.Set
	sealed()
}

type base struct {
	outer Scope
	names mapset.Set
}

func newBase(outer Scope) base {
	return base{outer: outer, names: mapset.NewSet()}
}

func (b *base) Outer() Scope { return b.outer }

func (b *base) Names() mapset.Set { return b.names }

func (b *base) sealed() {}

// Find returns the innermost scope binding name, or nil.
func Find(head Scope, name string) (Scope, error) {
	if head == nil {
		return nil, ErrNoScope
	}
	for s := head; s != nil; s = s.Outer() {
		if s.Names().Contains(name) {
			return s, nil
		}
	}
	return nil, nil
}

// Lookup resolves name to its current value. Reference-typed storage and
// local variables resolve to views.
func Lookup(head Scope, name string) (values.Value, bool, error) {
	s, err := Find(head, name)
	if err != nil || s == nil {
		return nil, false, err
	}
	switch x := s.(type) {
	case *Builtins:
		return x.table[name], true, nil
	case *Globals:
		v, ok := x.values[name]
		return v, ok, nil
	case *Contract:
		return x.lookup(name)
	case *Locals:
		v, ok := x.vals[name]
		return v, ok, nil
	}
	return nil, false, errors.Errorf("unknown scope %T", s)
}

// LookupLocation resolves name to an assignable view.
func LookupLocation(head Scope, name string) (values.View, bool, error) {
	s, err := Find(head, name)
	if err != nil || s == nil {
		return nil, false, err
	}
	switch x := s.(type) {
	case *Builtins, *Globals:
		return nil, false, errors.Wrap(ErrNoLocation, name)
	case *Contract:
		v, ok := x.vars[name]
		if !ok {
			return nil, false, errors.Wrap(ErrNoLocation, name)
		}
		return x.view(v), true, nil
	case *Locals:
		return &values.LocalView{Scope: x, Name: name, Typ: x.types[name]}, true, nil
	}
	return nil, false, errors.Errorf("unknown scope %T", s)
}

// Set assigns name in the innermost scope binding it. Assigning a name no
// scope binds does nothing.
func Set(head Scope, name string, v values.Value) error {
	s, err := Find(head, name)
	if err != nil || s == nil {
		return err
	}
	switch x := s.(type) {
	case *Builtins:
		return errors.Wrap(ErrImmutable, name)
	case *Globals:
		return x.Define(name, v)
	case *Contract:
		if _, ok := x.vars[name]; !ok {
			return errors.Wrap(ErrNoLocation, name)
		}
		return x.view(x.vars[name]).Encode(v)
	case *Locals:
		return x.Set(name, v)
	}
	return errors.Errorf("unknown scope %T", s)
}

// Builtins is the fixed table at the root of every chain.
type Builtins struct {
	base
	table map[string]values.Value
}

func NewBuiltins(table map[string]values.Value) *Builtins {
	b := &Builtins{base: newBase(nil), table: table}
	for name := range table {
		b.names.Add(name)
	}
	return b
}

// Globals holds file-level constants, free functions and type names. It accepts
// each name once and rejects every write after Freeze.
type Globals struct {
	base
	values map[string]values.Value
	frozen bool
}

func NewGlobals(outer Scope) *Globals {
	return &Globals{base: newBase(outer), values: map[string]values.Value{}}
}

func (g *Globals) Define(name string, v values.Value) error {
	if g.frozen {
		return errors.Wrap(ErrFrozen, name)
	}
	if g.names.Contains(name) {
		return errors.Wrap(ErrDuplicate, name)
	}
	g.names.Add(name)
	g.values[name] = v
	return nil
}

func (g *Globals) Freeze() { g.frozen = true }

func (g *Globals) Frozen() bool { return g.frozen }

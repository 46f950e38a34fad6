// Package poly is the small generic-type algebra used to check builtins with
// polymorphic signatures such as push and pop. It is kept apart from the runtime
// type system: the only place generic types appear is builtin formals.
package poly

import (
	"fmt"
	"strings"

	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/pkg/errors"
)

// TVar is a bare type variable.
type TVar struct {
	Name string
}

func (t TVar) String() string { return "'" + t.Name }

// TUnion is a variable ranging over an ordered list of candidate types.
type TUnion struct {
	Name         string
	Alternatives []soltypes.Type
}

func (t TUnion) String() string {
	parts := make([]string, len(t.Alternatives))
	for i, a := range t.Alternatives {
		parts[i] = a.String()
	}
	return fmt.Sprintf("'%s<%s>", t.Name, strings.Join(parts, "|"))
}

// TOptional marks a formal that may be omitted at the call site.
type TOptional struct {
	Type soltypes.Type
}

func (t TOptional) String() string { return t.Type.String() + "?" }

// TRest absorbs every remaining actual. It is only legal as the last formal.
type TRest struct {
	Name string
}

func (t TRest) String() string { return "..." + t.Name }

// Substitution maps variable names to their solutions. Unions record the chosen alternative.
type Substitution map[string]soltypes.Type

func (s Substitution) Copy() Substitution {
	c := make(Substitution, len(s))
	for k, v := range s {
		c[k] = v
	}
	return c
}

var ErrMismatch = errors.New("types do not unify")

func isVariable(t soltypes.Type) bool {
	switch t.(type) {
	case TVar, TUnion, TRest:
		return true
	}
	return false
}

func varName(t soltypes.Type) string {
	switch x := t.(type) {
	case TVar:
		return x.Name
	case TUnion:
		return x.Name
	case TRest:
		return x.Name
	}
	return ""
}

// Unify solves a = b, extending s in place.
func Unify(a, b soltypes.Type, s Substitution) error {
	if a == nil || b == nil {
		if a == nil && b == nil {
			return nil
		}
		return errors.Wrapf(ErrMismatch, "%v vs %v", a, b)
	}
	if isVariable(a) {
		if bound, ok := s[varName(a)]; ok {
			return Unify(bound, b, s)
		}
	}
	if isVariable(b) {
		if bound, ok := s[varName(b)]; ok {
			return Unify(a, bound, s)
		}
		if !isVariable(a) {
			a, b = b, a
		}
	}

	switch x := a.(type) {
	case TVar:
		if y, ok := b.(TVar); ok && y.Name == x.Name {
			return nil
		}
		if Occurs(x.Name, b, s) {
			return errors.Errorf("type variable %s occurs in %s", x.Name, b)
		}
		s[x.Name] = b
		return nil
	case TRest:
		s[x.Name] = b
		return nil
	case TUnion:
		for _, alt := range x.Alternatives {
			trial := s.Copy()
			if err := Unify(alt, b, trial); err == nil {
				for k, v := range trial {
					s[k] = v
				}
				s[x.Name] = alt
				return nil
			}
		}
		return errors.Wrapf(ErrMismatch, "no alternative of %s matches %s", x, b)
	case TOptional:
		if y, ok := b.(TOptional); ok {
			return Unify(x.Type, y.Type, s)
		}
		return Unify(x.Type, b, s)
	}
	if y, ok := b.(TOptional); ok {
		return Unify(a, y.Type, s)
	}

	switch x := a.(type) {
	case soltypes.PointerType:
		y, ok := b.(soltypes.PointerType)
		if !ok {
			return errors.Wrapf(ErrMismatch, "%s vs %s", a, b)
		}
		if x.Location != soltypes.LocationDefault && y.Location != soltypes.LocationDefault && x.Location != y.Location {
			return errors.Wrapf(ErrMismatch, "location %s vs %s", x.Location, y.Location)
		}
		return Unify(x.To, y.To, s)
	case soltypes.ArrayType:
		y, ok := b.(soltypes.ArrayType)
		if !ok || (x.Size == nil) != (y.Size == nil) || (x.Size != nil && x.Size.Cmp(y.Size) != 0) {
			return errors.Wrapf(ErrMismatch, "%s vs %s", a, b)
		}
		return Unify(x.Elem, y.Elem, s)
	case soltypes.MappingType:
		y, ok := b.(soltypes.MappingType)
		if !ok {
			return errors.Wrapf(ErrMismatch, "%s vs %s", a, b)
		}
		if err := Unify(x.Key, y.Key, s); err != nil {
			return err
		}
		return Unify(x.Value, y.Value, s)
	case *soltypes.StructType:
		y, ok := b.(*soltypes.StructType)
		if !ok || x.Name != y.Name || len(x.Fields) != len(y.Fields) {
			return errors.Wrapf(ErrMismatch, "%s vs %s", a, b)
		}
		for i := range x.Fields {
			if err := Unify(x.Fields[i].Type, y.Fields[i].Type, s); err != nil {
				return err
			}
		}
		return nil
	case soltypes.TupleType:
		y, ok := b.(soltypes.TupleType)
		if !ok {
			return errors.Wrapf(ErrMismatch, "%s vs %s", a, b)
		}
		return unifyTuples(x.Elems, y.Elems, s)
	}
	if literalFits(a, b) || literalFits(b, a) {
		return nil
	}
	if !soltypes.Equal(a, b) {
		return errors.Wrapf(ErrMismatch, "%s vs %s", a, b)
	}
	return nil
}

// literalFits lets an untyped number constant stand for any integer type.
func literalFits(lit, t soltypes.Type) bool {
	if _, ok := lit.(soltypes.IntLiteralType); !ok {
		return false
	}
	_, ok := t.(soltypes.IntType)
	return ok
}

// unifyTuples lets the shorter side leave out trailing positions only where the
// longer side marks them optional.
func unifyTuples(xs, ys []soltypes.Type, s Substitution) error {
	long := xs
	if len(ys) > len(xs) {
		long = ys
	}
	n := len(xs)
	if len(ys) < n {
		n = len(ys)
	}
	for i := n; i < len(long); i++ {
		if _, ok := long[i].(TOptional); !ok {
			return errors.Wrapf(ErrMismatch, "tuple position %d is not optional", i)
		}
	}
	for i := 0; i < n; i++ {
		if err := Unify(xs[i], ys[i], s); err != nil {
			return err
		}
	}
	return nil
}

// Occurs reports whether variable name appears in t under s.
func Occurs(name string, t soltypes.Type, s Substitution) bool {
	switch x := t.(type) {
	case TVar:
		if x.Name == name {
			return true
		}
		if bound, ok := s[x.Name]; ok {
			return Occurs(name, bound, s)
		}
	case TUnion:
		if x.Name == name {
			return true
		}
		for _, alt := range x.Alternatives {
			if Occurs(name, alt, s) {
				return true
			}
		}
	case TOptional:
		return Occurs(name, x.Type, s)
	case soltypes.PointerType:
		return Occurs(name, x.To, s)
	case soltypes.ArrayType:
		return Occurs(name, x.Elem, s)
	case soltypes.MappingType:
		return Occurs(name, x.Key, s) || Occurs(name, x.Value, s)
	case soltypes.TupleType:
		for _, e := range x.Elems {
			if e != nil && Occurs(name, e, s) {
				return true
			}
		}
	}
	return false
}

// Substitute replaces solved variables in t.
func Substitute(t soltypes.Type, s Substitution) soltypes.Type {
	switch x := t.(type) {
	case TVar:
		if bound, ok := s[x.Name]; ok {
			return Substitute(bound, s)
		}
	case TUnion:
		if bound, ok := s[x.Name]; ok {
			return Substitute(bound, s)
		}
	case TRest:
		if bound, ok := s[x.Name]; ok {
			return Substitute(bound, s)
		}
	case TOptional:
		return TOptional{Type: Substitute(x.Type, s)}
	case soltypes.PointerType:
		return soltypes.PointerType{To: Substitute(x.To, s), Location: x.Location}
	case soltypes.ArrayType:
		return soltypes.ArrayType{Elem: Substitute(x.Elem, s), Size: x.Size}
	case soltypes.MappingType:
		return soltypes.MappingType{Key: Substitute(x.Key, s), Value: Substitute(x.Value, s)}
	case soltypes.TupleType:
		elems := make([]soltypes.Type, len(x.Elems))
		for i, e := range x.Elems {
			if e != nil {
				elems[i] = Substitute(e, s)
			}
		}
		return soltypes.TupleType{Elems: elems}
	}
	return t
}

// IsConcrete reports whether t is free of variables and unspecified locations.
func IsConcrete(t soltypes.Type) bool {
	switch x := t.(type) {
	case TVar, TUnion, TRest, TOptional:
		return false
	case soltypes.PointerType:
		return x.Location != soltypes.LocationDefault && IsConcrete(x.To)
	case soltypes.ArrayType:
		return IsConcrete(x.Elem)
	case soltypes.MappingType:
		return IsConcrete(x.Key) && IsConcrete(x.Value)
	case soltypes.TupleType:
		for _, e := range x.Elems {
			if e != nil && !IsConcrete(e) {
				return false
			}
		}
	}
	return true
}

// Concretize matches generic formals against the actual argument types left to right.
// It returns one concrete type per supplied actual and the full solution.
func Concretize(formals, actuals []soltypes.Type) ([]soltypes.Type, Substitution, error) {
	s := Substitution{}
	var concrete []soltypes.Type
	j := 0
	for i, f := range formals {
		if rest, ok := f.(TRest); ok {
			if i != len(formals)-1 {
				return nil, nil, errors.Errorf("rest formal %s must be last", rest)
			}
			tail := append([]soltypes.Type{}, actuals[j:]...)
			s[rest.Name] = soltypes.TupleType{Elems: tail}
			return append(concrete, tail...), s, nil
		}
		opt, optional := f.(TOptional)
		if j >= len(actuals) {
			if optional {
				continue
			}
			return nil, nil, errors.Errorf("missing argument %d of type %s", i, f)
		}
		formal := f
		if optional {
			formal = opt.Type
		}
		formal = Substitute(formal, s)
		if err := Unify(formal, actuals[j], s); err != nil {
			return nil, nil, errors.Wrapf(err, "argument %d", j)
		}
		resolved := Substitute(formal, s)
		if !IsConcrete(resolved) {
			resolved = actuals[j]
		}
		concrete = append(concrete, resolved)
		j++
	}
	if j < len(actuals) {
		return nil, nil, errors.Errorf("too many arguments: expected %d, got %d", j, len(actuals))
	}
	return concrete, s, nil
}

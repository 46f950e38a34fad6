package interp

import (
	"math/big"
	"strings"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/math"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/scope"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/annchain/solinterp/vm/values"
	"github.com/pkg/errors"
)

// Eval evaluates an expression to a value or, for reference types, to the view
// of its location. Every evaluation is appended to the trace.
func (in *Interpreter) Eval(e ast.Expression) (values.Value, error) {
	v, err := in.eval(e)
	if err != nil {
		return nil, err
	}
	in.state.record(e, v)
	in.notifyEval(e, v)
	return v, nil
}

func (in *Interpreter) eval(e ast.Expression) (values.Value, error) {
	switch x := e.(type) {
	case *ast.Literal:
		return in.evalLiteral(x)
	case *ast.Identifier:
		return in.evalIdentifier(x)
	case *ast.MemberAccess:
		return in.evalMember(x)
	case *ast.IndexAccess:
		return in.evalIndex(x)
	case *ast.UnaryOperation:
		return in.evalUnary(x)
	case *ast.BinaryOperation:
		return in.evalBinary(x)
	case *ast.Assignment:
		return in.evalAssignment(x)
	case *ast.Conditional:
		cond, err := in.Eval(x.Condition)
		if err != nil {
			return nil, err
		}
		b, ok := values.AsBool(cond)
		if !ok {
			return nil, internalf(x, "condition is %v", cond)
		}
		if b {
			return in.Eval(x.True)
		}
		return in.Eval(x.False)
	case *ast.TupleExpression:
		return in.evalTuple(x)
	case *ast.FunctionCall:
		return in.evalCall(x)
	case *ast.ElementaryTypeNameExpression:
		return values.TypeRef{Type: x.TypeName}, nil
	case *ast.NewExpression:
		return values.TypeRef{Type: x.TypeName}, nil
	case *ast.FunctionCallOptions:
		return nil, internalf(x, "call options outside a call")
	}
	return nil, internalf(e, "expression %T not supported", e)
}

func (in *Interpreter) evalLiteral(l *ast.Literal) (values.Value, error) {
	switch l.Kind {
	case ast.LiteralBool:
		return values.Bool(l.Value == "true"), nil
	case ast.LiteralString:
		return implicitValue(values.Bytes(l.Value), l.Type), nil
	case ast.LiteralHexString:
		b, err := common.DecodeHex(l.Value)
		if err != nil {
			return nil, internal(l, err)
		}
		return implicitValue(values.Bytes(b), l.Type), nil
	}
	n, err := parseNumber(l.Value)
	if err != nil {
		return nil, internal(l, err)
	}
	return implicitValue(values.Int{V: n}, l.Type), nil
}

// parseNumber reads decimal, hex and scientific literals. Fractional values must
// have been folded away before the tree reaches the interpreter.
func parseNumber(s string) (*big.Int, error) {
	s = strings.Replace(s, "_", "", -1)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, errors.Errorf("invalid hex literal %q", s)
		}
		return n, nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, errors.Errorf("invalid number literal %q", s)
	}
	if !r.IsInt() {
		return nil, errors.Errorf("fractional literal %q", s)
	}
	return new(big.Int).Set(r.Num()), nil
}

func (in *Interpreter) evalIdentifier(x *ast.Identifier) (values.Value, error) {
	v, ok, err := scope.Lookup(in.state.head, x.Name)
	if err != nil {
		return nil, internal(x, err)
	}
	if !ok {
		if tn, isType := x.Type.(soltypes.TypeNameType); isType {
			return values.TypeRef{Type: tn.Type}, nil
		}
		return nil, internalf(x, "unknown identifier %s", x.Name)
	}
	switch f := v.(type) {
	case values.BuiltinStruct:
		return in.builtinValue(f), nil
	case values.InternalFunction:
		// overloads share a name; pick the one matching the static arity
		if ft, ok := x.Type.(soltypes.FunctionType); ok && f.Def != nil && len(f.Def.Parameters) != len(ft.Params) {
			if fn := in.state.Contract.ResolveFunction(x.Name, len(ft.Params)); fn != nil {
				return values.InternalFunction{Def: fn}, nil
			}
		}
	}
	return v, nil
}

func (in *Interpreter) evalMember(x *ast.MemberAccess) (values.Value, error) {
	if tn, ok := x.Type.(soltypes.TypeNameType); ok {
		return values.TypeRef{Type: tn.Type}, nil
	}
	base, err := in.Eval(x.Expression)
	if err != nil {
		return nil, err
	}
	switch b := base.(type) {
	case values.BuiltinStruct:
		return in.builtinMember(x, b)
	case values.TypeRef:
		return in.typeMember(x, b)
	case values.ExternalFunction:
		switch x.Member {
		case "selector":
			return values.FixedBytes(common.CopyBytes(b.Selector[:])), nil
		case "address":
			return values.NewAddress(b.Address), nil
		}
	case values.InternalFunction:
		if x.Member == "selector" && b.Def != nil {
			sel := in.infer.Selector(b.Def)
			return values.FixedBytes(sel[:]), nil
		}
	}
	staticBase := soltypes.Deref(x.Expression.StaticType())
	if ct, ok := staticBase.(soltypes.ContractType); ok && !ct.Library {
		return in.contractMember(x, base, ct)
	}
	if _, ok := staticBase.(soltypes.AddressType); ok {
		return in.addressMember(x, base)
	}
	switch x.Member {
	case "length":
		n, err := values.Length(base)
		if err != nil {
			return nil, internal(x, err)
		}
		return values.Int{V: n}, nil
	case "push", "pop":
		return values.BuiltinFunction{Name: x.Member, Self: values.Deref(base), Type: x.Type}, nil
	}
	switch b := values.Deref(base).(type) {
	case values.Structured:
		fv, err := b.Field(x.Member)
		if err != nil {
			return nil, internal(x, err)
		}
		return in.rvalue(fv), nil
	case values.Composite:
		for i, name := range b.Names {
			if name == x.Member {
				return b.Elems[i], nil
			}
		}
	}
	return nil, internalf(x, "member %s of %v not supported", x.Member, base)
}

func (in *Interpreter) evalIndex(x *ast.IndexAccess) (values.Value, error) {
	if tn, ok := x.Type.(soltypes.TypeNameType); ok {
		return values.TypeRef{Type: tn.Type}, nil
	}
	base, err := in.Eval(x.BaseExpression)
	if err != nil {
		return nil, err
	}
	if x.Index == nil {
		return nil, internalf(x, "index access without an index")
	}
	key, err := in.Eval(x.Index)
	if err != nil {
		return nil, err
	}
	key, err = in.indexKey(x, key)
	if err != nil {
		return nil, err
	}
	switch b := values.Deref(base).(type) {
	case values.Indexable:
		view, err := b.Index(key)
		if err != nil {
			return nil, in.classify(x, err)
		}
		return in.rvalue(view), nil
	case values.FixedBytes, values.Bytes:
		v, err := values.IndexFixedBytes(b, key)
		if err != nil {
			return nil, in.classify(x, err)
		}
		return v, nil
	case values.Composite:
		i, ok := values.AsInt(key)
		if !ok {
			return nil, internalf(x, "index %v", key)
		}
		if i.Sign() < 0 || i.Cmp(big.NewInt(int64(len(b.Elems)))) >= 0 {
			return nil, in.panicError(PanicOutOfBounds)
		}
		return b.Elems[i.Int64()], nil
	}
	return nil, internalf(x, "index into %v not supported", base)
}

// indexKey loads an index or mapping key. Reference-typed mapping keys keep their bytes.
func (in *Interpreter) indexKey(x *ast.IndexAccess, key values.Value) (values.Value, error) {
	key = values.Load(key)
	if values.HasPoison(key) {
		return nil, internalf(x, "index %v", key)
	}
	if mt, ok := soltypes.Deref(x.BaseExpression.StaticType()).(soltypes.MappingType); ok {
		return implicitValue(key, mt.Key), nil
	}
	return key, nil
}

func (in *Interpreter) evalTuple(x *ast.TupleExpression) (values.Value, error) {
	if len(x.Components) == 1 && !x.InlineArray && x.Components[0] != nil {
		return in.Eval(x.Components[0])
	}
	elems := make([]values.Value, len(x.Components))
	for i, c := range x.Components {
		if c == nil {
			elems[i] = values.None{}
			continue
		}
		v, err := in.Eval(c)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	if !x.InlineArray {
		return values.Composite{Elems: elems}, nil
	}
	// inline arrays are memory arrays of the common element type
	at, ok := soltypes.Deref(x.Type).(soltypes.ArrayType)
	if !ok {
		return nil, internalf(x, "inline array of type %s", x.Type)
	}
	for i, e := range elems {
		v, err := in.coerce(x.Components[i], e, at.Elem)
		if err != nil {
			return nil, err
		}
		elems[i] = v
	}
	view, err := in.state.Memory.Allocate(at, values.Composite{Elems: elems})
	if err != nil {
		return nil, in.classify(x, err)
	}
	return view, nil
}

// evalLocation evaluates an assignable expression to the view it denotes.
func (in *Interpreter) evalLocation(e ast.Expression) (values.View, error) {
	view, err := in.location(e)
	if err != nil {
		return nil, err
	}
	in.state.record(e, view)
	in.notifyEval(e, view)
	return view, nil
}

func (in *Interpreter) location(e ast.Expression) (values.View, error) {
	switch x := e.(type) {
	case *ast.Identifier:
		v, ok, err := scope.LookupLocation(in.state.head, x.Name)
		if err != nil {
			return nil, internal(x, err)
		}
		if !ok {
			return nil, internalf(x, "unknown identifier %s", x.Name)
		}
		return v, nil
	case *ast.IndexAccess:
		base, err := in.Eval(x.BaseExpression)
		if err != nil {
			return nil, err
		}
		key, err := in.Eval(x.Index)
		if err != nil {
			return nil, err
		}
		if key, err = in.indexKey(x, key); err != nil {
			return nil, err
		}
		b, ok := values.Deref(base).(values.Indexable)
		if !ok {
			return nil, internalf(x, "cannot assign to an element of %v", base)
		}
		view, err := b.Index(key)
		if err != nil {
			return nil, in.classify(x, err)
		}
		return view, nil
	case *ast.MemberAccess:
		base, err := in.Eval(x.Expression)
		if err != nil {
			return nil, err
		}
		b, ok := values.Deref(base).(values.Structured)
		if !ok {
			return nil, internalf(x, "cannot assign to member %s of %v", x.Member, base)
		}
		view, err := b.Field(x.Member)
		if err != nil {
			return nil, internal(x, err)
		}
		return view, nil
	case *ast.TupleExpression:
		if len(x.Components) == 1 && x.Components[0] != nil {
			return in.location(x.Components[0])
		}
	}
	return nil, internalf(e, "%T is not assignable", e)
}

// rvalue is what reading a location yields: scalars for value types, the
// referenced object for everything else.
func (in *Interpreter) rvalue(view values.View) values.Value {
	if soltypes.IsValueType(soltypes.Deref(view.Type())) {
		return view.Decode()
	}
	if _, ok := view.(*values.ByteIndexView); ok {
		return view.Decode()
	}
	return values.Deref(view)
}

// coerce prepares v to be bound to a variable of type t: memory references are
// copied into this execution's memory unless they already live there, storage
// and calldata references stay as they are and value types are converted implicitly.
func (in *Interpreter) coerce(node ast.Node, v values.Value, t soltypes.Type) (values.Value, error) {
	if t == nil {
		return values.Load(v), nil
	}
	if p, ok := t.(soltypes.PointerType); ok {
		switch p.Location {
		case soltypes.Memory:
			if mv, ok := values.Deref(v).(*values.MemoryView); ok && mv.Mem == in.state.Memory {
				return mv, nil
			}
			loaded := values.Load(v)
			if values.HasPoison(loaded) {
				return nil, revertError(nil)
			}
			mv, err := in.state.Memory.Allocate(p.To, implicitValue(loaded, p.To))
			if err != nil {
				return nil, in.classify(node, err)
			}
			return mv, nil
		case soltypes.Storage:
			if _, ok := values.Deref(v).(*values.StorageView); !ok {
				return nil, internalf(node, "storage pointer to %v", v)
			}
			return values.Deref(v), nil
		}
		return values.Deref(v), nil
	}
	if soltypes.IsValueType(t) {
		return implicitValue(values.Load(v), t), nil
	}
	if _, ok := t.(soltypes.MappingType); ok {
		return v, nil
	}
	return values.Load(v), nil
}

// implicitValue adapts literal-shaped values to the representation of t.
func implicitValue(v values.Value, t soltypes.Type) values.Value {
	switch x := soltypes.Deref(t).(type) {
	case soltypes.FixedBytesType:
		switch y := v.(type) {
		case values.Bytes:
			return values.FixedBytes(common.RightPadBytes(y, x.Size)[:x.Size])
		case values.Int:
			w := math.ToWord(y.V)
			return values.FixedBytes(common.CopyBytes(w[soltypes.SlotSize-x.Size:]))
		case values.FixedBytes:
			if len(y) != x.Size {
				return values.FixedBytes(common.RightPadBytes(y, x.Size)[:x.Size])
			}
		}
	case soltypes.AddressType, soltypes.ContractType:
		if y, ok := v.(values.Int); ok {
			return values.NewAddress(common.BigToAddress(math.Wrap(y.V, 160, false)))
		}
	case soltypes.IntType:
		if y, ok := v.(values.Int); ok && !math.InRange(y.V, x.Bits, x.Signed) {
			return values.Int{V: math.Wrap(y.V, x.Bits, x.Signed)}
		}
	case soltypes.ArrayType:
		if c, ok := v.(values.Composite); ok {
			elems := make([]values.Value, len(c.Elems))
			for i, e := range c.Elems {
				elems[i] = implicitValue(e, x.Elem)
			}
			return values.Composite{Elems: elems, Names: c.Names}
		}
	}
	return v
}

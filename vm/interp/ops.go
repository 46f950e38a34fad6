package interp

import (
	"bytes"
	"math/big"

	"github.com/annchain/solinterp/common/math"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/annchain/solinterp/vm/values"
)

func (in *Interpreter) evalBinary(x *ast.BinaryOperation) (values.Value, error) {
	if x.Operator == "&&" || x.Operator == "||" {
		return in.evalLogical(x)
	}
	l, err := in.Eval(x.Left)
	if err != nil {
		return nil, err
	}
	r, err := in.Eval(x.Right)
	if err != nil {
		return nil, err
	}
	return in.binary(x, x.Operator, values.Load(l), values.Load(r), x.Type)
}

func (in *Interpreter) evalLogical(x *ast.BinaryOperation) (values.Value, error) {
	l, err := in.Eval(x.Left)
	if err != nil {
		return nil, err
	}
	lb, ok := values.AsBool(l)
	if !ok {
		return nil, internalf(x.Left, "operand of %s is %v", x.Operator, l)
	}
	if (x.Operator == "&&" && !lb) || (x.Operator == "||" && lb) {
		return values.Bool(lb), nil
	}
	r, err := in.Eval(x.Right)
	if err != nil {
		return nil, err
	}
	rb, ok := values.AsBool(r)
	if !ok {
		return nil, internalf(x.Right, "operand of %s is %v", x.Operator, r)
	}
	return values.Bool(rb), nil
}

// binary applies op to two loaded operands. result is the static type the result is clamped to.
func (in *Interpreter) binary(node ast.Node, op string, l, r values.Value, result soltypes.Type) (values.Value, error) {
	switch op {
	case "==", "!=":
		if !comparable(l, r) {
			return nil, internalf(node, "%v %s %v not supported", l, op, r)
		}
		eq := values.Equal(l, r)
		return values.Bool(eq == (op == "==")), nil
	case "<", "<=", ">", ">=":
		c, ok := compare(l, r)
		if !ok {
			return nil, internalf(node, "%v %s %v not supported", l, op, r)
		}
		switch op {
		case "<":
			return values.Bool(c < 0), nil
		case "<=":
			return values.Bool(c <= 0), nil
		case ">":
			return values.Bool(c > 0), nil
		}
		return values.Bool(c >= 0), nil
	case "+", "-", "*", "/", "%", "**":
		a, aok := l.(values.Int)
		b, bok := r.(values.Int)
		if !aok || !bok {
			return nil, internalf(node, "%v %s %v not supported", l, op, r)
		}
		return in.arithmetic(node, op, a.V, b.V, result)
	case "&", "|", "^":
		return in.bitwise(node, op, l, r, result)
	case "<<", ">>":
		return in.shift(node, op, l, r, result)
	}
	return nil, internalf(node, "operator %s not supported", op)
}

func comparable(l, r values.Value) bool {
	switch l.(type) {
	case values.Int:
		_, ok := r.(values.Int)
		return ok
	case values.Bool:
		_, ok := r.(values.Bool)
		return ok
	case values.Address:
		_, ok := r.(values.Address)
		return ok
	case values.FixedBytes:
		_, ok := r.(values.FixedBytes)
		return ok
	case values.ExternalFunction, values.InternalFunction:
		return true
	}
	return false
}

func compare(l, r values.Value) (int, bool) {
	switch a := l.(type) {
	case values.Int:
		if b, ok := r.(values.Int); ok {
			return a.V.Cmp(b.V), true
		}
	case values.Address:
		if b, ok := r.(values.Address); ok {
			return bytes.Compare(a.Bytes[:], b.Bytes[:]), true
		}
	case values.FixedBytes:
		if b, ok := r.(values.FixedBytes); ok {
			return bytes.Compare(a, b), true
		}
	}
	return 0, false
}

func (in *Interpreter) arithmetic(node ast.Node, op string, a, b *big.Int, result soltypes.Type) (values.Value, error) {
	z := new(big.Int)
	switch op {
	case "+":
		z.Add(a, b)
	case "-":
		z.Sub(a, b)
	case "*":
		z.Mul(a, b)
	case "/":
		if b.Sign() == 0 {
			return nil, in.panicError(PanicDivisionZero)
		}
		z.Quo(a, b)
	case "%":
		if b.Sign() == 0 {
			return nil, in.panicError(PanicDivisionZero)
		}
		z.Rem(a, b)
	case "**":
		if b.Sign() < 0 {
			return nil, internalf(node, "negative exponent %s", b)
		}
		return in.exp(node, a, b, result)
	}
	return in.clamp(node, z, result)
}

// exp raises a to b. Bounded types are computed modulo 2^256 so that huge
// exponents stay cheap; the checked dialect reports overflow as soon as it happens.
func (in *Interpreter) exp(node ast.Node, a, b *big.Int, result soltypes.Type) (values.Value, error) {
	it, bounded := result.(soltypes.IntType)
	if !bounded {
		if b.BitLen() > 16 {
			return nil, internalf(node, "literal exponent %s too large", b)
		}
		return values.Int{V: new(big.Int).Exp(a, b, nil)}, nil
	}
	if !in.checked() {
		mod := new(big.Int).Lsh(math.Big1, 256)
		z := new(big.Int).Exp(math.U256(a), b, mod)
		if it.Signed {
			z = math.S256(z)
		}
		return in.clamp(node, z, result)
	}
	min, max := math.IntRange(it.Bits, it.Signed)
	z := big.NewInt(1)
	base := new(big.Int).Set(a)
	e := new(big.Int).Set(b)
	for e.Sign() > 0 {
		if e.Bit(0) == 1 {
			z.Mul(z, base)
			if z.Cmp(min) < 0 || z.Cmp(max) > 0 {
				return nil, in.panicError(PanicOverflow)
			}
		}
		e.Rsh(e, 1)
		if e.Sign() > 0 {
			base.Mul(base, base)
			if base.CmpAbs(new(big.Int).Lsh(math.Big1, 256)) > 0 {
				return nil, in.panicError(PanicOverflow)
			}
		}
	}
	return values.Int{V: z}, nil
}

// clamp fits v into the static type t. In checked code a value that does not fit
// is an overflow panic; otherwise it wraps around.
func (in *Interpreter) clamp(node ast.Node, v *big.Int, t soltypes.Type) (values.Value, error) {
	switch x := soltypes.Deref(t).(type) {
	case soltypes.IntType:
		wrapped := math.Wrap(v, x.Bits, x.Signed)
		if wrapped.Cmp(v) != 0 && in.checked() {
			return nil, in.panicError(PanicOverflow)
		}
		return values.Int{V: wrapped}, nil
	case soltypes.IntLiteralType:
		return values.Int{V: v}, nil
	case *soltypes.EnumType:
		return values.Int{V: v}, nil
	}
	return nil, internalf(node, "arithmetic on %s not supported", t)
}

func (in *Interpreter) bitwise(node ast.Node, op string, l, r values.Value, result soltypes.Type) (values.Value, error) {
	switch a := l.(type) {
	case values.Int:
		b, ok := r.(values.Int)
		if !ok {
			break
		}
		z := new(big.Int)
		x, y := math.U256(a.V), math.U256(b.V)
		switch op {
		case "&":
			z.And(x, y)
		case "|":
			z.Or(x, y)
		default:
			z.Xor(x, y)
		}
		return wrapTo(z, result), nil
	case values.FixedBytes:
		b, ok := r.(values.FixedBytes)
		if !ok || len(a) != len(b) {
			break
		}
		z := make(values.FixedBytes, len(a))
		for i := range a {
			switch op {
			case "&":
				z[i] = a[i] & b[i]
			case "|":
				z[i] = a[i] | b[i]
			default:
				z[i] = a[i] ^ b[i]
			}
		}
		return z, nil
	}
	return nil, internalf(node, "%v %s %v not supported", l, op, r)
}

func (in *Interpreter) shift(node ast.Node, op string, l, r values.Value, result soltypes.Type) (values.Value, error) {
	n, ok := r.(values.Int)
	if !ok || n.V.Sign() < 0 {
		return nil, internalf(node, "shift by %v", r)
	}
	amount := uint(256)
	if n.V.IsUint64() && n.V.Uint64() < 256 {
		amount = uint(n.V.Uint64())
	}
	switch a := l.(type) {
	case values.Int:
		z := new(big.Int)
		if op == "<<" {
			z.Lsh(a.V, amount)
		} else {
			// arithmetic shift rounds toward negative infinity
			z.Rsh(a.V, amount)
		}
		return wrapTo(z, result), nil
	case values.FixedBytes:
		size := len(a)
		v := new(big.Int).SetBytes(a)
		if op == "<<" {
			v.Lsh(v, amount)
		} else {
			v.Rsh(v, amount)
		}
		v = math.Wrap(v, size*8, false)
		return values.FixedBytes(math.PaddedBigBytes(v, size)), nil
	}
	return nil, internalf(node, "%v %s %v not supported", l, op, r)
}

// wrapTo truncates a bitwise result to its type. Bit operations never overflow.
func wrapTo(v *big.Int, t soltypes.Type) values.Value {
	if it, ok := soltypes.Deref(t).(soltypes.IntType); ok {
		return values.Int{V: math.Wrap(v, it.Bits, it.Signed)}
	}
	return values.Int{V: v}
}

func (in *Interpreter) evalUnary(x *ast.UnaryOperation) (values.Value, error) {
	switch x.Operator {
	case "++", "--":
		return in.increment(x)
	case "delete":
		loc, err := in.evalLocation(x.Sub)
		if err != nil {
			return nil, err
		}
		return values.Composite{}, in.deleteAt(x, loc)
	}
	v, err := in.Eval(x.Sub)
	if err != nil {
		return nil, err
	}
	v = values.Load(v)
	switch x.Operator {
	case "!":
		b, ok := v.(values.Bool)
		if !ok {
			return nil, internalf(x, "!%v not supported", v)
		}
		return !b, nil
	case "-":
		n, ok := v.(values.Int)
		if !ok {
			return nil, internalf(x, "-%v not supported", v)
		}
		return in.clamp(x, new(big.Int).Neg(n.V), x.Type)
	case "+":
		return v, nil
	case "~":
		switch n := v.(type) {
		case values.Int:
			return wrapTo(new(big.Int).Not(n.V), x.Type), nil
		case values.FixedBytes:
			z := make(values.FixedBytes, len(n))
			for i := range n {
				z[i] = ^n[i]
			}
			return z, nil
		}
		return nil, internalf(x, "~%v not supported", v)
	}
	return nil, internalf(x, "unary operator %s not supported", x.Operator)
}

// increment evaluates the operand location once, then reads, updates and writes it.
func (in *Interpreter) increment(x *ast.UnaryOperation) (values.Value, error) {
	loc, err := in.evalLocation(x.Sub)
	if err != nil {
		return nil, err
	}
	old, ok := values.Load(loc.Decode()).(values.Int)
	if !ok {
		return nil, internalf(x, "%s on a non-integer", x.Operator)
	}
	delta := big.NewInt(1)
	if x.Operator == "--" {
		delta.Neg(delta)
	}
	updated, err := in.clamp(x, new(big.Int).Add(old.V, delta), x.Sub.StaticType())
	if err != nil {
		return nil, err
	}
	if err := in.classify(x, loc.Encode(updated)); err != nil {
		return nil, err
	}
	if x.Prefix {
		return updated, nil
	}
	return old, nil
}

// deleteAt resets a location to the zero value of its type.
func (in *Interpreter) deleteAt(node ast.Node, loc values.View) error {
	switch v := loc.(type) {
	case *values.StorageView:
		return in.classify(node, v.Clear())
	case *values.LocalView:
		if p, ok := v.Typ.(soltypes.PointerType); ok {
			if p.Location != soltypes.Memory {
				return internalf(node, "delete on a %s reference", p.Location)
			}
			fresh, err := in.coerce(node, values.Zero(p.To), v.Typ)
			if err != nil {
				return err
			}
			return in.classify(node, v.Encode(fresh))
		}
		return in.classify(node, v.Encode(values.Zero(v.Typ)))
	}
	return in.classify(node, loc.Encode(values.Zero(soltypes.Deref(loc.Type()))))
}

func (in *Interpreter) evalAssignment(x *ast.Assignment) (values.Value, error) {
	rhs, err := in.Eval(x.RHS)
	if err != nil {
		return nil, err
	}
	if tuple, ok := x.LHS.(*ast.TupleExpression); ok && len(tuple.Components) != 1 {
		if x.Operator != "=" {
			return nil, internalf(x, "compound assignment to a tuple")
		}
		return rhs, in.assignTuple(x, tuple, rhs)
	}
	loc, err := in.evalLocation(x.LHS)
	if err != nil {
		return nil, err
	}
	val := rhs
	if x.Operator != "=" {
		op := x.Operator[:len(x.Operator)-1]
		cur := values.Load(loc.Decode())
		if val, err = in.binary(x, op, cur, values.Load(rhs), x.LHS.StaticType()); err != nil {
			return nil, err
		}
	}
	stored, err := in.assign(x, loc, val)
	if err != nil {
		return nil, err
	}
	return stored, nil
}

// assignTuple binds the components of rhs to the left-hand locations position by
// position. All locations are evaluated after the right-hand side.
func (in *Interpreter) assignTuple(x *ast.Assignment, lhs *ast.TupleExpression, rhs values.Value) error {
	c, ok := rhs.(values.Composite)
	if !ok || len(c.Elems) != len(lhs.Components) {
		return internalf(x, "cannot assign %v to %d components", rhs, len(lhs.Components))
	}
	// snapshot the right-hand values so that swaps see the old contents
	vals := make([]values.Value, len(c.Elems))
	for i, e := range c.Elems {
		if v, ok := e.(values.View); ok && soltypes.IsValueType(soltypes.Deref(v.Type())) {
			vals[i] = v.Decode()
			continue
		}
		vals[i] = e
	}
	locs := make([]values.View, len(lhs.Components))
	for i, comp := range lhs.Components {
		if comp == nil {
			continue
		}
		if nested, ok := comp.(*ast.TupleExpression); ok && len(nested.Components) != 1 {
			if err := in.assignTuple(x, nested, vals[i]); err != nil {
				return err
			}
			continue
		}
		loc, err := in.evalLocation(comp)
		if err != nil {
			return err
		}
		locs[i] = loc
	}
	for i, loc := range locs {
		if loc == nil {
			continue
		}
		if _, err := in.assign(x, loc, vals[i]); err != nil {
			return err
		}
	}
	return nil
}

// assign stores v into loc and returns the value now held there.
func (in *Interpreter) assign(node ast.Node, loc values.View, v values.Value) (values.Value, error) {
	t := loc.Type()
	if _, isLocal := loc.(*values.LocalView); !isLocal {
		t = soltypes.Deref(t)
	}
	var (
		conv values.Value
		err  error
	)
	if soltypes.IsValueType(soltypes.Deref(t)) {
		conv, err = in.coerce(node, v, soltypes.Deref(t))
	} else if _, isLocal := loc.(*values.LocalView); isLocal {
		conv, err = in.coerce(node, v, t)
	} else {
		conv = v
		if values.HasPoison(values.Load(v)) {
			return nil, revertError(nil)
		}
	}
	if err != nil {
		return nil, err
	}
	if err := in.classify(node, loc.Encode(conv)); err != nil {
		return nil, err
	}
	if soltypes.IsValueType(soltypes.Deref(t)) {
		return conv, nil
	}
	if local, ok := loc.(*values.LocalView); ok {
		return local.Decode(), nil
	}
	return in.rvalue(loc), nil
}

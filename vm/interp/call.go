package interp

import (
	"fmt"
	"math/big"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/math"
	"github.com/annchain/solinterp/vm/abi"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/scope"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/annchain/solinterp/vm/values"
	vmtypes "github.com/annchain/solinterp/vm/types"
)

// maxNewLength bounds the length of new T[](n) and new bytes(n).
var maxNewLength = big.NewInt(1 << 24)

// callOptions are the {value: ..., gas: ..., salt: ...} of a call.
type callOptions struct {
	value *big.Int
	gas   *big.Int
	salt  *common.Hash
}

func (in *Interpreter) evalOptions(o *ast.FunctionCallOptions) (*callOptions, error) {
	opts := &callOptions{}
	for i, name := range o.Names {
		v, err := in.Eval(o.Options[i])
		if err != nil {
			return nil, err
		}
		switch name {
		case "value", "gas":
			n, ok := values.AsInt(v)
			if !ok {
				return nil, internalf(o, "call option %s is %v", name, v)
			}
			if name == "value" {
				opts.value = n
			} else {
				opts.gas = n
			}
		case "salt":
			b, ok := values.AsBytes(v)
			if !ok {
				return nil, internalf(o, "call option salt is %v", v)
			}
			h := common.BytesToHash(b)
			opts.salt = &h
		default:
			return nil, internalf(o, "call option %s not supported", name)
		}
	}
	return opts, nil
}

func (in *Interpreter) evalCall(x *ast.FunctionCall) (values.Value, error) {
	switch x.Kind {
	case ast.CallTypeConversion:
		return in.evalConversion(x)
	case ast.CallStructConstructor:
		return in.evalStructConstructor(x)
	}
	callee := x.Callee
	opts := &callOptions{}
	if o, ok := callee.(*ast.FunctionCallOptions); ok {
		var err error
		if opts, err = in.evalOptions(o); err != nil {
			return nil, err
		}
		callee = o.Callee
	}
	if ne, ok := callee.(*ast.NewExpression); ok {
		return in.evalNew(x, ne, opts)
	}
	fv, err := in.Eval(callee)
	if err != nil {
		return nil, err
	}
	switch f := fv.(type) {
	case values.BuiltinFunction:
		args, err := in.evalArgs(x, nil)
		if err != nil {
			return nil, err
		}
		return in.callBuiltin(x, f, args, opts)
	case values.InternalFunction:
		if f.Def == nil {
			return nil, in.panicError(PanicZeroFunction)
		}
		args, err := in.evalArgs(x, f.Def.Parameters)
		if err != nil {
			return nil, err
		}
		rets, err := in.CallInternal(f.Def, args)
		if err != nil {
			return nil, err
		}
		return packValues(rets), nil
	case values.ExternalFunction:
		var params []*ast.VariableDeclaration
		if f.Def != nil {
			params = f.Def.Parameters
		}
		args, err := in.evalArgs(x, params)
		if err != nil {
			return nil, err
		}
		res, rets, err := in.callExternal(x, callee, f, args, opts)
		if err != nil {
			return nil, err
		}
		if res.Err != nil || res.Reverted {
			return nil, revertError(res.Data)
		}
		return packValues(rets), nil
	}
	return nil, internalf(x, "unhandled callee %v", fv)
}

// evalArgs evaluates the arguments in source order and, for calls with named
// arguments, returns them in parameter order.
func (in *Interpreter) evalArgs(x *ast.FunctionCall, params []*ast.VariableDeclaration) ([]values.Value, error) {
	args := make([]values.Value, len(x.Arguments))
	for i, a := range x.Arguments {
		v, err := in.Eval(a)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	if len(x.Names) == 0 {
		return args, nil
	}
	if len(params) != len(args) {
		return nil, internalf(x, "named arguments do not match the parameters")
	}
	ordered := make([]values.Value, len(params))
	for i, name := range x.Names {
		found := false
		for j, p := range params {
			if p.Name == name {
				ordered[j] = args[i]
				found = true
				break
			}
		}
		if !found {
			return nil, internalf(x, "no parameter named %s", name)
		}
	}
	return ordered, nil
}

// CallInternal runs fn in the current execution: a fresh local scope bound over
// the function's contract holds the parameters and the return variables.
func (in *Interpreter) CallInternal(fn *ast.FunctionDefinition, args []values.Value) ([]values.Value, error) {
	s := in.state
	if len(args) != len(fn.Parameters) {
		return nil, internalf(fn, "%s takes %d arguments, got %d", fn.Name, len(fn.Parameters), len(args))
	}
	if fn.Body == nil {
		return nil, internalf(fn, "function %s has no body", fn.Name)
	}
	outer, err := in.scopeFor(fn)
	if err != nil {
		return nil, err
	}
	locals := scope.NewLocals(outer, fn)
	for i, p := range fn.Parameters {
		v, err := in.coerce(p, args[i], p.Type)
		if err != nil {
			return nil, err
		}
		name := p.Name
		if name == "" {
			name = fmt.Sprintf("$arg%d", i)
		}
		if err := locals.Declare(name, p.Type, v); err != nil {
			return nil, internal(p, err)
		}
	}
	returns := make([]string, len(fn.Returns))
	for i, r := range fn.Returns {
		name := r.Name
		if name == "" {
			name = fmt.Sprintf("$ret%d", i)
		}
		returns[i] = name
		zero, err := in.zeroLocal(r, r.Type)
		if err != nil {
			return nil, err
		}
		if err := locals.Declare(name, r.Type, zero); err != nil {
			return nil, internal(r, err)
		}
	}

	prev := s.pushScope(locals)
	s.frames = append(s.frames, &frame{fn: fn, locals: locals, returns: returns})
	s.Internal = append(s.Internal, fn)
	unchecked := s.unchecked
	s.unchecked = 0
	in.notifyCall(fn, args)
	flow, err := in.Exec(fn.Body)
	s.unchecked = unchecked
	s.Internal = s.Internal[:len(s.Internal)-1]
	s.frames = s.frames[:len(s.frames)-1]
	s.restoreScope(prev)
	if err != nil {
		in.notifyException(err)
		return nil, err
	}
	if flow == Break || flow == Continue {
		return nil, internalf(fn, "%s escaped function %s", flow, fn.Name)
	}
	rets := make([]values.Value, len(returns))
	for i, name := range returns {
		v, _ := locals.Lookup(name)
		rets[i] = v
	}
	in.notifyReturn(fn, rets)
	return rets, nil
}

// zeroLocal is the initial value of a local of type t. Memory references get a
// freshly allocated zero object; storage references start unbound.
func (in *Interpreter) zeroLocal(node ast.Node, t soltypes.Type) (values.Value, error) {
	if p, ok := t.(soltypes.PointerType); ok {
		if p.Location != soltypes.Memory {
			return values.None{}, nil
		}
		mv, err := in.state.Memory.Allocate(p.To, values.Zero(p.To))
		if err != nil {
			return nil, in.classify(node, err)
		}
		return mv, nil
	}
	return values.Zero(t), nil
}

// callExternal sends a message to the function's account and decodes what comes back.
// The result is returned as is so that try/catch can inspect failures.
func (in *Interpreter) callExternal(x *ast.FunctionCall, callee ast.Expression, f values.ExternalFunction, args []values.Value, opts *callOptions) (*vmtypes.CallResult, []values.Value, error) {
	var params, returns []soltypes.Type
	mutability := ""
	if ft, ok := callee.StaticType().(soltypes.FunctionType); ok {
		params, returns, mutability = ft.Params, ft.Returns, ft.Mutability
	}
	if f.Def != nil {
		params, returns, mutability = f.Def.ParamTypes(), f.Def.ReturnTypes(), f.Def.Mutability
	}
	if len(params) != len(args) {
		params = argTypes(x)
	}
	data, err := abi.EncodeWithSelector(f.Selector, args, params)
	if err != nil {
		return nil, nil, internal(x, err)
	}
	msg := in.message(f.Address, data, opts.value)
	if f.Delegate {
		lib := f.Address
		msg.To = in.state.Address
		msg.Delegate = &lib
		msg.From = in.state.Msg.From
		msg.Value = in.state.Msg.CallValue()
	} else if (mutability == "view" || mutability == "pure") && ast.VersionAtLeast(in.infer.Version(), ast.VersionBlockScoping) {
		msg.Static = true
	}
	res, err := in.world.Call(msg)
	if err != nil {
		return nil, nil, err
	}
	in.state.ReturnData = res.Data
	if res.Err != nil || res.Reverted {
		return res, nil, nil
	}
	rets, err := abi.Decode(res.Data, returns, 0, abi.Target{Mem: in.state.Memory, Store: in.state.Store})
	if err != nil {
		return nil, nil, internal(x, err)
	}
	for _, r := range rets {
		if values.HasPoison(r) {
			return nil, nil, revertError(nil)
		}
	}
	return res, rets, nil
}

func (in *Interpreter) evalNew(x *ast.FunctionCall, ne *ast.NewExpression, opts *callOptions) (values.Value, error) {
	args, err := in.evalArgs(x, nil)
	if err != nil {
		return nil, err
	}
	switch t := soltypes.Deref(ne.TypeName).(type) {
	case soltypes.ContractType:
		return in.createContract(x, t.Name, args, opts)
	case soltypes.ArrayType, soltypes.BytesType, soltypes.StringType:
		if len(args) != 1 {
			return nil, internalf(x, "new %s takes a length", t)
		}
		n, ok := values.AsInt(args[0])
		if !ok {
			return nil, internalf(x, "length %v", args[0])
		}
		if n.Cmp(maxNewLength) > 0 {
			return nil, in.panicError(PanicAllocation)
		}
		var zero values.Value
		if at, ok := t.(soltypes.ArrayType); ok {
			elems := make([]values.Value, n.Int64())
			for i := range elems {
				elems[i] = values.Zero(at.Elem)
			}
			zero = values.Composite{Elems: elems}
		} else {
			zero = values.Bytes(make([]byte, n.Int64()))
		}
		mv, err := in.state.Memory.Allocate(t, zero)
		if err != nil {
			return nil, in.classify(x, err)
		}
		return mv, nil
	}
	return nil, internalf(x, "new %s not supported", ne.TypeName)
}

// createContract deploys a contract from within a running one.
func (in *Interpreter) createContract(x *ast.FunctionCall, name string, args []values.Value, opts *callOptions) (values.Value, error) {
	res, err := in.create(x, name, args, opts)
	if err != nil {
		return nil, err
	}
	if res.Err != nil || res.Reverted {
		return nil, revertError(res.Data)
	}
	return values.NewAddress(res.CreatedAddress), nil
}

func (in *Interpreter) create(x *ast.FunctionCall, name string, args []values.Value, opts *callOptions) (*vmtypes.CallResult, error) {
	art, ok := in.world.Registry().ByName(name)
	if !ok {
		return nil, internalf(x, "no artifact for %s", name)
	}
	code, err := art.Link(in.world.Libraries())
	if err != nil {
		return nil, internal(x, err)
	}
	var params []soltypes.Type
	if ctor := art.Contract.Constructor(); ctor != nil {
		params = ctor.ParamTypes()
	}
	enc, err := abi.Encode(args, params)
	if err != nil {
		return nil, internal(x, err)
	}
	msg := in.message(common.ZeroAddress, append(code, enc...), opts.value)
	msg.Salt = opts.salt
	res, err := in.world.Create(msg)
	if err != nil {
		return nil, err
	}
	in.state.ReturnData = res.Data
	return res, nil
}

func (in *Interpreter) evalStructConstructor(x *ast.FunctionCall) (values.Value, error) {
	callee, err := in.Eval(x.Callee)
	if err != nil {
		return nil, err
	}
	tr, ok := callee.(values.TypeRef)
	if !ok {
		return nil, internalf(x, "struct constructor callee %v", callee)
	}
	st, ok := tr.Type.(*soltypes.StructType)
	if !ok {
		return nil, internalf(x, "%s is not a struct", tr.Type)
	}
	fields := soltypes.WireFields(st)
	decls := make([]*ast.VariableDeclaration, len(fields))
	for i, f := range fields {
		decls[i] = &ast.VariableDeclaration{Name: f.Name, Type: f.Type}
	}
	args, err := in.evalArgs(x, decls)
	if err != nil {
		return nil, err
	}
	if len(args) != len(fields) {
		return nil, internalf(x, "struct %s takes %d members, got %d", st.Name, len(fields), len(args))
	}
	c := values.Composite{Elems: make([]values.Value, len(fields)), Names: make([]string, len(fields))}
	for i, f := range fields {
		v := values.Load(args[i])
		if values.HasPoison(v) {
			return nil, revertError(nil)
		}
		c.Elems[i] = implicitValue(v, f.Type)
		c.Names[i] = f.Name
	}
	mv, err := in.state.Memory.Allocate(st, c)
	if err != nil {
		return nil, in.classify(x, err)
	}
	return mv, nil
}

func (in *Interpreter) evalConversion(x *ast.FunctionCall) (values.Value, error) {
	callee, err := in.Eval(x.Callee)
	if err != nil {
		return nil, err
	}
	tr, ok := callee.(values.TypeRef)
	if !ok || len(x.Arguments) != 1 {
		return nil, internalf(x, "conversion to %v", callee)
	}
	arg, err := in.Eval(x.Arguments[0])
	if err != nil {
		return nil, err
	}
	return in.convert(x, arg, tr.Type)
}

// convert implements explicit conversions. Reference conversions keep the location.
func (in *Interpreter) convert(node ast.Node, v values.Value, to soltypes.Type) (values.Value, error) {
	t := soltypes.Deref(to)
	if !soltypes.IsValueType(t) {
		switch t.(type) {
		case soltypes.BytesType, soltypes.StringType:
			if fb, ok := values.Load(v).(values.FixedBytes); ok {
				return values.Bytes(common.CopyBytes(fb)), nil
			}
		}
		return v, nil
	}
	val := values.Load(v)
	switch x := t.(type) {
	case soltypes.IntType:
		n, ok := intOf(val)
		if !ok {
			break
		}
		return values.Int{V: math.Wrap(n, x.Bits, x.Signed)}, nil
	case *soltypes.EnumType:
		n, ok := intOf(val)
		if !ok {
			break
		}
		if n.Sign() < 0 || n.Cmp(big.NewInt(int64(len(x.Members)))) >= 0 {
			return nil, in.panicError(PanicEnumRange)
		}
		return values.Int{V: n}, nil
	case soltypes.AddressType, soltypes.ContractType:
		switch y := val.(type) {
		case values.Address:
			return y, nil
		case values.Int:
			return values.NewAddress(common.BigToAddress(math.Wrap(y.V, 160, false))), nil
		case values.FixedBytes:
			return values.NewAddress(common.BytesToAddress(y)), nil
		}
	case soltypes.FixedBytesType:
		switch y := val.(type) {
		case values.FixedBytes:
			return values.FixedBytes(common.RightPadBytes(y, x.Size)[:x.Size]), nil
		case values.Bytes:
			return values.FixedBytes(common.RightPadBytes(y, x.Size)[:x.Size]), nil
		case values.Int:
			w := math.ToWord(y.V)
			return values.FixedBytes(common.CopyBytes(w[soltypes.SlotSize-x.Size:])), nil
		case values.Address:
			return values.FixedBytes(common.RightPadBytes(y.Bytes[:], x.Size)[:x.Size]), nil
		}
	case soltypes.BoolType:
		if b, ok := val.(values.Bool); ok {
			return b, nil
		}
	case soltypes.FunctionType:
		return val, nil
	}
	return nil, internalf(node, "conversion of %v to %s not supported", val, to)
}

// intOf reads the integer behind integer, address and bytesN values.
func intOf(v values.Value) (*big.Int, bool) {
	switch y := v.(type) {
	case values.Int:
		return y.V, true
	case values.Address:
		return y.Big(), true
	case values.FixedBytes:
		return new(big.Int).SetBytes(y), true
	}
	return nil, false
}

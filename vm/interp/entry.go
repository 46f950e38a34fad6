package interp

import (
	"github.com/annchain/solinterp/vm/abi"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/scope"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/annchain/solinterp/vm/values"
)

// Create runs the creation of the executing contract. ctorArgs is the ABI encoded
// constructor argument tuple that followed the creation code. Every contract of
// the hierarchy, most base first, initializes its state variables and then runs
// its constructor.
func (in *Interpreter) Create(ctorArgs []byte) error {
	s := in.state
	def := s.Contract
	ctor := def.Constructor()
	if s.Msg.CallValue().Sign() > 0 && (ctor == nil || ctor.Mutability != "payable") {
		return revertError(nil)
	}
	baseArgs := map[*ast.ContractDefinition][]values.Value{}
	for _, c := range def.Linearized {
		for _, spec := range c.Bases {
			if len(spec.Arguments) == 0 {
				continue
			}
			if _, ok := baseArgs[spec.Base]; ok {
				continue
			}
			args, err := in.evalArguments(spec.Arguments)
			if err != nil {
				return err
			}
			baseArgs[spec.Base] = args
		}
	}
	if ctor != nil {
		args, err := abi.Decode(ctorArgs, ctor.ParamTypes(), 0, abi.Target{Mem: s.Memory, Store: s.Store})
		if err != nil {
			return internal(ctor, err)
		}
		for _, a := range args {
			if values.HasPoison(a) {
				return revertError(nil)
			}
		}
		baseArgs[def] = args
	}
	for i := len(def.Linearized) - 1; i >= 0; i-- {
		c := def.Linearized[i]
		if err := in.initialize(c); err != nil {
			return err
		}
		ctor := c.Constructor()
		if ctor == nil {
			continue
		}
		args, ok := baseArgs[c]
		if !ok && len(ctor.Parameters) > 0 {
			return internalf(ctor, "no arguments for the constructor of %s", c.Name)
		}
		if _, err := in.CallInternal(ctor, args); err != nil {
			return err
		}
	}
	return nil
}

// initialize stores the initial values of the state variables c declares.
func (in *Interpreter) initialize(c *ast.ContractDefinition) error {
	for _, v := range c.StateVariables {
		if v.Constant || v.Value == nil {
			continue
		}
		view, ok := in.state.contract.Variable(v.Name)
		if !ok {
			return internalf(v, "state variable %s has no storage", v.Name)
		}
		val, err := in.Eval(v.Value)
		if err != nil {
			return err
		}
		if _, err := in.assign(v, view, val); err != nil {
			return err
		}
	}
	return nil
}

// Call dispatches calldata to the matching external function or public getter,
// then to receive and fallback. It returns the ABI encoded result.
func (in *Interpreter) Call(data []byte) ([]byte, error) {
	s := in.state
	def := s.Contract
	if len(data) >= 4 {
		var sel [4]byte
		copy(sel[:], data[:4])
		fn, getter := in.dispatch(sel)
		switch {
		case fn != nil:
			return in.callEntry(fn, data[4:])
		case getter != nil:
			if s.Msg.CallValue().Sign() > 0 {
				return nil, revertError(nil)
			}
			return in.callGetter(getter, data[4:])
		}
	}
	if len(data) == 0 {
		if recv := def.SpecialFunction(ast.KindReceive); recv != nil {
			_, err := in.CallInternal(recv, nil)
			return nil, err
		}
	}
	fallback := def.SpecialFunction(ast.KindFallback)
	if fallback == nil {
		return nil, revertError(nil)
	}
	if s.Msg.CallValue().Sign() > 0 && fallback.Mutability != "payable" {
		return nil, revertError(nil)
	}
	var args []values.Value
	if len(fallback.Parameters) == 1 {
		args = []values.Value{values.Bytes(data)}
	}
	rets, err := in.CallInternal(fallback, args)
	if err != nil {
		return nil, err
	}
	if len(rets) == 1 {
		out, _ := values.AsBytes(rets[0])
		return out, nil
	}
	return nil, nil
}

// dispatch finds the function or public state variable answering sel. The most
// derived definition of a selector wins.
func (in *Interpreter) dispatch(sel [4]byte) (*ast.FunctionDefinition, *ast.VariableDeclaration) {
	seen := map[[4]byte]bool{}
	for _, c := range in.state.Contract.Linearized {
		for _, f := range c.Functions {
			if !f.IsExternallyVisible() {
				continue
			}
			fs := in.infer.Selector(f)
			if seen[fs] {
				continue
			}
			seen[fs] = true
			if fs == sel {
				return f, nil
			}
		}
		for _, v := range c.StateVariables {
			if v.Visibility != ast.VisibilityPublic {
				continue
			}
			vs := in.infer.GetterSelector(v)
			if seen[vs] {
				continue
			}
			seen[vs] = true
			if vs == sel {
				return nil, v
			}
		}
	}
	return nil, nil
}

func (in *Interpreter) callEntry(fn *ast.FunctionDefinition, input []byte) ([]byte, error) {
	s := in.state
	if s.Msg.CallValue().Sign() > 0 && fn.Mutability != "payable" {
		return nil, revertError(nil)
	}
	args, err := abi.Decode(input, fn.ParamTypes(), 0, abi.Target{Mem: s.Memory, Store: s.Store})
	if err != nil {
		return nil, internal(fn, err)
	}
	for _, a := range args {
		if values.HasPoison(a) {
			return nil, revertError(nil)
		}
	}
	rets, err := in.CallInternal(fn, args)
	if err != nil {
		return nil, err
	}
	out, err := abi.Encode(rets, fn.ReturnTypes())
	if err != nil {
		return nil, internal(fn, err)
	}
	return out, nil
}

// callGetter reads a public state variable: one argument per mapping or array
// level, then the value itself or, for structs, its members one by one.
func (in *Interpreter) callGetter(v *ast.VariableDeclaration, input []byte) ([]byte, error) {
	s := in.state
	types, names := in.infer.GetterReturns(v)
	if v.Constant {
		val, _, err := scope.Lookup(s.head, v.Name)
		if err != nil {
			return nil, internal(v, err)
		}
		out, err := abi.Encode([]values.Value{val}, types)
		if err != nil {
			return nil, internal(v, err)
		}
		return out, nil
	}
	args, err := abi.Decode(input, in.infer.GetterArgs(v), 0, abi.Target{Mem: s.Memory, Store: s.Store})
	if err != nil {
		return nil, internal(v, err)
	}
	view, ok := s.contract.Variable(v.Name)
	if !ok {
		return nil, internalf(v, "state variable %s has no storage", v.Name)
	}
	var cur values.View = view
	for _, a := range args {
		if values.HasPoison(a) {
			return nil, revertError(nil)
		}
		idx, ok := cur.(values.Indexable)
		if !ok {
			return nil, internalf(v, "getter of %s cannot index %s", v.Name, cur.Type())
		}
		next, err := idx.Index(values.Load(a))
		if err != nil {
			if _, ok := AsRuntimeError(in.classify(v, err)); ok {
				return nil, revertError(nil)
			}
			return nil, internal(v, err)
		}
		cur = next
	}
	var rets []values.Value
	if _, ok := soltypes.Deref(cur.Type()).(*soltypes.StructType); ok {
		st, ok := cur.(values.Structured)
		if !ok {
			return nil, internalf(v, "struct %s is not addressable", cur.Type())
		}
		for _, name := range names {
			f, err := st.Field(name)
			if err != nil {
				return nil, internal(v, err)
			}
			rets = append(rets, in.rvalue(f))
		}
	} else {
		rets = []values.Value{in.rvalue(cur)}
	}
	out, err := abi.Encode(rets, types)
	if err != nil {
		return nil, internal(v, err)
	}
	return out, nil
}

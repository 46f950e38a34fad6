package interp

import (
	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/crypto"
	"github.com/annchain/solinterp/vm/abi"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/scope"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/annchain/solinterp/vm/values"
	vmtypes "github.com/annchain/solinterp/vm/types"
	"github.com/pkg/errors"
)

// Exec runs one statement and reports how control leaves it.
func (in *Interpreter) Exec(stmt ast.Statement) (Flow, error) {
	in.state.record(stmt, nil)
	in.notifyExec(stmt)
	return in.exec(stmt)
}

func (in *Interpreter) exec(stmt ast.Statement) (Flow, error) {
	switch x := stmt.(type) {
	case *ast.Block:
		return in.execBlock(x)
	case *ast.VariableDeclarationStatement:
		return Fallthrough, in.execDeclaration(x)
	case *ast.ExpressionStatement:
		_, err := in.Eval(x.Expression)
		return Fallthrough, err
	case *ast.IfStatement:
		b, err := in.condition(x.Condition)
		if err != nil {
			return Fallthrough, err
		}
		if b {
			return in.Exec(x.True)
		}
		if x.False != nil {
			return in.Exec(x.False)
		}
		return Fallthrough, nil
	case *ast.ForStatement:
		return in.execFor(x)
	case *ast.WhileStatement:
		return in.loop(x.Condition, x.Body, nil, false)
	case *ast.DoWhileStatement:
		return in.loop(x.Condition, x.Body, nil, true)
	case *ast.Break:
		return Break, nil
	case *ast.Continue:
		return Continue, nil
	case *ast.Return:
		return Return, in.execReturn(x)
	case *ast.EmitStatement:
		return Fallthrough, in.execEmit(x)
	case *ast.RevertStatement:
		return Fallthrough, in.execRevert(x)
	case *ast.TryStatement:
		return in.execTry(x)
	case *ast.InlineAssembly:
		return Fallthrough, internalf(x, "inline assembly not supported")
	}
	return Fallthrough, internalf(stmt, "statement %T not supported", stmt)
}

func (in *Interpreter) condition(e ast.Expression) (bool, error) {
	v, err := in.Eval(e)
	if err != nil {
		return false, err
	}
	b, ok := values.AsBool(v)
	if !ok {
		return false, internalf(e, "condition is %v", v)
	}
	return b, nil
}

func (in *Interpreter) execBlock(b *ast.Block) (Flow, error) {
	s := in.state
	if b.Unchecked {
		s.unchecked++
		defer func() { s.unchecked-- }()
	}
	locals := scope.NewLocals(s.head, b)
	for _, d := range scope.BlockDeclarations(b, in.infer.Version()) {
		zero, err := in.zeroLocal(d, d.Type)
		if err != nil {
			return Fallthrough, err
		}
		if err := locals.Declare(d.Name, d.Type, zero); err != nil {
			return Fallthrough, internal(d, err)
		}
	}
	prev := s.pushScope(locals)
	defer s.restoreScope(prev)
	for _, stmt := range b.Statements {
		flow, err := in.Exec(stmt)
		if err != nil || flow != Fallthrough {
			return flow, err
		}
	}
	return Fallthrough, nil
}

func (in *Interpreter) execFor(x *ast.ForStatement) (Flow, error) {
	prev := in.state.head
	defer in.state.restoreScope(prev)
	if x.Init != nil {
		if _, err := in.Exec(x.Init); err != nil {
			return Fallthrough, err
		}
	}
	return in.loop(x.Condition, x.Body, x.Loop, false)
}

// loop runs body while cond holds; post runs after every iteration that was not broken out of.
func (in *Interpreter) loop(cond ast.Expression, body, post ast.Statement, bodyFirst bool) (Flow, error) {
	for first := true; ; first = false {
		if cond != nil && !(bodyFirst && first) {
			ok, err := in.condition(cond)
			if err != nil {
				return Fallthrough, err
			}
			if !ok {
				return Fallthrough, nil
			}
		}
		flow, err := in.Exec(body)
		if err != nil {
			return Fallthrough, err
		}
		switch flow {
		case Break:
			return Fallthrough, nil
		case Return:
			return Return, nil
		}
		if post != nil {
			if _, err := in.Exec(post); err != nil {
				return Fallthrough, err
			}
		}
	}
}

// execDeclaration binds new locals. From 0.5.0 the statement opens a scope that
// lasts until the enclosing block ends; older dialects assign the locals the
// enclosing block declared on entry.
func (in *Interpreter) execDeclaration(x *ast.VariableDeclarationStatement) error {
	s := in.state
	vals := make([]values.Value, len(x.Declarations))
	if x.Initial != nil {
		v, err := in.Eval(x.Initial)
		if err != nil {
			return err
		}
		if len(x.Declarations) == 1 {
			vals[0] = v
		} else {
			c, ok := v.(values.Composite)
			if !ok || len(c.Elems) != len(x.Declarations) {
				return internalf(x, "cannot destructure %v into %d variables", v, len(x.Declarations))
			}
			copy(vals, c.Elems)
		}
	}
	var fresh *scope.Locals
	for i, d := range x.Declarations {
		if d == nil {
			continue
		}
		var v values.Value
		var err error
		if x.Initial == nil {
			v, err = in.zeroLocal(d, d.Type)
		} else {
			v, err = in.coerce(d, vals[i], d.Type)
		}
		if err != nil {
			return err
		}
		if !ast.VersionAtLeast(in.infer.Version(), ast.VersionBlockScoping) {
			if owner, _ := scope.Find(s.head, d.Name); owner != nil {
				if locals, ok := owner.(*scope.Locals); ok {
					if err := locals.Set(d.Name, v); err != nil {
						return internal(d, err)
					}
					continue
				}
			}
		}
		if fresh == nil {
			fresh = scope.NewLocals(s.head, x)
		}
		if err := fresh.Declare(d.Name, d.Type, v); err != nil {
			return internal(d, err)
		}
	}
	if fresh != nil {
		s.pushScope(fresh)
	}
	return nil
}

func (in *Interpreter) execReturn(x *ast.Return) error {
	if x.Expression == nil {
		return nil
	}
	f := in.state.currentFrame()
	if f == nil {
		return internalf(x, "return outside a function")
	}
	v, err := in.Eval(x.Expression)
	if err != nil {
		return err
	}
	vals := []values.Value{v}
	if len(f.returns) != 1 {
		c, ok := v.(values.Composite)
		if !ok || len(c.Elems) != len(f.returns) {
			return internalf(x, "%s returns %d values, got %v", f.fn.Name, len(f.returns), v)
		}
		vals = c.Elems
	}
	for i, name := range f.returns {
		conv, err := in.coerce(x, vals[i], f.fn.Returns[i].Type)
		if err != nil {
			return err
		}
		if err := f.locals.Set(name, conv); err != nil {
			return internal(x, err)
		}
	}
	return nil
}

func (in *Interpreter) evalArguments(args []ast.Expression) ([]values.Value, error) {
	vals := make([]values.Value, len(args))
	for i, a := range args {
		v, err := in.Eval(a)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func (in *Interpreter) execEmit(x *ast.EmitStatement) error {
	ev := x.Event
	if ev == nil || len(ev.Parameters) != len(x.Arguments) {
		return internalf(x, "emit does not match its event")
	}
	args, err := in.evalArguments(x.Arguments)
	if err != nil {
		return err
	}
	if in.state.Store.ReadOnly {
		return revertError(nil)
	}
	var topics []common.Hash
	if !ev.Anonymous {
		topics = append(topics, in.infer.EventTopic(ev))
	}
	var data []values.Value
	var dataTypes []soltypes.Type
	for i, p := range ev.Parameters {
		if !p.Indexed {
			data = append(data, args[i])
			dataTypes = append(dataTypes, p.Type)
			continue
		}
		topic, err := indexedTopic(args[i], p.Type)
		if err != nil {
			return internal(x, err)
		}
		topics = append(topics, topic)
	}
	enc, err := abi.Encode(data, dataTypes)
	if err != nil {
		return internal(x, err)
	}
	in.world.StateDB().AddLog(&vmtypes.Log{Address: in.state.Address, Topics: topics, Data: enc})
	return nil
}

// indexedTopic is the word stored for an indexed event argument: value types
// are stored as their encoding, bytes and string as the hash of their contents
// and other reference types as the hash of their encoding.
func indexedTopic(v values.Value, t soltypes.Type) (common.Hash, error) {
	switch soltypes.Deref(t).(type) {
	case soltypes.BytesType, soltypes.StringType:
		b, ok := values.AsBytes(v)
		if !ok {
			return common.Hash{}, errors.Errorf("indexed %s is %v", t, v)
		}
		return crypto.Keccak256Hash(b), nil
	}
	enc, err := abi.Encode([]values.Value{v}, []soltypes.Type{t})
	if err != nil {
		return common.Hash{}, err
	}
	if soltypes.IsValueType(soltypes.Deref(t)) {
		return common.BytesToHash(enc), nil
	}
	return crypto.Keccak256Hash(enc), nil
}

func (in *Interpreter) execRevert(x *ast.RevertStatement) error {
	if x.Error == nil {
		return internalf(x, "revert without an error definition")
	}
	args, err := in.evalArguments(x.Arguments)
	if err != nil {
		return err
	}
	types := make([]soltypes.Type, len(x.Error.Parameters))
	for i, p := range x.Error.Parameters {
		types[i] = p.Type
	}
	payload, err := abi.EncodeWithSelector(in.infer.ErrorSelector(x.Error), args, types)
	if err != nil {
		return internal(x, err)
	}
	return revertError(payload)
}

// execTry performs the guarded external call and runs the clause matching its outcome.
// Failures no clause matches are rethrown with the callee's revert data.
func (in *Interpreter) execTry(x *ast.TryStatement) (Flow, error) {
	res, rets, err := in.tryCall(x.Call)
	if err != nil {
		return Fallthrough, err
	}
	if res.Err == nil && !res.Reverted {
		for _, c := range x.Clauses {
			if c.Success {
				return in.execClause(c, rets)
			}
		}
		return Fallthrough, nil
	}
	target := abi.Target{Mem: in.state.Memory, Store: in.state.Store}
	for _, c := range x.Clauses {
		if c.Success {
			continue
		}
		switch c.Kind {
		case "Error":
			if vals, ok := abi.DecodesWithSelector(abi.ErrorSelector, res.Data, []soltypes.Type{soltypes.String}, target); ok {
				return in.execClause(c, vals)
			}
		case "Panic":
			if vals, ok := abi.DecodesWithSelector(abi.PanicSelector, res.Data, []soltypes.Type{soltypes.Uint256}, target); ok {
				return in.execClause(c, vals)
			}
		default:
			return in.execClause(c, []values.Value{values.Bytes(common.CopyBytes(res.Data))})
		}
	}
	return Fallthrough, revertError(res.Data)
}

func (in *Interpreter) tryCall(call *ast.FunctionCall) (*vmtypes.CallResult, []values.Value, error) {
	callee := call.Callee
	opts := &callOptions{}
	if o, ok := callee.(*ast.FunctionCallOptions); ok {
		var err error
		if opts, err = in.evalOptions(o); err != nil {
			return nil, nil, err
		}
		callee = o.Callee
	}
	if ne, ok := callee.(*ast.NewExpression); ok {
		ct, ok := soltypes.Deref(ne.TypeName).(soltypes.ContractType)
		if !ok {
			return nil, nil, internalf(call, "try new %s", ne.TypeName)
		}
		args, err := in.evalArgs(call, nil)
		if err != nil {
			return nil, nil, err
		}
		res, err := in.create(call, ct.Name, args, opts)
		if err != nil {
			return nil, nil, err
		}
		return res, []values.Value{values.NewAddress(res.CreatedAddress)}, nil
	}
	fv, err := in.Eval(callee)
	if err != nil {
		return nil, nil, err
	}
	f, ok := fv.(values.ExternalFunction)
	if !ok {
		return nil, nil, internalf(call, "try requires an external call, got %v", fv)
	}
	var params []*ast.VariableDeclaration
	if f.Def != nil {
		params = f.Def.Parameters
	}
	args, err := in.evalArgs(call, params)
	if err != nil {
		return nil, nil, err
	}
	return in.callExternal(call, callee, f, args, opts)
}

// execClause binds the clause parameters in their own scope and runs its block.
func (in *Interpreter) execClause(c *ast.TryCatchClause, vals []values.Value) (Flow, error) {
	s := in.state
	locals := scope.NewLocals(s.head, c)
	for i, p := range c.Parameters {
		if p == nil || p.Name == "" || i >= len(vals) {
			continue
		}
		v, err := in.coerce(p, vals[i], p.Type)
		if err != nil {
			return Fallthrough, err
		}
		if err := locals.Declare(p.Name, p.Type, v); err != nil {
			return Fallthrough, internal(p, err)
		}
	}
	prev := s.pushScope(locals)
	defer s.restoreScope(prev)
	return in.Exec(c.Block)
}

package interp

import (
	"math/big"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/common/crypto"
	"github.com/annchain/solinterp/common/math"
	"github.com/annchain/solinterp/vm/abi"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/infer"
	"github.com/annchain/solinterp/vm/poly"
	"github.com/annchain/solinterp/vm/soltypes"
	"github.com/annchain/solinterp/vm/values"
	vmtypes "github.com/annchain/solinterp/vm/types"
	"github.com/holiman/uint256"
)

// Gas is not metered. These are the constants the gas builtins report.
var (
	gasLeft  = big.NewInt(1 << 40)
	gasLimit = big.NewInt(30000000)
)

var builtinFunctions = []string{
	"assert", "require", "revert",
	"keccak256", "sha3", "sha256", "ripemd160", "ecrecover",
	"addmod", "mulmod", "gasleft", "blockhash", "type",
}

var builtinStructs = []string{"msg", "block", "tx", "abi", "this", "super", "now"}

func builtinTable() map[string]values.Value {
	table := make(map[string]values.Value, len(builtinFunctions)+len(builtinStructs))
	for _, name := range builtinFunctions {
		table[name] = values.BuiltinFunction{Name: name}
	}
	for _, name := range builtinStructs {
		table[name] = values.BuiltinStruct{Name: name}
	}
	return table
}

// defineGlobals binds the type names, free functions and constants visible to
// every function of the executing contract.
func (in *Interpreter) defineGlobals() error {
	g := in.state.Globals
	def := in.state.Contract
	define := func(name string, v values.Value) error {
		if g.Names().Contains(name) {
			return nil
		}
		return g.Define(name, v)
	}
	unit := def.Unit
	if unit != nil {
		for _, c := range unit.Contracts {
			if err := define(c.Name, values.TypeRef{Type: soltypes.ContractType{Name: c.Name, Library: c.IsLibrary()}}); err != nil {
				return internal(c, err)
			}
		}
		for _, st := range unit.Structs {
			if err := define(st.Name, values.TypeRef{Type: st}); err != nil {
				return internal(unit, err)
			}
		}
		for _, e := range unit.Enums {
			if err := define(e.Name, values.TypeRef{Type: e}); err != nil {
				return internal(unit, err)
			}
		}
		for _, f := range unit.Functions {
			if err := define(f.Name, values.InternalFunction{Def: f}); err != nil {
				return internal(f, err)
			}
		}
	}
	for _, c := range def.Linearized {
		for _, st := range c.Structs {
			if err := define(st.Name, values.TypeRef{Type: st}); err != nil {
				return internal(c, err)
			}
		}
		for _, e := range c.Enums {
			if err := define(e.Name, values.TypeRef{Type: e}); err != nil {
				return internal(c, err)
			}
		}
	}
	if unit != nil {
		for _, d := range unit.Constants {
			v, err := in.constantValue(d)
			if err != nil {
				return err
			}
			if err := define(d.Name, v); err != nil {
				return internal(d, err)
			}
		}
	}
	for i := len(def.Linearized) - 1; i >= 0; i-- {
		for _, d := range def.Linearized[i].StateVariables {
			if !d.Constant {
				continue
			}
			v, err := in.constantValue(d)
			if err != nil {
				return err
			}
			if err := define(d.Name, v); err != nil {
				return internal(d, err)
			}
		}
	}
	return nil
}

func (in *Interpreter) constantValue(d *ast.VariableDeclaration) (values.Value, error) {
	if d.Value == nil {
		return nil, internalf(d, "constant %s has no value", d.Name)
	}
	v, err := in.Eval(d.Value)
	if err != nil {
		return nil, err
	}
	return in.coerce(d, v, d.Type)
}

// builtinValue turns the pseudo-variables this, now and super into values.
func (in *Interpreter) builtinValue(bs values.BuiltinStruct) values.Value {
	switch bs.Name {
	case "this":
		return values.NewAddress(in.state.Address)
	case "now":
		return values.Int{V: new(big.Int).SetUint64(in.world.Config().Timestamp)}
	}
	return bs
}

func (in *Interpreter) builtinMember(x *ast.MemberAccess, bs values.BuiltinStruct) (values.Value, error) {
	msg := in.state.Msg
	cfg := in.world.Config()
	switch bs.Name + "." + x.Member {
	case "msg.sender":
		return values.NewAddress(msg.From), nil
	case "msg.value":
		return values.Int{V: new(big.Int).Set(msg.CallValue())}, nil
	case "msg.data":
		return values.Bytes(common.CopyBytes(msg.Data)), nil
	case "msg.sig":
		sig := make([]byte, 4)
		copy(sig, msg.Data)
		return values.FixedBytes(sig), nil
	case "msg.gas":
		return values.Int{V: new(big.Int).Set(gasLeft)}, nil
	case "tx.origin":
		if msg.Origin.IsZero() {
			return values.NewAddress(msg.From), nil
		}
		return values.NewAddress(msg.Origin), nil
	case "tx.gasprice", "block.difficulty", "block.prevrandao", "block.basefee":
		return values.NewInt(0), nil
	case "block.number":
		return values.Int{V: new(big.Int).SetUint64(cfg.BlockNumber)}, nil
	case "block.timestamp":
		return values.Int{V: new(big.Int).SetUint64(cfg.Timestamp)}, nil
	case "block.coinbase":
		return values.NewAddress(common.HexToAddress(cfg.Coinbase)), nil
	case "block.chainid":
		return values.Int{V: new(big.Int).SetUint64(cfg.ChainID)}, nil
	case "block.gaslimit":
		return values.Int{V: new(big.Int).Set(gasLimit)}, nil
	}
	switch bs.Name {
	case "abi":
		return values.BuiltinFunction{Name: "abi." + x.Member, Type: x.Type}, nil
	case "super":
		return in.superFunction(x)
	}
	return nil, internalf(x, "%s.%s not supported", bs.Name, x.Member)
}

// superFunction resolves super.f to the next definition of f after the contract
// whose code is running in the linearization of the executing contract.
func (in *Interpreter) superFunction(x *ast.MemberAccess) (values.Value, error) {
	fr := in.state.currentFrame()
	if fr == nil || fr.fn.Contract == nil {
		return nil, internalf(x, "super outside a contract function")
	}
	arity := -1
	if ft, ok := x.Type.(soltypes.FunctionType); ok {
		arity = len(ft.Params)
	}
	lin := in.state.Contract.Linearized
	for i, c := range lin {
		if c != fr.fn.Contract {
			continue
		}
		for _, base := range lin[i+1:] {
			for _, f := range base.Functions {
				if f.Kind == ast.KindFunction && f.Name == x.Member && (arity < 0 || len(f.Parameters) == arity) {
					return values.InternalFunction{Def: f, Super: base}, nil
				}
			}
		}
	}
	return nil, internalf(x, "no super definition of %s", x.Member)
}

// resolve concretizes the generic signature of a builtin against its argument types.
func (in *Interpreter) resolve(node ast.Node, name string, actuals []soltypes.Type) ([]soltypes.Type, poly.Substitution, error) {
	types, s, err := poly.Resolve(name, actuals)
	if err != nil {
		return nil, nil, internalf(node, "%s: %v", name, err)
	}
	return types, s, nil
}

func (in *Interpreter) callBuiltin(x *ast.FunctionCall, f values.BuiltinFunction, args []values.Value, opts *callOptions) (values.Value, error) {
	types := argTypes(x)
	switch f.Name {
	case "assert":
		ok, isBool := values.AsBool(args[0])
		if !isBool {
			return nil, internalf(x, "assert on %v", args[0])
		}
		if !ok {
			return nil, in.panicError(PanicAssert)
		}
		return values.Composite{}, nil
	case "require":
		if _, _, err := in.resolve(x, f.Name, types); err != nil {
			return nil, err
		}
		ok, isBool := values.AsBool(args[0])
		if !isBool {
			return nil, internalf(x, "require on %v", args[0])
		}
		if ok {
			return values.Composite{}, nil
		}
		if len(args) > 1 {
			msg, _ := values.AsBytes(args[1])
			return nil, revertError(abi.EncodeError(msg))
		}
		return nil, revertError(nil)
	case "revert":
		if _, _, err := in.resolve(x, f.Name, types); err != nil {
			return nil, err
		}
		if len(args) > 0 {
			msg, _ := values.AsBytes(args[0])
			return nil, revertError(abi.EncodeError(msg))
		}
		return nil, revertError(nil)
	case "keccak256", "sha3", "sha256", "ripemd160":
		data, err := in.hashInput(x, f.Name, args, types)
		if err != nil {
			return nil, err
		}
		switch f.Name {
		case "sha256":
			return values.FixedBytes(crypto.Sha256(data)), nil
		case "ripemd160":
			return values.FixedBytes(crypto.Ripemd160(data)), nil
		}
		return values.FixedBytes(crypto.Keccak256(data)), nil
	case "ecrecover":
		return in.ecrecover(x, args)
	case "addmod", "mulmod":
		return in.modArith(x, f.Name, args)
	case "gasleft":
		return values.Int{V: new(big.Int).Set(gasLeft)}, nil
	case "blockhash":
		return values.FixedBytes(make([]byte, 32)), nil
	case "type":
		tr, ok := args[0].(values.TypeRef)
		if !ok {
			return nil, internalf(x, "type() of a value")
		}
		return values.TypeRef{Type: soltypes.TypeNameType{Type: tr.Type}}, nil
	case "push":
		return in.push(x, f, args, types)
	case "pop":
		if _, _, err := in.resolve(x, f.Name, append([]soltypes.Type{selfType(f)}, types...)); err != nil {
			return nil, err
		}
		r, ok := f.Self.(values.Resizable)
		if !ok {
			return nil, internalf(x, "pop on %v", f.Self)
		}
		return values.Composite{}, in.classify(x, r.Pop())
	case "bytes.concat", "string.concat":
		var out []byte
		for i, a := range args {
			b, ok := values.AsBytes(a)
			if !ok {
				return nil, internalf(x.Arguments[i], "%s of %v", f.Name, a)
			}
			out = append(out, b...)
		}
		return values.Bytes(out), nil
	}
	if len(f.Name) > 4 && f.Name[:4] == "abi." {
		return in.callABI(x, f, args, types)
	}
	if len(f.Name) > 8 && f.Name[:8] == "address." {
		return in.callAddress(x, f, args, opts)
	}
	return nil, internalf(x, "builtin %s not supported", f.Name)
}

func argTypes(x *ast.FunctionCall) []soltypes.Type {
	types := make([]soltypes.Type, len(x.Arguments))
	for i, a := range x.Arguments {
		types[i] = a.StaticType()
	}
	return types
}

func selfType(f values.BuiltinFunction) soltypes.Type {
	if v, ok := f.Self.(values.View); ok {
		return soltypes.PointerType{To: soltypes.Deref(v.Type()), Location: v.Location()}
	}
	return nil
}

func (in *Interpreter) push(x *ast.FunctionCall, f values.BuiltinFunction, args []values.Value, types []soltypes.Type) (values.Value, error) {
	_, s, err := in.resolve(x, "push", append([]soltypes.Type{selfType(f)}, types...))
	if err != nil {
		return nil, err
	}
	r, ok := f.Self.(values.Resizable)
	if !ok {
		return nil, internalf(x, "push on %v", f.Self)
	}
	var val values.Value
	if len(args) > 0 {
		elem := poly.ElementType(s)
		if val, err = in.coerce(x, args[0], elem); err != nil {
			return nil, err
		}
	}
	view, err := r.Push(val)
	if err != nil {
		return nil, in.classify(x, err)
	}
	if len(args) > 0 {
		return values.Composite{}, nil
	}
	return in.rvalue(view), nil
}

// hashInput is the byte string a hash builtin digests: the bytes argument itself,
// or the packed encoding of all arguments in dialects that accepted several.
func (in *Interpreter) hashInput(x *ast.FunctionCall, name string, args []values.Value, types []soltypes.Type) ([]byte, error) {
	if len(args) == 1 {
		if b, ok := values.AsBytes(args[0]); ok {
			if _, isFixed := values.Load(args[0]).(values.FixedBytes); !isFixed {
				return b, nil
			}
		}
	}
	if name == "sha3" || !ast.VersionAtLeast(in.infer.Version(), ast.VersionBlockScoping) {
		data, err := abi.EncodePacked(loadAll(args), types)
		if err != nil {
			return nil, internal(x, err)
		}
		return data, nil
	}
	if _, _, err := in.resolve(x, name, types); err != nil {
		return nil, err
	}
	return nil, internalf(x, "%s of %v", name, args)
}

func (in *Interpreter) ecrecover(x *ast.FunctionCall, args []values.Value) (values.Value, error) {
	if len(args) != 4 {
		return nil, internalf(x, "ecrecover takes 4 arguments")
	}
	hash, ok1 := values.AsBytes(args[0])
	v, ok2 := values.AsInt(args[1])
	r, ok3 := values.AsBytes(args[2])
	s, ok4 := values.AsBytes(args[3])
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return nil, internalf(x, "ecrecover on %v", args)
	}
	if !v.IsUint64() || v.Uint64() > 255 {
		return values.Address{}, nil
	}
	return values.NewAddress(crypto.Ecrecover(hash, byte(v.Uint64()), r, s)), nil
}

// modArith computes (a op b) % k with a 512-bit intermediate result.
func (in *Interpreter) modArith(x *ast.FunctionCall, name string, args []values.Value) (values.Value, error) {
	if len(args) != 3 {
		return nil, internalf(x, "%s takes 3 arguments", name)
	}
	var ops [3]*uint256.Int
	for i, a := range args {
		n, ok := values.AsInt(a)
		if !ok {
			return nil, internalf(x.Arguments[i], "%s operand %v", name, a)
		}
		u, overflow := uint256.FromBig(math.U256(n))
		if overflow {
			return nil, internalf(x.Arguments[i], "%s operand out of range", name)
		}
		ops[i] = u
	}
	if ops[2].IsZero() {
		return nil, in.panicError(PanicDivisionZero)
	}
	z := new(uint256.Int)
	if name == "addmod" {
		z.AddMod(ops[0], ops[1], ops[2])
	} else {
		z.MulMod(ops[0], ops[1], ops[2])
	}
	return values.Int{V: z.ToBig()}, nil
}

func (in *Interpreter) callABI(x *ast.FunctionCall, f values.BuiltinFunction, args []values.Value, types []soltypes.Type) (values.Value, error) {
	name := f.Name
	if name == "abi.decode" {
		return in.abiDecode(x, args)
	}
	resolved, _, err := in.resolve(x, name, types)
	if err != nil {
		return nil, err
	}
	var (
		out []byte
		sel [4]byte
	)
	switch name {
	case "abi.encode":
		out, err = abi.Encode(args, resolved)
	case "abi.encodePacked":
		out, err = abi.EncodePacked(loadAll(args), resolved)
	case "abi.encodeWithSelector", "abi.encodeWithSignature":
		if len(args) == 0 {
			return nil, internalf(x, "%s without a selector", name)
		}
		b, ok := values.AsBytes(args[0])
		if !ok {
			return nil, internalf(x.Arguments[0], "%s selector %v", name, args[0])
		}
		if name == "abi.encodeWithSignature" {
			sel = in.infer.SelectorOf(string(b))
		} else {
			copy(sel[:], b)
		}
		out, err = abi.EncodeWithSelector(sel, args[1:], resolved[1:])
	default:
		return nil, internalf(x, "builtin %s not supported", name)
	}
	if err != nil {
		return nil, internal(x, err)
	}
	return values.Bytes(out), nil
}

func (in *Interpreter) abiDecode(x *ast.FunctionCall, args []values.Value) (values.Value, error) {
	if len(args) != 2 {
		return nil, internalf(x, "abi.decode takes 2 arguments")
	}
	data, ok := values.AsBytes(args[0])
	if !ok {
		return nil, internalf(x.Arguments[0], "abi.decode of %v", args[0])
	}
	var types []soltypes.Type
	if tt, ok := x.Type.(soltypes.TupleType); ok {
		types = tt.Elems
	} else {
		types = []soltypes.Type{x.Type}
	}
	vals, err := abi.Decode(data, types, 0, abi.Target{Mem: in.state.Memory})
	if err != nil {
		return nil, internal(x, err)
	}
	for _, v := range vals {
		if values.HasPoison(v) {
			return nil, revertError(nil)
		}
	}
	return packValues(vals), nil
}

func (in *Interpreter) addressMember(x *ast.MemberAccess, base values.Value) (values.Value, error) {
	addr, ok := values.AsAddress(base)
	if !ok {
		return nil, internalf(x, "member %s of %v", x.Member, base)
	}
	db := in.world.StateDB()
	switch x.Member {
	case "balance":
		return values.Int{V: new(big.Int).Set(db.GetBalance(addr).Value)}, nil
	case "code":
		return values.Bytes(common.CopyBytes(db.GetCode(addr))), nil
	case "codehash":
		h := db.GetCodeHash(addr)
		return values.FixedBytes(common.CopyBytes(h.Bytes[:])), nil
	case "transfer", "send", "call", "staticcall", "delegatecall", "callcode":
		return values.BuiltinFunction{Name: "address." + x.Member, Self: values.NewAddress(addr), Type: x.Type}, nil
	}
	return nil, internalf(x, "address member %s not supported", x.Member)
}

func (in *Interpreter) callAddress(x *ast.FunctionCall, f values.BuiltinFunction, args []values.Value, opts *callOptions) (values.Value, error) {
	to, _ := values.AsAddress(f.Self)
	switch f.Name {
	case "address.transfer", "address.send":
		if len(args) != 1 {
			return nil, internalf(x, "%s takes 1 argument", f.Name)
		}
		amount, ok := values.AsInt(args[0])
		if !ok {
			return nil, internalf(x.Arguments[0], "%s amount %v", f.Name, args[0])
		}
		res, err := in.world.Call(in.message(to, nil, amount))
		if err != nil {
			return nil, err
		}
		in.state.ReturnData = res.Data
		failed := res.Err != nil || res.Reverted
		if f.Name == "address.send" {
			return values.Bool(!failed), nil
		}
		if failed {
			return nil, revertError(res.Data)
		}
		return values.Composite{}, nil
	}
	var data []byte
	if len(args) > 0 {
		b, ok := values.AsBytes(args[0])
		if !ok {
			return nil, internalf(x, "%s data %v", f.Name, args[0])
		}
		data = b
	}
	msg := in.message(to, data, opts.value)
	switch f.Name {
	case "address.staticcall":
		msg.Static = true
	case "address.delegatecall", "address.callcode":
		lib := to
		msg.To = in.state.Address
		msg.Delegate = &lib
		msg.From = in.state.Msg.From
		msg.Value = in.state.Msg.CallValue()
	}
	res, err := in.world.Call(msg)
	if err != nil {
		return nil, err
	}
	in.state.ReturnData = res.Data
	ok := res.Err == nil && !res.Reverted
	return values.Composite{Elems: []values.Value{values.Bool(ok), values.Bytes(common.CopyBytes(res.Data))}}, nil
}

// message builds a nested message sent by the running contract.
func (in *Interpreter) message(to common.Address, data []byte, value *big.Int) *vmtypes.Message {
	cur := in.state.Msg
	origin := cur.Origin
	if origin.IsZero() {
		origin = cur.From
	}
	if value == nil {
		value = new(big.Int)
	}
	return &vmtypes.Message{
		From:   in.state.Address,
		To:     to,
		Data:   data,
		Value:  value,
		Static: cur.Static,
		Origin: origin,
		Depth:  cur.Depth + 1,
	}
}

// typeMember implements members of type(T) and of type names used as values.
func (in *Interpreter) typeMember(x *ast.MemberAccess, tr values.TypeRef) (values.Value, error) {
	switch t := tr.Type.(type) {
	case soltypes.TypeNameType:
		return in.metaMember(x, t.Type)
	case soltypes.ContractType:
		return in.contractTypeMember(x, t)
	case *soltypes.EnumType:
		for i, m := range t.Members {
			if m == x.Member {
				return values.NewInt(int64(i)), nil
			}
		}
		return nil, internalf(x, "enum %s has no member %s", t.Name, x.Member)
	case soltypes.BytesType:
		if x.Member == "concat" {
			return values.BuiltinFunction{Name: "bytes.concat", Type: x.Type}, nil
		}
	case soltypes.StringType:
		if x.Member == "concat" {
			return values.BuiltinFunction{Name: "string.concat", Type: x.Type}, nil
		}
	}
	return nil, internalf(x, "member %s of %s not supported", x.Member, tr.Type)
}

func (in *Interpreter) metaMember(x *ast.MemberAccess, t soltypes.Type) (values.Value, error) {
	switch x.Member {
	case "min":
		return values.Int{V: infer.TypeMin(t)}, nil
	case "max":
		return values.Int{V: infer.TypeMax(t)}, nil
	}
	ct, ok := t.(soltypes.ContractType)
	if !ok {
		return nil, internalf(x, "type(%s).%s not supported", t, x.Member)
	}
	switch x.Member {
	case "name":
		return values.Bytes(ct.Name), nil
	case "creationCode", "runtimeCode":
		art, ok := in.world.Registry().ByName(ct.Name)
		if !ok {
			return nil, internalf(x, "no artifact for %s", ct.Name)
		}
		if x.Member == "runtimeCode" {
			return values.Bytes(common.CopyBytes(art.Deployed)), nil
		}
		code, err := art.Link(in.world.Libraries())
		if err != nil {
			return nil, internal(x, err)
		}
		return values.Bytes(code), nil
	case "interfaceId":
		def, err := in.contractDef(x, ct.Name)
		if err != nil {
			return nil, err
		}
		var id [4]byte
		for _, f := range def.Functions {
			if !f.IsExternallyVisible() {
				continue
			}
			sel := in.infer.Selector(f)
			for i := range id {
				id[i] ^= sel[i]
			}
		}
		return values.FixedBytes(id[:]), nil
	}
	return nil, internalf(x, "type(%s).%s not supported", t, x.Member)
}

func (in *Interpreter) contractTypeMember(x *ast.MemberAccess, ct soltypes.ContractType) (values.Value, error) {
	def, err := in.contractDef(x, ct.Name)
	if err != nil {
		return nil, err
	}
	for _, v := range def.AllStateVariables() {
		if v.Constant && v.Name == x.Member {
			prev := in.state.pushScope(in.state.Globals)
			val, err := in.constantValue(v)
			in.state.restoreScope(prev)
			return val, err
		}
	}
	arity := -1
	if ft, ok := x.Type.(soltypes.FunctionType); ok {
		arity = len(ft.Params)
	}
	fn := def.ResolveFunction(x.Member, arity)
	if fn == nil {
		return nil, internalf(x, "%s has no function %s", ct.Name, x.Member)
	}
	if def.IsLibrary() && fn.IsExternallyVisible() {
		addr, ok := in.world.Libraries()[def.Name]
		if !ok {
			return nil, internalf(x, "library %s is not deployed", def.Name)
		}
		return values.ExternalFunction{Address: addr, Selector: in.infer.Selector(fn), Def: fn, Delegate: true}, nil
	}
	return values.InternalFunction{Def: fn}, nil
}

// contractMember turns c.f on a contract-typed value into an external function reference.
func (in *Interpreter) contractMember(x *ast.MemberAccess, base values.Value, ct soltypes.ContractType) (values.Value, error) {
	addr, ok := values.AsAddress(base)
	if !ok {
		return nil, internalf(x, "contract value %v", base)
	}
	def, err := in.contractDef(x, ct.Name)
	if err != nil {
		return nil, err
	}
	arity := -1
	if ft, ok := x.Type.(soltypes.FunctionType); ok {
		arity = len(ft.Params)
	}
	if fn := def.ResolveFunction(x.Member, arity); fn != nil {
		return values.ExternalFunction{Address: addr, Selector: in.infer.Selector(fn), Def: fn}, nil
	}
	for _, v := range def.AllStateVariables() {
		if v.Name == x.Member && v.Visibility == ast.VisibilityPublic {
			return values.ExternalFunction{Address: addr, Selector: in.infer.GetterSelector(v)}, nil
		}
	}
	return in.addressMember(x, base)
}

// contractDef finds a contract by name in the running unit, then among the deployed artifacts.
func (in *Interpreter) contractDef(node ast.Node, name string) (*ast.ContractDefinition, error) {
	if unit := in.state.Contract.Unit; unit != nil {
		for _, c := range unit.Contracts {
			if c.Name == name {
				return c, nil
			}
		}
	}
	if art, ok := in.world.Registry().ByName(name); ok {
		return art.Contract, nil
	}
	return nil, internalf(node, "unknown contract %s", name)
}

func loadAll(vals []values.Value) []values.Value {
	out := make([]values.Value, len(vals))
	for i, v := range vals {
		out[i] = values.Load(v)
	}
	return out
}

// packValues turns a list of results into the value of a call expression.
func packValues(vals []values.Value) values.Value {
	if len(vals) == 1 {
		return vals[0]
	}
	return values.Composite{Elems: vals}
}

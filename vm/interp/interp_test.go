package interp_test

import (
	"math/big"
	"testing"

	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/vm/abi"
	"github.com/annchain/solinterp/vm/artifacts"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/infer"
	"github.com/annchain/solinterp/vm/interp"
	"github.com/annchain/solinterp/vm/ovm"
	"github.com/annchain/solinterp/vm/soltypes"
	vmtypes "github.com/annchain/solinterp/vm/types"
	"github.com/annchain/solinterp/vm/values"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var deployer = common.HexToAddress("0x00000000000000000000000000000000000000a1")

var (
	storageUintArray = soltypes.PointerType{To: soltypes.ArrayType{Elem: soltypes.Uint256}, Location: soltypes.Storage}
	memoryString     = soltypes.PointerType{To: soltypes.String, Location: soltypes.Memory}
	noValue          = soltypes.TupleType{}
)

type testChain struct {
	t     *testing.T
	chain *ovm.Chain
	svc   *infer.Service
}

func newUnit(version string, contracts ...*ast.ContractDefinition) *ast.SourceUnit {
	return &ast.SourceUnit{Path: "test.sol", Version: version, Contracts: contracts}
}

func newTestChain(t *testing.T, unit *ast.SourceUnit, visitors ...interp.Visitor) *testChain {
	require.NoError(t, ast.Link(unit))
	reg, err := artifacts.Compile(unit)
	require.NoError(t, err)
	chain := ovm.NewChain(reg, &vmtypes.InterpreterConfig{Version: unit.Version}, visitors...)
	require.NoError(t, chain.Fund(deployer, big.NewInt(1000000)))
	return &testChain{t: t, chain: chain, svc: infer.New(unit.Version)}
}

func (c *testChain) deploy(name string) common.Address {
	addr, res, err := c.chain.Deploy(deployer, name, nil)
	require.NoError(c.t, err)
	require.False(c.t, res.Reverted, "deploy %s: %s", name, res)
	return addr
}

func (c *testChain) send(to common.Address, value int64, fn *ast.FunctionDefinition, args ...values.Value) *vmtypes.CallResult {
	data, err := abi.EncodeWithSelector(c.svc.Selector(fn), args, fn.ParamTypes())
	require.NoError(c.t, err)
	res, err := c.chain.Call(&vmtypes.Message{From: deployer, To: to, Data: data, Value: big.NewInt(value)})
	require.NoError(c.t, err)
	return res
}

func (c *testChain) call(to common.Address, fn *ast.FunctionDefinition, args ...values.Value) *vmtypes.CallResult {
	return c.send(to, 0, fn, args...)
}

func (c *testChain) returns(res *vmtypes.CallResult, fn *ast.FunctionDefinition) []int64 {
	require.False(c.t, res.Reverted, "%s reverted: %s", fn.Name, res)
	vals, err := abi.Decode(res.Data, fn.ReturnTypes(), 0, abi.Target{Mem: values.NewMemory()})
	require.NoError(c.t, err)
	return ints(c.t, vals)
}

func (c *testChain) get(to common.Address, v *ast.VariableDeclaration, args ...values.Value) *vmtypes.CallResult {
	data, err := abi.EncodeWithSelector(c.svc.GetterSelector(v), args, c.svc.GetterArgs(v))
	require.NoError(c.t, err)
	res, err := c.chain.Call(&vmtypes.Message{From: deployer, To: to, Data: data})
	require.NoError(c.t, err)
	return res
}

func (c *testChain) getUint(to common.Address, v *ast.VariableDeclaration, args ...values.Value) int64 {
	res := c.get(to, v, args...)
	require.False(c.t, res.Reverted, "getter %s reverted: %s", v.Name, res)
	types, _ := c.svc.GetterReturns(v)
	vals, err := abi.Decode(res.Data, types, 0, abi.Target{Mem: values.NewMemory()})
	require.NoError(c.t, err)
	return ints(c.t, vals)[0]
}

func ints(t *testing.T, vals []values.Value) []int64 {
	out := make([]int64, len(vals))
	for i, v := range vals {
		n, ok := values.AsInt(values.Load(v))
		require.True(t, ok, "value %v is not an integer", v)
		out[i] = n.Int64()
	}
	return out
}

func uintVar(name string) *ast.Identifier { return ast.NewIdentifier(name, soltypes.Uint256) }

func uintLit(n int64) *ast.Literal { return ast.NewNumber(n, soltypes.Uint256) }

func requireCall(cond ast.Expression, reason string) ast.Statement {
	callee := ast.NewIdentifier("require", soltypes.BuiltinFunctionType{Name: "require"})
	if reason == "" {
		return ast.NewExprStmt(ast.NewCall(callee, noValue, cond))
	}
	return ast.NewExprStmt(ast.NewCall(callee, noValue, cond, ast.NewString(reason)))
}

type counter struct {
	def                     *ast.ContractDefinition
	count                   *ast.VariableDeclaration
	inc, incUnchecked, peek *ast.FunctionDefinition
}

func newCounter() *counter {
	ref := func() ast.Expression { return ast.NewIdentifier("count", soltypes.Uint8) }
	c := &counter{
		count: ast.NewStateVar("count", soltypes.Uint8, ast.VisibilityPublic, ast.NewNumber(255, soltypes.Uint8)),
		inc:   ast.NewFunction("inc", ast.VisibilityPublic, nil, nil, ast.NewExprStmt(ast.NewUnary("++", false, ref()))),
	}
	c.peek = ast.NewFunction("peek", ast.VisibilityPublic, nil, []*ast.VariableDeclaration{ast.NewVar("", soltypes.Uint256)},
		ast.NewReturn(ref()))
	c.incUnchecked = ast.NewFunction("incUnchecked", ast.VisibilityPublic, nil, nil)
	c.incUnchecked.Body.Statements = []ast.Statement{
		&ast.Block{Statements: []ast.Statement{ast.NewExprStmt(ast.NewUnary("++", false, ref()))}, Unchecked: true},
	}
	c.def = &ast.ContractDefinition{
		Name:           "Counter",
		StateVariables: []*ast.VariableDeclaration{c.count},
		Functions:      []*ast.FunctionDefinition{c.inc, c.incUnchecked, c.peek},
	}
	return c
}

func TestIncrementOverflow(t *testing.T) {
	cases := []struct {
		version string
		reverts bool
		after   int64
	}{
		{version: "0.8.19", reverts: true, after: 255},
		{version: "0.7.6", reverts: false, after: 0},
	}
	for _, tc := range cases {
		t.Run(tc.version, func(t *testing.T) {
			c := newCounter()
			chain := newTestChain(t, newUnit(tc.version, c.def))
			addr := chain.deploy("Counter")
			assert.Equal(t, int64(255), chain.getUint(addr, c.count))

			res := chain.call(addr, c.inc)
			assert.Equal(t, tc.reverts, res.Reverted)
			if tc.reverts {
				assert.Equal(t, abi.EncodePanic(interp.PanicOverflow), res.Data)
			}
			assert.Equal(t, tc.after, chain.getUint(addr, c.count))
		})
	}
}

func TestUncheckedBlockWraps(t *testing.T) {
	c := newCounter()
	tc := newTestChain(t, newUnit("0.8.19", c.def))
	addr := tc.deploy("Counter")

	res := tc.call(addr, c.incUnchecked)
	require.False(t, res.Reverted, res.String())
	assert.Equal(t, int64(0), tc.getUint(addr, c.count))
	assert.Equal(t, []int64{0}, tc.returns(tc.call(addr, c.peek), c.peek))

	// the unchecked region ends with its block
	require.False(t, tc.call(addr, c.inc).Reverted)
	assert.Equal(t, []int64{1}, tc.returns(tc.call(addr, c.peek), c.peek))
}

func TestIncrementForms(t *testing.T) {
	a := func() ast.Expression { return uintVar("a") }
	fn := ast.NewFunction("f", ast.VisibilityPublic, nil,
		[]*ast.VariableDeclaration{ast.NewVar("", soltypes.Uint256), ast.NewVar("", soltypes.Uint256), ast.NewVar("", soltypes.Uint256)},
		ast.NewVarStmt("a", soltypes.Uint256, uintLit(5)),
		ast.NewVarStmt("b", soltypes.Uint256, ast.NewUnary("++", false, a())),
		ast.NewVarStmt("c", soltypes.Uint256, ast.NewUnary("++", true, a())),
		ast.NewReturn(ast.NewTuple(soltypes.TupleType{Elems: []soltypes.Type{soltypes.Uint256, soltypes.Uint256, soltypes.Uint256}},
			a(), uintVar("b"), uintVar("c"))),
	)
	fn.Mutability = "pure"
	tc := newTestChain(t, newUnit("0.8.19", &ast.ContractDefinition{Name: "Inc", Functions: []*ast.FunctionDefinition{fn}}))
	addr := tc.deploy("Inc")

	assert.Equal(t, []int64{7, 5, 7}, tc.returns(tc.call(addr, fn), fn))
}

func TestStorageArrayPushPop(t *testing.T) {
	xs := ast.NewStateVar("xs", soltypes.ArrayType{Elem: soltypes.Uint256}, ast.VisibilityPublic, nil)
	ref := func() ast.Expression { return ast.NewIdentifier("xs", storageUintArray) }
	add := ast.NewFunction("add", ast.VisibilityPublic, []*ast.VariableDeclaration{ast.NewVar("v", soltypes.Uint256)}, nil,
		ast.NewExprStmt(ast.NewCall(ast.NewMember(ref(), "push", soltypes.BuiltinFunctionType{Name: "push"}), noValue, uintVar("v"))))
	remove := ast.NewFunction("remove", ast.VisibilityPublic, nil, nil,
		ast.NewExprStmt(ast.NewCall(ast.NewMember(ref(), "pop", soltypes.BuiltinFunctionType{Name: "pop"}), noValue)))
	size := ast.NewFunction("size", ast.VisibilityPublic, nil, []*ast.VariableDeclaration{ast.NewVar("", soltypes.Uint256)},
		ast.NewReturn(ast.NewMember(ref(), "length", soltypes.Uint256)))
	def := &ast.ContractDefinition{
		Name:           "List",
		StateVariables: []*ast.VariableDeclaration{xs},
		Functions:      []*ast.FunctionDefinition{add, remove, size},
	}
	tc := newTestChain(t, newUnit("0.8.19", def))
	addr := tc.deploy("List")

	require.False(t, tc.call(addr, add, values.NewInt(1)).Reverted)
	require.False(t, tc.call(addr, add, values.NewInt(2)).Reverted)
	assert.Equal(t, []int64{2}, tc.returns(tc.call(addr, size), size))
	assert.Equal(t, int64(2), tc.getUint(addr, xs, values.NewInt(1)))

	require.False(t, tc.call(addr, remove).Reverted)
	assert.Equal(t, []int64{1}, tc.returns(tc.call(addr, size), size))

	// getters revert without data on a bad index
	res := tc.get(addr, xs, values.NewInt(1))
	assert.True(t, res.Reverted)
	assert.Empty(t, res.Data)

	require.False(t, tc.call(addr, remove).Reverted)
	res = tc.call(addr, remove)
	assert.True(t, res.Reverted)
	assert.Equal(t, abi.EncodePanic(interp.PanicPopEmpty), res.Data)
}

func TestPanicPayloadByVersion(t *testing.T) {
	cases := []struct {
		version string
		payload []byte
	}{
		{version: "0.8.19", payload: abi.EncodePanic(interp.PanicDivisionZero)},
		{version: "0.7.6", payload: nil},
	}
	for _, tc := range cases {
		t.Run(tc.version, func(t *testing.T) {
			div := ast.NewFunction("div", ast.VisibilityPublic,
				[]*ast.VariableDeclaration{ast.NewVar("a", soltypes.Uint256)},
				[]*ast.VariableDeclaration{ast.NewVar("", soltypes.Uint256)},
				ast.NewReturn(ast.NewBinary("/", uintLit(10), uintVar("a"), soltypes.Uint256)))
			chain := newTestChain(t, newUnit(tc.version, &ast.ContractDefinition{Name: "Div", Functions: []*ast.FunctionDefinition{div}}))
			addr := chain.deploy("Div")

			assert.Equal(t, []int64{5}, chain.returns(chain.call(addr, div, values.NewInt(2)), div))
			res := chain.call(addr, div, values.NewInt(0))
			assert.True(t, res.Reverted)
			assert.Equal(t, len(tc.payload), len(res.Data))
			if tc.payload != nil {
				assert.Equal(t, tc.payload, res.Data)
			}
		})
	}
}

func TestCustomErrorRevert(t *testing.T) {
	errDef := &ast.ErrorDefinition{Name: "Insufficient", Parameters: []*ast.VariableDeclaration{ast.NewVar("needed", soltypes.Uint256)}}
	withdraw := ast.NewFunction("withdraw", ast.VisibilityPublic, []*ast.VariableDeclaration{ast.NewVar("amount", soltypes.Uint256)}, nil,
		&ast.RevertStatement{Error: errDef, Arguments: []ast.Expression{uintVar("amount")}})
	def := &ast.ContractDefinition{Name: "Bank", Functions: []*ast.FunctionDefinition{withdraw}, Errors: []*ast.ErrorDefinition{errDef}}
	tc := newTestChain(t, newUnit("0.8.19", def))
	addr := tc.deploy("Bank")

	res := tc.call(addr, withdraw, values.NewInt(3))
	require.True(t, res.Reverted)
	want, err := abi.EncodeWithSelector(tc.svc.ErrorSelector(errDef), []values.Value{values.NewInt(3)}, []soltypes.Type{soltypes.Uint256})
	require.NoError(t, err)
	assert.Equal(t, want, res.Data)
}

func TestTryCatchRevertRestoresCallee(t *testing.T) {
	value := ast.NewStateVar("value", soltypes.Uint256, ast.VisibilityPublic, nil)
	set := ast.NewFunction("set", ast.VisibilityPublic, []*ast.VariableDeclaration{ast.NewVar("v", soltypes.Uint256)}, nil,
		ast.NewExprStmt(ast.NewAssignment("=", uintVar("value"), uintVar("v"))),
		requireCall(ast.NewBinary("<", uintVar("v"), uintLit(10), soltypes.Bool), "too big"),
	)
	store := &ast.ContractDefinition{Name: "Store", StateVariables: []*ast.VariableDeclaration{value}, Functions: []*ast.FunctionDefinition{set}}

	attempts := ast.NewStateVar("attempts", soltypes.Uint256, ast.VisibilityPublic, nil)
	failures := ast.NewStateVar("failures", soltypes.Uint256, ast.VisibilityPublic, nil)
	storeType := soltypes.ContractType{Name: "Store"}
	setType := soltypes.FunctionType{Name: "set", Params: []soltypes.Type{soltypes.Uint256}, External: true}
	poke := ast.NewFunction("poke", ast.VisibilityPublic,
		[]*ast.VariableDeclaration{ast.NewVar("s", storeType), ast.NewVar("v", soltypes.Uint256)}, nil,
		ast.NewExprStmt(ast.NewAssignment("+=", uintVar("attempts"), uintLit(1))),
		&ast.TryStatement{
			Call: ast.NewCall(ast.NewMember(ast.NewIdentifier("s", storeType), "set", setType), noValue, uintVar("v")),
			Clauses: []*ast.TryCatchClause{
				{Success: true, Block: ast.NewBlock()},
				{
					Kind:       "Error",
					Parameters: []*ast.VariableDeclaration{ast.NewVar("reason", memoryString)},
					Block:      ast.NewBlock(ast.NewExprStmt(ast.NewAssignment("+=", uintVar("failures"), uintLit(1)))),
				},
			},
		},
	)
	caller := &ast.ContractDefinition{
		Name:           "Caller",
		StateVariables: []*ast.VariableDeclaration{attempts, failures},
		Functions:      []*ast.FunctionDefinition{poke},
	}
	tc := newTestChain(t, newUnit("0.8.19", store, caller))
	storeAddr := tc.deploy("Store")
	callerAddr := tc.deploy("Caller")

	require.False(t, tc.call(storeAddr, set, values.NewInt(5)).Reverted)
	before, err := tc.chain.Fingerprint()
	require.NoError(t, err)

	res := tc.call(storeAddr, set, values.NewInt(20))
	require.True(t, res.Reverted)
	assert.Equal(t, abi.EncodeError([]byte("too big")), res.Data)
	after, err := tc.chain.Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	res = tc.call(callerAddr, poke, values.NewAddress(storeAddr), values.NewInt(20))
	require.False(t, res.Reverted, res.String())
	assert.Equal(t, int64(5), tc.getUint(storeAddr, value))
	assert.Equal(t, int64(1), tc.getUint(callerAddr, attempts))
	assert.Equal(t, int64(1), tc.getUint(callerAddr, failures))

	res = tc.call(callerAddr, poke, values.NewAddress(storeAddr), values.NewInt(7))
	require.False(t, res.Reverted, res.String())
	assert.Equal(t, int64(7), tc.getUint(storeAddr, value))
	assert.Equal(t, int64(2), tc.getUint(callerAddr, attempts))
	assert.Equal(t, int64(1), tc.getUint(callerAddr, failures))
}

func TestBlockScoping(t *testing.T) {
	r := func() ast.Expression { return uintVar("r") }
	fn := ast.NewFunction("f", ast.VisibilityPublic, nil, []*ast.VariableDeclaration{ast.NewVar("r", soltypes.Uint256)},
		ast.NewVarStmt("x", soltypes.Uint256, uintLit(1)),
		ast.NewBlock(
			ast.NewVarStmt("x", soltypes.Uint256, uintLit(2)),
			ast.NewExprStmt(ast.NewAssignment("=", r(), uintVar("x"))),
		),
		ast.NewExprStmt(ast.NewAssignment("=", r(),
			ast.NewBinary("+", ast.NewBinary("*", r(), uintLit(10), soltypes.Uint256), uintVar("x"), soltypes.Uint256))),
	)
	tc := newTestChain(t, newUnit("0.8.19", &ast.ContractDefinition{Name: "Scopes", Functions: []*ast.FunctionDefinition{fn}}))
	addr := tc.deploy("Scopes")

	assert.Equal(t, []int64{21}, tc.returns(tc.call(addr, fn), fn))
}

func TestFunctionScopedDeclarations(t *testing.T) {
	r := func() ast.Expression { return uintVar("r") }
	// y is visible, and zero, before its declaration
	fn := ast.NewFunction("g", ast.VisibilityPublic, nil, []*ast.VariableDeclaration{ast.NewVar("r", soltypes.Uint256)},
		ast.NewExprStmt(ast.NewAssignment("=", r(), ast.NewBinary("+", uintVar("y"), uintLit(1), soltypes.Uint256))),
		ast.NewVarStmt("y", soltypes.Uint256, uintLit(7)),
		ast.NewExprStmt(ast.NewAssignment("+=", r(), uintVar("y"))),
	)
	tc := newTestChain(t, newUnit("0.4.24", &ast.ContractDefinition{Name: "Hoist", Functions: []*ast.FunctionDefinition{fn}}))
	addr := tc.deploy("Hoist")

	assert.Equal(t, []int64{8}, tc.returns(tc.call(addr, fn), fn))
}

func TestEmitLogs(t *testing.T) {
	ev := &ast.EventDefinition{Name: "Deposited", Parameters: []*ast.VariableDeclaration{
		{Name: "from", Type: soltypes.Address, Indexed: true},
		{Name: "amount", Type: soltypes.Uint256},
	}}
	sender := ast.NewMember(ast.NewIdentifier("msg", soltypes.BuiltinStructType{Name: "msg"}), "sender", soltypes.Address)
	deposit := ast.NewFunction("deposit", ast.VisibilityPublic, []*ast.VariableDeclaration{ast.NewVar("amount", soltypes.Uint256)}, nil,
		&ast.EmitStatement{Event: ev, Arguments: []ast.Expression{sender, uintVar("amount")}},
		requireCall(ast.NewBinary(">", uintVar("amount"), uintLit(0), soltypes.Bool), ""),
	)
	def := &ast.ContractDefinition{Name: "Logger", Functions: []*ast.FunctionDefinition{deposit}, Events: []*ast.EventDefinition{ev}}
	tc := newTestChain(t, newUnit("0.8.19", def))
	addr := tc.deploy("Logger")

	res := tc.call(addr, deposit, values.NewInt(42))
	require.False(t, res.Reverted, res.String())
	require.Len(t, res.Logs, 1)
	log := res.Logs[0]
	assert.Equal(t, addr, log.Address)
	require.Len(t, log.Topics, 2)
	assert.Equal(t, tc.svc.EventTopic(ev), log.Topics[0])
	assert.Equal(t, common.BytesToHash(deployer.Bytes[:]), log.Topics[1])
	data, err := abi.Encode([]values.Value{values.NewInt(42)}, []soltypes.Type{soltypes.Uint256})
	require.NoError(t, err)
	assert.Equal(t, data, log.Data)

	res = tc.call(addr, deposit, values.NewInt(0))
	assert.True(t, res.Reverted)
	assert.Empty(t, res.Logs)
	assert.Len(t, tc.chain.StateDB().Logs(), 1)
}

func TestPayableChecks(t *testing.T) {
	deposit := ast.NewFunction("deposit", ast.VisibilityPublic, nil, nil)
	deposit.Mutability = "payable"
	ping := ast.NewFunction("ping", ast.VisibilityPublic, nil, nil)
	tc := newTestChain(t, newUnit("0.8.19", &ast.ContractDefinition{Name: "Vault", Functions: []*ast.FunctionDefinition{deposit, ping}}))
	addr := tc.deploy("Vault")

	require.False(t, tc.send(addr, 100, deposit).Reverted)
	assert.Equal(t, int64(100), tc.chain.Balance(addr).Int64())
	assert.Equal(t, int64(1000000-100), tc.chain.Balance(deployer).Int64())

	res := tc.send(addr, 5, ping)
	assert.True(t, res.Reverted)
	assert.Equal(t, int64(100), tc.chain.Balance(addr).Int64())
	assert.Equal(t, int64(1000000-100), tc.chain.Balance(deployer).Int64())

	res = tc.send(addr, 5000000, deposit)
	assert.True(t, res.Reverted)
	assert.Equal(t, vmtypes.ErrInsufficientBalance, res.Err)
}

func TestLibraryDelegateCall(t *testing.T) {
	double := ast.NewFunction("double", ast.VisibilityPublic,
		[]*ast.VariableDeclaration{ast.NewVar("x", soltypes.Uint256)},
		[]*ast.VariableDeclaration{ast.NewVar("", soltypes.Uint256)},
		ast.NewReturn(ast.NewBinary("*", uintVar("x"), uintLit(2), soltypes.Uint256)))
	double.Mutability = "pure"
	lib := &ast.ContractDefinition{Name: "Math", Kind: ast.KindLibrary, Functions: []*ast.FunctionDefinition{double}}

	libRef := ast.NewIdentifier("Math", soltypes.TypeNameType{Type: soltypes.ContractType{Name: "Math", Library: true}})
	doubleType := soltypes.FunctionType{Name: "double", Params: []soltypes.Type{soltypes.Uint256}, Returns: []soltypes.Type{soltypes.Uint256}, External: true}
	f := ast.NewFunction("f", ast.VisibilityPublic,
		[]*ast.VariableDeclaration{ast.NewVar("x", soltypes.Uint256)},
		[]*ast.VariableDeclaration{ast.NewVar("", soltypes.Uint256)},
		ast.NewReturn(ast.NewCall(ast.NewMember(libRef, "double", doubleType), soltypes.Uint256, uintVar("x"))))
	user := &ast.ContractDefinition{Name: "User", Functions: []*ast.FunctionDefinition{f}}

	tc := newTestChain(t, newUnit("0.8.19", lib, user))
	_, _, err := tc.chain.Deploy(deployer, "User", nil)
	assert.Error(t, err, "User links against an undeployed library")

	libAddr := tc.deploy("Math")
	assert.Equal(t, libAddr, tc.chain.Libraries()["Math"])
	addr := tc.deploy("User")

	assert.Equal(t, []int64{42}, tc.returns(tc.call(addr, f, values.NewInt(21)), f))
}

func TestLogVisitor(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	c := newCounter()
	tc := newTestChain(t, newUnit("0.8.19", c.def), interp.NewLogVisitor(logger))
	addr := tc.deploy("Counter")
	hook.Reset()

	require.True(t, tc.call(addr, c.inc).Reverted)
	var messages []string
	for _, e := range hook.AllEntries() {
		messages = append(messages, e.Message)
		assert.Equal(t, "Counter", e.Data["contract"])
	}
	assert.Equal(t, []string{"call inc", "exception"}, messages)
}

func lessThan(l, r ast.Expression) ast.Expression { return ast.NewBinary("<", l, r, soltypes.Bool) }

func equals(l, r ast.Expression) ast.Expression { return ast.NewBinary("==", l, r, soltypes.Bool) }

func when(cond ast.Expression, then ast.Statement) ast.Statement {
	return &ast.IfStatement{Condition: cond, True: then}
}

func increment(name string) ast.Statement {
	return ast.NewExprStmt(ast.NewUnary("++", false, uintVar(name)))
}

// newLoops builds
//
//	function f() returns (uint, uint, uint, uint, uint) {
//	    uint sum;
//	    for (uint i = 0; i < 10; i++) {
//	        if (i == 3) continue;
//	        if (i == 7) break;
//	        sum += i;
//	    }
//	    uint w;
//	    while (true) { w++; if (w == 5) break; }
//	    uint d = 10;
//	    do { d++; } while (d < 5);
//	    uint r = 1;
//	    uint s = 2;
//	    (r, s) = (s, r);
//	    (, s) = (7, 9);
//	    return (sum, w, d, r, s);
//	}
func newLoops() *ast.FunctionDefinition {
	pair := soltypes.TupleType{Elems: []soltypes.Type{soltypes.Uint256, soltypes.Uint256}}
	five := soltypes.TupleType{Elems: []soltypes.Type{soltypes.Uint256, soltypes.Uint256, soltypes.Uint256, soltypes.Uint256, soltypes.Uint256}}
	returns := make([]*ast.VariableDeclaration, 5)
	for i := range returns {
		returns[i] = ast.NewVar("", soltypes.Uint256)
	}
	forLoop := &ast.ForStatement{
		Init:      ast.NewVarStmt("i", soltypes.Uint256, uintLit(0)),
		Condition: lessThan(uintVar("i"), uintLit(10)),
		Loop:      increment("i"),
		Body: ast.NewBlock(
			when(equals(uintVar("i"), uintLit(3)), &ast.Continue{}),
			when(equals(uintVar("i"), uintLit(7)), &ast.Break{}),
			ast.NewExprStmt(ast.NewAssignment("+=", uintVar("sum"), uintVar("i"))),
		),
	}
	whileLoop := &ast.WhileStatement{
		Condition: ast.NewBool(true),
		Body:      ast.NewBlock(increment("w"), when(equals(uintVar("w"), uintLit(5)), &ast.Break{})),
	}
	doWhile := &ast.DoWhileStatement{
		Condition: lessThan(uintVar("d"), uintLit(5)),
		Body:      ast.NewBlock(increment("d")),
	}
	fn := ast.NewFunction("f", ast.VisibilityPublic, nil, returns,
		ast.NewVarStmt("sum", soltypes.Uint256, nil),
		forLoop,
		ast.NewVarStmt("w", soltypes.Uint256, nil),
		whileLoop,
		ast.NewVarStmt("d", soltypes.Uint256, uintLit(10)),
		doWhile,
		ast.NewVarStmt("r", soltypes.Uint256, uintLit(1)),
		ast.NewVarStmt("s", soltypes.Uint256, uintLit(2)),
		ast.NewExprStmt(ast.NewAssignment("=", ast.NewTuple(pair, uintVar("r"), uintVar("s")), ast.NewTuple(pair, uintVar("s"), uintVar("r")))),
		ast.NewExprStmt(ast.NewAssignment("=", ast.NewTuple(pair, nil, uintVar("s")), ast.NewTuple(pair, uintLit(7), uintLit(9)))),
		ast.NewReturn(ast.NewTuple(five, uintVar("sum"), uintVar("w"), uintVar("d"), uintVar("r"), uintVar("s"))),
	)
	fn.Mutability = "pure"
	return fn
}

func TestLoopsAndTupleAssignment(t *testing.T) {
	for _, version := range []string{"0.8.19", "0.4.24"} {
		t.Run(version, func(t *testing.T) {
			fn := newLoops()
			tc := newTestChain(t, newUnit(version, &ast.ContractDefinition{Name: "Loops", Functions: []*ast.FunctionDefinition{fn}}))
			addr := tc.deploy("Loops")
			assert.Equal(t, []int64{18, 5, 11, 2, 9}, tc.returns(tc.call(addr, fn), fn))
		})
	}
}

func TestLoopControlCannotLeaveFunction(t *testing.T) {
	escapes := map[string]ast.Statement{"brk": &ast.Break{}, "cont": &ast.Continue{}}
	var fns []*ast.FunctionDefinition
	for name, stmt := range escapes {
		fns = append(fns, ast.NewFunction(name, ast.VisibilityPublic, nil, nil, stmt))
	}
	tc := newTestChain(t, newUnit("0.8.19", &ast.ContractDefinition{Name: "Escape", Functions: fns}))
	addr := tc.deploy("Escape")

	for _, fn := range fns {
		before, err := tc.chain.Fingerprint()
		require.NoError(t, err)
		data, err := abi.EncodeWithSelector(tc.svc.Selector(fn), nil, nil)
		require.NoError(t, err)
		_, err = tc.chain.Call(&vmtypes.Message{From: deployer, To: addr, Data: data})
		require.Error(t, err, fn.Name)
		assert.True(t, interp.IsInternal(err), "%s: %v", fn.Name, err)

		after, err := tc.chain.Fingerprint()
		require.NoError(t, err)
		assert.Equal(t, before, after)
	}
}

func TestStorageIncrement(t *testing.T) {
	a := ast.NewStateVar("a", soltypes.Uint256, ast.VisibilityPublic, uintLit(5))
	one := []*ast.VariableDeclaration{ast.NewVar("", soltypes.Uint256)}
	post := ast.NewFunction("post", ast.VisibilityPublic, nil, one, ast.NewReturn(ast.NewUnary("++", false, uintVar("a"))))
	pre := ast.NewFunction("pre", ast.VisibilityPublic, nil, one, ast.NewReturn(ast.NewUnary("++", true, uintVar("a"))))
	tc := newTestChain(t, newUnit("0.8.19", &ast.ContractDefinition{
		Name:           "Stored",
		StateVariables: []*ast.VariableDeclaration{a},
		Functions:      []*ast.FunctionDefinition{post, pre},
	}))

	first := tc.deploy("Stored")
	assert.Equal(t, []int64{5}, tc.returns(tc.call(first, post), post))
	assert.Equal(t, int64(6), tc.getUint(first, a))

	second := tc.deploy("Stored")
	assert.Equal(t, []int64{6}, tc.returns(tc.call(second, pre), pre))
	assert.Equal(t, int64(6), tc.getUint(second, a))
}

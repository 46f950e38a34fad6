// Package interp executes contract code by walking the annotated syntax tree.
package interp

import (
	"github.com/annchain/solinterp/common"
	"github.com/annchain/solinterp/vm/artifacts"
	"github.com/annchain/solinterp/vm/ast"
	"github.com/annchain/solinterp/vm/infer"
	"github.com/annchain/solinterp/vm/scope"
	"github.com/annchain/solinterp/vm/values"
	vmtypes "github.com/annchain/solinterp/vm/types"
	"github.com/google/uuid"
)

// World is the ledger an execution runs against. Nested calls and creations
// go back through it so that each gets its own checkpoint.
type World interface {
	Call(msg *vmtypes.Message) (*vmtypes.CallResult, error)
	Create(msg *vmtypes.Message) (*vmtypes.CallResult, error)
	StateDB() vmtypes.StateDB
	Registry() *artifacts.Registry
	Libraries() map[string]common.Address
	Config() *vmtypes.InterpreterConfig
}

// Flow is how a statement hands control back to its parent.
type Flow int

const (
	Fallthrough Flow = iota
	Break
	Continue
	Return
)

func (f Flow) String() string {
	switch f {
	case Break:
		return "break"
	case Continue:
		return "continue"
	case Return:
		return "return"
	}
	return "fallthrough"
}

// Step is one trace record: an evaluated node and the value or location it produced.
type Step struct {
	Node  ast.Node
	Value values.Value
}

// frame is one internal call in progress.
type frame struct {
	fn      *ast.FunctionDefinition
	locals  *scope.Locals
	returns []string
}

// State is everything one execution owns: its memory, the storage of the account
// it runs on, the scope chain and the call stacks.
type State struct {
	ID uuid.UUID
	// Address is the account whose storage and balance the code sees as this.
	Address  common.Address
	Contract *ast.ContractDefinition
	Msg      *vmtypes.Message
	Memory   *values.Memory
	Store    *values.Store
	Globals  *scope.Globals
	// Internal is the stack of internal calls, External the chain of messages that led here.
	Internal []*ast.FunctionDefinition
	External []*vmtypes.Message
	Trace    []Step
	// ReturnData is the output of the last external call.
	ReturnData []byte

	head      scope.Scope
	contract  *scope.Contract
	libraries map[*ast.ContractDefinition]*scope.Contract
	frames    []*frame
	unchecked int
}

// Scope is the innermost active scope.
func (s *State) Scope() scope.Scope { return s.head }

func (s *State) pushScope(sc scope.Scope) scope.Scope {
	prev := s.head
	s.head = sc
	return prev
}

func (s *State) restoreScope(prev scope.Scope) {
	s.head = prev
}

func (s *State) record(node ast.Node, v values.Value) {
	s.Trace = append(s.Trace, Step{Node: node, Value: v})
}

func (s *State) currentFrame() *frame {
	if len(s.frames) == 0 {
		return nil
	}
	return s.frames[len(s.frames)-1]
}

// Visitor receives execution events. Embed BaseVisitor to implement only some of them.
type Visitor interface {
	Call(s *State, fn *ast.FunctionDefinition, args []values.Value)
	Return(s *State, fn *ast.FunctionDefinition, rets []values.Value)
	Exception(s *State, err error)
	Exec(s *State, stmt ast.Statement)
	Eval(s *State, expr ast.Expression, v values.Value)
}

type BaseVisitor struct{}

func (BaseVisitor) Call(*State, *ast.FunctionDefinition, []values.Value)   {}
func (BaseVisitor) Return(*State, *ast.FunctionDefinition, []values.Value) {}
func (BaseVisitor) Exception(*State, error)                               {}
func (BaseVisitor) Exec(*State, ast.Statement)                            {}
func (BaseVisitor) Eval(*State, ast.Expression, values.Value)             {}

// Interpreter evaluates one message against one contract.
type Interpreter struct {
	state    *State
	world    World
	infer    *infer.Service
	visitors []Visitor
}

// New prepares an execution of def's code on the storage of account self.
func New(world World, msg *vmtypes.Message, self common.Address, def *ast.ContractDefinition, visitors ...Visitor) (*Interpreter, error) {
	version := world.Config().Version
	if def.Unit != nil && def.Unit.Version != "" {
		version = def.Unit.Version
	}
	fns := functionTable(def.Unit)
	mem := values.NewMemory()
	mem.Functions = fns
	state := &State{
		ID:        uuid.New(),
		Address:   self,
		Contract:  def,
		Msg:       msg,
		Memory:    mem,
		Store:     &values.Store{DB: world.StateDB(), Account: self, ReadOnly: msg.Static, Functions: fns},
		External:  []*vmtypes.Message{msg},
		libraries: map[*ast.ContractDefinition]*scope.Contract{},
	}
	in := &Interpreter{state: state, world: world, infer: infer.New(version), visitors: visitors}
	builtins := scope.NewBuiltins(builtinTable())
	state.Globals = scope.NewGlobals(builtins)
	state.head = state.Globals
	if err := in.defineGlobals(); err != nil {
		return nil, err
	}
	state.Globals.Freeze()
	state.contract = scope.NewContract(state.Globals, def, state.Store)
	state.head = state.contract
	return in, nil
}

func (in *Interpreter) State() *State { return in.state }

func (in *Interpreter) Infer() *infer.Service { return in.infer }

func functionTable(unit *ast.SourceUnit) values.FunctionTable {
	fns := values.FunctionTable{}
	if unit == nil {
		return fns
	}
	for _, f := range unit.Functions {
		fns[f.ID] = f
	}
	for _, c := range unit.Contracts {
		for _, f := range c.Functions {
			fns[f.ID] = f
		}
	}
	return fns
}

// scopeFor is the scope a function body is bound over: the executing contract for
// its own and inherited functions, the library for library functions and the
// globals for free functions.
func (in *Interpreter) scopeFor(fn *ast.FunctionDefinition) (scope.Scope, error) {
	s := in.state
	if fn.Contract == nil {
		return s.Globals, nil
	}
	for _, c := range s.Contract.Linearized {
		if c == fn.Contract {
			return s.contract, nil
		}
	}
	if lib, ok := s.libraries[fn.Contract]; ok {
		return lib, nil
	}
	// library constants live between the globals and the library's own scope
	consts := scope.NewLocals(s.Globals, fn.Contract)
	prev := s.pushScope(consts)
	defer s.restoreScope(prev)
	for _, v := range fn.Contract.StateVariables {
		if !v.Constant {
			continue
		}
		val, err := in.constantValue(v)
		if err != nil {
			return nil, err
		}
		if err := consts.Declare(v.Name, v.Type, val); err != nil {
			return nil, internal(v, err)
		}
	}
	lib := scope.NewContract(consts, fn.Contract, s.Store)
	s.libraries[fn.Contract] = lib
	return lib, nil
}

func (in *Interpreter) checked() bool {
	return in.state.unchecked == 0 && in.infer.CheckedArithmetic()
}

func (in *Interpreter) notifyCall(fn *ast.FunctionDefinition, args []values.Value) {
	for _, v := range in.visitors {
		v.Call(in.state, fn, args)
	}
}

func (in *Interpreter) notifyReturn(fn *ast.FunctionDefinition, rets []values.Value) {
	for _, v := range in.visitors {
		v.Return(in.state, fn, rets)
	}
}

func (in *Interpreter) notifyException(err error) {
	for _, v := range in.visitors {
		v.Exception(in.state, err)
	}
}

func (in *Interpreter) notifyExec(stmt ast.Statement) {
	for _, v := range in.visitors {
		v.Exec(in.state, stmt)
	}
}

func (in *Interpreter) notifyEval(expr ast.Expression, val values.Value) {
	for _, v := range in.visitors {
		v.Eval(in.state, expr, val)
	}
}

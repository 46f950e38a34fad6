// Package ast holds the type-annotated program tree handed over by the compiler front end.
// The interpreter never builds or rewrites these nodes; it only walks them.
package ast

import (
	"github.com/annchain/solinterp/vm/soltypes"
)

// Node is any element of the program tree.
type Node interface {
	NodeID() int
}

// Base carries the identity shared by every node.
type Base struct {
	ID  int
	Src string
}

func (b *Base) NodeID() int { return b.ID }

// Expression nodes carry the static type inferred by the front end.
type Expression interface {
	Node
	StaticType() soltypes.Type
	exprNode()
}

type Statement interface {
	Node
	stmtNode()
}

type ExprBase struct {
	Base
	Type soltypes.Type
}

func (e *ExprBase) StaticType() soltypes.Type { return e.Type }
func (e *ExprBase) exprNode()                 {}

type StmtBase struct {
	Base
}

func (s *StmtBase) stmtNode() {}

type ContractKind int

const (
	KindContract ContractKind = iota
	KindLibrary
	KindInterface
)

type FunctionKind int

const (
	KindFunction FunctionKind = iota
	KindConstructor
	KindFallback
	KindReceive
)

type Visibility int

const (
	VisibilityInternal Visibility = iota
	VisibilityPrivate
	VisibilityPublic
	VisibilityExternal
)

// SourceUnit is one compiled file.
type SourceUnit struct {
	Base
	Path      string
	Version   string
	Contracts []*ContractDefinition
	Functions []*FunctionDefinition
	Constants []*VariableDeclaration
	Structs   []*soltypes.StructType
	Enums     []*soltypes.EnumType
	Errors    []*ErrorDefinition
	Events    []*EventDefinition
}

type InheritanceSpecifier struct {
	Base      *ContractDefinition
	Arguments []Expression
}

type ContractDefinition struct {
	Base
	Name  string
	Kind  ContractKind
	Bases []*InheritanceSpecifier
	// Linearized is the C3 order, most derived (the contract itself) first.
	Linearized     []*ContractDefinition
	StateVariables []*VariableDeclaration
	Functions      []*FunctionDefinition
	Structs        []*soltypes.StructType
	Enums          []*soltypes.EnumType
	Events         []*EventDefinition
	Errors         []*ErrorDefinition
	Unit           *SourceUnit
}

func (c *ContractDefinition) IsLibrary() bool { return c.Kind == KindLibrary }

// Constructor returns the contract's own constructor, if any.
func (c *ContractDefinition) Constructor() *FunctionDefinition {
	for _, f := range c.Functions {
		if f.Kind == KindConstructor {
			return f
		}
	}
	return nil
}

// SpecialFunction finds the most derived fallback or receive function.
func (c *ContractDefinition) SpecialFunction(kind FunctionKind) *FunctionDefinition {
	for _, base := range c.Linearized {
		for _, f := range base.Functions {
			if f.Kind == kind {
				return f
			}
		}
	}
	return nil
}

// ResolveFunction performs virtual lookup: the most derived function with the given name and arity.
func (c *ContractDefinition) ResolveFunction(name string, arity int) *FunctionDefinition {
	for _, base := range c.Linearized {
		for _, f := range base.Functions {
			if f.Kind == KindFunction && f.Name == name && (arity < 0 || len(f.Parameters) == arity) {
				return f
			}
		}
	}
	return nil
}

// AllStateVariables lists storage variables from the most base contract to the most derived one.
func (c *ContractDefinition) AllStateVariables() []*VariableDeclaration {
	var vars []*VariableDeclaration
	for i := len(c.Linearized) - 1; i >= 0; i-- {
		vars = append(vars, c.Linearized[i].StateVariables...)
	}
	return vars
}

type FunctionDefinition struct {
	Base
	Name       string
	Kind       FunctionKind
	Visibility Visibility
	Mutability string
	Parameters []*VariableDeclaration
	Returns    []*VariableDeclaration
	Body       *Block
	Contract   *ContractDefinition
}

// IsExternallyVisible reports whether the function appears in the dispatch table.
func (f *FunctionDefinition) IsExternallyVisible() bool {
	return f.Kind == KindFunction && (f.Visibility == VisibilityPublic || f.Visibility == VisibilityExternal)
}

func (f *FunctionDefinition) ParamTypes() []soltypes.Type {
	return declTypes(f.Parameters)
}

func (f *FunctionDefinition) ReturnTypes() []soltypes.Type {
	return declTypes(f.Returns)
}

func declTypes(decls []*VariableDeclaration) []soltypes.Type {
	ts := make([]soltypes.Type, len(decls))
	for i, d := range decls {
		ts[i] = d.Type
	}
	return ts
}

type VariableDeclaration struct {
	Base
	Name          string
	Type          soltypes.Type
	Constant      bool
	Immutable     bool
	StateVariable bool
	Indexed       bool
	Visibility    Visibility
	Value         Expression
}

type EventDefinition struct {
	Base
	Name       string
	Parameters []*VariableDeclaration
	Anonymous  bool
}

type ErrorDefinition struct {
	Base
	Name       string
	Parameters []*VariableDeclaration
}

// Statements.

type Block struct {
	StmtBase
	Statements []Statement
	Unchecked  bool
}

// VariableDeclarationStatement declares one or more locals. Nil entries in
// Declarations are skipped tuple components.
type VariableDeclarationStatement struct {
	StmtBase
	Declarations []*VariableDeclaration
	Initial      Expression
}

type ExpressionStatement struct {
	StmtBase
	Expression Expression
}

type Return struct {
	StmtBase
	Expression Expression
}

type IfStatement struct {
	StmtBase
	Condition Expression
	True      Statement
	False     Statement
}

type ForStatement struct {
	StmtBase
	Init      Statement
	Condition Expression
	Loop      Statement
	Body      Statement
}

type WhileStatement struct {
	StmtBase
	Condition Expression
	Body      Statement
}

type DoWhileStatement struct {
	StmtBase
	Condition Expression
	Body      Statement
}

type Break struct {
	StmtBase
}

type Continue struct {
	StmtBase
}

type EmitStatement struct {
	StmtBase
	Event     *EventDefinition
	Arguments []Expression
}

// RevertStatement raises a custom error.
type RevertStatement struct {
	StmtBase
	Error     *ErrorDefinition
	Arguments []Expression
}

// TryCatchClause.Kind is "" for the success clause and the catch-all, "Error" or "Panic" otherwise.
type TryCatchClause struct {
	Base
	Kind       string
	Success    bool
	Parameters []*VariableDeclaration
	Block      *Block
}

type TryStatement struct {
	StmtBase
	Call    *FunctionCall
	Clauses []*TryCatchClause
}

type InlineAssembly struct {
	StmtBase
	Source string
}

// Expressions.

type LiteralKind int

const (
	LiteralNumber LiteralKind = iota
	LiteralBool
	LiteralString
	LiteralHexString
)

type Literal struct {
	ExprBase
	Kind  LiteralKind
	Value string
}

type Identifier struct {
	ExprBase
	Name string
}

type MemberAccess struct {
	ExprBase
	Expression Expression
	Member     string
}

type IndexAccess struct {
	ExprBase
	BaseExpression Expression
	Index          Expression
}

type UnaryOperation struct {
	ExprBase
	Operator string
	Prefix   bool
	Sub      Expression
}

type BinaryOperation struct {
	ExprBase
	Operator string
	Left     Expression
	Right    Expression
}

type Assignment struct {
	ExprBase
	Operator string
	LHS      Expression
	RHS      Expression
}

type Conditional struct {
	ExprBase
	Condition Expression
	True      Expression
	False     Expression
}

// TupleExpression components may be nil, e.g. the left side of (, b) = f().
type TupleExpression struct {
	ExprBase
	Components  []Expression
	InlineArray bool
}

type CallKind int

const (
	CallOrdinary CallKind = iota
	CallTypeConversion
	CallStructConstructor
)

type FunctionCall struct {
	ExprBase
	Kind      CallKind
	Callee    Expression
	Arguments []Expression
	Names     []string
}

// FunctionCallOptions wraps a callee with {value: ..., gas: ..., salt: ...}.
type FunctionCallOptions struct {
	ExprBase
	Callee  Expression
	Names   []string
	Options []Expression
}

// NewExpression is the callee of `new T(...)`; Type holds the created type.
type NewExpression struct {
	ExprBase
	TypeName soltypes.Type
}

type ElementaryTypeNameExpression struct {
	ExprBase
	TypeName soltypes.Type
}

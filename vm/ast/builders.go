package ast

import (
	"fmt"

	"github.com/annchain/solinterp/vm/soltypes"
)

// Small constructors used by front-end adapters and tests.

func NewIdentifier(name string, t soltypes.Type) *Identifier {
	return &Identifier{ExprBase: ExprBase{Type: t}, Name: name}
}

func NewNumber(v interface{}, t soltypes.Type) *Literal {
	return &Literal{ExprBase: ExprBase{Type: t}, Kind: LiteralNumber, Value: fmt.Sprint(v)}
}

func NewBool(v bool) *Literal {
	return &Literal{ExprBase: ExprBase{Type: soltypes.Bool}, Kind: LiteralBool, Value: fmt.Sprint(v)}
}

func NewString(v string) *Literal {
	return &Literal{ExprBase: ExprBase{Type: soltypes.PointerType{To: soltypes.String, Location: soltypes.Memory}}, Kind: LiteralString, Value: v}
}

func NewBinary(op string, l, r Expression, t soltypes.Type) *BinaryOperation {
	return &BinaryOperation{ExprBase: ExprBase{Type: t}, Operator: op, Left: l, Right: r}
}

func NewUnary(op string, prefix bool, sub Expression) *UnaryOperation {
	t := sub.StaticType()
	if op == "!" {
		t = soltypes.Bool
	}
	return &UnaryOperation{ExprBase: ExprBase{Type: t}, Operator: op, Prefix: prefix, Sub: sub}
}

func NewAssignment(op string, lhs, rhs Expression) *Assignment {
	return &Assignment{ExprBase: ExprBase{Type: lhs.StaticType()}, Operator: op, LHS: lhs, RHS: rhs}
}

func NewMember(e Expression, member string, t soltypes.Type) *MemberAccess {
	return &MemberAccess{ExprBase: ExprBase{Type: t}, Expression: e, Member: member}
}

func NewIndex(base, index Expression, t soltypes.Type) *IndexAccess {
	return &IndexAccess{ExprBase: ExprBase{Type: t}, BaseExpression: base, Index: index}
}

func NewCall(callee Expression, t soltypes.Type, args ...Expression) *FunctionCall {
	return &FunctionCall{ExprBase: ExprBase{Type: t}, Callee: callee, Arguments: args}
}

func NewTuple(t soltypes.Type, comps ...Expression) *TupleExpression {
	return &TupleExpression{ExprBase: ExprBase{Type: t}, Components: comps}
}

func NewExprStmt(e Expression) *ExpressionStatement {
	return &ExpressionStatement{Expression: e}
}

func NewReturn(e Expression) *Return {
	return &Return{Expression: e}
}

func NewBlock(stmts ...Statement) *Block {
	return &Block{Statements: stmts}
}

func NewVar(name string, t soltypes.Type) *VariableDeclaration {
	return &VariableDeclaration{Name: name, Type: t}
}

func NewVarStmt(name string, t soltypes.Type, init Expression) *VariableDeclarationStatement {
	return &VariableDeclarationStatement{Declarations: []*VariableDeclaration{NewVar(name, t)}, Initial: init}
}

func NewStateVar(name string, t soltypes.Type, vis Visibility, init Expression) *VariableDeclaration {
	return &VariableDeclaration{Name: name, Type: t, StateVariable: true, Visibility: vis, Value: init}
}

func NewFunction(name string, vis Visibility, params, returns []*VariableDeclaration, body ...Statement) *FunctionDefinition {
	return &FunctionDefinition{
		Name:       name,
		Kind:       KindFunction,
		Visibility: vis,
		Mutability: "nonpayable",
		Parameters: params,
		Returns:    returns,
		Body:       NewBlock(body...),
	}
}

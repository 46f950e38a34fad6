package ast

// Inspect traverses the tree in depth-first order, calling f for each node.
// Children are skipped when f returns false.
func Inspect(node Node, f func(Node) bool) {
	if node == nil || isNilNode(node) || !f(node) {
		return
	}
	switch n := node.(type) {
	case *SourceUnit:
		for _, c := range n.Constants {
			Inspect(c, f)
		}
		for _, fn := range n.Functions {
			Inspect(fn, f)
		}
		for _, c := range n.Contracts {
			Inspect(c, f)
		}
	case *ContractDefinition:
		for _, b := range n.Bases {
			inspectExprs(b.Arguments, f)
		}
		for _, v := range n.StateVariables {
			Inspect(v, f)
		}
		for _, fn := range n.Functions {
			Inspect(fn, f)
		}
	case *FunctionDefinition:
		for _, p := range n.Parameters {
			Inspect(p, f)
		}
		for _, p := range n.Returns {
			Inspect(p, f)
		}
		if n.Body != nil {
			Inspect(n.Body, f)
		}
	case *VariableDeclaration:
		if n.Value != nil {
			Inspect(n.Value, f)
		}
	case *Block:
		for _, s := range n.Statements {
			Inspect(s, f)
		}
	case *VariableDeclarationStatement:
		for _, d := range n.Declarations {
			if d != nil {
				Inspect(d, f)
			}
		}
		if n.Initial != nil {
			Inspect(n.Initial, f)
		}
	case *ExpressionStatement:
		Inspect(n.Expression, f)
	case *Return:
		if n.Expression != nil {
			Inspect(n.Expression, f)
		}
	case *IfStatement:
		Inspect(n.Condition, f)
		Inspect(n.True, f)
		if n.False != nil {
			Inspect(n.False, f)
		}
	case *ForStatement:
		if n.Init != nil {
			Inspect(n.Init, f)
		}
		if n.Condition != nil {
			Inspect(n.Condition, f)
		}
		if n.Loop != nil {
			Inspect(n.Loop, f)
		}
		Inspect(n.Body, f)
	case *WhileStatement:
		Inspect(n.Condition, f)
		Inspect(n.Body, f)
	case *DoWhileStatement:
		Inspect(n.Body, f)
		Inspect(n.Condition, f)
	case *EmitStatement:
		inspectExprs(n.Arguments, f)
	case *RevertStatement:
		inspectExprs(n.Arguments, f)
	case *TryStatement:
		Inspect(n.Call, f)
		for _, c := range n.Clauses {
			Inspect(c, f)
		}
	case *TryCatchClause:
		for _, p := range n.Parameters {
			Inspect(p, f)
		}
		Inspect(n.Block, f)
	case *MemberAccess:
		Inspect(n.Expression, f)
	case *IndexAccess:
		Inspect(n.BaseExpression, f)
		if n.Index != nil {
			Inspect(n.Index, f)
		}
	case *UnaryOperation:
		Inspect(n.Sub, f)
	case *BinaryOperation:
		Inspect(n.Left, f)
		Inspect(n.Right, f)
	case *Assignment:
		Inspect(n.LHS, f)
		Inspect(n.RHS, f)
	case *Conditional:
		Inspect(n.Condition, f)
		Inspect(n.True, f)
		Inspect(n.False, f)
	case *TupleExpression:
		inspectExprs(n.Components, f)
	case *FunctionCall:
		Inspect(n.Callee, f)
		inspectExprs(n.Arguments, f)
	case *FunctionCallOptions:
		Inspect(n.Callee, f)
		inspectExprs(n.Options, f)
	}
}

func inspectExprs(exprs []Expression, f func(Node) bool) {
	for _, e := range exprs {
		if e != nil {
			Inspect(e, f)
		}
	}
}

func isNilNode(n Node) bool {
	switch v := n.(type) {
	case *Block:
		return v == nil
	case *FunctionCall:
		return v == nil
	case *TryCatchClause:
		return v == nil
	}
	return false
}

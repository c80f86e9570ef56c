package ast

import "fmt"

// KindOf returns the short kind name of n, used in diagnostics.
func KindOf(n Node) string {
	switch n.(type) {
	case *Module:
		return "module"
	case *FunctionPrototype:
		return "prototype"
	case *Function:
		return "function"
	case *Block:
		return "block"
	case *BinaryOp:
		return "binary-op"
	case *UnaryOp:
		return "unary-op"
	case *If:
		return "if"
	case *ForCountLoop:
		return "for-count"
	case *ForRangeLoop:
		return "for-range"
	case *WhileLoop:
		return "while"
	case *VariableDeclaration:
		return "declare"
	case *Variable:
		return "var"
	case *VariableAssignment:
		return "assign"
	case *FunctionCall:
		return "call"
	case *FunctionReturn:
		return "return"
	case *IntegerLiteral:
		return "integer"
	case *FloatLiteral:
		return "float"
	case nil:
		return "nil"
	}
	panic(fmt.Sprintf("ast: unknown node %T", n))
}

// Children returns the direct children of n in evaluation order. Absent
// optional children are skipped.
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		switch c := c.(type) {
		case nil:
		case *Block:
			if c != nil {
				out = append(out, c)
			}
		case *VariableDeclaration:
			if c != nil {
				out = append(out, c)
			}
		case *FunctionPrototype:
			if c != nil {
				out = append(out, c)
			}
		default:
			out = append(out, c)
		}
	}
	switch n := n.(type) {
	case *Module:
		for _, c := range n.Nodes {
			add(c)
		}
	case *Function:
		add(n.Prototype)
		add(n.Body)
	case *Block:
		for _, c := range n.Nodes {
			add(c)
		}
	case *BinaryOp:
		add(n.LHS)
		add(n.RHS)
	case *UnaryOp:
		add(n.Operand)
	case *If:
		add(n.Cond)
		add(n.Then)
		add(n.Else)
	case *ForCountLoop:
		add(n.Initializer)
		add(n.Condition)
		add(n.Update)
		add(n.Body)
	case *ForRangeLoop:
		add(n.Variable)
		add(n.Start)
		add(n.End)
		add(n.Step)
		add(n.Body)
	case *WhileLoop:
		add(n.Condition)
		add(n.Body)
	case *VariableDeclaration:
		add(n.Value)
	case *VariableAssignment:
		add(n.Value)
	case *FunctionCall:
		for _, c := range n.Args {
			add(c)
		}
	case *FunctionReturn:
		add(n.Value)
	}
	return out
}

// Walk visits n and its descendants in preorder. Returning false from visit
// skips the children of the visited node.
func Walk(n Node, visit func(Node) bool) {
	if !visit(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, visit)
	}
}

// Number assigns every node reachable from root its preorder index,
// starting at 0 for root. Nodes shared between parents keep their first
// index.
func Number(root Node) map[Node]int {
	index := make(map[Node]int)
	Walk(root, func(n Node) bool {
		if _, seen := index[n]; seen {
			return false
		}
		index[n] = len(index)
		return true
	})
	return index
}

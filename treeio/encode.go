package treeio

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arxlang/irx/ast"
	"github.com/arxlang/irx/sexy"
)

// Encode renders mod in the form Decode reads.
func Encode(mod *ast.Module) string {
	return EncodeNode(mod).String()
}

// EncodeNode converts any tree node into its S-expression.
func EncodeNode(n ast.Node) *sexy.Node {
	sym, text := sexy.NewSymbol, sexy.NewString
	list := func(head string, items ...*sexy.Node) *sexy.Node {
		return sexy.NewList(append([]*sexy.Node{sym(head)}, items...)...)
	}

	switch n := n.(type) {
	case *ast.Module:
		items := []*sexy.Node{sym("module"), text(n.Name)}
		for _, c := range n.Nodes {
			items = append(items, EncodeNode(c))
		}
		var keys []string
		var vals []*sexy.Node
		if n.Target.Triple != "" {
			keys, vals = append(keys, "triple"), append(vals, text(n.Target.Triple))
		}
		if n.Target.DataLayout != "" {
			keys, vals = append(keys, "datalayout"), append(vals, text(n.Target.DataLayout))
		}
		if len(keys) > 0 {
			return sexy.NewListWithMeta(items, keys, vals)
		}
		return sexy.NewList(items...)

	case *ast.FunctionPrototype:
		items := []*sexy.Node{sym("prototype"), text(n.Name), sym(n.ReturnType.String())}
		for _, a := range n.Args {
			items = append(items, list("arg", text(a.Name), sym(a.Type.String())))
		}
		if n.Scope == ast.ScopeLocal {
			return sexy.NewListWithMeta(items, []string{"scope"}, []*sexy.Node{sym("local")})
		}
		return sexy.NewList(items...)

	case *ast.Function:
		return list("function", EncodeNode(n.Prototype), EncodeNode(n.Body))

	case *ast.Block:
		var items []*sexy.Node
		if n == nil {
			return list("block")
		}
		for _, c := range n.Nodes {
			items = append(items, EncodeNode(c))
		}
		return list("block", items...)

	case *ast.IntegerLiteral:
		lit := sexy.NewInteger(strconv.FormatInt(n.Value, 10))
		if n.Type == ast.Int32 {
			return lit
		}
		return list(n.Type.String(), lit)

	case *ast.FloatLiteral:
		lit := sexy.NewFloat(formatFloat(n.Value))
		if n.Type == ast.Float64 {
			return lit
		}
		return list(n.Type.String(), lit)

	case *ast.Variable:
		return list("var", text(n.Name))

	case *ast.VariableDeclaration:
		items := []*sexy.Node{text(n.Name), sym(n.Type.String())}
		if n.Value != nil {
			items = append(items, EncodeNode(n.Value))
		}
		return list("declare", items...)

	case *ast.VariableAssignment:
		return list("assign", text(n.Name), EncodeNode(n.Value))

	case *ast.BinaryOp:
		return list("binary", text(n.Op), EncodeNode(n.LHS), EncodeNode(n.RHS))

	case *ast.UnaryOp:
		return list("unary", text(n.Op), EncodeNode(n.Operand))

	case *ast.FunctionCall:
		items := []*sexy.Node{text(n.Callee)}
		for _, a := range n.Args {
			items = append(items, EncodeNode(a))
		}
		return list("call", items...)

	case *ast.FunctionReturn:
		if n.Value == nil {
			return list("return")
		}
		return list("return", EncodeNode(n.Value))

	case *ast.If:
		items := []*sexy.Node{EncodeNode(n.Cond), EncodeNode(n.Then)}
		if n.Else != nil {
			items = append(items, EncodeNode(n.Else))
		}
		return list("if", items...)

	case *ast.ForCountLoop:
		return list("for-count", EncodeNode(n.Initializer), EncodeNode(n.Condition), EncodeNode(n.Update), EncodeNode(n.Body))

	case *ast.ForRangeLoop:
		items := []*sexy.Node{EncodeNode(n.Variable), EncodeNode(n.Start), EncodeNode(n.End)}
		if n.Step != nil {
			items = append(items, EncodeNode(n.Step))
		}
		return list("for-range", append(items, EncodeNode(n.Body))...)

	case *ast.WhileLoop:
		return list("while", EncodeNode(n.Condition), EncodeNode(n.Body))
	}
	panic(fmt.Sprintf("treeio: cannot encode %T", n))
}

// formatFloat keeps a decimal point so the text reads back as a float.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

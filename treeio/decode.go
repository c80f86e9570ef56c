// Package treeio reads and writes program trees as Sexy S-expressions.
//
//	(module "calc" ^{triple: "x86_64-pc-linux-gnu"}
//	  (function (prototype "add" i32 (arg "a" i32) (arg "b" i32))
//	    (block (return (binary "+" (var "a") (var "b"))))))
//
// Bare integers are i32 literals and bare floats are f64; (i8 5) or
// (f32 1.5) give a literal another type. A prototype outside a function
// declares an external function.
package treeio

import (
	"fmt"
	"strconv"

	"github.com/arxlang/irx/ast"
	"github.com/arxlang/irx/sexy"
)

func errorf(n *sexy.Node, format string, args ...any) error {
	return fmt.Errorf("line %d: %s", n.Line, fmt.Sprintf(format, args...))
}

// Decode parses a (module ...) form.
func Decode(src string) (*ast.Module, error) {
	n, err := sexy.Parse(src)
	if err != nil {
		return nil, err
	}
	return decodeModule(n)
}

// DecodeBody parses a sequence of statements and wraps them in
// main() -> i32 inside a module named "test".
func DecodeBody(src string) (*ast.Module, error) {
	// Same line as the input so line numbers stay accurate.
	n, err := sexy.Parse("(block " + src + "\n)")
	if err != nil {
		return nil, err
	}
	body, err := decodeBlock(n)
	if err != nil {
		return nil, err
	}
	main := &ast.Function{Prototype: ast.Proto("main", ast.Int32), Body: body}
	return ast.NewModule("test", main), nil
}

func expectList(n *sexy.Node, head string) error {
	if n.Head() != head {
		return errorf(n, "expected (%s ...), got %s", head, describe(n))
	}
	return nil
}

func describe(n *sexy.Node) string {
	if h := n.Head(); h != "" {
		return "(" + h + " ...)"
	}
	if n.IsAtom() {
		return fmt.Sprintf("%s %s", n.Type, n.String())
	}
	return n.Type.String()
}

func arity(n *sexy.Node, lo, hi int) error {
	got := len(n.Args())
	if got >= lo && (hi < 0 || got <= hi) {
		return nil
	}
	switch {
	case lo == hi:
		return errorf(n, "%s takes %d arguments, got %d", n.Head(), lo, got)
	case hi < 0:
		return errorf(n, "%s takes at least %d arguments, got %d", n.Head(), lo, got)
	}
	return errorf(n, "%s takes %d to %d arguments, got %d", n.Head(), lo, hi, got)
}

func str(n *sexy.Node, what string) (string, error) {
	if n.Type != sexy.NodeString {
		return "", errorf(n, "%s must be a string, got %s", what, describe(n))
	}
	return n.Text, nil
}

func dataType(n *sexy.Node) (ast.DataType, error) {
	if n.Type != sexy.NodeSymbol {
		return ast.Invalid, errorf(n, "expected a type, got %s", describe(n))
	}
	t, err := ast.ParseDataType(n.Text)
	if err != nil {
		return ast.Invalid, errorf(n, "%v", err)
	}
	return t, nil
}

func metaString(n *sexy.Node, key string) (string, error) {
	v := n.Meta(key)
	if v == nil {
		return "", nil
	}
	return str(v, key)
}

func decodeModule(n *sexy.Node) (*ast.Module, error) {
	if err := expectList(n, "module"); err != nil {
		return nil, err
	}
	if err := arity(n, 1, -1); err != nil {
		return nil, err
	}
	args := n.Args()
	name, err := str(args[0], "module name")
	if err != nil {
		return nil, err
	}
	mod := ast.NewModule(name)
	if mod.Target.Triple, err = metaString(n, "triple"); err != nil {
		return nil, err
	}
	if mod.Target.DataLayout, err = metaString(n, "datalayout"); err != nil {
		return nil, err
	}
	for _, item := range args[1:] {
		var node ast.Node
		switch item.Head() {
		case "function":
			node, err = decodeFunction(item)
		case "prototype":
			node, err = decodePrototype(item)
		default:
			// Left to the lowerer, which rejects statements at module level.
			node, err = decodeNode(item)
		}
		if err != nil {
			return nil, err
		}
		mod.Nodes = append(mod.Nodes, node)
	}
	return mod, nil
}

func decodeFunction(n *sexy.Node) (*ast.Function, error) {
	if err := arity(n, 2, 2); err != nil {
		return nil, err
	}
	args := n.Args()
	if err := expectList(args[0], "prototype"); err != nil {
		return nil, err
	}
	proto, err := decodePrototype(args[0])
	if err != nil {
		return nil, err
	}
	body, err := decodeBlock(args[1])
	if err != nil {
		return nil, err
	}
	return &ast.Function{Prototype: proto, Body: body}, nil
}

func decodePrototype(n *sexy.Node) (*ast.FunctionPrototype, error) {
	if err := arity(n, 2, -1); err != nil {
		return nil, err
	}
	args := n.Args()
	name, err := str(args[0], "function name")
	if err != nil {
		return nil, err
	}
	ret, err := dataType(args[1])
	if err != nil {
		return nil, err
	}
	proto := ast.Proto(name, ret)
	for _, a := range args[2:] {
		if err := expectList(a, "arg"); err != nil {
			return nil, err
		}
		if err := arity(a, 2, 2); err != nil {
			return nil, err
		}
		argName, err := str(a.Args()[0], "argument name")
		if err != nil {
			return nil, err
		}
		t, err := dataType(a.Args()[1])
		if err != nil {
			return nil, err
		}
		proto.Args = append(proto.Args, ast.Arg(argName, t))
	}
	if s := n.Meta("scope"); s != nil {
		switch {
		case s.Type == sexy.NodeSymbol && s.Text == "local":
			proto.Scope = ast.ScopeLocal
		case s.Type == sexy.NodeSymbol && s.Text == "global":
			proto.Scope = ast.ScopeGlobal
		default:
			return nil, errorf(s, "scope must be local or global, got %s", describe(s))
		}
	}
	return proto, nil
}

func decodeBlock(n *sexy.Node) (*ast.Block, error) {
	if err := expectList(n, "block"); err != nil {
		return nil, err
	}
	blk := &ast.Block{}
	for _, item := range n.Args() {
		node, err := decodeNode(item)
		if err != nil {
			return nil, err
		}
		blk.Nodes = append(blk.Nodes, node)
	}
	return blk, nil
}

func decodeDeclaration(n *sexy.Node) (*ast.VariableDeclaration, error) {
	if err := expectList(n, "declare"); err != nil {
		return nil, err
	}
	if err := arity(n, 2, 3); err != nil {
		return nil, err
	}
	args := n.Args()
	name, err := str(args[0], "variable name")
	if err != nil {
		return nil, err
	}
	t, err := dataType(args[1])
	if err != nil {
		return nil, err
	}
	decl := ast.Declare(name, t, nil)
	if len(args) == 3 {
		if decl.Value, err = decodeNode(args[2]); err != nil {
			return nil, err
		}
	}
	return decl, nil
}

func integer(n *sexy.Node, t ast.DataType) (ast.Node, error) {
	v, err := strconv.ParseInt(n.Text, 10, 64)
	if err != nil {
		return nil, errorf(n, "bad integer %s", n.Text)
	}
	return ast.Int(t, v), nil
}

func float(n *sexy.Node, t ast.DataType) (ast.Node, error) {
	v, err := strconv.ParseFloat(n.Text, 64)
	if err != nil {
		return nil, errorf(n, "bad float %s", n.Text)
	}
	return ast.Float(t, v), nil
}

func typedLiteral(n *sexy.Node, t ast.DataType) (ast.Node, error) {
	if err := arity(n, 1, 1); err != nil {
		return nil, err
	}
	v := n.Args()[0]
	switch {
	case v.Type == sexy.NodeInteger && t.IsFloat():
		return float(v, t)
	case v.Type == sexy.NodeInteger:
		return integer(v, t)
	case v.Type == sexy.NodeFloat && t.IsFloat():
		return float(v, t)
	}
	return nil, errorf(v, "%s literal needs a number, got %s", t, describe(v))
}

func decodeNode(n *sexy.Node) (ast.Node, error) {
	switch n.Type {
	case sexy.NodeInteger:
		return integer(n, ast.Int32)
	case sexy.NodeFloat:
		return float(n, ast.Float64)
	case sexy.NodeList:
	default:
		return nil, errorf(n, "unexpected %s", describe(n))
	}

	head := n.Head()
	args := n.Args()
	switch head {
	case "i8", "i16", "i32", "i64", "f32", "f64":
		t, _ := ast.ParseDataType(head)
		return typedLiteral(n, t)

	case "var":
		if err := arity(n, 1, 1); err != nil {
			return nil, err
		}
		name, err := str(args[0], "variable name")
		if err != nil {
			return nil, err
		}
		return ast.Var(name), nil

	case "declare":
		return decodeDeclaration(n)

	case "assign":
		if err := arity(n, 2, 2); err != nil {
			return nil, err
		}
		name, err := str(args[0], "variable name")
		if err != nil {
			return nil, err
		}
		v, err := decodeNode(args[1])
		if err != nil {
			return nil, err
		}
		return ast.Assign(name, v), nil

	case "binary":
		if err := arity(n, 3, 3); err != nil {
			return nil, err
		}
		op, err := str(args[0], "operator")
		if err != nil {
			return nil, err
		}
		lhs, err := decodeNode(args[1])
		if err != nil {
			return nil, err
		}
		rhs, err := decodeNode(args[2])
		if err != nil {
			return nil, err
		}
		return ast.Bin(op, lhs, rhs), nil

	case "unary":
		if err := arity(n, 2, 2); err != nil {
			return nil, err
		}
		op, err := str(args[0], "operator")
		if err != nil {
			return nil, err
		}
		v, err := decodeNode(args[1])
		if err != nil {
			return nil, err
		}
		return &ast.UnaryOp{Op: op, Operand: v}, nil

	case "call":
		if err := arity(n, 1, -1); err != nil {
			return nil, err
		}
		callee, err := str(args[0], "callee")
		if err != nil {
			return nil, err
		}
		call := ast.Call(callee)
		for _, a := range args[1:] {
			v, err := decodeNode(a)
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, v)
		}
		return call, nil

	case "return":
		if err := arity(n, 0, 1); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return ast.Ret(nil), nil
		}
		v, err := decodeNode(args[0])
		if err != nil {
			return nil, err
		}
		return ast.Ret(v), nil

	case "if":
		if err := arity(n, 2, 3); err != nil {
			return nil, err
		}
		cond, err := decodeNode(args[0])
		if err != nil {
			return nil, err
		}
		then, err := decodeBlock(args[1])
		if err != nil {
			return nil, err
		}
		node := &ast.If{Cond: cond, Then: then}
		if len(args) == 3 {
			if node.Else, err = decodeBlock(args[2]); err != nil {
				return nil, err
			}
		}
		return node, nil

	case "for-count":
		if err := arity(n, 4, 4); err != nil {
			return nil, err
		}
		init, err := decodeDeclaration(args[0])
		if err != nil {
			return nil, err
		}
		cond, err := decodeNode(args[1])
		if err != nil {
			return nil, err
		}
		update, err := decodeNode(args[2])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(args[3])
		if err != nil {
			return nil, err
		}
		return &ast.ForCountLoop{Initializer: init, Condition: cond, Update: update, Body: body}, nil

	case "for-range":
		if err := arity(n, 4, 5); err != nil {
			return nil, err
		}
		v, err := decodeDeclaration(args[0])
		if err != nil {
			return nil, err
		}
		if v.Value != nil {
			return nil, errorf(args[0], "range variable %s takes its start from the loop", v.Name)
		}
		bounds := make([]ast.Node, len(args)-2)
		for i, a := range args[1 : len(args)-1] {
			if bounds[i], err = decodeNode(a); err != nil {
				return nil, err
			}
		}
		body, err := decodeBlock(args[len(args)-1])
		if err != nil {
			return nil, err
		}
		loop := &ast.ForRangeLoop{Variable: v, Start: bounds[0], End: bounds[1], Body: body}
		if len(bounds) == 3 {
			loop.Step = bounds[2]
		}
		return loop, nil

	case "while":
		if err := arity(n, 2, 2); err != nil {
			return nil, err
		}
		cond, err := decodeNode(args[0])
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(args[1])
		if err != nil {
			return nil, err
		}
		return &ast.WhileLoop{Condition: cond, Body: body}, nil

	case "block":
		return decodeBlock(n)

	case "function":
		return decodeFunction(n)

	case "prototype":
		return decodePrototype(n)
	}
	return nil, errorf(n, "unknown form %s", describe(n))
}

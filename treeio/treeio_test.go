package treeio

import (
	"testing"

	"github.com/nalgeon/be"

	"github.com/arxlang/irx/ast"
)

const calc = `
(module "calc" ^{triple: "x86_64-pc-linux-gnu", datalayout: "e-m:e"}
  (prototype "abs" i32 (arg "x" i32))
  (function (prototype "add" i32 (arg "a" i32) (arg "b" i32))
    (block (return (binary "+" (var "a") (var "b"))))))
`

func TestDecodeModule(t *testing.T) {
	mod, err := Decode(calc)
	be.Err(t, err, nil)
	be.Equal(t, mod.Name, "calc")
	be.Equal(t, mod.Target, ast.Target{Triple: "x86_64-pc-linux-gnu", DataLayout: "e-m:e"})
	be.Equal(t, len(mod.Nodes), 2)

	abs, ok := mod.Nodes[0].(*ast.FunctionPrototype)
	be.True(t, ok)
	be.Equal(t, abs.Name, "abs")
	be.Equal(t, abs.Args, []ast.Argument{{Name: "x", Type: ast.Int32}})

	fn, ok := mod.Nodes[1].(*ast.Function)
	be.True(t, ok)
	be.Equal(t, fn.Prototype.ReturnType, ast.Int32)
	be.Equal(t, len(fn.Body.Nodes), 1)
	ret := fn.Body.Nodes[0].(*ast.FunctionReturn)
	sum := ret.Value.(*ast.BinaryOp)
	be.Equal(t, sum.Op, "+")
	be.Equal(t, sum.LHS.(*ast.Variable).Name, "a")
}

func TestDecodeLiterals(t *testing.T) {
	tests := []struct {
		src  string
		want ast.Node
	}{
		{"42", ast.I32(42)},
		{"-7", ast.I32(-7)},
		{"(i8 5)", ast.Int(ast.Int8, 5)},
		{"(i64 9000000000)", ast.Int(ast.Int64, 9000000000)},
		{"2.5", ast.Float(ast.Float64, 2.5)},
		{"(f32 1.5)", ast.Float(ast.Float32, 1.5)},
		{"(f64 3)", ast.Float(ast.Float64, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			mod, err := DecodeBody(tt.src)
			be.Err(t, err, nil)
			got := mod.Nodes[0].(*ast.Function).Body.Nodes[0]
			be.Equal(t, got, tt.want)
		})
	}
}

func TestDecodeBody(t *testing.T) {
	mod, err := DecodeBody(`
(declare "x" i32 1)
(assign "x" (binary "*" (var "x") 2))
(return (var "x"))`)
	be.Err(t, err, nil)
	be.Equal(t, mod.Name, "test")
	fn := mod.Nodes[0].(*ast.Function)
	be.Equal(t, fn.Prototype.Name, "main")
	be.Equal(t, fn.Prototype.ReturnType, ast.Int32)
	be.Equal(t, len(fn.Body.Nodes), 3)
	be.Equal(t, ast.KindOf(fn.Body.Nodes[0]), "declare")
	be.Equal(t, ast.KindOf(fn.Body.Nodes[1]), "assign")
}

func TestDecodeControlFlow(t *testing.T) {
	mod, err := DecodeBody(`
(if (var "c") (block 1) (block 2))
(if (var "c") (block 1))
(for-count (declare "i" i32 0) (binary "<" (var "i") 10) (unary "++" (var "i")) (block))
(for-range (declare "j" i32) 0 10 (block))
(for-range (declare "k" f64) 0.0 1.0 0.25 (block))
(while (var "c") (block (call "putchar" 65)))`)
	be.Err(t, err, nil)
	nodes := mod.Nodes[0].(*ast.Function).Body.Nodes

	full := nodes[0].(*ast.If)
	be.True(t, full.Else != nil)
	half := nodes[1].(*ast.If)
	be.True(t, half.Else == nil)

	count := nodes[2].(*ast.ForCountLoop)
	be.Equal(t, count.Initializer.Name, "i")
	be.Equal(t, count.Update.(*ast.UnaryOp).Op, "++")

	r := nodes[3].(*ast.ForRangeLoop)
	be.Equal(t, r.Variable.Name, "j")
	be.True(t, r.Step == nil)

	stepped := nodes[4].(*ast.ForRangeLoop)
	be.Equal(t, stepped.Variable.Type, ast.Float64)
	be.Equal(t, stepped.Step, ast.Node(ast.Float(ast.Float64, 0.25)))

	w := nodes[5].(*ast.WhileLoop)
	be.Equal(t, w.Body.Nodes[0].(*ast.FunctionCall).Callee, "putchar")
}

func TestLocalScopeMeta(t *testing.T) {
	mod, err := Decode(`(module "m" (function (prototype "h" void ^{scope: local}) (block)))`)
	be.Err(t, err, nil)
	be.Equal(t, mod.Nodes[0].(*ast.Function).Prototype.Scope, ast.ScopeLocal)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"not a module", `(block)`, "line 1: expected (module ...), got (block ...)"},
		{"unknown form", "(module \"m\"\n  (function (prototype \"f\" i32)\n    (block (frob 1))))", "line 3: unknown form (frob ...)"},
		{"bad type", `(module "m" (prototype "f" i128))`, `line 1: unknown type "i128"`},
		{"name not string", `(module "m" (prototype f i32))`, "line 1: function name must be a string, got symbol f"},
		{"arity", `(module "m" (function (prototype "f" i32)))`, "line 1: function takes 2 arguments, got 1"},
		{"bad scope", `(module "m" (prototype "f" i32 ^{scope: far}))`, "line 1: scope must be local or global, got symbol far"},
		{"range start", `(module "m" (function (prototype "f" i32) (block (for-range (declare "i" i32 1) 0 3 (block)))))`, "range variable i takes its start"},
		{"float as int", `(module "m" (function (prototype "f" i32) (block (i32 1.5))))`, "i32 literal needs a number"},
		{"syntax", `(module "m"`, "line 1: expected ')'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.src)
			be.Err(t, err, tt.want)
		})
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	mod, err := Decode(calc)
	be.Err(t, err, nil)
	text := Encode(mod)
	be.Equal(t, text, `(^{triple: "x86_64-pc-linux-gnu", datalayout: "e-m:e"} module "calc"`+
		` (prototype "abs" i32 (arg "x" i32))`+
		` (function (prototype "add" i32 (arg "a" i32) (arg "b" i32))`+
		` (block (return (binary "+" (var "a") (var "b"))))))`)

	again, err := Decode(text)
	be.Err(t, err, nil)
	be.Equal(t, Encode(again), text)
}

func TestEncodeLiterals(t *testing.T) {
	be.Equal(t, EncodeNode(ast.I32(3)).String(), "3")
	be.Equal(t, EncodeNode(ast.Int(ast.Int16, -3)).String(), "(i16 -3)")
	be.Equal(t, EncodeNode(ast.Float(ast.Float64, 2)).String(), "2.0")
	be.Equal(t, EncodeNode(ast.Float(ast.Float32, 0.5)).String(), "(f32 0.5)")
	be.Equal(t, EncodeNode(ast.Ret(nil)).String(), "(return)")
}

func TestEncodeBodyRoundTrip(t *testing.T) {
	src := `(for-range (declare "k" f64) 0.0 1.0 0.25 (block (if (var "c") (block 1) (block (unary "-" 2)))))`
	mod, err := DecodeBody(src)
	be.Err(t, err, nil)
	loop := mod.Nodes[0].(*ast.Function).Body.Nodes[0]
	be.Equal(t, EncodeNode(loop).String(), src)
}

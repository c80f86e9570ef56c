// Package lower translates a typed program tree into SSA instructions
// through a backend.Builder.
//
// A Translator owns every piece of mutable state used during one
// translation: the scope table, the register allocator, the result stack
// and the per-node register notes. Translate may be called once; use a
// fresh Translator for every module.
package lower

import (
	"fmt"

	"github.com/arxlang/irx/ast"
	"github.com/arxlang/irx/backend"
	"github.com/arxlang/irx/regs"
	"github.com/arxlang/irx/scope"
)

type Options struct {
	// Target fills the fields a module leaves empty.
	Target ast.Target
	// Logf receives progress messages. Nil disables them.
	Logf func(format string, args ...any)
}

type frameKind int

const (
	armFrame frameKind = iota
	loopFrame
)

// frame is an enclosing if arm or loop body of the statement being lowered.
type frame struct {
	kind     frameKind
	returned bool
}

type funcState struct {
	name   string
	ret    ast.DataType
	frames []frame
}

type Translator struct {
	b    backend.Builder
	opts Options

	scopes  *scope.Table[backend.Slot]
	regs    regs.Allocator
	results []backend.Value

	protos map[string]*ast.FunctionPrototype
	index  map[ast.Node]int
	notes  map[int]int // node index -> id of the last value named for it

	module string
	fn     *funcState
	used   bool
}

// New returns a Translator emitting through b.
func New(b backend.Builder, opts Options) *Translator {
	return &Translator{
		b:      b,
		opts:   opts,
		scopes: scope.NewTable[backend.Slot](),
		protos: map[string]*ast.FunctionPrototype{},
		notes:  map[int]int{},
	}
}

// Translate lowers mod and returns the rendered module.
func (t *Translator) Translate(mod *ast.Module) (string, error) {
	if t.used {
		return "", ErrReused
	}
	t.used = true
	t.index = ast.Number(mod)
	t.module = mod.Name

	target := mod.Target
	if target.Triple == "" {
		target.Triple = t.opts.Target.Triple
	}
	if target.DataLayout == "" {
		target.DataLayout = t.opts.Target.DataLayout
	}
	t.b.Begin(mod.Name, target)
	t.logf("module %s (triple %q)", mod.Name, target.Triple)

	if err := t.lowerModule(mod); err != nil {
		return "", err
	}
	out, err := t.b.Emit()
	if err != nil {
		return "", t.errorf(mod, ErrMalformedControlFlow, "%v", err)
	}
	return out, nil
}

// Register returns the id of the last value named while lowering n.
func (t *Translator) Register(n ast.Node) (int, bool) {
	idx, ok := t.index[n]
	if !ok {
		return 0, false
	}
	id, ok := t.notes[idx]
	return id, ok
}

func (t *Translator) logf(format string, args ...any) {
	if t.opts.Logf != nil {
		t.opts.Logf(format, args...)
	}
}

// name allocates the next id and returns hint.id, noting it against n.
func (t *Translator) name(n ast.Node, hint string) string {
	id := t.regs.Next()
	if idx, ok := t.index[n]; ok {
		t.notes[idx] = id
	}
	return fmt.Sprintf("%s.%d", hint, id)
}

func (t *Translator) push(v backend.Value) {
	t.results = append(t.results, v)
}

func (t *Translator) pop() backend.Value {
	v := t.results[len(t.results)-1]
	t.results = t.results[:len(t.results)-1]
	return v
}

// value lowers n and returns the single value it produced.
func (t *Translator) value(n ast.Node) (backend.Value, error) {
	depth := len(t.results)
	if err := t.lower(n); err != nil {
		return nil, err
	}
	if len(t.results) != depth+1 {
		t.results = t.results[:depth]
		return nil, t.errorf(n, ErrMalformedControlFlow, "%s does not produce a value", ast.KindOf(n))
	}
	return t.pop(), nil
}

// discard lowers n as a statement, dropping any value it produced.
func (t *Translator) discard(n ast.Node) error {
	depth := len(t.results)
	err := t.lower(n)
	t.results = t.results[:depth]
	return err
}

func (t *Translator) lower(n ast.Node) error {
	switch n := n.(type) {
	case *ast.Block:
		return t.lowerBlock(n, true)
	case *ast.If:
		return t.lowerIf(n)
	case *ast.ForCountLoop:
		return t.lowerForCount(n)
	case *ast.ForRangeLoop:
		return t.lowerForRange(n)
	case *ast.WhileLoop:
		return t.lowerWhile(n)
	case *ast.FunctionReturn:
		return t.lowerReturn(n)
	case *ast.VariableDeclaration:
		return t.lowerDeclaration(n)
	case *ast.VariableAssignment:
		return t.lowerAssignment(n, n.Name, n.Value)
	case *ast.Variable:
		return t.lowerVariable(n)
	case *ast.BinaryOp:
		return t.lowerBinary(n)
	case *ast.UnaryOp:
		return t.lowerUnary(n)
	case *ast.FunctionCall:
		return t.lowerCall(n)
	case *ast.IntegerLiteral:
		return t.lowerInteger(n)
	case *ast.FloatLiteral:
		return t.lowerFloat(n)
	case *ast.Module, *ast.Function, *ast.FunctionPrototype:
		return t.errorf(n, ErrMalformedControlFlow, "%s is only allowed at module level", ast.KindOf(n))
	case nil:
		return t.errorf(nil, ErrMalformedControlFlow, "missing node")
	}
	panic(fmt.Sprintf("lower: unhandled node %T", n))
}

func (t *Translator) zero(dt ast.DataType) backend.Value {
	if dt.IsFloat() {
		return t.b.ConstFloat(dt, 0)
	}
	return t.b.ConstInt(dt, 0)
}

func (t *Translator) one(dt ast.DataType) backend.Value {
	if dt.IsFloat() {
		return t.b.ConstFloat(dt, 1)
	}
	return t.b.ConstInt(dt, 1)
}

// truth tests v against the zero of its own type.
func (t *Translator) truth(n ast.Node, v backend.Value, hint string) backend.Value {
	if v.Type().IsFloat() {
		return t.b.FCmp(backend.NE, t.name(n, hint), v, t.zero(v.Type()))
	}
	return t.b.ICmp(backend.NE, t.name(n, hint), v, t.zero(v.Type()))
}

func (t *Translator) expect(n ast.Node, v backend.Value, want ast.DataType) error {
	if v.Type() != want {
		return t.errorf(n, ErrTypeMismatch, "have %s, want %s", v.Type(), want)
	}
	return nil
}

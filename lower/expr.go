package lower

import (
	"github.com/arxlang/irx/ast"
	"github.com/arxlang/irx/backend"
)

func (t *Translator) lowerInteger(n *ast.IntegerLiteral) error {
	if !n.Type.IsInteger() || n.Type == ast.Bool {
		return t.errorf(n, ErrTypeMismatch, "integer literal of type %s", n.Type)
	}
	bits := n.Type.Bits()
	if bits < 64 {
		lo, hi := -(int64(1) << (bits - 1)), int64(1)<<(bits-1)-1
		if n.Value < lo || n.Value > hi {
			return t.errorf(n, ErrTypeMismatch, "%d does not fit in %s", n.Value, n.Type)
		}
	}
	t.push(t.b.ConstInt(n.Type, n.Value))
	return nil
}

func (t *Translator) lowerFloat(n *ast.FloatLiteral) error {
	if !n.Type.IsFloat() {
		return t.errorf(n, ErrTypeMismatch, "float literal of type %s", n.Type)
	}
	t.push(t.b.ConstFloat(n.Type, n.Value))
	return nil
}

func (t *Translator) lookup(n ast.Node, name string) (backend.Slot, error) {
	s, err := t.scopes.Lookup(name)
	if err != nil {
		return nil, t.errorf(n, ErrUnboundName, "%s", name)
	}
	return s, nil
}

func (t *Translator) lowerVariable(n *ast.Variable) error {
	s, err := t.lookup(n, n.Name)
	if err != nil {
		return err
	}
	t.push(t.b.Load(t.name(n, n.Name), s))
	return nil
}

func (t *Translator) lowerDeclaration(n *ast.VariableDeclaration) error {
	if _, dup := t.scopes.Local(n.Name); dup {
		return t.errorf(n, ErrRedeclaration, "%s", n.Name)
	}
	if n.Type == ast.Void || n.Type == ast.Invalid || n.Type == ast.Bool {
		return t.errorf(n, ErrTypeMismatch, "variable %s has type %s", n.Name, n.Type)
	}
	init := t.zero(n.Type)
	if n.Value != nil {
		v, err := t.value(n.Value)
		if err != nil {
			return err
		}
		if err := t.expect(n, v, n.Type); err != nil {
			return err
		}
		init = v
	}
	s := t.b.EntryAlloca(t.name(n, n.Name+".addr"), n.Type)
	t.b.Store(init, s)
	t.scopes.Define(n.Name, s)
	return nil
}

// lowerAssignment stores rhs into the existing binding of name and yields
// the stored value.
func (t *Translator) lowerAssignment(n ast.Node, name string, rhs ast.Node) error {
	v, err := t.value(rhs)
	if err != nil {
		return err
	}
	s, err := t.lookup(n, name)
	if err != nil {
		return err
	}
	if err := t.expect(n, v, s.Elem()); err != nil {
		return err
	}
	t.b.Store(v, s)
	t.push(v)
	return nil
}

type arith struct {
	hint       string
	intOp      backend.Opcode
	floatOp    backend.Opcode
	comparison bool
	pred       backend.Predicate
}

var binaryOps = map[string]arith{
	"+":  {hint: "addtmp", intOp: backend.Add, floatOp: backend.FAdd},
	"-":  {hint: "subtmp", intOp: backend.Sub, floatOp: backend.FSub},
	"*":  {hint: "multmp", intOp: backend.Mul, floatOp: backend.FMul},
	"/":  {hint: "divtmp", intOp: backend.SDiv, floatOp: backend.FDiv},
	"%":  {hint: "remtmp", intOp: backend.SRem, floatOp: backend.FRem},
	"<":  {comparison: true, pred: backend.LT},
	">":  {comparison: true, pred: backend.GT},
	"<=": {comparison: true, pred: backend.LE},
	">=": {comparison: true, pred: backend.GE},
	"==": {comparison: true, pred: backend.EQ},
	"!=": {comparison: true, pred: backend.NE},
}

func (t *Translator) lowerBinary(n *ast.BinaryOp) error {
	if n.Op == "=" {
		target, ok := n.LHS.(*ast.Variable)
		if !ok {
			return t.errorf(n, ErrInvalidTarget, "cannot assign to %s", ast.KindOf(n.LHS))
		}
		return t.lowerAssignment(n, target.Name, n.RHS)
	}
	op, ok := binaryOps[n.Op]
	if !ok {
		return t.errorf(n, ErrUnsupportedOperator, "%q", n.Op)
	}

	lhs, err := t.value(n.LHS)
	if err != nil {
		return err
	}
	rhs, err := t.value(n.RHS)
	if err != nil {
		return err
	}
	if lhs.Type() != rhs.Type() {
		return t.errorf(n, ErrTypeMismatch, "%s %s %s", lhs.Type(), n.Op, rhs.Type())
	}

	if op.comparison {
		t.push(t.compare(n, op.pred, lhs, rhs))
		return nil
	}
	code := op.intOp
	if lhs.Type().IsFloat() {
		code = op.floatOp
	}
	t.push(t.b.Binary(code, t.name(n, op.hint), lhs, rhs))
	return nil
}

// compare emits the comparison and widens the i1 result back to the
// operand type.
func (t *Translator) compare(n ast.Node, p backend.Predicate, x, y backend.Value) backend.Value {
	dt := x.Type()
	if dt.IsFloat() {
		cmp := t.b.FCmp(p, t.name(n, "cmptmp"), x, y)
		return t.b.Convert(backend.UIToFP, t.name(n, "booltmp"), cmp, dt)
	}
	cmp := t.b.ICmp(p, t.name(n, "cmptmp"), x, y)
	return t.b.Convert(backend.ZExt, t.name(n, "booltmp"), cmp, dt)
}

func (t *Translator) lowerUnary(n *ast.UnaryOp) error {
	switch n.Op {
	case "++", "--":
		return t.lowerIncrement(n)
	case "-", "+", "!":
	default:
		return t.errorf(n, ErrUnsupportedOperator, "unary %q", n.Op)
	}

	v, err := t.value(n.Operand)
	if err != nil {
		return err
	}
	dt := v.Type()
	switch n.Op {
	case "+":
		t.push(v)
	case "-":
		if dt.IsFloat() {
			t.push(t.b.FNeg(t.name(n, "negtmp"), v))
		} else {
			t.push(t.b.Binary(backend.Sub, t.name(n, "negtmp"), t.zero(dt), v))
		}
	case "!":
		t.push(t.compare(n, backend.EQ, v, t.zero(dt)))
	}
	return nil
}

func (t *Translator) lowerIncrement(n *ast.UnaryOp) error {
	target, ok := n.Operand.(*ast.Variable)
	if !ok {
		return t.errorf(n, ErrInvalidTarget, "cannot apply %s to %s", n.Op, ast.KindOf(n.Operand))
	}
	s, err := t.lookup(n, target.Name)
	if err != nil {
		return err
	}
	dt := s.Elem()
	cur := t.b.Load(t.name(n, target.Name), s)

	code, hint := backend.Add, "inctmp"
	if dt.IsFloat() {
		code = backend.FAdd
	}
	if n.Op == "--" {
		code, hint = backend.Sub, "dectmp"
		if dt.IsFloat() {
			code = backend.FSub
		}
	}
	next := t.b.Binary(code, t.name(n, hint), cur, t.one(dt))
	t.b.Store(next, s)
	t.push(next)
	return nil
}

// builtins are declared on first use when no prototype claims the name.
var builtins = map[string]backend.Signature{
	"putchar": {
		Name:   "putchar",
		Params: []backend.Param{{Name: "c", Type: ast.Int32}},
		Ret:    ast.Int32,
	},
}

func (t *Translator) resolve(n *ast.FunctionCall) (backend.Func, error) {
	if fn, ok := t.b.Lookup(n.Callee); ok {
		return fn, nil
	}
	if proto, ok := t.protos[n.Callee]; ok {
		return t.declare(n, proto)
	}
	if sig, ok := builtins[n.Callee]; ok {
		fn, err := t.b.Declare(sig)
		if err != nil {
			return nil, t.errorf(n, ErrRedeclaration, "%v", err)
		}
		return fn, nil
	}
	return nil, t.errorf(n, ErrUnknownFunction, "%s", n.Callee)
}

func (t *Translator) lowerCall(n *ast.FunctionCall) error {
	fn, err := t.resolve(n)
	if err != nil {
		return err
	}
	sig := fn.Signature()
	if len(n.Args) != len(sig.Params) {
		return t.errorf(n, ErrArityMismatch, "%s takes %d arguments, got %d", sig.Name, len(sig.Params), len(n.Args))
	}

	args := make([]backend.Value, len(n.Args))
	for i, a := range n.Args {
		v, err := t.value(a)
		if err != nil {
			return err
		}
		if err := t.expect(a, v, sig.Params[i].Type); err != nil {
			return err
		}
		args[i] = v
	}

	if sig.Ret == ast.Void {
		t.b.Call("", fn, args)
		return nil
	}
	t.push(t.b.Call(t.name(n, "calltmp"), fn, args))
	return nil
}

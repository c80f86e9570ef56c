package lower

import (
	"github.com/arxlang/irx/ast"
	"github.com/arxlang/irx/backend"
)

func (t *Translator) topFrame() *frame {
	if t.fn == nil || len(t.fn.frames) == 0 {
		return nil
	}
	return &t.fn.frames[len(t.fn.frames)-1]
}

func (t *Translator) pushFrame(kind frameKind) int {
	t.fn.frames = append(t.fn.frames, frame{kind: kind})
	return len(t.fn.frames) - 1
}

func (t *Translator) popFrame() frame {
	f := t.fn.frames[len(t.fn.frames)-1]
	t.fn.frames = t.fn.frames[:len(t.fn.frames)-1]
	return f
}

// lowerBlock lowers each statement in order and pushes the value of the
// last one, if it produced any.
func (t *Translator) lowerBlock(blk *ast.Block, scoped bool) (err error) {
	if scoped {
		s := t.scopes.Push("block")
		defer func() {
			if perr := t.scopes.Pop(s); perr != nil && err == nil {
				err = t.errorf(blk, ErrScopeDiscipline, "%v", perr)
			}
		}()
	}

	var last backend.Value
	for _, n := range blk.Nodes {
		if t.b.Terminated() || (t.topFrame() != nil && t.topFrame().returned) {
			return t.errorf(n, ErrMalformedControlFlow, "unreachable %s after return", ast.KindOf(n))
		}
		depth := len(t.results)
		if err := t.lower(n); err != nil {
			return err
		}
		last = nil
		if len(t.results) > depth {
			last = t.pop()
			t.results = t.results[:depth]
		}
	}
	if last != nil {
		t.push(last)
	}
	return nil
}

func (t *Translator) lowerReturn(n *ast.FunctionReturn) error {
	if t.fn == nil {
		return t.errorf(n, ErrMalformedControlFlow, "return outside a function")
	}
	var v backend.Value
	if n.Value != nil {
		var err error
		if v, err = t.value(n.Value); err != nil {
			return err
		}
	}
	switch {
	case v == nil && t.fn.ret != ast.Void:
		return t.errorf(n, ErrTypeMismatch, "%s must return %s", t.fn.name, t.fn.ret)
	case v != nil && t.fn.ret == ast.Void:
		return t.errorf(n, ErrTypeMismatch, "%s returns void", t.fn.name)
	case v != nil:
		if err := t.expect(n, v, t.fn.ret); err != nil {
			return err
		}
	}
	return t.returnValue(n, v)
}

// returnValue emits ret, or, inside an if arm, hands v to the enclosing
// if so it can return the merged value.
func (t *Translator) returnValue(n ast.Node, v backend.Value) error {
	if f := t.topFrame(); f != nil {
		if f.kind == loopFrame {
			return t.errorf(n, ErrMalformedControlFlow, "return inside a loop body")
		}
		if v == nil {
			return t.errorf(n, ErrMalformedControlFlow, "void return inside an if arm")
		}
		f.returned = true
		t.push(v)
		return nil
	}
	var err error
	if v == nil {
		err = t.b.RetVoid()
	} else {
		err = t.b.Ret(v)
	}
	if err != nil {
		return t.errorf(n, ErrMalformedControlFlow, "%v", err)
	}
	return nil
}

// arm lowers one branch of an if in its own scope and returns its value.
func (t *Translator) arm(n *ast.If, blk *ast.Block, which string) (backend.Value, bool, error) {
	t.pushFrame(armFrame)
	depth := len(t.results)
	err := t.lowerBlock(blk, true)
	f := t.popFrame()
	if err != nil {
		return nil, false, err
	}
	if len(t.results) != depth+1 {
		return nil, false, t.errorf(n, ErrMalformedControlFlow, "%s arm yields no value", which)
	}
	return t.pop(), f.returned, nil
}

func (t *Translator) br(n ast.Node, target backend.Block) error {
	if err := t.b.Br(target); err != nil {
		return t.errorf(n, ErrMalformedControlFlow, "%v", err)
	}
	return nil
}

func (t *Translator) condBr(n ast.Node, cond backend.Value, then, els backend.Block) error {
	if err := t.b.CondBr(cond, then, els); err != nil {
		return t.errorf(n, ErrMalformedControlFlow, "%v", err)
	}
	return nil
}

func (t *Translator) lowerIf(n *ast.If) error {
	if n.Then == nil || n.Else == nil {
		return t.errorf(n, ErrMalformedControlFlow, "if needs both a then and an else arm")
	}
	cond, err := t.value(n.Cond)
	if err != nil {
		return err
	}
	test := t.truth(n, cond, "ifcond")

	thenB := t.b.NewBlock(t.name(n, "then"))
	elseB := t.b.NewBlock(t.name(n, "else"))
	mergeB := t.b.NewBlock(t.name(n, "ifcont"))
	if err := t.condBr(n, test, thenB, elseB); err != nil {
		return err
	}

	t.b.SetInsertPoint(thenB)
	thenV, thenRet, err := t.arm(n, n.Then, "then")
	if err != nil {
		return err
	}
	// Nested control flow may have moved the insert point.
	thenEnd := t.b.InsertBlock()
	if err := t.br(n, mergeB); err != nil {
		return err
	}

	t.b.SetInsertPoint(elseB)
	elseV, elseRet, err := t.arm(n, n.Else, "else")
	if err != nil {
		return err
	}
	elseEnd := t.b.InsertBlock()
	if err := t.br(n, mergeB); err != nil {
		return err
	}

	t.b.SetInsertPoint(mergeB)
	if thenRet != elseRet {
		return t.errorf(n, ErrMalformedControlFlow, "only one arm returns")
	}
	if thenV.Type() != elseV.Type() {
		return t.errorf(n, ErrTypeMismatch, "then arm is %s, else arm is %s", thenV.Type(), elseV.Type())
	}
	phi := t.b.Phi(t.name(n, "iftmp"), []backend.Incoming{
		{Value: thenV, Block: thenEnd},
		{Value: elseV, Block: elseEnd},
	})
	if thenRet {
		return t.returnValue(n, phi)
	}
	t.push(phi)
	return nil
}

// loopBody lowers a loop body, discarding its value.
func (t *Translator) loopBody(blk *ast.Block) error {
	if blk == nil {
		return nil
	}
	t.pushFrame(loopFrame)
	defer t.popFrame()
	return t.discard(blk)
}

// shadow binds name to s in the current scope and returns a function that
// restores whatever the current scope held for name before.
func (t *Translator) shadow(name string, s backend.Slot) func() {
	prev, had := t.scopes.Local(name)
	t.scopes.Define(name, s)
	return func() {
		if had {
			t.scopes.Define(name, prev)
		} else {
			t.scopes.Remove(name)
		}
	}
}

func (t *Translator) loopVariable(n ast.Node, decl *ast.VariableDeclaration, init ast.Node) (backend.Slot, error) {
	if decl.Type == ast.Void || decl.Type == ast.Invalid || decl.Type == ast.Bool {
		return nil, t.errorf(n, ErrTypeMismatch, "loop variable %s has type %s", decl.Name, decl.Type)
	}
	var start backend.Value
	if init != nil {
		var err error
		if start, err = t.value(init); err != nil {
			return nil, err
		}
		if err := t.expect(init, start, decl.Type); err != nil {
			return nil, err
		}
	} else {
		start = t.zero(decl.Type)
	}
	slot := t.b.EntryAlloca(t.name(decl, decl.Name+".addr"), decl.Type)
	t.b.Store(start, slot)
	return slot, nil
}

func (t *Translator) lowerForCount(n *ast.ForCountLoop) error {
	if n.Initializer == nil || n.Condition == nil {
		return t.errorf(n, ErrMalformedControlFlow, "for-count needs an initializer and a condition")
	}
	slot, err := t.loopVariable(n, n.Initializer, n.Initializer.Value)
	if err != nil {
		return err
	}
	defer t.shadow(n.Initializer.Name, slot)()

	condB := t.b.NewBlock(t.name(n, "for.cond"))
	bodyB := t.b.NewBlock(t.name(n, "for.body"))
	endB := t.b.NewBlock(t.name(n, "for.end"))
	if err := t.br(n, condB); err != nil {
		return err
	}

	t.b.SetInsertPoint(condB)
	cond, err := t.value(n.Condition)
	if err != nil {
		return err
	}
	if err := t.condBr(n, t.truth(n, cond, "loopcond"), bodyB, endB); err != nil {
		return err
	}

	t.b.SetInsertPoint(bodyB)
	if err := t.loopBody(n.Body); err != nil {
		return err
	}
	if n.Update != nil {
		if err := t.discard(n.Update); err != nil {
			return err
		}
	}
	if err := t.br(n, condB); err != nil {
		return err
	}

	t.b.SetInsertPoint(endB)
	t.push(t.b.ConstInt(ast.Int32, 0))
	return nil
}

func (t *Translator) lowerForRange(n *ast.ForRangeLoop) error {
	if n.Variable == nil || n.Start == nil || n.End == nil {
		return t.errorf(n, ErrMalformedControlFlow, "for-range needs a variable, a start and an end")
	}
	v := n.Variable
	slot, err := t.loopVariable(n, v, n.Start)
	if err != nil {
		return err
	}
	defer t.shadow(v.Name, slot)()

	condB := t.b.NewBlock(t.name(n, "range.cond"))
	bodyB := t.b.NewBlock(t.name(n, "range.body"))
	endB := t.b.NewBlock(t.name(n, "range.end"))
	if err := t.br(n, condB); err != nil {
		return err
	}

	// The end bound is evaluated afresh on every iteration.
	t.b.SetInsertPoint(condB)
	cur := t.b.Load(t.name(n, v.Name), slot)
	end, err := t.value(n.End)
	if err != nil {
		return err
	}
	if err := t.expect(n.End, end, v.Type); err != nil {
		return err
	}
	var test backend.Value
	if v.Type.IsFloat() {
		test = t.b.FCmp(backend.LT, t.name(n, "rangecond"), cur, end)
	} else {
		test = t.b.ICmp(backend.LT, t.name(n, "rangecond"), cur, end)
	}
	if err := t.condBr(n, test, bodyB, endB); err != nil {
		return err
	}

	t.b.SetInsertPoint(bodyB)
	if err := t.loopBody(n.Body); err != nil {
		return err
	}
	step := t.one(v.Type)
	if n.Step != nil {
		if step, err = t.value(n.Step); err != nil {
			return err
		}
		if err := t.expect(n.Step, step, v.Type); err != nil {
			return err
		}
	}
	op := backend.Add
	if v.Type.IsFloat() {
		op = backend.FAdd
	}
	again := t.b.Load(t.name(n, v.Name), slot)
	t.b.Store(t.b.Binary(op, t.name(n, "nextvar"), again, step), slot)
	if err := t.br(n, condB); err != nil {
		return err
	}

	t.b.SetInsertPoint(endB)
	t.push(t.b.ConstInt(ast.Int32, 0))
	return nil
}

func (t *Translator) lowerWhile(n *ast.WhileLoop) error {
	if n.Condition == nil {
		return t.errorf(n, ErrMalformedControlFlow, "while needs a condition")
	}
	condB := t.b.NewBlock(t.name(n, "while.cond"))
	bodyB := t.b.NewBlock(t.name(n, "while.body"))
	endB := t.b.NewBlock(t.name(n, "while.end"))
	if err := t.br(n, condB); err != nil {
		return err
	}

	t.b.SetInsertPoint(condB)
	cond, err := t.value(n.Condition)
	if err != nil {
		return err
	}
	if err := t.condBr(n, t.truth(n, cond, "whilecond"), bodyB, endB); err != nil {
		return err
	}

	t.b.SetInsertPoint(bodyB)
	if err := t.loopBody(n.Body); err != nil {
		return err
	}
	if err := t.br(n, condB); err != nil {
		return err
	}

	t.b.SetInsertPoint(endB)
	t.push(t.b.ConstInt(ast.Int32, 0))
	return nil
}

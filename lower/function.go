package lower

import (
	"fmt"

	"github.com/arxlang/irx/ast"
	"github.com/arxlang/irx/backend"
)

func (t *Translator) lowerModule(mod *ast.Module) (err error) {
	s := t.scopes.Push("module " + mod.Name)
	t.scopes.SetDefaultParent(s)
	defer func() {
		if perr := t.scopes.Pop(s); perr != nil && err == nil {
			err = t.errorf(mod, ErrScopeDiscipline, "%v", perr)
		}
	}()

	// Register every prototype first so calls may precede definitions.
	for _, n := range mod.Nodes {
		var proto *ast.FunctionPrototype
		switch n := n.(type) {
		case *ast.Function:
			proto = n.Prototype
		case *ast.FunctionPrototype:
			proto = n
		}
		if proto != nil {
			if _, seen := t.protos[proto.Name]; !seen {
				t.protos[proto.Name] = proto
			}
		}
	}

	for _, n := range mod.Nodes {
		switch n := n.(type) {
		case *ast.Function:
			err = t.lowerFunction(n)
		case *ast.FunctionPrototype:
			_, err = t.declare(n, n)
		default:
			err = t.errorf(n, ErrMalformedControlFlow, "%s is not allowed at module level", ast.KindOf(n))
		}
		if err != nil {
			return err
		}
		if len(t.results) != 0 {
			return t.errorf(n, ErrMalformedControlFlow, "%d values left on the result stack", len(t.results))
		}
	}
	return nil
}

func signature(p *ast.FunctionPrototype) backend.Signature {
	sig := backend.Signature{Name: p.Name, Ret: p.ReturnType}
	if p.Scope == ast.ScopeLocal {
		sig.Linkage = backend.Internal
	}
	for _, a := range p.Args {
		sig.Params = append(sig.Params, backend.Param{Name: a.Name, Type: a.Type})
	}
	return sig
}

// declare makes p known to the backend. n locates errors.
func (t *Translator) declare(n ast.Node, p *ast.FunctionPrototype) (backend.Func, error) {
	if p.ReturnType == ast.Invalid {
		return nil, t.errorf(n, ErrTypeMismatch, "%s has no return type", p.Name)
	}
	for _, a := range p.Args {
		if a.Type == ast.Void || a.Type == ast.Invalid {
			return nil, t.errorf(n, ErrTypeMismatch, "parameter %s of %s has type %s", a.Name, p.Name, a.Type)
		}
	}
	fn, err := t.b.Declare(signature(p))
	if err != nil {
		return nil, t.errorf(n, ErrRedeclaration, "%v", err)
	}
	return fn, nil
}

func (t *Translator) lowerFunction(n *ast.Function) (err error) {
	if n.Prototype == nil || n.Body == nil {
		return t.errorf(n, ErrMalformedControlFlow, "function needs a prototype and a body")
	}
	proto := n.Prototype
	fn, err := t.declare(n, proto)
	if err != nil {
		return err
	}

	s := t.scopes.PushDefault("function " + proto.Name)
	t.regs.Enter()
	t.fn = &funcState{name: proto.Name, ret: proto.ReturnType}
	t.logf("function %s", proto.Name)
	defer func() {
		if rerr := t.regs.Exit(); rerr != nil && err == nil {
			err = t.errorf(n, ErrScopeDiscipline, "%v", rerr)
		}
		if perr := t.scopes.Pop(s); perr != nil && err == nil {
			err = t.errorf(n, ErrScopeDiscipline, "%v", perr)
		}
		t.fn = nil
	}()

	if _, err := t.b.Define(fn); err != nil {
		return t.errorf(n, ErrRedeclaration, "%v", err)
	}
	if err := t.bindParams(proto, fn); err != nil {
		return err
	}

	// The body shares the function scope with the parameters.
	depth := len(t.results)
	err = t.lowerBlock(n.Body, false)
	t.results = t.results[:depth]
	if err != nil {
		return err
	}
	t.logf("function %s: %d names in scope", proto.Name, s.Names())
	if t.b.Terminated() {
		return nil
	}
	if proto.ReturnType != ast.Void {
		return t.errorf(n, ErrMalformedControlFlow, "%s can reach its end without returning %s", proto.Name, proto.ReturnType)
	}
	if err := t.b.RetVoid(); err != nil {
		return t.errorf(n, ErrMalformedControlFlow, "%v", err)
	}
	return nil
}

// bindParams names the parameters 1..N, realigns the allocator and copies
// each parameter into entry-block storage bound in the function scope.
func (t *Translator) bindParams(proto *ast.FunctionPrototype, fn backend.Func) error {
	for i, a := range proto.Args {
		t.b.NameParam(fn, i, fmt.Sprintf("%s.%d", a.Name, i+1))
	}
	if len(proto.Args) == 0 {
		t.regs.Reset()
	} else {
		t.regs.Set(len(proto.Args))
	}

	for i, a := range proto.Args {
		if _, dup := t.scopes.Local(a.Name); dup {
			return t.errorf(proto, ErrRedeclaration, "parameter %s", a.Name)
		}
		slot := t.b.EntryAlloca(t.name(proto, a.Name+".addr"), a.Type)
		t.b.Store(t.b.Param(fn, i), slot)
		t.scopes.Define(a.Name, slot)
	}
	return nil
}

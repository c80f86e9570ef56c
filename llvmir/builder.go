// Package llvmir implements backend.Builder with github.com/llir/llvm.
package llvmir

import (
	"fmt"
	"slices"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/arxlang/irx/ast"
	"github.com/arxlang/irx/backend"
	"github.com/arxlang/irx/sexy"
)

type val struct {
	v   value.Value
	typ ast.DataType
}

func (v *val) Type() ast.DataType { return v.typ }

type slot struct {
	inst *ir.InstAlloca
	elem ast.DataType
}

func (s *slot) Elem() ast.DataType { return s.elem }

type block struct {
	b    *ir.Block
	fn   *function
	name string

	// ops mirrors b.Insts one entry per instruction; term describes b.Term.
	ops  []*sexy.Node
	term *sexy.Node
}

func (b *block) Name() string { return b.name }

type function struct {
	f       *ir.Func
	sig     backend.Signature
	blocks  []*block
	allocas int
	defined bool
}

func (f *function) Signature() backend.Signature { return f.sig }

// Builder emits one LLVM module.
type Builder struct {
	mod   *ir.Module
	name  string
	funcs map[string]*function
	order []*function
	cur   *block
}

func New() *Builder {
	return &Builder{funcs: map[string]*function{}}
}

var _ backend.Builder = (*Builder)(nil)

func llvmType(t ast.DataType) types.Type {
	switch t {
	case ast.Void:
		return types.Void
	case ast.Bool:
		return types.I1
	case ast.Int8:
		return types.I8
	case ast.Int16:
		return types.I16
	case ast.Int32:
		return types.I32
	case ast.Int64:
		return types.I64
	case ast.Float32:
		return types.Float
	case ast.Float64:
		return types.Double
	}
	panic(fmt.Sprintf("llvmir: no LLVM type for %s", t))
}

func unwrap(v backend.Value) value.Value {
	return v.(*val).v
}

func (b *Builder) Begin(module string, target ast.Target) {
	b.mod = ir.NewModule()
	b.name = module
	b.mod.SourceFilename = module
	b.mod.TargetTriple = target.Triple
	b.mod.DataLayout = target.DataLayout
}

func (b *Builder) Declare(sig backend.Signature) (backend.Func, error) {
	if fn, ok := b.funcs[sig.Name]; ok {
		if !fn.sig.Equal(sig) {
			return nil, fmt.Errorf("conflicting declaration of %s: have %s, want %s", sig.Name, fn.sig, sig)
		}
		return fn, nil
	}

	params := make([]*ir.Param, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = ir.NewParam(p.Name, llvmType(p.Type))
	}
	f := b.mod.NewFunc(sig.Name, llvmType(sig.Ret), params...)
	if sig.Linkage == backend.Internal {
		f.Linkage = enum.LinkageInternal
	}
	fn := &function{f: f, sig: sig}
	b.funcs[sig.Name] = fn
	b.order = append(b.order, fn)
	return fn, nil
}

func (b *Builder) Lookup(name string) (backend.Func, bool) {
	fn, ok := b.funcs[name]
	if !ok {
		return nil, false
	}
	return fn, true
}

func (b *Builder) Define(f backend.Func) (backend.Block, error) {
	fn := f.(*function)
	if fn.defined {
		return nil, fmt.Errorf("function %s is already defined", fn.sig.Name)
	}
	fn.defined = true
	if fn.sig.Linkage == backend.External {
		fn.f.Preemption = enum.PreemptionDSOLocal
	}
	entry := b.appendBlock(fn, "entry")
	b.cur = entry
	return entry, nil
}

func (b *Builder) Param(f backend.Func, i int) backend.Value {
	fn := f.(*function)
	return &val{v: fn.f.Params[i], typ: fn.sig.Params[i].Type}
}

func (b *Builder) NameParam(f backend.Func, i int, name string) {
	f.(*function).f.Params[i].SetName(name)
}

func (b *Builder) appendBlock(fn *function, name string) *block {
	blk := &block{b: fn.f.NewBlock(name), fn: fn, name: name}
	fn.blocks = append(fn.blocks, blk)
	return blk
}

func (b *Builder) NewBlock(name string) backend.Block {
	return b.appendBlock(b.cur.fn, name)
}

func (b *Builder) SetInsertPoint(blk backend.Block) {
	b.cur = blk.(*block)
}

func (b *Builder) InsertBlock() backend.Block {
	if b.cur == nil {
		return nil
	}
	return b.cur
}

func (b *Builder) Terminated() bool {
	return b.cur.b.Term != nil
}

func (b *Builder) op(name string) {
	b.cur.ops = append(b.cur.ops, sexy.NewSymbol(name))
}

func (b *Builder) named(inst value.Named, name, op string, t ast.DataType) backend.Value {
	inst.SetName(name)
	b.op(op)
	return &val{v: inst, typ: t}
}

func (b *Builder) EntryAlloca(name string, t ast.DataType) backend.Slot {
	fn := b.cur.fn
	entry := fn.blocks[0]
	inst := ir.NewAlloca(llvmType(t))
	inst.SetName(name)
	entry.b.Insts = slices.Insert(entry.b.Insts, fn.allocas, ir.Instruction(inst))
	entry.ops = slices.Insert(entry.ops, fn.allocas, sexy.NewSymbol("alloca"))
	fn.allocas++
	return &slot{inst: inst, elem: t}
}

func (b *Builder) ConstInt(t ast.DataType, v int64) backend.Value {
	return &val{v: constant.NewInt(llvmType(t).(*types.IntType), v), typ: t}
}

func (b *Builder) ConstFloat(t ast.DataType, v float64) backend.Value {
	return &val{v: constant.NewFloat(llvmType(t).(*types.FloatType), v), typ: t}
}

func (b *Builder) Load(name string, s backend.Slot) backend.Value {
	st := s.(*slot)
	return b.named(b.cur.b.NewLoad(llvmType(st.elem), st.inst), name, "load", st.elem)
}

func (b *Builder) Store(v backend.Value, s backend.Slot) {
	b.cur.b.NewStore(unwrap(v), s.(*slot).inst)
	b.op("store")
}

func (b *Builder) Binary(op backend.Opcode, name string, x, y backend.Value) backend.Value {
	bb := b.cur.b
	lhs, rhs := unwrap(x), unwrap(y)
	var inst value.Named
	switch op {
	case backend.Add:
		inst = bb.NewAdd(lhs, rhs)
	case backend.Sub:
		inst = bb.NewSub(lhs, rhs)
	case backend.Mul:
		inst = bb.NewMul(lhs, rhs)
	case backend.SDiv:
		inst = bb.NewSDiv(lhs, rhs)
	case backend.SRem:
		inst = bb.NewSRem(lhs, rhs)
	case backend.FAdd:
		inst = bb.NewFAdd(lhs, rhs)
	case backend.FSub:
		inst = bb.NewFSub(lhs, rhs)
	case backend.FMul:
		inst = bb.NewFMul(lhs, rhs)
	case backend.FDiv:
		inst = bb.NewFDiv(lhs, rhs)
	case backend.FRem:
		inst = bb.NewFRem(lhs, rhs)
	default:
		panic(fmt.Sprintf("llvmir: unknown opcode %d", op))
	}
	return b.named(inst, name, op.String(), x.Type())
}

func (b *Builder) FNeg(name string, x backend.Value) backend.Value {
	return b.named(b.cur.b.NewFNeg(unwrap(x)), name, "fneg", x.Type())
}

var ipreds = map[backend.Predicate]enum.IPred{
	backend.EQ: enum.IPredEQ,
	backend.NE: enum.IPredNE,
	backend.LT: enum.IPredSLT,
	backend.GT: enum.IPredSGT,
	backend.LE: enum.IPredSLE,
	backend.GE: enum.IPredSGE,
}

var fpreds = map[backend.Predicate]enum.FPred{
	backend.EQ: enum.FPredOEQ,
	backend.NE: enum.FPredONE,
	backend.LT: enum.FPredOLT,
	backend.GT: enum.FPredOGT,
	backend.LE: enum.FPredOLE,
	backend.GE: enum.FPredOGE,
}

func (b *Builder) ICmp(p backend.Predicate, name string, x, y backend.Value) backend.Value {
	return b.named(b.cur.b.NewICmp(ipreds[p], unwrap(x), unwrap(y)), name, "icmp", ast.Bool)
}

func (b *Builder) FCmp(p backend.Predicate, name string, x, y backend.Value) backend.Value {
	return b.named(b.cur.b.NewFCmp(fpreds[p], unwrap(x), unwrap(y)), name, "fcmp", ast.Bool)
}

func (b *Builder) Convert(c backend.Cast, name string, v backend.Value, to ast.DataType) backend.Value {
	switch c {
	case backend.ZExt:
		return b.named(b.cur.b.NewZExt(unwrap(v), llvmType(to)), name, "zext", to)
	case backend.UIToFP:
		return b.named(b.cur.b.NewUIToFP(unwrap(v), llvmType(to)), name, "uitofp", to)
	}
	panic(fmt.Sprintf("llvmir: unknown cast %d", c))
}

func (b *Builder) Phi(name string, incs []backend.Incoming) backend.Value {
	list := make([]*ir.Incoming, len(incs))
	trace := []*sexy.Node{sexy.NewSymbol("phi")}
	for i, inc := range incs {
		list[i] = ir.NewIncoming(unwrap(inc.Value), inc.Block.(*block).b)
		trace = append(trace, sexy.NewString(inc.Block.Name()))
	}
	phi := b.cur.b.NewPhi(list...)
	phi.SetName(name)
	b.cur.ops = append(b.cur.ops, sexy.NewList(trace...))
	return &val{v: phi, typ: incs[0].Value.Type()}
}

func (b *Builder) Call(name string, f backend.Func, args []backend.Value) backend.Value {
	fn := f.(*function)
	vals := make([]value.Value, len(args))
	for i, a := range args {
		vals[i] = unwrap(a)
	}
	call := b.cur.b.NewCall(fn.f, vals...)
	b.cur.ops = append(b.cur.ops, sexy.NewList(sexy.NewSymbol("call"), sexy.NewString(fn.sig.Name)))
	if fn.sig.Ret == ast.Void {
		return nil
	}
	call.SetName(name)
	return &val{v: call, typ: fn.sig.Ret}
}

func (b *Builder) sealed() error {
	if b.cur.b.Term != nil {
		return fmt.Errorf("block %s is already terminated", b.cur.name)
	}
	return nil
}

func (b *Builder) Br(target backend.Block) error {
	if err := b.sealed(); err != nil {
		return err
	}
	t := target.(*block)
	b.cur.b.NewBr(t.b)
	b.cur.term = sexy.NewList(sexy.NewSymbol("br"), sexy.NewString(t.name))
	return nil
}

func (b *Builder) CondBr(cond backend.Value, then, els backend.Block) error {
	if err := b.sealed(); err != nil {
		return err
	}
	t, f := then.(*block), els.(*block)
	b.cur.b.NewCondBr(unwrap(cond), t.b, f.b)
	b.cur.term = sexy.NewList(sexy.NewSymbol("condbr"), sexy.NewString(t.name), sexy.NewString(f.name))
	return nil
}

func (b *Builder) Ret(v backend.Value) error {
	if err := b.sealed(); err != nil {
		return err
	}
	b.cur.b.NewRet(unwrap(v))
	b.cur.term = sexy.NewSymbol("ret")
	return nil
}

func (b *Builder) RetVoid() error {
	if err := b.sealed(); err != nil {
		return err
	}
	b.cur.b.NewRet(nil)
	b.cur.term = sexy.NewSymbol("ret")
	return nil
}

// Emit renders the module. Every block of every defined function must be
// terminated.
func (b *Builder) Emit() (string, error) {
	for _, fn := range b.order {
		for _, blk := range fn.blocks {
			if blk.b.Term == nil {
				return "", fmt.Errorf("block %s of %s has no terminator", blk.name, fn.sig.Name)
			}
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "; ModuleID = '%s'\n", b.name)
	sb.WriteString(b.mod.String())
	return sb.String(), nil
}

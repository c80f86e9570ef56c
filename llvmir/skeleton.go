package llvmir

import "github.com/arxlang/irx/sexy"

// Skeleton describes the control-flow graph of a defined function as
//
//	(func "name" (block "entry" alloca store ... (condbr "then.4" "else.5")) ...)
//
// listing instruction kinds in order and the terminator last. Phi and call
// entries name their incoming blocks and callee.
func (b *Builder) Skeleton(name string) (*sexy.Node, bool) {
	fn, ok := b.funcs[name]
	if !ok || !fn.defined {
		return nil, false
	}
	items := []*sexy.Node{sexy.NewSymbol("func"), sexy.NewString(name)}
	for _, blk := range fn.blocks {
		blockItems := []*sexy.Node{sexy.NewSymbol("block"), sexy.NewString(blk.name)}
		blockItems = append(blockItems, blk.ops...)
		if blk.term != nil {
			blockItems = append(blockItems, blk.term)
		}
		items = append(items, sexy.NewList(blockItems...))
	}
	return sexy.NewList(items...), true
}

// Functions returns the names of defined functions in declaration order.
func (b *Builder) Functions() []string {
	var names []string
	for _, fn := range b.order {
		if fn.defined {
			names = append(names, fn.sig.Name)
		}
	}
	return names
}

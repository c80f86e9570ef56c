// Package scope implements the lexical scope tree used during lowering.
package scope

import (
	"errors"
	"fmt"
)

var (
	// ErrUnbound is returned when a name has no reachable binding.
	ErrUnbound = errors.New("unbound name")
	// ErrDiscipline is returned when scopes are popped out of LIFO order.
	ErrDiscipline = errors.New("scope discipline violated")
)

// Scope is one node of the scope tree.
type Scope[V any] struct {
	Name     string
	Parent   *Scope[V]
	Children []*Scope[V]

	vars map[string]V
}

// Names returns the number of names bound directly in s.
func (s *Scope[V]) Names() int {
	return len(s.vars)
}

// Table owns the scope tree and the stack of active scopes.
type Table[V any] struct {
	root          *Scope[V]
	active        []*Scope[V]
	defaultParent *Scope[V]
}

// NewTable returns a table whose only scope is the root, which is current.
func NewTable[V any]() *Table[V] {
	root := &Scope[V]{Name: "root", vars: map[string]V{}}
	return &Table[V]{root: root}
}

func (t *Table[V]) Root() *Scope[V] {
	return t.root
}

// Current returns the most recently pushed active scope, or the root.
func (t *Table[V]) Current() *Scope[V] {
	if len(t.active) == 0 {
		return t.root
	}
	return t.active[len(t.active)-1]
}

// Depth is the number of active pushed scopes.
func (t *Table[V]) Depth() int {
	return len(t.active)
}

// SetDefaultParent records s as the parent for scopes created by
// PushDefault. A nil s clears it.
func (t *Table[V]) SetDefaultParent(s *Scope[V]) {
	t.defaultParent = s
}

// Push creates a child of the current scope and makes it current.
func (t *Table[V]) Push(name string) *Scope[V] {
	return t.pushUnder(t.Current(), name)
}

// PushDefault creates a child of the default parent, or of the current
// scope when no default parent is recorded, and makes it current. It lets
// a function body nest under its module even when it is lowered from
// inside another function.
func (t *Table[V]) PushDefault(name string) *Scope[V] {
	parent := t.defaultParent
	if parent == nil {
		parent = t.Current()
	}
	return t.pushUnder(parent, name)
}

func (t *Table[V]) pushUnder(parent *Scope[V], name string) *Scope[V] {
	s := &Scope[V]{Name: name, Parent: parent, vars: map[string]V{}}
	parent.Children = append(parent.Children, s)
	t.active = append(t.active, s)
	return s
}

// Pop removes s from the tree. s must be the current scope.
func (t *Table[V]) Pop(s *Scope[V]) error {
	if len(t.active) == 0 {
		return fmt.Errorf("%w: pop of %q with no active scope", ErrDiscipline, s.Name)
	}
	top := t.active[len(t.active)-1]
	if top != s {
		return fmt.Errorf("%w: pop of %q while %q is current", ErrDiscipline, s.Name, top.Name)
	}
	t.active = t.active[:len(t.active)-1]

	if p := s.Parent; p != nil {
		for i, c := range p.Children {
			if c == s {
				p.Children = append(p.Children[:i], p.Children[i+1:]...)
				break
			}
		}
	}
	if t.defaultParent == s {
		t.defaultParent = nil
	}
	return nil
}

// Define binds name in the current scope, replacing a binding only if it
// lives in that same scope.
func (t *Table[V]) Define(name string, v V) {
	t.Current().vars[name] = v
}

// Local returns the binding of name in the current scope only.
func (t *Table[V]) Local(name string) (V, bool) {
	v, ok := t.Current().vars[name]
	return v, ok
}

// Remove deletes the binding of name from the current scope.
func (t *Table[V]) Remove(name string) {
	delete(t.Current().vars, name)
}

// Lookup finds name in the current scope or its ancestors.
func (t *Table[V]) Lookup(name string) (V, error) {
	s := t.owner(name)
	if s == nil {
		var zero V
		return zero, fmt.Errorf("%w: %s", ErrUnbound, name)
	}
	return s.vars[name], nil
}

// Assign rebinds name in whichever scope Lookup would find it in.
func (t *Table[V]) Assign(name string, v V) error {
	s := t.owner(name)
	if s == nil {
		return fmt.Errorf("%w: %s", ErrUnbound, name)
	}
	s.vars[name] = v
	return nil
}

func (t *Table[V]) owner(name string) *Scope[V] {
	for s := t.Current(); s != nil; s = s.Parent {
		if _, ok := s.vars[name]; ok {
			return s
		}
	}
	return nil
}

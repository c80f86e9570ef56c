// Package regs numbers SSA values within each function being lowered.
package regs

import "errors"

// ErrUnderflow is returned by Exit when no function context is active.
var ErrUnderflow = errors.New("register context underflow")

// Allocator holds one counter per active function context.
type Allocator struct {
	counters []int
}

// Enter pushes a zeroed counter for a new function.
func (a *Allocator) Enter() {
	a.counters = append(a.counters, 0)
}

// Exit pops the current function's counter.
func (a *Allocator) Exit() error {
	if len(a.counters) == 0 {
		return ErrUnderflow
	}
	a.counters = a.counters[:len(a.counters)-1]
	return nil
}

// Next advances the current counter and returns the new id.
// It panics when no function context is active.
func (a *Allocator) Next() int {
	top := a.top()
	*top++
	return *top
}

// Last returns the most recently allocated id, 0 if none.
func (a *Allocator) Last() int {
	return *a.top()
}

// Reset zeroes the current counter.
func (a *Allocator) Reset() {
	*a.top() = 0
}

// Set redefines the current counter so the next id is n+1.
func (a *Allocator) Set(n int) {
	*a.top() = n
}

func (a *Allocator) Depth() int {
	return len(a.counters)
}

func (a *Allocator) top() *int {
	if len(a.counters) == 0 {
		panic("regs: no active function context")
	}
	return &a.counters[len(a.counters)-1]
}

// Package backend declares the instruction emission capabilities the
// lowering engine depends on. Implementations live in other packages.
package backend

import (
	"fmt"

	"github.com/arxlang/irx/ast"
)

// Value is an SSA value produced by the builder.
type Value interface {
	Type() ast.DataType
}

// Slot is a stack storage cell holding one value of Elem type.
type Slot interface {
	Elem() ast.DataType
}

// Block is a basic block of the function being defined.
type Block interface {
	Name() string
}

// Func is a declared function.
type Func interface {
	Signature() Signature
}

type Linkage int

const (
	External Linkage = iota
	Internal
)

type Param struct {
	Name string
	Type ast.DataType
}

type Signature struct {
	Name    string
	Params  []Param
	Ret     ast.DataType
	Linkage Linkage
}

// Equal reports whether s and o describe the same callable. Parameter
// names are ignored.
func (s Signature) Equal(o Signature) bool {
	if s.Name != o.Name || s.Ret != o.Ret || s.Linkage != o.Linkage || len(s.Params) != len(o.Params) {
		return false
	}
	for i := range s.Params {
		if s.Params[i].Type != o.Params[i].Type {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	str := s.Name + "("
	for i, p := range s.Params {
		if i > 0 {
			str += ", "
		}
		str += p.Type.String()
	}
	return str + ") -> " + s.Ret.String()
}

// Incoming is one phi edge.
type Incoming struct {
	Value Value
	Block Block
}

type Opcode int

const (
	Add Opcode = iota
	Sub
	Mul
	SDiv
	SRem
	FAdd
	FSub
	FMul
	FDiv
	FRem
)

var opcodeNames = [...]string{"add", "sub", "mul", "sdiv", "srem", "fadd", "fsub", "fmul", "fdiv", "frem"}

func (o Opcode) String() string {
	if int(o) < len(opcodeNames) {
		return opcodeNames[o]
	}
	return fmt.Sprintf("opcode(%d)", int(o))
}

// Predicate is a comparison kind. Integer comparisons are signed and
// floating comparisons are ordered.
type Predicate int

const (
	EQ Predicate = iota
	NE
	LT
	GT
	LE
	GE
)

type Cast int

const (
	ZExt   Cast = iota // integer widening, zero filled
	UIToFP             // unsigned integer to floating
)

// Builder is the emission capability set.
//
// Instructions are appended to the insert block. Begin must be called once
// before anything else; Emit renders everything built so far.
type Builder interface {
	Begin(module string, target ast.Target)

	// Declare adds a function declaration, or returns the existing one when
	// the signature matches. A mismatching signature is an error.
	Declare(sig Signature) (Func, error)
	Lookup(name string) (Func, bool)
	// Define starts the body of fn, returning its entry block, which
	// becomes the insert block. Defining a function twice is an error.
	Define(fn Func) (Block, error)
	Param(fn Func, i int) Value
	NameParam(fn Func, i int, name string)

	// NewBlock appends an empty block to the function owning the insert
	// block.
	NewBlock(name string) Block
	SetInsertPoint(b Block)
	InsertBlock() Block
	// Terminated reports whether the insert block is sealed.
	Terminated() bool

	// EntryAlloca allocates storage in the entry block of the current
	// function, after any earlier allocations.
	EntryAlloca(name string, t ast.DataType) Slot
	ConstInt(t ast.DataType, v int64) Value
	ConstFloat(t ast.DataType, v float64) Value
	Load(name string, s Slot) Value
	Store(v Value, s Slot)

	Binary(op Opcode, name string, x, y Value) Value
	FNeg(name string, x Value) Value
	ICmp(p Predicate, name string, x, y Value) Value
	FCmp(p Predicate, name string, x, y Value) Value
	Convert(c Cast, name string, v Value, to ast.DataType) Value
	Phi(name string, incs []Incoming) Value
	// Call returns nil when fn returns void.
	Call(name string, fn Func, args []Value) Value

	Br(target Block) error
	CondBr(cond Value, then, els Block) error
	Ret(v Value) error
	RetVoid() error

	Emit() (string, error)
}

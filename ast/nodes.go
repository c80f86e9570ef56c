// Package ast defines the typed program tree consumed by the lowering engine.
//
// The node set is closed: every variant implements the unexported node
// method, so a type switch over Node in another package can only ever see
// the kinds declared here.
package ast

// Node is any program tree node.
type Node interface {
	node()
}

// ScopeKind is the storage class of a function prototype.
type ScopeKind int

const (
	ScopeGlobal ScopeKind = iota // externally visible
	ScopeLocal                   // internal to the module
)

// Target names the code generation target of a module. Empty fields fall
// back to the host target.
type Target struct {
	Triple     string
	DataLayout string
}

type Module struct {
	Name   string
	Target Target
	Nodes  []Node // *Function and *FunctionPrototype
}

type Argument struct {
	Name string
	Type DataType
}

type FunctionPrototype struct {
	Name       string
	Args       []Argument
	ReturnType DataType
	Scope      ScopeKind
}

type Function struct {
	Prototype *FunctionPrototype
	Body      *Block
}

type Block struct {
	Nodes []Node
}

// BinaryOp covers arithmetic, comparison and the "=" assignment operator.
type BinaryOp struct {
	Op  string
	LHS Node
	RHS Node
}

type UnaryOp struct {
	Op      string
	Operand Node
}

type If struct {
	Cond Node
	Then *Block
	Else *Block
}

type ForCountLoop struct {
	Initializer *VariableDeclaration
	Condition   Node
	Update      Node
	Body        *Block
}

// ForRangeLoop iterates Variable from Start while it is less than End.
// A nil Step means 1.
type ForRangeLoop struct {
	Variable *VariableDeclaration
	Start    Node
	End      Node
	Step     Node
	Body     *Block
}

type WhileLoop struct {
	Condition Node
	Body      *Block
}

// VariableDeclaration binds Name in the current scope. A nil Value
// initializes the variable to zero.
type VariableDeclaration struct {
	Name  string
	Type  DataType
	Value Node
}

type Variable struct {
	Name string
}

type VariableAssignment struct {
	Name  string
	Value Node
}

type FunctionCall struct {
	Callee string
	Args   []Node
}

// FunctionReturn with a nil Value returns void.
type FunctionReturn struct {
	Value Node
}

type IntegerLiteral struct {
	Type  DataType
	Value int64
}

type FloatLiteral struct {
	Type  DataType
	Value float64
}

func (*Module) node()              {}
func (*FunctionPrototype) node()   {}
func (*Function) node()            {}
func (*Block) node()               {}
func (*BinaryOp) node()            {}
func (*UnaryOp) node()             {}
func (*If) node()                  {}
func (*ForCountLoop) node()        {}
func (*ForRangeLoop) node()        {}
func (*WhileLoop) node()           {}
func (*VariableDeclaration) node() {}
func (*Variable) node()            {}
func (*VariableAssignment) node()  {}
func (*FunctionCall) node()        {}
func (*FunctionReturn) node()      {}
func (*IntegerLiteral) node()      {}
func (*FloatLiteral) node()        {}

package ast

// Shorthand constructors for building trees in code.

func Int(t DataType, v int64) *IntegerLiteral { return &IntegerLiteral{Type: t, Value: v} }

func I32(v int64) *IntegerLiteral { return Int(Int32, v) }

func Float(t DataType, v float64) *FloatLiteral { return &FloatLiteral{Type: t, Value: v} }

func Var(name string) *Variable { return &Variable{Name: name} }

func Bin(op string, lhs, rhs Node) *BinaryOp { return &BinaryOp{Op: op, LHS: lhs, RHS: rhs} }

func Ret(v Node) *FunctionReturn { return &FunctionReturn{Value: v} }

func Declare(name string, t DataType, v Node) *VariableDeclaration {
	return &VariableDeclaration{Name: name, Type: t, Value: v}
}

func Assign(name string, v Node) *VariableAssignment {
	return &VariableAssignment{Name: name, Value: v}
}

func Call(callee string, args ...Node) *FunctionCall {
	return &FunctionCall{Callee: callee, Args: args}
}

func Body(nodes ...Node) *Block { return &Block{Nodes: nodes} }

func Proto(name string, ret DataType, args ...Argument) *FunctionPrototype {
	return &FunctionPrototype{Name: name, Args: args, ReturnType: ret}
}

func Arg(name string, t DataType) Argument { return Argument{Name: name, Type: t} }

func Func(proto *FunctionPrototype, body ...Node) *Function {
	return &Function{Prototype: proto, Body: Body(body...)}
}

func NewModule(name string, nodes ...Node) *Module {
	return &Module{Name: name, Nodes: nodes}
}

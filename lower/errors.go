package lower

import (
	"errors"
	"fmt"
	"strings"

	"github.com/arxlang/irx/ast"
	"github.com/arxlang/irx/scope"
)

// Failure kinds. Match them with errors.Is.
var (
	ErrUnboundName          = scope.ErrUnbound
	ErrRedeclaration        = errors.New("redeclaration")
	ErrUnsupportedOperator  = errors.New("unsupported operator")
	ErrArityMismatch        = errors.New("arity mismatch")
	ErrUnknownFunction      = errors.New("unknown function")
	ErrMalformedControlFlow = errors.New("malformed control flow")
	ErrScopeDiscipline      = scope.ErrDiscipline
	ErrTypeMismatch         = errors.New("type mismatch")
	ErrInvalidTarget        = errors.New("invalid assignment target")
	ErrReused               = errors.New("translator already used")
)

// Error locates a translation failure.
type Error struct {
	Kind     error
	Node     ast.Node
	NodeID   int // preorder index of Node, -1 if unknown
	Function string
	Module   string
	Detail   string
}

func (e *Error) Error() string {
	var sb strings.Builder
	if e.Module != "" {
		fmt.Fprintf(&sb, "module %s: ", e.Module)
	}
	if e.Function != "" {
		fmt.Fprintf(&sb, "function %s: ", e.Function)
	}
	if e.Node != nil {
		fmt.Fprintf(&sb, "node %d (%s): ", e.NodeID, ast.KindOf(e.Node))
	}
	sb.WriteString(e.Kind.Error())
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func (t *Translator) errorf(n ast.Node, kind error, format string, args ...any) error {
	e := &Error{
		Kind:   kind,
		Node:   n,
		NodeID: -1,
		Module: t.module,
		Detail: fmt.Sprintf(format, args...),
	}
	if n != nil {
		if id, ok := t.index[n]; ok {
			e.NodeID = id
		}
	}
	if t.fn != nil {
		e.Function = t.fn.name
	}
	return e
}

package ast

import "fmt"

// DataType is the type tag carried by declarations, literals and prototypes.
type DataType int

const (
	Invalid DataType = iota
	Void
	Bool // i1, produced by comparisons before widening
	Int8
	Int16
	Int32
	Int64
	Float32
	Float64
)

func (t DataType) String() string {
	switch t {
	case Void:
		return "void"
	case Bool:
		return "i1"
	case Int8:
		return "i8"
	case Int16:
		return "i16"
	case Int32:
		return "i32"
	case Int64:
		return "i64"
	case Float32:
		return "f32"
	case Float64:
		return "f64"
	default:
		return fmt.Sprintf("invalid(%d)", int(t))
	}
}

// IsFloat reports whether t is a floating-point type.
func (t DataType) IsFloat() bool {
	return t == Float32 || t == Float64
}

// IsInteger reports whether t is an integer type, including Bool.
func (t DataType) IsInteger() bool {
	switch t {
	case Bool, Int8, Int16, Int32, Int64:
		return true
	}
	return false
}

// Bits returns the storage width of t, or 0 for Void and Invalid.
func (t DataType) Bits() int {
	switch t {
	case Bool:
		return 1
	case Int8:
		return 8
	case Int16:
		return 16
	case Int32, Float32:
		return 32
	case Int64, Float64:
		return 64
	}
	return 0
}

// ParseDataType maps a type name such as "i32" or "f64" to its DataType.
// Bool is internal and has no spelling.
func ParseDataType(name string) (DataType, error) {
	switch name {
	case "void":
		return Void, nil
	case "i8":
		return Int8, nil
	case "i16":
		return Int16, nil
	case "i32":
		return Int32, nil
	case "i64":
		return Int64, nil
	case "f32":
		return Float32, nil
	case "f64":
		return Float64, nil
	}
	return Invalid, fmt.Errorf("unknown type %q", name)
}

package queryir

import (
	"fmt"
	"strings"
)

// TypeKind is the canonical scalar type carried by constants, parameters,
// null literals and catalog columns.
type TypeKind int

const (
	TypeUnknown TypeKind = iota
	TypeBinary
	TypeBoolean
	TypeByte
	TypeDateTime
	TypeDateTimeOffset
	TypeDecimal
	TypeDouble
	TypeGuid
	TypeSingle
	TypeSByte
	TypeInt16
	TypeInt32
	TypeInt64
	TypeString
	TypeTime
	TypeGeometry
)

var typeKindNames = map[TypeKind]string{
	TypeUnknown:        "unknown",
	TypeBinary:         "binary",
	TypeBoolean:        "boolean",
	TypeByte:           "byte",
	TypeDateTime:       "datetime",
	TypeDateTimeOffset: "datetimeoffset",
	TypeDecimal:        "decimal",
	TypeDouble:         "double",
	TypeGuid:           "guid",
	TypeSingle:         "single",
	TypeSByte:          "sbyte",
	TypeInt16:          "int16",
	TypeInt32:          "int32",
	TypeInt64:          "int64",
	TypeString:         "string",
	TypeTime:           "time",
	TypeGeometry:       "geometry",
}

func (k TypeKind) String() string {
	if name, ok := typeKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TypeKind(%d)", int(k))
}

// IsNumeric reports whether constants of this kind have a numeric literal
// form.
func (k TypeKind) IsNumeric() bool {
	switch k {
	case TypeByte, TypeSByte, TypeInt16, TypeInt32, TypeInt64,
		TypeDecimal, TypeDouble, TypeSingle:
		return true
	}
	return false
}

// ParseTypeKind resolves a type name as written in plan and catalog files.
// Matching is case-insensitive.
func ParseTypeKind(name string) (TypeKind, error) {
	lower := strings.ToLower(strings.TrimSpace(name))
	for k, n := range typeKindNames {
		if n == lower {
			return k, nil
		}
	}
	return TypeUnknown, fmt.Errorf("unknown type kind %q", name)
}

// CompareOp is a comparison operator.
type CompareOp int

const (
	OpEqual CompareOp = iota
	OpNotEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
)

func (op CompareOp) String() string {
	switch op {
	case OpEqual:
		return "="
	case OpNotEqual:
		return "<>"
	case OpLess:
		return "<"
	case OpGreater:
		return ">"
	case OpLessEqual:
		return "<="
	case OpGreaterEqual:
		return ">="
	}
	return fmt.Sprintf("CompareOp(%d)", int(op))
}

// ArithOp is an arithmetic operator. OpNegate is unary.
type ArithOp int

const (
	OpPlus ArithOp = iota
	OpMinus
	OpMultiply
	OpDivide
	OpModulo
	OpNegate
)

func (op ArithOp) String() string {
	switch op {
	case OpPlus:
		return "+"
	case OpMinus:
		return "-"
	case OpMultiply:
		return "*"
	case OpDivide:
		return "/"
	case OpModulo:
		return "%"
	case OpNegate:
		return "neg"
	}
	return fmt.Sprintf("ArithOp(%d)", int(op))
}

// Arity returns the operand count the operator expects.
func (op ArithOp) Arity() int {
	if op == OpNegate {
		return 1
	}
	return 2
}

// JoinKind selects the join flavour.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeftOuter
	JoinFullOuter
	JoinCross
)

func (k JoinKind) String() string {
	switch k {
	case JoinInner:
		return "inner"
	case JoinLeftOuter:
		return "left"
	case JoinFullOuter:
		return "full"
	case JoinCross:
		return "cross"
	}
	return fmt.Sprintf("JoinKind(%d)", int(k))
}

// ApplyKind selects between CROSS APPLY and OUTER APPLY semantics.
type ApplyKind int

const (
	ApplyCross ApplyKind = iota
	ApplyOuter
)

func (k ApplyKind) String() string {
	if k == ApplyOuter {
		return "outer"
	}
	return "cross"
}

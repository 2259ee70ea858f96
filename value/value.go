package value

import (
	"fmt"

	"github.com/midbel/xlcalc/layout"
)

type ValueKind int8

const (
	KindScalar ValueKind = 1 << iota
	KindError
	KindArray
)

const (
	TypeNumber = "number"
	TypeText   = "text"
	TypeBool   = "boolean"
	TypeBlank  = "blank"
	TypeError  = "error"
	TypeArray  = "array"
)

type Value interface {
	Kind() ValueKind
	Type() string
	fmt.Stringer
}

type ScalarValue interface {
	Value
	Scalar() any
}

type ArrayValue interface {
	Value
	Dimension() layout.Dimension
	At(int, int) ScalarValue
}

func IsError(v Value) bool {
	return v != nil && v.Kind() == KindError
}

func IsArray(v Value) bool {
	return v != nil && v.Kind() == KindArray
}

func IsNumber(v Value) bool {
	_, ok := v.(Float)
	return ok
}

func IsText(v Value) bool {
	_, ok := v.(Text)
	return ok
}

func IsBool(v Value) bool {
	_, ok := v.(Boolean)
	return ok
}

func IsBlank(v Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(Blank)
	return ok
}

// First returns the first error found in the given values.
func First(list ...Value) (Error, bool) {
	for _, v := range list {
		if e, ok := v.(Error); ok {
			return e, true
		}
	}
	return Error{}, false
}

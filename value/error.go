package value

import (
	"errors"
	"strings"
)

var (
	ErrNull  = createError("#NULL!")
	ErrDiv0  = createError("#DIV/0!")
	ErrValue = createError("#VALUE!")
	ErrRef   = createError("#REF!")
	ErrName  = createError("#NAME?")
	ErrNum   = createError("#NUM!")
	ErrNA    = createError("#N/A")
	ErrCalc  = createError("#CALC!")
	ErrSpill = createError("#SPILL!")
	ErrCirc  = createError("#CIRC!")
)

var errorList = []Error{
	ErrNull,
	ErrDiv0,
	ErrValue,
	ErrRef,
	ErrName,
	ErrNum,
	ErrNA,
	ErrCalc,
	ErrSpill,
	ErrCirc,
}

// Error is both a cell value and a Go error, so that casting functions can
// report the Excel error they produce through their error result.
type Error struct {
	code string
}

func createError(code string) Error {
	return Error{
		code: code,
	}
}

// ErrorFromCode finds the error matching the literal code. The match is case
// insensitive.
func ErrorFromCode(code string) (Error, bool) {
	for _, e := range errorList {
		if strings.EqualFold(e.code, code) {
			return e, true
		}
	}
	return Error{}, false
}

func Errors() []Error {
	return append([]Error(nil), errorList...)
}

// Fail turns any Go error into a cell value: value errors are returned as is,
// everything else becomes #VALUE!.
func Fail(err error) Error {
	var e Error
	if errors.As(err, &e) {
		return e
	}
	return ErrValue
}

func (Error) Type() string {
	return TypeError
}

func (Error) Kind() ValueKind {
	return KindError
}

func (e Error) Error() string {
	return e.code
}

func (e Error) String() string {
	return e.code
}

func (e Error) Scalar() any {
	return e.code
}

func (e Error) Code() string {
	return e.code
}

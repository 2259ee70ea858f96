package calc

import (
	"errors"
)

var (
	ErrFormula  = errors.New("invalid formula")
	ErrSheet    = errors.New("invalid sheet")
	ErrPosition = errors.New("invalid position")
	ErrTable    = errors.New("invalid table")
	ErrName     = errors.New("invalid name")
	ErrCount    = errors.New("invalid count")
)

package value

import (
	"strings"

	"golang.org/x/text/cases"
)

func rank(v ScalarValue) int {
	switch v.(type) {
	case Float:
		return 0
	case Text:
		return 1
	case Boolean:
		return 2
	case Error:
		return 3
	default:
		return -1
	}
}

// Compare orders two scalars: numbers sort before text and text before
// booleans. Text is compared without regard to case. A blank takes the zero
// value of the type it is compared with.
func Compare(a, b ScalarValue) int {
	if a == nil {
		a = Blank{}
	}
	if b == nil {
		b = Blank{}
	}
	a, b = zeroBlank(a, b), zeroBlank(b, a)
	ra, rb := rank(a), rank(b)
	if ra != rb {
		if ra < rb {
			return -1
		}
		return 1
	}
	switch x := a.(type) {
	case Float:
		y := b.(Float)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		default:
			return 0
		}
	case Text:
		return CompareText(string(x), string(b.(Text)))
	case Boolean:
		y := b.(Boolean)
		switch {
		case x == y:
			return 0
		case !bool(x):
			return -1
		default:
			return 1
		}
	case Error:
		return strings.Compare(x.code, b.(Error).code)
	default:
		return 0
	}
}

func zeroBlank(v, other ScalarValue) ScalarValue {
	if _, ok := v.(Blank); !ok {
		return v
	}
	switch other.(type) {
	case Text:
		return Text("")
	case Boolean:
		return Boolean(false)
	default:
		return Float(0)
	}
}

func Equal(a, b ScalarValue) bool {
	return Compare(a, b) == 0
}

// Fold gives the caseless form of str used for comparisons.
func Fold(str string) string {
	return cases.Fold().String(str)
}

func CompareText(a, b string) int {
	return strings.Compare(Fold(a), Fold(b))
}

func EqualText(a, b string) bool {
	return CompareText(a, b) == 0
}

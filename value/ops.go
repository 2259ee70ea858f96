package value

import (
	"math"
)

type (
	UnaryFunc  func(ScalarValue) ScalarValue
	BinaryFunc func(ScalarValue, ScalarValue) ScalarValue
)

// Broadcast applies fn element wise. A scalar, or an array axis of size 1,
// is repeated to match the other operand; cells outside of a mismatched
// operand are #VALUE!.
func Broadcast(left, right Value, fn BinaryFunc) Value {
	if !IsArray(left) && !IsArray(right) {
		return fn(scalar(left), scalar(right))
	}
	var (
		la   = ToArray(left)
		ra   = ToArray(right)
		ld   = la.Dimension()
		rd   = ra.Dimension()
		dim  = ld.Max(rd)
		data = make([][]ScalarValue, dim.Lines)
	)
	for i := range data {
		data[i] = make([]ScalarValue, dim.Columns)
		for j := range data[i] {
			a, ok1 := pick(la, int64(i), int64(j))
			b, ok2 := pick(ra, int64(i), int64(j))
			if !ok1 || !ok2 {
				data[i][j] = ErrValue
				continue
			}
			data[i][j] = fn(a, b)
		}
	}
	return NewArray(data)
}

func pick(arr Array, i, j int64) (ScalarValue, bool) {
	dim := arr.Dimension()
	if dim.Lines == 1 {
		i = 0
	}
	if dim.Columns == 1 {
		j = 0
	}
	if i >= dim.Lines || j >= dim.Columns {
		return nil, false
	}
	return arr.At(int(i), int(j)), true
}

func Apply(val Value, fn UnaryFunc) Value {
	if arr, ok := val.(ArrayValue); ok {
		return ToArray(arr).Map(fn)
	}
	return fn(scalar(val))
}

func scalar(v Value) ScalarValue {
	switch x := v.(type) {
	case ScalarValue:
		return x
	case ArrayValue:
		return Single(x)
	default:
		return Blank{}
	}
}

func arith(a, b ScalarValue, do func(float64, float64) ScalarValue) ScalarValue {
	x, err := CastToFloat(a)
	if err != nil {
		return Fail(err)
	}
	y, err := CastToFloat(b)
	if err != nil {
		return Fail(err)
	}
	return do(float64(x), float64(y))
}

func Add(a, b ScalarValue) ScalarValue {
	return arith(a, b, func(x, y float64) ScalarValue {
		return Number(x + y)
	})
}

func Sub(a, b ScalarValue) ScalarValue {
	return arith(a, b, func(x, y float64) ScalarValue {
		return Number(x - y)
	})
}

func Mul(a, b ScalarValue) ScalarValue {
	return arith(a, b, func(x, y float64) ScalarValue {
		return Number(x * y)
	})
}

func Div(a, b ScalarValue) ScalarValue {
	return arith(a, b, func(x, y float64) ScalarValue {
		if y == 0 {
			return ErrDiv0
		}
		return Number(x / y)
	})
}

func Pow(a, b ScalarValue) ScalarValue {
	return arith(a, b, func(x, y float64) ScalarValue {
		if x == 0 && y == 0 {
			return ErrNum
		}
		if x == 0 && y < 0 {
			return ErrDiv0
		}
		return Number(math.Pow(x, y))
	})
}

func Concat(a, b ScalarValue) ScalarValue {
	x, err := CastToText(a)
	if err != nil {
		return Fail(err)
	}
	y, err := CastToText(b)
	if err != nil {
		return Fail(err)
	}
	return x + y
}

func compare(a, b ScalarValue, ok func(int) bool) ScalarValue {
	if e, bad := First(a, b); bad {
		return e
	}
	return Boolean(ok(Compare(a, b)))
}

func Eq(a, b ScalarValue) ScalarValue {
	return compare(a, b, func(c int) bool { return c == 0 })
}

func Ne(a, b ScalarValue) ScalarValue {
	return compare(a, b, func(c int) bool { return c != 0 })
}

func Lt(a, b ScalarValue) ScalarValue {
	return compare(a, b, func(c int) bool { return c < 0 })
}

func Le(a, b ScalarValue) ScalarValue {
	return compare(a, b, func(c int) bool { return c <= 0 })
}

func Gt(a, b ScalarValue) ScalarValue {
	return compare(a, b, func(c int) bool { return c > 0 })
}

func Ge(a, b ScalarValue) ScalarValue {
	return compare(a, b, func(c int) bool { return c >= 0 })
}

func Negate(a ScalarValue) ScalarValue {
	x, err := CastToFloat(a)
	if err != nil {
		return Fail(err)
	}
	return Float(-x)
}

// Identity implements the unary plus, which leaves its operand untouched.
func Identity(a ScalarValue) ScalarValue {
	return a
}

func Percent(a ScalarValue) ScalarValue {
	x, err := CastToFloat(a)
	if err != nil {
		return Fail(err)
	}
	return Float(x / 100)
}

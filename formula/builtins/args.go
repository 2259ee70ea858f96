package builtins

import (
	"github.com/midbel/xlcalc/formula/eval"
	"github.com/midbel/xlcalc/value"
)

// numbers collects the numbers given to an aggregate. Arrays and references
// only contribute their numbers while values written directly in the call
// are coerced.
func numbers(args []*eval.Arg) ([]float64, error) {
	var list []float64
	for _, a := range args {
		v := a.Eval()
		if arr, ok := v.(value.ArrayValue); ok {
			for _, s := range value.Scalars(arr) {
				switch x := s.(type) {
				case value.Float:
					list = append(list, float64(x))
				case value.Error:
					return nil, x
				}
			}
			continue
		}
		if a.Reference() {
			switch x := v.(type) {
			case value.Float:
				list = append(list, float64(x))
			case value.Error:
				return nil, x
			}
			continue
		}
		f, err := value.CastToFloat(v)
		if err != nil {
			return nil, err
		}
		list = append(list, float64(f))
	}
	return list, nil
}

// values flattens every argument to its scalars.
func values(args []*eval.Arg) []value.ScalarValue {
	var list []value.ScalarValue
	for _, a := range args {
		list = append(list, value.Scalars(a.Eval())...)
	}
	return list
}

func given(args []*eval.Arg, i int) bool {
	return i < len(args) && !args[i].Elided()
}

func number(a *eval.Arg) (float64, error) {
	f, err := value.CastToFloat(a.Scalar())
	return float64(f), err
}

func optNumber(args []*eval.Arg, i int, def float64) (float64, error) {
	if !given(args, i) {
		return def, nil
	}
	return number(args[i])
}

func integer(a *eval.Arg) (int, error) {
	return value.CastToInt(a.Scalar())
}

func optInteger(args []*eval.Arg, i int, def int) (int, error) {
	if !given(args, i) {
		return def, nil
	}
	return integer(args[i])
}

func text(a *eval.Arg) (string, error) {
	t, err := value.CastToText(a.Scalar())
	return string(t), err
}

func boolean(a *eval.Arg) (bool, error) {
	b, err := value.CastToBool(a.Scalar())
	return bool(b), err
}

func optBoolean(args []*eval.Arg, i int, def bool) (bool, error) {
	if !given(args, i) {
		return def, nil
	}
	return boolean(args[i])
}

// optional returns the value of an optional argument or def when it is
// missing or left empty.
func optional(args []*eval.Arg, i int, def value.Value) value.Value {
	if !given(args, i) {
		return def
	}
	return args[i].Eval()
}

func array(a *eval.Arg) (value.Array, error) {
	v := a.Eval()
	if e, ok := v.(value.Error); ok {
		return value.Array{}, e
	}
	return value.ToArray(v), nil
}

// vector flattens a one line or one column array and reports false for a
// two dimensional one.
func vector(arr value.Array) ([]value.ScalarValue, bool) {
	dim := arr.Dimension()
	if dim.Lines != 1 && dim.Columns != 1 {
		return nil, false
	}
	return arr.Values(), true
}

// elementAt picks the cell of v matching the position of a broadcast
// result.
func elementAt(v value.Value, i, j int) value.ScalarValue {
	arr, ok := v.(value.ArrayValue)
	if !ok {
		if s, ok := v.(value.ScalarValue); ok {
			return s
		}
		return value.Blank{}
	}
	dim := arr.Dimension()
	if dim.Lines == 1 {
		i = 0
	}
	if dim.Columns == 1 {
		j = 0
	}
	if int64(i) >= dim.Lines || int64(j) >= dim.Columns {
		return value.ErrNA
	}
	return arr.At(i, j)
}

func numeric(fn func(float64) value.ScalarValue) value.UnaryFunc {
	return func(s value.ScalarValue) value.ScalarValue {
		f, err := value.CastToFloat(s)
		if err != nil {
			return value.Fail(err)
		}
		return fn(float64(f))
	}
}

func numeric2(fn func(float64, float64) value.ScalarValue) value.BinaryFunc {
	return func(a, b value.ScalarValue) value.ScalarValue {
		x, err := value.CastToFloat(a)
		if err != nil {
			return value.Fail(err)
		}
		y, err := value.CastToFloat(b)
		if err != nil {
			return value.Fail(err)
		}
		return fn(float64(x), float64(y))
	}
}

func textual(fn func(string) value.ScalarValue) value.UnaryFunc {
	return func(s value.ScalarValue) value.ScalarValue {
		t, err := value.CastToText(s)
		if err != nil {
			return value.Fail(err)
		}
		return fn(string(t))
	}
}

func bools(v bool) value.ScalarValue {
	return value.Boolean(v)
}

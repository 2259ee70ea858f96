package builtins

import (
	"math"
	"slices"
	"strconv"

	"github.com/midbel/xlcalc/formula/eval"
	"github.com/midbel/xlcalc/value"
)

var mathFunctions = []eval.Function{
	aggregate("SUM", sum),
	aggregate("PRODUCT", product),
	aggregate("AVERAGE", average),
	aggregate("MIN", minimum),
	aggregate("MAX", maximum),
	aggregate("MEDIAN", median),
	aggregate("STDEV", stdev),
	aggregate("STDEV.S", stdev),
	aggregate("VAR", variance),
	aggregate("VAR.S", variance),
	{
		Name: "COUNT",
		Min:  1,
		Max:  eval.Variadic,
		Call: execCount,
	},
	{
		Name: "COUNTA",
		Min:  1,
		Max:  eval.Variadic,
		Call: execCountA,
	},
	{
		Name:  "COUNTBLANK",
		Min:   1,
		Max:   1,
		Modes: []eval.ArgMode{eval.ArgRef},
		Call:  execCountBlank,
	},
	{
		Name: "SUMPRODUCT",
		Min:  1,
		Max:  eval.Variadic,
		Call: execSumProduct,
	},
	unary("ABS", func(f float64) value.ScalarValue {
		return value.Float(math.Abs(f))
	}),
	unary("SIGN", func(f float64) value.ScalarValue {
		switch {
		case f > 0:
			return value.Float(1)
		case f < 0:
			return value.Float(-1)
		default:
			return value.Float(0)
		}
	}),
	unary("INT", func(f float64) value.ScalarValue {
		return value.Float(math.Floor(f))
	}),
	unary("SQRT", func(f float64) value.ScalarValue {
		if f < 0 {
			return value.ErrNum
		}
		return value.Float(math.Sqrt(f))
	}),
	unary("EXP", func(f float64) value.ScalarValue {
		return value.Number(math.Exp(f))
	}),
	unary("LN", func(f float64) value.ScalarValue {
		if f <= 0 {
			return value.ErrNum
		}
		return value.Float(math.Log(f))
	}),
	unary("LOG10", func(f float64) value.ScalarValue {
		if f <= 0 {
			return value.ErrNum
		}
		return value.Float(math.Log10(f))
	}),
	binary("LOG", 1, 10, func(f, base float64) value.ScalarValue {
		if f <= 0 || base <= 0 {
			return value.ErrNum
		}
		if base == 1 {
			return value.ErrDiv0
		}
		return value.Number(math.Log(f) / math.Log(base))
	}),
	binary("MOD", 2, 0, func(n, d float64) value.ScalarValue {
		if d == 0 {
			return value.ErrDiv0
		}
		return value.Float(n - d*math.Floor(n/d))
	}),
	{
		Name: "POWER",
		Min:  2,
		Max:  2,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return value.Broadcast(args[0].Eval(), args[1].Eval(), value.Pow)
		},
	},
	binary("ROUND", 2, 0, func(f, digits float64) value.ScalarValue {
		return roundWith(f, digits, math.Round)
	}),
	binary("ROUNDUP", 2, 0, func(f, digits float64) value.ScalarValue {
		return roundWith(f, digits, func(x float64) float64 {
			return math.Copysign(math.Ceil(math.Abs(x)), x)
		})
	}),
	binary("ROUNDDOWN", 2, 0, func(f, digits float64) value.ScalarValue {
		return roundWith(f, digits, math.Trunc)
	}),
	binary("TRUNC", 1, 0, func(f, digits float64) value.ScalarValue {
		return roundWith(f, digits, math.Trunc)
	}),
	binary("CEILING", 2, 1, func(f, sig float64) value.ScalarValue {
		switch {
		case sig == 0:
			return value.Float(0)
		case f > 0 && sig < 0:
			return value.ErrNum
		}
		return value.Float(math.Ceil(clean(f/sig)) * sig)
	}),
	binary("FLOOR", 2, 1, func(f, sig float64) value.ScalarValue {
		switch {
		case sig == 0:
			return value.ErrDiv0
		case f > 0 && sig < 0:
			return value.ErrNum
		}
		return value.Float(math.Floor(clean(f/sig)) * sig)
	}),
	{
		Name: "PI",
		Call: func(_ *eval.Env, _ []*eval.Arg) value.Value {
			return value.Float(math.Pi)
		},
	},
	{
		Name:     "RAND",
		Volatile: true,
		Call: func(env *eval.Env, _ []*eval.Arg) value.Value {
			return value.Float(env.Random())
		},
	},
	{
		Name:     "RANDBETWEEN",
		Min:      2,
		Max:      2,
		Volatile: true,
		Call:     execRandBetween,
	},
}

func aggregate(name string, reduce func([]float64) value.ScalarValue) eval.Function {
	return eval.Function{
		Name: name,
		Min:  1,
		Max:  eval.Variadic,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			list, err := numbers(args)
			if err != nil {
				return value.Fail(err)
			}
			return reduce(list)
		},
	}
}

func unary(name string, fn func(float64) value.ScalarValue) eval.Function {
	return eval.Function{
		Name: name,
		Min:  1,
		Max:  1,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return value.Apply(args[0].Eval(), numeric(fn))
		},
	}
}

// binary builds a function of two numbers broadcast over arrays. When the
// second argument is optional, def replaces it.
func binary(name string, atLeast int, def float64, fn func(float64, float64) value.ScalarValue) eval.Function {
	return eval.Function{
		Name: name,
		Min:  atLeast,
		Max:  2,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			other := optional(args, 1, value.Float(def))
			return value.Broadcast(args[0].Eval(), other, numeric2(fn))
		},
	}
}

func sum(list []float64) value.ScalarValue {
	var total float64
	for _, f := range list {
		total += f
	}
	return value.Number(total)
}

func product(list []float64) value.ScalarValue {
	if len(list) == 0 {
		return value.Float(0)
	}
	res := 1.0
	for _, f := range list {
		res *= f
	}
	return value.Number(res)
}

func average(list []float64) value.ScalarValue {
	if len(list) == 0 {
		return value.ErrDiv0
	}
	var total float64
	for _, f := range list {
		total += f
	}
	return value.Number(total / float64(len(list)))
}

func minimum(list []float64) value.ScalarValue {
	if len(list) == 0 {
		return value.Float(0)
	}
	return value.Float(slices.Min(list))
}

func maximum(list []float64) value.ScalarValue {
	if len(list) == 0 {
		return value.Float(0)
	}
	return value.Float(slices.Max(list))
}

func median(list []float64) value.ScalarValue {
	if len(list) == 0 {
		return value.ErrNum
	}
	list = slices.Clone(list)
	slices.Sort(list)
	n := len(list)
	if n%2 == 1 {
		return value.Float(list[n/2])
	}
	return value.Float((list[n/2-1] + list[n/2]) / 2)
}

func variance(list []float64) value.ScalarValue {
	if len(list) < 2 {
		return value.ErrDiv0
	}
	var mean float64
	for _, f := range list {
		mean += f
	}
	mean /= float64(len(list))
	var sq float64
	for _, f := range list {
		sq += (f - mean) * (f - mean)
	}
	return value.Number(sq / float64(len(list)-1))
}

func stdev(list []float64) value.ScalarValue {
	v := variance(list)
	f, ok := v.(value.Float)
	if !ok {
		return v
	}
	return value.Float(math.Sqrt(float64(f)))
}

func execCount(_ *eval.Env, args []*eval.Arg) value.Value {
	var n int
	for _, a := range args {
		v := a.Eval()
		if arr, ok := v.(value.ArrayValue); ok {
			for _, s := range value.Scalars(arr) {
				if value.IsNumber(s) {
					n++
				}
			}
			continue
		}
		if a.Reference() {
			if value.IsNumber(v) {
				n++
			}
			continue
		}
		switch x := v.(type) {
		case value.Float, value.Boolean:
			n++
		case value.Text:
			if _, ok := value.ParseNumber(string(x)); ok {
				n++
			}
		}
	}
	return value.Float(n)
}

func execCountA(_ *eval.Env, args []*eval.Arg) value.Value {
	var n int
	for _, s := range values(args) {
		if !value.IsBlank(s) {
			n++
		}
	}
	return value.Float(n)
}

func execCountBlank(_ *eval.Env, args []*eval.Arg) value.Value {
	var n int
	for _, s := range value.Scalars(args[0].Eval()) {
		if value.IsBlank(s) || s == value.Text("") {
			n++
		}
	}
	return value.Float(n)
}

func execSumProduct(_ *eval.Env, args []*eval.Arg) value.Value {
	var list []value.Array
	for _, a := range args {
		arr, err := array(a)
		if err != nil {
			return value.Fail(err)
		}
		if len(list) > 0 && arr.Dimension() != list[0].Dimension() {
			return value.ErrValue
		}
		list = append(list, arr)
	}
	dim := list[0].Dimension()
	var total float64
	for i := 0; i < int(dim.Lines); i++ {
		for j := 0; j < int(dim.Columns); j++ {
			res := 1.0
			for _, arr := range list {
				switch x := arr.At(i, j).(type) {
				case value.Float:
					res *= float64(x)
				case value.Error:
					return x
				default:
					res = 0
				}
			}
			total += res
		}
	}
	return value.Number(total)
}

func execRandBetween(env *eval.Env, args []*eval.Arg) value.Value {
	lo, err := number(args[0])
	if err != nil {
		return value.Fail(err)
	}
	hi, err := number(args[1])
	if err != nil {
		return value.Fail(err)
	}
	lo, hi = math.Ceil(lo), math.Floor(hi)
	if lo > hi {
		return value.ErrNum
	}
	return value.Float(lo + math.Floor(env.Random()*(hi-lo+1)))
}

// roundWith scales f by the given number of digits before rounding it with
// do. The scaled value is first cut to 15 significant digits so that 2.675
// rounds to 2.68 as it is displayed.
func roundWith(f, digits float64, do func(float64) float64) value.ScalarValue {
	d := int(digits)
	if d > 15 {
		return value.Float(f)
	}
	scale := math.Pow10(abs(d))
	var res float64
	if d >= 0 {
		res = do(clean(f*scale)) / scale
	} else {
		res = do(clean(f/scale)) * scale
	}
	return value.Number(res)
}

func clean(f float64) float64 {
	x, err := strconv.ParseFloat(strconv.FormatFloat(f, 'g', 15, 64), 64)
	if err != nil {
		return f
	}
	return x
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

package builtins

import (
	"github.com/midbel/xlcalc/formula/eval"
	"github.com/midbel/xlcalc/value"
)

var lazyTail = []eval.ArgMode{eval.ArgValue, eval.ArgLazy}

var logicalFunctions = []eval.Function{
	{
		Name:  "IF",
		Min:   2,
		Max:   3,
		Modes: lazyTail,
		Call:  execIf,
	},
	{
		Name:  "IFERROR",
		Min:   2,
		Max:   2,
		Modes: lazyTail,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return replaceErrors(args, value.IsError)
		},
	},
	{
		Name:  "IFNA",
		Min:   2,
		Max:   2,
		Modes: lazyTail,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return replaceErrors(args, func(v value.Value) bool {
				return v == value.ErrNA
			})
		},
	},
	{
		Name:  "IFS",
		Min:   2,
		Max:   eval.Variadic,
		Modes: []eval.ArgMode{eval.ArgLazy},
		Call:  execIfs,
	},
	{
		Name:  "SWITCH",
		Min:   3,
		Max:   eval.Variadic,
		Modes: lazyTail,
		Call:  execSwitch,
	},
	logical("AND", func(list []bool) bool {
		for _, b := range list {
			if !b {
				return false
			}
		}
		return true
	}),
	logical("OR", func(list []bool) bool {
		for _, b := range list {
			if b {
				return true
			}
		}
		return false
	}),
	logical("XOR", func(list []bool) bool {
		var n int
		for _, b := range list {
			if b {
				n++
			}
		}
		return n%2 == 1
	}),
	{
		Name: "NOT",
		Min:  1,
		Max:  1,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return value.Apply(args[0].Eval(), func(s value.ScalarValue) value.ScalarValue {
				b, err := value.CastToBool(s)
				if err != nil {
					return value.Fail(err)
				}
				return value.Boolean(!b)
			})
		},
	},
	{
		Name: "TRUE",
		Call: func(_ *eval.Env, _ []*eval.Arg) value.Value {
			return value.Boolean(true)
		},
	},
	{
		Name: "FALSE",
		Call: func(_ *eval.Env, _ []*eval.Arg) value.Value {
			return value.Boolean(false)
		},
	},
}

// branch gives the value of an optional branch of IF: an empty branch is 0
// and a missing one is FALSE.
func branch(args []*eval.Arg, i int) value.Value {
	switch {
	case i >= len(args):
		return value.Boolean(false)
	case args[i].Elided():
		return value.Float(0)
	default:
		return args[i].Eval()
	}
}

// execIf narrows a condition written as a reference to the cell sharing the
// row or column of the formula. Array literals and computed arrays are
// tested element by element.
func execIf(_ *eval.Env, args []*eval.Arg) value.Value {
	var cond value.Value
	if args[0].Reference() {
		cond = args[0].Scalar()
	} else {
		cond = args[0].Eval()
	}
	arr, ok := cond.(value.ArrayValue)
	if !ok {
		b, err := value.CastToBool(cond)
		if err != nil {
			return value.Fail(err)
		}
		if b {
			return branch(args, 1)
		}
		return branch(args, 2)
	}
	var (
		dim  = arr.Dimension()
		data = make([][]value.ScalarValue, dim.Lines)
	)
	for i := range data {
		data[i] = make([]value.ScalarValue, dim.Columns)
		for j := range data[i] {
			b, err := value.CastToBool(arr.At(i, j))
			switch {
			case err != nil:
				data[i][j] = value.Fail(err)
			case bool(b):
				data[i][j] = elementAt(branch(args, 1), i, j)
			default:
				data[i][j] = elementAt(branch(args, 2), i, j)
			}
		}
	}
	return value.NewArray(data)
}

func replaceErrors(args []*eval.Arg, match func(value.Value) bool) value.Value {
	v := args[0].Eval()
	arr, ok := v.(value.ArrayValue)
	if !ok {
		if match(v) {
			return branch(args, 1)
		}
		return v
	}
	return value.ToArray(arr).Map(func(s value.ScalarValue) value.ScalarValue {
		if !match(s) {
			return s
		}
		return value.Single(value.ToArray(branch(args, 1)))
	})
}

func execIfs(_ *eval.Env, args []*eval.Arg) value.Value {
	if len(args)%2 != 0 {
		return value.ErrValue
	}
	for i := 0; i < len(args); i += 2 {
		b, err := boolean(args[i])
		if err != nil {
			return value.Fail(err)
		}
		if b {
			return args[i+1].Eval()
		}
	}
	return value.ErrNA
}

func execSwitch(_ *eval.Env, args []*eval.Arg) value.Value {
	target := args[0].Scalar()
	if e, ok := target.(value.Error); ok {
		return e
	}
	rest := args[1:]
	for len(rest) >= 2 {
		if value.Equal(target, rest[0].Scalar()) {
			return rest[1].Eval()
		}
		rest = rest[2:]
	}
	if len(rest) == 1 {
		return rest[0].Eval()
	}
	return value.ErrNA
}

// logical reduces the booleans of its arguments. References and arrays
// ignore their text and blank cells.
func logical(name string, reduce func([]bool) bool) eval.Function {
	return eval.Function{
		Name: name,
		Min:  1,
		Max:  eval.Variadic,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			var list []bool
			for _, a := range args {
				v := a.Eval()
				if value.IsArray(v) || a.Reference() {
					for _, s := range value.Scalars(v) {
						switch x := s.(type) {
						case value.Boolean:
							list = append(list, bool(x))
						case value.Float:
							list = append(list, x != 0)
						case value.Error:
							return x
						}
					}
					continue
				}
				b, err := value.CastToBool(v)
				if err != nil {
					return value.Fail(err)
				}
				list = append(list, bool(b))
			}
			if len(list) == 0 {
				return value.ErrValue
			}
			return value.Boolean(reduce(list))
		},
	}
}

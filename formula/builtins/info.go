package builtins

import (
	"github.com/midbel/xlcalc/formula/eval"
	"github.com/midbel/xlcalc/value"
)

var infoFunctions = []eval.Function{
	is("ISERROR", value.IsError),
	is("ISERR", func(v value.Value) bool {
		return value.IsError(v) && v != value.ErrNA
	}),
	is("ISNA", func(v value.Value) bool {
		return v == value.ErrNA
	}),
	is("ISBLANK", value.IsBlank),
	is("ISNUMBER", value.IsNumber),
	is("ISTEXT", value.IsText),
	is("ISLOGICAL", value.IsBool),
	{
		Name: "NA",
		Call: func(_ *eval.Env, _ []*eval.Arg) value.Value {
			return value.ErrNA
		},
	},
	{
		Name:  "ROW",
		Max:   1,
		Modes: []eval.ArgMode{eval.ArgRef},
		Call: func(env *eval.Env, args []*eval.Arg) value.Value {
			return coordinates(env, args, true)
		},
	},
	{
		Name:  "COLUMN",
		Max:   1,
		Modes: []eval.ArgMode{eval.ArgRef},
		Call: func(env *eval.Env, args []*eval.Arg) value.Value {
			return coordinates(env, args, false)
		},
	},
	{
		Name: "ROWS",
		Min:  1,
		Max:  1,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			arr, err := array(args[0])
			if err != nil {
				return value.Fail(err)
			}
			return value.Float(arr.Dimension().Lines)
		},
	},
	{
		Name: "COLUMNS",
		Min:  1,
		Max:  1,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			arr, err := array(args[0])
			if err != nil {
				return value.Fail(err)
			}
			return value.Float(arr.Dimension().Columns)
		},
	},
}

func is(name string, test func(value.Value) bool) eval.Function {
	return eval.Function{
		Name: name,
		Min:  1,
		Max:  1,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return value.Apply(args[0].Eval(), func(s value.ScalarValue) value.ScalarValue {
				return value.Boolean(test(s))
			})
		},
	}
}

// coordinates gives the line or column numbers of a reference, or of the
// formula cell when no reference is given.
func coordinates(env *eval.Env, args []*eval.Arg, lines bool) value.Value {
	if len(args) == 0 || args[0].Elided() {
		if lines {
			return value.Float(env.Origin.Line)
		}
		return value.Float(env.Origin.Column)
	}
	list, ok := args[0].Ranges()
	if !ok || len(list) != 1 {
		return value.ErrValue
	}
	var (
		rg   = list[0].Normalize()
		from = rg.Starts.Column
		to   = rg.Ends.Column
	)
	if lines {
		from, to = rg.Starts.Line, rg.Ends.Line
	}
	if from == to {
		return value.Float(from)
	}
	var all []value.ScalarValue
	for i := from; i <= to; i++ {
		all = append(all, value.Float(i))
	}
	if lines {
		return value.Column(all)
	}
	return value.Row(all)
}

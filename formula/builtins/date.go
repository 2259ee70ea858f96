package builtins

import (
	"math"
	"time"

	"github.com/midbel/xlcalc/formula/eval"
	"github.com/midbel/xlcalc/value"
)

var dateFunctions = []eval.Function{
	{
		Name: "DATE",
		Min:  3,
		Max:  3,
		Call: execDate,
	},
	{
		Name: "TIME",
		Min:  3,
		Max:  3,
		Call: execTime,
	},
	datePart("YEAR", func(y, _, _ int) int { return y }),
	datePart("MONTH", func(_, m, _ int) int { return m }),
	datePart("DAY", func(_, _, d int) int { return d }),
	timePart("HOUR", func(h, _, _ int) int { return h }),
	timePart("MINUTE", func(_, m, _ int) int { return m }),
	timePart("SECOND", func(_, _, s int) int { return s }),
	{
		Name: "WEEKDAY",
		Min:  1,
		Max:  2,
		Call: execWeekday,
	},
	{
		Name: "EDATE",
		Min:  2,
		Max:  2,
		Call: func(env *eval.Env, args []*eval.Arg) value.Value {
			return shiftMonths(env, args, false)
		},
	},
	{
		Name: "EOMONTH",
		Min:  2,
		Max:  2,
		Call: func(env *eval.Env, args []*eval.Arg) value.Value {
			return shiftMonths(env, args, true)
		},
	},
	{
		Name: "DAYS",
		Min:  2,
		Max:  2,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			end, err := number(args[0])
			if err != nil {
				return value.Fail(err)
			}
			start, err := number(args[1])
			if err != nil {
				return value.Fail(err)
			}
			return value.Float(math.Floor(end) - math.Floor(start))
		},
	},
	{
		Name:     "TODAY",
		Volatile: true,
		Call: func(env *eval.Env, _ []*eval.Arg) value.Value {
			now := env.Now()
			day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
			return serial(env.Dates.Serial(day))
		},
	},
	{
		Name:     "NOW",
		Volatile: true,
		Call: func(env *eval.Env, _ []*eval.Arg) value.Value {
			return serial(env.Dates.Serial(env.Now()))
		},
	},
}

func serial(f float64, ok bool) value.Value {
	if !ok {
		return value.ErrNum
	}
	return value.Float(f)
}

func execDate(env *eval.Env, args []*eval.Arg) value.Value {
	var parts [3]int
	for i := range parts {
		n, err := number(args[i])
		if err != nil {
			return value.Fail(err)
		}
		parts[i] = int(math.Floor(n))
	}
	return serial(env.Dates.FromParts(parts[0], parts[1], parts[2]))
}

func execTime(_ *eval.Env, args []*eval.Arg) value.Value {
	var secs int
	for i, mul := range []int{3600, 60, 1} {
		n, err := integer(args[i])
		if err != nil {
			return value.Fail(err)
		}
		secs += n * mul
	}
	if secs < 0 {
		return value.ErrNum
	}
	return value.Float(float64(secs%86400) / 86400)
}

func datePart(name string, pick func(int, int, int) int) eval.Function {
	return eval.Function{
		Name: name,
		Min:  1,
		Max:  1,
		Call: func(env *eval.Env, args []*eval.Arg) value.Value {
			return value.Apply(args[0].Eval(), numeric(func(f float64) value.ScalarValue {
				y, m, d, ok := env.Dates.Parts(f)
				if !ok {
					return value.ErrNum
				}
				return value.Float(pick(y, m, d))
			}))
		},
	}
}

func timePart(name string, pick func(int, int, int) int) eval.Function {
	return eval.Function{
		Name: name,
		Min:  1,
		Max:  1,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return value.Apply(args[0].Eval(), numeric(func(f float64) value.ScalarValue {
				if f < 0 {
					return value.ErrNum
				}
				return value.Float(pick(value.Clock(f)))
			}))
		},
	}
}

func execWeekday(env *eval.Env, args []*eval.Arg) value.Value {
	n, err := number(args[0])
	if err != nil {
		return value.Fail(err)
	}
	if n < 0 {
		return value.ErrNum
	}
	kind, err := optInteger(args, 1, 1)
	if err != nil {
		return value.Fail(err)
	}
	wd := int(env.Dates.Weekday(n))
	switch {
	case kind == 1:
		return value.Float(wd + 1)
	case kind == 2:
		return value.Float((wd+6)%7 + 1)
	case kind == 3:
		return value.Float((wd + 6) % 7)
	case kind >= 11 && kind <= 17:
		start := (kind - 10) % 7
		return value.Float((wd-start+7)%7 + 1)
	default:
		return value.ErrNum
	}
}

func shiftMonths(env *eval.Env, args []*eval.Arg, end bool) value.Value {
	start, err := number(args[0])
	if err != nil {
		return value.Fail(err)
	}
	months, err := integer(args[1])
	if err != nil {
		return value.Fail(err)
	}
	y, m, d, ok := env.Dates.Parts(start)
	if !ok {
		return value.ErrNum
	}
	first := time.Date(y, time.Month(m+months), 1, 0, 0, 0, 0, time.UTC)
	if first.Year() < 1900 {
		return value.ErrNum
	}
	last := first.AddDate(0, 1, -1).Day()
	if end || d > last {
		d = last
	}
	return serial(env.Dates.FromParts(first.Year(), int(first.Month()), d))
}

package builtins

import (
	"strings"
	"unicode/utf8"

	"github.com/midbel/xlcalc/format"
	"github.com/midbel/xlcalc/formula/eval"
	"github.com/midbel/xlcalc/value"
	"golang.org/x/text/cases"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/language"
)

var textFunctions = []eval.Function{
	textual1("LEN", func(_ *eval.Env, str string) value.ScalarValue {
		return value.Float(utf8.RuneCountInString(str))
	}),
	textual1("UPPER", func(env *eval.Env, str string) value.ScalarValue {
		return value.Text(cases.Upper(culture(env)).String(str))
	}),
	textual1("LOWER", func(env *eval.Env, str string) value.ScalarValue {
		return value.Text(cases.Lower(culture(env)).String(str))
	}),
	textual1("PROPER", func(env *eval.Env, str string) value.ScalarValue {
		return value.Text(cases.Title(culture(env)).String(str))
	}),
	textual1("TRIM", func(_ *eval.Env, str string) value.ScalarValue {
		var parts []string
		for _, p := range strings.Split(str, " ") {
			if p != "" {
				parts = append(parts, p)
			}
		}
		return value.Text(strings.Join(parts, " "))
	}),
	textual1("VALUE", func(_ *eval.Env, str string) value.ScalarValue {
		f, ok := value.ParseNumber(str)
		if !ok {
			return value.ErrValue
		}
		return value.Float(f)
	}),
	textual1("CODE", func(_ *eval.Env, str string) value.ScalarValue {
		r, _ := utf8.DecodeRuneInString(str)
		if str == "" || r == utf8.RuneError {
			return value.ErrValue
		}
		b, err := charmap.Windows1252.NewEncoder().String(string(r))
		if err != nil || len(b) != 1 {
			return value.Float('?')
		}
		return value.Float(b[0])
	}),
	{
		Name: "CHAR",
		Min:  1,
		Max:  1,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return value.Apply(args[0].Eval(), numeric(func(f float64) value.ScalarValue {
				if f < 1 || f >= 256 {
					return value.ErrValue
				}
				b, err := charmap.Windows1252.NewDecoder().Bytes([]byte{byte(f)})
				if err != nil {
					return value.ErrValue
				}
				return value.Text(b)
			}))
		},
	},
	{
		Name: "LEFT",
		Min:  1,
		Max:  2,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return substring(args, 1, func(rs []rune, n int) string {
				return string(rs[:min(n, len(rs))])
			})
		},
	},
	{
		Name: "RIGHT",
		Min:  1,
		Max:  2,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return substring(args, 1, func(rs []rune, n int) string {
				return string(rs[max(len(rs)-n, 0):])
			})
		},
	},
	{
		Name: "MID",
		Min:  3,
		Max:  3,
		Call: execMid,
	},
	{
		Name: "CONCATENATE",
		Min:  1,
		Max:  eval.Variadic,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			res := args[0].Eval()
			for _, a := range args[1:] {
				res = value.Broadcast(res, a.Eval(), value.Concat)
			}
			return value.Apply(res, func(s value.ScalarValue) value.ScalarValue {
				t, err := value.CastToText(s)
				if err != nil {
					return value.Fail(err)
				}
				return t
			})
		},
	},
	{
		Name: "CONCAT",
		Min:  1,
		Max:  eval.Variadic,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return join(values(args), "", false)
		},
	},
	{
		Name: "TEXTJOIN",
		Min:  3,
		Max:  eval.Variadic,
		Call: execTextJoin,
	},
	{
		Name: "TEXTSPLIT",
		Min:  2,
		Max:  6,
		Call: execTextSplit,
	},
	{
		Name: "SUBSTITUTE",
		Min:  3,
		Max:  4,
		Call: execSubstitute,
	},
	{
		Name: "REPT",
		Min:  2,
		Max:  2,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return value.Broadcast(args[0].Eval(), args[1].Eval(), func(a, b value.ScalarValue) value.ScalarValue {
				str, err := value.CastToText(a)
				if err != nil {
					return value.Fail(err)
				}
				n, err := value.CastToInt(b)
				if err != nil {
					return value.Fail(err)
				}
				if n < 0 || n*len(str) > maxText {
					return value.ErrValue
				}
				return value.Text(strings.Repeat(string(str), n))
			})
		},
	},
	{
		Name: "FIND",
		Min:  2,
		Max:  3,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return locate(args, false)
		},
	},
	{
		Name: "SEARCH",
		Min:  2,
		Max:  3,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return locate(args, true)
		},
	},
	{
		Name: "EXACT",
		Min:  2,
		Max:  2,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return value.Broadcast(args[0].Eval(), args[1].Eval(), func(a, b value.ScalarValue) value.ScalarValue {
				x, err := value.CastToText(a)
				if err != nil {
					return value.Fail(err)
				}
				y, err := value.CastToText(b)
				if err != nil {
					return value.Fail(err)
				}
				return value.Boolean(x == y)
			})
		},
	},
	{
		Name: "TEXT",
		Min:  2,
		Max:  2,
		Call: execText,
	},
	{
		Name: "FIXED",
		Min:  1,
		Max:  3,
		Call: execFixed,
	},
}

func culture(env *eval.Env) language.Tag {
	if env == nil || env.Culture == language.Und {
		return language.AmericanEnglish
	}
	return env.Culture
}

func textual1(name string, fn func(*eval.Env, string) value.ScalarValue) eval.Function {
	return eval.Function{
		Name: name,
		Min:  1,
		Max:  1,
		Call: func(env *eval.Env, args []*eval.Arg) value.Value {
			return value.Apply(args[0].Eval(), textual(func(str string) value.ScalarValue {
				return fn(env, str)
			}))
		},
	}
}

func substring(args []*eval.Arg, def float64, cut func([]rune, int) string) value.Value {
	count := optional(args, 1, value.Float(def))
	return value.Broadcast(args[0].Eval(), count, func(a, b value.ScalarValue) value.ScalarValue {
		str, err := value.CastToText(a)
		if err != nil {
			return value.Fail(err)
		}
		n, err := value.CastToInt(b)
		if err != nil {
			return value.Fail(err)
		}
		if n < 0 {
			return value.ErrValue
		}
		return value.Text(cut([]rune(string(str)), n))
	})
}

func execMid(_ *eval.Env, args []*eval.Arg) value.Value {
	str, err := text(args[0])
	if err != nil {
		return value.Fail(err)
	}
	start, err := integer(args[1])
	if err != nil {
		return value.Fail(err)
	}
	n, err := integer(args[2])
	if err != nil {
		return value.Fail(err)
	}
	if start < 1 || n < 0 {
		return value.ErrValue
	}
	rs := []rune(str)
	if start > len(rs) {
		return value.Text("")
	}
	end := min(start-1+n, len(rs))
	return value.Text(string(rs[start-1 : end]))
}

func join(list []value.ScalarValue, sep string, skipEmpty bool) value.Value {
	var parts []string
	for _, s := range list {
		t, err := value.CastToText(s)
		if err != nil {
			return value.Fail(err)
		}
		if skipEmpty && t == "" {
			continue
		}
		parts = append(parts, string(t))
	}
	str := strings.Join(parts, sep)
	if utf8.RuneCountInString(str) > maxText {
		return value.ErrValue
	}
	return value.Text(str)
}

func execTextJoin(_ *eval.Env, args []*eval.Arg) value.Value {
	sep, err := text(args[0])
	if err != nil {
		return value.Fail(err)
	}
	skip, err := boolean(args[1])
	if err != nil {
		return value.Fail(err)
	}
	return join(values(args[2:]), sep, skip)
}

// delimiters returns the texts of a delimiter argument, which can be an
// array of several delimiters.
func delimiters(args []*eval.Arg, i int) ([]string, error) {
	if !given(args, i) {
		return nil, nil
	}
	var list []string
	for _, s := range value.Scalars(args[i].Eval()) {
		t, err := value.CastToText(s)
		if err != nil {
			return nil, err
		}
		if t != "" {
			list = append(list, string(t))
		}
	}
	return list, nil
}

func split(str string, delims []string, fold bool) []string {
	if len(delims) == 0 {
		return []string{str}
	}
	var (
		parts []string
		start int
		cmp   = str
	)
	if fold {
		cmp = strings.ToLower(str)
	}
	for i := 0; i < len(str); {
		var size int
		for _, d := range delims {
			if fold {
				d = strings.ToLower(d)
			}
			if strings.HasPrefix(cmp[i:], d) && len(d) > size {
				size = len(d)
			}
		}
		if size == 0 {
			i++
			continue
		}
		parts = append(parts, str[start:i])
		i += size
		start = i
	}
	return append(parts, str[start:])
}

func execTextSplit(_ *eval.Env, args []*eval.Arg) value.Value {
	str, err := text(args[0])
	if err != nil {
		return value.Fail(err)
	}
	cols, err := delimiters(args, 1)
	if err != nil {
		return value.Fail(err)
	}
	rows, err := delimiters(args, 2)
	if err != nil {
		return value.Fail(err)
	}
	if len(cols) == 0 && len(rows) == 0 {
		return value.ErrValue
	}
	skip, err := optBoolean(args, 3, false)
	if err != nil {
		return value.Fail(err)
	}
	mode, err := optInteger(args, 4, 0)
	if err != nil {
		return value.Fail(err)
	}
	var pad value.ScalarValue = value.ErrNA
	if given(args, 5) {
		pad = args[5].Scalar()
	}
	var (
		data  [][]value.ScalarValue
		width int
	)
	for _, line := range split(str, rows, mode == 1) {
		if skip && line == "" {
			continue
		}
		var row []value.ScalarValue
		for _, p := range split(line, cols, mode == 1) {
			if skip && p == "" {
				continue
			}
			row = append(row, value.Text(p))
		}
		if len(row) == 0 {
			continue
		}
		width = max(width, len(row))
		data = append(data, row)
	}
	if len(data) == 0 {
		return value.ErrCalc
	}
	for i := range data {
		for len(data[i]) < width {
			data[i] = append(data[i], pad)
		}
	}
	if len(data) == 1 && width == 1 {
		return data[0][0]
	}
	return value.NewArray(data)
}

func execSubstitute(_ *eval.Env, args []*eval.Arg) value.Value {
	str, err := text(args[0])
	if err != nil {
		return value.Fail(err)
	}
	old, err := text(args[1])
	if err != nil {
		return value.Fail(err)
	}
	repl, err := text(args[2])
	if err != nil {
		return value.Fail(err)
	}
	if old == "" {
		return value.Text(str)
	}
	if !given(args, 3) {
		return value.Text(strings.ReplaceAll(str, old, repl))
	}
	nth, err := integer(args[3])
	if err != nil {
		return value.Fail(err)
	}
	if nth < 1 {
		return value.ErrValue
	}
	offset := 0
	for n := 1; ; n++ {
		ix := strings.Index(str[offset:], old)
		if ix < 0 {
			return value.Text(str)
		}
		ix += offset
		if n == nth {
			return value.Text(str[:ix] + repl + str[ix+len(old):])
		}
		offset = ix + len(old)
	}
}

// locate implements FIND and SEARCH. Positions are counted in characters
// and start at 1.
func locate(args []*eval.Arg, wildcard bool) value.Value {
	needle, err := text(args[0])
	if err != nil {
		return value.Fail(err)
	}
	within, err := text(args[1])
	if err != nil {
		return value.Fail(err)
	}
	start, err := optInteger(args, 2, 1)
	if err != nil {
		return value.Fail(err)
	}
	rs := []rune(within)
	if start < 1 || start > len(rs)+1 {
		return value.ErrValue
	}
	if needle == "" {
		return value.Float(start)
	}
	if wildcard {
		if ix := compileGlob(needle).Index(rs, start-1); ix >= 0 {
			return value.Float(ix + 1)
		}
		return value.ErrValue
	}
	ix := strings.Index(string(rs[start-1:]), needle)
	if ix < 0 {
		return value.ErrValue
	}
	return value.Float(start + utf8.RuneCountInString(string(rs[start-1:])[:ix]))
}

func execText(env *eval.Env, args []*eval.Arg) value.Value {
	code, err := text(args[1])
	if err != nil {
		return value.Fail(err)
	}
	opts := format.CultureOptions(culture(env), env.Dates)
	return value.Apply(args[0].Eval(), func(s value.ScalarValue) value.ScalarValue {
		str, err := format.Text(s, code, opts)
		if err != nil {
			return value.Fail(err)
		}
		return value.Text(str)
	})
}

func execFixed(env *eval.Env, args []*eval.Arg) value.Value {
	n, err := number(args[0])
	if err != nil {
		return value.Fail(err)
	}
	decimals, err := optInteger(args, 1, 2)
	if err != nil {
		return value.Fail(err)
	}
	if decimals > 127 {
		return value.ErrValue
	}
	plain, err := optBoolean(args, 2, false)
	if err != nil {
		return value.Fail(err)
	}
	return value.Text(format.Fixed(n, decimals, !plain, culture(env)))
}

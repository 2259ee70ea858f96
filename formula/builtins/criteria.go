package builtins

import (
	"strings"

	"github.com/midbel/xlcalc/formula/eval"
	"github.com/midbel/xlcalc/value"
)

var criteriaFunctions = []eval.Function{
	{
		Name: "COUNTIF",
		Min:  2,
		Max:  2,
		Call: execCountIf,
	},
	{
		Name: "COUNTIFS",
		Min:  2,
		Max:  eval.Variadic,
		Call: execCountIfs,
	},
	{
		Name: "SUMIF",
		Min:  2,
		Max:  3,
		Call: execSumIf,
	},
	{
		Name: "SUMIFS",
		Min:  3,
		Max:  eval.Variadic,
		Call: execSumIfs,
	},
	{
		Name: "AVERAGEIF",
		Min:  2,
		Max:  3,
		Call: execAverageIf,
	},
	{
		Name: "AVERAGEIFS",
		Min:  3,
		Max:  eval.Variadic,
		Call: execAverageIfs,
	},
}

type criterion struct {
	op     string
	blank  bool
	num    float64
	isNum  bool
	truth  value.Boolean
	isBool bool
	text   string
	glob   glob
}

// parseCriterion reads a criterion like ">=10", "a*" or a plain value. An
// empty criterion matches blank cells.
func parseCriterion(v value.ScalarValue) criterion {
	c := criterion{op: "="}
	switch x := v.(type) {
	case value.Float:
		c.num, c.isNum = float64(x), true
		return c
	case value.Boolean:
		c.truth, c.isBool = x, true
		return c
	case value.Blank:
		c.blank = true
		return c
	case value.Error:
		c.text = x.Code()
		return c
	}
	str := v.String()
	for _, op := range []string{"<=", ">=", "<>", "<", ">", "="} {
		if strings.HasPrefix(str, op) {
			c.op = op
			str = str[len(op):]
			break
		}
	}
	if str == "" {
		c.blank = true
		return c
	}
	if f, ok := value.ParseNumber(str); ok {
		c.num, c.isNum = f, true
		return c
	}
	switch strings.ToUpper(str) {
	case "TRUE":
		c.truth, c.isBool = true, true
		return c
	case "FALSE":
		c.truth, c.isBool = false, true
		return c
	}
	c.text = str
	if (c.op == "=" || c.op == "<>") && hasWildcard(str) {
		c.glob = compileGlob(str)
	}
	return c
}

func (c criterion) Match(v value.ScalarValue) bool {
	switch c.op {
	case "=":
		return c.equal(v)
	case "<>":
		return !c.equal(v)
	}
	var cmp int
	switch x := v.(type) {
	case value.Float:
		if !c.isNum {
			return false
		}
		cmp = value.Compare(x, value.Float(c.num))
	case value.Text:
		if c.isNum || c.isBool || c.blank {
			return false
		}
		cmp = value.CompareText(string(x), c.text)
	case value.Boolean:
		if !c.isBool {
			return false
		}
		cmp = value.Compare(x, c.truth)
	default:
		return false
	}
	switch c.op {
	case "<":
		return cmp < 0
	case "<=":
		return cmp <= 0
	case ">":
		return cmp > 0
	default:
		return cmp >= 0
	}
}

func (c criterion) equal(v value.ScalarValue) bool {
	switch x := v.(type) {
	case value.Blank, nil:
		return c.blank
	case value.Float:
		return c.isNum && float64(x) == c.num
	case value.Boolean:
		return c.isBool && x == c.truth
	case value.Text:
		if c.blank {
			return x == ""
		}
		if c.isNum || c.isBool {
			return false
		}
		if c.glob != nil {
			return c.glob.Match(string(x))
		}
		return value.EqualText(string(x), c.text)
	case value.Error:
		return !c.isNum && !c.isBool && !c.blank && x.Code() == c.text
	default:
		return false
	}
}

// matches gives, for each cell of the ranges, whether every criterion
// accepts it. All ranges share the dimension of the first one.
func matches(args []*eval.Arg) ([]bool, value.Array, error) {
	if len(args)%2 != 0 {
		return nil, value.Array{}, value.ErrValue
	}
	var (
		first value.Array
		res   []bool
	)
	for i := 0; i < len(args); i += 2 {
		arr, err := array(args[i])
		if err != nil {
			return nil, first, err
		}
		if i == 0 {
			first = arr
			res = make([]bool, len(arr.Values()))
			for j := range res {
				res[j] = true
			}
		} else if arr.Dimension() != first.Dimension() {
			return nil, first, value.ErrValue
		}
		crit := parseCriterion(args[i+1].Scalar())
		for j, v := range arr.Values() {
			res[j] = res[j] && crit.Match(v)
		}
	}
	return res, first, nil
}

func execCountIf(_ *eval.Env, args []*eval.Arg) value.Value {
	return execCountIfs(nil, args)
}

func execCountIfs(_ *eval.Env, args []*eval.Arg) value.Value {
	list, _, err := matches(args)
	if err != nil {
		return value.Fail(err)
	}
	var n int
	for _, ok := range list {
		if ok {
			n++
		}
	}
	return value.Float(n)
}

// selected returns the numbers of target standing at the position of the
// accepted cells. A target smaller than the criteria range ignores the
// missing cells.
func selected(target value.Array, accept []bool, rg value.Array) ([]float64, error) {
	var (
		list    []float64
		columns = int(rg.Dimension().Columns)
	)
	for k, ok := range accept {
		if !ok {
			continue
		}
		i, j := k/columns, k%columns
		if int64(i) >= target.Dimension().Lines || int64(j) >= target.Dimension().Columns {
			continue
		}
		switch x := target.At(i, j).(type) {
		case value.Float:
			list = append(list, float64(x))
		case value.Error:
			return nil, x
		}
	}
	return list, nil
}

func conditional(args []*eval.Arg, reduce func([]float64) value.ScalarValue) value.Value {
	accept, rg, err := matches(args[:2])
	if err != nil {
		return value.Fail(err)
	}
	target := rg
	if given(args, 2) {
		if target, err = array(args[2]); err != nil {
			return value.Fail(err)
		}
	}
	list, err := selected(target, accept, rg)
	if err != nil {
		return value.Fail(err)
	}
	return reduce(list)
}

func conditionals(args []*eval.Arg, reduce func([]float64) value.ScalarValue) value.Value {
	target, err := array(args[0])
	if err != nil {
		return value.Fail(err)
	}
	accept, rg, err := matches(args[1:])
	if err != nil {
		return value.Fail(err)
	}
	if target.Dimension() != rg.Dimension() {
		return value.ErrValue
	}
	list, err := selected(target, accept, rg)
	if err != nil {
		return value.Fail(err)
	}
	return reduce(list)
}

func execSumIf(_ *eval.Env, args []*eval.Arg) value.Value {
	return conditional(args, sum)
}

func execSumIfs(_ *eval.Env, args []*eval.Arg) value.Value {
	return conditionals(args, sum)
}

func execAverageIf(_ *eval.Env, args []*eval.Arg) value.Value {
	return conditional(args, average)
}

func execAverageIfs(_ *eval.Env, args []*eval.Arg) value.Value {
	return conditionals(args, average)
}

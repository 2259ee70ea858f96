package builtins

import (
	"slices"

	"github.com/midbel/xlcalc/formula/eval"
	"github.com/midbel/xlcalc/value"
)

var arrayFunctions = []eval.Function{
	{
		Name: "SEQUENCE",
		Min:  1,
		Max:  4,
		Call: execSequence,
	},
	{
		Name:  "FILTER",
		Min:   2,
		Max:   3,
		Modes: []eval.ArgMode{eval.ArgValue, eval.ArgValue, eval.ArgLazy},
		Call:  execFilter,
	},
	{
		Name: "SORT",
		Min:  1,
		Max:  4,
		Call: execSort,
	},
	{
		Name: "UNIQUE",
		Min:  1,
		Max:  3,
		Call: execUnique,
	},
	{
		Name: "TRANSPOSE",
		Min:  1,
		Max:  1,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			arr, err := array(args[0])
			if err != nil {
				return value.Fail(err)
			}
			return arr.Transpose()
		},
	},
}

func execSequence(_ *eval.Env, args []*eval.Arg) value.Value {
	lines, err := integer(args[0])
	if err != nil {
		return value.Fail(err)
	}
	cols, err := optInteger(args, 1, 1)
	if err != nil {
		return value.Fail(err)
	}
	start, err := optNumber(args, 2, 1)
	if err != nil {
		return value.Fail(err)
	}
	step, err := optNumber(args, 3, 1)
	if err != nil {
		return value.Fail(err)
	}
	if lines < 1 || cols < 1 {
		return value.ErrCalc
	}
	data := make([][]value.ScalarValue, lines)
	for i := range data {
		data[i] = make([]value.ScalarValue, cols)
		for j := range data[i] {
			data[i][j] = value.Float(start + float64(i*cols+j)*step)
		}
	}
	return value.NewArray(data)
}

func execFilter(_ *eval.Env, args []*eval.Arg) value.Value {
	arr, err := array(args[0])
	if err != nil {
		return value.Fail(err)
	}
	include, err := array(args[1])
	if err != nil {
		return value.Fail(err)
	}
	var (
		dim    = arr.Dimension()
		inc    = include.Dimension()
		byLine = inc.Columns == 1 && inc.Lines == dim.Lines
	)
	if !byLine && !(inc.Lines == 1 && inc.Columns == dim.Columns) {
		return value.ErrValue
	}
	keep := make([]bool, 0, inc.Size())
	for _, s := range include.Values() {
		b, err := value.CastToBool(s)
		if err != nil {
			return value.Fail(err)
		}
		keep = append(keep, bool(b))
	}
	if !byLine {
		arr = arr.Transpose()
	}
	var data [][]value.ScalarValue
	for i, ok := range keep {
		if ok {
			data = append(data, arr.Data[i])
		}
	}
	if len(data) == 0 {
		if given(args, 2) {
			return args[2].Eval()
		}
		return value.ErrCalc
	}
	res := value.NewArray(data)
	if !byLine {
		res = res.Transpose()
	}
	return res
}

func execSort(_ *eval.Env, args []*eval.Arg) value.Value {
	arr, err := array(args[0])
	if err != nil {
		return value.Fail(err)
	}
	index, err := optInteger(args, 1, 1)
	if err != nil {
		return value.Fail(err)
	}
	order, err := optInteger(args, 2, 1)
	if err != nil {
		return value.Fail(err)
	}
	byCol, err := optBoolean(args, 3, false)
	if err != nil {
		return value.Fail(err)
	}
	if order != 1 && order != -1 {
		return value.ErrValue
	}
	if byCol {
		arr = arr.Transpose()
	}
	if index < 1 || int64(index) > arr.Dimension().Columns {
		return value.ErrValue
	}
	data := arr.Map(func(s value.ScalarValue) value.ScalarValue {
		return s
	}).Data
	slices.SortStableFunc(data, func(a, b []value.ScalarValue) int {
		return order * value.Compare(a[index-1], b[index-1])
	})
	res := value.NewArray(data)
	if byCol {
		res = res.Transpose()
	}
	return res
}

func execUnique(_ *eval.Env, args []*eval.Arg) value.Value {
	arr, err := array(args[0])
	if err != nil {
		return value.Fail(err)
	}
	byCol, err := optBoolean(args, 1, false)
	if err != nil {
		return value.Fail(err)
	}
	once, err := optBoolean(args, 2, false)
	if err != nil {
		return value.Fail(err)
	}
	if byCol {
		arr = arr.Transpose()
	}
	var (
		rows   [][]value.ScalarValue
		counts []int
	)
	for i := range arr.Data {
		row := make([]value.ScalarValue, len(arr.Data[i]))
		for j := range row {
			row[j] = arr.At(i, j)
		}
		ix := slices.IndexFunc(rows, func(other []value.ScalarValue) bool {
			return sameLine(row, other)
		})
		if ix >= 0 {
			counts[ix]++
			continue
		}
		rows = append(rows, row)
		counts = append(counts, 1)
	}
	if once {
		var keep [][]value.ScalarValue
		for i := range rows {
			if counts[i] == 1 {
				keep = append(keep, rows[i])
			}
		}
		rows = keep
	}
	if len(rows) == 0 {
		return value.ErrCalc
	}
	res := value.NewArray(rows)
	if byCol {
		res = res.Transpose()
	}
	return res
}

func sameLine(a, b []value.ScalarValue) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if value.IsBlank(a[i]) != value.IsBlank(b[i]) || !value.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

package builtins

import (
	"github.com/midbel/xlcalc/formula/eval"
	"github.com/midbel/xlcalc/value"
)

var lookupFunctions = []eval.Function{
	{
		Name: "INDEX",
		Min:  2,
		Max:  3,
		Call: execIndex,
	},
	{
		Name: "MATCH",
		Min:  2,
		Max:  3,
		Call: execMatch,
	},
	{
		Name: "VLOOKUP",
		Min:  3,
		Max:  4,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return tableLookup(args, false)
		},
	},
	{
		Name: "HLOOKUP",
		Min:  3,
		Max:  4,
		Call: func(_ *eval.Env, args []*eval.Arg) value.Value {
			return tableLookup(args, true)
		},
	},
	{
		Name:  "XLOOKUP",
		Min:   3,
		Max:   6,
		Modes: []eval.ArgMode{eval.ArgValue, eval.ArgValue, eval.ArgValue, eval.ArgLazy, eval.ArgValue},
		Call:  execXLookup,
	},
	{
		Name: "XMATCH",
		Min:  2,
		Max:  4,
		Call: execXMatch,
	},
	{
		Name:  "CHOOSE",
		Min:   2,
		Max:   eval.Variadic,
		Modes: []eval.ArgMode{eval.ArgValue, eval.ArgLazy},
		Call:  execChoose,
	},
}

// match modes shared by the lookup functions
const (
	matchSmaller  = -1
	matchExact    = 0
	matchLarger   = 1
	matchWildcard = 2
)

// search scans list for needle and returns the index found or -1. The
// approximate modes keep the closest value on the requested side; on ties
// the first one met in the scan direction wins.
func search(needle value.ScalarValue, list []value.ScalarValue, mode int, reverse bool) int {
	var (
		best = -1
		g    glob
	)
	if t, ok := needle.(value.Text); ok && mode == matchWildcard {
		g = compileGlob(string(t))
	}
	for k := range list {
		i := k
		if reverse {
			i = len(list) - 1 - k
		}
		v := list[i]
		if !comparable(needle, v) {
			continue
		}
		if g != nil {
			if g.Match(v.String()) {
				return i
			}
			continue
		}
		cmp := value.Compare(v, needle)
		if cmp == 0 {
			return i
		}
		switch {
		case mode == matchSmaller && cmp < 0:
			if best < 0 || value.Compare(v, list[best]) > 0 {
				best = i
			}
		case mode == matchLarger && cmp > 0:
			if best < 0 || value.Compare(v, list[best]) < 0 {
				best = i
			}
		}
	}
	return best
}

func comparable(a, b value.ScalarValue) bool {
	switch a.(type) {
	case value.Float:
		return value.IsNumber(b)
	case value.Text:
		return value.IsText(b)
	case value.Boolean:
		return value.IsBool(b)
	default:
		return false
	}
}

// exactMode selects wildcard matching for text needles containing
// wildcards.
func exactMode(needle value.ScalarValue) int {
	if t, ok := needle.(value.Text); ok && hasWildcard(string(t)) {
		return matchWildcard
	}
	return matchExact
}

func execMatch(_ *eval.Env, args []*eval.Arg) value.Value {
	needle := args[0].Scalar()
	if e, ok := needle.(value.Error); ok {
		return e
	}
	arr, err := array(args[1])
	if err != nil {
		return value.Fail(err)
	}
	list, ok := vector(arr)
	if !ok {
		return value.ErrNA
	}
	kind, err := optInteger(args, 2, 1)
	if err != nil {
		return value.Fail(err)
	}
	mode := exactMode(needle)
	switch {
	case kind > 0:
		mode = matchSmaller
	case kind < 0:
		mode = matchLarger
	}
	ix := search(needle, list, mode, false)
	if ix < 0 {
		return value.ErrNA
	}
	return value.Float(ix + 1)
}

func execXMatch(_ *eval.Env, args []*eval.Arg) value.Value {
	needle := args[0].Scalar()
	if e, ok := needle.(value.Error); ok {
		return e
	}
	arr, err := array(args[1])
	if err != nil {
		return value.Fail(err)
	}
	list, ok := vector(arr)
	if !ok {
		return value.ErrValue
	}
	mode, reverse, err := searchModes(args, 2, 3)
	if err != nil {
		return value.Fail(err)
	}
	ix := search(needle, list, mode, reverse)
	if ix < 0 {
		return value.ErrNA
	}
	return value.Float(ix + 1)
}

func searchModes(args []*eval.Arg, mi, si int) (int, bool, error) {
	mode, err := optInteger(args, mi, matchExact)
	if err != nil {
		return 0, false, err
	}
	if mode < matchSmaller || mode > matchWildcard {
		return 0, false, value.ErrValue
	}
	dir, err := optInteger(args, si, 1)
	if err != nil {
		return 0, false, err
	}
	switch dir {
	case 1, 2:
		return mode, false, nil
	case -1, -2:
		return mode, true, nil
	default:
		return 0, false, value.ErrValue
	}
}

func execXLookup(_ *eval.Env, args []*eval.Arg) value.Value {
	needle := args[0].Scalar()
	if e, ok := needle.(value.Error); ok {
		return e
	}
	keys, err := array(args[1])
	if err != nil {
		return value.Fail(err)
	}
	list, ok := vector(keys)
	if !ok {
		return value.ErrValue
	}
	result, err := array(args[2])
	if err != nil {
		return value.Fail(err)
	}
	mode, reverse, err := searchModes(args, 4, 5)
	if err != nil {
		return value.Fail(err)
	}
	var (
		kd   = keys.Dimension()
		rd   = result.Dimension()
		vert = kd.Columns == 1 && kd.Lines > 1
	)
	if (vert && rd.Lines != kd.Lines) || (!vert && rd.Columns != kd.Columns) {
		return value.ErrValue
	}
	ix := search(needle, list, mode, reverse)
	if ix < 0 {
		if given(args, 3) {
			return args[3].Eval()
		}
		return value.ErrNA
	}
	if vert {
		return slice(result, ix, -1)
	}
	return slice(result, -1, ix)
}

// tableLookup implements VLOOKUP and HLOOKUP: the needle is searched in the
// first column, or the first line, and the value at the given offset is
// returned.
func tableLookup(args []*eval.Arg, horizontal bool) value.Value {
	needle := args[0].Scalar()
	if e, ok := needle.(value.Error); ok {
		return e
	}
	table, err := array(args[1])
	if err != nil {
		return value.Fail(err)
	}
	offset, err := integer(args[2])
	if err != nil {
		return value.Fail(err)
	}
	approx, err := optBoolean(args, 3, true)
	if err != nil {
		return value.Fail(err)
	}
	if horizontal {
		table = table.Transpose()
	}
	dim := table.Dimension()
	if offset < 1 {
		return value.ErrValue
	}
	if int64(offset) > dim.Columns {
		return value.ErrRef
	}
	keys := make([]value.ScalarValue, dim.Lines)
	for i := range keys {
		keys[i] = table.At(i, 0)
	}
	mode := exactMode(needle)
	if approx {
		mode = matchSmaller
	}
	ix := search(needle, keys, mode, false)
	if ix < 0 {
		return value.ErrNA
	}
	return table.At(ix, offset-1)
}

func execIndex(_ *eval.Env, args []*eval.Arg) value.Value {
	arr, err := array(args[0])
	if err != nil {
		return value.Fail(err)
	}
	dim := arr.Dimension()
	line, err := optInteger(args, 1, 0)
	if err != nil {
		return value.Fail(err)
	}
	var col int
	switch {
	case given(args, 2):
		if col, err = integer(args[2]); err != nil {
			return value.Fail(err)
		}
	case dim.Lines == 1:
		line, col = 1, line
	case dim.Columns == 1:
		col = 1
	}
	if line < 0 || col < 0 || int64(line) > dim.Lines || int64(col) > dim.Columns {
		return value.ErrRef
	}
	return slice(arr, line-1, col-1)
}

// slice extracts one cell, one line (col < 0) or one column (line < 0) of
// arr. Slices of arrays built from cells keep their origin.
func slice(arr value.Array, line, col int) value.Value {
	var (
		dim   = arr.Dimension()
		lines = []int{line}
		cols  = []int{col}
	)
	if line < 0 {
		lines = seq(int(dim.Lines))
	}
	if col < 0 {
		cols = seq(int(dim.Columns))
	}
	if len(lines) == 1 && len(cols) == 1 {
		return arr.At(lines[0], cols[0])
	}
	data := make([][]value.ScalarValue, len(lines))
	for i, ln := range lines {
		data[i] = make([]value.ScalarValue, len(cols))
		for j, cl := range cols {
			data[i][j] = arr.At(ln, cl)
		}
	}
	if !arr.Reference() {
		return value.NewArray(data)
	}
	anchor := arr.Anchor.Move(int64(lines[0]), int64(cols[0]))
	return value.NewRefArray(anchor, data)
}

func seq(n int) []int {
	list := make([]int, n)
	for i := range list {
		list[i] = i
	}
	return list
}

func execChoose(_ *eval.Env, args []*eval.Arg) value.Value {
	ix, err := integer(args[0])
	if err != nil {
		return value.Fail(err)
	}
	if ix < 1 || ix >= len(args) {
		return value.ErrValue
	}
	return args[ix].Eval()
}

package layout

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Selection picks columns of a range. It is written as a list of columns
// and spans separated by semicolons: "A;C:E;G:M:2". A span may omit one of
// its ends and carry a step.
type Selection interface {
	Select(Range) []int64
	Match(int64) bool
}

func ParseSelection(str string) (Selection, error) {
	var list combinedRef
	for _, part := range strings.Split(str, ";") {
		fields := strings.Split(strings.TrimSpace(part), ":")
		switch n := len(fields); n {
		case 1:
			ix, err := columnIndex(fields[0])
			if err != nil || ix == 0 {
				return nil, fmt.Errorf("selection: %q: invalid column", part)
			}
			list = append(list, columnRef(ix))
		case 2, 3:
			lo, err1 := columnIndex(fields[0])
			hi, err2 := columnIndex(fields[1])
			if errors.Join(err1, err2) != nil {
				return nil, fmt.Errorf("selection: %q: invalid column", part)
			}
			span := columnSpan{
				Starts: lo,
				Ends:   hi,
				Step:   1,
			}
			if n == 3 && fields[2] != "" {
				step, err := strconv.ParseInt(fields[2], 10, 64)
				if err != nil || step <= 0 {
					return nil, fmt.Errorf("selection: %q: invalid step", part)
				}
				span.Step = step
			}
			list = append(list, span)
		default:
			return nil, fmt.Errorf("selection: invalid syntax")
		}
	}
	if len(list) == 1 {
		return list[0], nil
	}
	return list, nil
}

func columnIndex(str string) (int64, error) {
	str = strings.ToUpper(strings.TrimSpace(str))
	if str == "" {
		return 0, nil
	}
	ix, n := ParseIndex(str)
	if n != len(str) || ix < 1 || ix > MaxColumns {
		return 0, fmt.Errorf("%w: %s", ErrAddress, str)
	}
	return ix, nil
}

type columnRef int64

func (c columnRef) Select(rg Range) []int64 {
	if int64(c) >= rg.Starts.Column && int64(c) <= rg.Ends.Column {
		return []int64{int64(c)}
	}
	return nil
}

func (c columnRef) Match(col int64) bool {
	return int64(c) == col
}

type columnSpan struct {
	Starts int64
	Ends   int64
	Step   int64
}

func (c columnSpan) bounds(rg Range) (int64, int64) {
	starts, ends := c.Starts, c.Ends
	if starts == 0 {
		starts = rg.Starts.Column
	}
	if ends == 0 {
		ends = rg.Ends.Column
	}
	return max(starts, rg.Starts.Column), min(ends, rg.Ends.Column)
}

func (c columnSpan) Select(rg Range) []int64 {
	var (
		all          []int64
		starts, ends = c.bounds(rg)
	)
	for i := starts; i <= ends; i++ {
		if c.Match(i) {
			all = append(all, i)
		}
	}
	return all
}

func (c columnSpan) Match(col int64) bool {
	if col < c.Starts || (c.Ends > 0 && col > c.Ends) {
		return false
	}
	first := max(c.Starts, 1)
	return (col-first)%c.Step == 0
}

type combinedRef []Selection

func (r combinedRef) Select(rg Range) []int64 {
	var all []int64
	for i := range r {
		all = slices.Concat(all, r[i].Select(rg))
	}
	return all
}

func (r combinedRef) Match(col int64) bool {
	return slices.ContainsFunc(r, func(s Selection) bool {
		return s.Match(col)
	})
}

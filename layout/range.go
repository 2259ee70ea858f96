package layout

import (
	"fmt"
	"strings"
)

type Range struct {
	Starts Position
	Ends   Position
}

func NewRange(starts, ends Position) Range {
	rg := Range{
		Starts: starts,
		Ends:   ends,
	}
	return rg.Normalize()
}

func SingleRange(pos Position) Range {
	return Range{
		Starts: pos,
		Ends:   pos,
	}
}

// ParseRange reads A1:B2 or a single address, with an optional sheet prefix
// on the first part.
func ParseRange(str string) (Range, error) {
	fst, lst, ok := strings.Cut(str, ":")
	starts, err := ParsePosition(fst)
	if err != nil {
		return Range{}, err
	}
	if !ok {
		return SingleRange(starts), nil
	}
	ends, err := ParsePosition(lst)
	if err != nil {
		return Range{}, err
	}
	if ends.Sheet == "" {
		ends.Sheet = starts.Sheet
	}
	return NewRange(starts, ends), nil
}

func (r Range) Sheet() string {
	return r.Starts.Sheet
}

func (r Range) Single() bool {
	return r.Starts.Line == r.Ends.Line && r.Starts.Column == r.Ends.Column
}

// Contains is inclusive on both ends and ignores the case of the sheet name.
func (r Range) Contains(pos Position) bool {
	if !SameSheet(r.Starts.Sheet, pos.Sheet) {
		return false
	}
	ok := pos.Line >= r.Starts.Line && pos.Line <= r.Ends.Line
	if !ok {
		return false
	}
	return pos.Column >= r.Starts.Column && pos.Column <= r.Ends.Column
}

func (r Range) Width() int64 {
	return r.Ends.Column - r.Starts.Column + 1
}

func (r Range) Height() int64 {
	return r.Ends.Line - r.Starts.Line + 1
}

func (r Range) Dimension() Dimension {
	return Dimension{
		Lines:   r.Height(),
		Columns: r.Width(),
	}
}

func (r Range) Intersect(other Range) (Range, bool) {
	if !SameSheet(r.Starts.Sheet, other.Starts.Sheet) {
		return Range{}, false
	}
	x := r
	x.Starts.Line = max(r.Starts.Line, other.Starts.Line)
	x.Starts.Column = max(r.Starts.Column, other.Starts.Column)
	x.Ends.Line = min(r.Ends.Line, other.Ends.Line)
	x.Ends.Column = min(r.Ends.Column, other.Ends.Column)
	if x.Starts.Line > x.Ends.Line || x.Starts.Column > x.Ends.Column {
		return Range{}, false
	}
	return x, true
}

// Positions lists every cell of the range, line by line.
func (r Range) Positions() []Position {
	list := make([]Position, 0, r.Height()*r.Width())
	for i := r.Starts.Line; i <= r.Ends.Line; i++ {
		for j := r.Starts.Column; j <= r.Ends.Column; j++ {
			list = append(list, NewPosition(r.Starts.Sheet, i, j))
		}
	}
	return list
}

func (r Range) Addr() string {
	if r.Single() {
		return r.Starts.Addr()
	}
	return fmt.Sprintf("%s:%s", r.Starts.Addr(), r.Ends.Cell())
}

func (r Range) String() string {
	return r.Addr()
}

func (r Range) Normalize() Range {
	x := r
	x.Starts.Line = min(r.Starts.Line, r.Ends.Line)
	x.Starts.Column = min(r.Starts.Column, r.Ends.Column)
	x.Ends.Line = max(r.Starts.Line, r.Ends.Line)
	x.Ends.Column = max(r.Starts.Column, r.Ends.Column)
	x.Ends.Sheet = x.Starts.Sheet
	return x
}

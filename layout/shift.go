package layout

type Axis int8

const (
	Lines Axis = iota
	Columns
)

func (a Axis) String() string {
	if a == Columns {
		return "columns"
	}
	return "lines"
}

// Shift describes the insertion (Count > 0) or the deletion (Count < 0) of
// whole lines or columns starting at At on a sheet.
type Shift struct {
	Sheet string
	Axis  Axis
	At    int64
	Count int64
}

func InsertLines(sheet string, at, count int64) Shift {
	return Shift{Sheet: sheet, Axis: Lines, At: at, Count: count}
}

func DeleteLines(sheet string, at, count int64) Shift {
	return Shift{Sheet: sheet, Axis: Lines, At: at, Count: -count}
}

func InsertColumns(sheet string, at, count int64) Shift {
	return Shift{Sheet: sheet, Axis: Columns, At: at, Count: count}
}

func DeleteColumns(sheet string, at, count int64) Shift {
	return Shift{Sheet: sheet, Axis: Columns, At: at, Count: -count}
}

func (s Shift) Deletion() bool {
	return s.Count < 0
}

func (s Shift) Applies(sheet string) bool {
	return SameSheet(s.Sheet, sheet)
}

// Index moves a single line or column index. The second result is false when
// the index lies inside a deleted span.
func (s Shift) Index(ix int64) (int64, bool) {
	if !s.Deletion() {
		if ix >= s.At {
			ix += s.Count
		}
		return ix, true
	}
	last := s.At - s.Count - 1
	switch {
	case ix < s.At:
		return ix, true
	case ix > last:
		return ix + s.Count, true
	default:
		return ix, false
	}
}

// Span moves the bounds of an interval. A deletion covering the whole
// interval reports false; a partial deletion shrinks it.
func (s Shift) Span(lo, hi int64) (int64, int64, bool) {
	if !s.Deletion() {
		lo, _ = s.Index(lo)
		hi, _ = s.Index(hi)
		return lo, hi, true
	}
	last := s.At - s.Count - 1
	if lo >= s.At && hi <= last {
		return lo, hi, false
	}
	if lo > last {
		lo += s.Count
	} else if lo >= s.At {
		lo = s.At
	}
	if hi > last {
		hi += s.Count
	} else if hi >= s.At {
		hi = s.At - 1
	}
	return lo, hi, true
}

func (s Shift) Position(pos Position) (Position, bool) {
	var ok bool
	if s.Axis == Lines {
		pos.Line, ok = s.Index(pos.Line)
	} else {
		pos.Column, ok = s.Index(pos.Column)
	}
	return pos, ok
}

func (s Shift) Range(rg Range) (Range, bool) {
	var ok bool
	if s.Axis == Lines {
		rg.Starts.Line, rg.Ends.Line, ok = s.Span(rg.Starts.Line, rg.Ends.Line)
	} else {
		rg.Starts.Column, rg.Ends.Column, ok = s.Span(rg.Starts.Column, rg.Ends.Column)
	}
	return rg, ok
}

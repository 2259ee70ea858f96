package calc

import (
	"fmt"
	"slices"
	"strings"

	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/layout"
)

// Table is a named area with a header line and optionally a totals line.
// Area covers both of them.
type Table struct {
	Name    string
	Area    layout.Range
	Columns []string
	Totals  bool
}

func (t *Table) Sheet() string {
	return t.Area.Sheet()
}

func (t *Table) Column(name string) (int64, bool) {
	ix := slices.IndexFunc(t.Columns, func(c string) bool {
		return strings.EqualFold(c, name)
	})
	return int64(ix), ix >= 0
}

func (t *Table) data() layout.Range {
	rg := t.Area
	rg.Starts.Line++
	if t.Totals {
		rg.Ends.Line--
	}
	return rg
}

// Range computes the cells addressed by ref for a formula at origin.
func (t *Table) Range(ref parse.StructuredRef, origin layout.Position) (layout.Range, error) {
	rg := t.data()
	switch ref.Scope {
	case parse.ScopeAll:
		rg = t.Area
	case parse.ScopeHeaders:
		rg.Starts.Line, rg.Ends.Line = t.Area.Starts.Line, t.Area.Starts.Line
	case parse.ScopeTotals:
		if !t.Totals {
			return rg, fmt.Errorf("%w: %s has no totals", ErrTable, t.Name)
		}
		rg.Starts.Line, rg.Ends.Line = t.Area.Ends.Line, t.Area.Ends.Line
	case parse.ScopeThisRow:
		if !layout.SameSheet(origin.Sheet, t.Sheet()) || origin.Line < rg.Starts.Line || origin.Line > rg.Ends.Line {
			return rg, fmt.Errorf("%w: %s outside of table", ErrTable, origin)
		}
		rg.Starts.Line, rg.Ends.Line = origin.Line, origin.Line
	}
	if rg.Starts.Line > rg.Ends.Line {
		return rg, fmt.Errorf("%w: %s is empty", ErrTable, t.Name)
	}
	if ref.Column == "" {
		return rg, nil
	}
	first, ok := t.Column(ref.Column)
	if !ok {
		return rg, fmt.Errorf("%w: %s: unknown column %s", ErrTable, t.Name, ref.Column)
	}
	last := first
	if ref.EndColumn != "" {
		if last, ok = t.Column(ref.EndColumn); !ok {
			return rg, fmt.Errorf("%w: %s: unknown column %s", ErrTable, t.Name, ref.EndColumn)
		}
	}
	start := t.Area.Starts.Column
	rg.Starts.Column = start + min(first, last)
	rg.Ends.Column = start + max(first, last)
	return rg, nil
}

type tableSet struct {
	list []*Table
}

func (s *tableSet) get(name string) (*Table, bool) {
	ix := slices.IndexFunc(s.list, func(t *Table) bool {
		return strings.EqualFold(t.Name, name)
	})
	if ix < 0 {
		return nil, false
	}
	return s.list[ix], true
}

// at finds the table covering pos; it is used by references without table
// name written inside a table.
func (s *tableSet) at(pos layout.Position) (*Table, bool) {
	ix := slices.IndexFunc(s.list, func(t *Table) bool {
		return t.Area.Contains(pos)
	})
	if ix < 0 {
		return nil, false
	}
	return s.list[ix], true
}

func (s *tableSet) add(t *Table) {
	s.list = append(s.list, t)
}

func (s *tableSet) remove(name string) {
	s.list = slices.DeleteFunc(s.list, func(t *Table) bool {
		return strings.EqualFold(t.Name, name)
	})
}

func (s *tableSet) resolve(ref parse.StructuredRef, origin layout.Position) (layout.Range, error) {
	var (
		t  *Table
		ok bool
	)
	if ref.Table == "" {
		t, ok = s.at(origin)
	} else {
		t, ok = s.get(ref.Table)
	}
	if !ok {
		return layout.Range{}, fmt.Errorf("%w: %s not found", ErrTable, ref.Table)
	}
	return t.Range(ref, origin)
}

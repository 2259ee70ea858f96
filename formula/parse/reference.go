package parse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/midbel/xlcalc/layout"
)

// Endpoint is one corner of a reference. When Offset is set, the endpoint
// was written in R1C1 notation and its relative axes hold a delta from the
// origin of the formula instead of a coordinate.
type Endpoint struct {
	Line    int64
	Column  int64
	AbsLine bool
	AbsCols bool
	Offset  bool
}

func (e Endpoint) Resolve(origin layout.Position) layout.Position {
	pos := layout.NewPosition(origin.Sheet, e.Line, e.Column)
	if e.Offset {
		if !e.AbsLine {
			pos.Line += origin.Line
		}
		if !e.AbsCols {
			pos.Column += origin.Column
		}
	}
	return pos
}

// Anchor turns a resolved position back into an endpoint keeping the flags of
// e. Relative R1C1 axes are recomputed from origin.
func (e Endpoint) Anchor(pos layout.Position, origin layout.Position) Endpoint {
	x := e
	x.Line, x.Column = pos.Line, pos.Column
	if e.Offset {
		if !e.AbsLine {
			x.Line -= origin.Line
		}
		if !e.AbsCols {
			x.Column -= origin.Column
		}
	}
	return x
}

func (e Endpoint) a1() string {
	var buf strings.Builder
	if e.AbsCols {
		buf.WriteByte('$')
	}
	buf.WriteString(layout.ColumnName(e.Column))
	if e.AbsLine {
		buf.WriteByte('$')
	}
	buf.WriteString(strconv.FormatInt(e.Line, 10))
	return buf.String()
}

func (e Endpoint) r1c1() string {
	var buf strings.Builder
	buf.WriteByte('R')
	writeAxis(&buf, e.Line, e.AbsLine)
	buf.WriteByte('C')
	writeAxis(&buf, e.Column, e.AbsCols)
	return buf.String()
}

func writeAxis(buf *strings.Builder, n int64, abs bool) {
	if abs {
		buf.WriteString(strconv.FormatInt(n, 10))
		return
	}
	if n != 0 {
		fmt.Fprintf(buf, "[%d]", n)
	}
}

// Reference is a cell or a range, optionally qualified by a sheet, a range of
// sheets and an external workbook.
type Reference struct {
	Workbook string
	Sheet    string
	EndSheet string
	Start    Endpoint
	End      Endpoint
	IsRange  bool
}

// RangeReference builds an absolute reference covering rg.
func RangeReference(rg layout.Range) Reference {
	rg = rg.Normalize()
	ref := Reference{
		Sheet: rg.Sheet(),
		Start: Endpoint{
			Line:    rg.Starts.Line,
			Column:  rg.Starts.Column,
			AbsLine: true,
			AbsCols: true,
		},
		IsRange: !rg.Single(),
	}
	if ref.IsRange {
		ref.End = Endpoint{
			Line:    rg.Ends.Line,
			Column:  rg.Ends.Column,
			AbsLine: true,
			AbsCols: true,
		}
	}
	return ref
}

func (r Reference) External() bool {
	return r.Workbook != ""
}

// ThreeD reports a reference spanning several sheets.
func (r Reference) ThreeD() bool {
	return r.EndSheet != "" && !layout.SameSheet(r.Sheet, r.EndSheet)
}

// Resolve computes the range covered by the reference for a formula located
// at origin. The sheet of origin is used when the reference has none.
func (r Reference) Resolve(origin layout.Position) (layout.Range, error) {
	var (
		start = r.Start.Resolve(origin)
		end   = start
	)
	if r.IsRange {
		end = r.End.Resolve(origin)
	}
	if r.Sheet != "" {
		start.Sheet, end.Sheet = r.Sheet, r.Sheet
	}
	if !start.Valid() || !end.Valid() {
		return layout.Range{}, fmt.Errorf("%w: reference outside of grid", layout.ErrAddress)
	}
	return layout.NewRange(start, end), nil
}

func (r Reference) prefix() string {
	sheet := r.Sheet
	if r.EndSheet != "" && !strings.EqualFold(r.Sheet, r.EndSheet) {
		sheet += ":" + r.EndSheet
	}
	if r.Workbook != "" {
		name := "[" + r.Workbook + "]" + sheet
		return "'" + strings.ReplaceAll(name, "'", "''") + "'!"
	}
	if sheet == "" {
		return ""
	}
	if strings.Contains(sheet, ":") {
		fst, lst, _ := strings.Cut(sheet, ":")
		if layout.QuoteSheet(fst) != fst || layout.QuoteSheet(lst) != lst {
			return "'" + strings.ReplaceAll(sheet, "'", "''") + "'!"
		}
		return sheet + "!"
	}
	return layout.QuoteSheet(sheet) + "!"
}

func (r Reference) format(mode RefMode, origin layout.Position) string {
	conv := func(e Endpoint) string {
		switch {
		case mode == ModeR1C1 && e.Offset:
			return e.r1c1()
		case mode == ModeR1C1:
			x := e
			x.Offset = true
			x = x.Anchor(layout.NewPosition("", e.Line, e.Column), origin)
			return x.r1c1()
		case e.Offset:
			pos := e.Resolve(origin)
			x := e
			x.Offset = false
			x.Line, x.Column = pos.Line, pos.Column
			return x.a1()
		default:
			return e.a1()
		}
	}
	str := r.prefix() + conv(r.Start)
	if r.IsRange {
		str += ":" + conv(r.End)
	}
	return str
}

// String gives a canonical form of the reference keeping the notation it was
// written in.
func (r Reference) String() string {
	conv := func(e Endpoint) string {
		if e.Offset {
			return e.r1c1()
		}
		return e.a1()
	}
	str := r.prefix() + conv(r.Start)
	if r.IsRange {
		str += ":" + conv(r.End)
	}
	return str
}

type TableScope int8

const (
	ScopeNone TableScope = iota
	ScopeThisRow
	ScopeHeaders
	ScopeTotals
	ScopeAll
)

func (s TableScope) String() string {
	switch s {
	case ScopeThisRow:
		return "#This Row"
	case ScopeHeaders:
		return "#Headers"
	case ScopeTotals:
		return "#Totals"
	case ScopeAll:
		return "#All"
	default:
		return "#Data"
	}
}

// StructuredRef addresses part of a table: a scope and an optional column or
// column range.
type StructuredRef struct {
	Table     string
	Scope     TableScope
	Column    string
	EndColumn string
}

func (s StructuredRef) String() string {
	return s.Table + s.bracket()
}

func (s StructuredRef) bracket() string {
	switch {
	case s.Column == "" && s.Scope == ScopeNone:
		return "[]"
	case s.Column == "":
		return "[" + s.Scope.String() + "]"
	case s.Scope == ScopeThisRow && s.EndColumn == "":
		col := escapeColumn(s.Column)
		if simpleColumn(s.Column) {
			return "[@" + col + "]"
		}
		return "[@[" + col + "]]"
	}
	cols := "[" + escapeColumn(s.Column) + "]"
	if s.EndColumn != "" {
		cols += ":[" + escapeColumn(s.EndColumn) + "]"
	}
	if s.Scope != ScopeNone {
		return "[[" + s.Scope.String() + "]," + cols + "]"
	}
	if s.EndColumn == "" && simpleColumn(s.Column) {
		return cols
	}
	return "[" + cols + "]"
}

func simpleColumn(col string) bool {
	for _, c := range col {
		if !isIdentChar(c) || c == dollar {
			return false
		}
	}
	return col != ""
}

func escapeColumn(col string) string {
	var buf strings.Builder
	for _, c := range col {
		switch c {
		case lsquare, rsquare, pound, squote, at:
			buf.WriteRune(squote)
		}
		buf.WriteRune(c)
	}
	return buf.String()
}

// ParseStructured reads a structured reference such as Table1[[#Headers],[Col]].
func ParseStructured(str string) (StructuredRef, error) {
	var ref StructuredRef
	ix := strings.IndexByte(str, lsquare)
	if ix < 0 || !strings.HasSuffix(str, "]") {
		return ref, fmt.Errorf("%s: invalid structured reference", str)
	}
	ref.Table = str[:ix]
	inner := strings.TrimSpace(str[ix+1 : len(str)-1])
	if inner == "" {
		return ref, nil
	}
	switch inner[0] {
	case at:
		ref.Scope = ScopeThisRow
		col := strings.TrimSpace(inner[1:])
		if strings.HasPrefix(col, "[") {
			items, err := splitItems(col)
			if err != nil || len(items) != 1 {
				return ref, fmt.Errorf("%s: invalid column after @", str)
			}
			col = items[0]
		}
		if col == "" {
			return ref, nil
		}
		ref.Column = unescapeColumn(col)
		return ref, nil
	case pound:
		scope, ok := scopeFromString(inner)
		if !ok {
			return ref, fmt.Errorf("%s: unknown scope %s", str, inner)
		}
		ref.Scope = scope
		return ref, nil
	case lsquare:
	default:
		ref.Column = unescapeColumn(inner)
		return ref, nil
	}
	items, err := splitItems(inner)
	if err != nil {
		return ref, fmt.Errorf("%s: %w", str, err)
	}
	for _, it := range items {
		if strings.HasPrefix(it, "#") {
			scope, ok := scopeFromString(it)
			if !ok {
				return ref, fmt.Errorf("%s: unknown scope %s", str, it)
			}
			if scope == ScopeNone {
				continue
			}
			if ref.Scope != ScopeNone && ref.Scope != scope {
				return ref, fmt.Errorf("%s: too many scopes", str)
			}
			ref.Scope = scope
			continue
		}
		if ref.EndColumn != "" {
			return ref, fmt.Errorf("%s: too many columns", str)
		}
		if ref.Column == "" {
			ref.Column = unescapeColumn(it)
			continue
		}
		ref.EndColumn = unescapeColumn(it)
	}
	return ref, nil
}

// splitItems splits [a],[b]:[c] into its bracketed items; a ':' between two
// items is dropped since columns only come by pair.
func splitItems(str string) ([]string, error) {
	var (
		list  []string
		depth int
		buf   strings.Builder
	)
	for i := 0; i < len(str); i++ {
		c := str[i]
		switch {
		case c == squote && i+1 < len(str):
			buf.WriteByte(c)
			i++
			buf.WriteByte(str[i])
			continue
		case c == lsquare:
			depth++
			if depth == 1 {
				buf.Reset()
				continue
			}
		case c == rsquare:
			depth--
			if depth == 0 {
				list = append(list, strings.TrimSpace(buf.String()))
				continue
			}
		case depth == 0:
			if c == ',' || c == ';' || c == ':' || c == ' ' {
				continue
			}
			return nil, fmt.Errorf("unexpected character %c", c)
		}
		buf.WriteByte(c)
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced brackets")
	}
	return list, nil
}

func unescapeColumn(col string) string {
	var buf strings.Builder
	for i := 0; i < len(col); i++ {
		if col[i] == squote && i+1 < len(col) {
			i++
		}
		buf.WriteByte(col[i])
	}
	return strings.TrimSpace(buf.String())
}

func scopeFromString(str string) (TableScope, bool) {
	switch strings.ToLower(strings.TrimSpace(str)) {
	case "#this row":
		return ScopeThisRow, true
	case "#headers":
		return ScopeHeaders, true
	case "#totals":
		return ScopeTotals, true
	case "#data":
		return ScopeNone, true
	case "#all":
		return ScopeAll, true
	default:
		return 0, false
	}
}

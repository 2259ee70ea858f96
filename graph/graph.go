package graph

import (
	"cmp"
	"slices"
	"strings"

	"github.com/midbel/xlcalc/formula/op"
	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/layout"
)

// Scope gives the graph the knowledge of the workbook it needs to turn
// references into cells.
type Scope interface {
	Workbook() string
	Sheets() []string
	// Name returns the definition of the name visible from sheet and
	// whether it is scoped to that sheet.
	Name(sheet, name string) (parse.Expr, bool, bool)
	Table(ref parse.StructuredRef, origin layout.Position) (layout.Range, bool)
	Volatile(fn string) bool
}

type ID int32

// NameKey identifies a defined name. Sheet is only set for names scoped to a
// sheet.
type NameKey struct {
	Name   string
	Sheet  string
	Scoped bool
}

func WorkbookName(name string) NameKey {
	return NameKey{
		Name: strings.ToUpper(name),
	}
}

func SheetName(sheet, name string) NameKey {
	return NameKey{
		Name:   strings.ToUpper(name),
		Sheet:  strings.ToUpper(sheet),
		Scoped: true,
	}
}

type set map[ID]struct{}

func (s set) add(id ID) {
	s[id] = struct{}{}
}

func (s set) has(id ID) bool {
	_, ok := s[id]
	return ok
}

func (s set) sorted() []ID {
	list := make([]ID, 0, len(s))
	for id := range s {
		list = append(list, id)
	}
	slices.Sort(list)
	return list
}

// Graph keeps the edges between formulas and the cells they read. Cells are
// interned once and referred to by their ID.
type Graph struct {
	ids   map[string]ID
	cells []layout.Position

	formulas set
	forward  map[ID]set
	reverse  map[ID]set

	names  map[ID][]NameKey
	byName map[NameKey]set

	volatile set
	spills   map[ID][]ID
	owners   map[ID]ID
}

func New() *Graph {
	return &Graph{
		ids:      make(map[string]ID),
		formulas: make(set),
		forward:  make(map[ID]set),
		reverse:  make(map[ID]set),
		names:    make(map[ID][]NameKey),
		byName:   make(map[NameKey]set),
		volatile: make(set),
		spills:   make(map[ID][]ID),
		owners:   make(map[ID]ID),
	}
}

func (g *Graph) intern(pos layout.Position) ID {
	key := pos.Key()
	if id, ok := g.ids[key]; ok {
		return id
	}
	id := ID(len(g.cells))
	g.ids[key] = id
	g.cells = append(g.cells, pos)
	return id
}

func (g *Graph) lookup(pos layout.Position) (ID, bool) {
	id, ok := g.ids[pos.Key()]
	return id, ok
}

// Len gives the number of formulas in the graph.
func (g *Graph) Len() int {
	return len(g.formulas)
}

func (g *Graph) Has(pos layout.Position) bool {
	id, ok := g.lookup(pos)
	return ok && g.formulas.has(id)
}

// SetFormula replaces the edges owned by the formula at pos with the ones
// read from expr.
func (g *Graph) SetFormula(pos layout.Position, expr parse.Expr, scope Scope) {
	id := g.intern(pos)
	g.detach(id)
	g.formulas.add(id)

	deps := collect(pos, expr, scope)
	fw := make(set)
	for _, p := range deps.cells {
		other := g.intern(p)
		fw.add(other)
		rs, ok := g.reverse[other]
		if !ok {
			rs = make(set)
			g.reverse[other] = rs
		}
		rs.add(id)
	}
	g.forward[id] = fw
	for _, key := range deps.names {
		ns, ok := g.byName[key]
		if !ok {
			ns = make(set)
			g.byName[key] = ns
		}
		ns.add(id)
	}
	g.names[id] = deps.names
	if deps.volatile {
		g.volatile.add(id)
	}
}

// Remove drops the formula at pos and every edge it owns.
func (g *Graph) Remove(pos layout.Position) {
	id, ok := g.lookup(pos)
	if !ok {
		return
	}
	g.detach(id)
	g.SetSpill(pos, nil)
}

func (g *Graph) detach(id ID) {
	for other := range g.forward[id] {
		if rs, ok := g.reverse[other]; ok {
			delete(rs, id)
			if len(rs) == 0 {
				delete(g.reverse, other)
			}
		}
	}
	delete(g.forward, id)
	for _, key := range g.names[id] {
		if ns, ok := g.byName[key]; ok {
			delete(ns, id)
			if len(ns) == 0 {
				delete(g.byName, key)
			}
		}
	}
	delete(g.names, id)
	delete(g.volatile, id)
	delete(g.formulas, id)
}

// Dependencies lists the cells read by the formula at pos.
func (g *Graph) Dependencies(pos layout.Position) []layout.Position {
	id, ok := g.lookup(pos)
	if !ok {
		return nil
	}
	return g.positions(g.forward[id])
}

// Dependents lists the formulas reading the cell at pos.
func (g *Graph) Dependents(pos layout.Position) []layout.Position {
	id, ok := g.lookup(pos)
	if !ok {
		return nil
	}
	return g.positions(g.reverse[id])
}

// Names lists the names read by the formula at pos.
func (g *Graph) Names(pos layout.Position) []NameKey {
	id, ok := g.lookup(pos)
	if !ok {
		return nil
	}
	return slices.Clone(g.names[id])
}

// NameDependents lists the formulas reading the given name.
func (g *Graph) NameDependents(key NameKey) []layout.Position {
	key.Name = strings.ToUpper(key.Name)
	key.Sheet = strings.ToUpper(key.Sheet)
	return g.positions(g.byName[key])
}

// Volatile lists the formulas calling a volatile function.
func (g *Graph) Volatile() []layout.Position {
	return g.positions(g.volatile)
}

// Formulas lists every formula of the graph.
func (g *Graph) Formulas() []layout.Position {
	return g.positions(g.formulas)
}

// SetSpill records the cells filled by the array result of the formula at
// anchor. Formulas reading these cells are then ordered after the anchor.
func (g *Graph) SetSpill(anchor layout.Position, cells []layout.Position) {
	id := g.intern(anchor)
	for _, c := range g.spills[id] {
		if g.owners[c] == id {
			delete(g.owners, c)
		}
	}
	delete(g.spills, id)
	if len(cells) == 0 {
		return
	}
	list := make([]ID, 0, len(cells))
	for _, p := range cells {
		c := g.intern(p)
		if c == id {
			continue
		}
		list = append(list, c)
		g.owners[c] = id
	}
	g.spills[id] = list
}

// Spill lists the cells filled by the formula at anchor.
func (g *Graph) Spill(anchor layout.Position) []layout.Position {
	id, ok := g.lookup(anchor)
	if !ok {
		return nil
	}
	var list []layout.Position
	for _, c := range g.spills[id] {
		list = append(list, g.cells[c])
	}
	return list
}

// Owner gives the anchor of the spill covering pos.
func (g *Graph) Owner(pos layout.Position) (layout.Position, bool) {
	id, ok := g.lookup(pos)
	if !ok {
		return layout.Position{}, false
	}
	a, ok := g.owners[id]
	if !ok {
		return layout.Position{}, false
	}
	return g.cells[a], true
}

func (g *Graph) positions(s set) []layout.Position {
	list := make([]layout.Position, 0, len(s))
	for id := range s {
		list = append(list, g.cells[id])
	}
	SortPositions(list)
	return list
}

// SortPositions orders positions by sheet, line then column.
func SortPositions(list []layout.Position) {
	slices.SortFunc(list, comparePositions)
}

func comparePositions(a, b layout.Position) int {
	if c := strings.Compare(strings.ToUpper(a.Sheet), strings.ToUpper(b.Sheet)); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Line, b.Line); c != 0 {
		return c
	}
	return cmp.Compare(a.Column, b.Column)
}

type dependencies struct {
	cells    []layout.Position
	names    []NameKey
	volatile bool
}

// collect walks expr and lists the cells, names and volatile calls it
// contains. Definitions of names are followed so that the formula also
// depends on the cells the names refer to.
func collect(origin layout.Position, expr parse.Expr, scope Scope) dependencies {
	var (
		deps dependencies
		seen = make(map[NameKey]bool)
		walk func(parse.Expr)
	)
	addRange := func(rg layout.Range) {
		deps.cells = append(deps.cells, rg.Normalize().Positions()...)
	}
	addRef := func(ref parse.Reference) {
		if ref.External() && (scope == nil || !strings.EqualFold(ref.Workbook, scope.Workbook())) {
			return
		}
		rg, err := ref.Resolve(origin)
		if err != nil {
			return
		}
		if !ref.ThreeD() {
			addRange(rg)
			return
		}
		for _, sheet := range sheetSpan(scope, ref.Sheet, ref.EndSheet) {
			x := rg
			x.Starts.Sheet, x.Ends.Sheet = sheet, sheet
			addRange(x)
		}
	}
	walk = func(expr parse.Expr) {
		parse.Walk(expr, func(e parse.Expr) bool {
			switch e := e.(type) {
			case parse.Ref:
				addRef(e.Reference())
			case parse.Structured:
				if scope == nil {
					break
				}
				if rg, ok := scope.Table(e.Reference(), origin); ok {
					addRange(rg)
				}
			case parse.Name:
				key, def := nameKey(scope, origin.Sheet, e)
				deps.names = append(deps.names, key)
				if def != nil && !seen[key] {
					seen[key] = true
					walk(def)
				}
			case parse.Call:
				if scope != nil && scope.Volatile(e.Name()) {
					deps.volatile = true
				}
			case parse.Binary:
				if e.Op() != op.RangeRef {
					break
				}
				if rg, ok := boundingBox(e, origin); ok {
					addRange(rg)
					return false
				}
			}
			return true
		})
	}
	walk(expr)
	deps.names = uniqueNames(deps.names)
	return deps
}

func nameKey(scope Scope, sheet string, e parse.Name) (NameKey, parse.Expr) {
	if e.Sheet() != "" {
		key := SheetName(e.Sheet(), e.Ident())
		if scope == nil {
			return key, nil
		}
		def, scoped, ok := scope.Name(e.Sheet(), e.Ident())
		if !ok || !scoped {
			return key, nil
		}
		return key, def
	}
	if scope == nil {
		return WorkbookName(e.Ident()), nil
	}
	def, scoped, ok := scope.Name(sheet, e.Ident())
	switch {
	case !ok:
		return WorkbookName(e.Ident()), nil
	case scoped:
		return SheetName(sheet, e.Ident()), def
	default:
		return WorkbookName(e.Ident()), def
	}
}

func uniqueNames(list []NameKey) []NameKey {
	var res []NameKey
	for _, k := range list {
		if !slices.Contains(res, k) {
			res = append(res, k)
		}
	}
	return res
}

// boundingBox computes the area of A1:B2:C3 like expressions when both
// sides are plain references on the same sheet.
func boundingBox(e parse.Binary, origin layout.Position) (layout.Range, bool) {
	left, ok1 := parse.Unwrap(e.Left()).(parse.Ref)
	right, ok2 := parse.Unwrap(e.Right()).(parse.Ref)
	if !ok1 || !ok2 {
		return layout.Range{}, false
	}
	a, err := left.Reference().Resolve(origin)
	if err != nil {
		return layout.Range{}, false
	}
	b, err := right.Reference().Resolve(origin)
	if err != nil || !layout.SameSheet(a.Sheet(), b.Sheet()) {
		return layout.Range{}, false
	}
	a, b = a.Normalize(), b.Normalize()
	rg := a
	rg.Starts.Line = min(a.Starts.Line, b.Starts.Line)
	rg.Starts.Column = min(a.Starts.Column, b.Starts.Column)
	rg.Ends.Line = max(a.Ends.Line, b.Ends.Line)
	rg.Ends.Column = max(a.Ends.Column, b.Ends.Column)
	return rg, true
}

// sheetSpan lists the sheets between first and last in workbook order.
func sheetSpan(scope Scope, first, last string) []string {
	if scope == nil {
		return nil
	}
	var (
		sheets = scope.Sheets()
		from   = slices.IndexFunc(sheets, func(s string) bool { return layout.SameSheet(s, first) })
		to     = slices.IndexFunc(sheets, func(s string) bool { return layout.SameSheet(s, last) })
	)
	if from < 0 || to < 0 {
		return nil
	}
	if from > to {
		from, to = to, from
	}
	return slices.Clone(sheets[from : to+1])
}

// Package calc keeps the formulas of a workbook up to date: it parses the
// formula of each cell, tracks what every formula reads and recomputes the
// affected cells after a change.
package calc

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/midbel/xlcalc/formula/builtins"
	"github.com/midbel/xlcalc/formula/eval"
	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/graph"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/store"
	"github.com/midbel/xlcalc/value"
)

// Store holds the cells of a workbook. The formula text of a cell and its
// computed value live side by side.
type Store interface {
	Sheets() []string
	HasSheet(string) bool
	AddSheet(string) error
	RenameSheet(string, string) error

	Formula(layout.Position) (string, error)
	SetFormula(layout.Position, string) error
	Value(layout.Position) (value.ScalarValue, error)
	SetValue(layout.Position, value.ScalarValue) error
	Clear(layout.Position) error

	Cells(string) ([]layout.Position, error)
	Shift(layout.Shift) error

	SetSpill(layout.Range) error
	ClearSpill(layout.Position) error
	Spills(string) ([]layout.Range, error)
}

type cellFormula struct {
	pos     layout.Position
	formula *parse.Formula
}

// Engine computes the formulas of one workbook. It is not safe for
// concurrent use.
type Engine struct {
	name     string
	store    Store
	settings Settings
	funcs    *eval.Registry
	logger   *slog.Logger
	clock    func() time.Time
	rand     func() float64

	graph    *graph.Graph
	cache    *eval.Cache
	names    *Names
	tables   tableSet
	formulas map[string]cellFormula
	spills   map[string]layout.Range
	blocks   map[string]layout.Range
	links    map[string]*Engine
	dirty    []layout.Position
}

func New(options ...Option) (*Engine, error) {
	e := &Engine{
		settings: DefaultSettings(),
		logger:   discardLogger(),
		graph:    graph.New(),
		cache:    eval.NewCache(),
		names:    NewNames(),
		formulas: make(map[string]cellFormula),
		spills:   make(map[string]layout.Range),
		blocks:   make(map[string]layout.Range),
		links:    make(map[string]*Engine),
	}
	for _, o := range options {
		o(e)
	}
	if e.store == nil {
		e.store = store.NewMemory()
	}
	if e.funcs == nil {
		e.funcs = builtins.Default()
	}
	e.names.Subscribe(e.nameChanged)
	if err := e.load(); err != nil {
		return nil, err
	}
	return e, nil
}

// load registers the formulas already present in the store.
func (e *Engine) load() error {
	for _, sheet := range e.store.Sheets() {
		cells, err := e.store.Cells(sheet)
		if err != nil {
			return err
		}
		for _, pos := range cells {
			text, err := e.store.Formula(pos)
			if err != nil {
				return err
			}
			if text == "" {
				continue
			}
			f, err := parse.Parse(text, e.settings.ParseOptions())
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrFormula, pos, err)
			}
			e.register(pos, f)
		}
	}
	return e.loadSpills()
}

// loadSpills gives back to the formulas the cells they filled when the
// store was last written. Spills whose anchor is no longer a formula are
// forgotten.
func (e *Engine) loadSpills() error {
	for _, sheet := range e.store.Sheets() {
		list, err := e.store.Spills(sheet)
		if err != nil {
			return err
		}
		for _, area := range list {
			if _, ok := e.formulas[area.Starts.Key()]; !ok {
				if err := e.store.ClearSpill(area.Starts); err != nil {
					return err
				}
				continue
			}
			e.spills[area.Starts.Key()] = area
			e.graph.SetSpill(area.Starts, area.Positions())
		}
	}
	return nil
}

func (e *Engine) Name() string {
	return e.name
}

func (e *Engine) Settings() Settings {
	return e.settings
}

func (e *Engine) Names() *Names {
	return e.names
}

func (e *Engine) Registry() *eval.Registry {
	return e.funcs
}

func (e *Engine) Sheets() []string {
	return e.store.Sheets()
}

func (e *Engine) AddSheet(name string) error {
	if !validSheet(name) {
		return fmt.Errorf("%w: %q", ErrSheet, name)
	}
	if err := e.store.AddSheet(name); err != nil {
		return fmt.Errorf("%w: %w", ErrSheet, err)
	}
	e.refresh(func(expr parse.Expr) bool {
		return mentionsSheet(expr, name)
	})
	return nil
}

// Link makes the cells of other visible to the formulas of e through
// references qualified by [name].
func (e *Engine) Link(name string, other *Engine) {
	e.links[strings.ToUpper(name)] = other
	e.refresh(func(expr parse.Expr) bool {
		return mentionsWorkbook(expr, name)
	})
}

func (e *Engine) SetCellFormula(sheet string, row, col int64, text string) error {
	pos, err := e.position(sheet, row, col)
	if err != nil {
		return err
	}
	f, err := parse.Parse(text, e.settings.ParseOptions())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFormula, err)
	}
	e.breakSpill(pos)
	if err := e.store.SetFormula(pos, text); err != nil {
		return err
	}
	e.register(pos, f)
	for _, name := range parse.Functions(f.Expr) {
		if _, ok := e.funcs.Lookup(name); ok {
			continue
		}
		e.logger.Warn("unknown function", "cell", pos.String(), "function", name, "suggestions", e.funcs.Suggest(name))
	}
	return nil
}

func (e *Engine) SetCellValue(sheet string, row, col int64, v value.ScalarValue) error {
	pos, err := e.position(sheet, row, col)
	if err != nil {
		return err
	}
	e.breakSpill(pos)
	if err := e.unregister(pos); err != nil {
		return err
	}
	if err := e.store.SetValue(pos, v); err != nil {
		return err
	}
	e.markDirty(pos)
	return nil
}

func (e *Engine) ClearCell(sheet string, row, col int64) error {
	pos, err := e.position(sheet, row, col)
	if err != nil {
		return err
	}
	e.breakSpill(pos)
	if err := e.unregister(pos); err != nil {
		return err
	}
	if err := e.store.Clear(pos); err != nil {
		return err
	}
	e.markDirty(pos)
	return nil
}

func (e *Engine) Value(pos layout.Position) (value.ScalarValue, error) {
	if !e.store.HasSheet(pos.Sheet) {
		return nil, fmt.Errorf("%w: %s", ErrSheet, pos.Sheet)
	}
	return e.store.Value(pos)
}

// Cells lists the non empty cells of sheet line by line.
func (e *Engine) Cells(sheet string) ([]layout.Position, error) {
	if !e.store.HasSheet(sheet) {
		return nil, fmt.Errorf("%w: %s", ErrSheet, sheet)
	}
	return e.store.Cells(sheet)
}

// Formula gives the text of the formula at pos, an empty string when the
// cell holds no formula.
func (e *Engine) Formula(pos layout.Position) (string, error) {
	if _, ok := e.formulas[pos.Key()]; !ok {
		return "", nil
	}
	return e.store.Formula(pos)
}

// Evaluate computes a formula that does not belong to any cell. Relative
// references are read from A1 of sheet.
func (e *Engine) Evaluate(sheet, text string) (value.Value, error) {
	if !e.store.HasSheet(sheet) {
		return nil, fmt.Errorf("%w: %s", ErrSheet, sheet)
	}
	f, err := parse.Parse(text, e.settings.ParseOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormula, err)
	}
	env := e.env().At(layout.NewPosition(sheet, 1, 1))
	return eval.Eval(f.Expr, env), nil
}

// SpillOwner gives the anchor of the spill covering pos.
func (e *Engine) SpillOwner(pos layout.Position) (layout.Position, bool) {
	anchor, ok := e.graph.Owner(pos)
	if !ok || anchor.Equal(pos) {
		return layout.Position{}, false
	}
	return anchor, true
}

func (e *Engine) Dependencies(pos layout.Position) []layout.Position {
	return e.graph.Dependencies(pos)
}

func (e *Engine) Dependents(pos layout.Position) []layout.Position {
	return e.graph.Dependents(pos)
}

// Issue reports a function unknown to the registry of the engine.
type Issue struct {
	Function    string
	Suggestions []string
}

func (e *Engine) Lint(text string) ([]Issue, error) {
	f, err := parse.Parse(text, e.settings.ParseOptions())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFormula, err)
	}
	var (
		list []Issue
		seen = make(map[string]bool)
	)
	for _, name := range parse.Functions(f.Expr) {
		key := strings.ToUpper(name)
		if _, ok := e.funcs.Lookup(name); ok || seen[key] {
			continue
		}
		seen[key] = true
		list = append(list, Issue{
			Function:    name,
			Suggestions: e.funcs.Suggest(name),
		})
	}
	return list, nil
}

func (e *Engine) DefineName(sheet, ident, text string) error {
	if !validName(ident) {
		return fmt.Errorf("%w: %q", ErrName, ident)
	}
	if sheet != "" && !e.store.HasSheet(sheet) {
		return fmt.Errorf("%w: %s", ErrSheet, sheet)
	}
	f, err := parse.Parse(text, e.settings.ParseOptions())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrFormula, err)
	}
	e.names.Define(sheet, ident, f)
	return nil
}

func (e *Engine) RemoveName(sheet, ident string) error {
	if !e.names.Remove(sheet, ident) {
		return fmt.Errorf("%w: %s not defined", ErrName, ident)
	}
	return nil
}

func (e *Engine) AddTable(t Table) error {
	if !e.store.HasSheet(t.Sheet()) {
		return fmt.Errorf("%w: %s", ErrSheet, t.Sheet())
	}
	if !validName(t.Name) {
		return fmt.Errorf("%w: invalid name %q", ErrTable, t.Name)
	}
	if _, ok := e.tables.get(t.Name); ok {
		return fmt.Errorf("%w: %s already exists", ErrTable, t.Name)
	}
	t.Area = t.Area.Normalize()
	if !t.Area.Starts.Valid() || !t.Area.Ends.Valid() {
		return fmt.Errorf("%w: %s: area outside of grid", ErrTable, t.Name)
	}
	if int64(len(t.Columns)) != t.Area.Width() {
		return fmt.Errorf("%w: %s: %d columns for an area of width %d", ErrTable, t.Name, len(t.Columns), t.Area.Width())
	}
	for _, other := range e.tables.list {
		if _, ok := other.Area.Intersect(t.Area); ok {
			return fmt.Errorf("%w: %s overlaps %s", ErrTable, t.Name, other.Name)
		}
	}
	for i, c := range t.Columns {
		pos := t.Area.Starts.Move(0, int64(i))
		v, err := e.store.Value(pos)
		if err != nil {
			return err
		}
		if !value.IsBlank(v) {
			continue
		}
		if err := e.store.SetValue(pos, value.Text(c)); err != nil {
			return fmt.Errorf("%w: %s: header %s: %w", ErrTable, t.Name, pos, err)
		}
	}
	e.tables.add(&t)
	e.refresh(func(expr parse.Expr) bool {
		return mentionsTable(expr, t.Name)
	})
	return nil
}

// Tables lists the tables of the workbook in the order they were added.
func (e *Engine) Tables() []Table {
	list := make([]Table, 0, len(e.tables.list))
	for _, t := range e.tables.list {
		list = append(list, *t)
	}
	return list
}

func (e *Engine) Table(name string) (Table, bool) {
	t, ok := e.tables.get(name)
	if !ok {
		return Table{}, false
	}
	return *t, true
}

func (e *Engine) position(sheet string, row, col int64) (layout.Position, error) {
	if !e.store.HasSheet(sheet) {
		return layout.Position{}, fmt.Errorf("%w: %s", ErrSheet, sheet)
	}
	pos := layout.NewPosition(sheet, row, col)
	if !pos.Valid() {
		return pos, fmt.Errorf("%w: %s", ErrPosition, pos)
	}
	return pos, nil
}

func (e *Engine) register(pos layout.Position, f *parse.Formula) {
	if old, ok := e.formulas[pos.Key()]; ok {
		e.cache.Forget(old.formula)
	}
	e.formulas[pos.Key()] = cellFormula{
		pos:     pos,
		formula: f,
	}
	e.graph.SetFormula(pos, f.Expr, scope{e})
	e.markDirty(pos)
}

// unregister removes the formula at pos together with the cells it spilled.
func (e *Engine) unregister(pos layout.Position) error {
	cf, ok := e.formulas[pos.Key()]
	if !ok {
		return nil
	}
	for _, p := range e.clearSpill(pos) {
		e.markDirty(p)
	}
	delete(e.blocks, pos.Key())
	e.cache.Forget(cf.formula)
	e.graph.Remove(pos)
	delete(e.formulas, pos.Key())
	return e.store.Clear(pos)
}

// rebuild recomputes the edges of the formula at pos, after a name or a
// table it reads changed.
func (e *Engine) rebuild(pos layout.Position) {
	cf, ok := e.formulas[pos.Key()]
	if !ok {
		return
	}
	e.graph.SetFormula(cf.pos, cf.formula.Expr, scope{e})
	e.markDirty(cf.pos)
}

func (e *Engine) refresh(accept func(parse.Expr) bool) {
	for _, cf := range e.formulas {
		if accept(cf.formula.Expr) {
			e.rebuild(cf.pos)
		}
	}
}

func (e *Engine) nameChanged(evt NameEvent) {
	keys := []graph.NameKey{graph.WorkbookName(evt.Ident)}
	for _, sheet := range e.store.Sheets() {
		keys = append(keys, graph.SheetName(sheet, evt.Ident))
	}
	for _, k := range keys {
		for _, pos := range e.graph.NameDependents(k) {
			e.rebuild(pos)
		}
	}
}

func (e *Engine) markDirty(pos layout.Position) {
	e.dirty = append(e.dirty, pos)
}

func (e *Engine) env() *eval.Env {
	return &eval.Env{
		Workbook: e.name,
		Funcs:    e.funcs,
		Resolver: e,
		Dates:    e.settings.Dates,
		Culture:  e.settings.Culture,
		Clock:    e.clock,
		Rand:     e.rand,
	}
}

func validSheet(name string) bool {
	return name != "" && len(name) <= 31 && !strings.ContainsAny(name, "[]:*?/\\")
}

func validName(name string) bool {
	if name == "" || layout.IsAddress(name) {
		return false
	}
	if strings.EqualFold(name, "TRUE") || strings.EqualFold(name, "FALSE") {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_' || c == '\\':
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && (c == '.' || (c >= '0' && c <= '9')):
		default:
			return false
		}
	}
	return true
}

func mentionsSheet(expr parse.Expr, sheet string) bool {
	var found bool
	parse.Walk(expr, func(e parse.Expr) bool {
		switch e := e.(type) {
		case parse.Ref:
			ref := e.Reference()
			found = found || ref.ThreeD() || strings.EqualFold(ref.Sheet, sheet)
		case parse.Name:
			found = found || strings.EqualFold(e.Sheet(), sheet)
		}
		return !found
	})
	return found
}

func mentionsWorkbook(expr parse.Expr, name string) bool {
	var found bool
	parse.Walk(expr, func(e parse.Expr) bool {
		if r, ok := e.(parse.Ref); ok && strings.EqualFold(r.Reference().Workbook, name) {
			found = true
		}
		return !found
	})
	return found
}

func mentionsTable(expr parse.Expr, name string) bool {
	var found bool
	parse.Walk(expr, func(e parse.Expr) bool {
		if s, ok := e.(parse.Structured); ok {
			table := s.Reference().Table
			found = table == "" || strings.EqualFold(table, name)
		}
		return !found
	})
	return found
}

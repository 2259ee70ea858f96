package calc

import (
	"fmt"
	"slices"
	"strings"

	"github.com/midbel/xlcalc/formula/eval"
	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

// relocate tells where a cell goes after a structural change. The second
// result is false when the cell is deleted.
type relocate func(layout.Position) (layout.Position, bool)

func keep(pos layout.Position) (layout.Position, bool) {
	return pos, true
}

func (e *Engine) InsertRows(sheet string, at, count int64) error {
	return e.shift(layout.InsertLines(sheet, at, count))
}

func (e *Engine) DeleteRows(sheet string, at, count int64) error {
	return e.shift(layout.DeleteLines(sheet, at, count))
}

func (e *Engine) InsertColumns(sheet string, at, count int64) error {
	return e.shift(layout.InsertColumns(sheet, at, count))
}

func (e *Engine) DeleteColumns(sheet string, at, count int64) error {
	return e.shift(layout.DeleteColumns(sheet, at, count))
}

func (e *Engine) shift(shift layout.Shift) error {
	if !e.store.HasSheet(shift.Sheet) {
		return fmt.Errorf("%w: %s", ErrSheet, shift.Sheet)
	}
	if shift.Count == 0 {
		return fmt.Errorf("%w: nothing to %s", ErrCount, shift.Axis)
	}
	limit := int64(layout.MaxLines)
	if shift.Axis == layout.Columns {
		limit = layout.MaxColumns
	}
	if shift.At < 1 || shift.At > limit {
		return fmt.Errorf("%w: %s %d outside of grid", ErrPosition, shift.Axis, shift.At)
	}

	var anchors []layout.Position
	for _, area := range e.spills {
		if shift.Applies(area.Sheet()) {
			anchors = append(anchors, area.Starts)
		}
	}
	for _, a := range anchors {
		e.clearSpill(a)
	}
	if err := e.store.Shift(shift); err != nil {
		return err
	}
	move := func(pos layout.Position) (layout.Position, bool) {
		if !shift.Applies(pos.Sheet) {
			return pos, true
		}
		next, ok := shift.Position(pos)
		return next, ok && next.Valid()
	}
	e.shiftTables(shift)
	edit := parse.ShiftEdit(shift)
	e.rewriteNames(edit)
	if err := e.rewrite(edit, move); err != nil {
		return err
	}
	for _, a := range anchors {
		if next, ok := move(a); ok {
			e.markDirty(next)
		}
	}
	e.logger.Debug("structural change", "sheet", shift.Sheet, "axis", shift.Axis.String(), "at", shift.At, "count", shift.Count)
	return nil
}

func (e *Engine) RenameSheet(old, name string) error {
	if !e.store.HasSheet(old) {
		return fmt.Errorf("%w: %s", ErrSheet, old)
	}
	if !validSheet(name) {
		return fmt.Errorf("%w: %q", ErrSheet, name)
	}
	if !strings.EqualFold(old, name) && e.store.HasSheet(name) {
		return fmt.Errorf("%w: %s already exists", ErrSheet, name)
	}
	if err := e.store.RenameSheet(old, name); err != nil {
		return err
	}
	move := func(pos layout.Position) (layout.Position, bool) {
		if layout.SameSheet(pos.Sheet, old) {
			pos.Sheet = name
		}
		return pos, true
	}
	spills := make(map[string]layout.Range)
	for _, area := range e.spills {
		if layout.SameSheet(area.Sheet(), old) {
			area.Starts.Sheet, area.Ends.Sheet = name, name
		}
		spills[area.Starts.Key()] = area
	}
	e.spills = spills
	for _, t := range e.tables.list {
		if layout.SameSheet(t.Sheet(), old) {
			t.Area.Starts.Sheet, t.Area.Ends.Sheet = name, name
		}
	}
	e.names.rename(old, name)
	edit := parse.RenameSheetEdit(old, name)
	e.rewriteNames(edit)
	return e.rewrite(edit, move)
}

func (e *Engine) RenameTable(old, name string) error {
	t, ok := e.tables.get(old)
	if !ok {
		return fmt.Errorf("%w: %s not found", ErrTable, old)
	}
	if !validName(name) {
		return fmt.Errorf("%w: invalid name %q", ErrTable, name)
	}
	if other, ok := e.tables.get(name); ok && other != t {
		return fmt.Errorf("%w: %s already exists", ErrTable, name)
	}
	t.Name = name
	edit := parse.RenameTableEdit(old, name)
	e.rewriteNames(edit)
	return e.rewrite(edit, keep)
}

func (e *Engine) RenameTableColumn(table, old, name string) error {
	t, ok := e.tables.get(table)
	if !ok {
		return fmt.Errorf("%w: %s not found", ErrTable, table)
	}
	ix, ok := t.Column(old)
	if !ok {
		return fmt.Errorf("%w: %s: unknown column %s", ErrTable, table, old)
	}
	if other, ok := t.Column(name); ok && other != ix {
		return fmt.Errorf("%w: %s: column %s already exists", ErrTable, table, name)
	}
	header := t.Area.Starts.Move(0, ix)
	v, err := e.store.Value(header)
	if err != nil {
		return err
	}
	if strings.EqualFold(v.String(), old) {
		if err := e.store.SetValue(header, value.Text(name)); err != nil {
			return err
		}
	}
	t.Columns[ix] = name
	edit := parse.RenameColumnEdit(t.Name, old, name)
	e.rewriteNames(edit)
	return e.rewrite(edit, keep)
}

// rewrite applies edit to every formula, moves the formulas with their cells
// and rebuilds the graph. Formulas whose text changed are marked dirty.
func (e *Engine) rewrite(edit parse.Edit, move relocate) error {
	var (
		formulas = make(map[string]cellFormula)
		list     = make([]cellFormula, 0, len(e.formulas))
	)
	for _, cf := range e.formulas {
		list = append(list, cf)
		e.graph.Remove(cf.pos)
	}
	e.cache = eval.NewCache()

	var dirty []layout.Position
	for _, pos := range e.dirty {
		if next, ok := move(pos); ok {
			dirty = append(dirty, next)
		}
	}
	e.dirty = dirty

	for _, cf := range list {
		next, ok := move(cf.pos)
		if !ok {
			continue
		}
		expr, changed := parse.Rewrite(cf.formula.Expr, edit, cf.pos, next)
		f := cf.formula
		if changed {
			f = &parse.Formula{
				Text: parse.Format(expr, e.settings.FormatOptions(next)),
				Expr: expr,
			}
			if err := e.store.SetFormula(next, f.Text); err != nil {
				return err
			}
			e.markDirty(next)
		}
		formulas[next.Key()] = cellFormula{
			pos:     next,
			formula: f,
		}
	}
	e.formulas = formulas
	for key, area := range e.blocks {
		delete(e.blocks, key)
		if next, ok := move(area.Starts); ok {
			e.markDirty(next)
		}
	}
	for _, cf := range e.formulas {
		e.graph.SetFormula(cf.pos, cf.formula.Expr, scope{e})
	}
	for _, area := range e.spills {
		e.graph.SetSpill(area.Starts, area.Positions())
	}
	return nil
}

// rewriteNames applies edit to the definitions of the names. The formulas
// are rebuilt afterwards by rewrite so subscribers are not notified.
func (e *Engine) rewriteNames(edit parse.Edit) {
	sheets := e.store.Sheets()
	for _, def := range e.names.List() {
		sheet := def.Sheet
		if sheet == "" && len(sheets) > 0 {
			sheet = sheets[0]
		}
		origin := layout.NewPosition(sheet, 1, 1)
		expr, changed := parse.Rewrite(def.Formula.Expr, edit, origin, origin)
		if !changed {
			continue
		}
		opts := e.settings.FormatOptions(origin)
		opts.LeadingEqual = false
		def.Formula = &parse.Formula{
			Text: parse.Format(expr, opts),
			Expr: expr,
		}
	}
}

// shiftTables moves the tables of the shifted sheet. A table losing all its
// cells is dropped; columns inserted inside a table get a generated name.
func (e *Engine) shiftTables(shift layout.Shift) {
	var dropped []string
	for _, t := range e.tables.list {
		if !shift.Applies(t.Sheet()) {
			continue
		}
		area, ok := shift.Range(t.Area)
		if !ok {
			dropped = append(dropped, t.Name)
			continue
		}
		if shift.Axis == layout.Columns {
			t.Columns = shiftColumns(t, shift)
		}
		t.Area = area
		if t.Area.Height() < 1 || int64(len(t.Columns)) != t.Area.Width() {
			dropped = append(dropped, t.Name)
		}
	}
	for _, name := range dropped {
		e.logger.Warn("table removed by structural change", "table", name)
		e.tables.remove(name)
	}
}

func shiftColumns(t *Table, shift layout.Shift) []string {
	start := t.Area.Starts.Column
	if shift.Deletion() {
		var list []string
		for i, c := range t.Columns {
			if _, ok := shift.Index(start + int64(i)); ok {
				list = append(list, c)
			}
		}
		return list
	}
	if shift.At <= start || shift.At > t.Area.Ends.Column {
		return t.Columns
	}
	var (
		ix    = int(shift.At - start)
		added []string
	)
	for i := int64(1); len(added) < int(shift.Count); i++ {
		name := fmt.Sprintf("Column%d", i)
		if _, ok := t.Column(name); !ok {
			added = append(added, name)
		}
	}
	return slices.Insert(slices.Clone(t.Columns), ix, added...)
}

package calc

import (
	"slices"
	"strings"

	"github.com/midbel/xlcalc/formula/eval"
	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

func (e *Engine) ResolveReference(env *eval.Env, ref parse.Reference) (value.Value, error) {
	if !ref.External() || strings.EqualFold(ref.Workbook, e.name) {
		return e.reference(env.Origin, ref), nil
	}
	other, ok := e.links[strings.ToUpper(ref.Workbook)]
	if !ok {
		return value.ErrRef, nil
	}
	ref.Workbook = ""
	return other.reference(env.Origin, ref), nil
}

func (e *Engine) ResolveName(env *eval.Env, sheet, name string) (parse.Expr, error) {
	var (
		def *Name
		ok  bool
	)
	if sheet != "" {
		def, ok = e.names.Lookup(sheet, name)
	} else {
		def, ok = e.names.Resolve(env.Sheet, name)
	}
	if !ok {
		return nil, nil
	}
	return def.Formula.Expr, nil
}

func (e *Engine) ResolveTable(env *eval.Env, ref parse.StructuredRef) (parse.Reference, error) {
	rg, err := e.tables.resolve(ref, env.Origin)
	if err != nil {
		return parse.Reference{}, value.ErrRef
	}
	return parse.RangeReference(rg), nil
}

func (e *Engine) reference(origin layout.Position, ref parse.Reference) value.Value {
	rg, err := ref.Resolve(origin)
	if err != nil {
		return value.ErrRef
	}
	if !ref.ThreeD() {
		return e.block(rg)
	}
	var data [][]value.ScalarValue
	for _, sheet := range e.sheetSpan(ref.Sheet, ref.EndSheet) {
		x := rg
		x.Starts.Sheet, x.Ends.Sheet = sheet, sheet
		data = append(data, value.ToArray(e.block(x)).Data...)
	}
	if len(data) == 0 {
		return value.ErrRef
	}
	return value.NewArray(data)
}

func (e *Engine) block(rg layout.Range) value.Value {
	if !e.store.HasSheet(rg.Sheet()) {
		return value.ErrRef
	}
	if rg.Single() {
		return e.cell(rg.Starts)
	}
	data := make([][]value.ScalarValue, rg.Height())
	for i := range data {
		data[i] = make([]value.ScalarValue, rg.Width())
		for j := range data[i] {
			data[i][j] = e.cell(rg.Starts.Move(int64(i), int64(j)))
		}
	}
	return value.NewRefArray(rg.Starts, data)
}

func (e *Engine) cell(pos layout.Position) value.ScalarValue {
	v, err := e.store.Value(pos)
	if err != nil {
		e.logger.Error("fail to read cell", "cell", pos.String(), "err", err)
		return value.ErrValue
	}
	if v == nil {
		return value.Blank{}
	}
	return v
}

func (e *Engine) sheetSpan(first, last string) []string {
	var (
		sheets = e.store.Sheets()
		from   = slices.IndexFunc(sheets, func(s string) bool { return layout.SameSheet(s, first) })
		to     = slices.IndexFunc(sheets, func(s string) bool { return layout.SameSheet(s, last) })
	)
	if from < 0 || to < 0 {
		return nil
	}
	if from > to {
		from, to = to, from
	}
	return sheets[from : to+1]
}

// scope exposes the workbook to the dependency graph.
type scope struct {
	e *Engine
}

func (s scope) Workbook() string {
	return s.e.name
}

func (s scope) Sheets() []string {
	return s.e.store.Sheets()
}

func (s scope) Name(sheet, name string) (parse.Expr, bool, bool) {
	def, ok := s.e.names.Resolve(sheet, name)
	if !ok {
		return nil, false, false
	}
	return def.Formula.Expr, def.Scoped(), true
}

func (s scope) Table(ref parse.StructuredRef, origin layout.Position) (layout.Range, bool) {
	rg, err := s.e.tables.resolve(ref, origin)
	return rg, err == nil
}

func (s scope) Volatile(name string) bool {
	fn, ok := s.e.funcs.Lookup(name)
	return ok && fn.Volatile
}

package eval

import (
	"math/rand/v2"
	"time"

	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
	"golang.org/x/text/language"
)

// maxDepth bounds the nesting of names defined through other names.
const maxDepth = 64

// Resolver gives the evaluator access to the data living outside of the
// expression being evaluated. Go errors are kept for broken collaborators;
// missing data is reported with an error value (value.Error implements
// error).
type Resolver interface {
	ResolveReference(env *Env, ref parse.Reference) (value.Value, error)
	// ResolveName returns the definition of a name, or nil when the name is
	// not defined. A non empty sheet restricts the lookup to the names
	// scoped to that sheet.
	ResolveName(env *Env, sheet, name string) (parse.Expr, error)
}

type TableResolver interface {
	ResolveTable(env *Env, ref parse.StructuredRef) (parse.Reference, error)
}

type Env struct {
	Workbook string
	Sheet    string
	Origin   layout.Position
	Funcs    *Registry
	Resolver Resolver
	Dates    value.DateSystem
	Culture  language.Tag
	Clock    func() time.Time
	Rand     func() float64

	depth int
}

// At returns a copy of the environment for a formula located at pos.
func (e *Env) At(pos layout.Position) *Env {
	x := *e
	x.Origin = pos
	if pos.Sheet != "" {
		x.Sheet = pos.Sheet
	}
	x.depth = 0
	return &x
}

func (e *Env) Now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now()
}

func (e *Env) Random() float64 {
	if e.Rand != nil {
		return e.Rand()
	}
	return rand.Float64()
}

// Implicit narrows a value to a scalar. A range coming from cells is reduced
// to the cell on the line or the column of the origin; other arrays give
// their top left value.
func (e *Env) Implicit(v value.Value) value.ScalarValue {
	switch x := v.(type) {
	case value.ScalarValue:
		return x
	case value.Array:
		dim := x.Dimension()
		if !x.Reference() || dim.Single() {
			return value.Single(x)
		}
		switch {
		case dim.Columns == 1:
			row := e.Origin.Line - x.Anchor.Line
			if row >= 0 && row < dim.Lines {
				return x.At(int(row), 0)
			}
		case dim.Lines == 1:
			col := e.Origin.Column - x.Anchor.Column
			if col >= 0 && col < dim.Columns {
				return x.At(0, int(col))
			}
		}
		return value.ErrValue
	case value.ArrayValue:
		return value.Single(x)
	default:
		return value.Blank{}
	}
}

func (e *Env) resolve(ref parse.Reference) value.Value {
	if e.Resolver == nil {
		return value.ErrRef
	}
	v, err := e.Resolver.ResolveReference(e, ref)
	if err != nil {
		return value.Fail(err)
	}
	if v == nil {
		return value.Blank{}
	}
	return v
}

func (e *Env) resolveRange(rg layout.Range) value.Value {
	return e.resolve(parse.RangeReference(rg))
}

func (e *Env) definition(sheet, name string) (parse.Expr, value.Value) {
	if e.Resolver == nil {
		return nil, value.ErrName
	}
	expr, err := e.Resolver.ResolveName(e, sheet, name)
	if err != nil {
		return nil, value.Fail(err)
	}
	if expr == nil {
		return nil, value.ErrName
	}
	return expr, nil
}

func (e *Env) table(ref parse.StructuredRef) (parse.Reference, value.Value) {
	tr, ok := e.Resolver.(TableResolver)
	if !ok {
		return parse.Reference{}, value.ErrRef
	}
	res, err := tr.ResolveTable(e, ref)
	if err != nil {
		return res, value.Fail(err)
	}
	return res, nil
}

func (e *Env) enter() bool {
	e.depth++
	return e.depth <= maxDepth
}

func (e *Env) leave() {
	e.depth--
}

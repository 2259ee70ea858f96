package eval

import (
	"github.com/midbel/xlcalc/formula/op"
	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

// Eval computes the value of expr. Failures are reported as error values,
// never as Go errors.
func Eval(expr parse.Expr, env *Env) value.Value {
	switch e := expr.(type) {
	case parse.Literal:
		return e.Value()
	case parse.Ref:
		return env.resolve(e.Reference())
	case parse.Name:
		return evalName(e, env)
	case parse.Structured:
		return evalStructured(e, env)
	case parse.Group:
		return Eval(e.Expr(), env)
	case parse.ArrayLit:
		return value.NewArray(e.Rows())
	case parse.Unary:
		return value.Apply(Eval(e.Expr(), env), unaryFunc(e.Op()))
	case parse.Postfix:
		return value.Apply(Eval(e.Expr(), env), unaryFunc(e.Op()))
	case parse.Binary:
		return evalBinary(e, env)
	case parse.Call:
		return evalCall(e, env)
	default:
		return value.ErrValue
	}
}

func evalName(e parse.Name, env *Env) value.Value {
	if !env.enter() {
		env.leave()
		return value.ErrCirc
	}
	defer env.leave()
	def, err := env.definition(e.Sheet(), e.Ident())
	if err != nil {
		return err
	}
	return Eval(def, env)
}

func evalStructured(e parse.Structured, env *Env) value.Value {
	ref, err := env.table(e.Reference())
	if err != nil {
		return err
	}
	return env.resolve(ref)
}

func evalBinary(e parse.Binary, env *Env) value.Value {
	switch e.Op() {
	case op.Union, op.Isect, op.RangeRef:
		return evalSet(e, env)
	}
	var (
		left  = Eval(e.Left(), env)
		right = Eval(e.Right(), env)
	)
	return value.Broadcast(left, right, binaryFunc(e.Op()))
}

// evalSet computes the cells covered by a union, an intersection or a range
// built from two references.
func evalSet(e parse.Binary, env *Env) value.Value {
	list, err := areas(e, env)
	if err != nil {
		return value.Fail(err)
	}
	return collect(list, env)
}

func collect(list []layout.Range, env *Env) value.Value {
	if len(list) == 1 {
		return env.resolveRange(list[0])
	}
	var cells []value.ScalarValue
	for _, rg := range list {
		v := env.resolveRange(rg)
		if value.IsError(v) && !value.IsArray(v) && !rg.Single() {
			continue
		}
		cells = append(cells, value.Scalars(v)...)
	}
	if len(cells) == 0 {
		return value.ErrNull
	}
	data := make([][]value.ScalarValue, len(cells))
	for i := range cells {
		data[i] = []value.ScalarValue{cells[i]}
	}
	return value.NewRefArray(list[0].Starts, data)
}

func evalCall(e parse.Call, env *Env) value.Value {
	fn, ok := env.Funcs.Lookup(e.Name())
	if !ok {
		return value.ErrName
	}
	var (
		list = e.Args()
		args = make([]*Arg, len(list))
	)
	for i := range list {
		args[i] = newArg(list[i], env, fn.Mode(i), nil)
	}
	return fn.invoke(env, args)
}

// areas lists the ranges covered by a reference expression. The error is
// always a value error.
func areas(expr parse.Expr, env *Env) ([]layout.Range, error) {
	switch e := expr.(type) {
	case parse.Ref:
		ref := e.Reference()
		if ref.External() || ref.ThreeD() {
			return nil, value.ErrValue
		}
		rg, err := ref.Resolve(env.Origin)
		if err != nil {
			return nil, value.ErrRef
		}
		return []layout.Range{rg}, nil
	case parse.Group:
		return areas(e.Expr(), env)
	case parse.Literal:
		if parse.IsDeletedRef(e) {
			return nil, value.ErrRef
		}
		return nil, value.ErrValue
	case parse.Name:
		if !env.enter() {
			env.leave()
			return nil, value.ErrCirc
		}
		defer env.leave()
		def, err := env.definition(e.Sheet(), e.Ident())
		if err != nil {
			return nil, asError(err)
		}
		return areas(def, env)
	case parse.Structured:
		ref, err := env.table(e.Reference())
		if err != nil {
			return nil, asError(err)
		}
		rg, rerr := ref.Resolve(env.Origin)
		if rerr != nil {
			return nil, value.ErrRef
		}
		return []layout.Range{rg}, nil
	case parse.Binary:
		return binaryAreas(e, env)
	case parse.Call:
		arr, ok := Eval(e, env).(value.Array)
		if !ok || !arr.Reference() {
			return nil, value.ErrValue
		}
		dim := arr.Dimension()
		if dim.Size() == 0 {
			return nil, value.ErrRef
		}
		end := arr.Anchor
		end.Line += dim.Lines - 1
		end.Column += dim.Columns - 1
		return []layout.Range{layout.NewRange(arr.Anchor, end)}, nil
	default:
		return nil, value.ErrValue
	}
}

func binaryAreas(e parse.Binary, env *Env) ([]layout.Range, error) {
	left, err := areas(e.Left(), env)
	if err != nil {
		return nil, err
	}
	right, err := areas(e.Right(), env)
	if err != nil {
		return nil, err
	}
	switch e.Op() {
	case op.Union:
		return append(left, right...), nil
	case op.Isect:
		var list []layout.Range
		for _, a := range left {
			for _, b := range right {
				if x, ok := a.Intersect(b); ok {
					list = append(list, x)
				}
			}
		}
		if len(list) == 0 {
			return nil, value.ErrNull
		}
		return list, nil
	case op.RangeRef:
		if len(left) != 1 || len(right) != 1 || !layout.SameSheet(left[0].Sheet(), right[0].Sheet()) {
			return nil, value.ErrValue
		}
		var (
			a  = left[0]
			b  = right[0]
			rg = a
		)
		rg.Starts.Line = min(a.Starts.Line, b.Starts.Line)
		rg.Starts.Column = min(a.Starts.Column, b.Starts.Column)
		rg.Ends.Line = max(a.Ends.Line, b.Ends.Line)
		rg.Ends.Column = max(a.Ends.Column, b.Ends.Column)
		return []layout.Range{rg}, nil
	default:
		return nil, value.ErrValue
	}
}

// isReference tells whether expr designates cells once names are replaced by
// their definition.
func isReference(expr parse.Expr, env *Env) bool {
	switch e := parse.Unwrap(expr).(type) {
	case parse.Ref, parse.Structured:
		return true
	case parse.Binary:
		return op.Reference(e.Op())
	case parse.Name:
		if !env.enter() {
			env.leave()
			return false
		}
		defer env.leave()
		def, err := env.definition(e.Sheet(), e.Ident())
		if err != nil {
			return false
		}
		return isReference(def, env)
	default:
		return false
	}
}

func asError(v value.Value) error {
	if e, ok := v.(value.Error); ok {
		return e
	}
	return value.ErrValue
}

func unaryFunc(oper op.Op) value.UnaryFunc {
	switch oper {
	case op.Sub:
		return value.Negate
	case op.Percent:
		return value.Percent
	default:
		return value.Identity
	}
}

func binaryFunc(oper op.Op) value.BinaryFunc {
	switch oper {
	case op.Add:
		return value.Add
	case op.Sub:
		return value.Sub
	case op.Mul:
		return value.Mul
	case op.Div:
		return value.Div
	case op.Pow:
		return value.Pow
	case op.Concat:
		return value.Concat
	case op.Eq:
		return value.Eq
	case op.Ne:
		return value.Ne
	case op.Lt:
		return value.Lt
	case op.Le:
		return value.Le
	case op.Gt:
		return value.Gt
	case op.Ge:
		return value.Ge
	default:
		return func(_, _ value.ScalarValue) value.ScalarValue {
			return value.ErrValue
		}
	}
}

package eval

import (
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/midbel/xlcalc/formula/parse"
	"github.com/midbel/xlcalc/layout"
	"github.com/midbel/xlcalc/value"
)

type ArgMode int8

const (
	// ArgValue arguments are evaluated before the function is called.
	ArgValue ArgMode = iota
	// ArgRef arguments keep track of the reference they were written with.
	ArgRef
	// ArgLazy arguments are only evaluated when the function asks for it.
	ArgLazy
)

// Variadic is used as Max for functions accepting any number of arguments.
const Variadic = -1

type Function struct {
	Name     string
	Min      int
	Max      int
	Modes    []ArgMode
	Volatile bool
	Call     func(*Env, []*Arg) value.Value
}

// Mode gives the evaluation mode of the argument at index i. The last mode
// applies to every argument after it.
func (f Function) Mode(i int) ArgMode {
	if len(f.Modes) == 0 {
		return ArgValue
	}
	if i >= len(f.Modes) {
		i = len(f.Modes) - 1
	}
	return f.Modes[i]
}

func (f Function) Accept(n int) bool {
	return n >= f.Min && (f.Max == Variadic || n <= f.Max)
}

func (f Function) invoke(env *Env, args []*Arg) value.Value {
	if !f.Accept(len(args)) || f.Call == nil {
		return value.ErrValue
	}
	for i := range args {
		if args[i].mode == ArgValue {
			args[i].Eval()
		}
	}
	res := f.Call(env, args)
	if res == nil {
		return value.Blank{}
	}
	return res
}

// Arg is an argument of a function call. It is evaluated on first use and
// remembers its value.
type Arg struct {
	expr parse.Expr
	env  *Env
	mode ArgMode
	run  func(*Env) value.Value

	done bool
	val  value.Value
}

func newArg(expr parse.Expr, env *Env, mode ArgMode, run func(*Env) value.Value) *Arg {
	return &Arg{
		expr: expr,
		env:  env,
		mode: mode,
		run:  run,
	}
}

// ValueArg wraps an already computed value.
func ValueArg(v value.Value) *Arg {
	return &Arg{
		done: true,
		val:  v,
	}
}

func (a *Arg) Eval() value.Value {
	if a.done {
		return a.val
	}
	if a.run != nil {
		a.val = a.run(a.env)
	} else {
		a.val = Eval(a.expr, a.env)
	}
	a.done = true
	return a.val
}

// Scalar evaluates the argument and narrows it with implicit intersection.
func (a *Arg) Scalar() value.ScalarValue {
	v := a.Eval()
	if a.env == nil {
		if s, ok := v.(value.ScalarValue); ok {
			return s
		}
		return value.ErrValue
	}
	return a.env.Implicit(v)
}

func (a *Arg) Expr() parse.Expr {
	return a.expr
}

// Elided reports an argument left empty in the call, like the first one of
// IF(,1).
func (a *Arg) Elided() bool {
	lit, ok := a.expr.(parse.Literal)
	return ok && value.IsBlank(lit.Value())
}

// Reference reports whether the argument was written as a reference to
// cells, in which case aggregates skip its text and boolean members.
func (a *Arg) Reference() bool {
	if arr, ok := a.Eval().(value.Array); ok && arr.Reference() {
		return true
	}
	if a.env == nil {
		return false
	}
	return isReference(a.expr, a.env)
}

// Ranges gives the areas covered by a reference argument.
func (a *Arg) Ranges() ([]layout.Range, bool) {
	if a.env == nil {
		return nil, false
	}
	list, err := areas(a.expr, a.env)
	return list, err == nil
}

type Registry struct {
	funcs map[string]Function
}

func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]Function),
	}
}

func (r *Registry) Register(list ...Function) {
	for _, fn := range list {
		fn.Name = canonical(fn.Name)
		r.funcs[fn.Name] = fn
	}
}

func (r *Registry) Lookup(name string) (Function, bool) {
	if r == nil {
		return Function{}, false
	}
	fn, ok := r.funcs[canonical(name)]
	return fn, ok
}

func (r *Registry) Names() []string {
	var list []string
	for n := range r.funcs {
		list = append(list, n)
	}
	slices.Sort(list)
	return list
}

// Volatile reports whether expr calls a function whose result changes at
// every evaluation.
func (r *Registry) Volatile(expr parse.Expr) bool {
	for _, name := range parse.Functions(expr) {
		if fn, ok := r.Lookup(name); ok && fn.Volatile {
			return true
		}
	}
	return false
}

// Suggest lists the registered names close to name, best first.
func (r *Registry) Suggest(name string) []string {
	var (
		names = r.Names()
		key   = canonical(name)
	)
	ranks := fuzzy.RankFindFold(key, names)
	sort.Sort(ranks)

	var list []string
	for _, rk := range ranks {
		list = append(list, rk.Target)
	}
	if len(list) > 0 {
		return list
	}
	type candidate struct {
		name string
		dist int
	}
	var all []candidate
	for _, n := range names {
		d := fuzzy.LevenshteinDistance(key, n)
		if d > 2 {
			continue
		}
		all = append(all, candidate{name: n, dist: d})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].dist < all[j].dist
	})
	for _, c := range all {
		list = append(list, c.name)
	}
	return list
}

func canonical(name string) string {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, prefix := range []string{"_XLFN.", "_XLWS."} {
		name = strings.TrimPrefix(name, prefix)
	}
	return name
}
